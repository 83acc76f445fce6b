package config

import (
	"testing"
	"time"
)

func TestLoadDefaults(t *testing.T) {
	t.Setenv("AUTH_JWT_SECRET", "s3cret")

	cfg, err := Load()
	if err != nil {
		t.Fatal(err)
	}

	if cfg.Media.Root != "/media" {
		t.Errorf("media root = %q", cfg.Media.Root)
	}
	if cfg.Redis.QueueKey != "vod:transcode" {
		t.Errorf("queue key = %q", cfg.Redis.QueueKey)
	}
	if cfg.Worker.Count != 2 {
		t.Errorf("worker count = %d", cfg.Worker.Count)
	}
	if cfg.Worker.MaxAttempts != 3 {
		t.Errorf("max attempts = %d", cfg.Worker.MaxAttempts)
	}
	if cfg.FFmpeg.SegmentDurationSec != 6 {
		t.Errorf("segment duration = %d", cfg.FFmpeg.SegmentDurationSec)
	}
	if cfg.FFmpeg.ProcessTimeout != 2*time.Hour {
		t.Errorf("process timeout = %s", cfg.FFmpeg.ProcessTimeout)
	}
	if cfg.Auth.CookieName != "access_token" {
		t.Errorf("cookie name = %q", cfg.Auth.CookieName)
	}
}

func TestLoadOverrides(t *testing.T) {
	t.Setenv("AUTH_JWT_SECRET", "s3cret")
	t.Setenv("MEDIA_ROOT", "/srv/media")
	t.Setenv("WORKER_COUNT", "8")
	t.Setenv("HLS_SEGMENT_DURATION_SEC", "4")
	t.Setenv("FFMPEG_PROCESS_TIMEOUT", "30m")

	cfg, err := Load()
	if err != nil {
		t.Fatal(err)
	}

	if cfg.Media.Root != "/srv/media" {
		t.Errorf("media root = %q", cfg.Media.Root)
	}
	if cfg.Worker.Count != 8 {
		t.Errorf("worker count = %d", cfg.Worker.Count)
	}
	if cfg.FFmpeg.SegmentDurationSec != 4 {
		t.Errorf("segment duration = %d", cfg.FFmpeg.SegmentDurationSec)
	}
	if cfg.FFmpeg.ProcessTimeout != 30*time.Minute {
		t.Errorf("process timeout = %s", cfg.FFmpeg.ProcessTimeout)
	}
}

func TestValidate(t *testing.T) {
	base := func() *Config {
		return &Config{
			Media:  MediaConfig{Root: "/media"},
			Redis:  RedisConfig{Addr: "localhost:6379"},
			Auth:   AuthConfig{JWTSecret: "s3cret"},
			Worker: WorkerConfig{Count: 1, MaxAttempts: 1},
			FFmpeg: FFmpegConfig{SegmentDurationSec: 6},
		}
	}

	if err := base().Validate(); err != nil {
		t.Fatalf("valid config rejected: %v", err)
	}

	tests := []struct {
		name   string
		mutate func(*Config)
	}{
		{"empty media root", func(c *Config) { c.Media.Root = "" }},
		{"empty redis addr", func(c *Config) { c.Redis.Addr = "" }},
		{"empty jwt secret", func(c *Config) { c.Auth.JWTSecret = "" }},
		{"zero workers", func(c *Config) { c.Worker.Count = 0 }},
		{"zero attempts", func(c *Config) { c.Worker.MaxAttempts = 0 }},
		{"zero segment duration", func(c *Config) { c.FFmpeg.SegmentDurationSec = 0 }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := base()
			tt.mutate(cfg)
			if err := cfg.Validate(); err == nil {
				t.Error("expected a validation error")
			}
		})
	}
}

func TestLoadRequiresJWTSecret(t *testing.T) {
	t.Setenv("AUTH_JWT_SECRET", "")

	if _, err := Load(); err == nil {
		t.Error("expected an error without AUTH_JWT_SECRET")
	}
}
