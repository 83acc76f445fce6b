package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/videoflix/vod/internal/config"
	"github.com/videoflix/vod/internal/domain"
	"github.com/videoflix/vod/internal/ffmpeg"
	"github.com/videoflix/vod/internal/hls"
	"github.com/videoflix/vod/internal/metrics"
	"github.com/videoflix/vod/internal/queue"
	"github.com/videoflix/vod/internal/store"
	"github.com/videoflix/vod/internal/transcode"
)

func main() {
	// Load .env file if exists
	_ = godotenv.Load()

	// Initialize logger
	logger, err := zap.NewProduction()
	if err != nil {
		panic("failed to initialize logger: " + err.Error())
	}
	defer logger.Sync()

	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		logger.Fatal("failed to load configuration", zap.Error(err))
	}

	if err := domain.ValidateRenditions(); err != nil {
		logger.Fatal("invalid rendition table", zap.Error(err))
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Initialize database
	database, err := store.New(ctx, cfg.Database)
	if err != nil {
		logger.Fatal("failed to connect to database", zap.Error(err))
	}
	defer database.Close()

	videoRepo := store.NewVideoRepository(database)

	// Initialize job queue
	jobQueue, err := queue.NewRedisQueue(ctx, cfg.Redis)
	if err != nil {
		logger.Fatal("failed to connect to job queue", zap.Error(err))
	}
	defer jobQueue.Close()

	// Initialize metrics
	m := metrics.New()

	// Build the encoding pipeline
	layout := hls.NewLayout(cfg.Media.Root)
	runner := ffmpeg.NewRunner(cfg.FFmpeg.BinaryPath, cfg.FFmpeg.ProcessTimeout)
	builder := ffmpeg.NewCommandBuilder(cfg.FFmpeg.SegmentDurationSec)
	encoder := ffmpeg.NewEncoder(runner, builder, logger)
	jobRunner := transcode.NewRunner(videoRepo, encoder, layout, logger, m)

	dispatcher := queue.NewDispatcher(jobQueue, jobRunner, cfg.Worker.Count, cfg.Worker.MaxAttempts, logger, m)

	// Handle shutdown signals
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	// Start metrics server
	go func() {
		mux := http.NewServeMux()
		mux.Handle("/metrics", promhttp.Handler())
		mux.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusOK)
			w.Write([]byte("OK"))
		})
		metricsAddr := ":9090"
		logger.Info("starting metrics server", zap.String("addr", metricsAddr))
		if err := http.ListenAndServe(metricsAddr, mux); err != nil {
			logger.Error("metrics server error", zap.Error(err))
		}
	}()

	// Run the worker pool
	done := make(chan struct{})
	go func() {
		dispatcher.Start(ctx)
		close(done)
	}()

	logger.Info("worker started",
		zap.Int("workers", cfg.Worker.Count),
		zap.String("queueKey", cfg.Redis.QueueKey),
		zap.String("mediaRoot", cfg.Media.Root),
	)

	sig := <-sigChan
	logger.Info("received shutdown signal", zap.String("signal", sig.String()))

	cancel()
	<-done
	logger.Info("worker stopped")
}
