package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"
	"go.uber.org/zap"

	"github.com/videoflix/vod/internal/api"
	"github.com/videoflix/vod/internal/auth"
	"github.com/videoflix/vod/internal/config"
	"github.com/videoflix/vod/internal/domain"
	"github.com/videoflix/vod/internal/hls"
	"github.com/videoflix/vod/internal/media"
	"github.com/videoflix/vod/internal/metrics"
	"github.com/videoflix/vod/internal/queue"
	"github.com/videoflix/vod/internal/store"
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

	layout := hls.NewLayout(cfg.Media.Root)
	service := media.NewService(videoRepo, jobQueue, layout, logger, m)

	handler := api.NewHandler(cfg, service, videoRepo, layout, database, jobQueue, logger, m)
	verifier := auth.NewVerifier(cfg.Auth.JWTSecret)
	router := api.NewRouter(handler, verifier, cfg.Auth.CookieName, logger)

	server := api.NewServer(cfg.API, router, logger)

	// Handle shutdown signals
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		if err := server.Start(); err != nil {
			logger.Error("server error", zap.Error(err))
			cancel()
		}
	}()

	logger.Info("API server started",
		zap.Int("port", cfg.API.Port),
		zap.String("mediaRoot", cfg.Media.Root),
	)

	select {
	case <-sigChan:
		logger.Info("received shutdown signal")
	case <-ctx.Done():
	}

	if err := server.Stop(ctx); err != nil {
		logger.Error("error during shutdown", zap.Error(err))
	}

	logger.Info("API server stopped")
}
