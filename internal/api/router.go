package api

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/videoflix/vod/internal/auth"
)

// NewRouter creates a new API router. Every video and asset route sits behind
// the authentication gate; only probes and metrics are public.
func NewRouter(h *Handler, verifier *auth.Verifier, cookieName string, logger *zap.Logger) *chi.Mux {
	r := chi.NewRouter()

	// Middleware
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(60 * time.Second))
	r.Use(requestLogger(logger))

	// Health endpoints
	r.Get("/healthz", h.HealthCheck)
	r.Get("/readyz", h.ReadyCheck)

	// Metrics endpoint
	r.Handle("/metrics", promhttp.Handler())

	// Authenticated routes
	r.Group(func(r chi.Router) {
		r.Use(auth.Middleware(verifier, cookieName, logger))

		r.Route("/api/video", func(r chi.Router) {
			r.Get("/", h.ListVideos)
			r.Post("/", h.CreateVideo)
			r.Get("/{videoId}", h.GetVideo)
			r.Put("/{videoId}", h.UpdateVideo)
			r.Delete("/{videoId}", h.DeleteVideo)
		})

		r.Route("/video/{movieId}/{resolution}", func(r chi.Router) {
			r.Get("/index.m3u8", h.ServeManifest)
			r.Get("/{segment}", h.ServeSegment)
		})

		r.Get("/media/thumbnail/{thumbnail}", h.ServeThumbnail)
	})

	return r
}

// requestLogger logs HTTP requests
func requestLogger(logger *zap.Logger) func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)

			defer func() {
				logger.Info("request",
					zap.String("method", r.Method),
					zap.String("path", r.URL.Path),
					zap.Int("status", ww.Status()),
					zap.Duration("duration", time.Since(start)),
					zap.String("requestId", middleware.GetReqID(r.Context())),
				)
			}()

			next.ServeHTTP(ww, r)
		})
	}
}
