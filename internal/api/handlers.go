package api

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"path/filepath"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/videoflix/vod/internal/config"
	"github.com/videoflix/vod/internal/domain"
	"github.com/videoflix/vod/internal/hls"
	"github.com/videoflix/vod/internal/media"
	"github.com/videoflix/vod/internal/metrics"
	"github.com/videoflix/vod/internal/store"
)

// MediaService is the video lifecycle surface consumed by the handlers.
type MediaService interface {
	List(ctx context.Context) ([]*domain.Video, error)
	Get(ctx context.Context, id int64) (*domain.Video, error)
	Create(ctx context.Context, in media.CreateInput) (*domain.Video, error)
	Update(ctx context.Context, id int64, in media.UpdateInput) (*domain.Video, error)
	Delete(ctx context.Context, id int64) error
}

// VideoFinder answers existence checks for the asset server.
type VideoFinder interface {
	Exists(ctx context.Context, id int64) (bool, error)
}

// HealthChecker reports the health of one dependency.
type HealthChecker interface {
	Health(ctx context.Context) error
}

// Handler holds API dependencies
type Handler struct {
	config      *config.Config
	service     MediaService
	finder      VideoFinder
	layout      hls.Layout
	dbHealth    HealthChecker
	queueHealth HealthChecker
	logger      *zap.Logger
	metrics     *metrics.Metrics
}

// NewHandler creates a new handler
func NewHandler(
	cfg *config.Config,
	service MediaService,
	finder VideoFinder,
	layout hls.Layout,
	dbHealth HealthChecker,
	queueHealth HealthChecker,
	logger *zap.Logger,
	m *metrics.Metrics,
) *Handler {
	return &Handler{
		config:      cfg,
		service:     service,
		finder:      finder,
		layout:      layout,
		dbHealth:    dbHealth,
		queueHealth: queueHealth,
		logger:      logger,
		metrics:     m,
	}
}

// VideoResponse is the /api/video response schema.
type VideoResponse struct {
	ID           int64     `json:"id"`
	CreatedAt    time.Time `json:"created_at"`
	Title        string    `json:"title"`
	Description  string    `json:"description"`
	ThumbnailURL *string   `json:"thumbnail_url"`
	Category     string    `json:"category"`
}

func videoResponse(v *domain.Video) VideoResponse {
	resp := VideoResponse{
		ID:          v.ID,
		CreatedAt:   v.CreatedAt,
		Title:       v.Title,
		Description: v.Description,
		Category:    v.Category,
	}
	if v.HasThumbnail() {
		url := "/media/" + filepath.ToSlash(*v.ThumbnailPath)
		resp.ThumbnailURL = &url
	}
	return resp
}

// ListVideos returns all available videos
func (h *Handler) ListVideos(w http.ResponseWriter, r *http.Request) {
	videos, err := h.service.List(r.Context())
	if err != nil {
		h.logger.Error("failed to list videos", zap.Error(err))
		h.writeError(w, http.StatusInternalServerError, "failed to list videos")
		return
	}

	response := make([]VideoResponse, 0, len(videos))
	for _, v := range videos {
		response = append(response, videoResponse(v))
	}

	h.writeJSON(w, http.StatusOK, response)
}

// GetVideo returns one video by ID
func (h *Handler) GetVideo(w http.ResponseWriter, r *http.Request) {
	id, err := videoID(r)
	if err != nil {
		h.writeError(w, http.StatusNotFound, "video not found")
		return
	}

	video, err := h.service.Get(r.Context(), id)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			h.writeError(w, http.StatusNotFound, "video not found")
			return
		}
		h.logger.Error("failed to get video", zap.Error(err))
		h.writeError(w, http.StatusInternalServerError, "failed to get video")
		return
	}

	h.writeJSON(w, http.StatusOK, videoResponse(video))
}

// CreateVideo creates a video from a multipart upload. The transcode job is
// enqueued after the record is committed; the response does not wait for, or
// reflect, the transcode outcome.
func (h *Handler) CreateVideo(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseMultipartForm(int64(h.config.API.MaxUploadMB) << 20); err != nil {
		h.writeError(w, http.StatusBadRequest, "invalid multipart request")
		return
	}

	in := media.CreateInput{
		Title:       r.FormValue("title"),
		Description: r.FormValue("description"),
		Category:    r.FormValue("category"),
	}
	if in.Title == "" {
		h.writeError(w, http.StatusBadRequest, "title is required")
		return
	}

	source, sourceClose := formUpload(r, "video_file")
	defer sourceClose()
	in.Source = source

	thumbnail, thumbClose := formUpload(r, "thumbnail")
	defer thumbClose()
	in.Thumbnail = thumbnail

	video, err := h.service.Create(r.Context(), in)
	if err != nil {
		h.logger.Error("failed to create video", zap.Error(err))
		h.writeError(w, http.StatusInternalServerError, "failed to create video")
		return
	}

	h.writeJSON(w, http.StatusCreated, videoResponse(video))
}

// UpdateVideo updates a video, optionally replacing its files
func (h *Handler) UpdateVideo(w http.ResponseWriter, r *http.Request) {
	id, err := videoID(r)
	if err != nil {
		h.writeError(w, http.StatusNotFound, "video not found")
		return
	}

	if err := r.ParseMultipartForm(int64(h.config.API.MaxUploadMB) << 20); err != nil {
		h.writeError(w, http.StatusBadRequest, "invalid multipart request")
		return
	}

	in := media.UpdateInput{
		Title:       r.FormValue("title"),
		Description: r.FormValue("description"),
		Category:    r.FormValue("category"),
	}
	if in.Title == "" {
		h.writeError(w, http.StatusBadRequest, "title is required")
		return
	}

	source, sourceClose := formUpload(r, "video_file")
	defer sourceClose()
	in.Source = source

	thumbnail, thumbClose := formUpload(r, "thumbnail")
	defer thumbClose()
	in.Thumbnail = thumbnail

	video, err := h.service.Update(r.Context(), id, in)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			h.writeError(w, http.StatusNotFound, "video not found")
			return
		}
		h.logger.Error("failed to update video", zap.Error(err))
		h.writeError(w, http.StatusInternalServerError, "failed to update video")
		return
	}

	h.writeJSON(w, http.StatusOK, videoResponse(video))
}

// DeleteVideo deletes a video and its derived artifacts
func (h *Handler) DeleteVideo(w http.ResponseWriter, r *http.Request) {
	id, err := videoID(r)
	if err != nil {
		h.writeError(w, http.StatusNotFound, "video not found")
		return
	}

	if err := h.service.Delete(r.Context(), id); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			h.writeError(w, http.StatusNotFound, "video not found")
			return
		}
		h.logger.Error("failed to delete video", zap.Error(err))
		h.writeError(w, http.StatusInternalServerError, "failed to delete video")
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// HealthCheck returns health status
func (h *Handler) HealthCheck(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	status := map[string]string{"status": "healthy"}

	if h.dbHealth != nil {
		if err := h.dbHealth.Health(ctx); err != nil {
			h.logger.Error("database health check failed", zap.Error(err))
			status["database"] = "unhealthy"
			status["status"] = "unhealthy"
		} else {
			status["database"] = "healthy"
		}
	}

	if h.queueHealth != nil {
		if err := h.queueHealth.Health(ctx); err != nil {
			h.logger.Error("queue health check failed", zap.Error(err))
			status["queue"] = "unhealthy"
			status["status"] = "unhealthy"
		} else {
			status["queue"] = "healthy"
		}
	}

	statusCode := http.StatusOK
	if status["status"] == "unhealthy" {
		statusCode = http.StatusServiceUnavailable
	}

	h.writeJSON(w, statusCode, status)
}

// ReadyCheck returns readiness status
func (h *Handler) ReadyCheck(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	status := map[string]string{"status": "ready"}

	if h.dbHealth != nil {
		if err := h.dbHealth.Health(ctx); err != nil {
			status["status"] = "not ready"
			status["database"] = "not connected"
		}
	}
	if h.queueHealth != nil {
		if err := h.queueHealth.Health(ctx); err != nil {
			status["status"] = "not ready"
			status["queue"] = "not connected"
		}
	}

	statusCode := http.StatusOK
	if status["status"] != "ready" {
		statusCode = http.StatusServiceUnavailable
	}

	h.writeJSON(w, statusCode, status)
}

func videoID(r *http.Request) (int64, error) {
	raw := chi.URLParam(r, "videoId")
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || id < 1 {
		return 0, fmt.Errorf("invalid video ID %q", raw)
	}
	return id, nil
}

// formUpload returns the named multipart file as an upload, or nil when the
// field is absent. The returned func closes the file and is always safe to
// defer.
func formUpload(r *http.Request, field string) (*media.Upload, func()) {
	file, header, err := r.FormFile(field)
	if err != nil {
		return nil, func() {}
	}
	return &media.Upload{Filename: header.Filename, Reader: file}, func() { file.Close() }
}

func (h *Handler) writeJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

func (h *Handler) writeError(w http.ResponseWriter, status int, message string) {
	h.writeJSON(w, status, map[string]string{"error": message})
}
