// Package media owns the video lifecycle: it commits metadata changes, stores
// uploaded files under the media root, enqueues transcode jobs after the
// commit, and reclaims derived artifacts when a record is removed.
package media

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/videoflix/vod/internal/domain"
	"github.com/videoflix/vod/internal/hls"
	"github.com/videoflix/vod/internal/metrics"
	"github.com/videoflix/vod/internal/queue"
)

// VideoStore is the metadata store the service commits to.
type VideoStore interface {
	Create(ctx context.Context, video *domain.Video) error
	GetByID(ctx context.Context, id int64) (*domain.Video, error)
	List(ctx context.Context) ([]*domain.Video, error)
	Update(ctx context.Context, video *domain.Video) error
	Delete(ctx context.Context, id int64) error
}

// Upload is one incoming file.
type Upload struct {
	Filename string
	Reader   io.Reader
}

// CreateInput holds the fields of a new video.
type CreateInput struct {
	Title       string
	Description string
	Category    string
	Source      *Upload
	Thumbnail   *Upload
}

// UpdateInput holds replacement fields for an existing video. Nil uploads
// leave the stored files untouched.
type UpdateInput struct {
	Title       string
	Description string
	Category    string
	Source      *Upload
	Thumbnail   *Upload
}

// Service wires the metadata store, the job queue and the filesystem.
type Service struct {
	store   VideoStore
	queue   queue.Queue
	layout  hls.Layout
	logger  *zap.Logger
	metrics *metrics.Metrics
}

// NewService creates a new media service
func NewService(store VideoStore, q queue.Queue, layout hls.Layout, logger *zap.Logger, m *metrics.Metrics) *Service {
	return &Service{
		store:   store,
		queue:   q,
		layout:  layout,
		logger:  logger,
		metrics: m,
	}
}

// List returns all videos, newest first.
func (s *Service) List(ctx context.Context) ([]*domain.Video, error) {
	return s.store.List(ctx)
}

// Get returns one video by ID.
func (s *Service) Get(ctx context.Context, id int64) (*domain.Video, error) {
	return s.store.GetByID(ctx, id)
}

// Create stores the uploaded files, commits the record, and then enqueues a
// transcode job if a source file was attached. An enqueue failure is returned
// to the caller: the record stays committed but the work must not be dropped
// silently.
func (s *Service) Create(ctx context.Context, in CreateInput) (*domain.Video, error) {
	video := &domain.Video{
		Title:       in.Title,
		Description: in.Description,
		Category:    in.Category,
	}

	if in.Source != nil {
		rel, err := s.saveUpload(s.layout.SourceDir(), "videos", in.Source)
		if err != nil {
			return nil, fmt.Errorf("failed to store source file: %w", err)
		}
		video.SourcePath = &rel
	}

	if in.Thumbnail != nil {
		rel, err := s.saveUpload(s.layout.ThumbnailDir(), "thumbnail", in.Thumbnail)
		if err != nil {
			return nil, fmt.Errorf("failed to store thumbnail: %w", err)
		}
		video.ThumbnailPath = &rel
	}

	if err := s.store.Create(ctx, video); err != nil {
		return nil, err
	}

	if video.HasSource() {
		if err := s.enqueueTranscode(ctx, video.ID); err != nil {
			return nil, err
		}
	}

	return video, nil
}

// Update replaces the record's fields and any provided files, committing
// before a new transcode job is enqueued. A replaced source file re-enqueues;
// stale renditions are overwritten in place by the new job.
func (s *Service) Update(ctx context.Context, id int64, in UpdateInput) (*domain.Video, error) {
	video, err := s.store.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	video.Title = in.Title
	video.Description = in.Description
	video.Category = in.Category

	var oldSource, oldThumbnail string
	if in.Source != nil {
		rel, err := s.saveUpload(s.layout.SourceDir(), "videos", in.Source)
		if err != nil {
			return nil, fmt.Errorf("failed to store source file: %w", err)
		}
		if video.SourcePath != nil {
			oldSource = *video.SourcePath
		}
		video.SourcePath = &rel
	}

	if in.Thumbnail != nil {
		rel, err := s.saveUpload(s.layout.ThumbnailDir(), "thumbnail", in.Thumbnail)
		if err != nil {
			return nil, fmt.Errorf("failed to store thumbnail: %w", err)
		}
		if video.ThumbnailPath != nil {
			oldThumbnail = *video.ThumbnailPath
		}
		video.ThumbnailPath = &rel
	}

	if err := s.store.Update(ctx, video); err != nil {
		return nil, err
	}

	s.removeIfPresent(oldSource)
	s.removeIfPresent(oldThumbnail)

	if in.Source != nil && video.HasSource() {
		if err := s.enqueueTranscode(ctx, video.ID); err != nil {
			return nil, err
		}
	}

	return video, nil
}

// Delete removes the record and then reclaims every artifact on disk: the
// source file, the thumbnail, and the whole rendition tree. Each deletion is
// attempted independently and a missing piece never aborts the others or the
// delete itself.
func (s *Service) Delete(ctx context.Context, id int64) error {
	video, err := s.store.GetByID(ctx, id)
	if err != nil {
		return err
	}

	if err := s.store.Delete(ctx, id); err != nil {
		return err
	}

	s.cleanupArtifacts(video)
	return nil
}

func (s *Service) cleanupArtifacts(video *domain.Video) {
	if video.HasSource() {
		s.removeIfPresent(*video.SourcePath)
	}
	if video.HasThumbnail() {
		s.removeIfPresent(*video.ThumbnailPath)
	}

	dir := s.layout.VideoDir(video.ID)
	if err := os.RemoveAll(dir); err != nil {
		s.metrics.IncCleanupFailures()
		s.logger.Warn("failed to remove rendition tree",
			zap.Int64("videoId", video.ID),
			zap.String("dir", dir),
			zap.Error(err),
		)
	}
}

func (s *Service) removeIfPresent(rel string) {
	if rel == "" {
		return
	}
	path := s.layout.Abs(rel)
	if err := os.Remove(path); err != nil && !errors.Is(err, os.ErrNotExist) {
		s.metrics.IncCleanupFailures()
		s.logger.Warn("failed to remove file", zap.String("path", path), zap.Error(err))
	}
}

func (s *Service) enqueueTranscode(ctx context.Context, videoID int64) error {
	p := queue.NewPayload(videoID)
	if err := s.queue.Enqueue(ctx, p); err != nil {
		s.logger.Error("failed to enqueue transcode job",
			zap.Int64("videoId", videoID),
			zap.Error(err),
		)
		return fmt.Errorf("failed to enqueue transcode job for video %d: %w", videoID, err)
	}

	s.logger.Info("transcode job enqueued",
		zap.Int64("videoId", videoID),
		zap.String("jobId", p.JobID.String()),
	)
	return nil
}

// saveUpload writes an upload into dir under a generated name and returns the
// media-root-relative path to store in the record.
func (s *Service) saveUpload(dir, relDir string, u *Upload) (string, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("failed to create upload directory: %w", err)
	}

	// The stored name is generated; only the extension survives from the
	// client-supplied filename.
	ext := filepath.Ext(filepath.Base(u.Filename))
	name := uuid.New().String() + ext

	dst, err := os.Create(filepath.Join(dir, name))
	if err != nil {
		return "", fmt.Errorf("failed to create upload file: %w", err)
	}
	defer dst.Close()

	if _, err := io.Copy(dst, u.Reader); err != nil {
		os.Remove(dst.Name())
		return "", fmt.Errorf("failed to write upload: %w", err)
	}

	return filepath.Join(relDir, name), nil
}
