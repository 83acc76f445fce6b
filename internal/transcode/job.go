// Package transcode runs the full rendition set for one video. Preconditions
// (record present, source attached, source on disk) are checked before any
// encode; after that every rendition is attempted independently and the
// outcomes are aggregated into a Report rather than aborting on first failure.
package transcode

import (
	"context"
	"errors"
	"fmt"
	"os"
	"time"

	"go.uber.org/zap"

	"github.com/videoflix/vod/internal/domain"
	"github.com/videoflix/vod/internal/hls"
	"github.com/videoflix/vod/internal/metrics"
	"github.com/videoflix/vod/internal/store"
)

// Precondition errors. These are job-fatal: the job performs no encodes and
// the queue does not retry them.
var (
	ErrVideoNotFound = errors.New("video not found")
	ErrNoSourceFile  = errors.New("video has no source file")
	ErrSourceMissing = errors.New("source file does not exist on disk")
)

// VideoLookup resolves a video identifier against the metadata store.
type VideoLookup interface {
	GetByID(ctx context.Context, id int64) (*domain.Video, error)
}

// Encoder produces one complete rendition directory per call.
type Encoder interface {
	EncodeRendition(ctx context.Context, sourcePath string, r domain.Rendition, paths hls.RenditionPaths) error
}

// RenditionResult is the outcome of one rendition's encode.
type RenditionResult struct {
	Label    string
	Duration time.Duration
	Err      error
}

// Report aggregates per-rendition outcomes for one job.
type Report struct {
	VideoID int64
	Results []RenditionResult
}

// Succeeded returns the labels of renditions that encoded successfully.
func (r *Report) Succeeded() []string {
	var labels []string
	for _, res := range r.Results {
		if res.Err == nil {
			labels = append(labels, res.Label)
		}
	}
	return labels
}

// Failed returns the results of renditions that failed.
func (r *Report) Failed() []RenditionResult {
	var failed []RenditionResult
	for _, res := range r.Results {
		if res.Err != nil {
			failed = append(failed, res)
		}
	}
	return failed
}

// AllFailed reports whether every rendition failed.
func (r *Report) AllFailed() bool {
	return len(r.Results) > 0 && len(r.Succeeded()) == 0
}

// Runner executes transcode jobs.
type Runner struct {
	store      VideoLookup
	encoder    Encoder
	layout     hls.Layout
	renditions []domain.Rendition
	logger     *zap.Logger
	metrics    *metrics.Metrics
}

// NewRunner creates a new job runner over the configured rendition set.
func NewRunner(store VideoLookup, encoder Encoder, layout hls.Layout, logger *zap.Logger, m *metrics.Metrics) *Runner {
	return &Runner{
		store:      store,
		encoder:    encoder,
		layout:     layout,
		renditions: domain.Renditions(),
		logger:     logger,
		metrics:    m,
	}
}

// Run encodes every configured rendition for the video's current source file.
// A returned error means a failed precondition; per-rendition failures are
// reported in the Report and never returned as an error. Re-running for the
// same video and source is safe: each rendition is fully overwritten in place.
func (r *Runner) Run(ctx context.Context, videoID int64) (*Report, error) {
	logger := r.logger.With(zap.Int64("videoId", videoID))

	video, err := r.store.GetByID(ctx, videoID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, fmt.Errorf("%w: id %d", ErrVideoNotFound, videoID)
		}
		return nil, fmt.Errorf("failed to look up video %d: %w", videoID, err)
	}

	if !video.HasSource() {
		return nil, fmt.Errorf("%w: id %d", ErrNoSourceFile, videoID)
	}

	sourcePath := r.layout.Abs(*video.SourcePath)
	if _, err := os.Stat(sourcePath); err != nil {
		return nil, fmt.Errorf("%w: %s", ErrSourceMissing, sourcePath)
	}

	report := &Report{VideoID: videoID}

	for _, rendition := range r.renditions {
		paths := r.layout.Rendition(videoID, rendition.Label)
		start := time.Now()

		encodeErr := r.encoder.EncodeRendition(ctx, sourcePath, rendition, paths)
		elapsed := time.Since(start)

		report.Results = append(report.Results, RenditionResult{
			Label:    rendition.Label,
			Duration: elapsed,
			Err:      encodeErr,
		})

		if encodeErr != nil {
			r.metrics.IncEncodeFailures(rendition.Label)
			logger.Error("rendition encode failed",
				zap.String("rendition", rendition.Label),
				zap.Duration("elapsed", elapsed),
				zap.Error(encodeErr),
			)
			continue
		}

		r.metrics.RecordEncodeDuration(rendition.Label, elapsed.Seconds())
		logger.Info("rendition encoded",
			zap.String("rendition", rendition.Label),
			zap.Duration("elapsed", elapsed),
		)
	}

	return report, nil
}
