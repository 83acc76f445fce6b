package queue

import (
	"context"
	"errors"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/videoflix/vod/internal/metrics"
	"github.com/videoflix/vod/internal/transcode"
)

// JobRunner runs one transcode job to completion.
type JobRunner interface {
	Run(ctx context.Context, videoID int64) (*transcode.Report, error)
}

// Dispatcher pulls jobs from the queue and runs them on a fixed pool of
// workers. Each worker processes one job fully before taking the next.
type Dispatcher struct {
	queue       Queue
	runner      JobRunner
	workers     int
	maxAttempts int
	logger      *zap.Logger
	metrics     *metrics.Metrics
}

// NewDispatcher creates a dispatcher with the given worker count. A job whose
// renditions all fail is re-enqueued until maxAttempts is reached; jobs that
// fail a precondition are never retried.
func NewDispatcher(q Queue, runner JobRunner, workers, maxAttempts int, logger *zap.Logger, m *metrics.Metrics) *Dispatcher {
	return &Dispatcher{
		queue:       q,
		runner:      runner,
		workers:     workers,
		maxAttempts: maxAttempts,
		logger:      logger,
		metrics:     m,
	}
}

// Start runs the worker pool until ctx is canceled and blocks until every
// worker has drained its in-flight job.
func (d *Dispatcher) Start(ctx context.Context) {
	var wg sync.WaitGroup
	for i := 0; i < d.workers; i++ {
		wg.Add(1)
		go func(id int) {
			defer wg.Done()
			d.workerLoop(ctx, id)
		}(i)
	}

	go d.reportDepth(ctx)

	wg.Wait()
}

func (d *Dispatcher) workerLoop(ctx context.Context, worker int) {
	logger := d.logger.With(zap.Int("worker", worker))

	for {
		p, err := d.queue.Dequeue(ctx)
		if err != nil {
			if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
				return
			}
			logger.Error("dequeue failed", zap.Error(err))
			select {
			case <-ctx.Done():
				return
			case <-time.After(time.Second):
			}
			continue
		}

		d.process(ctx, logger, p)
	}
}

func (d *Dispatcher) process(ctx context.Context, logger *zap.Logger, p *Payload) {
	logger = logger.With(
		zap.String("jobId", p.JobID.String()),
		zap.Int64("videoId", p.VideoID),
		zap.Int("attempt", p.Attempt),
	)
	logger.Info("job started")

	d.metrics.IncJobsActive()
	defer d.metrics.DecJobsActive()

	report, err := d.runner.Run(ctx, p.VideoID)
	if err != nil {
		// Failed precondition: the job is discarded, not retried.
		d.metrics.IncJobsTotal("rejected")
		logger.Error("job rejected", zap.Error(err))
		return
	}

	failed := report.Failed()
	switch {
	case len(failed) == 0:
		d.metrics.IncJobsTotal("completed")
		logger.Info("job completed", zap.Strings("renditions", report.Succeeded()))

	case report.AllFailed():
		d.metrics.IncJobsTotal("failed")
		logger.Error("job failed for every rendition")
		d.maybeRetry(ctx, logger, p)

	default:
		d.metrics.IncJobsTotal("partial")
		logger.Warn("job completed with failures",
			zap.Strings("succeeded", report.Succeeded()),
			zap.Int("failed", len(failed)),
		)
	}
}

func (d *Dispatcher) maybeRetry(ctx context.Context, logger *zap.Logger, p *Payload) {
	if p.Attempt >= d.maxAttempts {
		logger.Error("job abandoned", zap.Int("maxAttempts", d.maxAttempts))
		return
	}

	retry := *p
	retry.Attempt++
	retry.EnqueuedAt = time.Now().UTC()

	if err := d.queue.Enqueue(ctx, retry); err != nil {
		logger.Error("failed to re-enqueue job", zap.Error(err))
		return
	}
	logger.Info("job re-enqueued", zap.Int("nextAttempt", retry.Attempt))
}

func (d *Dispatcher) reportDepth(ctx context.Context) {
	ticker := time.NewTicker(15 * time.Second)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			depth, err := d.queue.Depth(ctx)
			if err != nil {
				continue
			}
			d.metrics.SetQueueDepth(float64(depth))
		}
	}
}
