// Package queue decouples "a video needs transcoding" from the transcoding
// itself. Enqueue returns as soon as the job is durably queued and fails
// loudly when the queue is unreachable; a worker pool consumes jobs and runs
// them to completion.
package queue

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// Payload is the unit of work carried through the queue.
type Payload struct {
	JobID      uuid.UUID `json:"jobId"`
	VideoID    int64     `json:"videoId"`
	Attempt    int       `json:"attempt"`
	EnqueuedAt time.Time `json:"enqueuedAt"`
}

// NewPayload creates a first-attempt payload for a video.
func NewPayload(videoID int64) Payload {
	return Payload{
		JobID:      uuid.New(),
		VideoID:    videoID,
		Attempt:    1,
		EnqueuedAt: time.Now().UTC(),
	}
}

// Queue is a durable FIFO work queue. Two jobs for the same video may coexist;
// the transcode job's overwrite semantics make that safe.
type Queue interface {
	// Enqueue queues a job for at-least-once execution. It must be called
	// only after the triggering change is committed to the metadata store.
	Enqueue(ctx context.Context, p Payload) error

	// Dequeue blocks until a job is available or the context is done.
	Dequeue(ctx context.Context) (*Payload, error)

	// Depth returns the number of pending jobs.
	Depth(ctx context.Context) (int64, error)

	// Close releases the queue's resources.
	Close() error
}
