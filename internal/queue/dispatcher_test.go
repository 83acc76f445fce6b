package queue

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"go.uber.org/zap"

	"github.com/videoflix/vod/internal/transcode"
)

// chanQueue is an in-process Queue for dispatcher tests.
type chanQueue struct {
	ch chan Payload
}

func newChanQueue() *chanQueue {
	return &chanQueue{ch: make(chan Payload, 16)}
}

func (q *chanQueue) Enqueue(_ context.Context, p Payload) error {
	q.ch <- p
	return nil
}

func (q *chanQueue) Dequeue(ctx context.Context) (*Payload, error) {
	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	case p := <-q.ch:
		return &p, nil
	}
}

func (q *chanQueue) Depth(context.Context) (int64, error) {
	return int64(len(q.ch)), nil
}

func (q *chanQueue) Close() error { return nil }

// recordingRunner returns canned outcomes and signals each call.
type recordingRunner struct {
	mu     sync.Mutex
	calls  []int64
	report *transcode.Report
	err    error
	done   chan struct{}
}

func (r *recordingRunner) Run(_ context.Context, videoID int64) (*transcode.Report, error) {
	r.mu.Lock()
	r.calls = append(r.calls, videoID)
	r.mu.Unlock()
	select {
	case r.done <- struct{}{}:
	default:
	}
	return r.report, r.err
}

func (r *recordingRunner) callCount() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.calls)
}

func allFailedReport(videoID int64) *transcode.Report {
	return &transcode.Report{
		VideoID: videoID,
		Results: []transcode.RenditionResult{
			{Label: "480p", Err: errors.New("boom")},
			{Label: "720p", Err: errors.New("boom")},
			{Label: "1080p", Err: errors.New("boom")},
		},
	}
}

func runDispatcher(t *testing.T, q Queue, r JobRunner, maxAttempts int) (cancel func()) {
	t.Helper()
	ctx, stop := context.WithCancel(context.Background())
	d := NewDispatcher(q, r, 1, maxAttempts, zap.NewNop(), nil)

	done := make(chan struct{})
	go func() {
		d.Start(ctx)
		close(done)
	}()

	return func() {
		stop()
		select {
		case <-done:
		case <-time.After(5 * time.Second):
			t.Fatal("dispatcher did not stop")
		}
	}
}

func waitForCalls(t *testing.T, r *recordingRunner, want int) {
	t.Helper()
	deadline := time.After(5 * time.Second)
	for r.callCount() < want {
		select {
		case <-deadline:
			t.Fatalf("timed out waiting for %d calls, have %d", want, r.callCount())
		case <-r.done:
		case <-time.After(10 * time.Millisecond):
		}
	}
}

func TestDispatcherRunsEnqueuedJob(t *testing.T) {
	q := newChanQueue()
	r := &recordingRunner{report: &transcode.Report{VideoID: 5}, done: make(chan struct{}, 16)}

	stop := runDispatcher(t, q, r, 3)
	defer stop()

	if err := q.Enqueue(context.Background(), NewPayload(5)); err != nil {
		t.Fatal(err)
	}

	waitForCalls(t, r, 1)
	if r.calls[0] != 5 {
		t.Errorf("ran video %d, want 5", r.calls[0])
	}
}

// A totally-failed job is re-enqueued until maxAttempts, then abandoned.
func TestDispatcherRetriesTotalFailure(t *testing.T) {
	q := newChanQueue()
	r := &recordingRunner{report: allFailedReport(9), done: make(chan struct{}, 16)}

	stop := runDispatcher(t, q, r, 3)
	defer stop()

	if err := q.Enqueue(context.Background(), NewPayload(9)); err != nil {
		t.Fatal(err)
	}

	waitForCalls(t, r, 3)

	// Give the dispatcher a moment to (incorrectly) retry a fourth time.
	time.Sleep(100 * time.Millisecond)
	if got := r.callCount(); got != 3 {
		t.Errorf("job ran %d times, want exactly maxAttempts=3", got)
	}
}

// A failed precondition is job-fatal: no retry.
func TestDispatcherDoesNotRetryPreconditionFailure(t *testing.T) {
	q := newChanQueue()
	r := &recordingRunner{err: transcode.ErrVideoNotFound, done: make(chan struct{}, 16)}

	stop := runDispatcher(t, q, r, 3)
	defer stop()

	if err := q.Enqueue(context.Background(), NewPayload(11)); err != nil {
		t.Fatal(err)
	}

	waitForCalls(t, r, 1)
	time.Sleep(100 * time.Millisecond)
	if got := r.callCount(); got != 1 {
		t.Errorf("rejected job ran %d times, want exactly 1", got)
	}
}

// Partial failure completes the job; it is not retried.
func TestDispatcherDoesNotRetryPartialFailure(t *testing.T) {
	q := newChanQueue()
	report := &transcode.Report{
		VideoID: 4,
		Results: []transcode.RenditionResult{
			{Label: "480p"},
			{Label: "720p"},
			{Label: "1080p", Err: errors.New("boom")},
		},
	}
	r := &recordingRunner{report: report, done: make(chan struct{}, 16)}

	stop := runDispatcher(t, q, r, 3)
	defer stop()

	if err := q.Enqueue(context.Background(), NewPayload(4)); err != nil {
		t.Fatal(err)
	}

	waitForCalls(t, r, 1)
	time.Sleep(100 * time.Millisecond)
	if got := r.callCount(); got != 1 {
		t.Errorf("partially-failed job ran %d times, want exactly 1", got)
	}
}

func TestPayloadAttemptIncrement(t *testing.T) {
	p := NewPayload(1)
	if p.Attempt != 1 {
		t.Errorf("new payload attempt = %d, want 1", p.Attempt)
	}
	if p.JobID.String() == "" {
		t.Error("payload must carry a job ID")
	}
}
