package storage

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/ridgeline-labs/seocrawl/internal/crawlerrors"
)

// WriteQueue serializes writes through a small pool of writer goroutines
// fed by a bounded channel. Readers never go through the queue; only the
// backend's write methods submit to it.
type WriteQueue struct {
	jobs    chan writeJob
	wg      sync.WaitGroup
	closeMu sync.Mutex
	closed  bool
}

type writeJob struct {
	fn   func() error
	done chan error
}

// NewWriteQueue starts workers writer goroutines draining a queue of size
// queueSize. Defaults: workers=2, queueSize=256.
func NewWriteQueue(workers, queueSize int) *WriteQueue {
	if workers <= 0 {
		workers = 2
	}
	if queueSize <= 0 {
		queueSize = 256
	}

	q := &WriteQueue{jobs: make(chan writeJob, queueSize)}
	q.wg.Add(workers)
	for i := 0; i < workers; i++ {
		go q.worker()
	}
	return q
}

func (q *WriteQueue) worker() {
	defer q.wg.Done()
	for job := range q.jobs {
		job.done <- job.fn()
	}
}

// Submit enqueues fn for execution on a writer goroutine and blocks until it
// completes or ctx is done. If the queue cannot accept the job within 5
// seconds, or ctx is done first, it returns a *crawlerrors.Error of Kind
// StorageBusy, which callers treat as retryable.
func (q *WriteQueue) Submit(ctx context.Context, fn func() error) error {
	q.closeMu.Lock()
	if q.closed {
		q.closeMu.Unlock()
		return crawlerrors.New(crawlerrors.StorageFatal, "storage.WriteQueue.Submit", fmt.Errorf("queue closed"))
	}
	q.closeMu.Unlock()

	done := make(chan error, 1)
	select {
	case q.jobs <- writeJob{fn: fn, done: done}:
	case <-ctx.Done():
		return crawlerrors.New(crawlerrors.StorageBusy, "storage.WriteQueue.Submit", ctx.Err())
	case <-time.After(5 * time.Second):
		return crawlerrors.New(crawlerrors.StorageBusy, "storage.WriteQueue.Submit", fmt.Errorf("write queue full"))
	}

	select {
	case err := <-done:
		return err
	case <-ctx.Done():
		return crawlerrors.New(crawlerrors.StorageBusy, "storage.WriteQueue.Submit", ctx.Err())
	}
}

// Close stops accepting new jobs and waits for in-flight/queued jobs to
// drain, flushing the queue before returning.
func (q *WriteQueue) Close() {
	q.closeMu.Lock()
	if q.closed {
		q.closeMu.Unlock()
		return
	}
	q.closed = true
	q.closeMu.Unlock()

	close(q.jobs)
	q.wg.Wait()
}
