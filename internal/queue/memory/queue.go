// Package memory provides the in-process work queue the worker pool drains.
package memory

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/JakeFAU/termdex/internal/catalog"
)

// ErrClosed is returned when enqueueing into, or blocking on, a closed queue.
var ErrClosed = errors.New("queue closed")

// Queue is a bounded FIFO of fetch jobs with context-aware operations.
type Queue struct {
	ch     chan catalog.FetchJob
	mu     sync.RWMutex
	closed bool
}

// NewQueue constructs a new queue with the provided capacity. Seeding a known
// job set should size the queue to that set so Enqueue never blocks.
func NewQueue(capacity int) *Queue {
	if capacity < 0 {
		capacity = 0
	}
	return &Queue{
		ch: make(chan catalog.FetchJob, capacity),
	}
}

// Enqueue pushes a job into the queue or returns if the context ends.
func (q *Queue) Enqueue(ctx context.Context, job catalog.FetchJob) error {
	q.mu.RLock()
	defer q.mu.RUnlock()
	if q.closed {
		return ErrClosed
	}
	select {
	case <-ctx.Done():
		return fmt.Errorf("enqueue canceled: %w", ctx.Err())
	case q.ch <- job:
		return nil
	}
}

// Dequeue pops the next job, respecting context cancellation.
func (q *Queue) Dequeue(ctx context.Context) (catalog.FetchJob, error) {
	select {
	case <-ctx.Done():
		return catalog.FetchJob{}, fmt.Errorf("dequeue canceled: %w", ctx.Err())
	case job, ok := <-q.ch:
		if !ok {
			return catalog.FetchJob{}, ErrClosed
		}
		return job, nil
	}
}

// TryDequeue pops the next job without blocking. A closed queue still yields
// its buffered jobs before reporting QueueClosed.
func (q *Queue) TryDequeue() (catalog.FetchJob, catalog.DequeueStatus) {
	select {
	case job, ok := <-q.ch:
		if !ok {
			return catalog.FetchJob{}, catalog.QueueClosed
		}
		return job, catalog.Dequeued
	default:
		return catalog.FetchJob{}, catalog.QueueEmpty
	}
}

// Len reports the number of buffered jobs.
func (q *Queue) Len() int {
	return len(q.ch)
}

// Close stops further enqueues. Workers drain what is left, then see QueueClosed.
func (q *Queue) Close() {
	q.mu.Lock()
	defer q.mu.Unlock()
	if q.closed {
		return
	}
	close(q.ch)
	q.closed = true
}
