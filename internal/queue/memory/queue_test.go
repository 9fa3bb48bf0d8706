package memory

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/JakeFAU/termdex/internal/catalog"
)

func TestQueueEnqueueDequeue(t *testing.T) {
	t.Parallel()

	q := NewQueue(1)
	result := make(chan catalog.FetchJob, 1)
	errCh := make(chan error, 1)

	go func() {
		item, err := q.Dequeue(context.Background())
		if err != nil {
			errCh <- err
			return
		}
		result <- item
	}()

	job := catalog.FetchJob{URL: "https://pokeapi.co/api/v2/pokemon/1", EntityID: 1}
	if err := q.Enqueue(context.Background(), job); err != nil {
		t.Fatalf("Enqueue() error = %v", err)
	}
	select {
	case err := <-errCh:
		t.Fatalf("Dequeue() error = %v", err)
	case got := <-result:
		if got != job {
			t.Fatalf("expected %+v, got %+v", job, got)
		}
	case <-time.After(time.Second):
		t.Fatal("dequeue did not return job")
	}
}

func TestQueueIsFIFO(t *testing.T) {
	t.Parallel()

	q := NewQueue(3)
	for id := 1; id <= 3; id++ {
		if err := q.Enqueue(context.Background(), catalog.FetchJob{EntityID: id}); err != nil {
			t.Fatalf("Enqueue(%d) error = %v", id, err)
		}
	}
	if q.Len() != 3 {
		t.Fatalf("expected 3 buffered jobs, got %d", q.Len())
	}
	for want := 1; want <= 3; want++ {
		job, status := q.TryDequeue()
		if status != catalog.Dequeued || job.EntityID != want {
			t.Fatalf("expected job %d, got %+v (status %v)", want, job, status)
		}
	}
	if _, status := q.TryDequeue(); status != catalog.QueueEmpty {
		t.Fatalf("expected empty queue, got status %v", status)
	}
}

func TestQueueCancelationErrors(t *testing.T) {
	t.Parallel()

	qDequeue := NewQueue(1)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if _, err := qDequeue.Dequeue(ctx); err == nil ||
		err.Error() != "dequeue canceled: context canceled" {
		t.Fatalf("expected dequeue cancel error, got %v", err)
	}

	qEnqueue := NewQueue(1)
	if err := qEnqueue.Enqueue(context.Background(), catalog.FetchJob{EntityID: 1}); err != nil {
		t.Fatalf("failed to prime enqueue queue: %v", err)
	}
	ctx, cancel = context.WithCancel(context.Background())
	cancel()
	if err := qEnqueue.Enqueue(ctx, catalog.FetchJob{EntityID: 2}); err == nil ||
		err.Error() != "enqueue canceled: context canceled" {
		t.Fatalf("expected enqueue cancel error, got %v", err)
	}
}

func TestQueueCloseDrainsThenReportsClosed(t *testing.T) {
	t.Parallel()

	q := NewQueue(2)
	if err := q.Enqueue(context.Background(), catalog.FetchJob{EntityID: 7}); err != nil {
		t.Fatalf("Enqueue() error = %v", err)
	}
	q.Close()
	// Closing twice should be safe.
	q.Close()

	if err := q.Enqueue(context.Background(), catalog.FetchJob{EntityID: 8}); !errors.Is(err, ErrClosed) {
		t.Fatalf("expected ErrClosed after close, got %v", err)
	}
	if job, status := q.TryDequeue(); status != catalog.Dequeued || job.EntityID != 7 {
		t.Fatalf("expected buffered job 7, got %+v (status %v)", job, status)
	}
	if _, status := q.TryDequeue(); status != catalog.QueueClosed {
		t.Fatalf("expected closed status, got %v", status)
	}
	if _, err := q.Dequeue(context.Background()); !errors.Is(err, ErrClosed) {
		t.Fatalf("expected queue closed error, got %v", err)
	}
}
