package catalog

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// DequeueStatus describes the outcome of a non-blocking dequeue.
type DequeueStatus int

// Dequeue outcomes.
const (
	Dequeued DequeueStatus = iota
	QueueEmpty
	QueueClosed
)

// Queue hands fetch jobs to workers.
type Queue interface {
	TryDequeue() (FetchJob, DequeueStatus)
}

// Fetcher downloads and decodes one remote record.
type Fetcher interface {
	Fetch(ctx context.Context, url string) (RawRecord, error)
}

// SpriteSource loads pre-rendered sprites by creature name.
type SpriteSource interface {
	Sprites(ctx context.Context, name string) (Sprites, error)
	Sentinel(ctx context.Context) (Sprites, error)
}

// VisitedSet records every URL a worker has dequeued. Diagnostics only.
type VisitedSet interface {
	MarkVisited(ctx context.Context, url string) error
	IsVisited(ctx context.Context, url string) (bool, error)
	Count(ctx context.Context) (int, error)
	Reset(ctx context.Context) error
}

// RateLimiter blocks until a request to url may proceed.
type RateLimiter interface {
	Wait(ctx context.Context, url string) error
}

// Writer persists a completed batch.
type Writer interface {
	Write(ctx context.Context, batch Batch) (WriteResult, error)
}

// Publisher pushes run reports to interested consumers.
type Publisher interface {
	Publish(ctx context.Context, topic string, payload any) (string, error)
}

// Clock returns the current time (useful for testing).
type Clock interface {
	Now() time.Time
}

// IDGenerator produces run IDs.
type IDGenerator interface {
	NewRawID() (uuid.UUID, error)
}
