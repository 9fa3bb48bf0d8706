// Package worker implements the per-worker fetch loop of the ingest pipeline.
package worker

import (
	"context"
	"fmt"
	"math/rand/v2"
	"time"

	"go.uber.org/zap"

	"github.com/JakeFAU/termdex/internal/catalog"
	"github.com/JakeFAU/termdex/internal/metrics"
)

const defaultPollInterval = 100 * time.Millisecond

// Config controls Worker pacing and termination.
type Config struct {
	// BaseDelay is slept after every job.
	BaseDelay time.Duration
	// Jitter adds a uniform random [0, Jitter] on top of BaseDelay.
	Jitter time.Duration
	// PollInterval is slept after an empty poll of an open queue.
	PollInterval time.Duration
	// IdlePolls is how many consecutive empty polls make a worker exit.
	// Zero disables the rule; the worker then exits only on a closed queue
	// or a finished context.
	IdlePolls int
}

// Worker drains the queue, fetching and transforming one record per job.
type Worker struct {
	id      int
	queue   catalog.Queue
	fetcher catalog.Fetcher
	sprites catalog.SpriteSource
	visited catalog.VisitedSet
	limiter catalog.RateLimiter
	cfg     Config
	logger  *zap.Logger

	sleep func(ctx context.Context, d time.Duration) error
}

// New constructs a Worker. visited and limiter may be nil.
func New(
	id int,
	queue catalog.Queue,
	fetcher catalog.Fetcher,
	sprites catalog.SpriteSource,
	visited catalog.VisitedSet,
	limiter catalog.RateLimiter,
	cfg Config,
	logger *zap.Logger,
) *Worker {
	if cfg.PollInterval <= 0 {
		cfg.PollInterval = defaultPollInterval
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Worker{
		id:      id,
		queue:   queue,
		fetcher: fetcher,
		sprites: sprites,
		visited: visited,
		limiter: limiter,
		cfg:     cfg,
		logger:  logger.Named("worker").With(zap.Int("worker_id", id)),
		sleep:   sleepContext,
	}
}

// Run blocks until the queue is closed and drained, the idle poll threshold
// is reached, or ctx finishes. Every dequeued job yields exactly one Result
// on results unless ctx ends first.
func (w *Worker) Run(ctx context.Context, results chan<- catalog.Result) {
	idle := 0
	processed := 0
	defer func() {
		w.logger.Debug("worker exiting", zap.Int("processed", processed), zap.Int("idle_polls", idle))
	}()

	for ctx.Err() == nil {
		job, status := w.queue.TryDequeue()
		switch status {
		case catalog.QueueClosed:
			return
		case catalog.QueueEmpty:
			idle++
			if w.cfg.IdlePolls > 0 && idle >= w.cfg.IdlePolls {
				return
			}
			if err := w.sleep(ctx, w.cfg.PollInterval); err != nil {
				return
			}
			continue
		}

		idle = 0
		processed++
		res := w.process(ctx, job)
		select {
		case results <- res:
		case <-ctx.Done():
			return
		}
		if err := w.sleep(ctx, w.throttle()); err != nil {
			return
		}
	}
}

func (w *Worker) process(ctx context.Context, job catalog.FetchJob) catalog.Result {
	metrics.IncActiveWorkers()
	defer metrics.DecActiveWorkers()

	res := catalog.Result{Job: job}
	defer w.markVisited(ctx, job, &res)

	if w.limiter != nil {
		if err := w.limiter.Wait(ctx, job.URL); err != nil {
			res.Err = fmt.Errorf("rate limit wait: %w", err)
			return res
		}
	}

	rec, err := w.fetcher.Fetch(ctx, job.URL)
	if err != nil {
		res.Err = err
		return res
	}

	sprites, err := w.sprites.Sprites(ctx, rec.Name)
	if err != nil {
		res.Err = fmt.Errorf("%w: %s: %w", catalog.ErrSprite, rec.Name, err)
		return res
	}

	row, unknown := catalog.BuildEntityRow(job.EntityID, rec, sprites)
	for _, name := range unknown {
		w.logger.Warn("ignoring unknown stat", zap.Int("entity_id", job.EntityID), zap.String("stat", name))
	}
	res.Row = row
	res.Tags = catalog.TagsOf(rec)
	return res
}

func (w *Worker) markVisited(ctx context.Context, job catalog.FetchJob, res *catalog.Result) {
	outcome := "ok"
	if res.Err != nil {
		outcome = "failed"
	}
	w.logger.Info("visited",
		zap.String("url", job.URL),
		zap.Int("entity_id", job.EntityID),
		zap.String("outcome", outcome),
	)
	if w.visited == nil {
		return
	}
	// Record the visit even when ctx is already done.
	if err := w.visited.MarkVisited(context.WithoutCancel(ctx), job.URL); err != nil {
		w.logger.Warn("mark visited failed", zap.String("url", job.URL), zap.Error(err))
	}
}

func (w *Worker) throttle() time.Duration {
	d := w.cfg.BaseDelay
	if w.cfg.Jitter > 0 {
		d += rand.N(w.cfg.Jitter + 1)
	}
	return d
}

func sleepContext(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return fmt.Errorf("sleep interrupted: %w", ctx.Err())
	case <-t.C:
		return nil
	}
}
