// Package ingest runs one complete scrape-and-ingest pass: seed the queue,
// drain it with the worker pool, then write everything in one transaction.
package ingest

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/JakeFAU/termdex/internal/catalog"
	"github.com/JakeFAU/termdex/internal/dispatcher"
	"github.com/JakeFAU/termdex/internal/metrics"
	"github.com/JakeFAU/termdex/internal/queue/memory"
	"github.com/JakeFAU/termdex/internal/worker"
)

// Config controls one run.
type Config struct {
	FirstID     int
	LastID      int
	URLTemplate string
	Workers     int
	Worker      worker.Config
	Policy      catalog.Policy
	// Topic receives the run report.
	Topic      string
	RunTimeout time.Duration
}

// Deps are the collaborators of a run. Visited and Limiter may be nil.
type Deps struct {
	Fetcher   catalog.Fetcher
	Sprites   catalog.SpriteSource
	Writer    catalog.Writer
	Publisher catalog.Publisher
	Visited   catalog.VisitedSet
	Limiter   catalog.RateLimiter
	Clock     catalog.Clock
	IDs       catalog.IDGenerator
}

// Pipeline executes ingest runs.
type Pipeline struct {
	cfg    Config
	deps   Deps
	logger *zap.Logger
}

// New validates cfg and deps and returns a Pipeline.
func New(cfg Config, deps Deps, logger *zap.Logger) (*Pipeline, error) {
	var errs []error
	if cfg.FirstID < 1 || cfg.LastID < cfg.FirstID {
		errs = append(errs, fmt.Errorf("invalid id range %d..%d", cfg.FirstID, cfg.LastID))
	}
	if cfg.Workers <= 0 {
		errs = append(errs, errors.New("workers must be > 0"))
	}
	if deps.Fetcher == nil {
		errs = append(errs, errors.New("fetcher is required"))
	}
	if deps.Sprites == nil {
		errs = append(errs, errors.New("sprite source is required"))
	}
	if deps.Writer == nil {
		errs = append(errs, errors.New("writer is required"))
	}
	if deps.Clock == nil {
		errs = append(errs, errors.New("clock is required"))
	}
	if deps.IDs == nil {
		errs = append(errs, errors.New("id generator is required"))
	}
	if err := errors.Join(errs...); err != nil {
		return nil, err
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Pipeline{cfg: cfg, deps: deps, logger: logger.Named("ingest")}, nil
}

// BuildJobs creates one job per ID in [first, last].
func BuildJobs(urlTemplate string, first, last int) []catalog.FetchJob {
	if last < first {
		return nil
	}
	jobs := make([]catalog.FetchJob, 0, last-first+1)
	for id := first; id <= last; id++ {
		jobs = append(jobs, catalog.FetchJob{URL: fmt.Sprintf(urlTemplate, id), EntityID: id})
	}
	return jobs
}

// Run performs one ingest run. The returned report is always filled in, even
// when err is non-nil; Committed tells whether anything was written.
func (p *Pipeline) Run(ctx context.Context) (catalog.RunReport, error) {
	runID, err := p.deps.IDs.NewRawID()
	if err != nil {
		return catalog.RunReport{}, fmt.Errorf("new run id: %w", err)
	}
	jobs := BuildJobs(p.cfg.URLTemplate, p.cfg.FirstID, p.cfg.LastID)
	report := catalog.RunReport{
		RunID:     runID,
		StartedAt: p.deps.Clock.Now(),
		Requested: len(jobs),
	}
	logger := p.logger.With(zap.String("run_id", runID.String()))
	logger.Info("run started",
		zap.Int("jobs", len(jobs)),
		zap.Int("workers", p.cfg.Workers),
		zap.Bool("strict_sprites", p.cfg.Policy.StrictSprites),
	)

	if p.cfg.RunTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, p.cfg.RunTimeout)
		defer cancel()
	}

	if p.deps.Visited != nil {
		if err := p.deps.Visited.Reset(ctx); err != nil {
			logger.Warn("reset visited set failed", zap.Error(err))
		}
	}

	acc, err := p.scrape(ctx, logger, jobs)
	report.Succeeded = acc.Succeeded()
	report.FailedIDs = acc.FailedIDs()
	report.Failed = len(report.FailedIDs)
	report.Skipped = report.Requested - report.Succeeded - report.Failed
	if err != nil {
		return p.finish(ctx, logger, report, err)
	}

	sentinel, err := p.deps.Sprites.Sentinel(ctx)
	if err != nil {
		return p.finish(ctx, logger, report, fmt.Errorf("load sentinel sprites: %w", err))
	}
	batch := acc.Batch()
	batch.Sentinel = catalog.SentinelRow(sentinel)

	written, err := p.deps.Writer.Write(ctx, batch)
	if err != nil {
		return p.finish(ctx, logger, report, fmt.Errorf("write batch: %w", err))
	}
	report.Tags = written.Tags
	report.Associations = written.Associations
	report.Committed = true
	return p.finish(ctx, logger, report, nil)
}

// scrape seeds a closed queue, drains it with the pool and folds every result
// into an Accumulator owned by this goroutine. The first fatal result cancels
// the remaining workers.
func (p *Pipeline) scrape(ctx context.Context, logger *zap.Logger, jobs []catalog.FetchJob) (*catalog.Accumulator, error) {
	acc := catalog.NewAccumulator()

	q := memory.NewQueue(len(jobs))
	for _, job := range jobs {
		if err := q.Enqueue(ctx, job); err != nil {
			return acc, fmt.Errorf("seed queue: %w", err)
		}
	}
	q.Close()

	runCtx, cancel := context.WithCancelCause(ctx)
	defer cancel(nil)

	runners := make([]dispatcher.Runner, 0, p.cfg.Workers)
	for i := 1; i <= p.cfg.Workers; i++ {
		runners = append(runners, worker.New(i, q, p.deps.Fetcher, p.deps.Sprites, p.deps.Visited, p.deps.Limiter,
			p.cfg.Worker, logger))
	}

	var fatal error
	dispatcher.New(runners, logger).Run(runCtx, func(r catalog.Result) {
		if r.Err == nil {
			acc.Add(r.Row, r.Tags)
			return
		}
		if p.cfg.Policy.Classify(r.Err) == catalog.ClassFatal {
			if fatal == nil {
				fatal = fmt.Errorf("entity %d: %w", r.Job.EntityID, r.Err)
				logger.Error("aborting run", zap.Int("entity_id", r.Job.EntityID), zap.Error(r.Err))
				cancel(fatal)
			}
			return
		}
		acc.AddFailure(r.Job.EntityID)
		logger.Warn("entity skipped", zap.Int("entity_id", r.Job.EntityID), zap.String("url", r.Job.URL), zap.Error(r.Err))
	})

	if fatal == nil && ctx.Err() != nil {
		fatal = fmt.Errorf("run interrupted: %w", ctx.Err())
	}
	return acc, fatal
}

func (p *Pipeline) finish(
	ctx context.Context,
	logger *zap.Logger,
	report catalog.RunReport,
	runErr error,
) (catalog.RunReport, error) {
	report.FinishedAt = p.deps.Clock.Now()
	status := "committed"
	if runErr != nil {
		report.Error = runErr.Error()
		status = "aborted"
	}
	metrics.ObserveRun(status)

	fields := []zap.Field{
		zap.String("status", status),
		zap.Int("requested", report.Requested),
		zap.Int("succeeded", report.Succeeded),
		zap.Int("failed", report.Failed),
		zap.Int("skipped", report.Skipped),
		zap.Int("tags", report.Tags),
		zap.Int("associations", report.Associations),
		zap.Duration("elapsed", report.FinishedAt.Sub(report.StartedAt)),
	}
	if p.deps.Visited != nil {
		if n, err := p.deps.Visited.Count(context.WithoutCancel(ctx)); err == nil {
			fields = append(fields, zap.Int("visited", n))
		}
	}
	if runErr != nil {
		logger.Error("run finished", append(fields, zap.Error(runErr))...)
	} else {
		logger.Info("run finished", fields...)
	}

	if p.deps.Publisher != nil && p.cfg.Topic != "" {
		// The report still goes out when the run was canceled.
		pubCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 10*time.Second)
		defer cancel()
		if id, err := p.deps.Publisher.Publish(pubCtx, p.cfg.Topic, report); err != nil {
			logger.Warn("publish run report failed", zap.Error(err))
		} else {
			logger.Debug("run report published", zap.String("message_id", id))
		}
	}
	return report, runErr
}
