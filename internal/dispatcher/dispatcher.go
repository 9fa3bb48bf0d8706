// Package dispatcher fans jobs out to the worker pool and fans results back in.
package dispatcher

import (
	"context"
	"sync"

	"go.uber.org/zap"

	"github.com/JakeFAU/termdex/internal/catalog"
)

// Runner is one member of the worker pool.
type Runner interface {
	Run(ctx context.Context, results chan<- catalog.Result)
}

// Dispatcher runs a fixed pool of workers against a shared results channel.
type Dispatcher struct {
	workers []Runner
	logger  *zap.Logger
}

// New creates a Dispatcher.
func New(workers []Runner, logger *zap.Logger) *Dispatcher {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Dispatcher{
		workers: workers,
		logger:  logger.Named("dispatcher"),
	}
}

// Run starts all workers and hands every result to collect on the calling
// goroutine, so collect needs no locking. It returns once every worker has
// exited and the results channel is drained.
func (d *Dispatcher) Run(ctx context.Context, collect func(catalog.Result)) {
	results := make(chan catalog.Result, len(d.workers))

	var wg sync.WaitGroup
	for _, w := range d.workers {
		wg.Add(1)
		go func(wk Runner) {
			defer wg.Done()
			wk.Run(ctx, results)
		}(w)
	}
	go func() {
		wg.Wait()
		close(results)
	}()

	d.logger.Info("worker pool started", zap.Int("workers", len(d.workers)))
	n := 0
	for r := range results {
		n++
		collect(r)
	}
	d.logger.Info("worker pool finished", zap.Int("results", n))
}
