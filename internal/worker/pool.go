// Package worker provides a bounded fan-out for index-addressed tasks.
package worker

import (
	"context"
	"log/slog"
	"sync"
)

// Pool runs index-addressed tasks with a fixed number of workers.
type Pool struct {
	workers int
	logger  *slog.Logger
}

// NewPool creates a pool with the given concurrency. A non-positive count
// falls back to a single worker.
func NewPool(workers int, logger *slog.Logger) *Pool {
	if workers <= 0 {
		workers = 1
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Pool{workers: workers, logger: logger}
}

// Workers returns the pool's concurrency bound.
func (p *Pool) Workers() int {
	return p.workers
}

// Run executes fn for every index in [0, n) using at most the pool's
// worker count concurrently. The returned slice has length n with the
// error of task i at position i, so callers keep positional results
// regardless of completion order. One task failing never stops the
// others; context cancellation marks all unstarted tasks with ctx.Err().
func (p *Pool) Run(ctx context.Context, n int, fn func(ctx context.Context, i int) error) []error {
	errs := make([]error, n)
	if n == 0 {
		return errs
	}

	indices := make(chan int)
	var wg sync.WaitGroup

	workers := p.workers
	if workers > n {
		workers = n
	}

	for w := 0; w < workers; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := range indices {
				errs[i] = fn(ctx, i)
			}
		}()
	}

	for i := 0; i < n; i++ {
		select {
		case indices <- i:
		case <-ctx.Done():
			errs[i] = ctx.Err()
			for j := i + 1; j < n; j++ {
				errs[j] = ctx.Err()
			}
			close(indices)
			wg.Wait()
			return errs
		}
	}
	close(indices)
	wg.Wait()
	return errs
}
