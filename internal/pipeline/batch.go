package pipeline

import (
	"context"
	"log/slog"
	"time"

	"golang.org/x/sync/errgroup"
)

// DefaultConcurrency bounds the worker pool when the caller does not.
const DefaultConcurrency = 10

// batchConfig carries the options shared by every Batch instantiation.
// Keeping options on a plain struct means they stay non-generic, so call
// sites read naturally regardless of the result type.
type batchConfig struct {
	concurrency int
	logger      *slog.Logger
}

// BatchOption configures a Batch.
type BatchOption func(*batchConfig)

// WithBatchLogger sets a custom logger for pool lifecycle events.
func WithBatchLogger(logger *slog.Logger) BatchOption {
	return func(c *batchConfig) {
		c.logger = logger
	}
}

// WithConcurrency sets the maximum number of in-flight work calls.
// Default is DefaultConcurrency if not specified or not positive.
func WithConcurrency(n int) BatchOption {
	return func(c *batchConfig) {
		if n > 0 {
			c.concurrency = n
		}
	}
}

// Batch runs one unit of work per item over a bounded worker pool and
// hands every result to a single collector.
//
// Design decision: work functions return a result value, never an error,
// because a failed unit is a recorded outcome, not a reason to stop its
// siblings. The only error Run can return is cancellation. This keeps
// the contract honest: there is no partial-failure mode to reason about,
// the result type carries whatever failure detail the caller defined.
//
// Design decision: results flow over a channel to the caller's goroutine
// rather than into a mutex-guarded slice, because the collectors here
// append to files and accumulate running sets. With exactly one consumer
// those writes need no locks at all, and completion order lets progress
// be reported as it happens instead of after the pool drains.
type Batch[R any] struct {
	cfg batchConfig
}

// NewBatch creates a batch runner for result type R.
func NewBatch[R any](opts ...BatchOption) *Batch[R] {
	cfg := batchConfig{
		concurrency: DefaultConcurrency,
	}

	for _, opt := range opts {
		opt(&cfg)
	}

	if cfg.logger == nil {
		cfg.logger = slog.Default()
	}

	return &Batch[R]{cfg: cfg}
}

// outcome pairs an item with its result on the way to the collector.
type outcome[R any] struct {
	item   string
	result R
}

// Run processes every item and calls collect once per completed item, in
// completion order, always on the calling goroutine. It respects the
// configured concurrency limit and context cancellation.
//
// Run returns nil only after every item was worked and collected; a
// canceled context aborts the pool and is returned, and items are never
// silently skipped otherwise.
func (b *Batch[R]) Run(
	ctx context.Context,
	items []string,
	work func(ctx context.Context, item string) R,
	collect func(item string, result R),
) error {
	if len(items) == 0 {
		return nil
	}

	b.cfg.logger.Debug("starting batch",
		"total_items", len(items),
		"concurrency", b.cfg.concurrency,
	)
	startTime := time.Now()

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(b.cfg.concurrency)

	results := make(chan outcome[R])
	done := make(chan error, 1)

	// Scheduling runs off the caller's goroutine: g.Go blocks once the
	// limit is reached, and the caller must be free to drain results the
	// whole time or the pool would deadlock against its own collector.
	go func() {
		for _, item := range items {
			if gctx.Err() != nil {
				break
			}
			g.Go(func() error {
				if err := gctx.Err(); err != nil {
					return err
				}
				out := outcome[R]{item: item, result: work(gctx, item)}
				select {
				case results <- out:
					return nil
				case <-gctx.Done():
					return gctx.Err()
				}
			})
		}

		err := g.Wait()
		if err == nil {
			// Scheduling may have stopped early on a context the
			// workers never observed.
			err = ctx.Err()
		}
		close(results)
		done <- err
	}()

	for out := range results {
		collect(out.item, out.result)
	}

	err := <-done
	b.cfg.logger.Debug("batch complete",
		"total_items", len(items),
		"elapsed", time.Since(startTime),
	)
	return err
}
