package pipeline

import (
	"context"
	"log/slog"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/nao1215/emailcrawler/internal/model"
)

// defaultConcurrency is the number of seeds crawled at once by default.
const defaultConcurrency = 1

// BatchProcessor crawls several seeds concurrently, each with a fresh
// pipeline from pipelineFactory.
type BatchProcessor struct {
	pipelineFactory func() *Pipeline
	output          string
	concurrency     int
	logger          *slog.Logger
}

// BatchOption configures a BatchProcessor.
type BatchOption func(*BatchProcessor)

// WithBatchLogger sets a custom logger for batch processing.
func WithBatchLogger(logger *slog.Logger) BatchOption {
	return func(b *BatchProcessor) {
		b.logger = logger
	}
}

// WithConcurrency sets the maximum number of concurrent seeds.
// Non-positive values are ignored.
func WithConcurrency(n int) BatchOption {
	return func(b *BatchProcessor) {
		if n > 0 {
			b.concurrency = n
		}
	}
}

// WithOutput sets the output recorded in each run summary.
func WithOutput(output string) BatchOption {
	return func(b *BatchProcessor) {
		b.output = output
	}
}

// NewBatchProcessor creates a new BatchProcessor.
func NewBatchProcessor(pipelineFactory func() *Pipeline, opts ...BatchOption) *BatchProcessor {
	bp := &BatchProcessor{
		pipelineFactory: pipelineFactory,
		concurrency:     defaultConcurrency,
	}
	for _, opt := range opts {
		opt(bp)
	}
	if bp.logger == nil {
		bp.logger = slog.Default()
	}
	return bp
}

// ProcessBatch crawls every seed and returns one summary per seed, in seed
// order. A failed seed does not stop the others; its error is in its
// summary. Seeds not started before ctx was cancelled get a summary with
// the cancellation error. The returned error is ctx's error, if any.
func (bp *BatchProcessor) ProcessBatch(ctx context.Context, seeds []string) ([]*model.RunSummary, error) {
	bp.logger.Debug("starting batch",
		"seeds", len(seeds),
		"concurrency", bp.concurrency,
	)
	startTime := time.Now()

	results := make([]*model.RunSummary, len(seeds))

	var g errgroup.Group
	g.SetLimit(bp.concurrency)

	for i, seed := range seeds {
		g.Go(func() error {
			job := NewJob(seed, bp.output)
			results[i] = job.Summary

			if err := ctx.Err(); err != nil {
				job.fail(err)
				return nil
			}

			bp.logger.Debug("crawling seed", "seed", seed, "index", i+1, "total", len(seeds))

			if err := bp.pipelineFactory().Execute(ctx, job); err != nil {
				bp.logger.Warn("crawl failed", "seed", seed, "error", err)
				return nil
			}

			bp.logger.Debug("seed completed",
				"seed", seed,
				"new_emails", len(job.Summary.NewEmails),
				"steps", job.PerformedSteps,
			)
			return nil
		})
	}

	_ = g.Wait() //nolint:errcheck // goroutines record errors in their summaries

	bp.logger.Debug("batch complete", "seeds", len(seeds), "elapsed", time.Since(startTime))

	return results, ctx.Err()
}
