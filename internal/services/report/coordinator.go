package report

import (
	"context"
	"fmt"
	"sync"

	"github.com/ternarybob/arbor"
	"github.com/ternarybob/vigil/internal/models"
)

// Coordinator runs batch summarization over all batches with a bounded
// worker pool. The bound exists because hosted providers enforce
// per-minute request ceilings shared across the whole run; unbounded
// fan-out would guarantee immediate rate limiting.
type Coordinator struct {
	summarizer     *Summarizer
	maxConcurrency int
	logger         arbor.ILogger
}

// NewCoordinator creates a coordinator over the given summarizer.
func NewCoordinator(summarizer *Summarizer, maxConcurrency int, logger arbor.ILogger) *Coordinator {
	if maxConcurrency <= 0 {
		maxConcurrency = 3
	}
	return &Coordinator{
		summarizer:     summarizer,
		maxConcurrency: maxConcurrency,
		logger:         logger,
	}
}

// SummarizeAll summarizes every batch, at most maxConcurrency at a time.
// Results come back indexed by input position; completion order under
// concurrency is irrelevant because batch IDs disambiguate. Since the
// summarizer cannot fail, the only fault handling here is isolating
// unexpected panics per batch: a faulting batch is replaced with its
// rule-based fallback result rather than aborting the run.
func (c *Coordinator) SummarizeAll(ctx context.Context, batches []models.Batch, runContext string) []models.BatchResult {
	results := make([]models.BatchResult, len(batches))
	sem := make(chan struct{}, c.maxConcurrency)
	var wg sync.WaitGroup

	for i, batch := range batches {
		wg.Add(1)
		go func(i int, batch models.Batch) {
			defer wg.Done()
			sem <- struct{}{}
			defer func() { <-sem }()

			results[i] = c.summarizeIsolated(ctx, batch, runContext)
		}(i, batch)
	}

	wg.Wait()
	return results
}

// summarizeIsolated converts a panic during one batch into that batch's
// rule-based fallback result.
func (c *Coordinator) summarizeIsolated(ctx context.Context, batch models.Batch, runContext string) (result models.BatchResult) {
	defer func() {
		if r := recover(); r != nil {
			c.logger.Error().
				Int("batch_id", batch.ID).
				Str("panic", fmt.Sprintf("%v", r)).
				Msg("Batch summarization panicked, substituting rule-based result")
			result = c.summarizer.FallbackResult(batch)
		}
	}()

	return c.summarizer.Summarize(ctx, batch, runContext)
}
