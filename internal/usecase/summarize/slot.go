package summarize

import (
	"context"

	"golang.org/x/sync/semaphore"

	"ai-notebook/internal/observability/metrics"
)

// DefaultMaxConcurrent caps in-flight completions when no limiter is supplied.
const DefaultMaxConcurrent = 5

// NewLimiter returns a process-wide concurrency limiter for completion calls.
// Share one limiter between every Pipeline and Merger of a process.
func NewLimiter(maxConcurrent int) *semaphore.Weighted {
	if maxConcurrent <= 0 {
		maxConcurrent = DefaultMaxConcurrent
	}
	return semaphore.NewWeighted(int64(maxConcurrent))
}

// withSlot runs fn while holding one slot of sem.
func withSlot(ctx context.Context, sem *semaphore.Weighted, fn func() error) error {
	if err := sem.Acquire(ctx, 1); err != nil {
		return err
	}
	metrics.CompletionsInFlight.Inc()
	defer func() {
		metrics.CompletionsInFlight.Dec()
		sem.Release(1)
	}()
	return fn()
}
