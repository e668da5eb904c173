package summarize

import (
	"context"
	"log/slog"
	"strings"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"golang.org/x/sync/errgroup"
	"golang.org/x/sync/semaphore"

	"ai-notebook/internal/domain/entity"
	"ai-notebook/internal/observability/logging"
	"ai-notebook/internal/observability/metrics"
	"ai-notebook/internal/observability/tracing"
	"ai-notebook/internal/prompt"
)

// BatchSize is the most partial results sent to a single merge call.
const BatchSize = 3

// Merger reduces partial results to one text through rounds of merge calls.
type Merger struct {
	completer Completer
	sem       *semaphore.Weighted
	provider  entity.ProviderConfig
	template  string
}

// NewMerger creates a Merger. A nil sem gets a private limiter.
func NewMerger(completer Completer, sem *semaphore.Weighted, provider entity.ProviderConfig, template string) *Merger {
	if sem == nil {
		sem = NewLimiter(DefaultMaxConcurrent)
	}
	return &Merger{
		completer: completer,
		sem:       sem,
		provider:  provider,
		template:  template,
	}
}

// Merge reduces parts to a single text.
//
// One part is returned as is. Two parts are joined and merged in one call.
// Longer inputs are grouped left to right into batches of BatchSize; a batch
// holding a single part passes through, every other batch is merged with one
// call, and rounds repeat until one text remains. Batches of a round run
// concurrently; their outputs keep the input order.
func (m *Merger) Merge(ctx context.Context, parts []string) (string, error) {
	if len(parts) == 0 {
		return "", &entity.MergeError{Err: entity.ErrEmptyInput}
	}
	if len(parts) == 1 {
		return parts[0], nil
	}

	ctx, span := tracing.GetTracer().Start(ctx, "summarize.Merger.Merge")
	defer span.End()
	span.SetAttributes(attribute.Int("summarizer.parts", len(parts)))

	logger := logging.FromContext(ctx)
	start := time.Now()

	if len(parts) <= 2 {
		merged, err := m.mergeBatch(ctx, 1, 0, parts)
		if err != nil {
			tracing.RecordError(span, err)
			return "", err
		}
		metrics.RecordMergeRounds(1)
		return merged, nil
	}

	round := 0
	for len(parts) > 1 {
		round++
		next := make([]string, (len(parts)+BatchSize-1)/BatchSize)

		eg, egCtx := errgroup.WithContext(ctx)
		for i := 0; i < len(parts); i += BatchSize {
			batch := parts[i:min(i+BatchSize, len(parts))]
			idx := i / BatchSize
			if len(batch) == 1 {
				next[idx] = batch[0]
				continue
			}
			eg.Go(func() error {
				merged, err := m.mergeBatch(egCtx, round, idx, batch)
				if err != nil {
					return err
				}
				next[idx] = merged
				return nil
			})
		}
		if err := eg.Wait(); err != nil {
			tracing.RecordError(span, err)
			return "", err
		}

		logger.DebugContext(ctx, "merge round completed",
			slog.Int("round", round),
			slog.Int("inputs", len(parts)),
			slog.Int("outputs", len(next)))
		parts = next
	}

	metrics.RecordMergeRounds(round)
	logger.InfoContext(ctx, "merge completed",
		slog.Int("rounds", round),
		slog.Duration("duration", time.Since(start)))

	return parts[0], nil
}

// mergeBatch joins batch and completes it with the merge template.
func (m *Merger) mergeBatch(ctx context.Context, round, batch int, parts []string) (string, error) {
	ctx, span := tracing.GetTracer().Start(ctx, "summarize.Merger.mergeBatch")
	defer span.End()
	span.SetAttributes(tracing.RoundAttr(round), attribute.Int("summarizer.batch", batch))

	maxTokens := m.provider.MergeMaxTokens()
	req := entity.CompletionRequest{
		Prompt:    prompt.Render(m.template, strings.Join(parts, chunkSeparator)),
		Provider:  m.provider.Name,
		MaxTokens: &maxTokens,
	}

	var merged string
	err := withSlot(ctx, m.sem, func() error {
		var err error
		merged, err = m.completer.CompleteWithCache(ctx, req)
		return err
	})
	metrics.RecordMergeCall(err == nil)
	if err != nil {
		tracing.RecordError(span, err)
		return "", &entity.MergeError{Round: round, Batch: batch, Err: err}
	}

	return merged, nil
}
