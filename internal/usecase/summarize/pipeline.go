// Package summarize turns an ordered list of text chunks into one summary.
//
// Chunks are packed into units no longer than the provider's chunk budget,
// each unit is completed concurrently through the cached completion service,
// and the per-unit results are reduced by a Merger in dispatch order.
package summarize

import (
	"context"
	"fmt"
	"log/slog"
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

// Completer is the cached completion entry point used for every model call.
type Completer interface {
	CompleteWithCache(ctx context.Context, req entity.CompletionRequest) (string, error)
}

// Pipeline runs the extract-then-merge summarization flow.
type Pipeline struct {
	completer Completer
	merger    *Merger
	prompts   *prompt.Set
	provider  entity.ProviderConfig
	sem       *semaphore.Weighted
}

// NewPipeline creates a Pipeline. sem bounds in-flight completions and
// should be shared process-wide; nil gets a limiter of DefaultMaxConcurrent.
func NewPipeline(completer Completer, prompts *prompt.Set, provider entity.ProviderConfig, sem *semaphore.Weighted) *Pipeline {
	if sem == nil {
		sem = NewLimiter(DefaultMaxConcurrent)
	}
	if prompts == nil {
		prompts = prompt.Default()
	}
	return &Pipeline{
		completer: completer,
		merger:    NewMerger(completer, sem, provider, prompts.Merge),
		prompts:   prompts,
		provider:  provider,
		sem:       sem,
	}
}

// Summarize extracts every unit of chunks with the mode's template and merges
// the results into one text.
//
// progress, when non-nil, receives processed/total after each unit completes,
// with total the number of units after pre-merge. Calls are serialized and
// non-decreasing; a panicking observer is logged and ignored.
//
// The first failed unit cancels the others and fails the run. Errors are
// *entity.StageError naming the validation, completion or merge stage.
func (p *Pipeline) Summarize(ctx context.Context, chunks []string, mode string, progress entity.ProgressFunc) (result string, err error) {
	ctx, logger := logging.WithRunID(ctx, logging.FromContext(ctx))
	ctx, span := tracing.GetTracer().Start(ctx, "summarize.Pipeline.Summarize")
	defer span.End()

	start := time.Now()
	defer func() {
		metrics.RecordSummarization(mode, err == nil, time.Since(start))
		if err != nil {
			tracing.RecordError(span, err)
			logger.ErrorContext(ctx, "summarization failed",
				slog.String("mode", mode),
				slog.Duration("duration", time.Since(start)),
				slog.Any("error", err))
		}
	}()

	tmpl, err := p.prompts.ExtractionFor(mode)
	if err != nil {
		return "", &entity.StageError{Stage: entity.StageValidation, Err: err}
	}

	units := PreMerge(chunks, p.provider.MaxChunkSize)
	if len(units) == 0 {
		return "", &entity.StageError{Stage: entity.StageValidation, Err: entity.ErrEmptyInput}
	}

	span.SetAttributes(
		tracing.ProviderAttr(string(p.provider.Name)),
		attribute.String("summarizer.run_id", logging.RunIDFromContext(ctx)),
		attribute.String("summarizer.mode", mode),
		attribute.Int("summarizer.chunks", len(chunks)),
		attribute.Int("summarizer.units", len(units)),
	)
	metrics.RecordChunksDispatched(len(units))
	logger.InfoContext(ctx, "summarization started",
		slog.String("mode", mode),
		slog.String("provider", string(p.provider.Name)),
		slog.Int("chunks", len(chunks)),
		slog.Int("units", len(units)))

	results, err := p.extract(ctx, units, tmpl, progress)
	if err != nil {
		return "", &entity.StageError{Stage: entity.StageCompletion, Err: err}
	}

	if len(results) == 1 {
		result = results[0]
	} else {
		result, err = p.merger.Merge(ctx, results)
		if err != nil {
			return "", &entity.StageError{Stage: entity.StageMerge, Err: err}
		}
	}

	logger.InfoContext(ctx, "summarization completed",
		slog.String("mode", mode),
		slog.Int("units", len(units)),
		slog.Duration("duration", time.Since(start)))

	return result, nil
}

// extract completes every unit concurrently and returns the results by unit index.
func (p *Pipeline) extract(ctx context.Context, units []string, tmpl string, progress entity.ProgressFunc) ([]string, error) {
	results := make([]string, len(units))

	done := make(chan struct{}, len(units))
	reported := make(chan struct{})
	go func() {
		defer close(reported)
		processed := 0
		for range done {
			processed++
			notify(ctx, progress, float64(processed)/float64(len(units)))
		}
	}()

	eg, egCtx := errgroup.WithContext(ctx)
	for i, unit := range units {
		eg.Go(func() error {
			req := entity.CompletionRequest{
				Prompt:   prompt.Render(tmpl, unit),
				Provider: p.provider.Name,
			}

			var out string
			err := withSlot(egCtx, p.sem, func() error {
				ctx, span := tracing.GetTracer().Start(egCtx, "summarize.Pipeline.extractUnit")
				defer span.End()
				span.SetAttributes(tracing.ChunkIndexAttr(i))

				var err error
				out, err = p.completer.CompleteWithCache(ctx, req)
				tracing.RecordError(span, err)
				return err
			})
			if err != nil {
				return fmt.Errorf("unit %d: %w", i, err)
			}

			results[i] = out
			done <- struct{}{}
			return nil
		})
	}

	err := eg.Wait()
	close(done)
	<-reported

	if err != nil {
		return nil, err
	}
	return results, nil
}

// notify calls progress, recovering from observer panics.
func notify(ctx context.Context, progress entity.ProgressFunc, fraction float64) {
	if progress == nil {
		return
	}
	defer func() {
		if r := recover(); r != nil {
			logging.FromContext(ctx).WarnContext(ctx, "progress observer panicked",
				slog.Any("panic", r))
		}
	}()
	progress(fraction)
}

// FinalSummary condenses an already merged result with the final-summary template.
// It is an optional pass on top of Summarize.
func (p *Pipeline) FinalSummary(ctx context.Context, merged string) (string, error) {
	if merged == "" {
		return "", &entity.StageError{Stage: entity.StageValidation, Err: entity.ErrEmptyInput}
	}

	ctx, span := tracing.GetTracer().Start(ctx, "summarize.Pipeline.FinalSummary")
	defer span.End()

	maxTokens := p.provider.MergeMaxTokens()
	req := entity.CompletionRequest{
		Prompt:    prompt.Render(p.prompts.FinalSummary, merged),
		Provider:  p.provider.Name,
		MaxTokens: &maxTokens,
	}

	var out string
	err := withSlot(ctx, p.sem, func() error {
		var err error
		out, err = p.completer.CompleteWithCache(ctx, req)
		return err
	})
	if err != nil {
		tracing.RecordError(span, err)
		return "", &entity.StageError{Stage: entity.StageFinalSummary, Err: err}
	}

	return out, nil
}
