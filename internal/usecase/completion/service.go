// Package completion implements cached completions: every request is keyed by
// its fingerprint and served from the cache when a fresh result exists.
package completion

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"go.opentelemetry.io/otel/attribute"

	"ai-notebook/internal/domain/entity"
	"ai-notebook/internal/observability/logging"
	"ai-notebook/internal/observability/metrics"
	"ai-notebook/internal/observability/tracing"
	"ai-notebook/internal/prompt"
	"ai-notebook/internal/utils/text"
)

// Client issues a single completion against a remote provider.
type Client interface {
	Complete(ctx context.Context, req entity.CompletionRequest) (string, error)
}

// Cache stores results by fingerprint. Implementations swallow their own
// failures: a broken cache degrades to a miss, never to an error.
type Cache interface {
	Get(ctx context.Context, fingerprint string) (string, bool)
	Put(ctx context.Context, fingerprint, result string)
}

// Service wraps a Client with a read-through cache.
type Service struct {
	client   Client
	cache    Cache
	provider entity.Provider
}

// NewService creates a Service. provider fills requests that do not name one.
func NewService(client Client, cache Cache, provider entity.Provider) *Service {
	return &Service{
		client:   client,
		cache:    cache,
		provider: provider,
	}
}

// Provider returns the default provider of the service.
func (s *Service) Provider() entity.Provider {
	return s.provider
}

// CompleteWithCache returns the cached result for req when present and fresh,
// otherwise calls the client and stores a successful result.
// Failed completions are never cached.
func (s *Service) CompleteWithCache(ctx context.Context, req entity.CompletionRequest) (string, error) {
	if req.Provider == "" {
		req.Provider = s.provider
	}
	if err := req.Validate(); err != nil {
		return "", err
	}

	fp := Fingerprint(req)
	logger := logging.FromContext(ctx)

	ctx, span := tracing.GetTracer().Start(ctx, "completion.CompleteWithCache")
	defer span.End()
	span.SetAttributes(
		tracing.ProviderAttr(string(req.Provider)),
		attribute.String("summarizer.fingerprint", fp),
	)

	if cached, ok := s.cache.Get(ctx, fp); ok {
		metrics.RecordCacheHit()
		span.SetAttributes(attribute.Bool("summarizer.cache_hit", true))
		logger.DebugContext(ctx, "cache hit",
			slog.String("fingerprint", fp),
			slog.Int("result_length", text.CountRunes(cached)))
		return cached, nil
	}
	metrics.RecordCacheMiss()
	span.SetAttributes(attribute.Bool("summarizer.cache_hit", false))

	start := time.Now()
	result, err := s.client.Complete(ctx, req)
	if err != nil {
		tracing.RecordError(span, err)
		logger.WarnContext(ctx, "completion failed",
			slog.String("fingerprint", fp),
			slog.String("provider", string(req.Provider)),
			slog.Duration("duration", time.Since(start)),
			slog.Any("error", err))
		return "", err
	}

	s.cache.Put(ctx, fp, result)
	logger.DebugContext(ctx, "completion cached",
		slog.String("fingerprint", fp),
		slog.Int("result_length", text.CountRunes(result)),
		slog.Duration("duration", time.Since(start)))

	return result, nil
}

// ProcessText renders tmpl with input and completes it with provider defaults.
// Empty input, an empty template, or a blank result are errors.
func (s *Service) ProcessText(ctx context.Context, input, tmpl string) (string, error) {
	if strings.TrimSpace(input) == "" {
		return "", fmt.Errorf("process text: %w", entity.ErrEmptyInput)
	}
	if strings.TrimSpace(tmpl) == "" {
		return "", &entity.ValidationError{Field: "template", Message: "is required"}
	}

	logging.FromContext(ctx).InfoContext(ctx, "processing text",
		slog.Int("input_length", text.CountRunes(input)))

	result, err := s.CompleteWithCache(ctx, entity.CompletionRequest{
		Prompt:   prompt.Render(tmpl, input),
		Provider: s.provider,
	})
	if err != nil {
		return "", fmt.Errorf("process text: %w", err)
	}
	if strings.TrimSpace(result) == "" {
		return "", fmt.Errorf("process text: %w", entity.ErrEmptyResponse)
	}

	return result, nil
}
