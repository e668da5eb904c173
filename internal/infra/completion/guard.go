// Package completion provides chat-completion clients for the summarization pipeline.
// It includes adapters for OpenAI-compatible APIs (DeepSeek, OpenAI) and Anthropic's
// Claude, each wrapped with rate limiting, a circuit breaker and retry with backoff.
package completion

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/sony/gobreaker"

	"ai-notebook/internal/domain/entity"
	"ai-notebook/internal/observability/logging"
	"ai-notebook/internal/resilience/circuitbreaker"
	"ai-notebook/internal/resilience/retry"
)

// systemPrompt is sent ahead of every user prompt.
const systemPrompt = "You are a helpful assistant"

// Options configures the transport and resilience of a client.
type Options struct {
	// APIKey authenticates against the provider. Required.
	APIKey string

	// HTTPClient overrides the transport. Nil uses the SDK default.
	HTTPClient *http.Client

	// Retry policy for transient failures.
	Retry retry.Config

	// Breaker guards the provider endpoint.
	Breaker circuitbreaker.Config

	// RequestsPerSecond and Burst size the client-side token bucket.
	RequestsPerSecond float64
	Burst             int

	// Timeout bounds one Complete call including retries. Zero disables it.
	Timeout time.Duration
}

func (o Options) validate(p entity.Provider) error {
	if o.APIKey == "" {
		return &entity.ConfigError{Key: string(p) + " api key", Message: "is required"}
	}
	return nil
}

// guard runs provider calls through the rate limiter, circuit breaker and retry policy.
type guard struct {
	provider entity.Provider
	breaker  *circuitbreaker.CircuitBreaker
	limiter  *RateLimiter
	retry    retry.Config
	timeout  time.Duration
}

func newGuard(p entity.Provider, opts Options) *guard {
	breakerCfg := opts.Breaker
	if breakerCfg.Name == "" {
		breakerCfg = circuitbreaker.ProviderConfig(string(p))
	}
	// A call canceled because a sibling failed says nothing about provider health.
	breakerCfg.IsSuccessful = func(err error) bool {
		return err == nil || errors.Is(err, context.Canceled)
	}

	rps, burst := opts.RequestsPerSecond, opts.Burst
	if rps <= 0 {
		rps = 5
	}
	if burst <= 0 {
		burst = 5
	}

	retryCfg := opts.Retry
	if retryCfg.MaxAttempts == 0 {
		retryCfg = retry.CompletionConfig(3, 500*time.Millisecond)
	}

	return &guard{
		provider: p,
		breaker:  circuitbreaker.New(breakerCfg),
		limiter:  NewRateLimiter(rps, burst),
		retry:    retryCfg,
		timeout:  opts.Timeout,
	}
}

// run executes call and wraps any failure in *entity.CompletionError.
func (g *guard) run(ctx context.Context, call func(context.Context) (string, error)) (string, error) {
	if g.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, g.timeout)
		defer cancel()
	}

	var result string
	err := retry.WithBackoff(ctx, g.retry, func() error {
		if err := g.limiter.Allow(ctx); err != nil {
			return fmt.Errorf("rate limit wait: %w", err)
		}

		out, err := g.breaker.Execute(func() (interface{}, error) {
			return call(ctx)
		})
		if err != nil {
			if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
				logging.FromContext(ctx).WarnContext(ctx, "provider circuit breaker open, request rejected",
					slog.String("provider", string(g.provider)),
					slog.String("state", g.breaker.State().String()))
				return fmt.Errorf("%s api unavailable: %w", g.provider, err)
			}
			return err
		}

		result = out.(string)
		return nil
	})
	if err != nil {
		return "", &entity.CompletionError{Provider: g.provider, Err: err}
	}

	return result, nil
}

// statusError annotates err with its HTTP status so retry.IsRetryable can classify it.
func statusError(status int, err error) error {
	if status == 0 {
		return err
	}
	return fmt.Errorf("%w: %w", &retry.HTTPError{StatusCode: status, Message: http.StatusText(status)}, err)
}
