package completion

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"time"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"

	"ai-notebook/internal/domain/entity"
	"ai-notebook/internal/observability/logging"
	"ai-notebook/internal/observability/metrics"
	"ai-notebook/internal/utils/text"
)

// Claude calls Anthropic's Messages API.
type Claude struct {
	client   anthropic.Client
	provider entity.ProviderConfig
	guard    *guard
}

// NewClaude creates a Claude client for the given provider configuration.
// SDK-level retries are disabled; the guard owns retry policy.
func NewClaude(pc entity.ProviderConfig, opts Options) (*Claude, error) {
	if err := opts.validate(pc.Name); err != nil {
		return nil, err
	}

	reqOpts := []option.RequestOption{
		option.WithAPIKey(opts.APIKey),
		option.WithMaxRetries(0),
	}
	if pc.APIBase != "" {
		reqOpts = append(reqOpts, option.WithBaseURL(pc.APIBase))
	}
	if opts.HTTPClient != nil {
		reqOpts = append(reqOpts, option.WithHTTPClient(opts.HTTPClient))
	}

	slog.Info("Initialized completion client",
		slog.String("provider", string(pc.Name)),
		slog.String("model", pc.Model))

	return &Claude{
		client:   anthropic.NewClient(reqOpts...),
		provider: pc,
		guard:    newGuard(pc.Name, opts),
	}, nil
}

// Complete sends the prompt as a single user turn and returns the concatenated text blocks.
func (c *Claude) Complete(ctx context.Context, req entity.CompletionRequest) (string, error) {
	maxTokens := c.provider.ResolveMaxTokens(req.MaxTokens)
	temperature := c.provider.ResolveTemperature(req.Temperature)

	return c.guard.run(ctx, func(ctx context.Context) (string, error) {
		return c.doComplete(ctx, req.Prompt, maxTokens, temperature)
	})
}

// doComplete performs the actual API call without retry or circuit breaker.
func (c *Claude) doComplete(ctx context.Context, prompt string, maxTokens int, temperature float64) (string, error) {
	logger := logging.FromContext(ctx)
	provider := string(c.provider.Name)

	logger.DebugContext(ctx, "Starting completion",
		slog.String("provider", provider),
		slog.String("model", c.provider.Model),
		slog.Int("prompt_length", text.CountRunes(prompt)),
		slog.Int("max_tokens", maxTokens))

	start := time.Now()

	message, err := c.client.Messages.New(ctx, anthropic.MessageNewParams{
		Model:       anthropic.Model(c.provider.Model),
		MaxTokens:   int64(maxTokens),
		Temperature: anthropic.Float(temperature),
		System: []anthropic.TextBlockParam{
			{Text: systemPrompt},
		},
		Messages: []anthropic.MessageParam{
			anthropic.NewUserMessage(
				anthropic.NewTextBlock(prompt),
			),
		},
	})

	duration := time.Since(start)

	if err != nil {
		metrics.RecordCompletion(provider, false, duration)
		logger.ErrorContext(ctx, "Completion failed",
			slog.String("provider", provider),
			slog.Duration("duration", duration),
			slog.String("error", err.Error()))
		var apiErr *anthropic.Error
		if errors.As(err, &apiErr) {
			return "", statusError(apiErr.StatusCode, err)
		}
		return "", err
	}

	var sb strings.Builder
	for _, block := range message.Content {
		if textBlock, ok := block.AsAny().(anthropic.TextBlock); ok {
			sb.WriteString(textBlock.Text)
		}
	}
	content := sb.String()

	if strings.TrimSpace(content) == "" {
		metrics.RecordCompletion(provider, false, duration)
		logger.ErrorContext(ctx, "Completion returned empty response",
			slog.String("provider", provider),
			slog.Duration("duration", duration))
		return "", entity.ErrEmptyResponse
	}

	metrics.RecordCompletion(provider, true, duration)
	logger.InfoContext(ctx, "Completion finished",
		slog.String("provider", provider),
		slog.Int("response_length", text.CountRunes(content)),
		slog.Duration("duration", duration))

	return content, nil
}
