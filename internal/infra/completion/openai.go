package completion

import (
	"context"
	"errors"
	"log/slog"
	"math"
	"strings"
	"time"

	openai "github.com/sashabaranov/go-openai"

	"ai-notebook/internal/domain/entity"
	"ai-notebook/internal/observability/logging"
	"ai-notebook/internal/observability/metrics"
	"ai-notebook/internal/utils/text"
)

// OpenAICompatible calls any OpenAI-compatible chat completions endpoint.
// DeepSeek is served through it by pointing the base URL at its API.
type OpenAICompatible struct {
	client   *openai.Client
	provider entity.ProviderConfig
	guard    *guard
}

// NewOpenAICompatible creates a client for the given provider.
func NewOpenAICompatible(pc entity.ProviderConfig, opts Options) (*OpenAICompatible, error) {
	if err := opts.validate(pc.Name); err != nil {
		return nil, err
	}

	clientConfig := openai.DefaultConfig(opts.APIKey)
	if pc.APIBase != "" {
		clientConfig.BaseURL = strings.TrimRight(pc.APIBase, "/")
	}
	if opts.HTTPClient != nil {
		clientConfig.HTTPClient = opts.HTTPClient
	}

	slog.Info("Initialized completion client",
		slog.String("provider", string(pc.Name)),
		slog.String("model", pc.Model),
		slog.String("base_url", clientConfig.BaseURL))

	return &OpenAICompatible{
		client:   openai.NewClientWithConfig(clientConfig),
		provider: pc,
		guard:    newGuard(pc.Name, opts),
	}, nil
}

// Complete sends the prompt as a single user turn and returns the reply text.
// Max tokens are clamped to the provider ceiling; unset parameters take provider defaults.
func (o *OpenAICompatible) Complete(ctx context.Context, req entity.CompletionRequest) (string, error) {
	maxTokens := o.provider.ResolveMaxTokens(req.MaxTokens)
	temperature := o.provider.ResolveTemperature(req.Temperature)

	return o.guard.run(ctx, func(ctx context.Context) (string, error) {
		return o.doComplete(ctx, req.Prompt, maxTokens, temperature)
	})
}

// doComplete performs the actual API call without retry or circuit breaker.
func (o *OpenAICompatible) doComplete(ctx context.Context, prompt string, maxTokens int, temperature float64) (string, error) {
	logger := logging.FromContext(ctx)
	provider := string(o.provider.Name)

	logger.DebugContext(ctx, "Starting completion",
		slog.String("provider", provider),
		slog.String("model", o.provider.Model),
		slog.Int("prompt_length", text.CountRunes(prompt)),
		slog.Int("max_tokens", maxTokens))

	// go-openai omits a zero temperature from the request body.
	temp := float32(temperature)
	if temp == 0 {
		temp = math.SmallestNonzeroFloat32
	}

	start := time.Now()

	resp, err := o.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model:       o.provider.Model,
		MaxTokens:   maxTokens,
		Temperature: temp,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleSystem, Content: systemPrompt},
			{Role: openai.ChatMessageRoleUser, Content: prompt},
		},
	})

	duration := time.Since(start)

	if err != nil {
		metrics.RecordCompletion(provider, false, duration)
		logger.ErrorContext(ctx, "Completion failed",
			slog.String("provider", provider),
			slog.Duration("duration", duration),
			slog.String("error", err.Error()))
		return "", statusError(openAIStatus(err), err)
	}

	// Validate response structure (safety check to prevent panic on array access)
	if len(resp.Choices) == 0 || strings.TrimSpace(resp.Choices[0].Message.Content) == "" {
		metrics.RecordCompletion(provider, false, duration)
		logger.ErrorContext(ctx, "Completion returned empty response",
			slog.String("provider", provider),
			slog.Duration("duration", duration))
		return "", entity.ErrEmptyResponse
	}

	content := resp.Choices[0].Message.Content
	metrics.RecordCompletion(provider, true, duration)
	logger.InfoContext(ctx, "Completion finished",
		slog.String("provider", provider),
		slog.Int("response_length", text.CountRunes(content)),
		slog.Int("total_tokens", resp.Usage.TotalTokens),
		slog.Duration("duration", duration))

	return content, nil
}

// openAIStatus extracts the HTTP status from go-openai errors, or 0.
func openAIStatus(err error) int {
	var apiErr *openai.APIError
	if errors.As(err, &apiErr) {
		return apiErr.HTTPStatusCode
	}
	var reqErr *openai.RequestError
	if errors.As(err, &reqErr) {
		return reqErr.HTTPStatusCode
	}
	return 0
}
