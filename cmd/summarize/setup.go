package main

import (
	"context"
	"fmt"
	"log/slog"

	"ai-notebook/internal/config"
	"ai-notebook/internal/domain/entity"
	"ai-notebook/internal/infra/cache"
	"ai-notebook/internal/infra/completion"
	"ai-notebook/internal/resilience/circuitbreaker"
	"ai-notebook/internal/resilience/retry"
	completionUC "ai-notebook/internal/usecase/completion"
)

// createCompletionClient builds the client for the configured provider.
func createCompletionClient(cfg *config.SummarizerConfig) (completionUC.Client, error) {
	opts := completion.Options{
		APIKey: cfg.APIKey,
		Retry:  retry.CompletionConfig(cfg.Retry.MaxRetries, cfg.Retry.Delay),
		Breaker: circuitbreaker.Config{
			Name:             string(cfg.Provider) + "-api",
			MaxRequests:      cfg.CircuitBreaker.MaxRequests,
			Interval:         cfg.CircuitBreaker.Interval,
			Timeout:          cfg.CircuitBreaker.Timeout,
			FailureThreshold: cfg.CircuitBreaker.FailureThreshold,
			MinRequests:      cfg.CircuitBreaker.MinRequests,
		},
		RequestsPerSecond: cfg.RateLimit.RequestsPerSecond,
		Burst:             cfg.RateLimit.Burst,
		Timeout:           cfg.CompletionTimeout,
	}

	switch cfg.Provider {
	case entity.ProviderClaude:
		client, err := completion.NewClaude(cfg.Active(), opts)
		if err != nil {
			return nil, err
		}
		return client, nil
	case entity.ProviderDeepSeek, entity.ProviderOpenAI:
		client, err := completion.NewOpenAICompatible(cfg.Active(), opts)
		if err != nil {
			return nil, err
		}
		return client, nil
	default:
		return nil, fmt.Errorf("%w: %s", entity.ErrUnknownProvider, cfg.Provider)
	}
}

// createCache opens the configured cache backend. A Valkey backend that
// cannot be reached falls back to the file store.
func createCache(ctx context.Context, logger *slog.Logger, cfg *config.SummarizerConfig) (completionUC.Cache, func(), error) {
	if cfg.Cache.Backend == config.CacheBackendMemory {
		logger.Info("completion cache initialized",
			slog.String("backend", config.CacheBackendMemory),
			slog.Duration("ttl", cfg.Cache.TTL))
		return cache.NewMemoryStore(cfg.Cache.TTL), func() {}, nil
	}

	if cfg.Cache.Backend == config.CacheBackendValkey {
		client, err := cache.DialValkey(ctx, cfg.Cache.ValkeyAddr)
		if err == nil {
			logger.Info("completion cache initialized",
				slog.String("backend", config.CacheBackendValkey),
				slog.String("addr", cfg.Cache.ValkeyAddr),
				slog.Duration("ttl", cfg.Cache.TTL))
			return cache.NewValkeyStore(client, "", cfg.Cache.TTL), client.Close, nil
		}
		logger.Warn("valkey unavailable, falling back to file cache",
			slog.String("addr", cfg.Cache.ValkeyAddr),
			slog.Any("error", err))
	}

	store, err := cache.NewFileStore(cfg.Cache.Dir, cfg.Cache.TTL)
	if err != nil {
		return nil, nil, err
	}
	logger.Info("completion cache initialized",
		slog.String("backend", config.CacheBackendFile),
		slog.String("dir", cfg.Cache.Dir),
		slog.Duration("ttl", cfg.Cache.TTL))
	return store, func() {}, nil
}
