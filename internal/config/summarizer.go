package config

import (
	"fmt"
	"time"

	"ai-notebook/internal/domain/entity"
)

// Cache backends selectable through CACHE_BACKEND.
const (
	CacheBackendFile   = "file"
	CacheBackendValkey = "valkey"
	CacheBackendMemory = "memory"
)

// maxTokensCeiling caps every provider's max_tokens.
const maxTokensCeiling = 4096

// SummarizerConfig holds configuration for the summarization pipeline.
type SummarizerConfig struct {
	// Provider selects the active completion backend.
	// Default: deepseek
	Provider entity.Provider

	// APIKey for the active provider. Required.
	APIKey string

	// Providers holds the model parameters for every known provider.
	Providers map[entity.Provider]entity.ProviderConfig

	// MaxConcurrent caps in-flight completion calls across the process.
	// Default: 5
	MaxConcurrent int

	// CompletionTimeout bounds a single completion call, retries included.
	// Default: 120s
	CompletionTimeout time.Duration

	// PromptsPath optionally points at a YAML file overriding built-in prompts.
	PromptsPath string

	Retry          RetryConfig
	Cache          CacheConfig
	RateLimit      RateLimitConfig
	CircuitBreaker CircuitBreakerConfig
	Observability  ObservabilityConfig
}

// RetryConfig controls retry of transient completion failures.
type RetryConfig struct {
	// MaxRetries is the number of attempts after the first. Default: 3
	MaxRetries int
	// Delay before the first retry; later retries back off exponentially. Default: 500ms
	Delay time.Duration
}

// CacheConfig controls the completion cache.
type CacheConfig struct {
	// Backend is "file", "valkey" or "memory". Default: file
	Backend string
	// Dir holds one JSON file per fingerprint. Default: ./cache
	Dir string
	// TTL after which entries are treated as absent. Default: 168h
	TTL time.Duration
	// ValkeyAddr is used when Backend is valkey. Default: localhost:6379
	ValkeyAddr string
}

// RateLimitConfig is the client-side token bucket in front of the provider.
type RateLimitConfig struct {
	// RequestsPerSecond sustained. Default: 5
	RequestsPerSecond float64
	// Burst capacity. Default: 5
	Burst int
}

// CircuitBreakerConfig for provider calls.
type CircuitBreakerConfig struct {
	// MaxRequests in half-open state.
	MaxRequests uint32

	// Interval for clearing failure counts.
	Interval time.Duration

	// Timeout before transitioning from open to half-open.
	Timeout time.Duration

	// FailureThreshold ratio to trip circuit (0.0 to 1.0).
	FailureThreshold float64

	// MinRequests before calculating failure ratio.
	MinRequests uint32
}

// ObservabilityConfig holds metrics and tracing settings.
type ObservabilityConfig struct {
	// EnableTracing installs an OpenTelemetry tracer provider.
	EnableTracing bool
	// MetricsAddr serves /metrics when non-empty (e.g. ":9090").
	MetricsAddr string
}

// DefaultProviders returns the built-in provider table.
func DefaultProviders() map[entity.Provider]entity.ProviderConfig {
	return map[entity.Provider]entity.ProviderConfig{
		entity.ProviderDeepSeek: {
			Name:               entity.ProviderDeepSeek,
			Model:              "deepseek-chat",
			DefaultTemperature: 1.0,
			DefaultMaxTokens:   4096,
			MaxTokensCeiling:   maxTokensCeiling,
			APIBase:            "https://api.deepseek.com/v1",
			MaxChunkSize:       3000,
		},
		entity.ProviderOpenAI: {
			Name:               entity.ProviderOpenAI,
			Model:              "gpt-4o-mini",
			DefaultTemperature: 1.0,
			DefaultMaxTokens:   4096,
			MaxTokensCeiling:   maxTokensCeiling,
			MaxChunkSize:       6000,
		},
		entity.ProviderClaude: {
			Name:               entity.ProviderClaude,
			Model:              "claude-sonnet-4-5-20250929",
			DefaultTemperature: 1.0,
			DefaultMaxTokens:   4096,
			MaxTokensCeiling:   maxTokensCeiling,
			MaxChunkSize:       6000,
		},
	}
}

// apiKeyEnv maps each provider to the environment variable holding its key.
var apiKeyEnv = map[entity.Provider]string{
	entity.ProviderDeepSeek: "DEEPSEEK_API_KEY",
	entity.ProviderOpenAI:   "OPENAI_API_KEY",
	entity.ProviderClaude:   "ANTHROPIC_API_KEY",
}

// LoadSummarizerConfig loads the pipeline configuration from environment variables.
// Missing optional values fall back to defaults; a missing API key for the
// selected provider is a *entity.ConfigError.
func LoadSummarizerConfig() (*SummarizerConfig, error) {
	provider, err := entity.ParseProvider(getEnvOrDefault("SUMMARIZER_PROVIDER", string(entity.ProviderDeepSeek)))
	if err != nil {
		return nil, &entity.ConfigError{Key: "SUMMARIZER_PROVIDER", Message: err.Error()}
	}

	providers := DefaultProviders()
	ds := providers[entity.ProviderDeepSeek]
	ds.APIBase = getEnvOrDefault("DEEPSEEK_API_BASE", ds.APIBase)
	ds.Model = getEnvOrDefault("DEEPSEEK_MODEL", ds.Model)
	providers[entity.ProviderDeepSeek] = ds

	oa := providers[entity.ProviderOpenAI]
	oa.APIBase = getEnvOrDefault("OPENAI_API_BASE", oa.APIBase)
	oa.Model = getEnvOrDefault("OPENAI_MODEL", oa.Model)
	providers[entity.ProviderOpenAI] = oa

	cl := providers[entity.ProviderClaude]
	cl.Model = getEnvOrDefault("CLAUDE_MODEL", cl.Model)
	providers[entity.ProviderClaude] = cl

	config := &SummarizerConfig{
		Provider:          provider,
		APIKey:            getEnvOrDefault(apiKeyEnv[provider], ""),
		Providers:         providers,
		MaxConcurrent:     getEnvInt("MAX_CONCURRENT", 5),
		CompletionTimeout: getEnvDuration("COMPLETION_TIMEOUT", 120*time.Second),
		PromptsPath:       getEnvOrDefault("PROMPTS_PATH", ""),
		Retry: RetryConfig{
			MaxRetries: getEnvInt("MAX_RETRIES", 3),
			Delay:      getEnvDuration("RETRY_DELAY", 500*time.Millisecond),
		},
		Cache: CacheConfig{
			Backend:    getEnvOrDefault("CACHE_BACKEND", CacheBackendFile),
			Dir:        getEnvOrDefault("CACHE_DIR", "./cache"),
			TTL:        getEnvDuration("CACHE_TTL", 7*24*time.Hour),
			ValkeyAddr: getEnvOrDefault("VALKEY_ADDR", "localhost:6379"),
		},
		RateLimit: RateLimitConfig{
			RequestsPerSecond: getEnvFloat("RATE_LIMIT_RPS", 5),
			Burst:             getEnvInt("RATE_LIMIT_BURST", 5),
		},
		CircuitBreaker: CircuitBreakerConfig{
			MaxRequests:      uint32(getEnvInt("CB_MAX_REQUESTS", 3)),
			Interval:         getEnvDuration("CB_INTERVAL", 30*time.Second),
			Timeout:          getEnvDuration("CB_TIMEOUT", 60*time.Second),
			FailureThreshold: 0.6,
			MinRequests:      5,
		},
		Observability: ObservabilityConfig{
			EnableTracing: getEnvBool("TRACING_ENABLED", false),
			MetricsAddr:   getEnvOrDefault("METRICS_ADDR", ""),
		},
	}

	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("invalid summarizer configuration: %w", err)
	}

	return config, nil
}

// Active returns the configuration of the selected provider.
func (c *SummarizerConfig) Active() entity.ProviderConfig {
	return c.Providers[c.Provider]
}

// Validate checks configuration correctness.
func (c *SummarizerConfig) Validate() error {
	pc, ok := c.Providers[c.Provider]
	if !ok {
		return &entity.ConfigError{Key: "SUMMARIZER_PROVIDER", Message: fmt.Sprintf("no settings for provider %q", c.Provider)}
	}

	if c.APIKey == "" {
		return &entity.ConfigError{Key: apiKeyEnv[c.Provider], Message: "is required"}
	}

	if pc.Model == "" {
		return &entity.ConfigError{Key: "model", Message: "cannot be empty"}
	}

	if pc.MaxChunkSize <= 0 {
		return &entity.ConfigError{Key: "max_chunk_size", Message: "must be positive"}
	}

	if c.MaxConcurrent <= 0 {
		return &entity.ConfigError{Key: "MAX_CONCURRENT", Message: "must be positive"}
	}

	if c.CompletionTimeout <= 0 {
		return &entity.ConfigError{Key: "COMPLETION_TIMEOUT", Message: "must be positive"}
	}

	if c.Retry.MaxRetries < 0 {
		return &entity.ConfigError{Key: "MAX_RETRIES", Message: "cannot be negative"}
	}

	if c.Retry.Delay < 0 {
		return &entity.ConfigError{Key: "RETRY_DELAY", Message: "cannot be negative"}
	}

	switch c.Cache.Backend {
	case CacheBackendFile:
		if c.Cache.Dir == "" {
			return &entity.ConfigError{Key: "CACHE_DIR", Message: "cannot be empty"}
		}
	case CacheBackendValkey:
		if c.Cache.ValkeyAddr == "" {
			return &entity.ConfigError{Key: "VALKEY_ADDR", Message: "cannot be empty"}
		}
	case CacheBackendMemory:
	default:
		return &entity.ConfigError{Key: "CACHE_BACKEND", Message: fmt.Sprintf("unsupported backend %q", c.Cache.Backend)}
	}

	if c.Cache.TTL <= 0 {
		return &entity.ConfigError{Key: "CACHE_TTL", Message: "must be positive"}
	}

	if c.RateLimit.RequestsPerSecond <= 0 || c.RateLimit.Burst <= 0 {
		return &entity.ConfigError{Key: "RATE_LIMIT_RPS", Message: "rate and burst must be positive"}
	}

	if c.CircuitBreaker.MaxRequests == 0 {
		return &entity.ConfigError{Key: "CB_MAX_REQUESTS", Message: "must be positive"}
	}

	if c.CircuitBreaker.Interval <= 0 {
		return &entity.ConfigError{Key: "CB_INTERVAL", Message: "must be positive"}
	}

	if c.CircuitBreaker.Timeout <= 0 {
		return &entity.ConfigError{Key: "CB_TIMEOUT", Message: "must be positive"}
	}

	return nil
}
