// Package entity holds the value types shared by the summarization pipeline:
// providers, completion requests, cache entries and the error taxonomy.
package entity

import "fmt"

// Provider names a chat-completion backend.
type Provider string

const (
	ProviderDeepSeek Provider = "deepseek"
	ProviderOpenAI   Provider = "openai"
	ProviderClaude   Provider = "claude"
)

// ParseProvider converts a configuration string into a Provider.
func ParseProvider(s string) (Provider, error) {
	switch p := Provider(s); p {
	case ProviderDeepSeek, ProviderOpenAI, ProviderClaude:
		return p, nil
	default:
		return "", fmt.Errorf("%w: %q", ErrUnknownProvider, s)
	}
}

// ProviderConfig carries the per-provider model parameters.
// It is immutable after load.
type ProviderConfig struct {
	Name               Provider
	Model              string
	DefaultTemperature float64
	DefaultMaxTokens   int
	// MaxTokensCeiling caps any requested max tokens.
	MaxTokensCeiling int
	// APIBase overrides the provider endpoint when non-empty.
	APIBase string
	// MaxChunkSize is the pre-merge budget in characters.
	MaxChunkSize int
}

// ResolveMaxTokens applies the provider default and ceiling to a requested value.
func (c ProviderConfig) ResolveMaxTokens(requested *int) int {
	n := c.DefaultMaxTokens
	if requested != nil {
		n = *requested
	}
	if c.MaxTokensCeiling > 0 && n > c.MaxTokensCeiling {
		n = c.MaxTokensCeiling
	}
	return n
}

// ResolveTemperature applies the provider default to a requested value.
func (c ProviderConfig) ResolveTemperature(requested *float64) float64 {
	if requested != nil {
		return *requested
	}
	return c.DefaultTemperature
}

// MergeMaxTokens is the token budget used for merge calls.
func (c ProviderConfig) MergeMaxTokens() int {
	return min(c.MaxTokensCeiling, c.DefaultMaxTokens)
}
