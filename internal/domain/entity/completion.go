package entity

import (
	"strings"
	"time"
)

// CompletionRequest is one prompt sent to a provider.
// Nil MaxTokens and Temperature fall back to the provider defaults.
type CompletionRequest struct {
	Prompt      string
	Provider    Provider
	MaxTokens   *int
	Temperature *float64
}

// Validate checks that the request can be dispatched.
func (r CompletionRequest) Validate() error {
	if strings.TrimSpace(r.Prompt) == "" {
		return &ValidationError{Field: "prompt", Message: "is required"}
	}
	if r.Provider == "" {
		return &ValidationError{Field: "provider", Message: "is required"}
	}
	if r.MaxTokens != nil && *r.MaxTokens <= 0 {
		return &ValidationError{Field: "max_tokens", Message: "must be positive"}
	}
	return nil
}

// CacheEntry is a stored completion result keyed by fingerprint.
type CacheEntry struct {
	Fingerprint string
	Result      string
	CreatedAt   time.Time
}

// Expired reports whether the entry is older than ttl at now.
func (e CacheEntry) Expired(now time.Time, ttl time.Duration) bool {
	return now.Sub(e.CreatedAt) > ttl
}

// ProgressFunc observes pipeline progress as a fraction in [0,1].
type ProgressFunc func(fraction float64)
