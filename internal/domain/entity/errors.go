package entity

import (
	"errors"
	"fmt"
)

// Sentinel errors for domain layer operations.
var (
	// ErrEmptyInput indicates that there is nothing to summarize or merge
	ErrEmptyInput = errors.New("empty input")

	// ErrEmptyResponse indicates that the model returned no text
	ErrEmptyResponse = errors.New("empty response from model")

	// ErrUnknownMode indicates that no prompt template is registered for a mode
	ErrUnknownMode = errors.New("unknown summarization mode")

	// ErrUnknownProvider indicates that no provider configuration exists for a provider name
	ErrUnknownProvider = errors.New("unknown provider")
)

// ConfigError reports a missing or invalid configuration value.
// It is fatal at startup.
type ConfigError struct {
	Key     string
	Message string
}

// Error returns a formatted error message for the configuration error.
func (e *ConfigError) Error() string {
	return fmt.Sprintf("config error on '%s': %s", e.Key, e.Message)
}

// CacheError reports a cache read or write failure.
// Callers log it and carry on; it never reaches the summarize caller.
type CacheError struct {
	Op          string
	Fingerprint string
	Err         error
}

// Error returns a formatted error message for the cache error.
func (e *CacheError) Error() string {
	return fmt.Sprintf("cache %s %s: %v", e.Op, e.Fingerprint, e.Err)
}

// Unwrap returns the underlying cause.
func (e *CacheError) Unwrap() error {
	return e.Err
}

// CompletionError reports a failed or empty model call.
type CompletionError struct {
	Provider Provider
	Err      error
}

// Error returns a formatted error message that names the provider and the cause.
func (e *CompletionError) Error() string {
	return fmt.Sprintf("%s completion failed: %v", e.Provider, e.Err)
}

// Unwrap returns the underlying cause.
func (e *CompletionError) Unwrap() error {
	return e.Err
}

// MergeError reports a failed merge call, identified by reduction round and batch index.
type MergeError struct {
	Round int
	Batch int
	Err   error
}

// Error returns a formatted error message for the merge error.
func (e *MergeError) Error() string {
	return fmt.Sprintf("merge failed at round %d batch %d: %v", e.Round, e.Batch, e.Err)
}

// Unwrap returns the underlying cause.
func (e *MergeError) Unwrap() error {
	return e.Err
}

// Pipeline stages reported by StageError.
const (
	StageValidation   = "validation"
	StageCompletion   = "completion"
	StageMerge        = "merge"
	StageFinalSummary = "final_summary"
)

// StageError identifies which pipeline stage failed.
type StageError struct {
	Stage string
	Err   error
}

// Error returns a formatted error message for the stage error.
func (e *StageError) Error() string {
	return fmt.Sprintf("summarization %s stage failed: %v", e.Stage, e.Err)
}

// Unwrap returns the underlying cause.
func (e *StageError) Unwrap() error {
	return e.Err
}
