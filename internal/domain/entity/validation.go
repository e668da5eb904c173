package entity

import (
	"fmt"
	"strings"
)

// ValidationError represents a validation error with detailed field information.
type ValidationError struct {
	Field   string
	Message string
}

// Error returns a formatted error message for the validation error.
func (e *ValidationError) Error() string {
	return fmt.Sprintf("validation error on field '%s': %s", e.Field, e.Message)
}

// ValidateFingerprint checks that a fingerprint is a non-empty lowercase hex digest,
// which keeps it safe to use as a file name or key.
func ValidateFingerprint(fp string) error {
	if fp == "" {
		return &ValidationError{Field: "fingerprint", Message: "is required"}
	}
	if strings.IndexFunc(fp, func(r rune) bool {
		return !(r >= '0' && r <= '9' || r >= 'a' && r <= 'f')
	}) >= 0 {
		return &ValidationError{Field: "fingerprint", Message: "must be lowercase hex"}
	}
	return nil
}
