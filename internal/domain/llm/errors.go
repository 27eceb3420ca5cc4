package llm

import (
	"errors"
	"fmt"
)

// ErrorCategory classifies provider failures for retry decisions.
type ErrorCategory string

const (
	CategoryConnection ErrorCategory = "connection"
	CategoryRateLimit  ErrorCategory = "rate_limit"
	CategoryOverloaded ErrorCategory = "overloaded"
	CategoryOther      ErrorCategory = "other"
)

// ProviderError wraps a provider failure with its category and, when the
// failure came from an HTTP response, the status code.
type ProviderError struct {
	Category   ErrorCategory
	StatusCode int
	Err        error
}

func (e *ProviderError) Error() string {
	if e.StatusCode > 0 {
		return fmt.Sprintf("llm provider %s error (status %d): %v", e.Category, e.StatusCode, e.Err)
	}
	return fmt.Sprintf("llm provider %s error: %v", e.Category, e.Err)
}

func (e *ProviderError) Unwrap() error {
	return e.Err
}

// NewProviderError builds a categorized provider error.
func NewProviderError(category ErrorCategory, statusCode int, err error) *ProviderError {
	return &ProviderError{Category: category, StatusCode: statusCode, Err: err}
}

// IsRetryable reports whether err is a transient provider failure. Only
// connection failures, rate limiting, and server overload qualify.
func IsRetryable(err error) bool {
	var provErr *ProviderError
	if !errors.As(err, &provErr) {
		return false
	}
	switch provErr.Category {
	case CategoryConnection, CategoryRateLimit, CategoryOverloaded:
		return true
	default:
		return false
	}
}

// CategoryOf returns the category of err, or CategoryOther for anything that
// is not a ProviderError.
func CategoryOf(err error) ErrorCategory {
	var provErr *ProviderError
	if errors.As(err, &provErr) {
		return provErr.Category
	}
	return CategoryOther
}
