package inference

import (
	"errors"
	"fmt"
)

// Sentinel errors for common conditions.
var (
	// ErrNoModel is returned when model is required but missing.
	ErrNoModel = errors.New("inference: model required")

	// ErrNoChoices is returned when the API answers without any choice.
	ErrNoChoices = errors.New("inference: no choices returned")

	// ErrProviderUnavailable is returned when no provider is configured.
	ErrProviderUnavailable = errors.New("inference: provider unavailable")
)

// APIError represents an error response from an inference API.
type APIError struct {
	// StatusCode is the HTTP status code.
	StatusCode int

	// Message is the error message from the API.
	Message string

	// Code is the error code (if provided).
	Code string

	// Provider identifies which provider returned the error.
	Provider string
}

// Error implements the error interface.
func (e *APIError) Error() string {
	if e.Code != "" {
		return fmt.Sprintf("inference [%s]: API error %d (%s): %s",
			e.Provider, e.StatusCode, e.Code, e.Message)
	}
	return fmt.Sprintf("inference [%s]: API error %d: %s",
		e.Provider, e.StatusCode, e.Message)
}

// IsRateLimited returns true if this is a rate limit error (HTTP 429).
func (e *APIError) IsRateLimited() bool {
	return e.StatusCode == 429
}

// IsUnauthorized returns true if this is an authentication error (HTTP 401).
func (e *APIError) IsUnauthorized() bool {
	return e.StatusCode == 401
}

// IsServerError returns true if this is a server-side error (HTTP 5xx).
func (e *APIError) IsServerError() bool {
	return e.StatusCode >= 500 && e.StatusCode < 600
}

// IsRetryable returns true if the request should be retried.
func (e *APIError) IsRetryable() bool {
	return e.IsRateLimited() || e.IsServerError()
}

// ProviderError wraps an error with provider context.
type ProviderError struct {
	Provider string
	Err      error
}

// Error implements the error interface.
func (e *ProviderError) Error() string {
	return fmt.Sprintf("inference [%s]: %v", e.Provider, e.Err)
}

// Unwrap returns the underlying error.
func (e *ProviderError) Unwrap() error {
	return e.Err
}

// WrapError wraps an error with provider context.
func WrapError(provider string, err error) error {
	if err == nil {
		return nil
	}
	return &ProviderError{Provider: provider, Err: err}
}
