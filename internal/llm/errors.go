package llm

import (
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"
)

// ErrorType categorizes provider failures for retry classification.
type ErrorType string

const (
	// ErrorTypeAuth indicates authentication or authorization failed (non-retryable).
	ErrorTypeAuth ErrorType = "auth"

	// ErrorTypeRateLimit indicates the provider rate limit was exceeded (retryable with backoff).
	ErrorTypeRateLimit ErrorType = "rate_limit"

	// ErrorTypeTimeout indicates the per-call deadline was exceeded (retryable).
	ErrorTypeTimeout ErrorType = "timeout"

	// ErrorTypeTransport indicates a network or provider service failure (retryable).
	ErrorTypeTransport ErrorType = "transport"
)

// ErrUnknownProvider indicates a provider name outside the supported set.
var ErrUnknownProvider = errors.New("unknown provider")

// ProviderError captures a structured backend call failure. All provider
// failure subtypes (auth, rate limit, timeout, transport) share this shape,
// distinguished by Type.
type ProviderError struct {
	// Provider is the backend that produced the failure.
	Provider string `json:"provider"`

	// StatusCode is the HTTP status when the failure maps to one, else zero.
	StatusCode int `json:"status_code,omitempty"`

	// Code is the provider-specific error code when available.
	Code string `json:"code,omitempty"`

	// Message describes the failure.
	Message string `json:"message"`

	// Type classifies the failure for retry decisions.
	Type ErrorType `json:"type"`

	// RetryAfter is the provider-suggested wait in seconds, when given.
	RetryAfter int `json:"retry_after,omitempty"`
}

// Error returns the formatted provider failure.
func (e *ProviderError) Error() string {
	if e.StatusCode > 0 {
		return fmt.Sprintf("%s %s error (status %d): %s", e.Provider, e.Type, e.StatusCode, e.Message)
	}
	return fmt.Sprintf("%s %s error: %s", e.Provider, e.Type, e.Message)
}

// IsRetryable reports whether the failure is transient. Auth failures are
// permanent; rate limit, timeout, and transport failures may succeed on retry.
func (e *ProviderError) IsRetryable() bool {
	switch e.Type {
	case ErrorTypeRateLimit, ErrorTypeTimeout, ErrorTypeTransport:
		return true
	default:
		return false
	}
}

// GetRetryAfter returns the provider-suggested retry delay, or zero.
func (e *ProviderError) GetRetryAfter() time.Duration {
	if e.RetryAfter > 0 {
		return time.Duration(e.RetryAfter) * time.Second
	}
	return 0
}

// NewAuthError builds an auth-classified ProviderError.
func NewAuthError(provider, message string) *ProviderError {
	return &ProviderError{Provider: provider, Message: message, Type: ErrorTypeAuth}
}

// NewRateLimitError builds a rate-limit-classified ProviderError with the
// suggested retry delay in seconds.
func NewRateLimitError(provider, message string, retryAfter int) *ProviderError {
	return &ProviderError{
		Provider:   provider,
		Message:    message,
		Type:       ErrorTypeRateLimit,
		RetryAfter: retryAfter,
	}
}

// NewTimeoutError builds a timeout-classified ProviderError.
func NewTimeoutError(provider, message string) *ProviderError {
	return &ProviderError{Provider: provider, Message: message, Type: ErrorTypeTimeout}
}

// NewTransportError builds a transport-classified ProviderError.
func NewTransportError(provider, message string) *ProviderError {
	return &ProviderError{Provider: provider, Message: message, Type: ErrorTypeTransport}
}

// ClassifyStatus maps an HTTP status code and optional provider error code to
// an ErrorType. Provider error codes take precedence over status codes.
func ClassifyStatus(statusCode int, errorCode string) ErrorType {
	lower := strings.ToLower(errorCode)
	switch {
	case strings.Contains(lower, "rate") || strings.Contains(lower, "limit"):
		return ErrorTypeRateLimit
	case strings.Contains(lower, "timeout"):
		return ErrorTypeTimeout
	case strings.Contains(lower, "auth") || strings.Contains(lower, "unauthorized") ||
		strings.Contains(lower, "permission") || strings.Contains(lower, "forbidden"):
		return ErrorTypeAuth
	}

	switch statusCode {
	case http.StatusTooManyRequests:
		return ErrorTypeRateLimit
	case http.StatusUnauthorized, http.StatusForbidden:
		return ErrorTypeAuth
	case http.StatusRequestTimeout, http.StatusGatewayTimeout:
		return ErrorTypeTimeout
	default:
		return ErrorTypeTransport
	}
}
