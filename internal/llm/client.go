// Package llm defines the provider abstraction for grading backends: a single
// completion contract, the configuration threaded through every call, the
// provider failure taxonomy, a pluggable retry hook, and a deterministic mock
// for network-free testing.
//
// Network-backed implementations live in the providers subpackage; this
// package is independent of any vendor SDK.
package llm

import (
	"context"
	"time"
)

// Client is the uniform call contract to any grading backend.
// Implementations must be safe for concurrent use.
type Client interface {
	// Complete sends a prompt to the backend and returns its raw reply.
	// The configuration is explicit per call; implementations must not read
	// model or temperature from ambient state. Backend failures are returned
	// as *ProviderError values classified by ErrorType.
	Complete(ctx context.Context, prompt string, cfg Config) (string, error)
}

// Config carries the per-call completion parameters. It is an explicit value
// passed through every call site rather than process-wide defaults.
type Config struct {
	// Provider names the backend variant: mock, openai, anthropic, google.
	Provider string `json:"provider" validate:"required"`

	// Model is the provider-specific model identifier.
	Model string `json:"model" validate:"required"`

	// Temperature controls sampling randomness.
	Temperature float64 `json:"temperature" validate:"min=0,max=2"`

	// MaxTokens caps the completion size. Zero means provider default.
	MaxTokens int64 `json:"max_tokens" validate:"min=0"`

	// Timeout bounds a single backend call. The orchestrator does not
	// re-implement per-call timeouts; a deadline hit surfaces as a
	// timeout-classified *ProviderError.
	Timeout time.Duration `json:"timeout"`
}

// Default completion parameters.
const (
	DefaultTemperature = 0.3
	DefaultMaxTokens   = int64(2048)
	DefaultTimeout     = 60 * time.Second
)

// DefaultConfig returns a Config with default parameters for the given
// provider and model.
func DefaultConfig(provider, model string) Config {
	return Config{
		Provider:    provider,
		Model:       model,
		Temperature: DefaultTemperature,
		MaxTokens:   DefaultMaxTokens,
		Timeout:     DefaultTimeout,
	}
}
