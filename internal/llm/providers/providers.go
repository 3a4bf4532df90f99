// Package providers implements the network-backed grading backends behind the
// llm.Client contract and the factory that resolves a provider name to a
// client. Each adapter maps its vendor SDK's failures into the shared
// provider error taxonomy; none of them retry on their own.
package providers

import (
	"context"
	"fmt"

	"github.com/sethvargo/go-envconfig"

	"github.com/ahrav/go-rubric/internal/llm"
)

// Supported provider identifiers. The set is closed: provider selection is an
// explicit switch over these constants, not runtime reflection.
const (
	ProviderMock      = "mock"
	ProviderOpenAI    = "openai"
	ProviderAnthropic = "anthropic"
	ProviderGoogle    = "google"
)

// Credentials holds provider API keys resolved from the environment.
// Resolution happens once at the edge; the evaluation pipeline itself never
// reads the environment.
type Credentials struct {
	OpenAIAPIKey    string `env:"OPENAI_API_KEY"`
	AnthropicAPIKey string `env:"ANTHROPIC_API_KEY"`
	GoogleAPIKey    string `env:"GEMINI_API_KEY"`
}

// LoadCredentials resolves provider credentials from the environment.
func LoadCredentials(ctx context.Context) (*Credentials, error) {
	var creds Credentials
	if err := envconfig.Process(ctx, &creds); err != nil {
		return nil, fmt.Errorf("resolving provider credentials: %w", err)
	}
	return &creds, nil
}

// NewClient resolves a provider name to a backend client. Unknown names
// return llm.ErrUnknownProvider. The mock variant is not constructable here
// because it requires a rubric; use llm.NewMockClient directly.
func NewClient(ctx context.Context, provider string, creds *Credentials) (llm.Client, error) {
	if creds == nil {
		creds = &Credentials{}
	}
	switch provider {
	case ProviderOpenAI:
		if creds.OpenAIAPIKey == "" {
			return nil, llm.NewAuthError(ProviderOpenAI, "OPENAI_API_KEY not set")
		}
		return NewOpenAIClient(creds.OpenAIAPIKey), nil
	case ProviderAnthropic:
		if creds.AnthropicAPIKey == "" {
			return nil, llm.NewAuthError(ProviderAnthropic, "ANTHROPIC_API_KEY not set")
		}
		return NewAnthropicClient(creds.AnthropicAPIKey), nil
	case ProviderGoogle:
		if creds.GoogleAPIKey == "" {
			return nil, llm.NewAuthError(ProviderGoogle, "GEMINI_API_KEY not set")
		}
		return NewGoogleClient(ctx, creds.GoogleAPIKey)
	default:
		return nil, fmt.Errorf("%w: %s", llm.ErrUnknownProvider, provider)
	}
}
