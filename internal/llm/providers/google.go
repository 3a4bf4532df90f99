package providers

import (
	"context"
	"errors"

	"google.golang.org/genai"

	"github.com/ahrav/go-rubric/internal/llm"
)

// googleClient adapts the Gemini API to the llm.Client contract.
type googleClient struct {
	client *genai.Client
}

var _ llm.Client = (*googleClient)(nil)

// NewGoogleClient creates a Gemini-backed grading client.
func NewGoogleClient(ctx context.Context, apiKey string) (llm.Client, error) {
	client, err := genai.NewClient(ctx, &genai.ClientConfig{APIKey: apiKey})
	if err != nil {
		return nil, llm.NewTransportError(ProviderGoogle, err.Error())
	}
	return &googleClient{client: client}, nil
}

// Complete sends the prompt and returns the reply text.
func (c *googleClient) Complete(ctx context.Context, prompt string, cfg llm.Config) (string, error) {
	if cfg.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, cfg.Timeout)
		defer cancel()
	}

	config := &genai.GenerateContentConfig{
		Temperature: genai.Ptr(float32(cfg.Temperature)),
	}
	if cfg.MaxTokens > 0 {
		config.MaxOutputTokens = int32(cfg.MaxTokens)
	}

	result, err := c.client.Models.GenerateContent(ctx, cfg.Model, genai.Text(prompt), config)
	if err != nil {
		return "", classifyGoogleError(err)
	}
	text := result.Text()
	if text == "" {
		return "", llm.NewTransportError(ProviderGoogle, "reply contained no text")
	}
	return text, nil
}

// classifyGoogleError maps SDK failures into the provider error taxonomy.
func classifyGoogleError(err error) error {
	if errors.Is(err, context.Canceled) {
		return err
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return llm.NewTimeoutError(ProviderGoogle, "call deadline exceeded")
	}
	var apiErr *genai.APIError
	if errors.As(err, &apiErr) {
		return &llm.ProviderError{
			Provider:   ProviderGoogle,
			StatusCode: apiErr.Code,
			Message:    apiErr.Message,
			Type:       llm.ClassifyStatus(apiErr.Code, apiErr.Status),
		}
	}
	return llm.NewTransportError(ProviderGoogle, err.Error())
}
