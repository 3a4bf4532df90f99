package providers

import (
	"context"
	"errors"
	"strings"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"

	"github.com/ahrav/go-rubric/internal/llm"
)

// anthropicClient adapts the Anthropic messages API to the llm.Client
// contract.
type anthropicClient struct {
	client anthropic.Client
}

var _ llm.Client = (*anthropicClient)(nil)

// NewAnthropicClient creates an Anthropic-backed grading client.
func NewAnthropicClient(apiKey string) llm.Client {
	return &anthropicClient{client: anthropic.NewClient(option.WithAPIKey(apiKey))}
}

// Complete sends the prompt as a single user message and returns the
// concatenated text blocks of the reply.
func (c *anthropicClient) Complete(ctx context.Context, prompt string, cfg llm.Config) (string, error) {
	if cfg.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, cfg.Timeout)
		defer cancel()
	}

	maxTokens := cfg.MaxTokens
	if maxTokens <= 0 {
		maxTokens = llm.DefaultMaxTokens
	}
	params := anthropic.MessageNewParams{
		Model:     anthropic.Model(cfg.Model),
		MaxTokens: maxTokens,
		Messages: []anthropic.MessageParam{{
			Role: anthropic.MessageParamRoleUser,
			Content: []anthropic.ContentBlockParamUnion{
				anthropic.NewTextBlock(prompt),
			},
		}},
		Temperature: anthropic.Float(cfg.Temperature),
	}

	message, err := c.client.Messages.New(ctx, params)
	if err != nil {
		return "", classifyAnthropicError(err)
	}

	var text strings.Builder
	for _, block := range message.Content {
		if block.Type == "text" {
			text.WriteString(block.Text)
		}
	}
	if text.Len() == 0 {
		return "", llm.NewTransportError(ProviderAnthropic, "reply contained no text blocks")
	}
	return text.String(), nil
}

// classifyAnthropicError maps SDK failures into the provider error taxonomy.
func classifyAnthropicError(err error) error {
	if errors.Is(err, context.Canceled) {
		return err
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return llm.NewTimeoutError(ProviderAnthropic, "call deadline exceeded")
	}
	var apiErr *anthropic.Error
	if errors.As(err, &apiErr) {
		return &llm.ProviderError{
			Provider:   ProviderAnthropic,
			StatusCode: apiErr.StatusCode,
			Message:    apiErr.Error(),
			Type:       llm.ClassifyStatus(apiErr.StatusCode, ""),
		}
	}
	return llm.NewTransportError(ProviderAnthropic, err.Error())
}
