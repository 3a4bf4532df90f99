package providers

import (
	"context"
	"errors"

	"github.com/openai/openai-go"
	"github.com/openai/openai-go/option"

	"github.com/ahrav/go-rubric/internal/llm"
)

// openAIClient adapts the OpenAI chat completions API to the llm.Client
// contract.
type openAIClient struct {
	client openai.Client
}

var _ llm.Client = (*openAIClient)(nil)

// NewOpenAIClient creates an OpenAI-backed grading client.
func NewOpenAIClient(apiKey string) llm.Client {
	return &openAIClient{client: openai.NewClient(option.WithAPIKey(apiKey))}
}

// Complete sends the prompt as a single user message and returns the first
// choice's content.
func (c *openAIClient) Complete(ctx context.Context, prompt string, cfg llm.Config) (string, error) {
	if cfg.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, cfg.Timeout)
		defer cancel()
	}

	params := openai.ChatCompletionNewParams{
		Model: openai.ChatModel(cfg.Model),
		Messages: []openai.ChatCompletionMessageParamUnion{
			openai.UserMessage(prompt),
		},
		Temperature: openai.Float(cfg.Temperature),
	}
	if cfg.MaxTokens > 0 {
		params.MaxCompletionTokens = openai.Int(cfg.MaxTokens)
	}

	completion, err := c.client.Chat.Completions.New(ctx, params)
	if err != nil {
		return "", classifyOpenAIError(err)
	}
	if len(completion.Choices) == 0 {
		return "", llm.NewTransportError(ProviderOpenAI, "completion contained no choices")
	}
	return completion.Choices[0].Message.Content, nil
}

// classifyOpenAIError maps SDK failures into the provider error taxonomy.
// Context cancellation propagates unchanged; a deadline hit becomes a
// timeout-classified provider error.
func classifyOpenAIError(err error) error {
	if errors.Is(err, context.Canceled) {
		return err
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return llm.NewTimeoutError(ProviderOpenAI, "call deadline exceeded")
	}
	var apierr *openai.Error
	if errors.As(err, &apierr) {
		return &llm.ProviderError{
			Provider:   ProviderOpenAI,
			StatusCode: apierr.StatusCode,
			Message:    apierr.Error(),
			Type:       llm.ClassifyStatus(apierr.StatusCode, ""),
		}
	}
	return llm.NewTransportError(ProviderOpenAI, err.Error())
}
