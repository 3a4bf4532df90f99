package worker

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/ahrav/go-rubric/internal/domain"
	"github.com/ahrav/go-rubric/internal/evaluation"
	"github.com/ahrav/go-rubric/internal/llm"
	"github.com/ahrav/go-rubric/internal/llm/providers"
)

// InitializeClient builds the completion backend for a worker process.
// The mock provider needs no credentials; real providers load API keys from
// the environment and are wrapped with client-side retry so transient
// failures are absorbed before they surface as activity failures.
func InitializeClient(
	ctx context.Context,
	provider string,
	criteria domain.Criteria,
	logger *slog.Logger,
) (llm.Client, error) {
	if provider == providers.ProviderMock {
		return llm.NewMockClient(criteria, 0), nil
	}

	creds, err := providers.LoadCredentials(ctx)
	if err != nil {
		return nil, fmt.Errorf("loading provider credentials: %w", err)
	}
	client, err := providers.NewClient(ctx, provider, creds)
	if err != nil {
		return nil, fmt.Errorf("initializing %s client: %w", provider, err)
	}
	return llm.WithRetry(client, llm.DefaultRetryPolicy(), logger), nil
}

// NewEvaluator builds the shared evaluator a worker's activities run on.
func NewEvaluator(
	ctx context.Context,
	criteria domain.Criteria,
	cfg llm.Config,
	logger *slog.Logger,
	opts ...evaluation.Option,
) (*evaluation.Evaluator, error) {
	client, err := InitializeClient(ctx, cfg.Provider, criteria, logger)
	if err != nil {
		return nil, err
	}
	opts = append(opts, evaluation.WithLogger(logger))
	return evaluation.NewEvaluator(client, criteria, cfg, opts...)
}
