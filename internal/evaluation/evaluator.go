// Package evaluation runs the single-document grading pipeline: render the
// prompt, call the completion backend, validate the reply, and aggregate
// per-criterion scores into an overall score.
package evaluation

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/ahrav/go-rubric/internal/domain"
	"github.com/ahrav/go-rubric/internal/llm"
	"github.com/ahrav/go-rubric/internal/parser"
	"github.com/ahrav/go-rubric/internal/prompt"
)

// Evaluator grades documents against a fixed rubric using a completion
// backend. An Evaluator is immutable after construction and safe for
// concurrent use; the batch orchestrator shares one across all workers.
type Evaluator struct {
	client   llm.Client
	criteria domain.Criteria
	cfg      llm.Config
	weights  map[string]float64
	logger   *slog.Logger
	now      func() time.Time
}

// Option configures an Evaluator.
type Option func(*Evaluator)

// WithWeights enables weighted aggregation of the overall score. Keys are
// criterion names; a criterion absent from the map contributes zero weight.
func WithWeights(weights map[string]float64) Option {
	return func(e *Evaluator) { e.weights = weights }
}

// WithLogger sets the structured logger. Defaults to slog.Default.
func WithLogger(logger *slog.Logger) Option {
	return func(e *Evaluator) { e.logger = logger }
}

// NewEvaluator builds an evaluator for the given backend, rubric, and
// request configuration. The rubric must already be validated.
func NewEvaluator(client llm.Client, criteria domain.Criteria, cfg llm.Config, opts ...Option) (*Evaluator, error) {
	if client == nil {
		return nil, fmt.Errorf("evaluator requires a client")
	}
	if criteria.Len() == 0 {
		return nil, fmt.Errorf("evaluator requires a non-empty rubric")
	}

	e := &Evaluator{
		client:   client,
		criteria: criteria,
		cfg:      cfg,
		logger:   slog.Default(),
		now:      time.Now,
	}
	for _, opt := range opts {
		opt(e)
	}
	return e, nil
}

// Criteria returns the rubric the evaluator grades against.
func (e *Evaluator) Criteria() domain.Criteria { return e.criteria }

// Config returns the backend request configuration.
func (e *Evaluator) Config() llm.Config { return e.cfg }

// Evaluate grades one document and returns its complete result.
//
// Backend failures surface as *llm.ProviderError and reply contract
// failures as *parser.SchemaViolation so callers can classify them for
// retry and batch reporting. The returned result always carries exactly
// one score per rubric criterion.
func (e *Evaluator) Evaluate(ctx context.Context, documentID, text string) (*domain.EvaluationResult, error) {
	p, err := prompt.Build(text, e.criteria)
	if err != nil {
		return nil, fmt.Errorf("evaluating %s: %w", documentID, err)
	}

	raw, err := e.client.Complete(ctx, p, e.cfg)
	if err != nil {
		return nil, fmt.Errorf("evaluating %s: %w", documentID, err)
	}

	scores, warnings, err := parser.Parse(raw, e.criteria)
	if err != nil {
		return nil, fmt.Errorf("evaluating %s: %w", documentID, err)
	}
	for _, w := range warnings {
		e.logger.Warn("reply warning", "document_id", documentID, "warning", w)
	}

	overall, err := e.aggregate(scores)
	if err != nil {
		return nil, fmt.Errorf("evaluating %s: %w", documentID, err)
	}

	result := &domain.EvaluationResult{
		DocumentID:   documentID,
		Scores:       scores,
		OverallScore: overall,
		Metadata: domain.ResultMetadata{
			Provider:       e.cfg.Provider,
			Model:          e.cfg.Model,
			Timestamp:      e.now().UTC(),
			DocumentLength: len(text),
		},
	}
	if err := result.Validate(e.criteria); err != nil {
		return nil, fmt.Errorf("evaluating %s: %w", documentID, err)
	}

	e.logger.Debug("document evaluated",
		"document_id", documentID,
		"overall_score", overall,
		"criteria", len(scores))
	return result, nil
}

func (e *Evaluator) aggregate(scores []domain.EvaluationScore) (float64, error) {
	if e.weights != nil {
		return domain.AggregateScoresWeighted(scores, e.weights)
	}
	return domain.AggregateScores(scores)
}
