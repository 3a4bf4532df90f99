package evaluation

import (
	"context"
	"errors"
	"fmt"

	"go.temporal.io/sdk/temporal"

	"github.com/ahrav/go-rubric/internal/domain"
	"github.com/ahrav/go-rubric/internal/llm"
	"github.com/ahrav/go-rubric/internal/parser"
)

// Failure tags carried as the application error type so workflow code can
// classify activity failures without unwrapping the cause chain.
const (
	FailureTagValidation = "Validation"
	FailureTagProvider   = "Provider"
	FailureTagSchema     = "Schema"
	FailureTagInternal   = "Internal"
)

// EvaluateDocumentInput carries one document into the evaluation activity.
type EvaluateDocumentInput struct {
	DocumentID string `json:"document_id"`
	Text       string `json:"text"`
}

// Validate checks the activity input before dispatch.
func (in EvaluateDocumentInput) Validate() error {
	if in.DocumentID == "" {
		return errors.New("document_id is required")
	}
	if in.Text == "" {
		return errors.New("text is required")
	}
	return nil
}

// Activities exposes document evaluation as Temporal activities.
// Error classification maps pipeline failures onto Temporal retry
// semantics: transient backend failures retry, contract violations
// and invalid input do not.
type Activities struct {
	evaluator *Evaluator
}

// NewActivities wraps an evaluator for workflow registration.
func NewActivities(evaluator *Evaluator) *Activities {
	return &Activities{evaluator: evaluator}
}

// EvaluateDocument grades a single document within a workflow.
func (a *Activities) EvaluateDocument(
	ctx context.Context,
	input EvaluateDocumentInput,
) (*domain.EvaluationResult, error) {
	if err := input.Validate(); err != nil {
		return nil, nonRetryable(FailureTagValidation, err, "invalid input")
	}

	result, err := a.evaluator.Evaluate(ctx, input.DocumentID, input.Text)
	if err != nil {
		var provErr *llm.ProviderError
		if errors.As(err, &provErr) {
			if provErr.IsRetryable() {
				return nil, retryable(FailureTagProvider, err, provErr.Message)
			}
			return nil, nonRetryable(FailureTagProvider, err, provErr.Message)
		}

		var violation *parser.SchemaViolation
		if errors.As(err, &violation) {
			return nil, nonRetryable(FailureTagSchema, err, violation.Message)
		}

		return nil, nonRetryable(FailureTagInternal, err, fmt.Sprintf("evaluation failed for %s", input.DocumentID))
	}
	return result, nil
}

// retryable wraps transient failures so the workflow retry policy applies.
func retryable(tag string, cause error, msg string) error {
	return temporal.NewApplicationError(msg, tag, cause)
}

// nonRetryable wraps terminal failures so Temporal does not retry them.
func nonRetryable(tag string, cause error, msg string) error {
	return temporal.NewNonRetryableApplicationError(msg, tag, cause)
}
