// Package workflow orchestrates durable batch evaluation using Temporal.
// The workflow fans out one evaluation activity per document and collates
// per-document outcomes with the same isolation rules as the in-process
// orchestrator, so a batch survives worker restarts without losing
// completed documents. All workflow code must use workflow-safe APIs only.
package workflow

import (
	"errors"
	"fmt"
	"sort"
	"time"

	"go.temporal.io/sdk/temporal"
	"go.temporal.io/sdk/workflow"

	"github.com/ahrav/go-rubric/internal/domain"
	"github.com/ahrav/go-rubric/internal/evaluation"
)

// EvaluateDocumentActivity is the registered name of the per-document
// evaluation activity.
const EvaluateDocumentActivity = "EvaluateDocument"

// DefaultActivityTimeout bounds one document's evaluation including
// provider retries inside the activity.
const DefaultActivityTimeout = 2 * time.Minute

// BatchRequest is the workflow input: the documents to grade, keyed by ID.
// The rubric and provider configuration live in the worker's evaluator;
// the request only carries per-run data so workflow history stays small.
type BatchRequest struct {
	// Documents maps document ID to document text.
	Documents map[string]string `json:"documents"`

	// ActivityTimeout overrides DefaultActivityTimeout when positive.
	ActivityTimeout time.Duration `json:"activity_timeout,omitempty"`
}

// Validate checks the request before any activity is scheduled.
func (r BatchRequest) Validate() error {
	if len(r.Documents) == 0 {
		return errors.New("documents must not be empty")
	}
	for id, text := range r.Documents {
		if id == "" {
			return errors.New("document IDs must not be empty")
		}
		if text == "" {
			return fmt.Errorf("document %q has no text", id)
		}
	}
	return nil
}

// BatchReport is the workflow result, ordered by document ID.
type BatchReport struct {
	Results  []domain.EvaluationResult `json:"results"`
	Failures []domain.FailureRecord    `json:"failures"`
}

// BatchEvaluationWorkflow grades every document in the request. Activities
// are scheduled in sorted document ID order for deterministic replay, run
// concurrently up to the worker's task slots, and fail independently: one
// document exhausting its retries is recorded as a failure while its
// siblings complete normally.
func BatchEvaluationWorkflow(ctx workflow.Context, req BatchRequest) (*BatchReport, error) {
	// Version gate enables safe evolution and backward compatibility.
	const currentVersion = 1
	_ = workflow.GetVersion(ctx, "batch-evaluation.v", workflow.DefaultVersion, currentVersion)

	if err := req.Validate(); err != nil {
		return nil, temporal.NewNonRetryableApplicationError(
			"invalid batch request",
			evaluation.FailureTagValidation,
			err,
		)
	}

	timeout := req.ActivityTimeout
	if timeout <= 0 {
		timeout = DefaultActivityTimeout
	}
	ao := workflow.ActivityOptions{
		StartToCloseTimeout: timeout,
		HeartbeatTimeout:    30 * time.Second,
		RetryPolicy: &temporal.RetryPolicy{
			InitialInterval:    time.Second,
			BackoffCoefficient: 2.0,
			MaximumInterval:    time.Minute,
			MaximumAttempts:    3,
		},
	}
	ctx = workflow.WithActivityOptions(ctx, ao)

	ids := make([]string, 0, len(req.Documents))
	for id := range req.Documents {
		ids = append(ids, id)
	}
	sort.Strings(ids)

	logger := workflow.GetLogger(ctx)
	logger.Info("batch evaluation started", "documents", len(ids))

	futures := make([]workflow.Future, len(ids))
	for i, id := range ids {
		futures[i] = workflow.ExecuteActivity(ctx, EvaluateDocumentActivity, evaluation.EvaluateDocumentInput{
			DocumentID: id,
			Text:       req.Documents[id],
		})
	}

	report := &BatchReport{}
	for i, future := range futures {
		var result domain.EvaluationResult
		if err := future.Get(ctx, &result); err != nil {
			logger.Warn("document evaluation failed", "document_id", ids[i], "error", err)
			report.Failures = append(report.Failures, domain.FailureRecord{
				DocumentID: ids[i],
				Kind:       failureKind(err),
				Message:    err.Error(),
			})
			continue
		}
		report.Results = append(report.Results, result)
	}

	logger.Info("batch evaluation finished",
		"succeeded", len(report.Results),
		"failed", len(report.Failures))
	return report, nil
}

// failureKind maps an activity failure onto the batch failure taxonomy
// using the application error type tag set by the activity.
func failureKind(err error) domain.FailureKind {
	var appErr *temporal.ApplicationError
	if errors.As(err, &appErr) {
		switch appErr.Type() {
		case evaluation.FailureTagProvider:
			return domain.FailureProvider
		case evaluation.FailureTagSchema:
			return domain.FailureSchema
		case evaluation.FailureTagValidation, evaluation.FailureTagInternal:
			return domain.FailureInternal
		}
	}

	var canceledErr *temporal.CanceledError
	if errors.As(err, &canceledErr) {
		return domain.FailureCanceled
	}
	var timeoutErr *temporal.TimeoutError
	if errors.As(err, &timeoutErr) {
		return domain.FailureProvider
	}
	return domain.FailureInternal
}
