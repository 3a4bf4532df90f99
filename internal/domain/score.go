package domain

import (
	"fmt"
	"sort"
	"time"
)

// EvaluationScore is a single criterion's validated judgment of a document.
// The score value is always one of the criterion's declared level scores;
// parsing rejects anything else before a score reaches this type.
type EvaluationScore struct {
	// CriterionName references a Criterion by name.
	CriterionName string `json:"criterion_name" validate:"required"`

	// Score is one of the referenced criterion's declared level scores.
	Score int `json:"score"`

	// Confidence is the backend's self-reported certainty in [0,1].
	// Optional and descriptive only: it never influences the overall score
	// unless a caller explicitly opts into confidence-weighted aggregation.
	Confidence *float64 `json:"confidence,omitempty" validate:"omitempty,min=0,max=1"`

	// Reasoning is the backend's rationale for the score. Optional.
	Reasoning string `json:"reasoning,omitempty"`
}

// Validate checks the score against its struct constraints.
func (s *EvaluationScore) Validate() error { return validate.Struct(s) }

// ResultMetadata records the provenance of an evaluation result.
type ResultMetadata struct {
	Provider       string    `json:"provider"`
	Model          string    `json:"model"`
	Timestamp      time.Time `json:"timestamp"`
	DocumentLength int       `json:"document_length"`
}

// EvaluationResult is the complete outcome of evaluating one document:
// exactly one score per rubric criterion plus the derived overall score.
type EvaluationResult struct {
	DocumentID   string            `json:"document_id"`
	Scores       []EvaluationScore `json:"scores" validate:"required,min=1,dive"`
	OverallScore float64           `json:"overall_score"`
	Metadata     ResultMetadata    `json:"metadata"`
}

// Validate checks the result contract against criteria: one score per
// criterion, no omissions, no duplicates, every score value in range.
func (r *EvaluationResult) Validate(criteria Criteria) error {
	if err := validate.Struct(r); err != nil {
		return fmt.Errorf("invalid evaluation result: %w", err)
	}
	if len(r.Scores) != criteria.Len() {
		return fmt.Errorf("invalid evaluation result: %d scores for %d criteria", len(r.Scores), criteria.Len())
	}
	seen := make(map[string]struct{}, len(r.Scores))
	for _, s := range r.Scores {
		crit, ok := criteria.ByName(s.CriterionName)
		if !ok {
			return fmt.Errorf("invalid evaluation result: unknown criterion %q", s.CriterionName)
		}
		if _, dup := seen[s.CriterionName]; dup {
			return fmt.Errorf("invalid evaluation result: duplicate criterion %q", s.CriterionName)
		}
		seen[s.CriterionName] = struct{}{}
		if !crit.HasScore(s.Score) {
			return fmt.Errorf("invalid evaluation result: score %d not declared for criterion %q", s.Score, s.CriterionName)
		}
	}
	return nil
}

// FailureKind classifies a per-document failure for batch reporting.
type FailureKind string

const (
	// FailureProvider indicates the backend call failed (auth, rate limit,
	// timeout, transport).
	FailureProvider FailureKind = "provider"

	// FailureSchema indicates the backend reply violated the per-criterion
	// score contract.
	FailureSchema FailureKind = "schema"

	// FailureCanceled indicates the evaluation was canceled before completion.
	FailureCanceled FailureKind = "canceled"

	// FailureInternal indicates an unexpected pipeline failure.
	FailureInternal FailureKind = "internal"
)

// FailureRecord captures a single document's evaluation failure.
// Failures are isolated: one document failing never aborts sibling work.
type FailureRecord struct {
	DocumentID string      `json:"document_id"`
	Kind       FailureKind `json:"kind"`
	Message    string      `json:"message"`
}

// Error formats the failure for batch summaries.
func (f *FailureRecord) Error() string {
	return fmt.Sprintf("%s: %s failure: %s", f.DocumentID, f.Kind, f.Message)
}

// BatchResult collects the outcomes of one batch run: per document either an
// EvaluationResult or a FailureRecord, never both. It is owned transiently by
// the orchestrator for one run and exported or discarded at run end.
type BatchResult struct {
	// RunID uniquely identifies the batch run.
	RunID string `json:"run_id"`

	// Results maps document ID to successful evaluation results.
	Results map[string]*EvaluationResult `json:"results"`

	// Failures maps document ID to failure records.
	Failures map[string]*FailureRecord `json:"failures"`
}

// NewBatchResult creates an empty batch result for the given run.
func NewBatchResult(runID string) *BatchResult {
	return &BatchResult{
		RunID:    runID,
		Results:  make(map[string]*EvaluationResult),
		Failures: make(map[string]*FailureRecord),
	}
}

// Total returns the number of documents with a recorded outcome.
func (b *BatchResult) Total() int { return len(b.Results) + len(b.Failures) }

// SortedResults returns successful results ordered by document ID.
// Collation never relies on completion order.
func (b *BatchResult) SortedResults() []*EvaluationResult {
	out := make([]*EvaluationResult, 0, len(b.Results))
	for _, r := range b.Results {
		out = append(out, r)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].DocumentID < out[j].DocumentID })
	return out
}

// SortedFailures returns failure records ordered by document ID.
func (b *BatchResult) SortedFailures() []*FailureRecord {
	out := make([]*FailureRecord, 0, len(b.Failures))
	for _, f := range b.Failures {
		out = append(out, f)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].DocumentID < out[j].DocumentID })
	return out
}
