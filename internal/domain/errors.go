package domain

import (
	"errors"
	"fmt"
)

// Aggregation errors. The specific errors match ErrInvalidAggregation via
// errors.Is so callers can test for the category or the exact cause.
var (
	// ErrInvalidAggregation is the category for degenerate aggregation inputs.
	ErrInvalidAggregation = errors.New("invalid aggregation")

	// ErrEmptyScores indicates an aggregation over zero scores.
	ErrEmptyScores = fmt.Errorf("%w: no scores provided", ErrInvalidAggregation)

	// ErrZeroWeights indicates a weighted aggregation whose weights sum to zero.
	ErrZeroWeights = fmt.Errorf("%w: weights sum to zero", ErrInvalidAggregation)

	// ErrNegativeWeight indicates a weighted aggregation with a negative weight.
	ErrNegativeWeight = fmt.Errorf("%w: negative weight", ErrInvalidAggregation)
)

// ParseError indicates a malformed rubric source that could not be decoded.
// Fatal at load time; no partial rubric is returned.
type ParseError struct {
	Err error
}

// Error returns the parse failure with its underlying cause.
func (e *ParseError) Error() string {
	return fmt.Sprintf("parsing rubric: %v", e.Err)
}

// Unwrap exposes the underlying decode error for errors.Is/As.
func (e *ParseError) Unwrap() error { return e.Err }

// ValidationError indicates a structurally well-formed rubric that violates
// a rubric invariant. Fatal at load time; no partial rubric is returned.
type ValidationError struct {
	// Criterion names the offending criterion when the violation is
	// attributable to one. Empty for rubric-wide violations.
	Criterion string

	// Message describes the violated invariant.
	Message string
}

// Error returns the validation failure with criterion context when available.
func (e *ValidationError) Error() string {
	if e.Criterion != "" {
		return fmt.Sprintf("invalid rubric: criterion %q: %s", e.Criterion, e.Message)
	}
	return fmt.Sprintf("invalid rubric: %s", e.Message)
}
