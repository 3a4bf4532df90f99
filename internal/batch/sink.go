package batch

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/ahrav/go-rubric/internal/domain"
)

// ResultSink receives batch outcomes as they complete. The orchestrator
// serializes all appends, so implementations need no internal locking.
type ResultSink interface {
	Append(result *domain.EvaluationResult) error
	AppendFailure(failure *domain.FailureRecord) error
}

// jsonlRecord is one line of JSONL output. Exactly one of Result and
// Failure is set, discriminated by Kind.
type jsonlRecord struct {
	Kind    string                   `json:"kind"`
	Result  *domain.EvaluationResult `json:"result,omitempty"`
	Failure *domain.FailureRecord    `json:"failure,omitempty"`
}

// JSONLSink streams batch outcomes as JSON Lines, one object per
// completion. Lines appear in completion order, not document order.
type JSONLSink struct {
	enc    *json.Encoder
	closer io.Closer
}

var _ ResultSink = (*JSONLSink)(nil)

// NewJSONLSink writes JSONL records to w.
func NewJSONLSink(w io.Writer) *JSONLSink {
	return &JSONLSink{enc: json.NewEncoder(w)}
}

// NewJSONLFileSink appends JSONL records to the file at path, creating
// parent directories as needed. Close the sink when the run finishes.
func NewJSONLFileSink(path string) (*JSONLSink, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("creating sink directory: %w", err)
	}
	f, err := os.OpenFile(path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
	if err != nil {
		return nil, fmt.Errorf("opening sink file: %w", err)
	}
	return &JSONLSink{enc: json.NewEncoder(f), closer: f}, nil
}

// Append writes one result line.
func (s *JSONLSink) Append(result *domain.EvaluationResult) error {
	return s.enc.Encode(jsonlRecord{Kind: "result", Result: result})
}

// AppendFailure writes one failure line.
func (s *JSONLSink) AppendFailure(failure *domain.FailureRecord) error {
	return s.enc.Encode(jsonlRecord{Kind: "failure", Failure: failure})
}

// Close releases the underlying file when the sink owns one.
func (s *JSONLSink) Close() error {
	if s.closer == nil {
		return nil
	}
	return s.closer.Close()
}
