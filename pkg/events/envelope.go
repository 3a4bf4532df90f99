// Package events provides the event infrastructure for batch evaluation
// progress reporting. It defines the Envelope type wrapping event payloads
// with consistent metadata and the Sink interface for event delivery.
package events

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// Event types emitted during a batch run.
const (
	// TypeDocumentEvaluated is emitted after a document completes successfully.
	TypeDocumentEvaluated = "evaluation.completed"

	// TypeDocumentFailed is emitted after a document's evaluation fails.
	TypeDocumentFailed = "evaluation.failed"

	// TypeBatchCompleted is emitted once when the whole run finishes.
	TypeBatchCompleted = "batch.completed"
)

// SchemaVersion is the current envelope payload schema version.
const SchemaVersion = "1.0.0"

// Envelope wraps event payloads with consistent metadata. The envelope is a
// generic container: the payload schema varies by Type and Version, while
// the standard fields support routing, correlation, and replay.
type Envelope struct {
	// ID uniquely identifies this event instance.
	ID string `json:"id"`

	// Type identifies the event for routing, one of the Type constants.
	Type string `json:"type"`

	// Source identifies the component that emitted the event.
	Source string `json:"source"`

	// Version is the payload schema version.
	Version string `json:"version"`

	// Timestamp records when the event was emitted.
	Timestamp time.Time `json:"timestamp"`

	// RunID identifies the batch run the event belongs to.
	RunID string `json:"run_id"`

	// Payload contains the event data as JSON. Schema varies by Type.
	Payload json.RawMessage `json:"payload"`
}

// DocumentEvaluated is the payload for TypeDocumentEvaluated.
type DocumentEvaluated struct {
	DocumentID   string  `json:"document_id"`
	OverallScore float64 `json:"overall_score"`
	Completed    int     `json:"completed"`
	Total        int     `json:"total"`
}

// DocumentFailed is the payload for TypeDocumentFailed.
type DocumentFailed struct {
	DocumentID string `json:"document_id"`
	Kind       string `json:"kind"`
	Message    string `json:"message"`
	Completed  int    `json:"completed"`
	Total      int    `json:"total"`
}

// BatchCompleted is the payload for TypeBatchCompleted.
type BatchCompleted struct {
	Succeeded int           `json:"succeeded"`
	Failed    int           `json:"failed"`
	Elapsed   time.Duration `json:"elapsed"`
}

// New builds an envelope for the given run with a fresh event ID and the
// payload marshaled to JSON.
func New(eventType, source, runID string, payload any) (Envelope, error) {
	raw, err := json.Marshal(payload)
	if err != nil {
		return Envelope{}, fmt.Errorf("marshaling %s payload: %w", eventType, err)
	}
	return Envelope{
		ID:        uuid.NewString(),
		Type:      eventType,
		Source:    source,
		Version:   SchemaVersion,
		Timestamp: time.Now().UTC(),
		RunID:     runID,
		Payload:   raw,
	}, nil
}

// Sink delivers events to downstream consumers. Delivery is best effort:
// sink failures must never fail the evaluation that triggered the event.
type Sink interface {
	// Append adds an event to the sink. Implementations should return
	// quickly to avoid blocking evaluation workers.
	Append(ctx context.Context, envelope Envelope) error
}

// NoOpSink discards all events. Useful for tests and for runs where event
// emission is disabled.
type NoOpSink struct{}

// Append implements Sink.
func (NoOpSink) Append(context.Context, Envelope) error { return nil }

// NewNoOpSink creates a sink that discards all events.
func NewNoOpSink() Sink { return NoOpSink{} }
