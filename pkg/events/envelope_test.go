package events

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNew(t *testing.T) {
	payload := DocumentEvaluated{
		DocumentID:   "doc-1",
		OverallScore: 4.5,
		Completed:    1,
		Total:        10,
	}

	env, err := New(TypeDocumentEvaluated, "batch-orchestrator", "run-123", payload)
	require.NoError(t, err)

	assert.NotEmpty(t, env.ID)
	assert.Equal(t, TypeDocumentEvaluated, env.Type)
	assert.Equal(t, "batch-orchestrator", env.Source)
	assert.Equal(t, SchemaVersion, env.Version)
	assert.Equal(t, "run-123", env.RunID)
	assert.False(t, env.Timestamp.IsZero())

	var decoded DocumentEvaluated
	require.NoError(t, json.Unmarshal(env.Payload, &decoded))
	assert.Equal(t, payload, decoded)
}

func TestNewUniqueIDs(t *testing.T) {
	a, err := New(TypeBatchCompleted, "batch-orchestrator", "run-1", BatchCompleted{})
	require.NoError(t, err)
	b, err := New(TypeBatchCompleted, "batch-orchestrator", "run-1", BatchCompleted{})
	require.NoError(t, err)
	assert.NotEqual(t, a.ID, b.ID)
}

func TestNoOpSink(t *testing.T) {
	sink := NewNoOpSink()
	assert.NoError(t, sink.Append(context.Background(), Envelope{}))
}
