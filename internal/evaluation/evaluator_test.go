package evaluation

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ahrav/go-rubric/internal/domain"
	"github.com/ahrav/go-rubric/internal/llm"
	"github.com/ahrav/go-rubric/internal/parser"
)

func evalCriteria(t *testing.T) domain.Criteria {
	t.Helper()
	c := domain.Criteria{Criteria: []domain.Criterion{
		{
			Name:        "clarity",
			Description: "How clearly the document communicates.",
			Levels: []domain.Level{
				{Score: 1, Rule: "unclear"},
				{Score: 2, Rule: "mixed"},
				{Score: 3, Rule: "adequate"},
				{Score: 4, Rule: "clear"},
				{Score: 5, Rule: "crystal clear"},
			},
		},
		{
			Name:        "coherence",
			Description: "Logical flow of the argument.",
			Levels: []domain.Level{
				{Score: 1, Rule: "disjointed"},
				{Score: 2, Rule: "mostly coherent"},
				{Score: 3, Rule: "coherent"},
			},
		},
	}}
	require.NoError(t, c.Validate())
	return c
}

func intPtr(v int) *int { return &v }

func TestNewEvaluator(t *testing.T) {
	criteria := evalCriteria(t)
	cfg := llm.DefaultConfig("mock", "mock-model")

	t.Run("requires a client", func(t *testing.T) {
		_, err := NewEvaluator(nil, criteria, cfg)
		require.Error(t, err)
	})

	t.Run("requires a rubric", func(t *testing.T) {
		_, err := NewEvaluator(llm.NewMockClient(criteria, 1), domain.Criteria{}, cfg)
		require.Error(t, err)
	})
}

func TestEvaluate(t *testing.T) {
	criteria := evalCriteria(t)
	cfg := llm.DefaultConfig("mock", "mock-model")

	t.Run("produces one score per criterion with metadata", func(t *testing.T) {
		client := llm.NewMockClient(criteria, 42)
		ev, err := NewEvaluator(client, criteria, cfg)
		require.NoError(t, err)

		result, err := ev.Evaluate(context.Background(), "doc-1", "An essay on distributed consensus.")
		require.NoError(t, err)

		assert.Equal(t, "doc-1", result.DocumentID)
		require.Len(t, result.Scores, 2)
		assert.Equal(t, "clarity", result.Scores[0].CriterionName)
		assert.Equal(t, "coherence", result.Scores[1].CriterionName)
		require.NoError(t, result.Validate(criteria))

		assert.Equal(t, "mock", result.Metadata.Provider)
		assert.Equal(t, "mock-model", result.Metadata.Model)
		assert.False(t, result.Metadata.Timestamp.IsZero())
		assert.Equal(t, len("An essay on distributed consensus."), result.Metadata.DocumentLength)
	})

	t.Run("deterministic for identical inputs", func(t *testing.T) {
		client := llm.NewMockClient(criteria, 7)
		ev, err := NewEvaluator(client, criteria, cfg)
		require.NoError(t, err)

		first, err := ev.Evaluate(context.Background(), "doc-1", "same text")
		require.NoError(t, err)
		second, err := ev.Evaluate(context.Background(), "doc-1", "same text")
		require.NoError(t, err)

		assert.Equal(t, first.Scores, second.Scores)
		assert.Equal(t, first.OverallScore, second.OverallScore)
	})

	t.Run("overall score is the mean by default", func(t *testing.T) {
		client := llm.NewMockClient(criteria, 1)
		client.FixedScore = intPtr(3)
		ev, err := NewEvaluator(client, criteria, cfg)
		require.NoError(t, err)

		result, err := ev.Evaluate(context.Background(), "doc-1", "text")
		require.NoError(t, err)
		assert.InDelta(t, 3.0, result.OverallScore, 1e-9)
	})

	t.Run("weights change the overall score", func(t *testing.T) {
		client := llm.NewMockClient(criteria, 1)
		client.CompleteFunc = func(context.Context, string, llm.Config) (string, error) {
			return `{"scores": [
				{"criterion": "clarity", "score": 5, "reasoning": "excellent"},
				{"criterion": "coherence", "score": 1, "reasoning": "disjointed"}
			]}`, nil
		}
		ev, err := NewEvaluator(client, criteria, cfg,
			WithWeights(map[string]float64{"clarity": 3, "coherence": 1}))
		require.NoError(t, err)

		result, err := ev.Evaluate(context.Background(), "doc-1", "text")
		require.NoError(t, err)
		// (5*3 + 1*1) / 4
		assert.InDelta(t, 4.0, result.OverallScore, 1e-9)
	})

	t.Run("backend failure surfaces as provider error", func(t *testing.T) {
		client := llm.NewMockClient(criteria, 1)
		client.Err = llm.NewRateLimitError("mock", "slow down", 0)
		ev, err := NewEvaluator(client, criteria, cfg)
		require.NoError(t, err)

		_, err = ev.Evaluate(context.Background(), "doc-1", "text")
		var provErr *llm.ProviderError
		require.ErrorAs(t, err, &provErr)
		assert.Equal(t, llm.ErrorTypeRateLimit, provErr.Type)
	})

	t.Run("malformed reply surfaces as schema violation", func(t *testing.T) {
		client := llm.NewMockClient(criteria, 1)
		client.CompleteFunc = func(context.Context, string, llm.Config) (string, error) {
			return "I refuse to answer in the requested format.", nil
		}
		ev, err := NewEvaluator(client, criteria, cfg)
		require.NoError(t, err)

		_, err = ev.Evaluate(context.Background(), "doc-1", "text")
		var violation *parser.SchemaViolation
		require.ErrorAs(t, err, &violation)
	})

	t.Run("undeclared score in reply surfaces as schema violation", func(t *testing.T) {
		client := llm.NewMockClient(criteria, 1)
		client.FixedScore = intPtr(9)
		ev, err := NewEvaluator(client, criteria, cfg)
		require.NoError(t, err)

		_, err = ev.Evaluate(context.Background(), "doc-1", "text")
		var violation *parser.SchemaViolation
		require.ErrorAs(t, err, &violation)
	})
}
