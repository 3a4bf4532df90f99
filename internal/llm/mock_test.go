package llm

import (
	"context"
	"encoding/json"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ahrav/go-rubric/internal/domain"
)

func mockCriteria(t *testing.T) domain.Criteria {
	t.Helper()
	return domain.Criteria{Criteria: []domain.Criterion{
		{
			Name:        "clarity",
			Description: "clarity of writing",
			Levels: []domain.Level{
				{Score: 5, Rule: "excellent"},
				{Score: 4, Rule: "good"},
				{Score: 3, Rule: "fair"},
				{Score: 2, Rule: "weak"},
				{Score: 1, Rule: "poor"},
			},
		},
		{
			Name:        "coherence",
			Description: "logical flow",
			Levels: []domain.Level{
				{Score: 3, Rule: "coherent"},
				{Score: 2, Rule: "mixed"},
				{Score: 1, Rule: "incoherent"},
			},
		},
	}}
}

func TestMockClientDeterminism(t *testing.T) {
	criteria := mockCriteria(t)
	cfg := DefaultConfig("mock", "mock-1")
	ctx := context.Background()

	t.Run("identical inputs yield identical replies", func(t *testing.T) {
		a := NewMockClient(criteria, 42)
		b := NewMockClient(criteria, 42)

		replyA, err := a.Complete(ctx, "evaluate this document", cfg)
		require.NoError(t, err)
		replyB, err := b.Complete(ctx, "evaluate this document", cfg)
		require.NoError(t, err)

		assert.Equal(t, replyA, replyB)
	})

	t.Run("different seeds may differ, same seed never does", func(t *testing.T) {
		c := NewMockClient(criteria, 7)
		first, err := c.Complete(ctx, "prompt", cfg)
		require.NoError(t, err)
		for i := 0; i < 5; i++ {
			again, err := c.Complete(ctx, "prompt", cfg)
			require.NoError(t, err)
			assert.Equal(t, first, again)
		}
	})

	t.Run("scores are always in the declared set", func(t *testing.T) {
		for seed := int64(0); seed < 20; seed++ {
			c := NewMockClient(criteria, seed)
			raw, err := c.Complete(ctx, "another document", cfg)
			require.NoError(t, err)

			var reply mockReply
			require.NoError(t, json.Unmarshal([]byte(raw), &reply))
			require.Len(t, reply.Scores, criteria.Len())
			for _, s := range reply.Scores {
				crit, ok := criteria.ByName(s.Criterion)
				require.True(t, ok)
				assert.True(t, crit.HasScore(s.Score), "seed %d produced out-of-range score %d", seed, s.Score)
				assert.GreaterOrEqual(t, s.Confidence, 0.0)
				assert.LessOrEqual(t, s.Confidence, 1.0)
			}
		}
	})
}

func TestMockClientScripting(t *testing.T) {
	criteria := mockCriteria(t)
	cfg := DefaultConfig("mock", "mock-1")
	ctx := context.Background()

	t.Run("fixed score applies to every criterion", func(t *testing.T) {
		c := NewMockClient(criteria, 1)
		fixed := 2
		c.FixedScore = &fixed

		raw, err := c.Complete(ctx, "doc", cfg)
		require.NoError(t, err)

		var reply mockReply
		require.NoError(t, json.Unmarshal([]byte(raw), &reply))
		for _, s := range reply.Scores {
			assert.Equal(t, 2, s.Score)
		}
	})

	t.Run("scripted error fails every call", func(t *testing.T) {
		c := NewMockClient(criteria, 1)
		c.Err = NewTransportError("mock", "scripted failure")

		_, err := c.Complete(ctx, "doc", cfg)
		var provErr *ProviderError
		require.ErrorAs(t, err, &provErr)
		assert.Equal(t, ErrorTypeTransport, provErr.Type)
	})

	t.Run("complete func overrides the reply", func(t *testing.T) {
		c := NewMockClient(criteria, 1)
		c.CompleteFunc = func(_ context.Context, _ string, _ Config) (string, error) {
			return `{"scores":[]}`, nil
		}

		raw, err := c.Complete(ctx, "doc", cfg)
		require.NoError(t, err)
		assert.JSONEq(t, `{"scores":[]}`, raw)
	})
}

func TestMockClientInFlightTracking(t *testing.T) {
	criteria := mockCriteria(t)
	cfg := DefaultConfig("mock", "mock-1")
	c := NewMockClient(criteria, 1)

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := c.Complete(context.Background(), "doc", cfg)
			assert.NoError(t, err)
		}()
	}
	wg.Wait()

	assert.Equal(t, int64(8), c.Calls())
	assert.GreaterOrEqual(t, c.MaxInFlight(), 1)
	assert.LessOrEqual(t, c.MaxInFlight(), 8)
}
