package prompt

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ahrav/go-rubric/internal/domain"
)

func promptCriteria() domain.Criteria {
	return domain.Criteria{Criteria: []domain.Criterion{
		{
			Name:        "clarity",
			Description: "How clearly the document communicates.",
			Levels: []domain.Level{
				{Score: 1, Rule: "unclear"},
				{Score: 2, Rule: "adequate"},
				{Score: 3, Rule: "crystal clear"},
			},
		},
		{
			Name:        "accuracy",
			Description: "Factual correctness.",
			Levels: []domain.Level{
				{Score: 1, Rule: "wrong"},
				{Score: 2, Rule: "correct"},
			},
		},
	}}
}

func TestBuild(t *testing.T) {
	criteria := promptCriteria()

	t.Run("deterministic for identical inputs", func(t *testing.T) {
		first, err := Build("some document", criteria)
		require.NoError(t, err)
		second, err := Build("some document", criteria)
		require.NoError(t, err)
		assert.Equal(t, first, second)
	})

	t.Run("different documents yield different prompts", func(t *testing.T) {
		a, err := Build("document a", criteria)
		require.NoError(t, err)
		b, err := Build("document b", criteria)
		require.NoError(t, err)
		assert.NotEqual(t, a, b)
	})

	t.Run("embeds the document verbatim without truncation", func(t *testing.T) {
		long := strings.Repeat("the quick brown fox. ", 5000)
		p, err := Build(long, criteria)
		require.NoError(t, err)
		assert.Contains(t, p, long)
	})

	t.Run("embeds every criterion with levels high to low", func(t *testing.T) {
		p, err := Build("doc", criteria)
		require.NoError(t, err)

		assert.Contains(t, p, `<criterion name="clarity">`)
		assert.Contains(t, p, `<criterion name="accuracy">`)

		// Declared low-to-high; prompt must order high-to-low.
		hi := strings.Index(p, `<level score="3">crystal clear</level>`)
		lo := strings.Index(p, `<level score="1">unclear</level>`)
		require.NotEqual(t, -1, hi)
		require.NotEqual(t, -1, lo)
		assert.Less(t, hi, lo)
	})

	t.Run("instructs a structured reply", func(t *testing.T) {
		p, err := Build("doc", criteria)
		require.NoError(t, err)
		assert.Contains(t, p, `"scores"`)
		assert.Contains(t, p, "exactly one entry for every criterion")
	})
}

func TestHash(t *testing.T) {
	criteria := promptCriteria()

	h1, err := Hash("doc", criteria)
	require.NoError(t, err)
	h2, err := Hash("doc", criteria)
	require.NoError(t, err)
	assert.Equal(t, h1, h2)
	assert.Len(t, h1, 64)

	h3, err := Hash("other doc", criteria)
	require.NoError(t, err)
	assert.NotEqual(t, h1, h3)
}
