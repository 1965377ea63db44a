package ragroute

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestFilterCitations(t *testing.T) {
	citations := []Citation{
		{Source: "docs", Content: "Paris is the capital of France.", Score: Score(0.9)},
		{Source: "docs", Content: "Lyon is in France.", Score: Score(0.4)},
		{Source: "web", Content: "France travel guide."}, // no score
		{Source: "docs", Content: "Zero confidence.", Score: Score(0.0)},
	}

	t.Run("Keeps High Scores And Unscored", func(t *testing.T) {
		got := FilterCitations(citations, 0.5)
		assert.Len(t, got, 2)
		assert.Equal(t, "Paris is the capital of France.", got[0].Content)
		assert.Nil(t, got[1].Score)
	})

	t.Run("Threshold Zero Keeps Everything", func(t *testing.T) {
		got := FilterCitations(citations, 0)
		assert.Len(t, got, len(citations))
	})

	t.Run("Threshold One Keeps Only Unscored", func(t *testing.T) {
		got := FilterCitations(citations, 1)
		assert.Len(t, got, 1)
		assert.Equal(t, "web", got[0].Source)
	})

	t.Run("Exact Threshold Is Kept", func(t *testing.T) {
		got := FilterCitations(citations, 0.9)
		assert.Len(t, got, 2) // the 0.9 citation and the unscored one
	})

	t.Run("Preserves Order", func(t *testing.T) {
		got := FilterCitations(citations, 0.3)
		assert.Equal(t, []string{
			"Paris is the capital of France.",
			"Lyon is in France.",
			"France travel guide.",
		}, []string{got[0].Content, got[1].Content, got[2].Content})
	})

	t.Run("Empty Input", func(t *testing.T) {
		assert.Empty(t, FilterCitations(nil, 0.5))
	})
}

func TestFilterCitationsClampsThreshold(t *testing.T) {
	citations := []Citation{
		{Source: "docs", Score: Score(0.5)},
		{Source: "web"},
	}

	t.Run("Negative Behaves Like Zero", func(t *testing.T) {
		assert.Equal(t, FilterCitations(citations, 0), FilterCitations(citations, -3.7))
	})

	t.Run("Above One Behaves Like One", func(t *testing.T) {
		assert.Equal(t, FilterCitations(citations, 1), FilterCitations(citations, 42))
	})
}

func TestMergedContext(t *testing.T) {
	t.Run("Empty", func(t *testing.T) {
		assert.True(t, MergedContext{}.Empty())
		assert.False(t, MergedContext{Results: []RetrievalResult{{Content: "x"}}}.Empty())
	})

	t.Run("Citations Carry Scores", func(t *testing.T) {
		m := MergedContext{Results: []RetrievalResult{
			{Content: "a", Source: "docs", Score: Score(0.8)},
			{Content: "b", Source: "web"},
		}}
		citations := m.Citations()
		assert.Len(t, citations, 2)
		assert.Equal(t, 0.8, *citations[0].Score)
		assert.Nil(t, citations[1].Score)
	})
}

func TestDecision(t *testing.T) {
	assert.False(t, Decision{Kind: DecisionNoRetrieval}.NeedsRetrieval())
	assert.True(t, Decision{Kind: DecisionSingle, Sources: []string{"docs"}}.NeedsRetrieval())
	assert.True(t, Decision{Kind: DecisionMulti, Sources: []string{"docs", "web"}}.NeedsRetrieval())
}
