package store

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/smallnest/ragroute"
)

func TestMemoryStoreAddAndSearch(t *testing.T) {
	ctx := context.Background()
	embedder := NewMockEmbedder(64)
	s := NewMemoryStore(embedder)

	docs := []ragroute.Document{
		{ID: "d1", Content: "Paris is the capital of France.", Metadata: map[string]any{"source": "geo.txt"}},
		{ID: "d2", Content: "Go is a statically typed programming language."},
		{ID: "d3", Content: "The Eiffel Tower is in Paris."},
	}
	require.NoError(t, s.Add(ctx, docs))
	assert.Equal(t, 3, s.Len())

	queryEmb, err := embedder.EmbedDocument(ctx, "Paris is the capital of France.")
	require.NoError(t, err)

	results, err := s.Search(ctx, queryEmb, 2)
	require.NoError(t, err)
	assert.Len(t, results, 2)
	// An identical text must be the nearest neighbor.
	assert.Equal(t, "d1", results[0].Document.ID)
	assert.InDelta(t, 1.0, results[0].Score, 1e-5)
	// Scores are sorted descending.
	assert.GreaterOrEqual(t, results[0].Score, results[1].Score)
}

func TestMemoryStoreSearchEdgeCases(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStore(NewMockEmbedder(16))

	t.Run("Empty Store", func(t *testing.T) {
		results, err := s.Search(ctx, make([]float32, 16), 5)
		assert.NoError(t, err)
		assert.Empty(t, results)
	})

	t.Run("Invalid K", func(t *testing.T) {
		_, err := s.Search(ctx, make([]float32, 16), 0)
		assert.Error(t, err)
	})

	t.Run("K Larger Than Corpus", func(t *testing.T) {
		require.NoError(t, s.Add(ctx, []ragroute.Document{{ID: "only", Content: "one doc"}}))
		results, err := s.Search(ctx, make([]float32, 16), 10)
		assert.NoError(t, err)
		assert.Len(t, results, 1)
	})
}

func TestMemoryStoreDelete(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStore(NewMockEmbedder(16))

	require.NoError(t, s.Add(ctx, []ragroute.Document{
		{ID: "a", Content: "first"},
		{ID: "b", Content: "second"},
		{ID: "c", Content: "third"},
	}))

	require.NoError(t, s.Delete(ctx, []string{"b"}))
	assert.Equal(t, 2, s.Len())

	// Deleting a missing ID is not an error.
	require.NoError(t, s.Delete(ctx, []string{"missing"}))
	assert.Equal(t, 2, s.Len())
}

func TestMemoryStoreRequiresEmbedder(t *testing.T) {
	s := NewMemoryStore(nil)
	err := s.Add(context.Background(), []ragroute.Document{{ID: "x", Content: "no embedding"}})
	assert.Error(t, err)

	// Documents with their own embedding are fine without an embedder.
	err = s.Add(context.Background(), []ragroute.Document{{ID: "y", Content: "ok", Embedding: []float32{1, 0}}})
	assert.NoError(t, err)
}

func TestCosineSimilarity(t *testing.T) {
	assert.InDelta(t, 1.0, cosineSimilarity([]float32{1, 0}, []float32{2, 0}), 1e-9)
	assert.InDelta(t, 0.0, cosineSimilarity([]float32{1, 0}, []float32{0, 1}), 1e-9)
	assert.InDelta(t, -1.0, cosineSimilarity([]float32{1, 0}, []float32{-1, 0}), 1e-9)

	t.Run("Mismatched Or Zero Vectors", func(t *testing.T) {
		assert.Equal(t, 0.0, cosineSimilarity([]float32{1, 0}, []float32{1}))
		assert.Equal(t, 0.0, cosineSimilarity([]float32{0, 0}, []float32{1, 1}))
		assert.Equal(t, 0.0, cosineSimilarity(nil, nil))
	})
}

func TestMockEmbedderDeterministic(t *testing.T) {
	ctx := context.Background()
	e := NewMockEmbedder(32)

	a, err := e.EmbedDocument(ctx, "hello")
	require.NoError(t, err)
	b, err := e.EmbedDocument(ctx, "hello")
	require.NoError(t, err)
	assert.Equal(t, a, b)
	assert.Len(t, a, 32)

	batch, err := e.EmbedDocuments(ctx, []string{"hello", "world"})
	require.NoError(t, err)
	assert.Len(t, batch, 2)
	assert.Equal(t, a, batch[0])
}
