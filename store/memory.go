package store

import (
	"context"
	"fmt"
	"math"
	"sort"
	"sync"

	"github.com/smallnest/ragroute"
)

// MemoryStore is a simple in-memory vector store using cosine similarity.
// It is safe for concurrent use: queries never mutate the index, and Add and
// Delete take the write lock.
type MemoryStore struct {
	mu         sync.RWMutex
	documents  []ragroute.Document
	embeddings [][]float32
	embedder   ragroute.Embedder
}

var _ ragroute.VectorStore = (*MemoryStore)(nil)

// NewMemoryStore creates a new MemoryStore. The embedder is used to embed
// documents added without an embedding; it may be nil if all documents carry
// their own.
func NewMemoryStore(embedder ragroute.Embedder) *MemoryStore {
	return &MemoryStore{
		documents:  make([]ragroute.Document, 0),
		embeddings: make([][]float32, 0),
		embedder:   embedder,
	}
}

// Add indexes documents, embedding any that have no embedding
func (s *MemoryStore) Add(ctx context.Context, docs []ragroute.Document) error {
	prepared := make([][]float32, len(docs))
	for i, doc := range docs {
		embedding := doc.Embedding
		if len(embedding) == 0 {
			if s.embedder == nil {
				return fmt.Errorf("no embedder configured and document %q has no embedding", doc.ID)
			}
			var err error
			embedding, err = s.embedder.EmbedDocument(ctx, doc.Content)
			if err != nil {
				return fmt.Errorf("failed to embed document %q: %w", doc.ID, err)
			}
		}
		prepared[i] = embedding
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.documents = append(s.documents, docs...)
	s.embeddings = append(s.embeddings, prepared...)
	return nil
}

// Delete removes documents by ID
func (s *MemoryStore) Delete(ctx context.Context, ids []string) error {
	drop := make(map[string]bool, len(ids))
	for _, id := range ids {
		drop[id] = true
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	docs := s.documents[:0]
	embs := s.embeddings[:0]
	for i, doc := range s.documents {
		if !drop[doc.ID] {
			docs = append(docs, doc)
			embs = append(embs, s.embeddings[i])
		}
	}
	s.documents = docs
	s.embeddings = embs
	return nil
}

// Search returns the k most similar documents by cosine similarity
func (s *MemoryStore) Search(ctx context.Context, queryEmbedding []float32, k int) ([]ragroute.SearchResult, error) {
	if k <= 0 {
		return nil, fmt.Errorf("k must be positive, got %d", k)
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	if len(s.documents) == 0 {
		return []ragroute.SearchResult{}, nil
	}

	results := make([]ragroute.SearchResult, len(s.documents))
	for i, emb := range s.embeddings {
		results[i] = ragroute.SearchResult{
			Document: s.documents[i],
			Score:    cosineSimilarity(queryEmbedding, emb),
		}
	}

	sort.SliceStable(results, func(i, j int) bool {
		return results[i].Score > results[j].Score
	})

	if k > len(results) {
		k = len(results)
	}
	return results[:k], nil
}

// Len returns the number of indexed documents
func (s *MemoryStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.documents)
}

// cosineSimilarity calculates cosine similarity between two embeddings
func cosineSimilarity(a, b []float32) float64 {
	if len(a) != len(b) || len(a) == 0 {
		return 0.0
	}

	var dot, normA, normB float64
	for i := range a {
		dot += float64(a[i]) * float64(b[i])
		normA += float64(a[i]) * float64(a[i])
		normB += float64(b[i]) * float64(b[i])
	}

	if normA == 0 || normB == 0 {
		return 0.0
	}
	return dot / (math.Sqrt(normA) * math.Sqrt(normB))
}
