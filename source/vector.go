package source

import (
	"context"
	"fmt"

	"github.com/smallnest/ragroute"
)

// VectorConnector retrieves from a vector store by embedding the query and
// running similarity search. Scores are the store's similarity scores and are
// only comparable to other results of the same store.
type VectorConnector struct {
	name     string
	store    ragroute.VectorStore
	embedder ragroute.Embedder
	topK     int
}

var _ ragroute.Connector = (*VectorConnector)(nil)

// NewVectorConnector creates a vector store connector. topK is the default
// result count used when the orchestrator passes topK <= 0.
func NewVectorConnector(name string, store ragroute.VectorStore, embedder ragroute.Embedder, topK int) *VectorConnector {
	if topK <= 0 {
		topK = 5
	}
	return &VectorConnector{
		name:     name,
		store:    store,
		embedder: embedder,
		topK:     topK,
	}
}

// Name identifies this connector in routing decisions and citations
func (c *VectorConnector) Name() string {
	return c.name
}

// Retrieve embeds the query and returns the topK most similar documents
func (c *VectorConnector) Retrieve(ctx context.Context, query string, topK int) ([]ragroute.RetrievalResult, error) {
	if topK <= 0 {
		topK = c.topK
	}

	queryEmbedding, err := c.embedder.EmbedDocument(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to embed query: %w", err)
	}

	searchResults, err := c.store.Search(ctx, queryEmbedding, topK)
	if err != nil {
		return nil, fmt.Errorf("vector search failed: %w", err)
	}

	results := make([]ragroute.RetrievalResult, len(searchResults))
	for i, sr := range searchResults {
		metadata := map[string]any{"document_id": sr.Document.ID}
		for k, v := range sr.Document.Metadata {
			metadata[k] = v
		}
		results[i] = ragroute.RetrievalResult{
			Content:  sr.Document.Content,
			Source:   c.name,
			Score:    ragroute.Score(sr.Score),
			Metadata: metadata,
		}
	}
	return results, nil
}
