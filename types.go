package ragroute

import "context"

// Role identifies the author of a conversation message.
type Role string

const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
	RoleSystem    Role = "system"
)

// Message is a single turn of the conversation history.
type Message struct {
	Role    Role   `json:"role"`
	Content string `json:"content"`
}

// RetrievalResult is one content chunk returned by a source connector.
//
// Score is source-local: each backend reports confidence on its own scale and
// ragroute does not normalize across sources. A nil score means the backend
// reports no confidence at all (web search ranks, for example).
type RetrievalResult struct {
	Content  string         `json:"content"`
	Source   string         `json:"source"`
	Score    *float64       `json:"score,omitempty"`
	Metadata map[string]any `json:"metadata,omitempty"`
}

// Score wraps a float64 so it can be assigned to RetrievalResult.Score.
func Score(v float64) *float64 {
	return &v
}

// MergedContext is the deduplicated, budget-truncated aggregate of retrieval
// results for one query. It is owned by the retrieval orchestrator for the
// duration of that query; downstream components only read it.
type MergedContext struct {
	// Results in merge order: source registration order first, each
	// source's own ranking preserved within it.
	Results []RetrievalResult

	// Degraded lists the names of sources that errored or timed out and
	// therefore contributed nothing.
	Degraded []string
}

// Empty reports whether no source contributed any result.
func (m MergedContext) Empty() bool {
	return len(m.Results) == 0
}

// Citations derives the citation view of the merged results.
func (m MergedContext) Citations() []Citation {
	citations := make([]Citation, len(m.Results))
	for i, r := range m.Results {
		citations[i] = r.Citation()
	}
	return citations
}

// Citation is a retrieval result surfaced alongside the final answer as
// evidence. It carries the same source-local score as the result it was
// derived from.
type Citation struct {
	Content  string         `json:"content"`
	Source   string         `json:"source"`
	Score    *float64       `json:"score,omitempty"`
	Metadata map[string]any `json:"metadata,omitempty"`
}

// Citation derives the citation view of a retrieval result.
func (r RetrievalResult) Citation() Citation {
	return Citation{
		Content:  r.Content,
		Source:   r.Source,
		Score:    r.Score,
		Metadata: r.Metadata,
	}
}

// DecisionKind is the outcome of query classification.
type DecisionKind string

const (
	// DecisionNoRetrieval means the query can be answered without any
	// external context (small talk, formatting tasks, ...).
	DecisionNoRetrieval DecisionKind = "no_retrieval"
	// DecisionSingle means exactly one source should be queried.
	DecisionSingle DecisionKind = "retrieve_single"
	// DecisionMulti means several (possibly all) sources should be queried.
	DecisionMulti DecisionKind = "retrieve_multi"
)

// Decision is the classifier's routing decision for one query.
type Decision struct {
	Kind DecisionKind `json:"kind"`
	// Sources holds the selected connector names. Empty for
	// DecisionNoRetrieval; exactly one entry for DecisionSingle.
	Sources []string `json:"sources,omitempty"`
}

// NeedsRetrieval reports whether any source should be queried.
func (d Decision) NeedsRetrieval() bool {
	return d.Kind != DecisionNoRetrieval
}

// Connector exposes a uniform retrieval call over one backend, such as a
// vector database or a web search API. Implementations must honor ctx
// cancellation and should not retry internally; the orchestrator owns
// timeouts and degradation.
type Connector interface {
	// Name identifies the source in routing decisions, citations and logs.
	Name() string

	// Retrieve returns up to topK ranked results for the query.
	Retrieve(ctx context.Context, query string, topK int) ([]RetrievalResult, error)
}

// Embedder converts text into embedding vectors for vector search.
type Embedder interface {
	EmbedDocument(ctx context.Context, text string) ([]float32, error)
	EmbedDocuments(ctx context.Context, texts []string) ([][]float32, error)
}

// Document is an indexed chunk stored in a vector store.
type Document struct {
	ID        string         `json:"id"`
	Content   string         `json:"content"`
	Metadata  map[string]any `json:"metadata,omitempty"`
	Embedding []float32      `json:"-"`
}

// SearchResult is a document with its similarity score.
type SearchResult struct {
	Document Document
	Score    float64
}

// VectorStore is the similarity-search surface ragroute depends on. The store
// owns indexing; ragroute only calls Search with a query embedding.
type VectorStore interface {
	Add(ctx context.Context, docs []Document) error
	Delete(ctx context.Context, ids []string) error
	Search(ctx context.Context, queryEmbedding []float32, k int) ([]SearchResult, error)
}
