package source

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tmc/langchaingo/llms"

	"github.com/smallnest/ragroute"
	"github.com/smallnest/ragroute/store"
)

type mockLLM struct {
	answer string
	err    error
}

func (m *mockLLM) GenerateContent(ctx context.Context, messages []llms.MessageContent, options ...llms.CallOption) (*llms.ContentResponse, error) {
	if m.err != nil {
		return nil, m.err
	}
	return &llms.ContentResponse{
		Choices: []*llms.ContentChoice{
			{Content: m.answer},
		},
	}, nil
}

func (m *mockLLM) Call(ctx context.Context, prompt string, options ...llms.CallOption) (string, error) {
	if m.err != nil {
		return "", m.err
	}
	return m.answer, nil
}

func TestVectorConnector(t *testing.T) {
	ctx := context.Background()
	embedder := store.NewMockEmbedder(8)
	vs := store.NewMemoryStore(embedder)

	docs := []ragroute.Document{
		{ID: "d1", Content: "Go channels communicate between goroutines", Metadata: map[string]any{"source": "docs"}},
		{ID: "d2", Content: "Redis is an in-memory data store"},
		{ID: "d3", Content: "Goroutines are lightweight threads"},
	}
	require.NoError(t, vs.Add(ctx, docs))

	conn := NewVectorConnector("kb", vs, embedder, 2)
	assert.Equal(t, "kb", conn.Name())

	results, err := conn.Retrieve(ctx, "Go channels communicate between goroutines", 2)
	require.NoError(t, err)
	require.Len(t, results, 2)

	// Identical text embeds identically, so d1 ranks first with score 1.
	assert.Equal(t, "d1", results[0].Metadata["document_id"])
	assert.Equal(t, "kb", results[0].Source)
	require.NotNil(t, results[0].Score)
	assert.InDelta(t, 1.0, *results[0].Score, 1e-6)
}

func TestVectorConnectorTopKOverride(t *testing.T) {
	ctx := context.Background()
	embedder := store.NewMockEmbedder(8)
	vs := store.NewMemoryStore(embedder)

	var docs []ragroute.Document
	for i := 0; i < 5; i++ {
		docs = append(docs, ragroute.Document{
			ID:      fmt.Sprintf("d%d", i),
			Content: fmt.Sprintf("document number %d", i),
		})
	}
	require.NoError(t, vs.Add(ctx, docs))

	conn := NewVectorConnector("kb", vs, embedder, 3)

	results, err := conn.Retrieve(ctx, "document", 1)
	require.NoError(t, err)
	assert.Len(t, results, 1)

	// Zero falls back to the configured default.
	results, err = conn.Retrieve(ctx, "document", 0)
	require.NoError(t, err)
	assert.Len(t, results, 3)
}

func TestBraveConnector(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "test-key", r.Header.Get("X-Subscription-Token"))
		assert.Equal(t, "golang concurrency", r.URL.Query().Get("q"))
		assert.Equal(t, "2", r.URL.Query().Get("count"))

		w.Header().Set("Content-Type", "application/json")
		fmt.Fprint(w, `{
			"web": {
				"results": [
					{"title": "Go Blog", "url": "https://go.dev/blog", "description": "Concurrency patterns in Go"},
					{"title": "Effective Go", "url": "https://go.dev/doc", "description": "Share memory by communicating"}
				]
			}
		}`)
	}))
	defer server.Close()

	conn, err := NewBraveConnector("test-key", WithBraveBaseURL(server.URL), WithBraveCount(5))
	require.NoError(t, err)
	assert.Equal(t, "web", conn.Name())

	results, err := conn.Retrieve(context.Background(), "golang concurrency", 2)
	require.NoError(t, err)
	require.Len(t, results, 2)

	assert.Equal(t, "Concurrency patterns in Go", results[0].Content)
	assert.Equal(t, "web", results[0].Source)
	assert.Nil(t, results[0].Score)
	assert.Equal(t, "Go Blog", results[0].Metadata["title"])
	assert.Equal(t, "https://go.dev/blog", results[0].Metadata["url"])
	assert.Equal(t, 1, results[0].Metadata["rank"])
}

func TestBraveConnectorErrors(t *testing.T) {
	t.Run("missing api key", func(t *testing.T) {
		t.Setenv("BRAVE_API_KEY", "")
		_, err := NewBraveConnector("")
		assert.Error(t, err)
	})

	t.Run("http error status", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusTooManyRequests)
		}))
		defer server.Close()

		conn, err := NewBraveConnector("test-key", WithBraveBaseURL(server.URL))
		require.NoError(t, err)

		_, err = conn.Retrieve(context.Background(), "query", 3)
		assert.Error(t, err)
		assert.Contains(t, err.Error(), "429")
	})
}

func TestBraveConnectorPageContent(t *testing.T) {
	page := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/html")
		fmt.Fprint(w, `<html><head><style>p{color:red}</style></head><body>
			<nav>Home | About</nav>
			<h1>Concurrency</h1>
			<p>Goroutines are cheap.</p>
			<script>alert(1)</script>
		</body></html>`)
	}))
	defer page.Close()

	api := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		fmt.Fprintf(w, `{"web":{"results":[{"title":"Page","url":%q,"description":"snippet"}]}}`, page.URL)
	}))
	defer api.Close()

	fetcher := NewPageFetcher(WithFetcherMaxChars(200))
	conn, err := NewBraveConnector("test-key",
		WithBraveBaseURL(api.URL),
		WithBravePageContent(fetcher),
	)
	require.NoError(t, err)

	results, err := conn.Retrieve(context.Background(), "query", 1)
	require.NoError(t, err)
	require.Len(t, results, 1)

	assert.Contains(t, results[0].Content, "Goroutines are cheap.")
	assert.Contains(t, results[0].Content, "Concurrency")
	assert.NotContains(t, results[0].Content, "alert")
	assert.NotContains(t, results[0].Content, "Home | About")
}

func TestAnswerConnector(t *testing.T) {
	conn := NewAnswerConnector("pplx", &mockLLM{answer: "The capital of France is Paris."})
	assert.Equal(t, "pplx", conn.Name())

	results, err := conn.Retrieve(context.Background(), "What is the capital of France?", 5)
	require.NoError(t, err)
	require.Len(t, results, 1)

	assert.Equal(t, "The capital of France is Paris.", results[0].Content)
	assert.Equal(t, "pplx", results[0].Source)
	require.NotNil(t, results[0].Score)
	assert.Equal(t, 0.5, *results[0].Score)
}

func TestAnswerConnectorError(t *testing.T) {
	conn := NewAnswerConnector("", &mockLLM{err: fmt.Errorf("upstream unavailable")})
	assert.Equal(t, "answer", conn.Name())

	_, err := conn.Retrieve(context.Background(), "anything", 1)
	assert.Error(t, err)
}
