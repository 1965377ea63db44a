package engine

import (
	"context"
	"fmt"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tmc/langchaingo/llms"

	"github.com/smallnest/ragroute"
	"github.com/smallnest/ragroute/history"
	"github.com/smallnest/ragroute/retrieval"
	"github.com/smallnest/ragroute/rewrite"
	"github.com/smallnest/ragroute/router"
	"github.com/smallnest/ragroute/synthesize"
)

// fixedLLM always answers with the same content, optionally streamed.
type fixedLLM struct {
	answer string
	delay  time.Duration
}

func (m *fixedLLM) GenerateContent(ctx context.Context, messages []llms.MessageContent, options ...llms.CallOption) (*llms.ContentResponse, error) {
	opts := llms.CallOptions{}
	for _, opt := range options {
		opt(&opts)
	}
	if opts.StreamingFunc != nil {
		for _, word := range strings.SplitAfter(m.answer, " ") {
			if m.delay > 0 {
				select {
				case <-ctx.Done():
					return nil, ctx.Err()
				case <-time.After(m.delay):
				}
			}
			if err := opts.StreamingFunc(ctx, []byte(word)); err != nil {
				return nil, err
			}
		}
	}
	return &llms.ContentResponse{
		Choices: []*llms.ContentChoice{{Content: m.answer}},
	}, nil
}

func (m *fixedLLM) Call(ctx context.Context, prompt string, options ...llms.CallOption) (string, error) {
	return m.answer, nil
}

// countingConnector records how often it is invoked.
type countingConnector struct {
	name    string
	results []ragroute.RetrievalResult
	err     error
	delay   time.Duration
	calls   atomic.Int32
}

func (c *countingConnector) Name() string { return c.name }

func (c *countingConnector) Retrieve(ctx context.Context, query string, topK int) ([]ragroute.RetrievalResult, error) {
	c.calls.Add(1)
	if c.delay > 0 {
		select {
		case <-time.After(c.delay):
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
	if c.err != nil {
		return nil, c.err
	}
	return c.results, nil
}

// newTestEngine assembles an engine whose three LLM roles are independently
// scripted.
func newTestEngine(routing, answer string, connectors []ragroute.Connector, opts ...Option) *Engine {
	synthLLM := &fixedLLM{answer: answer}
	base := []Option{
		WithConnectors(connectors...),
		WithClassifier(router.NewClassifier(&fixedLLM{answer: routing})),
		WithRewriter(rewrite.NewRewriter(&fixedLLM{answer: "rewritten query"})),
		WithSynthesizer(synthesize.New(synthLLM)),
		WithOrchestrator(retrieval.New(
			retrieval.WithSourceTimeout(100 * time.Millisecond),
			retrieval.WithOverallTimeout(500 * time.Millisecond),
		)),
	}
	return New(synthLLM, append(base, opts...)...)
}

func TestAskEmptyQuery(t *testing.T) {
	e := newTestEngine("sources: none", "hi", nil)
	_, err := e.Ask(context.Background(), Request{})
	assert.Error(t, err)
}

func TestAskNoRetrieval(t *testing.T) {
	conn := &countingConnector{name: "docs"}
	e := newTestEngine("sources: none", "Hello! How can I help?", []ragroute.Connector{conn})

	stream, err := e.Ask(context.Background(), Request{Query: "Hello!"})
	require.NoError(t, err)

	answer, citations, errMsg := stream.Drain()
	assert.Equal(t, "Hello! How can I help?", answer)
	assert.Empty(t, citations)
	assert.Empty(t, errMsg)
	assert.Equal(t, int32(0), conn.calls.Load(), "no connector runs for a NO_RETRIEVAL decision")
}

func TestAskTwoSourcesOneTimesOut(t *testing.T) {
	a := &countingConnector{name: "docs", results: []ragroute.RetrievalResult{
		{Content: "Paris is the capital of France.", Source: "docs", Score: ragroute.Score(0.9)},
	}}
	b := &countingConnector{name: "web", delay: time.Second}

	t.Run("threshold 0.5 keeps the citation", func(t *testing.T) {
		e := newTestEngine("sources: all", "Paris.", []ragroute.Connector{a, b}, WithThreshold(0.5))

		stream, err := e.Ask(context.Background(), Request{Query: "What is the capital of France?"})
		require.NoError(t, err)

		answer, citations, errMsg := stream.Drain()
		assert.Equal(t, "Paris.", answer)
		assert.Empty(t, errMsg)
		require.Len(t, citations, 1)
		assert.Equal(t, "docs", citations[0].Source)
	})

	t.Run("threshold 0.95 drops the citation", func(t *testing.T) {
		e := newTestEngine("sources: all", "Paris.", []ragroute.Connector{a, b})

		threshold := 0.95
		stream, err := e.Ask(context.Background(), Request{
			Query:     "What is the capital of France?",
			Threshold: &threshold,
		})
		require.NoError(t, err)

		_, citations, _ := stream.Drain()
		assert.Empty(t, citations)
	})
}

func TestAskRoutesToSingleSource(t *testing.T) {
	docs := &countingConnector{name: "docs", results: []ragroute.RetrievalResult{
		{Content: "from docs", Source: "docs", Score: ragroute.Score(0.8)},
	}}
	web := &countingConnector{name: "web"}

	e := newTestEngine("sources: docs", "answer", []ragroute.Connector{docs, web})

	stream, err := e.Ask(context.Background(), Request{Query: "How do I install the driver?"})
	require.NoError(t, err)
	stream.Drain()

	assert.Equal(t, int32(1), docs.calls.Load())
	assert.Equal(t, int32(0), web.calls.Load())
}

func TestAskSourceHints(t *testing.T) {
	docs := &countingConnector{name: "docs"}
	web := &countingConnector{name: "web", results: []ragroute.RetrievalResult{
		{Content: "from web", Source: "web"},
	}}

	e := newTestEngine("sources: all", "answer", []ragroute.Connector{docs, web})

	stream, err := e.Ask(context.Background(), Request{
		Query:       "When is the B200 available?",
		SourceHints: []string{"web"},
	})
	require.NoError(t, err)
	stream.Drain()

	assert.Equal(t, int32(0), docs.calls.Load(), "hints exclude docs before classification")
	assert.Equal(t, int32(1), web.calls.Load())
}

func TestAskAllSourcesDegraded(t *testing.T) {
	a := &countingConnector{name: "docs", err: fmt.Errorf("connection refused")}
	b := &countingConnector{name: "web", err: fmt.Errorf("503")}

	e := newTestEngine("sources: all", "I don't know.", []ragroute.Connector{a, b})

	stream, err := e.Ask(context.Background(), Request{Query: "What is the capital of France?"})
	require.NoError(t, err)

	// Total retrieval failure still synthesizes, with empty context.
	answer, citations, errMsg := stream.Drain()
	assert.Equal(t, "I don't know.", answer)
	assert.Empty(t, citations)
	assert.Empty(t, errMsg)
}

func TestAskCancellation(t *testing.T) {
	synthLLM := &fixedLLM{answer: "a long streamed answer with many words", delay: 80 * time.Millisecond}
	e := New(synthLLM,
		WithClassifier(router.NewClassifier(&fixedLLM{answer: "sources: none"})),
		WithSynthesizer(synthesize.New(synthLLM)),
	)

	stream, err := e.Ask(context.Background(), Request{Query: "Hello"})
	require.NoError(t, err)

	first, ok := <-stream.Events
	require.True(t, ok)
	require.Equal(t, ragroute.EventDelta, first.Type)

	stream.Cancel()

	deadline := time.After(2 * time.Second)
	for {
		select {
		case ev, ok := <-stream.Events:
			if !ok {
				return
			}
			assert.NotEqual(t, ragroute.EventCitations, ev.Type, "no terminal event after cancellation")
		case <-deadline:
			t.Fatal("stream did not close after cancellation")
		}
	}
}

func TestAskRecordsHistory(t *testing.T) {
	store := history.NewMemoryStore()
	e := newTestEngine("sources: none", "Paris.", nil, WithHistoryStore(store))

	stream, err := e.Ask(context.Background(), Request{
		Query:     "What is the capital of France?",
		SessionID: "s1",
	})
	require.NoError(t, err)
	stream.Drain()

	msgs, err := store.Recent(context.Background(), "s1", 10)
	require.NoError(t, err)
	require.Len(t, msgs, 2)
	assert.Equal(t, ragroute.RoleUser, msgs[0].Role)
	assert.Equal(t, "What is the capital of France?", msgs[0].Content)
	assert.Equal(t, ragroute.RoleAssistant, msgs[1].Role)
	assert.Equal(t, "Paris.", msgs[1].Content)
}
