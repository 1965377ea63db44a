package engine

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/tmc/langchaingo/llms"

	"github.com/smallnest/ragroute"
	"github.com/smallnest/ragroute/history"
	"github.com/smallnest/ragroute/log"
	"github.com/smallnest/ragroute/retrieval"
	"github.com/smallnest/ragroute/rewrite"
	"github.com/smallnest/ragroute/router"
	"github.com/smallnest/ragroute/synthesize"
)

// Engine runs the routed retrieval pipeline end to end.
type Engine struct {
	connectors   []ragroute.Connector
	classifier   *router.Classifier
	rewriter     *rewrite.Rewriter
	orchestrator *retrieval.Orchestrator
	synthesizer  *synthesize.Synthesizer
	histories    history.Store
	historyTurns int
	threshold    float64
	logger       log.Logger
}

// Option configures an Engine
type Option func(*Engine)

// WithConnectors registers the retrieval sources. Registration order is
// merge priority.
func WithConnectors(connectors ...ragroute.Connector) Option {
	return func(e *Engine) {
		e.connectors = append(e.connectors, connectors...)
	}
}

// WithClassifier replaces the default classifier, for example to use a
// smaller routing model or a decision cache.
func WithClassifier(c *router.Classifier) Option {
	return func(e *Engine) {
		e.classifier = c
	}
}

// WithRewriter replaces the default query rewriter.
func WithRewriter(r *rewrite.Rewriter) Option {
	return func(e *Engine) {
		e.rewriter = r
	}
}

// WithOrchestrator replaces the default retrieval orchestrator.
func WithOrchestrator(o *retrieval.Orchestrator) Option {
	return func(e *Engine) {
		e.orchestrator = o
	}
}

// WithSynthesizer replaces the default answer synthesizer.
func WithSynthesizer(s *synthesize.Synthesizer) Option {
	return func(e *Engine) {
		e.synthesizer = s
	}
}

// WithHistoryStore enables conversation persistence. Requests carrying a
// session id load recent history from the store and record the new turn
// after a successful answer.
func WithHistoryStore(store history.Store) Option {
	return func(e *Engine) {
		e.histories = store
	}
}

// WithHistoryTurns sets how many stored messages are loaded per request.
func WithHistoryTurns(n int) Option {
	return func(e *Engine) {
		if n > 0 {
			e.historyTurns = n
		}
	}
}

// WithThreshold sets the default citation confidence threshold, used when a
// request does not carry its own.
func WithThreshold(t float64) Option {
	return func(e *Engine) {
		e.threshold = t
	}
}

// WithLogger sets the logger
func WithLogger(logger log.Logger) Option {
	return func(e *Engine) {
		e.logger = logger
	}
}

// New creates an Engine. model is used for classification, rewriting and
// synthesis unless dedicated components are supplied via options.
func New(model llms.Model, opts ...Option) *Engine {
	e := &Engine{
		historyTurns: 6,
		logger:       log.GetDefaultLogger(),
	}
	for _, opt := range opts {
		opt(e)
	}
	if e.classifier == nil {
		e.classifier = router.NewClassifier(model)
	}
	if e.rewriter == nil {
		e.rewriter = rewrite.NewRewriter(model)
	}
	if e.orchestrator == nil {
		e.orchestrator = retrieval.New()
	}
	if e.synthesizer == nil {
		e.synthesizer = synthesize.New(model)
	}
	return e
}

// Request is one question to answer.
type Request struct {
	// Query is the user's question. Required.
	Query string
	// SessionID selects a stored conversation. Optional; requires a
	// history store on the engine.
	SessionID string
	// History overrides stored history for this request.
	History []ragroute.Message
	// SourceHints restricts routing to the named connectors. Empty means
	// all registered connectors are candidates.
	SourceHints []string
	// Threshold overrides the engine's citation confidence threshold.
	Threshold *float64
}

// Ask answers a query, streaming the result. The returned stream yields
// delta events followed by one terminal citations or error event; its
// Cancel function (or cancelling ctx) aborts outstanding retrieval and
// generation.
func (e *Engine) Ask(ctx context.Context, req Request) (*ragroute.Stream, error) {
	if req.Query == "" {
		return nil, fmt.Errorf("query must not be empty")
	}

	requestID := uuid.NewString()
	ctx, cancel := context.WithCancel(ctx)
	out := make(chan ragroute.Event, 100)

	e.logger.Info("[%s] received query %q", requestID, req.Query)

	hist := req.History
	if hist == nil && req.SessionID != "" && e.histories != nil {
		stored, err := e.histories.Recent(ctx, req.SessionID, e.historyTurns)
		if err != nil {
			e.logger.Warn("[%s] failed to load history for session %s: %v", requestID, req.SessionID, err)
		} else {
			hist = stored
		}
	}

	threshold := e.threshold
	if req.Threshold != nil {
		threshold = *req.Threshold
	}

	go func() {
		defer close(out)
		e.run(ctx, requestID, req, hist, threshold, out)
	}()

	return &ragroute.Stream{Events: out, Cancel: cancel}, nil
}

func (e *Engine) run(ctx context.Context, requestID string, req Request, hist []ragroute.Message, threshold float64, out chan<- ragroute.Event) {
	candidates := e.selectConnectors(req.SourceHints)

	decision := e.classifier.Classify(ctx, req.Query, connectorNames(candidates))
	e.logger.Info("[%s] classified as %s (sources: %v)", requestID, decision.Kind, decision.Sources)

	var merged ragroute.MergedContext
	if decision.NeedsRetrieval() {
		searchQuery := e.rewriter.Rewrite(ctx, req.Query, hist)
		if searchQuery != req.Query {
			e.logger.Info("[%s] rewritten to %q", requestID, searchQuery)
		}

		selected := filterConnectors(candidates, decision.Sources)
		e.logger.Info("[%s] retrieving from %d sources", requestID, len(selected))
		merged = e.orchestrator.Retrieve(ctx, searchQuery, selected)
		if len(merged.Degraded) > 0 {
			e.logger.Warn("[%s] degraded sources: %v", requestID, merged.Degraded)
		}
		e.logger.Info("[%s] merged context has %d results", requestID, len(merged.Results))
	}

	e.logger.Info("[%s] synthesizing", requestID)
	var answer string
	for ev := range e.synthesizer.Synthesize(ctx, req.Query, hist, merged) {
		switch ev.Type {
		case ragroute.EventDelta:
			answer += ev.Delta
		case ragroute.EventCitations:
			ev.Citations = ragroute.FilterCitations(ev.Citations, threshold)
			e.recordTurn(ctx, requestID, req, answer)
			e.logger.Info("[%s] done, %d citations after filtering", requestID, len(ev.Citations))
		case ragroute.EventError:
			e.logger.Warn("[%s] failed during synthesis", requestID)
		}

		select {
		case <-ctx.Done():
			return
		case out <- ev:
		}
	}
}

// recordTurn appends the completed exchange to the session history.
func (e *Engine) recordTurn(ctx context.Context, requestID string, req Request, answer string) {
	if e.histories == nil || req.SessionID == "" || answer == "" {
		return
	}
	err := e.histories.Append(ctx, req.SessionID,
		ragroute.Message{Role: ragroute.RoleUser, Content: req.Query},
		ragroute.Message{Role: ragroute.RoleAssistant, Content: answer},
	)
	if err != nil {
		e.logger.Warn("[%s] failed to record history: %v", requestID, err)
	}
}

// selectConnectors applies the request's source hints to the registered
// connectors. Unknown hints are ignored.
func (e *Engine) selectConnectors(hints []string) []ragroute.Connector {
	if len(hints) == 0 {
		return e.connectors
	}
	allowed := make(map[string]bool, len(hints))
	for _, h := range hints {
		allowed[h] = true
	}
	var out []ragroute.Connector
	for _, c := range e.connectors {
		if allowed[c.Name()] {
			out = append(out, c)
		}
	}
	return out
}

func connectorNames(connectors []ragroute.Connector) []string {
	names := make([]string, len(connectors))
	for i, c := range connectors {
		names[i] = c.Name()
	}
	return names
}

// filterConnectors keeps the connectors named by the routing decision, in
// registration order.
func filterConnectors(connectors []ragroute.Connector, names []string) []ragroute.Connector {
	wanted := make(map[string]bool, len(names))
	for _, n := range names {
		wanted[n] = true
	}
	var out []ragroute.Connector
	for _, c := range connectors {
		if wanted[c.Name()] {
			out = append(out, c)
		}
	}
	return out
}
