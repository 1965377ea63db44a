package retrieval

import (
	"context"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/smallnest/ragroute"
	"github.com/smallnest/ragroute/log"
	"github.com/smallnest/ragroute/tokens"
)

const (
	defaultSourceTimeout  = 20 * time.Second
	defaultOverallTimeout = 45 * time.Second
	defaultConcurrency    = 4
	defaultMaxItems       = 20
)

// Orchestrator coordinates concurrent retrieval across source connectors.
type Orchestrator struct {
	sourceTimeout  time.Duration
	overallTimeout time.Duration
	concurrency    int
	topK           int
	maxItems       int
	tokenBudget    int
	counter        tokens.Counter
	logger         log.Logger
}

// Option configures an Orchestrator
type Option func(*Orchestrator)

// WithSourceTimeout bounds each individual connector call.
func WithSourceTimeout(d time.Duration) Option {
	return func(o *Orchestrator) {
		if d > 0 {
			o.sourceTimeout = d
		}
	}
}

// WithOverallTimeout bounds the whole fan-out. It should be coarser than the
// per-source timeout; when it fires, every still-running source is degraded.
func WithOverallTimeout(d time.Duration) Option {
	return func(o *Orchestrator) {
		if d > 0 {
			o.overallTimeout = d
		}
	}
}

// WithConcurrency caps how many connectors run at once. Zero or negative
// means no cap.
func WithConcurrency(n int) Option {
	return func(o *Orchestrator) {
		o.concurrency = n
	}
}

// WithTopK sets the per-source result count passed to each connector.
// Zero lets each connector use its own default.
func WithTopK(k int) Option {
	return func(o *Orchestrator) {
		if k >= 0 {
			o.topK = k
		}
	}
}

// WithMaxItems caps the merged context size in items.
func WithMaxItems(n int) Option {
	return func(o *Orchestrator) {
		if n > 0 {
			o.maxItems = n
		}
	}
}

// WithTokenBudget caps the merged context size in tokens, counted with
// counter. Items past the budget are dropped whole. Zero disables the cap.
func WithTokenBudget(budget int, counter tokens.Counter) Option {
	return func(o *Orchestrator) {
		o.tokenBudget = budget
		o.counter = counter
	}
}

// WithLogger sets the logger
func WithLogger(logger log.Logger) Option {
	return func(o *Orchestrator) {
		o.logger = logger
	}
}

// New creates an Orchestrator with 20s per-source and 45s overall timeouts,
// four concurrent sources and a 20 item merge cap.
func New(opts ...Option) *Orchestrator {
	o := &Orchestrator{
		sourceTimeout:  defaultSourceTimeout,
		overallTimeout: defaultOverallTimeout,
		concurrency:    defaultConcurrency,
		maxItems:       defaultMaxItems,
		logger:         log.GetDefaultLogger(),
	}
	for _, opt := range opts {
		opt(o)
	}
	if o.tokenBudget > 0 && o.counter == nil {
		o.counter = tokens.NewCounter()
	}
	return o
}

// Retrieve fans query out to connectors and returns the merged context. It
// waits for every connector, never returns an error and never outlives the
// overall timeout. Failed or timed-out connectors are listed in Degraded.
func (o *Orchestrator) Retrieve(ctx context.Context, query string, connectors []ragroute.Connector) ragroute.MergedContext {
	if len(connectors) == 0 {
		return ragroute.MergedContext{}
	}

	ctx, cancel := context.WithTimeout(ctx, o.overallTimeout)
	defer cancel()

	perSource := make([][]ragroute.RetrievalResult, len(connectors))
	failed := make([]bool, len(connectors))

	g, gctx := errgroup.WithContext(ctx)
	if o.concurrency > 0 {
		g.SetLimit(o.concurrency)
	}

	for i, conn := range connectors {
		g.Go(func() error {
			start := time.Now()
			srcCtx, srcCancel := context.WithTimeout(gctx, o.sourceTimeout)
			defer srcCancel()

			results, err := conn.Retrieve(srcCtx, query, o.topK)
			if err != nil {
				o.logger.Warn("source %s failed after %v: %v", conn.Name(), time.Since(start), err)
				failed[i] = true
				// Collect from the remaining sources anyway.
				return nil
			}
			o.logger.Debug("source %s returned %d results in %v", conn.Name(), len(results), time.Since(start))
			perSource[i] = results
			return nil
		})
	}
	g.Wait()

	var all []ragroute.RetrievalResult
	var degraded []string
	for i, conn := range connectors {
		if failed[i] {
			degraded = append(degraded, conn.Name())
			continue
		}
		all = append(all, perSource[i]...)
	}

	merged := o.merge(all)
	merged.Degraded = degraded
	return merged
}
