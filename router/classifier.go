package router

import (
	"context"
	"fmt"
	"strings"

	"github.com/tmc/langchaingo/llms"

	"github.com/smallnest/ragroute"
	"github.com/smallnest/ragroute/log"
)

// Classifier routes queries to retrieval sources with one LLM call.
type Classifier struct {
	model        llms.Model
	descriptions map[string]string
	examples     []RoutingExample
	cache        Cache
	logger       log.Logger
}

// ClassifierOption configures a Classifier
type ClassifierOption func(*Classifier)

// WithSourceDescription attaches a human-readable description to a source
// name. Descriptions appear in the source catalog the routing model sees;
// sources without one are listed by name only.
func WithSourceDescription(name, description string) ClassifierOption {
	return func(c *Classifier) {
		c.descriptions[name] = description
	}
}

// WithExamples replaces the built-in few-shot examples.
func WithExamples(examples []RoutingExample) ClassifierOption {
	return func(c *Classifier) {
		if len(examples) > 0 {
			c.examples = examples
		}
	}
}

// WithCache enables decision caching keyed by the exact query text.
func WithCache(cache Cache) ClassifierOption {
	return func(c *Classifier) {
		c.cache = cache
	}
}

// WithClassifierLogger sets the logger
func WithClassifierLogger(logger log.Logger) ClassifierOption {
	return func(c *Classifier) {
		c.logger = logger
	}
}

// NewClassifier creates a classifier over the given routing model. A small,
// fast model is enough; the prompt constrains the output to a single line.
func NewClassifier(model llms.Model, opts ...ClassifierOption) *Classifier {
	c := &Classifier{
		model:        model,
		descriptions: make(map[string]string),
		examples:     defaultExamples,
		logger:       log.GetDefaultLogger(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Classify decides whether query needs retrieval and from which of sources.
// It never returns an error: a malformed model answer is reissued once, and
// if the second answer is also malformed the classifier routes to all
// sources. An empty source list always yields DecisionNoRetrieval.
func (c *Classifier) Classify(ctx context.Context, query string, sources []string) ragroute.Decision {
	if len(sources) == 0 {
		return ragroute.Decision{Kind: ragroute.DecisionNoRetrieval}
	}

	if c.cache != nil {
		if d, ok := c.cache.Get(ctx, query); ok {
			c.logger.Debug("routing cache hit for query %q", query)
			return d
		}
	}

	prompt := c.buildPrompt(query, sources)
	failOpen := ragroute.Decision{Kind: ragroute.DecisionMulti, Sources: append([]string(nil), sources...)}

	var decision ragroute.Decision
	decided := false
	for attempt := 0; attempt < 2; attempt++ {
		answer, err := c.complete(ctx, prompt)
		if err != nil {
			c.logger.Warn("routing call failed (attempt %d): %v", attempt+1, err)
			continue
		}
		d, err := parseDecision(answer, sources)
		if err != nil {
			c.logger.Warn("malformed routing answer (attempt %d): %v", attempt+1, err)
			continue
		}
		decision = d
		decided = true
		break
	}
	if !decided {
		c.logger.Warn("routing failed for query %q, falling back to all sources", query)
		decision = failOpen
	}

	if c.cache != nil && decided {
		c.cache.Set(ctx, query, decision)
	}
	return decision
}

func (c *Classifier) buildPrompt(query string, sources []string) string {
	var catalog strings.Builder
	for _, name := range sources {
		if desc, ok := c.descriptions[name]; ok {
			fmt.Fprintf(&catalog, "- %s: %s\n", name, desc)
		} else {
			fmt.Fprintf(&catalog, "- %s\n", name)
		}
	}

	var examples strings.Builder
	for _, ex := range c.examples {
		fmt.Fprintf(&examples, "    User: %s\n    sources: %s\n\n", ex.Query, ex.Answer)
	}

	return fmt.Sprintf(routingPromptTemplate, catalog.String(), examples.String(), query)
}

func (c *Classifier) complete(ctx context.Context, prompt string) (string, error) {
	messages := []llms.MessageContent{
		llms.TextParts(llms.ChatMessageTypeHuman, prompt),
	}
	response, err := c.model.GenerateContent(ctx, messages)
	if err != nil {
		return "", err
	}
	if len(response.Choices) == 0 {
		return "", fmt.Errorf("routing model returned no choices")
	}
	return response.Choices[0].Content, nil
}

// parseDecision interprets the model answer against the valid source names.
// It tolerates a leading "sources:" prefix and surrounding whitespace, and
// also accepts the bare booleans true/false for models that ignore the
// requested format.
func parseDecision(answer string, sources []string) (ragroute.Decision, error) {
	line := strings.TrimSpace(answer)
	if i := strings.IndexByte(line, '\n'); i >= 0 {
		line = strings.TrimSpace(line[:i])
	}
	line = strings.ToLower(line)
	line = strings.TrimPrefix(line, "sources:")
	line = strings.Trim(line, " .\"'")

	switch line {
	case "":
		return ragroute.Decision{}, fmt.Errorf("empty routing answer")
	case "none", "false":
		return ragroute.Decision{Kind: ragroute.DecisionNoRetrieval}, nil
	case "all", "true":
		return ragroute.Decision{
			Kind:    ragroute.DecisionMulti,
			Sources: append([]string(nil), sources...),
		}, nil
	}

	valid := make(map[string]string, len(sources))
	for _, s := range sources {
		valid[strings.ToLower(s)] = s
	}

	var picked []string
	seen := make(map[string]bool)
	for _, part := range strings.Split(line, ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		name, ok := valid[part]
		if !ok {
			return ragroute.Decision{}, fmt.Errorf("unknown source %q in routing answer", part)
		}
		if !seen[name] {
			seen[name] = true
			picked = append(picked, name)
		}
	}
	if len(picked) == 0 {
		return ragroute.Decision{}, fmt.Errorf("no sources in routing answer %q", answer)
	}
	if len(picked) == 1 {
		return ragroute.Decision{Kind: ragroute.DecisionSingle, Sources: picked}, nil
	}
	return ragroute.Decision{Kind: ragroute.DecisionMulti, Sources: picked}, nil
}
