package rewrite

import (
	"context"
	"fmt"
	"strings"

	"github.com/tmc/langchaingo/llms"

	"github.com/smallnest/ragroute"
	"github.com/smallnest/ragroute/log"
)

// rewritePromptTemplate is filled with recent user questions and the raw
// query. The examples steer the model toward keyword-dense search text.
const rewritePromptTemplate = `You are a research assistant whose job it is to find useful facts and articles to help answer a user query in a search engine. Rewrite the following text to identify the search terms that are maximally informative when using Google or other keyword search. Remove user instructions regarding format and enrich with important keywords. Do not include any extraneous information. Expand all acronyms when possible. Focus on the topic of the search and do not include terms for summary, table, or other presentation formats.

Examples:
---------
Raw text: Make a table showing customer wins using gpus for bio
Transformed text: Examples of usage of graphics processing units (GPUs) in biology and bioinformatics for customer success

Raw text: Write an email to Walmart about how they benefit from DGX servers
Transformed text: Walmart usage of NVIDIA DGX servers

Raw text: What happened to the president of Iran?
Transformed text: Recent events involving the president of Iran

Raw text: What is the pricing for G5 XLarge aws instance in ohio
Transformed text: Pricing for NVIDIA G5 XLarge AWS instance in Ohio region

Raw text: Write a table in Markdown summarizing how customers are using bionemo. Use one row per customer and don't repeat any use cases.
Transformed text: Customer NVIDIA BioNemo use cases

Transformation
--------------
Previously, here are the questions which the user has asked:
%s

Now, take the raw text and make a single transformed version of it, taking into account previous queries if necessary. Do not include any extra commentary. Only return the transformed text without extra information.

Raw text: %s
Transformed text:`

// defaultHistoryTurns is how many previous user questions are shown to the
// rewrite model.
const defaultHistoryTurns = 6

// Rewriter rewrites queries for retrieval with one LLM call.
type Rewriter struct {
	model        llms.Model
	historyTurns int
	logger       log.Logger
}

// RewriterOption configures a Rewriter
type RewriterOption func(*Rewriter)

// WithHistoryTurns sets how many recent user questions are included in the
// rewrite prompt.
func WithHistoryTurns(n int) RewriterOption {
	return func(r *Rewriter) {
		if n >= 0 {
			r.historyTurns = n
		}
	}
}

// WithRewriterLogger sets the logger
func WithRewriterLogger(logger log.Logger) RewriterOption {
	return func(r *Rewriter) {
		r.logger = logger
	}
}

// NewRewriter creates a rewriter over the given model.
func NewRewriter(model llms.Model, opts ...RewriterOption) *Rewriter {
	r := &Rewriter{
		model:        model,
		historyTurns: defaultHistoryTurns,
		logger:       log.GetDefaultLogger(),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Rewrite returns a search-engine form of query, taking recent history into
// account. On any failure it returns query unchanged.
func (r *Rewriter) Rewrite(ctx context.Context, query string, history []ragroute.Message) string {
	prompt := fmt.Sprintf(rewritePromptTemplate, r.historyString(history), query)

	messages := []llms.MessageContent{
		llms.TextParts(llms.ChatMessageTypeHuman, prompt),
	}
	response, err := r.model.GenerateContent(ctx, messages)
	if err != nil {
		r.logger.Warn("query rewrite failed, using raw query: %v", err)
		return query
	}
	if len(response.Choices) == 0 {
		r.logger.Warn("query rewrite returned no choices, using raw query")
		return query
	}

	rewritten := strings.TrimSpace(response.Choices[0].Content)
	rewritten = strings.TrimPrefix(rewritten, "Transformed text:")
	rewritten = strings.Trim(strings.TrimSpace(rewritten), `"`)
	if rewritten == "" {
		return query
	}

	r.logger.Debug("rewrote query %q to %q", query, rewritten)
	return rewritten
}

// historyString renders the last historyTurns user questions, oldest first.
func (r *Rewriter) historyString(history []ragroute.Message) string {
	var questions []string
	for _, msg := range history {
		if msg.Role == ragroute.RoleUser && msg.Content != "" {
			questions = append(questions, msg.Content)
		}
	}
	if len(questions) > r.historyTurns {
		questions = questions[len(questions)-r.historyTurns:]
	}
	if len(questions) == 0 {
		return "(no previous questions)"
	}
	return strings.Join(questions, "\n")
}
