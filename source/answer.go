package source

import (
	"context"
	"fmt"

	"github.com/tmc/langchaingo/llms"

	"github.com/smallnest/ragroute"
)

const answerSystemPrompt = "Be precise and concise."

// answerScore is the fixed confidence attached to model-generated context.
// The model does not report retrieval confidence, so a neutral midpoint
// lets the default citation threshold keep these results while a stricter
// threshold drops them.
const answerScore = 0.5

// AnswerConnector asks a chat model to answer the query directly and
// returns the answer as a single retrieval result. It stands in for
// search-backed answer APIs and for models with broad recall of public
// knowledge.
type AnswerConnector struct {
	name  string
	model llms.Model
	opts  []llms.CallOption
}

var _ ragroute.Connector = (*AnswerConnector)(nil)

// NewAnswerConnector creates a connector named name over model.
// Extra call options (temperature, max tokens) apply to every request.
func NewAnswerConnector(name string, model llms.Model, opts ...llms.CallOption) *AnswerConnector {
	if name == "" {
		name = "answer"
	}
	return &AnswerConnector{name: name, model: model, opts: opts}
}

// Name identifies this connector in routing decisions and citations
func (a *AnswerConnector) Name() string {
	return a.name
}

// Retrieve asks the model and wraps its answer as one scored result.
// topK is ignored; the model produces a single answer.
func (a *AnswerConnector) Retrieve(ctx context.Context, query string, topK int) ([]ragroute.RetrievalResult, error) {
	messages := []llms.MessageContent{
		llms.TextParts(llms.ChatMessageTypeSystem, answerSystemPrompt),
		llms.TextParts(llms.ChatMessageTypeHuman, query),
	}

	response, err := a.model.GenerateContent(ctx, messages, a.opts...)
	if err != nil {
		return nil, fmt.Errorf("answer generation failed: %w", err)
	}
	if len(response.Choices) == 0 || response.Choices[0].Content == "" {
		return nil, fmt.Errorf("answer model returned no content")
	}

	return []ragroute.RetrievalResult{
		{
			Content: response.Choices[0].Content,
			Source:  a.name,
			Score:   ragroute.Score(answerScore),
			Metadata: map[string]any{
				"generated": true,
			},
		},
	}, nil
}
