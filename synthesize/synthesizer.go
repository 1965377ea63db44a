package synthesize

import (
	"context"

	"github.com/tmc/langchaingo/llms"

	"github.com/smallnest/ragroute"
	"github.com/smallnest/ragroute/log"
	"github.com/smallnest/ragroute/tokens"
)

const (
	defaultContextWindow = 128000
	defaultMaxGenerated  = 1024
	defaultHistoryTurns  = 6
)

// errorMessage is the only text surfaced to callers on synthesis failure.
// Upstream error details go to the log, not the user.
const errorMessage = "Answer generation failed. Please try again."

// Synthesizer generates streamed answers from merged retrieval context.
type Synthesizer struct {
	model         llms.Model
	counter       tokens.Counter
	contextWindow int
	maxGenerated  int
	historyTurns  int
	callOpts      []llms.CallOption
	logger        log.Logger
}

// Option configures a Synthesizer
type Option func(*Synthesizer)

// WithContextWindow sets the model context window in tokens.
func WithContextWindow(n int) Option {
	return func(s *Synthesizer) {
		if n > 0 {
			s.contextWindow = n
		}
	}
}

// WithMaxGenerated reserves tokens for the generated answer when packing
// context chunks.
func WithMaxGenerated(n int) Option {
	return func(s *Synthesizer) {
		if n > 0 {
			s.maxGenerated = n
		}
	}
}

// WithHistoryTurns sets how many recent messages appear in the prompt.
func WithHistoryTurns(n int) Option {
	return func(s *Synthesizer) {
		if n >= 0 {
			s.historyTurns = n
		}
	}
}

// WithCounter sets the token counter used for context packing.
func WithCounter(counter tokens.Counter) Option {
	return func(s *Synthesizer) {
		if counter != nil {
			s.counter = counter
		}
	}
}

// WithCallOptions adds call options (temperature, max tokens) to every
// generation request.
func WithCallOptions(opts ...llms.CallOption) Option {
	return func(s *Synthesizer) {
		s.callOpts = append(s.callOpts, opts...)
	}
}

// WithLogger sets the logger
func WithLogger(logger log.Logger) Option {
	return func(s *Synthesizer) {
		s.logger = logger
	}
}

// New creates a Synthesizer over model.
func New(model llms.Model, opts ...Option) *Synthesizer {
	s := &Synthesizer{
		model:         model,
		counter:       tokens.NewCounter(),
		contextWindow: defaultContextWindow,
		maxGenerated:  defaultMaxGenerated,
		historyTurns:  defaultHistoryTurns,
		logger:        log.GetDefaultLogger(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Synthesize streams an answer for query grounded in merged. Delta events
// carry text as the model emits it; a successful stream ends with a
// citations event carrying every merged result, an unsuccessful one with an
// error event. The channel closes after the terminal event. Cancelling ctx
// stops generation; no events are sent after that. An empty merged context
// is allowed and produces a purely conversational answer.
func (s *Synthesizer) Synthesize(ctx context.Context, query string, history []ragroute.Message, merged ragroute.MergedContext) <-chan ragroute.Event {
	events := make(chan ragroute.Event, 100)

	prompt := s.buildPrompt(query, history, merged)

	go func() {
		defer close(events)

		streamingFunc := func(ctx context.Context, chunk []byte) error {
			if len(chunk) == 0 {
				return nil
			}
			select {
			case <-ctx.Done():
				return ctx.Err()
			case events <- ragroute.Event{Type: ragroute.EventDelta, Delta: string(chunk)}:
				return nil
			}
		}

		messages := []llms.MessageContent{
			llms.TextParts(llms.ChatMessageTypeHuman, prompt),
		}
		callOpts := append([]llms.CallOption{llms.WithStreamingFunc(streamingFunc)}, s.callOpts...)

		_, err := s.model.GenerateContent(ctx, messages, callOpts...)
		if err != nil {
			if ctx.Err() != nil {
				// Cancelled by the caller, no terminal event.
				return
			}
			s.logger.Error("synthesis failed: %v", err)
			select {
			case <-ctx.Done():
			case events <- ragroute.Event{Type: ragroute.EventError, Message: errorMessage}:
			}
			return
		}

		select {
		case <-ctx.Done():
		case events <- ragroute.Event{Type: ragroute.EventCitations, Citations: merged.Citations()}:
		}
	}()

	return events
}
