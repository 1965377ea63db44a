package ragroute

import "context"

// EventType distinguishes the kinds of events on an answer stream.
type EventType string

const (
	// EventDelta carries the next chunk of answer text.
	EventDelta EventType = "delta"
	// EventCitations is the terminal event of a successful stream and
	// carries the filtered citation set.
	EventCitations EventType = "citations"
	// EventError is the terminal event of a failed stream. Text already
	// streamed before the failure is preserved, not retracted.
	EventError EventType = "error"
)

// Event is one element of a streamed answer. The stream is an append-only
// sequence of EventDelta events terminated by exactly one EventCitations or
// EventError event.
type Event struct {
	Type      EventType  `json:"type"`
	Delta     string     `json:"delta,omitempty"`
	Citations []Citation `json:"citations,omitempty"`
	// Message is a human-readable description for EventError. Internal
	// error text is never placed here.
	Message string `json:"message,omitempty"`
}

// Stream is a cancellable streamed answer. The caller consumes Events until
// the channel closes; calling Cancel (or cancelling the request context)
// stops production and propagates to all outstanding source and LLM calls.
type Stream struct {
	Events <-chan Event
	Cancel context.CancelFunc
}

// Drain consumes the stream to completion and returns the concatenated
// answer text, the terminal citations, and the terminal error message (empty
// on success). Mostly useful in tests and non-interactive callers.
func (s *Stream) Drain() (answer string, citations []Citation, errMsg string) {
	for ev := range s.Events {
		switch ev.Type {
		case EventDelta:
			answer += ev.Delta
		case EventCitations:
			citations = ev.Citations
		case EventError:
			errMsg = ev.Message
		}
	}
	return answer, citations, errMsg
}
