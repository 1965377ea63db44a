package history

import (
	"context"
	"sync"

	"github.com/smallnest/ragroute"
)

// Store persists conversation history per session.
type Store interface {
	// Append adds messages to the end of the session's history.
	Append(ctx context.Context, sessionID string, msgs ...ragroute.Message) error
	// Recent returns the last n messages in chronological order. Fewer
	// messages are returned if the session is shorter; n <= 0 returns all.
	Recent(ctx context.Context, sessionID string, n int) ([]ragroute.Message, error)
	// Clear removes the session's history.
	Clear(ctx context.Context, sessionID string) error
}

// MemoryStore keeps history in process memory. Suitable for tests and
// single-instance deployments without persistence needs.
type MemoryStore struct {
	mu       sync.RWMutex
	sessions map[string][]ragroute.Message
}

var _ Store = (*MemoryStore)(nil)

// NewMemoryStore creates an empty MemoryStore.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{sessions: make(map[string][]ragroute.Message)}
}

// Append adds messages to the session
func (s *MemoryStore) Append(ctx context.Context, sessionID string, msgs ...ragroute.Message) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.sessions[sessionID] = append(s.sessions[sessionID], msgs...)
	return nil
}

// Recent returns the last n messages for the session
func (s *MemoryStore) Recent(ctx context.Context, sessionID string, n int) ([]ragroute.Message, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	msgs := s.sessions[sessionID]
	if n > 0 && len(msgs) > n {
		msgs = msgs[len(msgs)-n:]
	}
	out := make([]ragroute.Message, len(msgs))
	copy(out, msgs)
	return out, nil
}

// Clear removes the session
func (s *MemoryStore) Clear(ctx context.Context, sessionID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.sessions, sessionID)
	return nil
}
