package history

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/smallnest/ragroute"
)

// RedisStore keeps each session's history in a Redis list so multiple
// server instances share conversations.
type RedisStore struct {
	client redis.UniversalClient
	prefix string
	ttl    time.Duration
	maxLen int64
}

var _ Store = (*RedisStore)(nil)

// RedisOptions configuration for the Redis history store
type RedisOptions struct {
	Prefix string        // Key prefix, default "ragroute:history:"
	TTL    time.Duration // Session expiration, default 0 (no expiration)
	MaxLen int64         // Cap on stored messages per session, default 200
}

// NewRedisStore creates a RedisStore over an existing client.
func NewRedisStore(client redis.UniversalClient, opts RedisOptions) *RedisStore {
	prefix := opts.Prefix
	if prefix == "" {
		prefix = "ragroute:history:"
	}
	maxLen := opts.MaxLen
	if maxLen == 0 {
		maxLen = 200
	}
	return &RedisStore{
		client: client,
		prefix: prefix,
		ttl:    opts.TTL,
		maxLen: maxLen,
	}
}

func (s *RedisStore) key(sessionID string) string {
	return s.prefix + sessionID
}

// Append adds messages to the session
func (s *RedisStore) Append(ctx context.Context, sessionID string, msgs ...ragroute.Message) error {
	if len(msgs) == 0 {
		return nil
	}

	values := make([]any, 0, len(msgs))
	for _, msg := range msgs {
		data, err := json.Marshal(msg)
		if err != nil {
			return fmt.Errorf("failed to marshal message: %w", err)
		}
		values = append(values, data)
	}

	key := s.key(sessionID)
	pipe := s.client.Pipeline()
	pipe.RPush(ctx, key, values...)
	pipe.LTrim(ctx, key, -s.maxLen, -1)
	if s.ttl > 0 {
		pipe.Expire(ctx, key, s.ttl)
	}
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("failed to append history to redis: %w", err)
	}
	return nil
}

// Recent returns the last n messages for the session
func (s *RedisStore) Recent(ctx context.Context, sessionID string, n int) ([]ragroute.Message, error) {
	start := int64(0)
	if n > 0 {
		start = int64(-n)
	}

	data, err := s.client.LRange(ctx, s.key(sessionID), start, -1).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to load history from redis: %w", err)
	}

	msgs := make([]ragroute.Message, 0, len(data))
	for _, item := range data {
		var msg ragroute.Message
		if err := json.Unmarshal([]byte(item), &msg); err != nil {
			return nil, fmt.Errorf("failed to unmarshal message: %w", err)
		}
		msgs = append(msgs, msg)
	}
	return msgs, nil
}

// Clear removes the session
func (s *RedisStore) Clear(ctx context.Context, sessionID string) error {
	if err := s.client.Del(ctx, s.key(sessionID)).Err(); err != nil {
		return fmt.Errorf("failed to clear history: %w", err)
	}
	return nil
}
