package router

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/smallnest/ragroute"
)

// Cache stores routing decisions keyed by query text. Implementations are
// best-effort: a failed Get is a miss and a failed Set is dropped, the
// classifier falls back to the LLM either way.
type Cache interface {
	Get(ctx context.Context, query string) (ragroute.Decision, bool)
	Set(ctx context.Context, query string, decision ragroute.Decision)
}

type memoryEntry struct {
	decision  ragroute.Decision
	expiresAt time.Time
}

// MemoryCache is an in-process decision cache with a fixed TTL.
type MemoryCache struct {
	mu      sync.RWMutex
	entries map[string]memoryEntry
	ttl     time.Duration
}

var _ Cache = (*MemoryCache)(nil)

// NewMemoryCache creates a MemoryCache. A ttl of zero means entries never
// expire.
func NewMemoryCache(ttl time.Duration) *MemoryCache {
	return &MemoryCache{
		entries: make(map[string]memoryEntry),
		ttl:     ttl,
	}
}

// Get returns the cached decision for query, if any
func (c *MemoryCache) Get(ctx context.Context, query string) (ragroute.Decision, bool) {
	c.mu.RLock()
	entry, ok := c.entries[query]
	c.mu.RUnlock()

	if !ok {
		return ragroute.Decision{}, false
	}
	if !entry.expiresAt.IsZero() && time.Now().After(entry.expiresAt) {
		c.mu.Lock()
		delete(c.entries, query)
		c.mu.Unlock()
		return ragroute.Decision{}, false
	}
	return entry.decision, true
}

// Set stores a decision for query
func (c *MemoryCache) Set(ctx context.Context, query string, decision ragroute.Decision) {
	entry := memoryEntry{decision: decision}
	if c.ttl > 0 {
		entry.expiresAt = time.Now().Add(c.ttl)
	}
	c.mu.Lock()
	c.entries[query] = entry
	c.mu.Unlock()
}

// RedisCache stores decisions in Redis so multiple instances share routing
// work for repeated queries.
type RedisCache struct {
	client redis.UniversalClient
	prefix string
	ttl    time.Duration
}

var _ Cache = (*RedisCache)(nil)

// RedisCacheOptions configuration for the Redis decision cache
type RedisCacheOptions struct {
	Prefix string        // Key prefix, default "ragroute:routing:"
	TTL    time.Duration // Expiration for entries, default 1h
}

// NewRedisCache creates a RedisCache over an existing client.
func NewRedisCache(client redis.UniversalClient, opts RedisCacheOptions) *RedisCache {
	prefix := opts.Prefix
	if prefix == "" {
		prefix = "ragroute:routing:"
	}
	ttl := opts.TTL
	if ttl == 0 {
		ttl = time.Hour
	}
	return &RedisCache{client: client, prefix: prefix, ttl: ttl}
}

func (c *RedisCache) key(query string) string {
	sum := sha256.Sum256([]byte(query))
	return c.prefix + hex.EncodeToString(sum[:])
}

// Get returns the cached decision for query, if any
func (c *RedisCache) Get(ctx context.Context, query string) (ragroute.Decision, bool) {
	data, err := c.client.Get(ctx, c.key(query)).Bytes()
	if err != nil {
		return ragroute.Decision{}, false
	}
	var decision ragroute.Decision
	if err := json.Unmarshal(data, &decision); err != nil {
		return ragroute.Decision{}, false
	}
	return decision, true
}

// Set stores a decision for query
func (c *RedisCache) Set(ctx context.Context, query string, decision ragroute.Decision) {
	data, err := json.Marshal(decision)
	if err != nil {
		return
	}
	c.client.Set(ctx, c.key(query), data, c.ttl)
}
