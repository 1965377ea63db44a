package router

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/smallnest/ragroute"
)

func TestMemoryCache(t *testing.T) {
	ctx := context.Background()
	cache := NewMemoryCache(0)

	_, ok := cache.Get(ctx, "query")
	assert.False(t, ok)

	want := ragroute.Decision{Kind: ragroute.DecisionSingle, Sources: []string{"docs"}}
	cache.Set(ctx, "query", want)

	got, ok := cache.Get(ctx, "query")
	assert.True(t, ok)
	assert.Equal(t, want, got)
}

func TestMemoryCacheTTL(t *testing.T) {
	ctx := context.Background()
	cache := NewMemoryCache(10 * time.Millisecond)

	cache.Set(ctx, "query", ragroute.Decision{Kind: ragroute.DecisionNoRetrieval})

	_, ok := cache.Get(ctx, "query")
	assert.True(t, ok)

	time.Sleep(20 * time.Millisecond)

	_, ok = cache.Get(ctx, "query")
	assert.False(t, ok)
}

func TestRedisCache(t *testing.T) {
	// Start miniredis
	mr, err := miniredis.Run()
	require.NoError(t, err)
	defer mr.Close()

	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	defer client.Close()

	ctx := context.Background()
	cache := NewRedisCache(client, RedisCacheOptions{})

	_, ok := cache.Get(ctx, "query")
	assert.False(t, ok)

	want := ragroute.Decision{Kind: ragroute.DecisionMulti, Sources: []string{"docs", "web"}}
	cache.Set(ctx, "query", want)

	got, ok := cache.Get(ctx, "query")
	assert.True(t, ok)
	assert.Equal(t, want, got)

	// Keys are hashed under the prefix, never the raw query text.
	keys := mr.Keys()
	require.Len(t, keys, 1)
	assert.Contains(t, keys[0], "ragroute:routing:")
	assert.NotContains(t, keys[0], "query")

	// Entries expire after the TTL.
	mr.FastForward(2 * time.Hour)
	_, ok = cache.Get(ctx, "query")
	assert.False(t, ok)
}
