package plan

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestCache(t *testing.T) (*RedisPolicyCache, *miniredis.Miniredis) {
	t.Helper()

	mr, err := miniredis.Run()
	require.NoError(t, err)
	t.Cleanup(mr.Close)

	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = rdb.Close() })

	cache, err := NewRedisCache(rdb)
	require.NoError(t, err)
	return cache, mr
}

func TestRedisPolicyCache(t *testing.T) {
	ctx := context.Background()

	t.Run("miss returns nil without error", func(t *testing.T) {
		cache, _ := newTestCache(t)
		policy, err := cache.Get(ctx, "u1")
		require.NoError(t, err)
		assert.Nil(t, policy)
	})

	t.Run("round trip", func(t *testing.T) {
		cache, _ := newTestCache(t)
		want := QuotaPolicy{RequestsPerMinute: 120, RequestsPerDay: 50_000}

		require.NoError(t, cache.Set(ctx, "u1", want))
		got, err := cache.Get(ctx, "u1")
		require.NoError(t, err)
		require.NotNil(t, got)
		assert.Equal(t, want, *got)
	})

	t.Run("entries carry the staleness TTL", func(t *testing.T) {
		cache, mr := newTestCache(t)
		require.NoError(t, cache.Set(ctx, "u1", DefaultPolicy()))
		assert.Equal(t, CacheTTL, mr.TTL("plan:limits:u1"))
	})

	t.Run("entry expires into a miss", func(t *testing.T) {
		cache, mr := newTestCache(t)
		require.NoError(t, cache.Set(ctx, "u1", DefaultPolicy()))

		mr.FastForward(CacheTTL + time.Second)
		policy, err := cache.Get(ctx, "u1")
		require.NoError(t, err)
		assert.Nil(t, policy)
	})

	t.Run("corrupt entry reported as error", func(t *testing.T) {
		cache, mr := newTestCache(t)
		require.NoError(t, mr.Set("plan:limits:u1", "not-json"))

		_, err := cache.Get(ctx, "u1")
		assert.Error(t, err)
	})
}
