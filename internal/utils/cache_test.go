package utils

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNilCacheIsANoop(t *testing.T) {
	ctx := context.Background()
	var c *Cache
	assert.False(t, c.Enabled())
	assert.Empty(t, c.UserKey(ctx, 1, "finance"))

	var dest map[string]int
	found, err := c.Get(ctx, "k", &dest)
	require.NoError(t, err)
	assert.False(t, found)
	assert.NoError(t, c.Set(ctx, "k", 1))
	assert.NoError(t, c.Delete(ctx, "k"))
	assert.NoError(t, c.Invalidate(ctx, 1))

	assert.False(t, NewCache(nil, time.Minute).Enabled())
}

func TestUnreachableRedisDisablesUserKeys(t *testing.T) {
	rdb := redis.NewClient(&redis.Options{Addr: "127.0.0.1:1", DialTimeout: 50 * time.Millisecond, MaxRetries: -1})
	defer rdb.Close()
	c := NewCache(rdb, time.Minute)
	assert.True(t, c.Enabled())
	// an empty key short-circuits Get and Set
	assert.Empty(t, c.UserKey(context.Background(), 7, "operations"))
	found, err := c.Get(context.Background(), "", nil)
	assert.NoError(t, err)
	assert.False(t, found)
}

func newRedisCache(t *testing.T) (*Cache, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = rdb.Close() })
	return NewCache(rdb, time.Minute), mr
}

func TestCacheRoundTripAndTTL(t *testing.T) {
	c, mr := newRedisCache(t)
	ctx := context.Background()
	key := c.UserKey(ctx, 1, "finance:2024")
	require.Equal(t, "user:1:v0:finance:2024", key)

	var dest map[string]int
	found, err := c.Get(ctx, key, &dest)
	require.NoError(t, err)
	assert.False(t, found)

	require.NoError(t, c.Set(ctx, key, map[string]int{"revenue": 200}))
	found, err = c.Get(ctx, key, &dest)
	require.NoError(t, err)
	assert.True(t, found)
	assert.Equal(t, 200, dest["revenue"])

	mr.FastForward(2 * time.Minute)
	found, err = c.Get(ctx, key, &dest)
	require.NoError(t, err)
	assert.False(t, found)
}

func TestInvalidateOnlyMovesOneUsersNamespace(t *testing.T) {
	c, _ := newRedisCache(t)
	ctx := context.Background()
	adaKey := c.UserKey(ctx, 1, "operations")
	bobKey := c.UserKey(ctx, 2, "operations")
	require.NoError(t, c.Set(ctx, adaKey, 1))
	require.NoError(t, c.Set(ctx, bobKey, 2))

	require.NoError(t, c.Invalidate(ctx, 1))

	fresh := c.UserKey(ctx, 1, "operations")
	assert.Equal(t, "user:1:v1:operations", fresh)
	var v int
	found, err := c.Get(ctx, fresh, &v)
	require.NoError(t, err)
	assert.False(t, found)

	assert.Equal(t, bobKey, c.UserKey(ctx, 2, "operations"))
	found, err = c.Get(ctx, bobKey, &v)
	require.NoError(t, err)
	assert.True(t, found)
	assert.Equal(t, 2, v)
}
