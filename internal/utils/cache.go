package utils

import (
	"context"       // Context for Redis operations
	"encoding/json" // JSON encoding/decoding
	"fmt"           // Key formatting
	"time"          // Time durations

	"project_hub/internal/metrics" // Cache hit/miss counters

	"github.com/redis/go-redis/v9" // Redis client
)

// Cache is a read-through JSON cache over Redis. A nil client disables it.
//
// Keys are namespaced per user and per version; bumping a user's version
// makes every cached response of that user unreachable at once.
type Cache struct {
	rdb *redis.Client // Redis client, may be nil
	ttl time.Duration // Lifetime of entries
}

// NewCache wraps a Redis client
func NewCache(rdb *redis.Client, ttl time.Duration) *Cache {
	return &Cache{rdb: rdb, ttl: ttl}
}

// Enabled reports whether a Redis client is configured
func (c *Cache) Enabled() bool {
	return c != nil && c.rdb != nil
}

// Get retrieves a value from Redis and unmarshals it into dest
func (c *Cache) Get(ctx context.Context, key string, dest any) (bool, error) {
	if !c.Enabled() || key == "" {
		return false, nil // Cache disabled
	}
	val, err := c.rdb.Get(ctx, key).Result() // Get value from Redis
	if err == redis.Nil {
		metrics.RecordCacheLookup(false)
		return false, nil // Key does not exist
	} else if err != nil {
		return false, err // Other Redis error
	}
	metrics.RecordCacheLookup(true)
	return true, json.Unmarshal([]byte(val), dest) // Unmarshal JSON into dest
}

// Set stores a value in Redis with the cache TTL
func (c *Cache) Set(ctx context.Context, key string, value any) error {
	if !c.Enabled() || key == "" {
		return nil // Cache disabled
	}
	b, err := json.Marshal(value) // Marshal value to JSON
	if err != nil {
		return err // Return error if marshaling fails
	}
	return c.rdb.Set(ctx, key, b, c.ttl).Err() // Set value in Redis with TTL
}

// Delete removes a key from Redis
func (c *Cache) Delete(ctx context.Context, key string) error {
	if !c.Enabled() {
		return nil // Cache disabled
	}
	return c.rdb.Del(ctx, key).Err() // Delete key from Redis
}

func versionKey(userID uint) string {
	return fmt.Sprintf("cache:ver:user:%d", userID)
}

// UserKey builds a versioned key for one of a user's cached responses.
// It returns "" when the version cannot be read, which disables caching for the call.
func (c *Cache) UserKey(ctx context.Context, userID uint, name string) string {
	if !c.Enabled() {
		return ""
	}
	ver, err := c.rdb.Get(ctx, versionKey(userID)).Int64() // Current namespace version
	if err != nil && err != redis.Nil {
		return "" // Redis unavailable
	}
	return fmt.Sprintf("user:%d:v%d:%s", userID, ver, name)
}

// Invalidate bumps the user's namespace version
func (c *Cache) Invalidate(ctx context.Context, userID uint) error {
	if !c.Enabled() {
		return nil
	}
	return c.rdb.Incr(ctx, versionKey(userID)).Err()
}
