package cache

import (
	"context"
	"time"

	rediscommon "github.com/clinovia/contentvault/common/redis"
)

// RedisCache is the distributed primary tier, shared across instances
type RedisCache struct {
	client *rediscommon.Client
}

// NewRedisCache creates a Redis-backed cache tier
func NewRedisCache(client *rediscommon.Client) *RedisCache {
	return &RedisCache{client: client}
}

// Get retrieves a value, mapping an absent key to a plain miss
func (c *RedisCache) Get(ctx context.Context, key string) ([]byte, bool, error) {
	val, err := c.client.GetBytes(ctx, key)
	if err == rediscommon.ErrKeyNotFound {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, err
	}
	return val, true, nil
}

// Set stores a value with TTL
func (c *RedisCache) Set(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	return c.client.SetWithExpiry(ctx, key, value, ttl)
}

// Delete removes a value from cache
func (c *RedisCache) Delete(ctx context.Context, key string) error {
	return c.client.Delete(ctx, key)
}

// Exists checks whether the key is present
func (c *RedisCache) Exists(ctx context.Context, key string) (bool, error) {
	return c.client.Exists(ctx, key)
}

// Close is a no-op; the underlying client is owned by the container
func (c *RedisCache) Close() error {
	return nil
}
