package cache

import (
	"context"
	"fmt"
	"time"

	"github.com/clinovia/contentvault/common/logger"
)

// TieredCache combines a distributed primary tier with a local fallback
// tier. Reads try primary then fallback; writes attempt both tiers and
// succeed if at least one tier accepts the entry. A failing tier degrades
// the cache, it never fails the caller's read path.
type TieredCache struct {
	primary  Cache
	fallback Cache
	log      *logger.Logger
}

// replicateTTL bounds how long entries copied into the fallback tier on
// a primary hit may live; the primary stays the source of truth for
// invalidation
const replicateTTL = 10 * time.Minute

// NewTieredCache creates a two-tier cache
func NewTieredCache(primary, fallback Cache, log *logger.Logger) *TieredCache {
	return &TieredCache{
		primary:  primary,
		fallback: fallback,
		log:      log,
	}
}

// Get reads through the tiers: primary first, then fallback.
// A primary hit is replicated into the fallback tier so a later primary
// outage still serves warm entries.
func (c *TieredCache) Get(ctx context.Context, key string) ([]byte, bool, error) {
	val, found, err := c.primary.Get(ctx, key)
	if err != nil {
		c.log.Warn("primary cache tier read failed, trying fallback", "key", key, "error", err)
	} else if found {
		if ferr := c.fallback.Set(ctx, key, val, replicateTTL); ferr != nil {
			c.log.Warn("fallback cache tier replication failed", "key", key, "error", ferr)
		}
		return val, true, nil
	}

	val, found, ferr := c.fallback.Get(ctx, key)
	if ferr != nil {
		c.log.Warn("fallback cache tier read failed", "key", key, "error", ferr)
		return nil, false, nil
	}
	return val, found, nil
}

// Set writes to both tiers and requires at least one success
func (c *TieredCache) Set(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	perr := c.primary.Set(ctx, key, value, ttl)
	if perr != nil {
		c.log.Warn("primary cache tier write failed", "key", key, "error", perr)
	}

	ferr := c.fallback.Set(ctx, key, value, ttl)
	if ferr != nil {
		c.log.Warn("fallback cache tier write failed", "key", key, "error", ferr)
	}

	if perr != nil && ferr != nil {
		return fmt.Errorf("all cache tiers rejected key %s: %w", key, perr)
	}
	return nil
}

// Delete removes the key from both tiers
func (c *TieredCache) Delete(ctx context.Context, key string) error {
	perr := c.primary.Delete(ctx, key)
	ferr := c.fallback.Delete(ctx, key)
	if perr != nil {
		return perr
	}
	return ferr
}

// Exists checks both tiers
func (c *TieredCache) Exists(ctx context.Context, key string) (bool, error) {
	found, err := c.primary.Exists(ctx, key)
	if err == nil && found {
		return true, nil
	}
	if err != nil {
		c.log.Warn("primary cache tier exists check failed", "key", key, "error", err)
	}
	return c.fallback.Exists(ctx, key)
}

// Close closes both tiers
func (c *TieredCache) Close() error {
	perr := c.primary.Close()
	ferr := c.fallback.Close()
	if perr != nil {
		return perr
	}
	return ferr
}
