package cache

import (
	"context"
	"encoding/binary"
	"fmt"
	"time"

	"github.com/allegro/bigcache/v3"
	"github.com/clinovia/contentvault/common/logger"
)

// LocalCache is the process-scoped fallback tier, backed by bigcache.
//
// bigcache only supports a global life window, so per-entry TTLs are
// encoded as an 8-byte expiry prefix in front of the stored value and
// checked on read.
type LocalCache struct {
	cache *bigcache.BigCache
	log   *logger.Logger
}

const expiryPrefixLen = 8

// NewLocalCache creates a bigcache-backed local cache.
// sizeMB bounds total memory, lifeWindow is the hard upper TTL.
func NewLocalCache(sizeMB int, lifeWindow time.Duration, log *logger.Logger) (*LocalCache, error) {
	cfg := bigcache.DefaultConfig(lifeWindow)
	cfg.HardMaxCacheSize = sizeMB
	cfg.Verbose = false

	bc, err := bigcache.New(context.Background(), cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to create local cache: %w", err)
	}

	return &LocalCache{
		cache: bc,
		log:   log,
	}, nil
}

// Get retrieves a value, treating an expired or absent entry as a miss
func (c *LocalCache) Get(ctx context.Context, key string) ([]byte, bool, error) {
	raw, err := c.cache.Get(key)
	if err == bigcache.ErrEntryNotFound {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("local cache get %s: %w", key, err)
	}
	if len(raw) < expiryPrefixLen {
		// Corrupt entry, drop it
		_ = c.cache.Delete(key)
		return nil, false, nil
	}

	expiresAt := int64(binary.BigEndian.Uint64(raw[:expiryPrefixLen]))
	if expiresAt > 0 && time.Now().UnixNano() > expiresAt {
		_ = c.cache.Delete(key)
		return nil, false, nil
	}

	return raw[expiryPrefixLen:], true, nil
}

// Set stores a value with a per-entry TTL (ttl <= 0 means life-window only)
func (c *LocalCache) Set(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	var expiresAt int64
	if ttl > 0 {
		expiresAt = time.Now().Add(ttl).UnixNano()
	}

	buf := make([]byte, expiryPrefixLen+len(value))
	binary.BigEndian.PutUint64(buf[:expiryPrefixLen], uint64(expiresAt))
	copy(buf[expiryPrefixLen:], value)

	if err := c.cache.Set(key, buf); err != nil {
		return fmt.Errorf("local cache set %s: %w", key, err)
	}
	return nil
}

// Delete removes a value from cache
func (c *LocalCache) Delete(ctx context.Context, key string) error {
	err := c.cache.Delete(key)
	if err != nil && err != bigcache.ErrEntryNotFound {
		return fmt.Errorf("local cache delete %s: %w", key, err)
	}
	return nil
}

// Exists checks whether a live entry is present
func (c *LocalCache) Exists(ctx context.Context, key string) (bool, error) {
	_, found, err := c.Get(ctx, key)
	return found, err
}

// Close releases the cache memory
func (c *LocalCache) Close() error {
	if c.log != nil {
		c.log.Info("local cache closed", "entries", c.cache.Len())
	}
	return c.cache.Close()
}

// Stats returns local cache statistics
func (c *LocalCache) Stats() map[string]interface{} {
	s := c.cache.Stats()
	return map[string]interface{}{
		"entries": c.cache.Len(),
		"hits":    s.Hits,
		"misses":  s.Misses,
		"type":    "bigcache",
	}
}
