package cache

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/clinovia/contentvault/common/logger"
)

// faultyCache fails every operation
type faultyCache struct{}

func (faultyCache) Get(ctx context.Context, key string) ([]byte, bool, error) {
	return nil, false, errors.New("tier down")
}
func (faultyCache) Set(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	return errors.New("tier down")
}
func (faultyCache) Delete(ctx context.Context, key string) error { return errors.New("tier down") }
func (faultyCache) Exists(ctx context.Context, key string) (bool, error) {
	return false, errors.New("tier down")
}
func (faultyCache) Close() error { return nil }

func testLog() *logger.Logger {
	return logger.New("error", "text")
}

func TestTieredCache_SetWritesBothTiers(t *testing.T) {
	primary := NewMemoryCache(testLog())
	fallback := NewMemoryCache(testLog())
	tiered := NewTieredCache(primary, fallback, testLog())

	require.NoError(t, tiered.Set(context.Background(), "k", []byte("v"), time.Minute))

	for name, tier := range map[string]*MemoryCache{"primary": primary, "fallback": fallback} {
		val, found, err := tier.Get(context.Background(), "k")
		require.NoError(t, err, name)
		assert.True(t, found, name)
		assert.Equal(t, []byte("v"), val, name)
	}
}

func TestTieredCache_PrimaryHitReplicatesToFallback(t *testing.T) {
	primary := NewMemoryCache(testLog())
	fallback := NewMemoryCache(testLog())
	tiered := NewTieredCache(primary, fallback, testLog())

	// Entry present only in the primary tier
	require.NoError(t, primary.Set(context.Background(), "k", []byte("v"), time.Minute))

	val, found, err := tiered.Get(context.Background(), "k")
	require.NoError(t, err)
	require.True(t, found)
	assert.Equal(t, []byte("v"), val)

	// The hit back-fills the fallback, so a primary outage still serves it
	degraded := NewTieredCache(faultyCache{}, fallback, testLog())
	val, found, err = degraded.Get(context.Background(), "k")
	require.NoError(t, err)
	assert.True(t, found)
	assert.Equal(t, []byte("v"), val)
}

func TestTieredCache_GetFallsBack(t *testing.T) {
	fallback := NewMemoryCache(testLog())
	tiered := NewTieredCache(faultyCache{}, fallback, testLog())

	require.NoError(t, fallback.Set(context.Background(), "k", []byte("v"), time.Minute))

	val, found, err := tiered.Get(context.Background(), "k")
	require.NoError(t, err)
	assert.True(t, found)
	assert.Equal(t, []byte("v"), val)
}

func TestTieredCache_SetSucceedsWithOneTier(t *testing.T) {
	fallback := NewMemoryCache(testLog())
	tiered := NewTieredCache(faultyCache{}, fallback, testLog())

	require.NoError(t, tiered.Set(context.Background(), "k", []byte("v"), time.Minute))

	_, found, err := fallback.Get(context.Background(), "k")
	require.NoError(t, err)
	assert.True(t, found)
}

func TestTieredCache_SetFailsWhenAllTiersFail(t *testing.T) {
	tiered := NewTieredCache(faultyCache{}, faultyCache{}, testLog())

	err := tiered.Set(context.Background(), "k", []byte("v"), time.Minute)
	assert.Error(t, err)
}

func TestTieredCache_TotalOutageIsAMiss(t *testing.T) {
	tiered := NewTieredCache(faultyCache{}, faultyCache{}, testLog())

	val, found, err := tiered.Get(context.Background(), "k")
	require.NoError(t, err)
	assert.False(t, found)
	assert.Nil(t, val)
}

func TestTieredCache_Delete(t *testing.T) {
	primary := NewMemoryCache(testLog())
	fallback := NewMemoryCache(testLog())
	tiered := NewTieredCache(primary, fallback, testLog())

	require.NoError(t, tiered.Set(context.Background(), "k", []byte("v"), time.Minute))
	require.NoError(t, tiered.Delete(context.Background(), "k"))

	_, found, err := tiered.Get(context.Background(), "k")
	require.NoError(t, err)
	assert.False(t, found)
}

func TestMemoryCache_TTL(t *testing.T) {
	c := NewMemoryCache(testLog())

	require.NoError(t, c.Set(context.Background(), "short", []byte("v"), 10*time.Millisecond))
	require.NoError(t, c.Set(context.Background(), "forever", []byte("v"), 0))

	time.Sleep(20 * time.Millisecond)

	_, found, err := c.Get(context.Background(), "short")
	require.NoError(t, err)
	assert.False(t, found)

	_, found, err = c.Get(context.Background(), "forever")
	require.NoError(t, err)
	assert.True(t, found)
}
