package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/clinovia/contentvault/cmd/contentvault/models"
	"github.com/clinovia/contentvault/common/blob"
	"github.com/clinovia/contentvault/common/cache"
)

// brokenCache fails every operation, standing in for a cache outage
type brokenCache struct{}

func (brokenCache) Get(ctx context.Context, key string) ([]byte, bool, error) {
	return nil, false, errors.New("cache down")
}
func (brokenCache) Set(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	return errors.New("cache down")
}
func (brokenCache) Delete(ctx context.Context, key string) error { return errors.New("cache down") }
func (brokenCache) Exists(ctx context.Context, key string) (bool, error) {
	return false, errors.New("cache down")
}
func (brokenCache) Close() error { return nil }

func newTestRetrievalService(t *testing.T, c cache.Cache) (*RetrievalService, *UploadService, *fakeAuditStore) {
	t.Helper()

	store := blob.NewMemoryStore()
	auditStore := &fakeAuditStore{}
	log := testLogger()

	addr := newTestAddressService(t)
	audit := NewAuditService(auditStore, log)
	uploads := NewUploadService(store, addr, audit, newFakeRecordStore(), nil, nil, log)
	retrieval := NewRetrievalService(c, store, addr, audit, nil, time.Minute, log)

	return retrieval, uploads, auditStore
}

func TestGetByURL_MissThenHit(t *testing.T) {
	c := cache.NewMemoryCache(testLogger())
	retrieval, uploads, auditStore := newTestRetrievalService(t, c)

	content := []byte("cached content")
	uploaded, err := uploads.Upload(context.Background(), uuid.New(), content, "text/plain", "tester")
	require.NoError(t, err)

	first, err := retrieval.GetByURL(context.Background(), uploaded.URL)
	require.NoError(t, err)
	assert.False(t, first.CacheHit)
	assert.Equal(t, content, first.Content)
	assert.Equal(t, "text/plain", first.ContentType)
	assert.Equal(t, uploaded.Digest, first.Digest)
	assert.Equal(t, CacheKeyForDigest(uploaded.Digest), first.CacheKey)

	second, err := retrieval.GetByURL(context.Background(), uploaded.URL)
	require.NoError(t, err)
	assert.True(t, second.CacheHit)
	assert.Equal(t, content, second.Content)
	assert.Equal(t, "text/plain", second.ContentType)

	// Only the store read is audited; cache hits are not
	assert.Len(t, auditStore.byOperation(models.OperationRetrieve), 1)
}

func TestGetByURL_NotFound(t *testing.T) {
	retrieval, _, _ := newTestRetrievalService(t, cache.NewMemoryCache(testLogger()))
	addr := newTestAddressService(t)

	url := addr.BuildURL(uuid.New(), ComputeDigest([]byte("missing")), "txt")

	_, err := retrieval.GetByURL(context.Background(), url)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestGetByURL_InvalidURL(t *testing.T) {
	retrieval, _, _ := newTestRetrievalService(t, cache.NewMemoryCache(testLogger()))

	_, err := retrieval.GetByURL(context.Background(), "https://other.example.com/services/content/x/y.html")
	assert.ErrorIs(t, err, ErrValidation)
}

func TestGetByURL_CacheOutageDegradesToStore(t *testing.T) {
	retrieval, uploads, _ := newTestRetrievalService(t, brokenCache{})

	content := []byte("still served")
	uploaded, err := uploads.Upload(context.Background(), uuid.New(), content, "text/plain", "tester")
	require.NoError(t, err)

	result, err := retrieval.GetByURL(context.Background(), uploaded.URL)
	require.NoError(t, err)
	assert.False(t, result.CacheHit)
	assert.Equal(t, content, result.Content)
}

func TestGetByAddress(t *testing.T) {
	c := cache.NewMemoryCache(testLogger())
	retrieval, uploads, _ := newTestRetrievalService(t, c)

	ownerID := uuid.New()
	content := []byte(`{"hello":"world"}`)
	uploaded, err := uploads.Upload(context.Background(), ownerID, content, "application/json", "tester")
	require.NoError(t, err)

	result, err := retrieval.GetByAddress(context.Background(), ownerID, uploaded.Digest, "json")
	require.NoError(t, err)
	assert.Equal(t, content, result.Content)

	_, err = retrieval.GetByAddress(context.Background(), uuid.Nil, uploaded.Digest, "json")
	assert.ErrorIs(t, err, ErrValidation)

	_, err = retrieval.GetByAddress(context.Background(), ownerID, "nothex", "json")
	assert.ErrorIs(t, err, ErrValidation)
}

func TestPreWarm(t *testing.T) {
	c := cache.NewMemoryCache(testLogger())
	retrieval, uploads, _ := newTestRetrievalService(t, c)

	uploaded, err := uploads.Upload(context.Background(), uuid.New(), []byte("warm me"), "text/plain", "tester")
	require.NoError(t, err)

	assert.True(t, retrieval.PreWarm(context.Background(), uploaded.URL))

	_, found, err := c.Get(context.Background(), CacheKeyForDigest(uploaded.Digest))
	require.NoError(t, err)
	assert.True(t, found)

	// Soft failure: unknown content reports false, never errors
	addr := newTestAddressService(t)
	missing := addr.BuildURL(uuid.New(), ComputeDigest([]byte("missing")), "txt")
	assert.False(t, retrieval.PreWarm(context.Background(), missing))
}

func TestGetByURL_AuditFailureLeavesNoCacheEntry(t *testing.T) {
	c := cache.NewMemoryCache(testLogger())
	retrieval, uploads, auditStore := newTestRetrievalService(t, c)

	content := []byte("must stay audited")
	uploaded, err := uploads.Upload(context.Background(), uuid.New(), content, "text/plain", "tester")
	require.NoError(t, err)

	// First read fails its audit append: the error surfaces and the
	// cache must stay empty, otherwise later hits bypass the trail
	auditStore.failAppend = true
	_, err = retrieval.GetByURL(context.Background(), uploaded.URL)
	assert.ErrorIs(t, err, ErrAudit)

	_, found, err := c.Get(context.Background(), CacheKeyForDigest(uploaded.Digest))
	require.NoError(t, err)
	assert.False(t, found)

	// Once the audit store recovers, the next read goes back to the
	// store and records the retrieve entry
	auditStore.failAppend = false
	result, err := retrieval.GetByURL(context.Background(), uploaded.URL)
	require.NoError(t, err)
	assert.False(t, result.CacheHit)
	assert.Equal(t, content, result.Content)
	assert.Len(t, auditStore.byOperation(models.OperationRetrieve), 1)
}

func TestGetByURL_CorruptCacheEntryDropped(t *testing.T) {
	c := cache.NewMemoryCache(testLogger())
	retrieval, uploads, _ := newTestRetrievalService(t, c)

	content := []byte("good bytes")
	uploaded, err := uploads.Upload(context.Background(), uuid.New(), content, "text/plain", "tester")
	require.NoError(t, err)

	key := CacheKeyForDigest(uploaded.Digest)
	require.NoError(t, c.Set(context.Background(), key, []byte("not json"), time.Minute))

	result, err := retrieval.GetByURL(context.Background(), uploaded.URL)
	require.NoError(t, err)
	assert.False(t, result.CacheHit)
	assert.Equal(t, content, result.Content)
}
