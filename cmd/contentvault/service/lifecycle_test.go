package service

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/clinovia/contentvault/cmd/contentvault/models"
	"github.com/clinovia/contentvault/common/blob"
	"github.com/clinovia/contentvault/common/cache"
	"github.com/clinovia/contentvault/common/config"
)

type lifecycleFixture struct {
	lifecycle *LifecycleService
	uploads   *UploadService
	store     *blob.MemoryStore
	archive   *blob.MemoryStore
	records   *fakeRecordStore
	audit     *fakeAuditStore
	cache     *cache.MemoryCache
	cfg       config.LifecycleConfig
}

func newLifecycleFixture(t *testing.T, cfg config.LifecycleConfig, policyExpr string) *lifecycleFixture {
	t.Helper()

	store := blob.NewMemoryStore()
	archive := blob.NewMemoryStore()
	records := newFakeRecordStore()
	auditStore := &fakeAuditStore{}
	c := cache.NewMemoryCache(testLogger())
	log := testLogger()

	addr := newTestAddressService(t)
	audit := NewAuditService(auditStore, log)
	uploads := NewUploadService(store, addr, audit, records, nil, nil, log)

	policy, err := NewRetentionPolicy(policyExpr)
	require.NoError(t, err)

	lifecycle := NewLifecycleService(store, archive, records, addr, audit, c, policy, nil, cfg, log)

	return &lifecycleFixture{
		lifecycle: lifecycle,
		uploads:   uploads,
		store:     store,
		archive:   archive,
		records:   records,
		audit:     auditStore,
		cache:     c,
		cfg:       cfg,
	}
}

func defaultLifecycleConfig() config.LifecycleConfig {
	return config.LifecycleConfig{
		RetentionPeriod: 90 * 24 * time.Hour,
		GracePeriod:     24 * time.Hour,
		MaxItems:        500,
	}
}

// uploadAged stores content and backdates the object's creation time
func (f *lifecycleFixture) uploadAged(t *testing.T, ownerID uuid.UUID, content []byte, age time.Duration) *models.UploadResult {
	t.Helper()
	result, err := f.uploads.Upload(context.Background(), ownerID, content, "text/plain", "tester")
	require.NoError(t, err)
	f.store.SetCreatedAt(result.BlobPath, time.Now().UTC().Add(-age))
	return result
}

func TestIdentifyOrphaned(t *testing.T) {
	f := newLifecycleFixture(t, defaultLifecycleConfig(), "")

	// Referenced by a live record: not an orphan
	liveOwner := uuid.New()
	live := f.uploadAged(t, liveOwner, []byte("live"), 100*24*time.Hour)
	f.records.add(&models.ServiceRecord{
		ServiceID:     liveOwner,
		Name:          "live",
		ContentDigest: &live.Digest,
	})

	// Owner record never existed: orphan, clock from object creation
	ownerless := f.uploadAged(t, uuid.New(), []byte("ownerless"), 100*24*time.Hour)

	// Owner soft-deleted long ago: orphan, clock from deletion time
	deletedOwner := uuid.New()
	deleted := f.uploadAged(t, deletedOwner, []byte("deleted owner"), 200*24*time.Hour)
	deletedAt := time.Now().UTC().Add(-120 * 24 * time.Hour)
	f.records.add(&models.ServiceRecord{
		ServiceID: deletedOwner,
		Name:      "gone",
		DeletedAt: &deletedAt,
	})

	// Orphaned but still inside the retention window
	fresh := f.uploadAged(t, uuid.New(), []byte("fresh orphan"), 10*24*time.Hour)

	orphans, err := f.lifecycle.IdentifyOrphaned(context.Background(), f.cfg.RetentionPeriod)
	require.NoError(t, err)

	paths := make(map[string]*models.OrphanedContentReference)
	for _, ref := range orphans {
		paths[ref.BlobPath] = ref
	}

	assert.NotContains(t, paths, live.BlobPath)
	assert.NotContains(t, paths, fresh.BlobPath)
	require.Contains(t, paths, ownerless.BlobPath)
	require.Contains(t, paths, deleted.BlobPath)

	assert.WithinDuration(t, deletedAt, paths[deleted.BlobPath].LastReferencedAt, time.Second)
	assert.Equal(t, ownerless.Digest, paths[ownerless.BlobPath].Digest)
}

func TestCleanup_ReclaimsOldOrphansOnly(t *testing.T) {
	f := newLifecycleFixture(t, defaultLifecycleConfig(), "")

	old := f.uploadAged(t, uuid.New(), []byte("old orphan"), 100*24*time.Hour)
	young := f.uploadAged(t, uuid.New(), []byte("young orphan"), 10*24*time.Hour)

	summary, err := f.lifecycle.Cleanup(context.Background())
	require.NoError(t, err)

	assert.Equal(t, 1, summary.Cleaned)
	assert.Equal(t, int64(len("old orphan")), summary.BytesReclaimed)
	assert.Empty(t, summary.Errors)
	assert.Contains(t, summary.CleanedURLs, old.URL)

	_, err = f.store.Get(context.Background(), old.BlobPath)
	assert.ErrorIs(t, err, blob.ErrObjectNotFound)

	// The young orphan is untouched and still resolves
	obj, err := f.store.Get(context.Background(), young.BlobPath)
	require.NoError(t, err)
	assert.Equal(t, []byte("young orphan"), obj.Data)

	// One per-object entry plus the run summary
	assert.Len(t, f.audit.byOperation(models.OperationCleanup), 2)
}

func TestCleanup_NeverDeletesReferencedContent(t *testing.T) {
	f := newLifecycleFixture(t, defaultLifecycleConfig(), "")

	ownerID := uuid.New()
	result := f.uploadAged(t, ownerID, []byte("referenced"), 365*24*time.Hour)
	f.records.add(&models.ServiceRecord{
		ServiceID:     ownerID,
		Name:          "svc",
		ContentDigest: &result.Digest,
	})

	summary, err := f.lifecycle.Cleanup(context.Background())
	require.NoError(t, err)

	assert.Equal(t, 0, summary.Cleaned)
	_, err = f.store.Get(context.Background(), result.BlobPath)
	assert.NoError(t, err)
}

func TestVerifyEligible_ReattachedBetweenScanAndDelete(t *testing.T) {
	f := newLifecycleFixture(t, defaultLifecycleConfig(), "")

	ownerID := uuid.New()
	result := f.uploadAged(t, ownerID, []byte("racy"), 100*24*time.Hour)

	orphans, err := f.lifecycle.IdentifyOrphaned(context.Background(), f.cfg.RetentionPeriod)
	require.NoError(t, err)
	require.Len(t, orphans, 1)

	// Record re-attaches after the scan but before deletion
	f.records.add(&models.ServiceRecord{
		ServiceID:     ownerID,
		Name:          "svc",
		ContentDigest: &result.Digest,
	})

	eligible, reason, err := f.lifecycle.verifyEligible(context.Background(), orphans[0])
	require.NoError(t, err)
	assert.False(t, eligible)
	assert.Equal(t, "record re-attached", reason)
}

func TestCleanup_GracePeriodHolds(t *testing.T) {
	f := newLifecycleFixture(t, defaultLifecycleConfig(), "")

	// Owner deleted long ago, but the object itself was only just written
	ownerID := uuid.New()
	result, err := f.uploads.Upload(context.Background(), ownerID, []byte("just written"), "text/plain", "tester")
	require.NoError(t, err)
	deletedAt := time.Now().UTC().Add(-120 * 24 * time.Hour)
	f.records.add(&models.ServiceRecord{
		ServiceID: ownerID,
		Name:      "gone",
		DeletedAt: &deletedAt,
	})

	summary, err := f.lifecycle.Cleanup(context.Background())
	require.NoError(t, err)

	assert.Equal(t, 0, summary.Cleaned)
	_, err = f.store.Get(context.Background(), result.BlobPath)
	assert.NoError(t, err)
}

func TestCleanup_ArchivesBeforeDelete(t *testing.T) {
	cfg := defaultLifecycleConfig()
	cfg.ArchiveEnabled = true
	f := newLifecycleFixture(t, cfg, "")

	f.uploadAged(t, uuid.New(), []byte("archive me"), 100*24*time.Hour)

	summary, err := f.lifecycle.Cleanup(context.Background())
	require.NoError(t, err)

	assert.Equal(t, 1, summary.Cleaned)
	assert.Equal(t, 1, summary.Archived)

	copies, err := f.archive.List(context.Background(), "archive/")
	require.NoError(t, err)
	require.Len(t, copies, 1)

	assert.Len(t, f.audit.byOperation(models.OperationArchive), 1)
}

func TestCleanup_RetentionPolicyNarrows(t *testing.T) {
	f := newLifecycleFixture(t, defaultLifecycleConfig(), "age_days > 365.0")

	result := f.uploadAged(t, uuid.New(), []byte("policy held"), 100*24*time.Hour)

	summary, err := f.lifecycle.Cleanup(context.Background())
	require.NoError(t, err)

	assert.Equal(t, 0, summary.Cleaned)
	_, err = f.store.Get(context.Background(), result.BlobPath)
	assert.NoError(t, err)
}

func TestCleanup_InvalidatesCache(t *testing.T) {
	f := newLifecycleFixture(t, defaultLifecycleConfig(), "")

	result := f.uploadAged(t, uuid.New(), []byte("cached orphan"), 100*24*time.Hour)
	key := CacheKeyForDigest(result.Digest)
	require.NoError(t, f.cache.Set(context.Background(), key, []byte("{}"), time.Hour))

	_, err := f.lifecycle.Cleanup(context.Background())
	require.NoError(t, err)

	_, found, err := f.cache.Get(context.Background(), key)
	require.NoError(t, err)
	assert.False(t, found)
}

func TestCleanup_MaxItemsCap(t *testing.T) {
	cfg := defaultLifecycleConfig()
	cfg.MaxItems = 2
	f := newLifecycleFixture(t, cfg, "")

	f.uploadAged(t, uuid.New(), []byte("one"), 100*24*time.Hour)
	f.uploadAged(t, uuid.New(), []byte("two"), 100*24*time.Hour)
	f.uploadAged(t, uuid.New(), []byte("three"), 100*24*time.Hour)

	summary, err := f.lifecycle.Cleanup(context.Background())
	require.NoError(t, err)

	assert.Equal(t, 3, summary.Scanned)
	assert.Equal(t, 2, summary.Cleaned)
}

func TestArchive_Standalone(t *testing.T) {
	f := newLifecycleFixture(t, defaultLifecycleConfig(), "")

	f.uploadAged(t, uuid.New(), []byte("cold copy"), 100*24*time.Hour)

	orphans, err := f.lifecycle.IdentifyOrphaned(context.Background(), f.cfg.RetentionPeriod)
	require.NoError(t, err)
	require.Len(t, orphans, 1)

	result, err := f.lifecycle.Archive(context.Background(), orphans)
	require.NoError(t, err)
	assert.Equal(t, 1, result.ArchivedCount)

	// Archiving alone never deletes
	_, err = f.store.Get(context.Background(), orphans[0].BlobPath)
	assert.NoError(t, err)
}
