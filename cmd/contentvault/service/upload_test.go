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
)

func newTestUploadService(t *testing.T) (*UploadService, *blob.MemoryStore, *fakeAuditStore, *fakeRecordStore) {
	t.Helper()

	store := blob.NewMemoryStore()
	auditStore := &fakeAuditStore{}
	records := newFakeRecordStore()
	log := testLogger()

	addr := newTestAddressService(t)
	audit := NewAuditService(auditStore, log)
	uploads := NewUploadService(store, addr, audit, records, nil, nil, log)

	return uploads, store, auditStore, records
}

func TestUpload_StoresAtDerivedAddress(t *testing.T) {
	uploads, store, auditStore, _ := newTestUploadService(t)
	ownerID := uuid.New()
	content := []byte("<html>hello</html>")

	result, err := uploads.Upload(context.Background(), ownerID, content, "text/html", "tester")
	require.NoError(t, err)

	assert.Equal(t, ComputeDigest(content), result.Digest)
	assert.Contains(t, result.URL, result.Digest+".html")
	assert.Equal(t, int64(len(content)), result.SizeBytes)

	obj, err := store.Get(context.Background(), result.BlobPath)
	require.NoError(t, err)
	assert.Equal(t, content, obj.Data)
	assert.Equal(t, "text/html", obj.ContentType)

	entries := auditStore.byOperation(models.OperationUpload)
	require.Len(t, entries, 1)
	assert.Equal(t, ownerID, entries[0].ServiceID)
	assert.Equal(t, "tester", entries[0].ActorID)
	assert.Equal(t, result.URL, entries[0].ContentURL)
}

func TestUpload_Idempotent(t *testing.T) {
	uploads, store, auditStore, _ := newTestUploadService(t)
	ownerID := uuid.New()
	content := []byte("same bytes")

	first, err := uploads.Upload(context.Background(), ownerID, content, "text/plain", "tester")
	require.NoError(t, err)
	second, err := uploads.Upload(context.Background(), ownerID, content, "text/plain", "tester")
	require.NoError(t, err)

	assert.Equal(t, first.URL, second.URL)
	assert.Equal(t, first.Digest, second.Digest)
	assert.Equal(t, first.BlobPath, second.BlobPath)

	// Re-upload is a storage no-op but still leaves its own audit entry
	objects, err := store.List(context.Background(), "services/content/")
	require.NoError(t, err)
	assert.Len(t, objects, 1)
	assert.Len(t, auditStore.byOperation(models.OperationUpload), 2)
}

func TestUpload_Validation(t *testing.T) {
	uploads, _, _, _ := newTestUploadService(t)

	_, err := uploads.Upload(context.Background(), uuid.Nil, []byte("x"), "text/plain", "tester")
	assert.ErrorIs(t, err, ErrValidation)

	_, err = uploads.Upload(context.Background(), uuid.New(), nil, "text/plain", "tester")
	assert.ErrorIs(t, err, ErrValidation)

	_, err = uploads.Upload(context.Background(), uuid.New(), []byte("x"), "text/plain", "")
	assert.ErrorIs(t, err, ErrValidation)
}

func TestUpload_AuditFailureIsFatal(t *testing.T) {
	uploads, _, auditStore, _ := newTestUploadService(t)
	auditStore.failAppend = true

	_, err := uploads.Upload(context.Background(), uuid.New(), []byte("x"), "text/plain", "tester")
	assert.ErrorIs(t, err, ErrAudit)
}

func TestUploadAndAttach_UpdatesRecord(t *testing.T) {
	uploads, _, auditStore, records := newTestUploadService(t)
	ownerID := uuid.New()
	records.add(&models.ServiceRecord{
		ServiceID: ownerID,
		Name:      "svc",
		CreatedAt: time.Now().UTC(),
	})

	content := []byte(`{"k":"v"}`)
	result, err := uploads.UploadAndAttach(context.Background(), ownerID, content, "application/json", "tester")
	require.NoError(t, err)

	rec, err := records.GetByID(context.Background(), ownerID)
	require.NoError(t, err)
	require.NotNil(t, rec.ContentURL)
	assert.Equal(t, result.URL, *rec.ContentURL)
	require.NotNil(t, rec.ContentDigest)
	assert.Equal(t, result.Digest, *rec.ContentDigest)
	require.NotNil(t, rec.LastContentUpdate)

	updates := auditStore.byOperation(models.OperationServiceContentUpdate)
	require.Len(t, updates, 1)
	assert.Contains(t, updates[0].Context, "record_patch")
}

func TestUploadAndAttach_MissingRecord(t *testing.T) {
	uploads, store, _, _ := newTestUploadService(t)

	_, err := uploads.UploadAndAttach(context.Background(), uuid.New(), []byte("x"), "text/plain", "tester")
	assert.ErrorIs(t, err, ErrNotFound)

	// The blob write itself is not rolled back; cleanup reclaims it later
	objects, err := store.List(context.Background(), "services/content/")
	require.NoError(t, err)
	assert.Len(t, objects, 1)
}

func TestUploadAndAttach_DeletedRecord(t *testing.T) {
	uploads, _, _, records := newTestUploadService(t)
	ownerID := uuid.New()
	deleted := time.Now().UTC()
	records.add(&models.ServiceRecord{
		ServiceID: ownerID,
		Name:      "svc",
		DeletedAt: &deleted,
	})

	_, err := uploads.UploadAndAttach(context.Background(), ownerID, []byte("x"), "text/plain", "tester")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestExtensionForContentType(t *testing.T) {
	cases := map[string]string{
		"text/html":                "html",
		"text/html; charset=utf-8": "html",
		"text/plain":               "txt",
		"application/json":         "json",
		"application/pdf":          "pdf",
		"application/octet-stream": "bin",
		"":                         "bin",
	}
	for input, want := range cases {
		assert.Equal(t, want, ExtensionForContentType(input), input)
	}
}
