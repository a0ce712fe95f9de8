package service

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/clinovia/contentvault/cmd/contentvault/models"
	"github.com/clinovia/contentvault/cmd/contentvault/repository"
	"github.com/clinovia/contentvault/common/logger"
)

func testLogger() *logger.Logger {
	return logger.New("error", "text")
}

// fakeAuditStore collects audit entries in memory
type fakeAuditStore struct {
	mu         sync.Mutex
	entries    []*models.AuditEntry
	failAppend bool
}

func (f *fakeAuditStore) Append(ctx context.Context, entry *models.AuditEntry) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.failAppend {
		return errors.New("audit store down")
	}
	f.entries = append(f.entries, entry)
	return nil
}

func (f *fakeAuditStore) ListByService(ctx context.Context, serviceID uuid.UUID, limit int) ([]*models.AuditEntry, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []*models.AuditEntry
	for i := len(f.entries) - 1; i >= 0 && len(out) < limit; i-- {
		if f.entries[i].ServiceID == serviceID {
			out = append(out, f.entries[i])
		}
	}
	return out, nil
}

func (f *fakeAuditStore) byOperation(op models.AuditOperation) []*models.AuditEntry {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []*models.AuditEntry
	for _, e := range f.entries {
		if e.Operation == op {
			out = append(out, e)
		}
	}
	return out
}

// fakeRecordStore holds service records in memory
type fakeRecordStore struct {
	mu      sync.Mutex
	records map[uuid.UUID]*models.ServiceRecord
}

func newFakeRecordStore() *fakeRecordStore {
	return &fakeRecordStore{records: make(map[uuid.UUID]*models.ServiceRecord)}
}

func (f *fakeRecordStore) add(rec *models.ServiceRecord) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.records[rec.ServiceID] = rec
}

func (f *fakeRecordStore) remove(id uuid.UUID) {
	f.mu.Lock()
	defer f.mu.Unlock()
	delete(f.records, id)
}

func (f *fakeRecordStore) Create(ctx context.Context, rec *models.ServiceRecord) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	clone := *rec
	f.records[rec.ServiceID] = &clone
	return nil
}

func (f *fakeRecordStore) SoftDelete(ctx context.Context, serviceID uuid.UUID) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	rec, ok := f.records[serviceID]
	if !ok || rec.IsDeleted() {
		return repository.ErrNotFound
	}
	now := time.Now().UTC()
	rec.DeletedAt = &now
	rec.UpdatedAt = now
	return nil
}

func (f *fakeRecordStore) GetByID(ctx context.Context, serviceID uuid.UUID) (*models.ServiceRecord, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	rec, ok := f.records[serviceID]
	if !ok {
		return nil, repository.ErrNotFound
	}
	clone := *rec
	return &clone, nil
}

func (f *fakeRecordStore) GetByIDs(ctx context.Context, serviceIDs []uuid.UUID) (map[uuid.UUID]*models.ServiceRecord, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make(map[uuid.UUID]*models.ServiceRecord)
	for _, id := range serviceIDs {
		if rec, ok := f.records[id]; ok {
			clone := *rec
			out[id] = &clone
		}
	}
	return out, nil
}

func (f *fakeRecordStore) UpdateContentPointer(ctx context.Context, rec *models.ServiceRecord) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	existing, ok := f.records[rec.ServiceID]
	if !ok || existing.IsDeleted() {
		return repository.ErrNotFound
	}
	existing.ContentURL = rec.ContentURL
	existing.ContentDigest = rec.ContentDigest
	existing.LastContentUpdate = rec.LastContentUpdate
	existing.UpdatedAt = time.Now().UTC()
	return nil
}

func (f *fakeRecordStore) ListWithoutContent(ctx context.Context) ([]*models.ServiceRecord, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []*models.ServiceRecord
	for _, rec := range f.records {
		if !rec.IsDeleted() && !rec.HasContent() {
			clone := *rec
			out = append(out, &clone)
		}
	}
	return out, nil
}
