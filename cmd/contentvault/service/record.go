package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/clinovia/contentvault/cmd/contentvault/models"
	"github.com/clinovia/contentvault/cmd/contentvault/repository"
	"github.com/clinovia/contentvault/common/logger"
)

// RecordAdminStore is the record contract for administrative operations:
// creating records, soft-deleting them and finding records whose content
// pointer is empty
type RecordAdminStore interface {
	Create(ctx context.Context, rec *models.ServiceRecord) error
	GetByID(ctx context.Context, serviceID uuid.UUID) (*models.ServiceRecord, error)
	SoftDelete(ctx context.Context, serviceID uuid.UUID) error
	ListWithoutContent(ctx context.Context) ([]*models.ServiceRecord, error)
}

// RecordService manages the owning records content attaches to. Deletion
// is always soft: the deletion timestamp is what starts the retention
// clock for the record's content, so rows are never removed outright.
type RecordService struct {
	records RecordAdminStore
	audit   *AuditService
	log     *logger.Logger
}

// NewRecordService creates a new record service
func NewRecordService(records RecordAdminStore, audit *AuditService, log *logger.Logger) *RecordService {
	return &RecordService{
		records: records,
		audit:   audit,
		log:     log,
	}
}

// Create registers a new service record with no content attached
func (s *RecordService) Create(ctx context.Context, name, actorID string) (*models.ServiceRecord, error) {
	if name == "" {
		return nil, fmt.Errorf("%w: name is required", ErrValidation)
	}
	if actorID == "" {
		return nil, fmt.Errorf("%w: actor id is required", ErrValidation)
	}

	now := time.Now().UTC()
	rec := &models.ServiceRecord{
		ServiceID: uuid.New(),
		Name:      name,
		CreatedAt: now,
		UpdatedAt: now,
	}

	if err := s.records.Create(ctx, rec); err != nil {
		return nil, fmt.Errorf("failed to create service record: %w", err)
	}

	s.log.Info("service record created",
		"service_id", rec.ServiceID,
		"name", name,
		"actor_id", actorID,
	)

	return rec, nil
}

// Delete soft-deletes a record and audits the deletion. The content it
// referenced stays in the store; the lifecycle manager reclaims it after
// the retention period elapses.
func (s *RecordService) Delete(ctx context.Context, serviceID uuid.UUID, actorID string) error {
	if serviceID == uuid.Nil {
		return fmt.Errorf("%w: service id is required", ErrValidation)
	}
	if actorID == "" {
		return fmt.Errorf("%w: actor id is required", ErrValidation)
	}

	rec, err := s.records.GetByID(ctx, serviceID)
	if errors.Is(err, repository.ErrNotFound) {
		return fmt.Errorf("%w: service record %s", ErrNotFound, serviceID)
	}
	if err != nil {
		return fmt.Errorf("failed to load service record: %w", err)
	}
	if rec.IsDeleted() {
		return fmt.Errorf("%w: service record %s is deleted", ErrNotFound, serviceID)
	}

	if err := s.records.SoftDelete(ctx, serviceID); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return fmt.Errorf("%w: service record %s", ErrNotFound, serviceID)
		}
		return fmt.Errorf("failed to delete service record: %w", err)
	}

	contentURL := ""
	digest := ""
	if rec.ContentURL != nil {
		contentURL = *rec.ContentURL
	}
	if rec.ContentDigest != nil {
		digest = *rec.ContentDigest
	}

	auditCtx := s.audit.CreateContext(serviceID, digest, models.OperationServiceDelete, actorID)
	auditCtx["record_name"] = rec.Name

	correlationID := uuid.NewString()
	if _, err := s.audit.LogOperation(ctx, serviceID, contentURL, models.OperationServiceDelete, actorID, correlationID, auditCtx); err != nil {
		return err
	}

	s.log.Info("service record deleted",
		"service_id", serviceID,
		"actor_id", actorID,
	)

	return nil
}

// ListWithoutContent returns live records that carry no content pointer,
// either never attached or already reclaimed
func (s *RecordService) ListWithoutContent(ctx context.Context) ([]*models.ServiceRecord, error) {
	recs, err := s.records.ListWithoutContent(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list records without content: %w", err)
	}
	return recs, nil
}
