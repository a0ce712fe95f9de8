package service

import (
	"context"
	"fmt"
	"time"

	"github.com/clinovia/contentvault/cmd/contentvault/models"
	"github.com/clinovia/contentvault/common/logger"
	"github.com/google/uuid"
)

// AuditStore persists the append-only audit trail
type AuditStore interface {
	Append(ctx context.Context, entry *models.AuditEntry) error
	ListByService(ctx context.Context, serviceID uuid.UUID, limit int) ([]*models.AuditEntry, error)
}

// AuditService records an immutable audit entry for every content
// operation. Compliance requires every mutation to be attributable, so
// persistence failures surface to the caller instead of being swallowed.
type AuditService struct {
	store AuditStore
	log   *logger.Logger
}

// NewAuditService creates a new audit service
func NewAuditService(store AuditStore, log *logger.Logger) *AuditService {
	return &AuditService{
		store: store,
		log:   log,
	}
}

// LogOperation appends one audit entry and returns it
func (s *AuditService) LogOperation(
	ctx context.Context,
	ownerID uuid.UUID,
	contentURL string,
	operation models.AuditOperation,
	actorID, correlationID string,
	auditCtx models.AuditContext,
) (*models.AuditEntry, error) {
	entry := &models.AuditEntry{
		AuditID:       uuid.New(),
		ServiceID:     ownerID,
		ContentURL:    contentURL,
		Operation:     operation,
		ActorID:       actorID,
		CorrelationID: correlationID,
		Context:       auditCtx,
		CreatedAt:     time.Now().UTC(),
	}

	if err := s.store.Append(ctx, entry); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrAudit, err)
	}

	s.log.Info("audit entry recorded",
		"audit_id", entry.AuditID,
		"owner_id", ownerID,
		"operation", operation,
		"actor_id", actorID,
		"correlation_id", correlationID,
	)

	return entry, nil
}

// CreateContext builds the structured compliance payload attached to an
// audit entry: object identity plus size, content type and compliance
// tags, stored independently from the core entry columns
func (s *AuditService) CreateContext(
	ownerID uuid.UUID,
	digest string,
	operation models.AuditOperation,
	actorID string,
) models.AuditContext {
	return models.AuditContext{
		"owner_id":        ownerID.String(),
		"digest":          digest,
		"operation":       string(operation),
		"actor_id":        actorID,
		"compliance_tags": []string{"content", "regulated"},
		"recorded_at":     time.Now().UTC().Format(time.RFC3339Nano),
	}
}

// ListByOwner returns the audit trail for an owner, newest first
func (s *AuditService) ListByOwner(ctx context.Context, ownerID uuid.UUID, limit int) ([]*models.AuditEntry, error) {
	if limit <= 0 || limit > 1000 {
		limit = 100
	}

	entries, err := s.store.ListByService(ctx, ownerID, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list audit entries: %w", err)
	}

	return entries, nil
}
