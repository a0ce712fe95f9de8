package repository

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/clinovia/contentvault/cmd/contentvault/models"
	"github.com/clinovia/contentvault/common/db"
	"github.com/google/uuid"
)

// AuditRepository handles database operations for the append-only audit
// trail. There is deliberately no update or delete path.
type AuditRepository struct {
	db *db.DB
}

// NewAuditRepository creates a new audit repository
func NewAuditRepository(db *db.DB) *AuditRepository {
	return &AuditRepository{db: db}
}

// Append inserts a new audit entry
func (r *AuditRepository) Append(ctx context.Context, entry *models.AuditEntry) error {
	query := `
		INSERT INTO content_audit (audit_id, service_id, content_url, operation, actor_id, correlation_id, context, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
	`

	var contextJSON []byte
	if entry.Context != nil {
		var err error
		contextJSON, err = json.Marshal(entry.Context)
		if err != nil {
			return fmt.Errorf("failed to encode audit context: %w", err)
		}
	}

	_, err := r.db.Exec(ctx, query,
		entry.AuditID,
		entry.ServiceID,
		entry.ContentURL,
		string(entry.Operation),
		entry.ActorID,
		entry.CorrelationID,
		contextJSON,
		entry.CreatedAt,
	)

	if err != nil {
		return fmt.Errorf("failed to append audit entry: %w", err)
	}

	return nil
}

// ListByService lists audit entries for an owner, newest first
func (r *AuditRepository) ListByService(ctx context.Context, serviceID uuid.UUID, limit int) ([]*models.AuditEntry, error) {
	query := `
		SELECT audit_id, service_id, content_url, operation, actor_id, correlation_id, context, created_at
		FROM content_audit
		WHERE service_id = $1
		ORDER BY created_at DESC
		LIMIT $2
	`

	rows, err := r.db.Query(ctx, query, serviceID, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list audit entries: %w", err)
	}
	defer rows.Close()

	var entries []*models.AuditEntry
	for rows.Next() {
		entry := &models.AuditEntry{}
		var operation string
		var contextJSON []byte
		err := rows.Scan(
			&entry.AuditID,
			&entry.ServiceID,
			&entry.ContentURL,
			&operation,
			&entry.ActorID,
			&entry.CorrelationID,
			&contextJSON,
			&entry.CreatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan audit entry: %w", err)
		}
		entry.Operation = models.AuditOperation(operation)
		if len(contextJSON) > 0 {
			if err := json.Unmarshal(contextJSON, &entry.Context); err != nil {
				return nil, fmt.Errorf("failed to decode audit context: %w", err)
			}
		}
		entries = append(entries, entry)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating audit entries: %w", err)
	}

	return entries, nil
}

// CountByCorrelation counts entries sharing a correlation ID, used by
// compliance export to verify run completeness
func (r *AuditRepository) CountByCorrelation(ctx context.Context, correlationID string) (int, error) {
	query := `SELECT COUNT(*) FROM content_audit WHERE correlation_id = $1`

	var count int
	if err := r.db.QueryRow(ctx, query, correlationID).Scan(&count); err != nil {
		return 0, fmt.Errorf("failed to count audit entries: %w", err)
	}

	return count, nil
}
