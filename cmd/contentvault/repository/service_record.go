package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/clinovia/contentvault/cmd/contentvault/models"
	"github.com/clinovia/contentvault/common/db"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

// ErrNotFound is returned when a requested row does not exist
var ErrNotFound = errors.New("record not found")

// ServiceRecordRepository handles database operations for service records
type ServiceRecordRepository struct {
	db *db.DB
}

// NewServiceRecordRepository creates a new service record repository
func NewServiceRecordRepository(db *db.DB) *ServiceRecordRepository {
	return &ServiceRecordRepository{db: db}
}

// Create inserts a new service record
func (r *ServiceRecordRepository) Create(ctx context.Context, rec *models.ServiceRecord) error {
	query := `
		INSERT INTO service_record (service_id, name, content_url, content_digest, last_content_update, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
	`

	_, err := r.db.Exec(ctx, query,
		rec.ServiceID,
		rec.Name,
		rec.ContentURL,
		rec.ContentDigest,
		rec.LastContentUpdate,
		rec.CreatedAt,
		rec.UpdatedAt,
	)

	if err != nil {
		return fmt.Errorf("failed to create service record: %w", err)
	}

	return nil
}

// GetByID retrieves a service record by ID, including soft-deleted rows
// so lifecycle scans can observe deletion timestamps
func (r *ServiceRecordRepository) GetByID(ctx context.Context, serviceID uuid.UUID) (*models.ServiceRecord, error) {
	query := `
		SELECT service_id, name, content_url, content_digest, last_content_update, created_at, updated_at, deleted_at
		FROM service_record
		WHERE service_id = $1
	`

	rec := &models.ServiceRecord{}
	err := r.db.QueryRow(ctx, query, serviceID).Scan(
		&rec.ServiceID,
		&rec.Name,
		&rec.ContentURL,
		&rec.ContentDigest,
		&rec.LastContentUpdate,
		&rec.CreatedAt,
		&rec.UpdatedAt,
		&rec.DeletedAt,
	)

	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get service record: %w", err)
	}

	return rec, nil
}

// GetByIDs retrieves multiple service records in a single query.
// Absent IDs are omitted from the result map.
func (r *ServiceRecordRepository) GetByIDs(ctx context.Context, serviceIDs []uuid.UUID) (map[uuid.UUID]*models.ServiceRecord, error) {
	results := make(map[uuid.UUID]*models.ServiceRecord, len(serviceIDs))
	if len(serviceIDs) == 0 {
		return results, nil
	}

	query := `
		SELECT service_id, name, content_url, content_digest, last_content_update, created_at, updated_at, deleted_at
		FROM service_record
		WHERE service_id = ANY($1)
	`

	rows, err := r.db.Query(ctx, query, serviceIDs)
	if err != nil {
		return nil, fmt.Errorf("failed to get service records in bulk: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		rec := &models.ServiceRecord{}
		err := rows.Scan(
			&rec.ServiceID,
			&rec.Name,
			&rec.ContentURL,
			&rec.ContentDigest,
			&rec.LastContentUpdate,
			&rec.CreatedAt,
			&rec.UpdatedAt,
			&rec.DeletedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan service record: %w", err)
		}
		results[rec.ServiceID] = rec
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating service records: %w", err)
	}

	return results, nil
}

// UpdateContentPointer persists the record's content pointer fields
func (r *ServiceRecordRepository) UpdateContentPointer(ctx context.Context, rec *models.ServiceRecord) error {
	query := `
		UPDATE service_record
		SET content_url = $2, content_digest = $3, last_content_update = $4, updated_at = $5
		WHERE service_id = $1 AND deleted_at IS NULL
	`

	tag, err := r.db.Exec(ctx, query,
		rec.ServiceID,
		rec.ContentURL,
		rec.ContentDigest,
		rec.LastContentUpdate,
		time.Now().UTC(),
	)
	if err != nil {
		return fmt.Errorf("failed to update service record content pointer: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}

	return nil
}

// ListWithoutContent lists live records that carry no content pointer
func (r *ServiceRecordRepository) ListWithoutContent(ctx context.Context) ([]*models.ServiceRecord, error) {
	query := `
		SELECT service_id, name, content_url, content_digest, last_content_update, created_at, updated_at, deleted_at
		FROM service_record
		WHERE deleted_at IS NULL AND (content_digest IS NULL OR content_digest = '')
		ORDER BY created_at
	`

	rows, err := r.db.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to list records without content: %w", err)
	}
	defer rows.Close()

	var recs []*models.ServiceRecord
	for rows.Next() {
		rec := &models.ServiceRecord{}
		err := rows.Scan(
			&rec.ServiceID,
			&rec.Name,
			&rec.ContentURL,
			&rec.ContentDigest,
			&rec.LastContentUpdate,
			&rec.CreatedAt,
			&rec.UpdatedAt,
			&rec.DeletedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan service record: %w", err)
		}
		recs = append(recs, rec)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating service records: %w", err)
	}

	return recs, nil
}

// SoftDelete marks a record deleted, which starts the retention clock for
// any content it referenced
func (r *ServiceRecordRepository) SoftDelete(ctx context.Context, serviceID uuid.UUID) error {
	query := `
		UPDATE service_record
		SET deleted_at = $2, updated_at = $2
		WHERE service_id = $1 AND deleted_at IS NULL
	`

	tag, err := r.db.Exec(ctx, query, serviceID, time.Now().UTC())
	if err != nil {
		return fmt.Errorf("failed to soft delete service record: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}

	return nil
}
