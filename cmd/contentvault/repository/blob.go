package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/clinovia/contentvault/common/blob"
	"github.com/clinovia/contentvault/common/db"
	"github.com/jackc/pgx/v5"
)

// PostgresBlobStore implements blob.Store over the content_blob table,
// storing object bytes inline (bytea). Content addressing makes the
// insert conflict-free: an existing row under the same path already holds
// the same bytes.
type PostgresBlobStore struct {
	db *db.DB
}

// NewPostgresBlobStore creates a Postgres-backed object store
func NewPostgresBlobStore(db *db.DB) *PostgresBlobStore {
	return &PostgresBlobStore{db: db}
}

// Put inserts an object; re-inserting the same path is a no-op
func (s *PostgresBlobStore) Put(ctx context.Context, key string, data []byte, opts blob.PutOptions) error {
	query := `
		INSERT INTO content_blob (blob_path, content, content_type, size_bytes, access_tier, created_by, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		ON CONFLICT (blob_path) DO NOTHING
	`

	_, err := s.db.Exec(ctx, query,
		key,
		data,
		opts.ContentType,
		int64(len(data)),
		opts.AccessTier,
		opts.CreatedBy,
		time.Now().UTC(),
	)

	if err != nil {
		return fmt.Errorf("failed to put blob %s: %w", key, err)
	}

	return nil
}

// Get retrieves an object by key
func (s *PostgresBlobStore) Get(ctx context.Context, key string) (*blob.Object, error) {
	query := `
		SELECT blob_path, content, content_type, size_bytes, access_tier, created_by, created_at
		FROM content_blob
		WHERE blob_path = $1
	`

	obj := &blob.Object{}
	err := s.db.QueryRow(ctx, query, key).Scan(
		&obj.Key,
		&obj.Data,
		&obj.ContentType,
		&obj.SizeBytes,
		&obj.AccessTier,
		&obj.CreatedBy,
		&obj.CreatedAt,
	)

	if errors.Is(err, pgx.ErrNoRows) {
		return nil, blob.ErrObjectNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get blob %s: %w", key, err)
	}

	return obj, nil
}

// Stat retrieves object metadata without the payload
func (s *PostgresBlobStore) Stat(ctx context.Context, key string) (*blob.ObjectInfo, error) {
	query := `
		SELECT blob_path, content_type, size_bytes, access_tier, created_by, created_at
		FROM content_blob
		WHERE blob_path = $1
	`

	info := &blob.ObjectInfo{}
	err := s.db.QueryRow(ctx, query, key).Scan(
		&info.Key,
		&info.ContentType,
		&info.SizeBytes,
		&info.AccessTier,
		&info.CreatedBy,
		&info.CreatedAt,
	)

	if errors.Is(err, pgx.ErrNoRows) {
		return nil, blob.ErrObjectNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to stat blob %s: %w", key, err)
	}

	return info, nil
}

// Exists checks if a blob is present
func (s *PostgresBlobStore) Exists(ctx context.Context, key string) (bool, error) {
	query := `SELECT EXISTS(SELECT 1 FROM content_blob WHERE blob_path = $1)`

	var exists bool
	if err := s.db.QueryRow(ctx, query, key).Scan(&exists); err != nil {
		return false, fmt.Errorf("failed to check blob existence: %w", err)
	}

	return exists, nil
}

// List returns metadata for all blobs under prefix, ordered by key
func (s *PostgresBlobStore) List(ctx context.Context, prefix string) ([]blob.ObjectInfo, error) {
	query := `
		SELECT blob_path, content_type, size_bytes, access_tier, created_by, created_at
		FROM content_blob
		WHERE blob_path LIKE $1 || '%'
		ORDER BY blob_path
	`

	rows, err := s.db.Query(ctx, query, prefix)
	if err != nil {
		return nil, fmt.Errorf("failed to list blobs: %w", err)
	}
	defer rows.Close()

	var infos []blob.ObjectInfo
	for rows.Next() {
		var info blob.ObjectInfo
		err := rows.Scan(
			&info.Key,
			&info.ContentType,
			&info.SizeBytes,
			&info.AccessTier,
			&info.CreatedBy,
			&info.CreatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan blob info: %w", err)
		}
		infos = append(infos, info)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating blobs: %w", err)
	}

	return infos, nil
}

// Delete removes a blob; deleting an absent key is not an error
func (s *PostgresBlobStore) Delete(ctx context.Context, key string) error {
	query := `DELETE FROM content_blob WHERE blob_path = $1`

	if _, err := s.db.Exec(ctx, query, key); err != nil {
		return fmt.Errorf("failed to delete blob %s: %w", key, err)
	}

	return nil
}

// Close is a no-op; the pool is owned by bootstrap
func (s *PostgresBlobStore) Close() error {
	return nil
}
