package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/clinovia/contentvault/common/db"
)

// EnsureSchema creates the tables the repositories depend on. Idempotent,
// intended as a bootstrap DB init hook.
func EnsureSchema(d *db.DB) error {
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	statements := []string{
		`CREATE TABLE IF NOT EXISTS service_record (
			service_id UUID PRIMARY KEY,
			name TEXT NOT NULL,
			content_url TEXT,
			content_digest TEXT,
			last_content_update TIMESTAMPTZ,
			created_at TIMESTAMPTZ NOT NULL DEFAULT now(),
			updated_at TIMESTAMPTZ NOT NULL DEFAULT now(),
			deleted_at TIMESTAMPTZ
		)`,
		`CREATE TABLE IF NOT EXISTS content_audit (
			audit_id UUID PRIMARY KEY,
			service_id UUID NOT NULL,
			content_url TEXT NOT NULL,
			operation TEXT NOT NULL,
			actor_id TEXT NOT NULL,
			correlation_id TEXT NOT NULL,
			context JSONB,
			created_at TIMESTAMPTZ NOT NULL DEFAULT now()
		)`,
		`CREATE INDEX IF NOT EXISTS idx_content_audit_service ON content_audit (service_id, created_at DESC)`,
		`CREATE INDEX IF NOT EXISTS idx_content_audit_correlation ON content_audit (correlation_id)`,
		`CREATE TABLE IF NOT EXISTS content_blob (
			blob_path TEXT PRIMARY KEY,
			content BYTEA NOT NULL,
			content_type TEXT NOT NULL DEFAULT '',
			size_bytes BIGINT NOT NULL,
			access_tier TEXT NOT NULL DEFAULT '',
			created_by TEXT NOT NULL DEFAULT '',
			created_at TIMESTAMPTZ NOT NULL DEFAULT now()
		)`,
	}

	for _, stmt := range statements {
		if _, err := d.Exec(ctx, stmt); err != nil {
			return fmt.Errorf("failed to ensure schema: %w", err)
		}
	}

	return nil
}
