package models

import (
	"time"

	"github.com/google/uuid"
)

// OrphanedContentReference is a transient scan result: a stored object no
// longer referenced by any live owning record. Advisory only; eligibility
// is re-verified at deletion time.
type OrphanedContentReference struct {
	ContentURL string `json:"content_url"`
	BlobPath   string `json:"blob_path"`
	Digest     string `json:"digest"`
	SizeBytes  int64  `json:"size_bytes"`

	// LastReferencedAt starts the retention clock: the owning record's
	// last content update, its deletion time, or the object's creation
	// time when no record was ever observed
	LastReferencedAt time.Time `json:"last_referenced_at"`

	CreatedAt time.Time  `json:"created_at"`
	OwnerID   *uuid.UUID `json:"owner_id,omitempty"`
}

// CleanupSummary reports one lifecycle cleanup run. Per-item failures are
// collected, never fatal for the run.
type CleanupSummary struct {
	Scanned        int           `json:"scanned"`
	Eligible       int           `json:"eligible"`
	Cleaned        int           `json:"cleaned"`
	Archived       int           `json:"archived"`
	RetentionUsed  time.Duration `json:"retention_used"`
	CompletedAt    time.Time     `json:"completed_at"`
	CorrelationID  string        `json:"correlation_id"`
	BytesReclaimed int64         `json:"bytes_reclaimed"`
	CleanedURLs    []string      `json:"cleaned_urls,omitempty"`
	Errors         []string      `json:"errors,omitempty"`
}

// ArchiveResult reports a cold-storage copy pass
type ArchiveResult struct {
	ArchivedCount   int       `json:"archived_count"`
	ArchiveLocation string    `json:"archive_location"`
	ArchivedAt      time.Time `json:"archived_at"`
	CorrelationID   string    `json:"correlation_id"`
}
