package models

import (
	"time"

	"github.com/google/uuid"
)

// AuditOperation classifies an audited content operation
type AuditOperation string

const (
	OperationUpload   AuditOperation = "upload"
	OperationRetrieve AuditOperation = "retrieve"
	OperationCleanup  AuditOperation = "cleanup"
	OperationArchive  AuditOperation = "archive"

	// OperationServiceContentUpdate marks the owning record's content
	// pointer moving to a new object
	OperationServiceContentUpdate AuditOperation = "service_content_update"

	// OperationServiceDelete marks a record's soft deletion, the event
	// that starts the retention clock for its content
	OperationServiceDelete AuditOperation = "service_delete"
)

// AuditContext is the structured side-channel payload attached to an
// audit entry, stored as JSONB for compliance export
type AuditContext map[string]interface{}

// AuditEntry is one append-only row of the compliance trail.
// Entries are never mutated and never deleted before their owner object.
// Maps to: content_audit table
type AuditEntry struct {
	AuditID       uuid.UUID      `db:"audit_id" json:"audit_id"`
	ServiceID     uuid.UUID      `db:"service_id" json:"service_id"`
	ContentURL    string         `db:"content_url" json:"content_url"`
	Operation     AuditOperation `db:"operation" json:"operation"`
	ActorID       string         `db:"actor_id" json:"actor_id"`
	CorrelationID string         `db:"correlation_id" json:"correlation_id"`
	Context       AuditContext   `db:"context" json:"context,omitempty"`
	CreatedAt     time.Time      `db:"created_at" json:"created_at"`
}
