package models

import (
	"time"

	"github.com/google/uuid"
)

// ServiceRecord is the owning record a content object can be attached to.
// Records are soft-deleted so the orphan retention clock can start from
// the deletion timestamp.
// Maps to: service_record table
type ServiceRecord struct {
	ServiceID uuid.UUID `db:"service_id" json:"service_id"`
	Name      string    `db:"name" json:"name"`

	// Content pointer fields, nil until content is attached
	ContentURL        *string    `db:"content_url" json:"content_url,omitempty"`
	ContentDigest     *string    `db:"content_digest" json:"content_digest,omitempty"`
	LastContentUpdate *time.Time `db:"last_content_update" json:"last_content_update,omitempty"`

	CreatedAt time.Time  `db:"created_at" json:"created_at"`
	UpdatedAt time.Time  `db:"updated_at" json:"updated_at"`
	DeletedAt *time.Time `db:"deleted_at" json:"deleted_at,omitempty"`
}

// HasContent reports whether the record carries a live content pointer
func (r *ServiceRecord) HasContent() bool {
	return r.ContentDigest != nil && *r.ContentDigest != ""
}

// IsDeleted reports whether the record was soft-deleted
func (r *ServiceRecord) IsDeleted() bool {
	return r.DeletedAt != nil
}

// References reports whether the record currently points at digest
func (r *ServiceRecord) References(digest string) bool {
	return !r.IsDeleted() && r.ContentDigest != nil && *r.ContentDigest == digest
}
