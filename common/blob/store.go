package blob

import (
	"context"
	"errors"
	"time"
)

// ErrObjectNotFound is returned when a key has no stored object
var ErrObjectNotFound = errors.New("object not found")

// ObjectInfo describes a stored object without its payload
type ObjectInfo struct {
	Key         string    `json:"key"`
	SizeBytes   int64     `json:"size_bytes"`
	ContentType string    `json:"content_type"`
	AccessTier  string    `json:"access_tier,omitempty"`
	CreatedBy   string    `json:"created_by,omitempty"`
	CreatedAt   time.Time `json:"created_at"`
}

// Object is a stored object with its payload
type Object struct {
	ObjectInfo
	Data []byte `json:"data"`
}

// PutOptions carries object metadata for writes
type PutOptions struct {
	ContentType string
	AccessTier  string
	CreatedBy   string
}

// Store is the object store contract: key -> bytes plus minimal metadata.
// Keys are blob paths ("{prefix}/{ownerId}/{digest}.{ext}"). Writing the
// same key twice is safe; under content addressing identical keys imply
// identical bytes.
type Store interface {
	Put(ctx context.Context, key string, data []byte, opts PutOptions) error
	Get(ctx context.Context, key string) (*Object, error)
	Stat(ctx context.Context, key string) (*ObjectInfo, error)
	Exists(ctx context.Context, key string) (bool, error)
	List(ctx context.Context, prefix string) ([]ObjectInfo, error)
	Delete(ctx context.Context, key string) error
	Close() error
}
