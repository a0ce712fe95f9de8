package models

import "time"

// UploadResult describes a completed content upload
type UploadResult struct {
	// Public delivery URL
	URL string `json:"url"`

	// SHA-256 of the content bytes, 64 lowercase hex chars.
	// The digest is the object's identity within its owner namespace.
	Digest string `json:"digest"`

	// Object store key
	BlobPath string `json:"blob_path"`

	SizeBytes   int64     `json:"size_bytes"`
	ContentType string    `json:"content_type"`
	UploadedAt  time.Time `json:"uploaded_at"`
	UploadedBy  string    `json:"uploaded_by"`
}

// RetrievalResult describes a content read, including cache provenance
type RetrievalResult struct {
	Content     []byte    `json:"content"`
	ContentType string    `json:"content_type"`
	CacheHit    bool      `json:"cache_hit"`
	CacheKey    string    `json:"cache_key"`
	SizeBytes   int64     `json:"size_bytes"`
	Digest      string    `json:"digest,omitempty"`
	RetrievedAt time.Time `json:"retrieved_at"`
}

// CachedContent is the envelope stored in the two-tier cache.
// The cache is a derived index only; the object store stays authoritative.
type CachedContent struct {
	ContentType string `json:"content_type"`
	Body        []byte `json:"body"`
}
