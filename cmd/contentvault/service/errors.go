package service

import "errors"

// Error taxonomy for content operations. Callers branch on these with
// errors.Is; the wrapped message carries the operation detail.
var (
	// ErrValidation marks malformed input rejected before any I/O
	ErrValidation = errors.New("validation failed")

	// ErrNotFound marks an absent owning record or stored object
	ErrNotFound = errors.New("not found")

	// ErrStorage marks an object store I/O failure, fatal for the
	// current operation
	ErrStorage = errors.New("storage failure")

	// ErrAudit marks a failed audit append. Fatal on upload/retrieve
	// paths: an unattributable content operation must not succeed.
	ErrAudit = errors.New("audit failure")
)
