package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"mime"
	"time"

	jsonpatch "github.com/evanphx/json-patch/v5"
	"github.com/clinovia/contentvault/cmd/contentvault/models"
	"github.com/clinovia/contentvault/cmd/contentvault/repository"
	"github.com/clinovia/contentvault/common/blob"
	"github.com/clinovia/contentvault/common/logger"
	"github.com/clinovia/contentvault/common/queue"
	"github.com/clinovia/contentvault/common/telemetry"
	"github.com/google/uuid"
)

// RecordStore is the owning-record contract the writer and lifecycle
// manager depend on
type RecordStore interface {
	GetByID(ctx context.Context, serviceID uuid.UUID) (*models.ServiceRecord, error)
	GetByIDs(ctx context.Context, serviceIDs []uuid.UUID) (map[uuid.UUID]*models.ServiceRecord, error)
	UpdateContentPointer(ctx context.Context, rec *models.ServiceRecord) error
}

// UploadService persists content to the object store at its derived
// address. Writes are idempotent: identical bytes under the same owner
// always land at the same address, so overwrite is a safe no-op.
type UploadService struct {
	store   blob.Store
	addr    *AddressService
	audit   *AuditService
	records RecordStore
	queue   queue.Queue
	metrics *telemetry.Metrics
	log     *logger.Logger
}

// NewUploadService creates a new upload service. queue and metrics are
// optional.
func NewUploadService(
	store blob.Store,
	addr *AddressService,
	audit *AuditService,
	records RecordStore,
	q queue.Queue,
	metrics *telemetry.Metrics,
	log *logger.Logger,
) *UploadService {
	return &UploadService{
		store:   store,
		addr:    addr,
		audit:   audit,
		records: records,
		queue:   q,
		metrics: metrics,
		log:     log,
	}
}

// Upload hashes content, writes it at its content address and records an
// audit entry. The audit write happens strictly after the storage write
// commits, so a cancelled upload never leaves an audit entry for bytes
// that were not stored.
func (s *UploadService) Upload(
	ctx context.Context,
	ownerID uuid.UUID,
	content []byte,
	contentType, actorID string,
) (*models.UploadResult, error) {
	if ownerID == uuid.Nil {
		return nil, fmt.Errorf("%w: owner id is required", ErrValidation)
	}
	if len(content) == 0 {
		return nil, fmt.Errorf("%w: content is empty", ErrValidation)
	}
	if actorID == "" {
		return nil, fmt.Errorf("%w: actor id is required", ErrValidation)
	}

	digest := ComputeDigest(content)
	extension := ExtensionForContentType(contentType)
	blobPath := s.addr.BuildPath(ownerID, digest, extension)
	deliveryURL := s.addr.BuildURL(ownerID, digest, extension)

	if err := s.store.Put(ctx, blobPath, content, blob.PutOptions{
		ContentType: contentType,
		CreatedBy:   actorID,
	}); err != nil {
		return nil, fmt.Errorf("%w: put %s: %v", ErrStorage, blobPath, err)
	}

	correlationID := uuid.NewString()
	auditCtx := s.audit.CreateContext(ownerID, digest, models.OperationUpload, actorID)
	auditCtx["size_bytes"] = len(content)
	auditCtx["content_type"] = contentType

	if _, err := s.audit.LogOperation(ctx, ownerID, deliveryURL, models.OperationUpload, actorID, correlationID, auditCtx); err != nil {
		return nil, err
	}

	if s.metrics != nil {
		s.metrics.Uploads.Inc()
	}

	result := &models.UploadResult{
		URL:         deliveryURL,
		Digest:      digest,
		BlobPath:    blobPath,
		SizeBytes:   int64(len(content)),
		ContentType: contentType,
		UploadedAt:  time.Now().UTC(),
		UploadedBy:  actorID,
	}

	s.log.Info("content uploaded",
		"owner_id", ownerID,
		"digest", digest,
		"blob_path", blobPath,
		"size_bytes", result.SizeBytes,
		"actor_id", actorID,
	)

	s.publishPrewarm(ctx, deliveryURL)

	return result, nil
}

// UploadAndAttach uploads content, then points the owning record at the
// new object. A record update failure after a successful blob write is
// not rolled back: the orphaned blob is reclaimable by the lifecycle
// manager later.
func (s *UploadService) UploadAndAttach(
	ctx context.Context,
	ownerID uuid.UUID,
	content []byte,
	contentType, actorID string,
) (*models.UploadResult, error) {
	result, err := s.Upload(ctx, ownerID, content, contentType, actorID)
	if err != nil {
		return nil, err
	}

	rec, err := s.records.GetByID(ctx, ownerID)
	if errors.Is(err, repository.ErrNotFound) {
		return nil, fmt.Errorf("%w: service record %s", ErrNotFound, ownerID)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load service record: %w", err)
	}
	if rec.IsDeleted() {
		return nil, fmt.Errorf("%w: service record %s is deleted", ErrNotFound, ownerID)
	}

	before, err := json.Marshal(rec)
	if err != nil {
		return nil, fmt.Errorf("failed to snapshot service record: %w", err)
	}

	now := time.Now().UTC()
	rec.ContentURL = &result.URL
	rec.ContentDigest = &result.Digest
	rec.LastContentUpdate = &now

	if err := s.records.UpdateContentPointer(ctx, rec); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, fmt.Errorf("%w: service record %s", ErrNotFound, ownerID)
		}
		return nil, fmt.Errorf("failed to update service record: %w", err)
	}

	auditCtx := s.audit.CreateContext(ownerID, result.Digest, models.OperationServiceContentUpdate, actorID)
	auditCtx["content_url"] = result.URL

	// Record the pointer mutation as an RFC 7386 merge patch so
	// compliance export can reconstruct exactly what changed
	after, err := json.Marshal(rec)
	if err == nil {
		if patch, perr := jsonpatch.CreateMergePatch(before, after); perr == nil {
			auditCtx["record_patch"] = json.RawMessage(patch)
		} else {
			s.log.Warn("failed to build record merge patch", "owner_id", ownerID, "error", perr)
		}
	}

	correlationID := uuid.NewString()
	if _, err := s.audit.LogOperation(ctx, ownerID, result.URL, models.OperationServiceContentUpdate, actorID, correlationID, auditCtx); err != nil {
		return nil, err
	}

	s.log.Info("service content updated",
		"owner_id", ownerID,
		"digest", result.Digest,
		"actor_id", actorID,
	)

	return result, nil
}

// publishPrewarm queues the delivery URL for asynchronous cache warming.
// Best effort: warming is an optimization, never part of the write
// contract.
func (s *UploadService) publishPrewarm(ctx context.Context, deliveryURL string) {
	if s.queue == nil {
		return
	}
	if err := s.queue.Publish(ctx, queue.TopicPrewarm, deliveryURL, []byte(deliveryURL)); err != nil {
		s.log.Warn("failed to queue cache prewarm", "url", deliveryURL, "error", err)
	}
}

// ExtensionForContentType maps a MIME type to the address extension
func ExtensionForContentType(contentType string) string {
	mediaType, _, err := mime.ParseMediaType(contentType)
	if err != nil {
		mediaType = contentType
	}

	switch mediaType {
	case "text/html":
		return "html"
	case "text/plain":
		return "txt"
	case "application/json":
		return "json"
	case "application/pdf":
		return "pdf"
	default:
		return "bin"
	}
}
