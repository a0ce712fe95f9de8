package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/clinovia/contentvault/cmd/contentvault/models"
	"github.com/clinovia/contentvault/cmd/contentvault/repository"
	"github.com/clinovia/contentvault/common/blob"
	"github.com/clinovia/contentvault/common/cache"
	"github.com/clinovia/contentvault/common/config"
	"github.com/clinovia/contentvault/common/logger"
	"github.com/clinovia/contentvault/common/telemetry"
	"github.com/google/uuid"
)

// LifecycleService reclaims storage held by content no live record
// references. Objects move through orphaned, eligible, optionally
// archived, then deleted; every transition is audited. Deletion is
// deliberately conservative: eligibility is re-verified against fresh
// record state immediately before each delete, so a scan result going
// stale can never destroy content that was re-attached in between.
type LifecycleService struct {
	store   blob.Store
	archive blob.Store
	records RecordStore
	addr    *AddressService
	audit   *AuditService
	cache   cache.Cache
	policy  *RetentionPolicy
	metrics *telemetry.Metrics
	cfg     config.LifecycleConfig
	log     *logger.Logger
}

// NewLifecycleService creates a lifecycle service. archive, cache,
// policy and metrics are optional; a nil archive disables archival
// regardless of configuration.
func NewLifecycleService(
	store blob.Store,
	archive blob.Store,
	records RecordStore,
	addr *AddressService,
	audit *AuditService,
	c cache.Cache,
	policy *RetentionPolicy,
	metrics *telemetry.Metrics,
	cfg config.LifecycleConfig,
	log *logger.Logger,
) *LifecycleService {
	return &LifecycleService{
		store:   store,
		archive: archive,
		records: records,
		addr:    addr,
		audit:   audit,
		cache:   c,
		policy:  policy,
		metrics: metrics,
		cfg:     cfg,
		log:     log,
	}
}

// IdentifyOrphaned walks the object store and returns objects whose
// owning record is gone, soft-deleted, or pointing at different content,
// provided the reference went stale more than olderThan ago. The result
// is advisory: records can change between scan and cleanup.
func (s *LifecycleService) IdentifyOrphaned(ctx context.Context, olderThan time.Duration) ([]*models.OrphanedContentReference, error) {
	objects, err := s.store.List(ctx, s.addr.Prefix()+"/")
	if err != nil {
		return nil, fmt.Errorf("%w: list objects: %v", ErrStorage, err)
	}

	type parsedObject struct {
		info      blob.ObjectInfo
		ownerID   uuid.UUID
		digest    string
		extension string
	}

	parsed := make([]parsedObject, 0, len(objects))
	ownerIDs := make([]uuid.UUID, 0, len(objects))
	seen := make(map[uuid.UUID]bool)

	for _, info := range objects {
		ownerID, digest, extension, perr := s.addr.ParsePath(info.Key)
		if perr != nil {
			// Foreign keys under the prefix are not ours to reclaim
			s.log.Warn("skipping unparseable object key", "key", info.Key, "error", perr)
			continue
		}
		parsed = append(parsed, parsedObject{info: info, ownerID: ownerID, digest: digest, extension: extension})
		if !seen[ownerID] {
			seen[ownerID] = true
			ownerIDs = append(ownerIDs, ownerID)
		}
	}

	records, err := s.records.GetByIDs(ctx, ownerIDs)
	if err != nil {
		return nil, fmt.Errorf("failed to load owning records: %w", err)
	}

	cutoff := time.Now().UTC().Add(-olderThan)
	orphans := make([]*models.OrphanedContentReference, 0)

	for _, obj := range parsed {
		rec := records[obj.ownerID]
		if rec != nil && !rec.IsDeleted() && rec.References(obj.digest) {
			continue
		}

		lastReferenced := referenceClock(rec, obj.info.CreatedAt)
		if lastReferenced.After(cutoff) {
			continue
		}

		ownerID := obj.ownerID
		orphans = append(orphans, &models.OrphanedContentReference{
			ContentURL:       s.addr.BuildURL(ownerID, obj.digest, obj.extension),
			BlobPath:         obj.info.Key,
			Digest:           obj.digest,
			SizeBytes:        obj.info.SizeBytes,
			LastReferencedAt: lastReferenced,
			CreatedAt:        obj.info.CreatedAt,
			OwnerID:          &ownerID,
		})
	}

	s.log.Info("orphan scan completed",
		"objects", len(objects),
		"orphaned", len(orphans),
		"older_than", olderThan,
	)

	return orphans, nil
}

// Cleanup runs one full reclamation pass: scan, per-object
// re-verification, optional archive, delete, cache invalidation and
// audit. Individual failures are collected into the summary; only
// scan-level failures abort the run.
func (s *LifecycleService) Cleanup(ctx context.Context) (*models.CleanupSummary, error) {
	if s.cfg.RunTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.cfg.RunTimeout)
		defer cancel()
	}

	correlationID := uuid.NewString()
	log := s.log.WithCorrelationID(correlationID)

	orphans, err := s.IdentifyOrphaned(ctx, s.cfg.RetentionPeriod)
	if err != nil {
		return nil, err
	}

	summary := &models.CleanupSummary{
		Scanned:       len(orphans),
		RetentionUsed: s.cfg.RetentionPeriod,
		CorrelationID: correlationID,
	}

	if s.cfg.MaxItems > 0 && len(orphans) > s.cfg.MaxItems {
		log.Info("capping cleanup batch", "orphaned", len(orphans), "max_items", s.cfg.MaxItems)
		orphans = orphans[:s.cfg.MaxItems]
	}

	for _, ref := range orphans {
		if ctx.Err() != nil {
			summary.Errors = append(summary.Errors, fmt.Sprintf("%s: run cancelled: %v", ref.BlobPath, ctx.Err()))
			break
		}

		eligible, reason, verr := s.verifyEligible(ctx, ref)
		if verr != nil {
			summary.Errors = append(summary.Errors, fmt.Sprintf("%s: %v", ref.BlobPath, verr))
			continue
		}
		if !eligible {
			log.Info("object no longer eligible, skipping", "blob_path", ref.BlobPath, "reason", reason)
			continue
		}
		summary.Eligible++

		if s.archiveEnabled() {
			if aerr := s.archiveObject(ctx, ref, correlationID); aerr != nil {
				summary.Errors = append(summary.Errors, fmt.Sprintf("%s: archive: %v", ref.BlobPath, aerr))
				if s.cfg.ArchiveRequired {
					log.Warn("archive failed and is required, keeping object", "blob_path", ref.BlobPath, "error", aerr)
					continue
				}
			} else {
				summary.Archived++
			}
		}

		if derr := s.store.Delete(ctx, ref.BlobPath); derr != nil && !errors.Is(derr, blob.ErrObjectNotFound) {
			summary.Errors = append(summary.Errors, fmt.Sprintf("%s: delete: %v", ref.BlobPath, derr))
			continue
		}

		if s.cache != nil {
			if cerr := s.cache.Delete(ctx, CacheKeyForDigest(ref.Digest)); cerr != nil {
				log.Warn("cache invalidation failed", "digest", ref.Digest, "error", cerr)
			}
		}

		summary.Cleaned++
		summary.BytesReclaimed += ref.SizeBytes
		summary.CleanedURLs = append(summary.CleanedURLs, ref.ContentURL)

		if s.metrics != nil {
			s.metrics.CleanupDeleted.Inc()
			s.metrics.BytesReclaimed.Add(float64(ref.SizeBytes))
		}

		ownerID := uuid.Nil
		if ref.OwnerID != nil {
			ownerID = *ref.OwnerID
		}
		auditCtx := s.audit.CreateContext(ownerID, ref.Digest, models.OperationCleanup, "lifecycle")
		auditCtx["blob_path"] = ref.BlobPath
		auditCtx["size_bytes"] = ref.SizeBytes
		auditCtx["last_referenced_at"] = ref.LastReferencedAt.Format(time.RFC3339Nano)
		if _, aerr := s.audit.LogOperation(ctx, ownerID, ref.ContentURL, models.OperationCleanup, "lifecycle", correlationID, auditCtx); aerr != nil {
			summary.Errors = append(summary.Errors, fmt.Sprintf("%s: audit: %v", ref.BlobPath, aerr))
		}
	}

	summary.CompletedAt = time.Now().UTC()

	summaryCtx := models.AuditContext{
		"scanned":         summary.Scanned,
		"eligible":        summary.Eligible,
		"cleaned":         summary.Cleaned,
		"archived":        summary.Archived,
		"bytes_reclaimed": summary.BytesReclaimed,
		"errors":          len(summary.Errors),
		"retention_used":  summary.RetentionUsed.String(),
	}
	if _, aerr := s.audit.LogOperation(ctx, uuid.Nil, "", models.OperationCleanup, "lifecycle", correlationID, summaryCtx); aerr != nil {
		summary.Errors = append(summary.Errors, fmt.Sprintf("summary audit: %v", aerr))
	}

	log.Info("cleanup run completed",
		"scanned", summary.Scanned,
		"eligible", summary.Eligible,
		"cleaned", summary.Cleaned,
		"archived", summary.Archived,
		"bytes_reclaimed", summary.BytesReclaimed,
		"errors", len(summary.Errors),
	)

	return summary, nil
}

// verifyEligible re-checks one orphan against fresh record state, the
// age rules and the retention policy. Scan results are advisory; this
// check is the one that gates deletion.
func (s *LifecycleService) verifyEligible(ctx context.Context, ref *models.OrphanedContentReference) (bool, string, error) {
	now := time.Now().UTC()

	ownerExists := false
	ownerDeleted := false
	if ref.OwnerID != nil {
		rec, err := s.records.GetByID(ctx, *ref.OwnerID)
		switch {
		case errors.Is(err, repository.ErrNotFound):
		case err != nil:
			return false, "", fmt.Errorf("verify record: %w", err)
		default:
			ownerExists = !rec.IsDeleted()
			ownerDeleted = rec.IsDeleted()
			if !rec.IsDeleted() && rec.References(ref.Digest) {
				return false, "record re-attached", nil
			}
			// The record may have moved since the scan; restart the
			// clock from its current state
			ref.LastReferencedAt = referenceClock(rec, ref.CreatedAt)
		}
	}

	if now.Sub(ref.LastReferencedAt) < s.cfg.RetentionPeriod {
		return false, "within retention period", nil
	}
	if now.Sub(ref.CreatedAt) < s.cfg.GracePeriod {
		return false, "within grace period", nil
	}

	allowed, err := s.policy.Allows(ref, now, ownerExists, ownerDeleted)
	if err != nil {
		return false, "", err
	}
	if !allowed {
		return false, "retention policy denied", nil
	}

	return true, "", nil
}

// Archive copies orphaned objects into cold storage without deleting
// them, for operators who want a dry-run style preservation pass
func (s *LifecycleService) Archive(ctx context.Context, refs []*models.OrphanedContentReference) (*models.ArchiveResult, error) {
	if s.archive == nil {
		return nil, fmt.Errorf("%w: archive store not configured", ErrValidation)
	}

	correlationID := uuid.NewString()
	result := &models.ArchiveResult{
		ArchiveLocation: s.cfg.ArchivePath,
		CorrelationID:   correlationID,
	}

	for _, ref := range refs {
		if err := s.archiveObject(ctx, ref, correlationID); err != nil {
			return nil, err
		}
		result.ArchivedCount++
	}

	result.ArchivedAt = time.Now().UTC()
	return result, nil
}

// archiveObject copies one object into the archive store under a
// date-tagged key and audits the copy
func (s *LifecycleService) archiveObject(ctx context.Context, ref *models.OrphanedContentReference, correlationID string) error {
	obj, err := s.store.Get(ctx, ref.BlobPath)
	if err != nil {
		return fmt.Errorf("read for archive: %w", err)
	}

	archiveKey := fmt.Sprintf("archive/%s/%s", time.Now().UTC().Format("2006-01-02"), ref.BlobPath)
	if err := s.archive.Put(ctx, archiveKey, obj.Data, blob.PutOptions{
		ContentType: obj.ContentType,
		AccessTier:  "cold",
		CreatedBy:   "lifecycle",
	}); err != nil {
		return fmt.Errorf("write archive copy: %w", err)
	}

	ownerID := uuid.Nil
	if ref.OwnerID != nil {
		ownerID = *ref.OwnerID
	}
	auditCtx := s.audit.CreateContext(ownerID, ref.Digest, models.OperationArchive, "lifecycle")
	auditCtx["blob_path"] = ref.BlobPath
	auditCtx["archive_key"] = archiveKey
	auditCtx["size_bytes"] = ref.SizeBytes
	if _, err := s.audit.LogOperation(ctx, ownerID, ref.ContentURL, models.OperationArchive, "lifecycle", correlationID, auditCtx); err != nil {
		return err
	}

	return nil
}

func (s *LifecycleService) archiveEnabled() bool {
	return s.cfg.ArchiveEnabled && s.archive != nil
}

// referenceClock picks the timestamp the retention clock runs from: the
// record's deletion time, its last content update, or the object's own
// creation time when no record was ever observed
func referenceClock(rec *models.ServiceRecord, objectCreatedAt time.Time) time.Time {
	if rec == nil {
		return objectCreatedAt
	}
	if rec.DeletedAt != nil {
		return *rec.DeletedAt
	}
	if rec.LastContentUpdate != nil {
		return *rec.LastContentUpdate
	}
	return objectCreatedAt
}
