package service

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/clinovia/contentvault/cmd/contentvault/models"
	"github.com/clinovia/contentvault/common/blob"
	"github.com/clinovia/contentvault/common/cache"
	"github.com/clinovia/contentvault/common/logger"
	"github.com/clinovia/contentvault/common/telemetry"
	"github.com/google/uuid"
)

// CacheKeyForDigest builds the preferred cache key for a content digest
func CacheKeyForDigest(digest string) string {
	return "content:hash:" + digest
}

// cacheKeyForURL builds the fallback cache key when no digest can be
// parsed from the URL
func cacheKeyForURL(rawURL string) string {
	sum := sha256.Sum256([]byte(rawURL))
	return "content:url:" + hex.EncodeToString(sum[:])
}

// RetrievalService reads content through the two-tier cache. The cache
// is consulted first; on a miss the object store is read, the cache is
// populated with a bounded TTL and an audit entry is recorded. A cache
// outage degrades latency only, the store stays authoritative.
type RetrievalService struct {
	cache   cache.Cache
	store   blob.Store
	addr    *AddressService
	audit   *AuditService
	metrics *telemetry.Metrics
	ttl     time.Duration
	log     *logger.Logger
}

// NewRetrievalService creates a new retrieval service. metrics is
// optional; ttl bounds how long cache entries live.
func NewRetrievalService(
	c cache.Cache,
	store blob.Store,
	addr *AddressService,
	audit *AuditService,
	metrics *telemetry.Metrics,
	ttl time.Duration,
	log *logger.Logger,
) *RetrievalService {
	if ttl <= 0 {
		ttl = time.Hour
	}
	return &RetrievalService{
		cache:   c,
		store:   store,
		addr:    addr,
		audit:   audit,
		metrics: metrics,
		ttl:     ttl,
		log:     log,
	}
}

// GetByURL fetches content by its delivery URL. The cache key prefers
// the digest parsed from the URL; URLs whose file segment cannot be
// parsed fall back to a hash of the full URL.
func (s *RetrievalService) GetByURL(ctx context.Context, rawURL string) (*models.RetrievalResult, error) {
	ownerID, digest, extension, err := s.addr.ParseURL(rawURL)
	if err == nil {
		cacheKey := CacheKeyForDigest(digest)
		blobPath := s.addr.BuildPath(ownerID, digest, extension)
		return s.fetch(ctx, ownerID, rawURL, blobPath, cacheKey, digest)
	}

	blobPath, perr := s.addr.PathFromURL(rawURL)
	if perr != nil {
		return nil, perr
	}

	return s.fetch(ctx, uuid.Nil, rawURL, blobPath, cacheKeyForURL(rawURL), "")
}

// GetByAddress fetches content by structured identity, bypassing URL
// parsing entirely
func (s *RetrievalService) GetByAddress(ctx context.Context, ownerID uuid.UUID, digest, extension string) (*models.RetrievalResult, error) {
	if ownerID == uuid.Nil {
		return nil, fmt.Errorf("%w: owner id is required", ErrValidation)
	}
	if !IsValidDigest(digest) {
		return nil, fmt.Errorf("%w: digest must be %d lowercase hex chars", ErrValidation, DigestLength)
	}

	blobPath := s.addr.BuildPath(ownerID, digest, extension)
	deliveryURL := s.addr.BuildURL(ownerID, digest, extension)
	return s.fetch(ctx, ownerID, deliveryURL, blobPath, CacheKeyForDigest(digest), digest)
}

// PreWarm populates the cache for a URL ahead of first read. Fetch
// failures are soft: logged and reported as false, never returned.
func (s *RetrievalService) PreWarm(ctx context.Context, rawURL string) bool {
	if _, err := s.GetByURL(ctx, rawURL); err != nil {
		s.log.Warn("cache prewarm failed", "url", rawURL, "error", err)
		return false
	}
	return true
}

// fetch is the shared cache-aside read path
func (s *RetrievalService) fetch(
	ctx context.Context,
	ownerID uuid.UUID,
	deliveryURL, blobPath, cacheKey, digestHint string,
) (*models.RetrievalResult, error) {
	if entry, ok := s.cacheGet(ctx, cacheKey); ok {
		if s.metrics != nil {
			s.metrics.CacheHits.Inc()
			s.metrics.Retrievals.WithLabelValues("cache").Inc()
		}
		return &models.RetrievalResult{
			Content:     entry.Body,
			ContentType: entry.ContentType,
			CacheHit:    true,
			CacheKey:    cacheKey,
			SizeBytes:   int64(len(entry.Body)),
			Digest:      digestHint,
			RetrievedAt: time.Now().UTC(),
		}, nil
	}

	if s.metrics != nil {
		s.metrics.CacheMisses.Inc()
	}

	obj, err := s.store.Get(ctx, blobPath)
	if errors.Is(err, blob.ErrObjectNotFound) {
		return nil, fmt.Errorf("%w: object %s", ErrNotFound, blobPath)
	}
	if err != nil {
		return nil, fmt.Errorf("%w: get %s: %v", ErrStorage, blobPath, err)
	}

	digest := digestHint
	if digest == "" {
		digest = ComputeDigest(obj.Data)
	}

	correlationID := uuid.NewString()
	auditCtx := s.audit.CreateContext(ownerID, digest, models.OperationRetrieve, "system")
	auditCtx["cache_key"] = cacheKey
	auditCtx["cache_hit"] = false
	auditCtx["size_bytes"] = obj.SizeBytes

	if _, err := s.audit.LogOperation(ctx, ownerID, deliveryURL, models.OperationRetrieve, "system", correlationID, auditCtx); err != nil {
		return nil, err
	}

	// Populate the cache only once the read is audited. Cache hits skip
	// the trail, so an entry must never outlive a failed audit append.
	s.cacheSet(ctx, cacheKey, &models.CachedContent{
		ContentType: obj.ContentType,
		Body:        obj.Data,
	})

	if s.metrics != nil {
		s.metrics.Retrievals.WithLabelValues("store").Inc()
	}

	return &models.RetrievalResult{
		Content:     obj.Data,
		ContentType: obj.ContentType,
		CacheHit:    false,
		CacheKey:    cacheKey,
		SizeBytes:   obj.SizeBytes,
		Digest:      digest,
		RetrievedAt: time.Now().UTC(),
	}, nil
}

// cacheGet reads the cache, treating any failure or corrupt envelope as
// a plain miss
func (s *RetrievalService) cacheGet(ctx context.Context, key string) (*models.CachedContent, bool) {
	val, found, err := s.cache.Get(ctx, key)
	if err != nil {
		s.log.Warn("cache read failed, treating as miss", "key", key, "error", err)
		return nil, false
	}
	if !found {
		return nil, false
	}

	var entry models.CachedContent
	if err := json.Unmarshal(val, &entry); err != nil {
		s.log.Warn("corrupt cache entry, dropping", "key", key, "error", err)
		_ = s.cache.Delete(ctx, key)
		return nil, false
	}

	return &entry, true
}

// cacheSet populates the cache; failures are logged and swallowed
func (s *RetrievalService) cacheSet(ctx context.Context, key string, entry *models.CachedContent) {
	encoded, err := json.Marshal(entry)
	if err != nil {
		s.log.Warn("failed to encode cache entry", "key", key, "error", err)
		return
	}
	if err := s.cache.Set(ctx, key, encoded, s.ttl); err != nil {
		s.log.Warn("cache write failed", "key", key, "error", err)
	}
}
