package container

import (
	"fmt"

	"github.com/redis/go-redis/v9"

	"github.com/clinovia/contentvault/cmd/contentvault/repository"
	"github.com/clinovia/contentvault/cmd/contentvault/service"
	"github.com/clinovia/contentvault/common/blob"
	"github.com/clinovia/contentvault/common/bootstrap"
	"github.com/clinovia/contentvault/common/cache"
	"github.com/clinovia/contentvault/common/ratelimit"
	rediscommon "github.com/clinovia/contentvault/common/redis"
	"github.com/clinovia/contentvault/common/telemetry"
)

// Container holds all initialized services and repositories (singleton pattern)
type Container struct {
	// Components
	Components *bootstrap.Components
	Redis      *rediscommon.Client
	RedisRaw   *redis.Client

	// Storage
	BlobStore    blob.Store
	ArchiveStore blob.Store
	Cache        cache.Cache

	// Repositories
	RecordRepo *repository.ServiceRecordRepository
	AuditRepo  *repository.AuditRepository

	// Services
	AddressService   *service.AddressService
	AuditService     *service.AuditService
	RecordService    *service.RecordService
	UploadService    *service.UploadService
	RetrievalService *service.RetrievalService
	LifecycleService *service.LifecycleService
	RetentionPolicy  *service.RetentionPolicy

	RateLimiter *ratelimit.RateLimiter

	closeFuncs []func() error
}

// NewContainer initializes all services and repositories once
func NewContainer(components *bootstrap.Components) (*Container, error) {
	c := &Container{Components: components}
	cfg := components.Config

	// Redis client backs both the distributed cache tier and rate limiting
	c.RedisRaw = redis.NewClient(&redis.Options{
		Addr:     cfg.RedisAddr(),
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	})
	c.Redis = rediscommon.NewClient(c.RedisRaw, components.Logger)
	c.closeFuncs = append(c.closeFuncs, c.RedisRaw.Close)

	// Two-tier cache: distributed primary, process-local fallback
	if cfg.Cache.Enabled && components.LocalCache != nil {
		c.Cache = cache.NewTieredCache(
			cache.NewRedisCache(c.Redis),
			components.LocalCache,
			components.Logger,
		)
	} else if components.LocalCache != nil {
		c.Cache = components.LocalCache
	} else {
		c.Cache = cache.NewMemoryCache(components.Logger)
	}

	store, err := c.createBlobStore()
	if err != nil {
		c.Close()
		return nil, err
	}
	c.BlobStore = store

	if cfg.Lifecycle.ArchiveEnabled {
		archive, err := blob.NewBadgerStore(cfg.Lifecycle.ArchivePath, components.Logger)
		if err != nil {
			c.Close()
			return nil, fmt.Errorf("failed to open archive store: %w", err)
		}
		c.ArchiveStore = archive
		c.closeFuncs = append(c.closeFuncs, archive.Close)
	}

	// Initialize repositories
	c.RecordRepo = repository.NewServiceRecordRepository(components.DB)
	c.AuditRepo = repository.NewAuditRepository(components.DB)

	// Initialize services (bottom-up: dependencies first)
	c.AddressService, err = service.NewAddressService(cfg.Storage.CDNBase, cfg.Storage.PathPrefix)
	if err != nil {
		c.Close()
		return nil, fmt.Errorf("failed to create address service: %w", err)
	}

	c.RetentionPolicy, err = service.NewRetentionPolicy(cfg.Lifecycle.Policy)
	if err != nil {
		c.Close()
		return nil, fmt.Errorf("failed to compile retention policy: %w", err)
	}

	c.AuditService = service.NewAuditService(c.AuditRepo, components.Logger)

	c.RecordService = service.NewRecordService(c.RecordRepo, c.AuditService, components.Logger)

	c.UploadService = service.NewUploadService(
		c.BlobStore,
		c.AddressService,
		c.AuditService,
		c.RecordRepo,
		components.Queue,
		c.metrics(),
		components.Logger,
	)

	c.RetrievalService = service.NewRetrievalService(
		c.Cache,
		c.BlobStore,
		c.AddressService,
		c.AuditService,
		c.metrics(),
		cfg.Cache.DefaultTTL,
		components.Logger,
	)

	c.LifecycleService = service.NewLifecycleService(
		c.BlobStore,
		c.ArchiveStore,
		c.RecordRepo,
		c.AddressService,
		c.AuditService,
		c.Cache,
		c.RetentionPolicy,
		c.metrics(),
		cfg.Lifecycle,
		components.Logger,
	)

	c.RateLimiter = ratelimit.NewRateLimiter(c.RedisRaw, components.Logger)

	return c, nil
}

// createBlobStore selects the object store backend from configuration
func (c *Container) createBlobStore() (blob.Store, error) {
	cfg := c.Components.Config
	switch cfg.Storage.Backend {
	case "postgres":
		return repository.NewPostgresBlobStore(c.Components.DB), nil
	case "badger":
		store, err := blob.NewBadgerStore(cfg.Storage.BadgerPath, c.Components.Logger)
		if err != nil {
			return nil, fmt.Errorf("failed to open badger store: %w", err)
		}
		c.closeFuncs = append(c.closeFuncs, store.Close)
		return store, nil
	case "memory":
		return blob.NewMemoryStore(), nil
	default:
		return nil, fmt.Errorf("unknown storage backend: %s", cfg.Storage.Backend)
	}
}

// metrics returns the shared collectors, nil when telemetry is disabled
func (c *Container) metrics() *telemetry.Metrics {
	if c.Components.Telemetry == nil {
		return nil
	}
	return c.Components.Telemetry.Metrics
}

// Close releases container-owned resources in reverse order
func (c *Container) Close() error {
	var errs []error
	for i := len(c.closeFuncs) - 1; i >= 0; i-- {
		if err := c.closeFuncs[i](); err != nil {
			errs = append(errs, err)
		}
	}
	if len(errs) > 0 {
		return fmt.Errorf("container close errors: %v", errs)
	}
	return nil
}
