package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

// Config holds all service configuration
type Config struct {
	Service   ServiceConfig
	Database  DatabaseConfig
	Redis     RedisConfig
	Cache     CacheConfig
	Storage   StorageConfig
	Lifecycle LifecycleConfig
	Telemetry TelemetryConfig
}

// ServiceConfig holds service-specific settings
type ServiceConfig struct {
	Name        string
	Port        int
	Environment string
	LogLevel    string
	LogFormat   string
}

// DatabaseConfig holds Postgres connection settings
type DatabaseConfig struct {
	Host        string
	Port        int
	Database    string
	User        string
	Password    string
	MaxConns    int
	MinConns    int
	MaxIdleTime time.Duration
	MaxLifetime time.Duration
}

// RedisConfig holds Redis connection settings
type RedisConfig struct {
	Host     string
	Port     int
	Password string
	DB       int
}

// CacheConfig holds two-tier cache settings
type CacheConfig struct {
	Enabled     bool
	DefaultTTL  time.Duration
	LocalSizeMB int
	LocalTTL    time.Duration
}

// StorageConfig holds object store and delivery address settings
type StorageConfig struct {
	// Backend selects the object store implementation: "postgres", "badger" or "memory"
	Backend string
	// CDNBase is the public delivery origin, always carrying a trailing slash
	CDNBase string
	// PathPrefix is the key prefix under which content objects live,
	// without leading or trailing slashes (e.g. "services/content")
	PathPrefix string
	// BadgerPath is the data directory for the embedded backend
	BadgerPath string
}

// LifecycleConfig holds orphan cleanup settings
type LifecycleConfig struct {
	RetentionPeriod time.Duration
	GracePeriod     time.Duration
	MaxItems        int
	RunTimeout      time.Duration
	ScanInterval    time.Duration
	ArchiveEnabled  bool
	ArchiveRequired bool
	ArchivePath     string
	// Policy is an optional CEL expression that further restricts
	// cleanup eligibility. Empty means age rules only.
	Policy string
}

// TelemetryConfig holds observability settings
type TelemetryConfig struct {
	EnablePprof   bool
	PprofPort     int
	EnableMetrics bool
	MetricsPort   int
}

// Load loads configuration from environment variables
func Load(serviceName string) (*Config, error) {
	cfg := &Config{
		Service: ServiceConfig{
			Name:        serviceName,
			Port:        getEnvInt("PORT", 8080),
			Environment: getEnv("ENVIRONMENT", "development"),
			LogLevel:    getEnv("LOG_LEVEL", "info"),
			LogFormat:   getEnv("LOG_FORMAT", "text"), // Default to text for development
		},
		Database: DatabaseConfig{
			Host:        getEnv("POSTGRES_HOST", "localhost"),
			Port:        getEnvInt("POSTGRES_PORT", 5432),
			Database:    getEnv("POSTGRES_DB", "contentvault"),
			User:        getEnv("POSTGRES_USER", "contentvault"),
			Password:    getEnv("POSTGRES_PASSWORD", "contentvault"),
			MaxConns:    getEnvInt("POSTGRES_MAX_CONNS", 50),
			MinConns:    getEnvInt("POSTGRES_MIN_CONNS", 10),
			MaxIdleTime: getEnvDuration("POSTGRES_MAX_IDLE_TIME", 30*time.Minute),
			MaxLifetime: getEnvDuration("POSTGRES_MAX_LIFETIME", 1*time.Hour),
		},
		Redis: RedisConfig{
			Host:     getEnv("REDIS_HOST", "localhost"),
			Port:     getEnvInt("REDIS_PORT", 6379),
			Password: getEnv("REDIS_PASSWORD", ""),
			DB:       getEnvInt("REDIS_DB", 0),
		},
		Cache: CacheConfig{
			Enabled:     getEnvBool("CACHE_ENABLED", true),
			DefaultTTL:  getEnvDuration("CACHE_DEFAULT_TTL", 1*time.Hour),
			LocalSizeMB: getEnvInt("CACHE_LOCAL_SIZE_MB", 256),
			LocalTTL:    getEnvDuration("CACHE_LOCAL_TTL", 10*time.Minute),
		},
		Storage: StorageConfig{
			Backend:    getEnv("STORAGE_BACKEND", "postgres"),
			CDNBase:    getEnv("CDN_BASE_URL", "https://cdn.example.com/"),
			PathPrefix: getEnv("CONTENT_PATH_PREFIX", "services/content"),
			BadgerPath: getEnv("STORAGE_BADGER_PATH", "./data/blobs"),
		},
		Lifecycle: LifecycleConfig{
			RetentionPeriod: getEnvDuration("LIFECYCLE_RETENTION_PERIOD", 90*24*time.Hour),
			GracePeriod:     getEnvDuration("LIFECYCLE_GRACE_PERIOD", 24*time.Hour),
			MaxItems:        getEnvInt("LIFECYCLE_MAX_ITEMS", 500),
			RunTimeout:      getEnvDuration("LIFECYCLE_RUN_TIMEOUT", 10*time.Minute),
			ScanInterval:    getEnvDuration("LIFECYCLE_SCAN_INTERVAL", 6*time.Hour),
			ArchiveEnabled:  getEnvBool("LIFECYCLE_ARCHIVE_ENABLED", true),
			ArchiveRequired: getEnvBool("LIFECYCLE_ARCHIVE_REQUIRED", false),
			ArchivePath:     getEnv("LIFECYCLE_ARCHIVE_PATH", "./data/archive"),
			Policy:          getEnv("LIFECYCLE_POLICY", ""),
		},
		Telemetry: TelemetryConfig{
			EnablePprof:   getEnvBool("ENABLE_PPROF", true),
			PprofPort:     getEnvInt("PPROF_PORT", 6060),
			EnableMetrics: getEnvBool("ENABLE_METRICS", true),
			MetricsPort:   getEnvInt("METRICS_PORT", 9090),
		},
	}

	return cfg, cfg.Validate()
}

// Validate checks if configuration is valid
func (c *Config) Validate() error {
	if c.Service.Port < 1 || c.Service.Port > 65535 {
		return fmt.Errorf("invalid port: %d", c.Service.Port)
	}

	if c.Database.Host == "" {
		return fmt.Errorf("database host is required")
	}

	if c.Database.MaxConns < c.Database.MinConns {
		return fmt.Errorf("max_conns must be >= min_conns")
	}

	switch c.Storage.Backend {
	case "postgres", "badger", "memory":
	default:
		return fmt.Errorf("unknown storage backend: %s", c.Storage.Backend)
	}

	if !strings.HasSuffix(c.Storage.CDNBase, "/") {
		c.Storage.CDNBase += "/"
	}
	c.Storage.PathPrefix = strings.Trim(c.Storage.PathPrefix, "/")
	if c.Storage.PathPrefix == "" {
		return fmt.Errorf("content path prefix is required")
	}

	if c.Lifecycle.GracePeriod <= 0 {
		return fmt.Errorf("lifecycle grace period must be positive")
	}

	return nil
}

// DatabaseURL returns the PostgreSQL connection string
func (c *Config) DatabaseURL() string {
	return fmt.Sprintf(
		"postgres://%s:%s@%s:%d/%s?sslmode=disable",
		c.Database.User,
		c.Database.Password,
		c.Database.Host,
		c.Database.Port,
		c.Database.Database,
	)
}

// RedisAddr returns the Redis host:port address
func (c *Config) RedisAddr() string {
	return fmt.Sprintf("%s:%d", c.Redis.Host, c.Redis.Port)
}

// Helper functions

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intVal, err := strconv.Atoi(value); err == nil {
			return intVal
		}
	}
	return defaultValue
}

func getEnvBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if boolVal, err := strconv.ParseBool(value); err == nil {
			return boolVal
		}
	}
	return defaultValue
}

func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if duration, err := time.ParseDuration(value); err == nil {
			return duration
		}
	}
	return defaultValue
}
