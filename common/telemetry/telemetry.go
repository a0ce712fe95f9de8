package telemetry

import (
	"context"
	"fmt"
	"net/http"
	_ "net/http/pprof"
	"time"

	"github.com/clinovia/contentvault/common/logger"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Telemetry holds observability components
type Telemetry struct {
	log         *logger.Logger
	pprofAddr   string
	metricsAddr string
	registry    *prometheus.Registry

	// Metrics is shared with services that record operation counts
	Metrics *Metrics
}

// Metrics holds the Prometheus collectors for content operations
type Metrics struct {
	Uploads        prometheus.Counter
	Retrievals     *prometheus.CounterVec
	CacheHits      prometheus.Counter
	CacheMisses    prometheus.Counter
	CleanupDeleted prometheus.Counter
	BytesReclaimed prometheus.Counter
}

// New creates telemetry components
func New(pprofPort, metricsPort int, log *logger.Logger) *Telemetry {
	registry := prometheus.NewRegistry()

	metrics := &Metrics{
		Uploads: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "contentvault_uploads_total",
			Help: "Total content uploads",
		}),
		Retrievals: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "contentvault_retrievals_total",
			Help: "Total content retrievals by source",
		}, []string{"source"}),
		CacheHits: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "contentvault_cache_hits_total",
			Help: "Total content cache hits",
		}),
		CacheMisses: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "contentvault_cache_misses_total",
			Help: "Total content cache misses",
		}),
		CleanupDeleted: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "contentvault_cleanup_deleted_total",
			Help: "Total objects deleted by lifecycle cleanup",
		}),
		BytesReclaimed: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "contentvault_cleanup_bytes_reclaimed_total",
			Help: "Total bytes reclaimed by lifecycle cleanup",
		}),
	}

	registry.MustRegister(
		metrics.Uploads,
		metrics.Retrievals,
		metrics.CacheHits,
		metrics.CacheMisses,
		metrics.CleanupDeleted,
		metrics.BytesReclaimed,
	)

	return &Telemetry{
		log:         log,
		pprofAddr:   fmt.Sprintf("localhost:%d", pprofPort),
		metricsAddr: fmt.Sprintf(":%d", metricsPort),
		registry:    registry,
		Metrics:     metrics,
	}
}

// Start starts telemetry endpoints
func (t *Telemetry) Start(ctx context.Context) error {
	// Start pprof server
	go func() {
		t.log.Info("pprof server starting", "addr", t.pprofAddr)
		if err := http.ListenAndServe(t.pprofAddr, nil); err != nil {
			t.log.Error("pprof server error", "error", err)
		}
	}()

	// Start Prometheus metrics endpoint
	go func() {
		mux := http.NewServeMux()
		mux.Handle("/metrics", promhttp.HandlerFor(t.registry, promhttp.HandlerOpts{}))
		t.log.Info("metrics server starting", "addr", t.metricsAddr)
		if err := http.ListenAndServe(t.metricsAddr, mux); err != nil {
			t.log.Error("metrics server error", "error", err)
		}
	}()

	return nil
}

// RecordDuration records operation duration
func (t *Telemetry) RecordDuration(operation string, start time.Time) {
	duration := time.Since(start)
	t.log.Debug("operation completed",
		"operation", operation,
		"duration_ms", duration.Milliseconds(),
	)
}
