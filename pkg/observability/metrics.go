package observability

import (
	"context"
	"database/sql"
	"net/http"
	"strconv"
	"time"

	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics holds all Prometheus metrics
type Metrics struct {
	// HTTP metrics
	HTTPRequestsTotal   *prometheus.CounterVec
	HTTPRequestDuration *prometheus.HistogramVec
	HTTPRequestSize     *prometheus.HistogramVec
	HTTPResponseSize    *prometheus.HistogramVec

	// Property reconciliation metrics
	SyncTotal     *prometheus.CounterVec
	SyncMutations *prometheus.CounterVec
	SyncDuration  *prometheus.HistogramVec

	// Export metrics
	ExportTotal    *prometheus.CounterVec
	ExportDuration *prometheus.HistogramVec
	ExportBytes    *prometheus.HistogramVec

	// Cache metrics
	CacheHitsTotal          *prometheus.CounterVec
	CacheMissesTotal        *prometheus.CounterVec
	CacheInvalidationsTotal prometheus.Counter

	// Publish metrics
	PublishTotal    *prometheus.CounterVec
	PublishDuration prometheus.Histogram

	// Database metrics
	DBConnectionsActive       prometheus.Gauge
	DBConnectionsIdle         prometheus.Gauge
	DBConnectionsWaitCount    prometheus.Gauge
	DBConnectionsWaitDuration prometheus.Gauge

	// Business metrics
	SpecificationsTotal prometheus.Gauge

	otel *OTelMetrics
}

// NewMetrics creates and registers all Prometheus metrics
func NewMetrics(registry *prometheus.Registry) *Metrics {
	m := &Metrics{
		HTTPRequestsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "specbook_http_requests_total",
				Help: "Total number of HTTP requests",
			},
			[]string{"method", "path", "status"},
		),
		HTTPRequestDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "specbook_http_request_duration_seconds",
				Help:    "HTTP request duration in seconds",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"method", "path"},
		),
		HTTPRequestSize: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "specbook_http_request_size_bytes",
				Help:    "HTTP request size in bytes",
				Buckets: prometheus.ExponentialBuckets(100, 10, 8),
			},
			[]string{"method", "path"},
		),
		HTTPResponseSize: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "specbook_http_response_size_bytes",
				Help:    "HTTP response size in bytes",
				Buckets: prometheus.ExponentialBuckets(100, 10, 8),
			},
			[]string{"method", "path"},
		),

		SyncTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "specbook_property_sync_total",
				Help: "Total number of property list reconciliations",
			},
			[]string{"kind", "status"},
		),
		SyncMutations: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "specbook_property_sync_mutations_total",
				Help: "Property records written by reconciliation",
			},
			[]string{"kind", "op"},
		),
		SyncDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "specbook_property_sync_duration_seconds",
				Help:    "Property reconciliation duration in seconds",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"kind"},
		),

		ExportTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "specbook_export_total",
				Help: "Total number of swagger exports",
			},
			[]string{"format", "status"},
		),
		ExportDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "specbook_export_duration_seconds",
				Help:    "Swagger export duration in seconds",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"format"},
		),
		ExportBytes: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "specbook_export_size_bytes",
				Help:    "Rendered swagger document size in bytes",
				Buckets: prometheus.ExponentialBuckets(256, 4, 8),
			},
			[]string{"format"},
		),

		CacheHitsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "specbook_cache_hits_total",
				Help: "Total number of cache hits",
			},
			[]string{"tier"},
		),
		CacheMissesTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "specbook_cache_misses_total",
				Help: "Total number of cache misses",
			},
			[]string{"tier"},
		),
		CacheInvalidationsTotal: prometheus.NewCounter(
			prometheus.CounterOpts{
				Name: "specbook_cache_invalidations_total",
				Help: "Total number of specification cache invalidations",
			},
		),

		PublishTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "specbook_publish_total",
				Help: "Total number of documents published to object storage",
			},
			[]string{"status"},
		),
		PublishDuration: prometheus.NewHistogram(
			prometheus.HistogramOpts{
				Name:    "specbook_publish_duration_seconds",
				Help:    "Publish duration in seconds",
				Buckets: prometheus.DefBuckets,
			},
		),

		DBConnectionsActive: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Name: "specbook_db_connections_active",
				Help: "Number of active database connections",
			},
		),
		DBConnectionsIdle: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Name: "specbook_db_connections_idle",
				Help: "Number of idle database connections",
			},
		),
		DBConnectionsWaitCount: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Name: "specbook_db_connections_wait_count",
				Help: "Total number of connections waited for",
			},
		),
		DBConnectionsWaitDuration: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Name: "specbook_db_connections_wait_duration_seconds",
				Help: "Total time spent waiting for connections",
			},
		),

		SpecificationsTotal: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Name: "specbook_specifications_total",
				Help: "Total number of specifications",
			},
		),
	}

	registry.MustRegister(
		m.HTTPRequestsTotal,
		m.HTTPRequestDuration,
		m.HTTPRequestSize,
		m.HTTPResponseSize,
		m.SyncTotal,
		m.SyncMutations,
		m.SyncDuration,
		m.ExportTotal,
		m.ExportDuration,
		m.ExportBytes,
		m.CacheHitsTotal,
		m.CacheMissesTotal,
		m.CacheInvalidationsTotal,
		m.PublishTotal,
		m.PublishDuration,
		m.DBConnectionsActive,
		m.DBConnectionsIdle,
		m.DBConnectionsWaitCount,
		m.DBConnectionsWaitDuration,
		m.SpecificationsTotal,
	)

	return m
}

// WithOTel mirrors domain measurements into OpenTelemetry instruments
func (m *Metrics) WithOTel(om *OTelMetrics) *Metrics {
	m.otel = om
	return m
}

func statusLabel(err error) string {
	if err != nil {
		return "error"
	}
	return "success"
}

// RecordSync records one reconciliation of a property list. A nil receiver
// records nothing.
func (m *Metrics) RecordSync(ctx context.Context, kind string, updates, inserts, deletes int, duration time.Duration, err error) {
	if m == nil {
		return
	}
	m.SyncTotal.WithLabelValues(kind, statusLabel(err)).Inc()
	m.SyncDuration.WithLabelValues(kind).Observe(duration.Seconds())
	if err == nil {
		m.SyncMutations.WithLabelValues(kind, "update").Add(float64(updates))
		m.SyncMutations.WithLabelValues(kind, "insert").Add(float64(inserts))
		m.SyncMutations.WithLabelValues(kind, "delete").Add(float64(deletes))
	}
	if m.otel != nil {
		m.otel.RecordSync(ctx, kind, updates+inserts+deletes, duration, err)
	}
}

// RecordExport records one rendered document
func (m *Metrics) RecordExport(ctx context.Context, format string, size int, duration time.Duration, err error) {
	if m == nil {
		return
	}
	m.ExportTotal.WithLabelValues(format, statusLabel(err)).Inc()
	m.ExportDuration.WithLabelValues(format).Observe(duration.Seconds())
	if err == nil {
		m.ExportBytes.WithLabelValues(format).Observe(float64(size))
	}
	if m.otel != nil {
		m.otel.RecordExport(ctx, format, int64(size), duration, err)
	}
}

// RecordCacheHit records a hit in the named tier
func (m *Metrics) RecordCacheHit(ctx context.Context, tier string) {
	if m == nil {
		return
	}
	m.CacheHitsTotal.WithLabelValues(tier).Inc()
	if m.otel != nil {
		m.otel.RecordCacheHit(ctx, tier)
	}
}

// RecordCacheMiss records a miss in the named tier
func (m *Metrics) RecordCacheMiss(ctx context.Context, tier string) {
	if m == nil {
		return
	}
	m.CacheMissesTotal.WithLabelValues(tier).Inc()
	if m.otel != nil {
		m.otel.RecordCacheMiss(ctx, tier)
	}
}

// RecordInvalidation records one specification cache invalidation
func (m *Metrics) RecordInvalidation() {
	if m == nil {
		return
	}
	m.CacheInvalidationsTotal.Inc()
}

// RecordPublish records one upload to object storage
func (m *Metrics) RecordPublish(ctx context.Context, duration time.Duration, err error) {
	if m == nil {
		return
	}
	m.PublishTotal.WithLabelValues(statusLabel(err)).Inc()
	m.PublishDuration.Observe(duration.Seconds())
	if m.otel != nil {
		m.otel.RecordPublish(ctx, duration, err)
	}
}

// SetSpecifications records the number of stored specifications
func (m *Metrics) SetSpecifications(n int) {
	if m == nil {
		return
	}
	m.SpecificationsTotal.Set(float64(n))
}

// UpdateDBStats copies pool statistics into the database gauges
func (m *Metrics) UpdateDBStats(stats sql.DBStats) {
	if m == nil {
		return
	}
	m.DBConnectionsActive.Set(float64(stats.InUse))
	m.DBConnectionsIdle.Set(float64(stats.Idle))
	m.DBConnectionsWaitCount.Set(float64(stats.WaitCount))
	m.DBConnectionsWaitDuration.Set(stats.WaitDuration.Seconds())
}

// responseWriter wraps http.ResponseWriter to capture status code and size
type responseWriter struct {
	http.ResponseWriter
	statusCode   int
	bytesWritten int
}

func (rw *responseWriter) WriteHeader(code int) {
	rw.statusCode = code
	rw.ResponseWriter.WriteHeader(code)
}

func (rw *responseWriter) Write(b []byte) (int, error) {
	n, err := rw.ResponseWriter.Write(b)
	rw.bytesWritten += n
	return n, err
}

// routeLabel prefers the matched mux route template over the raw path
func routeLabel(r *http.Request) string {
	if route := mux.CurrentRoute(r); route != nil {
		if tmpl, err := route.GetPathTemplate(); err == nil {
			return tmpl
		}
	}
	return r.URL.Path
}

// HTTPMetricsMiddleware instruments HTTP requests with Prometheus metrics
func HTTPMetricsMiddleware(metrics *Metrics) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()

			rw := &responseWriter{
				ResponseWriter: w,
				statusCode:     http.StatusOK,
			}

			next.ServeHTTP(rw, r)

			path := routeLabel(r)
			if r.ContentLength > 0 {
				metrics.HTTPRequestSize.WithLabelValues(r.Method, path).Observe(float64(r.ContentLength))
			}

			duration := time.Since(start)
			status := strconv.Itoa(rw.statusCode)

			metrics.HTTPRequestsTotal.WithLabelValues(r.Method, path, status).Inc()
			metrics.HTTPRequestDuration.WithLabelValues(r.Method, path).Observe(duration.Seconds())
			metrics.HTTPResponseSize.WithLabelValues(r.Method, path).Observe(float64(rw.bytesWritten))

			if metrics.otel != nil {
				metrics.otel.RecordHTTPRequest(r.Context(), r.Method, path, rw.statusCode, duration, r.ContentLength, int64(rw.bytesWritten))
			}
		})
	}
}

// RegisterMetricsEndpoint registers the /metrics endpoint
func RegisterMetricsEndpoint(serveMux *http.ServeMux, registry *prometheus.Registry) {
	serveMux.Handle("/metrics", promhttp.HandlerFor(registry, promhttp.HandlerOpts{}))
}
