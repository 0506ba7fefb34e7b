package observability

import (
	"context"
	"net/http"
	"strings"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"

	"github.com/yungbote/curriculum-backend/internal/platform/logger"
)

// Metrics is nil-safe: every method is a no-op on a nil receiver so callers
// never branch on whether metrics are enabled.
type Metrics struct {
	reg     *prometheus.Registry
	handler http.Handler

	apiRequests *prometheus.CounterVec
	apiLatency  *prometheus.HistogramVec
	apiInflight prometheus.Gauge

	aggregateOps       *prometheus.CounterVec
	aggregateLatency   *prometheus.HistogramVec
	aggregateConflicts *prometheus.CounterVec
	aggregateRetries   *prometheus.CounterVec

	packageRequests   *prometheus.CounterVec
	packageAssembly   *prometheus.HistogramVec
	cacheLookups      *prometheus.CounterVec
	invalidations     *prometheus.CounterVec
	invalidationFails *prometheus.CounterVec

	dbStats *prometheus.GaugeVec
	redisUp prometheus.Gauge
	redisRT prometheus.Gauge
}

func New() *Metrics {
	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)

	m := &Metrics{
		apiRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "curriculum_api_requests_total",
			Help: "Total API requests by method/route/status.",
		}, []string{"method", "route", "status"}),
		apiLatency: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "curriculum_api_request_duration_seconds",
			Help:    "API request latency in seconds by method/route.",
			Buckets: []float64{0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10},
		}, []string{"method", "route"}),
		apiInflight: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "curriculum_api_inflight_requests",
			Help: "In-flight API requests.",
		}),
		aggregateOps: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "curriculum_aggregate_operations_total",
			Help: "Aggregate write operations by name and status.",
		}, []string{"operation", "status"}),
		aggregateLatency: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "curriculum_aggregate_operation_duration_seconds",
			Help:    "Aggregate write latency by name.",
			Buckets: []float64{0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5},
		}, []string{"operation"}),
		aggregateConflicts: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "curriculum_aggregate_conflicts_total",
			Help: "Aggregate writes that failed with a conflict.",
		}, []string{"operation"}),
		aggregateRetries: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "curriculum_aggregate_retryable_total",
			Help: "Aggregate writes that failed with a retryable error.",
		}, []string{"operation"}),
		packageRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "curriculum_package_requests_total",
			Help: "Course package retrievals by outcome (full, not_modified, not_found, error).",
		}, []string{"outcome"}),
		packageAssembly: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "curriculum_package_assembly_duration_seconds",
			Help:    "Time to assemble a course package from the store.",
			Buckets: []float64{0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5},
		}, []string{"status"}),
		cacheLookups: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "curriculum_package_cache_lookups_total",
			Help: "Package cache lookups by result (hit, miss, error).",
		}, []string{"result"}),
		invalidations: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "curriculum_package_invalidations_total",
			Help: "Package invalidations by the kind of node that changed.",
		}, []string{"kind"}),
		invalidationFails: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "curriculum_package_invalidation_failures_total",
			Help: "Failed package invalidations by stage (resolve, evict).",
		}, []string{"stage"}),
		dbStats: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Name: "curriculum_db_pool_stats",
			Help: "Database connection pool stats.",
		}, []string{"metric"}),
		redisUp: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "curriculum_redis_up",
			Help: "Redis connectivity (1=up, 0=down).",
		}),
		redisRT: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "curriculum_redis_ping_seconds",
			Help: "Last Redis ping round trip.",
		}),
	}
	reg.MustRegister(
		m.apiRequests,
		m.apiLatency,
		m.apiInflight,
		m.aggregateOps,
		m.aggregateLatency,
		m.aggregateConflicts,
		m.aggregateRetries,
		m.packageRequests,
		m.packageAssembly,
		m.cacheLookups,
		m.invalidations,
		m.invalidationFails,
		m.dbStats,
		m.redisUp,
		m.redisRT,
	)
	m.reg = reg
	m.handler = promhttp.HandlerFor(reg, promhttp.HandlerOpts{EnableOpenMetrics: true})
	return m
}

func (m *Metrics) Handler() http.Handler {
	if m == nil {
		return http.NotFoundHandler()
	}
	return m.handler
}

// Registry exposes the underlying registry for tests.
func (m *Metrics) Registry() *prometheus.Registry {
	if m == nil {
		return nil
	}
	return m.reg
}

func (m *Metrics) ObserveAPI(method, route, status string, dur time.Duration) {
	if m == nil {
		return
	}
	if method == "" {
		method = "UNKNOWN"
	}
	if route == "" {
		route = "unknown"
	}
	if status == "" {
		status = "0"
	}
	m.apiRequests.WithLabelValues(method, route, status).Inc()
	m.apiLatency.WithLabelValues(method, route).Observe(dur.Seconds())
}

func (m *Metrics) ApiInflightInc() {
	if m == nil {
		return
	}
	m.apiInflight.Inc()
}

func (m *Metrics) ApiInflightDec() {
	if m == nil {
		return
	}
	m.apiInflight.Dec()
}

func (m *Metrics) ObserveAggregateOperation(name, status string, dur time.Duration) {
	if m == nil {
		return
	}
	m.aggregateOps.WithLabelValues(orUnknown(name), orUnknown(status)).Inc()
	m.aggregateLatency.WithLabelValues(orUnknown(name)).Observe(dur.Seconds())
}

func (m *Metrics) IncAggregateConflict(name string) {
	if m == nil {
		return
	}
	m.aggregateConflicts.WithLabelValues(orUnknown(name)).Inc()
}

func (m *Metrics) IncAggregateRetry(name string) {
	if m == nil {
		return
	}
	m.aggregateRetries.WithLabelValues(orUnknown(name)).Inc()
}

func (m *Metrics) IncPackageRequest(outcome string) {
	if m == nil {
		return
	}
	m.packageRequests.WithLabelValues(orUnknown(outcome)).Inc()
}

func (m *Metrics) ObservePackageAssembly(status string, dur time.Duration) {
	if m == nil {
		return
	}
	m.packageAssembly.WithLabelValues(orUnknown(status)).Observe(dur.Seconds())
}

func (m *Metrics) IncCacheLookup(result string) {
	if m == nil {
		return
	}
	m.cacheLookups.WithLabelValues(orUnknown(result)).Inc()
}

func (m *Metrics) IncInvalidation(kind string) {
	if m == nil {
		return
	}
	m.invalidations.WithLabelValues(orUnknown(kind)).Inc()
}

func (m *Metrics) IncInvalidationFailure(stage string) {
	if m == nil {
		return
	}
	m.invalidationFails.WithLabelValues(orUnknown(stage)).Inc()
}

func (m *Metrics) StartDBCollector(ctx context.Context, log *logger.Logger, interval time.Duration, db *gorm.DB) {
	if m == nil || db == nil {
		return
	}
	if interval <= 0 {
		interval = 10 * time.Second
	}
	go func() {
		ticker := time.NewTicker(interval)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				sqlDB, err := db.DB()
				if err != nil {
					if log != nil {
						log.Warn("metrics: db stats unavailable", "error", err)
					}
					continue
				}
				stats := sqlDB.Stats()
				m.dbStats.WithLabelValues("open_connections").Set(float64(stats.OpenConnections))
				m.dbStats.WithLabelValues("in_use").Set(float64(stats.InUse))
				m.dbStats.WithLabelValues("idle").Set(float64(stats.Idle))
				m.dbStats.WithLabelValues("wait_count").Set(float64(stats.WaitCount))
				m.dbStats.WithLabelValues("wait_duration_seconds").Set(stats.WaitDuration.Seconds())
				m.dbStats.WithLabelValues("max_open_connections").Set(float64(stats.MaxOpenConnections))
			}
		}
	}()
}

func (m *Metrics) StartRedisCollector(ctx context.Context, log *logger.Logger, interval time.Duration, rdb redis.UniversalClient) {
	if m == nil || rdb == nil {
		return
	}
	if interval <= 0 {
		interval = 10 * time.Second
	}
	go func() {
		ticker := time.NewTicker(interval)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				start := time.Now()
				if err := rdb.Ping(ctx).Err(); err != nil {
					m.redisUp.Set(0)
					if log != nil {
						log.Warn("metrics: redis ping failed", "error", err)
					}
					continue
				}
				m.redisUp.Set(1)
				m.redisRT.Set(time.Since(start).Seconds())
			}
		}
	}()
}

func orUnknown(v string) string {
	v = strings.TrimSpace(v)
	if v == "" {
		return "unknown"
	}
	return v
}
