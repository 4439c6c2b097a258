package metrics

import (
	"strconv"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/valyala/fasthttp/fasthttpadaptor"
)

var (
	// HTTP metrics
	httpRequestsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "sacredsites",
		Subsystem: "http",
		Name:      "requests_total",
		Help:      "Total HTTP requests processed",
	}, []string{"method", "path", "status"})

	httpRequestDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: "sacredsites",
		Subsystem: "http",
		Name:      "request_duration_seconds",
		Help:      "HTTP request latency in seconds",
		Buckets:   []float64{0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5},
	}, []string{"method", "path"})

	httpResponseSize = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: "sacredsites",
		Subsystem: "http",
		Name:      "response_size_bytes",
		Help:      "HTTP response size in bytes",
		Buckets:   prometheus.ExponentialBuckets(100, 10, 6),
	}, []string{"method", "path"})

	// Directory metrics
	FilterRecomputes = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "sacredsites",
		Subsystem: "directory",
		Name:      "filter_recomputes_total",
		Help:      "Total result set recomputations",
	}, []string{"profile"})

	MarkersSynced = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "sacredsites",
		Subsystem: "directory",
		Name:      "markers_synced_total",
		Help:      "Total map markers created by marker syncs",
	}, []string{"profile"})

	StaleResponsesDiscarded = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "sacredsites",
		Subsystem: "directory",
		Name:      "stale_responses_discarded_total",
		Help:      "Total site fetch completions discarded because a newer request was issued",
	}, []string{"profile"})

	MalformedSitesDropped = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "sacredsites",
		Subsystem: "directory",
		Name:      "malformed_sites_dropped_total",
		Help:      "Total site records dropped for missing or invalid fields",
	}, []string{"stage"})

	// Import metrics
	SitesImported = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "sacredsites",
		Subsystem: "import",
		Name:      "sites_imported_total",
		Help:      "Total site records upserted by the importer",
	}, []string{"source"})

	ImportDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: "sacredsites",
		Subsystem: "import",
		Name:      "duration_seconds",
		Help:      "Duration of a full import run",
		Buckets:   []float64{0.5, 1, 2, 5, 10, 30, 60, 120},
	}, []string{"source"})

	SourcePageErrors = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "sacredsites",
		Subsystem: "import",
		Name:      "source_page_errors_total",
		Help:      "Total failed page requests against the content source",
	}, []string{"post_type"})

	ActiveMapSessions = promauto.NewGauge(prometheus.GaugeOpts{
		Namespace: "sacredsites",
		Subsystem: "ws",
		Name:      "active_map_sessions",
		Help:      "Current number of interactive map sessions",
	})

	CacheHits = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "sacredsites",
		Subsystem: "cache",
		Name:      "hits_total",
		Help:      "Total cache hits",
	}, []string{"operation"})

	CacheMisses = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "sacredsites",
		Subsystem: "cache",
		Name:      "misses_total",
		Help:      "Total cache misses",
	}, []string{"operation"})

	// Database pool metrics
	DBPoolConnsOpen = promauto.NewGauge(prometheus.GaugeOpts{
		Namespace: "sacredsites",
		Subsystem: "db",
		Name:      "pool_conns_open",
		Help:      "Total connections open in the database pool",
	})

	DBPoolConnsAcquired = promauto.NewGauge(prometheus.GaugeOpts{
		Namespace: "sacredsites",
		Subsystem: "db",
		Name:      "pool_conns_acquired",
		Help:      "Connections currently acquired from the database pool",
	})

	DBPoolConnsIdle = promauto.NewGauge(prometheus.GaugeOpts{
		Namespace: "sacredsites",
		Subsystem: "db",
		Name:      "pool_conns_idle",
		Help:      "Idle connections in the database pool",
	})

	DBPoolEmptyAcquires = promauto.NewGauge(prometheus.GaugeOpts{
		Namespace: "sacredsites",
		Subsystem: "db",
		Name:      "pool_empty_acquires",
		Help:      "Cumulative acquires that had to open a new connection",
	})

	DBPoolAcquireSeconds = promauto.NewGauge(prometheus.GaugeOpts{
		Namespace: "sacredsites",
		Subsystem: "db",
		Name:      "pool_acquire_seconds",
		Help:      "Cumulative time spent acquiring connections from the pool",
	})
)

// normalizePath bounds label cardinality. Fiber reports the matched route
// pattern (/v1/sites/:id); requests that matched no route fall through to the
// catch-all middleware and are reported as "unmatched".
func normalizePath(routePath, rawPath string) string {
	if routePath == "" || (routePath == "/" && rawPath != "/") {
		return "unmatched"
	}
	return routePath
}

// Middleware records request metrics.
func Middleware() fiber.Handler {
	return func(c *fiber.Ctx) error {
		start := time.Now()

		err := c.Next()

		duration := time.Since(start).Seconds()
		status := strconv.Itoa(c.Response().StatusCode())
		path := normalizePath(c.Route().Path, c.Path())
		method := c.Method()

		httpRequestsTotal.WithLabelValues(method, path, status).Inc()
		httpRequestDuration.WithLabelValues(method, path).Observe(duration)
		httpResponseSize.WithLabelValues(method, path).Observe(float64(len(c.Response().Body())))

		return err
	}
}

// Handler returns a Fiber handler serving Prometheus /metrics endpoint.
func Handler() fiber.Handler {
	handler := promhttp.Handler()
	return func(c *fiber.Ctx) error {
		fasthttpadaptor.NewFastHTTPHandler(handler)(c.Context())
		return nil
	}
}

// PoolStat is the part of pgxpool.Stat the pool gauges read.
type PoolStat interface {
	AcquiredConns() int32
	IdleConns() int32
	TotalConns() int32
	EmptyAcquireCount() int64
	AcquireDuration() time.Duration
}

// UpdateDBPoolMetrics copies a pool snapshot into the db gauges.
func UpdateDBPoolMetrics(s PoolStat) {
	DBPoolConnsAcquired.Set(float64(s.AcquiredConns()))
	DBPoolConnsIdle.Set(float64(s.IdleConns()))
	DBPoolConnsOpen.Set(float64(s.TotalConns()))
	DBPoolEmptyAcquires.Set(float64(s.EmptyAcquireCount()))
	DBPoolAcquireSeconds.Set(s.AcquireDuration().Seconds())
}
