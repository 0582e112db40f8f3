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
		Namespace: "cragtopo",
		Subsystem: "http",
		Name:      "requests_total",
		Help:      "Total HTTP requests processed",
	}, []string{"method", "path", "status"})

	httpRequestDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: "cragtopo",
		Subsystem: "http",
		Name:      "request_duration_seconds",
		Help:      "HTTP request latency in seconds",
		Buckets:   []float64{0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5},
	}, []string{"method", "path"})

	httpResponseSize = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: "cragtopo",
		Subsystem: "http",
		Name:      "response_size_bytes",
		Help:      "HTTP response size in bytes",
		Buckets:   prometheus.ExponentialBuckets(100, 10, 6),
	}, []string{"method", "path"})

	// Topo metrics
	TopoRenders = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "cragtopo",
		Subsystem: "topo",
		Name:      "renders_total",
		Help:      "Total topo overlays rendered, by output format",
	}, []string{"format"})

	TopoRenderDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: "cragtopo",
		Subsystem: "topo",
		Name:      "render_duration_seconds",
		Help:      "Duration of a topo overlay render",
		Buckets:   []float64{0.0005, 0.001, 0.005, 0.01, 0.05, 0.1, 0.5, 1},
	}, []string{"format"})

	TopoUpdates = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "cragtopo",
		Subsystem: "topo",
		Name:      "updates_total",
		Help:      "Total topo line edits received from the event stream",
	})

	Animations = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "cragtopo",
		Subsystem: "topo",
		Name:      "animations_total",
		Help:      "Draw-in animations driven over live sessions, by outcome",
	}, []string{"outcome"})

	PrerenderRuns = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "cragtopo",
		Subsystem: "workflow",
		Name:      "prerender_runs_total",
		Help:      "Topo prerender workflows started, by result",
	}, []string{"result"})

	ActiveWebSockets = promauto.NewGauge(prometheus.GaugeOpts{
		Namespace: "cragtopo",
		Subsystem: "ws",
		Name:      "active_connections",
		Help:      "Current number of active WebSocket connections",
	})

	CacheHits = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "cragtopo",
		Subsystem: "cache",
		Name:      "hits_total",
		Help:      "Total cache hits",
	}, []string{"operation"})

	CacheMisses = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "cragtopo",
		Subsystem: "cache",
		Name:      "misses_total",
		Help:      "Total cache misses",
	}, []string{"operation"})

	// Database pool metrics
	DBPoolConnsOpen = promauto.NewGauge(prometheus.GaugeOpts{
		Namespace: "cragtopo",
		Subsystem: "db",
		Name:      "pool_conns_open",
		Help:      "Total connections open in the database pool",
	})

	DBPoolConnsAcquired = promauto.NewGauge(prometheus.GaugeOpts{
		Namespace: "cragtopo",
		Subsystem: "db",
		Name:      "pool_conns_acquired",
		Help:      "Connections currently acquired from the database pool",
	})

	DBPoolConnsIdle = promauto.NewGauge(prometheus.GaugeOpts{
		Namespace: "cragtopo",
		Subsystem: "db",
		Name:      "pool_conns_idle",
		Help:      "Idle connections in the database pool",
	})

	DBPoolEmptyAcquires = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "cragtopo",
		Subsystem: "db",
		Name:      "pool_empty_acquires_total",
		Help:      "Total times a connection had to be established when acquiring from pool",
	})

	DBPoolAcquires = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "cragtopo",
		Subsystem: "db",
		Name:      "pool_acquires_total",
		Help:      "Total connections acquired from the pool",
	})

	DBPoolAcquireDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Namespace: "cragtopo",
		Subsystem: "db",
		Name:      "pool_acquire_duration_seconds",
		Help:      "Mean time spent acquiring a connection, sampled per poll",
		Buckets:   []float64{0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1},
	})
)

// Middleware records request metrics.
func Middleware() fiber.Handler {
	return func(c *fiber.Ctx) error {
		start := time.Now()

		err := c.Next()

		duration := time.Since(start).Seconds()
		status := strconv.Itoa(c.Response().StatusCode())
		// Route pattern, not the raw path, keeps crag slugs and route IDs out of the labels.
		path := c.Route().Path
		if path == "" {
			path = "unmatched"
		}
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

// UpdateDBPoolMetrics updates database pool metrics from pgx pool stats.
// It is called from a single poller goroutine.
func UpdateDBPoolMetrics(stat any) {
	// Matched structurally so metrics does not import pgxpool.
	type poolStat interface {
		AcquiredConns() int32
		IdleConns() int32
		TotalConns() int32
		EmptyAcquireCount() int64
		AcquireCount() int64
		AcquireDuration() time.Duration
	}

	s, ok := stat.(poolStat)
	if !ok {
		return
	}
	DBPoolConnsAcquired.Set(float64(s.AcquiredConns()))
	DBPoolConnsIdle.Set(float64(s.IdleConns()))
	DBPoolConnsOpen.Set(float64(s.TotalConns()))

	// pgx reports running totals; the counters only take the delta.
	if d := s.EmptyAcquireCount() - lastPool.emptyAcquires; d > 0 {
		DBPoolEmptyAcquires.Add(float64(d))
	}
	if d := s.AcquireCount() - lastPool.acquires; d > 0 {
		DBPoolAcquires.Add(float64(d))
		wait := s.AcquireDuration() - lastPool.acquireDuration
		DBPoolAcquireDuration.Observe(wait.Seconds() / float64(d))
	}
	lastPool.emptyAcquires = s.EmptyAcquireCount()
	lastPool.acquires = s.AcquireCount()
	lastPool.acquireDuration = s.AcquireDuration()
}

var lastPool struct {
	emptyAcquires   int64
	acquires        int64
	acquireDuration time.Duration
}
