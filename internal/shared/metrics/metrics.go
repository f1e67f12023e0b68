package metrics

import (
	"database/sql"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Forward outcomes.
const (
	OutcomeOK    = "ok"
	OutcomeError = "error"
)

// Recorder is the subset used by forwarding and session code.
type Recorder interface {
	ObserveRequest(method, route string, status int, d time.Duration)
	RecordForward(target, outcome string)
	RecordSession(event string)
}

// Collector holds the process metrics on its own registry.
type Collector struct {
	registry        *prometheus.Registry
	requests        *prometheus.CounterVec
	requestDuration *prometheus.HistogramVec
	forwards        *prometheus.CounterVec
	sessions        *prometheus.CounterVec
}

// NewCollector registers the metrics for service on a fresh registry.
func NewCollector(service string) *Collector {
	constLabels := prometheus.Labels{"service": service}
	c := &Collector{
		registry: prometheus.NewRegistry(),
		requests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name:        "training_http_requests_total",
			Help:        "HTTP requests by method, route and status",
			ConstLabels: constLabels,
		}, []string{"method", "route", "status"}),
		requestDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:        "training_http_request_duration_seconds",
			Help:        "HTTP request latency in seconds",
			ConstLabels: constLabels,
			Buckets:     prometheus.DefBuckets,
		}, []string{"method", "route"}),
		forwards: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name:        "training_upstream_forwards_total",
			Help:        "Requests forwarded downstream by target and outcome",
			ConstLabels: constLabels,
		}, []string{"target", "outcome"}),
		sessions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name:        "training_session_events_total",
			Help:        "Session lifecycle events",
			ConstLabels: constLabels,
		}, []string{"event"}),
	}
	c.registry.MustRegister(c.requests, c.requestDuration, c.forwards, c.sessions)
	return c
}

// ObserveRequest records one served request.
func (c *Collector) ObserveRequest(method, route string, status int, d time.Duration) {
	if c == nil {
		return
	}
	if route == "" {
		route = "unmatched"
	}
	c.requests.WithLabelValues(method, route, strconv.Itoa(status)).Inc()
	c.requestDuration.WithLabelValues(method, route).Observe(d.Seconds())
}

// RecordForward counts a downstream call.
func (c *Collector) RecordForward(target, outcome string) {
	if c == nil {
		return
	}
	c.forwards.WithLabelValues(target, outcome).Inc()
}

// RecordSession counts login/logout/expired events.
func (c *Collector) RecordSession(event string) {
	if c == nil {
		return
	}
	c.sessions.WithLabelValues(event).Inc()
}

// WatchDB exports pool statistics of db under the db_name label.
func (c *Collector) WatchDB(db *sql.DB, name string) {
	if c == nil || db == nil {
		return
	}
	c.registry.MustRegister(collectors.NewDBStatsCollector(db, name))
}

// Registry exposes the underlying registry for tests and extra collectors.
func (c *Collector) Registry() *prometheus.Registry {
	return c.registry
}

// Handler exposes metrics in Prometheus text format.
func Handler(c *Collector) gin.HandlerFunc {
	h := promhttp.HandlerFor(c.registry, promhttp.HandlerOpts{})
	return gin.WrapH(h)
}

// Middleware observes every request handled by the router.
func Middleware(c *Collector) gin.HandlerFunc {
	return func(ctx *gin.Context) {
		start := time.Now()
		ctx.Next()
		c.ObserveRequest(ctx.Request.Method, ctx.FullPath(), ctx.Writer.Status(), time.Since(start))
	}
}
