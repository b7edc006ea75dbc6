package observability

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Collector holds all Prometheus metrics for the application
type Collector struct {
	// Registry for this collector instance
	registry *prometheus.Registry

	// HTTP metrics
	HTTPRequests *prometheus.CounterVec
	HTTPDuration *prometheus.HistogramVec

	// Store metrics
	StoreOperations *prometheus.CounterVec
	StoreConflicts  prometheus.Counter
	StoreReloads    prometheus.Counter

	// Persistence metrics
	PersistOperations *prometheus.CounterVec
	PersistDuration   *prometheus.HistogramVec
	PersistRetries    *prometheus.CounterVec
	BreakerState      *prometheus.GaugeVec

	// Event metrics
	EventsPublished *prometheus.CounterVec
}

// NewCollector creates a collector with its own registry, so tests can build
// as many as they like.
func NewCollector(namespace string) *Collector {
	registry := prometheus.NewRegistry()

	c := &Collector{
		registry: registry,
		HTTPRequests: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "http_requests_total",
				Help:      "Total number of HTTP requests",
			},
			[]string{"method", "route", "status"},
		),
		HTTPDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "http_request_duration_seconds",
				Help:      "HTTP request duration in seconds",
				Buckets:   prometheus.DefBuckets,
			},
			[]string{"method", "route"},
		),
		StoreOperations: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "store_operations_total",
				Help:      "Total number of idea store mutations",
			},
			[]string{"operation", "status"},
		),
		StoreConflicts: prometheus.NewCounter(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "store_revision_conflicts_total",
				Help:      "Commits that returned an unexpected revision",
			},
		),
		StoreReloads: prometheus.NewCounter(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "store_reloads_total",
				Help:      "Full reloads of a user's state",
			},
		),
		PersistOperations: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "persistence_operations_total",
				Help:      "Total number of persistence adapter calls",
			},
			[]string{"backend", "operation", "status"},
		),
		PersistDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "persistence_operation_duration_seconds",
				Help:      "Persistence adapter call duration in seconds",
				Buckets:   prometheus.DefBuckets,
			},
			[]string{"backend", "operation"},
		),
		PersistRetries: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "persistence_retries_total",
				Help:      "Persistence calls repeated after a transient failure",
			},
			[]string{"backend", "operation"},
		),
		BreakerState: prometheus.NewGaugeVec(
			prometheus.GaugeOpts{
				Namespace: namespace,
				Name:      "persistence_breaker_state",
				Help:      "Circuit breaker state (0 closed, 1 half-open, 2 open)",
			},
			[]string{"backend"},
		),
		EventsPublished: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "events_published_total",
				Help:      "Domain events handed to the event bus",
			},
			[]string{"type", "status"},
		),
	}

	registry.MustRegister(
		c.HTTPRequests,
		c.HTTPDuration,
		c.StoreOperations,
		c.StoreConflicts,
		c.StoreReloads,
		c.PersistOperations,
		c.PersistDuration,
		c.PersistRetries,
		c.BreakerState,
		c.EventsPublished,
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	return c
}

// RecordHTTP records one served request
func (c *Collector) RecordHTTP(method, route string, status int, duration time.Duration) {
	c.HTTPRequests.WithLabelValues(method, route, statusLabel(status)).Inc()
	c.HTTPDuration.WithLabelValues(method, route).Observe(duration.Seconds())
}

// RecordPersistence records one adapter call
func (c *Collector) RecordPersistence(backend, operation string, err error, duration time.Duration) {
	c.PersistOperations.WithLabelValues(backend, operation, outcome(err)).Inc()
	c.PersistDuration.WithLabelValues(backend, operation).Observe(duration.Seconds())
}

// RecordStoreOperation records one store mutation
func (c *Collector) RecordStoreOperation(operation string, err error) {
	c.StoreOperations.WithLabelValues(operation, outcome(err)).Inc()
}

// Handler serves the registry in the Prometheus exposition format
func (c *Collector) Handler() http.Handler {
	return promhttp.HandlerFor(c.registry, promhttp.HandlerOpts{Registry: c.registry})
}

// GetRegistry returns the Prometheus registry for this collector
func (c *Collector) GetRegistry() *prometheus.Registry {
	return c.registry
}

func outcome(err error) string {
	if err != nil {
		return "error"
	}
	return "ok"
}

func statusLabel(status int) string {
	switch {
	case status >= 500:
		return "5xx"
	case status >= 400:
		return "4xx"
	case status >= 300:
		return "3xx"
	default:
		return "2xx"
	}
}

// RecordConflict counts a commit that landed after someone else's
func (c *Collector) RecordConflict() {
	c.StoreConflicts.Inc()
}

// RecordReload counts a full state reload
func (c *Collector) RecordReload() {
	c.StoreReloads.Inc()
}
