// Package metrics exposes Prometheus collectors for operation dispatch.
// Collectors live on a private registry so tests and multiple servers in one
// process never collide on the default registerer.
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "netsuite_mcp"

// Collector records invocation outcomes, latency and cache effectiveness.
type Collector struct {
	registry    *prometheus.Registry
	invocations *prometheus.CounterVec
	duration    *prometheus.HistogramVec
	cacheLookup *prometheus.CounterVec
	httpTotal   *prometheus.CounterVec
	httpLatency *prometheus.HistogramVec
}

// New creates a Collector with Go runtime and process collectors attached.
func New() *Collector {
	c := &Collector{
		registry: prometheus.NewRegistry(),
		invocations: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "invocations_total",
			Help:      "Operation invocations by outcome (ok or error kind).",
		}, []string{"operation", "outcome"}),
		duration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "invocation_duration_seconds",
			Help:      "Operation latency including validation and backend call.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"operation"}),
		cacheLookup: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "cache_lookups_total",
			Help:      "Response cache lookups by result (hit or miss).",
		}, []string{"operation", "result"}),
		httpTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "http_requests_total",
			Help:      "HTTP requests by route pattern, method and status code.",
		}, []string{"route", "method", "status"}),
		httpLatency: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "http_request_duration_seconds",
			Help:      "HTTP request latency by route pattern.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"route", "method"}),
	}

	c.registry.MustRegister(
		c.invocations,
		c.duration,
		c.cacheLookup,
		c.httpTotal,
		c.httpLatency,
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	return c
}

// InvocationDone records one finished invocation. outcome is "ok" or an error kind.
func (c *Collector) InvocationDone(operation, outcome string, elapsed time.Duration) {
	c.invocations.WithLabelValues(operation, outcome).Inc()
	c.duration.WithLabelValues(operation).Observe(elapsed.Seconds())
}

// CacheLookup records a response cache hit or miss.
func (c *Collector) CacheLookup(operation string, hit bool) {
	result := "miss"
	if hit {
		result = "hit"
	}
	c.cacheLookup.WithLabelValues(operation, result).Inc()
}

// HTTPRequest records one served HTTP request. route is the router pattern,
// not the raw path, to keep label cardinality bounded.
func (c *Collector) HTTPRequest(route, method string, status int, elapsed time.Duration) {
	c.httpTotal.WithLabelValues(route, method, strconv.Itoa(status)).Inc()
	c.httpLatency.WithLabelValues(route, method).Observe(elapsed.Seconds())
}

// Handler serves the registry in the Prometheus exposition format.
func (c *Collector) Handler() http.Handler {
	return promhttp.HandlerFor(c.registry, promhttp.HandlerOpts{})
}
