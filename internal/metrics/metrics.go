package metrics

import (
	"fmt"
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const divisor = 100

// Metrics holds the Prometheus collectors of the gateway. Each instance owns its
// registry, so tests can build as many as they like.
type Metrics struct {
	registry *prometheus.Registry

	// HTTP server metrics
	HTTPRequestsTotal   *prometheus.CounterVec
	HTTPRequestDuration *prometheus.HistogramVec

	// Domain metrics
	WeatherAttemptsTotal *prometheus.CounterVec
	WeatherLookupsTotal  *prometheus.CounterVec
	CacheOperationsTotal *prometheus.CounterVec
}

// New constructs and registers all gateway metrics under namespace.
func New(namespace string) *Metrics {
	reg := prometheus.NewRegistry()

	m := &Metrics{
		registry: reg,

		HTTPRequestsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "http_requests_total",
				Help:      "Total HTTP requests received",
			},
			[]string{"method", "endpoint", "status_class"},
		),

		HTTPRequestDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "http_request_duration_seconds",
				Help:      "Histogram of HTTP request latencies",
				Buckets:   prometheus.DefBuckets,
			},
			[]string{"method", "endpoint"},
		),

		WeatherAttemptsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "weather_attempts_total",
				Help:      "Weather provider attempts by result",
			},
			[]string{"result"},
		),

		WeatherLookupsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "weather_lookups_total",
				Help:      "Weather lookups by final outcome",
			},
			[]string{"outcome"},
		),

		CacheOperationsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "weather_cache_operations_total",
				Help:      "Weather cache operations by result",
			},
			[]string{"operation", "result"},
		),
	}

	reg.MustRegister(
		m.HTTPRequestsTotal,
		m.HTTPRequestDuration,
		m.WeatherAttemptsTotal,
		m.WeatherLookupsTotal,
		m.CacheOperationsTotal,
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)

	return m
}

// Registry exposes the underlying registry.
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

// Handler serves the registry in the Prometheus exposition format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

// ObserveAttempt records one provider attempt. result is "success" or an error kind.
func (m *Metrics) ObserveAttempt(result string) {
	if m == nil {
		return
	}
	m.WeatherAttemptsTotal.WithLabelValues(result).Inc()
}

// ObserveLookup records the final outcome of a lookup.
func (m *Metrics) ObserveLookup(outcome string) {
	if m == nil {
		return
	}
	m.WeatherLookupsTotal.WithLabelValues(outcome).Inc()
}

// ObserveCache records a cache operation ("get" or "set") and its result.
func (m *Metrics) ObserveCache(operation, result string) {
	if m == nil {
		return
	}
	m.CacheOperationsTotal.WithLabelValues(operation, result).Inc()
}

// ObserveHTTP records one served HTTP request.
func (m *Metrics) ObserveHTTP(method, endpoint string, status int, seconds float64) {
	if m == nil {
		return
	}
	m.HTTPRequestsTotal.WithLabelValues(method, endpoint, StatusClass(status)).Inc()
	m.HTTPRequestDuration.WithLabelValues(method, endpoint).Observe(seconds)
}

// StatusClass buckets a status code, e.g. 404 -> "4xx".
func StatusClass(code int) string {
	return fmt.Sprintf("%dxx", code/divisor)
}
