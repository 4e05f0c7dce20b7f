package api

import (
	"net/http"
	"strconv"
	"time"

	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	kvErr "github.com/sajjad-MoBe/logkv/internal/errors"
)

// Metrics holds all Prometheus metrics of one server. Metrics are registered
// on a private registry so several servers can live in one process.
type Metrics struct {
	registry *prometheus.Registry

	// Request metrics
	requestDuration *prometheus.HistogramVec
	requestTotal    *prometheus.CounterVec
	requestErrors   *prometheus.CounterVec

	// Storage metrics
	storageSize    prometheus.Gauge
	storageKeys    prometheus.Gauge
	storageErrors  *prometheus.CounterVec
	storageLatency *prometheus.HistogramVec
}

// NewMetrics creates a new metrics instance
func NewMetrics() *Metrics {
	reg := prometheus.NewRegistry()
	factory := promauto.With(reg)

	return &Metrics{
		registry: reg,

		requestDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "http_request_duration_seconds",
				Help:    "Duration of HTTP requests in seconds",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"method", "path", "status"},
		),
		requestTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "http_requests_total",
				Help: "Total number of HTTP requests",
			},
			[]string{"method", "path", "status"},
		),
		requestErrors: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "http_request_errors_total",
				Help: "Total number of HTTP request errors",
			},
			[]string{"method", "path", "status"},
		),

		storageSize: factory.NewGauge(
			prometheus.GaugeOpts{
				Name: "logkv_log_size_bytes",
				Help: "Size of the append-only log in bytes",
			},
		),
		storageKeys: factory.NewGauge(
			prometheus.GaugeOpts{
				Name: "logkv_keys_total",
				Help: "Number of live keys",
			},
		),
		storageErrors: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "logkv_storage_errors_total",
				Help: "Total number of storage errors",
			},
			[]string{"operation", "error_type"},
		),
		storageLatency: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "logkv_storage_operation_duration_seconds",
				Help:    "Duration of storage operations in seconds",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"operation"},
		),
	}
}

// Handler exposes the registry in the Prometheus text format
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{Registry: m.registry})
}

// Registry returns the registry the metrics are registered on
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

// MetricsMiddleware records request metrics labelled by route template
func (m *Metrics) MetricsMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		rw := newResponseWriter(w)

		next.ServeHTTP(rw, r)

		path := routeTemplate(r)
		status := strconv.Itoa(rw.statusCode)

		m.requestDuration.WithLabelValues(r.Method, path, status).Observe(time.Since(start).Seconds())
		m.requestTotal.WithLabelValues(r.Method, path, status).Inc()
		if rw.statusCode >= 400 {
			m.requestErrors.WithLabelValues(r.Method, path, status).Inc()
		}
	})
}

// RecordStorageMetrics records storage operation metrics
func (m *Metrics) RecordStorageMetrics(operation string, duration time.Duration, err error) {
	m.storageLatency.WithLabelValues(operation).Observe(duration.Seconds())
	if err != nil {
		m.storageErrors.WithLabelValues(operation, errorType(err)).Inc()
	}
}

// UpdateStorageMetrics updates storage-related gauges
func (m *Metrics) UpdateStorageMetrics(size int64, keys int64) {
	m.storageSize.Set(float64(size))
	m.storageKeys.Set(float64(keys))
}

func routeTemplate(r *http.Request) string {
	if route := mux.CurrentRoute(r); route != nil {
		if tmpl, err := route.GetPathTemplate(); err == nil {
			return tmpl
		}
	}
	return "unmatched"
}

func errorType(err error) string {
	if t := kvErr.TypeOf(err); t != "" {
		return string(t)
	}
	return string(kvErr.ErrorTypeInternal)
}
