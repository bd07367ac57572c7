// Package metrics holds the Prometheus collectors exposed on /metrics.
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "hydro"

// Metrics is a set of collectors bound to one registry.
type Metrics struct {
	registry *prometheus.Registry

	httpRequests        *prometheus.CounterVec
	httpDuration        *prometheus.HistogramVec
	measurementsCreated prometheus.Counter
	systemsCreated      prometheus.Counter
	filterRejections    *prometheus.CounterVec
	authFailures        *prometheus.CounterVec
	storedSystems       prometheus.Gauge
	storedMeasurements  prometheus.Gauge
}

// New creates collectors on a fresh registry, including the Go runtime and
// process collectors.
func New() *Metrics {
	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	factory := promauto.With(reg)

	return &Metrics{
		registry: reg,
		httpRequests: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "http",
			Name:      "requests_total",
			Help:      "HTTP requests by method, route pattern and status code.",
		}, []string{"method", "route", "status"}),
		httpDuration: factory.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "http",
			Name:      "request_duration_seconds",
			Help:      "HTTP request latency by method and route pattern.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"method", "route"}),
		measurementsCreated: factory.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "measurements_created_total",
			Help:      "Measurements recorded.",
		}),
		systemsCreated: factory.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "systems_created_total",
			Help:      "Systems registered.",
		}),
		filterRejections: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "filter_rejections_total",
			Help:      "List requests rejected for an unparseable query parameter.",
		}, []string{"param"}),
		authFailures: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "auth_failures_total",
			Help:      "Requests rejected by bearer token verification.",
		}, []string{"reason"}),
		storedSystems: factory.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "systems",
			Help:      "Systems in the store at the last stats refresh.",
		}),
		storedMeasurements: factory.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "measurements",
			Help:      "Measurements in the store at the last stats refresh.",
		}),
	}
}

// Handler serves the registry in the Prometheus exposition format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{Registry: m.registry})
}

// Registry returns the underlying registry.
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

// ObserveRequest records one completed HTTP request. route is the matched
// pattern, not the raw path, to keep label cardinality bounded.
func (m *Metrics) ObserveRequest(method, route string, status int, elapsed time.Duration) {
	if m == nil {
		return
	}
	m.httpRequests.WithLabelValues(method, route, strconv.Itoa(status)).Inc()
	m.httpDuration.WithLabelValues(method, route).Observe(elapsed.Seconds())
}

// MeasurementCreated counts a recorded Measurement.
func (m *Metrics) MeasurementCreated() {
	if m == nil {
		return
	}
	m.measurementsCreated.Inc()
}

// SystemCreated counts a registered System.
func (m *Metrics) SystemCreated() {
	if m == nil {
		return
	}
	m.systemsCreated.Inc()
}

// FilterRejected counts a rejected query parameter.
func (m *Metrics) FilterRejected(param string) {
	if m == nil {
		return
	}
	m.filterRejections.WithLabelValues(param).Inc()
}

// AuthFailed counts a rejected bearer token.
func (m *Metrics) AuthFailed(reason string) {
	if m == nil {
		return
	}
	m.authFailures.WithLabelValues(reason).Inc()
}

// SetStoreTotals publishes the record counts of the last stats refresh.
func (m *Metrics) SetStoreTotals(systems, measurements int64) {
	if m == nil {
		return
	}
	m.storedSystems.Set(float64(systems))
	m.storedMeasurements.Set(float64(measurements))
}
