// Package metrics is antnoded's self-observability surface: counts and
// durations of operations by kind, exposed at /metrics on the status
// API, using the same promauto registration pattern as any other
// Prometheus-instrumented service. antnoded records its periodic pid
// probes of Running entries here under kind "reconcile"; the lifecycle
// operations antnodectl runs are not recorded.
package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Collector records lifecycle operation outcomes. A nil *Collector is
// valid and every method becomes a no-op, so callers can hold one
// without guarding every call site on whether metrics are enabled.
type Collector struct {
	registry  *prometheus.Registry
	total     *prometheus.CounterVec
	duration  *prometheus.HistogramVec
	lastError *prometheus.GaugeVec
}

// New builds a Collector backed by its own registry, so antnoded's
// self-metrics never collide with a process-wide default registry.
func New() *Collector {
	reg := prometheus.NewRegistry()
	return &Collector{
		registry: reg,
		total: promauto.With(reg).NewCounterVec(
			prometheus.CounterOpts{
				Name: "antnode_manager_operations_total",
				Help: "Total lifecycle operations by kind and outcome.",
			},
			[]string{"kind", "outcome"},
		),
		duration: promauto.With(reg).NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "antnode_manager_operation_duration_seconds",
				Help:    "Duration of lifecycle operations in seconds, by kind.",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"kind"},
		),
		lastError: promauto.With(reg).NewGaugeVec(
			prometheus.GaugeOpts{
				Name: "antnode_manager_last_operation_error",
				Help: "1 if the last operation of this kind failed, 0 otherwise.",
			},
			[]string{"kind", "service_name"},
		),
	}
}

// Observe records one completed lifecycle operation.
func (c *Collector) Observe(kind string, serviceName string, dur time.Duration, err error) {
	if c == nil {
		return
	}
	outcome := "ok"
	errVal := 0.0
	if err != nil {
		outcome = "error"
		errVal = 1.0
	}
	c.total.WithLabelValues(kind, outcome).Inc()
	c.duration.WithLabelValues(kind).Observe(dur.Seconds())
	c.lastError.WithLabelValues(kind, serviceName).Set(errVal)
}

// Handler exposes the collector's registry over /metrics in the
// Prometheus text exposition format.
func (c *Collector) Handler() http.Handler {
	if c == nil {
		return http.NotFoundHandler()
	}
	return promhttp.HandlerFor(c.registry, promhttp.HandlerOpts{})
}
