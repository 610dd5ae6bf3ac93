package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics holds the detection loop collectors on a private registry.
// A nil *Metrics is valid and records nothing.
type Metrics struct {
	Cycles           prometheus.Counter
	DetectorFailures prometheus.Counter
	Annotations      *prometheus.CounterVec
	CycleDuration    prometheus.Histogram

	registry *prometheus.Registry
}

// New creates a new Metrics instance with Prometheus collectors
func New() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		Cycles: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "focus_overlay_cycles_total",
			Help: "Detection cycles completed",
		}),
		DetectorFailures: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "focus_overlay_detector_failures_total",
			Help: "Detector invocations that returned an error",
		}),
		Annotations: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "focus_overlay_annotations_total",
			Help: "Annotated detections by focus state",
		}, []string{"state"}),
		CycleDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "focus_overlay_cycle_seconds",
			Help:    "Wall time of one detect-annotate-render cycle",
			Buckets: prometheus.ExponentialBuckets(0.005, 2, 12),
		}),
	}

	m.registry.MustRegister(m.Cycles, m.DetectorFailures, m.Annotations, m.CycleDuration)
	return m
}

// ObserveCycle records one finished cycle
func (m *Metrics) ObserveCycle(d time.Duration, failed bool) {
	if m == nil {
		return
	}
	m.Cycles.Inc()
	m.CycleDuration.Observe(d.Seconds())
	if failed {
		m.DetectorFailures.Inc()
	}
}

// ObserveAnnotation counts one annotation in the given state
func (m *Metrics) ObserveAnnotation(state string) {
	if m == nil {
		return
	}
	m.Annotations.WithLabelValues(state).Inc()
}

// Registry returns the underlying registry
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

// Handler returns an HTTP handler serving the registry
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}
