// Package metric exposes Prometheus metrics for annotation processing.
package metric

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/vk/hookbind/internal/annotation"
	"github.com/vk/hookbind/internal/engine"
)

const namespace = "hookbind"

// Attach results used as the "result" label.
const (
	ResultOK    = "ok"
	ResultError = "error"
)

// Metrics records engine events. It implements engine.Observer.
type Metrics struct {
	registry prometheus.Gatherer

	annotationsApplied *prometheus.CounterVec
	capabilitySkips    *prometheus.CounterVec
	attaches           *prometheus.CounterVec
	attachDuration     prometheus.Histogram
}

var _ engine.Observer = (*Metrics)(nil)

// New creates the metrics and registers them with reg. A nil reg creates a
// private registry.
func New(reg *prometheus.Registry) (*Metrics, error) {
	if reg == nil {
		reg = prometheus.NewRegistry()
	}
	m := &Metrics{
		registry: reg,
		annotationsApplied: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "annotations_applied_total",
			Help:      "Annotations applied, by kind and target.",
		}, []string{"kind", "target"}),
		capabilitySkips: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "capability_skips_total",
			Help:      "Annotations skipped because the instance lacks a capability.",
		}, []string{"kind"}),
		attaches: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "attach_total",
			Help:      "Attach calls, by result.",
		}, []string{"result"}),
		attachDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "attach_duration_seconds",
			Help:      "Time spent attaching one instance.",
			Buckets:   []float64{.0001, .0005, .001, .005, .01, .05, .1, .5, 1},
		}),
	}
	for _, c := range []prometheus.Collector{m.annotationsApplied, m.capabilitySkips, m.attaches, m.attachDuration} {
		if err := reg.Register(c); err != nil {
			return nil, err
		}
	}
	return m, nil
}

// AnnotationApplied implements engine.Observer.
func (m *Metrics) AnnotationApplied(kind string, target annotation.Target) {
	m.annotationsApplied.WithLabelValues(kind, target.String()).Inc()
}

// CapabilitySkipped implements engine.Observer.
func (m *Metrics) CapabilitySkipped(kind string) {
	m.capabilitySkips.WithLabelValues(kind).Inc()
}

// AttachFinished implements engine.Observer.
func (m *Metrics) AttachFinished(_ string, took time.Duration, err error) {
	result := ResultOK
	if err != nil {
		result = ResultError
	}
	m.attaches.WithLabelValues(result).Inc()
	m.attachDuration.Observe(took.Seconds())
}

// Handler serves the metrics in the Prometheus exposition format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{EnableOpenMetrics: true})
}
