// Package metrics exposes pipeline and HTTP metrics to Prometheus.
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/mikey/email-triage/internal/core"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "email_triage"

// Metrics holds all Prometheus metrics of the service
type Metrics struct {
	registry *prometheus.Registry

	ClassificationsTotal *prometheus.CounterVec
	RepliesTotal         *prometheus.CounterVec
	FallbacksTotal       *prometheus.CounterVec
	InferenceSeconds     *prometheus.HistogramVec
	BackendAvailable     *prometheus.GaugeVec
	HTTPRequestsTotal    *prometheus.CounterVec
	HTTPRequestSeconds   *prometheus.HistogramVec
}

// New creates the metrics on a dedicated registry, together with the Go and
// process collectors
func New() *Metrics {
	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	factory := promauto.With(reg)

	return &Metrics{
		registry: reg,
		ClassificationsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "classifications_total",
				Help:      "Total classifications by source and category",
			},
			[]string{"source", "category"},
		),
		RepliesTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "replies_total",
				Help:      "Total suggested replies by source and style",
			},
			[]string{"source", "style"},
		),
		FallbacksTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "fallbacks_total",
				Help:      "Total degradations from the model path",
			},
			[]string{"stage", "reason"},
		),
		InferenceSeconds: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "inference_seconds",
				Help:      "Latency of inference backend calls",
				Buckets:   []float64{0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30},
			},
			[]string{"operation"},
		),
		BackendAvailable: factory.NewGaugeVec(
			prometheus.GaugeOpts{
				Namespace: namespace,
				Name:      "backend_available",
				Help:      "Whether an inference sub-model is loaded (1) or absent (0)",
			},
			[]string{"submodel"},
		),
		HTTPRequestsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "http_requests_total",
				Help:      "Total HTTP requests by route, method and status",
			},
			[]string{"route", "method", "status"},
		),
		HTTPRequestSeconds: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "http_request_seconds",
				Help:      "Latency of HTTP requests",
				Buckets:   prometheus.DefBuckets,
			},
			[]string{"route", "method"},
		),
	}
}

// Registry returns the registry the metrics are registered on
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

// Handler serves the registry in the Prometheus exposition format
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{Registry: m.registry})
}

// Classified implements core.Metrics
func (m *Metrics) Classified(source string, category core.Category) {
	m.ClassificationsTotal.WithLabelValues(source, string(category)).Inc()
}

// Replied implements core.Metrics
func (m *Metrics) Replied(source string, style core.Style) {
	m.RepliesTotal.WithLabelValues(source, string(style)).Inc()
}

// Fallback implements core.Metrics
func (m *Metrics) Fallback(stage, reason string) {
	m.FallbacksTotal.WithLabelValues(stage, reason).Inc()
}

// InferenceDuration implements core.Metrics
func (m *Metrics) InferenceDuration(operation string, d time.Duration) {
	m.InferenceSeconds.WithLabelValues(operation).Observe(d.Seconds())
}

// SetBackend records which sub-models are loaded
func (m *Metrics) SetBackend(backend *core.InferenceBackend) {
	m.BackendAvailable.WithLabelValues("classifier").Set(boolGauge(backend.ClassifierAvailable()))
	m.BackendAvailable.WithLabelValues("generator").Set(boolGauge(backend.GeneratorAvailable()))
}

// HTTPRequest records a served request
func (m *Metrics) HTTPRequest(route, method string, status int, d time.Duration) {
	m.HTTPRequestsTotal.WithLabelValues(route, method, strconv.Itoa(status)).Inc()
	m.HTTPRequestSeconds.WithLabelValues(route, method).Observe(d.Seconds())
}

func boolGauge(b bool) float64 {
	if b {
		return 1
	}
	return 0
}
