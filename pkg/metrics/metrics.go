// Package metrics provides Prometheus metrics for the voice-insight service.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Manager owns every collector registered by the service.
type Manager struct {
	namespace         string
	registry          *prometheus.Registry
	processCollectors bool

	httpRequests        *prometheus.CounterVec
	httpRequestDuration *prometheus.HistogramVec

	analyses          *prometheus.CounterVec
	extractionLatency prometheus.Histogram
	predictedLabels   *prometheus.CounterVec
	uploadBytes       prometheus.Histogram
}

// Option applies a configuration option to the Manager.
type Option func(*Manager)

// WithNamespace sets the namespace for all metrics.
func WithNamespace(namespace string) Option {
	return func(m *Manager) {
		if namespace != "" {
			m.namespace = namespace
		}
	}
}

// WithRegistry registers collectors on reg instead of a fresh registry.
func WithRegistry(reg *prometheus.Registry) Option {
	return func(m *Manager) {
		if reg != nil {
			m.registry = reg
		}
	}
}

// WithProcessCollectors adds the Go runtime and process collectors.
func WithProcessCollectors() Option {
	return func(m *Manager) {
		m.processCollectors = true
	}
}

// NewManager creates a metrics manager on its own registry unless
// WithRegistry is given.
func NewManager(opts ...Option) *Manager {
	m := &Manager{
		namespace: "voice_insight",
		registry:  prometheus.NewRegistry(),
	}
	for _, opt := range opts {
		opt(m)
	}
	if m.processCollectors {
		m.registry.MustRegister(
			collectors.NewGoCollector(),
			collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		)
	}
	m.initializeMetrics()
	return m
}

func (m *Manager) initializeMetrics() {
	auto := promauto.With(m.registry)

	m.httpRequests = auto.NewCounterVec(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: "http",
		Name:      "requests_total",
		Help:      "HTTP requests by endpoint, method and status code",
	}, []string{"endpoint", "method", "status"})

	m.httpRequestDuration = auto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: m.namespace,
		Subsystem: "http",
		Name:      "request_duration_seconds",
		Help:      "HTTP request latency",
		Buckets:   prometheus.DefBuckets,
	}, []string{"endpoint", "method", "status"})

	m.analyses = auto.NewCounterVec(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: "pipeline",
		Name:      "analyses_total",
		Help:      "Analyses by final status",
	}, []string{"status"})

	m.extractionLatency = auto.NewHistogram(prometheus.HistogramOpts{
		Namespace: m.namespace,
		Subsystem: "pipeline",
		Name:      "feature_extraction_seconds",
		Help:      "Time spent decoding audio and computing cepstral features",
		Buckets:   prometheus.ExponentialBuckets(0.005, 2, 12),
	})

	m.predictedLabels = auto.NewCounterVec(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: "pipeline",
		Name:      "predicted_labels_total",
		Help:      "Labels returned by the classifier",
	}, []string{"category", "label"})

	m.uploadBytes = auto.NewHistogram(prometheus.HistogramOpts{
		Namespace: m.namespace,
		Subsystem: "http",
		Name:      "upload_bytes",
		Help:      "Size of accepted audio uploads",
		Buckets:   prometheus.ExponentialBuckets(1024, 4, 9),
	})
}

// Registry exposes the underlying registry, mainly for tests.
func (m *Manager) Registry() *prometheus.Registry { return m.registry }

// Handler serves the registry in the Prometheus exposition format.
func (m *Manager) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

func (m *Manager) RecordHTTPRequest(endpoint, method, status string, seconds float64) {
	m.httpRequests.WithLabelValues(endpoint, method, status).Inc()
	m.httpRequestDuration.WithLabelValues(endpoint, method, status).Observe(seconds)
}

func (m *Manager) RecordAnalysis(status string) {
	m.analyses.WithLabelValues(status).Inc()
}

func (m *Manager) RecordExtraction(seconds float64) {
	m.extractionLatency.Observe(seconds)
}

func (m *Manager) RecordPrediction(category, label string) {
	m.predictedLabels.WithLabelValues(category, label).Inc()
}

func (m *Manager) RecordUpload(bytes int64) {
	m.uploadBytes.Observe(float64(bytes))
}
