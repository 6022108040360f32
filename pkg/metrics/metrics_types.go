// Package metrics exposes Prometheus metrics for runs and the HTTP adapter.
package metrics

import (
	"net/http"
	"sync"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Registry holds all application metrics
type Registry struct {
	// Run Metrics
	RunsStartedTotal    *prometheus.CounterVec
	RunsFinishedTotal   *prometheus.CounterVec
	RunsActive          prometheus.Gauge
	StepsTotal          prometheus.Counter
	RelaxationsTotal    prometheus.Counter
	RelaxationsPerStep  prometheus.Histogram
	NegativeCyclesTotal prometheus.Counter
	RunDuration         prometheus.Histogram
	StepDelaySeconds    prometheus.Gauge

	// Graph Metrics
	GraphNodes           prometheus.Gauge
	GraphEdges           prometheus.Gauge
	GraphsGeneratedTotal prometheus.Counter

	// HTTP Metrics
	HTTPRequestsTotal   *prometheus.CounterVec
	HTTPRequestDuration *prometheus.HistogramVec
	SSEClientsActive    prometheus.Gauge

	registry *prometheus.Registry
}

var (
	// Global registry instance
	defaultRegistry *Registry
	once            sync.Once
)

// DefaultRegistry returns the global metrics registry
func DefaultRegistry() *Registry {
	once.Do(func() {
		defaultRegistry = NewRegistry()
	})
	return defaultRegistry
}

// NewRegistry creates a new metrics registry with all metrics initialized
func NewRegistry() *Registry {
	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)

	r := &Registry{
		registry: reg,
	}

	r.initRunMetrics()
	r.initGraphMetrics()
	r.initHTTPMetrics()

	return r
}

// GetPrometheusRegistry returns the underlying Prometheus registry
func (r *Registry) GetPrometheusRegistry() *prometheus.Registry {
	return r.registry
}

// Handler serves the registry in the Prometheus exposition format
func (r *Registry) Handler() http.Handler {
	return promhttp.HandlerFor(r.registry, promhttp.HandlerOpts{Registry: r.registry})
}
