package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

func (r *Registry) initRunMetrics() {
	r.RunsStartedTotal = promauto.With(r.registry).NewCounterVec(
		prometheus.CounterOpts{
			Name: "bellmanviz_runs_started_total",
			Help: "Total number of runs started, by mode",
		},
		[]string{"mode"},
	)

	r.RunsFinishedTotal = promauto.With(r.registry).NewCounterVec(
		prometheus.CounterOpts{
			Name: "bellmanviz_runs_finished_total",
			Help: "Total number of runs finished, by outcome",
		},
		[]string{"outcome"},
	)

	r.RunsActive = promauto.With(r.registry).NewGauge(
		prometheus.GaugeOpts{
			Name: "bellmanviz_runs_active",
			Help: "Whether a continuous run is in progress",
		},
	)

	r.StepsTotal = promauto.With(r.registry).NewCounter(
		prometheus.CounterOpts{
			Name: "bellmanviz_relaxation_passes_total",
			Help: "Total number of relaxation passes performed",
		},
	)

	r.RelaxationsTotal = promauto.With(r.registry).NewCounter(
		prometheus.CounterOpts{
			Name: "bellmanviz_relaxations_total",
			Help: "Total number of successful edge relaxations",
		},
	)

	r.RelaxationsPerStep = promauto.With(r.registry).NewHistogram(
		prometheus.HistogramOpts{
			Name:    "bellmanviz_relaxations_per_pass",
			Help:    "Number of edges relaxed in a single pass",
			Buckets: []float64{0, 1, 2, 4, 8, 16, 32},
		},
	)

	r.NegativeCyclesTotal = promauto.With(r.registry).NewCounter(
		prometheus.CounterOpts{
			Name: "bellmanviz_negative_cycles_total",
			Help: "Total number of runs whose cycle check found a negative cycle",
		},
	)

	r.RunDuration = promauto.With(r.registry).NewHistogram(
		prometheus.HistogramOpts{
			Name:    "bellmanviz_run_duration_seconds",
			Help:    "Wall time from run start to finalization",
			Buckets: []float64{0.001, 0.01, 0.1, 1, 5, 15, 30, 60},
		},
	)

	r.StepDelaySeconds = promauto.With(r.registry).NewGauge(
		prometheus.GaugeOpts{
			Name: "bellmanviz_step_delay_seconds",
			Help: "Current delay between animated passes",
		},
	)
}

func (r *Registry) initGraphMetrics() {
	r.GraphNodes = promauto.With(r.registry).NewGauge(
		prometheus.GaugeOpts{
			Name: "bellmanviz_graph_nodes",
			Help: "Number of nodes in the current graph",
		},
	)

	r.GraphEdges = promauto.With(r.registry).NewGauge(
		prometheus.GaugeOpts{
			Name: "bellmanviz_graph_edges",
			Help: "Number of edges in the current graph",
		},
	)

	r.GraphsGeneratedTotal = promauto.With(r.registry).NewCounter(
		prometheus.CounterOpts{
			Name: "bellmanviz_graphs_loaded_total",
			Help: "Total number of graphs loaded into the controller",
		},
	)
}

func (r *Registry) initHTTPMetrics() {
	r.HTTPRequestsTotal = promauto.With(r.registry).NewCounterVec(
		prometheus.CounterOpts{
			Name: "bellmanviz_http_requests_total",
			Help: "Total number of HTTP requests",
		},
		[]string{"method", "route", "status"},
	)

	r.HTTPRequestDuration = promauto.With(r.registry).NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "bellmanviz_http_request_duration_seconds",
			Help:    "HTTP request latency in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "route"},
	)

	r.SSEClientsActive = promauto.With(r.registry).NewGauge(
		prometheus.GaugeOpts{
			Name: "bellmanviz_sse_clients_active",
			Help: "Number of connected server-sent event clients",
		},
	)
}
