package metrics

import (
	"strconv"
	"time"
)

// RunStarted records the start of a run in the given mode
// ("continuous", "single-step" or "batch")
func (r *Registry) RunStarted(mode string) {
	r.RunsStartedTotal.WithLabelValues(mode).Inc()
	if mode == "continuous" {
		r.RunsActive.Set(1)
	}
}

// StepCompleted records one relaxation pass
func (r *Registry) StepCompleted(relaxations int) {
	r.StepsTotal.Inc()
	r.RelaxationsTotal.Add(float64(relaxations))
	r.RelaxationsPerStep.Observe(float64(relaxations))
}

// NegativeCycleDetected records a positive cycle check
func (r *Registry) NegativeCycleDetected() {
	r.NegativeCyclesTotal.Inc()
}

// RunFinished records the outcome of a finalized run
func (r *Registry) RunFinished(outcome string, duration time.Duration) {
	r.RunsFinishedTotal.WithLabelValues(outcome).Inc()
	r.RunDuration.Observe(duration.Seconds())
	r.RunsActive.Set(0)
}

// RunHalted records a continuous run stopped before finalization
func (r *Registry) RunHalted() {
	r.RunsActive.Set(0)
}

// DelayChanged records the pacing delay
func (r *Registry) DelayChanged(delay time.Duration) {
	r.StepDelaySeconds.Set(delay.Seconds())
}

// GraphLoaded records the size of a newly loaded graph
func (r *Registry) GraphLoaded(nodes, edges int) {
	r.GraphsGeneratedTotal.Inc()
	r.GraphNodes.Set(float64(nodes))
	r.GraphEdges.Set(float64(edges))
}

// RecordHTTPRequest records an HTTP request with its duration
func (r *Registry) RecordHTTPRequest(method, route string, status int, duration time.Duration) {
	r.HTTPRequestsTotal.WithLabelValues(method, route, strconv.Itoa(status)).Inc()
	r.HTTPRequestDuration.WithLabelValues(method, route).Observe(duration.Seconds())
}

// SSEClientConnected tracks a subscriber joining (+1) or leaving (-1)
func (r *Registry) SSEClientConnected(delta int) {
	r.SSEClientsActive.Add(float64(delta))
}
