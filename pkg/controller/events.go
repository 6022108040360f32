package controller

import (
	"time"

	"github.com/ritzau/bellman-viz/pkg/bellmanford"
)

// EventType names a controller notification
type EventType string

const (
	EventGraphLoaded EventType = "graph-loaded"
	EventSelection   EventType = "selection"
	EventInitialized EventType = "initialized"
	EventStep        EventType = "step"
	EventCycleCheck  EventType = "cycle-check"
	EventPath        EventType = "path"
	EventFinished    EventType = "finished"
	EventStopped     EventType = "stopped"
	EventReset       EventType = "reset"
	EventSpeed       EventType = "speed"
)

// Outcome is the result of a finalized run
type Outcome string

const (
	OutcomeNone          Outcome = ""
	OutcomePathFound     Outcome = "path-found"
	OutcomeCompleted     Outcome = "completed" // No target selected and no cycle
	OutcomeUnreachable   Outcome = "unreachable"
	OutcomeNegativeCycle Outcome = "negative-cycle"
	OutcomeFailed        Outcome = "failed"
)

// Event is delivered to observers after each state change
type Event struct {
	Type      EventType                `json:"type"`
	RunID     string                   `json:"runId,omitempty"`
	Iteration int                      `json:"iteration"`
	Step      *bellmanford.StepResult  `json:"step,omitempty"`
	Report    *bellmanford.CycleReport `json:"report,omitempty"`
	Path      *bellmanford.Path        `json:"path,omitempty"`
	Outcome   Outcome                  `json:"outcome,omitempty"`
	Notice    string                   `json:"notice,omitempty"`
	Error     string                   `json:"error,omitempty"`
	Time      time.Time                `json:"time"`
}

// Observer receives controller events with the snapshot current at delivery.
// Observers must not call back into the controller.
type Observer func(Event, Snapshot)

// Recorder receives run metrics. *metrics.Registry implements it.
type Recorder interface {
	RunStarted(mode string)
	StepCompleted(relaxations int)
	NegativeCycleDetected()
	RunFinished(outcome string, duration time.Duration)
	RunHalted()
	DelayChanged(delay time.Duration)
	GraphLoaded(nodes, edges int)
}

type nopRecorder struct{}

func (nopRecorder) RunStarted(string) {}
func (nopRecorder) StepCompleted(int) {}
func (nopRecorder) NegativeCycleDetected() {}
func (nopRecorder) RunFinished(string, time.Duration) {}
func (nopRecorder) RunHalted() {}
func (nopRecorder) DelayChanged(time.Duration) {}
func (nopRecorder) GraphLoaded(int, int) {}
