package bellmanford

import (
	"fmt"
	"slices"
	"strings"

	"github.com/ritzau/bellman-viz/pkg/model"
)

// Phase is the lifecycle position of a run
type Phase int

const (
	PhaseIdle Phase = iota
	PhaseInitialized
	PhaseRelaxing
	PhaseConverged
	PhaseCycleChecked
	PhasePathResolved
)

var phaseNames = map[Phase]string{
	PhaseIdle:         "idle",
	PhaseInitialized:  "initialized",
	PhaseRelaxing:     "relaxing",
	PhaseConverged:    "converged",
	PhaseCycleChecked: "cycle-checked",
	PhasePathResolved: "path-resolved",
}

func (p Phase) String() string {
	if name, ok := phaseNames[p]; ok {
		return name
	}
	return fmt.Sprintf("phase(%d)", int(p))
}

// MarshalText encodes the phase by name
func (p Phase) MarshalText() ([]byte, error) {
	return []byte(p.String()), nil
}

// UnmarshalText decodes a phase name
func (p *Phase) UnmarshalText(text []byte) error {
	for phase, name := range phaseNames {
		if name == string(text) {
			*p = phase
			return nil
		}
	}
	return fmt.Errorf("unknown phase %q", text)
}

// Finalized reports whether the cycle check has run
func (p Phase) Finalized() bool {
	return p >= PhaseCycleChecked
}

// RunState is a snapshot of the engine bookkeeping
type RunState struct {
	Phase            Phase                     `json:"phase"`
	Source           string                    `json:"source,omitempty"`
	Target           string                    `json:"target,omitempty"`
	Distances        map[string]model.Distance `json:"distances"`
	Predecessors     map[string]string         `json:"predecessors"`
	CurrentIteration int                       `json:"currentIteration"`
	MaxIterations    int                       `json:"maxIterations"`
	HasNegativeCycle bool                      `json:"hasNegativeCycle"`
	IsRunning        bool                      `json:"isRunning"`
}

// Relaxation records one distance improvement made during a pass
type Relaxation struct {
	From   string         `json:"from"`
	To     string         `json:"to"`
	Weight int            `json:"weight"`
	Old    model.Distance `json:"old"`
	New    model.Distance `json:"new"`
}

// StepResult describes one relaxation pass
type StepResult struct {
	Iteration   int          `json:"iteration"`
	Relaxations []Relaxation `json:"relaxations"`
	Converged   bool         `json:"converged"`
}

// CycleReport is the outcome of the extra pass after convergence
type CycleReport struct {
	Detected bool `json:"detected"`
	// Iteration is the ordinal of the extra pass, |V|
	Iteration int `json:"iteration"`

	// The first edge that could still be relaxed and the values that proved it
	Edge         *model.WeightedEdge `json:"edge,omitempty"`
	FromDistance model.Distance      `json:"fromDistance"`
	ToDistance   model.Distance      `json:"toDistance"`
	Candidate    model.Distance      `json:"candidate"`

	Cycle     []string `json:"cycle,omitempty"`     // Closed loop traced through the predecessors
	Unbounded []string `json:"unbounded,omitempty"` // Nodes set to -∞
}

// Explanation renders the inequality that proved the cycle
func (r CycleReport) Explanation() string {
	if !r.Detected || r.Edge == nil {
		return ""
	}
	return fmt.Sprintf("dist(%s) + w < dist(%s)  =>  %s + (%d) < %s  =>  %s < %s",
		r.Edge.From, r.Edge.To,
		r.FromDistance, r.Edge.Weight, r.ToDistance,
		r.Candidate, r.ToDistance)
}

// CycleString renders the traced cycle as "A → B → A"
func (r CycleReport) CycleString() string {
	return strings.Join(r.Cycle, " → ")
}

func (r CycleReport) clone() CycleReport {
	if r.Edge != nil {
		edge := *r.Edge
		r.Edge = &edge
	}
	r.Cycle = slices.Clone(r.Cycle)
	r.Unbounded = slices.Clone(r.Unbounded)
	return r
}

// Path is a shortest path from the source to the target
type Path struct {
	Nodes []string       `json:"nodes"`
	Cost  model.Distance `json:"cost"`
}

// String renders the path as "A → B → C"
func (p Path) String() string {
	return strings.Join(p.Nodes, " → ")
}

func (p Path) clone() Path {
	p.Nodes = slices.Clone(p.Nodes)
	return p
}

// Stats is the statistics panel of a run
type Stats struct {
	Iteration        int            `json:"iteration"`
	MaxIterations    int            `json:"maxIterations"`
	Nodes            int            `json:"nodes"`
	Edges            int            `json:"edges"`
	PathLength       model.Distance `json:"pathLength"`
	HasNegativeCycle bool           `json:"hasNegativeCycle"`
}

// IterationLabel renders progress as "k / max"
func (s Stats) IterationLabel() string {
	return fmt.Sprintf("%d / %d", s.Iteration, s.MaxIterations)
}

// PathLengthLabel renders the target distance, N/A when unreached
func (s Stats) PathLengthLabel() string {
	if s.PathLength.IsInf() {
		return "N/A"
	}
	return s.PathLength.String()
}

// NegativeCycleLabel renders the cycle flag
func (s Stats) NegativeCycleLabel() string {
	if s.HasNegativeCycle {
		return "Detected"
	}
	return "Not Detected"
}
