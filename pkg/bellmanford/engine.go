// Package bellmanford implements Bellman-Ford single-source shortest paths as a
// stepwise state machine, so each relaxation pass can be observed and rendered.
package bellmanford

import (
	"fmt"
	"maps"
	"slices"

	"github.com/ritzau/bellman-viz/pkg/cycles"
	"github.com/ritzau/bellman-viz/pkg/graph"
	"github.com/ritzau/bellman-viz/pkg/logging"
	"github.com/ritzau/bellman-viz/pkg/model"
)

// Options configures an Engine
type Options struct {
	// MarkUnbounded sets every node reachable from the cycle-check node to -∞
	// instead of only that node.
	MarkUnbounded bool
}

// Option is a functional option for NewEngine
type Option func(*Options)

// WithMarkUnbounded toggles propagation of -∞ after a negative cycle is found
func WithMarkUnbounded(enabled bool) Option {
	return func(o *Options) {
		o.MarkUnbounded = enabled
	}
}

// Engine runs Bellman-Ford over a graph one pass at a time.
// It owns the run state and writes only display state onto the graph.
// An Engine is not safe for concurrent use.
type Engine struct {
	g    *graph.Graph
	opts Options

	phase            Phase
	source           string
	target           string
	dist             map[string]model.Distance
	pred             map[string]string
	iteration        int
	maxIterations    int
	hasNegativeCycle bool

	history *History
	report  *CycleReport
	path    *Path
}

// NewEngine creates an idle engine over g
func NewEngine(g *graph.Graph, opts ...Option) *Engine {
	e := &Engine{g: g}
	for _, opt := range opts {
		opt(&e.opts)
	}
	return e
}

// Graph returns the graph the engine runs over
func (e *Engine) Graph() *graph.Graph {
	return e.g
}

// Phase returns the current lifecycle phase
func (e *Engine) Phase() Phase {
	return e.phase
}

// Select sets the source and target hints on the graph nodes. Empty ids clear
// the selection. The run state is not touched.
func (e *Engine) Select(source, target string) error {
	for _, id := range []string{source, target} {
		if id == "" {
			continue
		}
		if _, err := e.g.FindNode(id); err != nil {
			return fmt.Errorf("select: %w", err)
		}
	}

	e.target = target
	if e.phase == PhaseIdle {
		e.source = source
	}
	for _, n := range e.g.Nodes() {
		n.IsSource = n.ID == source
		n.IsTarget = n.ID == target
	}
	return nil
}

// Initialize starts a run from source: the source is at distance 0, every other
// node at +∞, no predecessors, iteration 0 of |V|-1.
func (e *Engine) Initialize(source string) error {
	if source == "" {
		return ErrNoSourceSelected
	}
	if _, err := e.g.FindNode(source); err != nil {
		return fmt.Errorf("initialize: %w", err)
	}

	e.clearRun()
	e.source = source
	e.dist = make(map[string]model.Distance, e.g.NodeCount())
	e.pred = make(map[string]string, e.g.NodeCount())

	for _, n := range e.g.Nodes() {
		d := model.Infinity
		if n.ID == source {
			d = model.Finite(0)
		}
		e.dist[n.ID] = d
		e.pred[n.ID] = ""

		n.Distance = d
		n.Predecessor = ""
		n.IsProcessing = false
		n.IsSource = n.ID == source
		n.IsTarget = n.ID == e.target
	}
	for _, edge := range e.g.Edges() {
		edge.ResetDisplay()
	}

	e.iteration = 0
	e.maxIterations = e.g.NodeCount() - 1
	e.hasNegativeCycle = false
	e.history = newHistory(e.g.NodeIDs())
	e.history.record(0, e.dist, false, "")

	e.phase = PhaseInitialized
	if e.maxIterations == 0 {
		e.phase = PhaseConverged
	}

	logging.Debug("run initialized",
		"source", source,
		"nodes", e.g.NodeCount(),
		"edges", e.g.EdgeCount(),
		"maxIterations", e.maxIterations)
	return nil
}

// Step performs one relaxation pass over every edge in declaration order.
func (e *Engine) Step() (StepResult, error) {
	switch {
	case e.phase == PhaseIdle:
		return StepResult{}, ErrNotInitialized
	case e.iteration >= e.maxIterations:
		return StepResult{}, ErrRelaxationComplete
	}

	e.clearProcessing()

	var relaxed []Relaxation
	for _, edge := range e.g.Edges() {
		edge.IsProcessing = true

		du := e.dist[edge.From]
		if du.IsInf() {
			continue
		}
		candidate := du.Add(edge.Weight)
		if candidate >= e.dist[edge.To] {
			continue
		}

		relaxed = append(relaxed, Relaxation{
			From:   edge.From,
			To:     edge.To,
			Weight: edge.Weight,
			Old:    e.dist[edge.To],
			New:    candidate,
		})
		e.dist[edge.To] = candidate
		e.pred[edge.To] = edge.From
		e.mirror(edge.To, true)

		logging.Trace("relaxed edge",
			"from", edge.From,
			"to", edge.To,
			"weight", edge.Weight,
			"distance", candidate.String())
	}

	e.iteration++
	e.history.record(e.iteration, e.dist, false, "")

	e.phase = PhaseRelaxing
	if e.iteration == e.maxIterations {
		e.phase = PhaseConverged
	}

	logging.Debug("relaxation pass completed",
		"iteration", e.iteration,
		"maxIterations", e.maxIterations,
		"relaxations", len(relaxed))

	return StepResult{
		Iteration:   e.iteration,
		Relaxations: relaxed,
		Converged:   e.phase == PhaseConverged,
	}, nil
}

// CheckNegativeCycle performs the extra pass after convergence. The first edge
// that can still be relaxed proves a negative cycle; its head is set to -∞.
// Calling it again returns the same report.
func (e *Engine) CheckNegativeCycle() (CycleReport, error) {
	switch {
	case e.phase == PhaseIdle:
		return CycleReport{}, ErrNotInitialized
	case e.phase < PhaseConverged:
		return CycleReport{}, fmt.Errorf("cycle check at iteration %d of %d: %w",
			e.iteration, e.maxIterations, ErrRelaxationIncomplete)
	case e.report != nil:
		return e.report.clone(), nil
	}

	e.clearProcessing()

	report := CycleReport{Iteration: e.g.NodeCount()}
	for _, edge := range e.g.Edges() {
		du := e.dist[edge.From]
		if du.IsInf() || du.Add(edge.Weight) >= e.dist[edge.To] {
			continue
		}

		u, v := edge.From, edge.To
		report.Detected = true
		report.Edge = &model.WeightedEdge{From: u, To: v, Weight: edge.Weight}
		report.FromDistance = du
		report.ToDistance = e.dist[v]
		report.Candidate = du.Add(edge.Weight)
		edge.IsProcessing = true

		pred := func(id string) string {
			if id == v {
				return u
			}
			return e.pred[id]
		}
		if cycle, ok := cycles.TracePredecessorCycle(pred, v, e.g.NodeCount()); ok {
			report.Cycle = cycle
		}

		report.Unbounded = []string{v}
		if e.opts.MarkUnbounded {
			reached, err := e.g.ReachableFrom(v)
			if err != nil {
				return CycleReport{}, fmt.Errorf("cycle check: %w: %w", ErrCorruptPredecessors, err)
			}
			report.Unbounded = reached
		}
		for _, id := range report.Unbounded {
			e.dist[id] = model.NegativeInfinity
			e.mirror(id, true)
		}
		break
	}

	e.hasNegativeCycle = report.Detected
	e.iteration = e.maxIterations + 1
	highlight := ""
	if report.Detected {
		highlight = report.Edge.To
	}
	e.history.record(e.iteration, e.dist, true, highlight)

	e.report = &report
	e.phase = PhaseCycleChecked

	if report.Detected {
		logging.Info("negative cycle detected",
			"from", report.Edge.From,
			"to", report.Edge.To,
			"weight", report.Edge.Weight,
			"cycle", report.CycleString())
	} else {
		logging.Debug("no negative cycle")
	}
	return report.clone(), nil
}

// ReconstructPath walks the predecessors back from target and flags the path edges.
func (e *Engine) ReconstructPath(target string) (Path, error) {
	if e.phase < PhaseCycleChecked {
		return Path{}, ErrNotFinalized
	}
	if target == "" {
		return Path{}, ErrNoTargetSelected
	}
	if _, err := e.g.FindNode(target); err != nil {
		return Path{}, fmt.Errorf("reconstruct path: %w", err)
	}
	if e.hasNegativeCycle {
		return Path{}, ErrNegativeCycle
	}
	if e.dist[target].IsInf() {
		return Path{}, fmt.Errorf("%s from %s: %w", target, e.source, ErrUnreachable)
	}

	for _, edge := range e.g.Edges() {
		edge.IsInPath = false
	}

	nodes := []string{target}
	var inPath []*model.Edge
	for cur := target; cur != e.source; {
		if len(nodes) > e.g.NodeCount() {
			return Path{}, e.corrupt(target, fmt.Errorf("chain longer than %d nodes", e.g.NodeCount()))
		}
		prev := e.pred[cur]
		if prev == "" {
			return Path{}, e.corrupt(target, fmt.Errorf("%s has no predecessor", cur))
		}
		edge, err := e.g.FindEdge(prev, cur)
		if err != nil {
			return Path{}, e.corrupt(target, err)
		}
		inPath = append(inPath, edge)
		nodes = append(nodes, prev)
		cur = prev
	}

	for _, edge := range inPath {
		edge.IsInPath = true
	}
	slices.Reverse(nodes)

	path := Path{Nodes: nodes, Cost: e.dist[target]}
	e.path = &path
	e.target = target
	e.phase = PhasePathResolved

	logging.Info("shortest path found", "path", path.String(), "cost", path.Cost.String())
	return path.clone(), nil
}

func (e *Engine) corrupt(target string, cause error) error {
	err := fmt.Errorf("reconstruct path to %s: %w: %w", target, ErrCorruptPredecessors, cause)
	logging.Error("predecessor chain is inconsistent", "target", target, "error", err)
	return err
}

// Reset discards the run state and clears the display state on the graph.
// Selection hints and topology are kept.
func (e *Engine) Reset() {
	e.clearRun()
	for _, n := range e.g.Nodes() {
		n.ResetDisplay()
	}
	for _, edge := range e.g.Edges() {
		edge.ResetDisplay()
	}
}

func (e *Engine) clearRun() {
	e.phase = PhaseIdle
	e.dist = nil
	e.pred = nil
	e.iteration = 0
	e.maxIterations = 0
	e.hasNegativeCycle = false
	e.history = nil
	e.report = nil
	e.path = nil
}

func (e *Engine) clearProcessing() {
	for _, n := range e.g.Nodes() {
		n.IsProcessing = false
	}
	for _, edge := range e.g.Edges() {
		edge.IsProcessing = false
	}
}

// mirror copies the run state of id onto its node
func (e *Engine) mirror(id string, processing bool) {
	n, err := e.g.FindNode(id)
	if err != nil {
		return
	}
	n.Distance = e.dist[id]
	n.Predecessor = e.pred[id]
	n.IsProcessing = processing
}

// State returns a copy of the run state
func (e *Engine) State() RunState {
	return RunState{
		Phase:            e.phase,
		Source:           e.source,
		Target:           e.target,
		Distances:        maps.Clone(e.dist),
		Predecessors:     maps.Clone(e.pred),
		CurrentIteration: e.iteration,
		MaxIterations:    e.maxIterations,
		HasNegativeCycle: e.hasNegativeCycle,
	}
}

// History returns a copy of the iteration table
func (e *Engine) History() History {
	return e.history.clone()
}

// Report returns the cycle check result, or nil before the check
func (e *Engine) Report() *CycleReport {
	if e.report == nil {
		return nil
	}
	r := e.report.clone()
	return &r
}

// Path returns the resolved shortest path, or nil
func (e *Engine) Path() *Path {
	if e.path == nil {
		return nil
	}
	p := e.path.clone()
	return &p
}

// Stats summarizes the run for the statistics panel
func (e *Engine) Stats() Stats {
	s := Stats{
		Iteration:        e.iteration,
		MaxIterations:    e.maxIterations,
		Nodes:            e.g.NodeCount(),
		Edges:            e.g.EdgeCount(),
		PathLength:       model.Infinity,
		HasNegativeCycle: e.hasNegativeCycle,
	}
	if d, ok := e.dist[e.target]; ok && e.target != "" {
		s.PathLength = d
	}
	return s
}
