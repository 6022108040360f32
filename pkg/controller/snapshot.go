package controller

import (
	"github.com/ritzau/bellman-viz/pkg/bellmanford"
	"github.com/ritzau/bellman-viz/pkg/cycles"
	"github.com/ritzau/bellman-viz/pkg/model"
)

// GraphView is a copy of the graph with its display state
type GraphView struct {
	Nodes      []model.Node       `json:"nodes"`
	Edges      []model.Edge       `json:"edges"`
	Components []cycles.Component `json:"components"`
}

// StatsView is the statistics panel as rendered
type StatsView struct {
	Iteration     string `json:"iteration"`
	Nodes         int    `json:"nodes"`
	Edges         int    `json:"edges"`
	PathLength    string `json:"pathLength"`
	NegativeCycle string `json:"negativeCycle"`
}

// Snapshot is everything a presentation layer needs to render the current run
type Snapshot struct {
	RunID       string                   `json:"runId,omitempty"`
	Graph       GraphView                `json:"graph"`
	State       bellmanford.RunState     `json:"state"`
	History     bellmanford.History      `json:"history"`
	Report      *bellmanford.CycleReport `json:"report,omitempty"`
	Explanation string                   `json:"explanation,omitempty"`
	Path        *bellmanford.Path        `json:"path,omitempty"`
	PathSummary string                   `json:"pathSummary,omitempty"`
	Stats       StatsView                `json:"stats"`
	Outcome     Outcome                  `json:"outcome,omitempty"`
	Notice      string                   `json:"notice,omitempty"`
	DelayMs     int64                    `json:"delayMs"`
	Speed       int                      `json:"speed"`
	Running     bool                     `json:"running"`
	Complete    bool                     `json:"complete"`
}

func (c *Controller) snapshotLocked() Snapshot {
	g := c.engine.Graph()

	view := GraphView{
		Nodes:      make([]model.Node, 0, g.NodeCount()),
		Edges:      make([]model.Edge, 0, g.EdgeCount()),
		Components: cycles.FindComponents(g),
	}
	for _, n := range g.Nodes() {
		view.Nodes = append(view.Nodes, *n)
	}
	for _, e := range g.Edges() {
		view.Edges = append(view.Edges, *e)
	}

	state := c.engine.State()
	state.IsRunning = c.running
	state.Source = c.source
	state.Target = c.target

	stats := c.engine.Stats()
	s := Snapshot{
		RunID:   c.runID,
		Graph:   view,
		State:   state,
		History: c.engine.History(),
		Report:  c.engine.Report(),
		Path:    c.engine.Path(),
		Stats: StatsView{
			Iteration:     stats.IterationLabel(),
			Nodes:         stats.Nodes,
			Edges:         stats.Edges,
			PathLength:    stats.PathLengthLabel(),
			NegativeCycle: stats.NegativeCycleLabel(),
		},
		Outcome:  c.outcome,
		Notice:   c.notice,
		DelayMs:  c.Delay().Milliseconds(),
		Speed:    c.speed,
		Running:  c.running,
		Complete: c.complete,
	}
	if s.Report != nil {
		s.Explanation = s.Report.Explanation()
	}
	if s.Path != nil {
		s.PathSummary = s.Path.String()
	}
	return s
}
