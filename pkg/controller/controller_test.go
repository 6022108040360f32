package controller

import (
	"sync"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/ritzau/bellman-viz/pkg/bellmanford"
	"github.com/ritzau/bellman-viz/pkg/graph"
	"github.com/ritzau/bellman-viz/pkg/metrics"
	"github.com/ritzau/bellman-viz/pkg/model"
	"github.com/ritzau/bellman-viz/pkg/scheduler"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func buildGraph(t *testing.T, ids []string, edges []model.WeightedEdge) *graph.Graph {
	t.Helper()

	g := graph.New()
	for _, id := range ids {
		require.NoError(t, g.AddNode(model.NewNode(id, model.Position{})))
	}
	for _, e := range edges {
		_, err := g.AddEdge(e.From, e.To, e.Weight)
		require.NoError(t, err)
	}
	return g
}

func triangle(t *testing.T) *graph.Graph {
	return buildGraph(t, []string{"A", "B", "C"}, []model.WeightedEdge{
		{From: "A", To: "B", Weight: 1},
		{From: "B", To: "C", Weight: 2},
		{From: "A", To: "C", Weight: 10},
	})
}

func chain(t *testing.T) *graph.Graph {
	return buildGraph(t, []string{"A", "B", "C", "D", "E"}, []model.WeightedEdge{
		{From: "D", To: "E", Weight: 1},
		{From: "C", To: "D", Weight: 1},
		{From: "B", To: "C", Weight: 1},
		{From: "A", To: "B", Weight: 1},
	})
}

type eventLog struct {
	mu     sync.Mutex
	events []Event
	last   Snapshot
}

func (l *eventLog) observe(ev Event, snap Snapshot) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.events = append(l.events, ev)
	l.last = snap
}

func (l *eventLog) types() []EventType {
	l.mu.Lock()
	defer l.mu.Unlock()
	out := make([]EventType, len(l.events))
	for i, ev := range l.events {
		out[i] = ev.Type
	}
	return out
}

func newTestController(t *testing.T, g *graph.Graph, opts ...Option) (*Controller, *scheduler.FakeClock) {
	t.Helper()
	clock := scheduler.NewFakeClock(time.Unix(1700000000, 0))
	return New(g, append([]Option{WithClock(clock)}, opts...)...), clock
}

func TestDelayForSpeed(t *testing.T) {
	tests := map[int]time.Duration{
		1:  1000 * time.Millisecond,
		5:  600 * time.Millisecond,
		10: 100 * time.Millisecond,
		0:  1000 * time.Millisecond,
		42: 100 * time.Millisecond,
	}
	for speed, want := range tests {
		assert.Equal(t, want, DelayForSpeed(speed), "speed %d", speed)
	}
}

func TestStartRequiresSource(t *testing.T) {
	c, _ := newTestController(t, triangle(t))

	assert.ErrorIs(t, c.Start(), ErrNoSourceSelected)
	assert.ErrorIs(t, c.SingleStep(), ErrNoSourceSelected)
	assert.ErrorIs(t, c.RunToCompletion(), ErrNoSourceSelected)
	assert.False(t, c.Running())
}

func TestContinuousRun(t *testing.T) {
	c, clock := newTestController(t, triangle(t))
	require.NoError(t, c.SelectSource("A"))
	require.NoError(t, c.SelectTarget("C"))

	require.NoError(t, c.Start())

	snap := c.Snapshot()
	assert.True(t, snap.Running)
	assert.Equal(t, 1, snap.State.CurrentIteration, "first pass runs immediately")
	assert.NotEmpty(t, snap.RunID)
	assert.Equal(t, 1, clock.Pending())

	clock.Advance(599 * time.Millisecond)
	assert.Equal(t, 1, c.Snapshot().State.CurrentIteration)
	clock.Advance(time.Millisecond)
	assert.Equal(t, 2, c.Snapshot().State.CurrentIteration)

	clock.Advance(600 * time.Millisecond)
	snap = c.Snapshot()
	assert.False(t, snap.Running)
	assert.True(t, snap.Complete)
	assert.Equal(t, OutcomePathFound, snap.Outcome)
	assert.Equal(t, "A → B → C", snap.PathSummary)
	assert.Equal(t, "3 / 2", snap.Stats.Iteration)
	assert.Equal(t, "3", snap.Stats.PathLength)
	assert.Equal(t, "Not Detected", snap.Stats.NegativeCycle)
	assert.Equal(t, 0, clock.Pending())
}

func TestStopCancelsRun(t *testing.T) {
	c, clock := newTestController(t, chain(t))
	require.NoError(t, c.SelectSource("A"))

	require.NoError(t, c.Start())
	firstRun := c.Snapshot().RunID
	clock.Advance(600 * time.Millisecond)
	require.Equal(t, 2, c.Snapshot().State.CurrentIteration)

	c.Stop()
	assert.False(t, c.Running())
	assert.Equal(t, 0, clock.Pending())

	clock.Advance(10 * time.Second)
	snap := c.Snapshot()
	assert.Equal(t, 2, snap.State.CurrentIteration, "no passes after stop")
	assert.False(t, snap.Complete)

	// A later start begins fresh
	require.NoError(t, c.Start())
	snap = c.Snapshot()
	assert.Equal(t, 1, snap.State.CurrentIteration)
	assert.NotEqual(t, firstRun, snap.RunID)
	c.Stop()
}

func TestStaleTickIsDiscarded(t *testing.T) {
	c, _ := newTestController(t, chain(t))
	require.NoError(t, c.SelectSource("A"))
	require.NoError(t, c.Start())

	c.mu.Lock()
	gen := c.gen
	c.mu.Unlock()

	c.Stop()
	assert.False(t, c.tick(gen))
	assert.Equal(t, 1, c.Snapshot().State.CurrentIteration)

	require.NoError(t, c.Start())
	assert.False(t, c.tick(gen), "tick from a previous run")
	assert.Equal(t, 1, c.Snapshot().State.CurrentIteration)
	c.Stop()
}

func TestSpeedChangeDuringRun(t *testing.T) {
	c, clock := newTestController(t, chain(t))
	require.NoError(t, c.SelectSource("A"))
	require.NoError(t, c.Start())

	assert.Equal(t, 100*time.Millisecond, c.SetSpeed(10))

	// The pending tick keeps its original delay
	clock.Advance(100 * time.Millisecond)
	assert.Equal(t, 1, c.Snapshot().State.CurrentIteration)
	clock.Advance(500 * time.Millisecond)
	assert.Equal(t, 2, c.Snapshot().State.CurrentIteration)
	clock.Advance(100 * time.Millisecond)
	assert.Equal(t, 3, c.Snapshot().State.CurrentIteration)

	c.SetDelay(-time.Second)
	assert.Equal(t, time.Duration(0), c.Delay())
	c.Stop()
}

func TestSingleStep(t *testing.T) {
	c, clock := newTestController(t, triangle(t))
	require.NoError(t, c.SelectSource("A"))
	require.NoError(t, c.SelectTarget("C"))

	require.NoError(t, c.SingleStep())
	assert.Equal(t, 1, c.Snapshot().State.CurrentIteration, "first step initializes and relaxes")
	require.NoError(t, c.SingleStep())
	assert.Equal(t, 2, c.Snapshot().State.CurrentIteration)

	require.NoError(t, c.SingleStep())
	snap := c.Snapshot()
	assert.True(t, snap.Complete)
	assert.Equal(t, 3, snap.State.CurrentIteration)
	assert.Equal(t, OutcomePathFound, snap.Outcome)

	require.NoError(t, c.SingleStep(), "steps after completion are no-ops")
	assert.Equal(t, 3, c.Snapshot().State.CurrentIteration)
	assert.Equal(t, 0, clock.Pending())

	c.Reset()
	snap = c.Snapshot()
	assert.False(t, snap.Complete)
	assert.Equal(t, bellmanford.PhaseIdle, snap.State.Phase)
	assert.Empty(t, snap.RunID)
}

func TestSingleStepOutcomes(t *testing.T) {
	g := buildGraph(t, []string{"A", "B", "C"}, []model.WeightedEdge{
		{From: "A", To: "B", Weight: 3},
	})
	c, _ := newTestController(t, g)
	require.NoError(t, c.SelectSource("A"))
	require.NoError(t, c.SelectTarget("C"))

	require.NoError(t, c.SingleStep())
	require.NoError(t, c.SingleStep())
	err := c.SingleStep()
	assert.ErrorIs(t, err, bellmanford.ErrUnreachable)
	snap := c.Snapshot()
	assert.Equal(t, OutcomeUnreachable, snap.Outcome)
	assert.Contains(t, snap.Notice, "not reachable")
	assert.Equal(t, "N/A", snap.Stats.PathLength)

	cyc := buildGraph(t, []string{"A", "B"}, []model.WeightedEdge{
		{From: "A", To: "B", Weight: -1},
		{From: "B", To: "A", Weight: -1},
	})
	c, _ = newTestController(t, cyc)
	require.NoError(t, c.SelectSource("A"))

	require.NoError(t, c.SingleStep())
	err = c.SingleStep()
	assert.ErrorIs(t, err, bellmanford.ErrNegativeCycle)
	snap = c.Snapshot()
	assert.Equal(t, OutcomeNegativeCycle, snap.Outcome)
	assert.Equal(t, "Detected", snap.Stats.NegativeCycle)
	assert.NotEmpty(t, snap.Explanation)
	assert.True(t, snap.History.Rows[len(snap.History.Rows)-1].CycleCheck)
}

func TestSingleStepDuringRun(t *testing.T) {
	c, _ := newTestController(t, chain(t))
	require.NoError(t, c.SelectSource("A"))
	require.NoError(t, c.Start())

	assert.ErrorIs(t, c.SingleStep(), ErrRunInProgress)
	assert.ErrorIs(t, c.RunToCompletion(), ErrRunInProgress)

	c.Stop()
	require.NoError(t, c.SingleStep(), "stepping continues a stopped run")
	assert.Equal(t, 2, c.Snapshot().State.CurrentIteration)
}

func TestRunToCompletionEvents(t *testing.T) {
	c, _ := newTestController(t, triangle(t))
	log := &eventLog{}
	c.Observe(log.observe)

	require.NoError(t, c.SelectSource("A"))
	require.NoError(t, c.SelectTarget("C"))
	require.NoError(t, c.RunToCompletion())

	assert.Equal(t, []EventType{
		EventSelection,
		EventSelection,
		EventInitialized,
		EventStep,
		EventStep,
		EventCycleCheck,
		EventPath,
		EventFinished,
	}, log.types())

	assert.Equal(t, OutcomePathFound, log.last.Outcome)
	assert.Equal(t, []string{"A", "B", "C"}, log.last.Path.Nodes)
	last := log.events[len(log.events)-1]
	assert.Equal(t, OutcomePathFound, last.Outcome)
	assert.NotEmpty(t, last.RunID)
}

func TestSelection(t *testing.T) {
	c, _ := newTestController(t, triangle(t))

	assert.ErrorIs(t, c.SelectSource("Z"), bellmanford.ErrNodeNotFound)
	assert.ErrorIs(t, c.SelectTarget("Z"), bellmanford.ErrNodeNotFound)

	require.NoError(t, c.SelectSource("A"))
	require.NoError(t, c.SelectTarget("C"))
	snap := c.Snapshot()
	for _, n := range snap.Graph.Nodes {
		assert.Equal(t, n.ID == "A", n.IsSource, "node %s", n.ID)
		assert.Equal(t, n.ID == "C", n.IsTarget, "node %s", n.ID)
	}

	require.NoError(t, c.SelectTarget(""))
	_, target := c.Selection()
	assert.Empty(t, target)
}

func TestSelectBothOrNothing(t *testing.T) {
	c, _ := newTestController(t, triangle(t))
	require.NoError(t, c.Select("A", "C"))
	require.NoError(t, c.SingleStep())

	var log eventLog
	c.Observe(log.observe)

	assert.ErrorIs(t, c.Select("B", "Z"), bellmanford.ErrNodeNotFound)
	assert.Empty(t, log.types())
	source, target := c.Selection()
	assert.Equal(t, "A", source)
	assert.Equal(t, "C", target)
	assert.Equal(t, 1, c.Snapshot().State.CurrentIteration)

	require.NoError(t, c.Select("B", "A"))
	assert.Equal(t, []EventType{EventReset, EventSelection}, log.types())
	snap := c.Snapshot()
	assert.Equal(t, bellmanford.PhaseIdle, snap.State.Phase)
	assert.Equal(t, "B", snap.State.Source)
	assert.Equal(t, "A", snap.State.Target)
}

func TestRunLeavesCallerGraphAlone(t *testing.T) {
	g := triangle(t)
	c, _ := newTestController(t, g)
	require.NoError(t, c.Select("A", "C"))
	require.NoError(t, c.RunToCompletion())
	require.NoError(t, c.MoveNode("B", model.Position{X: 1, Y: 2}))

	for _, id := range []string{"A", "B", "C"} {
		n, err := g.FindNode(id)
		require.NoError(t, err)
		assert.False(t, n.IsSource, "node %s", id)
		assert.False(t, n.IsTarget, "node %s", id)
		assert.Equal(t, model.Infinity, n.Distance, "node %s", id)
	}
	b, err := g.FindNode("B")
	require.NoError(t, err)
	assert.NotEqual(t, model.Position{X: 1, Y: 2}, b.Position)
}

func TestSelectSourceDiscardsRun(t *testing.T) {
	c, _ := newTestController(t, triangle(t))
	require.NoError(t, c.SelectSource("A"))
	require.NoError(t, c.SingleStep())

	require.NoError(t, c.SelectSource("B"))
	snap := c.Snapshot()
	assert.Equal(t, bellmanford.PhaseIdle, snap.State.Phase)
	assert.Equal(t, "B", snap.State.Source)
}

func TestSetGraph(t *testing.T) {
	c, _ := newTestController(t, chain(t))
	require.NoError(t, c.SelectSource("A"))
	require.NoError(t, c.SelectTarget("E"))
	require.NoError(t, c.Start())

	c.SetGraph(triangle(t))

	assert.False(t, c.Running())
	source, target := c.Selection()
	assert.Equal(t, "A", source)
	assert.Empty(t, target, "E does not exist in the new graph")

	snap := c.Snapshot()
	assert.Len(t, snap.Graph.Nodes, 3)
	assert.Equal(t, bellmanford.PhaseIdle, snap.State.Phase)
}

func TestMoveNodeKeepsRun(t *testing.T) {
	c, _ := newTestController(t, triangle(t))
	require.NoError(t, c.SelectSource("A"))
	require.NoError(t, c.SingleStep())

	require.NoError(t, c.MoveNode("B", model.Position{X: 10, Y: 20}))
	assert.ErrorIs(t, c.MoveNode("Z", model.Position{}), graph.ErrNodeNotFound)

	snap := c.Snapshot()
	assert.Equal(t, 1, snap.State.CurrentIteration)
	assert.Equal(t, model.Position{X: 10, Y: 20}, snap.Graph.Nodes[1].Position)
}

func TestRecorder(t *testing.T) {
	reg := metrics.NewRegistry()
	c, clock := newTestController(t, buildGraph(t, []string{"A", "B"}, []model.WeightedEdge{
		{From: "A", To: "B", Weight: -1},
		{From: "B", To: "A", Weight: -1},
	}), WithRecorder(reg))
	require.NoError(t, c.SelectSource("A"))

	require.NoError(t, c.Start())
	clock.Advance(time.Second)

	assert.Equal(t, float64(1), testutil.ToFloat64(reg.StepsTotal))
	assert.Equal(t, float64(2), testutil.ToFloat64(reg.RelaxationsTotal))
	assert.Equal(t, float64(1), testutil.ToFloat64(reg.NegativeCyclesTotal))
	assert.Equal(t, float64(1), testutil.ToFloat64(reg.RunsFinishedTotal.WithLabelValues("negative-cycle")))
	assert.Equal(t, float64(0), testutil.ToFloat64(reg.RunsActive))
	assert.Equal(t, float64(2), testutil.ToFloat64(reg.GraphNodes))
}
