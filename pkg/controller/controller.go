// Package controller drives Bellman-Ford runs: continuous animated runs paced by a
// clock, single steps, and synchronous batch runs. All engine access is serialized.
package controller

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"github.com/ritzau/bellman-viz/pkg/bellmanford"
	"github.com/ritzau/bellman-viz/pkg/graph"
	"github.com/ritzau/bellman-viz/pkg/logging"
	"github.com/ritzau/bellman-viz/pkg/model"
	"github.com/ritzau/bellman-viz/pkg/scheduler"
)

const (
	MinSpeed     = 1
	MaxSpeed     = 10
	DefaultSpeed = 5
)

var (
	// ErrRunInProgress is returned by commands that conflict with a continuous run
	ErrRunInProgress = errors.New("controller: run in progress")

	// ErrNoSourceSelected is returned by Start, SingleStep and RunToCompletion without a source
	ErrNoSourceSelected = bellmanford.ErrNoSourceSelected
)

// DelayForSpeed maps a speed in [MinSpeed, MaxSpeed] to the pause between passes.
// Out of range speeds are clamped.
func DelayForSpeed(speed int) time.Duration {
	speed = clampSpeed(speed)
	return time.Duration(1100-100*speed) * time.Millisecond
}

func clampSpeed(speed int) int {
	return max(MinSpeed, min(MaxSpeed, speed))
}

// Options configures a Controller
type Options struct {
	Clock         scheduler.Clock
	Recorder      Recorder
	EngineOptions []bellmanford.Option
	Speed         int
}

// Option is a functional option for New
type Option func(*Options)

// WithClock sets the clock pacing continuous runs
func WithClock(clock scheduler.Clock) Option {
	return func(o *Options) { o.Clock = clock }
}

// WithRecorder sets the metrics recorder
func WithRecorder(r Recorder) Option {
	return func(o *Options) { o.Recorder = r }
}

// WithEngineOptions sets options applied to every engine the controller creates
func WithEngineOptions(opts ...bellmanford.Option) Option {
	return func(o *Options) { o.EngineOptions = opts }
}

// WithSpeed sets the initial speed
func WithSpeed(speed int) Option {
	return func(o *Options) { o.Speed = speed }
}

// Controller owns the engine and serializes every access to it
type Controller struct {
	mu     sync.Mutex
	engine *bellmanford.Engine

	clock      scheduler.Clock
	recorder   Recorder
	engineOpts []bellmanford.Option

	source string
	target string
	speed  int
	delay  atomic.Int64

	task     *scheduler.Task
	running  bool
	gen      uint64
	complete bool
	started  time.Time

	runID   string
	outcome Outcome
	notice  string

	// notifyMu orders observer delivery. It is acquired before mu is released.
	notifyMu  sync.Mutex
	observers []Observer
}

// New creates a controller over a copy of g. Runs never touch the caller's graph.
func New(g *graph.Graph, opts ...Option) *Controller {
	o := Options{Speed: DefaultSpeed}
	for _, opt := range opts {
		opt(&o)
	}
	if o.Clock == nil {
		o.Clock = scheduler.RealClock{}
	}
	if o.Recorder == nil {
		o.Recorder = nopRecorder{}
	}

	c := &Controller{
		engine:     bellmanford.NewEngine(g.Clone(), o.EngineOptions...),
		clock:      o.Clock,
		recorder:   o.Recorder,
		engineOpts: o.EngineOptions,
		speed:      clampSpeed(o.Speed),
	}
	c.delay.Store(int64(DelayForSpeed(c.speed)))
	c.recorder.GraphLoaded(g.NodeCount(), g.EdgeCount())
	c.recorder.DelayChanged(c.Delay())
	return c
}

// Observe registers an observer for subsequent events
func (c *Controller) Observe(o Observer) {
	c.notifyMu.Lock()
	defer c.notifyMu.Unlock()
	c.observers = append(c.observers, o)
}

// Snapshot returns a copy of the full presentation state
func (c *Controller) Snapshot() Snapshot {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.snapshotLocked()
}

// Delay returns the pause between animated passes
func (c *Controller) Delay() time.Duration {
	return time.Duration(c.delay.Load())
}

// Running reports whether a continuous run is active
func (c *Controller) Running() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.running
}

// SetSpeed clamps speed to [MinSpeed, MaxSpeed] and derives the delay from it.
// A run in progress picks up the new delay from its next pass.
func (c *Controller) SetSpeed(speed int) time.Duration {
	c.mu.Lock()
	c.speed = clampSpeed(speed)
	d := DelayForSpeed(c.speed)
	c.setDelayLocked(d)
	c.dispatchAndUnlock(c.event(EventSpeed))
	return d
}

// SetDelay sets the pause between animated passes directly. Negative delays become zero.
func (c *Controller) SetDelay(d time.Duration) {
	c.mu.Lock()
	c.setDelayLocked(max(d, 0))
	c.dispatchAndUnlock(c.event(EventSpeed))
}

func (c *Controller) setDelayLocked(d time.Duration) {
	c.delay.Store(int64(d))
	c.recorder.DelayChanged(d)
	logging.Debug("delay changed", "delayMs", d.Milliseconds())
}

// Select sets source and target together. Both ids are checked before either
// changes, and an empty id clears that side. Changing the source discards the
// current run.
func (c *Controller) Select(source, target string) error {
	c.mu.Lock()
	return c.selectAndUnlock(source, target)
}

// SelectSource selects the run source, keeping the target
func (c *Controller) SelectSource(id string) error {
	c.mu.Lock()
	return c.selectAndUnlock(id, c.target)
}

// SelectTarget selects the path target, keeping the source
func (c *Controller) SelectTarget(id string) error {
	c.mu.Lock()
	return c.selectAndUnlock(c.source, id)
}

// selectAndUnlock must be called with mu held
func (c *Controller) selectAndUnlock(source, target string) error {
	if err := c.engine.Select(source, target); err != nil {
		c.mu.Unlock()
		return err
	}

	var events []Event
	if source != c.source && c.engine.Phase() != bellmanford.PhaseIdle {
		events = append(events, c.resetLocked()...)
	}
	c.source = source
	c.target = target
	events = append(events, c.event(EventSelection))
	c.dispatchAndUnlock(events...)
	return nil
}

// Selection returns the selected source and target ids
func (c *Controller) Selection() (source, target string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.source, c.target
}

// MoveNode updates a node position without touching the run
func (c *Controller) MoveNode(id string, pos model.Position) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.engine.Graph().MoveNode(id, pos)
}

// SetGraph replaces the graph with a copy of g. The current run is discarded and
// selections that no longer exist are dropped.
func (c *Controller) SetGraph(g *graph.Graph) {
	c.mu.Lock()
	events := c.resetLocked()

	c.engine = bellmanford.NewEngine(g.Clone(), c.engineOpts...)
	if _, err := g.FindNode(c.source); err != nil {
		c.source = ""
	}
	if _, err := g.FindNode(c.target); err != nil {
		c.target = ""
	}
	_ = c.engine.Select(c.source, c.target)

	c.recorder.GraphLoaded(g.NodeCount(), g.EdgeCount())
	logging.Info("graph loaded", "nodes", g.NodeCount(), "edges", g.EdgeCount())

	events = append(events, c.event(EventGraphLoaded))
	c.dispatchAndUnlock(events...)
}

// Start begins a continuous run from the selected source: the first pass runs
// immediately, then one pass per delay, and the run finalizes on its own.
// Finalize outcomes are reported to observers and kept in the snapshot.
func (c *Controller) Start() error {
	c.mu.Lock()
	if c.source == "" {
		c.mu.Unlock()
		return ErrNoSourceSelected
	}

	events := c.haltLocked()
	if err := c.beginLocked("continuous"); err != nil {
		c.mu.Unlock()
		return err
	}
	events = append(events, c.event(EventInitialized))
	c.running = true

	gen := c.gen
	more, advanced, _ := c.advanceLocked()
	events = append(events, advanced...)
	if more {
		c.task = scheduler.NewTask(c.clock, c.Delay, func() bool { return c.tick(gen) })
		c.task.Start()
	}

	logging.InfoContext(c.runContext(), "run started",
		"source", c.source,
		"target", c.target,
		"delayMs", c.Delay().Milliseconds())
	c.dispatchAndUnlock(events...)
	return nil
}

// tick is the scheduled continuation of the run started with generation gen
func (c *Controller) tick(gen uint64) bool {
	c.mu.Lock()
	if !c.running || gen != c.gen {
		c.mu.Unlock()
		logging.Trace("discarding stale tick", "generation", gen)
		return false
	}

	more, events, _ := c.advanceLocked()
	c.dispatchAndUnlock(events...)
	return more
}

// advanceLocked performs one pass, or finalizes once relaxation is complete.
// It returns whether more passes remain.
func (c *Controller) advanceLocked() (bool, []Event, error) {
	if c.engine.Phase() < bellmanford.PhaseConverged {
		ev, err := c.stepLocked()
		if err != nil {
			ev = append(ev, c.failLocked(err)...)
			return false, ev, err
		}
		return true, ev, nil
	}

	events, err := c.finalizeLocked()
	return false, events, err
}

func (c *Controller) stepLocked() ([]Event, error) {
	result, err := c.engine.Step()
	if err != nil {
		return nil, err
	}
	c.recorder.StepCompleted(len(result.Relaxations))

	ev := c.event(EventStep)
	ev.Step = &result
	return []Event{ev}, nil
}

// finalizeLocked runs the cycle check and, with a target selected, path reconstruction.
// Informational outcomes are returned as errors for single-step callers.
func (c *Controller) finalizeLocked() ([]Event, error) {
	wasRunning := c.running
	c.running = false
	c.stopTaskLocked()

	report, err := c.engine.CheckNegativeCycle()
	if err != nil {
		return c.failLocked(err), err
	}

	check := c.event(EventCycleCheck)
	check.Report = &report
	events := []Event{check}
	if report.Detected {
		c.recorder.NegativeCycleDetected()
	}

	switch {
	case c.target != "":
		path, perr := c.engine.ReconstructPath(c.target)
		switch {
		case perr == nil:
			c.outcome = OutcomePathFound
			c.notice = ""
			ev := c.event(EventPath)
			ev.Path = &path
			events = append(events, ev)
		case errors.Is(perr, bellmanford.ErrNegativeCycle):
			c.outcome = OutcomeNegativeCycle
			c.notice = negativeCycleNotice
		case errors.Is(perr, bellmanford.ErrUnreachable):
			c.outcome = OutcomeUnreachable
			c.notice = fmt.Sprintf("The target node %s is not reachable from the source node %s.", c.target, c.source)
		default:
			return append(events, c.failLocked(perr)...), perr
		}
		err = perr
	case report.Detected:
		c.outcome = OutcomeNegativeCycle
		c.notice = negativeCycleNotice
		err = bellmanford.ErrNegativeCycle
	default:
		c.outcome = OutcomeCompleted
		c.notice = ""
	}

	c.complete = true
	c.recorder.RunFinished(string(c.outcome), c.clock.Now().Sub(c.started))

	done := c.event(EventFinished)
	done.Report = &report
	events = append(events, done)

	logging.InfoContext(c.runContext(), "run finished",
		"outcome", string(c.outcome),
		"iterations", c.engine.State().CurrentIteration,
		"continuous", wasRunning)
	return events, err
}

const negativeCycleNotice = "A valid shortest path cannot be determined because the graph contains a negative cycle."

func (c *Controller) failLocked(err error) []Event {
	c.running = false
	c.stopTaskLocked()
	c.complete = true
	c.outcome = OutcomeFailed
	c.notice = ""
	c.recorder.RunFinished(string(c.outcome), c.clock.Now().Sub(c.started))

	logging.ErrorContext(c.runContext(), "run failed", "error", err, "inconsistentState", bellmanford.Fatal(err))

	ev := c.event(EventFinished)
	ev.Error = err.Error()
	return []Event{ev}
}

// Stop halts a continuous run without resetting it
func (c *Controller) Stop() {
	c.mu.Lock()
	events := c.haltLocked()
	c.dispatchAndUnlock(events...)
}

// haltLocked cancels the schedule and invalidates pending ticks
func (c *Controller) haltLocked() []Event {
	c.gen++
	c.stopTaskLocked()
	if !c.running {
		return nil
	}
	c.running = false
	c.recorder.RunHalted()
	logging.InfoContext(c.runContext(), "run stopped", "iteration", c.engine.State().CurrentIteration)
	return []Event{c.event(EventStopped)}
}

func (c *Controller) stopTaskLocked() {
	if c.task != nil {
		c.task.Stop()
		c.task = nil
	}
}

// SingleStep advances the run by one unit: it initializes when idle (and performs
// the first pass), steps while passes remain, and finalizes once. Later calls are
// no-ops until Reset or Start.
func (c *Controller) SingleStep() error {
	c.mu.Lock()
	if c.running {
		c.mu.Unlock()
		return ErrRunInProgress
	}
	if c.source == "" {
		c.mu.Unlock()
		return ErrNoSourceSelected
	}
	if c.complete {
		c.mu.Unlock()
		return nil
	}

	var events []Event
	if c.engine.Phase() == bellmanford.PhaseIdle {
		if err := c.beginLocked("single-step"); err != nil {
			c.mu.Unlock()
			return err
		}
		events = append(events, c.event(EventInitialized))
	}

	_, advanced, err := c.advanceLocked()
	events = append(events, advanced...)
	c.dispatchAndUnlock(events...)
	return err
}

// RunToCompletion performs a whole run synchronously without pacing
func (c *Controller) RunToCompletion() error {
	c.mu.Lock()
	if c.running {
		c.mu.Unlock()
		return ErrRunInProgress
	}
	if c.source == "" {
		c.mu.Unlock()
		return ErrNoSourceSelected
	}

	events := c.haltLocked()
	if err := c.beginLocked("batch"); err != nil {
		c.mu.Unlock()
		return err
	}
	events = append(events, c.event(EventInitialized))

	var err error
	for more := true; more; {
		var advanced []Event
		more, advanced, err = c.advanceLocked()
		events = append(events, advanced...)
	}
	c.dispatchAndUnlock(events...)
	return err
}

// Reset stops any run and discards its state
func (c *Controller) Reset() {
	c.mu.Lock()
	events := c.resetLocked()
	c.dispatchAndUnlock(events...)
}

func (c *Controller) resetLocked() []Event {
	events := c.haltLocked()
	c.engine.Reset()
	c.complete = false
	c.outcome = OutcomeNone
	c.notice = ""
	c.runID = ""
	return append(events, c.event(EventReset))
}

// beginLocked resets the engine and initializes a fresh run with a new id
func (c *Controller) beginLocked(mode string) error {
	c.engine.Reset()
	c.complete = false
	c.outcome = OutcomeNone
	c.notice = ""
	if err := c.engine.Initialize(c.source); err != nil {
		return err
	}
	c.runID = uuid.NewString()
	c.started = c.clock.Now()
	c.recorder.RunStarted(mode)
	logging.DebugContext(c.runContext(), "run initialized", "mode", mode)
	return nil
}

func (c *Controller) runContext() context.Context {
	return logging.WithRunID(context.Background(), c.runID)
}

func (c *Controller) event(t EventType) Event {
	state := c.engine.State()
	return Event{
		Type:      t,
		RunID:     c.runID,
		Iteration: state.CurrentIteration,
		Outcome:   c.outcome,
		Notice:    c.notice,
		Time:      c.clock.Now(),
	}
}

// dispatchAndUnlock releases mu and delivers events in order, together with the
// snapshot taken after the command that produced them.
func (c *Controller) dispatchAndUnlock(events ...Event) {
	c.notifyMu.Lock()
	defer c.notifyMu.Unlock()
	if len(c.observers) == 0 || len(events) == 0 {
		c.mu.Unlock()
		return
	}
	snap := c.snapshotLocked()
	c.mu.Unlock()

	for _, ev := range events {
		for _, o := range c.observers {
			o(ev, snap)
		}
	}
}
