package scheduler

import (
	"sync"
	"time"
)

// TickFunc is invoked on every tick. Returning false ends the task.
type TickFunc func() bool

// Task repeatedly invokes a TickFunc, waiting Interval() between invocations.
// At most one timer is pending at any time. A tick that fires after Stop, or after
// the task was restarted, is discarded.
type Task struct {
	clock    Clock
	interval func() time.Duration
	tick     TickFunc

	mu      sync.Mutex
	gen     uint64
	active  bool
	pending Timer
}

// NewTask creates a stopped task. interval is consulted each time the next tick is
// scheduled, so delay changes take effect from the following tick.
func NewTask(clock Clock, interval func() time.Duration, tick TickFunc) *Task {
	if clock == nil {
		clock = RealClock{}
	}
	return &Task{clock: clock, interval: interval, tick: tick}
}

// Start schedules the first tick after one interval. Starting an active task is a no-op.
func (t *Task) Start() {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.active {
		return
	}
	t.active = true
	t.gen++
	t.scheduleLocked(t.gen)
}

// Stop cancels the pending tick. It returns true if the task was active.
func (t *Task) Stop() bool {
	t.mu.Lock()
	defer t.mu.Unlock()

	if !t.active {
		return false
	}
	t.active = false
	t.gen++
	if t.pending != nil {
		t.pending.Stop()
		t.pending = nil
	}
	return true
}

// Active reports whether the task is running
func (t *Task) Active() bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.active
}

func (t *Task) scheduleLocked(gen uint64) {
	t.pending = t.clock.AfterFunc(t.interval(), func() { t.fire(gen) })
}

func (t *Task) fire(gen uint64) {
	t.mu.Lock()
	if !t.active || gen != t.gen {
		t.mu.Unlock()
		return
	}
	t.pending = nil
	t.mu.Unlock()

	more := t.tick()

	t.mu.Lock()
	defer t.mu.Unlock()
	if !t.active || gen != t.gen {
		return
	}
	if !more {
		t.active = false
		t.gen++
		return
	}
	t.scheduleLocked(gen)
}
