// Package worker runs the control loop that drives metric sampling, event
// reconciliation, and retention pruning on independent intervals.
package worker

import (
	"context"
	"log/slog"
	"sync/atomic"
	"time"
)

// State is the scheduler lifecycle state.
type State int32

// Scheduler states.
const (
	StateStarting State = iota
	StateRunning
	StateShuttingDown
	StateStopped
)

// String returns the state name.
func (s State) String() string {
	switch s {
	case StateStarting:
		return "starting"
	case StateRunning:
		return "running"
	case StateShuttingDown:
		return "shutting-down"
	case StateStopped:
		return "stopped"
	default:
		return "unknown"
	}
}

// DefaultTick is the loop's fixed polling interval.
const DefaultTick = time.Second

// Task is one scheduled unit of work. Run is invoked when the task's own
// elapsed time reaches Interval.
type Task struct {
	Name     string
	Interval time.Duration
	Run      func(ctx context.Context) error
}

// Worker is a single-goroutine cooperative scheduler. Tasks run
// sequentially within a tick; a failing or panicking task is logged and
// never stops the loop or the other tasks.
type Worker struct {
	tasks        []Task
	tick         time.Duration
	logger       *slog.Logger
	state        atomic.Int32
	onTransition func(State)
}

// Option configures a Worker.
type Option func(*Worker)

// WithTick overrides the loop polling interval (for testing).
func WithTick(d time.Duration) Option {
	return func(w *Worker) { w.tick = d }
}

// WithLogger sets the logger for the Worker.
func WithLogger(logger *slog.Logger) Option {
	return func(w *Worker) { w.logger = logger }
}

// WithTransitionHook registers a callback invoked on every state change,
// e.g. for sd_notify integration.
func WithTransitionHook(fn func(State)) Option {
	return func(w *Worker) { w.onTransition = fn }
}

// New creates a Worker in the Starting state.
func New(tasks []Task, opts ...Option) *Worker {
	w := &Worker{
		tasks:  tasks,
		tick:   DefaultTick,
		logger: slog.Default(),
	}
	w.state.Store(int32(StateStarting))
	for _, opt := range opts {
		opt(w)
	}
	return w
}

// State returns the current scheduler state.
func (w *Worker) State() State {
	return State(w.state.Load())
}

// Run drives the loop until ctx is cancelled, then returns after finishing
// any in-flight task. The stop signal is polled between tasks, never
// mid-task, so shutdown is delayed by at most one task duration.
//
// Intervals are measured as elapsed time since each task's last completed
// run. Missed ticks do not catch up with multiple runs.
func (w *Worker) Run(ctx context.Context) {
	w.transition(StateRunning)

	// Zero last-run times make every task due on the first tick.
	last := make([]time.Time, len(w.tasks))

	ticker := time.NewTicker(w.tick)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			w.transition(StateShuttingDown)
			w.transition(StateStopped)
			return
		case <-ticker.C:
			for i, t := range w.tasks {
				if ctx.Err() != nil {
					break
				}
				if time.Since(last[i]) < t.Interval {
					continue
				}
				w.runTask(ctx, t)
				last[i] = time.Now()
			}
		}
	}
}

func (w *Worker) runTask(ctx context.Context, t Task) {
	defer func() {
		if rec := recover(); rec != nil {
			w.logger.Error("task panicked", "task", t.Name, "panic", rec)
		}
	}()

	if err := t.Run(ctx); err != nil {
		w.logger.Error("task failed", "task", t.Name, "error", err)
	}
}

func (w *Worker) transition(to State) {
	w.state.Store(int32(to))
	w.logger.Info("scheduler state changed", "state", to.String())
	if w.onTransition != nil {
		w.onTransition(to)
	}
}
