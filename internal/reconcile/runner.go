package reconcile

import (
	"context"
	"sync"
	"time"
)

// Runner binds an Engine to its State and serializes access. The interval
// loop and the snapshot server share one Runner; the mutex is held for a
// whole cycle, matching the single-mutator model the state depends on.
type Runner struct {
	engine *Engine

	mu          sync.Mutex
	state       *State
	lastOutcome Outcome
	lastRunAt   time.Time
	lastErr     error
}

// NewRunner creates a runner with fresh state.
func NewRunner(engine *Engine) *Runner {
	return &Runner{engine: engine, state: NewState()}
}

// Cycle runs one reconciliation cycle. It is the function handed to the
// interval loop.
func (r *Runner) Cycle(ctx context.Context) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	outcome, err := r.engine.RunCycle(ctx, r.state)
	r.lastRunAt = r.engine.now()
	r.lastErr = err
	if err == nil {
		r.lastOutcome = outcome
	}
	return err
}

// Snapshot is a read-only view of the last cycle for observability.
type Snapshot struct {
	Action       Action
	ResolvedID   string
	Icon         string
	Message      string
	DoNotDisturb bool
	WindowEnd    time.Time
	NextID       string
	NextStart    time.Time
	LastSetID    string
	LastSetKnown bool
	LastRunAt    time.Time
	LastError    string
}

// Snapshot returns the current view. Safe to call from other goroutines.
func (r *Runner) Snapshot() Snapshot {
	r.mu.Lock()
	defer r.mu.Unlock()

	snap := Snapshot{
		Action:       r.lastOutcome.Action,
		ResolvedID:   r.lastOutcome.Resolved.ID,
		Icon:         r.lastOutcome.Resolved.Icon,
		Message:      r.lastOutcome.Resolved.Message,
		DoNotDisturb: r.lastOutcome.Resolved.DoNotDisturb,
		WindowEnd:    r.lastOutcome.Resolved.End,
		LastRunAt:    r.lastRunAt,
	}
	if r.lastOutcome.Next != nil {
		snap.NextID = r.lastOutcome.Next.ID
		snap.NextStart = r.lastOutcome.Next.Start
	}
	snap.LastSetID, snap.LastSetKnown = r.state.LastSet()
	if r.lastErr != nil {
		snap.LastError = r.lastErr.Error()
	}
	return snap
}
