// Package progress provides a lightweight tracker that keeps aggregated
// trial counters (total, completed, failed, …) for a single experiment run.
// The tracker instance lives in the run context, so every component that
// receives the context can atomically update the counters via the Delta
// helper without requiring a global registry.

package progress

import (
	"context"
	"math"
	"sync"
	"time"
)

// Delta represents an incremental counter change emitted by the scheduler,
// evaluator or runner.  The fields are signed and therefore can be either
// positive (increment) or negative (decrement).
type Delta struct {
	Total     int
	Completed int
	Skipped   int
	Failed    int
	Running   int
	Pending   int
}

// Progress keeps aggregated trial counters for an experiment run.  It is
// safe for concurrent use.
type Progress struct {
	// Identification fields are informative only, filled when the run starts.
	RunID      string
	Experiment string
	StartedAt  time.Time

	// Counters, modified via Update().
	TotalTrials     int
	CompletedTrials int
	SkippedTrials   int
	FailedTrials    int
	RunningTrials   int
	PendingTrials   int

	// BestValue holds the best objective mean seen so far, nil until the
	// first completed trial reports one.
	BestValue *float64

	sync.Mutex
	onChange func(Progress)
}

// Update applies the supplied delta to the tracker.  It is safe to call from
// multiple goroutines.  If an onChange callback has been registered it will be
// invoked with a copy of the updated tracker outside the critical section so
// that the callback can perform slow operations (e.g. JSON encoding, I/O)
// without blocking engine internals.
func (p *Progress) Update(d Delta) {
	if p == nil {
		return
	}

	p.Lock()

	p.TotalTrials += d.Total
	p.CompletedTrials += d.Completed
	p.SkippedTrials += d.Skipped
	p.FailedTrials += d.Failed
	p.RunningTrials += d.Running
	p.PendingTrials += d.Pending

	// Make a value-copy for the callback while we still hold the lock to
	// avoid seeing partially updated counters.
	snapshot := *p
	cb := p.onChange

	p.Unlock()

	if cb != nil {
		cb(snapshot)
	}
}

// ObserveObjective folds an observed objective mean into the best-so-far
// value.  The onChange callback fires only when the value improves on the
// current best.
func (p *Progress) ObserveObjective(value float64, minimize bool) {
	if p == nil || math.IsNaN(value) {
		return
	}

	p.Lock()
	better := p.BestValue == nil
	if !better {
		if minimize {
			better = value < *p.BestValue
		} else {
			better = value > *p.BestValue
		}
	}
	if !better {
		p.Unlock()
		return
	}
	v := value
	p.BestValue = &v
	snapshot := *p
	cb := p.onChange
	p.Unlock()

	if cb != nil {
		cb(snapshot)
	}
}

// Snapshot returns a copy of the tracker suitable for read-only inspection.
func (p *Progress) Snapshot() Progress {
	if p == nil {
		return Progress{}
	}
	p.Lock()
	defer p.Unlock()
	return *p
}

// OnChange registers a callback that is invoked after every successful
// Update.  Passing nil disables the callback.  Only one callback can be
// active; subsequent calls overwrite the previous value.
func (p *Progress) OnChange(cb func(Progress)) {
	if p == nil {
		return
	}
	p.Lock()
	p.onChange = cb
	p.Unlock()
}

// ----------------------------------------------------------------------------
// Context helpers
// ----------------------------------------------------------------------------

type trackerKeyT struct{}

var trackerKey trackerKeyT

// WithNewTracker creates a new Progress tracker, embeds it in a derived
// context and returns both.  The caller may optionally pass an onChange
// callback that will be invoked after every counter update.
func WithNewTracker(ctx context.Context, runID, experiment string, onChange func(Progress)) (context.Context, *Progress) {
	if ctx == nil {
		ctx = context.Background()
	}
	tr := &Progress{
		RunID:      runID,
		Experiment: experiment,
		StartedAt:  time.Now(),
		onChange:   onChange,
	}
	return context.WithValue(ctx, trackerKey, tr), tr
}

// FromContext extracts the Progress tracker from ctx.  It returns (tracker,
// ok).  The second return value is false when the context carries no tracker.
func FromContext(ctx context.Context) (*Progress, bool) {
	if ctx == nil {
		return nil, false
	}
	tr, ok := ctx.Value(trackerKey).(*Progress)
	return tr, ok
}

// GetSnapshot is a convenience wrapper that combines FromContext and
// Snapshot.  The boolean return value is false when the context does not
// carry a tracker.
func GetSnapshot(ctx context.Context) (Progress, bool) {
	if tr, ok := FromContext(ctx); ok {
		return tr.Snapshot(), true
	}
	return Progress{}, false
}

// UpdateCtx is a helper that looks up the tracker in ctx (if any) and applies
// the supplied delta.
func UpdateCtx(ctx context.Context, d Delta) {
	if tr, ok := FromContext(ctx); ok {
		tr.Update(d)
	}
}

// ObserveCtx looks up the tracker in ctx (if any) and folds an observed
// objective mean into its best-so-far value.
func ObserveCtx(ctx context.Context, value float64, minimize bool) {
	if tr, ok := FromContext(ctx); ok {
		tr.ObserveObjective(value, minimize)
	}
}
