package trial

import (
	"context"
	"sync"
	"time"

	"github.com/sweepline/sweep/model"
	"github.com/sweepline/sweep/policy"
	"github.com/sweepline/sweep/tracing"
)

// Run state constants
const (
	RunStatePending   = "pending"
	RunStateRunning   = "running"
	RunStatePaused    = "paused"
	RunStateCompleted = "completed"
	RunStateFailed    = "failed"
)

// Run represents an optimization loop instance over one experiment
type Run struct {
	ID         string            `json:"id"`
	SCN        int               `json:"scn"`
	Name       string            `json:"name"`
	State      string            `json:"state"`
	Experiment *model.Experiment `json:"experiment"`
	CreatedAt  time.Time         `json:"createdAt"`
	UpdatedAt  time.Time         `json:"updatedAt"`
	FinishedAt *time.Time        `json:"finishedAt"`
	Session    *Session          `json:"session"`
	Trials     []*Trial          `json:"trials,omitempty"`
	Data       *model.Data       `json:"data,omitempty"`
	Errors     map[string]string `json:"errors"`
	Span       *tracing.Span     `json:"-"`

	// StepIndex tracks the active generation step; StepGenerated counts arms
	// produced by it so far.
	StepIndex     int `json:"stepIndex"`
	StepGenerated int `json:"stepGenerated"`

	ActiveTrialCount int            `json:"activeTrialCount"`
	Policy           *policy.Config `json:"policy,omitempty"`

	mu         sync.RWMutex
	signatures map[string]string // arm signature -> arm name
}

// Wait blocks until the run finishes or the timeout elapses.
type Wait func(ctx context.Context, timeout time.Duration) (*RunOutput, error)

// RunOutput is the terminal summary of a run.
type RunOutput struct {
	RunID      string
	State      string
	BestArm    *model.Arm
	BestValue  *float64
	Trials     int
	Errors     map[string]string
	TimeTaken  time.Duration
	Timeout    bool
}

// NewRun creates a new run over an experiment
func NewRun(id string, name string, experiment *model.Experiment, initialState map[string]interface{}) *Run {
	now := time.Now()
	if initialState == nil {
		initialState = make(map[string]interface{})
	}
	ret := &Run{
		ID:         id,
		Name:       name,
		State:      RunStatePending,
		Experiment: experiment,
		CreatedAt:  now,
		UpdatedAt:  now,
		Session:    NewSession(id, WithState(initialState)),
		Data:       &model.Data{},
		Errors:     make(map[string]string),
		signatures: make(map[string]string),
	}
	if experiment != nil && experiment.StatusQuo != nil {
		ret.signatures[experiment.StatusQuo.Signature()] = experiment.StatusQuo.Name
	}
	return ret
}

// Push appends trials to the run, registering their arm signatures
func (r *Run) Push(trials ...*Trial) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, t := range trials {
		r.Trials = append(r.Trials, t)
		if t.Arm != nil {
			r.ensureSignatures()
			r.signatures[t.Arm.Signature()] = t.Arm.Name
		}
	}
}

func (r *Run) Remove(aTrial *Trial) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if len(r.Trials) == 0 || aTrial == nil {
		return
	}

	// Filter-copy preserving order; this correctly handles removal of any
	// element including the last.
	trials := r.Trials[:0]
	for _, t := range r.Trials {
		if t.ID != aTrial.ID {
			trials = append(trials, t)
		}
	}
	r.Trials = trials
}

// LookupTrial returns the trial with the given ID or nil.
func (r *Run) LookupTrial(id string) *Trial {
	r.mu.RLock()
	defer r.mu.RUnlock()
	for i := len(r.Trials) - 1; i >= 0; i-- {
		if r.Trials[i].ID == id {
			return r.Trials[i]
		}
	}
	return nil
}

// TrialByIndex returns the trial with the given index or nil.
func (r *Run) TrialByIndex(index int) *Trial {
	r.mu.RLock()
	defer r.mu.RUnlock()
	for i := len(r.Trials) - 1; i >= 0; i-- {
		if r.Trials[i].Index == index {
			return r.Trials[i]
		}
	}
	return nil
}

// NextTrialIndex returns the index the next trial should use.
func (r *Run) NextTrialIndex() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	next := 0
	for _, t := range r.Trials {
		if t.Index >= next {
			next = t.Index + 1
		}
	}
	return next
}

// HasSignature reports whether an arm with the same parameters was already
// attached to the run.
func (r *Run) HasSignature(signature string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.ensureSignatures()
	_, ok := r.signatures[signature]
	return ok
}

// Arms returns all arms attached to the run keyed by arm name, including the
// experiment status quo.
func (r *Run) Arms() map[string]*model.Arm {
	r.mu.RLock()
	defer r.mu.RUnlock()
	ret := make(map[string]*model.Arm, len(r.Trials)+1)
	if r.Experiment != nil && r.Experiment.StatusQuo != nil {
		ret[r.Experiment.StatusQuo.Name] = r.Experiment.StatusQuo
	}
	for _, t := range r.Trials {
		if t.Arm != nil && t.Arm.Name != "" {
			ret[t.Arm.Name] = t.Arm
		}
	}
	return ret
}

// AttachData appends observed rows to the run data set.
func (r *Run) AttachData(rows ...*model.Row) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.Data == nil {
		r.Data = &model.Data{}
	}
	r.Data.Append(rows...)
	r.UpdatedAt = time.Now()
}

// Observations converts the accumulated run data into observations. Data
// rows naming an arm the run never generated are an error.
func (r *Run) Observations() ([]*model.Observation, error) {
	arms := r.Arms()
	r.mu.RLock()
	defer r.mu.RUnlock()
	if r.Data.IsEmpty() {
		return nil, nil
	}
	return model.ObservationsFromData(arms, r.Data)
}

// GetState returns the run state
func (r *Run) GetState() string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.State
}

// RecordError notes a failure keyed by its origin. The map is initialized
// lazily because runs rehydrated from storage may carry a nil one.
func (r *Run) RecordError(key, message string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.Errors == nil {
		r.Errors = make(map[string]string)
	}
	r.Errors[key] = message
}

// SetState updates the run state
func (r *Run) SetState(state string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.State = state
	switch state {
	case RunStateCompleted, RunStateFailed:
		now := time.Now()
		r.FinishedAt = &now
	}
	r.UpdatedAt = time.Now()
}

// CopyFrom updates exported, mutex-independent fields from src.  It
// intentionally skips sync.RWMutex as copying it would corrupt internal state.
func (r *Run) CopyFrom(src any) {
	other, ok := src.(*Run)
	if !ok || other == nil || r == other {
		return
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	r.SCN = other.SCN
	r.State = other.State
	r.UpdatedAt = other.UpdatedAt
	r.FinishedAt = other.FinishedAt
	r.Trials = other.Trials
	r.Data = other.Data
	r.Errors = other.Errors
	r.StepIndex = other.StepIndex
	r.StepGenerated = other.StepGenerated
	r.ActiveTrialCount = other.ActiveTrialCount
	r.signatures = nil
	// Session and Experiment are immutable references, no copy.
}

// IncrementActiveTrialCount increments the active trial counter
func (r *Run) IncrementActiveTrialCount() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.ActiveTrialCount++
	return r.ActiveTrialCount
}

// DecrementActiveTrialCount decrements the active trial counter
func (r *Run) DecrementActiveTrialCount() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.ActiveTrialCount > 0 {
		r.ActiveTrialCount--
	}
	return r.ActiveTrialCount
}

// GetActiveTrialCount returns the current active trial count
func (r *Run) GetActiveTrialCount() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.ActiveTrialCount
}

// AdvanceStep moves the run to the next generation step.
func (r *Run) AdvanceStep() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.StepIndex++
	r.StepGenerated = 0
}

// CountGenerated increments the per-step generation counter.
func (r *Run) CountGenerated(n int) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.StepGenerated += n
}

// Clone creates a deep copy of the Run suitable for safe concurrent
// reads/mutations outside the original store.  The Experiment pointer is not
// cloned because experiments are immutable after initial load.
func (r *Run) Clone() *Run {
	if r == nil {
		return nil
	}
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := &Run{
		ID:               r.ID,
		SCN:              r.SCN,
		Name:             r.Name,
		State:            r.State,
		Experiment:       r.Experiment, // immutable, safe to share
		CreatedAt:        r.CreatedAt,
		UpdatedAt:        r.UpdatedAt,
		FinishedAt:       r.FinishedAt,
		Session:          r.Session, // has own locking, safe to share
		Span:             r.Span,
		StepIndex:        r.StepIndex,
		StepGenerated:    r.StepGenerated,
		ActiveTrialCount: r.ActiveTrialCount,
		Policy:           r.Policy,
		// signatures intentionally left nil, rebuilt lazily
	}

	if len(r.Trials) > 0 {
		out.Trials = make([]*Trial, len(r.Trials))
		for i, t := range r.Trials {
			out.Trials[i] = t.Clone()
		}
	}

	if r.Data != nil {
		out.Data = &model.Data{Rows: append([]*model.Row(nil), r.Data.Rows...)}
	}

	if r.Errors != nil {
		out.Errors = make(map[string]string, len(r.Errors))
		for k, v := range r.Errors {
			out.Errors[k] = v
		}
	}
	return out
}

// ensureSignatures rebuilds the signature index, caller must hold the lock.
func (r *Run) ensureSignatures() {
	if r.signatures != nil {
		return
	}
	r.signatures = make(map[string]string, len(r.Trials)+1)
	if r.Experiment != nil && r.Experiment.StatusQuo != nil {
		r.signatures[r.Experiment.StatusQuo.Signature()] = r.Experiment.StatusQuo.Name
	}
	for _, t := range r.Trials {
		if t.Arm != nil {
			r.signatures[t.Arm.Signature()] = t.Arm.Name
		}
	}
}
