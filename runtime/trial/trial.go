package trial

import (
	"fmt"
	"sync"
	"time"

	"github.com/sweepline/sweep/internal/idgen"
	"github.com/sweepline/sweep/model"
	"github.com/sweepline/sweep/service/event"
)

// Trial represents a single evaluation of an arm within a run
type Trial struct {
	ID             string                 `json:"id"`
	RunID          string                 `json:"runId"`
	Index          int                    `json:"index"`
	Arm            *model.Arm             `json:"arm"`
	GeneratedBy    string                 `json:"generatedBy,omitempty"`
	State          State                  `json:"state"`
	Input          interface{}            `json:"input,omitempty"`
	Outcome        model.Outcome          `json:"outcome,omitempty"`
	Error          string                 `json:"error,omitempty"`
	Attempts       int                    `json:"attempts,omitempty"`
	ScheduledAt    time.Time              `json:"scheduledAt"`
	StartedAt      *time.Time             `json:"startedAt,omitempty"`
	PausedAt       *time.Time             `json:"pausedAt,omitempty"`
	CompletedAt    *time.Time             `json:"completedAt,omitempty"`
	Meta           map[string]interface{} `json:"meta,omitempty"`
	RunAfter       *time.Time             `json:"runAfter,omitempty"`
	mux            sync.RWMutex           `json:"-"`
	Approved       *bool                  `json:"approved,omitempty"`
	ApprovalReason string                 `json:"approvalReason,omitempty"`
}

func (t *Trial) Context(eventType string, evaluation *model.Evaluation) *event.Context {
	ret := &event.Context{
		EventType: eventType,
		RunID:     t.RunID,
		TrialID:   t.ID,
	}
	if evaluation != nil {
		ret.Service = evaluation.Service
		ret.Method = evaluation.Method
	}
	return ret
}

// New creates a new trial for an arm
func New(runID string, index int, arm *model.Arm, generatedBy string) *Trial {
	return &Trial{
		ID:          generateTrialID(runID, index),
		RunID:       runID,
		Index:       index,
		Arm:         arm,
		GeneratedBy: generatedBy,
		State:       StatePending,
		ScheduledAt: time.Now(),
	}
}

// Start marks the trial as started
func (t *Trial) Start() {
	now := time.Now()
	t.StartedAt = &now
	t.State = StateRunning
}

// Complete marks the trial as completed with its outcome
func (t *Trial) Complete(outcome model.Outcome) {
	now := time.Now()
	t.CompletedAt = &now
	t.Outcome = outcome
	t.State = StateCompleted
}

func (t *Trial) Pause() {
	now := time.Now()
	t.PausedAt = &now
	t.State = StatePaused
}

// Fail marks the trial as failed
func (t *Trial) Fail(err error) {
	now := time.Now()
	t.CompletedAt = &now
	if err != nil {
		t.Error = err.Error()
	}
	t.State = StateFailed
}

// Abandon drops the trial from the run budget
func (t *Trial) Abandon(reason string) {
	now := time.Now()
	t.CompletedAt = &now
	t.Error = reason
	t.State = StateAbandoned
}

// EarlyStop stops the trial keeping partial data
func (t *Trial) EarlyStop() {
	now := time.Now()
	t.CompletedAt = &now
	t.State = StateEarlyStopped
}

func (t *Trial) Schedule() {
	t.ScheduledAt = time.Now()
	t.State = StateScheduled
}

func (t *Trial) Merge(trial *Trial) {
	if trial == nil || trial == t {
		return
	}
	t.mux.Lock()
	trial.mux.RLock()
	defer trial.mux.RUnlock()
	defer t.mux.Unlock()

	if trial.Outcome != nil {
		t.Outcome = trial.Outcome
	}
	if trial.State != "" {
		t.State = trial.State
	}
	if trial.Error != "" {
		t.Error = trial.Error
	}
	if trial.StartedAt != nil {
		t.StartedAt = trial.StartedAt
	}
	if trial.CompletedAt != nil {
		t.CompletedAt = trial.CompletedAt
	}
	if trial.PausedAt != nil {
		t.PausedAt = trial.PausedAt
	}
	if trial.Attempts > t.Attempts {
		t.Attempts = trial.Attempts
	}
	if trial.Approved != nil {
		t.Approved = trial.Approved
	}
	if trial.ApprovalReason != "" {
		t.ApprovalReason = trial.ApprovalReason
	}
	if trial.RunAfter != nil {
		t.RunAfter = trial.RunAfter
	}
	if t.Meta == nil {
		t.Meta = make(map[string]interface{})
	}
	for key, value := range trial.Meta {
		t.Meta[key] = value
	}
}

// generateTrialID creates a unique ID for a trial
func generateTrialID(runID string, index int) string {
	return fmt.Sprintf("%s-%d-%s", runID, index, idgen.New())
}

// Clone creates a deep copy of the trial so that the caller can mutate it
// without affecting the original instance.  Only mutable collections are
// deep-copied; the arm is cloned because generators may reuse parameter maps.
func (t *Trial) Clone() *Trial {
	if t == nil {
		return nil
	}
	t.mux.RLock()
	defer t.mux.RUnlock()

	clone := *t
	clone.mux = sync.RWMutex{}

	clone.Arm = t.Arm.Clone()

	if t.Outcome != nil {
		clone.Outcome = make(model.Outcome, len(t.Outcome))
		for k, v := range t.Outcome {
			clone.Outcome[k] = v
		}
	}

	if t.Meta != nil {
		clone.Meta = make(map[string]interface{}, len(t.Meta))
		for k, v := range t.Meta {
			clone.Meta[k] = v
		}
	}

	if t.RunAfter != nil {
		at := *t.RunAfter
		clone.RunAfter = &at
	}

	return &clone
}
