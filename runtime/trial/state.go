package trial

// State represents the current State of a trial
type State string

const (
	StatePending   State = "pending"
	StateScheduled State = "scheduled"
	StateRunning   State = "running"
	// StateWaitForApproval indicates the trial is waiting for explicit
	// approval before its evaluation can be executed.  Used by the optional
	// policy/approval mechanism.
	StateWaitForApproval State = "waitForApproval"
	StateCompleted       State = "completed"
	StateFailed          State = "failed"
	StatePaused          State = "paused"

	// StateAbandoned marks a trial dropped by the operator; its data is kept
	// but the trial no longer counts against the run budget.
	StateAbandoned State = "abandoned"

	// StateEarlyStopped marks a trial stopped before the evaluation finished;
	// partial data remains attached.
	StateEarlyStopped State = "earlyStopped"
)

func (t State) IsWaitForApproval() bool {
	return t == StateWaitForApproval
}

// IsTerminal reports whether the trial reached a final state.
func (t State) IsTerminal() bool {
	switch t {
	case StateCompleted, StateFailed, StateAbandoned, StateEarlyStopped:
		return true
	}
	return false
}

// Expecting reports whether a completed evaluation outcome may still arrive.
func (t State) Expecting() bool {
	switch t {
	case StateScheduled, StateRunning, StateWaitForApproval:
		return true
	}
	return false
}
