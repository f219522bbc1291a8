package trial

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/sweepline/sweep/model"
)

// TestRunRemove verifies that removing a trial keeps the remaining order
// intact and removes exactly one element regardless of its position.
func TestRunRemove(t *testing.T) {
	newTrial := func(id string) *Trial { return &Trial{ID: id} }

	trials := []*Trial{newTrial("a"), newTrial("b"), newTrial("c")}

	run := &Run{Trials: append([]*Trial(nil), trials...)}

	run.Remove(trials[1]) // remove "b" (middle element)

	if got, want := len(run.Trials), 2; got != want {
		t.Fatalf("after removal expected %d trials, got %d", want, got)
	}
	if run.Trials[0].ID != "a" || run.Trials[1].ID != "c" {
		t.Fatalf("unexpected trial order after removal: %+v", run.Trials)
	}

	run.Remove(run.Trials[1]) // removes "c"
	if got, want := len(run.Trials), 1; got != want || run.Trials[0].ID != "a" {
		t.Fatalf("unexpected trials after removing last element: %+v", run.Trials)
	}
}

func TestRunSignatures(t *testing.T) {
	experiment := &model.Experiment{
		Name:      "exp",
		StatusQuo: &model.Arm{Name: "status_quo", Parameters: model.Parameterization{"x1": 0.0}},
	}
	run := NewRun("r1", "exp", experiment, nil)

	arm := &model.Arm{Name: "0_0", Parameters: model.Parameterization{"x1": 1.0}}
	run.Push(New(run.ID, 0, arm, "sobol"))

	assert.True(t, run.HasSignature(arm.Signature()))
	assert.True(t, run.HasSignature(experiment.StatusQuo.Signature()))

	other := &model.Arm{Name: "1_0", Parameters: model.Parameterization{"x1": 2.0}}
	assert.False(t, run.HasSignature(other.Signature()))

	assert.Equal(t, 1, run.NextTrialIndex())

	arms := run.Arms()
	assert.Equal(t, 2, len(arms))
}

func TestTrialLifecycle(t *testing.T) {
	arm := &model.Arm{Name: "0_0", Parameters: model.Parameterization{"x1": 1.0}}
	aTrial := New("r1", 0, arm, "sobol")
	assert.Equal(t, StatePending, aTrial.State)

	aTrial.Schedule()
	assert.Equal(t, StateScheduled, aTrial.State)
	assert.True(t, aTrial.State.Expecting())

	aTrial.Start()
	assert.Equal(t, StateRunning, aTrial.State)
	assert.NotNil(t, aTrial.StartedAt)

	aTrial.Complete(model.Outcome{"loss": {Mean: 1.5}})
	assert.Equal(t, StateCompleted, aTrial.State)
	assert.True(t, aTrial.State.IsTerminal())
	assert.NotNil(t, aTrial.CompletedAt)
}

func TestRunObservations(t *testing.T) {
	experiment := &model.Experiment{Name: "exp"}
	run := NewRun("r1", "exp", experiment, nil)

	arm := &model.Arm{Name: "0_0", Parameters: model.Parameterization{"x1": 1.0}}
	aTrial := New(run.ID, 0, arm, "sobol")
	run.Push(aTrial)

	run.AttachData(&model.Row{ArmName: "0_0", MetricName: "loss", Mean: 2.5, TrialIndex: 0})

	observations, err := run.Observations()
	assert.Nil(t, err)
	assert.Equal(t, 1, len(observations))
	mean, ok := observations[0].Data.Mean("loss")
	assert.True(t, ok)
	assert.Equal(t, 2.5, mean)
}

func TestTrialMerge(t *testing.T) {
	arm := &model.Arm{Name: "0_0", Parameters: model.Parameterization{"x1": 1.0}}
	base := New("r1", 0, arm, "sobol")

	update := base.Clone()
	update.Start()
	update.Complete(model.Outcome{"loss": {Mean: 0.5}})

	base.Merge(update)
	assert.Equal(t, StateCompleted, base.State)
	assert.NotNil(t, base.Outcome)
	assert.NotNil(t, base.CompletedAt)
}

func TestTrialMergeApprovalFields(t *testing.T) {
	arm := &model.Arm{Name: "0_0", Parameters: model.Parameterization{"x1": 1.0}}
	base := New("r1", 0, arm, "sobol")
	base.State = StateWaitForApproval

	update := base.Clone()
	approved := true
	runAt := time.Now().Add(time.Minute)
	update.State = StatePending
	update.Approved = &approved
	update.ApprovalReason = "ok to spend budget"
	update.RunAfter = &runAt

	base.Merge(update)
	assert.Equal(t, StatePending, base.State)
	if assert.NotNil(t, base.Approved) {
		assert.True(t, *base.Approved)
	}
	assert.Equal(t, "ok to spend budget", base.ApprovalReason)
	assert.Equal(t, &runAt, base.RunAfter)
}
