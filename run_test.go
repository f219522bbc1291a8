package sweep

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"github.com/sweepline/sweep/model"
	"github.com/sweepline/sweep/runtime/trial"
)

// TestRuntime_WaitForRunStates verifies waitForRun returns once the run
// enters a terminal state.
func TestRuntime_WaitForRunStates(t *testing.T) {
	svc := New()
	rt := svc.Runtime()
	ctx := context.Background()

	testCases := []struct {
		name  string
		state string
	}{
		{"completed", trial.RunStateCompleted},
		{"failed", trial.RunStateFailed},
	}
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			aRun := trial.NewRun("r-"+tc.name, "exp", nil, nil)
			aRun.SetState(tc.state)
			require.NoError(t, rt.runDAO.Save(ctx, aRun))

			out, err := rt.waitForRun(ctx, aRun.ID, 100*time.Millisecond)
			require.NoError(t, err)
			require.Equal(t, tc.state, out.State)
		})
	}
}

// TestRuntime_UpsertDefinition verifies a definition stored via
// UpsertDefinition is served from the cache by LoadExperiment.
func TestRuntime_UpsertDefinition(t *testing.T) {
	svc := New()
	rt := svc.Runtime()
	ctx := context.Background()

	data := []byte(`
name: inline
parameters:
  x:
    type: float
    range: [0, 1]
objective:
  metric: loss
  minimize: true
`)
	require.NoError(t, rt.UpsertDefinition("inline.yaml", data))

	experiment, err := rt.LoadExperiment(ctx, "inline")
	require.NoError(t, err)
	require.Equal(t, "inline", experiment.Name)
	require.Equal(t, "inline.yaml", experiment.Source.URL)

	// Refresh drops the cached copy; a subsequent load hits the (missing)
	// backing store and fails.
	require.NoError(t, rt.RefreshExperiment("inline"))
	_, err = rt.LoadExperiment(ctx, "inline")
	require.Error(t, err)
}

func TestBestArm(t *testing.T) {
	x, err := model.NewRangeParameter("x", model.TypeFloat, 0, 10)
	require.NoError(t, err)
	space, err := model.NewSearchSpace([]model.Parameter{x})
	require.NoError(t, err)
	experiment := &model.Experiment{
		Name:        "exp",
		SearchSpace: space,
		OptimizationConfig: &model.OptimizationConfig{
			Objective: model.Objective{Metric: model.Metric{Name: "loss"}, Minimize: true},
		},
	}
	aRun := trial.NewRun("r1", "exp", experiment, nil)
	for i, value := range []float64{4.0, 1.5, 3.0} {
		arm := &model.Arm{Parameters: model.Parameterization{"x": float64(i)}}
		aTrial := trial.New("r1", i, arm, "sobol")
		arm.Name = aTrial.ID
		aRun.Push(aTrial)
		outcome := model.Outcome{"loss": model.Measurement{Mean: value}}
		aRun.AttachData(outcome.Rows(arm.Name, i)...)
	}

	arm, best := bestArm(aRun)
	require.NotNil(t, arm)
	require.NotNil(t, best)
	require.Equal(t, 1.5, *best)
	require.Equal(t, 1.0, arm.Parameters["x"])
}
