package sweep_test

import (
	"context"
	"embed"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	_ "github.com/viant/afs/embed"

	"github.com/sweepline/sweep"
	"github.com/sweepline/sweep/model"
	"github.com/sweepline/sweep/runtime/trial"
	"github.com/sweepline/sweep/service/eval/registry"
)

//go:embed testdata/*
var embedFS embed.FS

func booth(parameters model.Parameterization) float64 {
	x1 := parameters["x1"].(float64)
	x2 := parameters["x2"].(float64)
	a := x1 + 2*x2 - 7
	b := 2*x1 + x2 - 5
	return a*a + b*b
}

func newBoothService() *sweep.Service {
	reg := registry.New("booth")
	reg.Register("booth", func(_ context.Context, parameters model.Parameterization) (interface{}, error) {
		return map[string]interface{}{"booth": booth(parameters)}, nil
	})
	return sweep.New(
		sweep.WithMetaFsOptions(&embedFS),
		sweep.WithMetaBaseURL("embed:///testdata"),
		sweep.WithExtensionServices(reg),
	)
}

func TestService(t *testing.T) {
	srv := newBoothService()

	runtime := srv.Runtime()
	ctx := context.Background()
	experiment, err := runtime.LoadExperiment(ctx, "booth.yaml")
	assert.Nil(t, err)
	if !assert.NotNil(t, experiment) {
		return
	}
	assert.Equal(t, "booth", experiment.Name)
	assert.Equal(t, 2, len(experiment.SearchSpace.Parameters))
}

func TestServiceRunsExperiment(t *testing.T) {
	srv := newBoothService()
	runtime := srv.Runtime()
	ctx := context.Background()

	experiment, err := runtime.LoadExperiment(ctx, "booth.yaml")
	assert.Nil(t, err)
	assert.NoError(t, runtime.Start(ctx))
	defer runtime.Shutdown(ctx)

	aRun, wait, err := runtime.StartRun(ctx, experiment, nil)
	assert.Nil(t, err)
	assert.NotNil(t, aRun)

	output, err := wait(ctx, 30*time.Second)
	assert.Nil(t, err)
	if !assert.NotNil(t, output) {
		return
	}
	assert.Equal(t, trial.RunStateCompleted, output.State)
	assert.Equal(t, 6, output.Trials)
	if assert.NotNil(t, output.BestArm) && assert.NotNil(t, output.BestValue) {
		assert.Equal(t, booth(output.BestArm.Parameters), *output.BestValue)
	}
}

func TestServiceEvaluateOnce(t *testing.T) {
	srv := newBoothService()
	runtime := srv.Runtime()
	ctx := context.Background()

	experiment, err := runtime.LoadExperiment(ctx, "booth.yaml")
	assert.Nil(t, err)

	outcome, err := runtime.EvaluateOnce(ctx, experiment, model.Parameterization{"x1": 1.0, "x2": 3.0})
	assert.Nil(t, err)
	measurement, ok := outcome["booth"]
	if assert.True(t, ok) {
		assert.InDelta(t, 0.0, measurement.Mean, 1e-9)
	}
}

func TestServicePauseResume(t *testing.T) {
	srv := newBoothService()
	runtime := srv.Runtime()
	ctx := context.Background()

	experiment, err := runtime.LoadExperiment(ctx, "booth.yaml")
	assert.Nil(t, err)
	assert.NoError(t, runtime.Start(ctx))
	defer runtime.Shutdown(ctx)

	aRun, wait, err := runtime.StartRun(ctx, experiment, nil)
	assert.Nil(t, err)
	if !assert.NotNil(t, aRun) {
		return
	}

	assert.NoError(t, runtime.PauseRun(ctx, aRun.ID))
	// long enough that in-flight trials would have exhausted the queue
	// retry budget if pausing still consumed retries
	time.Sleep(500 * time.Millisecond)
	assert.NoError(t, runtime.ResumeRun(ctx, aRun.ID))

	output, err := wait(ctx, 30*time.Second)
	assert.Nil(t, err)
	if !assert.NotNil(t, output) {
		return
	}
	assert.Equal(t, trial.RunStateCompleted, output.State)
	assert.Equal(t, 6, output.Trials)
}
