package evaluator

import (
	"context"
	"reflect"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/sweepline/sweep/extension"
	"github.com/sweepline/sweep/model"
	"github.com/sweepline/sweep/model/types"
	"github.com/sweepline/sweep/runtime/trial"
)

type boothInput struct {
	Parameters map[string]interface{} `json:"parameters,omitempty"`
	Label      string                 `json:"label,omitempty"`
}

type boothOutput struct {
	Outcome model.Outcome `json:"outcome,omitempty"`
}

// boothService minimizes the booth function (x+2y-7)^2 + (2x+y-5)^2.
type boothService struct{}

func (s *boothService) Name() string { return "booth" }

func (s *boothService) Methods() types.Signatures {
	return []types.Signature{
		{
			Name:   "evaluate",
			Input:  reflect.TypeOf(&boothInput{}),
			Output: reflect.TypeOf(&boothOutput{}),
		},
	}
}

func (s *boothService) Method(name string) (types.Executable, error) {
	return s.evaluate, nil
}

func (s *boothService) evaluate(ctx context.Context, in, out interface{}) error {
	input := in.(*boothInput)
	output := out.(*boothOutput)
	params := model.Parameterization(input.Parameters)
	x, err := params.Float("x")
	if err != nil {
		return err
	}
	y, err := params.Float("y")
	if err != nil {
		return err
	}
	value := (x+2*y-7)*(x+2*y-7) + (2*x+y-5)*(2*x+y-5)
	output.Outcome, err = model.NormalizeOutcome(value, "booth")
	return err
}

func testRun(t *testing.T) *trial.Run {
	x, err := model.NewRangeParameter("x", model.TypeFloat, -10, 10)
	assert.Nil(t, err)
	y, err := model.NewRangeParameter("y", model.TypeFloat, -10, 10)
	assert.Nil(t, err)
	space, err := model.NewSearchSpace([]model.Parameter{x, y})
	assert.Nil(t, err)
	experiment := &model.Experiment{
		Name:        "booth",
		SearchSpace: space,
		OptimizationConfig: &model.OptimizationConfig{
			Objective: model.Objective{Metric: model.Metric{Name: "booth"}, Minimize: true},
		},
		Evaluation: &model.Evaluation{
			Service: "booth",
			Method:  "evaluate",
			Input:   map[string]interface{}{"label": "trial-${trial}"},
		},
	}
	return trial.NewRun("run-1", "booth", experiment, nil)
}

func TestEvaluate(t *testing.T) {
	evaluators := extension.NewEvaluators()
	evaluators.Register(&boothService{})

	var seenInput interface{}
	srv := NewService(evaluators, WithListener(func(aTrial *trial.Trial, input, output interface{}) {
		seenInput = input
	}))

	run := testRun(t)
	arm := model.NewArm(model.Parameterization{"x": 1.0, "y": 3.0})
	aTrial := trial.New(run.ID, 0, arm, "sobol")
	run.Push(aTrial)

	err := srv.Evaluate(context.Background(), aTrial, run)
	assert.Nil(t, err)
	assert.NotNil(t, aTrial.Outcome)
	measurement, ok := aTrial.Outcome["booth"]
	assert.True(t, ok)
	assert.InDelta(t, 0.0, measurement.Mean, 1e-9)

	input, ok := seenInput.(*boothInput)
	assert.True(t, ok)
	assert.Equal(t, "trial-0", input.Label)
	assert.Equal(t, 3.0, input.Parameters["y"])
}

func TestEvaluateMissingService(t *testing.T) {
	srv := NewService(extension.NewEvaluators())
	run := testRun(t)
	aTrial := trial.New(run.ID, 0, model.NewArm(model.Parameterization{"x": 0.0, "y": 0.0}), "sobol")
	err := srv.Evaluate(context.Background(), aTrial, run)
	assert.NotNil(t, err)
}

func TestApplyOutcome(t *testing.T) {
	outcome, err := ApplyOutcome(&boothOutput{Outcome: model.Outcome{"booth": {Mean: 1.5}}}, "booth")
	assert.Nil(t, err)
	assert.InDelta(t, 1.5, outcome["booth"].Mean, 1e-9)

	outcome, err = ApplyOutcome(12.5, "latency")
	assert.Nil(t, err)
	assert.InDelta(t, 12.5, outcome["latency"].Mean, 1e-9)
}
