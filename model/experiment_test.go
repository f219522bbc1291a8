package model

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestExperimentValidate(t *testing.T) {
	space := testSearchSpace(t)

	experiment := &Experiment{
		Name:        "booth",
		SearchSpace: space,
		OptimizationConfig: &OptimizationConfig{
			Objective: Objective{Metric: Metric{Name: "loss"}, Minimize: true},
		},
		Generation: &Generation{
			Steps: []*GenerationStep{
				{Model: "sobol", Trials: 5},
				{Model: "gpei", Trials: -1},
			},
		},
	}
	assert.Empty(t, experiment.Validate())
	assert.Equal(t, "loss", experiment.ObjectiveName())

	experiment.OptimizationConfig.OutcomeConstraints = []*OutcomeConstraint{
		{Metric: Metric{Name: "latency"}, Op: LEQ, Bound: 10, Relative: true},
	}
	issues := experiment.Validate()
	assert.Equal(t, 1, len(issues), "relative constraint without status quo")

	experiment.StatusQuo = &Arm{Name: "status_quo", Parameters: Parameterization{"x1": 1.0, "x2": 2.0, "kernel": "rbf"}}
	assert.Empty(t, experiment.Validate())

	experiment.StatusQuo.Parameters["x1"] = 99.0
	assert.NotEmpty(t, experiment.Validate())
}

func TestExperimentValidateGeneration(t *testing.T) {
	space := testSearchSpace(t)
	experiment := &Experiment{
		Name:        "bad-steps",
		SearchSpace: space,
		Generation: &Generation{
			Steps: []*GenerationStep{
				{Model: "", Trials: 5},
				{Model: "sobol"},
				{Model: "gpei", Trials: -1},
			},
		},
	}
	issues := experiment.Validate()
	assert.Equal(t, 2, len(issues))
}
