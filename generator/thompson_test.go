package generator

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/sweepline/sweep/model"
)

func TestThompsonRequiresObservations(t *testing.T) {
	gen := NewThompson("objective", false)
	_, err := gen.Generate(context.Background(), 1)
	assert.True(t, errors.Is(err, ErrNoObservations))
}

func TestThompsonPrefersBetterArm(t *testing.T) {
	gen := NewThompson("accuracy", false, WithThompsonSeed(5))
	observations := []*model.Observation{
		observationAt(model.Parameterization{"x1": 1.0}, "accuracy", 0.6, 0.01),
		observationAt(model.Parameterization{"x1": 2.0}, "accuracy", 0.9, 0.01),
		observationAt(model.Parameterization{"x1": 3.0}, "accuracy", 0.7, 0.01),
	}
	assert.Nil(t, gen.Update(context.Background(), observations))

	arms, err := gen.Generate(context.Background(), 1)
	assert.Nil(t, err)
	assert.Equal(t, 1, len(arms))
	assert.Equal(t, 2.0, arms[0].Parameters["x1"])
}

func TestThompsonMinimize(t *testing.T) {
	gen := NewThompson("latency", true, WithThompsonSeed(5))
	observations := []*model.Observation{
		observationAt(model.Parameterization{"x1": 1.0}, "latency", 120.0, 1.0),
		observationAt(model.Parameterization{"x1": 2.0}, "latency", 40.0, 1.0),
	}
	assert.Nil(t, gen.Update(context.Background(), observations))

	arms, err := gen.Generate(context.Background(), 2)
	assert.Nil(t, err)
	assert.Equal(t, 2.0, arms[0].Parameters["x1"])
}

func TestThompsonMinWeight(t *testing.T) {
	gen := NewThompson("accuracy", false, WithThompsonSeed(5), WithMinWeight(0.9))
	observations := []*model.Observation{
		observationAt(model.Parameterization{"x1": 1.0}, "accuracy", 0.5, 0.0),
		observationAt(model.Parameterization{"x1": 2.0}, "accuracy", 0.9, 0.0),
	}
	assert.Nil(t, gen.Update(context.Background(), observations))

	arms, err := gen.Generate(context.Background(), 2)
	assert.Nil(t, err)
	assert.Equal(t, 1, len(arms))
	assert.Equal(t, 2.0, arms[0].Parameters["x1"])
}

func TestThompsonOverwritesRepeatedArm(t *testing.T) {
	gen := NewThompson("accuracy", false, WithThompsonSeed(5))
	point := model.Parameterization{"x1": 1.0}
	assert.Nil(t, gen.Update(context.Background(), []*model.Observation{
		observationAt(point, "accuracy", 0.2, 0.0),
		observationAt(model.Parameterization{"x1": 2.0}, "accuracy", 0.5, 0.0),
	}))
	assert.Nil(t, gen.Update(context.Background(), []*model.Observation{
		observationAt(point, "accuracy", 0.95, 0.0),
	}))

	arms, err := gen.Generate(context.Background(), 1)
	assert.Nil(t, err)
	assert.Equal(t, 1.0, arms[0].Parameters["x1"])
}
