package generator

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/sweepline/sweep/model"
)

func observationAt(params model.Parameterization, metric string, mean, sem float64) *model.Observation {
	data, _ := model.NewObservationData([]string{metric}, []float64{mean}, [][]float64{{sem * sem}})
	return &model.Observation{
		Features: &model.ObservationFeatures{Parameters: params},
		Data:     data,
	}
}

func TestGPEIRequiresObservations(t *testing.T) {
	gen := NewGPEI(testSpace(t), "latency", true)
	_, err := gen.Generate(context.Background(), 1)
	assert.True(t, errors.Is(err, ErrNoObservations))
}

func TestGPEIGenerate(t *testing.T) {
	space := testSpace(t)
	gen := NewGPEI(space, "latency", true, WithGPEISeed(17), WithNumCandidates(30))
	observations := []*model.Observation{
		observationAt(model.Parameterization{"x1": 2.0, "workers": int64(2), "kernel": "rbf", "batch": int64(32)}, "latency", 120.0, 4.0),
		observationAt(model.Parameterization{"x1": 7.5, "workers": int64(6), "kernel": "linear", "batch": int64(32)}, "latency", 80.0, 3.0),
	}
	assert.Nil(t, gen.Update(context.Background(), observations))

	arms, err := gen.Generate(context.Background(), 3)
	assert.Nil(t, err)
	assert.Equal(t, 3, len(arms))
	seen := map[string]bool{}
	for _, arm := range arms {
		assert.Nil(t, space.Validate(arm.Parameters))
		assert.False(t, seen[arm.Signature()])
		seen[arm.Signature()] = true
	}
}

func TestGPEISkipsNaNObjective(t *testing.T) {
	gen := NewGPEI(testSpace(t), "latency", true)
	obs := observationAt(model.Parameterization{"x1": 1.0, "workers": int64(1), "kernel": "rbf", "batch": int64(32)}, "throughput", 10.0, 0)
	assert.Nil(t, gen.Update(context.Background(), []*model.Observation{obs}))
	_, err := gen.Generate(context.Background(), 1)
	assert.True(t, errors.Is(err, ErrNoObservations))
}

func TestGaussianProcessPredict(t *testing.T) {
	gp := newGaussianProcess()
	mean, variance := gp.Predict([]float64{1, 2})
	assert.Equal(t, 0.0, mean)
	assert.Equal(t, 1.0, variance)

	gp.Update([]float64{1, 2}, 5.0)
	mean, variance = gp.Predict([]float64{1, 2})
	assert.InDelta(t, 5.0, mean, 1e-9)
	assert.InDelta(t, 0.0, variance, 1e-9)

	_, farVariance := gp.Predict([]float64{100, 100})
	assert.InDelta(t, 1.0, farVariance, 1e-6)
}

func TestAcquisitionFunctions(t *testing.T) {
	params := AcquisitionParams{Beta: 2.0, Xi: 0.0, BestSoFar: 1.0}
	assert.InDelta(t, 1.0+2.0*2.0, UCB(1.0, 4.0, params), 1e-9)
	assert.InDelta(t, 0.5, ProbabilityOfImprovement(1.0, 1.0, params), 1e-9)
	assert.True(t, ExpectedImprovement(2.0, 1.0, params) > ExpectedImprovement(0.5, 1.0, params))
	assert.Equal(t, 0.0, ExpectedImprovement(0.5, 0.0, params))
}
