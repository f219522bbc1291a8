package generator

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/sweepline/sweep/model"
)

func testSpace(t *testing.T) *model.SearchSpace {
	x1, err := model.NewRangeParameter("x1", model.TypeFloat, 0, 10)
	assert.Nil(t, err)
	workers, err := model.NewRangeParameter("workers", model.TypeInt, 1, 8)
	assert.Nil(t, err)
	kernel, err := model.NewChoiceParameter("kernel", model.TypeString, []interface{}{"rbf", "linear", "poly"})
	assert.Nil(t, err)
	batch, err := model.NewFixedParameter("batch", model.TypeInt, int64(32))
	assert.Nil(t, err)
	space, err := model.NewSearchSpace([]model.Parameter{x1, workers, kernel, batch})
	assert.Nil(t, err)
	return space
}

func TestSobolSequence(t *testing.T) {
	sequence := newSobolSequence(1, 0, false)
	var points []float64
	for i := 0; i < 3; i++ {
		points = append(points, sequence.Next()[0])
	}
	assert.Equal(t, []float64{0.5, 0.75, 0.25}, points)
}

func TestSobolGenerate(t *testing.T) {
	space := testSpace(t)
	gen := NewSobol(space, WithSobolSeed(42), WithSobolDeduplicate(true))
	arms, err := gen.Generate(context.Background(), 8)
	assert.Nil(t, err)
	assert.Equal(t, 8, len(arms))
	seen := map[string]bool{}
	for _, arm := range arms {
		assert.Nil(t, space.Validate(arm.Parameters))
		assert.Equal(t, int64(32), arm.Parameters["batch"])
		assert.False(t, seen[arm.Signature()], "duplicate arm %v", arm.Parameters)
		seen[arm.Signature()] = true
	}
}

func TestSobolDeterminism(t *testing.T) {
	space := testSpace(t)
	first, err := NewSobol(space, WithSobolSeed(7)).Generate(context.Background(), 4)
	assert.Nil(t, err)
	second, err := NewSobol(space, WithSobolSeed(7)).Generate(context.Background(), 4)
	assert.Nil(t, err)
	for i := range first {
		assert.Equal(t, first[i].Signature(), second[i].Signature())
	}
}

func TestSobolSkipsObservedArms(t *testing.T) {
	space := testSpace(t)
	gen := NewSobol(space, WithSobolSeed(3), WithSobolDeduplicate(true))
	arms, err := gen.Generate(context.Background(), 2)
	assert.Nil(t, err)

	replay := NewSobol(space, WithSobolSeed(3), WithSobolDeduplicate(true))
	var observations []*model.Observation
	for _, arm := range arms {
		observations = append(observations, &model.Observation{
			Features: &model.ObservationFeatures{Parameters: arm.Parameters},
		})
	}
	assert.Nil(t, replay.Update(context.Background(), observations))
	next, err := replay.Generate(context.Background(), 2)
	assert.Nil(t, err)
	for _, arm := range next {
		for _, prior := range arms {
			assert.NotEqual(t, prior.Signature(), arm.Signature())
		}
	}
}

func TestUniformDeterminism(t *testing.T) {
	space := testSpace(t)
	first, err := NewUniform(space, WithUniformSeed(11)).Generate(context.Background(), 5)
	assert.Nil(t, err)
	second, err := NewUniform(space, WithUniformSeed(11)).Generate(context.Background(), 5)
	assert.Nil(t, err)
	for i := range first {
		assert.Nil(t, space.Validate(first[i].Parameters))
		assert.Equal(t, first[i].Signature(), second[i].Signature())
	}
}
