package generator

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/sweepline/sweep/model"
)

func TestFactorialEnumeratesProduct(t *testing.T) {
	kernel, _ := model.NewChoiceParameter("kernel", model.TypeString, []interface{}{"rbf", "linear"})
	depth, _ := model.NewChoiceParameter("depth", model.TypeInt, []interface{}{int64(1), int64(2), int64(3)})
	batch, _ := model.NewFixedParameter("batch", model.TypeInt, int64(16))
	space, err := model.NewSearchSpace([]model.Parameter{kernel, depth, batch})
	assert.Nil(t, err)

	gen, err := NewFactorial(space)
	assert.Nil(t, err)

	arms, err := gen.Generate(context.Background(), 10)
	assert.Nil(t, err)
	assert.Equal(t, 6, len(arms))
	seen := map[string]bool{}
	for _, arm := range arms {
		assert.Equal(t, int64(16), arm.Parameters["batch"])
		assert.False(t, seen[arm.Signature()])
		seen[arm.Signature()] = true
	}

	_, err = gen.Generate(context.Background(), 1)
	assert.True(t, errors.Is(err, ErrExhausted))
}

func TestFactorialRejectsRangeParameters(t *testing.T) {
	x1, _ := model.NewRangeParameter("x1", model.TypeFloat, 0, 1)
	space, err := model.NewSearchSpace([]model.Parameter{x1})
	assert.Nil(t, err)
	_, err = NewFactorial(space)
	assert.NotNil(t, err)
}
