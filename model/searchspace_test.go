package model

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
)

func testSearchSpace(t *testing.T) *SearchSpace {
	x1, err := NewRangeParameter("x1", TypeFloat, 0, 10)
	assert.Nil(t, err)
	x2, err := NewRangeParameter("x2", TypeFloat, 0, 10)
	assert.Nil(t, err)
	kernel, err := NewChoiceParameter("kernel", TypeString, []interface{}{"rbf", "linear"})
	assert.Nil(t, err)
	space, err := NewSearchSpace(
		[]Parameter{x1, x2, kernel},
		&OrderConstraint{LowerName: "x1", UpperName: "x2"},
		&SumConstraint{Names: []string{"x1", "x2"}, IsUpperBound: true, Bound: 15},
	)
	assert.Nil(t, err)
	return space
}

func TestSearchSpaceValidate(t *testing.T) {
	space := testSearchSpace(t)

	tests := []struct {
		name    string
		point   Parameterization
		invalid bool
	}{
		{
			name:  "feasible point",
			point: Parameterization{"x1": 1.0, "x2": 2.0, "kernel": "rbf"},
		},
		{
			name:    "missing parameter",
			point:   Parameterization{"x1": 1.0, "x2": 2.0},
			invalid: true,
		},
		{
			name:    "unknown parameter",
			point:   Parameterization{"x1": 1.0, "x2": 2.0, "kernel": "rbf", "x3": 1.0},
			invalid: true,
		},
		{
			name:    "order constraint violated",
			point:   Parameterization{"x1": 5.0, "x2": 2.0, "kernel": "rbf"},
			invalid: true,
		},
		{
			name:    "sum constraint violated",
			point:   Parameterization{"x1": 7.0, "x2": 9.0, "kernel": "rbf"},
			invalid: true,
		},
		{
			name:    "out of range",
			point:   Parameterization{"x1": -1.0, "x2": 2.0, "kernel": "rbf"},
			invalid: true,
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			err := space.Validate(tc.point)
			if tc.invalid {
				assert.NotNil(t, err)
				return
			}
			assert.Nil(t, err)
		})
	}
}

func TestSearchSpaceConstraintValidation(t *testing.T) {
	x1, _ := NewRangeParameter("x1", TypeFloat, 0, 10)
	kernel, _ := NewChoiceParameter("kernel", TypeString, []interface{}{"rbf", "linear"})

	_, err := NewSearchSpace([]Parameter{x1}, &OrderConstraint{LowerName: "x1", UpperName: "missing"})
	assert.NotNil(t, err)

	_, err = NewSearchSpace([]Parameter{x1, kernel}, &OrderConstraint{LowerName: "x1", UpperName: "kernel"})
	assert.NotNil(t, err)

	x1Dup, _ := NewRangeParameter("x1", TypeFloat, 0, 1)
	_, err = NewSearchSpace([]Parameter{x1, x1Dup})
	assert.NotNil(t, err)
}

func TestSearchSpaceCast(t *testing.T) {
	n, _ := NewRangeParameter("n", TypeInt, 1, 100)
	lr, _ := NewRangeParameter("lr", TypeFloat, 0, 1)
	space, err := NewSearchSpace([]Parameter{n, lr})
	assert.Nil(t, err)

	cast, err := space.Cast(Parameterization{"n": 7.0, "lr": 1})
	assert.Nil(t, err)
	assert.Equal(t, int64(7), cast["n"])
	assert.Equal(t, 1.0, cast["lr"])

	_, err = space.Cast(Parameterization{"unknown": 1})
	assert.NotNil(t, err)
}

func TestSearchSpaceJSONRoundTrip(t *testing.T) {
	depth, err := NewChoiceParameter("depth", TypeInt, []interface{}{2, 4, 8})
	assert.Nil(t, err)
	shrink, err := NewFixedParameter("shrink", TypeBool, true)
	assert.Nil(t, err)
	x1, err := NewRangeParameter("x1", TypeFloat, 0, 10)
	assert.Nil(t, err)
	x2, err := NewRangeParameter("x2", TypeInt, 0, 10)
	assert.Nil(t, err)
	space, err := NewSearchSpace(
		[]Parameter{x1, x2, depth, shrink},
		&OrderConstraint{LowerName: "x1", UpperName: "x2"},
		&SumConstraint{Names: []string{"x1", "x2"}, IsUpperBound: true, Bound: 15},
	)
	assert.Nil(t, err)

	data, err := json.Marshal(space)
	assert.Nil(t, err)

	var loaded SearchSpace
	assert.Nil(t, json.Unmarshal(data, &loaded))

	assert.Equal(t, 4, len(loaded.Parameters))
	assert.Equal(t, KindRange, loaded.Parameters[0].Kind())
	assert.Equal(t, KindChoice, loaded.Parameters[2].Kind())
	assert.Equal(t, KindFixed, loaded.Parameters[3].Kind())

	// int choice values decode as float64 and must be re-cast
	choice := loaded.Parameter("depth").(*ChoiceParameter)
	assert.Equal(t, []interface{}{int64(2), int64(4), int64(8)}, choice.Values)
	assert.True(t, choice.Validate(4))

	fixed := loaded.Parameter("shrink").(*FixedParameter)
	assert.Equal(t, true, fixed.Value)

	point := Parameterization{"x1": 1.0, "x2": 3, "depth": 4, "shrink": true}
	assert.Nil(t, loaded.Validate(point))
	assert.NotNil(t, loaded.Validate(Parameterization{"x1": 5.0, "x2": 3, "depth": 4, "shrink": true}))
}

func TestSearchSpaceJSONUnknownKind(t *testing.T) {
	var loaded SearchSpace
	err := json.Unmarshal([]byte(`{"parameters":[{"kind":"grid"}]}`), &loaded)
	assert.NotNil(t, err)
}
