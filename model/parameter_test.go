package model

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestRangeParameter(t *testing.T) {
	tests := []struct {
		name      string
		paramType ParameterType
		lower     float64
		upper     float64
		value     interface{}
		valid     bool
		expectErr bool
	}{
		{
			name:      "float in range",
			paramType: TypeFloat,
			lower:     0.0,
			upper:     1.0,
			value:     0.5,
			valid:     true,
		},
		{
			name:      "float below range",
			paramType: TypeFloat,
			lower:     0.0,
			upper:     1.0,
			value:     -0.1,
			valid:     false,
		},
		{
			name:      "int at bound",
			paramType: TypeInt,
			lower:     1,
			upper:     10,
			value:     10,
			valid:     true,
		},
		{
			name:      "int above range",
			paramType: TypeInt,
			lower:     1,
			upper:     10,
			value:     11,
			valid:     false,
		},
		{
			name:      "inverted bounds",
			paramType: TypeFloat,
			lower:     2.0,
			upper:     1.0,
			expectErr: true,
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			param, err := NewRangeParameter("x", tc.paramType, tc.lower, tc.upper)
			if tc.expectErr {
				assert.NotNil(t, err)
				return
			}
			assert.Nil(t, err)
			assert.Equal(t, tc.valid, param.Validate(tc.value))
		})
	}
}

func TestRangeParameterNonNumeric(t *testing.T) {
	_, err := NewRangeParameter("x", TypeString, 0, 1)
	assert.NotNil(t, err)
}

func TestChoiceParameter(t *testing.T) {
	param, err := NewChoiceParameter("kernel", TypeString, []interface{}{"rbf", "linear", "poly"})
	assert.Nil(t, err)
	assert.True(t, param.Validate("rbf"))
	assert.False(t, param.Validate("sigmoid"))

	_, err = NewChoiceParameter("degenerate", TypeString, []interface{}{"only"})
	assert.NotNil(t, err)
}

func TestFixedParameter(t *testing.T) {
	param, err := NewFixedParameter("epochs", TypeInt, 100)
	assert.Nil(t, err)
	assert.True(t, param.Validate(100))
	assert.True(t, param.Validate(int64(100)))
	assert.False(t, param.Validate(99))
}

func TestParameterCast(t *testing.T) {
	intParam, _ := NewRangeParameter("n", TypeInt, 1, 100)
	value, err := intParam.Cast(7.0)
	assert.Nil(t, err)
	assert.Equal(t, int64(7), value)

	floatParam, _ := NewRangeParameter("lr", TypeFloat, 0, 1)
	value, err = floatParam.Cast(1)
	assert.Nil(t, err)
	assert.Equal(t, 0.0, value.(float64)-1.0)
}

func TestInferType(t *testing.T) {
	tests := []struct {
		value     interface{}
		expected  ParameterType
		expectErr bool
	}{
		{value: 3, expected: TypeInt},
		{value: 3.5, expected: TypeFloat},
		{value: true, expected: TypeBool},
		{value: "abc", expected: TypeString},
		{value: []int{1}, expectErr: true},
	}
	for _, tc := range tests {
		actual, err := InferType(tc.value)
		if tc.expectErr {
			assert.NotNil(t, err)
			continue
		}
		assert.Nil(t, err)
		assert.Equal(t, tc.expected, actual)
	}
}
