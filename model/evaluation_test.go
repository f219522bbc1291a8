package model

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNormalizeOutcome(t *testing.T) {
	tests := []struct {
		name      string
		raw       interface{}
		expected  Outcome
		expectErr bool
	}{
		{
			name:     "bare mean",
			raw:      3.5,
			expected: Outcome{"loss": {Mean: 3.5, SEM: math.NaN()}},
		},
		{
			name:     "mean sem pair",
			raw:      []interface{}{3.5, 0.1},
			expected: Outcome{"loss": {Mean: 3.5, SEM: 0.1}},
		},
		{
			name: "metric map with mixed values",
			raw: map[string]interface{}{
				"loss":     []interface{}{3.5, 0.1},
				"accuracy": 0.92,
			},
			expected: Outcome{
				"loss":     {Mean: 3.5, SEM: 0.1},
				"accuracy": {Mean: 0.92, SEM: math.NaN()},
			},
		},
		{
			name:      "nil result",
			raw:       nil,
			expectErr: true,
		},
		{
			name:      "malformed pair",
			raw:       []interface{}{1.0, 2.0, 3.0},
			expectErr: true,
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			actual, err := NormalizeOutcome(tc.raw, "loss")
			if tc.expectErr {
				assert.NotNil(t, err)
				return
			}
			assert.Nil(t, err)
			assert.Equal(t, len(tc.expected), len(actual))
			for name, expected := range tc.expected {
				measurement, ok := actual[name]
				assert.True(t, ok, name)
				assert.Equal(t, expected.Mean, measurement.Mean, name)
				if math.IsNaN(expected.SEM) {
					assert.True(t, math.IsNaN(measurement.SEM), name)
				} else {
					assert.Equal(t, expected.SEM, measurement.SEM, name)
				}
			}
		})
	}
}

func TestNormalizeOutcomeDefaultObjective(t *testing.T) {
	outcome, err := NormalizeOutcome(1.0, "")
	assert.Nil(t, err)
	_, ok := outcome[DefaultObjectiveName]
	assert.True(t, ok)
}

func TestOutcomeRows(t *testing.T) {
	outcome := Outcome{
		"latency":  {Mean: 10, SEM: 0.5},
		"accuracy": {Mean: 0.9, SEM: 0},
	}
	rows := outcome.Rows("0_0", 2)
	assert.Equal(t, 2, len(rows))
	assert.Equal(t, "accuracy", rows[0].MetricName)
	assert.Equal(t, "latency", rows[1].MetricName)
	for _, row := range rows {
		assert.Equal(t, "0_0", row.ArmName)
		assert.Equal(t, 2, row.TrialIndex)
	}
}

func TestOutcomeConstraintSatisfied(t *testing.T) {
	statusQuo := 100.0
	tests := []struct {
		name       string
		constraint *OutcomeConstraint
		value      float64
		statusQuo  *float64
		expected   bool
		expectErr  bool
	}{
		{
			name:       "absolute geq met",
			constraint: &OutcomeConstraint{Metric: Metric{Name: "accuracy"}, Op: GEQ, Bound: 0.8},
			value:      0.9,
			expected:   true,
		},
		{
			name:       "absolute leq violated",
			constraint: &OutcomeConstraint{Metric: Metric{Name: "latency"}, Op: LEQ, Bound: 10},
			value:      12,
			expected:   false,
		},
		{
			name:       "relative within ten percent",
			constraint: &OutcomeConstraint{Metric: Metric{Name: "latency"}, Op: LEQ, Bound: 10, Relative: true},
			value:      105,
			statusQuo:  &statusQuo,
			expected:   true,
		},
		{
			name:       "relative missing status quo",
			constraint: &OutcomeConstraint{Metric: Metric{Name: "latency"}, Op: LEQ, Bound: 10, Relative: true},
			value:      105,
			expectErr:  true,
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			actual, err := tc.constraint.Satisfied(tc.value, tc.statusQuo)
			if tc.expectErr {
				assert.NotNil(t, err)
				return
			}
			assert.Nil(t, err)
			assert.Equal(t, tc.expected, actual)
		})
	}
}
