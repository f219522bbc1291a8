package constraints

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/sweepline/sweep/model"
)

func TestParse(t *testing.T) {
	testCases := []struct {
		description string
		input       string
		expected    model.Constraint
		shouldError bool
	}{
		{
			description: "order constraint",
			input:       "x1 <= x2",
			expected:    &model.OrderConstraint{LowerName: "x1", UpperName: "x2"},
		},
		{
			description: "order constraint reversed",
			input:       "x1 >= x2",
			expected:    &model.OrderConstraint{LowerName: "x2", UpperName: "x1"},
		},
		{
			description: "sum constraint",
			input:       "x1 + x2 <= 15",
			expected:    &model.SumConstraint{Names: []string{"x1", "x2"}, IsUpperBound: true, Bound: 15},
		},
		{
			description: "sum constraint lower bound",
			input:       "x1 + x2 + x3 >= 0.5",
			expected:    &model.SumConstraint{Names: []string{"x1", "x2", "x3"}, IsUpperBound: false, Bound: 0.5},
		},
		{
			description: "single parameter bound",
			input:       "x1 <= 5",
			expected:    &model.SumConstraint{Names: []string{"x1"}, IsUpperBound: true, Bound: 5},
		},
		{
			description: "negative bound",
			input:       "x1 + x2 >= -2.5",
			expected:    &model.SumConstraint{Names: []string{"x1", "x2"}, IsUpperBound: false, Bound: -2.5},
		},
		{
			description: "sum compared to identifier",
			input:       "x1 + x2 <= x3",
			shouldError: true,
		},
		{
			description: "missing operator",
			input:       "x1 x2",
			shouldError: true,
		},
		{
			description: "trailing garbage",
			input:       "x1 <= x2 extra",
			shouldError: true,
		},
		{
			description: "strict inequality unsupported",
			input:       "x1 < x2",
			shouldError: true,
		},
	}

	for _, testCase := range testCases {
		actual, err := Parse([]byte(testCase.input))
		if testCase.shouldError {
			assert.NotNil(t, err, testCase.description)
			continue
		}
		if !assert.Nil(t, err, testCase.description) {
			continue
		}
		assert.EqualValues(t, testCase.expected, actual, testCase.description)
	}
}

func TestParseOutcome(t *testing.T) {
	testCases := []struct {
		description string
		input       string
		expected    *model.OutcomeConstraint
		shouldError bool
	}{
		{
			description: "absolute upper bound",
			input:       "latency <= 300",
			expected: &model.OutcomeConstraint{
				Metric: model.Metric{Name: "latency"},
				Op:     model.LEQ,
				Bound:  300,
			},
		},
		{
			description: "relative lower bound",
			input:       "accuracy >= -5%",
			expected: &model.OutcomeConstraint{
				Metric:   model.Metric{Name: "accuracy"},
				Op:       model.GEQ,
				Bound:    -5,
				Relative: true,
			},
		},
		{
			description: "qualified metric name",
			input:       "serving:p99_latency <= 10%",
			expected: &model.OutcomeConstraint{
				Metric:   model.Metric{Name: "serving:p99_latency"},
				Op:       model.LEQ,
				Bound:    10,
				Relative: true,
			},
		},
		{
			description: "missing bound",
			input:       "latency <=",
			shouldError: true,
		},
	}

	for _, testCase := range testCases {
		actual, err := ParseOutcome([]byte(testCase.input))
		if testCase.shouldError {
			assert.NotNil(t, err, testCase.description)
			continue
		}
		if !assert.Nil(t, err, testCase.description) {
			continue
		}
		assert.EqualValues(t, testCase.expected, actual, testCase.description)
	}
}
