package evaluator

import (
	"math"
	"reflect"
	"testing"
)

func TestEvaluate(t *testing.T) {
	scope := map[string]interface{}{
		"i":      5,
		"half":   0.5,
		"name":   "booth",
		"params": map[string]interface{}{"x": 2, "y": 7},
		"flag":   true,
	}

	tests := []struct {
		expr   string
		expect interface{}
	}{
		{"i + 1", 6},
		{"i - 2", 3},
		{"i * 3", 15},
		{"i % 2", 1},
		{"i / 2", 2.5},
		{"half * 4", 2.0},
		{"params.x + params.y", 9},
		{"params.x * (1 + params.y)", 16},
		{"i == 5", true},
		{"i != 5", false},
		{"params.y >= 7", true},
		{"i < 3 || flag", true},
		{"i < 3 && flag", false},
		{"!flag", false},
		{"name + '_0'", "booth_0"},
		{"name == 'booth'", true},
	}

	for _, tc := range tests {
		result := Evaluate(tc.expr, scope)
		if !reflect.DeepEqual(result, tc.expect) {
			t.Errorf("Evaluate(%q) = %v (%T), want %v (%T)", tc.expr, result, result, tc.expect, tc.expect)
		}
	}
}

func TestEvaluateDivisionByZero(t *testing.T) {
	result := Evaluate("i / 0", map[string]interface{}{"i": 5})
	f, ok := result.(float64)
	if !ok || !math.IsInf(f, 1) {
		t.Errorf("expected +Inf, got %v", result)
	}
}

func TestResolve(t *testing.T) {
	type nested struct {
		Metric string
	}
	scope := map[string]interface{}{
		"run": map[string]interface{}{
			"trials": []interface{}{
				map[string]interface{}{"arm": "0_0"},
				map[string]interface{}{"arm": "1_0"},
			},
		},
		"objective": nested{Metric: "loss"},
		"outputs":   map[string]string{"stdout": "ok"},
	}

	tests := []struct {
		selector string
		expect   interface{}
	}{
		{"run.trials[1].arm", "1_0"},
		{"run.trials[9]", nil},
		{"objective.Metric", "loss"},
		{"objective.metric", "loss"},
		{"outputs.stdout", "ok"},
		{"missing.path", nil},
	}

	for _, tc := range tests {
		result := Resolve(tc.selector, scope)
		if !reflect.DeepEqual(result, tc.expect) {
			t.Errorf("Resolve(%q) = %v, want %v", tc.selector, result, tc.expect)
		}
	}
}
