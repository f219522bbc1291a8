package expander

import (
	"reflect"
	"testing"
)

func TestExpandString(t *testing.T) {
	type testCase struct {
		name   string
		value  string
		scope  map[string]interface{}
		expect interface{}
	}

	tests := []testCase{
		{
			name:   "plain reference",
			value:  "$function",
			scope:  map[string]interface{}{"function": "booth"},
			expect: "booth",
		},
		{
			name:   "braced reference",
			value:  "${function}",
			scope:  map[string]interface{}{"function": "booth"},
			expect: "booth",
		},
		{
			name:   "reference keeps int type",
			value:  "$budget",
			scope:  map[string]interface{}{"budget": 20},
			expect: 20,
		},
		{
			name:   "reference keeps bool type",
			value:  "$minimize",
			scope:  map[string]interface{}{"minimize": true},
			expect: true,
		},
		{
			name:   "embedded references",
			value:  "run ${name} with $workers workers",
			scope:  map[string]interface{}{"name": "tuning", "workers": 5},
			expect: "run tuning with 5 workers",
		},
		{
			name:  "dotted selector",
			value: "${params.x}",
			scope: map[string]interface{}{
				"params": map[string]interface{}{"x": 1.5},
			},
			expect: 1.5,
		},
		{
			name:  "selector in text",
			value: "${params.x} and ${params.y}",
			scope: map[string]interface{}{
				"params": map[string]interface{}{"x": 1.5, "y": 3},
			},
			expect: "1.5 and 3",
		},
		{
			name:  "indexed selector",
			value: "${trials[1]}",
			scope: map[string]interface{}{
				"trials": []interface{}{"0_0", "1_0"},
			},
			expect: "1_0",
		},
		{
			name:  "indexed selector with field",
			value: "${arms[0].name}",
			scope: map[string]interface{}{
				"arms": []interface{}{map[string]interface{}{"name": "0_0"}},
			},
			expect: "0_0",
		},
		{
			name:  "struct field",
			value: "${objective.Name}",
			scope: map[string]interface{}{
				"objective": struct{ Name string }{"loss"},
			},
			expect: "loss",
		},
		{
			name:   "missing braced reference clears",
			value:  "${missing}",
			scope:  map[string]interface{}{},
			expect: "",
		},
		{
			name:   "missing plain reference stays",
			value:  "$missing",
			scope:  map[string]interface{}{},
			expect: "$missing",
		},
		{
			name:   "lone dollar stays",
			value:  "total $",
			scope:  map[string]interface{}{},
			expect: "total $",
		},
		{
			name:   "arithmetic keeps int",
			value:  "${i + 1}",
			scope:  map[string]interface{}{"i": 5},
			expect: 6,
		},
		{
			name:   "division returns float",
			value:  "${i / 2}",
			scope:  map[string]interface{}{"i": 10},
			expect: 5.0,
		},
		{
			name:   "parenthesised expression",
			value:  "${(i + 3) * 2}",
			scope:  map[string]interface{}{"i": 4},
			expect: 14,
		},
		{
			name:  "selector arithmetic",
			value: "${params.x * 2 + params.y}",
			scope: map[string]interface{}{
				"params": map[string]interface{}{"x": 3, "y": 4},
			},
			expect: 10,
		},
		{
			name:   "comparison",
			value:  "${attempts < 3}",
			scope:  map[string]interface{}{"attempts": 1},
			expect: true,
		},
		{
			name:   "negative literal",
			value:  "${-5 + 10}",
			scope:  map[string]interface{}{},
			expect: 5,
		},
		{
			name:   "indexed arithmetic",
			value:  "${values[0] + values[1]}",
			scope:  map[string]interface{}{"values": []interface{}{10, 20, 30}},
			expect: 30,
		},
		{
			name:   "expression in text",
			value:  "retry in ${delay * 2}s",
			scope:  map[string]interface{}{"delay": 3},
			expect: "retry in 6s",
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			result := expand(tc.value, tc.scope)
			if !reflect.DeepEqual(result, tc.expect) {
				t.Errorf("expand(%q) = %v (%T), want %v (%T)", tc.value, result, result, tc.expect, tc.expect)
			}
		})
	}
}

func TestExpand(t *testing.T) {
	scope := map[string]interface{}{
		"function": "himmelblau",
		"params":   map[string]interface{}{"x": 1.0, "y": 2.0},
		"prefix":   "eval",
	}

	value := map[string]interface{}{
		"${prefix}Function": "$function",
		"input": []interface{}{
			"${params.x}",
			"${params.y}",
			"literal",
		},
		"nested": map[string]interface{}{
			"label": "run ${function}",
		},
	}

	expanded, err := Expand(value, scope)
	if err != nil {
		t.Fatalf("Expand returned error: %v", err)
	}
	expect := map[string]interface{}{
		"evalFunction": "himmelblau",
		"input":        []interface{}{1.0, 2.0, "literal"},
		"nested": map[string]interface{}{
			"label": "run himmelblau",
		},
	}
	if !reflect.DeepEqual(expanded, expect) {
		t.Errorf("Expand = %v, want %v", expanded, expect)
	}
}

func TestMatchingBrace(t *testing.T) {
	tests := []struct {
		value  string
		expect int
	}{
		{"${simple}", 8},
		{"${a + b}", 7},
		{"${outer{inner}}", 14},
		{"${incomplete", -1},
		{"no reference", -1},
	}
	for _, tc := range tests {
		if got := matchingBrace(tc.value); got != tc.expect {
			t.Errorf("matchingBrace(%q) = %d, want %d", tc.value, got, tc.expect)
		}
	}
}

func TestHasOperators(t *testing.T) {
	tests := []struct {
		expr   string
		expect bool
	}{
		{"a + b", true},
		{"a % b", true},
		{"a && b", true},
		{"-5", false},
		{"params.x", false},
		{"values[0]", false},
		{"a*-b", true},
	}
	for _, tc := range tests {
		if got := hasOperators(tc.expr); got != tc.expect {
			t.Errorf("hasOperators(%q) = %v, want %v", tc.expr, got, tc.expect)
		}
	}
}
