// Package evaluator computes scalar expressions referenced from experiment
// definitions, e.g. "params.x * 2" or "budget - 1" inside an evaluation
// input template. Expressions follow Go syntax; selectors resolve against
// the supplied scope with dot and index navigation.
package evaluator

import (
	"fmt"
	"go/ast"
	"go/parser"
	"go/token"
	"math"
	"reflect"
	"regexp"
	"strconv"
	"strings"
)

var singleQuoted = regexp.MustCompile(`'([^']*)'`)

// Evaluate computes expr against scope. Selector references are substituted
// with their scope values before parsing; when the result does not parse as
// a Go expression the whole input is treated as a plain selector.
func Evaluate(expr string, scope map[string]interface{}) interface{} {
	substituted := substituteSelectors(expr, scope)
	parsed, err := parser.ParseExpr(substituted)
	if err != nil {
		return Resolve(expr, scope)
	}
	return evalNode(parsed)
}

// substituteSelectors rewrites every selector reference in expr with the
// literal representation of its scope value. Single-quoted literals are
// normalised to double quotes first so the Go parser accepts them.
func substituteSelectors(expr string, scope map[string]interface{}) string {
	expr = singleQuoted.ReplaceAllString(expr, `"$1"`)
	candidates := strings.FieldsFunc(expr, func(c rune) bool {
		return !isSelectorRune(c)
	})
	result := expr
	for _, candidate := range candidates {
		if !isSelector(candidate) {
			continue
		}
		value := Resolve(candidate, scope)
		lit, ok := literal(value)
		if !ok {
			continue
		}
		result = strings.Join(strings.Split(result, candidate), lit)
	}
	return result
}

// literal renders a scalar as Go expression source; non-scalars report false
// so the reference stays untouched.
func literal(value interface{}) (string, bool) {
	switch v := value.(type) {
	case nil:
		return "", false
	case string:
		return strconv.Quote(v), true
	case bool:
		return strconv.FormatBool(v), true
	case int, int8, int16, int32, int64,
		uint, uint8, uint16, uint32, uint64,
		float32, float64:
		return fmt.Sprintf("%v", v), true
	}
	return "", false
}

func isSelectorRune(c rune) bool {
	return c == '_' || c == '.' ||
		(c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z') || (c >= '0' && c <= '9')
}

// isSelector reports whether s looks like a variable reference rather than
// a literal: it must start with a letter or underscore.
func isSelector(s string) bool {
	if s == "" {
		return false
	}
	first := rune(s[0])
	if first >= '0' && first <= '9' {
		return false
	}
	return isSelectorRune(first)
}

// Resolve walks a dotted, optionally indexed path such as "params.x" or
// "trials[2].outcome" through the scope. It returns nil when any segment
// is missing.
func Resolve(selector string, scope map[string]interface{}) interface{} {
	rootEnd := strings.IndexAny(selector, ".[")
	if rootEnd < 0 {
		return scope[selector]
	}
	current, ok := scope[selector[:rootEnd]]
	if !ok {
		return nil
	}
	rest := selector[rootEnd:]

	for rest != "" && current != nil {
		switch rest[0] {
		case '.':
			rest = rest[1:]
		case '[':
			closing := strings.IndexByte(rest, ']')
			if closing < 0 {
				return nil
			}
			index, err := strconv.Atoi(rest[1:closing])
			if err != nil {
				return nil
			}
			current = elementAt(current, index)
			rest = rest[closing+1:]
		default:
			end := strings.IndexAny(rest, ".[")
			if end < 0 {
				end = len(rest)
			}
			current = fieldOf(current, rest[:end])
			rest = rest[end:]
		}
	}
	return current
}

// fieldOf reads a named member from a map or, via reflection, an exported
// struct field; names match case-insensitively as a fallback so that a
// reference like exec.Stdout still resolves a JSON-decoded "stdout" key.
func fieldOf(value interface{}, name string) interface{} {
	if value == nil {
		return nil
	}
	if m, ok := value.(map[string]interface{}); ok {
		if v, ok := m[name]; ok {
			return v
		}
		for k, v := range m {
			if strings.EqualFold(k, name) {
				return v
			}
		}
		return nil
	}
	if v, ok := mapValue(value, name); ok {
		return v
	}
	rv := reflect.ValueOf(value)
	if rv.Kind() == reflect.Ptr {
		if rv.IsNil() {
			return nil
		}
		rv = rv.Elem()
	}
	if rv.Kind() != reflect.Struct {
		return nil
	}
	field := rv.FieldByName(name)
	if !field.IsValid() {
		rt := rv.Type()
		for i := 0; i < rt.NumField(); i++ {
			if strings.EqualFold(rt.Field(i).Name, name) {
				field = rv.Field(i)
				break
			}
		}
	}
	if !field.IsValid() || !field.CanInterface() {
		return nil
	}
	return field.Interface()
}

// mapValue reads a key from any string-keyed map via reflection.
func mapValue(value interface{}, key string) (interface{}, bool) {
	rv := reflect.ValueOf(value)
	if rv.Kind() == reflect.Ptr {
		if rv.IsNil() {
			return nil, false
		}
		rv = rv.Elem()
	}
	if rv.Kind() != reflect.Map || rv.Type().Key().Kind() != reflect.String {
		return nil, false
	}
	entry := rv.MapIndex(reflect.ValueOf(key))
	if !entry.IsValid() || !entry.CanInterface() {
		return nil, false
	}
	return entry.Interface(), true
}

// elementAt reads an element from a slice or array, nil when out of range.
func elementAt(value interface{}, index int) interface{} {
	if value == nil || index < 0 {
		return nil
	}
	switch actual := value.(type) {
	case []interface{}:
		if index < len(actual) {
			return actual[index]
		}
		return nil
	case []string:
		if index < len(actual) {
			return actual[index]
		}
		return nil
	}
	rv := reflect.ValueOf(value)
	if rv.Kind() == reflect.Ptr {
		if rv.IsNil() {
			return nil
		}
		rv = rv.Elem()
	}
	if rv.Kind() != reflect.Slice && rv.Kind() != reflect.Array {
		return nil
	}
	if index >= rv.Len() || !rv.Index(index).CanInterface() {
		return nil
	}
	return rv.Index(index).Interface()
}

func evalNode(node ast.Expr) interface{} {
	switch n := node.(type) {
	case *ast.BasicLit:
		switch n.Kind {
		case token.INT:
			v, _ := strconv.Atoi(n.Value)
			return v
		case token.FLOAT:
			v, _ := strconv.ParseFloat(n.Value, 64)
			return v
		case token.STRING, token.CHAR:
			return strings.Trim(n.Value, `"'`)
		}
	case *ast.ParenExpr:
		return evalNode(n.X)
	case *ast.UnaryExpr:
		operand := evalNode(n.X)
		switch n.Op {
		case token.SUB:
			switch v := operand.(type) {
			case int:
				return -v
			case float64:
				return -v
			}
		case token.NOT:
			if b, ok := operand.(bool); ok {
				return !b
			}
		}
	case *ast.BinaryExpr:
		return evalBinary(n.Op, evalNode(n.X), evalNode(n.Y))
	}
	return nil
}

func evalBinary(op token.Token, x, y interface{}) interface{} {
	switch op {
	case token.LAND:
		return truthy(x) && truthy(y)
	case token.LOR:
		return truthy(x) || truthy(y)
	case token.EQL:
		return reflect.DeepEqual(align(x, y))
	case token.NEQ:
		equal := reflect.DeepEqual(align(x, y))
		return !equal
	case token.LSS:
		return compare(x, y) < 0
	case token.GTR:
		return compare(x, y) > 0
	case token.LEQ:
		return compare(x, y) <= 0
	case token.GEQ:
		return compare(x, y) >= 0
	case token.ADD:
		return add(x, y)
	case token.SUB:
		if bothInt(x, y) {
			return asInt(x) - asInt(y)
		}
		return asFloat(x) - asFloat(y)
	case token.MUL:
		if bothInt(x, y) {
			return asInt(x) * asInt(y)
		}
		return asFloat(x) * asFloat(y)
	case token.QUO:
		divisor := asFloat(y)
		if divisor == 0 {
			return math.Inf(1)
		}
		// division stays in float to avoid truncation
		return asFloat(x) / divisor
	case token.REM:
		if bothInt(x, y) && asInt(y) != 0 {
			return asInt(x) % asInt(y)
		}
		divisor := asFloat(y)
		if divisor == 0 {
			return math.NaN()
		}
		return math.Mod(asFloat(x), divisor)
	}
	return nil
}

// add concatenates when either side is a string, otherwise adds numerically.
func add(x, y interface{}) interface{} {
	if sx, ok := x.(string); ok {
		if sy, ok := y.(string); ok {
			return sx + sy
		}
		return sx + Stringify(y)
	}
	if sy, ok := y.(string); ok {
		return Stringify(x) + sy
	}
	if bothInt(x, y) {
		return asInt(x) + asInt(y)
	}
	return asFloat(x) + asFloat(y)
}

// align coerces both operands to a shared numeric type for equality checks.
func align(x, y interface{}) (interface{}, interface{}) {
	if bothInt(x, y) {
		return asInt(x), asInt(y)
	}
	if isFloat(x) || isFloat(y) {
		return asFloat(x), asFloat(y)
	}
	return x, y
}

func compare(x, y interface{}) int {
	if bothInt(x, y) {
		xi, yi := asInt(x), asInt(y)
		switch {
		case xi < yi:
			return -1
		case xi > yi:
			return 1
		}
		return 0
	}
	xf, yf := asFloat(x), asFloat(y)
	switch {
	case xf < yf:
		return -1
	case xf > yf:
		return 1
	}
	return 0
}

func truthy(v interface{}) bool {
	b, ok := v.(bool)
	return ok && b
}

func bothInt(x, y interface{}) bool {
	return isInt(x) && isInt(y)
}

func isInt(v interface{}) bool {
	switch v.(type) {
	case int, int8, int16, int32, int64, uint, uint8, uint16, uint32, uint64:
		return true
	}
	return false
}

func isFloat(v interface{}) bool {
	switch v.(type) {
	case float32, float64:
		return true
	}
	return false
}

func asInt(v interface{}) int {
	switch actual := v.(type) {
	case int:
		return actual
	case int8:
		return int(actual)
	case int16:
		return int(actual)
	case int32:
		return int(actual)
	case int64:
		return int(actual)
	case uint:
		return int(actual)
	case uint8:
		return int(actual)
	case uint16:
		return int(actual)
	case uint32:
		return int(actual)
	case uint64:
		return int(actual)
	case float32:
		return int(actual)
	case float64:
		return int(actual)
	case string:
		i, _ := strconv.Atoi(actual)
		return i
	}
	return 0
}

func asFloat(v interface{}) float64 {
	switch actual := v.(type) {
	case int:
		return float64(actual)
	case int8:
		return float64(actual)
	case int16:
		return float64(actual)
	case int32:
		return float64(actual)
	case int64:
		return float64(actual)
	case uint:
		return float64(actual)
	case uint8:
		return float64(actual)
	case uint16:
		return float64(actual)
	case uint32:
		return float64(actual)
	case uint64:
		return float64(actual)
	case float32:
		return float64(actual)
	case float64:
		return actual
	case string:
		f, _ := strconv.ParseFloat(actual, 64)
		return f
	}
	return 0
}

// Stringify renders a value the way interpolation into a string template
// expects: numbers without exponent notation, nil as the empty string.
func Stringify(value interface{}) string {
	if value == nil {
		return ""
	}
	rv := reflect.ValueOf(value)
	switch rv.Kind() {
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return strconv.FormatInt(rv.Int(), 10)
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		return strconv.FormatUint(rv.Uint(), 10)
	case reflect.Float32, reflect.Float64:
		return strconv.FormatFloat(rv.Float(), 'f', -1, 64)
	case reflect.Bool:
		return strconv.FormatBool(rv.Bool())
	case reflect.String:
		return rv.String()
	}
	return fmt.Sprintf("%v", value)
}
