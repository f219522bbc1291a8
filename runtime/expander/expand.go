// Package expander interpolates $var and ${expr} references inside
// evaluation input templates. A value that is nothing but a reference keeps
// its type (ints stay ints); references embedded in text are stringified in
// place. Selector resolution and expression arithmetic live in
// runtime/evaluator.
package expander

import (
	"fmt"
	"reflect"
	"regexp"
	"strings"

	"github.com/viant/structology/visitor"

	"github.com/sweepline/sweep/runtime/evaluator"
)

var (
	pureRef    = regexp.MustCompile(`^\$[a-zA-Z_][a-zA-Z0-9_.\[\]]*$`)
	simpleRef  = regexp.MustCompile(`\$([a-zA-Z_][a-zA-Z0-9_.]*)`)
	bracedRef  = regexp.MustCompile(`\$\{([^{}]+)\}`)
	indexedRef = regexp.MustCompile(`[a-zA-Z_][a-zA-Z0-9_]*(?:\[[0-9]+\])*(?:\.[a-zA-Z_][a-zA-Z0-9_]*(?:\[[0-9]+\])*)*`)
)

// Expand recursively walks maps and slices, expanding every string that
// carries a variable reference. Map keys expand too; a key that does not
// expand to a string is dropped.
func Expand(value interface{}, scope map[string]interface{}) (interface{}, error) {
	var err error
	switch actual := value.(type) {
	case map[string]interface{}:
		expanded := make(map[string]interface{}, len(actual))
		visit := visitor.MapVisitorOf[string, interface{}](actual)
		err = visit(func(key string, element interface{}) (bool, error) {
			expandedKey := key
			if hasRef(key) {
				resolved := expand(key, scope)
				str, ok := resolved.(string)
				if !ok {
					return true, nil
				}
				expandedKey = str
			}
			if text, ok := element.(string); ok && hasRef(text) {
				element = expand(text, scope)
			} else {
				if element, err = Expand(element, scope); err != nil {
					return false, err
				}
			}
			expanded[expandedKey] = element
			return true, nil
		})
		return expanded, err
	case []interface{}:
		expanded := make([]interface{}, len(actual))
		for i, item := range actual {
			if text, ok := item.(string); ok && hasRef(text) {
				item = expand(text, scope)
			} else {
				if item, err = Expand(item, scope); err != nil {
					return nil, err
				}
			}
			expanded[i] = item
		}
		return expanded, nil
	case string:
		if hasRef(actual) {
			return expand(actual, scope), nil
		}
		return actual, nil
	}
	return value, nil
}

// expand resolves references in a single string. When the whole string is
// one reference or one expression the typed value comes back; otherwise
// every reference is stringified into the surrounding text.
func expand(value string, scope map[string]interface{}) interface{} {
	if value == "" {
		return value
	}

	wholeBraced := strings.HasPrefix(value, "${") && strings.HasSuffix(value, "}") &&
		!strings.Contains(value[2:len(value)-1], "${")
	if wholeBraced {
		expr := value[2 : len(value)-1]
		if hasOperators(expr) {
			if result := evaluator.Evaluate(expr, scope); result != nil {
				return result
			}
			return indexedExpression(expr, scope)
		}
		result := evaluator.Resolve(expr, scope)
		if result == nil {
			return ""
		}
		return result
	}
	if pureRef.MatchString(value) {
		if result := evaluator.Resolve(value[1:], scope); result != nil {
			return result
		}
		// unresolved plain references stay intact in text form
		return value
	}

	result := value
	for {
		start := strings.Index(result, "${")
		if start == -1 {
			break
		}
		end := matchingBrace(result[start:])
		if end == -1 {
			break
		}
		end += start + 1
		expr := result[start+2 : end-1]
		var replacement interface{}
		if hasOperators(expr) {
			replacement = evaluator.Evaluate(expr, scope)
			if replacement == nil {
				replacement = indexedExpression(expr, scope)
			}
		} else {
			replacement = evaluator.Resolve(expr, scope)
		}
		result = result[:start] + evaluator.Stringify(replacement) + result[end:]
	}

	if strings.Contains(result, "${") {
		result = bracedRef.ReplaceAllStringFunc(result, func(match string) string {
			expr := match[2 : len(match)-1]
			if hasOperators(expr) {
				return evaluator.Stringify(evaluator.Evaluate(expr, scope))
			}
			return evaluator.Stringify(evaluator.Resolve(expr, scope))
		})
	}

	result = simpleRef.ReplaceAllStringFunc(result, func(match string) string {
		resolved := evaluator.Resolve(match[1:], scope)
		if resolved == nil {
			return match
		}
		switch reflect.TypeOf(resolved).Kind() {
		case reflect.Slice, reflect.Map:
			return match
		}
		return evaluator.Stringify(resolved)
	})
	return result
}

// hasRef reports whether the string carries any reference marker.
func hasRef(value string) bool {
	return strings.Contains(value, "$")
}

// hasOperators reports whether the expression holds arithmetic or logical
// operators, distinguishing a leading minus (negative literal) from
// subtraction.
func hasOperators(s string) bool {
	operators := []string{"+", "-", "*", "/", "%", "==", "!=", ">", "<", ">=", "<=", "&&", "||"}
	for _, op := range operators {
		if op == "-" && (strings.HasPrefix(s, "-") || strings.Contains(s, "+-") ||
			strings.Contains(s, "*-") || strings.Contains(s, "/-") ||
			strings.Contains(s, "=-")) {
			continue
		}
		if strings.Contains(s, op) {
			return true
		}
	}
	return false
}

// matchingBrace returns the index of the brace closing a leading "${",
// accounting for nesting, or -1.
func matchingBrace(s string) int {
	if !strings.HasPrefix(s, "${") {
		return -1
	}
	depth := 0
	for i := 0; i < len(s); i++ {
		switch s[i] {
		case '{':
			depth++
		case '}':
			depth--
			if depth == 0 {
				return i
			}
		}
	}
	return -1
}

// indexedExpression retries an arithmetic expression whose operands carry
// array indexes, e.g. "values[0] + values[1]". Each indexed path is
// substituted with its resolved literal before re-evaluating; nil when no
// substitution applied.
func indexedExpression(expr string, scope map[string]interface{}) interface{} {
	substituted := indexedRef.ReplaceAllStringFunc(expr, func(token string) string {
		resolved := evaluator.Resolve(token, scope)
		if resolved == nil {
			return token
		}
		switch v := resolved.(type) {
		case int, int8, int16, int32, int64,
			uint, uint8, uint16, uint32, uint64,
			float32, float64, bool:
			return fmt.Sprintf("%v", v)
		case string:
			return fmt.Sprintf("%q", v)
		}
		return token
	})
	if substituted == expr {
		return nil
	}
	return evaluator.Evaluate(substituted, scope)
}
