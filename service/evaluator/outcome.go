package evaluator

import (
	"fmt"
	"reflect"

	"github.com/sweepline/sweep/model"
)

// OutcomeProvider lets evaluation outputs hand back their measurements
// directly.
type OutcomeProvider interface {
	EvaluationOutcome() model.Outcome
}

// ApplyOutcome extracts the measured outcome from an evaluation output.
// Outputs may implement OutcomeProvider, expose an Outcome field, or be a
// raw value accepted by model.NormalizeOutcome.
func ApplyOutcome(output interface{}, objectiveName string) (model.Outcome, error) {
	if output == nil {
		return nil, fmt.Errorf("evaluation produced no output")
	}
	switch actual := output.(type) {
	case OutcomeProvider:
		return actual.EvaluationOutcome(), nil
	case model.Outcome:
		return actual, nil
	case *model.Outcome:
		return *actual, nil
	}
	if outcome, ok := outcomeField(output); ok {
		return outcome, nil
	}
	return model.NormalizeOutcome(output, objectiveName)
}

// outcomeField reads an exported Outcome field of type model.Outcome.
func outcomeField(output interface{}) (model.Outcome, bool) {
	value := reflect.ValueOf(output)
	for value.Kind() == reflect.Ptr {
		if value.IsNil() {
			return nil, false
		}
		value = value.Elem()
	}
	if value.Kind() != reflect.Struct {
		return nil, false
	}
	field := value.FieldByName("Outcome")
	if !field.IsValid() {
		return nil, false
	}
	outcome, ok := field.Interface().(model.Outcome)
	return outcome, ok
}
