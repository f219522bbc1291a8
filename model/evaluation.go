package model

import (
	"fmt"
	"math"
	"sort"

	"github.com/viant/toolbox"
)

// Measurement is a metric reading with an optional standard error; SEM is
// NaN when the error is unknown.
type Measurement struct {
	Mean float64 `json:"mean" yaml:"mean"`
	SEM  float64 `json:"sem" yaml:"sem"`
}

// Outcome maps metric names to measurements produced by a single trial
// evaluation.
type Outcome map[string]Measurement

// NormalizeOutcome coerces a raw evaluation result into an outcome. Accepted
// shapes: a bare number (objective mean, unknown error), a two-element
// number sequence (objective mean and error), or a map of metric name to
// either of those.
func NormalizeOutcome(raw interface{}, objectiveName string) (Outcome, error) {
	if raw == nil {
		return nil, fmt.Errorf("evaluation produced no result")
	}
	if objectiveName == "" {
		objectiveName = DefaultObjectiveName
	}
	switch actual := raw.(type) {
	case Outcome:
		return actual, nil
	case Measurement:
		return Outcome{objectiveName: actual}, nil
	case map[string]interface{}:
		result := Outcome{}
		for name, value := range actual {
			measurement, err := normalizeMeasurement(value)
			if err != nil {
				return nil, fmt.Errorf("metric %q: %w", name, err)
			}
			result[name] = measurement
		}
		return result, nil
	case map[string]float64:
		result := Outcome{}
		for name, value := range actual {
			result[name] = Measurement{Mean: value, SEM: math.NaN()}
		}
		return result, nil
	default:
		measurement, err := normalizeMeasurement(raw)
		if err != nil {
			return nil, err
		}
		return Outcome{objectiveName: measurement}, nil
	}
}

func normalizeMeasurement(value interface{}) (Measurement, error) {
	switch actual := value.(type) {
	case Measurement:
		return actual, nil
	case []interface{}:
		if len(actual) != 2 {
			return Measurement{}, fmt.Errorf("expected [mean, sem] pair, had %d elements", len(actual))
		}
		mean, err := toolbox.ToFloat(actual[0])
		if err != nil {
			return Measurement{}, fmt.Errorf("invalid mean: %w", err)
		}
		sem, err := toolbox.ToFloat(actual[1])
		if err != nil {
			return Measurement{}, fmt.Errorf("invalid sem: %w", err)
		}
		return Measurement{Mean: mean, SEM: sem}, nil
	case []float64:
		if len(actual) != 2 {
			return Measurement{}, fmt.Errorf("expected [mean, sem] pair, had %d elements", len(actual))
		}
		return Measurement{Mean: actual[0], SEM: actual[1]}, nil
	default:
		mean, err := toolbox.ToFloat(value)
		if err != nil {
			return Measurement{}, fmt.Errorf("unsupported measurement %T", value)
		}
		return Measurement{Mean: mean, SEM: math.NaN()}, nil
	}
}

// Rows converts an outcome into data rows for the supplied arm and trial.
func (o Outcome) Rows(armName string, trialIndex int) []*Row {
	var rows []*Row
	for _, name := range sortedMetricNames(o) {
		measurement := o[name]
		rows = append(rows, &Row{
			ArmName:    armName,
			MetricName: name,
			Mean:       measurement.Mean,
			SEM:        measurement.SEM,
			TrialIndex: trialIndex,
		})
	}
	return rows
}

func sortedMetricNames(o Outcome) []string {
	names := make([]string, 0, len(o))
	for name := range o {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
