package model

import (
	"fmt"
	"math"

	"github.com/viant/toolbox"
)

// ParameterType enumerates the scalar types a parameter can take.
type ParameterType string

const (
	TypeInt    ParameterType = "int"
	TypeFloat  ParameterType = "float"
	TypeBool   ParameterType = "bool"
	TypeString ParameterType = "string"
)

// IsNumeric reports whether the type participates in numeric constraints.
func (t ParameterType) IsNumeric() bool {
	return t == TypeInt || t == TypeFloat
}

// ParameterKind enumerates the supported parameter classes.
type ParameterKind string

const (
	KindRange  ParameterKind = "range"
	KindChoice ParameterKind = "choice"
	KindFixed  ParameterKind = "fixed"
)

// Parameter describes a single dimension of a search space.
type Parameter interface {
	Name() string
	Kind() ParameterKind
	Type() ParameterType

	// Validate reports whether value is a member of the parameter domain.
	Validate(value interface{}) bool

	// Cast coerces a raw value to the declared type.
	Cast(value interface{}) (interface{}, error)
}

// RangeParameter is a numeric parameter bounded by an inclusive interval.
type RangeParameter struct {
	ParamName string        `json:"name" yaml:"name"`
	ValueType ParameterType `json:"valueType" yaml:"valueType"`
	Lower     float64       `json:"lower" yaml:"lower"`
	Upper     float64       `json:"upper" yaml:"upper"`

	// LogScale hints generators to sample the interval in log space.
	LogScale bool `json:"logScale,omitempty" yaml:"logScale,omitempty"`

	// IsFidelity marks the parameter as a fidelity knob; observed data may
	// override its arm value.
	IsFidelity bool `json:"isFidelity,omitempty" yaml:"isFidelity,omitempty"`
}

// NewRangeParameter creates a validated range parameter.
func NewRangeParameter(name string, valueType ParameterType, lower, upper float64) (*RangeParameter, error) {
	if !valueType.IsNumeric() {
		return nil, fmt.Errorf("range parameter %q requires int or float type, got %q", name, valueType)
	}
	if lower > upper {
		return nil, fmt.Errorf("range parameter %q: lower bound %v exceeds upper bound %v", name, lower, upper)
	}
	return &RangeParameter{ParamName: name, ValueType: valueType, Lower: lower, Upper: upper}, nil
}

func (p *RangeParameter) Name() string        { return p.ParamName }
func (p *RangeParameter) Kind() ParameterKind { return KindRange }
func (p *RangeParameter) Type() ParameterType { return p.ValueType }

func (p *RangeParameter) Validate(value interface{}) bool {
	f, err := toolbox.ToFloat(value)
	if err != nil {
		return false
	}
	if p.ValueType == TypeInt && f != math.Trunc(f) {
		return false
	}
	return f >= p.Lower && f <= p.Upper
}

func (p *RangeParameter) Cast(value interface{}) (interface{}, error) {
	f, err := toolbox.ToFloat(value)
	if err != nil {
		return nil, fmt.Errorf("parameter %q: %w", p.ParamName, err)
	}
	if p.ValueType == TypeInt {
		return int64(math.Round(f)), nil
	}
	return f, nil
}

// ChoiceParameter is a parameter restricted to an explicit value set.
type ChoiceParameter struct {
	ParamName string        `json:"name" yaml:"name"`
	ValueType ParameterType `json:"valueType" yaml:"valueType"`
	Values    []interface{} `json:"values" yaml:"values"`

	// IsOrdered marks the value set as ordinal rather than categorical.
	IsOrdered bool `json:"isOrdered,omitempty" yaml:"isOrdered,omitempty"`
}

// NewChoiceParameter creates a validated choice parameter.
func NewChoiceParameter(name string, valueType ParameterType, values []interface{}) (*ChoiceParameter, error) {
	if len(values) < 2 {
		return nil, fmt.Errorf("choice parameter %q requires at least two values", name)
	}
	ret := &ChoiceParameter{ParamName: name, ValueType: valueType, Values: make([]interface{}, 0, len(values))}
	for _, value := range values {
		cast, err := ret.Cast(value)
		if err != nil {
			return nil, err
		}
		ret.Values = append(ret.Values, cast)
	}
	return ret, nil
}

func (p *ChoiceParameter) Name() string        { return p.ParamName }
func (p *ChoiceParameter) Kind() ParameterKind { return KindChoice }
func (p *ChoiceParameter) Type() ParameterType { return p.ValueType }

func (p *ChoiceParameter) Validate(value interface{}) bool {
	cast, err := p.Cast(value)
	if err != nil {
		return false
	}
	for _, candidate := range p.Values {
		if candidate == cast {
			return true
		}
	}
	return false
}

func (p *ChoiceParameter) Cast(value interface{}) (interface{}, error) {
	return castScalar(p.ParamName, p.ValueType, value)
}

// FixedParameter pins a parameter to a single value; it still appears in
// every arm so that evaluators receive a complete parameterization.
type FixedParameter struct {
	ParamName string        `json:"name" yaml:"name"`
	ValueType ParameterType `json:"valueType" yaml:"valueType"`
	Value     interface{}   `json:"value" yaml:"value"`
}

// NewFixedParameter creates a validated fixed parameter.
func NewFixedParameter(name string, valueType ParameterType, value interface{}) (*FixedParameter, error) {
	cast, err := castScalar(name, valueType, value)
	if err != nil {
		return nil, err
	}
	return &FixedParameter{ParamName: name, ValueType: valueType, Value: cast}, nil
}

func (p *FixedParameter) Name() string        { return p.ParamName }
func (p *FixedParameter) Kind() ParameterKind { return KindFixed }
func (p *FixedParameter) Type() ParameterType { return p.ValueType }

func (p *FixedParameter) Validate(value interface{}) bool {
	cast, err := p.Cast(value)
	if err != nil {
		return false
	}
	return cast == p.Value
}

func (p *FixedParameter) Cast(value interface{}) (interface{}, error) {
	return castScalar(p.ParamName, p.ValueType, value)
}

// InferType derives a parameter type from a literal value.
func InferType(value interface{}) (ParameterType, error) {
	switch value.(type) {
	case int, int32, int64:
		return TypeInt, nil
	case float32, float64:
		return TypeFloat, nil
	case bool:
		return TypeBool, nil
	case string:
		return TypeString, nil
	}
	return "", fmt.Errorf("cannot infer parameter type from %T", value)
}

func castScalar(name string, valueType ParameterType, value interface{}) (interface{}, error) {
	switch valueType {
	case TypeInt:
		f, err := toolbox.ToFloat(value)
		if err != nil {
			return nil, fmt.Errorf("parameter %q: %w", name, err)
		}
		return int64(math.Round(f)), nil
	case TypeFloat:
		f, err := toolbox.ToFloat(value)
		if err != nil {
			return nil, fmt.Errorf("parameter %q: %w", name, err)
		}
		return f, nil
	case TypeBool:
		b, ok := value.(bool)
		if !ok {
			return nil, fmt.Errorf("parameter %q: expected bool, got %T", name, value)
		}
		return b, nil
	case TypeString:
		s, ok := value.(string)
		if !ok {
			return nil, fmt.Errorf("parameter %q: expected string, got %T", name, value)
		}
		return s, nil
	}
	return nil, fmt.Errorf("parameter %q: unknown value type %q", name, valueType)
}
