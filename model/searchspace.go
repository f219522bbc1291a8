package model

import (
	"encoding/json"
	"fmt"
)

// SearchSpace is the set of parameters an experiment explores together with
// constraints over them. Parameter order is preserved so that generators can
// produce stable feature vectors.
type SearchSpace struct {
	Parameters  []Parameter
	Constraints []Constraint

	index map[string]Parameter
}

// NewSearchSpace builds a search space, rejecting duplicate parameter names
// and constraints that refer to unknown or non-range parameters.
func NewSearchSpace(parameters []Parameter, constraints ...Constraint) (*SearchSpace, error) {
	ret := &SearchSpace{
		Parameters:  parameters,
		Constraints: constraints,
		index:       make(map[string]Parameter, len(parameters)),
	}
	for _, parameter := range parameters {
		if _, exists := ret.index[parameter.Name()]; exists {
			return nil, fmt.Errorf("duplicate parameter name %q", parameter.Name())
		}
		ret.index[parameter.Name()] = parameter
	}
	for _, constraint := range constraints {
		for _, name := range constraint.Parameters() {
			parameter, ok := ret.index[name]
			if !ok {
				return nil, fmt.Errorf("constraint %q refers to unknown parameter %q", constraint, name)
			}
			if parameter.Kind() != KindRange || !parameter.Type().IsNumeric() {
				return nil, fmt.Errorf("constraint %q requires numeric range parameter, %q is %s", constraint, name, parameter.Kind())
			}
		}
	}
	return ret, nil
}

// Parameter returns the named parameter or nil.
func (s *SearchSpace) Parameter(name string) Parameter {
	s.ensureIndex()
	return s.index[name]
}

// RangeParameters returns the range parameters in declaration order.
func (s *SearchSpace) RangeParameters() []*RangeParameter {
	var ret []*RangeParameter
	for _, parameter := range s.Parameters {
		if rp, ok := parameter.(*RangeParameter); ok {
			ret = append(ret, rp)
		}
	}
	return ret
}

// Validate reports whether point is a member of the search space: every
// parameter present and valid, and every constraint satisfied.
func (s *SearchSpace) Validate(point Parameterization) error {
	s.ensureIndex()
	for _, parameter := range s.Parameters {
		value, ok := point[parameter.Name()]
		if !ok {
			return fmt.Errorf("parameter %q missing from point", parameter.Name())
		}
		if !parameter.Validate(value) {
			return fmt.Errorf("value %v is not valid for parameter %q", value, parameter.Name())
		}
	}
	for name := range point {
		if _, ok := s.index[name]; !ok {
			return fmt.Errorf("point has unknown parameter %q", name)
		}
	}
	for _, constraint := range s.Constraints {
		if !constraint.Satisfied(point) {
			return fmt.Errorf("constraint %q violated", constraint)
		}
	}
	return nil
}

// Cast coerces each raw value of point to its declared parameter type.
func (s *SearchSpace) Cast(point Parameterization) (Parameterization, error) {
	s.ensureIndex()
	ret := make(Parameterization, len(point))
	for name, value := range point {
		parameter, ok := s.index[name]
		if !ok {
			return nil, fmt.Errorf("point has unknown parameter %q", name)
		}
		cast, err := parameter.Cast(value)
		if err != nil {
			return nil, err
		}
		ret[name] = cast
	}
	return ret, nil
}

func (s *SearchSpace) ensureIndex() {
	if s.index != nil {
		return
	}
	s.index = make(map[string]Parameter, len(s.Parameters))
	for _, parameter := range s.Parameters {
		s.index[parameter.Name()] = parameter
	}
}

// searchSpaceEnvelope is the persisted form of a SearchSpace. Parameters and
// constraints are interface values, so each entry carries a kind
// discriminator next to its concrete payload.
type searchSpaceEnvelope struct {
	Parameters  []parameterEnvelope  `json:"parameters,omitempty"`
	Constraints []constraintEnvelope `json:"constraints,omitempty"`
}

type parameterEnvelope struct {
	Kind   ParameterKind    `json:"kind"`
	Range  *RangeParameter  `json:"range,omitempty"`
	Choice *ChoiceParameter `json:"choice,omitempty"`
	Fixed  *FixedParameter  `json:"fixed,omitempty"`
}

type constraintEnvelope struct {
	Kind  string           `json:"kind"`
	Order *OrderConstraint `json:"order,omitempty"`
	Sum   *SumConstraint   `json:"sum,omitempty"`
}

// MarshalJSON serializes the search space with kind-tagged parameters and
// constraints so that it survives a round trip through JSON-backed storage.
func (s *SearchSpace) MarshalJSON() ([]byte, error) {
	envelope := searchSpaceEnvelope{}
	for _, parameter := range s.Parameters {
		switch actual := parameter.(type) {
		case *RangeParameter:
			envelope.Parameters = append(envelope.Parameters, parameterEnvelope{Kind: KindRange, Range: actual})
		case *ChoiceParameter:
			envelope.Parameters = append(envelope.Parameters, parameterEnvelope{Kind: KindChoice, Choice: actual})
		case *FixedParameter:
			envelope.Parameters = append(envelope.Parameters, parameterEnvelope{Kind: KindFixed, Fixed: actual})
		default:
			return nil, fmt.Errorf("cannot serialize parameter %q of type %T", parameter.Name(), parameter)
		}
	}
	for _, constraint := range s.Constraints {
		switch actual := constraint.(type) {
		case *OrderConstraint:
			envelope.Constraints = append(envelope.Constraints, constraintEnvelope{Kind: "order", Order: actual})
		case *SumConstraint:
			envelope.Constraints = append(envelope.Constraints, constraintEnvelope{Kind: "sum", Sum: actual})
		default:
			return nil, fmt.Errorf("cannot serialize constraint %q of type %T", constraint, constraint)
		}
	}
	return json.Marshal(envelope)
}

// UnmarshalJSON rebuilds the search space from its envelope form. Choice and
// fixed values are re-cast to their declared type because JSON decodes every
// number as float64.
func (s *SearchSpace) UnmarshalJSON(data []byte) error {
	var envelope searchSpaceEnvelope
	if err := json.Unmarshal(data, &envelope); err != nil {
		return err
	}
	parameters := make([]Parameter, 0, len(envelope.Parameters))
	for _, entry := range envelope.Parameters {
		switch entry.Kind {
		case KindRange:
			if entry.Range == nil {
				return fmt.Errorf("range parameter entry has no payload")
			}
			parameters = append(parameters, entry.Range)
		case KindChoice:
			if entry.Choice == nil {
				return fmt.Errorf("choice parameter entry has no payload")
			}
			for i, value := range entry.Choice.Values {
				cast, err := entry.Choice.Cast(value)
				if err != nil {
					return err
				}
				entry.Choice.Values[i] = cast
			}
			parameters = append(parameters, entry.Choice)
		case KindFixed:
			if entry.Fixed == nil {
				return fmt.Errorf("fixed parameter entry has no payload")
			}
			cast, err := entry.Fixed.Cast(entry.Fixed.Value)
			if err != nil {
				return err
			}
			entry.Fixed.Value = cast
			parameters = append(parameters, entry.Fixed)
		default:
			return fmt.Errorf("unknown parameter kind %q", entry.Kind)
		}
	}
	constraints := make([]Constraint, 0, len(envelope.Constraints))
	for _, entry := range envelope.Constraints {
		switch entry.Kind {
		case "order":
			if entry.Order == nil {
				return fmt.Errorf("order constraint entry has no payload")
			}
			constraints = append(constraints, entry.Order)
		case "sum":
			if entry.Sum == nil {
				return fmt.Errorf("sum constraint entry has no payload")
			}
			constraints = append(constraints, entry.Sum)
		default:
			return fmt.Errorf("unknown constraint kind %q", entry.Kind)
		}
	}
	s.Parameters = parameters
	s.Constraints = constraints
	s.index = nil
	return nil
}
