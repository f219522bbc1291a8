package model

import (
	"fmt"
	"sort"

	"github.com/viant/toolbox"
)

// Parameterization maps parameter names to scalar values (int64, float64,
// bool or string). It is the unit of work handed to evaluators and the
// feature vector consumed by generation models.
type Parameterization map[string]interface{}

// Clone returns an independent copy.
func (p Parameterization) Clone() Parameterization {
	if p == nil {
		return nil
	}
	ret := make(Parameterization, len(p))
	for k, v := range p {
		ret[k] = v
	}
	return ret
}

// Names returns the parameter names in lexical order.
func (p Parameterization) Names() []string {
	names := make([]string, 0, len(p))
	for name := range p {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Float returns the named value coerced to float64.
func (p Parameterization) Float(name string) (float64, error) {
	value, ok := p[name]
	if !ok {
		return 0, fmt.Errorf("parameter %q not present", name)
	}
	return toolbox.ToFloat(value)
}

// Int returns the named value coerced to int.
func (p Parameterization) Int(name string) (int, error) {
	value, ok := p[name]
	if !ok {
		return 0, fmt.Errorf("parameter %q not present", name)
	}
	return toolbox.ToInt(value)
}

// Merge overlays values of other on top of p, returning p for chaining.
func (p Parameterization) Merge(other Parameterization) Parameterization {
	for k, v := range other {
		p[k] = v
	}
	return p
}
