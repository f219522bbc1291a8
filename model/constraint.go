package model

import (
	"fmt"
	"strings"
)

// Constraint restricts the feasible region of a search space beyond the
// per-parameter domains. Constraints only apply to numeric range parameters.
type Constraint interface {
	// Parameters returns the names the constraint refers to.
	Parameters() []string

	// Satisfied reports whether the point meets the constraint. Points with
	// missing or non-numeric values are treated as unsatisfied.
	Satisfied(point Parameterization) bool

	String() string
}

// OrderConstraint enforces lower <= upper between two parameters.
type OrderConstraint struct {
	LowerName string `json:"lower" yaml:"lower"`
	UpperName string `json:"upper" yaml:"upper"`
}

func (c *OrderConstraint) Parameters() []string {
	return []string{c.LowerName, c.UpperName}
}

func (c *OrderConstraint) Satisfied(point Parameterization) bool {
	lower, err := point.Float(c.LowerName)
	if err != nil {
		return false
	}
	upper, err := point.Float(c.UpperName)
	if err != nil {
		return false
	}
	return lower <= upper
}

func (c *OrderConstraint) String() string {
	return fmt.Sprintf("%s <= %s", c.LowerName, c.UpperName)
}

// SumConstraint bounds the sum of a set of parameters.
type SumConstraint struct {
	Names        []string `json:"parameters" yaml:"parameters"`
	IsUpperBound bool     `json:"isUpperBound" yaml:"isUpperBound"`
	Bound        float64  `json:"bound" yaml:"bound"`
}

func (c *SumConstraint) Parameters() []string {
	return append([]string(nil), c.Names...)
}

func (c *SumConstraint) Satisfied(point Parameterization) bool {
	var sum float64
	for _, name := range c.Names {
		value, err := point.Float(name)
		if err != nil {
			return false
		}
		sum += value
	}
	if c.IsUpperBound {
		return sum <= c.Bound
	}
	return sum >= c.Bound
}

func (c *SumConstraint) String() string {
	op := ">="
	if c.IsUpperBound {
		op = "<="
	}
	return fmt.Sprintf("%s %s %v", strings.Join(c.Names, " + "), op, c.Bound)
}
