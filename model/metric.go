package model

import (
	"fmt"
)

// DefaultObjectiveName is used when an experiment does not name its
// objective metric explicitly.
const DefaultObjectiveName = "objective"

// Metric identifies a measured outcome.
type Metric struct {
	Name string `json:"name" yaml:"name"`

	// LowerIsBetter is informational for reporting; the optimization
	// direction is carried by Objective.Minimize.
	LowerIsBetter bool `json:"lowerIsBetter,omitempty" yaml:"lowerIsBetter,omitempty"`
}

// Objective pairs a metric with an optimization direction.
type Objective struct {
	Metric   Metric `json:"metric" yaml:"metric"`
	Minimize bool   `json:"minimize,omitempty" yaml:"minimize,omitempty"`
}

// ComparisonOp enumerates outcome constraint comparison operators.
type ComparisonOp string

const (
	GEQ ComparisonOp = ">="
	LEQ ComparisonOp = "<="
)

// OutcomeConstraint bounds a metric of the evaluated outcome. A relative
// constraint expresses the bound as a percentage of the status-quo arm's
// value and therefore requires the experiment to define one.
type OutcomeConstraint struct {
	Metric   Metric       `json:"metric" yaml:"metric"`
	Op       ComparisonOp `json:"op" yaml:"op"`
	Bound    float64      `json:"bound" yaml:"bound"`
	Relative bool         `json:"relative,omitempty" yaml:"relative,omitempty"`
}

// Satisfied reports whether the observed metric value meets the constraint.
// For relative constraints statusQuo carries the reference value.
func (c *OutcomeConstraint) Satisfied(value float64, statusQuo *float64) (bool, error) {
	bound := c.Bound
	if c.Relative {
		if statusQuo == nil {
			return false, fmt.Errorf("relative constraint on %q requires a status quo value", c.Metric.Name)
		}
		bound = *statusQuo * (1 + c.Bound/100)
	}
	if c.Op == LEQ {
		return value <= bound, nil
	}
	return value >= bound, nil
}

func (c *OutcomeConstraint) String() string {
	suffix := ""
	if c.Relative {
		suffix = "%"
	}
	return fmt.Sprintf("%s %s %v%s", c.Metric.Name, c.Op, c.Bound, suffix)
}

// OptimizationConfig couples the objective with outcome constraints.
type OptimizationConfig struct {
	Objective          Objective            `json:"objective" yaml:"objective"`
	OutcomeConstraints []*OutcomeConstraint `json:"outcomeConstraints,omitempty" yaml:"outcomeConstraints,omitempty"`
}

// ObjectiveName returns the objective metric name, falling back to the
// default when unset.
func (c *OptimizationConfig) ObjectiveName() string {
	if c == nil || c.Objective.Metric.Name == "" {
		return DefaultObjectiveName
	}
	return c.Objective.Metric.Name
}
