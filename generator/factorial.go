package generator

import (
	"context"
	"fmt"
	"sync"

	"github.com/sweepline/sweep/model"
)

// Factorial enumerates the full cartesian product of choice parameter
// values. The design is finite: once every combination has been proposed
// Generate fails with ErrExhausted. Range parameters have no finite value
// set and are rejected at construction.
type Factorial struct {
	space  *model.SearchSpace
	names  []string
	values [][]interface{}
	total  int

	mu     sync.Mutex
	cursor int
}

// NewFactorial creates a full factorial design over the space.
func NewFactorial(space *model.SearchSpace) (*Factorial, error) {
	ret := &Factorial{space: space, total: 1}
	for _, parameter := range space.Parameters {
		switch p := parameter.(type) {
		case *model.RangeParameter:
			return nil, fmt.Errorf("factorial design requires finite domains, parameter %q is a range", p.Name())
		case *model.ChoiceParameter:
			ret.names = append(ret.names, p.Name())
			ret.values = append(ret.values, p.Values)
			ret.total *= len(p.Values)
		}
	}
	if len(ret.names) == 0 {
		return nil, fmt.Errorf("factorial design requires at least one choice parameter")
	}
	return ret, nil
}

// Name returns the registered model name.
func (g *Factorial) Name() string { return ModelFactorial }

// Generate returns the next count combinations of the enumeration.
func (g *Factorial) Generate(ctx context.Context, count int) ([]*model.Arm, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.cursor >= g.total {
		return nil, fmt.Errorf("%s design with %d combinations: %w", ModelFactorial, g.total, ErrExhausted)
	}
	ret := make([]*model.Arm, 0, count)
	for len(ret) < count && g.cursor < g.total {
		point := g.pointAt(g.cursor)
		g.cursor++
		if !satisfiesConstraints(g.space, point) {
			continue
		}
		ret = append(ret, model.NewArm(point))
	}
	return ret, nil
}

// pointAt decodes the i-th combination of the mixed-radix enumeration.
func (g *Factorial) pointAt(i int) model.Parameterization {
	point := make(model.Parameterization, len(g.space.Parameters))
	for _, parameter := range g.space.Parameters {
		if fixed, ok := parameter.(*model.FixedParameter); ok {
			point[fixed.Name()] = fixed.Value
		}
	}
	for axis := len(g.names) - 1; axis >= 0; axis-- {
		values := g.values[axis]
		point[g.names[axis]] = values[i%len(values)]
		i /= len(values)
	}
	return point
}

// Update is a no-op; the design does not depend on observed data.
func (g *Factorial) Update(ctx context.Context, observations []*model.Observation) error {
	return nil
}
