package generator

import (
	"context"
	"errors"
	"fmt"
	"math"
	"math/rand"

	"golang.org/x/exp/constraints"

	"github.com/sweepline/sweep/model"
)

var (
	// ErrNoObservations signals a model that cannot generate before data
	// has been attached (model-based generators).
	ErrNoObservations = errors.New("generator requires observations")

	// ErrExhausted signals a finite design with no remaining points.
	ErrExhausted = errors.New("generator exhausted")
)

// Generator proposes candidate arms over a search space. Implementations
// are stateful: Update feeds observed data back so later proposals can
// exploit it, and deduplicating generators remember what they produced.
type Generator interface {
	// Name returns the model name the generator was registered under.
	Name() string

	// Generate proposes count new arms.
	Generate(ctx context.Context, count int) ([]*model.Arm, error)

	// Update attaches observed data to the model.
	Update(ctx context.Context, observations []*model.Observation) error
}

// axis adapts one tunable parameter to the unit interval so that samplers
// can work in [0,1)^d regardless of parameter kinds. Fixed parameters do
// not occupy an axis.
type axis struct {
	parameter model.Parameter
}

// value maps u in [0,1) onto the parameter domain.
func (a axis) value(u float64) interface{} {
	switch p := a.parameter.(type) {
	case *model.RangeParameter:
		var v float64
		if p.LogScale && p.Lower > 0 {
			v = math.Exp(math.Log(p.Lower) + u*(math.Log(p.Upper)-math.Log(p.Lower)))
		} else {
			v = p.Lower + u*(p.Upper-p.Lower)
		}
		if p.ValueType == model.TypeInt {
			return clamp(int64(math.Round(v)), int64(p.Lower), int64(p.Upper))
		}
		return v
	case *model.ChoiceParameter:
		idx := clamp(int(u*float64(len(p.Values))), 0, len(p.Values)-1)
		return p.Values[idx]
	}
	return nil
}

// tunableAxes returns one axis per range or choice parameter, preserving
// declaration order.
func tunableAxes(space *model.SearchSpace) []axis {
	var ret []axis
	for _, parameter := range space.Parameters {
		if parameter.Kind() == model.KindFixed {
			continue
		}
		ret = append(ret, axis{parameter: parameter})
	}
	return ret
}

// pointFromUnit expands a unit-cube sample into a full parameterization,
// fixed parameters included.
func pointFromUnit(space *model.SearchSpace, axes []axis, unit []float64) model.Parameterization {
	point := make(model.Parameterization, len(space.Parameters))
	i := 0
	for _, parameter := range space.Parameters {
		if fixed, ok := parameter.(*model.FixedParameter); ok {
			point[fixed.Name()] = fixed.Value
			continue
		}
		point[parameter.Name()] = axes[i].value(unit[i])
		i++
	}
	return point
}

// satisfiesConstraints reports whether the point meets every parameter
// constraint of the space.
func satisfiesConstraints(space *model.SearchSpace, point model.Parameterization) bool {
	for _, constraint := range space.Constraints {
		if !constraint.Satisfied(point) {
			return false
		}
	}
	return true
}

// featureVector encodes a parameterization as the numeric vector surrogate
// models consume. Range values are taken as floats (log scale applied when
// declared), choice values as their index in the declared value set. Fixed
// parameters are constant and carry no information.
func featureVector(space *model.SearchSpace, point model.Parameterization) ([]float64, error) {
	var ret []float64
	for _, parameter := range space.Parameters {
		switch p := parameter.(type) {
		case *model.RangeParameter:
			v, err := point.Float(p.Name())
			if err != nil {
				return nil, err
			}
			if p.LogScale && v > 0 {
				v = math.Log(v)
			}
			ret = append(ret, v)
		case *model.ChoiceParameter:
			value, ok := point[p.Name()]
			if !ok {
				return nil, fmt.Errorf("point is missing parameter %q", p.Name())
			}
			idx := -1
			for i, candidate := range p.Values {
				if fmt.Sprint(candidate) == fmt.Sprint(value) {
					idx = i
					break
				}
			}
			if idx == -1 {
				return nil, fmt.Errorf("value %v is not a member of parameter %q", value, p.Name())
			}
			ret = append(ret, float64(idx))
		}
	}
	return ret, nil
}

// signatureSet tracks arm signatures for deduplication.
type signatureSet map[string]bool

func (s signatureSet) add(arm *model.Arm) bool {
	sig := arm.Signature()
	if s[sig] {
		return false
	}
	s[sig] = true
	return true
}

func (s signatureSet) addObservations(observations []*model.Observation) {
	for _, observation := range observations {
		if observation.Features == nil || observation.Features.Parameters == nil {
			continue
		}
		arm := model.NewArm(observation.Features.Parameters)
		s[arm.Signature()] = true
	}
}

// clamp bounds v to [lo, hi].
func clamp[T constraints.Ordered](v, lo, hi T) T {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

func newRand(seed int64) *rand.Rand {
	if seed == 0 {
		seed = rand.Int63()
	}
	return rand.New(rand.NewSource(seed))
}
