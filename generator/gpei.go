package generator

import (
	"context"
	"fmt"
	"math"
	"math/rand"
	"sync"

	"github.com/sweepline/sweep/model"
)

const defaultNumCandidates = 50

// GPEI proposes arms with a Gaussian-process surrogate scored by an
// acquisition function. Each proposal draws a pool of random candidates,
// predicts mean and variance at each, and keeps the acquisition argmax.
// The surrogate models the objective on the maximization scale; minimizing
// objectives are negated on Update.
type GPEI struct {
	space         *model.SearchSpace
	axes          []axis
	gp            *gaussianProcess
	rnd           *rand.Rand
	objectiveName string
	minimize      bool
	numCandidates int
	acquisition   AcquisitionFunc
	params        AcquisitionParams
	seen          signatureSet
	mu            sync.Mutex
}

// GPEIOption customizes a GPEI generator.
type GPEIOption func(*GPEI)

// WithGPEISeed seeds candidate sampling and Thompson draws.
func WithGPEISeed(seed int64) GPEIOption {
	return func(g *GPEI) { g.rnd = newRand(seed) }
}

// WithNumCandidates sets the size of the random candidate pool scored per
// proposed arm.
func WithNumCandidates(n int) GPEIOption {
	return func(g *GPEI) {
		if n > 0 {
			g.numCandidates = n
		}
	}
}

// WithAcquisition replaces the default expected-improvement scoring.
func WithAcquisition(fn AcquisitionFunc, params AcquisitionParams) GPEIOption {
	return func(g *GPEI) {
		g.acquisition = fn
		g.params = params
	}
}

// WithKernelWidth sets the RBF kernel sigma of the surrogate.
func WithKernelWidth(sigma float64) GPEIOption {
	return func(g *GPEI) { g.gp.SetSigma(sigma) }
}

// NewGPEI creates a surrogate-driven generator for the given objective.
func NewGPEI(space *model.SearchSpace, objectiveName string, minimize bool, opts ...GPEIOption) *GPEI {
	ret := &GPEI{
		space:         space,
		axes:          tunableAxes(space),
		gp:            newGaussianProcess(),
		rnd:           newRand(0),
		objectiveName: objectiveName,
		minimize:      minimize,
		numCandidates: defaultNumCandidates,
		acquisition:   ExpectedImprovement,
		params:        AcquisitionParams{Beta: 2.0, Xi: 0.01},
		seen:          signatureSet{},
	}
	for _, opt := range opts {
		opt(ret)
	}
	return ret
}

// Name returns the registered model name.
func (g *GPEI) Name() string { return ModelGPEI }

// Generate proposes count arms. It fails with ErrNoObservations until data
// has been attached with Update.
func (g *GPEI) Generate(ctx context.Context, count int) ([]*model.Arm, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.gp.Len() == 0 {
		return nil, fmt.Errorf("%s model: %w", ModelGPEI, ErrNoObservations)
	}
	params := g.params
	if best, ok := g.gp.Best(); ok {
		params.BestSoFar = best
	}
	if params.Rand == nil {
		params.Rand = g.rnd
	}
	ret := make([]*model.Arm, 0, count)
	for len(ret) < count {
		arm, err := g.proposeOne(params)
		if err != nil {
			return ret, err
		}
		ret = append(ret, arm)
	}
	return ret, nil
}

// proposeOne scores a pool of random feasible candidates and returns the
// acquisition argmax among unseen ones.
func (g *GPEI) proposeOne(params AcquisitionParams) (*model.Arm, error) {
	var best *model.Arm
	bestScore := math.Inf(-1)
	attempts := 0
	maxAttempts := maxDrawAttempts(g.numCandidates)
	for scored := 0; scored < g.numCandidates && attempts < maxAttempts; attempts++ {
		unit := make([]float64, len(g.axes))
		for i := range unit {
			unit[i] = g.rnd.Float64()
		}
		point := pointFromUnit(g.space, g.axes, unit)
		if !satisfiesConstraints(g.space, point) {
			continue
		}
		arm := model.NewArm(point)
		if g.seen[arm.Signature()] {
			continue
		}
		scored++
		features, err := featureVector(g.space, point)
		if err != nil {
			return nil, err
		}
		mean, variance := g.gp.Predict(features)
		score := g.acquisition(mean, variance, params)
		if score > bestScore {
			bestScore = score
			best = arm
		}
	}
	if best == nil {
		return nil, fmt.Errorf("%s model found no distinct feasible candidate after %d draws", ModelGPEI, attempts)
	}
	g.seen.add(best)
	return best, nil
}

// Update feeds observed objective values into the surrogate. Observations
// lacking the objective metric are skipped.
func (g *GPEI) Update(ctx context.Context, observations []*model.Observation) error {
	g.mu.Lock()
	defer g.mu.Unlock()
	for _, observation := range observations {
		if observation.Features == nil || observation.Data == nil {
			continue
		}
		mean, ok := observation.Data.Mean(g.objectiveName)
		if !ok || math.IsNaN(mean) {
			continue
		}
		features, err := featureVector(g.space, observation.Features.Parameters)
		if err != nil {
			return err
		}
		if g.minimize {
			mean = -mean
		}
		g.gp.Update(features, mean)
	}
	g.seen.addObservations(observations)
	return nil
}
