package generator

import (
	"context"
	"fmt"
	"math/rand"
	"sync"

	"github.com/sweepline/sweep/model"
)

// Uniform draws arms independently and uniformly over the search space.
type Uniform struct {
	space       *model.SearchSpace
	axes        []axis
	rnd         *rand.Rand
	deduplicate bool
	seen        signatureSet
	mu          sync.Mutex
}

// UniformOption customizes a Uniform generator.
type UniformOption func(*uniformOptions)

type uniformOptions struct {
	seed        int64
	deduplicate bool
}

// WithUniformSeed seeds the sampler for reproducible draws.
func WithUniformSeed(seed int64) UniformOption {
	return func(o *uniformOptions) { o.seed = seed }
}

// WithUniformDeduplicate suppresses arms whose signature was already
// generated or observed.
func WithUniformDeduplicate(deduplicate bool) UniformOption {
	return func(o *uniformOptions) { o.deduplicate = deduplicate }
}

// NewUniform creates a uniform random generator over the supplied space.
func NewUniform(space *model.SearchSpace, opts ...UniformOption) *Uniform {
	options := &uniformOptions{}
	for _, opt := range opts {
		opt(options)
	}
	return &Uniform{
		space:       space,
		axes:        tunableAxes(space),
		rnd:         newRand(options.seed),
		deduplicate: options.deduplicate,
		seen:        signatureSet{},
	}
}

// Name returns the registered model name.
func (g *Uniform) Name() string { return ModelUniform }

// Generate proposes count arms, skipping constraint violations.
func (g *Uniform) Generate(ctx context.Context, count int) ([]*model.Arm, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	ret := make([]*model.Arm, 0, count)
	attempts := 0
	maxAttempts := maxDrawAttempts(count)
	for len(ret) < count && attempts < maxAttempts {
		attempts++
		unit := make([]float64, len(g.axes))
		for i := range unit {
			unit[i] = g.rnd.Float64()
		}
		point := pointFromUnit(g.space, g.axes, unit)
		if !satisfiesConstraints(g.space, point) {
			continue
		}
		arm := model.NewArm(point)
		if g.deduplicate && !g.seen.add(arm) {
			continue
		}
		ret = append(ret, arm)
	}
	if len(ret) < count {
		return ret, fmt.Errorf("uniform produced %d of %d distinct feasible arms after %d draws", len(ret), count, attempts)
	}
	return ret, nil
}

// Update records observed arms so deduplication covers them.
func (g *Uniform) Update(ctx context.Context, observations []*model.Observation) error {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.seen.addObservations(observations)
	return nil
}
