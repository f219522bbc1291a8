package generator

import (
	"context"
	"fmt"
	"math"
	"math/rand"
	"sort"
	"sync"

	"github.com/sweepline/sweep/model"
)

const defaultNumSamples = 1000

// Thompson is a discrete empirical sampler over observed arms. Each of
// NumSamples posterior draws samples a value per arm from
// normal(mean, sem) and credits the winner; arms are then returned by win
// frequency. It proposes only arms that were already observed.
type Thompson struct {
	objectiveName  string
	minimize       bool
	numSamples     int
	minWeight      float64
	uniformWeights bool
	rnd            *rand.Rand

	mu   sync.Mutex
	arms []*thompsonArm
}

type thompsonArm struct {
	arm  *model.Arm
	mean float64
	sem  float64
}

// ThompsonOption customizes a Thompson generator.
type ThompsonOption func(*Thompson)

// WithThompsonSeed seeds the posterior draws.
func WithThompsonSeed(seed int64) ThompsonOption {
	return func(g *Thompson) { g.rnd = newRand(seed) }
}

// WithNumSamples sets how many posterior draws decide the win frequencies.
func WithNumSamples(n int) ThompsonOption {
	return func(g *Thompson) {
		if n > 0 {
			g.numSamples = n
		}
	}
}

// WithMinWeight drops arms whose win frequency falls below the threshold.
func WithMinWeight(w float64) ThompsonOption {
	return func(g *Thompson) { g.minWeight = w }
}

// WithUniformWeights levels the weights of all winning arms.
func WithUniformWeights(uniform bool) ThompsonOption {
	return func(g *Thompson) { g.uniformWeights = uniform }
}

// NewThompson creates an empirical Thompson sampler for the objective.
func NewThompson(objectiveName string, minimize bool, opts ...ThompsonOption) *Thompson {
	ret := &Thompson{
		objectiveName: objectiveName,
		minimize:      minimize,
		numSamples:    defaultNumSamples,
		rnd:           newRand(0),
	}
	for _, opt := range opts {
		opt(ret)
	}
	return ret
}

// Name returns the registered model name.
func (g *Thompson) Name() string { return ModelThompson }

// Generate returns up to count observed arms ordered by win frequency. It
// fails with ErrNoObservations until data has been attached.
func (g *Thompson) Generate(ctx context.Context, count int) ([]*model.Arm, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	if len(g.arms) == 0 {
		return nil, fmt.Errorf("%s model: %w", ModelThompson, ErrNoObservations)
	}
	weights := g.winFrequencies()
	type weighted struct {
		arm    *model.Arm
		weight float64
	}
	var candidates []weighted
	for i, w := range weights {
		if w <= 0 || w < g.minWeight {
			continue
		}
		if g.uniformWeights {
			w = 1
		}
		candidates = append(candidates, weighted{arm: g.arms[i].arm, weight: w})
	}
	if len(candidates) == 0 {
		return nil, fmt.Errorf("%s model: no arm reached the minimum weight %v", ModelThompson, g.minWeight)
	}
	sort.SliceStable(candidates, func(i, j int) bool {
		return candidates[i].weight > candidates[j].weight
	})
	if count > len(candidates) {
		count = len(candidates)
	}
	ret := make([]*model.Arm, 0, count)
	for _, candidate := range candidates[:count] {
		ret = append(ret, candidate.arm.Clone())
	}
	return ret, nil
}

// winFrequencies runs the posterior draws and returns per-arm win rates.
func (g *Thompson) winFrequencies() []float64 {
	wins := make([]int, len(g.arms))
	for s := 0; s < g.numSamples; s++ {
		best := -1
		bestValue := 0.0
		for i, arm := range g.arms {
			value := arm.mean
			if arm.sem > 0 && !math.IsNaN(arm.sem) {
				value += arm.sem * g.rnd.NormFloat64()
			}
			if g.minimize {
				value = -value
			}
			if best == -1 || value > bestValue {
				best = i
				bestValue = value
			}
		}
		if best >= 0 {
			wins[best]++
		}
	}
	ret := make([]float64, len(g.arms))
	for i, w := range wins {
		ret[i] = float64(w) / float64(g.numSamples)
	}
	return ret
}

// Update merges observed objective values; repeated observations of an arm
// overwrite its mean and sem with the latest reading.
func (g *Thompson) Update(ctx context.Context, observations []*model.Observation) error {
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
		sem := 0.0
		if variance, ok := observation.Data.Variance(g.objectiveName); ok && variance > 0 {
			sem = math.Sqrt(variance)
		}
		arm := model.NewArm(observation.Features.Parameters)
		if observation.ArmName != "" {
			arm.Name = observation.ArmName
		}
		signature := arm.Signature()
		updated := false
		for _, existing := range g.arms {
			if existing.arm.Signature() == signature {
				existing.mean, existing.sem = mean, sem
				updated = true
				break
			}
		}
		if !updated {
			g.arms = append(g.arms, &thompsonArm{arm: arm, mean: mean, sem: sem})
		}
	}
	return nil
}
