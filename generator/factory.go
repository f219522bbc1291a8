package generator

import (
	"fmt"
	"sync"

	"github.com/sweepline/sweep/model"
)

// Built-in model names.
const (
	ModelSobol     = "sobol"
	ModelUniform   = "uniform"
	ModelGPEI      = "gpei"
	ModelThompson  = "thompson"
	ModelFactorial = "factorial"
)

// Constructor builds a generator for an experiment. The experiment carries
// the generation settings (seed, candidate pool size, deduplication) and
// the optimization direction.
type Constructor func(space *model.SearchSpace, experiment *model.Experiment) (Generator, error)

// Factory resolves model names to generator constructors. The built-in
// models are registered on creation; custom models can be registered or
// overridden by name.
type Factory struct {
	mu           sync.RWMutex
	constructors map[string]Constructor
}

// NewFactory creates a factory with the built-in models registered.
func NewFactory() *Factory {
	ret := &Factory{constructors: map[string]Constructor{}}
	ret.Register(ModelSobol, newSobolConstructor)
	ret.Register(ModelUniform, newUniformConstructor)
	ret.Register(ModelGPEI, newGPEIConstructor)
	ret.Register(ModelThompson, newThompsonConstructor)
	ret.Register(ModelFactorial, newFactorialConstructor)
	return ret
}

// Register adds or replaces a model constructor.
func (f *Factory) Register(name string, constructor Constructor) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.constructors[name] = constructor
}

// Lookup returns the constructor registered under name.
func (f *Factory) Lookup(name string) (Constructor, bool) {
	f.mu.RLock()
	defer f.mu.RUnlock()
	constructor, ok := f.constructors[name]
	return constructor, ok
}

// New builds a generator for the named model.
func (f *Factory) New(name string, space *model.SearchSpace, experiment *model.Experiment) (Generator, error) {
	constructor, ok := f.Lookup(name)
	if !ok {
		return nil, fmt.Errorf("unknown generation model %q", name)
	}
	return constructor(space, experiment)
}

func generationOf(experiment *model.Experiment) *model.Generation {
	if experiment != nil && experiment.Generation != nil {
		return experiment.Generation
	}
	return &model.Generation{}
}

func newSobolConstructor(space *model.SearchSpace, experiment *model.Experiment) (Generator, error) {
	generation := generationOf(experiment)
	return NewSobol(space,
		WithSobolSeed(generation.Seed),
		WithSobolDeduplicate(generation.Deduplicate)), nil
}

func newUniformConstructor(space *model.SearchSpace, experiment *model.Experiment) (Generator, error) {
	generation := generationOf(experiment)
	return NewUniform(space,
		WithUniformSeed(generation.Seed),
		WithUniformDeduplicate(generation.Deduplicate)), nil
}

func newGPEIConstructor(space *model.SearchSpace, experiment *model.Experiment) (Generator, error) {
	generation := generationOf(experiment)
	opts := []GPEIOption{WithGPEISeed(generation.Seed)}
	if generation.NumCandidates > 0 {
		opts = append(opts, WithNumCandidates(generation.NumCandidates))
	}
	minimize := false
	if experiment.OptimizationConfig != nil {
		minimize = experiment.OptimizationConfig.Objective.Minimize
	}
	return NewGPEI(space, experiment.ObjectiveName(), minimize, opts...), nil
}

func newThompsonConstructor(space *model.SearchSpace, experiment *model.Experiment) (Generator, error) {
	minimize := false
	if experiment.OptimizationConfig != nil {
		minimize = experiment.OptimizationConfig.Objective.Minimize
	}
	return NewThompson(experiment.ObjectiveName(), minimize,
		WithThompsonSeed(generationOf(experiment).Seed)), nil
}

func newFactorialConstructor(space *model.SearchSpace, experiment *model.Experiment) (Generator, error) {
	return NewFactorial(space)
}
