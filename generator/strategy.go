package generator

import (
	"context"
	"fmt"
	"sync"

	"github.com/sweepline/sweep/model"
)

// DefaultInitTrials is the Sobol warm-up length of the default strategy.
const DefaultInitTrials = 5

// Strategy steps through an ordered list of generation models, switching
// model once a step's trial allotment is used up. A step with -1 trials is
// unbounded and must be last. Generators are built lazily and updated with
// every observation batch so a later model starts warm.
type Strategy struct {
	factory    *Factory
	experiment *model.Experiment
	steps      []*model.GenerationStep

	mu         sync.Mutex
	generators map[string]Generator
}

// NewStrategy builds a strategy from the experiment's generation settings,
// falling back to DefaultSteps when none are declared.
func NewStrategy(factory *Factory, experiment *model.Experiment) (*Strategy, error) {
	if experiment == nil {
		return nil, fmt.Errorf("experiment was nil")
	}
	if experiment.SearchSpace == nil {
		return nil, fmt.Errorf("experiment %q has no search space", experiment.Name)
	}
	steps := generationOf(experiment).Steps
	if len(steps) == 0 {
		steps = DefaultSteps(DefaultInitTrials)
	}
	for i, step := range steps {
		if step.Trials == -1 && i != len(steps)-1 {
			return nil, fmt.Errorf("generation step %d (%s): unbounded step must be last", i, step.Model)
		}
	}
	if factory == nil {
		factory = NewFactory()
	}
	return &Strategy{
		factory:    factory,
		experiment: experiment,
		steps:      steps,
		generators: map[string]Generator{},
	}, nil
}

// DefaultSteps is a Sobol warm-up of init trials followed by unbounded GPEI.
func DefaultSteps(init int) []*model.GenerationStep {
	return []*model.GenerationStep{
		{Model: ModelSobol, Trials: init},
		{Model: ModelGPEI, Trials: -1},
	}
}

// StepFor returns the step covering the next trial given how many trials
// were generated so far, or an error when every bounded step is spent.
func (s *Strategy) StepFor(generated int) (*model.GenerationStep, error) {
	remaining := generated
	for _, step := range s.steps {
		if step.Trials == -1 || remaining < step.Trials {
			return step, nil
		}
		remaining -= step.Trials
	}
	return nil, fmt.Errorf("generation strategy spent after %d trials: %w", generated, ErrExhausted)
}

// Budget returns the total trial budget of the strategy; ok is false when
// an unbounded step makes the budget infinite.
func (s *Strategy) Budget() (int, bool) {
	total := 0
	for _, step := range s.steps {
		if step.Trials == -1 {
			return 0, false
		}
		total += step.Trials
	}
	return total, true
}

// Generate proposes count arms from the step owning the next trial. The
// count is capped at the step boundary so one batch never spans models.
func (s *Strategy) Generate(ctx context.Context, generated, count int) ([]*model.Arm, error) {
	step, err := s.StepFor(generated)
	if err != nil {
		return nil, err
	}
	if step.Trials != -1 {
		if left := s.stepRemaining(step, generated); count > left {
			count = left
		}
	}
	if count < 1 {
		return nil, nil
	}
	gen, err := s.generator(step.Model)
	if err != nil {
		return nil, err
	}
	return gen.Generate(ctx, count)
}

// stepRemaining returns how many trials of the step are left at the given
// generated count.
func (s *Strategy) stepRemaining(target *model.GenerationStep, generated int) int {
	remaining := generated
	for _, step := range s.steps {
		if step == target {
			return step.Trials - remaining
		}
		if step.Trials != -1 {
			remaining -= step.Trials
		}
	}
	return 0
}

// Update forwards observations to every instantiated generator and warms
// up the models of later steps so they can take over with data in hand.
func (s *Strategy) Update(ctx context.Context, observations []*model.Observation) error {
	if len(observations) == 0 {
		return nil
	}
	for _, step := range s.steps {
		gen, err := s.generator(step.Model)
		if err != nil {
			return err
		}
		if err := gen.Update(ctx, observations); err != nil {
			return err
		}
	}
	return nil
}

// generator lazily builds and caches the named model.
func (s *Strategy) generator(name string) (Generator, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if gen, ok := s.generators[name]; ok {
		return gen, nil
	}
	gen, err := s.factory.New(name, s.experiment.SearchSpace, s.experiment)
	if err != nil {
		return nil, err
	}
	s.generators[name] = gen
	return gen, nil
}
