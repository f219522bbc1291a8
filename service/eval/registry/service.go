package registry

import (
	"context"
	"fmt"
	"reflect"
	"sync"

	"github.com/sweepline/sweep/model"
	"github.com/sweepline/sweep/model/types"
)

// Name of the service as referenced by experiment definitions.
const Name = "registry"

// Func evaluates a parameterization in process and returns its raw
// outcome; any value accepted by model.NormalizeOutcome works (a bare
// number, a [mean, sem] pair or a metric map).
type Func func(ctx context.Context, parameters model.Parameterization) (interface{}, error)

// Service exposes Go functions registered under a name as evaluation
// targets, so embedded applications can tune native code without an
// external process.
type Service struct {
	mu            sync.RWMutex
	functions     map[string]Func
	objectiveName string
}

type Input struct {
	// Function selects the registered function; empty works when exactly
	// one function is registered.
	Function   string                 `json:"function,omitempty"`
	Parameters model.Parameterization `json:"parameters,omitempty"`
}

type Output struct {
	Outcome model.Outcome `json:"outcome,omitempty"`
}

// New creates a registry evaluation service. The objective name labels
// bare numeric results.
func New(objectiveName string) *Service {
	if objectiveName == "" {
		objectiveName = model.DefaultObjectiveName
	}
	return &Service{
		functions:     make(map[string]Func),
		objectiveName: objectiveName,
	}
}

// Register adds or replaces a named evaluation function.
func (s *Service) Register(name string, fn Func) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.functions[name] = fn
}

// Name returns the service name
func (s *Service) Name() string {
	return Name
}

// Methods returns the service methods
func (s *Service) Methods() types.Signatures {
	return []types.Signature{
		{
			Name:        "evaluate",
			Description: "Invokes a registered in-process function with the trial parameters and normalizes its result into an outcome.",
			Input:       reflect.TypeOf(&Input{}),
			Output:      reflect.TypeOf(&Output{}),
		},
	}
}

// Method returns the specified method
func (s *Service) Method(name string) (types.Executable, error) {
	switch name {
	case "", "evaluate":
		return s.evaluate, nil
	}
	return nil, types.NewMethodNotFoundError(name)
}

func (s *Service) evaluate(ctx context.Context, in, out interface{}) error {
	input, ok := in.(*Input)
	if !ok {
		return types.NewInvalidInputError(in)
	}
	output, ok := out.(*Output)
	if !ok {
		return types.NewInvalidOutputError(out)
	}
	fn, err := s.lookup(input.Function)
	if err != nil {
		return err
	}
	raw, err := fn(ctx, input.Parameters)
	if err != nil {
		return err
	}
	outcome, err := model.NormalizeOutcome(raw, s.objectiveName)
	if err != nil {
		return err
	}
	output.Outcome = outcome
	return nil
}

func (s *Service) lookup(name string) (Func, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if name != "" {
		fn, ok := s.functions[name]
		if !ok {
			return nil, fmt.Errorf("unknown evaluation function %q", name)
		}
		return fn, nil
	}
	if len(s.functions) == 1 {
		for _, fn := range s.functions {
			return fn, nil
		}
	}
	return nil, fmt.Errorf("evaluation function name is required with %d registered", len(s.functions))
}
