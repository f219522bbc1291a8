package noop

import (
	"context"
	"reflect"

	"github.com/sweepline/sweep/model"
	"github.com/sweepline/sweep/model/types"
)

const name = "noop"

// Service is an evaluation service that measures nothing. It is useful for
// dry runs and for tests that exercise the trial lifecycle without a real
// workload.
type Service struct{}

type Input struct {
	Parameters model.Parameterization `json:"parameters,omitempty"`
}

type Output struct {
	Outcome model.Outcome `json:"outcome,omitempty"`
}

// New creates a new noop evaluation service
func New() *Service {
	return &Service{}
}

// Name returns the service name
func (s *Service) Name() string {
	return name
}

// Methods returns the service methods
func (s *Service) Methods() types.Signatures {
	return []types.Signature{
		{
			Name:        "evaluate",
			Description: "Accepts a parameterization and returns an empty outcome immediately.",
			Internal:    true,
			Input:       reflect.TypeOf(&Input{}),
			Output:      reflect.TypeOf(&Output{}),
		},
	}
}

// Method returns the specified method
func (s *Service) Method(name string) (types.Executable, error) {
	return s.evaluate, nil
}

func (s *Service) evaluate(ctx context.Context, in, out interface{}) error {
	if output, ok := out.(*Output); ok {
		output.Outcome = model.Outcome{}
	}
	return nil
}
