package exec

import (
	"context"
	"reflect"

	"github.com/sweepline/sweep/model/types"
)

const Name = "system/exec"

func (s *Service) Name() string {
	return Name
}

func (s *Service) Methods() types.Signatures {
	return []types.Signature{
		{
			Name: "evaluate",
			Description: `Executes one or more shell commands as a trial evaluation.
Each entry in the commands array is started as an independent shell invocation;
trial parameters are exported as PARAM_<NAME> environment variables. The last
non-empty stdout line carries the measurement: a JSON object mapping metric
names to numbers or [mean, sem] pairs, or a bare number for the objective.
Example
  "commands": ["./run_benchmark.sh --lr $PARAM_LEARNING_RATE"]`,
			Input:  reflect.TypeOf(&Input{}),
			Output: reflect.TypeOf(&Output{}),
		}}
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
	return s.Execute(ctx, input, output)
}

// Method returns the specified method
func (s *Service) Method(name string) (types.Executable, error) {
	switch name {
	case "", "evaluate", "execute":
		return s.evaluate, nil
	}
	return nil, types.NewMethodNotFoundError(name)
}
