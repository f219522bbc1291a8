package evaluator

// Package evaluator invokes the evaluation service bound to an experiment for
// each trial. The service resolves the registered evaluator, expands and
// converts the declared input, runs the user-supplied method and, once it
// returns, extracts the measured outcome and calls an optional listener that
// can observe the data that flew through the trial.

import (
	"context"
	"encoding/json"
	"fmt"
	"log"

	"github.com/sweepline/sweep/extension"
	"github.com/sweepline/sweep/model"
	"github.com/sweepline/sweep/runtime/trial"
	"github.com/sweepline/sweep/service/event"
	"github.com/viant/structology/conv"
)

// Listener is invoked once a trial evaluation completes (regardless of
// whether it returned an error or not). Implementations can log, collect
// metrics or perform any other side-effects they require.
type Listener func(aTrial *trial.Trial, input, output interface{})

// StdoutListener serialises the trial, its input and output into JSON and
// prints them to standard output. Errors from json.Marshal are ignored on
// purpose; they indicate non-serialisable values.
func StdoutListener(aTrial *trial.Trial, input, output interface{}) {
	if aTrial == nil {
		return
	}
	tt, _ := json.Marshal(aTrial)
	fmt.Println(string(tt))
	if input != nil {
		in, _ := json.Marshal(input)
		fmt.Println(string(in))
	}
	if output != nil {
		out, _ := json.Marshal(output)
		fmt.Println(string(out))
	}
}

// Option is used to customise the evaluator instance.
type Option func(*service)

// WithListener overrides the listener invoked after every evaluation.
// Passing nil disables the callback entirely.
func WithListener(l Listener) Option {
	return func(s *service) {
		s.listener = l
	}
}

// Service evaluates a trial's arm against the experiment's workload.
type Service interface {
	Evaluate(ctx context.Context, aTrial *trial.Trial, run *trial.Run) error
}

// service is the concrete implementation of Service.
type service struct {
	evaluators *extension.Evaluators
	converter  *conv.Converter
	listener   Listener
}

// Evaluate runs the experiment's evaluation for a single trial and stores
// the outcome on the trial.
func (s *service) Evaluate(ctx context.Context, aTrial *trial.Trial, run *trial.Run) error {
	if aTrial.Arm == nil {
		return fmt.Errorf("trial %s has no arm", aTrial.ID)
	}
	evaluation := run.Experiment.Evaluation
	if evaluation == nil {
		return fmt.Errorf("experiment %s declares no evaluation", run.Experiment.Name)
	}

	if err := s.evaluate(ctx, aTrial, run, evaluation); err != nil {
		return err
	}

	// Publish an evaluation event if an event service is attached to the context.
	if value := ctx.Value(trial.EventKey); value != nil {
		service := value.(*event.Service)
		publisher, err := event.PublisherOf[*trial.Trial](service)
		if err == nil {
			eCtx := aTrial.Context("evaluated", evaluation)
			anEvent := event.NewEvent[*trial.Trial](eCtx, aTrial)
			if err = publisher.Publish(ctx, anEvent); err != nil {
				log.Printf("failed to publish trial evaluation event: %v", err)
			}
		}
	}
	return nil
}

func (s *service) evaluate(ctx context.Context, aTrial *trial.Trial, run *trial.Run, evaluation *model.Evaluation) error {
	evalService := s.evaluators.Lookup(evaluation.Service)
	if evalService == nil {
		return fmt.Errorf("evaluation service %v not found", evaluation.Service)
	}
	if evaluation.Method == "" {
		return fmt.Errorf("method not found for evaluation service %v", evaluation.Service)
	}
	method, err := evalService.Method(evaluation.Method)
	if err != nil {
		return fmt.Errorf("failed to find method %v for evaluation service %v: %w", evaluation.Method, evaluation.Service, err)
	}

	// Prepare a trial scoped session exposing the arm to input expansion.
	session := run.Session.TrialSession(trialState(aTrial),
		trial.WithConverter(s.converter),
		trial.WithImports(run.Experiment.Imports...),
		trial.WithTypes(s.evaluators.Types()))

	signature := evalService.Methods().Lookup(evaluation.Method)
	if signature == nil {
		return fmt.Errorf("method %v not declared by evaluation service %v", evaluation.Method, evaluation.Service)
	}

	output, err := session.TypedValue(signature.Output, map[string]interface{}{})
	if err != nil {
		return err
	}

	rawInput, err := session.Expand(evaluation.Input)
	if err != nil {
		return err
	}
	rawInput = injectParameters(rawInput, aTrial.Arm.Parameters)

	input, err := session.TypedValue(signature.Input, rawInput)
	aTrial.Input = input
	if err != nil {
		return err
	}

	// Invoke the user-defined evaluation method.
	if err = method(ctx, input, output); err != nil {
		return err
	}

	// Call the listener (if any).
	if s.listener != nil {
		s.listener(aTrial, input, output)
	}

	outcome, err := ApplyOutcome(output, run.Experiment.ObjectiveName())
	if err != nil {
		return err
	}
	aTrial.Outcome = outcome
	return nil
}

// trialState exposes trial scoped values to expression expansion, so
// evaluation inputs can reference ${params.<name>}, ${arm} or ${trial}.
func trialState(aTrial *trial.Trial) map[string]interface{} {
	return map[string]interface{}{
		"params": map[string]interface{}(aTrial.Arm.Parameters),
		"arm":    aTrial.Arm.Name,
		"trial":  aTrial.Index,
	}
}

// injectParameters sets the parameters entry of a map shaped input unless the
// definition bound it explicitly.
func injectParameters(rawInput interface{}, parameters model.Parameterization) interface{} {
	aMap, ok := rawInput.(map[string]interface{})
	if !ok {
		if rawInput == nil {
			return map[string]interface{}{"parameters": map[string]interface{}(parameters)}
		}
		return rawInput
	}
	if _, ok := aMap["parameters"]; !ok {
		aMap["parameters"] = map[string]interface{}(parameters)
	}
	return aMap
}

// NewService creates a new evaluator service instance.
func NewService(evaluators *extension.Evaluators, opts ...Option) Service {
	options := conv.DefaultOptions()
	options.ClonePointerData = true
	options.IgnoreUnmapped = true
	options.AccessUnexported = true

	s := &service{
		evaluators: evaluators,
		converter:  conv.NewConverter(options),
	}
	for _, o := range opts {
		o(s)
	}
	return s
}
