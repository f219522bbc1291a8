package sweep

import (
	"context"
	"fmt"
	"math"
	"time"

	"github.com/google/uuid"

	"github.com/sweepline/sweep/extension"
	"github.com/sweepline/sweep/model"
	"github.com/sweepline/sweep/progress"
	"github.com/sweepline/sweep/runtime/trial"
	"github.com/sweepline/sweep/service/dao"
	"github.com/sweepline/sweep/service/dao/experiment"
	"github.com/sweepline/sweep/service/evaluator"
	"github.com/sweepline/sweep/service/event"
	"github.com/sweepline/sweep/service/messaging"
	"github.com/sweepline/sweep/service/runner"
	"github.com/sweepline/sweep/service/scheduler"
)

// ---------------------------------------------------------------------------
// Experiment hot-swap helpers
// ---------------------------------------------------------------------------

// RefreshExperiment discards any cached copy of the experiment definition
// located at the given URL/location. The next LoadExperiment call will reload
// the file via the configured meta-service (i.e. one extra disk/cloud
// round-trip).
func (r *Runtime) RefreshExperiment(location string) error {
	if r == nil || r.experimentDAO == nil {
		return fmt.Errorf("runtime not fully initialised, experimentDAO missing")
	}
	r.experimentDAO.Refresh(location)
	return nil
}

// UpsertDefinition parses the supplied YAML bytes and stores the resulting
// experiment definition in the in-memory cache under the specified location.
// When data is nil the call falls back to RefreshExperiment, causing a lazy
// reload on next use.
func (r *Runtime) UpsertDefinition(location string, data []byte) error {
	if r == nil || r.experimentDAO == nil {
		return fmt.Errorf("runtime not fully initialised, experimentDAO missing")
	}

	// If no data provided, fall back to lazy refresh.
	if data == nil {
		return r.RefreshExperiment(location)
	}

	// Parse the YAML using the DAO's decoding logic.
	anExperiment, err := r.experimentDAO.DecodeYAML(data)
	if err != nil {
		return fmt.Errorf("failed to decode experiment YAML: %w", err)
	}

	// Ensure the Source URL mirrors the provided location so that any
	// downstream code relying on it sees the expected value.
	if anExperiment.Source == nil {
		anExperiment.Source = &model.Source{URL: location}
	} else {
		anExperiment.Source.URL = location
	}

	// Store in cache for immediate availability.
	r.experimentDAO.Upsert(location, anExperiment)
	return nil
}

// ---------------------------------------------------------------------------
// Convenience helpers
// ---------------------------------------------------------------------------

// EvaluateOnce is a convenience helper that evaluates a *single* arm of the
// supplied experiment and waits for its outcome.  It is intended for quick
// ad-hoc measurements, debugging and unit tests where launching the entire
// optimization loop would be unnecessary overhead.
//
// The evaluation goes through the shared evaluator service, therefore
// semantics (input expansion, outcome normalization, events etc.) are
// identical to scheduled trials.
func (r *Runtime) EvaluateOnce(ctx context.Context, anExperiment *model.Experiment, parameters model.Parameterization) (model.Outcome, error) {
	if anExperiment == nil {
		return nil, fmt.Errorf("experiment is nil")
	}
	if anExperiment.SearchSpace != nil {
		cast, err := anExperiment.SearchSpace.Cast(parameters)
		if err != nil {
			return nil, err
		}
		if err := anExperiment.SearchSpace.Validate(cast); err != nil {
			return nil, err
		}
		parameters = cast
	}
	arm := &model.Arm{Name: "manual_0", Parameters: parameters}
	aRun := trial.NewRun(anExperiment.Name+"/adhoc-"+uuid.New().String(), anExperiment.Name, anExperiment, nil)
	aTrial := trial.New(aRun.ID, 0, arm, "manual")
	aRun.Push(aTrial)

	evalCtx := trial.NewContext(ctx, r.evaluators, r.eventService)
	if err := r.evaluator.Evaluate(evalCtx, aTrial, aRun); err != nil {
		return nil, err
	}
	return aTrial.Outcome, nil
}

// Runtime represents an optimization engine runtime
type Runtime struct {
	experimentDAO *experiment.Service
	runDAO        dao.Service[string, trial.Run]
	trialDAO      dao.Service[string, trial.Trial]
	runner        *runner.Service
	scheduler     *scheduler.Service
	evaluator     evaluator.Service
	evaluators    *extension.Evaluators
	eventService  *event.Service
	// queue is the shared trial queue (runner inbound)
	queue messaging.Queue[trial.Trial]

	progressListener func(progress.Progress)
}

// LoadExperiment loads an experiment definition
func (r *Runtime) LoadExperiment(ctx context.Context, location string) (*model.Experiment, error) {
	return r.experimentDAO.Load(ctx, location)
}

// DecodeYAMLExperiment decodes an experiment definition
func (r *Runtime) DecodeYAMLExperiment(data []byte) (*model.Experiment, error) {
	return r.experimentDAO.DecodeYAML(data)
}

// RunFromContext returns the run from context
func (r *Runtime) RunFromContext(ctx context.Context) *trial.Run {
	if parentRun := trial.ContextValue[*trial.Run](ctx); parentRun != nil {
		return parentRun
	}
	return nil
}

// StartRun starts a new optimization run over the experiment
func (r *Runtime) StartRun(ctx context.Context, anExperiment *model.Experiment, initialState map[string]interface{}) (*trial.Run, trial.Wait, error) {
	aRun, err := r.runner.StartRun(ctx, anExperiment, initialState)
	if err != nil {
		return nil, nil, err
	}
	wait := func(ctx context.Context, timeout time.Duration) (*trial.RunOutput, error) {
		return r.waitForRun(ctx, aRun.ID, timeout)
	}
	return aRun, wait, nil
}

// Start starts runtime
func (r *Runtime) Start(ctx context.Context) error {
	ctx = trial.NewContext(ctx, r.evaluators, r.eventService)
	if r.progressListener != nil {
		ctx, _ = progress.WithNewTracker(ctx, "", "", r.progressListener)
	}
	go r.runner.Start(ctx)
	go r.scheduler.Start(ctx)
	return nil
}

// Shutdown shutdowns runtime
func (r *Runtime) Shutdown(ctx context.Context) error {
	r.runner.Shutdown()
	r.scheduler.Shutdown()
	return nil
}

// Run returns a run
func (r *Runtime) Run(ctx context.Context, id string) (*trial.Run, error) {
	return r.runDAO.Load(ctx, id)
}

// PauseRun pauses a running run
func (r *Runtime) PauseRun(ctx context.Context, id string) error {
	return r.runner.PauseRun(ctx, id)
}

// ResumeRun resumes a paused run
func (r *Runtime) ResumeRun(ctx context.Context, id string) error {
	return r.runner.ResumeRun(ctx, id)
}

// Trial returns a trial
func (r *Runtime) Trial(ctx context.Context, id string) (*trial.Trial, error) {
	return r.trialDAO.Load(ctx, id)
}

// Runs returns a list of runs
func (r *Runtime) Runs(ctx context.Context, parameter ...*dao.Parameter) ([]*trial.Run, error) {
	return r.runDAO.List(ctx, parameter...)
}

// AttachTrialData appends externally observed rows to the run data set, e.g.
// measurements produced outside the engine for a manually evaluated arm.
func (r *Runtime) AttachTrialData(ctx context.Context, runID string, armName string, trialIndex int, outcome model.Outcome) error {
	aRun, err := r.runDAO.Load(ctx, runID)
	if err != nil {
		return fmt.Errorf("failed to load run %s: %w", runID, err)
	}
	aRun.AttachData(outcome.Rows(armName, trialIndex)...)
	return r.runDAO.Save(ctx, aRun)
}

func (r *Runtime) waitForRun(ctx context.Context, runID string, timeout time.Duration) (*trial.RunOutput, error) {
	started := time.Now()
	deadline := started.Add(timeout)
	for {
		aRun, err := r.runDAO.Load(ctx, runID)
		if err != nil {
			return nil, err
		}
		state := aRun.GetState()
		switch state {
		case trial.RunStateCompleted, trial.RunStateFailed:
			return runOutput(aRun, started, false), nil
		}
		if time.Now().After(deadline) {
			return runOutput(aRun, started, true), fmt.Errorf("timeout waiting for run %q", runID)
		}
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(100 * time.Millisecond):
		}
	}
}

// runOutput summarises a finished run, resolving the best arm seen so far.
func runOutput(aRun *trial.Run, started time.Time, timedOut bool) *trial.RunOutput {
	ret := &trial.RunOutput{
		RunID:     aRun.ID,
		State:     aRun.GetState(),
		Trials:    len(aRun.Trials),
		Errors:    aRun.Errors,
		TimeTaken: time.Since(started),
		Timeout:   timedOut,
	}
	ret.BestArm, ret.BestValue = bestArm(aRun)
	return ret
}

// bestArm walks the run observations and returns the arm with the best
// objective mean together with that value.
func bestArm(aRun *trial.Run) (*model.Arm, *float64) {
	if aRun.Experiment == nil {
		return nil, nil
	}
	objectiveName := aRun.Experiment.ObjectiveName()
	minimize := false
	if cfg := aRun.Experiment.OptimizationConfig; cfg != nil {
		minimize = cfg.Objective.Minimize
	}
	observations, err := aRun.Observations()
	if err != nil {
		return nil, nil
	}
	arms := aRun.Arms()
	var best *model.Arm
	var bestValue float64
	for _, observation := range observations {
		mean, ok := observation.Data.Mean(objectiveName)
		if !ok || math.IsNaN(mean) {
			continue
		}
		arm, ok := arms[observation.ArmName]
		if !ok {
			continue
		}
		if best == nil || (minimize && mean < bestValue) || (!minimize && mean > bestValue) {
			best = arm
			bestValue = mean
		}
	}
	if best == nil {
		return nil, nil
	}
	value := bestValue
	return best, &value
}
