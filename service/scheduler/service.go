package scheduler

import (
	"context"
	"errors"
	"fmt"
	"log"
	"sync"
	"time"

	"github.com/sweepline/sweep/generator"
	"github.com/sweepline/sweep/model"
	"github.com/sweepline/sweep/policy"
	"github.com/sweepline/sweep/progress"
	"github.com/sweepline/sweep/runtime/trial"
	"github.com/sweepline/sweep/service/approval"
	"github.com/sweepline/sweep/service/dao"
	"github.com/sweepline/sweep/service/event"
	"github.com/sweepline/sweep/service/messaging"
	"github.com/sweepline/sweep/tracing"
)

// Config represents scheduler service configuration
type Config struct {
	// PollingInterval is how often the scheduler checks for runs that need trials
	PollingInterval time.Duration

	// MaxParallelTrials caps how many trials of one run may be pending or
	// running at the same time
	MaxParallelTrials int

	// MaxTrialFailures aborts the run once this many trials failed; 0 keeps
	// the run going regardless of failures
	MaxTrialFailures int

	// DefaultTotalTrials is the run budget used when neither the experiment
	// nor its generation strategy bound the number of trials
	DefaultTotalTrials int
}

// DefaultConfig returns the default scheduler configuration
func DefaultConfig() Config {
	return Config{
		PollingInterval:    20 * time.Millisecond,
		MaxParallelTrials:  3,
		MaxTrialFailures:   3,
		DefaultTotalTrials: 20,
	}
}

// runState carries the per-run generation strategy together with the set of
// observations already fed to it.
type runState struct {
	strategy *generator.Strategy
	fed      map[string]bool
}

// Service tops up runs with candidate trials
type Service struct {
	config   Config
	runDAO   dao.Service[string, trial.Run]
	trialDAO dao.Service[string, trial.Trial]
	queue    messaging.Queue[trial.Trial]
	factory  *generator.Factory
	approval approval.Service

	mu         sync.Mutex
	states     map[string]*runState
	shutdownCh chan struct{}
}

// New creates a new scheduler service
func New(runDAO dao.Service[string, trial.Run], trialDAO dao.Service[string, trial.Trial], queue messaging.Queue[trial.Trial], config Config, options ...Option) *Service {
	ret := &Service{
		config:     config,
		runDAO:     runDAO,
		trialDAO:   trialDAO,
		queue:      queue,
		states:     make(map[string]*runState),
		shutdownCh: make(chan struct{}),
	}
	for _, option := range options {
		option(ret)
	}
	if ret.factory == nil {
		ret.factory = generator.NewFactory()
	}
	return ret
}

// Start begins the trial allocation loop
func (s *Service) Start(ctx context.Context) error {
	ticker := time.NewTicker(s.config.PollingInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-s.shutdownCh:
			return nil
		case <-ticker.C:
			if err := s.allocateTrials(ctx); err != nil {
				// Log error but continue
				fmt.Printf("Error allocating trials: %v\n", err)
			}
		}
	}
}

// allocateTrials finds runs that need trials and allocates them
func (s *Service) allocateTrials(ctx context.Context) error {
	runs, err := s.runDAO.List(ctx, dao.NewParameter("State", trial.RunStatePending, trial.RunStateRunning))
	if err != nil {
		return fmt.Errorf("failed to list runs: %w", err)
	}

	for _, aRun := range runs {
		// Skip runs that aren't running
		if aRun.GetState() != trial.RunStateRunning {
			continue
		}

		if err := s.ScheduleNextTrials(ctx, aRun); err != nil {
			// Log but continue with other runs
			fmt.Printf("Error scheduling trials for run %s: %v\n", aRun.ID, err)
			continue
		}
	}

	return nil
}

// ScheduleNextTrials reconciles trial states, feeds fresh observations to the
// generation strategy and tops the run up with new candidate trials.
func (s *Service) ScheduleNextTrials(ctx context.Context, aRun *trial.Run) error {
	state, err := s.runState(aRun)
	if err != nil {
		return s.failRun(ctx, aRun, err)
	}

	if err := s.reconcileTrials(ctx, aRun); err != nil {
		return err
	}

	if err := s.feedObservations(ctx, aRun, state); err != nil {
		return s.failRun(ctx, aRun, err)
	}

	failed, generated, active := s.countTrials(aRun)

	if s.config.MaxTrialFailures > 0 && failed >= s.config.MaxTrialFailures {
		return s.failRun(ctx, aRun, fmt.Errorf("%d trials failed", failed))
	}

	budget := s.runBudget(aRun, state)

	if generated >= budget {
		if active == 0 {
			return s.completeRun(ctx, aRun)
		}
		// Budget spent - wait for in-flight trials to finish
		return nil
	}

	if err := s.resumeDecidedTrials(ctx, aRun); err != nil {
		return err
	}
	if err := s.requeueRetryTrials(ctx, aRun); err != nil {
		return err
	}

	capacity := s.config.MaxParallelTrials - active
	remaining := budget - generated
	if capacity > remaining {
		capacity = remaining
	}
	if capacity < 1 {
		return nil
	}
	return s.topUp(ctx, aRun, state, generated, capacity)
}

// runState returns the cached generation strategy for the run, building it on
// first use.
func (s *Service) runState(aRun *trial.Run) (*runState, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if state, ok := s.states[aRun.ID]; ok {
		return state, nil
	}
	strategy, err := generator.NewStrategy(s.factory, aRun.Experiment)
	if err != nil {
		return nil, fmt.Errorf("failed to build generation strategy: %w", err)
	}
	state := &runState{strategy: strategy, fed: make(map[string]bool)}
	s.states[aRun.ID] = state
	return state, nil
}

// reconcileTrials folds the authoritative trial store copies back into the
// run for trials that may still change state.
func (s *Service) reconcileTrials(ctx context.Context, aRun *trial.Run) error {
	changed := false
	for _, inRun := range aRun.Trials {
		if !inRun.State.Expecting() {
			continue
		}
		stored, err := s.trialDAO.Load(ctx, inRun.ID)
		if err != nil || stored == nil {
			continue
		}
		if stored.State == inRun.State && equalApproval(stored.Approved, inRun.Approved) {
			continue
		}
		inRun.Merge(stored)
		changed = true
	}
	if !changed {
		return nil
	}
	return s.runDAO.Save(ctx, aRun)
}

func equalApproval(a, b *bool) bool {
	if a == nil || b == nil {
		return a == b
	}
	return *a == *b
}

// feedObservations pushes observations the strategy has not seen yet.
func (s *Service) feedObservations(ctx context.Context, aRun *trial.Run, state *runState) error {
	observations, err := aRun.Observations()
	if err != nil {
		return fmt.Errorf("failed to build observations: %w", err)
	}
	var fresh []*model.Observation
	for _, observation := range observations {
		key := observationKey(observation)
		if state.fed[key] {
			continue
		}
		fresh = append(fresh, observation)
	}
	if len(fresh) == 0 {
		return nil
	}
	if err := state.strategy.Update(ctx, fresh); err != nil {
		return fmt.Errorf("failed to update generation strategy: %w", err)
	}
	for _, observation := range fresh {
		state.fed[observationKey(observation)] = true
	}
	return nil
}

func observationKey(observation *model.Observation) string {
	index := -1
	if observation.Features != nil && observation.Features.TrialIndex != nil {
		index = *observation.Features.TrialIndex
	}
	return fmt.Sprintf("%s/%d", observation.ArmName, index)
}

// countTrials tallies failed, generated (all but abandoned) and still active
// trials of the run.
func (s *Service) countTrials(aRun *trial.Run) (failed, generated, active int) {
	for _, t := range aRun.Trials {
		switch {
		case t.State == trial.StateFailed:
			failed++
		case t.State.Expecting() || t.State == trial.StatePending:
			active++
		}
		if t.State != trial.StateAbandoned {
			generated++
		}
	}
	return failed, generated, active
}

// runBudget resolves the total trial budget of the run.
func (s *Service) runBudget(aRun *trial.Run, state *runState) int {
	if generation := aRun.Experiment.Generation; generation != nil && generation.TotalTrials > 0 {
		return generation.TotalTrials
	}
	if budget, ok := state.strategy.Budget(); ok {
		return budget
	}
	return s.config.DefaultTotalTrials
}

// resumeDecidedTrials re-schedules approved trials and abandons rejected ones.
func (s *Service) resumeDecidedTrials(ctx context.Context, aRun *trial.Run) error {
	for _, inRun := range aRun.Trials {
		if inRun.State != trial.StatePending || inRun.Approved == nil {
			continue
		}
		if !*inRun.Approved {
			inRun.Abandon(inRun.ApprovalReason)
			if err := s.trialDAO.Save(ctx, inRun); err != nil {
				return err
			}
			progress.UpdateCtx(ctx, progress.Delta{Pending: -1, Skipped: 1})
			if err := s.runDAO.Save(ctx, aRun); err != nil {
				return err
			}
			continue
		}
		if err := s.publishTrial(ctx, aRun, inRun); err != nil {
			return err
		}
		if err := s.runDAO.Save(ctx, aRun); err != nil {
			return err
		}
	}
	return nil
}

// requeueRetryTrials republishes scheduled trials whose retry delay elapsed.
func (s *Service) requeueRetryTrials(ctx context.Context, aRun *trial.Run) error {
	now := time.Now()
	for _, inRun := range aRun.Trials {
		if inRun.State != trial.StateScheduled || inRun.RunAfter == nil {
			continue
		}
		if inRun.RunAfter.After(now) {
			continue
		}
		// Clear the marker so the trial isn't published twice.
		inRun.RunAfter = nil
		if err := s.publishTrial(ctx, aRun, inRun); err != nil {
			return err
		}
		if err := s.runDAO.Save(ctx, aRun); err != nil {
			return err
		}
	}
	return nil
}

// topUp asks the strategy for up to count new arms and turns them into trials.
func (s *Service) topUp(ctx context.Context, aRun *trial.Run, state *runState, generated, count int) error {
	step, err := state.strategy.StepFor(generated)
	if err != nil {
		if errors.Is(err, generator.ErrExhausted) {
			return nil
		}
		return s.failRun(ctx, aRun, err)
	}

	arms, err := state.strategy.Generate(ctx, generated, count)
	if err != nil {
		if errors.Is(err, generator.ErrNoObservations) {
			// The next model needs data - wait for in-flight trials
			return nil
		}
		if errors.Is(err, generator.ErrExhausted) {
			return nil
		}
		return s.failRun(ctx, aRun, fmt.Errorf("model %s failed to generate: %w", step.Model, err))
	}
	if len(arms) == 0 {
		return nil
	}

	pol := policyOf(ctx, aRun)
	action := evaluationAction(aRun.Experiment)
	if pol != nil && (pol.Mode == policy.ModeDeny || !pol.IsAllowed(action)) {
		return s.failRun(ctx, aRun, fmt.Errorf("action %s blocked by policy", action))
	}
	ask := pol != nil && pol.Mode == policy.ModeAsk

	var trials []*trial.Trial
	for _, arm := range arms {
		index := aRun.NextTrialIndex()
		if arm.Name == "" {
			arm.Name = fmt.Sprintf("%d_0", index)
		}
		aTrial := trial.New(aRun.ID, index, arm, step.Model)
		aRun.Push(aTrial)
		trials = append(trials, aTrial)
		progress.UpdateCtx(ctx, progress.Delta{Total: 1, Pending: 1})

		if ask {
			if err := s.requestApproval(ctx, aRun, aTrial, action, pol); err != nil {
				return err
			}
			continue
		}
		if err := s.publishTrial(ctx, aRun, aTrial); err != nil {
			return err
		}
	}
	aRun.CountGenerated(len(trials))
	return s.runDAO.Save(ctx, aRun)
}

// requestApproval parks the trial until an explicit decision arrives.  When
// the policy carries an AskFunc the decision is taken inline instead.
func (s *Service) requestApproval(ctx context.Context, aRun *trial.Run, aTrial *trial.Trial, action string, pol *policy.Policy) error {
	args := map[string]interface{}{}
	if aTrial.Arm != nil {
		for name, value := range aTrial.Arm.Parameters {
			args[name] = value
		}
	}

	if pol.Ask != nil {
		if pol.Ask(ctx, action, args, pol) {
			return s.publishTrial(ctx, aRun, aTrial)
		}
		aTrial.Abandon("rejected by policy")
		return s.trialDAO.Save(ctx, aTrial)
	}

	if s.approval == nil {
		return fmt.Errorf("policy mode %q requires an approval service", policy.ModeAsk)
	}

	aTrial.State = trial.StateWaitForApproval
	if err := s.trialDAO.Save(ctx, aTrial); err != nil {
		return err
	}
	return s.approval.RequestApproval(ctx, &approval.Request{
		ID:        aTrial.ID,
		RunID:     aRun.ID,
		TrialID:   aTrial.ID,
		Action:    action,
		Args:      args,
		CreatedAt: time.Now(),
	})
}

// publishTrial schedules the trial, persists it and hands it to the runner
// queue, surfacing a "scheduled" event for observers.
func (s *Service) publishTrial(ctx context.Context, aRun *trial.Run, aTrial *trial.Trial) error {
	aTrial.Schedule()
	if err := s.trialDAO.Save(ctx, aTrial); err != nil {
		return fmt.Errorf("failed to save trial: %w", err)
	}
	if value := ctx.Value(trial.EventKey); value != nil {
		service := value.(*event.Service)
		publisher, err := event.PublisherOf[*trial.Trial](service)
		if err == nil {
			eCtx := aTrial.Context("scheduled", aRun.Experiment.Evaluation)
			anEvent := event.NewEvent[*trial.Trial](eCtx, aTrial)
			if err = publisher.Publish(ctx, anEvent); err != nil {
				log.Printf("failed to publish trial event: %v", err)
			}
		}
	}
	return s.queue.Publish(ctx, aTrial)
}

// completeRun finishes the run, failing it when trial errors were recorded.
func (s *Service) completeRun(ctx context.Context, aRun *trial.Run) error {
	if len(aRun.Errors) > 0 {
		aRun.SetState(trial.RunStateFailed)
	} else {
		aRun.SetState(trial.RunStateCompleted)
	}
	if aRun.Span != nil {
		var endErr error
		if aRun.GetState() == trial.RunStateFailed {
			endErr = fmt.Errorf("run failed with %d errors", len(aRun.Errors))
		}
		tracing.EndSpan(aRun.Span, endErr)
		aRun.Span = nil
	}
	s.forgetRun(aRun.ID)
	return s.runDAO.Save(ctx, aRun)
}

// failRun aborts the run with the supplied error.
func (s *Service) failRun(ctx context.Context, aRun *trial.Run, cause error) error {
	aRun.RecordError("run", cause.Error())
	aRun.SetState(trial.RunStateFailed)
	if aRun.Span != nil {
		tracing.EndSpan(aRun.Span, cause)
		aRun.Span = nil
	}
	s.forgetRun(aRun.ID)
	return s.runDAO.Save(ctx, aRun)
}

func (s *Service) forgetRun(runID string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.states, runID)
}

func policyOf(ctx context.Context, aRun *trial.Run) *policy.Policy {
	if p := policy.FromContext(ctx); p != nil {
		return p
	}
	return policy.FromConfig(aRun.Policy)
}

// evaluationAction returns the fully-qualified "service.method" of the
// experiment evaluation.
func evaluationAction(experiment *model.Experiment) string {
	if experiment == nil || experiment.Evaluation == nil {
		return ""
	}
	return experiment.Evaluation.Service + "." + experiment.Evaluation.Method
}

// Shutdown stops the scheduler service
func (s *Service) Shutdown() {
	close(s.shutdownCh)
}
