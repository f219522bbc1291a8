package runner

import (
	"context"
	"errors"
	"fmt"
	"log"
	"math"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/sweepline/sweep/model"
	"github.com/sweepline/sweep/policy"
	"github.com/sweepline/sweep/progress"
	"github.com/sweepline/sweep/runtime/trial"
	"github.com/sweepline/sweep/service/dao"
	"github.com/sweepline/sweep/service/evaluator"
	"github.com/sweepline/sweep/service/messaging"
	"github.com/sweepline/sweep/tracing"
)

// Config represents runner service configuration
type Config struct {
	// WorkerCount is the number of workers evaluating trials
	WorkerCount int

	// MaxTrialRetries is the maximum number of retries for a trial
	MaxTrialRetries int

	// RetryDelay is the delay between trial retry attempts
	RetryDelay time.Duration
}

// DefaultConfig returns the default runner configuration
func DefaultConfig() Config {
	return Config{
		WorkerCount:     5,
		MaxTrialRetries: 1,
		RetryDelay:      3 * time.Second,
	}
}

// Service hosts the workers that evaluate individual trials
type Service struct {
	config    Config
	runDAO    dao.Service[string, trial.Run]
	trialDAO  dao.Service[string, trial.Trial]
	queue     messaging.Queue[trial.Trial]
	evaluator evaluator.Service

	workers    []*worker
	workerWg   sync.WaitGroup
	shutdownCh chan struct{}
}

type worker struct {
	id       int
	service  *Service
	ctx      context.Context
	cancelFn context.CancelFunc
}

// shouldRetry returns (retry?, delay)
func (s *Service) shouldRetry(cfg *model.Retry, attempts int) (bool, time.Duration) {
	if cfg == nil {
		if attempts >= s.config.MaxTrialRetries {
			return false, 0
		}
		return true, s.config.RetryDelay
	}

	if strings.ToLower(cfg.Type) == "none" {
		return false, 0
	}

	max := cfg.MaxRetries
	if max == 0 {
		max = s.config.MaxTrialRetries
	}
	if attempts >= max {
		return false, 0
	}

	baseDelay := s.config.RetryDelay
	if cfg.Delay != "" {
		if d, err := time.ParseDuration(cfg.Delay); err == nil {
			baseDelay = d
		}
	}

	switch strings.ToLower(cfg.Type) {
	case "exponential":
		mult := cfg.Multiplier
		if mult <= 1 {
			mult = 2
		}
		delay := float64(baseDelay) * math.Pow(mult, float64(attempts))
		if cfg.MaxDelay != "" {
			if md, err := time.ParseDuration(cfg.MaxDelay); err == nil {
				if time.Duration(delay) > md {
					delay = float64(md)
				}
			}
		}
		return true, time.Duration(delay)
	default: // fixed
		return true, baseDelay
	}
}

// New creates a new runner service
func New(options ...Option) (*Service, error) {
	s := &Service{
		config:     DefaultConfig(),
		shutdownCh: make(chan struct{}),
	}
	for _, opt := range options {
		opt(s)
	}
	if s.evaluator == nil {
		return nil, fmt.Errorf("evaluator is required")
	}
	if s.queue == nil {
		return nil, fmt.Errorf("message queue is required")
	}
	if s.runDAO == nil {
		return nil, fmt.Errorf("runDAO service is required")
	}
	if s.trialDAO == nil {
		return nil, fmt.Errorf("trialDAO service is required")
	}
	return s, nil
}

// Start begins the trial evaluation workers
func (s *Service) Start(ctx context.Context) error {
	for i := 0; i < s.config.WorkerCount; i++ {
		workerCtx, cancel := context.WithCancel(ctx)
		worker := &worker{
			id:       i,
			service:  s,
			ctx:      workerCtx,
			cancelFn: cancel,
		}
		s.workers = append(s.workers, worker)
		s.workerWg.Add(1)
		go worker.run()
	}
	return nil
}

// run processes messages from the queue
func (w *worker) run() {
	defer w.service.workerWg.Done()

	for {
		msg, err := w.service.queue.Consume(w.ctx)
		if err != nil {
			if errors.Is(err, context.Canceled) {
				return
			}
			time.Sleep(100 * time.Millisecond)
			continue
		}
		if msg == nil {
			continue
		}
		if pErr := w.service.processMessage(w.ctx, msg); pErr != nil {
			log.Printf("worker %d: failed to process trial: %v", w.id, pErr)
		}
	}
}

// StartRun begins a run over an experiment
func (s *Service) StartRun(ctx context.Context, experiment *model.Experiment, init map[string]interface{}) (aRun *trial.Run, err error) {
	if experiment == nil {
		return nil, fmt.Errorf("experiment cannot be nil")
	}
	ctx, span := tracing.StartSpan(ctx, fmt.Sprintf("runner.StartRun %s", experiment.Name), "INTERNAL")
	defer tracing.EndSpan(span, err)
	span.WithAttributes(map[string]string{"experiment.name": experiment.Name})

	if issues := experiment.Validate(); len(issues) > 0 {
		return nil, fmt.Errorf("invalid experiment %s: %v", experiment.Name, issues)
	}

	runID := experiment.Name + "/" + uuid.New().String()
	span.WithAttributes(map[string]string{"run.id": runID})

	aRun = trial.NewRun(runID, experiment.Name, experiment, init)

	// Propagate policy (if any) from the incoming context so the scheduler
	// and approval gate can enforce it later on.
	if p := policy.FromContext(ctx); p != nil {
		aRun.Policy = policy.ToConfig(p)
	}

	// Start a parent tracing span covering the whole run lifetime
	ctx, runSpan := tracing.StartSpan(ctx, fmt.Sprintf("run %s", experiment.Name), "INTERNAL")
	runSpan.WithAttributes(map[string]string{"run.id": runID, "experiment.name": experiment.Name})
	aRun.Span = runSpan

	aRun.SetState(trial.RunStateRunning)

	if err = s.runDAO.Save(ctx, aRun); err != nil {
		err = fmt.Errorf("failed to save run: %w", err)
		return
	}
	// No trials are scheduled here - the scheduler tops up candidates
	return aRun, nil
}

// GetRun retrieves a run by ID
func (s *Service) GetRun(ctx context.Context, runID string) (*trial.Run, error) {
	return s.runDAO.Load(ctx, runID)
}

// PauseRun pauses a running run
func (s *Service) PauseRun(ctx context.Context, runID string) error {
	aRun, err := s.runDAO.Load(ctx, runID)
	if err != nil {
		return fmt.Errorf("failed to load run: %w", err)
	}
	if aRun == nil {
		return fmt.Errorf("run %s not found", runID)
	}
	if aRun.GetState() != trial.RunStateRunning {
		return fmt.Errorf("run %s is not in running state", runID)
	}
	aRun.SetState(trial.RunStatePaused)
	return s.runDAO.Save(ctx, aRun)
}

// ResumeRun resumes a paused run
func (s *Service) ResumeRun(ctx context.Context, runID string) error {
	aRun, err := s.runDAO.Load(ctx, runID)
	if err != nil {
		return fmt.Errorf("failed to load run: %w", err)
	}
	if aRun == nil {
		return fmt.Errorf("run %s not found", runID)
	}
	if aRun.GetState() != trial.RunStatePaused {
		return fmt.Errorf("run %s is not in paused state", runID)
	}
	aRun.SetState(trial.RunStateRunning)
	return s.runDAO.Save(ctx, aRun)
	// The scheduler picks up where it left off
}

// processMessage handles a single trial evaluation message
func (s *Service) processMessage(ctx context.Context, message messaging.Message[trial.Trial]) (err error) {
	aTrial := message.T()

	aTrial.Start()
	if err := s.trialDAO.Save(ctx, aTrial); err != nil {
		return message.Nack(err)
	}
	progress.UpdateCtx(ctx, progress.Delta{Running: 1, Pending: -1})

	aRun, err := s.GetRun(ctx, aTrial.RunID)
	if err != nil {
		return message.Nack(err)
	}

	// A paused run parks its trials. Ack the message and hand the trial back
	// to the scheduler, which republishes it on resume; a Nack here would
	// burn the queue retry budget and dead-letter the trial.
	if aRun.GetState() == trial.RunStatePaused {
		runAt := time.Now()
		aTrial.State = trial.StateScheduled
		aTrial.RunAfter = &runAt
		if daoErr := s.trialDAO.Save(ctx, aTrial); daoErr != nil {
			return message.Nack(daoErr)
		}
		if inRun := aRun.LookupTrial(aTrial.ID); inRun != nil {
			inRun.State = aTrial.State
			inRun.RunAfter = aTrial.RunAfter
			_ = s.runDAO.Save(ctx, aRun)
		}
		progress.UpdateCtx(ctx, progress.Delta{Running: -1, Pending: 1})
		return message.Ack()
	}

	// Ensure the evaluation sees the current run and trial
	execCtx := context.WithValue(ctx, trial.RunKey, aRun)
	execCtx = context.WithValue(execCtx, trial.TrialKey, aTrial)

	err = s.evaluator.Evaluate(execCtx, aTrial, aRun)

	if err != nil {
		shouldRetry, delay := s.shouldRetry(aRun.Experiment.Retry, aTrial.Attempts)
		if shouldRetry {
			aTrial.Attempts++
			runAt := time.Now().Add(delay)
			aTrial.RunAfter = &runAt
			aTrial.State = trial.StateScheduled
			if daoErr := s.trialDAO.Save(ctx, aTrial); daoErr != nil {
				return message.Nack(fmt.Errorf("error %w and failed to save trial: %v", err, daoErr))
			}

			// Keep the trial embedded inside the parent run up to date so the
			// scheduler sees the correct RunAfter/Attempts values and does not
			// immediately requeue the same trial in a tight loop.
			if run, rErr := s.runDAO.Load(ctx, aTrial.RunID); rErr == nil && run != nil {
				if inRun := run.LookupTrial(aTrial.ID); inRun != nil {
					inRun.RunAfter = aTrial.RunAfter
					inRun.Attempts = aTrial.Attempts
					inRun.State = aTrial.State
					inRun.Error = err.Error()
				}
				_ = s.runDAO.Save(ctx, run)
			}
			progress.UpdateCtx(ctx, progress.Delta{Running: -1, Pending: 1})
			return message.Ack()
		}

		// Give up - mark as failed
		aTrial.Fail(err)
		if daoErr := s.trialDAO.Save(ctx, aTrial); daoErr != nil {
			return message.Nack(fmt.Errorf("encounter error: %w, and failed to save trial: %v", err, daoErr))
		}

		// Propagate the failed state to the run so the scheduler can count
		// the failure against the abort threshold.
		if run, rErr := s.runDAO.Load(ctx, aTrial.RunID); rErr == nil && run != nil {
			if inRun := run.LookupTrial(aTrial.ID); inRun != nil {
				inRun.State = trial.StateFailed
				inRun.Error = aTrial.Error
				inRun.CompletedAt = aTrial.CompletedAt
			}
			run.RecordError(fmt.Sprintf("trial-%d", aTrial.Index), err.Error())
			_ = s.runDAO.Save(ctx, run)
		}

		progress.UpdateCtx(ctx, progress.Delta{Running: -1, Failed: 1})
		message.Ack()
		return nil
	}

	if aTrial.State.IsWaitForApproval() {
		if err := s.trialDAO.Save(ctx, aTrial); err != nil {
			return message.Nack(err)
		}
		progress.UpdateCtx(ctx, progress.Delta{Running: -1, Pending: 1})
		return message.Ack()
	}

	aTrial.Complete(aTrial.Outcome)

	if err := s.trialDAO.Save(ctx, aTrial); err != nil {
		return message.Nack(err)
	}

	// Mirror the completed trial and its data into the run
	if run, rErr := s.runDAO.Load(ctx, aTrial.RunID); rErr == nil && run != nil {
		if inRun := run.LookupTrial(aTrial.ID); inRun != nil {
			inRun.Merge(aTrial)
		}
		if aTrial.Outcome != nil && aTrial.Arm != nil {
			run.AttachData(aTrial.Outcome.Rows(aTrial.Arm.Name, aTrial.Index)...)
		}
		if run.Experiment != nil && run.Experiment.OptimizationConfig != nil {
			objective := run.Experiment.OptimizationConfig.Objective
			if measurement, ok := aTrial.Outcome[objective.Metric.Name]; ok {
				progress.ObserveCtx(ctx, measurement.Mean, objective.Minimize)
			}
		}
		_ = s.runDAO.Save(ctx, run)
	}
	progress.UpdateCtx(ctx, progress.Delta{Running: -1, Completed: 1})
	return message.Ack()
}

// Shutdown stops the runner service
func (s *Service) Shutdown() {
	close(s.shutdownCh)
	for _, worker := range s.workers {
		worker.cancelFn()
	}
	s.workerWg.Wait()
}
