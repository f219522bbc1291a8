package scheduler

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/sweepline/sweep/model"
	"github.com/sweepline/sweep/policy"
	"github.com/sweepline/sweep/runtime/trial"
	memApproval "github.com/sweepline/sweep/service/approval/memory"
	rfs "github.com/sweepline/sweep/service/dao/run/fs"
	rmem "github.com/sweepline/sweep/service/dao/run/memory"
	tmem "github.com/sweepline/sweep/service/dao/trial/memory"
	"github.com/sweepline/sweep/service/messaging"
	qmem "github.com/sweepline/sweep/service/messaging/memory"
)

func testExperiment(t *testing.T, totalTrials int) *model.Experiment {
	t.Helper()
	x, err := model.NewRangeParameter("x", model.TypeFloat, 0, 10)
	assert.Nil(t, err)
	space, err := model.NewSearchSpace([]model.Parameter{x})
	assert.Nil(t, err)
	return &model.Experiment{
		Name:        "tuning",
		SearchSpace: space,
		OptimizationConfig: &model.OptimizationConfig{
			Objective: model.Objective{Metric: model.Metric{Name: "square"}, Minimize: true},
		},
		Evaluation: &model.Evaluation{Service: "test", Method: "evaluate"},
		Generation: &model.Generation{
			Steps:       []*model.GenerationStep{{Model: "sobol", Trials: totalTrials}},
			TotalTrials: totalTrials,
			Seed:        11,
		},
	}
}

type testEnv struct {
	service  *Service
	runDAO   *rmem.Service
	trialDAO *tmem.Service
	queue    messaging.Queue[trial.Trial]
}

func newTestEnv(t *testing.T, config Config, options ...Option) *testEnv {
	t.Helper()
	env := &testEnv{
		runDAO:   rmem.New(),
		trialDAO: tmem.New(),
		queue:    qmem.NewQueue[trial.Trial](qmem.DefaultConfig()),
	}
	env.service = New(env.runDAO, env.trialDAO, env.queue, config, options...)
	return env
}

func (e *testEnv) startRun(ctx context.Context, t *testing.T, experiment *model.Experiment) *trial.Run {
	t.Helper()
	aRun := trial.NewRun("tuning/1", experiment.Name, experiment, nil)
	aRun.SetState(trial.RunStateRunning)
	assert.NoError(t, e.runDAO.Save(ctx, aRun))
	return aRun
}

// drain consumes up to n trials from the queue, acking each.
func (e *testEnv) drain(t *testing.T, n int) []*trial.Trial {
	t.Helper()
	var ret []*trial.Trial
	for i := 0; i < n; i++ {
		ctx, cancel := context.WithTimeout(context.Background(), 200*time.Millisecond)
		msg, err := e.queue.Consume(ctx)
		cancel()
		if err != nil {
			break
		}
		_ = msg.Ack()
		ret = append(ret, msg.T())
	}
	return ret
}

func TestSchedulerTopsUpTrials(t *testing.T) {
	ctx := context.Background()
	config := DefaultConfig()
	config.MaxParallelTrials = 2
	env := newTestEnv(t, config)
	aRun := env.startRun(ctx, t, testExperiment(t, 4))

	assert.NoError(t, env.service.ScheduleNextTrials(ctx, aRun))

	queued := env.drain(t, 3)
	if assert.Len(t, queued, 2) {
		assert.Equal(t, trial.StateScheduled, queued[0].State)
		assert.Equal(t, "sobol", queued[0].GeneratedBy)
		assert.NotNil(t, queued[0].Arm)
		assert.Equal(t, "0_0", queued[0].Arm.Name)
	}

	// At capacity - a second pass must not add trials
	assert.NoError(t, env.service.ScheduleNextTrials(ctx, aRun))
	assert.Empty(t, env.drain(t, 1))
	assert.Len(t, aRun.Trials, 2)
}

func TestSchedulerCompletesRun(t *testing.T) {
	ctx := context.Background()
	config := DefaultConfig()
	config.MaxParallelTrials = 4
	env := newTestEnv(t, config)
	aRun := env.startRun(ctx, t, testExperiment(t, 2))

	assert.NoError(t, env.service.ScheduleNextTrials(ctx, aRun))
	queued := env.drain(t, 2)
	assert.Len(t, queued, 2)

	// Simulate the runner finishing both trials
	for _, aTrial := range queued {
		aTrial.Complete(model.Outcome{"square": model.Measurement{Mean: 1}})
		assert.NoError(t, env.trialDAO.Save(ctx, aTrial))
	}

	assert.NoError(t, env.service.ScheduleNextTrials(ctx, aRun))
	assert.Equal(t, trial.RunStateCompleted, aRun.GetState())
	assert.NotNil(t, aRun.FinishedAt)
}

func TestSchedulerAbortsAfterFailures(t *testing.T) {
	ctx := context.Background()
	config := DefaultConfig()
	config.MaxParallelTrials = 2
	config.MaxTrialFailures = 1
	env := newTestEnv(t, config)
	aRun := env.startRun(ctx, t, testExperiment(t, 4))

	assert.NoError(t, env.service.ScheduleNextTrials(ctx, aRun))
	queued := env.drain(t, 2)
	assert.Len(t, queued, 2)

	queued[0].Fail(assert.AnError)
	assert.NoError(t, env.trialDAO.Save(ctx, queued[0]))

	assert.NoError(t, env.service.ScheduleNextTrials(ctx, aRun))
	assert.Equal(t, trial.RunStateFailed, aRun.GetState())
	assert.Contains(t, aRun.Errors, "run")
}

func TestSchedulerPolicyDeny(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(t, DefaultConfig())
	aRun := env.startRun(ctx, t, testExperiment(t, 4))
	aRun.Policy = &policy.Config{Mode: policy.ModeDeny}

	assert.NoError(t, env.service.ScheduleNextTrials(ctx, aRun))
	assert.Equal(t, trial.RunStateFailed, aRun.GetState())
	assert.Empty(t, env.drain(t, 1))
}

func TestSchedulerApprovalGate(t *testing.T) {
	ctx := context.Background()
	config := DefaultConfig()
	config.MaxParallelTrials = 1
	env := newTestEnv(t, config)
	approvalSvc := memApproval.New(env.trialDAO, memApproval.WithRunDAO(env.runDAO))
	env.service.approval = approvalSvc

	aRun := env.startRun(ctx, t, testExperiment(t, 2))
	aRun.Policy = &policy.Config{Mode: policy.ModeAsk}

	assert.NoError(t, env.service.ScheduleNextTrials(ctx, aRun))
	// Trial parked, nothing queued yet
	assert.Empty(t, env.drain(t, 1))
	pending, err := approvalSvc.ListPending(ctx)
	assert.NoError(t, err)
	if !assert.Len(t, pending, 1) {
		return
	}
	assert.Equal(t, "test.evaluate", pending[0].Action)
	assert.Contains(t, pending[0].Args, "x")

	_, err = approvalSvc.Decide(ctx, pending[0].ID, true, "")
	assert.NoError(t, err)

	assert.NoError(t, env.service.ScheduleNextTrials(ctx, aRun))
	queued := env.drain(t, 1)
	if assert.Len(t, queued, 1) {
		assert.Equal(t, trial.StateScheduled, queued[0].State)
	}
}

func TestSchedulerAskFuncReject(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(t, DefaultConfig())
	aRun := env.startRun(ctx, t, testExperiment(t, 2))

	asked := 0
	ctx = policy.WithPolicy(ctx, &policy.Policy{
		Mode: policy.ModeAsk,
		Ask: func(_ context.Context, action string, args map[string]interface{}, _ *policy.Policy) bool {
			asked++
			return false
		},
	})

	assert.NoError(t, env.service.ScheduleNextTrials(ctx, aRun))
	assert.Empty(t, env.drain(t, 1))
	assert.NotZero(t, asked)
	for _, aTrial := range aRun.Trials {
		assert.Equal(t, trial.StateAbandoned, aTrial.State)
	}
}

func TestSchedulerResumesPersistedRun(t *testing.T) {
	ctx := context.Background()
	fsDAO, err := rfs.New(t.TempDir())
	assert.NoError(t, err)

	config := DefaultConfig()
	config.MaxParallelTrials = 2
	env := newTestEnv(t, config)
	env.service.runDAO = fsDAO

	experiment := testExperiment(t, 4)
	aRun := trial.NewRun("tuning/1", experiment.Name, experiment, nil)
	aRun.SetState(trial.RunStateRunning)
	assert.NoError(t, fsDAO.Save(ctx, aRun))

	// a reloaded run must keep its search space and error map
	loaded, err := fsDAO.Load(ctx, aRun.ID)
	assert.NoError(t, err)
	if !assert.NotNil(t, loaded.Experiment.SearchSpace) {
		return
	}
	assert.NotNil(t, loaded.Errors)

	assert.NoError(t, env.service.ScheduleNextTrials(ctx, loaded))
	assert.Equal(t, trial.RunStateRunning, loaded.GetState())
	assert.Len(t, env.drain(t, 3), 2)
}

func TestFailRunAfterReload(t *testing.T) {
	ctx := context.Background()
	fsDAO, err := rfs.New(t.TempDir())
	assert.NoError(t, err)

	config := DefaultConfig()
	config.MaxTrialFailures = 1
	env := newTestEnv(t, config)
	env.service.runDAO = fsDAO

	aRun := env.startRun(ctx, t, testExperiment(t, 4))
	assert.NoError(t, fsDAO.Save(ctx, aRun))
	loaded, err := fsDAO.Load(ctx, aRun.ID)
	assert.NoError(t, err)

	failed := trial.New(loaded.ID, 0, &model.Arm{Name: "0_0", Parameters: model.Parameterization{"x": 1.0}}, "sobol")
	failed.Fail(assert.AnError)
	loaded.Push(failed)
	assert.NoError(t, env.trialDAO.Save(ctx, failed))

	assert.NoError(t, env.service.ScheduleNextTrials(ctx, loaded))
	assert.Equal(t, trial.RunStateFailed, loaded.GetState())
	assert.Contains(t, loaded.Errors, "run")
}

func TestSchedulerApprovalGateWithoutRunDAO(t *testing.T) {
	ctx := context.Background()
	config := DefaultConfig()
	config.MaxParallelTrials = 1
	env := newTestEnv(t, config)
	// trial store only, decisions flow back through reconciliation
	env.service.approval = memApproval.New(env.trialDAO)

	aRun := env.startRun(ctx, t, testExperiment(t, 2))
	aRun.Policy = &policy.Config{Mode: policy.ModeAsk}

	assert.NoError(t, env.service.ScheduleNextTrials(ctx, aRun))
	assert.Empty(t, env.drain(t, 1))
	pending, err := env.service.approval.ListPending(ctx)
	assert.NoError(t, err)
	if !assert.Len(t, pending, 1) {
		return
	}

	_, err = env.service.approval.Decide(ctx, pending[0].ID, true, "")
	assert.NoError(t, err)

	assert.NoError(t, env.service.ScheduleNextTrials(ctx, aRun))
	queued := env.drain(t, 1)
	if assert.Len(t, queued, 1) {
		assert.Equal(t, trial.StateScheduled, queued[0].State)
		assert.NotNil(t, queued[0].Approved)
	}
}
