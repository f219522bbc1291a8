package sqlstore

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/sweepline/sweep/model"
	"github.com/sweepline/sweep/runtime/trial"
	"github.com/sweepline/sweep/service/dao"
)

func openTestDB(t *testing.T) *RunStore {
	t.Helper()
	db, err := Open(filepath.Join(t.TempDir(), "sweep.db"), DefaultConfig())
	if err != nil {
		t.Fatalf("failed to open test db: %v", err)
	}
	t.Cleanup(func() { _ = db.Close() })
	return NewRunStore(db)
}

func TestRunStoreRoundTrip(t *testing.T) {
	store := openTestDB(t)
	ctx := context.Background()

	experiment := &model.Experiment{Name: "exp"}
	run := trial.NewRun("r1", "exp", experiment, nil)
	run.SetState(trial.RunStateRunning)

	assert.Nil(t, store.Save(ctx, run))

	loaded, err := store.Load(ctx, "r1")
	assert.Nil(t, err)
	assert.Equal(t, "r1", loaded.ID)
	assert.Equal(t, trial.RunStateRunning, loaded.State)

	running, err := store.List(ctx, dao.NewParameter("State", trial.RunStateRunning))
	assert.Nil(t, err)
	assert.Equal(t, 1, len(running))

	completed, err := store.List(ctx, dao.NewParameter("State", trial.RunStateCompleted))
	assert.Nil(t, err)
	assert.Equal(t, 0, len(completed))

	assert.Nil(t, store.Delete(ctx, "r1"))
	_, err = store.Load(ctx, "r1")
	assert.Equal(t, dao.ErrNotFound, err)
	assert.Equal(t, dao.ErrNotFound, store.Delete(ctx, "r1"))
}

func TestTrialStoreRoundTrip(t *testing.T) {
	db, err := Open(filepath.Join(t.TempDir(), "sweep.db"), DefaultConfig())
	if err != nil {
		t.Fatalf("failed to open test db: %v", err)
	}
	defer db.Close()
	store := NewTrialStore(db)
	ctx := context.Background()

	arm := &model.Arm{Name: "0_0", Parameters: model.Parameterization{"x1": 1.0}}
	first := trial.New("r1", 0, arm, "sobol")
	second := trial.New("r1", 1, arm.Clone(), "sobol")
	other := trial.New("r2", 0, arm.Clone(), "uniform")

	assert.Nil(t, store.Save(ctx, first))
	assert.Nil(t, store.Save(ctx, second))
	assert.Nil(t, store.Save(ctx, other))

	trials, err := store.List(ctx, dao.NewParameter("RunID", "r1"))
	assert.Nil(t, err)
	assert.Equal(t, 2, len(trials))
	assert.Equal(t, 0, trials[0].Index)
	assert.Equal(t, 1, trials[1].Index)

	first.Start()
	assert.Nil(t, store.Save(ctx, first))
	loaded, err := store.Load(ctx, first.ID)
	assert.Nil(t, err)
	assert.Equal(t, trial.StateRunning, loaded.State)
}
