package progress

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestTrackerUpdate(t *testing.T) {
	ctx, tracker := WithNewTracker(context.Background(), "run-1", "tuning", nil)

	UpdateCtx(ctx, Delta{Total: 2, Pending: 2})
	UpdateCtx(ctx, Delta{Running: 1, Pending: -1})
	UpdateCtx(ctx, Delta{Running: -1, Completed: 1})

	snapshot := tracker.Snapshot()
	assert.Equal(t, "run-1", snapshot.RunID)
	assert.Equal(t, 2, snapshot.TotalTrials)
	assert.Equal(t, 1, snapshot.PendingTrials)
	assert.Equal(t, 0, snapshot.RunningTrials)
	assert.Equal(t, 1, snapshot.CompletedTrials)
}

func TestObserveObjective(t *testing.T) {
	testCases := []struct {
		description string
		minimize    bool
		values      []float64
		expected    float64
	}{
		{
			description: "minimize keeps the lowest value",
			minimize:    true,
			values:      []float64{4.0, 1.5, 3.0},
			expected:    1.5,
		},
		{
			description: "maximize keeps the highest value",
			minimize:    false,
			values:      []float64{0.2, 0.9, 0.4},
			expected:    0.9,
		},
	}

	for _, testCase := range testCases {
		ctx, tracker := WithNewTracker(context.Background(), "run-1", "tuning", nil)
		for _, value := range testCase.values {
			ObserveCtx(ctx, value, testCase.minimize)
		}
		snapshot := tracker.Snapshot()
		if assert.NotNil(t, snapshot.BestValue, testCase.description) {
			assert.Equal(t, testCase.expected, *snapshot.BestValue, testCase.description)
		}
	}
}

func TestOnChangeFiresOnImprovement(t *testing.T) {
	var calls int
	_, tracker := WithNewTracker(context.Background(), "run-1", "tuning", func(Progress) { calls++ })

	tracker.ObserveObjective(2.0, true)
	tracker.ObserveObjective(3.0, true)
	tracker.ObserveObjective(1.0, true)

	assert.Equal(t, 2, calls)
}
