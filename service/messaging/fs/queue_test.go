package fs

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/viant/afs"
)

type trialRequest struct {
	RunID string             `json:"runId"`
	Index int                `json:"index"`
	Arm   map[string]float64 `json:"arm,omitempty"`
}

func newTestQueue(t *testing.T, maxRetries int) (*Queue[trialRequest], afs.Service) {
	t.Helper()
	fs := afs.New()
	queue, err := NewQueue[trialRequest](fs, Config{
		BasePath:   t.TempDir(),
		MaxRetries: maxRetries,
		RetryDelay: 10 * time.Millisecond,
	})
	if err != nil {
		t.Fatalf("failed to create queue: %v", err)
	}
	return queue, fs
}

func TestNewQueueCreatesStateDirs(t *testing.T) {
	queue, fs := newTestQueue(t, 2)
	ctx := context.Background()
	for _, dir := range []string{queue.pendingDir, queue.processingDir, queue.completedDir, queue.failedDir, queue.dlqDir} {
		exists, err := fs.Exists(ctx, dir)
		assert.NoError(t, err)
		assert.True(t, exists, fmt.Sprintf("directory %s should exist", dir))
	}

	_, err := NewQueue[trialRequest](fs, Config{})
	assert.Error(t, err, "empty base path should be rejected")
}

func TestPublishConsumeAck(t *testing.T) {
	queue, fs := newTestQueue(t, 2)
	ctx := context.Background()

	requests := []trialRequest{
		{RunID: "run-1", Index: 0, Arm: map[string]float64{"lr": 0.01}},
		{RunID: "run-1", Index: 1, Arm: map[string]float64{"lr": 0.1}},
		{RunID: "run-1", Index: 2, Arm: map[string]float64{"lr": 1.0}},
	}
	for i := range requests {
		assert.NoError(t, queue.Publish(ctx, &requests[i]))
	}

	pending, err := fs.List(ctx, queue.pendingDir)
	assert.NoError(t, err)
	assert.Equal(t, 3, len(pending)-1, "all requests should be pending")

	seen := map[int]bool{}
	for i := 0; i < len(requests); i++ {
		message, err := queue.Consume(ctx)
		assert.NoError(t, err)
		if !assert.NotNil(t, message) {
			return
		}
		request := message.T()
		assert.Equal(t, "run-1", request.RunID)
		seen[request.Index] = true
		assert.NoError(t, message.Ack())
	}
	assert.Equal(t, 3, len(seen), "each trial consumed once")

	completed, err := fs.List(ctx, queue.completedDir)
	assert.NoError(t, err)
	assert.Equal(t, 3, len(completed)-1)

	message, err := queue.Consume(ctx)
	assert.NoError(t, err)
	assert.Nil(t, message, "queue should be drained")
}

func TestNackRetriesThenDeadLetters(t *testing.T) {
	queue, fs := newTestQueue(t, 2)
	ctx := context.Background()

	request := trialRequest{RunID: "run-2", Index: 0}
	assert.NoError(t, queue.Publish(ctx, &request))

	// first failure parks the message in failed
	message, err := queue.Consume(ctx)
	assert.NoError(t, err)
	assert.NotNil(t, message)
	assert.NoError(t, message.Nack(fmt.Errorf("evaluator crashed")))

	failed, err := fs.List(ctx, queue.failedDir)
	assert.NoError(t, err)
	assert.Equal(t, 1, len(failed)-1)

	// failed messages are retried ahead of pending ones
	message, err = queue.Consume(ctx)
	assert.NoError(t, err)
	assert.NotNil(t, message)
	assert.NoError(t, message.Nack(nil))

	message, err = queue.Consume(ctx)
	assert.NoError(t, err)
	assert.NotNil(t, message)
	assert.NoError(t, message.Nack(nil))

	// third failure exceeds MaxRetries and lands in the DLQ
	dlq, err := fs.List(ctx, queue.dlqDir)
	assert.NoError(t, err)
	assert.Equal(t, 1, len(dlq)-1)

	message, err = queue.Consume(ctx)
	assert.NoError(t, err)
	assert.Nil(t, message, "dead-lettered message must not be redelivered")
}

func TestDoubleAckRejected(t *testing.T) {
	queue, _ := newTestQueue(t, 2)
	ctx := context.Background()

	request := trialRequest{RunID: "run-3", Index: 0}
	assert.NoError(t, queue.Publish(ctx, &request))

	message, err := queue.Consume(ctx)
	assert.NoError(t, err)
	assert.NotNil(t, message)
	assert.NoError(t, message.Ack())
	assert.Error(t, message.Ack(), "second ack should fail")
	assert.Error(t, message.Nack(nil), "nack after ack should fail")
}
