package memory

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

type trialRequest struct {
	RunID string
	Index int
}

func TestPublishConsumeAck(t *testing.T) {
	config := DefaultConfig()
	config.RetryDelay = 10 * time.Millisecond
	queue := NewQueue[trialRequest](config)
	ctx := context.Background()

	request := trialRequest{RunID: "run-1", Index: 0}
	assert.NoError(t, queue.Publish(ctx, &request))
	assert.Equal(t, 1, queue.Size())

	message, err := queue.Consume(ctx)
	assert.NoError(t, err)
	assert.NotNil(t, message)
	assert.Equal(t, 0, queue.Size())

	consumed := message.T()
	assert.Equal(t, "run-1", consumed.RunID)
	assert.Equal(t, 0, consumed.Index)

	assert.NoError(t, message.Ack())
	assert.Error(t, message.Ack(), "second ack should fail")
}

func TestNackRedeliversThenDeadLetters(t *testing.T) {
	config := DefaultConfig()
	config.MaxRetries = 2
	config.RetryDelay = 10 * time.Millisecond
	queue := NewQueue[trialRequest](config)
	ctx := context.Background()

	request := trialRequest{RunID: "run-2", Index: 1}
	assert.NoError(t, queue.Publish(ctx, &request))

	// initial delivery plus two retries
	for attempt := 0; attempt < 3; attempt++ {
		message, err := queue.Consume(ctx)
		assert.NoError(t, err)
		assert.NotNil(t, message)
		assert.NoError(t, message.Nack(fmt.Errorf("attempt %d failed", attempt)))
	}

	// retries spent, message moves to the dead letter list
	time.Sleep(50 * time.Millisecond)
	assert.Equal(t, 0, queue.Size())
	assert.Equal(t, 1, queue.DLQSize())
}

func TestConcurrentProducersConsumers(t *testing.T) {
	config := DefaultConfig()
	config.RetryDelay = 10 * time.Millisecond
	queue := NewQueue[trialRequest](config)
	ctx := context.Background()

	const producers = 10
	const perProducer = 10

	var wg sync.WaitGroup
	wg.Add(producers * 2)

	var consumedMu sync.Mutex
	consumed := 0

	for i := 0; i < producers; i++ {
		go func() {
			defer wg.Done()
			for j := 0; j < perProducer; j++ {
				message, err := queue.Consume(ctx)
				if err != nil {
					t.Errorf("consume failed: %v", err)
					continue
				}
				assert.NoError(t, message.Ack())
				consumedMu.Lock()
				consumed++
				consumedMu.Unlock()
			}
		}()
	}
	for i := 0; i < producers; i++ {
		go func(producer int) {
			defer wg.Done()
			for j := 0; j < perProducer; j++ {
				request := trialRequest{RunID: fmt.Sprintf("run-%d", producer), Index: j}
				if err := queue.Publish(ctx, &request); err != nil {
					t.Errorf("publish failed: %v", err)
				}
			}
		}(i)
	}

	done := make(chan struct{})
	go func() {
		wg.Wait()
		close(done)
	}()
	select {
	case <-done:
	case <-time.After(5 * time.Second):
		t.Fatal("test timed out")
	}

	assert.Equal(t, producers*perProducer, consumed)
	assert.Equal(t, 0, queue.Size())
}

func TestContextCancellation(t *testing.T) {
	queue := NewQueue[trialRequest](DefaultConfig())

	cancelled, cancel := context.WithCancel(context.Background())
	cancel()

	request := trialRequest{RunID: "run-3"}
	assert.Error(t, queue.Publish(cancelled, &request))

	timed, cancelTimed := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancelTimed()
	_, err := queue.Consume(timed)
	assert.Error(t, err, "consume should unblock when the context ends")

	// queue stays usable afterwards
	ctx := context.Background()
	assert.NoError(t, queue.Publish(ctx, &request))
	message, err := queue.Consume(ctx)
	assert.NoError(t, err)
	assert.NotNil(t, message)
}
