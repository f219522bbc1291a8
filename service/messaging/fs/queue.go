// Package fs implements a filesystem-backed trial queue. Each message is a
// JSON document that moves between state directories (pending, processing,
// completed, failed, dlq), so a crashed worker leaves an inspectable trail
// and another process can pick up where it stopped.
package fs

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"path"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/viant/afs"
	"github.com/viant/afs/file"
	"github.com/viant/afs/option"
	"github.com/viant/afs/storage"

	"github.com/sweepline/sweep/service/messaging"
)

// MessageState reflects which directory a message lives in.
type MessageState string

const (
	MessageStatePending    MessageState = "pending"
	MessageStateProcessing MessageState = "processing"
	MessageStateCompleted  MessageState = "completed"
	MessageStateFailed     MessageState = "failed"
)

// Message is the persisted envelope around a queued payload.
type Message[T any] struct {
	ID        string       `json:"id"`
	Data      T            `json:"data"`
	State     MessageState `json:"state"`
	Error     string       `json:"error,omitempty"`
	CreatedAt time.Time    `json:"createdAt"`
	UpdatedAt time.Time    `json:"updatedAt"`
	Retries   int          `json:"retries"`

	queue     *Queue[T]
	processed bool
	mu        sync.Mutex
}

// T returns the message payload.
func (m *Message[T]) T() *T {
	return &m.Data
}

// Ack moves the message into the completed directory.
func (m *Message[T]) Ack() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.processed {
		return fmt.Errorf("message already processed")
	}
	m.processed = true
	m.State = MessageStateCompleted
	m.UpdatedAt = time.Now()
	return m.queue.settle(context.Background(), m, m.queue.completedDir)
}

// Nack records the failure and parks the message for retry, or in the DLQ
// once retries are spent.
func (m *Message[T]) Nack(err error) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.processed {
		return fmt.Errorf("message already processed")
	}
	m.processed = true
	m.State = MessageStateFailed
	if err != nil {
		m.Error = err.Error()
	}
	m.Retries++
	m.UpdatedAt = time.Now()

	target := m.queue.failedDir
	if m.Retries > m.queue.config.MaxRetries {
		target = m.queue.dlqDir
	}
	return m.queue.settle(context.Background(), m, target)
}

// Config defines the queue root and retry policy.
type Config struct {
	BasePath   string
	MaxRetries int
	RetryDelay time.Duration
}

// DefaultConfig returns the default filesystem queue configuration.
func DefaultConfig() Config {
	return Config{
		BasePath:   "/tmp/sweep/queue",
		MaxRetries: 3,
		RetryDelay: time.Second,
	}
}

// Queue is a filesystem-backed messaging.Queue.
type Queue[T any] struct {
	fs            afs.Service
	config        Config
	pendingDir    string
	processingDir string
	completedDir  string
	failedDir     string
	dlqDir        string
	mu            sync.Mutex
}

// NewQueue creates the state directories under config.BasePath.
func NewQueue[T any](fs afs.Service, config Config) (*Queue[T], error) {
	if config.BasePath == "" {
		return nil, fmt.Errorf("base path cannot be empty")
	}
	q := &Queue[T]{
		fs:            fs,
		config:        config,
		pendingDir:    path.Join(config.BasePath, "pending"),
		processingDir: path.Join(config.BasePath, "processing"),
		completedDir:  path.Join(config.BasePath, "completed"),
		failedDir:     path.Join(config.BasePath, "failed"),
		dlqDir:        path.Join(config.BasePath, "dlq"),
	}
	ctx := context.Background()
	for _, dir := range []string{q.pendingDir, q.processingDir, q.completedDir, q.failedDir, q.dlqDir} {
		if exists, _ := fs.Exists(ctx, dir); exists {
			continue
		}
		if err := fs.Create(ctx, dir, file.DefaultDirOsMode, true); err != nil {
			return nil, fmt.Errorf("failed to create directory %s: %w", dir, err)
		}
	}
	return q, nil
}

// Publish writes a new pending message.
func (q *Queue[T]) Publish(ctx context.Context, t *T) error {
	message := &Message[T]{
		ID:        uuid.New().String(),
		Data:      *t,
		State:     MessageStatePending,
		CreatedAt: time.Now(),
		UpdatedAt: time.Now(),
		queue:     q,
	}
	data, err := json.Marshal(message)
	if err != nil {
		return fmt.Errorf("failed to marshal message: %w", err)
	}
	return q.store(ctx, path.Join(q.pendingDir, messageFile(message.ID)), data)
}

// Consume claims the oldest message, retrying eligible failed messages
// before draining pending ones. It returns (nil, nil) when the queue is
// empty.
func (q *Queue[T]) Consume(ctx context.Context) (messaging.Message[T], error) {
	retried, err := q.claim(ctx, q.failedDir, q.dlqDir, true)
	if err != nil {
		return nil, err
	}
	if retried != nil {
		return retried, nil
	}
	claimed, err := q.claim(ctx, q.pendingDir, q.failedDir, false)
	if err != nil {
		return nil, err
	}
	if claimed == nil {
		return nil, nil
	}
	return claimed, nil
}

// claim promotes the oldest message from sourceDir into processing. A
// message that cannot be decoded goes to rejectDir; when checkRetries is
// set, messages over the retry budget go to the DLQ instead of processing.
func (q *Queue[T]) claim(ctx context.Context, sourceDir, rejectDir string, checkRetries bool) (*Message[T], error) {
	q.mu.Lock()
	defer q.mu.Unlock()

	objects, err := q.fs.List(ctx, sourceDir, option.NewRecursive(false))
	if err != nil {
		return nil, fmt.Errorf("failed to list %s: %w", sourceDir, err)
	}
	var candidates []storage.Object
	for _, obj := range objects {
		if !obj.IsDir() && strings.HasSuffix(obj.Name(), ".json") {
			candidates = append(candidates, obj)
		}
	}
	if len(candidates) == 0 {
		return nil, nil
	}

	obj := candidates[0]
	message, err := q.load(ctx, obj.URL())
	if err != nil {
		_ = q.fs.Move(ctx, obj.URL(), path.Join(rejectDir, "invalid-"+obj.Name()))
		return nil, err
	}
	if checkRetries && message.Retries > q.config.MaxRetries {
		if err := q.fs.Move(ctx, obj.URL(), path.Join(q.dlqDir, obj.Name())); err != nil {
			return nil, fmt.Errorf("failed to move message to DLQ: %w", err)
		}
		return nil, nil
	}

	message.State = MessageStateProcessing
	message.UpdatedAt = time.Now()
	message.queue = q

	data, err := json.Marshal(message)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal message: %w", err)
	}
	// write the processing copy before deleting the source so a crash
	// between the two leaves a duplicate rather than a lost message
	if err := q.store(ctx, path.Join(q.processingDir, obj.Name()), data); err != nil {
		return nil, fmt.Errorf("failed to move message to processing: %w", err)
	}
	if err := q.fs.Delete(ctx, obj.URL()); err != nil {
		return nil, fmt.Errorf("failed to delete message from %s: %w", sourceDir, err)
	}
	return message, nil
}

// settle writes the terminal copy of a message and removes the processing
// copy.
func (q *Queue[T]) settle(ctx context.Context, m *Message[T], targetDir string) error {
	q.mu.Lock()
	defer q.mu.Unlock()

	data, err := json.Marshal(m)
	if err != nil {
		return fmt.Errorf("failed to marshal message: %w", err)
	}
	name := messageFile(m.ID)
	if err := q.store(ctx, path.Join(targetDir, name), data); err != nil {
		return fmt.Errorf("failed to write message to %s: %w", targetDir, err)
	}
	processingPath := path.Join(q.processingDir, name)
	if exists, _ := q.fs.Exists(ctx, processingPath); exists {
		if err := q.fs.Delete(ctx, processingPath); err != nil {
			return fmt.Errorf("failed to delete processing copy: %w", err)
		}
	}
	return nil
}

func messageFile(id string) string {
	return id + ".json"
}

func (q *Queue[T]) store(ctx context.Context, location string, data []byte) error {
	return q.fs.Upload(ctx, location, file.DefaultFileOsMode, bytes.NewBuffer(data))
}

func (q *Queue[T]) load(ctx context.Context, url string) (*Message[T], error) {
	data, err := q.fs.DownloadWithURL(ctx, url)
	if err != nil {
		return nil, fmt.Errorf("failed to read message %s: %w", url, err)
	}
	var message Message[T]
	if err := json.Unmarshal(data, &message); err != nil {
		return nil, fmt.Errorf("failed to unmarshal message %s: %w", url, err)
	}
	return &message, nil
}

var _ messaging.Queue[any] = (*Queue[any])(nil)
