// Package event broadcasts run and trial lifecycle notifications over
// typed queues. Each payload type gets its own queue; every event is also
// mirrored onto a shared untyped queue for catch-all listeners.
package event

import "time"

// Context identifies where in a run an event originated.
type Context struct {
	RunID       string `json:"runID"`
	TrialID     string `json:"trialID"`
	EventType   string `json:"eventType"`
	Service     string `json:"service"`
	Method      string `json:"method"`
	TimeTakenMs int    `json:"timeTakenMs"`
}

// Event wraps a typed payload with its origin and creation time.
type Event[T any] struct {
	Context   *Context               `json:"context"`
	CreatedAt time.Time              `json:"createdAt"`
	Metadata  map[string]interface{} `json:"metadata"`
	Data      T                      `json:"data"`
}

// NewEvent creates an event for the given origin and payload.
func NewEvent[T any](context *Context, data T) *Event[T] {
	return &Event[T]{
		Context:   context,
		CreatedAt: time.Now(),
		Metadata:  make(map[string]interface{}),
		Data:      data,
	}
}
