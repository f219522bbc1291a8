package approval

import (
	"time"
)

// Event is the envelope published on the approval queue.
type Event struct {
	Topic   string            // see topic constants below
	Data    interface{}       // *Request | *Decision
	Headers map[string]string `json:"headers,omitempty"` // optional, tenant, correlation-id etc.
}

// Standard event topics.
const (
	TopicRequestCreated  = "request.created"
	TopicRequestUpdated  = "request.updated"
	TopicRequestExpired  = "request.expired"
	TopicDecisionCreated = "decision.created"
)

// Request represents a request for approval of a single trial evaluation
// before it can be executed.
type Request struct {
	ID        string                 `json:"id"`                  // Globally unique, primary key
	RunID     string                 `json:"runId"`               // Refers to run.ID
	TrialID   string                 `json:"trialId"`             // Refers to trial.ID
	Action    string                 `json:"action"`              // "service.method"
	Args      map[string]interface{} `json:"args,omitempty"`      // arm parameters (best-effort)
	CreatedAt time.Time              `json:"createdAt"`           // RFC-3339 timestamp
	ExpiresAt *time.Time             `json:"expiresAt,omitempty"` // Optional deadline
	Meta      map[string]interface{} `json:"meta,omitempty"`      // Free-form map: tenant, user, environment, etc.
}

// Decision represents approval decision
type Decision struct {
	ID        string    `json:"id"` // same as request.ID
	Approved  bool      `json:"approved"`
	Reason    string    `json:"reason,omitempty"`
	DecidedAt time.Time `json:"decidedAt"`
}
