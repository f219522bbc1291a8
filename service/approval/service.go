package approval

import (
	"context"

	"github.com/sweepline/sweep/service/messaging"
)

// Service manages approval requests raised by gated evaluations.
type Service interface {
	RequestApproval(ctx context.Context, r *Request) error
	ListPending(ctx context.Context) ([]*Request, error)
	Decide(ctx context.Context, id string, approved bool, reason string) (*Decision, error)
	Queue() messaging.Queue[Event]
}
