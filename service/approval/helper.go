package approval

import (
	"context"
	"fmt"
	"time"
)

// DecisionFunc decides what to do with a pending request.
// Return (true,  "") to approve
//
//	(false, "…") to reject with reason.
type DecisionFunc func(r *Request) (approved bool, reason string)

// AutoDecider starts a goroutine that polls ListPending and applies fn to
// every request.  It returns stop(), call it (or cancel ctx) to exit.
func AutoDecider(ctx context.Context,
	svc Service,
	fn DecisionFunc,
	interval time.Duration) (stop func()) {

	if interval <= 0 {
		interval = 20 * time.Millisecond
	}
	done := make(chan struct{})

	go func() {
		ticker := time.NewTicker(interval)
		defer ticker.Stop()

		for {
			select {
			case <-ctx.Done():
				return
			case <-done:
				return
			case <-ticker.C:
				reqs, _ := svc.ListPending(ctx)
				for _, r := range reqs {
					ok, reason := fn(r)
					_, _ = svc.Decide(ctx, r.ID, ok, reason)
				}
			}
		}
	}()
	return func() { close(done) }
}

// AutoApprove automatically approves all pending requests
func AutoApprove(ctx context.Context,
	svc Service,
	interval time.Duration) func() {
	return AutoDecider(ctx, svc,
		func(*Request) (bool, string) { return true, "" }, interval)
}

// AutoReject automatically rejects all pending requests with the given reason
func AutoReject(ctx context.Context,
	svc Service,
	reason string,
	interval time.Duration) func() {
	return AutoDecider(ctx, svc,
		func(*Request) (bool, string) { return false, reason }, interval)
}

// PendingFilter narrows down the result of ListPending.
type PendingFilter func(*Request) bool

// WithRunID keeps only requests belonging to the given run.
func WithRunID(runID string) PendingFilter {
	return func(r *Request) bool { return r.RunID == runID }
}

// WithAction keeps only requests for the given "service.method" action.
func WithAction(action string) PendingFilter {
	return func(r *Request) bool { return r.Action == action }
}

// ListPending returns pending requests matching all supplied filters.
func ListPending(ctx context.Context, svc Service, filters ...PendingFilter) ([]*Request, error) {
	all, err := svc.ListPending(ctx)
	if err != nil {
		return nil, err
	}
	if len(filters) == 0 {
		return all, nil
	}
	ret := make([]*Request, 0, len(all))
outer:
	for _, r := range all {
		for _, f := range filters {
			if !f(r) {
				continue outer
			}
		}
		ret = append(ret, r)
	}
	return ret, nil
}

// WaitForDecision blocks until a decision for the given request id is
// published on the service queue or the timeout elapses.
func WaitForDecision(ctx context.Context, svc Service, id string, timeout time.Duration) (*Decision, error) {
	waitCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()
	queue := svc.Queue()
	for {
		msg, err := queue.Consume(waitCtx)
		if err != nil {
			return nil, fmt.Errorf("timed out waiting for decision %s: %w", id, err)
		}
		if msg == nil {
			continue
		}
		anEvent := msg.T()
		if anEvent.Topic != TopicDecisionCreated {
			_ = msg.Ack()
			continue
		}
		decision, ok := anEvent.Data.(*Decision)
		if !ok || decision.ID != id {
			_ = msg.Ack()
			continue
		}
		_ = msg.Ack()
		return decision, nil
	}
}
