package memory

import (
	"context"
	"errors"
	"fmt"
	"time"

	approval "github.com/sweepline/sweep/service/approval"
	"github.com/sweepline/sweep/runtime/trial"
	"github.com/sweepline/sweep/service/dao"
	"github.com/sweepline/sweep/service/dao/store"
	"github.com/sweepline/sweep/service/messaging"
	qmem "github.com/sweepline/sweep/service/messaging/memory"
)

type service struct {
	trialDao dao.Service[string, trial.Trial]

	// DAO-backed stores
	reqDAO dao.Service[string, approval.Request]
	decDAO dao.Service[string, approval.Decision]

	// fan-out queue
	events messaging.Queue[approval.Event]

	// owning run store (optional, only needed when we want to update the
	// trial embedded in the run after an approval decision).
	runDao dao.Service[string, trial.Run]
}

// key selectors grab the ID field
func reqKey(r *approval.Request) string  { return r.ID }
func decKey(d *approval.Decision) string { return d.ID }

func New(trialDao dao.Service[string, trial.Trial], options ...Option) approval.Service {
	ret := &service{
		trialDao: trialDao,
		reqDAO:   store.NewMemoryStore[string, approval.Request](reqKey),
		decDAO:   store.NewMemoryStore[string, approval.Decision](decKey),
		events:   qmem.NewQueue[approval.Event](qmem.DefaultConfig()),
	}
	for _, option := range options {
		option(ret)
	}
	return ret
}

/* ---------------- DAO-style operations -------------------------------- */

func (s *service) RequestApproval(ctx context.Context, r *approval.Request) error {
	if r == nil {
		return errors.New("invalid request")
	}

	// Ensure the request has a globally unique identifier.  If the caller did
	// not specify one we fallback to TrialID (which is guaranteed to be
	// unique within a run), this keeps the function generic and protects
	// against silent drops caused by empty IDs.
	if r.ID == "" {
		switch {
		case r.TrialID != "":
			r.ID = r.TrialID
		case r.RunID != "":
			r.ID = fmt.Sprintf("%s/%d", r.RunID, time.Now().UnixNano())
		default:
			r.ID = fmt.Sprintf("anon-%d", time.Now().UnixNano())
		}
	}

	// Idempotent save, overwrite any previous copy to handle re-submissions
	// gracefully.
	_ = s.reqDAO.Save(ctx, r)
	_ = s.events.Publish(ctx, &approval.Event{Topic: approval.TopicRequestCreated, Data: r})
	return nil
}

func (s *service) ListPending(ctx context.Context) ([]*approval.Request, error) {
	all, err := s.reqDAO.List(ctx)
	if err != nil {
		return nil, err
	}
	pending := make([]*approval.Request, 0, len(all))
	for _, r := range all {
		if d, _ := s.decDAO.Load(ctx, r.ID); d == nil {
			pending = append(pending, r)
		}
	}
	return pending, nil
}

func (s *service) Decide(ctx context.Context, id string,
	ok bool, reason string) (*approval.Decision, error) {

	if id == "" {
		return nil, errors.New("empty id")
	}
	request, _ := s.reqDAO.Load(ctx, id)
	if request == nil {
		return nil, fmt.Errorf("request %s not found", id)
	}
	if d, _ := s.decDAO.Load(ctx, id); d != nil {
		return nil, fmt.Errorf("already decided")
	}

	// If the service has been initialised with a trial DAO and the request is
	// linked to a concrete trial (TrialID != ""), update the trial so that
	// the scheduler can re-schedule or abandon it accordingly.
	//
	// The DAO is optional because the approval service can also gate ad-hoc
	// evaluations where no trial tracking exists.  In such cases the trial
	// update step is silently skipped.
	if s.trialDao != nil && request.TrialID != "" {
		aTrial, err := s.trialDao.Load(ctx, request.TrialID)
		if err != nil {
			return nil, err
		}

		aTrial.Approved = &ok
		aTrial.ApprovalReason = reason
		if !ok {
			aTrial.Error = fmt.Sprintf("action %s rejected: %s", request.Action, reason)
		} else {
			aTrial.Error = ""
		}
		// Reset the trial state so that the scheduler re-schedules it.
		aTrial.State = trial.StatePending

		if err = s.trialDao.Save(ctx, aTrial); err != nil {
			return nil, err
		}

		// Update the parent run copy so that the scheduler sees the change.
		if s.runDao != nil {
			if aRun, rErr := s.runDao.Load(ctx, request.RunID); rErr == nil && aRun != nil {
				if inRun := aRun.LookupTrial(aTrial.ID); inRun != nil {
					inRun.Approved = aTrial.Approved
					inRun.ApprovalReason = reason
					inRun.State = trial.StatePending
					_ = s.runDao.Save(ctx, aRun)
				}
			}
		}
	}

	d := &approval.Decision{
		ID:        id,
		Approved:  ok,
		Reason:    reason,
		DecidedAt: time.Now(),
	}
	_ = s.decDAO.Save(ctx, d)
	_ = s.events.Publish(ctx, &approval.Event{Topic: approval.TopicDecisionCreated, Data: d})
	return d, nil
}

/* ---------------- Broker-style ---------------------------------------- */

func (s *service) Queue() messaging.Queue[approval.Event] { return s.events }

var _ approval.Service = (*service)(nil)
