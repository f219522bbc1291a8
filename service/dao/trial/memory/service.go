package memory

import (
	"context"
	"sync"

	"github.com/sweepline/sweep/runtime/trial"
	"github.com/sweepline/sweep/service/dao"
)

// Service implements an in-memory trial storage.  All operations are
// thread-safe and return copies of the underlying objects to prevent data
// races when callers mutate the returned instances.
type Service struct {
	trials map[string]*trial.Trial
	mux    sync.RWMutex
}

// Compile-time check that Service implements the generic DAO interface.
var _ dao.Service[string, trial.Trial] = (*Service)(nil)

// Save persists (a clone of) the supplied trial.
func (s *Service) Save(_ context.Context, t *trial.Trial) error {
	if t == nil {
		return dao.ErrNilEntity
	}
	if t.ID == "" {
		return dao.ErrInvalidID
	}

	s.mux.Lock()
	defer s.mux.Unlock()

	s.trials[t.ID] = t.Clone()
	return nil
}

// Load retrieves a copy of the trial or dao.ErrNotFound.
func (s *Service) Load(_ context.Context, id string) (*trial.Trial, error) {
	if id == "" {
		return nil, dao.ErrInvalidID
	}

	s.mux.RLock()
	t, ok := s.trials[id]
	s.mux.RUnlock()

	if !ok {
		return nil, dao.ErrNotFound
	}
	return t.Clone(), nil
}

// Delete removes a trial.
func (s *Service) Delete(_ context.Context, id string) error {
	if id == "" {
		return dao.ErrInvalidID
	}

	s.mux.Lock()
	defer s.mux.Unlock()

	if _, ok := s.trials[id]; !ok {
		return dao.ErrNotFound
	}
	delete(s.trials, id)
	return nil
}

// List returns copies of all trials.  Parameter filtering is not implemented
// for the in-memory store.
func (s *Service) List(_ context.Context, _ ...*dao.Parameter) ([]*trial.Trial, error) {
	s.mux.RLock()
	defer s.mux.RUnlock()

	out := make([]*trial.Trial, 0, len(s.trials))
	for _, t := range s.trials {
		out = append(out, t.Clone())
	}
	return out, nil
}

// New constructor.
func New() *Service {
	return &Service{trials: map[string]*trial.Trial{}}
}
