package memory

import (
	"github.com/sweepline/sweep/runtime/trial"
	"github.com/sweepline/sweep/service/dao"
)

type Option func(*service)

// WithRunDAO allows the approval service to update the parent run when a
// decision is made.  The scheduler then notices the changed trial state and
// re-schedules or abandons it accordingly.
func WithRunDAO(dao dao.Service[string, trial.Run]) Option {
	return func(s *service) { s.runDao = dao }
}
