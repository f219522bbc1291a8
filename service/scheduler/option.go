package scheduler

import (
	"github.com/sweepline/sweep/generator"
	"github.com/sweepline/sweep/service/approval"
)

// Option configures the scheduler service
type Option func(*Service)

// WithGeneratorFactory overrides the generation model factory
func WithGeneratorFactory(factory *generator.Factory) Option {
	return func(s *Service) { s.factory = factory }
}

// WithApprovalService attaches the approval service used to gate trials when
// the run policy mode is "ask"
func WithApprovalService(svc approval.Service) Option {
	return func(s *Service) { s.approval = svc }
}
