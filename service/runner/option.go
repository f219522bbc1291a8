package runner

import (
	"github.com/sweepline/sweep/runtime/trial"
	"github.com/sweepline/sweep/service/dao"
	"github.com/sweepline/sweep/service/evaluator"
	"github.com/sweepline/sweep/service/messaging"
)

// Option customises the runner service.
type Option func(*Service)

// WithRunDAO sets the run store implementation
func WithRunDAO(runDAO dao.Service[string, trial.Run]) Option {
	return func(s *Service) {
		s.runDAO = runDAO
	}
}

// WithTrialDAO sets the trial store implementation
func WithTrialDAO(trialDAO dao.Service[string, trial.Trial]) Option {
	return func(s *Service) {
		s.trialDAO = trialDAO
	}
}

// WithMessageQueue sets the message queue implementation
func WithMessageQueue(queue messaging.Queue[trial.Trial]) Option {
	return func(s *Service) {
		s.queue = queue
	}
}

// WithEvaluator sets the trial evaluator for the service
func WithEvaluator(evaluator evaluator.Service) Option {
	return func(s *Service) {
		s.evaluator = evaluator
	}
}

// WithWorkers sets the number of worker goroutines
func WithWorkers(count int) Option {
	return func(s *Service) {
		s.config.WorkerCount = count
	}
}

// WithConfig sets the configuration for the service
func WithConfig(config Config) Option {
	return func(s *Service) {
		s.config = config
	}
}
