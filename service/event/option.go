package event

import (
	"github.com/sweepline/sweep/service/messaging/fs"
	"github.com/sweepline/sweep/service/messaging/memory"
)

// Option customizes the event service.
type Option func(s *Service)

// WithNewFsQueueConfig supplies per-queue filesystem configuration.
func WithNewFsQueueConfig(newConfig func(name string) fs.Config) Option {
	return func(s *Service) {
		s.fsNewQueueConfig = newConfig
	}
}

// WithNewMemoryQueueConfig supplies per-queue memory configuration.
func WithNewMemoryQueueConfig(newConfig func(name string) memory.Config) Option {
	return func(s *Service) {
		s.memNewQueueConfig = newConfig
	}
}
