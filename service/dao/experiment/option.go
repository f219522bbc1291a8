package experiment

import "github.com/sweepline/sweep/service/meta"

type Option func(*Service)

// WithParametersNodeKey sets the node key holding the search space
func WithParametersNodeKey(name string) Option {
	return func(s *Service) {
		s.parametersNodeKey = name
	}
}

// WithMetaService sets the meta service
func WithMetaService(meta *meta.Service) Option {
	return func(s *Service) {
		s.metaService = meta
	}
}
