// Package types defines the contract evaluation services implement to be
// callable from a run.
package types

// Service exposes a named set of evaluation methods.
type Service interface {
	Name() string
	Methods() Signatures
	Method(name string) (Executable, error)
}

// Proxy wraps a service, typically to gate its methods behind approval.
type Proxy func(base Service) Service
