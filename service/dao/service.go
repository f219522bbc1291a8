// Package dao defines the persistence contract for runs, trials and
// experiment definitions.
package dao

import "context"

// Service is a generic store of *T entities keyed by K.
type Service[K comparable, T any] interface {
	Save(ctx context.Context, t *T) error

	Load(ctx context.Context, id K) (*T, error)

	Delete(ctx context.Context, id K) error

	List(ctx context.Context, parameters ...*Parameter) ([]*T, error)
}
