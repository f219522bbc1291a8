// Package messaging defines the queue abstraction the runtime schedules
// trial work through. Implementations live in the memory and fs
// subpackages.
package messaging

import "context"

// Vendor identifies a queue implementation.
type Vendor string

// Queue is a typed message queue.
type Queue[T any] interface {
	// Publish enqueues a payload.
	Publish(ctx context.Context, t *T) error

	// Consume retrieves a single message from the queue.
	Consume(ctx context.Context) (Message[T], error)
}

// Message is a delivered payload awaiting acknowledgement.
type Message[T any] interface {
	// T returns the payload.
	T() *T

	// Ack confirms the message was handled.
	Ack() error

	// Nack reports a processing failure, making the message eligible
	// for redelivery.
	Nack(err error) error
}
