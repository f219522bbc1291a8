package event

import (
	"context"
	"log"
)

// Listener runs a handler for every event a publisher delivers.
type Listener[T any] struct {
	publisher *Publisher[T]
	handler   func(*Event[T])
	ctx       context.Context
	cancel    context.CancelFunc
}

// NewListener creates a stopped listener, call Start to begin consuming.
func NewListener[T any](publisher *Publisher[T], handler func(*Event[T])) *Listener[T] {
	ctx, cancel := context.WithCancel(context.Background())
	return &Listener[T]{
		publisher: publisher,
		handler:   handler,
		ctx:       ctx,
		cancel:    cancel,
	}
}

// Stop ends the consume loop.
func (l *Listener[T]) Stop() {
	l.cancel()
}

// Start consumes events in a background goroutine until Stop is called.
func (l *Listener[T]) Start() {
	go func() {
		for {
			anEvent, err := l.publisher.Consume(l.ctx)
			if l.ctx.Err() != nil {
				return
			}
			if err != nil {
				log.Printf("failed to consume event: %v", err)
				continue
			}
			if anEvent == nil {
				continue
			}
			l.handler(anEvent)
		}
	}()
}
