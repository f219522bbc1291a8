package trial

import (
	"context"
	"reflect"

	"github.com/sweepline/sweep/extension"
	"github.com/sweepline/sweep/service/event"
)

// Context represents the execution context of a trial within a run
type Context struct {
	run        *Run
	trial      *Trial
	evaluators *extension.Evaluators
	events     *event.Service
	context.Context
}

var RunKey = KeyOf[*Run]()
var TrialKey = KeyOf[*Trial]()
var evaluatorsKey = KeyOf[*extension.Evaluators]()
var EventKey = KeyOf[*event.Service]()
var ContextKey = KeyOf[*Context]()

// TrialContext returns context with provided run and trial
func (c *Context) TrialContext(run *Run, aTrial *Trial) *Context {
	clone := *c
	clone.run = run
	clone.trial = aTrial
	return &clone
}

func (c *Context) Value(key any) any {
	switch key {
	case RunKey:
		if c.run == nil {
			return nil
		}
		return c.run
	case TrialKey:
		if c.trial == nil {
			return nil
		}
		return c.trial
	case evaluatorsKey:
		if c.evaluators == nil {
			return nil
		}
		return c.evaluators
	case EventKey:
		if c.events == nil {
			return nil
		}
		return c.events
	case ContextKey:
		return c
	}
	return c.Context.Value(key)
}

// ContextValue returns the value of the provided type from the context
func ContextValue[T any](ctx context.Context) T {
	key := KeyOf[T]()
	if value := ctx.Value(key); value != nil {
		return value.(T)
	}
	var t T
	return t
}

// KeyOf returns the reflect.Type of the provided type
func KeyOf[T any]() reflect.Type {
	var a T
	return reflect.TypeOf(a)
}

func NewContext(ctx context.Context, evaluators *extension.Evaluators, service *event.Service) *Context {
	if ctx == nil {
		ctx = context.Background()
	}
	return &Context{
		Context:    ctx,
		evaluators: evaluators,
		events:     service,
	}
}
