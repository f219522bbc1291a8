package trial

import (
	"fmt"
	"reflect"
	"sync"

	"github.com/sweepline/sweep/extension"
	"github.com/sweepline/sweep/model"
	"github.com/sweepline/sweep/runtime/expander"
	"github.com/viant/structology/conv"
)

// Session holds the mutable key/value state of a run: seeded inputs, values
// published by evaluator services and anything the caller injects at start.
type Session struct {
	ID        string
	State     map[string]interface{}
	types     *extension.Types
	imports   model.Imports
	converter *conv.Converter
	mu        sync.RWMutex
	listeners []StateListener // invoked on Set
}

// StateListener is invoked every time Session.Set overwrites an existing key
// or inserts a new one.
type StateListener func(s *Session, key string, oldVal, newVal interface{})

// RegisterListeners attaches a callback that will be called on every Set.
// The call is made synchronously, therefore listeners MUST return quickly
// and must not call back into Session to avoid deadlocks.
func (s *Session) RegisterListeners(fn ...StateListener) {
	if fn == nil {
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.listeners = append(s.listeners, fn...)
}

// Set adds or updates a value in the session
func (s *Session) Set(key string, value interface{}) {
	s.mu.Lock()
	old := s.State[key]
	s.State[key] = value
	s.mu.Unlock()

	for _, fn := range s.listeners {
		fn(s, key, old, value)
	}
}

// Get retrieves a value from the session
func (s *Session) Get(key string) (interface{}, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	value, exists := s.State[key]
	return value, exists
}

// GetString retrieves a value as a string
func (s *Session) GetString(key string) (string, bool) {
	value, exists := s.Get(key)
	if !exists {
		return "", false
	}
	strVal, ok := value.(string)
	return strVal, ok
}

// GetInt retrieves a value as an integer
func (s *Session) GetInt(key string) (int, bool) {
	value, exists := s.Get(key)
	if !exists {
		return 0, false
	}
	intVal, ok := value.(int)
	return intVal, ok
}

// TrialSession derives a session seeded with trial scoped values such as the
// arm parameters; run state remains visible unless shadowed.
func (s *Session) TrialSession(from map[string]interface{}, options ...Option) *Session {
	ret := NewSession(s.ID, options...)

	if len(s.listeners) > 0 {
		ret.listeners = s.listeners
	}
	for k, v := range from {
		ret.State[k] = v
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	for k, v := range s.State {
		if _, ok := ret.State[k]; ok {
			continue
		}
		ret.State[k] = v
	}
	return ret
}

// Expand expands a value using the session state
func (s *Session) Expand(value interface{}) (interface{}, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return expander.Expand(value, s.State)
}

// Clone creates a copy of the session
func (s *Session) Clone() *Session {
	s.mu.RLock()
	defer s.mu.RUnlock()

	clone := NewSession(s.ID)
	clone.listeners = append(clone.listeners, s.listeners...)
	clone.types = s.types
	clone.imports = s.imports
	for k, v := range s.State {
		clone.State[k] = v
	}
	return clone
}

// GetAll returns a copy of the session state
func (s *Session) GetAll() map[string]interface{} {
	s.mu.RLock()
	defer s.mu.RUnlock()

	result := make(map[string]interface{}, len(s.State))
	for k, v := range s.State {
		result[k] = v
	}
	return result
}

// EnsureValueType converts a raw value into the named registered type.
func (s *Session) EnsureValueType(dataType string, value interface{}) (interface{}, error) {
	if dataType == "" {
		return value, nil
	}
	if s.types == nil {
		return nil, fmt.Errorf("types not initialized")
	}
	aType := s.types.Lookup(dataType, extension.WithImports(s.imports))
	if aType == nil {
		return nil, fmt.Errorf("type %v not registered", dataType)
	}
	return s.TypedValue(aType.Type, value)
}

// TypedValue converts a value to the specified type
func (s *Session) TypedValue(aType reflect.Type, value interface{}) (interface{}, error) {
	if s.converter == nil {
		s.converter = conv.NewConverter(conv.DefaultOptions())
	}
	instance := newInstancePtr(aType)
	err := s.converter.Convert(value, instance)
	if aType.Kind() == reflect.Slice {
		instance = reflect.ValueOf(instance).Elem().Interface()
	}
	return instance, err
}

// NewSession creates a new session
func NewSession(id string, opt ...Option) *Session {
	ret := &Session{
		ID:    id,
		State: make(map[string]interface{}),
	}
	for _, o := range opt {
		o(ret)
	}
	if len(ret.imports) == 0 && ret.types != nil {
		ret.imports = ret.types.Imports()
	}
	return ret
}

var empty interface{}

// newInstancePtr creates a new instance pointer of the given type
func newInstancePtr(t reflect.Type) interface{} {
	if t == nil {
		return empty
	}
	if t.Kind() == reflect.Ptr {
		t = t.Elem()
	}
	return reflect.New(t).Interface()
}
