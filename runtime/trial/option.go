package trial

import (
	"github.com/sweepline/sweep/extension"
	"github.com/sweepline/sweep/model"
	"github.com/viant/structology/conv"
)

type Option func(session *Session)

// WithImports registers type aliases for session value conversion
func WithImports(imports ...*model.Import) Option {
	return func(session *Session) {
		session.imports = append(session.imports, imports...)
	}
}

// WithTypes sets the type registry for the session
func WithTypes(types *extension.Types) Option {
	return func(session *Session) {
		session.types = types
	}
}

// WithConverter sets the converter for the session
func WithConverter(converter *conv.Converter) Option {
	return func(session *Session) {
		session.converter = converter
	}
}

func WithState(state map[string]interface{}) Option {
	return func(session *Session) {
		for k, v := range state {
			session.State[k] = v
		}
	}
}

// WithStateListeners attaches listeners to the created session.
// The slice is copied; callers can reuse their backing array.
func WithStateListeners(listeners ...StateListener) Option {
	return func(session *Session) {
		if len(listeners) == 0 {
			return
		}
		session.listeners = append(session.listeners, listeners...)
	}
}
