package extension

import (
	"sync"

	"github.com/sweepline/sweep/model/types"
	"github.com/viant/x"
)

// DataTypeIniter lets a service contribute types to the registry when it is
// registered.
type DataTypeIniter interface {
	InitTypes(types *Types)
}

// Evaluators provides the evaluator service registry
type Evaluators struct {
	types    *Types
	services map[string]types.Service
	mux      sync.RWMutex
}

func (s *Evaluators) Types() *Types {
	return s.types
}

// Lookup returns a service by name
func (s *Evaluators) Lookup(name string) types.Service {
	s.mux.RLock()
	defer s.mux.RUnlock()
	return s.services[name]
}

// Register registers a service
func (s *Evaluators) Register(service types.Service) {
	s.mux.Lock()
	defer s.mux.Unlock()

	if typer, ok := service.(DataTypeIniter); ok {
		typer.InitTypes(s.types)
	}
	s.services[service.Name()] = service
}

// NewEvaluators creates a new evaluator service registry
func NewEvaluators(goTypes ...*x.Type) *Evaluators {
	ret := &Evaluators{
		types:    NewTypes(),
		services: make(map[string]types.Service),
	}
	for _, t := range goTypes {
		if t != nil {
			ret.types.Register(t)
		}
	}
	return ret
}
