package extension

import (
	"fmt"
	"reflect"
	"strings"

	"github.com/viant/x"

	"github.com/sweepline/sweep/model"
)

// Types resolves evaluation payload type names to Go types. It wraps an
// x.Registry and tracks package imports so short names like
// "exec.Output" resolve to their registered package path.
type Types struct {
	x.Registry
	imports model.Imports
}

// NewTypes creates an empty type registry.
func NewTypes(options ...x.RegistryOption) *Types {
	return &Types{Registry: *x.NewRegistry(options...)}
}

// Register adds a type and records its package as an import.
func (t *Types) Register(dataType *x.Type) {
	if dataType.PkgPath != "" {
		if idx := strings.LastIndex(dataType.PkgPath, "/"); idx > 0 {
			pkgPath := dataType.PkgPath[:idx]
			if !t.imports.HasPkgPath(pkgPath) {
				t.imports = append(t.imports, &model.Import{Package: dataType.PkgPath[idx+1:], PkgPath: dataType.PkgPath})
			}
		}
	}
	t.Registry.Register(dataType)
}

// Lookup resolves a type name, honoring slice and map modifiers such as
// "[]exec.Output" or "map[string]float64". Returns nil for unknown types.
func (t *Types) Lookup(dataType string, options ...Option) *x.Type {
	scoped := &Types{imports: t.imports}
	for _, opt := range options {
		opt(scoped)
	}

	modifier := ""
	if idx := strings.LastIndex(dataType, "]"); idx != -1 {
		modifier = dataType[:idx+1]
		dataType = dataType[idx+1:]
	}
	if idx := strings.LastIndex(dataType, "."); idx != -1 {
		pkg, typeName := dataType[:idx], dataType[idx+1:]
		if pkgPath := scoped.imports.PkgPath(pkg); pkgPath != "" {
			pkg = pkgPath
		}
		dataType = fmt.Sprintf("%s.%s", pkg, typeName)
	}

	resolved := t.Registry.Lookup(dataType)
	if resolved == nil {
		return nil
	}
	rType := resolved.Type
	switch strings.TrimSpace(modifier) {
	case "[]":
		rType = reflect.SliceOf(rType)
	case "[][]":
		rType = reflect.SliceOf(reflect.SliceOf(rType))
	case "map[string]":
		rType = reflect.MapOf(reflect.TypeOf(""), rType)
	case "map[string][]":
		rType = reflect.MapOf(reflect.TypeOf(""), reflect.SliceOf(rType))
	}
	if rType != resolved.Type {
		return x.NewType(rType)
	}
	return resolved
}

// Imports returns the packages registered so far.
func (t *Types) Imports() model.Imports {
	return t.imports
}
