package extension

import "github.com/sweepline/sweep/model"

// Option scopes a type lookup.
type Option func(*Types)

// WithImports overrides the import set used to resolve package aliases.
func WithImports(imports model.Imports) Option {
	return func(t *Types) {
		t.imports = imports
	}
}
