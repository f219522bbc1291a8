// Package extension provides run-time registries that allow the engine to
// work with user-defined Go types (for example custom evaluator inputs or
// outputs).
//
// The registries are normally modified through the public APIs under the
// root sweep package, therefore most applications do not need to import
// this package directly.
package extension
