// Package idgen wraps identifier generation so tests can stub it. Callers
// must treat the identifiers as opaque strings.
package idgen
