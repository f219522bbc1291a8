// Package progress reports on a run as it executes: counters for
// generated, evaluated and failed trials, plus the best objective value
// observed so far. Updates flow through a Tracker attached to the context,
// so callers consume them the same way whether they arrive from in-memory
// channels or external observers.
package progress
