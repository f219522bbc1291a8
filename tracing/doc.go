// Package tracing wires OpenTelemetry spans around run scheduling and trial
// evaluation.  The wrapper keeps otel imports out of the engine packages; a
// process that never calls Init gets no-op spans.
package tracing
