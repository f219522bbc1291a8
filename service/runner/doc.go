// Package runner hosts the workers that evaluate individual trials. Every
// worker consumes items from the queue owned by the scheduler and updates
// the trial state so that the scheduler can decide what to generate next.
package runner
