// Package scheduler drives the optimization loop.  A polling goroutine walks
// the running runs, folds completed trial outcomes back into the generation
// strategy and tops each run up with fresh candidate trials until the trial
// budget is spent.  Evaluation itself happens elsewhere - trials are handed
// to the runner via the shared message queue.
package scheduler
