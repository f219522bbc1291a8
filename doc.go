// Package sweep provides a generic, extensible adaptive experimentation
// engine.
//
// The engine optimizes experiments defined declaratively (for example in
// YAML) and comes with pluggable service layers such as:
//
//   - generator: candidate generation models (Sobol, GP, Thompson, ...)
//   - scheduler: trial allocation and run state management
//   - runner:    trial evaluation through custom services
//   - approval:  optional human-in-the-loop trial approval
//
// Sweep is designed to be embedded in host applications.  End-users
// typically interact with the engine via the high-level Service façade
// exposed by the root package:
//
//	srv := sweep.New()
//	rt  := srv.Runtime()
//	exp, _ := rt.LoadExperiment(ctx, "experiment.yaml")
//	_, wait, _ := rt.StartRun(ctx, exp, nil)
//	out, _ := wait(ctx, time.Minute)
//
// For more details see the README and individual sub-packages.
package sweep
