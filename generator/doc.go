// Package generator implements the candidate-generation models of the
// engine: quasi-random and uniform space-filling samplers, a Gaussian
// process surrogate driven by acquisition functions, a discrete Thompson
// sampler over observed arms, and a full factorial design.
//
// Models are resolved by name through a Factory and sequenced by a
// Strategy, which switches model once a generation step's trial allotment
// is used up (typically a Sobol warm-up followed by unbounded GPEI).
package generator
