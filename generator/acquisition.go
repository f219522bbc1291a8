package generator

import (
	"math"
	"math/rand"
)

// AcquisitionParams carries the knobs shared by the acquisition functions.
type AcquisitionParams struct {
	// Beta weights exploration in UCB; higher favors uncertain regions.
	Beta float64

	// Xi is the minimum improvement margin for EI and PI.
	Xi float64

	// BestSoFar is the best observed objective value (maximization scale).
	BestSoFar float64

	// Rand drives Thompson sampling draws.
	Rand *rand.Rand
}

// AcquisitionFunc scores a candidate from its posterior mean and variance;
// higher scores are selected first. All functions operate on the
// maximization scale: minimizing objectives are negated before modeling.
type AcquisitionFunc func(mean, variance float64, params AcquisitionParams) float64

// UCB is the upper confidence bound: mean plus Beta standard deviations.
func UCB(mean, variance float64, params AcquisitionParams) float64 {
	return mean + params.Beta*math.Sqrt(variance)
}

// ProbabilityOfImprovement scores the chance of beating BestSoFar by Xi.
func ProbabilityOfImprovement(mean, variance float64, params AcquisitionParams) float64 {
	sigma := math.Sqrt(variance)
	if sigma == 0 {
		if mean > params.BestSoFar+params.Xi {
			return 1
		}
		return 0
	}
	z := (mean - params.BestSoFar - params.Xi) / sigma
	return normalCDF(z)
}

// ExpectedImprovement scores both the probability and the magnitude of an
// improvement over BestSoFar.
func ExpectedImprovement(mean, variance float64, params AcquisitionParams) float64 {
	sigma := math.Sqrt(variance)
	improvement := mean - params.BestSoFar - params.Xi
	if sigma == 0 {
		if improvement > 0 {
			return improvement
		}
		return 0
	}
	z := improvement / sigma
	return improvement*normalCDF(z) + sigma*normalPDF(z)
}

// ThompsonSampling draws one sample from the posterior at the candidate.
func ThompsonSampling(mean, variance float64, params AcquisitionParams) float64 {
	return mean + math.Sqrt(variance)*params.Rand.NormFloat64()
}

func normalCDF(x float64) float64 {
	return 0.5 * (1.0 + math.Erf(x/math.Sqrt2))
}

func normalPDF(x float64) float64 {
	return math.Exp(-x*x/2.0) / math.Sqrt(2.0*math.Pi)
}
