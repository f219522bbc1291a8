package generator

import (
	"math"
	"sync"
)

// gaussianProcess is a lightweight Gaussian-process regressor with an RBF
// kernel. Predictions use kernel-weighted averaging over the observed
// points, which keeps updates O(1) and predictions O(n^2) without a
// Cholesky factorization. Safe for concurrent use.
type gaussianProcess struct {
	mu    sync.RWMutex
	x     [][]float64
	y     []float64
	sigma float64
}

func newGaussianProcess() *gaussianProcess {
	return &gaussianProcess{sigma: 1.0}
}

// kernel is the radial basis function exp(-|x1-x2|^2 / (2 sigma^2)).
func (gp *gaussianProcess) kernel(x1, x2 []float64, sigma float64) float64 {
	var sum float64
	for i := range x1 {
		diff := x1[i] - x2[i]
		sum += diff * diff
	}
	return math.Exp(-sum / (2 * sigma * sigma))
}

// Predict returns the posterior mean and variance at x. With no
// observations the prior (0, 1) is returned.
func (gp *gaussianProcess) Predict(x []float64) (mean, variance float64) {
	gp.mu.RLock()
	defer gp.mu.RUnlock()
	if len(gp.x) == 0 {
		return 0, 1
	}
	k := make([]float64, len(gp.x))
	var kSum float64
	for i := range gp.x {
		k[i] = gp.kernel(x, gp.x[i], gp.sigma)
		kSum += k[i]
	}
	var sum float64
	for i := range gp.x {
		sum += k[i] * gp.y[i]
	}
	mean = sum / float64(len(gp.x))
	variance = 1.0
	for i := range k {
		variance -= k[i] * kSum / float64(len(gp.x))
	}
	if variance < 0 {
		variance = 0
	}
	return mean, variance
}

// Update appends an observation. The input vector is copied.
func (gp *gaussianProcess) Update(x []float64, y float64) {
	gp.mu.Lock()
	defer gp.mu.Unlock()
	point := make([]float64, len(x))
	copy(point, x)
	gp.x = append(gp.x, point)
	gp.y = append(gp.y, y)
}

// Len returns the number of observations the model holds.
func (gp *gaussianProcess) Len() int {
	gp.mu.RLock()
	defer gp.mu.RUnlock()
	return len(gp.x)
}

// Best returns the largest observed value, or false when empty.
func (gp *gaussianProcess) Best() (float64, bool) {
	gp.mu.RLock()
	defer gp.mu.RUnlock()
	if len(gp.y) == 0 {
		return 0, false
	}
	best := gp.y[0]
	for _, v := range gp.y[1:] {
		if v > best {
			best = v
		}
	}
	return best, true
}

// SetSigma sets the kernel width. Larger values smooth the surrogate.
func (gp *gaussianProcess) SetSigma(sigma float64) {
	gp.mu.Lock()
	defer gp.mu.Unlock()
	gp.sigma = sigma
}
