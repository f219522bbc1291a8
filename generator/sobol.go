package generator

import (
	"context"
	"fmt"
	"math/bits"
	"math/rand"
	"sync"

	"github.com/sweepline/sweep/model"
)

// sobolPoly carries a primitive polynomial and the initial direction
// numbers for one Sobol dimension (Joe and Kuo table, leading entries).
type sobolPoly struct {
	s int
	a uint32
	m []uint32
}

// sobolTable drives dimensions two and up; dimension one is the van der
// Corput sequence. Dimensions beyond the table fall back to seeded
// uniform draws.
var sobolTable = []sobolPoly{
	{1, 0, []uint32{1}},
	{2, 1, []uint32{1, 3}},
	{3, 1, []uint32{1, 3, 1}},
	{3, 2, []uint32{1, 1, 1}},
	{4, 1, []uint32{1, 1, 3, 3}},
	{4, 4, []uint32{1, 3, 5, 13}},
	{5, 2, []uint32{1, 1, 5, 5, 17}},
	{5, 4, []uint32{1, 1, 5, 5, 5}},
	{5, 7, []uint32{1, 1, 7, 11, 19}},
	{5, 11, []uint32{1, 1, 5, 1, 1}},
	{5, 13, []uint32{1, 1, 1, 3, 11}},
	{5, 14, []uint32{1, 3, 5, 5, 31}},
	{6, 1, []uint32{1, 3, 3, 9, 7, 49}},
	{6, 13, []uint32{1, 1, 1, 15, 21, 21}},
	{6, 16, []uint32{1, 3, 1, 13, 27, 49}},
	{6, 19, []uint32{1, 1, 1, 15, 7, 5}},
	{6, 22, []uint32{1, 3, 1, 15, 13, 25}},
	{6, 25, []uint32{1, 1, 5, 5, 19, 61}},
	{7, 1, []uint32{1, 3, 7, 11, 23, 15, 103}},
	{7, 4, []uint32{1, 3, 7, 13, 13, 15, 69}},
}

const sobolBits = 32

// sobolSequence is a gray-code Sobol sequence over the unit hypercube with
// an optional seeded digital shift (scrambling).
type sobolSequence struct {
	dimension int
	index     uint32
	state     []uint32
	shift     []uint32
	direction [][]uint32
	fallback  *rand.Rand
}

func newSobolSequence(dimension int, seed int64, scramble bool) *sobolSequence {
	ret := &sobolSequence{
		dimension: dimension,
		state:     make([]uint32, dimension),
		shift:     make([]uint32, dimension),
		direction: make([][]uint32, dimension),
		fallback:  newRand(seed),
	}
	for d := 0; d < dimension; d++ {
		ret.direction[d] = directionNumbers(d)
	}
	if scramble {
		rnd := newRand(seed)
		for d := range ret.shift {
			ret.shift[d] = rnd.Uint32()
		}
	}
	return ret
}

// directionNumbers computes the 32 direction numbers of dimension d, or nil
// when d exceeds the table.
func directionNumbers(d int) []uint32 {
	v := make([]uint32, sobolBits)
	if d == 0 {
		for i := 0; i < sobolBits; i++ {
			v[i] = 1 << (31 - i)
		}
		return v
	}
	if d-1 >= len(sobolTable) {
		return nil
	}
	poly := sobolTable[d-1]
	for i := 0; i < poly.s; i++ {
		v[i] = poly.m[i] << (31 - i)
	}
	for i := poly.s; i < sobolBits; i++ {
		v[i] = v[i-poly.s] ^ (v[i-poly.s] >> poly.s)
		for k := 1; k < poly.s; k++ {
			if (poly.a>>(poly.s-1-k))&1 == 1 {
				v[i] ^= v[i-k]
			}
		}
	}
	return v
}

// Next returns the next point of the sequence.
func (s *sobolSequence) Next() []float64 {
	c := bits.TrailingZeros32(^s.index)
	point := make([]float64, s.dimension)
	for d := 0; d < s.dimension; d++ {
		if s.direction[d] == nil {
			point[d] = s.fallback.Float64()
			continue
		}
		s.state[d] ^= s.direction[d][c]
		point[d] = float64(s.state[d]^s.shift[d]) / (1 << 32)
	}
	s.index++
	return point
}

// Skip advances the sequence without producing points.
func (s *sobolSequence) Skip(n int) {
	for i := 0; i < n; i++ {
		s.Next()
	}
}

// Sobol generates quasi-random arms spread evenly over the search space.
type Sobol struct {
	space       *model.SearchSpace
	axes        []axis
	sequence    *sobolSequence
	deduplicate bool
	seen        signatureSet
	mu          sync.Mutex
}

// SobolOption customizes a Sobol generator.
type SobolOption func(*sobolOptions)

type sobolOptions struct {
	seed        int64
	scramble    bool
	deduplicate bool
	initPoint   int
}

// WithSobolSeed seeds the digital shift and the high-dimension fallback.
func WithSobolSeed(seed int64) SobolOption {
	return func(o *sobolOptions) { o.seed = seed }
}

// WithSobolScramble enables a seeded digital shift of the sequence.
func WithSobolScramble(scramble bool) SobolOption {
	return func(o *sobolOptions) { o.scramble = scramble }
}

// WithSobolDeduplicate suppresses arms whose signature was already
// generated or observed.
func WithSobolDeduplicate(deduplicate bool) SobolOption {
	return func(o *sobolOptions) { o.deduplicate = deduplicate }
}

// WithSobolInitPosition skips the first n points of the sequence.
func WithSobolInitPosition(n int) SobolOption {
	return func(o *sobolOptions) { o.initPoint = n }
}

// NewSobol creates a Sobol generator over the supplied space.
func NewSobol(space *model.SearchSpace, opts ...SobolOption) *Sobol {
	options := &sobolOptions{scramble: true}
	for _, opt := range opts {
		opt(options)
	}
	axes := tunableAxes(space)
	ret := &Sobol{
		space:       space,
		axes:        axes,
		sequence:    newSobolSequence(len(axes), options.seed, options.scramble),
		deduplicate: options.deduplicate,
		seen:        signatureSet{},
	}
	if options.initPoint > 0 {
		ret.sequence.Skip(options.initPoint)
	}
	return ret
}

// Name returns the registered model name.
func (g *Sobol) Name() string { return ModelSobol }

// Generate proposes count arms, skipping constraint violations and, when
// deduplication is on, previously seen parameterizations.
func (g *Sobol) Generate(ctx context.Context, count int) ([]*model.Arm, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	ret := make([]*model.Arm, 0, count)
	attempts := 0
	maxAttempts := maxDrawAttempts(count)
	for len(ret) < count && attempts < maxAttempts {
		attempts++
		point := pointFromUnit(g.space, g.axes, g.sequence.Next())
		if !satisfiesConstraints(g.space, point) {
			continue
		}
		arm := model.NewArm(point)
		if g.deduplicate && !g.seen.add(arm) {
			continue
		}
		ret = append(ret, arm)
	}
	if len(ret) < count {
		return ret, fmt.Errorf("sobol produced %d of %d distinct feasible arms after %d draws", len(ret), count, attempts)
	}
	return ret, nil
}

// Update records observed arms so deduplication covers them.
func (g *Sobol) Update(ctx context.Context, observations []*model.Observation) error {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.seen.addObservations(observations)
	return nil
}

func maxDrawAttempts(count int) int {
	if count < 1 {
		count = 1
	}
	return 100 * count
}
