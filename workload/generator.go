// Package workload generates synthetic access-key sequences for driving
// the ghost cache benchmark tool: sequential, uniform, and Zipfian,
// ported from the upstream gcache benchmark harness's workload.h.
package workload

import (
	"math"
	"math/rand"
)

// Generator produces a bounded stream of keys in [0, n).
type Generator interface {
	// Next returns the next key in the sequence.
	Next() uint64
}

// Seq cycles through [0, n) in order, wrapping back to 0 after n-1.
type Seq struct {
	n   uint64
	idx uint64
}

// NewSeq builds a sequential generator over [0, n).
func NewSeq(n uint64) *Seq {
	if n == 0 {
		panic("workload: n must be > 0")
	}
	return &Seq{n: n}
}

func (g *Seq) Next() uint64 {
	v := g.idx % g.n
	g.idx++
	return v
}

// Unif draws uniformly at random from [0, n).
type Unif struct {
	n   uint64
	rng *rand.Rand
}

// NewUnif builds a uniform generator over [0, n) seeded with seed.
func NewUnif(n uint64, seed int64) *Unif {
	if n == 0 {
		panic("workload: n must be > 0")
	}
	return &Unif{n: n, rng: rand.New(rand.NewSource(seed))}
}

func (g *Unif) Next() uint64 {
	return uint64(g.rng.Int63n(int64(g.n)))
}

// Zipf draws from [0, n) under a Zipfian distribution with skew theta,
// using the rejection-free inversion method from the upstream harness's
// ZipfGenerator rather than the standard library's rand.Zipf (which
// parameterizes skew differently and does not match the upstream
// library's theta convention).
type Zipf struct {
	n     uint64
	theta float64
	denom float64
	eta   float64
	alpha float64
	rng   *rand.Rand
}

// NewZipf builds a Zipfian generator over [0, n) with skew theta in
// [0, 1), seeded with seed.
func NewZipf(n uint64, theta float64, seed int64) *Zipf {
	if n == 0 {
		panic("workload: n must be > 0")
	}
	if theta < 0 || theta >= 1 {
		panic("workload: theta must be in [0, 1)")
	}
	denom := zeta(n, theta)
	eta := (1 - math.Pow(2.0/float64(n), 1-theta)) / (1 - zeta(2, theta)/denom)
	return &Zipf{
		n:     n,
		theta: theta,
		denom: denom,
		eta:   eta,
		alpha: 1.0 / (1.0 - theta),
		rng:   rand.New(rand.NewSource(seed)),
	}
}

func zeta(n uint64, theta float64) float64 {
	var sum float64
	for i := uint64(1); i <= n; i++ {
		sum += math.Pow(1.0/float64(i), theta)
	}
	return sum
}

func (g *Zipf) Next() uint64 {
	u := g.rng.Float64()
	uz := u * g.denom
	if uz < 1.0 {
		return 0
	}
	if uz < 1.0+math.Pow(0.5, g.theta) {
		return 1
	}
	v := float64(g.n) * math.Pow(g.eta*u-g.eta+1, g.alpha)
	return uint64(v)
}

// Take draws count keys from g into a freshly allocated slice.
func Take(g Generator, count int) []uint64 {
	out := make([]uint64, count)
	for i := range out {
		out[i] = g.Next()
	}
	return out
}
