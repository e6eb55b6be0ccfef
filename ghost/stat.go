package ghost

import "math"

// CacheStat is the hit/miss count a ghost cache has accumulated at one
// candidate cache size.
type CacheStat struct {
	HitCount  uint64
	MissCount uint64
}

// AccessCount is HitCount + MissCount.
func (s CacheStat) AccessCount() uint64 { return s.HitCount + s.MissCount }

// HitRate is HitCount / AccessCount, or NaN if AccessCount is zero.
// Callers rendering an MRC should skip points where this is NaN rather
// than plot an undefined ratio.
func (s CacheStat) HitRate() float64 {
	acc := s.AccessCount()
	if acc == 0 {
		return math.NaN()
	}
	return float64(s.HitCount) / float64(acc)
}

// MissRate is MissCount / AccessCount, or NaN if AccessCount is zero.
func (s CacheStat) MissRate() float64 {
	acc := s.AccessCount()
	if acc == 0 {
		return math.NaN()
	}
	return float64(s.MissCount) / float64(acc)
}
