package ghostkv

import "github.com/ghostmrc/gcache/ghost"

// Sampled wraps a Cache, admitting only accesses whose key hash has
// SampleShift high-order zero bits, scaling tick/min_count/max_count
// down by the same shift exactly as ghost.Sampled.
type Sampled struct {
	shift uint32
	inner *Cache
}

// NewSampled builds a sampled ghost KV cache. tick, minCount and
// maxCount must each be divisible by 2^shift.
func NewSampled(shift, tick, minCount, maxCount uint32) *Sampled {
	if shift >= 32 {
		panic("ghostkv: SampleShift must be < 32")
	}
	div := uint64(1) << shift
	if uint64(tick)%div != 0 || uint64(minCount)%div != 0 || uint64(maxCount)%div != 0 {
		panic("ghostkv: sampled parameters must be divisible by 2^SampleShift")
	}
	return &Sampled{
		shift: shift,
		inner: New(tick>>shift, minCount>>shift, maxCount>>shift),
	}
}

func (s *Sampled) admit(keyHash uint32) bool {
	if s.shift == 0 {
		return true
	}
	return keyHash>>(32-s.shift) == 0
}

// Access admits keyHash through the sample filter before delegating to
// the underlying shrunk cache.
func (s *Sampled) Access(keyHash, kvSize uint32, mode ghost.Mode) {
	if !s.admit(keyHash) {
		return
	}
	s.inner.Access(keyHash, kvSize, mode)
}

// UpdateSize delegates without sampling: a size update is not a ghost
// access and carries no admission decision.
func (s *Sampled) UpdateSize(keyHash, newKVSize uint32) { s.inner.UpdateSize(keyHash, newKVSize) }

// Stat scales count down by the sample shift before querying the
// underlying cache.
func (s *Sampled) Stat(count uint32) ghost.CacheStat { return s.inner.Stat(count >> s.shift) }

func (s *Sampled) ResetStat() { s.inner.ResetStat() }

// CacheStatCurve scales the underlying cache's curve back up by
// SampleShift before returning it, exactly as MinCount/MaxCount/Tick
// scale their own parameters: EntryCount is an extrapolated real-space
// entry count, and ByteSize is extrapolated the same way (the sampled
// cache only observes the byte size of the 1-in-2^SampleShift admitted
// entries, so the same scaling factor estimates the real-space total).
func (s *Sampled) CacheStatCurve() []CurvePoint {
	curve := s.inner.CacheStatCurve()
	scaled := make([]CurvePoint, len(curve))
	for i, p := range curve {
		scaled[i] = CurvePoint{
			EntryCount: p.EntryCount << s.shift,
			ByteSize:   p.ByteSize << s.shift,
			Stat:       p.Stat,
		}
	}
	return scaled
}

func (s *Sampled) MinCount() uint32    { return s.inner.minSize << s.shift }
func (s *Sampled) MaxCount() uint32    { return s.inner.maxSize << s.shift }
func (s *Sampled) Tick() uint32        { return s.inner.tick << s.shift }
func (s *Sampled) SampleShift() uint32 { return s.shift }
