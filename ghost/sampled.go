package ghost

import "github.com/ghostmrc/gcache/hash"

// Sampled wraps a Cache, admitting only accesses whose key hash has
// SampleShift high-order zero bits (admission rate 2^-SampleShift), and
// scaling tick/min_size/max_size down by the same shift so the reduced
// working set still spans the same relative candidate sizes. Queries
// scale the requested size back down by the same shift before indexing.
type Sampled[K comparable] struct {
	shift  uint32
	hashFn hash.Func32[K]
	inner  *Cache[K]
}

// NewSampled builds a sampled ghost cache. tick, minSize and maxSize
// must each be divisible by 2^shift, and shift must be < 32 (the hash
// is 32 bits wide); violation is a design-time contract and panics.
func NewSampled[K comparable](shift, tick, minSize, maxSize uint32, hashFn hash.Func32[K]) *Sampled[K] {
	if shift >= 32 {
		panic("ghost: SampleShift must be < 32")
	}
	div := uint64(1) << shift
	if uint64(tick)%div != 0 || uint64(minSize)%div != 0 || uint64(maxSize)%div != 0 {
		panic("ghost: sampled parameters must be divisible by 2^SampleShift")
	}
	return &Sampled[K]{
		shift:  shift,
		hashFn: hashFn,
		inner:  New[K](tick>>shift, minSize>>shift, maxSize>>shift, hashFn),
	}
}

func (s *Sampled[K]) admit(h uint32) bool {
	if s.shift == 0 {
		return true
	}
	return h>>(32-s.shift) == 0
}

// Access admits the key through the sample filter before delegating to
// the underlying shrunk ghost cache; a filtered-out access is a no-op.
func (s *Sampled[K]) Access(key K, mode Mode) {
	if !s.admit(s.hashFn(key)) {
		return
	}
	s.inner.Access(key, mode)
}

// Stat scales size down by the sample shift before querying the
// underlying ghost cache. size must be a multiple of 2^SampleShift.
func (s *Sampled[K]) Stat(size uint32) CacheStat {
	return s.inner.Stat(size >> s.shift)
}

// ResetStat zeroes the underlying histogram.
func (s *Sampled[K]) ResetStat() { s.inner.ResetStat() }

// ForEachLRU calls fn on each sampled key in LRU order.
func (s *Sampled[K]) ForEachLRU(fn func(K)) { s.inner.ForEachLRU(fn) }

// ForEachMRU calls fn on each sampled key in MRU order.
func (s *Sampled[K]) ForEachMRU(fn func(K)) { s.inner.ForEachMRU(fn) }

func (s *Sampled[K]) MinSize() uint32     { return s.inner.minSize << s.shift }
func (s *Sampled[K]) MaxSize() uint32     { return s.inner.maxSize << s.shift }
func (s *Sampled[K]) Tick() uint32        { return s.inner.tick << s.shift }
func (s *Sampled[K]) NumTicks() uint32    { return s.inner.numTicks }
func (s *Sampled[K]) SampleShift() uint32 { return s.shift }

func (s *Sampled[K]) String() string { return s.inner.String() }
