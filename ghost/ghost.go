// Package ghost implements the ghost cache: a non-data-bearing LRU
// simulator that reconstructs the hit/miss counts a family of
// standalone LRU caches of sizes min_size, min_size+tick, ..., max_size
// would have produced on the same access trace, in O(num_ticks) work
// per access rather than O(num_ticks) independent simulations.
package ghost

import (
	"fmt"
	"strings"

	"github.com/ghostmrc/gcache/hash"
	"github.com/ghostmrc/gcache/lru"
)

// Cache is the full (unsampled) ghost cache. It owns one LRU list of
// capacity max_size, num_ticks-1 boundary cursors threaded through that
// list, and a reuse-distance histogram from which per-size hit/miss
// counts are derived lazily.
type Cache[K comparable] struct {
	tick, minSize, maxSize, numTicks uint32

	hashFn hash.Func32[K]
	lru    *lru.Cache[K, uint32]

	boundaries []lru.Handle[K, uint32]
	reuseDist  []uint64
	reuseCount uint64

	statsDirty bool
	stats      []CacheStat
}

// New builds a ghost cache over candidate sizes min_size, min_size+tick,
// ..., max_size. Parameters are design-time contracts: tick must be > 0,
// min_size > 1, max_size must equal min_size+(num_ticks-1)*tick for some
// integer num_ticks > 2. A violated contract panics immediately.
func New[K comparable](tick, minSize, maxSize uint32, hashFn hash.Func32[K]) *Cache[K] {
	if tick == 0 {
		panic("ghost: tick must be > 0")
	}
	if minSize <= 1 {
		panic("ghost: min_size must be > 1")
	}
	if maxSize < minSize || (maxSize-minSize)%tick != 0 {
		panic("ghost: max_size must equal min_size + k*tick for an integer k")
	}
	numTicks := (maxSize-minSize)/tick + 1
	if numTicks <= 2 {
		panic("ghost: num_ticks must be > 2")
	}
	return &Cache[K]{
		tick: tick, minSize: minSize, maxSize: maxSize, numTicks: numTicks,
		hashFn:     hashFn,
		lru:        lru.New[K, uint32](int(maxSize), hashFn),
		boundaries: make([]lru.Handle[K, uint32], numTicks-1),
		reuseDist:  make([]uint64, numTicks),
		statsDirty: true,
	}
}

// MinSize, MaxSize, Tick and NumTicks report the parameters the cache
// was constructed with.
func (c *Cache[K]) MinSize() uint32  { return c.minSize }
func (c *Cache[K]) MaxSize() uint32  { return c.maxSize }
func (c *Cache[K]) Tick() uint32     { return c.tick }
func (c *Cache[K]) NumTicks() uint32 { return c.numTicks }

// Access is the core algorithm: refresh key in the underlying LRU,
// locate its size-class boundary, sweep every boundary strictly below
// that class forward by one node, reset the accessed node's class to
// zero, and update the reuse-distance histogram according to mode.
func (c *Cache[K]) Access(key K, mode Mode) {
	h := c.hashFn(key)
	handle, successor := c.lru.Refresh(key, h)
	isHit := successor.IsValid()

	var sizeIdx uint32
	if isHit {
		sizeIdx = *handle.Value()
		if sizeIdx < c.numTicks-1 && c.boundaries[sizeIdx].Equal(handle) {
			c.boundaries[sizeIdx] = successor
		}
	} else {
		n := uint32(c.lru.Size())
		if n <= c.minSize {
			sizeIdx = 0
		} else {
			sizeIdx = ceilDiv(n-c.minSize, c.tick)
		}
		if sizeIdx < c.numTicks-1 && n == sizeIdx*c.tick+c.minSize {
			c.boundaries[sizeIdx] = c.lru.OldestLRU()
		}
	}

	for i := uint32(0); i < sizeIdx; i++ {
		b := c.boundaries[i]
		if b.IsValid() {
			*b.Value()++
			c.boundaries[i] = c.lru.NextMRU(b)
		}
	}
	*handle.Value() = 0

	switch mode {
	case Default:
		if isHit {
			c.reuseDist[sizeIdx]++
		}
		c.reuseCount++
	case AsMiss:
		c.reuseCount++
	case AsHit:
		c.reuseDist[0]++
		c.reuseCount++
	case Noop:
		// histogram untouched
	}
	c.statsDirty = true
}

func ceilDiv(a, b uint32) uint32 { return (a + b - 1) / b }

func (c *Cache[K]) rebuildStats() {
	if !c.statsDirty {
		return
	}
	if c.stats == nil {
		c.stats = make([]CacheStat, c.numTicks)
	}
	var hits uint64
	for i := uint32(0); i < c.numTicks; i++ {
		hits += c.reuseDist[i]
		c.stats[i] = CacheStat{HitCount: hits, MissCount: c.reuseCount - hits}
	}
	c.statsDirty = false
}

// Stat returns the accumulated hit/miss counts for candidate cache size
// size, which must equal min_size+i*tick for some i in [0, num_ticks);
// an unaligned or out-of-range size is a design-time contract violation
// and panics.
func (c *Cache[K]) Stat(size uint32) CacheStat {
	if size < c.minSize || size > c.maxSize || (size-c.minSize)%c.tick != 0 {
		panic("ghost: Stat size is not an aligned candidate size")
	}
	c.rebuildStats()
	return c.stats[(size-c.minSize)/c.tick]
}

// ResetStat zeroes the reuse-distance histogram and access count,
// leaving LRU order and boundary positions untouched.
func (c *Cache[K]) ResetStat() {
	for i := range c.reuseDist {
		c.reuseDist[i] = 0
	}
	c.reuseCount = 0
	c.statsDirty = true
}

// Boundary reports the key boundaries[i] currently references, and
// whether it references a node at all (false once the LRU list has not
// yet grown past min_size+i*tick entries).
func (c *Cache[K]) Boundary(i int) (key K, ok bool) {
	h := c.boundaries[i]
	if !h.IsValid() {
		var zero K
		return zero, false
	}
	return h.Key(), true
}

// ForEachLRU calls fn on each tracked key in LRU order (oldest first).
func (c *Cache[K]) ForEachLRU(fn func(K)) {
	c.lru.ForEachLRU(func(k K, _ lru.Handle[K, uint32]) { fn(k) })
}

// ForEachMRU calls fn on each tracked key in MRU order (newest first).
func (c *Cache[K]) ForEachMRU(fn func(K)) {
	c.lru.ForEachMRU(func(k K, _ lru.Handle[K, uint32]) { fn(k) })
}

// ForEachUntilLRU is ForEachLRU, stopping early when fn returns false.
func (c *Cache[K]) ForEachUntilLRU(fn func(K) bool) {
	c.lru.ForEachUntilLRU(func(k K, _ lru.Handle[K, uint32]) bool { return fn(k) })
}

// ForEachUntilMRU is ForEachMRU, stopping early when fn returns false.
func (c *Cache[K]) ForEachUntilMRU(fn func(K) bool) {
	c.lru.ForEachUntilMRU(func(k K, _ lru.Handle[K, uint32]) bool { return fn(k) })
}

// String renders the boundary keys and per-size stats, mirroring the
// upstream C++ library's operator<<  debug dump.
func (c *Cache[K]) String() string {
	var b strings.Builder
	b.WriteString("Boundaries: [")
	for i, h := range c.boundaries {
		if i > 0 {
			b.WriteString(", ")
		}
		if h.IsValid() {
			fmt.Fprintf(&b, "%v", h.Key())
		} else {
			b.WriteString("nil")
		}
	}
	b.WriteString("]; Stat: [")
	for i := uint32(0); i < c.numTicks; i++ {
		if i > 0 {
			b.WriteString(", ")
		}
		s := c.Stat(c.minSize + i*c.tick)
		fmt.Fprintf(&b, "%d/%d", s.HitCount, s.AccessCount())
	}
	b.WriteString("]")
	return b.String()
}
