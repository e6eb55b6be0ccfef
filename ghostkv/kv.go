// Package ghostkv specializes the ghost cache for variable-size
// key-value entries: every tracked node additionally carries the
// latest known byte size of its value, so a miss-ratio curve can be
// reported by byte footprint as well as by entry count.
package ghostkv

import (
	"github.com/ghostmrc/gcache/ghost"
	"github.com/ghostmrc/gcache/hash"
	"github.com/ghostmrc/gcache/lru"
)

// Value is the per-node payload: the ghost size class plus the most
// recently observed size in bytes of the entry's value.
type Value struct {
	SizeIdx uint32
	KVSize  uint32
}

// Cache is a ghost cache keyed by a pre-hashed 32-bit key-hash (callers
// with string or byte-slice keys should hash with the hash package's
// String/Bytes before calling Access) whose value tracks byte size
// alongside the ghost size class.
type Cache struct {
	tick, minSize, maxSize, numTicks uint32

	lru *lru.Cache[uint32, Value]

	boundaries []lru.Handle[uint32, Value]
	reuseDist  []uint64
	reuseCount uint64

	statsDirty bool
	stats      []ghost.CacheStat
}

// New builds a ghost KV cache over candidate entry counts min_count,
// min_count+tick, ..., max_count. Parameters are the same design-time
// contract as ghost.New.
func New(tick, minCount, maxCount uint32) *Cache {
	if tick == 0 {
		panic("ghostkv: tick must be > 0")
	}
	if minCount <= 1 {
		panic("ghostkv: min_count must be > 1")
	}
	if maxCount < minCount || (maxCount-minCount)%tick != 0 {
		panic("ghostkv: max_count must equal min_count + k*tick for an integer k")
	}
	numTicks := (maxCount-minCount)/tick + 1
	if numTicks <= 2 {
		panic("ghostkv: num_ticks must be > 2")
	}
	return &Cache{
		tick: tick, minSize: minCount, maxSize: maxCount, numTicks: numTicks,
		lru:        lru.New[uint32, Value](int(maxCount), hash.Identity),
		boundaries: make([]lru.Handle[uint32, Value], numTicks-1),
		reuseDist:  make([]uint64, numTicks),
		statsDirty: true,
	}
}

func (c *Cache) Tick() uint32     { return c.tick }
func (c *Cache) MinCount() uint32 { return c.minSize }
func (c *Cache) MaxCount() uint32 { return c.maxSize }
func (c *Cache) NumTicks() uint32 { return c.numTicks }

// Access records an access to the entry identified by keyHash (the
// caller's key already reduced to 32 bits, e.g. via hash.String), whose
// value occupies kvSize bytes. Sampling admission, if any, is the
// caller's responsibility (see Sampled).
func (c *Cache) Access(keyHash, kvSize uint32, mode ghost.Mode) {
	handle, successor := c.lru.Refresh(keyHash, keyHash)
	isHit := successor.IsValid()

	var sizeIdx uint32
	if isHit {
		sizeIdx = handle.Value().SizeIdx
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
			b.Value().SizeIdx++
			c.boundaries[i] = c.lru.NextMRU(b)
		}
	}
	handle.Value().SizeIdx = 0
	handle.Value().KVSize = kvSize

	switch mode {
	case ghost.Default:
		if isHit {
			c.reuseDist[sizeIdx]++
		}
		c.reuseCount++
	case ghost.AsMiss:
		c.reuseCount++
	case ghost.AsHit:
		c.reuseDist[0]++
		c.reuseCount++
	case ghost.Noop:
	}
	c.statsDirty = true
}

func ceilDiv(a, b uint32) uint32 { return (a + b - 1) / b }

// UpdateSize looks up keyHash without refreshing its LRU position and
// overwrites its recorded byte size if present; an absent key is a
// silent no-op.
func (c *Cache) UpdateSize(keyHash, newKVSize uint32) {
	h := c.lru.Peek(keyHash)
	if !h.IsValid() {
		return
	}
	h.Value().KVSize = newKVSize
}

func (c *Cache) rebuildStats() {
	if !c.statsDirty {
		return
	}
	if c.stats == nil {
		c.stats = make([]ghost.CacheStat, c.numTicks)
	}
	var hits uint64
	for i := uint32(0); i < c.numTicks; i++ {
		hits += c.reuseDist[i]
		c.stats[i] = ghost.CacheStat{HitCount: hits, MissCount: c.reuseCount - hits}
	}
	c.statsDirty = false
}

// Stat returns the accumulated hit/miss counts at candidate entry count
// count, which must equal min_count+i*tick for some i.
func (c *Cache) Stat(count uint32) ghost.CacheStat {
	if count < c.minSize || count > c.maxSize || (count-c.minSize)%c.tick != 0 {
		panic("ghostkv: Stat count is not an aligned candidate size")
	}
	c.rebuildStats()
	return c.stats[(count-c.minSize)/c.tick]
}

func (c *Cache) ResetStat() {
	for i := range c.reuseDist {
		c.reuseDist[i] = 0
	}
	c.reuseCount = 0
	c.statsDirty = true
}

// CurvePoint is one row of a CacheStatCurve: the entry count and
// cumulative byte footprint at that count, plus the cache stat for the
// candidate size aligned to that count.
type CurvePoint struct {
	EntryCount uint32
	ByteSize   uint64
	Stat       ghost.CacheStat
}

// CacheStatCurve walks the live set in MRU order, emitting one point at
// every tick-th entry starting at min_count, with a running byte-size
// total, pairing each point with the cache stat for that entry count. If
// the live set's size never lands exactly on a tick boundary (it is
// smaller than max_count), one final point for the actual working set
// is appended, paired with the stat for the next candidate size at or
// above it (min_count itself if the working set is smaller than that).
func (c *Cache) CacheStatCurve() []CurvePoint {
	var curve []CurvePoint
	var currCount uint32
	var currSize uint64
	c.lru.ForEachMRU(func(_ uint32, h lru.Handle[uint32, Value]) {
		currSize += uint64(h.Value().KVSize)
		currCount++
		if currCount >= c.minSize && (currCount-c.minSize)%c.tick == 0 {
			curve = append(curve, CurvePoint{
				EntryCount: currCount,
				ByteSize:   currSize,
				Stat:       c.Stat(currCount),
			})
		}
	})
	if currCount > 0 && currCount < c.maxSize && (len(curve) == 0 || curve[len(curve)-1].EntryCount != currCount) {
		aligned := c.minSize
		if currCount > c.minSize {
			aligned = c.minSize + ceilDiv(currCount-c.minSize, c.tick)*c.tick
		}
		if aligned > c.maxSize {
			aligned = c.maxSize
		}
		curve = append(curve, CurvePoint{
			EntryCount: currCount,
			ByteSize:   currSize,
			Stat:       c.Stat(aligned),
		})
	}
	return curve
}
