// Package shared implements the multi-tenant extension of the LRU
// engine: one contiguous node pool and one hash index shared by N
// named tenants, each with its own LRU list and capacity, with explicit
// primitives to transfer capacity between tenants.
package shared

import (
	"fmt"
	"strings"

	"github.com/ghostmrc/gcache/hash"
	"github.com/ghostmrc/gcache/lru"
)

// TaggedValue is the payload every node in a shared cache carries: the
// tenant that currently owns the slot, plus the caller's own value.
type TaggedValue[Tag comparable, V any] struct {
	Tag   Tag
	Value V
}

// TenantConfig names one tenant's tag and its initial capacity.
type TenantConfig[Tag comparable] struct {
	Tag      Tag
	Capacity int
}

// Cache partitions one arena and one hash index into N tenant-scoped
// LRU views. The hash index is global: a key resides under at most one
// tenant at a time, and a tag-free Lookup finds it regardless of which
// tenant owns it.
type Cache[Tag comparable, K comparable, V any] struct {
	hashFn hash.Func32[K]

	pool  []lru.Node[K, TaggedValue[Tag, V]]
	table *lru.Table[K, TaggedValue[Tag, V]]

	tenants map[Tag]*lru.Cache[K, TaggedValue[Tag, V]]
	order   []Tag

	any *lru.Cache[K, TaggedValue[Tag, V]]
}

// New builds a shared cache with one sub-cache per entry in configs. A
// single pool of size Σcapacity is allocated; each tenant's sub-cache
// adopts a disjoint, non-owning slice of it.
func New[Tag comparable, K comparable, V any](configs []TenantConfig[Tag], hashFn hash.Func32[K]) *Cache[Tag, K, V] {
	if len(configs) == 0 {
		panic("shared: at least one tenant config is required")
	}
	total := 0
	for _, cfg := range configs {
		if cfg.Capacity <= 0 {
			panic("shared: tenant capacity must be > 0")
		}
		total += cfg.Capacity
	}

	c := &Cache[Tag, K, V]{
		hashFn:  hashFn,
		pool:    make([]lru.Node[K, TaggedValue[Tag, V]], total),
		tenants: make(map[Tag]*lru.Cache[K, TaggedValue[Tag, V]], len(configs)),
		order:   make([]Tag, 0, len(configs)),
	}
	c.table = lru.NewTable[K, TaggedValue[Tag, V]](total)

	offset := 0
	for _, cfg := range configs {
		sub := c.pool[offset : offset+cfg.Capacity]
		offset += cfg.Capacity
		tc := lru.NewFrom(sub, c.table, hashFn)
		c.tenants[cfg.Tag] = tc
		c.order = append(c.order, cfg.Tag)
		if c.any == nil {
			c.any = tc
		}
	}
	return c
}

func (c *Cache[Tag, K, V]) tenant(tag Tag) *lru.Cache[K, TaggedValue[Tag, V]] {
	tc, ok := c.tenants[tag]
	if !ok {
		panic(fmt.Sprintf("shared: unknown tenant tag %v", tag))
	}
	return tc
}

// Insert performs a global lookup first: on a hit (under any tenant),
// refreshes the owning tenant's LRU and returns the existing handle. On
// a miss, inserts a fresh node under tag.
func (c *Cache[Tag, K, V]) Insert(tag Tag, key K, pin bool) lru.Handle[K, TaggedValue[Tag, V]] {
	if peek := c.any.Peek(key); peek.IsValid() {
		owner := peek.Value().Tag
		return c.tenant(owner).Lookup(key, pin)
	}
	h := c.tenant(tag).Insert(key, pin, true)
	if h.IsValid() {
		h.Value().Tag = tag
	}
	return h
}

// Lookup is tag-free: it finds key under whichever tenant owns it and
// refreshes that tenant's LRU. A non-owning caller repeatedly looking
// up a key it does not own still promotes it in the owner's LRU; this
// mirrors the upstream library's documented quirk and is not corrected
// here. Use LookupOwned if that behavior is undesirable.
func (c *Cache[Tag, K, V]) Lookup(key K, pin bool) lru.Handle[K, TaggedValue[Tag, V]] {
	peek := c.any.Peek(key)
	if !peek.IsValid() {
		return lru.Handle[K, TaggedValue[Tag, V]]{}
	}
	owner := peek.Value().Tag
	return c.tenant(owner).Lookup(key, pin)
}

// LookupOwned is like Lookup but only refreshes the LRU, and returns a
// valid handle, when the caller's tag matches the key's owning tenant;
// otherwise it peeks without perturbing any tenant's LRU.
func (c *Cache[Tag, K, V]) LookupOwned(tag Tag, key K, pin bool) (h lru.Handle[K, TaggedValue[Tag, V]], owned bool) {
	peek := c.any.Peek(key)
	if !peek.IsValid() {
		return lru.Handle[K, TaggedValue[Tag, V]]{}, false
	}
	if peek.Value().Tag != tag {
		return peek, false
	}
	return c.tenant(tag).Lookup(key, pin), true
}

// Release delegates to the owning tenant's Release, read off the
// handle's own tagged value.
func (c *Cache[Tag, K, V]) Release(h lru.Handle[K, TaggedValue[Tag, V]]) {
	c.tenant(h.Value().Tag).Release(h)
}

// Erase delegates to the owning tenant's Erase.
func (c *Cache[Tag, K, V]) Erase(h lru.Handle[K, TaggedValue[Tag, V]]) bool {
	return c.tenant(h.Value().Tag).Erase(h)
}

// Install brings a node back (or allocates an overflow node) under
// tag, growing that tenant's capacity by one.
func (c *Cache[Tag, K, V]) Install(tag Tag, key K) lru.Handle[K, TaggedValue[Tag, V]] {
	h := c.tenant(tag).Install(key)
	h.Value().Tag = tag
	return h
}

// Relocate transfers up to n slots of capacity from src to dst by
// repeating preempt-then-assign, stopping early when src has no more
// capacity to yield. Returns the number of slots actually moved.
func (c *Cache[Tag, K, V]) Relocate(src, dst Tag, n int) int {
	srcCache := c.tenant(src)
	dstCache := c.tenant(dst)
	moved := 0
	for i := 0; i < n; i++ {
		h := srcCache.Preempt()
		if !h.IsValid() {
			break
		}
		dstCache.Assign(h)
		moved++
	}
	return moved
}

// GetCache returns the tenant's underlying LRU cache, for read-only
// introspection (size, capacity, traversal). Callers must not call its
// mutating operations directly; go through Insert/Lookup/Erase/Install/
// Relocate so tenant bookkeeping in Cache stays consistent.
func (c *Cache[Tag, K, V]) GetCache(tag Tag) *lru.Cache[K, TaggedValue[Tag, V]] {
	return c.tenant(tag)
}

// String renders each tenant's resident keys in LRU order, mirroring
// the upstream C++ library's operator<< debug dump.
func (c *Cache[Tag, K, V]) String() string {
	var b strings.Builder
	b.WriteString("{ ")
	for i, tag := range c.order {
		if i > 0 {
			b.WriteString(", ")
		}
		fmt.Fprintf(&b, "%v: [", tag)
		first := true
		c.tenants[tag].ForEachLRU(func(k K, _ lru.Handle[K, TaggedValue[Tag, V]]) {
			if !first {
				b.WriteString(", ")
			}
			first = false
			fmt.Fprintf(&b, "%v", k)
		})
		b.WriteString("]")
	}
	b.WriteString(" }")
	return b.String()
}
