package lru

import "github.com/ghostmrc/gcache/internal/util"

// Table is a closed-addressing hash index over nodes, keyed by
// (hash, key). It is sized once, to the capacity of the cache it backs,
// and never rehashes: expected chain length stays small because the
// table's bucket count tracks the node arena it indexes.
type Table[K comparable, V any] struct {
	buckets []*Node[K, V]
	mask    uint32
}

// NewTable allocates next_pow2(size) empty buckets. size must be > 0.
func NewTable[K comparable, V any](size int) *Table[K, V] {
	if size <= 0 {
		panic("lru: Table size must be > 0")
	}
	n := util.NextPow2(uint64(size))
	return &Table[K, V]{
		buckets: make([]*Node[K, V], n),
		mask:    uint32(n) - 1,
	}
}

// insert prepends n to its bucket. The caller must ensure no entry with
// the same (hash, key) is currently in the table.
func (t *Table[K, V]) insert(n *Node[K, V]) {
	idx := n.hashVal & t.mask
	n.hashNext = t.buckets[idx]
	t.buckets[idx] = n
}

// lookup returns the node matching (key, hash), or nil.
func (t *Table[K, V]) lookup(key K, h uint32) *Node[K, V] {
	for n := t.buckets[h&t.mask]; n != nil; n = n.hashNext {
		if n.hashVal == h && n.key == key {
			return n
		}
	}
	return nil
}

// remove splices out and returns the node matching (key, hash), or nil.
func (t *Table[K, V]) remove(key K, h uint32) *Node[K, V] {
	idx := h & t.mask
	slot := &t.buckets[idx]
	for n := *slot; n != nil; n = n.hashNext {
		if n.hashVal == h && n.key == key {
			*slot = n.hashNext
			return n
		}
		slot = &n.hashNext
	}
	return nil
}
