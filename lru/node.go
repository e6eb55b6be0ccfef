// Package lru implements the arena-backed LRU engine gcache's ghost
// cache and shared cache are built on: a fixed-capacity pool of nodes
// threaded into free/lru/in_use/erased lists plus a closed-addressing
// hash index, exposing insert/lookup/release/pin/erase/install/refresh/
// preempt/assign.
//
// Values are never reinitialized on node reuse: the previous payload
// survives an eviction until the caller overwrites it. The cache models
// the position of a slot, not the lifecycle of a key-value pair.
package lru

// Node is one tracked arena slot: key, hash, reference count, the three
// membership-list pointers, the node-table hash-chain pointer, and a
// caller-typed value. Nodes are allocated once per cache and never freed
// during the cache's lifetime; insert/lookup move the same nodes between
// lists and rewrite key/hash/value in place.
type Node[K comparable, V any] struct {
	key     K
	hashVal uint32
	refs    uint32
	value   V

	prev, next *Node[K, V]
	hashNext   *Node[K, V]
}

func (n *Node[K, V]) init(key K, h uint32) {
	n.refs = 1
	n.hashVal = h
	n.key = key
}

// listRemove splices n out of whatever circular list currently holds it.
func listRemove[K comparable, V any](n *Node[K, V]) {
	n.next.prev = n.prev
	n.prev.next = n.next
}

// listAppend inserts n immediately before head, i.e. at the "newest" end
// of the circular list headed by the dummy node head.
func listAppend[K comparable, V any](head, n *Node[K, V]) {
	n.next = head
	n.prev = head.prev
	n.prev.next = n
	n.next.prev = n
}

func initSentinel[K comparable, V any](head *Node[K, V]) {
	head.next = head
	head.prev = head
}

// Handle is an opaque, copyable reference to a node returned by Cache
// operations. It must never be compared to or coerced from a raw
// pointer by callers; the engine is free to relocate nodes within its
// arena between operations.
type Handle[K comparable, V any] struct {
	node *Node[K, V]
}

// IsValid reports whether the handle refers to a node (as opposed to a
// failed insert/lookup/preempt, which return the zero Handle).
func (h Handle[K, V]) IsValid() bool { return h.node != nil }

// Key returns the key of the referenced node.
func (h Handle[K, V]) Key() K { return h.node.key }

// Value returns a pointer to the referenced node's value, for in-place
// reads and writes. Callers must only dereference it while the handle
// remains valid (i.e. before the underlying node is recycled).
func (h Handle[K, V]) Value() *V { return &h.node.value }

// Equal reports whether two handles reference the same node.
func (h Handle[K, V]) Equal(o Handle[K, V]) bool { return h.node == o.node }

// Refs reports the node's current reference count, mostly useful for
// tests and debugging (refs == 1 means resident on the LRU list, refs >=
// 2 means pinned on the in-use list).
func (h Handle[K, V]) Refs() uint32 { return h.node.refs }
