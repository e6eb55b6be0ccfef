package lru

import (
	"fmt"
	"strings"

	"github.com/ghostmrc/gcache/hash"
)

// Cache is a fixed-capacity arena of nodes threaded into three
// disjoint doubly-linked lists (free, lru, in_use) plus a Table index.
// It is single-threaded: no method is safe for concurrent use.
//
// Every node is in exactly one of free/lru/in_use/erased at all times.
// A node is present in the table iff it is on lru or in_use. lru is
// kept in strict least-recently-used -> most-recently-used order.
type Cache[K comparable, V any] struct {
	hashFn hash.Func32[K]

	size     int
	capacity int

	// pool is the owned node arena; nil when this Cache was built with
	// NewFrom over a pool it does not own (the Shared Cache case).
	pool  []Node[K, V]
	table *Table[K, V]

	free, lruHead, inUse, erased Node[K, V]

	// extra holds nodes allocated on demand by Install once erased is
	// exhausted; only this slice is always owned by the Cache.
	extra []*Node[K, V]
}

// New builds a Cache with its own arena and table sized to capacity.
func New[K comparable, V any](capacity int, hashFn hash.Func32[K]) *Cache[K, V] {
	return NewInit[K, V](capacity, hashFn, nil)
}

// NewInit is like New but calls init once per node after allocation, for
// caller-owned value setup (e.g. pre-wiring a physical page pointer).
func NewInit[K comparable, V any](capacity int, hashFn hash.Func32[K], init func(*V)) *Cache[K, V] {
	if capacity <= 0 {
		panic("lru: capacity must be > 0")
	}
	c := &Cache[K, V]{
		hashFn:   hashFn,
		capacity: capacity,
		pool:     make([]Node[K, V], capacity),
		table:    NewTable[K, V](capacity),
	}
	c.initSentinels()
	c.seedFree(c.pool)
	if init != nil {
		for i := range c.pool {
			init(&c.pool[i].value)
		}
	}
	return c
}

// NewFrom builds a Cache over a pool slice and table it does not own,
// used by the Shared Cache to give each tenant its own LRU view over a
// shared arena and shared hash index. capacity is len(pool).
func NewFrom[K comparable, V any](pool []Node[K, V], table *Table[K, V], hashFn hash.Func32[K]) *Cache[K, V] {
	if len(pool) == 0 {
		panic("lru: NewFrom requires a non-empty pool")
	}
	c := &Cache[K, V]{
		hashFn:   hashFn,
		capacity: len(pool),
		table:    table,
	}
	c.initSentinels()
	c.seedFree(pool)
	return c
}

func (c *Cache[K, V]) initSentinels() {
	initSentinel(&c.lruHead)
	initSentinel(&c.inUse)
	initSentinel(&c.free)
	initSentinel(&c.erased)
}

func (c *Cache[K, V]) seedFree(pool []Node[K, V]) {
	for i := range pool {
		listAppend(&c.free, &pool[i])
	}
}

// Size returns the number of nodes currently present in the table
// (resident on lru or in_use).
func (c *Cache[K, V]) Size() int { return c.size }

// Capacity returns the number of nodes currently in circulation (not on
// the erased list).
func (c *Cache[K, V]) Capacity() int { return c.capacity }

// Insert inserts key if absent, else refreshes the existing node and
// returns its handle. If pin is true and the key did not already exist,
// the new node is placed on in_use with refs=2; otherwise it lands at
// the MRU end of lru. hintNonexist skips the existence lookup when the
// caller already knows the key is absent (a lie here is undefined).
// Returns the zero Handle only when every node is pinned in in_use.
func (c *Cache[K, V]) Insert(key K, pin, hintNonexist bool) Handle[K, V] {
	h := c.hashFn(key)
	var n *Node[K, V]
	if !hintNonexist {
		n = c.lookupImpl(key, h, pin)
		if n != nil {
			return Handle[K, V]{n}
		}
	}
	n = c.allocNode()
	if n == nil {
		return Handle[K, V]{}
	}
	n.init(key, h)
	c.table.insert(n)
	if pin {
		n.refs++
		listAppend(&c.inUse, n)
	} else {
		listAppend(&c.lruHead, n)
	}
	c.size++
	return Handle[K, V]{n}
}

// Lookup searches for key, refreshing it on a hit (pinning it if pin is
// true, else promoting it to MRU). Returns the zero Handle on a miss.
func (c *Cache[K, V]) Lookup(key K, pin bool) Handle[K, V] {
	h := c.hashFn(key)
	n := c.lookupImpl(key, h, pin)
	if n == nil {
		return Handle[K, V]{}
	}
	return Handle[K, V]{n}
}

// Peek looks up key without refreshing LRU order or reference count.
// Returns the zero Handle on a miss.
func (c *Cache[K, V]) Peek(key K) Handle[K, V] {
	h := c.hashFn(key)
	n := c.table.lookup(key, h)
	if n == nil {
		return Handle[K, V]{}
	}
	return Handle[K, V]{n}
}

func (c *Cache[K, V]) lookupImpl(key K, h uint32, pin bool) *Node[K, V] {
	n := c.table.lookup(key, h)
	if n != nil {
		c.lookupRefresh(n, pin)
	}
	return n
}

func (c *Cache[K, V]) lookupRefresh(n *Node[K, V], pin bool) {
	if pin {
		c.ref(n)
	} else if n.refs == 1 {
		c.lruRefresh(n)
	}
}

// Release decrements a pinned handle's reference count, moving the node
// to lru (refs falls to 1) or free (refs falls to 0). The handle must
// currently be pinned (refs > 1); releasing an unpinned handle traps.
func (c *Cache[K, V]) Release(h Handle[K, V]) {
	n := h.node
	if n.refs <= 1 {
		panic("lru: Release called on a handle that is not pinned")
	}
	c.unref(n)
}

// Pin increments a handle's reference count, moving it from lru to
// in_use if it was not already pinned.
func (c *Cache[K, V]) Pin(h Handle[K, V]) { c.ref(h.node) }

// Refresh is the intrusive API used by the ghost cache, which guarantees
// every node it touches is always on lru (never pinned). On a hit, it
// moves the node to MRU and returns the node that previously followed it
// toward MRU as successor (or the node itself, if already MRU). On a
// miss, it inserts a new node at MRU and returns a zero successor.
func (c *Cache[K, V]) Refresh(key K, h uint32) (handle, successor Handle[K, V]) {
	n := c.table.lookup(key, h)
	if n != nil {
		s := c.lruRefresh(n)
		return Handle[K, V]{n}, Handle[K, V]{s}
	}
	n = c.allocNode()
	if n == nil {
		return Handle[K, V]{}, Handle[K, V]{}
	}
	n.init(key, h)
	c.table.insert(n)
	listAppend(&c.lruHead, n)
	c.size++
	return Handle[K, V]{n}, Handle[K, V]{}
}

// Erase removes an unpinned node from lru and the table, parking it on
// erased. size and capacity both decrease by 1. Returns false (no
// effect) if the handle is pinned.
func (c *Cache[K, V]) Erase(h Handle[K, V]) bool {
	n := h.node
	if n.refs != 1 {
		return false
	}
	listRemove(n)
	listAppend(&c.erased, n)
	n.refs--
	c.table.remove(n.key, n.hashVal)
	c.size--
	c.capacity--
	return true
}

// Install brings a node back from erased (or allocates a fresh overflow
// node if erased is empty), inserts it into the table under key, and
// places it at MRU. size and capacity both increase by 1. The caller
// must overwrite the value before reading it; it is not zeroed.
func (c *Cache[K, V]) Install(key K) Handle[K, V] {
	var n *Node[K, V]
	if c.erased.next == &c.erased {
		n = new(Node[K, V])
		c.extra = append(c.extra, n)
	} else {
		n = c.erased.next
		listRemove(n)
	}
	n.init(key, c.hashFn(key))
	c.table.insert(n)
	listAppend(&c.lruHead, n)
	c.size++
	c.capacity++
	return Handle[K, V]{n}
}

// Preempt hands one slot of capacity back to the caller: first from
// free, else by evicting the current LRU node. capacity decreases by 1
// on success. Returns the zero Handle if no slot can be yielded.
func (c *Cache[K, V]) Preempt() Handle[K, V] {
	n := c.allocNode()
	if n == nil {
		return Handle[K, V]{}
	}
	c.capacity--
	return Handle[K, V]{n}
}

// OldestLRU returns a handle to the node at the LRU end of the lru list
// (the next node to be evicted), or the zero Handle if lru is empty.
// It is an intrusive accessor for the ghost cache's boundary bookkeeping;
// it must only be called on nodes the caller knows are never pinned.
func (c *Cache[K, V]) OldestLRU() Handle[K, V] {
	if c.lruHead.next == &c.lruHead {
		return Handle[K, V]{}
	}
	return Handle[K, V]{c.lruHead.next}
}

// NextMRU returns the handle immediately following h toward the MRU end
// of the lru list, or the zero Handle if h is already MRU-most. It is an
// intrusive accessor for the ghost cache's boundary bookkeeping and
// assumes h currently resides on lru.
func (c *Cache[K, V]) NextMRU(h Handle[K, V]) Handle[K, V] {
	n := h.node.next
	if n == &c.lruHead {
		return Handle[K, V]{}
	}
	return Handle[K, V]{n}
}

// Assign hands a slot of capacity (obtained from another Cache's
// Preempt) into this Cache's free list. capacity increases by 1.
func (c *Cache[K, V]) Assign(h Handle[K, V]) {
	c.capacity++
	c.freeNode(h.node)
}

func (c *Cache[K, V]) allocNode() *Node[K, V] {
	if c.free.next != &c.free {
		n := c.free.next
		listRemove(n)
		return n
	}
	if c.lruHead.next == &c.lruHead {
		return nil
	}
	n := c.lruHead.next
	listRemove(n)
	c.table.remove(n.key, n.hashVal)
	c.size--
	return n
}

func (c *Cache[K, V]) freeNode(n *Node[K, V]) { listAppend(&c.free, n) }

func (c *Cache[K, V]) ref(n *Node[K, V]) {
	if n.refs == 1 {
		listRemove(n)
		listAppend(&c.inUse, n)
	}
	n.refs++
}

func (c *Cache[K, V]) unref(n *Node[K, V]) {
	n.refs--
	switch n.refs {
	case 0:
		c.freeNode(n)
	case 1:
		listRemove(n)
		listAppend(&c.lruHead, n)
	}
}

// lruRefresh moves e to MRU and returns the node that used to follow it
// toward MRU (or e itself if it was already MRU).
func (c *Cache[K, V]) lruRefresh(e *Node[K, V]) *Node[K, V] {
	successor := e.next
	if successor == &c.lruHead {
		return e
	}
	listRemove(e)
	listAppend(&c.lruHead, e)
	return successor
}

// ForEach calls fn(key, handle) for every resident node (lru then
// in_use), in no particular cross-list order.
func (c *Cache[K, V]) ForEach(fn func(K, Handle[K, V])) {
	c.ForEachLRU(fn)
	c.ForEachInUse(fn)
}

// ForEachLRU calls fn(key, handle) for each node on lru, in LRU order
// (oldest first).
func (c *Cache[K, V]) ForEachLRU(fn func(K, Handle[K, V])) {
	for n := c.lruHead.next; n != &c.lruHead; n = n.next {
		fn(n.key, Handle[K, V]{n})
	}
}

// ForEachMRU calls fn(key, handle) for each node on lru, in MRU order
// (newest first).
func (c *Cache[K, V]) ForEachMRU(fn func(K, Handle[K, V])) {
	for n := c.lruHead.prev; n != &c.lruHead; n = n.prev {
		fn(n.key, Handle[K, V]{n})
	}
}

// ForEachInUse calls fn(key, handle) for each pinned node, in no
// particular order.
func (c *Cache[K, V]) ForEachInUse(fn func(K, Handle[K, V])) {
	for n := c.inUse.next; n != &c.inUse; n = n.next {
		fn(n.key, Handle[K, V]{n})
	}
}

// ForEachUntilLRU is ForEachLRU, stopping early when fn returns false.
func (c *Cache[K, V]) ForEachUntilLRU(fn func(K, Handle[K, V]) bool) {
	for n := c.lruHead.next; n != &c.lruHead; n = n.next {
		if !fn(n.key, Handle[K, V]{n}) {
			return
		}
	}
}

// ForEachUntilMRU is ForEachMRU, stopping early when fn returns false.
func (c *Cache[K, V]) ForEachUntilMRU(fn func(K, Handle[K, V]) bool) {
	for n := c.lruHead.prev; n != &c.lruHead; n = n.prev {
		if !fn(n.key, Handle[K, V]{n}) {
			return
		}
	}
}

// String renders the lru and in_use lists in LRU->MRU order, for
// debugging; it mirrors the upstream C++ library's print() dumps.
func (c *Cache[K, V]) String() string {
	var b strings.Builder
	fmt.Fprintf(&b, "Cache(capacity=%d, size=%d) {\n", c.capacity, c.size)
	b.WriteString("\tlru:    [")
	first := true
	c.ForEachLRU(func(k K, _ Handle[K, V]) {
		if !first {
			b.WriteString(", ")
		}
		first = false
		fmt.Fprintf(&b, "%v", k)
	})
	b.WriteString("]\n\tin_use: [")
	first = true
	c.ForEachInUse(func(k K, _ Handle[K, V]) {
		if !first {
			b.WriteString(", ")
		}
		first = false
		fmt.Fprintf(&b, "%v", k)
	})
	b.WriteString("]\n}")
	return b.String()
}
