package lru

import "testing"

// FuzzInsertLookupErase drives the cache through a capacity-bounded
// sequence of inserts, lookups and erases derived from fuzz bytes,
// checking only the invariants that must hold regardless of sequence:
// size never exceeds capacity, and every handle returned by Insert or
// Lookup resolves to the key it was requested for.
func FuzzInsertLookupErase(f *testing.F) {
	f.Add([]byte{0, 1, 2, 1, 3, 2, 0})
	f.Add([]byte{})
	f.Add([]byte{255, 255, 255, 255})

	f.Fuzz(func(t *testing.T, ops []byte) {
		const capacity = 8
		c := New[uint32, uint32](capacity, func(x uint32) uint32 { return x })
		var pinned []Handle[uint32, uint32]

		for _, b := range ops {
			key := uint32(b % 16)
			switch b % 3 {
			case 0:
				h := c.Insert(key, true, false)
				if h.IsValid() {
					if h.Key() != key {
						t.Fatalf("Insert(%d) returned handle for key %d", key, h.Key())
					}
					pinned = append(pinned, h)
				}
			case 1:
				h := c.Lookup(key, false)
				if h.IsValid() && h.Key() != key {
					t.Fatalf("Lookup(%d) returned handle for key %d", key, h.Key())
				}
			case 2:
				if len(pinned) > 0 {
					c.Release(pinned[len(pinned)-1])
					pinned = pinned[:len(pinned)-1]
				}
			}
			if c.Size() > capacity {
				t.Fatalf("Size() = %d exceeds capacity %d", c.Size(), capacity)
			}
		}

		for _, h := range pinned {
			c.Release(h)
		}
	})
}
