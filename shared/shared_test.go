package shared

import (
	"reflect"
	"testing"

	"github.com/ghostmrc/gcache/lru"
)

func hash1(x uint32) uint32 { return x + 1000 }

func tenantKeys(c *Cache[int, uint32, uint32], tag int) []uint32 {
	var out []uint32
	c.GetCache(tag).ForEachLRU(func(k uint32, _ lru.Handle[uint32, TaggedValue[int, uint32]]) {
		out = append(out, k)
	})
	return out
}

func tenantInUseKeys(c *Cache[int, uint32, uint32], tag int) []uint32 {
	var out []uint32
	c.GetCache(tag).ForEachInUse(func(k uint32, _ lru.Handle[uint32, TaggedValue[int, uint32]]) {
		out = append(out, k)
	})
	return out
}

// TestMultiTenantInsertLookupRelocate ports the upstream gcache shared
// cache correctness scenario: two tenants {537: 3, 564: 2}, insert under
// each, cross-tenant lookup resolves to the owner, and relocate moves
// free capacity from one tenant's LRU end to the other.
func TestMultiTenantInsertLookupRelocate(t *testing.T) {
	c := New[int, uint32, uint32]([]TenantConfig[int]{
		{Tag: 537, Capacity: 3},
		{Tag: 564, Capacity: 2},
	}, hash1)

	h := c.Insert(537, 1, true)
	if !h.IsValid() {
		t.Fatalf("insert (537,1) failed")
	}
	h.Value().Value = 111
	c.Release(h)

	h = c.Insert(564, 2, false)
	if !h.IsValid() {
		t.Fatalf("insert (564,2) failed")
	}
	h = c.Insert(537, 3, false)
	if !h.IsValid() {
		t.Fatalf("insert (537,3) failed")
	}

	if got := tenantKeys(c, 564); !reflect.DeepEqual(got, []uint32{2}) {
		t.Fatalf("tenant 564 = %v, want [2]", got)
	}
	if got := tenantKeys(c, 537); !reflect.DeepEqual(got, []uint32{1, 3}) {
		t.Fatalf("tenant 537 = %v, want [1, 3]", got)
	}

	c.Insert(564, 4, false)
	c.Insert(537, 5, false)
	if got := tenantKeys(c, 564); !reflect.DeepEqual(got, []uint32{2, 4}) {
		t.Fatalf("tenant 564 = %v, want [2, 4]", got)
	}
	if got := tenantKeys(c, 537); !reflect.DeepEqual(got, []uint32{1, 3, 5}) {
		t.Fatalf("tenant 537 = %v, want [1, 3, 5]", got)
	}

	c.Insert(564, 6, false)
	h = c.Insert(537, 2, false) // key 2 already resident under 564
	if !h.IsValid() {
		t.Fatalf("insert (537,2) failed")
	}
	if got := tenantKeys(c, 564); !reflect.DeepEqual(got, []uint32{4, 6}) {
		t.Fatalf("tenant 564 = %v, want [4, 6] (evicted key 1)", got)
	}
	if got := tenantKeys(c, 537); !reflect.DeepEqual(got, []uint32{3, 5, 2}) {
		t.Fatalf("tenant 537 = %v, want [3, 5, 2]", got)
	}

	// re-inserting key 2 under tenant 537 must resolve to its true owner
	// (564) and refresh there, not create a duplicate under 537.
	h = c.Insert(564, 2, false)
	if !h.IsValid() {
		t.Fatalf("insert (564,2) failed")
	}
	if got := tenantKeys(c, 564); !reflect.DeepEqual(got, []uint32{4, 6}) {
		t.Fatalf("tenant 564 = %v, want [4, 6] unchanged", got)
	}
	if got := tenantKeys(c, 537); !reflect.DeepEqual(got, []uint32{3, 5, 2}) {
		t.Fatalf("tenant 537 = %v, want [3, 5, 2] unchanged", got)
	}

	moved := c.Relocate(537, 564, 2)
	if moved != 2 {
		t.Fatalf("Relocate returned %d, want 2", moved)
	}
	if got := c.GetCache(537).Capacity(); got != 1 {
		t.Fatalf("tenant 537 capacity = %d, want 1", got)
	}
	if got := c.GetCache(564).Capacity(); got != 4 {
		t.Fatalf("tenant 564 capacity = %d, want 4", got)
	}
	if got := tenantKeys(c, 537); !reflect.DeepEqual(got, []uint32{2}) {
		t.Fatalf("tenant 537 = %v, want [2] (its two LRU-most keys evicted)", got)
	}
	if got := tenantKeys(c, 564); !reflect.DeepEqual(got, []uint32{4, 6}) {
		t.Fatalf("tenant 564 = %v, want [4, 6] unchanged by relocate", got)
	}

	c.Insert(564, 7, false)
	h = c.Insert(564, 8, false)
	if got := tenantKeys(c, 564); !reflect.DeepEqual(got, []uint32{4, 6, 7, 8}) {
		t.Fatalf("tenant 564 = %v, want [4, 6, 7, 8]", got)
	}

	c.Insert(564, 9, false)
	if got := tenantKeys(c, 564); !reflect.DeepEqual(got, []uint32{6, 7, 8, 9}) {
		t.Fatalf("tenant 564 = %v, want [6, 7, 8, 9] (key 4 evicted)", got)
	}

	hLast := c.Insert(564, 9, false)
	if !c.Erase(hLast) {
		t.Fatalf("erase of key 9 was denied")
	}
	if got := tenantKeys(c, 564); !reflect.DeepEqual(got, []uint32{6, 7, 8}) {
		t.Fatalf("tenant 564 = %v, want [6, 7, 8]", got)
	}

	c.Install(537, 10)
	c.Install(537, 11)
	c.Install(564, 12)
	if got := tenantKeys(c, 564); !reflect.DeepEqual(got, []uint32{6, 7, 8, 12}) {
		t.Fatalf("tenant 564 = %v, want [6, 7, 8, 12]", got)
	}
	if got := tenantKeys(c, 537); !reflect.DeepEqual(got, []uint32{2, 10, 11}) {
		t.Fatalf("tenant 537 = %v, want [2, 10, 11]", got)
	}
}

func TestLookupOwnedDistinguishesOwner(t *testing.T) {
	c := New[int, uint32, uint32]([]TenantConfig[int]{
		{Tag: 1, Capacity: 2},
		{Tag: 2, Capacity: 2},
	}, func(x uint32) uint32 { return x })

	c.Insert(1, 100, false)
	if _, owned := c.LookupOwned(2, 100, false); owned {
		t.Fatalf("tenant 2 should not own key 100")
	}
	h, owned := c.LookupOwned(1, 100, false)
	if !owned || !h.IsValid() {
		t.Fatalf("tenant 1 should own key 100")
	}
}

func TestRelocateStopsEarlyWhenSourceExhausted(t *testing.T) {
	c := New[int, uint32, uint32]([]TenantConfig[int]{
		{Tag: 1, Capacity: 1},
		{Tag: 2, Capacity: 1},
	}, func(x uint32) uint32 { return x })

	moved := c.Relocate(1, 2, 5)
	if moved != 1 {
		t.Fatalf("Relocate returned %d, want 1 (only one slot of capacity exists)", moved)
	}
	if c.GetCache(1).Capacity() != 0 {
		t.Fatalf("tenant 1 capacity = %d, want 0", c.GetCache(1).Capacity())
	}
	moved = c.Relocate(1, 2, 1)
	if moved != 0 {
		t.Fatalf("Relocate from an empty tenant returned %d, want 0", moved)
	}
}

func TestUnknownTagPanics(t *testing.T) {
	defer func() {
		if recover() == nil {
			t.Fatalf("expected panic for an unknown tenant tag")
		}
	}()
	c := New[int, uint32, uint32]([]TenantConfig[int]{{Tag: 1, Capacity: 1}}, func(x uint32) uint32 { return x })
	c.Insert(2, 1, false)
}
