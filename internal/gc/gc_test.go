package gc

import (
	"testing"

	"github.com/cljwlang/cljw/internal/value"
)

func TestCollectSweepsUnreachable(t *testing.T) {
	h := NewHeap(1 << 20)
	var root *value.Atom

	root = h.Alloc(value.NewAtom(value.NilValue)).(*value.Atom)
	h.RegisterRoots(func() []value.Value { return []value.Value{root} })

	for i := 0; i < 1000; i++ {
		h.Alloc(value.NewVector(value.Int(int64(i))))
	}
	before := h.BytesAllocated()
	if before == 0 {
		t.Fatalf("expected nonzero allocation before collect")
	}

	h.Collect()

	after := h.BytesAllocated()
	if after >= before {
		t.Errorf("expected bytes allocated to shrink after collecting unreachable garbage: before=%d after=%d", before, after)
	}
	if h.Collections() != 1 {
		t.Errorf("expected 1 collection, got %d", h.Collections())
	}
}

func TestCollectKeepsReachableGraph(t *testing.T) {
	h := NewHeap(1 << 20)
	inner := h.Alloc(value.NewVector(value.Int(1))).(*value.Vector)
	outer := h.Alloc(value.NewVector(inner)).(*value.Vector)
	h.RegisterRoots(func() []value.Value { return []value.Value{outer} })

	h.Collect()

	// Re-allocating the same pointer should be a no-op (already tracked),
	// proving inner is still in the table.
	h.Alloc(inner)
	if h.BytesAllocated() == 0 {
		t.Errorf("reachable allocations should survive a collection")
	}
}

func TestPinKeepsScratchAlive(t *testing.T) {
	h := NewHeap(1 << 20)
	scratch := h.Alloc(value.NewVector(value.Int(1))).(*value.Vector)
	idx := h.Pin(scratch)
	h.RegisterRoots(func() []value.Value { return nil })

	h.Collect()
	if h.BytesAllocated() == 0 {
		t.Errorf("pinned value should survive collection")
	}

	h.Unpin(idx)
	h.Collect()
	if h.BytesAllocated() != 0 {
		t.Errorf("unpinned, unrooted value should be collected")
	}
}

func TestStatsReflectsHeapAndCollections(t *testing.T) {
	h := NewHeap(1 << 20)
	h.Alloc(value.NewVector(value.Int(1)))
	h.RegisterRoots(func() []value.Value { return nil })

	before := h.Stats()
	if before.BytesAllocated == 0 {
		t.Errorf("expected nonzero BytesAllocated before collect")
	}
	if before.Collections != 0 {
		t.Errorf("expected 0 collections before any Collect call, got %d", before.Collections)
	}

	h.Collect()

	after := h.Stats()
	if after.Collections != 1 {
		t.Errorf("expected 1 collection, got %d", after.Collections)
	}
	if after.BlocksLive != 0 {
		t.Errorf("expected no live blocks after sweeping an unrooted allocation, got %d", after.BlocksLive)
	}
}
