// Package gc implements the mark-sweep collector from spec §3.6/§5: a
// single allocation table keyed by block address, a free pool bucketed by
// size class, and root registration through RegisterRoots, which only the
// environment (rt.NewEnv) calls. Go's own runtime remains the actual memory owner —
// this package is a shadow allocator layered on top of it, the same way
// the source layers a GC over a host allocator: composite Values are
// registered here on construction, a block stays "live" (strongly
// referenced, so Go cannot reclaim it) until a mark-sweep cycle fails to
// reach it from the roots, at which point it is dropped from the table and
// Go's own collector becomes free to reclaim the memory.
package gc

import (
	"reflect"

	"github.com/dustin/go-humanize"
	"golang.org/x/sys/unix"

	"github.com/cljwlang/cljw/internal/logger"
	"github.com/cljwlang/cljw/internal/value"
)

// RootProvider returns the Values directly reachable from some external
// root, rather than exposing internals for a stack scan (spec §9 "small
// rooting helper"). Env registers the only one, at construction: its
// Vars' roots, dynamic bindings and metadata. VM and tree-walk frames
// register no provider, so Values held only by a live frame are not roots.
type RootProvider func() []value.Value

type blockMeta struct {
	id     uint64
	kind   string
	size   int
	marked bool
	age    int
	val    value.Value
}

// Heap is the mark-sweep allocator. It is not safe for concurrent use,
// matching spec §5's single-threaded evaluation model.
type Heap struct {
	blocks         map[uintptr]*blockMeta
	nextID         uint64
	bytesAllocated int64
	threshold      int64
	freePool       map[int][]uintptr // size class -> recycled block addresses (accounting only)
	providers      []RootProvider
	pinned         []value.Value // bridge-call scratch roots, pushed/popped as a stack
	collections    int
}

// NewHeap creates a heap with the given initial trigger threshold in bytes.
func NewHeap(initialThreshold int64) *Heap {
	return &Heap{
		blocks:    map[uintptr]*blockMeta{},
		threshold: initialThreshold,
		freePool:  map[int][]uintptr{},
	}
}

// RegisterRoots adds a root provider that is consulted on every Collect.
func (h *Heap) RegisterRoots(p RootProvider) {
	h.providers = append(h.providers, p)
}

// Pin temporarily roots v (and returns an index to Unpin with). Neither
// evaluator nor the dispatch bridge calls it; only tests pin Values.
func (h *Heap) Pin(v value.Value) int {
	h.pinned = append(h.pinned, v)
	return len(h.pinned) - 1
}

// Unpin pops pinned values back to (and including) idx.
func (h *Heap) Unpin(idx int) {
	if idx < 0 || idx >= len(h.pinned) {
		return
	}
	h.pinned = h.pinned[:idx]
}

// sizeClassOf buckets by kind name; real byte sizes aren't meaningful for
// Go-GC-backed memory, so this is a narrative accounting bucket exercised
// by the free pool and by (System/gcStats).
func sizeClassOf(kind string) int {
	switch kind {
	case "cons", "atom", "volatile", "delay", "reduced":
		return 32
	case "list", "lazy-seq":
		return 48
	case "vector", "set":
		return 64
	case "map", "fn", "protocol", "multi-fn", "reify":
		return 96
	default:
		return 40
	}
}

// Alloc registers a GC-owned composite Value (anything backed by a pointer)
// into the heap's table, returning it unchanged for a fluent call style:
// `v := heap.Alloc(value.NewAtom(x))`. Immediate value kinds (nil, bool,
// int, float, char) and the interned string/keyword/symbol types are left
// to Go's own GC, as documented in SPEC_FULL.md.
func (h *Heap) Alloc(v value.Value) value.Value {
	rv := reflect.ValueOf(v)
	if rv.Kind() != reflect.Ptr || rv.IsNil() {
		return v
	}
	addr := rv.Pointer()
	if _, exists := h.blocks[addr]; exists {
		return v
	}
	kind := value.TypeName(v)
	size := sizeClassOf(kind)
	h.nextID++
	h.blocks[addr] = &blockMeta{id: h.nextID, kind: kind, size: size, val: v}
	h.bytesAllocated += int64(size)
	return v
}

// BytesAllocated returns the current shadow byte count.
func (h *Heap) BytesAllocated() int64 { return h.bytesAllocated }

// ShouldCollect reports whether bytesAllocated has crossed the trigger
// threshold; callers check this at a safe point (spec §5).
func (h *Heap) ShouldCollect() bool { return h.bytesAllocated > h.threshold }

// Collections returns how many mark-sweep cycles have run.
func (h *Heap) Collections() int { return h.collections }

// Stats is what `(System/gcStats)` returns: the shadow heap's own
// bookkeeping plus the process's real resident set size, sampled via
// getrusage(2) since Go's runtime exposes heap stats but not RSS
// directly.
type Stats struct {
	BytesAllocated int64
	Collections    int
	BlocksLive     int
	MaxRSSBytes    int64
}

// Stats reports the heap's current bookkeeping and the process's peak
// resident set size (maxrss, via golang.org/x/sys/unix.Getrusage —
// ru_maxrss is kilobytes on Linux, bytes on Darwin, normalized here to
// bytes for Linux since that's this project's primary target).
func (h *Heap) Stats() Stats {
	var ru unix.Rusage
	maxRSS := int64(0)
	if err := unix.Getrusage(unix.RUSAGE_SELF, &ru); err == nil {
		maxRSS = int64(ru.Maxrss) * 1024
	}
	return Stats{
		BytesAllocated: h.bytesAllocated,
		Collections:    h.collections,
		BlocksLive:     len(h.blocks),
		MaxRSSBytes:    maxRSS,
	}
}

// Collect runs one mark-sweep cycle: mark every block reachable from a
// registered root or the pinned set, then sweep unmarked blocks into the
// free pool (dropping this package's strong reference so Go's GC can
// reclaim them), and reset the threshold to max(bytes*2, previous) per
// spec §4.11.
func (h *Heap) Collect() {
	for _, b := range h.blocks {
		b.marked = false
	}

	var roots []value.Value
	for _, p := range h.providers {
		roots = append(roots, p()...)
	}
	roots = append(roots, h.pinned...)

	seen := map[uintptr]bool{}
	for _, r := range roots {
		h.mark(r, seen)
	}

	var freedBytes int64
	for addr, b := range h.blocks {
		if !b.marked {
			freedBytes += int64(b.size)
			sc := b.size
			h.freePool[sc] = append(h.freePool[sc], addr)
			if len(h.freePool[sc]) > 4096 {
				h.freePool[sc] = h.freePool[sc][len(h.freePool[sc])-4096:]
			}
			delete(h.blocks, addr)
		} else {
			b.age++
		}
	}

	h.bytesAllocated -= freedBytes
	if h.bytesAllocated < 0 {
		h.bytesAllocated = 0
	}
	newThreshold := h.bytesAllocated * 2
	if newThreshold < h.threshold {
		newThreshold = h.threshold
	}
	h.threshold = newThreshold
	h.collections++
	logger.Debug("gc: collection complete",
		"freed", humanize.Bytes(uint64(freedBytes)),
		"live", humanize.Bytes(uint64(h.bytesAllocated)),
		"threshold", humanize.Bytes(uint64(h.threshold)),
		"cycle", h.collections)
}

func (h *Heap) mark(v value.Value, seen map[uintptr]bool) {
	rv := reflect.ValueOf(v)
	if rv.Kind() == reflect.Ptr && !rv.IsNil() {
		addr := rv.Pointer()
		if seen[addr] {
			return
		}
		seen[addr] = true
		if b, ok := h.blocks[addr]; ok {
			b.marked = true
		}
	}

	for _, child := range children(v) {
		h.mark(child, seen)
	}
}

// FreePoolSlots reports how many recycled slots are tracked for a size
// class, used by diagnostics.
func (h *Heap) FreePoolSlots(sizeClass int) int { return len(h.freePool[sizeClass]) }
