package value

// Seqer is implemented by every normalized (non-empty) sequence view.
// First/Rest never observe the head variant directly — callers go through
// Seq/First/Rest/Next below.
type Seqer interface {
	Value
	First() Value
	Rest() Value // Nil or an empty list when exhausted, else another Seq-normalizable Value
}

// Seq normalizes any seqable Value into Nil (if empty/nil) or a Seqer.
// This mirrors Clojure's `seq` but is also the internal workhorse every
// seq-consuming builtin uses.
func Seq(v Value) Value {
	switch t := v.(type) {
	case Nil:
		return NilValue
	case *List:
		if t.IsEmpty() {
			return NilValue
		}
		return t
	case *Vector:
		if len(t.items) == 0 {
			return NilValue
		}
		return &vectorSeq{vec: t, idx: 0}
	case *Map:
		if len(t.entries) == 0 {
			return NilValue
		}
		return &mapSeq{entries: t.entries, idx: 0}
	case *Set:
		if len(t.members) == 0 {
			return NilValue
		}
		return &setSeq{members: t.members, idx: 0}
	case Str:
		if len(t) == 0 {
			return NilValue
		}
		return &strSeq{runes: []rune(string(t)), idx: 0}
	case *Cons:
		return t
	case *LazySeq:
		return t.realize()
	case *vectorSeq, *mapSeq, *setSeq, *strSeq:
		return t
	case *filteredTail:
		return Seq(t.realize())
	default:
		panic("value: not seqable: " + TypeName(v))
	}
}

// First returns the first element of v's seq, or Nil.
func First(v Value) Value {
	s := Seq(v)
	if sq, ok := s.(Seqer); ok {
		return sq.First()
	}
	return NilValue
}

// Rest returns the tail seq of v, always a (possibly empty) seq value,
// never Nil (spec §3.2).
func Rest(v Value) Value {
	s := Seq(v)
	sq, ok := s.(Seqer)
	if !ok {
		return EmptyList
	}
	r := sq.Rest()
	if _, isNil := r.(Nil); isNil {
		return EmptyList
	}
	return r
}

// Next returns Rest(v), or Nil if that rest is empty.
func Next(v Value) Value {
	r := Rest(v)
	if _, isNil := Seq(r).(Nil); isNil {
		return NilValue
	}
	return r
}

// Count returns the number of elements in a (possibly realized-lazily)
// sequence by walking it. Collections with O(1) counts should be checked
// by the caller before falling back to this.
func Count(v Value) int {
	switch t := v.(type) {
	case Nil:
		return 0
	case *List:
		return t.Count()
	case *Vector:
		return t.Count()
	case *Map:
		return t.Count()
	case *Set:
		return t.Count()
	case Str:
		return len([]rune(string(t)))
	}
	n := 0
	cur := v
	for {
		s := Seq(cur)
		if _, ok := s.(Nil); ok {
			return n
		}
		sq := s.(Seqer)
		n++
		cur = sq.Rest()
	}
}

type vectorSeq struct {
	vec *Vector
	idx int
}

func (*vectorSeq) valueMarker() {}
func (s *vectorSeq) First() Value { return s.vec.items[s.idx] }
func (s *vectorSeq) Rest() Value {
	if s.idx+1 >= len(s.vec.items) {
		return NilValue
	}
	return &vectorSeq{vec: s.vec, idx: s.idx + 1}
}

type mapSeq struct {
	entries []MapEntry
	idx     int
}

func (*mapSeq) valueMarker() {}
func (s *mapSeq) First() Value {
	e := s.entries[s.idx]
	return NewVector(e.Key, e.Val)
}
func (s *mapSeq) Rest() Value {
	if s.idx+1 >= len(s.entries) {
		return NilValue
	}
	return &mapSeq{entries: s.entries, idx: s.idx + 1}
}

type setSeq struct {
	members []Value
	idx     int
}

func (*setSeq) valueMarker() {}
func (s *setSeq) First() Value { return s.members[s.idx] }
func (s *setSeq) Rest() Value {
	if s.idx+1 >= len(s.members) {
		return NilValue
	}
	return &setSeq{members: s.members, idx: s.idx + 1}
}

type strSeq struct {
	runes []rune
	idx   int
}

func (*strSeq) valueMarker() {}
func (s *strSeq) First() Value { return Char(s.runes[s.idx]) }
func (s *strSeq) Rest() Value {
	if s.idx+1 >= len(s.runes) {
		return NilValue
	}
	return &strSeq{runes: s.runes, idx: s.idx + 1}
}

// CallBridge is the dependency-injected hook LazySeq uses to invoke its
// thunk. It is supplied by whoever constructs the LazySeq (the analyzer's
// `lazy-seq` special form, or a builtin like `filter`/`map`), not read from
// a package-level variable — this is the Go shape of the spec's "dependency
// injected trait object held by Env" design note (§9).
type CallBridge interface {
	Call(fn Value, args []Value) Value
}

// LazySeq wraps a zero-arg thunk realized at most once. FilterChain, when
// non-nil, holds a flat chain of predicate functions (§4.7) that realize
// applies in one loop instead of recursing through N LazySeq layers. No
// builtin sets it: `filter` is eager and returns a list, so nested filter
// calls are never collapsed into a FilterChain.
type LazySeq struct {
	thunk       Value
	bridge      CallBridge
	FilterChain []Value

	realized bool
	cached   Value // Nil or a Seqer, set after realize()
}

func (*LazySeq) valueMarker() {}

func NewLazySeq(thunk Value, bridge CallBridge) *LazySeq {
	return &LazySeq{thunk: thunk, bridge: bridge}
}

// Thunk exposes the unrealized thunk so the GC can keep it reachable.
func (l *LazySeq) Thunk() Value { return l.thunk }

// Cached returns the realized seq value and whether realization happened.
func (l *LazySeq) Cached() (Value, bool) { return l.cached, l.realized }

func (l *LazySeq) realize() Value {
	if l.realized {
		return l.cached
	}
	result := l.bridge.Call(l.thunk, nil)
	if len(l.FilterChain) > 0 {
		result = applyFilterChain(result, l.FilterChain, l.bridge)
	}
	l.cached = Seq(result)
	l.realized = true
	return l.cached
}

// applyFilterChain walks seq elements one at a time, testing each against
// every predicate in order, short-circuiting at the first miss. This keeps
// a 200-deep `(filter p (filter p ...))` chain from costing 200 stack
// frames per element realized (spec §8 property 7).
func applyFilterChain(seqVal Value, preds []Value, bridge CallBridge) Value {
	cur := seqVal
	for {
		s := Seq(cur)
		if _, ok := s.(Nil); ok {
			return NilValue
		}
		sq := s.(Seqer)
		item := sq.First()
		passAll := true
		for _, p := range preds {
			if !IsTruthy(bridge.Call(p, []Value{item})) {
				passAll = false
				break
			}
		}
		if passAll {
			rest := sq.Rest()
			return NewCons(item, &filteredTail{rest: rest, preds: preds, bridge: bridge})
		}
		cur = sq.Rest()
	}
}

// filteredTail defers the remainder of a collapsed filter chain until it is
// itself realized, preserving laziness past the first matching element.
type filteredTail struct {
	rest   Value
	preds  []Value
	bridge CallBridge
}

func (*filteredTail) valueMarker() {}
func (t *filteredTail) realize() Value { return applyFilterChain(t.rest, t.preds, t.bridge) }
