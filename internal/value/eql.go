package value

// Eql implements Clojure `=` semantics (spec §3.1): structural equality for
// collections, numeric-tower equality across int/float, order-independent
// set/map comparison, byte-equal strings, (ns,name)-equal symbols/keywords,
// identity equality for references, and transparency through Reduced.
func Eql(a, b Value) bool {
	a = unwrapReduced(a)
	b = unwrapReduced(b)

	switch x := a.(type) {
	case Nil:
		_, ok := b.(Nil)
		return ok
	case Bool:
		y, ok := b.(Bool)
		return ok && x == y
	case Int:
		switch y := b.(type) {
		case Int:
			return x == y
		case Float:
			return float64(x) == float64(y)
		}
		return false
	case Float:
		switch y := b.(type) {
		case Int:
			return float64(x) == float64(y)
		case Float:
			return x == y
		}
		return false
	case Char:
		y, ok := b.(Char)
		return ok && x == y
	case Str:
		y, ok := b.(Str)
		return ok && x == y
	case Keyword:
		y, ok := b.(Keyword)
		return ok && x == y
	case Symbol:
		y, ok := b.(Symbol)
		return ok && x.NS == y.NS && x.Name == y.Name
	}

	if isSequential(a) && isSequential(b) {
		return seqEql(a, b)
	}

	switch x := a.(type) {
	case *Map:
		y, ok := b.(*Map)
		if !ok || x.Count() != y.Count() {
			return false
		}
		for _, e := range x.entries {
			v, ok := y.Get(e.Key)
			if !ok || !Eql(e.Val, v) {
				return false
			}
		}
		return true
	case *Set:
		y, ok := b.(*Set)
		if !ok || x.Count() != y.Count() {
			return false
		}
		for _, m := range x.members {
			if !y.Contains(m) {
				return false
			}
		}
		return true
	}

	// Everything else (fn, atom, var_ref, ...) compares by Go identity,
	// except regexes, which compare by source.
	return identical(a, b)
}

func unwrapReduced(v Value) Value {
	if r, ok := v.(*Reduced); ok {
		return r.Val
	}
	return v
}

// isSequential reports whether v participates in cross-type sequential
// equality (spec §3.2: "(= '(1 2) [1 2]) is true").
func isSequential(v Value) bool {
	switch v.(type) {
	case *List, *Vector, *Cons, *LazySeq, *vectorSeq, *mapSeq, *setSeq, *strSeq, Nil:
		return true
	default:
		return false
	}
}

func seqEql(a, b Value) bool {
	for {
		sa := Seq(a)
		sb := Seq(b)
		_, aNil := sa.(Nil)
		_, bNil := sb.(Nil)
		if aNil || bNil {
			return aNil == bNil
		}
		qa := sa.(Seqer)
		qb := sb.(Seqer)
		if !Eql(qa.First(), qb.First()) {
			return false
		}
		a = qa.Rest()
		b = qb.Rest()
	}
}

func identical(a, b Value) bool {
	switch x := a.(type) {
	case *List:
		y, ok := b.(*List)
		return ok && x == y
	case *Vector:
		y, ok := b.(*Vector)
		return ok && x == y
	case *Fn:
		y, ok := b.(*Fn)
		return ok && x == y
	case *Builtin:
		y, ok := b.(*Builtin)
		return ok && x == y
	case *Atom:
		y, ok := b.(*Atom)
		return ok && x == y
	case *Volatile:
		y, ok := b.(*Volatile)
		return ok && x == y
	case *Delay:
		y, ok := b.(*Delay)
		return ok && x == y
	case *LazySeq:
		y, ok := b.(*LazySeq)
		return ok && x == y
	case *Regex:
		y, ok := b.(*Regex)
		return ok && x.Source == y.Source
	case VarRef:
		y, ok := b.(VarRef)
		return ok && x.Target == y.Target
	case *Protocol:
		y, ok := b.(*Protocol)
		return ok && x == y
	case *ProtocolFn:
		y, ok := b.(*ProtocolFn)
		return ok && x == y
	case *MultiFn:
		y, ok := b.(*MultiFn)
		return ok && x == y
	case *ReifyInstance:
		y, ok := b.(*ReifyInstance)
		return ok && x == y
	default:
		return false
	}
}

// Identical reports pointer/value identity the way `identical?` does.
func Identical(a, b Value) bool {
	switch a.(type) {
	case Nil, Bool, Int, Float, Char, Str, Keyword, Symbol:
		return Eql(a, b)
	default:
		return identical(a, b)
	}
}
