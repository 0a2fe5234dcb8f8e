package value

// Atom is the only Value (besides Volatile) that is ever mutated in place.
// Mutations serialize through swap/reset; see internal/builtin's swap! for
// the apply-then-install retry loop required by spec §5.
type Atom struct {
	val  Value
	Meta *Map
}

func (*Atom) valueMarker() {}

func NewAtom(v Value) *Atom { return &Atom{val: v} }

func (a *Atom) Deref() Value { return a.val }

// Reset replaces the atom's value unconditionally and returns it.
func (a *Atom) Reset(v Value) Value {
	a.val = v
	return v
}

// CompareAndSet stores v iff the current value is Eql to expected.
func (a *Atom) CompareAndSet(expected, v Value) bool {
	if !Eql(a.val, expected) {
		return false
	}
	a.val = v
	return true
}

// Volatile is the non-atomic analogue of Atom (spec §4.8).
type Volatile struct {
	val Value
}

func (*Volatile) valueMarker() {}

func NewVolatile(v Value) *Volatile { return &Volatile{val: v} }
func (v *Volatile) Deref() Value    { return v.val }
func (v *Volatile) Reset(x Value) Value {
	v.val = x
	return x
}

// Delay wraps a thunk realized at most once via the same CallBridge
// mechanism LazySeq uses.
type Delay struct {
	thunk    Value
	bridge   CallBridge
	realized bool
	cached   Value
	err      error
}

func (*Delay) valueMarker() {}

func NewDelay(thunk Value, bridge CallBridge) *Delay {
	return &Delay{thunk: thunk, bridge: bridge}
}

// Force realizes the delay at most once, caching the result. If the thunk
// panics, nothing is cached: the panic propagates to the caller and the
// next Force calls the thunk again.
func (d *Delay) Force() Value {
	if !d.realized {
		d.cached = d.bridge.Call(d.thunk, nil)
		d.realized = true
	}
	return d.cached
}

func (d *Delay) IsRealized() bool { return d.realized }

// Thunk exposes the unrealized thunk so the GC can keep it reachable.
func (d *Delay) Thunk() Value { return d.thunk }

// Cached returns the realized value and whether realization happened.
func (d *Delay) Cached() (Value, bool) { return d.cached, d.realized }
