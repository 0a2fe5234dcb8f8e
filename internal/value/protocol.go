package value

// Protocol holds method signatures and per-type implementations. Types are
// keyed by their runtime type tag string (see internal/rt.TypeTag), so the
// value package stays ignorant of namespaces/Vars.
type Protocol struct {
	Name    string
	Methods []string // method names, in declaration order
	Impls   map[string]map[string]Value // type tag -> method name -> fn
	Meta    *Map
}

func (*Protocol) valueMarker() {}

func NewProtocol(name string, methods []string) *Protocol {
	return &Protocol{Name: name, Methods: methods, Impls: map[string]map[string]Value{}}
}

func (p *Protocol) Extend(typeTag, method string, fn Value) {
	m, ok := p.Impls[typeTag]
	if !ok {
		m = map[string]Value{}
		p.Impls[typeTag] = m
	}
	m[method] = fn
}

func (p *Protocol) Lookup(typeTag, method string) (Value, bool) {
	m, ok := p.Impls[typeTag]
	if !ok {
		return NilValue, false
	}
	fn, ok := m[method]
	return fn, ok
}

// ProtocolFn is the callable Value bound to each protocol method name; it
// resolves the implementation from the first argument's type tag at call
// time (spec §4.9).
type ProtocolFn struct {
	Proto  *Protocol
	Method string
}

func (*ProtocolFn) valueMarker() {}

// ReifyInstance is a map-shaped value produced by `reify`/`defrecord`,
// carrying its own method table plus a :__reify_type marker key in Fields
// for introspection, matching the source's representation (spec §3.1).
type ReifyInstance struct {
	TypeKey string
	Fields  *Map
	Methods map[string]Value
}

func (*ReifyInstance) valueMarker() {}

const ReifyTypeKey = "__reify_type"
