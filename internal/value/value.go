// Package value defines the tagged Value model shared by every backend:
// the reader, the analyzer, both evaluators, and the builtin registry all
// pass values.Value around. Go has no closed sum type, so each variant from
// spec §3.1 is its own concrete type implementing the Value interface; code
// that must handle every variant uses an exhaustive type switch with a
// panic default, which is this port's answer to the "exhaustive variant
// handling" design note.
package value

import "fmt"

// Value is implemented by every runtime value variant. The marker method
// keeps arbitrary Go types from accidentally satisfying the interface.
type Value interface {
	valueMarker()
}

// Nil is the single nil value. Use the package-level NilValue instance everywhere
// rather than allocating a new one.
type Nil struct{}

func (Nil) valueMarker() {}

// NilValue is the canonical nil Value.
var NilValue = Nil{}

// Bool wraps a boolean.
type Bool bool

func (Bool) valueMarker() {}

// True and False are the canonical boolean Values.
var (
	True  = Bool(true)
	False = Bool(false)
)

// Int is a 64-bit signed integer.
type Int int64

func (Int) valueMarker() {}

// Float is a 64-bit IEEE float.
type Float float64

func (Float) valueMarker() {}

// Char is a single Unicode code point.
type Char rune

func (Char) valueMarker() {}

// Str is an immutable UTF-8 string.
type Str string

func (Str) valueMarker() {}

// Keyword is a {ns, name} pair, printed as :name or :ns/name.
type Keyword struct {
	NS   string
	Name string
}

func (Keyword) valueMarker() {}

// NewKeyword returns a Keyword. Keywords are not interned: there is no
// intern table, and two Keywords are equal when their NS and Name are.
func NewKeyword(ns, name string) Keyword { return Keyword{NS: ns, Name: name} }

func (k Keyword) String() string {
	if k.NS == "" {
		return ":" + k.Name
	}
	return ":" + k.NS + "/" + k.Name
}

// Symbol is {ns, name, optional meta}.
type Symbol struct {
	NS   string
	Name string
	Meta *Map
}

func (Symbol) valueMarker() {}

func NewSymbol(ns, name string) Symbol { return Symbol{NS: ns, Name: name} }

func (s Symbol) String() string {
	if s.NS == "" {
		return s.Name
	}
	return s.NS + "/" + s.Name
}

// WithMeta returns a copy of the symbol carrying the given metadata map.
func (s Symbol) WithMeta(m *Map) Symbol {
	s.Meta = m
	return s
}

// Reduced wraps a value for early termination of reduce.
type Reduced struct {
	Val Value
}

func (*Reduced) valueMarker() {}

// VarRef is a non-owning pointer to a Var (defined in internal/rt); the
// value package only needs an opaque handle so it can be a Value variant
// without importing rt (which imports value). The concrete *rt.Var is
// stored behind this interface to break the cycle.
type VarRef struct {
	Target VarLike
}

func (VarRef) valueMarker() {}

// VarLike is the minimal surface the value package needs from rt.Var.
type VarLike interface {
	Deref() Value
	QualifiedName() string
}

func TypeName(v Value) string {
	switch v.(type) {
	case Nil:
		return "nil"
	case Bool:
		return "boolean"
	case Int:
		return "integer"
	case Float:
		return "float"
	case Char:
		return "character"
	case Str:
		return "string"
	case Keyword:
		return "keyword"
	case Symbol:
		return "symbol"
	case *List:
		return "list"
	case *Vector:
		return "vector"
	case *Map:
		return "map"
	case *Set:
		return "set"
	case *Fn:
		return "function"
	case *Builtin:
		return "function"
	case *Atom:
		return "atom"
	case *Volatile:
		return "volatile"
	case *Delay:
		return "delay"
	case *LazySeq:
		return "lazy-seq"
	case *Cons:
		return "cons"
	case *Regex:
		return "regex"
	case VarRef:
		return "var"
	case *Protocol:
		return "protocol"
	case *ProtocolFn:
		return "protocol-fn"
	case *MultiFn:
		return "multi-fn"
	case *Reduced:
		return "reduced"
	case *ReifyInstance:
		return "reify"
	default:
		panic(fmt.Sprintf("value: unhandled kind %T", v))
	}
}

// IsTruthy implements isTruthy(v) = (v != nil) && (v != false).
func IsTruthy(v Value) bool {
	switch x := v.(type) {
	case Nil:
		return false
	case Bool:
		return bool(x)
	default:
		return true
	}
}
