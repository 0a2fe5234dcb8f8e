package rt

import (
	"fmt"
	"sort"

	"github.com/cljwlang/cljw/internal/gc"
	"github.com/cljwlang/cljw/internal/value"
)

// Env is the single runtime environment instance threaded through the
// reader, analyzer, and both evaluators. It owns namespace registration,
// the isa? hierarchy, the GC heap, and the cross-backend CallBridge
// (spec §9's dependency-injected trait object: "only callers routed
// through Env can perform cross-backend calls").
type Env struct {
	Namespaces map[string]*Namespace
	Current    *Namespace
	Hierarchy  *Hierarchy
	Heap       *gc.Heap
	Bridge     value.CallBridge

	LoadedLibs map[string]bool

	// RecordSchemas maps a defrecord name to its field names in declaration
	// order, so the host-level record constructors (see internal/builtin's
	// __record-new/__record-from-map) know how to lay out a ReifyInstance's
	// backing Map without the analyzer needing to emit that logic as AST.
	RecordSchemas map[string][]string

	// Protocols maps a defprotocol name to its runtime table, and Protocol
	// is consulted by extend-type/defrecord wiring and by protocol method
	// calls (spec §4.9).
	Protocols map[string]*value.Protocol
}

// NewEnv constructs an Env with a "user" namespace current, and registers
// its own GC root provider: every Var's root binding and live dynamic
// bindings across every namespace.
func NewEnv(heap *gc.Heap) *Env {
	e := &Env{
		Namespaces:    make(map[string]*Namespace),
		Hierarchy:     NewHierarchy(),
		Heap:          heap,
		LoadedLibs:    make(map[string]bool),
		RecordSchemas: make(map[string][]string),
		Protocols:     make(map[string]*value.Protocol),
	}
	e.Current = e.FindOrCreateNamespace("user")
	if heap != nil {
		heap.RegisterRoots(e.gcRoots)
	}
	return e
}

func (e *Env) gcRoots() []value.Value {
	var roots []value.Value
	for _, ns := range e.Namespaces {
		for _, v := range ns.Mappings {
			if v.hasRoot {
				roots = append(roots, v.root)
			}
			roots = append(roots, v.dynamic...)
			if v.Meta != nil {
				roots = append(roots, v.Meta)
			}
		}
	}
	return roots
}

func (e *Env) FindOrCreateNamespace(name string) *Namespace {
	if ns, ok := e.Namespaces[name]; ok {
		return ns
	}
	ns := NewNamespace(name)
	e.Namespaces[name] = ns
	return ns
}

func (e *Env) FindNamespace(name string) (*Namespace, bool) {
	ns, ok := e.Namespaces[name]
	return ns, ok
}

// InNs switches the current namespace, creating it if absent (`in-ns`).
func (e *Env) InNs(name string) *Namespace {
	ns := e.FindOrCreateNamespace(name)
	e.Current = ns
	return ns
}

// RemoveNamespace implements `remove-ns`. No namespace is protected:
// "user", the currently-active namespace and `clojure.core` can all be
// removed, here and in the `remove-ns` builtin.
func (e *Env) RemoveNamespace(name string) {
	delete(e.Namespaces, name)
}

// AllNamespaces returns every registered namespace, sorted by name for
// deterministic `all-ns` output.
func (e *Env) AllNamespaces() []*Namespace {
	out := make([]*Namespace, 0, len(e.Namespaces))
	for _, ns := range e.Namespaces {
		out = append(out, ns)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out
}

// Resolve implements symbol resolution step (2)-(4) from spec §3.3: step
// (1), lexical locals, is the analyzer's job and never reaches Env.
// A namespace-qualified symbol (sym.NS != "") first looks sym.NS up in the
// current namespace's Aliases, then among all namespaces by name, and
// reads that namespace's Mappings only (refers don't cross a second time).
func (e *Env) Resolve(sym value.Symbol) (*Var, bool) {
	if sym.NS != "" {
		ns, ok := e.Current.Aliases[sym.NS]
		if !ok {
			ns, ok = e.Namespaces[sym.NS]
		}
		if !ok {
			return nil, false
		}
		v, ok := ns.Mappings[sym.Name]
		return v, ok
	}
	return e.Current.Lookup(sym.Name)
}

// Intern interns name into ns, returning its Var (creating one if absent).
func (e *Env) Intern(ns *Namespace, name string) *Var {
	return ns.Intern(name)
}

// ResolveOrError is a convenience wrapper producing the "Unable to
// resolve symbol" error text real Clojure uses, for the analyzer's
// var_ref node construction.
func (e *Env) ResolveOrError(sym value.Symbol) (*Var, error) {
	v, ok := e.Resolve(sym)
	if !ok {
		return nil, fmt.Errorf("unable to resolve symbol: %s in this context", sym.String())
	}
	return v, nil
}
