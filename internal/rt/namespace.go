package rt

import "github.com/cljwlang/cljw/internal/value"

// Namespace holds three lookup tables, consulted in the order spec §3.3
// specifies for symbol resolution: Mappings (interned-here, includes
// publics and privates), Refers (pulled in by `refer`/`use`), and Aliases
// (short name -> namespace, consulted by Env.Resolve for qualified
// symbols; no builtin adds entries to it).
type Namespace struct {
	Name     string
	Mappings map[string]*Var
	Refers   map[string]*Var
	Aliases  map[string]*Namespace
	Meta     *value.Map
}

func NewNamespace(name string) *Namespace {
	return &Namespace{
		Name:     name,
		Mappings: make(map[string]*Var),
		Refers:   make(map[string]*Var),
		Aliases:  make(map[string]*Namespace),
	}
}

// Intern returns the existing Var for name, creating an unbound one if
// this is the first reference (matches Clojure's `intern`/`def` behavior
// of not clobbering an existing root binding).
func (ns *Namespace) Intern(name string) *Var {
	if v, ok := ns.Mappings[name]; ok {
		return v
	}
	v := &Var{NsName: ns.Name, Name: name}
	ns.Mappings[name] = v
	return v
}

// Lookup resolves an unqualified symbol within ns: own mappings first,
// then referred Vars.
func (ns *Namespace) Lookup(name string) (*Var, bool) {
	if v, ok := ns.Mappings[name]; ok {
		return v, true
	}
	if v, ok := ns.Refers[name]; ok {
		return v, true
	}
	return nil, false
}

// Refer pulls var into ns's refer table under local name, as `refer`/`use`
// do for every public Var of a required namespace.
func (ns *Namespace) Refer(localName string, v *Var) {
	ns.Refers[localName] = v
}

// ReferAll pulls every public Var of from into ns's refer table, the way a
// freshly created namespace auto-refers clojure.core.
func (ns *Namespace) ReferAll(from *Namespace) {
	for name, v := range from.Publics() {
		ns.Refers[name] = v
	}
}

// Unmap removes a name from both Mappings and Refers, per `ns-unmap`.
func (ns *Namespace) Unmap(name string) {
	delete(ns.Mappings, name)
	delete(ns.Refers, name)
}

// Publics returns the subset of Mappings whose Vars are not private, for
// `ns-publics`.
func (ns *Namespace) Publics() map[string]*Var {
	out := make(map[string]*Var)
	for name, v := range ns.Mappings {
		if !v.IsPrivate {
			out[name] = v
		}
	}
	return out
}
