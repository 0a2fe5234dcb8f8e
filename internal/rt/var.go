// Package rt implements the runtime environment from spec §3.3: Vars,
// Namespaces, and the Env that ties them together with the GC heap, the
// type hierarchy used by `isa?`/multimethods, and the cross-backend call
// bridge.
package rt

import "github.com/cljwlang/cljw/internal/value"

// Var is a named mutable cell inside a Namespace (spec §3.3). The dynamic
// binding stack is an explicit slice (not a goroutine-local), matching
// spec §9's "maintained per-Var as an explicit stack since evaluation is
// single-threaded".
type Var struct {
	NsName string
	Name   string

	root    value.Value
	hasRoot bool
	dynamic []value.Value

	Meta      *value.Map
	IsMacro   bool
	IsDynamic bool
	IsPrivate bool
	IsConst   bool
}

// Deref implements value.VarLike: innermost dynamic binding wins, else the
// root binding, else Nil for an unbound Var.
func (v *Var) Deref() value.Value {
	if n := len(v.dynamic); n > 0 {
		return v.dynamic[n-1]
	}
	if !v.hasRoot {
		return value.NilValue
	}
	return v.root
}

func (v *Var) QualifiedName() string { return v.NsName + "/" + v.Name }

func (v *Var) HasRoot() bool { return v.hasRoot }

func (v *Var) SetRoot(val value.Value) {
	v.root = val
	v.hasRoot = true
}

// PushBinding establishes a new dynamic (thread-local in the source;
// evaluation-local here) binding frame.
func (v *Var) PushBinding(val value.Value) { v.dynamic = append(v.dynamic, val) }

// PopBinding removes the innermost dynamic binding. Safe to call on all
// exit paths, including through a thrown exception (spec §9).
func (v *Var) PopBinding() {
	if n := len(v.dynamic); n > 0 {
		v.dynamic = v.dynamic[:n-1]
	}
}

func (v *Var) IsBound() bool { return v.hasRoot || len(v.dynamic) > 0 }

// ToVarRef wraps v as a Value for `(var sym)`/`#'sym`.
func (v *Var) ToVarRef() value.VarRef { return value.VarRef{Target: v} }
