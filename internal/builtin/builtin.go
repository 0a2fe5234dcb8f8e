// Package builtin registers the static native-function table spec §2's
// component 12 and §4.8 describe into a fresh Env's "clojure.core" and
// "cljw.host" namespaces. Register is the single entry point the
// bootstrap pipeline calls after constructing Env and wiring its Bridge.
package builtin

import (
	"github.com/cljwlang/cljw/internal/regex"
	"github.com/cljwlang/cljw/internal/rt"
	"github.com/cljwlang/cljw/internal/value"
)

// Register installs every native builtin. The builtins that call back
// into user code (map/filter/reduce/swap!/apply, etc.) read env.Bridge
// when they are called, so it only has to be set before the first such
// call.
func Register(env *rt.Env) {
	core := env.FindOrCreateNamespace("clojure.core")
	host := env.FindOrCreateNamespace(hostNamespaceName)

	registerArithmetic(core)
	registerCompare(core)
	registerPredicates(core)
	registerCollections(core, env)
	registerStrings(core)
	registerIO(core)
	registerMutable(core, env)
	registerHost(host, env)
	registerRecords(host, env)
	registerNamespaces(core, env)
	registerMeta(core, env)
	regex.Register(core)
}

const hostNamespaceName = "cljw.host"

// def interns name in ns and sets its root to a Builtin with the given
// arity range (max < 0 means variadic) and implementation.
func def(ns *rt.Namespace, name string, min, max int, fn func(args []value.Value) (value.Value, error)) {
	v := ns.Intern(name)
	v.SetRoot(&value.Builtin{Name: name, MinArity: min, MaxArity: max, Fn: fn})
}

// defIntrinsic is def plus a VMIntrinsic tag, for the handful of builtins
// the bytecode compiler recognizes by name at the call site and compiles
// to a dedicated opcode instead of a generic call (spec §4.5 emitCall).
// The Fn here still has to be correct and complete on its own: the
// tree-walk backend and any arity the compiler doesn't special-case both
// call it exactly like any other Builtin.
func defIntrinsic(ns *rt.Namespace, name string, min, max int, fn func(args []value.Value) (value.Value, error), intrinsic string) {
	v := ns.Intern(name)
	v.SetRoot(&value.Builtin{Name: name, MinArity: min, MaxArity: max, Fn: fn, VMIntrinsic: intrinsic})
}
