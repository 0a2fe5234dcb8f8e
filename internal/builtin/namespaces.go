package builtin

import (
	"fmt"

	"github.com/cljwlang/cljw/internal/rt"
	"github.com/cljwlang/cljw/internal/value"
)

// registerNamespaces wires the reflective namespace surface SPEC_FULL.md
// adds beyond the distilled spec (ns-publics/the-ns/all-ns/remove-ns),
// plus in-ns/create-ns, which the embedded core library and `require`
// both need to switch Env.Current while loading.
func registerNamespaces(ns *rt.Namespace, env *rt.Env) {
	def(ns, "in-ns", 1, 1, func(args []value.Value) (value.Value, error) {
		name, err := nsName(args[0])
		if err != nil {
			return nil, err
		}
		env.InNs(name)
		return nsValue(env.Current), nil
	})
	def(ns, "refer", 1, 1, func(args []value.Value) (value.Value, error) {
		name, err := nsName(args[0])
		if err != nil {
			return nil, err
		}
		from, ok := env.FindNamespace(name)
		if !ok {
			return nil, fmt.Errorf("no namespace: %s", name)
		}
		env.Current.ReferAll(from)
		return value.NilValue, nil
	})
	def(ns, "create-ns", 1, 1, func(args []value.Value) (value.Value, error) {
		name, err := nsName(args[0])
		if err != nil {
			return nil, err
		}
		return nsValue(env.FindOrCreateNamespace(name)), nil
	})
	def(ns, "the-ns", 1, 1, func(args []value.Value) (value.Value, error) {
		name, err := nsName(args[0])
		if err != nil {
			return nil, err
		}
		n, ok := env.FindNamespace(name)
		if !ok {
			return nil, fmt.Errorf("no namespace: %s", name)
		}
		return nsValue(n), nil
	})
	def(ns, "all-ns", 0, 0, func(args []value.Value) (value.Value, error) {
		items := make([]value.Value, 0)
		for _, n := range env.AllNamespaces() {
			items = append(items, nsValue(n))
		}
		return value.NewList(items...), nil
	})
	def(ns, "remove-ns", 1, 1, func(args []value.Value) (value.Value, error) {
		name, err := nsName(args[0])
		if err != nil {
			return nil, err
		}
		env.RemoveNamespace(name)
		return value.NilValue, nil
	})
	def(ns, "ns-name", 1, 1, func(args []value.Value) (value.Value, error) {
		n, err := asNamespace(env, args[0])
		if err != nil {
			return nil, err
		}
		return value.NewSymbol("", n.Name), nil
	})
	def(ns, "ns-publics", 1, 1, func(args []value.Value) (value.Value, error) {
		n, err := asNamespace(env, args[0])
		if err != nil {
			return nil, err
		}
		m := value.EmptyMap
		for name, v := range n.Publics() {
			m = m.Assoc(value.NewSymbol("", name), value.VarRef{Target: v})
		}
		return m, nil
	})
}

// A namespace is represented to Clojure code by its name symbol rather
// than a first-class opaque Value: internal/value cannot import
// internal/rt (rt already imports value), so a *rt.Namespace has no home
// in the Value union, and spec scope never requires passing a namespace
// object anywhere but back into one of these lookup functions.
func nsName(v value.Value) (string, error) {
	switch n := v.(type) {
	case value.Symbol:
		return n.Name, nil
	case value.Str:
		return string(n), nil
	default:
		return "", fmt.Errorf("expected a namespace name, got %s", value.TypeName(v))
	}
}

func asNamespace(env *rt.Env, v value.Value) (*rt.Namespace, error) {
	name, err := nsName(v)
	if err != nil {
		return nil, err
	}
	n, ok := env.FindNamespace(name)
	if !ok {
		return nil, fmt.Errorf("no namespace: %s", name)
	}
	return n, nil
}

func nsValue(n *rt.Namespace) value.Value {
	return value.NewSymbol("", n.Name)
}
