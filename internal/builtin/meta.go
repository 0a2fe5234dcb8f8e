package builtin

import (
	"github.com/cljwlang/cljw/internal/rt"
	"github.com/cljwlang/cljw/internal/value"
)

// registerMeta wires the functional-combinator and metadata builtins
// SPEC_FULL.md's Value & Collections expansion calls for beyond the
// distilled spec's collection operations: meta/with-meta (only the Value
// variants that actually carry a *Map, per value/*.go) and the handful of
// fn-combinators (identity, comp, partial, complement, constantly) that
// the embedded core library's macros and higher-order code lean on.
func registerMeta(ns *rt.Namespace, env *rt.Env) {
	def(ns, "meta", 1, 1, func(args []value.Value) (value.Value, error) {
		m := metaOf(args[0])
		if m == nil {
			return value.NilValue, nil
		}
		return m, nil
	})
	def(ns, "with-meta", 2, 2, func(args []value.Value) (value.Value, error) {
		m, ok := args[1].(*value.Map)
		if !ok {
			if _, isNil := args[1].(value.Nil); !isNil {
				return nil, rt.NewError("IllegalArgumentException", "with-meta requires a map")
			}
		}
		return withMeta(args[0], m)
	})
	def(ns, "vary-meta", 2, -1, func(args []value.Value) (value.Value, error) {
		cur := metaOf(args[0])
		if cur == nil {
			cur = value.EmptyMap
		}
		fn := args[1]
		callArgs := append([]value.Value{cur}, args[2:]...)
		updated := env.Bridge.Call(fn, callArgs)
		m, ok := updated.(*value.Map)
		if !ok {
			return nil, rt.NewError("IllegalArgumentException", "vary-meta function must return a map")
		}
		return withMeta(args[0], m)
	})
	def(ns, "identity", 1, 1, func(args []value.Value) (value.Value, error) {
		return args[0], nil
	})
	def(ns, "constantly", 1, 1, func(args []value.Value) (value.Value, error) {
		v := args[0]
		return &value.Builtin{Name: "constantly-fn", MinArity: 0, MaxArity: -1, Fn: func([]value.Value) (value.Value, error) {
			return v, nil
		}}, nil
	})
	def(ns, "complement", 1, 1, func(args []value.Value) (value.Value, error) {
		fn := args[0]
		return &value.Builtin{Name: "complement-fn", MinArity: 0, MaxArity: -1, Fn: func(inner []value.Value) (value.Value, error) {
			return value.Bool(!value.IsTruthy(env.Bridge.Call(fn, inner))), nil
		}}, nil
	})
	def(ns, "partial", 1, -1, func(args []value.Value) (value.Value, error) {
		fn := args[0]
		bound := append([]value.Value{}, args[1:]...)
		return &value.Builtin{Name: "partial-fn", MinArity: 0, MaxArity: -1, Fn: func(inner []value.Value) (value.Value, error) {
			callArgs := append(append([]value.Value{}, bound...), inner...)
			return env.Bridge.Call(fn, callArgs), nil
		}}, nil
	})
	def(ns, "comp", 0, -1, func(args []value.Value) (value.Value, error) {
		fns := append([]value.Value{}, args...)
		return &value.Builtin{Name: "comp-fn", MinArity: 0, MaxArity: -1, Fn: func(inner []value.Value) (value.Value, error) {
			if len(fns) == 0 {
				if len(inner) == 1 {
					return inner[0], nil
				}
				return value.NilValue, nil
			}
			result := env.Bridge.Call(fns[len(fns)-1], inner)
			for i := len(fns) - 2; i >= 0; i-- {
				result = env.Bridge.Call(fns[i], []value.Value{result})
			}
			return result, nil
		}}, nil
	})
	def(ns, "ex-info", 2, 2, func(args []value.Value) (value.Value, error) {
		msg, ok := args[0].(value.Str)
		if !ok {
			return nil, rt.NewError("IllegalArgumentException", "ex-info message must be a string")
		}
		data := args[1]
		m := value.EmptyMap.
			Assoc(value.NewKeyword("", "message"), msg).
			Assoc(value.NewKeyword("", "data"), data).
			Assoc(value.NewKeyword("", "type"), value.NewSymbol("", "ExceptionInfo"))
		return m, nil
	})
	def(ns, "ex-message", 1, 1, func(args []value.Value) (value.Value, error) {
		m, ok := args[0].(*value.Map)
		if !ok {
			return value.NilValue, nil
		}
		if v, ok := m.Get(value.NewKeyword("", "message")); ok {
			return v, nil
		}
		return value.NilValue, nil
	})
	def(ns, "ex-data", 1, 1, func(args []value.Value) (value.Value, error) {
		m, ok := args[0].(*value.Map)
		if !ok {
			return value.NilValue, nil
		}
		if v, ok := m.Get(value.NewKeyword("", "data")); ok {
			return v, nil
		}
		return value.NilValue, nil
	})
	def(ns, "type", 1, 1, func(args []value.Value) (value.Value, error) {
		return value.NewSymbol("", value.TypeName(args[0])), nil
	})
	def(ns, "instance?", 2, 2, func(args []value.Value) (value.Value, error) {
		name, err := nsName(args[0])
		if err != nil {
			return nil, err
		}
		return value.Bool(value.TypeName(args[1]) == name), nil
	})
}

// metaOf returns the *Map carried by v, or nil if v's type has no metadata
// slot at all (most collection types, currently).
func metaOf(v value.Value) *value.Map {
	switch t := v.(type) {
	case value.Symbol:
		return t.Meta
	case *value.Fn:
		return t.Meta
	case *value.Atom:
		return t.Meta
	case *value.MultiFn:
		return t.Meta
	case *value.Protocol:
		return t.Meta
	default:
		return nil
	}
}

// withMeta attaches m to v, copying for value types (Symbol) and mutating
// in place for the reference types (Fn/Atom/MultiFn/Protocol all already
// live behind a pointer shared by every holder, so Clojure's "returns a new
// object with different metadata" semantics collapse to the same pointer
// here).
func withMeta(v value.Value, m *value.Map) (value.Value, error) {
	switch t := v.(type) {
	case value.Symbol:
		return t.WithMeta(m), nil
	case *value.Fn:
		t.Meta = m
		return t, nil
	case *value.Atom:
		t.Meta = m
		return t, nil
	case *value.MultiFn:
		t.Meta = m
		return t, nil
	case *value.Protocol:
		t.Meta = m
		return t, nil
	default:
		return nil, rt.NewError("IllegalArgumentException", value.TypeName(v)+" does not support metadata")
	}
}
