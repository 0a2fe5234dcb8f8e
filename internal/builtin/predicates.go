package builtin

import (
	"github.com/cljwlang/cljw/internal/rt"
	"github.com/cljwlang/cljw/internal/value"
)

func pred(ns *rt.Namespace, name string, fn func(v value.Value) bool) {
	def(ns, name, 1, 1, func(args []value.Value) (value.Value, error) {
		return value.Bool(fn(args[0])), nil
	})
}

func registerPredicates(ns *rt.Namespace) {
	pred(ns, "nil?", func(v value.Value) bool { _, ok := v.(value.Nil); return ok })
	pred(ns, "true?", func(v value.Value) bool { b, ok := v.(value.Bool); return ok && bool(b) })
	pred(ns, "false?", func(v value.Value) bool { b, ok := v.(value.Bool); return ok && !bool(b) })
	pred(ns, "boolean?", func(v value.Value) bool { _, ok := v.(value.Bool); return ok })
	pred(ns, "number?", func(v value.Value) bool {
		switch v.(type) {
		case value.Int, value.Float:
			return true
		}
		return false
	})
	pred(ns, "integer?", func(v value.Value) bool { _, ok := v.(value.Int); return ok })
	pred(ns, "float?", func(v value.Value) bool { _, ok := v.(value.Float); return ok })
	pred(ns, "string?", func(v value.Value) bool { _, ok := v.(value.Str); return ok })
	pred(ns, "char?", func(v value.Value) bool { _, ok := v.(value.Char); return ok })
	pred(ns, "keyword?", func(v value.Value) bool { _, ok := v.(value.Keyword); return ok })
	pred(ns, "symbol?", func(v value.Value) bool { _, ok := v.(value.Symbol); return ok })
	pred(ns, "vector?", func(v value.Value) bool { _, ok := v.(*value.Vector); return ok })
	pred(ns, "map?", func(v value.Value) bool { _, ok := v.(*value.Map); return ok })
	pred(ns, "set?", func(v value.Value) bool { _, ok := v.(*value.Set); return ok })
	pred(ns, "list?", func(v value.Value) bool { _, ok := v.(*value.List); return ok })
	pred(ns, "fn?", func(v value.Value) bool {
		switch v.(type) {
		case *value.Fn, *value.Builtin:
			return true
		}
		return false
	})
	pred(ns, "ifn?", func(v value.Value) bool {
		switch v.(type) {
		case *value.Fn, *value.Builtin, *value.MultiFn, *value.ProtocolFn, value.Keyword, *value.Map, *value.Set, *value.Vector, value.VarRef:
			return true
		}
		return false
	})
	pred(ns, "seq?", func(v value.Value) bool {
		switch v.(type) {
		case *value.List, *value.Cons, *value.LazySeq:
			return true
		}
		return false
	})
	pred(ns, "coll?", func(v value.Value) bool {
		switch v.(type) {
		case *value.List, *value.Vector, *value.Map, *value.Set, *value.Cons, *value.LazySeq:
			return true
		}
		return false
	})
	pred(ns, "sequential?", func(v value.Value) bool {
		switch v.(type) {
		case *value.List, *value.Vector, *value.Cons, *value.LazySeq:
			return true
		}
		return false
	})
	pred(ns, "associative?", func(v value.Value) bool {
		switch v.(type) {
		case *value.Map, *value.Vector:
			return true
		}
		return false
	})
	pred(ns, "empty?", func(v value.Value) bool {
		return value.Count(v) == 0
	})
	pred(ns, "even?", func(v value.Value) bool { n, _, _ := numVal(v); return int64(n)%2 == 0 })
	pred(ns, "odd?", func(v value.Value) bool { n, _, _ := numVal(v); return int64(n)%2 != 0 })
	pred(ns, "pos?", func(v value.Value) bool { n, _, _ := numVal(v); return n > 0 })
	pred(ns, "neg?", func(v value.Value) bool { n, _, _ := numVal(v); return n < 0 })
	pred(ns, "zero?", func(v value.Value) bool { n, _, _ := numVal(v); return n == 0 })
}
