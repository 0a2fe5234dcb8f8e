package builtin

import (
	"fmt"

	"github.com/cljwlang/cljw/internal/rt"
	"github.com/cljwlang/cljw/internal/value"
)

// registerHigherOrder wires the handful of core functions that must call
// back into user code (spec §9's dependency-injected bridge), reading
// env.Bridge lazily at call time so registration order never depends on
// when dispatch.New(env) assigned it.
func registerHigherOrder(ns *rt.Namespace, env *rt.Env) {
	def(ns, "apply", 2, -1, func(args []value.Value) (value.Value, error) {
		fn := args[0]
		last := args[len(args)-1]
		callArgs := append([]value.Value{}, args[1:len(args)-1]...)
		callArgs = append(callArgs, seqToSlice(last)...)
		return env.Bridge.Call(fn, callArgs), nil
	})
	def(ns, "map", 2, -1, func(args []value.Value) (value.Value, error) {
		fn := args[0]
		seqs := make([][]value.Value, len(args)-1)
		minLen := -1
		for i, s := range args[1:] {
			seqs[i] = seqToSlice(s)
			if minLen < 0 || len(seqs[i]) < minLen {
				minLen = len(seqs[i])
			}
		}
		out := make([]value.Value, 0, minLen)
		for i := 0; i < minLen; i++ {
			callArgs := make([]value.Value, len(seqs))
			for j := range seqs {
				callArgs[j] = seqs[j][i]
			}
			out = append(out, env.Bridge.Call(fn, callArgs))
		}
		return value.NewList(out...), nil
	})
	def(ns, "filter", 2, 2, func(args []value.Value) (value.Value, error) {
		fn := args[0]
		var out []value.Value
		for _, v := range seqToSlice(args[1]) {
			if value.IsTruthy(env.Bridge.Call(fn, []value.Value{v})) {
				out = append(out, v)
			}
		}
		return value.NewList(out...), nil
	})
	def(ns, "remove", 2, 2, func(args []value.Value) (value.Value, error) {
		fn := args[0]
		var out []value.Value
		for _, v := range seqToSlice(args[1]) {
			if !value.IsTruthy(env.Bridge.Call(fn, []value.Value{v})) {
				out = append(out, v)
			}
		}
		return value.NewList(out...), nil
	})
	def(ns, "mapcat", 2, -1, func(args []value.Value) (value.Value, error) {
		fn := args[0]
		var out []value.Value
		for _, v := range seqToSlice(args[1]) {
			result := env.Bridge.Call(fn, []value.Value{v})
			out = append(out, seqToSlice(result)...)
		}
		return value.NewList(out...), nil
	})
	def(ns, "reduce", 2, 3, func(args []value.Value) (value.Value, error) {
		fn := args[0]
		var acc value.Value
		var items []value.Value
		if len(args) == 3 {
			acc = args[1]
			items = seqToSlice(args[2])
		} else {
			items = seqToSlice(args[1])
			if len(items) == 0 {
				return env.Bridge.Call(fn, nil), nil
			}
			acc = items[0]
			items = items[1:]
		}
		for _, v := range items {
			acc = env.Bridge.Call(fn, []value.Value{acc, v})
			if r, ok := acc.(*value.Reduced); ok {
				return r.Val, nil
			}
		}
		return acc, nil
	})
	def(ns, "into", 1, 2, func(args []value.Value) (value.Value, error) {
		dst := args[0]
		var items []value.Value
		if len(args) == 2 {
			items = seqToSlice(args[1])
		}
		for _, it := range items {
			switch c := dst.(type) {
			case *value.Vector:
				dst = c.Conj(it)
			case *value.Set:
				dst = c.Conj(it)
			case *value.List:
				dst = c.Cons(it)
			case *value.Map:
				entry, ok := it.(*value.Vector)
				if !ok || entry.Count() != 2 {
					return nil, fmt.Errorf("into on a map requires 2-element vector entries")
				}
				k, _ := entry.Nth(0)
				v, _ := entry.Nth(1)
				dst = c.Assoc(k, v)
			default:
				return nil, fmt.Errorf("%s does not support into", value.TypeName(dst))
			}
		}
		return dst, nil
	})
	def(ns, "reduced", 1, 1, func(args []value.Value) (value.Value, error) {
		return &value.Reduced{Val: args[0]}, nil
	})
	def(ns, "reduced?", 1, 1, func(args []value.Value) (value.Value, error) {
		_, ok := args[0].(*value.Reduced)
		return value.Bool(ok), nil
	})
	def(ns, "sort", 1, 2, func(args []value.Value) (value.Value, error) {
		var cmp value.Value
		var coll value.Value
		if len(args) == 2 {
			cmp, coll = args[0], args[1]
		} else {
			coll = args[0]
		}
		items := seqToSlice(coll)
		out := append([]value.Value{}, items...)
		less := func(a, b value.Value) bool {
			if cmp != nil {
				r := env.Bridge.Call(cmp, []value.Value{a, b})
				n, _, _ := numVal(r)
				return n < 0
			}
			an, _, _ := numVal(a)
			bn, _, _ := numVal(b)
			return an < bn
		}
		insertionSort(out, less)
		return value.NewList(out...), nil
	})
}

func insertionSort(items []value.Value, less func(a, b value.Value) bool) {
	for i := 1; i < len(items); i++ {
		for j := i; j > 0 && less(items[j], items[j-1]); j-- {
			items[j], items[j-1] = items[j-1], items[j]
		}
	}
}

// seqToSlice fully realizes a seqable Value, forcing every LazySeq cell
// along the way.
func seqToSlice(v value.Value) []value.Value {
	var out []value.Value
	cur := value.Seq(v)
	for {
		sq, ok := cur.(value.Seqer)
		if !ok {
			return out
		}
		out = append(out, sq.First())
		cur = value.Seq(sq.Rest())
	}
}
