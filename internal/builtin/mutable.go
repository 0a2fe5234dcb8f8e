package builtin

import (
	"fmt"

	"github.com/cljwlang/cljw/internal/rt"
	"github.com/cljwlang/cljw/internal/value"
)

func registerMutable(ns *rt.Namespace, env *rt.Env) {
	def(ns, "atom", 1, 1, func(args []value.Value) (value.Value, error) {
		return value.NewAtom(args[0]), nil
	})
	def(ns, "volatile!", 1, 1, func(args []value.Value) (value.Value, error) {
		return value.NewVolatile(args[0]), nil
	})
	def(ns, "deref", 1, 1, func(args []value.Value) (value.Value, error) {
		switch d := args[0].(type) {
		case *value.Atom:
			return d.Deref(), nil
		case *value.Volatile:
			return d.Deref(), nil
		case *value.Delay:
			return d.Force(), nil
		default:
			return nil, fmt.Errorf("%s cannot be deref'd", value.TypeName(args[0]))
		}
	})
	def(ns, "reset!", 2, 2, func(args []value.Value) (value.Value, error) {
		switch d := args[0].(type) {
		case *value.Atom:
			return d.Reset(args[1]), nil
		case *value.Volatile:
			return d.Reset(args[1]), nil
		default:
			return nil, fmt.Errorf("%s is not resettable", value.TypeName(args[0]))
		}
	})
	def(ns, "vreset!", 2, 2, func(args []value.Value) (value.Value, error) {
		v, ok := args[0].(*value.Volatile)
		if !ok {
			return nil, fmt.Errorf("vreset! requires a volatile")
		}
		return v.Reset(args[1]), nil
	})
	// swap! retry-loops against env.Bridge, per spec §5's
	// apply-then-install convention (single-writer, no real contention since
	// evaluation is single-threaded, but the CompareAndSet loop is kept so
	// the semantics match concurrent Clojure). vswap! applies fn once and
	// resets the volatile, with no loop.
	def(ns, "swap!", 2, -1, func(args []value.Value) (value.Value, error) {
		a, ok := args[0].(*value.Atom)
		if !ok {
			return nil, fmt.Errorf("swap! requires an atom")
		}
		fn := args[1]
		extra := args[2:]
		for {
			old := a.Deref()
			callArgs := append([]value.Value{old}, extra...)
			next := env.Bridge.Call(fn, callArgs)
			if a.CompareAndSet(old, next) {
				return next, nil
			}
		}
	})
	def(ns, "vswap!", 2, -1, func(args []value.Value) (value.Value, error) {
		v, ok := args[0].(*value.Volatile)
		if !ok {
			return nil, fmt.Errorf("vswap! requires a volatile")
		}
		fn := args[1]
		callArgs := append([]value.Value{v.Deref()}, args[2:]...)
		return v.Reset(env.Bridge.Call(fn, callArgs)), nil
	})
	def(ns, "compare-and-set!", 3, 3, func(args []value.Value) (value.Value, error) {
		a, ok := args[0].(*value.Atom)
		if !ok {
			return nil, fmt.Errorf("compare-and-set! requires an atom")
		}
		return value.Bool(a.CompareAndSet(args[1], args[2])), nil
	})
	def(ns, "force", 1, 1, func(args []value.Value) (value.Value, error) {
		d, ok := args[0].(*value.Delay)
		if !ok {
			return args[0], nil
		}
		return d.Force(), nil
	})
	def(ns, "realized?", 1, 1, func(args []value.Value) (value.Value, error) {
		switch d := args[0].(type) {
		case *value.Delay:
			return value.Bool(d.IsRealized()), nil
		case *value.LazySeq:
			_, ok := d.Cached()
			return value.Bool(ok), nil
		}
		return nil, fmt.Errorf("%s does not support realized?", value.TypeName(args[0]))
	})
}
