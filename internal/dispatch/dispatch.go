// Package dispatch implements value.CallBridge, the one seam every other
// package reaches a Value as a function through: internal/treewalk's
// evalCall, LazySeq/Delay realization, macro expansion in
// internal/analyzer, and multimethod/protocol resolution all call through
// a Bridge rather than knowing how to invoke a concrete Fn kind
// themselves (spec §9's dependency-injected trait object).
//
// This is also the one place a *value.Builtin's Go-style (Value, error)
// return gets converted into the panic/recover convention every evaluator
// backend otherwise uses uniformly.
package dispatch

import (
	"strconv"

	"github.com/cljwlang/cljw/internal/rt"
	"github.com/cljwlang/cljw/internal/treewalk"
	"github.com/cljwlang/cljw/internal/value"
	"github.com/cljwlang/cljw/internal/vm"
)

// Bridge is the concrete value.CallBridge. Construct one with the Env it
// serves, then assign it to env.Bridge before evaluating anything.
type Bridge struct {
	Env *rt.Env
}

func New(env *rt.Env) *Bridge {
	return &Bridge{Env: env}
}

func (b *Bridge) Call(fn value.Value, args []value.Value) value.Value {
	switch f := fn.(type) {
	case *value.Fn:
		return b.callFn(f, args)
	case *value.Builtin:
		return b.callBuiltin(f, args)
	case *value.MultiFn:
		return b.callMultiFn(f, args)
	case *value.ProtocolFn:
		return b.callProtocolFn(f, args)
	case value.VarRef:
		return b.Call(f.Target.Deref(), args)
	case value.Keyword:
		return b.callKeyword(f, args)
	case *value.Map:
		return b.callMap(f, args)
	case *value.Set:
		return b.callSet(f, args)
	case *value.Vector:
		return b.callVector(f, args)
	default:
		panic(rt.NewError("IllegalArgumentException", value.TypeName(fn)+" is not a function"))
	}
}

func (b *Bridge) callFn(f *value.Fn, args []value.Value) value.Value {
	arity := f.SelectArity(len(args))
	if arity == nil {
		panic(rt.NewError("ArityException", "wrong number of args ("+strconv.Itoa(len(args))+") passed to "+fnName(f)))
	}
	switch f.Kind {
	case value.KindTreeWalk:
		return treewalk.Apply(b.Env, f, arity, args)
	case value.KindBytecode:
		return vm.Apply(b.Env, f, arity, args)
	default:
		panic(rt.NewError("Exception", "unknown fn backend"))
	}
}

func fnName(f *value.Fn) string {
	if f.Name != "" {
		return f.Name
	}
	return "fn"
}

func (b *Bridge) callBuiltin(f *value.Builtin, args []value.Value) value.Value {
	if !f.AcceptsArity(len(args)) {
		panic(rt.NewError("ArityException", "wrong number of args ("+strconv.Itoa(len(args))+") passed to "+f.Name))
	}
	result, err := f.Fn(args)
	if err != nil {
		if ce, ok := err.(*rt.ClojureError); ok {
			panic(ce)
		}
		panic(rt.WrapError("Exception", err))
	}
	if b.Env.Heap != nil {
		result = b.Env.Heap.Alloc(result)
	}
	return result
}

func (b *Bridge) callMultiFn(f *value.MultiFn, args []value.Value) value.Value {
	dispatchVal := b.Call(f.DispatchFn, args)
	impl, ok := rt.ResolveMethod(b.Env.Hierarchy, f, dispatchVal)
	if !ok {
		panic(rt.NewError("IllegalArgumentException", "no method in multimethod '"+f.Name+"' for dispatch value: "+value.PrintStr(dispatchVal)))
	}
	return b.Call(impl, args)
}

func (b *Bridge) callProtocolFn(f *value.ProtocolFn, args []value.Value) value.Value {
	if len(args) == 0 {
		panic(rt.NewError("ArityException", "protocol method "+f.Method+" needs a receiver"))
	}
	tag := rt.TypeTag(args[0])
	impl, ok := f.Proto.Lookup(tag, f.Method)
	if !ok {
		panic(rt.NewError("IllegalArgumentException", "no implementation of method "+f.Method+" found for type "+tag))
	}
	return b.Call(impl, args)
}

// callKeyword implements keyword-as-function lookup: (:k m) / (:k m default).
func (b *Bridge) callKeyword(k value.Keyword, args []value.Value) value.Value {
	if len(args) == 0 || len(args) > 2 {
		panic(rt.NewError("ArityException", "wrong number of args passed to keyword lookup"))
	}
	var found value.Value
	var ok bool
	switch coll := args[0].(type) {
	case *value.Map:
		found, ok = coll.Get(k)
	case *value.Set:
		if coll.Contains(k) {
			found, ok = k, true
		}
	case value.Nil:
	default:
		panic(rt.NewError("IllegalArgumentException", "keyword lookup on non-associative value: "+value.TypeName(args[0])))
	}
	if ok {
		return found
	}
	if len(args) == 2 {
		return args[1]
	}
	return value.NilValue
}

func (b *Bridge) callMap(m *value.Map, args []value.Value) value.Value {
	if len(args) == 0 || len(args) > 2 {
		panic(rt.NewError("ArityException", "wrong number of args passed to map lookup"))
	}
	if v, ok := m.Get(args[0]); ok {
		return v
	}
	if len(args) == 2 {
		return args[1]
	}
	return value.NilValue
}

func (b *Bridge) callSet(s *value.Set, args []value.Value) value.Value {
	if len(args) != 1 {
		panic(rt.NewError("ArityException", "wrong number of args passed to set lookup"))
	}
	if s.Contains(args[0]) {
		return args[0]
	}
	return value.NilValue
}

func (b *Bridge) callVector(v *value.Vector, args []value.Value) value.Value {
	if len(args) == 0 || len(args) > 2 {
		panic(rt.NewError("ArityException", "wrong number of args passed to vector lookup"))
	}
	i, ok := args[0].(value.Int)
	if !ok {
		panic(rt.NewError("IllegalArgumentException", "vector lookup index must be an integer"))
	}
	if val, ok := v.Nth(int(i)); ok {
		return val
	}
	if len(args) == 2 {
		return args[1]
	}
	panic(rt.NewError("IndexOutOfBoundsException", "vector index out of range"))
}
