// Package treewalk evaluates ast.Node trees directly against a flat
// per-invocation locals slice (spec §4.4). It never compiles to an
// intermediate form; internal/bytecode/internal/vm is the other backend
// spec §4.5-§4.6 describe; one backend is chosen for the whole runtime
// (bootstrap.New's useBytecode, cleared by --tree-walk).
//
// Errors propagate by panicking with *rt.ClojureError rather than Go error
// returns, so every node case here, and value.CallBridge's single-method
// shape, stay uniform; internal/dispatch recovers Builtin-returned errors
// into the same panic convention at the one seam where Go errors exist.
package treewalk

import (
	"fmt"

	"github.com/cljwlang/cljw/internal/ast"
	"github.com/cljwlang/cljw/internal/rt"
	"github.com/cljwlang/cljw/internal/value"
)

// Eval evaluates node against locals, the current invocation's flat slot
// array (sized by whichever NumSlots the analyzer attached to the
// enclosing Def/Fn-arity/top-level form).
func Eval(env *rt.Env, node ast.Node, locals []value.Value) value.Value {
	switch n := node.(type) {
	case *ast.Constant:
		return n.Val
	case *ast.Quote:
		return n.Val
	case *ast.LocalRef:
		return locals[n.Slot]
	case *ast.VarRef:
		v, ok := env.Resolve(n.Sym)
		if !ok {
			panic(rt.NewError("Exception", "unable to resolve symbol: "+n.Sym.String()+" in this context"))
		}
		return v.Deref()
	case *ast.If:
		if value.IsTruthy(Eval(env, n.Test, locals)) {
			return Eval(env, n.Then, locals)
		}
		return Eval(env, n.Else, locals)
	case *ast.Do:
		return evalBody(env, n.Body, locals)
	case *ast.Let:
		for _, b := range n.Bindings {
			locals[b.Slot] = Eval(env, b.Init, locals)
		}
		return evalBody(env, n.Body, locals)
	case *ast.Loop:
		for _, b := range n.Bindings {
			locals[b.Slot] = Eval(env, b.Init, locals)
		}
		return runTailLoop(env, n.Body, locals, n.Slots)
	case *ast.Recur:
		panic(rt.NewError("Exception", "can only recur from tail position"))
	case *ast.Fn:
		return makeClosure(env, n, locals)
	case *ast.Call:
		return evalCall(env, n, locals)
	case *ast.Def:
		return evalDef(env, n, locals)
	case *ast.Throw:
		panic(rt.Throw(Eval(env, n.Expr, locals)))
	case *ast.Try:
		return evalTry(env, n, locals)
	case *ast.SetBang:
		return evalSetBang(env, n, locals)
	case *ast.DefMulti:
		return evalDefMulti(env, n, locals)
	case *ast.DefMethod:
		return evalDefMethod(env, n, locals)
	case *ast.DefProtocol:
		return evalDefProtocol(env, n)
	case *ast.ExtendType:
		return evalExtendType(env, n, locals)
	case *ast.DefRecord:
		return evalDefRecord(env, n)
	case *ast.CollectionLit:
		return evalCollectionLit(env, n, locals)
	}
	panic(fmt.Sprintf("treewalk: unhandled node %T", node))
}

func evalCollectionLit(env *rt.Env, n *ast.CollectionLit, locals []value.Value) value.Value {
	vals := make([]value.Value, len(n.Items))
	for i, it := range n.Items {
		vals[i] = Eval(env, it, locals)
	}
	switch n.Kind {
	case ast.VectorColl:
		return allocIfHeap(env, value.NewVector(vals...))
	case ast.SetColl:
		return allocIfHeap(env, value.NewSet(vals...))
	case ast.MapColl:
		return allocIfHeap(env, value.NewMap(vals...))
	}
	panic(fmt.Sprintf("treewalk: unhandled collection kind %d", n.Kind))
}

// allocIfHeap registers a freshly-constructed composite Value into env's
// shadow GC heap (spec §3.6/§5). Immediate kinds pass through Heap.Alloc
// unchanged, so this is always safe to call.
func allocIfHeap(env *rt.Env, v value.Value) value.Value {
	if env.Heap == nil {
		return v
	}
	return env.Heap.Alloc(v)
}

func evalBody(env *rt.Env, body []ast.Node, locals []value.Value) value.Value {
	var result value.Value = value.NilValue
	for _, n := range body {
		result = Eval(env, n, locals)
	}
	return result
}

// runTailLoop drives a loop/fn-arity body, rebinding recurSlots and
// re-running whenever a tail-position recur is hit, instead of recursing
// the Go call stack (spec §4.4's tail-call requirement for recur).
func runTailLoop(env *rt.Env, body []ast.Node, locals []value.Value, recurSlots []int) value.Value {
	for {
		if env.Heap != nil && env.Heap.ShouldCollect() {
			env.Heap.Collect()
		}
		v, recurArgs := evalBodyTail(env, body, locals)
		if recurArgs == nil {
			return v
		}
		for i, slot := range recurSlots {
			locals[slot] = recurArgs[i]
		}
	}
}

func evalBodyTail(env *rt.Env, body []ast.Node, locals []value.Value) (value.Value, []value.Value) {
	if len(body) == 0 {
		return value.NilValue, nil
	}
	for _, n := range body[:len(body)-1] {
		Eval(env, n, locals)
	}
	return evalTail(env, body[len(body)-1], locals)
}

// evalTail evaluates node as if it were the final form of a loop/fn body,
// looking through If/Do/Let (which don't establish their own recur target)
// for a Recur, and treating everything else (including a nested Loop,
// which establishes its own target) as a terminal value.
func evalTail(env *rt.Env, node ast.Node, locals []value.Value) (value.Value, []value.Value) {
	switch n := node.(type) {
	case *ast.Recur:
		args := make([]value.Value, len(n.Args))
		for i, a := range n.Args {
			args[i] = Eval(env, a, locals)
		}
		return nil, args
	case *ast.If:
		if value.IsTruthy(Eval(env, n.Test, locals)) {
			return evalTail(env, n.Then, locals)
		}
		return evalTail(env, n.Else, locals)
	case *ast.Do:
		return evalBodyTail(env, n.Body, locals)
	case *ast.Let:
		for _, b := range n.Bindings {
			locals[b.Slot] = Eval(env, b.Init, locals)
		}
		return evalBodyTail(env, n.Body, locals)
	default:
		return Eval(env, node, locals), nil
	}
}
