package treewalk

import (
	"github.com/cljwlang/cljw/internal/ast"
	"github.com/cljwlang/cljw/internal/rt"
	"github.com/cljwlang/cljw/internal/value"
)

// makeClosure snapshots each arity's captured outer-frame values (spec
// §4.4: a closure over env.Bridge-callable Fns carries its own environment)
// and builds the value.Fn the rest of the system treats uniformly.
func makeClosure(env *rt.Env, n *ast.Fn, locals []value.Value) *value.Fn {
	arities := make([]value.FnArity, len(n.Arities))
	captures := make([][]value.Value, len(n.Arities))
	for i := range n.Arities {
		a := &n.Arities[i]
		arities[i] = value.FnArity{Proto: a}
		snap := make([]value.Value, len(a.Captures))
		for j, ref := range a.Captures {
			snap[j] = locals[ref.Slot]
		}
		captures[i] = snap
	}
	fn := &value.Fn{
		Name:     n.Name,
		Kind:     value.KindTreeWalk,
		Arities:  arities,
		Captures: captures,
		HasSelf:  n.SelfSlot >= 0,
	}
	if fn.HasSelf {
		fn.SelfValue = fn
	}
	allocIfHeap(env, fn)
	return fn
}

// Apply invokes a treewalk Fn's selected arity. The dispatch layer calls
// this once it has already picked arity out via fn.SelectArity and
// confirmed fn.Kind == KindTreeWalk.
func Apply(env *rt.Env, fn *value.Fn, arity *value.FnArity, args []value.Value) value.Value {
	arityIdx := arityIndex(fn, arity)
	node := arity.Proto.(*ast.FnArity)
	locals := make([]value.Value, node.NumSlots)

	if fn.HasSelf {
		locals[0] = fn.SelfValue
	}
	for i, slot := range node.ParamSlots {
		if node.Variadic && i == len(node.ParamSlots)-1 {
			locals[slot] = value.NewList(args[i:]...)
			break
		}
		locals[slot] = args[i]
	}
	for i, ref := range node.Captures {
		locals[ref.Slot] = fn.Captures[arityIdx][i]
	}
	return runTailLoop(env, node.Body, locals, node.ParamSlots)
}

func arityIndex(fn *value.Fn, arity *value.FnArity) int {
	for i := range fn.Arities {
		if &fn.Arities[i] == arity {
			return i
		}
	}
	return 0
}
