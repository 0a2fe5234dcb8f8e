package treewalk

import (
	"fmt"

	"github.com/cljwlang/cljw/internal/ast"
	"github.com/cljwlang/cljw/internal/rt"
	"github.com/cljwlang/cljw/internal/value"
)

// evalDef interns the Var and, if an init form is present, evaluates it in
// its own fresh locals frame (NumSlots is sized independently of the def
// form's surrounding frame) and sets it as the Var's root.
func evalDef(env *rt.Env, n *ast.Def, locals []value.Value) value.Value {
	ns := env.Current
	if n.NsName != "" {
		ns = env.FindOrCreateNamespace(n.NsName)
	}
	v := ns.Intern(n.Name)
	v.IsMacro = n.IsMacro
	v.IsDynamic = n.IsDynamic
	v.IsPrivate = n.IsPrivate

	if n.Meta != nil {
		if m, ok := Eval(env, n.Meta, locals).(*value.Map); ok {
			v.Meta = m
		}
	}

	if n.Init != nil {
		initLocals := make([]value.Value, n.NumSlots)
		val := Eval(env, n.Init, initLocals)
		if fn, ok := val.(*value.Fn); ok && fn.Name == "" {
			fn.Name = n.Name
		}
		v.SetRoot(val)
	}
	return value.VarRef{Target: v}
}

// evalSetBang mutates a Var's innermost dynamic binding or a lexical local.
// For a Var it pops the innermost binding and pushes the new value; when no
// binding is in place, this pushes a new binding that nothing pops. The
// Var's root is never changed.
func evalSetBang(env *rt.Env, n *ast.SetBang, locals []value.Value) value.Value {
	val := Eval(env, n.Val, locals)
	switch t := n.Target.(type) {
	case *ast.VarRef:
		v, ok := env.Resolve(t.Sym)
		if !ok {
			panic(rt.NewError("Exception", "unable to resolve symbol: "+t.Sym.String()+" in this context"))
		}
		v.PopBinding()
		v.PushBinding(val)
	case *ast.LocalRef:
		locals[t.Slot] = val
	default:
		panic(fmt.Sprintf("treewalk: invalid set! target %T", n.Target))
	}
	return val
}
