package treewalk

import (
	"github.com/cljwlang/cljw/internal/ast"
	"github.com/cljwlang/cljw/internal/rt"
	"github.com/cljwlang/cljw/internal/value"
)

func evalDefMulti(env *rt.Env, n *ast.DefMulti, locals []value.Value) value.Value {
	ns := env.Current
	if n.NsName != "" {
		ns = env.FindOrCreateNamespace(n.NsName)
	}
	dispatchFn := Eval(env, n.DispatchFn, locals)
	v := ns.Intern(n.Name)
	v.SetRoot(value.NewMultiFn(n.Name, dispatchFn))
	return value.VarRef{Target: v}
}

// evalDefMethod looks the multimethod Var back up by name rather than
// carrying a reference from DefMulti's analysis, since defmethod forms are
// ordinarily analyzed and evaluated as separate top-level forms.
func evalDefMethod(env *rt.Env, n *ast.DefMethod, locals []value.Value) value.Value {
	ns := env.Current
	if n.NsName != "" {
		ns = env.FindOrCreateNamespace(n.NsName)
	}
	v, ok := ns.Lookup(n.Name)
	if !ok {
		panic(rt.NewError("Exception", "defmethod on undefined multimethod: "+n.Name))
	}
	mf, ok := v.Deref().(*value.MultiFn)
	if !ok {
		panic(rt.NewError("Exception", n.Name+" is not a multimethod"))
	}
	dispatchVal := Eval(env, n.DispatchVal, locals)
	fn := makeClosure(env, n.Fn, locals)
	if value.Eql(dispatchVal, value.NewKeyword("", "default")) {
		mf.SetDefault(dispatchVal)
	}
	mf.AddMethod(dispatchVal, fn)
	return value.VarRef{Target: v}
}
