package treewalk

import (
	"github.com/cljwlang/cljw/internal/ast"
	"github.com/cljwlang/cljw/internal/rt"
	"github.com/cljwlang/cljw/internal/value"
)

// evalCall evaluates the callee and every argument, then hands off to
// env.Bridge, the one seam that knows how to invoke a *value.Fn (either
// backend), a *value.Builtin, a MultiFn, a ProtocolFn, or a collection
// used as its own lookup function.
func evalCall(env *rt.Env, n *ast.Call, locals []value.Value) value.Value {
	fn := Eval(env, n.Callee, locals)
	args := make([]value.Value, len(n.Args))
	for i, a := range n.Args {
		args[i] = Eval(env, a, locals)
	}
	return env.Bridge.Call(fn, args)
}
