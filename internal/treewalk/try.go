package treewalk

import (
	"github.com/cljwlang/cljw/internal/ast"
	"github.com/cljwlang/cljw/internal/rt"
	"github.com/cljwlang/cljw/internal/value"
)

// evalTry runs Body, recovering a *rt.ClojureError panic against Catches in
// order, and always runs Finally on the way out, whether Body returned,
// a catch handled the error, or the error propagates uncaught.
func evalTry(env *rt.Env, n *ast.Try, locals []value.Value) (result value.Value) {
	if len(n.Finally) > 0 {
		defer func() { evalBody(env, n.Finally, locals) }()
	}
	return runTryBody(env, n, locals)
}

func runTryBody(env *rt.Env, n *ast.Try, locals []value.Value) (result value.Value) {
	defer func() {
		r := recover()
		if r == nil {
			return
		}
		ce, ok := r.(*rt.ClojureError)
		if !ok {
			panic(r)
		}
		for _, c := range n.Catches {
			if rt.CatchMatches(c.ClassName, ce) {
				bound := ce.Data
				if bound == nil {
					bound = value.NilValue
				}
				locals[c.BindSlot] = bound
				result = evalBody(env, c.Body, locals)
				return
			}
		}
		panic(r)
	}()
	return evalBody(env, n.Body, locals)
}
