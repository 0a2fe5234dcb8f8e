package treewalk

import (
	"github.com/cljwlang/cljw/internal/ast"
	"github.com/cljwlang/cljw/internal/rt"
	"github.com/cljwlang/cljw/internal/value"
)

// evalDefProtocol registers the protocol's runtime table in env.Protocols
// and interns each method name as a ProtocolFn Var, so ordinary calls to
// the method name dispatch on the first argument's type tag.
func evalDefProtocol(env *rt.Env, n *ast.DefProtocol) value.Value {
	proto := value.NewProtocol(n.Name, n.Methods)
	env.Protocols[n.Name] = proto

	ns := env.Current
	if n.NsName != "" {
		ns = env.FindOrCreateNamespace(n.NsName)
	}
	for _, m := range n.Methods {
		mv := ns.Intern(m)
		mv.SetRoot(&value.ProtocolFn{Proto: proto, Method: m})
	}
	pv := ns.Intern(n.Name)
	pv.SetRoot(proto)
	return value.VarRef{Target: pv}
}

// evalExtendType implements one protocol's worth of extend-type, the
// simplification noted in DESIGN.md (one protocol per form rather
// than real Clojure's chained-protocol form).
func evalExtendType(env *rt.Env, n *ast.ExtendType, locals []value.Value) value.Value {
	proto, ok := env.Protocols[n.ProtocolName]
	if !ok {
		panic(rt.NewError("Exception", "unknown protocol: "+n.ProtocolName))
	}
	for _, m := range n.Methods {
		fn := makeClosure(env, m.Fn, locals)
		proto.Extend(n.TypeKey, m.Name, fn)
	}
	return value.NilValue
}
