// Package analyzer turns Forms (value.Value) into ast.Node trees (spec
// §4.3): special-form dispatch, macroexpansion, symbol resolution, and
// destructuring all happen here, before either evaluator ever sees a form.
package analyzer

import (
	"fmt"

	"github.com/cljwlang/cljw/internal/ast"
	"github.com/cljwlang/cljw/internal/rt"
	"github.com/cljwlang/cljw/internal/value"
)

// Error is the analyzer's uniform failure shape.
type Error struct {
	Msg string
	Loc ast.Loc
}

func (e *Error) Error() string { return fmt.Sprintf("%s: %s", e.Loc, e.Msg) }

// Analyzer holds the Env used for Var/macro resolution and the bridge
// used to invoke macro functions during expansion.
type Analyzer struct {
	Env    *rt.Env
	Bridge value.CallBridge

	gensymCounter int
}

func New(env *rt.Env, bridge value.CallBridge) *Analyzer {
	return &Analyzer{Env: env, Bridge: bridge}
}

func (a *Analyzer) gensym(base string) string {
	a.gensymCounter++
	return fmt.Sprintf("%s__%d__auto__", base, a.gensymCounter)
}

// Analyze compiles one top-level form. Each top-level form gets a fresh
// implicit fnFrame (slot 0 upward), matching the tree-walk evaluator's
// top-level locals frame. numSlots tells the evaluator how large a locals
// array this form's frame needs.
func (a *Analyzer) Analyze(form value.Value) (node ast.Node, numSlots int, err error) {
	fr := newFnFrame(nil, nil)
	node, err = a.analyzeForm(fr, fr.root, form, false)
	return node, fr.nextSlot, err
}

var specialForms = map[string]bool{
	"if": true, "do": true, "let": true, "let*": true, "fn": true, "fn*": true,
	"def": true, "defmacro": true, "quote": true, "var": true, "loop": true,
	"loop*": true, "recur": true, "throw": true, "try": true, "set!": true,
	"defmulti": true, "defmethod": true, "defprotocol": true,
	"extend-type": true, "defrecord": true, "for": true, "with-meta": true,
	"lazy-seq": true, "delay": true,
	"__reader-tag": true,
}

func (a *Analyzer) analyzeForm(fr *fnFrame, lex *lexScope, form value.Value, tail bool) (ast.Node, error) {
	switch f := form.(type) {
	case value.Symbol:
		return a.analyzeSymbol(fr, lex, f)
	case *value.List:
		return a.analyzeList(fr, lex, f, tail)
	case *value.Vector:
		return a.analyzeCollectionLit(fr, lex, ast.VectorColl, f.Items())
	case *value.Set:
		return a.analyzeCollectionLit(fr, lex, ast.SetColl, f.Members())
	case *value.Map:
		items := make([]value.Value, 0, len(f.Entries())*2)
		for _, e := range f.Entries() {
			items = append(items, e.Key, e.Val)
		}
		return a.analyzeCollectionLit(fr, lex, ast.MapColl, items)
	default:
		return &ast.Constant{Val: form}, nil
	}
}

// analyzeCollectionLit handles vector/map/set literals encountered as
// ordinary expressions (not a let/loop/fn binding form, which the
// special-form handlers consume directly off the raw Value before this
// ever runs): each element is itself an expression to evaluate, the same
// way a literal `[x (+ 1 2)]` builds a two-element vector in Clojure.
func (a *Analyzer) analyzeCollectionLit(fr *fnFrame, lex *lexScope, kind ast.CollKind, items []value.Value) (ast.Node, error) {
	nodes := make([]ast.Node, len(items))
	for i, it := range items {
		n, err := a.analyzeForm(fr, lex, it, false)
		if err != nil {
			return nil, err
		}
		nodes[i] = n
	}
	return &ast.CollectionLit{Kind: kind, Items: nodes}, nil
}

func (a *Analyzer) analyzeSymbol(fr *fnFrame, lex *lexScope, s value.Symbol) (ast.Node, error) {
	if s.NS == "" {
		if slot, ok := lookupLocal(lex, s.Name); ok {
			return &ast.LocalRef{Name: s.Name, Slot: slot}, nil
		}
		if slot, ok := resolveCapture(fr, s.Name); ok {
			return &ast.LocalRef{Name: s.Name, Slot: slot}, nil
		}
	}
	if hostFn, ok := hostTable[s.NS+"/"+s.Name]; ok {
		return &ast.VarRef{Sym: value.NewSymbol(hostNamespace, hostFn), NsName: hostNamespace}, nil
	}
	v, ok := a.Env.Resolve(s)
	if !ok {
		return nil, &Error{Msg: "unable to resolve symbol: " + s.String() + " in this context"}
	}
	return &ast.VarRef{Sym: s, NsName: v.NsName, IsMacro: v.IsMacro, IsDynamic: v.IsDynamic}, nil
}

func (a *Analyzer) analyzeList(fr *fnFrame, lex *lexScope, lst *value.List, tail bool) (ast.Node, error) {
	if lst.IsEmpty() {
		return &ast.Constant{Val: lst}, nil
	}
	head := lst.First()
	if sym, ok := head.(value.Symbol); ok && sym.NS == "" {
		if specialForms[sym.Name] {
			return a.analyzeSpecial(fr, lex, sym.Name, lst, tail)
		}
		if v, ok := a.Env.Resolve(sym); ok && v.IsMacro {
			expanded, err := a.macroexpand(v, lst)
			if err != nil {
				return nil, err
			}
			return a.analyzeForm(fr, lex, expanded, tail)
		}
	}
	return a.analyzeCall(fr, lex, lst)
}

func (a *Analyzer) macroexpand(v value.VarLike, lst *value.List) (value.Value, error) {
	argForms := listArgs(lst.Rest())
	result := a.Bridge.Call(v.Deref(), argForms)
	return result, nil
}

func (a *Analyzer) analyzeCall(fr *fnFrame, lex *lexScope, lst *value.List) (ast.Node, error) {
	callee, err := a.analyzeForm(fr, lex, lst.First(), false)
	if err != nil {
		return nil, err
	}
	var args []ast.Node
	cur := lst.Rest()
	for {
		s := value.Seq(cur)
		if _, ok := s.(value.Nil); ok {
			break
		}
		sq := s.(value.Seqer)
		argNode, err := a.analyzeForm(fr, lex, sq.First(), false)
		if err != nil {
			return nil, err
		}
		args = append(args, argNode)
		cur = sq.Rest()
	}
	return &ast.Call{Callee: callee, Args: args}, nil
}

func listArgs(v value.Value) []value.Value {
	var out []value.Value
	cur := value.Seq(v)
	for {
		if _, ok := cur.(value.Nil); ok {
			return out
		}
		sq := cur.(value.Seqer)
		out = append(out, sq.First())
		cur = value.Seq(sq.Rest())
	}
}

func (a *Analyzer) analyzeBody(fr *fnFrame, lex *lexScope, forms []value.Value, tail bool) ([]ast.Node, error) {
	out := make([]ast.Node, len(forms))
	for i, f := range forms {
		n, err := a.analyzeForm(fr, lex, f, tail && i == len(forms)-1)
		if err != nil {
			return nil, err
		}
		out[i] = n
	}
	return out, nil
}
