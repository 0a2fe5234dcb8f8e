package analyzer

import (
	"fmt"
	"strings"

	"github.com/cljwlang/cljw/internal/value"
)

// bindingPair is one synthetic `(name form)` step produced by destructure,
// meant to be fed into the same sequential-let machinery the analyzer
// already has (spec §4.3: "expand into synthetic locals plus bindings
// built from nth, chained rest, and an assignment of all").
type bindingPair struct {
	Name string
	Form value.Value
}

// destructure expands pattern (a plain symbol, vector pattern, or map
// pattern) against initForm into a flat ordered sequence of bindingPairs,
// purely as forms — this mirrors Clojure's own `destructure` function,
// which is form-to-form and has no analyzer dependency.
func destructure(pattern value.Value, initForm value.Value, gensym func(string) string) []bindingPair {
	switch p := pattern.(type) {
	case value.Symbol:
		return []bindingPair{{Name: p.Name, Form: initForm}}
	case *value.Vector:
		return destructureVector(p, initForm, gensym)
	case *value.Map:
		return destructureMap(p, initForm, gensym)
	default:
		panic(fmt.Sprintf("analyzer: invalid binding pattern: %v", pattern))
	}
}

func sym(name string) value.Value { return value.NewSymbol("", name) }

func callForm(head string, args ...value.Value) value.Value {
	return value.NewList(append([]value.Value{sym(head)}, args...)...)
}

// nsCallForm builds a call form whose callee is an explicitly namespaced
// symbol, for references into the synthetic cljw.host namespace that bare
// callForm's unqualified symbols can't express.
func nsCallForm(ns, name string, args ...value.Value) value.Value {
	return value.NewList(append([]value.Value{value.NewSymbol(ns, name)}, args...)...)
}

// wrapThunkCall builds `(cljw.host/name (fn* [] body...))`, the expansion
// lazy-seq and delay share: both are sugar for "call a host constructor
// with a zero-arg closure over the body".
func wrapThunkCall(name string, body []value.Value) value.Value {
	items := append([]value.Value{sym("fn*"), value.NewVector()}, body...)
	thunk := value.NewList(items...)
	return nsCallForm(hostNamespace, name, thunk)
}

func destructureVector(pat *value.Vector, initForm value.Value, gensym func(string) string) []bindingPair {
	tmp := gensym("vec")
	out := []bindingPair{{Name: tmp, Form: initForm}}
	items := pat.Items()
	idx := 0
	cur := value.Value(sym(tmp))
	for idx < len(items) {
		item := items[idx]
		if s, ok := item.(value.Symbol); ok && s.NS == "" && s.Name == "&" {
			idx++
			restForm := callForm("seq", cur)
			out = append(out, destructure(items[idx], restForm, gensym)...)
			idx++
			continue
		}
		if kw, ok := item.(value.Keyword); ok && kw.NS == "" && kw.Name == "as" {
			idx++
			out = append(out, destructure(items[idx], sym(tmp), gensym)...)
			idx++
			continue
		}
		nthForm := callForm("nth", sym(tmp), value.Int(int64(idx)), value.NilValue)
		out = append(out, destructure(item, nthForm, gensym)...)
		cur = callForm("rest", cur)
		idx++
	}
	return out
}

func destructureMap(pat *value.Map, initForm value.Value, gensym func(string) string) []bindingPair {
	tmp := gensym("map")
	out := []bindingPair{{Name: tmp, Form: initForm}}
	defaults := map[string]value.Value{}
	var asName string
	haveAs := false

	type want struct {
		bindName string
		keyForm  value.Value
	}
	var wants []want

	for _, e := range pat.Entries() {
		switch k := e.Key.(type) {
		case value.Keyword:
			switch k.Name {
			case "keys":
				for _, s := range seqItems(e.Val) {
					sy := s.(value.Symbol)
					wants = append(wants, want{bindName: sy.Name, keyForm: value.NewKeyword(sy.NS, sy.Name)})
				}
			case "strs":
				for _, s := range seqItems(e.Val) {
					sy := s.(value.Symbol)
					wants = append(wants, want{bindName: sy.Name, keyForm: value.Str(sy.Name)})
				}
			case "syms":
				for _, s := range seqItems(e.Val) {
					sy := s.(value.Symbol)
					wants = append(wants, want{bindName: sy.Name, keyForm: callForm("quote", sy)})
				}
			case "or":
				m := e.Val.(*value.Map)
				for _, oe := range m.Entries() {
					defaults[oe.Key.(value.Symbol).Name] = oe.Val
				}
			case "as":
				asName = e.Val.(value.Symbol).Name
				haveAs = true
			default:
				if strings.Contains(k.Name, "keys") || strings.Contains(k.Name, "syms") {
					// :NS/keys or :NS/syms
				}
			}
		case value.Symbol:
			// explicit {local-name :key-form}
			wants = append(wants, want{bindName: k.Name, keyForm: e.Val})
		}
	}
	// handle namespaced :NS/keys and :NS/syms via Entries' NS field
	for _, e := range pat.Entries() {
		kw, ok := e.Key.(value.Keyword)
		if !ok || kw.NS == "" {
			continue
		}
		if kw.Name == "keys" {
			for _, s := range seqItems(e.Val) {
				sy := s.(value.Symbol)
				wants = append(wants, want{bindName: sy.Name, keyForm: value.NewKeyword(kw.NS, sy.Name)})
			}
		}
		if kw.Name == "syms" {
			for _, s := range seqItems(e.Val) {
				sy := s.(value.Symbol)
				wants = append(wants, want{bindName: sy.Name, keyForm: callForm("quote", value.NewSymbol(kw.NS, sy.Name))})
			}
		}
	}

	if haveAs {
		out = append(out, bindingPair{Name: asName, Form: sym(tmp)})
	}

	for _, w := range wants {
		getForm := callForm("get", sym(tmp), w.keyForm)
		if def, ok := defaults[w.bindName]; ok {
			getForm = callForm("get", sym(tmp), w.keyForm, def)
		}
		out = append(out, bindingPair{Name: w.bindName, Form: getForm})
	}
	return out
}

// seqItems walks any seqable Value (typically a vector of symbols in a
// :keys/:strs/:syms clause) into a plain slice.
func seqItems(v value.Value) []value.Value {
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
