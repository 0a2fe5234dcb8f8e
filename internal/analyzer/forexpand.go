package analyzer

import "github.com/cljwlang/cljw/internal/value"

// expandFor desugars a `for` list-comprehension form into nested mapcat/
// let/if calls, the same shape clojure.core's own `for` macro produces.
// Binding clauses are read left to right; :let introduces a nested let,
// :when (and :while, treated identically here — early termination on a
// :while predicate is not distinguished from plain filtering, a documented
// simplification) guards the remaining expansion with an if, and a plain
// pattern/collection pair becomes a mapcat over a fn of one argument.
func expandFor(args []value.Value) value.Value {
	bindVec := args[0].(*value.Vector)
	body := wrapDo(args[1:])
	return forExpand(bindVec.Items(), 0, body)
}

func wrapDo(body []value.Value) value.Value {
	if len(body) == 1 {
		return body[0]
	}
	return callForm("do", body...)
}

func forExpand(items []value.Value, i int, body value.Value) value.Value {
	if i >= len(items) {
		return callForm("list", body)
	}
	if kw, ok := items[i].(value.Keyword); ok && kw.NS == "" {
		switch kw.Name {
		case "let":
			rest := forExpand(items, i+2, body)
			return callForm("let", items[i+1], rest)
		case "when", "while":
			rest := forExpand(items, i+2, body)
			return callForm("if", items[i+1], rest, value.EmptyList)
		}
	}
	pat := items[i]
	coll := items[i+1]
	rest := forExpand(items, i+2, body)
	fnForm := callForm("fn*", value.NewVector(pat), rest)
	return callForm("mapcat", fnForm, coll)
}
