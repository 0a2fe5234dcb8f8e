package reader

import (
	"fmt"
	"strings"

	"github.com/cljwlang/cljw/internal/token"
	"github.com/cljwlang/cljw/internal/value"
)

// readSyntaxQuote implements spec §4.2's syntax-quote algorithm. The
// gensym scope is shared across one outermost syntax-quote (nested
// syntax-quotes reuse the same scope, matching Clojure's actual
// behavior of scoping `sym#` to the reader invocation, not to quote
// nesting depth) and reset once the outermost quote finishes reading.
func (r *Reader) readSyntaxQuote(tok token.Token) (value.Value, bool, error) {
	outermost := r.gensymDepth == 0
	if outermost {
		r.gensymScope = map[string]string{}
	}
	r.gensymDepth++
	form, err := r.readOne()
	r.gensymDepth--
	if err != nil {
		return nil, false, err
	}
	if outermost {
		defer func() { r.gensymScope = nil }()
	}
	return r.sqExpand(form), false, nil
}

func listForm(head string, args ...value.Value) *value.List {
	elems := append([]value.Value{value.NewSymbol("", head)}, args...)
	return value.NewList(elems...)
}

func isHeadSym(v value.Value, name string) (value.Value, bool) {
	lst, ok := v.(*value.List)
	if !ok || lst.IsEmpty() {
		return nil, false
	}
	sym, ok := lst.First().(value.Symbol)
	if !ok || sym.NS != "" || sym.Name != name {
		return nil, false
	}
	return value.First(lst.Rest()), true
}

func (r *Reader) sqExpand(form value.Value) value.Value {
	if arg, ok := isHeadSym(form, "unquote"); ok {
		return arg
	}
	if arg, ok := isHeadSym(form, "unquote-splicing"); ok {
		return arg
	}
	switch f := form.(type) {
	case value.Symbol:
		return listForm("quote", r.sqResolveSymbol(f))
	case *value.Vector:
		return listForm("vec", r.sqExpandSeq(f.Items()))
	case *value.Map:
		var flat []value.Value
		for _, e := range f.Entries() {
			flat = append(flat, e.Key, e.Val)
		}
		return listForm("apply", value.NewSymbol("", "hash-map"), r.sqExpandSeq(flat))
	case *value.Set:
		return listForm("set", r.sqExpandSeq(f.Members()))
	case *value.List:
		if f.IsEmpty() {
			return listForm("quote", value.EmptyList)
		}
		return listForm("seq", r.sqExpandSeq(listItems(f)))
	default:
		return listForm("quote", form)
	}
}

func listItems(l *value.List) []value.Value {
	var out []value.Value
	cur := value.Value(l)
	for {
		s := value.Seq(cur)
		if _, ok := s.(value.Nil); ok {
			return out
		}
		sq := s.(value.Seqer)
		out = append(out, sq.First())
		cur = sq.Rest()
	}
}

// sqExpandSeq builds a `(concat (list ...) spliced-form (list ...) ...)`
// form, honoring unquote-splicing elements by inlining their raw form
// directly into the concat rather than wrapping them in `list`.
func (r *Reader) sqExpandSeq(items []value.Value) value.Value {
	parts := []value.Value{value.NewSymbol("", "concat")}
	for _, it := range items {
		if arg, ok := isHeadSym(it, "unquote-splicing"); ok {
			parts = append(parts, arg)
			continue
		}
		parts = append(parts, listForm("list", r.sqExpand(it)))
	}
	return value.NewList(parts...)
}

// specialSymbols lists the analyzer's special-form names, which (like
// Clojure's own reader) syntax-quote leaves unqualified: they aren't Vars,
// so qualifying one to the current namespace would make the analyzer's
// special-form dispatch (which requires an unqualified head symbol) stop
// recognizing a syntax-quoted `(fn [x] ...)`'s head once expanded.
var specialSymbols = map[string]bool{
	"if": true, "do": true, "let": true, "let*": true, "fn": true, "fn*": true,
	"def": true, "defmacro": true, "quote": true, "var": true, "loop": true,
	"loop*": true, "recur": true, "throw": true, "try": true, "set!": true,
	"defmulti": true, "defmethod": true, "defprotocol": true,
	"extend-type": true, "defrecord": true, "for": true, "with-meta": true,
	"catch": true, "finally": true, "&": true,
}

// sqResolveSymbol implements the resolution rule verbatim from spec
// §4.2: qualify to the current namespace unless the symbol already
// contains `/` or ends in `#` (handled by the gensym branch), or names a
// special form.
func (r *Reader) sqResolveSymbol(s value.Symbol) value.Symbol {
	if s.NS != "" {
		return s
	}
	if specialSymbols[s.Name] {
		return s
	}
	if strings.HasSuffix(s.Name, "#") {
		base := strings.TrimSuffix(s.Name, "#")
		gs, ok := r.gensymScope[base]
		if !ok {
			*r.gensymCounter++
			gs = fmt.Sprintf("%s__%d__auto__", base, *r.gensymCounter)
			r.gensymScope[base] = gs
		}
		return value.NewSymbol("", gs)
	}
	return value.NewSymbol(r.ns, s.Name)
}
