package reader

import (
	"github.com/cljwlang/cljw/internal/token"
	"github.com/cljwlang/cljw/internal/value"
)

// readReaderCondBranch reads the `(:tag form :tag form ...)` body of a
// `#?`/`#?@` dispatch and returns the first form whose tag is in the
// supported platform set {:cw, :default} (spec §4.2). matched is false
// when no branch applies, meaning the whole conditional contributes
// nothing.
func (r *Reader) readReaderCondBranch(tok token.Token) (value.Value, bool, error) {
	next, err := r.nextTok()
	if err != nil {
		return nil, false, err
	}
	if next.Kind != token.LParen {
		return nil, false, &SyntaxError{Pos: next.Start, Msg: "expected ( after #?"}
	}
	items, err := r.readDelimited(next, token.RParen)
	if err != nil {
		return nil, false, err
	}
	for i := 0; i+1 < len(items); i += 2 {
		tagKw, ok := items[i].(value.Keyword)
		if !ok {
			continue
		}
		if tagKw.NS == "" && (tagKw.Name == "cw" || tagKw.Name == "default") {
			return items[i+1], true, nil
		}
	}
	return nil, false, nil
}

// readReaderCond handles a #?/#?@ encountered by the generic readForm
// dispatcher: outside a collection, a non-matching conditional is treated
// as a discard, and a matching splicing conditional is wrapped in `do`
// since there's no enclosing collection to splice into.
func (r *Reader) readReaderCond(tok token.Token, splicing bool) (value.Value, bool, error) {
	selected, matched, err := r.readReaderCondBranch(tok)
	if err != nil {
		return nil, false, err
	}
	if !matched {
		return nil, true, nil
	}
	if !splicing {
		return selected, false, nil
	}
	elems := []value.Value{value.NewSymbol("", "do")}
	cur := value.Seq(selected)
	for {
		if _, ok := cur.(value.Nil); ok {
			break
		}
		sq := cur.(value.Seqer)
		elems = append(elems, sq.First())
		cur = value.Seq(sq.Rest())
	}
	return value.NewList(elems...), false, nil
}
