// Package reader turns a token stream into Forms (spec §4.2). Forms are
// represented directly as value.Value: reader macros desugar the same way
// the real Clojure reader's do, to an ordinary list headed by a symbol
// (`'x` -> `(quote x)`, `@x` -> `(deref x)`, `#(...)` -> `(fn* [...] ...)`),
// so the analyzer never needs a separate Form type.
package reader

import (
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/cljwlang/cljw/internal/token"
	"github.com/cljwlang/cljw/internal/value"
)

// Limits bounds recursion and allocation while reading untrusted input
// (spec §4.2).
type Limits struct {
	MaxDepth           int
	MaxStringSize      int
	MaxCollectionCount int
}

func DefaultLimits() Limits {
	return Limits{MaxDepth: 1024, MaxStringSize: 1 << 20, MaxCollectionCount: 100_000}
}

// SyntaxError is the reader's uniform failure shape (spec §7's
// syntax_error kind).
type SyntaxError struct {
	Pos token.Pos
	Msg string
}

func (e *SyntaxError) Error() string { return fmt.Sprintf("%s: syntax error: %s", e.Pos, e.Msg) }

// Reader incrementally reads Forms from one source string.
type Reader struct {
	tk     *token.Tokenizer
	limits Limits
	ns     string // current namespace, for ::kw and syntax-quote qualification
	depth  int

	gensymScope   map[string]string
	gensymDepth   int
	gensymCounter *int
}

func NewReader(src, ns string, limits Limits) *Reader {
	counter := 0
	return &Reader{tk: token.NewTokenizer(src), limits: limits, ns: ns, gensymCounter: &counter}
}

// SetNS updates the reader's current namespace, used for ::kw and
// syntax-quote symbol qualification on every subsequent Read. A caller
// evaluating one file's forms one at a time (rather than reading them
// all upfront) calls this after a form switches namespaces, e.g. via
// `(ns ...)` or `(in-ns ...)`, so the next form's ::kw/syntax-quote
// reads qualify against the namespace that form actually runs in.
func (r *Reader) SetNS(ns string) {
	r.ns = ns
}

// Read returns the next top-level Form, or io.EOF once the source is
// exhausted. #_ discards are transparent: Read never returns a discard
// marker, it just skips ahead.
func (r *Reader) Read() (value.Value, error) {
	for {
		tok, err := r.tk.Next()
		if err != nil {
			return nil, r.wrapTokErr(err)
		}
		if tok.Kind == token.EOF {
			return nil, io.EOF
		}
		v, skip, err := r.readForm(tok)
		if err != nil {
			return nil, err
		}
		if skip {
			continue
		}
		return v, nil
	}
}

func (r *Reader) wrapTokErr(err error) error {
	if te, ok := err.(*token.Error); ok {
		return &SyntaxError{Pos: te.Pos, Msg: te.Msg}
	}
	return err
}

func (r *Reader) nextTok() (token.Token, error) {
	tok, err := r.tk.Next()
	if err != nil {
		return token.Token{}, r.wrapTokErr(err)
	}
	return tok, nil
}

// readForm dispatches on a token already consumed from the stream.
// skip=true means the form (e.g. a #_ discard) contributed nothing and
// the caller should read again.
func (r *Reader) readForm(tok token.Token) (v value.Value, skip bool, err error) {
	switch tok.Kind {
	case token.EOF:
		return nil, false, io.EOF
	case token.Nil:
		return value.NilValue, false, nil
	case token.True:
		return value.True, false, nil
	case token.False:
		return value.False, false, nil
	case token.Int:
		n, err := parseInt(tok.Text)
		if err != nil {
			return nil, false, &SyntaxError{Pos: tok.Start, Msg: err.Error()}
		}
		return value.Int(n), false, nil
	case token.Float:
		f, err := strconv.ParseFloat(tok.Text, 64)
		if err != nil {
			return nil, false, &SyntaxError{Pos: tok.Start, Msg: "invalid float: " + tok.Text}
		}
		return value.Float(f), false, nil
	case token.Ratio:
		return r.readRatio(tok)
	case token.BigInt:
		n, err := parseInt(strings.TrimSuffix(tok.Text, "N"))
		if err != nil {
			return nil, false, &SyntaxError{Pos: tok.Start, Msg: err.Error()}
		}
		return value.Int(n), false, nil
	case token.BigDec:
		f, err := strconv.ParseFloat(strings.TrimSuffix(tok.Text, "M"), 64)
		if err != nil {
			return nil, false, &SyntaxError{Pos: tok.Start, Msg: "invalid decimal: " + tok.Text}
		}
		return value.Float(f), false, nil
	case token.String:
		if len(tok.Text) > r.limits.MaxStringSize {
			return nil, false, &SyntaxError{Pos: tok.Start, Msg: "string exceeds max_string_size"}
		}
		s, err := unescapeString(tok.Text)
		if err != nil {
			return nil, false, &SyntaxError{Pos: tok.Start, Msg: err.Error()}
		}
		return value.Str(s), false, nil
	case token.Char:
		c, err := parseChar(tok.Text)
		if err != nil {
			return nil, false, &SyntaxError{Pos: tok.Start, Msg: err.Error()}
		}
		return c, false, nil
	case token.Keyword:
		return r.readKeyword(tok)
	case token.Symbol:
		return parseSymbol(tok.Text), false, nil
	case token.LParen:
		v, err := r.readDelimited(tok, token.RParen)
		if err != nil {
			return nil, false, err
		}
		return value.NewList(v...), false, nil
	case token.LBracket:
		v, err := r.readDelimited(tok, token.RBracket)
		if err != nil {
			return nil, false, err
		}
		return value.NewVector(v...), false, nil
	case token.LBrace:
		v, err := r.readDelimited(tok, token.RBrace)
		if err != nil {
			return nil, false, err
		}
		if len(v)%2 != 0 {
			return nil, false, &SyntaxError{Pos: tok.Start, Msg: "map literal requires an even number of forms"}
		}
		return value.NewMap(v...), false, nil
	case token.RParen, token.RBracket, token.RBrace:
		return nil, false, &SyntaxError{Pos: tok.Start, Msg: "unmatched delimiter: " + tok.Text}
	case token.Quote:
		return r.readWrapped(tok, "quote")
	case token.Deref:
		return r.readWrapped(tok, "deref")
	case token.MetaCaret:
		return r.readMeta(tok)
	case token.SyntaxQuote:
		return r.readSyntaxQuote(tok)
	case token.Unquote:
		return r.readWrapped(tok, "unquote")
	case token.UnquoteSplice:
		return r.readWrapped(tok, "unquote-splicing")
	case token.Discard:
		if _, err := r.readOne(); err != nil {
			return nil, false, err
		}
		return nil, true, nil
	case token.VarQuote:
		return r.readWrapped(tok, "var")
	case token.FnLit:
		return r.readFnLit(tok)
	case token.SetLit:
		v, err := r.readDelimited(tok, token.RBrace)
		if err != nil {
			return nil, false, err
		}
		return value.NewSet(v...), false, nil
	case token.Regex:
		re, err := value.CompileRegex(tok.Text)
		if err != nil {
			return nil, false, &SyntaxError{Pos: tok.Start, Msg: err.Error()}
		}
		return re, false, nil
	case token.SymbolicValue:
		return readSymbolicValue(tok)
	case token.ReaderCond:
		return r.readReaderCond(tok, false)
	case token.ReaderCondSpl:
		return r.readReaderCond(tok, true)
	case token.NsMap:
		return r.readNsMap(tok)
	case token.Tag:
		return r.readTagged(tok)
	case token.DispatchEquals:
		return r.readOne()
	default:
		return nil, false, &SyntaxError{Pos: tok.Start, Msg: "unexpected token: " + tok.Text}
	}
}

// readOne skips discards transparently and reads exactly one Form.
func (r *Reader) readOne() (value.Value, error) {
	for {
		tok, err := r.nextTok()
		if err != nil {
			return nil, err
		}
		if tok.Kind == token.EOF {
			return nil, &SyntaxError{Pos: tok.Start, Msg: "unexpected EOF"}
		}
		v, skip, err := r.readForm(tok)
		if err != nil {
			return nil, err
		}
		if !skip {
			return v, nil
		}
	}
}

func (r *Reader) readDelimited(open token.Token, close token.Kind) ([]value.Value, error) {
	r.depth++
	defer func() { r.depth-- }()
	if r.depth > r.limits.MaxDepth {
		return nil, &SyntaxError{Pos: open.Start, Msg: "max_depth exceeded"}
	}
	var items []value.Value
	for {
		tok, err := r.nextTok()
		if err != nil {
			return nil, err
		}
		if tok.Kind == token.EOF {
			return nil, &SyntaxError{Pos: open.Start, Msg: "unexpected EOF, unmatched " + open.Text}
		}
		if tok.Kind == close {
			return items, nil
		}
		if tok.Kind == token.ReaderCondSpl {
			selected, matched, err := r.readReaderCondBranch(tok)
			if err != nil {
				return nil, err
			}
			if matched {
				cur := value.Seq(selected)
				for {
					if _, ok := cur.(value.Nil); ok {
						break
					}
					sq := cur.(value.Seqer)
					items = append(items, sq.First())
					cur = value.Seq(sq.Rest())
				}
			}
			continue
		}
		v, skip, err := r.readForm(tok)
		if err != nil {
			return nil, err
		}
		if skip {
			continue
		}
		if len(items) >= r.limits.MaxCollectionCount {
			return nil, &SyntaxError{Pos: tok.Start, Msg: "max_collection_count exceeded"}
		}
		items = append(items, v)
	}
}

func (r *Reader) readWrapped(tok token.Token, head string) (value.Value, bool, error) {
	v, err := r.readOne()
	if err != nil {
		return nil, false, err
	}
	return value.NewList(value.NewSymbol("", head), v), false, nil
}

// readMeta handles `^meta form`: meta may be a map, keyword (shorthand
// for {:keyword true}), or symbol/string (shorthand for {:tag sym}).
func (r *Reader) readMeta(tok token.Token) (value.Value, bool, error) {
	metaForm, err := r.readOne()
	if err != nil {
		return nil, false, err
	}
	target, err := r.readOne()
	if err != nil {
		return nil, false, err
	}
	var metaMap *value.Map
	switch m := metaForm.(type) {
	case *value.Map:
		metaMap = m
	case value.Keyword:
		metaMap = value.NewMap(m, value.True)
	default:
		metaMap = value.NewMap(value.NewKeyword("", "tag"), metaForm)
	}
	if sym, ok := target.(value.Symbol); ok {
		return sym.WithMeta(metaMap), false, nil
	}
	return value.NewList(value.NewSymbol("", "with-meta"), target, metaMap), false, nil
}

func (r *Reader) readFnLit(tok token.Token) (value.Value, bool, error) {
	items, err := r.readDelimited(tok, token.RParen)
	if err != nil {
		return nil, false, err
	}
	maxArg := 0
	hasRest := false
	walkPercents(value.NewList(items...), &maxArg, &hasRest)
	params := make([]value.Value, 0, maxArg+2)
	for i := 1; i <= maxArg; i++ {
		params = append(params, value.NewSymbol("", fmt.Sprintf("p%d__#", i)))
	}
	if hasRest {
		params = append(params, value.NewSymbol("", "&"), value.NewSymbol("", "rest__#"))
	}
	body := substitutePercents(value.NewList(items...), maxArg)
	return value.NewList(value.NewSymbol("", "fn*"), value.NewVector(params...), body), false, nil
}

func walkPercents(v value.Value, maxArg *int, hasRest *bool) {
	switch t := v.(type) {
	case value.Symbol:
		if t.NS == "" && strings.HasPrefix(t.Name, "%") {
			rest := t.Name[1:]
			if rest == "" || rest == "1" {
				if *maxArg < 1 {
					*maxArg = 1
				}
			} else if rest == "&" {
				*hasRest = true
			} else if n, err := strconv.Atoi(rest); err == nil && n > *maxArg {
				*maxArg = n
			}
		}
	case *value.List:
		for cur := value.Value(t); ; {
			s := value.Seq(cur)
			if _, ok := s.(value.Nil); ok {
				return
			}
			sq := s.(value.Seqer)
			walkPercents(sq.First(), maxArg, hasRest)
			cur = sq.Rest()
		}
	case *value.Vector:
		for _, it := range t.Items() {
			walkPercents(it, maxArg, hasRest)
		}
	}
}

func substitutePercents(v value.Value, maxArg int) value.Value {
	switch t := v.(type) {
	case value.Symbol:
		if t.NS == "" && strings.HasPrefix(t.Name, "%") {
			rest := t.Name[1:]
			if rest == "" || rest == "1" {
				return value.NewSymbol("", "p1__#")
			}
			if rest == "&" {
				return value.NewSymbol("", "rest__#")
			}
			if _, err := strconv.Atoi(rest); err == nil {
				return value.NewSymbol("", "p"+rest+"__#")
			}
		}
		return t
	case *value.List:
		var out []value.Value
		cur := value.Value(t)
		for {
			s := value.Seq(cur)
			if _, ok := s.(value.Nil); ok {
				break
			}
			sq := s.(value.Seqer)
			out = append(out, substitutePercents(sq.First(), maxArg))
			cur = sq.Rest()
		}
		return value.NewList(out...)
	case *value.Vector:
		out := make([]value.Value, len(t.Items()))
		for i, it := range t.Items() {
			out[i] = substitutePercents(it, maxArg)
		}
		return value.NewVector(out...)
	default:
		return v
	}
}

func (r *Reader) readNsMap(tok token.Token) (value.Value, bool, error) {
	next, err := r.nextTok()
	if err != nil {
		return nil, false, err
	}
	if next.Kind != token.LBrace {
		return nil, false, &SyntaxError{Pos: next.Start, Msg: "expected { after #:"}
	}
	nsName := strings.TrimPrefix(tok.Text, "#")
	items, err := r.readDelimited(next, token.RBrace)
	if err != nil {
		return nil, false, err
	}
	for i := 0; i < len(items); i += 2 {
		if kw, ok := items[i].(value.Keyword); ok && kw.NS == "" {
			items[i] = value.NewKeyword(nsName, kw.Name)
		}
	}
	return value.NewMap(items...), false, nil
}

func (r *Reader) readTagged(tok token.Token) (value.Value, bool, error) {
	v, err := r.readOne()
	if err != nil {
		return nil, false, err
	}
	return value.NewList(value.NewSymbol("", "__reader-tag"), value.Str(tok.Text), v), false, nil
}

func readSymbolicValue(tok token.Token) (value.Value, bool, error) {
	switch tok.Text {
	case "Inf":
		return value.Float(inf(1)), false, nil
	case "-Inf":
		return value.Float(inf(-1)), false, nil
	case "NaN":
		return value.Float(nan()), false, nil
	default:
		return nil, false, &SyntaxError{Pos: tok.Start, Msg: "unknown symbolic value: ##" + tok.Text}
	}
}

func (r *Reader) readKeyword(tok token.Token) (value.Value, bool, error) {
	text := tok.Text
	autoResolved := strings.HasPrefix(text, "::")
	body := strings.TrimPrefix(text, "::")
	body = strings.TrimPrefix(body, ":")
	if autoResolved {
		if slash := strings.IndexByte(body, '/'); slash >= 0 {
			// ::alias/name: without an alias table threaded through here,
			// fall back to treating the prefix as a literal namespace.
			return value.NewKeyword(body[:slash], body[slash+1:]), false, nil
		}
		return value.NewKeyword(r.ns, body), false, nil
	}
	if slash := strings.IndexByte(body, '/'); slash > 0 && body != "/" {
		return value.NewKeyword(body[:slash], body[slash+1:]), false, nil
	}
	return value.NewKeyword("", body), false, nil
}

func parseSymbol(text string) value.Value {
	if slash := strings.IndexByte(text, '/'); slash > 0 && text != "/" {
		return value.NewSymbol(text[:slash], text[slash+1:])
	}
	return value.NewSymbol("", text)
}

func (r *Reader) readRatio(tok token.Token) (value.Value, bool, error) {
	parts := strings.SplitN(tok.Text, "/", 2)
	num, err1 := strconv.ParseInt(parts[0], 10, 64)
	den, err2 := strconv.ParseInt(parts[1], 10, 64)
	if err1 != nil || err2 != nil {
		return nil, false, &SyntaxError{Pos: tok.Start, Msg: "invalid ratio: " + tok.Text}
	}
	if den == 0 {
		return nil, false, &SyntaxError{Pos: tok.Start, Msg: "number_error: ratio with zero denominator"}
	}
	return value.Float(float64(num) / float64(den)), false, nil
}

func parseInt(text string) (int64, error) {
	neg := false
	body := text
	if strings.HasPrefix(body, "+") {
		body = body[1:]
	} else if strings.HasPrefix(body, "-") {
		neg = true
		body = body[1:]
	}
	var n int64
	var err error
	switch {
	case strings.HasPrefix(body, "0x") || strings.HasPrefix(body, "0X"):
		n, err = strconv.ParseInt(body[2:], 16, 64)
	case strings.ContainsAny(body, "rR") && !strings.Contains(body, "."):
		idx := strings.IndexAny(body, "rR")
		radix, rerr := strconv.Atoi(body[:idx])
		if rerr != nil {
			return 0, fmt.Errorf("invalid radix literal: %s", text)
		}
		n, err = strconv.ParseInt(body[idx+1:], radix, 64)
	default:
		n, err = strconv.ParseInt(body, 10, 64)
	}
	if err != nil {
		return 0, fmt.Errorf("number_error: invalid number %q", text)
	}
	if neg {
		n = -n
	}
	return n, nil
}

func parseChar(text string) (value.Char, error) {
	if len([]rune(text)) == 1 {
		return value.Char([]rune(text)[0]), nil
	}
	switch text {
	case "newline":
		return value.Char('\n'), nil
	case "space":
		return value.Char(' '), nil
	case "tab":
		return value.Char('\t'), nil
	case "return":
		return value.Char('\r'), nil
	case "backspace":
		return value.Char('\b'), nil
	case "formfeed":
		return value.Char('\f'), nil
	}
	if strings.HasPrefix(text, "u{") && strings.HasSuffix(text, "}") {
		hex := text[2 : len(text)-1]
		n, err := strconv.ParseInt(hex, 16, 32)
		if err != nil {
			return 0, fmt.Errorf("invalid unicode character literal: \\%s", text)
		}
		return value.Char(rune(n)), nil
	}
	if strings.HasPrefix(text, "u") && len(text) == 5 {
		n, err := strconv.ParseInt(text[1:], 16, 32)
		if err != nil {
			return 0, fmt.Errorf("invalid unicode character literal: \\%s", text)
		}
		return value.Char(rune(n)), nil
	}
	return 0, fmt.Errorf("unsupported character literal: \\%s", text)
}

func unescapeString(s string) (string, error) {
	var sb strings.Builder
	runes := []rune(s)
	for i := 0; i < len(runes); i++ {
		if runes[i] != '\\' {
			sb.WriteRune(runes[i])
			continue
		}
		i++
		if i >= len(runes) {
			return "", fmt.Errorf("string_error: trailing backslash")
		}
		switch runes[i] {
		case 'n':
			sb.WriteRune('\n')
		case 't':
			sb.WriteRune('\t')
		case 'r':
			sb.WriteRune('\r')
		case 'b':
			sb.WriteRune('\b')
		case 'f':
			sb.WriteRune('\f')
		case '"':
			sb.WriteRune('"')
		case '\\':
			sb.WriteRune('\\')
		case 'u':
			if i+4 >= len(runes) {
				return "", fmt.Errorf("string_error: truncated unicode escape")
			}
			n, err := strconv.ParseInt(string(runes[i+1:i+5]), 16, 32)
			if err != nil {
				return "", fmt.Errorf("string_error: invalid unicode escape")
			}
			sb.WriteRune(rune(n))
			i += 4
		default:
			return "", fmt.Errorf("string_error: unsupported escape \\%c", runes[i])
		}
	}
	return sb.String(), nil
}
