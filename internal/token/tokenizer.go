package token

import (
	"fmt"
	"strings"

	"github.com/rivo/uniseg"
)

// Error reports a tokenizer failure with its source location, matching
// the syntax_error shape spec §4.1/§4.2 expect from both tokenizer and
// reader failures.
type Error struct {
	Pos Pos
	Msg string
}

func (e *Error) Error() string { return fmt.Sprintf("%s: %s", e.Pos, e.Msg) }

func isDelim(r byte) bool {
	switch r {
	case '(', ')', '[', ']', '{', '}', '"', ';', '\'', '@', '^', '`', '~', ',':
		return true
	default:
		return isSpace(r)
	}
}

func isSpace(r byte) bool {
	switch r {
	case ' ', '\t', '\n', '\r', '\f', ',':
		return true
	default:
		return false
	}
}

// Tokenizer scans a byte-slice source into Tokens one at a time.
// Columns advance by grapheme cluster (via uniseg) rather than by byte or
// rune, so a caret under an error message lands under the right glyph
// even when the source contains combining marks or wide emoji.
type Tokenizer struct {
	src  string
	pos  int
	line int
	col  int
}

func NewTokenizer(src string) *Tokenizer {
	return &Tokenizer{src: src, line: 1, col: 1}
}

func (t *Tokenizer) here() Pos { return Pos{Offset: t.pos, Line: t.line, Column: t.col} }

func (t *Tokenizer) eof() bool { return t.pos >= len(t.src) }

func (t *Tokenizer) peekByte() byte {
	if t.eof() {
		return 0
	}
	return t.src[t.pos]
}

func (t *Tokenizer) peekByteAt(n int) byte {
	if t.pos+n >= len(t.src) {
		return 0
	}
	return t.src[t.pos+n]
}

// advance consumes exactly one grapheme cluster and updates line/col.
func (t *Tokenizer) advance() string {
	if t.eof() {
		return ""
	}
	cluster, _, _, _ := uniseg.FirstGraphemeClusterInString(t.src[t.pos:], -1)
	if cluster == "" {
		return ""
	}
	t.pos += len(cluster)
	if cluster == "\n" {
		t.line++
		t.col = 1
	} else {
		t.col++
	}
	return cluster
}

func (t *Tokenizer) skipWhitespaceAndComments() {
	for !t.eof() {
		b := t.peekByte()
		switch {
		case isSpace(b):
			t.advance()
		case b == ';':
			for !t.eof() && t.peekByte() != '\n' {
				t.advance()
			}
		case b == '#' && t.peekByteAt(1) == '!':
			for !t.eof() && t.peekByte() != '\n' {
				t.advance()
			}
		default:
			return
		}
	}
}

// Next returns the next Token, or a Token with Kind EOF at end of input.
// Malformed input (unterminated string/char, bad dispatch) returns an
// *Error rather than panicking; the reader decides how to surface it.
func (t *Tokenizer) Next() (Token, error) {
	t.skipWhitespaceAndComments()
	start := t.here()
	if t.eof() {
		return Token{Kind: EOF, Start: start}, nil
	}

	b := t.peekByte()
	switch b {
	case '(':
		t.advance()
		return t.finish(LParen, start)
	case ')':
		t.advance()
		return t.finish(RParen, start)
	case '[':
		t.advance()
		return t.finish(LBracket, start)
	case ']':
		t.advance()
		return t.finish(RBracket, start)
	case '{':
		t.advance()
		return t.finish(LBrace, start)
	case '}':
		t.advance()
		return t.finish(RBrace, start)
	case '\'':
		t.advance()
		return t.finish(Quote, start)
	case '@':
		t.advance()
		return t.finish(Deref, start)
	case '`':
		t.advance()
		return t.finish(SyntaxQuote, start)
	case '^':
		t.advance()
		return t.finish(MetaCaret, start)
	case '~':
		t.advance()
		if t.peekByte() == '@' {
			t.advance()
			return t.finish(UnquoteSplice, start)
		}
		return t.finish(Unquote, start)
	case '"':
		return t.lexString(start)
	case '\\':
		return t.lexChar(start)
	case ':':
		return t.lexKeyword(start)
	case '#':
		return t.lexDispatch(start)
	}
	return t.lexSymbolOrNumber(start)
}

func (t *Tokenizer) finish(k Kind, start Pos) (Token, error) {
	return Token{Kind: k, Text: t.src[start.Offset:t.pos], Start: start, Length: t.pos - start.Offset}, nil
}

func (t *Tokenizer) lexString(start Pos) (Token, error) {
	t.advance() // opening quote
	var sb strings.Builder
	for {
		if t.eof() {
			return Token{}, &Error{Pos: start, Msg: "unterminated string literal"}
		}
		c := t.peekByte()
		if c == '"' {
			t.advance()
			break
		}
		if c == '\\' {
			sb.WriteString(t.advance())
			if t.eof() {
				return Token{}, &Error{Pos: start, Msg: "unterminated string escape"}
			}
			sb.WriteString(t.advance())
			continue
		}
		sb.WriteString(t.advance())
	}
	return Token{Kind: String, Text: sb.String(), Start: start, Length: t.pos - start.Offset}, nil
}

func (t *Tokenizer) lexChar(start Pos) (Token, error) {
	t.advance() // backslash
	if t.eof() {
		return Token{}, &Error{Pos: start, Msg: "EOF after \\ in character literal"}
	}
	var sb strings.Builder
	sb.WriteString(t.advance()) // first char always part of the literal
	// Named/unicode literals continue while letters/digits/braces follow
	// and the first char was a letter or digit (so `\(` stays a single-char
	// literal).
	if isAlnumByte(t.lastRune(sb.String())) {
		for !t.eof() && (isAlnumByte(t.peekByte()) || t.peekByte() == '{' || t.peekByte() == '}') {
			sb.WriteString(t.advance())
		}
	}
	return Token{Kind: Char, Text: sb.String(), Start: start, Length: t.pos - start.Offset}, nil
}

func (t *Tokenizer) lastRune(s string) byte {
	if s == "" {
		return 0
	}
	return s[0]
}

func isAlnumByte(b byte) bool {
	return (b >= 'a' && b <= 'z') || (b >= 'A' && b <= 'Z') || (b >= '0' && b <= '9')
}

func (t *Tokenizer) lexKeyword(start Pos) (Token, error) {
	t.advance() // first ':'
	if t.peekByte() == ':' {
		t.advance()
	}
	var sb strings.Builder
	for !t.eof() && !isDelim(t.peekByte()) {
		sb.WriteString(t.advance())
	}
	return Token{Kind: Keyword, Text: t.src[start.Offset:t.pos], Start: start, Length: t.pos - start.Offset}, nil
}

func (t *Tokenizer) lexDispatch(start Pos) (Token, error) {
	t.advance() // '#'
	switch t.peekByte() {
	case '{':
		t.advance()
		return t.finish(SetLit, start)
	case '"':
		s, err := t.lexString(t.here())
		if err != nil {
			return Token{}, err
		}
		return Token{Kind: Regex, Text: s.Text, Start: start, Length: t.pos - start.Offset}, nil
	case '\'':
		t.advance()
		return t.finish(VarQuote, start)
	case '_':
		t.advance()
		return t.finish(Discard, start)
	case '(':
		t.advance()
		return t.finish(FnLit, start)
	case ':':
		t.advance()
		return t.finish(NsMap, start)
	case '=':
		t.advance()
		return t.finish(DispatchEquals, start)
	case '?':
		t.advance()
		if t.peekByte() == '@' {
			t.advance()
			return t.finish(ReaderCondSpl, start)
		}
		return t.finish(ReaderCond, start)
	case '#':
		t.advance()
		var sb strings.Builder
		for !t.eof() && !isDelim(t.peekByte()) {
			sb.WriteString(t.advance())
		}
		return Token{Kind: SymbolicValue, Text: sb.String(), Start: start, Length: t.pos - start.Offset}, nil
	default:
		var sb strings.Builder
		for !t.eof() && !isDelim(t.peekByte()) {
			sb.WriteString(t.advance())
		}
		if sb.Len() == 0 {
			return Token{}, &Error{Pos: start, Msg: "invalid dispatch macro: #" + string(t.peekByte())}
		}
		return Token{Kind: Tag, Text: sb.String(), Start: start, Length: t.pos - start.Offset}, nil
	}
}

func (t *Tokenizer) lexSymbolOrNumber(start Pos) (Token, error) {
	var sb strings.Builder
	for !t.eof() && !isDelim(t.peekByte()) {
		sb.WriteString(t.advance())
	}
	text := sb.String()
	if text == "" {
		return Token{}, &Error{Pos: start, Msg: "unexpected character: " + string(t.peekByte())}
	}
	tok := Token{Text: text, Start: start, Length: t.pos - start.Offset}
	switch text {
	case "nil":
		tok.Kind = Nil
	case "true":
		tok.Kind = True
	case "false":
		tok.Kind = False
	default:
		if looksNumeric(text) {
			tok.Kind = classifyNumber(text)
		} else {
			tok.Kind = Symbol
		}
	}
	return tok, nil
}

// looksNumeric matches spec §4.1's number grammar: a leading digit, or a
// leading sign/`.` immediately followed by a digit.
func looksNumeric(s string) bool {
	if s == "" {
		return false
	}
	if s[0] >= '0' && s[0] <= '9' {
		return true
	}
	if (s[0] == '+' || s[0] == '-' || s[0] == '.') && len(s) > 1 && s[1] >= '0' && s[1] <= '9' {
		return true
	}
	return false
}

func classifyNumber(s string) Kind {
	body := s
	if body[0] == '+' || body[0] == '-' {
		body = body[1:]
	}
	switch {
	case strings.Contains(s, "/"):
		return Ratio
	case strings.HasSuffix(s, "N"):
		return BigInt
	case strings.HasSuffix(s, "M"):
		return BigDec
	case strings.HasPrefix(body, "0x") || strings.HasPrefix(body, "0X"):
		return Int
	case strings.ContainsAny(body, "rR") && !strings.ContainsAny(body, "eE."):
		return Int // radix literal NNrDIGITS
	case strings.ContainsAny(s, ".eE"):
		return Float
	default:
		return Int
	}
}
