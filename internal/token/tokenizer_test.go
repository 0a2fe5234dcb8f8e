package token

import "testing"

func tokensOf(t *testing.T, src string) []Token {
	t.Helper()
	tk := NewTokenizer(src)
	var out []Token
	for {
		tok, err := tk.Next()
		if err != nil {
			t.Fatalf("unexpected tokenizer error: %v", err)
		}
		out = append(out, tok)
		if tok.Kind == EOF {
			return out
		}
	}
}

func TestDelimitersAndCommaAsWhitespace(t *testing.T) {
	toks := tokensOf(t, "(1, 2 3)")
	kinds := []Kind{LParen, Int, Int, Int, RParen, EOF}
	if len(toks) != len(kinds) {
		t.Fatalf("expected %d tokens, got %d: %+v", len(kinds), len(toks), toks)
	}
	for i, k := range kinds {
		if toks[i].Kind != k {
			t.Errorf("token %d: expected %s, got %s", i, k, toks[i].Kind)
		}
	}
}

func TestLineCommentAndShebangSkipped(t *testing.T) {
	toks := tokensOf(t, "#!/usr/bin/env cljw\n; a comment\n42")
	if len(toks) != 2 || toks[0].Kind != Int || toks[0].Text != "42" {
		t.Fatalf("expected a single Int token after comments, got %+v", toks)
	}
}

func TestKeywordNamespacedAndAutoResolved(t *testing.T) {
	toks := tokensOf(t, ":foo/bar ::baz")
	if toks[0].Kind != Keyword || toks[0].Text != ":foo/bar" {
		t.Errorf("unexpected namespaced keyword token: %+v", toks[0])
	}
	if toks[1].Kind != Keyword || toks[1].Text != "::baz" {
		t.Errorf("unexpected auto-resolved keyword token: %+v", toks[1])
	}
}

func TestDispatchTokens(t *testing.T) {
	cases := map[string]Kind{
		"#{1}":  SetLit,
		"#'x":   VarQuote,
		"#_x":   Discard,
		"#(+ 1)": FnLit,
		"#?(:cw 1)": ReaderCond,
		"#?@(:cw [1])": ReaderCondSpl,
		"#:ns{:a 1}": NsMap,
		"#inst":      Tag,
		"##Inf":      SymbolicValue,
	}
	for src, want := range cases {
		toks := tokensOf(t, src)
		if toks[0].Kind != want {
			t.Errorf("src %q: expected %s, got %s", src, want, toks[0].Kind)
		}
	}
}

func TestRegexDispatch(t *testing.T) {
	toks := tokensOf(t, `#"a\d+"`)
	if toks[0].Kind != Regex || toks[0].Text != `a\d+` {
		t.Errorf("unexpected regex token: %+v", toks[0])
	}
}

func TestNumberClassification(t *testing.T) {
	cases := map[string]Kind{
		"42":      Int,
		"-3":      Int,
		"3.14":    Float,
		"1e10":    Float,
		"0xFF":    Int,
		"2r1010":  Int,
		"3/4":     Ratio,
		"10N":     BigInt,
		"1.5M":    BigDec,
	}
	for src, want := range cases {
		toks := tokensOf(t, src)
		if toks[0].Kind != want {
			t.Errorf("src %q: expected %s, got %s", src, want, toks[0].Kind)
		}
	}
}

func TestCharacterLiterals(t *testing.T) {
	toks := tokensOf(t, `\a \newline \u{1F600}`)
	if toks[0].Text != "a" {
		t.Errorf("expected simple char literal 'a', got %q", toks[0].Text)
	}
	if toks[1].Text != "newline" {
		t.Errorf("expected named char literal 'newline', got %q", toks[1].Text)
	}
	if toks[2].Text != "u{1F600}" {
		t.Errorf("expected unicode char literal, got %q", toks[2].Text)
	}
}

func TestUnterminatedStringReportsLocation(t *testing.T) {
	tk := NewTokenizer(`"abc`)
	_, err := tk.Next()
	if err == nil {
		t.Fatal("expected an error for unterminated string")
	}
	terr, ok := err.(*Error)
	if !ok {
		t.Fatalf("expected *Error, got %T", err)
	}
	if terr.Pos.Line != 1 || terr.Pos.Column != 1 {
		t.Errorf("expected error at 1:1, got %s", terr.Pos)
	}
}

func TestGraphemeAwareColumns(t *testing.T) {
	// A combining accent is one grapheme cluster; the symbol after the
	// space should start at column 3, not further right from counting
	// runes/bytes.
	tk := NewTokenizer("é x")
	first, err := tk.Next()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if first.Start.Column != 1 {
		t.Fatalf("expected first token to start at column 1, got %d", first.Start.Column)
	}
	second, err := tk.Next()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if second.Start.Column != 3 {
		t.Errorf("expected second token at column 3 (1 grapheme + 1 space), got %d", second.Start.Column)
	}
}
