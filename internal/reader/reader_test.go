package reader

import (
	"testing"

	"github.com/cljwlang/cljw/internal/value"
)

func readOneStr(t *testing.T, src string) value.Value {
	t.Helper()
	r := NewReader(src, "user", DefaultLimits())
	v, err := r.Read()
	if err != nil {
		t.Fatalf("unexpected read error for %q: %v", src, err)
	}
	return v
}

func TestReadAtoms(t *testing.T) {
	if v := readOneStr(t, "42"); !value.Eql(v, value.Int(42)) {
		t.Errorf("expected 42, got %v", v)
	}
	if v := readOneStr(t, "nil"); !value.Eql(v, value.NilValue) {
		t.Errorf("expected nil, got %v", v)
	}
	if v := readOneStr(t, `"hi\nthere"`); !value.Eql(v, value.Str("hi\nthere")) {
		t.Errorf("expected escaped string, got %v", v)
	}
}

func TestReadCollections(t *testing.T) {
	v := readOneStr(t, "[1 2 3]")
	vec, ok := v.(*value.Vector)
	if !ok || vec.Count() != 3 {
		t.Fatalf("expected a 3-element vector, got %v", v)
	}
	v = readOneStr(t, "{:a 1 :b 2}")
	m, ok := v.(*value.Map)
	if !ok || m.Count() != 2 {
		t.Fatalf("expected a 2-entry map, got %v", v)
	}
}

func TestQuoteDesugars(t *testing.T) {
	v := readOneStr(t, "'x")
	lst, ok := v.(*value.List)
	if !ok || lst.Count() != 2 {
		t.Fatalf("expected (quote x), got %v", v)
	}
	head, _ := lst.First().(value.Symbol)
	if head.Name != "quote" {
		t.Errorf("expected head symbol quote, got %v", head)
	}
}

func TestFnLiteralLowering(t *testing.T) {
	v := readOneStr(t, "#(+ %1 %2)")
	lst := v.(*value.List)
	head := lst.First().(value.Symbol)
	if head.Name != "fn*" {
		t.Fatalf("expected fn* head, got %v", head)
	}
	params := value.First(lst.Rest()).(*value.Vector)
	if params.Count() != 2 {
		t.Errorf("expected 2 params for %%1 %%2 usage, got %d", params.Count())
	}
}

func TestSyntaxQuoteQualifiesSymbols(t *testing.T) {
	v := readOneStr(t, "`(foo ~x ~@y)")
	// Expansion is (seq (concat (list (quote user/foo)) (list x) y))
	seqCall := v.(*value.List)
	head := seqCall.First().(value.Symbol)
	if head.Name != "seq" {
		t.Fatalf("expected seq wrapper, got %v", head)
	}
	concatCall := value.First(seqCall.Rest()).(*value.List)
	items := listItems(concatCall)
	quoted := value.First(items[1].(*value.List).Rest()).(*value.List) // (quote user/foo)
	sym := value.First(quoted.Rest()).(value.Symbol)
	if sym.NS != "user" || sym.Name != "foo" {
		t.Errorf("expected foo qualified as user/foo, got %v", sym)
	}
}

func TestAutoGensymSameWithinOneQuote(t *testing.T) {
	v := readOneStr(t, "`(a# a#)")
	// both occurrences should expand to the same generated symbol
	seqCall := v.(*value.List)
	concatCall := value.First(seqCall.Rest()).(*value.List)
	items := listItems(concatCall)
	first := items[1].(*value.List)  // (list (quote gensym1))
	second := items[2].(*value.List) // (list (quote gensym2))
	s1 := value.First(first.Rest()).(*value.List)
	s2 := value.First(second.Rest()).(*value.List)
	sym1 := value.First(s1.Rest()).(value.Symbol)
	sym2 := value.First(s2.Rest()).(value.Symbol)
	if sym1.Name != sym2.Name {
		t.Errorf("expected same auto-gensym name, got %s vs %s", sym1.Name, sym2.Name)
	}
}

func TestReaderDepthLimit(t *testing.T) {
	src := ""
	for i := 0; i < 5; i++ {
		src += "("
	}
	src += "1"
	for i := 0; i < 5; i++ {
		src += ")"
	}
	r := NewReader(src, "user", Limits{MaxDepth: 3, MaxStringSize: 1024, MaxCollectionCount: 100})
	_, err := r.Read()
	if err == nil {
		t.Fatal("expected max_depth syntax error")
	}
}

func TestDiscardSkipsForm(t *testing.T) {
	v := readOneStr(t, "[1 #_2 3]")
	vec := v.(*value.Vector)
	if vec.Count() != 2 {
		t.Fatalf("expected discard to remove one element, got %d", vec.Count())
	}
}
