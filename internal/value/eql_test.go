package value

import "testing"

func TestEqlCrossNumeric(t *testing.T) {
	if !Eql(Int(1), Float(1.0)) {
		t.Errorf("1 = 1.0 should be true")
	}
	if Eql(Int(1), Float(1.5)) {
		t.Errorf("1 = 1.5 should be false")
	}
}

func TestEqlSequential(t *testing.T) {
	l := NewList(Int(1), Int(2))
	v := NewVector(Int(1), Int(2))
	if !Eql(l, v) {
		t.Errorf("(1 2) should = [1 2]")
	}
}

func TestEqlSetOrderIndependent(t *testing.T) {
	a := NewSet(Int(1), Int(2))
	b := NewSet(Int(2), Int(1))
	if !Eql(a, b) {
		t.Errorf("#{1 2} should = #{2 1}")
	}
}

func TestEqlKeywordNamespace(t *testing.T) {
	a := NewKeyword("foo", "bar")
	b := NewKeyword("foo", "bar")
	c := NewKeyword("baz", "bar")
	if !Eql(a, b) {
		t.Errorf("same ns/name keywords should be eql")
	}
	if Eql(a, c) {
		t.Errorf("different ns keywords should not be eql")
	}
}

func TestEqlReducedTransparent(t *testing.T) {
	r := &Reduced{Val: Int(5)}
	if !Eql(r, Int(5)) {
		t.Errorf("Reduced should be transparent to eql")
	}
}

func TestHashAgreesWithEql(t *testing.T) {
	a := NewMap(Str("a"), Int(1))
	b := NewMap(Str("a"), Int(1))
	if !Eql(a, b) {
		t.Fatalf("maps should be eql")
	}
	if HashKey(a) != HashKey(b) {
		t.Errorf("hash keys should agree: %q vs %q", HashKey(a), HashKey(b))
	}
}

func TestMapAssocPreservesOrder(t *testing.T) {
	m := EmptyMap.Assoc(Str("a"), Int(1)).Assoc(Str("b"), Int(2)).Assoc(Str("a"), Int(9))
	entries := m.Entries()
	if len(entries) != 2 {
		t.Fatalf("expected 2 entries, got %d", len(entries))
	}
	if entries[0].Key != Str("a") || entries[0].Val != Int(9) {
		t.Errorf("reassoc should keep original position: %+v", entries[0])
	}
}

func TestVectorSeqIdempotent(t *testing.T) {
	v := NewVector(Int(1), Int(2), Int(3))
	s1 := Seq(v)
	s2 := Seq(s1)
	if !Eql(s1, s2) {
		t.Errorf("seq(seq(x)) should equal seq(x)")
	}
}

func TestRestNeverNil(t *testing.T) {
	r := Rest(EmptyList)
	if _, ok := r.(Nil); ok {
		t.Errorf("rest of empty should be an empty seq, not nil")
	}
	if Count(r) != 0 {
		t.Errorf("rest of empty should have count 0")
	}
}

func TestNextNilOnExhaustion(t *testing.T) {
	l := NewList(Int(1))
	if _, ok := Next(l).(Nil); !ok {
		t.Errorf("next of one-element seq should be nil")
	}
}

func TestPrStrRoundTripAtoms(t *testing.T) {
	cases := []Value{Int(42), Str("hi\nthere"), NewKeyword("", "kw"), Bool(true), NilValue}
	for _, c := range cases {
		s := PrStr(c)
		if s == "" {
			t.Errorf("PrStr(%v) was empty", c)
		}
	}
}
