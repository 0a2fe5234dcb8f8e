package rt

import (
	"testing"

	"github.com/cljwlang/cljw/internal/gc"
	"github.com/cljwlang/cljw/internal/value"
)

func TestInternReturnsSameVar(t *testing.T) {
	ns := NewNamespace("user")
	a := ns.Intern("x")
	b := ns.Intern("x")
	if a != b {
		t.Errorf("Intern should return the same Var on repeat calls")
	}
}

func TestVarDynamicBindingShadowsRoot(t *testing.T) {
	v := &Var{NsName: "user", Name: "x"}
	v.SetRoot(value.Int(1))
	if !value.Eql(v.Deref(), value.Int(1)) {
		t.Fatalf("expected root value before binding")
	}
	v.PushBinding(value.Int(2))
	if !value.Eql(v.Deref(), value.Int(2)) {
		t.Errorf("expected dynamic binding to shadow root")
	}
	v.PopBinding()
	if !value.Eql(v.Deref(), value.Int(1)) {
		t.Errorf("expected root value restored after pop")
	}
}

func TestEnvResolveQualifiedAndUnqualified(t *testing.T) {
	e := NewEnv(gc.NewHeap(1 << 20))
	core := e.FindOrCreateNamespace("clojure.core")
	v := core.Intern("inc")
	v.SetRoot(value.NilValue)

	if _, ok := e.Resolve(value.NewSymbol("clojure.core", "inc")); !ok {
		t.Errorf("expected qualified resolution to find inc")
	}

	e.Current.Refer("inc", v)
	if got, ok := e.Resolve(value.NewSymbol("", "inc")); !ok || got != v {
		t.Errorf("expected unqualified resolution through refers to find inc")
	}
}

func TestHierarchyIsATransitive(t *testing.T) {
	h := NewHierarchy()
	h.Derive("square", "rectangle")
	h.Derive("rectangle", "shape")

	if !h.IsA("square", "shape") {
		t.Errorf("expected square isa? shape via transitive derive")
	}
	if h.IsA("shape", "square") {
		t.Errorf("isa? should not be symmetric")
	}
	if !h.IsA("square", "square") {
		t.Errorf("isa? should be reflexive")
	}
}

func TestResolveMethodPrefersMoreSpecific(t *testing.T) {
	h := NewHierarchy()
	h.Derive(":square", ":rectangle")
	h.Derive(":rectangle", ":shape")

	mf := value.NewMultiFn("area", value.NilValue)
	shapeFn := value.Int(1)
	rectFn := value.Int(2)
	mf.AddMethod(value.NewKeyword("", "shape"), shapeFn)
	mf.AddMethod(value.NewKeyword("", "rectangle"), rectFn)

	fn, ok := ResolveMethod(h, mf, value.NewKeyword("", "square"))
	if !ok {
		t.Fatalf("expected a method to resolve")
	}
	if !value.Eql(fn, rectFn) {
		t.Errorf("expected the more specific rectangle method, got %v", fn)
	}
}

func TestResolveMethodFallsBackToDefault(t *testing.T) {
	h := NewHierarchy()
	mf := value.NewMultiFn("area", value.NilValue)
	def := value.Int(9)
	mf.AddMethod(value.NewKeyword("", "default"), def)
	mf.SetDefault(value.NewKeyword("", "default"))

	fn, ok := ResolveMethod(h, mf, value.NewKeyword("", "circle"))
	if !ok || !value.Eql(fn, def) {
		t.Errorf("expected default method fallback")
	}
}
