// Package vm_test exercises the bytecode VM end to end through
// internal/bootstrap (an external test package, since internal/bootstrap
// itself imports internal/vm and an internal _test.go here would form an
// import cycle).
package vm_test

import (
	"io"
	"testing"

	"github.com/cljwlang/cljw/internal/analyzer"
	"github.com/cljwlang/cljw/internal/bootstrap"
	"github.com/cljwlang/cljw/internal/builtin"
	"github.com/cljwlang/cljw/internal/dispatch"
	"github.com/cljwlang/cljw/internal/gc"
	"github.com/cljwlang/cljw/internal/reader"
	"github.com/cljwlang/cljw/internal/rt"
	"github.com/cljwlang/cljw/internal/value"
	"github.com/cljwlang/cljw/internal/vm"
)

func evalStr(t *testing.T, rtm *bootstrap.Runtime, src string) value.Value {
	t.Helper()
	rd := reader.NewReader(src, rtm.Env.Current.Name, reader.DefaultLimits())
	var result value.Value
	for {
		form, err := rd.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			t.Fatalf("read %q: %v", src, err)
		}
		result, err = mustEval(t, rtm, form)
		if err != nil {
			t.Fatalf("eval %q: %v", src, err)
		}
	}
	return result
}

func mustEval(t *testing.T, rtm *bootstrap.Runtime, form value.Value) (value.Value, error) {
	t.Helper()
	return rtm.Eval(form)
}

func newVMRuntime(t *testing.T) *bootstrap.Runtime {
	t.Helper()
	rtm, err := bootstrap.New(true, "")
	if err != nil {
		t.Fatalf("bootstrap.New: %v", err)
	}
	return rtm
}

func TestVariadicArithmeticIntrinsics(t *testing.T) {
	rtm := newVMRuntime(t)
	cases := map[string]string{
		"(+ 1 2 3)":  "6",
		"(+)":        "0",
		"(* 2 3 4)":  "24",
		"(*)":        "1",
		"(- 10 1 2)": "7",
		"(- 5)":      "-5",
		"(/ 12 2 3)": "2",
	}
	for src, want := range cases {
		got := value.PrStr(evalStr(t, rtm, src))
		if got != want {
			t.Errorf("%s => %s, want %s", src, got, want)
		}
	}
}

func TestComparisonIntrinsics(t *testing.T) {
	rtm := newVMRuntime(t)
	cases := map[string]string{
		"(< 1 2)":   "true",
		"(< 2 1)":   "false",
		"(<= 2 2)":  "true",
		"(= 1 1)":   "true",
		"(= 1 2)":   "false",
		"(< 1 2 3)": "true",
		"(< 1 3 2)": "false",
	}
	for src, want := range cases {
		got := value.PrStr(evalStr(t, rtm, src))
		if got != want {
			t.Errorf("%s => %s, want %s", src, got, want)
		}
	}
}

func TestConstructorIntrinsics(t *testing.T) {
	rtm := newVMRuntime(t)
	cases := map[string]string{
		"(vector 1 2 3)":          "[1 2 3]",
		"(list 1 2 3)":            "(1 2 3)",
		"(hash-set 1)":            "#{1}",
		"(hash-map :a 1)":         "{:a 1}",
		"(count (vector 1 2 3 4))": "4",
	}
	for src, want := range cases {
		got := value.PrStr(evalStr(t, rtm, src))
		if got != want {
			t.Errorf("%s => %s, want %s", src, got, want)
		}
	}
}

func TestHeapTracksBytecodeAllocations(t *testing.T) {
	rtm := newVMRuntime(t)
	before := rtm.Env.Heap.BytesAllocated()
	evalStr(t, rtm, "(vector 1 2 3 4 5)")
	after := rtm.Env.Heap.BytesAllocated()
	if after <= before {
		t.Errorf("expected BytesAllocated to grow after constructing a vector via the VM, got before=%d after=%d", before, after)
	}
}

// newMiniEnv wires an Env's bridge and builtins the way bootstrap.New does,
// but loads no core.clj, leaves clojure.core as the current namespace, and
// takes a caller-chosen collection threshold, so a test can force several
// mark-sweep cycles without looping millions of times against
// bootstrap.New's 64MiB default.
func newMiniEnv(t *testing.T, threshold int64) *rt.Env {
	t.Helper()
	env := rt.NewEnv(gc.NewHeap(threshold))
	env.Bridge = dispatch.New(env)
	builtin.Register(env)
	env.Current = env.FindOrCreateNamespace("clojure.core")
	return env
}

func evalBC(t *testing.T, env *rt.Env, an *analyzer.Analyzer, src string) value.Value {
	t.Helper()
	rd := reader.NewReader(src, env.Current.Name, reader.DefaultLimits())
	var result value.Value
	for {
		form, err := rd.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			t.Fatalf("read %q: %v", src, err)
		}
		node, numSlots, err := an.Analyze(form)
		if err != nil {
			t.Fatalf("analyze %q: %v", src, err)
		}
		result = vm.Eval(env, node, numSlots)
	}
	return result
}

// TestRepeatedAllocationStaysBounded loops enough short-lived vector
// constructions through the VM to cross the heap's collection threshold
// repeatedly, and checks bytesAllocated settles near the threshold instead
// of growing without bound, the bytecode-backend half of what keeps
// current_bytes bounded across many allocate-and-discard top-level forms.
func TestRepeatedAllocationStaysBounded(t *testing.T) {
	env := newMiniEnv(t, 2048)
	an := analyzer.New(env, env.Bridge)

	evalBC(t, env, an, "(def scratch (atom nil))")
	for i := 0; i < 2000; i++ {
		evalBC(t, env, an, "(reset! scratch (vector 1 2 3))")
	}
	if env.Heap.Collections() == 0 {
		t.Error("expected at least one collection cycle after 2000 short-lived allocations with a 2KiB threshold")
	}
	if env.Heap.BytesAllocated() > 8*2048 {
		t.Errorf("expected bytesAllocated to stay bounded near the threshold, got %d", env.Heap.BytesAllocated())
	}
}
