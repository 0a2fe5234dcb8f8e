package bytecode

import (
	"testing"

	"github.com/cljwlang/cljw/internal/ast"
	"github.com/cljwlang/cljw/internal/rt"
	"github.com/cljwlang/cljw/internal/value"
)

// internString registers name in env's current namespace with root as its
// Var root, the minimal stand-in for builtin.Register these tests need.
func internString(env *rt.Env, name string, root value.Value) {
	v := env.Current.Intern(name)
	v.SetRoot(root)
}

func callNode(name string, args ...ast.Node) *ast.Call {
	return &ast.Call{
		Callee: &ast.VarRef{Sym: value.Symbol{Name: name}},
		Args:   args,
	}
}

func constNode(v value.Value) *ast.Constant {
	return &ast.Constant{Val: v}
}

func opsOf(t *testing.T, chunk *Chunk) []string {
	t.Helper()
	var names []string
	for _, in := range Disassemble(chunk) {
		names = append(names, in.Op)
	}
	return names
}

func containsOp(ops []string, op string) bool {
	for _, o := range ops {
		if o == op {
			return true
		}
	}
	return false
}

func TestCompileCallEmitsIntrinsicForVariadicAdd(t *testing.T) {
	env := rt.NewEnv(nil)
	internString(env, "+", &value.Builtin{Name: "+", MinArity: 0, MaxArity: -1, VMIntrinsic: "add"})

	chunk, err := Compile([]ast.Node{callNode("+", constNode(value.Int(1)), constNode(value.Int(2)), constNode(value.Int(3)))}, env)
	if err != nil {
		t.Fatalf("compile: %v", err)
	}
	ops := opsOf(t, chunk)
	if !containsOp(ops, "add") {
		t.Fatalf("expected a folded add opcode, got %v", ops)
	}
	if containsOp(ops, "call") {
		t.Fatalf("expected no generic call for an intrinsic-eligible +, got %v", ops)
	}
}

func TestCompileCallFoldsVariadicAddIntoNMinusOneOps(t *testing.T) {
	env := rt.NewEnv(nil)
	internString(env, "+", &value.Builtin{Name: "+", MinArity: 0, MaxArity: -1, VMIntrinsic: "add"})

	chunk, err := Compile([]ast.Node{callNode("+", constNode(value.Int(1)), constNode(value.Int(2)), constNode(value.Int(3)), constNode(value.Int(4)))}, env)
	if err != nil {
		t.Fatalf("compile: %v", err)
	}
	count := 0
	for _, in := range Disassemble(chunk) {
		if in.Op == "add" {
			count++
		}
	}
	if count != 3 {
		t.Fatalf("expected 3 add opcodes folding 4 operands, got %d", count)
	}
}

func TestCompileCallZeroArgAddEmitsConstantZero(t *testing.T) {
	env := rt.NewEnv(nil)
	internString(env, "+", &value.Builtin{Name: "+", MinArity: 0, MaxArity: -1, VMIntrinsic: "add"})

	chunk, err := Compile([]ast.Node{callNode("+")}, env)
	if err != nil {
		t.Fatalf("compile: %v", err)
	}
	ops := opsOf(t, chunk)
	if containsOp(ops, "add") || containsOp(ops, "call") {
		t.Fatalf("expected (+) to compile to a bare constant, got %v", ops)
	}
	if !containsOp(ops, "const") {
		t.Fatalf("expected a const op for (+)'s identity value, got %v", ops)
	}
}

func TestCompileCallFallsBackForUnaryMinus(t *testing.T) {
	env := rt.NewEnv(nil)
	internString(env, "-", &value.Builtin{Name: "-", MinArity: 1, MaxArity: -1, VMIntrinsic: "sub"})

	chunk, err := Compile([]ast.Node{callNode("-", constNode(value.Int(5)))}, env)
	if err != nil {
		t.Fatalf("compile: %v", err)
	}
	ops := opsOf(t, chunk)
	if !containsOp(ops, "call") {
		t.Fatalf("expected unary - to fall back to a generic call (arity the opcode can't special-case), got %v", ops)
	}
}

func TestCompileCallEmitsComparisonIntrinsicForTwoArgs(t *testing.T) {
	env := rt.NewEnv(nil)
	internString(env, "<", &value.Builtin{Name: "<", MinArity: 1, MaxArity: -1, VMIntrinsic: "lt"})

	chunk, err := Compile([]ast.Node{callNode("<", constNode(value.Int(1)), constNode(value.Int(2)))}, env)
	if err != nil {
		t.Fatalf("compile: %v", err)
	}
	if ops := opsOf(t, chunk); !containsOp(ops, "lt") {
		t.Fatalf("expected an lt opcode, got %v", ops)
	}
}

func TestCompileCallFallsBackForChainedComparison(t *testing.T) {
	env := rt.NewEnv(nil)
	internString(env, "<", &value.Builtin{Name: "<", MinArity: 1, MaxArity: -1, VMIntrinsic: "lt"})

	chunk, err := Compile([]ast.Node{callNode("<", constNode(value.Int(1)), constNode(value.Int(2)), constNode(value.Int(3)))}, env)
	if err != nil {
		t.Fatalf("compile: %v", err)
	}
	ops := opsOf(t, chunk)
	if !containsOp(ops, "call") {
		t.Fatalf("expected a 3-arg < chain to fall back to a generic call, got %v", ops)
	}
}

func TestCompileCallEmitsListNewForListCall(t *testing.T) {
	env := rt.NewEnv(nil)
	internString(env, "list", &value.Builtin{Name: "list", MinArity: 0, MaxArity: -1, VMIntrinsic: "list_new"})

	chunk, err := Compile([]ast.Node{callNode("list", constNode(value.Int(1)), constNode(value.Int(2)))}, env)
	if err != nil {
		t.Fatalf("compile: %v", err)
	}
	if ops := opsOf(t, chunk); !containsOp(ops, "list-new") {
		t.Fatalf("expected a list-new opcode, got %v", ops)
	}
}

func TestCompileCallFallsBackForOddHashMapArgs(t *testing.T) {
	env := rt.NewEnv(nil)
	internString(env, "hash-map", &value.Builtin{Name: "hash-map", MinArity: 0, MaxArity: -1, VMIntrinsic: "map_new"})

	chunk, err := Compile([]ast.Node{callNode("hash-map", constNode(value.NewKeyword("", "a")))}, env)
	if err != nil {
		t.Fatalf("compile: %v", err)
	}
	ops := opsOf(t, chunk)
	if containsOp(ops, "map-new") {
		t.Fatalf("expected an odd-arg hash-map to fall back rather than emit map-new, got %v", ops)
	}
	if !containsOp(ops, "call") {
		t.Fatalf("expected a generic call so the builtin's own arity error fires, got %v", ops)
	}
}

func TestCompileConstantNilAndBoolUseFastOpcodes(t *testing.T) {
	chunk, err := Compile([]ast.Node{constNode(value.NilValue), constNode(value.True), constNode(value.False)}, nil)
	if err != nil {
		t.Fatalf("compile: %v", err)
	}
	ops := opsOf(t, chunk)
	for _, want := range []string{"nil-val", "true-val", "false-val"} {
		if !containsOp(ops, want) {
			t.Errorf("expected %q among %v", want, ops)
		}
	}
	if containsOp(ops, "const") {
		t.Errorf("expected nil/true/false to skip the constant pool entirely, got %v", ops)
	}
}
