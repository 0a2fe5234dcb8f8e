package bytecode

import (
	"testing"

	"github.com/cljwlang/cljw/internal/ast"
	"github.com/cljwlang/cljw/internal/value"
)

func TestDisassembleConstant(t *testing.T) {
	chunk, err := Compile([]ast.Node{&ast.Constant{Val: value.Int(42)}}, nil)
	if err != nil {
		t.Fatalf("compile: %v", err)
	}
	instrs := Disassemble(chunk)
	if len(instrs) == 0 {
		t.Fatal("expected at least one instruction")
	}
	if instrs[0].Op != "const" {
		t.Errorf("expected first op to be const, got %q", instrs[0].Op)
	}
	if len(instrs[0].Operands) != 1 {
		t.Errorf("expected const to carry one operand (its pool index), got %v", instrs[0].Operands)
	}
}

func TestDisassembleIfEmitsJumps(t *testing.T) {
	node := &ast.If{
		Test: &ast.Constant{Val: value.Bool(true)},
		Then: &ast.Constant{Val: value.Int(1)},
		Else: &ast.Constant{Val: value.Int(2)},
	}
	chunk, err := Compile([]ast.Node{node}, nil)
	if err != nil {
		t.Fatalf("compile: %v", err)
	}
	instrs := Disassemble(chunk)

	var sawJumpIfFalse, sawJump bool
	for _, in := range instrs {
		switch in.Op {
		case "jump-if-false":
			sawJumpIfFalse = true
		case "jump":
			sawJump = true
		}
	}
	if !sawJumpIfFalse {
		t.Errorf("expected a jump-if-false instruction in %v", instrs)
	}
	if !sawJump {
		t.Errorf("expected a jump instruction in %v", instrs)
	}
}

func TestDisassembleOffsetsAreMonotonic(t *testing.T) {
	node := &ast.If{
		Test: &ast.Constant{Val: value.Bool(true)},
		Then: &ast.Constant{Val: value.Int(1)},
		Else: &ast.Constant{Val: value.Int(2)},
	}
	chunk, err := Compile([]ast.Node{node}, nil)
	if err != nil {
		t.Fatalf("compile: %v", err)
	}
	instrs := Disassemble(chunk)
	for i := 1; i < len(instrs); i++ {
		if instrs[i].Offset <= instrs[i-1].Offset {
			t.Errorf("expected strictly increasing offsets, got %d then %d", instrs[i-1].Offset, instrs[i].Offset)
		}
	}
}
