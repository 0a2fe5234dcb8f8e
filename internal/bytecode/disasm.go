package bytecode

import "fmt"

// Instruction is one decoded opcode plus its operands, the unit
// --dump-bytecode renders (one per chunk.Code entry point).
type Instruction struct {
	Offset   int    `yaml:"offset"`
	Line     int    `yaml:"line"`
	Op       string `yaml:"op"`
	Operands []int  `yaml:"operands,omitempty"`
}

var opNames = map[OpCode]string{
	OpConst:        "const",
	OpPop:          "pop",
	OpLoadLocal:    "load-local",
	OpStoreLocal:   "store-local",
	OpLoadUpvalue:  "load-upvalue",
	OpLoadVar:      "load-var",
	OpDefVar:       "def-var",
	OpJump:         "jump",
	OpJumpIfFalse:  "jump-if-false",
	OpCall:         "call",
	OpReturn:       "return",
	OpMakeClosure:  "make-closure",
	OpRecur:        "recur",
	OpTreewalkEval: "treewalk-eval",
	OpMakeColl:     "make-coll",
	OpNilVal:       "nil-val",
	OpTrueVal:      "true-val",
	OpFalseVal:     "false-val",
	OpAdd:          "add",
	OpSub:          "sub",
	OpMul:          "mul",
	OpDiv:          "div",
	OpLt:           "lt",
	OpLe:           "le",
	OpEq:           "eq",
	OpListNew:      "list-new",
	OpVecNew:       "vec-new",
	OpMapNew:       "map-new",
	OpSetNew:       "set-new",
	OpHalt:         "halt",
}

// Disassemble decodes chunk's flat instruction stream into one Instruction
// per opcode, for --dump-bytecode. Nested closures (OpMakeClosure's
// ClosureTemplate constants) are not recursively expanded here: each
// arity's own Chunk can be disassembled separately by a caller that wants
// to walk into it.
func Disassemble(chunk *Chunk) []Instruction {
	var out []Instruction
	ip := 0
	for ip < len(chunk.Code) {
		start := ip
		op := OpCode(chunk.Code[ip])
		line := chunk.Lines[ip]
		ip++
		name, ok := opNames[op]
		if !ok {
			name = fmt.Sprintf("unknown(%d)", op)
		}
		var operands []int
		switch op {
		case OpConst, OpLoadLocal, OpStoreLocal, OpLoadUpvalue, OpLoadVar, OpDefVar,
			OpJump, OpJumpIfFalse, OpCall, OpMakeClosure, OpTreewalkEval:
			operands = []int{ReadOperand16(chunk.Code, ip)}
			ip += 2
		case OpRecur:
			operands = []int{ReadOperand16(chunk.Code, ip), ReadOperand16(chunk.Code, ip+2)}
			ip += 4
		case OpMakeColl:
			kind := int(chunk.Code[ip])
			count := ReadOperand16(chunk.Code, ip+1)
			operands = []int{kind, count}
			ip += 3
		case OpListNew, OpVecNew, OpMapNew, OpSetNew:
			operands = []int{ReadOperand16(chunk.Code, ip)}
			ip += 2
		}
		out = append(out, Instruction{Offset: start, Line: line, Op: name, Operands: operands})
	}
	return out
}
