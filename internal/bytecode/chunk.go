// Package bytecode compiles ast.Node trees into a linear instruction
// stream for internal/vm's stack machine (spec §4.5), the second of the
// two evaluator backends named in the PURPOSE & SCOPE duality. Grounded
// on funxy's internal/vm/compiler.go: a Chunk pairing a byte-code array
// with a constant pool, one-byte opcodes, two-byte big-endian operands
// for every index, local slots included (OpMakeColl's kind byte is the
// only one-byte operand).
package bytecode

type OpCode byte

const (
	OpConst OpCode = iota
	OpPop
	OpLoadLocal
	OpStoreLocal
	OpLoadUpvalue
	OpLoadVar
	OpDefVar
	OpJump
	OpJumpIfFalse
	OpCall
	OpReturn
	OpMakeClosure
	OpRecur
	// OpTreewalkEval hands a constant-pool ast.Node straight to the
	// tree-walk evaluator with the VM frame's current locals, the
	// deliberate fallback for the special forms (try, defmulti,
	// defmethod, defprotocol, extend-type, defrecord, set!) whose control
	// flow isn't worth compiling a second time into bytecode (see
	// DESIGN.md). The VM pushes whatever it returns.
	OpTreewalkEval
	// OpMakeColl pops a fixed number of already-evaluated items off the
	// stack and builds a vector/map/set literal from them, compiled fully
	// rather than routed through OpTreewalkEval since collection literals
	// are common enough in ordinary code to be worth a real opcode. Takes
	// a one-byte kind (CollKind) followed by a two-byte item count (for
	// MapColl, a count of values, i.e. twice the entry count).
	OpMakeColl
	// OpNilVal, OpTrueVal, OpFalseVal push an immediate constant without a
	// constant-pool round trip, the compiler's fast path for the three
	// literals every branch/predicate produces.
	OpNilVal
	OpTrueVal
	OpFalseVal
	// OpAdd/OpSub/OpMul/OpDiv/OpLt/OpLe/OpEq are the emitCall intrinsics
	// (see compiler.go's resolveIntrinsic): the compiler recognizes a call
	// to a Var whose Builtin.VMIntrinsic names one of these and emits the
	// opcode directly instead of a generic OpCall, folding a variadic
	// arithmetic call into a left-to-right chain of binary ops. Each pops
	// two operands and pushes one result.
	OpAdd
	OpSub
	OpMul
	OpDiv
	OpLt
	OpLe
	OpEq
	// OpListNew/OpVecNew/OpMapNew/OpSetNew are the emitCall intrinsics for
	// calls to list/vector/hash-map/hash-set: pop a two-byte operand count
	// of already-evaluated items and construct the collection directly,
	// the call-form twin of OpMakeColl's literal-syntax path.
	OpListNew
	OpVecNew
	OpMapNew
	OpSetNew
	OpHalt
)

// Chunk is one arity's compiled body: a flat instruction stream, the
// constants it references, and a parallel Lines slice for error
// locations, the same shape funxy's Chunk carries.
type Chunk struct {
	Code      []byte
	Constants []interface{}
	Lines     []int
}

func (c *Chunk) Write(b byte, line int) int {
	c.Code = append(c.Code, b)
	c.Lines = append(c.Lines, line)
	return len(c.Code) - 1
}

func (c *Chunk) WriteOp(op OpCode, line int) int {
	return c.Write(byte(op), line)
}

// WriteOperand16 appends a big-endian two-byte operand, used for every
// index operand, local-variable slots included.
func (c *Chunk) WriteOperand16(n int, line int) {
	c.Write(byte(n>>8), line)
	c.Write(byte(n), line)
}

func (c *Chunk) AddConstant(v interface{}) int {
	c.Constants = append(c.Constants, v)
	return len(c.Constants) - 1
}

// PatchJump backfills a two-byte forward-jump operand written at
// (offset, offset+1) with the distance to the chunk's current end,
// funxy's back-patch pattern for if/when compiled without a pre-known
// target.
func (c *Chunk) PatchJump(offset int) {
	dist := len(c.Code) - (offset + 2)
	c.Code[offset] = byte(dist >> 8)
	c.Code[offset+1] = byte(dist)
}

func ReadOperand16(code []byte, ip int) int {
	return int(code[ip])<<8 | int(code[ip+1])
}
