package bytecode

import (
	"fmt"

	"github.com/cljwlang/cljw/internal/ast"
	"github.com/cljwlang/cljw/internal/rt"
	"github.com/cljwlang/cljw/internal/value"
)

// FnProto is the bytecode backend's value.FnProto: one arity's compiled
// Chunk plus the same slot bookkeeping internal/treewalk reads directly
// off ast.FnArity (params, captures, variadic-ness).
type FnProto struct {
	Arity *ast.FnArity
	Chunk *Chunk
}

func (p *FnProto) FixedArity() int  { return p.Arity.FixedArity() }
func (p *FnProto) IsVariadic() bool { return p.Arity.IsVariadic() }

// loopCtx is a compile-time-only record of the innermost enclosing
// loop/fn-arity's recur target: since a Chunk never spans a fn boundary,
// recur's jump target and rebound slots are fully known when compiling
// the Recur node, with no runtime frame stack needed for it (contrast
// internal/treewalk, which re-derives this per Eval call via runTailLoop).
type loopCtx struct {
	startIP    int
	slotsConst int // index into the chunk's constants holding []int
}

type compiler struct {
	chunk *Chunk
	loops []loopCtx
	// env resolves a call's callee Var at compile time so resolveIntrinsic
	// can read its Builtin.VMIntrinsic; nil disables intrinsic recognition
	// (every call compiles as a plain OpCall).
	env *rt.Env
}

// Compile compiles one arity's or one top-level form's body into a Chunk.
// body is evaluated in sequence with OpPop between non-final forms, the
// last form's value left on the stack and an explicit OpReturn at the
// very end; a fn-arity Chunk compiled by compileFn ends the same way.
// env is consulted for emitCall intrinsic recognition (spec §4.5); pass
// nil to compile without it.
func Compile(body []ast.Node, env *rt.Env) (*Chunk, error) {
	c := &compiler{chunk: &Chunk{}, env: env}
	if err := c.compileBody(body, 0); err != nil {
		return nil, err
	}
	c.chunk.WriteOp(OpReturn, 0)
	return c.chunk, nil
}

func (c *compiler) compileBody(body []ast.Node, line int) error {
	if len(body) == 0 {
		c.emitConst(value.NilValue, line)
		return nil
	}
	for i, n := range body {
		if err := c.compileNode(n); err != nil {
			return err
		}
		if i < len(body)-1 {
			c.chunk.WriteOp(OpPop, line)
		}
	}
	return nil
}

func (c *compiler) emitConst(v interface{}, line int) {
	idx := c.chunk.AddConstant(v)
	c.chunk.WriteOp(OpConst, line)
	c.chunk.WriteOperand16(idx, line)
}

func (c *compiler) compileNode(node ast.Node) error {
	line := node.Pos().Line
	switch n := node.(type) {
	case *ast.Constant:
		switch cv := n.Val.(type) {
		case value.Nil:
			c.chunk.WriteOp(OpNilVal, line)
		case value.Bool:
			if bool(cv) {
				c.chunk.WriteOp(OpTrueVal, line)
			} else {
				c.chunk.WriteOp(OpFalseVal, line)
			}
		default:
			c.emitConst(n.Val, line)
		}
	case *ast.Quote:
		c.emitConst(n.Val, line)
	case *ast.LocalRef:
		c.chunk.WriteOp(OpLoadLocal, line)
		c.chunk.WriteOperand16(n.Slot, line)
	case *ast.VarRef:
		idx := c.chunk.AddConstant(n.Sym)
		c.chunk.WriteOp(OpLoadVar, line)
		c.chunk.WriteOperand16(idx, line)
	case *ast.If:
		return c.compileIf(n)
	case *ast.Do:
		return c.compileBody(n.Body, line)
	case *ast.Let:
		return c.compileLet(n.Bindings, n.Body, line)
	case *ast.Loop:
		return c.compileLoop(n)
	case *ast.Recur:
		return c.compileRecur(n)
	case *ast.Fn:
		return c.compileFn(n)
	case *ast.Call:
		return c.compileCall(n)
	case *ast.Def:
		return c.compileDef(n)
	case *ast.CollectionLit:
		return c.compileCollectionLit(n)
	default:
		// throw, try, set!, defmulti, defmethod, defprotocol, extend-type,
		// defrecord: fall back to the tree-walk evaluator for these rarer
		// forms rather than compiling their control flow a second time
		// (see DESIGN.md's Open Question on this).
		idx := c.chunk.AddConstant(node)
		c.chunk.WriteOp(OpTreewalkEval, line)
		c.chunk.WriteOperand16(idx, line)
	}
	return nil
}

func (c *compiler) compileCollectionLit(n *ast.CollectionLit) error {
	line := n.Pos().Line
	for _, it := range n.Items {
		if err := c.compileNode(it); err != nil {
			return err
		}
	}
	c.chunk.WriteOp(OpMakeColl, line)
	c.chunk.Write(byte(n.Kind), line)
	c.chunk.WriteOperand16(len(n.Items), line)
	return nil
}

func (c *compiler) compileIf(n *ast.If) error {
	line := n.Pos().Line
	if err := c.compileNode(n.Test); err != nil {
		return err
	}
	c.chunk.WriteOp(OpJumpIfFalse, line)
	elseJump := len(c.chunk.Code)
	c.chunk.WriteOperand16(0, line)

	if err := c.compileNode(n.Then); err != nil {
		return err
	}
	c.chunk.WriteOp(OpJump, line)
	endJump := len(c.chunk.Code)
	c.chunk.WriteOperand16(0, line)

	c.chunk.PatchJump(elseJump)
	if err := c.compileNode(n.Else); err != nil {
		return err
	}
	c.chunk.PatchJump(endJump)
	return nil
}

func (c *compiler) compileLet(bindings []ast.Binding, body []ast.Node, line int) error {
	for _, b := range bindings {
		if err := c.compileNode(b.Init); err != nil {
			return err
		}
		c.chunk.WriteOp(OpStoreLocal, line)
		c.chunk.WriteOperand16(b.Slot, line)
		c.chunk.WriteOp(OpPop, line)
	}
	return c.compileBody(body, line)
}

func (c *compiler) compileLoop(n *ast.Loop) error {
	line := n.Pos().Line
	for _, b := range n.Bindings {
		if err := c.compileNode(b.Init); err != nil {
			return err
		}
		c.chunk.WriteOp(OpStoreLocal, line)
		c.chunk.WriteOperand16(b.Slot, line)
		c.chunk.WriteOp(OpPop, line)
	}
	slotsIdx := c.chunk.AddConstant(append([]int(nil), n.Slots...))
	c.loops = append(c.loops, loopCtx{startIP: len(c.chunk.Code), slotsConst: slotsIdx})
	defer func() { c.loops = c.loops[:len(c.loops)-1] }()
	return c.compileBody(n.Body, line)
}

func (c *compiler) compileRecur(n *ast.Recur) error {
	line := n.Pos().Line
	if len(c.loops) == 0 {
		return fmt.Errorf("bytecode: recur outside a loop/fn body")
	}
	for _, a := range n.Args {
		if err := c.compileNode(a); err != nil {
			return err
		}
	}
	lp := c.loops[len(c.loops)-1]
	c.chunk.WriteOp(OpRecur, line)
	c.chunk.WriteOperand16(lp.slotsConst, line)
	c.chunk.WriteOperand16(lp.startIP, line)
	return nil
}

// compileFn compiles every arity's body into its own Chunk (a fn-arity's
// recur target never shares a loop stack with its enclosing Chunk), then
// emits OpMakeClosure referencing the arities and letting the VM snapshot
// captures from the current locals at runtime, matching
// internal/treewalk's makeClosure exactly.
func (c *compiler) compileFn(n *ast.Fn) error {
	line := n.Pos().Line
	protos := make([]*FnProto, len(n.Arities))
	for i := range n.Arities {
		a := &n.Arities[i]
		sub := &compiler{env: c.env}
		sub.chunk = &Chunk{}
		if err := sub.compileBody(a.Body, line); err != nil {
			return err
		}
		sub.chunk.WriteOp(OpReturn, line)
		protos[i] = &FnProto{Arity: a, Chunk: sub.chunk}
	}
	idx := c.chunk.AddConstant(&ClosureTemplate{Name: n.Name, HasSelf: n.SelfSlot >= 0, Protos: protos})
	c.chunk.WriteOp(OpMakeClosure, line)
	c.chunk.WriteOperand16(idx, line)
	return nil
}

// ClosureTemplate is the constant-pool payload OpMakeClosure reads; the
// VM is the only consumer (it knows how to turn this into a *value.Fn).
type ClosureTemplate struct {
	Name    string
	HasSelf bool
	Protos  []*FnProto
}

func (c *compiler) compileCall(n *ast.Call) error {
	line := n.Pos().Line
	if intr := c.resolveIntrinsic(n.Callee); intr != "" {
		handled, err := c.compileIntrinsic(intr, n, line)
		if err != nil {
			return err
		}
		if handled {
			return nil
		}
	}
	if err := c.compileNode(n.Callee); err != nil {
		return err
	}
	for _, a := range n.Args {
		if err := c.compileNode(a); err != nil {
			return err
		}
	}
	c.chunk.WriteOp(OpCall, line)
	c.chunk.WriteOperand16(len(n.Args), line)
	return nil
}

// resolveIntrinsic returns the VMIntrinsic name of callee's resolved Var,
// or "" if callee isn't a VarRef, doesn't resolve, or doesn't currently
// hold a Builtin naming one. Consulting the live root rather than a
// static name table means a Var redefinition before compilation sees it
// (e.g. a namespace shadowing `+`) compiles against the right target;
// redefining it after compilation, like inlining in any compiled Lisp,
// doesn't retroactively change already-compiled call sites.
func (c *compiler) resolveIntrinsic(callee ast.Node) string {
	vr, ok := callee.(*ast.VarRef)
	if !ok || c.env == nil {
		return ""
	}
	v, ok := c.env.Resolve(vr.Sym)
	if !ok || !v.HasRoot() {
		return ""
	}
	b, ok := v.Deref().(*value.Builtin)
	if !ok {
		return ""
	}
	return b.VMIntrinsic
}

// compileIntrinsic emits the specialized opcode for name when n's argument
// count fits the opcode's fixed binary/constructor shape. It reports
// handled=false for arities it doesn't special-case (1-arg + and *, whose
// 0-arg form is emitted as the identity constant; 0/1-arg - and /; any
// comparison with other than two args; an odd hash-map arg count), letting
// compileCall fall back to an ordinary call through the Var's Builtin,
// which already implements the full variadic semantics correctly.
func (c *compiler) compileIntrinsic(name string, n *ast.Call, line int) (bool, error) {
	argc := len(n.Args)
	switch name {
	case "add", "mul":
		if argc == 0 {
			ident := value.Int(0)
			if name == "mul" {
				ident = value.Int(1)
			}
			c.emitConst(ident, line)
			return true, nil
		}
		if argc < 2 {
			return false, nil
		}
		if err := c.compileArithFold(n.Args, opForArith(name), line); err != nil {
			return false, err
		}
		return true, nil
	case "sub", "div":
		if argc < 2 {
			return false, nil
		}
		if err := c.compileArithFold(n.Args, opForArith(name), line); err != nil {
			return false, err
		}
		return true, nil
	case "lt", "le", "eq":
		if argc != 2 {
			return false, nil
		}
		if err := c.compileNode(n.Args[0]); err != nil {
			return false, err
		}
		if err := c.compileNode(n.Args[1]); err != nil {
			return false, err
		}
		c.chunk.WriteOp(opForCompare(name), line)
		return true, nil
	case "map_new":
		if argc%2 != 0 {
			return false, nil
		}
		fallthrough
	case "list_new", "vec_new", "set_new":
		for _, a := range n.Args {
			if err := c.compileNode(a); err != nil {
				return false, err
			}
		}
		c.chunk.WriteOp(opForConstruct(name), line)
		c.chunk.WriteOperand16(argc, line)
		return true, nil
	}
	return false, nil
}

// compileArithFold expands a variadic arithmetic call into a left fold of
// binary ops: a op b op c ... compiles as a, b, op, c, op, ..., exactly
// the binary-opcode expansion spec §4.5 requires.
func (c *compiler) compileArithFold(args []ast.Node, op OpCode, line int) error {
	if err := c.compileNode(args[0]); err != nil {
		return err
	}
	for _, a := range args[1:] {
		if err := c.compileNode(a); err != nil {
			return err
		}
		c.chunk.WriteOp(op, line)
	}
	return nil
}

func opForArith(name string) OpCode {
	switch name {
	case "add":
		return OpAdd
	case "sub":
		return OpSub
	case "mul":
		return OpMul
	default:
		return OpDiv
	}
}

func opForCompare(name string) OpCode {
	switch name {
	case "lt":
		return OpLt
	case "le":
		return OpLe
	default:
		return OpEq
	}
}

func opForConstruct(name string) OpCode {
	switch name {
	case "list_new":
		return OpListNew
	case "vec_new":
		return OpVecNew
	case "map_new":
		return OpMapNew
	default:
		return OpSetNew
	}
}

func (c *compiler) compileDef(n *ast.Def) error {
	line := n.Pos().Line
	if n.Init != nil {
		sub := &compiler{chunk: &Chunk{}, env: c.env}
		if err := sub.compileNode(n.Init); err != nil {
			return err
		}
		sub.chunk.WriteOp(OpReturn, line)
		defIdx := c.chunk.AddConstant(&DefTemplate{NsName: n.NsName, Name: n.Name, NumSlots: n.NumSlots, Chunk: sub.chunk, IsMacro: n.IsMacro, IsDynamic: n.IsDynamic, IsPrivate: n.IsPrivate})
		c.chunk.WriteOp(OpDefVar, line)
		c.chunk.WriteOperand16(defIdx, line)
		return nil
	}
	defIdx := c.chunk.AddConstant(&DefTemplate{NsName: n.NsName, Name: n.Name, IsMacro: n.IsMacro, IsDynamic: n.IsDynamic, IsPrivate: n.IsPrivate})
	c.chunk.WriteOp(OpDefVar, line)
	c.chunk.WriteOperand16(defIdx, line)
	return nil
}

type DefTemplate struct {
	NsName    string
	Name      string
	NumSlots  int
	Chunk     *Chunk // nil for a bare forward-declaring def
	IsMacro   bool
	IsDynamic bool
	IsPrivate bool
}
