// Package vm is the stack-machine interpreter for internal/bytecode's
// Chunks, the second of the two evaluator backends spec §4.5-§4.6
// describe. internal/dispatch.Bridge.callFn calls Apply here for any
// value.Fn whose Kind is value.KindBytecode, exactly as it calls
// internal/treewalk.Apply for KindTreeWalk.
package vm

import (
	"fmt"
	"math"

	"github.com/cljwlang/cljw/internal/ast"
	"github.com/cljwlang/cljw/internal/bytecode"
	"github.com/cljwlang/cljw/internal/rt"
	"github.com/cljwlang/cljw/internal/treewalk"
	"github.com/cljwlang/cljw/internal/value"
)

// frame is one Run invocation's mutable interpreter state: an operand
// stack, the instruction pointer, and the locals slice it shares with
// whatever compiled the Chunk (treewalk.Apply's equivalent).
type frame struct {
	env    *rt.Env
	chunk  *bytecode.Chunk
	locals []value.Value
	stack  []value.Value
	ip     int
}

func (f *frame) push(v value.Value) { f.stack = append(f.stack, v) }

func (f *frame) pop() value.Value {
	n := len(f.stack) - 1
	v := f.stack[n]
	f.stack = f.stack[:n]
	return v
}

func (f *frame) readByte() byte {
	b := f.chunk.Code[f.ip]
	f.ip++
	return b
}

func (f *frame) readOperand16() int {
	n := bytecode.ReadOperand16(f.chunk.Code, f.ip)
	f.ip += 2
	return n
}

// Run executes chunk to completion against locals and returns the value
// left by its terminating OpReturn.
func Run(env *rt.Env, chunk *bytecode.Chunk, locals []value.Value) value.Value {
	f := &frame{env: env, chunk: chunk, locals: locals}
	for {
		if env.Heap != nil && env.Heap.ShouldCollect() {
			env.Heap.Collect()
		}
		op := bytecode.OpCode(f.readByte())
		switch op {
		case bytecode.OpConst:
			idx := f.readOperand16()
			f.push(f.chunk.Constants[idx].(value.Value))
		case bytecode.OpPop:
			f.pop()
		case bytecode.OpLoadLocal:
			slot := f.readOperand16()
			f.push(f.locals[slot])
		case bytecode.OpStoreLocal:
			slot := f.readOperand16()
			f.locals[slot] = f.pop()
			f.push(f.locals[slot])
		case bytecode.OpLoadUpvalue:
			// Upvalues are resolved into ordinary locals at closure-creation
			// time (see makeClosure below), the same simplification
			// treewalk's Apply makes; this opcode is reserved but unused.
			slot := f.readOperand16()
			f.push(f.locals[slot])
		case bytecode.OpLoadVar:
			idx := f.readOperand16()
			sym := f.chunk.Constants[idx].(value.Symbol)
			v, ok := env.Resolve(sym)
			if !ok {
				panic(rt.NewError("Exception", "unable to resolve symbol: "+sym.String()+" in this context"))
			}
			f.push(v.Deref())
		case bytecode.OpDefVar:
			idx := f.readOperand16()
			tmpl := f.chunk.Constants[idx].(*bytecode.DefTemplate)
			f.push(f.execDef(tmpl))
		case bytecode.OpJump:
			dist := f.readOperand16()
			f.ip += dist
		case bytecode.OpJumpIfFalse:
			dist := f.readOperand16()
			test := f.pop()
			if !value.IsTruthy(test) {
				f.ip += dist
			}
		case bytecode.OpCall:
			argc := f.readOperand16()
			args := make([]value.Value, argc)
			for i := argc - 1; i >= 0; i-- {
				args[i] = f.pop()
			}
			callee := f.pop()
			f.push(env.Bridge.Call(callee, args))
		case bytecode.OpMakeClosure:
			idx := f.readOperand16()
			tmpl := f.chunk.Constants[idx].(*bytecode.ClosureTemplate)
			f.push(allocIfHeap(env, makeClosure(tmpl, f.locals)))
		case bytecode.OpRecur:
			slotsIdx := f.readOperand16()
			target := f.readOperand16()
			slots := f.chunk.Constants[slotsIdx].([]int)
			args := make([]value.Value, len(slots))
			for i := len(slots) - 1; i >= 0; i-- {
				args[i] = f.pop()
			}
			for i, slot := range slots {
				f.locals[slot] = args[i]
			}
			f.ip = target
		case bytecode.OpMakeColl:
			kind := ast.CollKind(f.readByte())
			n := f.readOperand16()
			items := make([]value.Value, n)
			for i := n - 1; i >= 0; i-- {
				items[i] = f.pop()
			}
			switch kind {
			case ast.VectorColl:
				f.push(allocIfHeap(env, value.NewVector(items...)))
			case ast.SetColl:
				f.push(allocIfHeap(env, value.NewSet(items...)))
			case ast.MapColl:
				f.push(allocIfHeap(env, value.NewMap(items...)))
			default:
				panic(fmt.Sprintf("vm: unhandled collection kind %d", kind))
			}
		case bytecode.OpNilVal:
			f.push(value.NilValue)
		case bytecode.OpTrueVal:
			f.push(value.True)
		case bytecode.OpFalseVal:
			f.push(value.False)
		case bytecode.OpAdd, bytecode.OpSub, bytecode.OpMul, bytecode.OpDiv:
			b := f.pop()
			a := f.pop()
			f.push(execArith(op, a, b))
		case bytecode.OpLt, bytecode.OpLe, bytecode.OpEq:
			b := f.pop()
			a := f.pop()
			f.push(execCompare(op, a, b))
		case bytecode.OpListNew, bytecode.OpVecNew, bytecode.OpMapNew, bytecode.OpSetNew:
			argc := f.readOperand16()
			items := make([]value.Value, argc)
			for i := argc - 1; i >= 0; i-- {
				items[i] = f.pop()
			}
			f.push(allocIfHeap(env, execConstruct(op, items)))
		case bytecode.OpTreewalkEval:
			idx := f.readOperand16()
			node := f.chunk.Constants[idx].(ast.Node)
			f.push(treewalk.Eval(env, node, f.locals))
		case bytecode.OpReturn:
			if len(f.stack) == 0 {
				return value.NilValue
			}
			return f.pop()
		case bytecode.OpHalt:
			if len(f.stack) == 0 {
				return value.NilValue
			}
			return f.pop()
		default:
			panic(fmt.Sprintf("vm: unhandled opcode %d", op))
		}
	}
}

func (f *frame) execDef(t *bytecode.DefTemplate) value.Value {
	ns := f.env.Current
	if t.NsName != "" {
		ns = f.env.FindOrCreateNamespace(t.NsName)
	}
	v := ns.Intern(t.Name)
	v.IsMacro = t.IsMacro
	v.IsDynamic = t.IsDynamic
	v.IsPrivate = t.IsPrivate

	if t.Chunk != nil {
		initLocals := make([]value.Value, t.NumSlots)
		val := Run(f.env, t.Chunk, initLocals)
		if fn, ok := val.(*value.Fn); ok && fn.Name == "" {
			fn.Name = t.Name
		}
		v.SetRoot(val)
	}
	return value.VarRef{Target: v}
}

// makeClosure snapshots each arity's captured locals into a fresh
// value.Fn, the bytecode-backend twin of internal/treewalk's makeClosure.
func makeClosure(t *bytecode.ClosureTemplate, locals []value.Value) *value.Fn {
	arities := make([]value.FnArity, len(t.Protos))
	captures := make([][]value.Value, len(t.Protos))
	for i, p := range t.Protos {
		arities[i] = value.FnArity{Proto: p}
		snap := make([]value.Value, len(p.Arity.Captures))
		for j, ref := range p.Arity.Captures {
			snap[j] = locals[ref.Slot]
		}
		captures[i] = snap
	}
	fn := &value.Fn{
		Name:     t.Name,
		Kind:     value.KindBytecode,
		Arities:  arities,
		Captures: captures,
		HasSelf:  t.HasSelf,
	}
	if fn.HasSelf {
		fn.SelfValue = fn
	}
	return fn
}

// Apply invokes a bytecode Fn's selected arity. internal/dispatch calls
// this once it has picked the arity via fn.SelectArity and confirmed
// fn.Kind == value.KindBytecode.
func Apply(env *rt.Env, fn *value.Fn, arity *value.FnArity, args []value.Value) value.Value {
	arityIdx := arityIndex(fn, arity)
	proto := arity.Proto.(*bytecode.FnProto)
	node := proto.Arity
	locals := make([]value.Value, node.NumSlots)

	if fn.HasSelf {
		locals[0] = fn.SelfValue
	}
	for i, slot := range node.ParamSlots {
		if node.Variadic && i == len(node.ParamSlots)-1 {
			locals[slot] = value.NewList(args[i:]...)
			break
		}
		locals[slot] = args[i]
	}
	for i, ref := range node.Captures {
		locals[ref.Slot] = fn.Captures[arityIdx][i]
	}
	return Run(env, proto.Chunk, locals)
}

// allocIfHeap registers a freshly-constructed composite Value into env's
// shadow GC heap (spec §3.6/§5), the choke point every opcode that builds a
// collection or closure routes through. Immediate kinds pass through
// Heap.Alloc unchanged, so this is always safe to call.
func allocIfHeap(env *rt.Env, v value.Value) value.Value {
	if env.Heap == nil {
		return v
	}
	return env.Heap.Alloc(v)
}

func vmNum(v value.Value) (float64, bool) {
	switch n := v.(type) {
	case value.Int:
		return float64(n), true
	case value.Float:
		return float64(n), false
	default:
		panic(rt.NewError("IllegalArgumentException", value.TypeName(v)+" cannot be cast to a number"))
	}
}

// execArith implements OpAdd/OpSub/OpMul/OpDiv, preserving the int/float
// contagion rule internal/builtin/arithmetic.go's reduceNums uses: a result
// stays an Int only when both operands were Ints and the math landed on a
// whole number.
func execArith(op bytecode.OpCode, a, b value.Value) value.Value {
	af, aInt := vmNum(a)
	bf, bInt := vmNum(b)
	var r float64
	switch op {
	case bytecode.OpAdd:
		r = af + bf
	case bytecode.OpSub:
		r = af - bf
	case bytecode.OpMul:
		r = af * bf
	case bytecode.OpDiv:
		if bf == 0 {
			panic(&rt.ClojureError{Kind: "ArithmeticException", Msg: "Divide by zero"})
		}
		r = af / bf
	}
	if aInt && bInt && r == math.Trunc(r) {
		return value.Int(int64(r))
	}
	return value.Float(r)
}

func execCompare(op bytecode.OpCode, a, b value.Value) value.Value {
	if op == bytecode.OpEq {
		return value.Bool(value.Eql(a, b))
	}
	af, _ := vmNum(a)
	bf, _ := vmNum(b)
	if op == bytecode.OpLt {
		return value.Bool(af < bf)
	}
	return value.Bool(af <= bf)
}

func execConstruct(op bytecode.OpCode, items []value.Value) value.Value {
	switch op {
	case bytecode.OpListNew:
		return value.NewList(items...)
	case bytecode.OpVecNew:
		return value.NewVector(items...)
	case bytecode.OpMapNew:
		return value.NewMap(items...)
	default:
		return value.NewSet(items...)
	}
}

func arityIndex(fn *value.Fn, arity *value.FnArity) int {
	for i := range fn.Arities {
		if &fn.Arities[i] == arity {
			return i
		}
	}
	return 0
}

// Eval compiles and runs a standalone top-level form, the entry point
// internal/bootstrap uses instead of treewalk.Eval when the bytecode
// backend is selected.
func Eval(env *rt.Env, node ast.Node, numSlots int) value.Value {
	chunk, err := bytecode.Compile([]ast.Node{node}, env)
	if err != nil {
		panic(rt.WrapError("Exception", err))
	}
	locals := make([]value.Value, numSlots)
	return Run(env, chunk, locals)
}
