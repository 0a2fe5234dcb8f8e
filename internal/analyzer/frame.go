package analyzer

import "github.com/cljwlang/cljw/internal/ast"

// fnFrame is one fn-arity's (or the implicit top-level form's) flat slot
// space. Locals, params, and captured upvalues are all just slots within
// one fnFrame — Lua-style compilers split locals from upvalues, but
// that split is collapsed here (internal/bytecode, too, addresses
// captures as ordinary local slots), because the tree-walk evaluator addresses every slot
// the same way regardless of whether it originated as a param, a `let`
// binding, or a captured value snapshotted at closure-creation time.
type fnFrame struct {
	parent   *fnFrame
	parentLex *lexScope // the lexical scope active in parent at the point this fn was defined

	nextSlot int
	root     *lexScope // this frame's outermost lexical scope, holding params + captures

	captureOrder []ast.LocalRef // outer-frame LocalRef to snapshot, in slot-allocation order
	captureSlot  map[string]int

	loopStack []loopTarget
}

type loopTarget struct {
	slots []int
}

// lexScope is one block of name->slot visibility within a single fnFrame.
type lexScope struct {
	parent *lexScope
	frame  *fnFrame
	names  map[string]int
}

func newFnFrame(parent *fnFrame, parentLex *lexScope) *fnFrame {
	fr := &fnFrame{parent: parent, parentLex: parentLex, captureSlot: map[string]int{}}
	fr.root = &lexScope{frame: fr, names: map[string]int{}}
	return fr
}

func (fr *fnFrame) pushScope(parent *lexScope) *lexScope {
	return &lexScope{parent: parent, frame: fr, names: map[string]int{}}
}

// declare allocates a fresh slot in fr's running counter and binds name to
// it within lex.
func (fr *fnFrame) declare(lex *lexScope, name string) int {
	slot := fr.nextSlot
	fr.nextSlot++
	lex.names[name] = slot
	return slot
}

// lookupLocal searches lex and its ancestors within the same fnFrame.
func lookupLocal(lex *lexScope, name string) (int, bool) {
	for s := lex; s != nil; s = s.parent {
		if slot, ok := s.names[name]; ok {
			return slot, true
		}
	}
	return 0, false
}

// resolveCapture finds name in an enclosing fnFrame, recursively capturing
// it through every intermediate frame, and returns the slot allocated for
// it in fr. Returns false if name isn't bound in any enclosing frame.
func resolveCapture(fr *fnFrame, name string) (int, bool) {
	if slot, ok := fr.captureSlot[name]; ok {
		return slot, true
	}
	if fr.parent == nil {
		return 0, false
	}
	outerSlot, ok := lookupLocal(fr.parentLex, name)
	if !ok {
		outerSlot, ok = resolveCapture(fr.parent, name)
		if !ok {
			return 0, false
		}
	}
	slot := fr.nextSlot
	fr.nextSlot++
	fr.captureSlot[name] = slot
	fr.captureOrder = append(fr.captureOrder, ast.LocalRef{Name: name, Slot: outerSlot})
	fr.root.names[name] = slot
	return slot, true
}
