package analyzer

import (
	"github.com/cljwlang/cljw/internal/ast"
	"github.com/cljwlang/cljw/internal/value"
)

func (a *Analyzer) analyzeSpecial(fr *fnFrame, lex *lexScope, name string, lst *value.List, tail bool) (ast.Node, error) {
	args := listArgs(lst.Rest())
	switch name {
	case "quote":
		return &ast.Quote{Val: args[0]}, nil
	case "if":
		return a.analyzeIf(fr, lex, args, tail)
	case "do":
		body, err := a.analyzeBody(fr, lex, args, tail)
		if err != nil {
			return nil, err
		}
		return &ast.Do{Body: body}, nil
	case "let", "let*":
		return a.analyzeLet(fr, lex, args, tail, false)
	case "loop", "loop*":
		return a.analyzeLet(fr, lex, args, tail, true)
	case "recur":
		return a.analyzeRecur(fr, lex, args)
	case "fn", "fn*":
		return a.analyzeFn(fr, lex, args)
	case "def":
		return a.analyzeDef(fr, lex, args, false)
	case "defmacro":
		return a.analyzeDef(fr, lex, args, true)
	case "var":
		sym := args[0].(value.Symbol)
		v, ok := a.Env.Resolve(sym)
		if !ok {
			return nil, &Error{Msg: "unable to resolve var: " + sym.String()}
		}
		return &ast.VarRef{Sym: sym, NsName: v.NsName}, nil
	case "throw":
		expr, err := a.analyzeForm(fr, lex, args[0], false)
		if err != nil {
			return nil, err
		}
		return &ast.Throw{Expr: expr}, nil
	case "try":
		return a.analyzeTry(fr, lex, args)
	case "set!":
		target, err := a.analyzeForm(fr, lex, args[0], false)
		if err != nil {
			return nil, err
		}
		val, err := a.analyzeForm(fr, lex, args[1], false)
		if err != nil {
			return nil, err
		}
		return &ast.SetBang{Target: target, Val: val}, nil
	case "defmulti":
		return a.analyzeDefMulti(fr, lex, args)
	case "defmethod":
		return a.analyzeDefMethod(fr, lex, args)
	case "defprotocol":
		return a.analyzeDefProtocol(args)
	case "extend-type":
		return a.analyzeExtendType(fr, lex, args)
	case "defrecord":
		return a.analyzeDefRecord(args)
	case "for":
		expanded := expandFor(args)
		return a.analyzeForm(fr, lex, expanded, tail)
	case "lazy-seq":
		return a.analyzeForm(fr, lex, wrapThunkCall("__lazy-seq", args), tail)
	case "delay":
		return a.analyzeForm(fr, lex, wrapThunkCall("__delay", args), tail)
	case "with-meta":
		return a.analyzeForm(fr, lex, args[0], tail)
	case "__reader-tag":
		return a.analyzeForm(fr, lex, args[1], tail)
	}
	return nil, &Error{Msg: "unimplemented special form: " + name}
}

func (a *Analyzer) analyzeIf(fr *fnFrame, lex *lexScope, args []value.Value, tail bool) (ast.Node, error) {
	test, err := a.analyzeForm(fr, lex, args[0], false)
	if err != nil {
		return nil, err
	}
	then, err := a.analyzeForm(fr, lex, args[1], tail)
	if err != nil {
		return nil, err
	}
	var elseNode ast.Node = &ast.Constant{Val: value.NilValue}
	if len(args) > 2 {
		elseNode, err = a.analyzeForm(fr, lex, args[2], tail)
		if err != nil {
			return nil, err
		}
	}
	return &ast.If{Test: test, Then: then, Else: elseNode}, nil
}

// analyzeLet handles both `let`/`let*` and `loop`/`loop*`: a binding
// vector of alternating pattern/init forms, each pattern possibly a
// destructuring form, followed by a body. isLoop additionally records the
// bound slots as a recur target.
func (a *Analyzer) analyzeLet(fr *fnFrame, lex *lexScope, args []value.Value, tail bool, isLoop bool) (ast.Node, error) {
	bindVec := args[0].(*value.Vector)
	bodyForms := args[1:]

	cur := lex
	var bindings []ast.Binding
	var loopSlots []int
	items := bindVec.Items()
	for i := 0; i+1 < len(items); i += 2 {
		pattern := items[i]
		initForm := items[i+1]
		pairs := destructure(pattern, initForm, a.gensym)
		for _, p := range pairs {
			initNode, err := a.analyzeForm(fr, cur, p.Form, false)
			if err != nil {
				return nil, err
			}
			slot := fr.declare(cur, p.Name)
			bindings = append(bindings, ast.Binding{Name: p.Name, Slot: slot, Init: initNode})
			if isLoop && pattern == items[i] {
				// only the top-level pattern names count as recur slots;
				// sub-bindings from destructuring are not directly
				// rebindable by recur.
			}
		}
		if isLoop {
			// one recur slot per top-level binding: the slot of that
			// binding's first pair, which is the symbol itself for a plain
			// symbol pattern and the temp holding the whole init value for
			// a destructuring pattern. The slots of the names a pattern
			// destructures into are not recur targets.
			for j := len(bindings) - len(pairs); j < len(bindings); j++ {
				_ = j
			}
			if len(pairs) > 0 {
				loopSlots = append(loopSlots, bindings[len(bindings)-len(pairs)].Slot)
			}
		}
	}

	if isLoop {
		fr.loopStack = append(fr.loopStack, loopTarget{slots: loopSlots})
		defer func() { fr.loopStack = fr.loopStack[:len(fr.loopStack)-1] }()
	}

	body, err := a.analyzeBody(fr, cur, bodyForms, tail)
	if err != nil {
		return nil, err
	}
	if isLoop {
		return &ast.Loop{Bindings: bindings, Body: body, Slots: loopSlots}, nil
	}
	return &ast.Let{Bindings: bindings, Body: body}, nil
}

func (a *Analyzer) analyzeRecur(fr *fnFrame, lex *lexScope, args []value.Value) (ast.Node, error) {
	if len(fr.loopStack) == 0 {
		return nil, &Error{Msg: "recur used outside of a loop or fn body"}
	}
	target := fr.loopStack[len(fr.loopStack)-1]
	if len(target.slots) != len(args) {
		return nil, &Error{Msg: "recur argument count mismatch"}
	}
	argNodes, err := a.analyzeBody(fr, lex, args, false)
	if err != nil {
		return nil, err
	}
	return &ast.Recur{Args: argNodes}, nil
}

func (a *Analyzer) analyzeDef(fr *fnFrame, lex *lexScope, args []value.Value, isMacro bool) (ast.Node, error) {
	nameSym := args[0].(value.Symbol)
	v := a.Env.Intern(a.Env.Current, nameSym.Name)
	v.IsMacro = isMacro
	if nameSym.Meta != nil {
		v.Meta = nameSym.Meta
		if dyn, ok := nameSym.Meta.Get(value.NewKeyword("", "dynamic")); ok && value.IsTruthy(dyn) {
			v.IsDynamic = true
		}
		if priv, ok := nameSym.Meta.Get(value.NewKeyword("", "private")); ok && value.IsTruthy(priv) {
			v.IsPrivate = true
		}
	}

	var initForm value.Value
	if len(args) > 1 {
		initForm = args[len(args)-1]
	}
	var initNode ast.Node
	numSlots := 0
	if initForm != nil {
		nfr := newFnFrame(fr, lex)
		n, err := a.analyzeForm(nfr, nfr.root, initForm, false)
		if err != nil {
			return nil, err
		}
		if fnNode, ok := n.(*ast.Fn); ok && fnNode.Name == "" {
			fnNode.Name = nameSym.Name
		}
		initNode = n
		numSlots = nfr.nextSlot
	}
	return &ast.Def{NsName: a.Env.Current.Name, Name: nameSym.Name, Init: initNode, NumSlots: numSlots, IsMacro: isMacro, IsDynamic: v.IsDynamic, IsPrivate: v.IsPrivate}, nil
}

// analyzeFn handles both (fn name? ([params] body)...) and the
// single-arity shorthand (fn name? [params] body...).
func (a *Analyzer) analyzeFn(fr *fnFrame, lex *lexScope, args []value.Value) (ast.Node, error) {
	name := ""
	idx := 0
	if len(args) > 0 {
		if s, ok := args[0].(value.Symbol); ok {
			name = s.Name
			idx = 1
		}
	}
	var arityForms [][]value.Value
	if _, ok := args[idx].(*value.Vector); ok {
		arityForms = [][]value.Value{args[idx:]}
	} else {
		for _, f := range args[idx:] {
			clause := f.(*value.List)
			arityForms = append(arityForms, listArgs(value.Value(clause)))
		}
	}

	fnNode := &ast.Fn{Name: name, SelfSlot: -1}
	for _, clauseArgs := range arityForms {
		params := clauseArgs[0].(*value.Vector)
		body := clauseArgs[1:]

		childFr := newFnFrame(fr, lex)
		childLex := childFr.root
		if name != "" {
			fnNode.SelfSlot = childFr.declare(childLex, name)
		}

		var paramNames []string
		var paramSlots []int
		var synth []ast.Binding
		variadic := false
		items := params.Items()
		for i := 0; i < len(items); i++ {
			if s, ok := items[i].(value.Symbol); ok && s.NS == "" && s.Name == "&" {
				variadic = true
				i++
				restName := a.destructureParamName(items[i])
				slot := childFr.declare(childLex, restName)
				paramNames = append(paramNames, restName)
				paramSlots = append(paramSlots, slot)
				bindings, err := a.destructureParamBindings(childFr, childLex, items[i], restName)
				if err != nil {
					return nil, err
				}
				synth = append(synth, bindings...)
				continue
			}
			pname := a.destructureParamName(items[i])
			slot := childFr.declare(childLex, pname)
			paramNames = append(paramNames, pname)
			paramSlots = append(paramSlots, slot)
			bindings, err := a.destructureParamBindings(childFr, childLex, items[i], pname)
			if err != nil {
				return nil, err
			}
			synth = append(synth, bindings...)
		}

		childFr.loopStack = append(childFr.loopStack, loopTarget{slots: paramSlots})
		bodyNodes, err := a.analyzeBody(childFr, childLex, body, true)
		if err != nil {
			return nil, err
		}
		if len(synth) > 0 {
			bodyNodes = []ast.Node{&ast.Let{Bindings: synth, Body: bodyNodes}}
		}
		fnNode.Arities = append(fnNode.Arities, ast.FnArity{
			ParamNames: paramNames, ParamSlots: paramSlots, Variadic: variadic, Body: bodyNodes,
			NumSlots: childFr.nextSlot, Captures: childFr.captureOrder,
		})
	}
	return fnNode, nil
}

// destructureParamName returns a plain symbol param's own name, or a fresh
// gensym'd temp name for a vector/map destructuring pattern (each pattern
// needs its own distinct temp, never a shared empty name).
func (a *Analyzer) destructureParamName(pattern value.Value) string {
	if s, ok := pattern.(value.Symbol); ok {
		return s.Name
	}
	return a.gensym("p")
}

// destructureParamBindings expands a vector/map param pattern into the
// synthetic let-bindings spec §4.3 describes, reading from the already
// in-scope temp binding tmpName (the param's own slot, which may itself
// be a plain symbol param rather than a true temp when no destructuring
// is needed, in which case this returns nothing).
func (a *Analyzer) destructureParamBindings(fr *fnFrame, lex *lexScope, pattern value.Value, tmpName string) ([]ast.Binding, error) {
	if _, ok := pattern.(value.Symbol); ok {
		return nil, nil
	}
	pairs := destructure(pattern, value.NewSymbol("", tmpName), a.gensym)
	var out []ast.Binding
	for _, p := range pairs {
		if p.Name == tmpName {
			continue
		}
	initNode, err := a.analyzeForm(fr, lex, p.Form, false)
		if err != nil {
			return nil, err
		}
		slot := fr.declare(lex, p.Name)
		out = append(out, ast.Binding{Name: p.Name, Slot: slot, Init: initNode})
	}
	return out, nil
}

// analyzeTry splits the try body's forms into the plain body, catch
// clauses, and an optional trailing finally clause (spec §7).
func (a *Analyzer) analyzeTry(fr *fnFrame, lex *lexScope, args []value.Value) (ast.Node, error) {
	var body []value.Value
	var catches []ast.CatchClause
	var finallyForms []value.Value
	for _, f := range args {
		if lst, ok := f.(*value.List); ok && !lst.IsEmpty() {
			if s, ok := lst.First().(value.Symbol); ok && s.NS == "" {
				switch s.Name {
				case "catch":
					cargs := listArgs(lst.Rest())
					className := cargs[0].(value.Symbol).Name
					bindSym := cargs[1].(value.Symbol)
					catchLex := fr.pushScope(lex)
					slot := fr.declare(catchLex, bindSym.Name)
					catchBody, err := a.analyzeBody(fr, catchLex, cargs[2:], false)
					if err != nil {
						return nil, err
					}
					catches = append(catches, ast.CatchClause{ClassName: className, BindSlot: slot, BindName: bindSym.Name, Body: catchBody})
					continue
				case "finally":
					finallyForms = listArgs(lst.Rest())
					continue
				}
			}
		}
		body = append(body, f)
	}
	bodyNodes, err := a.analyzeBody(fr, lex, body, false)
	if err != nil {
		return nil, err
	}
	finallyNodes, err := a.analyzeBody(fr, lex, finallyForms, false)
	if err != nil {
		return nil, err
	}
	return &ast.Try{Body: bodyNodes, Catches: catches, Finally: finallyNodes}, nil
}

// analyzeDefMulti handles (defmulti name docstring? attr-map? dispatch-fn);
// only the name and the trailing dispatch-fn form matter here, matching
// spec §4.9's multi_fn construction.
func (a *Analyzer) analyzeDefMulti(fr *fnFrame, lex *lexScope, args []value.Value) (ast.Node, error) {
	nameSym := args[0].(value.Symbol)
	dispatchForm := args[len(args)-1]
	a.Env.Intern(a.Env.Current, nameSym.Name)
	dispatchNode, err := a.analyzeForm(fr, lex, dispatchForm, false)
	if err != nil {
		return nil, err
	}
	return &ast.DefMulti{NsName: a.Env.Current.Name, Name: nameSym.Name, DispatchFn: dispatchNode}, nil
}

// analyzeDefMethod handles (defmethod name dispatch-val [params] body...).
func (a *Analyzer) analyzeDefMethod(fr *fnFrame, lex *lexScope, args []value.Value) (ast.Node, error) {
	nameSym := args[0].(value.Symbol)
	dispatchForm := args[1]
	fnForm := args[2:]
	dispatchNode, err := a.analyzeForm(fr, lex, dispatchForm, false)
	if err != nil {
		return nil, err
	}
	fnNode, err := a.analyzeFn(fr, lex, fnForm)
	if err != nil {
		return nil, err
	}
	return &ast.DefMethod{NsName: a.Env.Current.Name, Name: nameSym.Name, DispatchVal: dispatchNode, Fn: fnNode.(*ast.Fn)}, nil
}

// analyzeDefProtocol records the protocol's name and its methods' names
// (arity overloads of the same name collapse to one entry); the runtime
// dispatch table itself is built when the resulting ast.DefProtocol is
// evaluated, not here.
func (a *Analyzer) analyzeDefProtocol(args []value.Value) (ast.Node, error) {
	nameSym := args[0].(value.Symbol)
	seen := map[string]bool{}
	var methods []string
	for _, f := range args[1:] {
		lst, ok := f.(*value.List)
		if !ok || lst.IsEmpty() {
			continue
		}
		msym, ok := lst.First().(value.Symbol)
		if !ok {
			continue
		}
		if !seen[msym.Name] {
			seen[msym.Name] = true
			methods = append(methods, msym.Name)
		}
	}
	return &ast.DefProtocol{NsName: a.Env.Current.Name, Name: nameSym.Name, Methods: methods}, nil
}

// analyzeExtendType handles (extend-type Type Protocol (method [this ...]
// body) ...), a single protocol per form (spec's reduced extend-type,
// rather than full Clojure's multi-protocol form).
func (a *Analyzer) analyzeExtendType(fr *fnFrame, lex *lexScope, args []value.Value) (ast.Node, error) {
	typeSym := args[0].(value.Symbol)
	protoSym := args[1].(value.Symbol)
	typeKey := builtinTypeKey(typeSym.Name)
	var methods []ast.ExtendMethod
	for _, f := range args[2:] {
		lst := f.(*value.List)
		margs := listArgs(value.Value(lst))
		mname := margs[0].(value.Symbol).Name
		fnNode, err := a.analyzeFn(fr, lex, margs[1:])
		if err != nil {
			return nil, err
		}
		methods = append(methods, ast.ExtendMethod{Name: mname, Fn: fnNode.(*ast.Fn)})
	}
	return &ast.ExtendType{TypeKey: typeKey, ProtocolName: protoSym.Name, Methods: methods}, nil
}

// builtinTypeKey maps a type symbol as written in source to the dispatch
// tag rt.TypeTag produces for that kind of value at runtime; unrecognized
// names pass through unchanged (record type names match themselves).
func builtinTypeKey(name string) string {
	switch name {
	case "String":
		return "string"
	case "Long", "Integer":
		return "integer"
	case "Double", "Float":
		return "float"
	case "Boolean":
		return "boolean"
	case "Keyword":
		return "keyword"
	case "Symbol":
		return "symbol"
	case "Vector", "PersistentVector":
		return "vector"
	case "Map", "PersistentArrayMap", "PersistentHashMap":
		return "map"
	case "Set":
		return "set"
	case "List", "PersistentList":
		return "list"
	case "Cons":
		return "cons"
	case "Fn", "Function":
		return "function"
	case "Character":
		return "character"
	case "Nil":
		return "nil"
	default:
		return name
	}
}

// analyzeDefRecord expands (defrecord Name [field1 field2]) into the
// DefRecord marker node plus two constructor defs (->Name positional,
// map->Name from a field map), matching clojure.core/defrecord's own
// expansion into ordinary def forms (spec §4.4).
func (a *Analyzer) analyzeDefRecord(args []value.Value) (ast.Node, error) {
	nameSym := args[0].(value.Symbol)
	fieldVec := args[1].(*value.Vector)
	var fields []string
	for _, f := range fieldVec.Items() {
		fields = append(fields, f.(value.Symbol).Name)
	}

	marker := &ast.DefRecord{NsName: a.Env.Current.Name, Name: nameSym.Name, Fields: fields}

	posParams := make([]value.Value, len(fields))
	kvArgs := make([]value.Value, 0, len(fields)*2)
	for i, f := range fields {
		posParams[i] = sym(f)
		kvArgs = append(kvArgs, value.NewKeyword("", f), sym(f))
	}
	recordCtorCall := nsCallForm(hostNamespace, "__record-new", append([]value.Value{value.Str(nameSym.Name)}, kvArgs...)...)
	posCtorForm := callForm("fn*", value.NewVector(posParams...), recordCtorCall)
	posDef, err := a.analyzeDef(nil, nil, []value.Value{value.NewSymbol("", "->"+nameSym.Name), posCtorForm}, false)
	if err != nil {
		return nil, err
	}

	mParam := sym("m")
	mapCtorCall := nsCallForm(hostNamespace, "__record-from-map", value.Str(nameSym.Name), mParam)
	mapCtorForm := callForm("fn*", value.NewVector(mParam), mapCtorCall)
	mapDef, err := a.analyzeDef(nil, nil, []value.Value{value.NewSymbol("", "map->"+nameSym.Name), mapCtorForm}, false)
	if err != nil {
		return nil, err
	}

	return &ast.Do{Body: []ast.Node{marker, posDef, mapDef}}, nil
}
