package checker

import (
	"github.com/vaislang/vais-sub013/internal/ast"
	"github.com/vaislang/vais-sub013/internal/diagnostics"
	"github.com/vaislang/vais-sub013/internal/effects"
	"github.com/vaislang/vais-sub013/internal/symbols"
	"github.com/vaislang/vais-sub013/internal/typesystem"
)

// checkFunction runs bidirectional inference over one function body,
// pushing a fresh scope for parameters, checking the declared-vs-inferred
// effect discipline, and rewriting InferredEffects on the signature for
// downstream consumers (spec §4.2 "Effect inference").
func (c *Checker) checkFunction(fn *ast.Function) {
	if fn.Body == nil {
		return
	}

	prevFn, prevBounds, prevFx := c.currentFn, c.genericBounds, c.inferredFx
	c.currentFn = &fn.Sig
	c.genericBounds = make(map[string][]string, len(fn.Sig.GenericParams))
	for _, gp := range fn.Sig.GenericParams {
		c.genericBounds[gp.Name] = gp.Bounds
	}
	c.inferredFx = effects.Pure()
	defer func() { c.currentFn, c.genericBounds, c.inferredFx = prevFn, prevBounds, prevFx }()

	c.Table.PushScope(symbols.ScopeFunction)
	defer c.Table.PopScope()

	for _, p := range fn.Sig.Params {
		c.Table.Define(p.Name, symbols.VariableSymbol, p.Type, fn.GetToken().Span)
	}

	c.checkContract(fn.Sig.Contract)

	bodyType := c.inferBlock(fn.Body, fn.Sig.ReturnType)
	if fn.Sig.ReturnType != nil && !isUnit(fn.Sig.ReturnType) {
		if _, err := unifyOrDiag(c, bodyType, fn.Sig.ReturnType, fn.Body.GetToken()); err != nil {
			// already reported by unifyOrDiag
		}
	}

	c.reconcileEffects(fn)
}

// reconcileEffects applies spec §4.2's declared-vs-inferred rule: Pure
// rejects any non-empty inferred set; a specific declared set must be a
// superset of what was inferred; Infer writes the inferred set back.
func (c *Checker) reconcileEffects(fn *ast.Function) {
	inferred := c.inferredFx.Sorted()
	strs := make([]string, len(inferred))
	for i, k := range inferred {
		strs[i] = string(k)
	}

	switch fn.Sig.EffectAnnotation {
	case ast.EffectPure:
		if !c.inferredFx.IsPure() {
			c.Bag.Add(diagnostics.New(diagnostics.ErrEffectViolation, fn.GetToken().Span.Diag(), "",
				"function declared Pure but has inferred effects "+c.inferredFx.String()))
		}
	case ast.EffectDeclared:
		declared := effects.Of(toKinds(fn.Sig.DeclaredEffects)...)
		if !c.inferredFx.Subset(declared) {
			c.Bag.Add(diagnostics.New(diagnostics.ErrEffectViolation, fn.GetToken().Span.Diag(), "",
				"inferred effects "+c.inferredFx.String()+" exceed declared "+declared.String()))
		}
	}
	fn.Sig.InferredEffects = strs
}

func toKinds(names []string) []effects.Kind {
	out := make([]effects.Kind, len(names))
	for i, n := range names {
		out[i] = effects.Kind(n)
	}
	return out
}

func isUnit(t typesystem.Type) bool {
	p, ok := t.(typesystem.Primitive)
	return ok && p.Kind == typesystem.Unit
}

// inferBlock type-checks each statement in sequence and returns the type
// of the block's trailing expression statement (the last ExpressionStatement
// with no terminating `;` semantics are flattened away by the parser, so
// here the last statement's expression type is taken when present).
func (c *Checker) inferBlock(b *ast.BlockStatement, expected typesystem.Type) typesystem.Type {
	c.Table.PushScope(symbols.ScopeBlock)
	defer c.Table.PopScope()

	result := typesystem.Type(typesystem.TUnit)
	for i, stmt := range b.Statements {
		var want typesystem.Type
		if i == len(b.Statements)-1 {
			want = expected
		}
		result = c.checkStatement(stmt, want)
	}
	return result
}

func (c *Checker) checkStatement(stmt ast.Statement, expected typesystem.Type) typesystem.Type {
	switch s := stmt.(type) {
	case *ast.ExpressionStatement:
		return c.inferExpr(s.Expression, expected)
	case *ast.LetStatement:
		var t typesystem.Type
		if s.TypeAnnotation != nil {
			t = c.inferExpr(s.Value, s.TypeAnnotation)
			unifyOrDiag(c, t, s.TypeAnnotation, s.GetToken())
			t = s.TypeAnnotation
		} else {
			t = c.inferExpr(s.Value, nil)
		}
		if s.Name != "" {
			c.Table.Define(s.Name, symbols.VariableSymbol, t, s.GetToken().Span)
		} else if s.Pattern != nil {
			c.bindPattern(s.Pattern, t)
		}
		return typesystem.TUnit
	case *ast.AssignStatement:
		targetT := c.inferExpr(s.Target, nil)
		valT := c.inferExpr(s.Value, targetT)
		unifyOrDiag(c, valT, targetT, s.GetToken())
		return typesystem.TUnit
	case *ast.ReturnStatement:
		if s.Value != nil {
			var want typesystem.Type
			if c.currentFn != nil {
				want = c.currentFn.ReturnType
			}
			c.inferExpr(s.Value, want)
		}
		return typesystem.TUnit
	case *ast.WhileStatement:
		c.inferExpr(s.Condition, typesystem.TBool)
		c.inferBlock(s.Body, typesystem.TUnit)
		return typesystem.TUnit
	case *ast.LoopStatement:
		c.inferBlock(s.Body, typesystem.TUnit)
		return typesystem.TUnit
	case *ast.ForStatement:
		c.Table.PushScope(symbols.ScopeBlock)
		c.inferExpr(s.Iterable, nil)
		c.Table.Define(s.Binder, symbols.VariableSymbol, typesystem.TI64, s.GetToken().Span)
		c.inferBlock(s.Body, typesystem.TUnit)
		c.Table.PopScope()
		return typesystem.TUnit
	case *ast.BreakStatement, *ast.ContinueStatement:
		return typesystem.TUnit
	case *ast.BlockStatement:
		return c.inferBlock(s, expected)
	default:
		return typesystem.TUnit
	}
}

// inferExpr is the bidirectional core: expected may be nil (pure
// synthesis) or a concrete type the caller wants this expression to
// unify with (spec §4.2 "statements/blocks propagate an expected type
// downward; expression leaves produce upward types").
func (c *Checker) inferExpr(expr ast.Expression, expected typesystem.Type) typesystem.Type {
	switch e := expr.(type) {
	case *ast.IntLiteral:
		if e.Pinned != nil {
			return e.Pinned
		}
		if expected != nil {
			if p, ok := expected.(typesystem.Primitive); ok && (p.Kind.IsIntegral() || p.Kind.IsFloat()) {
				return expected
			}
		}
		return typesystem.TI64 // defaulted; spec §4.2 "without a pinned type default to i64"
	case *ast.FloatLiteral:
		if e.Pinned != nil {
			return e.Pinned
		}
		if expected != nil {
			if p, ok := expected.(typesystem.Primitive); ok && p.Kind.IsFloat() {
				return expected
			}
		}
		return typesystem.TF64
	case *ast.BoolLiteral:
		return typesystem.TBool
	case *ast.StringLiteral:
		for _, part := range e.Parts {
			c.inferExpr(part, nil)
		}
		return typesystem.TStr
	case *ast.CharLiteral:
		return typesystem.TChar
	case *ast.UnitLiteral:
		return typesystem.TUnit

	case *ast.Identifier:
		if sym, ok := c.Table.Resolve(e.Name); ok {
			return sym.Type
		}
		suggestions := c.Table.Suggest(e.Name)
		msg := "undefined variable " + e.Name
		d := diagnostics.New(diagnostics.ErrUndefinedVar, e.GetToken().Span.Diag(), "", msg)
		if len(suggestions) > 0 {
			d = d.WithHelp("did you mean one of: " + joinStrings(suggestions))
		}
		c.Bag.Add(d)
		return typesystem.TUnit

	case *ast.BinaryExpression:
		return c.inferBinary(e)

	case *ast.UnaryExpression:
		operandExpected := expected
		if e.Op == ast.OpNot {
			operandExpected = typesystem.TBool
		}
		t := c.inferExpr(e.Operand, operandExpected)
		if e.Op == ast.OpBNot && !isIntegral(t) {
			c.Bag.Add(diagnostics.New(diagnostics.ErrInvalidOperand, e.GetToken().Span.Diag(), "", "bitwise not requires an integral operand"))
		}
		return t

	case *ast.RangeExpression:
		c.inferExpr(e.Start, typesystem.TI64)
		c.inferExpr(e.End, typesystem.TI64)
		return typesystem.Named{Name: "Range"}

	case *ast.IfExpression:
		c.inferExpr(e.Condition, typesystem.TBool)
		thenT := c.inferBlock(e.Then, expected)
		if e.Else == nil {
			return typesystem.TUnit
		}
		var elseT typesystem.Type
		switch el := e.Else.(type) {
		case *ast.BlockStatement:
			elseT = c.inferBlock(el, expected)
		case *ast.IfExpression:
			elseT = c.inferExpr(el, expected)
		}
		unifyOrDiag(c, thenT, elseT, e.GetToken())
		return thenT

	case *ast.CallExpression:
		return c.inferCall(e)

	case *ast.FieldAccessExpression:
		recvT := c.inferExpr(e.Receiver, nil)
		if named, ok := recvT.(typesystem.Named); ok {
			if fieldT, ok := c.lookupFieldType(named, e.Field); ok {
				return fieldT
			}
		}
		return typesystem.TUnit

	case *ast.MethodCallExpression:
		return c.inferMethodCall(e)

	case *ast.IndexExpression:
		recvT := c.inferExpr(e.Receiver, nil)
		c.inferExpr(e.Index, typesystem.TI64)
		return elementType(recvT)

	case *ast.TupleExpression:
		elems := make([]typesystem.Type, len(e.Elems))
		for i, el := range e.Elems {
			elems[i] = c.inferExpr(el, nil)
		}
		return typesystem.Tuple{Elems: elems}

	case *ast.ArrayExpression:
		var elemT typesystem.Type = typesystem.TUnit
		for i, el := range e.Elems {
			t := c.inferExpr(el, nil)
			if i == 0 {
				elemT = t
			}
		}
		return typesystem.Array{Elem: elemT}

	case *ast.StructLiteralExpression:
		for _, f := range e.Fields {
			c.inferExpr(f.Value, nil)
		}
		return typesystem.Named{Name: e.TypeName}

	case *ast.EnumLiteralExpression:
		for _, a := range e.TupleArgs {
			c.inferExpr(a, nil)
		}
		for _, f := range e.StructArgs {
			c.inferExpr(f.Value, nil)
		}
		return typesystem.Named{Name: e.EnumName}

	case *ast.MatchExpression:
		return c.checkMatch(e, expected)

	case *ast.ClosureExpression:
		c.Table.PushScope(symbols.ScopeBlock)
		for _, p := range e.Params {
			c.Table.Define(p.Name, symbols.VariableSymbol, p.Type, e.GetToken().Span)
		}
		bodyT := c.inferExpr(e.Body, nil)
		c.Table.PopScope()
		params := make([]typesystem.Type, len(e.Params))
		for i, p := range e.Params {
			params[i] = p.Type
		}
		return typesystem.Fn{Params: params, Ret: bodyT}

	case *ast.AwaitExpression:
		c.inferredFx = c.inferredFx.Add(effects.Async)
		t := c.inferExpr(e.Target, nil)
		if fut, ok := t.(typesystem.Future); ok {
			return fut.Elem
		}
		return t

	case *ast.SpawnExpression:
		c.inferredFx = c.inferredFx.Add(effects.Async)
		inner := c.inferExpr(e.Target, nil)
		return typesystem.Future{Elem: inner}

	case *ast.YieldExpression:
		if e.Value != nil {
			c.inferExpr(e.Value, nil)
		}
		return typesystem.TUnit

	case *ast.TryExpression:
		t := c.inferExpr(e.Target, nil)
		switch r := t.(type) {
		case typesystem.Result:
			return r.Ok
		case typesystem.Future:
			return r.Elem
		}
		return t

	default:
		return typesystem.TUnit
	}
}

func (c *Checker) inferBinary(e *ast.BinaryExpression) typesystem.Type {
	lt := c.inferExpr(e.Left, nil)
	rt := c.inferExpr(e.Right, lt)
	switch e.Op {
	case ast.OpEq, ast.OpNe, ast.OpLt, ast.OpLe, ast.OpGt, ast.OpGe, ast.OpAnd, ast.OpOr:
		return typesystem.TBool
	default:
		if _, err := unifyOrDiag(c, lt, rt, e.GetToken()); err != nil {
			return typesystem.TUnit
		}
		return lt
	}
}

func (c *Checker) inferCall(e *ast.CallExpression) typesystem.Type {
	var sig *ast.FunctionSig
	if id, ok := e.Callee.(*ast.Identifier); ok {
		sig, _ = c.Table.LookupFunction(id.Name)
	}
	argTypes := make([]typesystem.Type, len(e.Args))
	for i, a := range e.Args {
		var want typesystem.Type
		if sig != nil && i < len(sig.Params) {
			want = sig.Params[i].Type
		}
		argTypes[i] = c.inferExpr(a, want)
	}
	if sig == nil {
		c.inferExpr(e.Callee, nil)
		return typesystem.TUnit
	}
	if len(e.Args) < sig.RequiredParams || (!sig.IsVararg && len(e.Args) > len(sig.Params)) {
		c.Bag.Add(diagnostics.New(diagnostics.ErrArityMismatch, e.GetToken().Span.Diag(), "",
			"wrong number of arguments to "+sig.Name))
	}

	c.inferredFx = c.inferredFx.Union(effects.Of(toKinds(sig.InferredEffects)...))
	c.inferredFx = c.inferredFx.Union(effects.Of(toKinds(sig.DeclaredEffects)...))

	if len(sig.GenericParams) > 0 {
		c.trackMonomorphization(sig, argTypes)
	}
	return sig.ReturnType
}

func (c *Checker) inferMethodCall(e *ast.MethodCallExpression) typesystem.Type {
	var typeName string
	if e.Receiver != nil {
		recvT := c.inferExpr(e.Receiver, nil)
		if named, ok := recvT.(typesystem.Named); ok {
			typeName = named.Name
		}
	} else {
		typeName = e.StaticType
	}
	for _, a := range e.Args {
		c.inferExpr(a, nil)
	}
	if sig, ok := c.Table.LookupMethod(typeName, e.Method); ok {
		return sig.ReturnType
	}
	c.Bag.Add(diagnostics.New(diagnostics.ErrMissingTraitImpl, e.GetToken().Span.Diag(), "",
		"no method "+e.Method+" on "+typeName))
	return typesystem.TUnit
}

func (c *Checker) lookupFieldType(named typesystem.Named, field string) (typesystem.Type, bool) {
	st, ok := c.Table.LookupStruct(named.Name)
	if !ok {
		return nil, false
	}
	for _, f := range st.Fields {
		if f.Name == field {
			return f.Type, true
		}
	}
	return nil, false
}

func elementType(t typesystem.Type) typesystem.Type {
	switch v := t.(type) {
	case typesystem.Array:
		return v.Elem
	case typesystem.Slice:
		return v.Elem
	case typesystem.SliceMut:
		return v.Elem
	case typesystem.ConstArray:
		return v.Elem
	default:
		return typesystem.TUnit
	}
}

func isIntegral(t typesystem.Type) bool {
	p, ok := t.(typesystem.Primitive)
	return ok && p.Kind.IsIntegral()
}

func joinStrings(ss []string) string {
	out := ""
	for i, s := range ss {
		if i > 0 {
			out += ", "
		}
		out += s
	}
	return out
}

// unifyOrDiag wraps typesystem.Unify, reporting an ErrMismatch diagnostic
// through the bag on failure rather than propagating a Go error up
// through the inference recursion.
func unifyOrDiag(c *Checker, t1, t2 typesystem.Type, tok ast.Token) (typesystem.Subst, error) {
	if t1 == nil || t2 == nil {
		return typesystem.Subst{}, nil
	}
	bounds := c.genericBounds
	s, err := typesystem.Unify(t1, t2, bounds, nil)
	if err != nil {
		c.Bag.Add(diagnostics.New(diagnostics.ErrMismatch, tok.Span.Diag(), "", err.Error()))
		return nil, err
	}
	return s, nil
}

func (c *Checker) bindPattern(p ast.Pattern, t typesystem.Type) {
	switch pt := p.(type) {
	case *ast.BindingPattern:
		c.Table.Define(pt.Name, symbols.VariableSymbol, t, pt.GetToken().Span)
	case *ast.TuplePattern:
		tup, ok := t.(typesystem.Tuple)
		if !ok {
			return
		}
		for i, elemPat := range pt.Elems {
			if i < len(tup.Elems) {
				c.bindPattern(elemPat, tup.Elems[i])
			}
		}
	case *ast.AliasPattern:
		c.Table.Define(pt.Name, symbols.VariableSymbol, t, pt.GetToken().Span)
		c.bindPattern(pt.Nested, t)
	case *ast.StructPattern:
		for _, fieldPat := range pt.Fields {
			c.bindPattern(fieldPat, typesystem.TUnit)
		}
	case *ast.EnumVariantPattern:
		for _, elemPat := range pt.TupleElems {
			c.bindPattern(elemPat, typesystem.TUnit)
		}
		for _, fieldPat := range pt.StructFields {
			c.bindPattern(fieldPat, typesystem.TUnit)
		}
	}
}

// checkContract resolves identifiers referenced in requires/ensures
// clauses against the current scope without evaluating them (spec §4.2
// "Contracts"): only syntactic validity and reference-resolution are
// checked here, not semantic correctness of the clause itself.
func (c *Checker) checkContract(ct *ast.Contract) {
	if ct == nil {
		return
	}
	for _, clause := range ct.Requires {
		c.checkContractClause(clause)
	}
	for _, clause := range ct.Ensures {
		c.checkContractClause(clause)
	}
}

func (c *Checker) checkContractClause(clause ast.ContractClause) {
	for _, name := range identifiersIn(clause.Text) {
		if name == "result" {
			continue // ensures-only implicit binding for the return value
		}
		if _, ok := c.Table.Resolve(name); !ok {
			c.Bag.Add(diagnostics.New(diagnostics.ErrContractReferencesUnknown, clause.Span.Diag(), "",
				"contract references undefined identifier "+name))
		}
	}
}

// identifiersIn extracts bare identifier tokens from a contract clause's
// raw text; full expression parsing of contract bodies is out of scope
// (spec §4.2 "parsed but not semantically checked beyond syntactic
// validity and reference-resolution").
func identifiersIn(text string) []string {
	var out []string
	start := -1
	isIdentRune := func(r byte) bool {
		return r == '_' || (r >= 'a' && r <= 'z') || (r >= 'A' && r <= 'Z') || (r >= '0' && r <= '9')
	}
	for i := 0; i <= len(text); i++ {
		var r byte
		if i < len(text) {
			r = text[i]
		}
		if i < len(text) && isIdentRune(r) && !(start == -1 && r >= '0' && r <= '9') {
			if start == -1 {
				start = i
			}
		} else {
			if start != -1 {
				out = append(out, text[start:i])
				start = -1
			}
		}
	}
	return out
}
