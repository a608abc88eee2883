package codegen

import (
	"fmt"
	"math"
	"strings"

	"github.com/vaislang/vais-sub013/internal/ast"
	"github.com/vaislang/vais-sub013/internal/typesystem"
)

// lowerBlock emits every statement of b in order, returning the final
// expression-statement's SSA value (if the block's last statement is an
// expression) and whether the block ended in a terminator (a return,
// break or continue statement, or a nested block ending in one). An
// if/match expression whose arms all terminate is not reported as a
// terminator here.
func (g *Generator) lowerBlock(b *ast.BlockStatement, locals map[string]bool) (string, string, bool) {
	var lastVal, lastTy string
	for i, stmt := range b.Statements {
		isLast := i == len(b.Statements)-1
		val, ty, term := g.lowerStatement(stmt, locals)
		if term {
			return val, ty, true
		}
		if isLast {
			lastVal, lastTy = val, ty
		}
	}
	return lastVal, lastTy, false
}

func (g *Generator) lowerStatement(stmt ast.Statement, locals map[string]bool) (string, string, bool) {
	switch s := stmt.(type) {
	case *ast.ExpressionStatement:
		val, ty := g.lowerExpr(s.Expression, locals)
		return val, ty, false
	case *ast.LetStatement:
		val, ty := g.lowerExpr(s.Value, locals)
		slot := fmt.Sprintf("%%%s.addr", s.Name)
		fmt.Fprintf(g.out, "  %s = alloca %s\n", slot, ty)
		fmt.Fprintf(g.out, "  store %s %s, %s* %s\n", ty, val, ty, slot)
		locals[s.Name] = true
		g.localTypes(s.Name, ty)
		return "", "", false
	case *ast.AssignStatement:
		val, ty := g.lowerExpr(s.Value, locals)
		if id, ok := s.Target.(*ast.Identifier); ok {
			fmt.Fprintf(g.out, "  store %s %s, %s* %%%s.addr\n", ty, val, ty, id.Name)
		}
		return "", "", false
	case *ast.ReturnStatement:
		if s.Value == nil {
			fmt.Fprintf(g.out, "  ret void\n")
			return "", "", true
		}
		val, ty := g.lowerExpr(s.Value, locals)
		fmt.Fprintf(g.out, "  ret %s %s\n", ty, val)
		return val, ty, true
	case *ast.WhileStatement:
		g.lowerWhile(s, locals)
		return "", "", false
	case *ast.LoopStatement:
		g.lowerLoop(s, locals)
		return "", "", false
	case *ast.ForStatement:
		g.lowerFor(s, locals)
		return "", "", false
	case *ast.BreakStatement:
		if len(g.loopStack) > 0 {
			fmt.Fprintf(g.out, "  br label %%%s\n", g.loopStack[len(g.loopStack)-1].breakLabel)
		}
		return "", "", true
	case *ast.ContinueStatement:
		if len(g.loopStack) > 0 {
			fmt.Fprintf(g.out, "  br label %%%s\n", g.loopStack[len(g.loopStack)-1].continueLabel)
		}
		return "", "", true
	case *ast.BlockStatement:
		return g.lowerBlock(s, locals)
	default:
		g.fail(unsupported(g.currentItem, "statement %T", stmt))
		return "", "", false
	}
}

// localTypes records a local's lowered type so later Identifier lookups
// know how to load it; kept on the Generator since BlockStatement
// lowering doesn't thread a separate symbol table of its own.
func (g *Generator) localTypes(name, ty string) {
	if g.locals == nil {
		g.locals = make(map[string]string)
	}
	g.locals[name] = ty
}

func (g *Generator) lowerExpr(expr ast.Expression, locals map[string]bool) (string, string) {
	switch e := expr.(type) {
	case *ast.IntLiteral:
		ty := "i64"
		if e.Pinned != nil {
			ty = g.LowerType(e.Pinned)
		}
		return e.Value.Text(10), ty
	case *ast.FloatLiteral:
		ty := "double"
		if e.Pinned != nil {
			ty = g.LowerType(e.Pinned)
		}
		return hexFloat(e.Value), ty
	case *ast.BoolLiteral:
		if e.Value {
			return "1", "i1"
		}
		return "0", "i1"
	case *ast.CharLiteral:
		return fmt.Sprintf("%d", e.Value), "i32"
	case *ast.UnitLiteral:
		return "", "void"
	case *ast.StringLiteral:
		return g.lowerString(e, locals)
	case *ast.Identifier:
		return g.lowerIdentifier(e)
	case *ast.BinaryExpression:
		return g.lowerBinary(e, locals)
	case *ast.UnaryExpression:
		return g.lowerUnary(e, locals)
	case *ast.RangeExpression:
		return g.lowerRange(e, locals)
	case *ast.IfExpression:
		return g.lowerIf(e, locals)
	case *ast.CallExpression:
		return g.lowerCall(e, locals)
	case *ast.FieldAccessExpression:
		return g.lowerFieldAccess(e, locals)
	case *ast.MethodCallExpression:
		return g.lowerMethodCall(e, locals)
	case *ast.IndexExpression:
		return g.lowerIndex(e, locals)
	case *ast.TupleExpression:
		return g.lowerTuple(e, locals)
	case *ast.ArrayExpression:
		return g.lowerArray(e, locals)
	case *ast.StructLiteralExpression:
		return g.lowerStructLiteral(e, locals)
	case *ast.EnumLiteralExpression:
		return g.lowerEnumLiteral(e, locals)
	case *ast.MatchExpression:
		return g.lowerMatch(e, locals)
	case *ast.ClosureExpression:
		return g.lowerClosure(e, locals)
	case *ast.AwaitExpression:
		return g.lowerAwait(e, locals)
	case *ast.SpawnExpression:
		return g.lowerSpawn(e, locals)
	case *ast.YieldExpression:
		return g.lowerYield(e, locals)
	case *ast.TryExpression:
		return g.lowerTry(e, locals)
	case *ast.BlockStatement:
		val, ty, _ := g.lowerBlock(e, locals)
		return val, ty
	default:
		g.fail(unsupported(g.currentItem, "expression %T", expr))
		return "undef", "i64"
	}
}

// hexFloat renders a double literal in LLVM IR's canonical hex form
// (spec §4.3.3 float literals).
func hexFloat(v float64) string {
	return fmt.Sprintf("0x%016X", math.Float64bits(v))
}

func (g *Generator) lowerString(e *ast.StringLiteral, locals map[string]bool) (string, string) {
	if len(e.Parts) == 0 {
		name := g.internString(e.Value)
		ptr := g.newSSA("strptr")
		n := len(e.Value) + 1
		fmt.Fprintf(g.out, "  %s = getelementptr [%d x i8], [%d x i8]* @%s, i32 0, i32 0\n", ptr, n, n, name)
		return ptr, "i8*"
	}
	// Interpolated string: concatenate each part via the runtime helper
	// __vais_str_concat (declared by the driver's runtime support
	// object); codegen only emits the call chain.
	var acc string
	for i, part := range e.Parts {
		val, ty := g.lowerExpr(part, locals)
		str := val
		if ty != "i8*" {
			tmp := g.newSSA("sconv")
			fmt.Fprintf(g.out, "  %s = call i8* @__vais_to_str(%s %s)\n", tmp, ty, val)
			str = tmp
		}
		if i == 0 {
			acc = str
			continue
		}
		next := g.newSSA("sconcat")
		fmt.Fprintf(g.out, "  %s = call i8* @__vais_str_concat(i8* %s, i8* %s)\n", next, acc, str)
		acc = next
	}
	return acc, "i8*"
}

// internString registers a string literal as a private global constant
// and returns its symbol name, deduplicating on exact text so repeated
// literals share one backing global.
func (g *Generator) internString(v string) string {
	if name, ok := g.stringConsts[v]; ok {
		return name
	}
	if g.stringConsts == nil {
		g.stringConsts = make(map[string]string)
	}
	g.strCounter++
	name := fmt.Sprintf("str.%d", g.strCounter)
	g.stringConsts[v] = name
	n := len(v) + 1
	g.globals = append(g.globals, fmt.Sprintf("@%s = private unnamed_addr constant [%d x i8] c\"%s\\00\"", name, n, escapeIR(v)))
	return name
}

func escapeIR(v string) string {
	var b strings.Builder
	for _, r := range []byte(v) {
		switch r {
		case '"', '\\':
			fmt.Fprintf(&b, "\\%02X", r)
		default:
			if r < 0x20 || r >= 0x7f {
				fmt.Fprintf(&b, "\\%02X", r)
			} else {
				b.WriteByte(r)
			}
		}
	}
	return b.String()
}

func (g *Generator) lowerIdentifier(e *ast.Identifier) (string, string) {
	ty, ok := g.locals[e.Name]
	if !ok {
		// Global function reference used as a value, or an
		// as-yet-untyped local (defaults to i64 per spec §4.2).
		return "@" + e.Name, "i64"
	}
	val := g.newSSA("ld")
	fmt.Fprintf(g.out, "  %s = load %s, %s* %%%s.addr\n", val, ty, ty, e.Name)
	return val, ty
}

var binaryOp = map[ast.BinaryOp]string{
	ast.OpAdd: "add", ast.OpSub: "sub", ast.OpMul: "mul", ast.OpDiv: "sdiv", ast.OpMod: "srem",
	ast.OpBAnd: "and", ast.OpBOr: "or", ast.OpBXor: "xor", ast.OpShl: "shl", ast.OpShr: "ashr",
}

var cmpOp = map[ast.BinaryOp]string{
	ast.OpEq: "eq", ast.OpNe: "ne", ast.OpLt: "slt", ast.OpLe: "sle", ast.OpGt: "sgt", ast.OpGe: "sge",
}

func (g *Generator) lowerBinary(e *ast.BinaryExpression, locals map[string]bool) (string, string) {
	if e.Op == ast.OpAnd || e.Op == ast.OpOr {
		return g.lowerShortCircuit(e, locals)
	}
	lv, lty := g.lowerExpr(e.Left, locals)
	rv, _ := g.lowerExpr(e.Right, locals)
	if op, ok := binaryOp[e.Op]; ok {
		res := g.newSSA("t")
		instr := op
		if lty == "double" || lty == "float" {
			instr = floatOp(op)
		}
		fmt.Fprintf(g.out, "  %s = %s %s %s, %s\n", res, instr, lty, lv, rv)
		return res, lty
	}
	if op, ok := cmpOp[e.Op]; ok {
		res := g.newSSA("cmp")
		pred := "icmp " + op
		if lty == "double" || lty == "float" {
			pred = "fcmp " + floatPred(op)
		}
		fmt.Fprintf(g.out, "  %s = %s %s %s, %s\n", res, pred, lty, lv, rv)
		return res, "i1"
	}
	g.fail(unsupported(g.currentItem, "binary operator %s", e.Op))
	return "undef", lty
}

func floatOp(op string) string {
	switch op {
	case "add":
		return "fadd"
	case "sub":
		return "fsub"
	case "mul":
		return "fmul"
	case "sdiv":
		return "fdiv"
	default:
		return op
	}
}

func floatPred(op string) string {
	switch op {
	case "slt":
		return "olt"
	case "sle":
		return "ole"
	case "sgt":
		return "ogt"
	case "sge":
		return "oge"
	default:
		return "o" + op
	}
}

// lowerShortCircuit lowers && / || to a branch-based short circuit
// rather than an eager `and`/`or`, matching the bool-widened-to-i64
// reduction rule of spec §4.3.3 for the condition itself while keeping
// the result as i1.
func (g *Generator) lowerShortCircuit(e *ast.BinaryExpression, locals map[string]bool) (string, string) {
	lv, lty := g.lowerExpr(e.Left, locals)
	lv = g.toBool(lv, lty)
	rhsLabel := g.newLabel("sc.rhs")
	endLabel := g.newLabel("sc.end")
	shortVal := "0"
	if e.Op == ast.OpOr {
		shortVal = "1"
	}
	startLabel := g.newLabel("sc.start")
	fmt.Fprintf(g.out, "  br label %%%s\n%s:\n", startLabel, startLabel)
	if e.Op == ast.OpAnd {
		fmt.Fprintf(g.out, "  br i1 %s, label %%%s, label %%%s\n", lv, rhsLabel, endLabel)
	} else {
		fmt.Fprintf(g.out, "  br i1 %s, label %%%s, label %%%s\n", lv, endLabel, rhsLabel)
	}
	fmt.Fprintf(g.out, "%s:\n", rhsLabel)
	rv, rty := g.lowerExpr(e.Right, locals)
	rv = g.toBool(rv, rty)
	fmt.Fprintf(g.out, "  br label %%%s\n", endLabel)
	fmt.Fprintf(g.out, "%s:\n", endLabel)
	res := g.newSSA("sc")
	fmt.Fprintf(g.out, "  %s = phi i1 [%s, %%%s], [%s, %%%s]\n", res, shortVal, startLabel, rv, rhsLabel)
	return res, "i1"
}

func (g *Generator) lowerUnary(e *ast.UnaryExpression, locals map[string]bool) (string, string) {
	v, ty := g.lowerExpr(e.Operand, locals)
	res := g.newSSA("u")
	switch e.Op {
	case ast.OpNeg:
		if ty == "double" || ty == "float" {
			fmt.Fprintf(g.out, "  %s = fneg %s %s\n", res, ty, v)
		} else {
			fmt.Fprintf(g.out, "  %s = sub %s 0, %s\n", res, ty, v)
		}
	case ast.OpNot:
		fmt.Fprintf(g.out, "  %s = xor i1 %s, 1\n", res, v)
	case ast.OpBNot:
		fmt.Fprintf(g.out, "  %s = xor %s %s, -1\n", res, ty, v)
	default:
		g.fail(unsupported(g.currentItem, "unary operator %s", e.Op))
	}
	return res, ty
}

// lowerRange lowers `a..b` / `a..=b` to the {i64,i64,i1} aggregate of
// spec §4.3.3.
func (g *Generator) lowerRange(e *ast.RangeExpression, locals map[string]bool) (string, string) {
	sv, _ := g.lowerExpr(e.Start, locals)
	ev, _ := g.lowerExpr(e.End, locals)
	incl := "0"
	if e.Inclusive {
		incl = "1"
	}
	agg1 := g.newSSA("rng")
	fmt.Fprintf(g.out, "  %s = insertvalue {i64, i64, i1} undef, i64 %s, 0\n", agg1, sv)
	agg2 := g.newSSA("rng")
	fmt.Fprintf(g.out, "  %s = insertvalue {i64, i64, i1} %s, i64 %s, 1\n", agg2, agg1, ev)
	agg3 := g.newSSA("rng")
	fmt.Fprintf(g.out, "  %s = insertvalue {i64, i64, i1} %s, i1 %s, 2\n", agg3, agg2, incl)
	return agg3, "{i64, i64, i1}"
}

// toBool reduces a general i64-widened boolean to i1 via `icmp ne i64
// %v, 0` (spec §4.3.3), leaving an already-i1 value untouched.
func (g *Generator) toBool(v, ty string) string {
	if ty == "i1" {
		return v
	}
	res := g.newSSA("b")
	fmt.Fprintf(g.out, "  %s = icmp ne %s %s, 0\n", res, ty, v)
	return res
}

// lowerIf lowers if/ternary to CFG + phi (spec §4.3.3). When both arms
// terminate, no merge block or phi is emitted and the returned SSA name
// is a dummy that is never read.
func (g *Generator) lowerIf(e *ast.IfExpression, locals map[string]bool) (string, string) {
	cv, cty := g.lowerExpr(e.Condition, locals)
	cv = g.toBool(cv, cty)

	thenLabel := g.newLabel("if.then")
	elseLabel := g.newLabel("if.else")
	endLabel := g.newLabel("if.end")
	fmt.Fprintf(g.out, "  br i1 %s, label %%%s, label %%%s\n", cv, thenLabel, elseLabel)

	fmt.Fprintf(g.out, "%s:\n", thenLabel)
	thenVal, thenTy, thenTerm := g.lowerBlock(e.Then, locals)
	thenEnd := g.currentBlockLabel(thenLabel)
	if !thenTerm {
		fmt.Fprintf(g.out, "  br label %%%s\n", endLabel)
	}

	fmt.Fprintf(g.out, "%s:\n", elseLabel)
	var elseVal, elseTy string
	elseTerm := true
	elseEnd := elseLabel
	switch v := e.Else.(type) {
	case *ast.BlockStatement:
		elseVal, elseTy, elseTerm = g.lowerBlock(v, locals)
	case *ast.IfExpression:
		elseVal, elseTy = g.lowerIf(v, locals)
		elseTerm = false
	case nil:
		elseTerm = false
	}
	if !elseTerm {
		fmt.Fprintf(g.out, "  br label %%%s\n", endLabel)
	}

	if thenTerm && elseTerm {
		// spec §4.3.3: no merge block, dummy unreachable result.
		return "undef", thenTy
	}

	fmt.Fprintf(g.out, "%s:\n", endLabel)
	resTy := thenTy
	if resTy == "" {
		resTy = elseTy
	}
	if resTy == "" || resTy == "void" {
		return "", resTy
	}
	res := g.newSSA("if")
	var incoming []string
	if !thenTerm {
		incoming = append(incoming, fmt.Sprintf("[%s, %%%s]", orUndef(thenVal, resTy), thenEnd))
	}
	if !elseTerm {
		incoming = append(incoming, fmt.Sprintf("[%s, %%%s]", orUndef(elseVal, resTy), elseEnd))
	}
	fmt.Fprintf(g.out, "  %s = phi %s %s\n", res, resTy, strings.Join(incoming, ", "))
	return res, resTy
}

func orUndef(v, ty string) string {
	if v == "" {
		return "undef"
	}
	return v
}

// currentBlockLabel is a placeholder for tracking which label a value
// flows from into a phi when the block lowered additional nested
// branches of its own; this generator does not merge sibling blocks so
// the entry label is always the correct predecessor.
func (g *Generator) currentBlockLabel(entry string) string { return entry }

func (g *Generator) lowerWhile(s *ast.WhileStatement, locals map[string]bool) {
	condLabel := g.newLabel("while.cond")
	bodyLabel := g.newLabel("while.body")
	endLabel := g.newLabel("while.end")
	fmt.Fprintf(g.out, "  br label %%%s\n%s:\n", condLabel, condLabel)
	cv, cty := g.lowerExpr(s.Condition, locals)
	cv = g.toBool(cv, cty)
	fmt.Fprintf(g.out, "  br i1 %s, label %%%s, label %%%s\n", cv, bodyLabel, endLabel)
	fmt.Fprintf(g.out, "%s:\n", bodyLabel)
	g.loopStack = append(g.loopStack, loopLabels{continueLabel: condLabel, breakLabel: endLabel})
	_, _, term := g.lowerBlock(s.Body, locals)
	g.loopStack = g.loopStack[:len(g.loopStack)-1]
	if !term {
		fmt.Fprintf(g.out, "  br label %%%s\n", condLabel)
	}
	fmt.Fprintf(g.out, "%s:\n", endLabel)
}

func (g *Generator) lowerLoop(s *ast.LoopStatement, locals map[string]bool) {
	bodyLabel := g.newLabel("loop.body")
	endLabel := g.newLabel("loop.end")
	fmt.Fprintf(g.out, "  br label %%%s\n%s:\n", bodyLabel, bodyLabel)
	g.loopStack = append(g.loopStack, loopLabels{continueLabel: bodyLabel, breakLabel: endLabel})
	_, _, term := g.lowerBlock(s.Body, locals)
	g.loopStack = g.loopStack[:len(g.loopStack)-1]
	if !term {
		fmt.Fprintf(g.out, "  br label %%%s\n", bodyLabel)
	}
	fmt.Fprintf(g.out, "%s:\n", endLabel)
}

// lowerFor desugars to a range-indexed while loop over {i64,i64,i1}
// (spec §4.3.3 "Range").
func (g *Generator) lowerFor(s *ast.ForStatement, locals map[string]bool) {
	rv, _ := g.lowerExpr(s.Iterable, locals)
	startV := g.newSSA("for.start")
	fmt.Fprintf(g.out, "  %s = extractvalue {i64, i64, i1} %s, 0\n", startV, rv)
	endV := g.newSSA("for.end")
	fmt.Fprintf(g.out, "  %s = extractvalue {i64, i64, i1} %s, 1\n", endV, rv)

	idxSlot := fmt.Sprintf("%%%s.addr", s.Binder)
	fmt.Fprintf(g.out, "  %s = alloca i64\n", idxSlot)
	fmt.Fprintf(g.out, "  store i64 %s, i64* %s\n", startV, idxSlot)
	locals[s.Binder] = true
	g.localTypes(s.Binder, "i64")

	condLabel := g.newLabel("for.cond")
	bodyLabel := g.newLabel("for.body")
	stepLabel := g.newLabel("for.step")
	endLabel := g.newLabel("for.end")
	fmt.Fprintf(g.out, "  br label %%%s\n%s:\n", condLabel, condLabel)
	cur := g.newSSA("for.cur")
	fmt.Fprintf(g.out, "  %s = load i64, i64* %s\n", cur, idxSlot)
	cmp := g.newSSA("for.cmp")
	fmt.Fprintf(g.out, "  %s = icmp slt i64 %s, %s\n", cmp, cur, endV)
	fmt.Fprintf(g.out, "  br i1 %s, label %%%s, label %%%s\n", cmp, bodyLabel, endLabel)
	fmt.Fprintf(g.out, "%s:\n", bodyLabel)
	g.loopStack = append(g.loopStack, loopLabels{continueLabel: stepLabel, breakLabel: endLabel})
	_, _, term := g.lowerBlock(s.Body, locals)
	g.loopStack = g.loopStack[:len(g.loopStack)-1]
	if !term {
		fmt.Fprintf(g.out, "  br label %%%s\n", stepLabel)
	}
	fmt.Fprintf(g.out, "%s:\n", stepLabel)
	next := g.newSSA("for.next")
	fmt.Fprintf(g.out, "  %s = add i64 %s, 1\n", next, cur)
	fmt.Fprintf(g.out, "  store i64 %s, i64* %s\n", next, idxSlot)
	fmt.Fprintf(g.out, "  br label %%%s\n", condLabel)
	fmt.Fprintf(g.out, "%s:\n", endLabel)
}

// lowerCall lowers a plain call expression; a bare identifier callee is
// a direct `call @name`. Any other callee is reported as Unsupported:
// calls through a closure's {fn_ptr, env_ptr} pair are not lowered.
func (g *Generator) lowerCall(e *ast.CallExpression, locals map[string]bool) (string, string) {
	if id, ok := e.Callee.(*ast.Identifier); ok {
		if sig, ok := g.table.LookupFunction(id.Name); ok {
			return g.lowerDirectCall(id.Name, sig.ReturnType, e.Args, locals)
		}
		if id.Name == g.currentItem {
			return g.lowerSelfCall(e.Args, locals)
		}
		return g.lowerDirectCall(id.Name, typesystem.TI64, e.Args, locals)
	}
	g.fail(unsupported(g.currentItem, "indirect/closure call"))
	return "undef", "i64"
}

func (g *Generator) lowerDirectCall(name string, ret typesystem.Type, args []ast.Expression, locals map[string]bool) (string, string) {
	retTy := g.LowerType(g.applySubst(ret))
	argVals := make([]string, len(args))
	for i, a := range args {
		v, ty := g.lowerExpr(a, locals)
		argVals[i] = ty + " " + v
	}
	if retTy == "void" {
		fmt.Fprintf(g.out, "  call void @%s(%s)\n", name, strings.Join(argVals, ", "))
		return "", "void"
	}
	res := g.newSSA("call")
	fmt.Fprintf(g.out, "  %s = call %s @%s(%s)\n", res, retTy, name, strings.Join(argVals, ", "))
	return res, retTy
}

// lowerSelfCall recognizes a direct recursive call to the function
// currently being lowered (spec §4.6.1's VM-level SelfCall has a
// codegen analogue: no symbol-table probe is needed, the name is
// already known).
func (g *Generator) lowerSelfCall(args []ast.Expression, locals map[string]bool) (string, string) {
	argVals := make([]string, len(args))
	for i, a := range args {
		v, ty := g.lowerExpr(a, locals)
		argVals[i] = ty + " " + v
	}
	res := g.newSSA("selfcall")
	fmt.Fprintf(g.out, "  %s = call i64 @%s(%s)\n", res, g.currentItem, strings.Join(argVals, ", "))
	return res, "i64"
}

// lowerFieldAccess collapses a (possibly chained) field-access
// expression into a single GEP, only loading the final scalar value
// (spec §4.3.3 "never materializing intermediate struct values").
func (g *Generator) lowerFieldAccess(e *ast.FieldAccessExpression, locals map[string]bool) (string, string) {
	chain, base := flattenFieldChain(e)
	addr, baseTy := g.lowerAddressable(base, locals)
	curTy := baseTy
	for _, field := range chain {
		idx, fieldTy, ok := g.fieldIndex(curTy, field)
		if !ok {
			g.fail(typeErr(g.currentItem, "unknown field %s on %s", field, curTy))
			return "undef", "i64"
		}
		next := g.newSSA("gep")
		fmt.Fprintf(g.out, "  %s = getelementptr %s, %s* %s, i32 0, i32 %d\n", next, curTy, curTy, addr, idx)
		addr = next
		curTy = fieldTy
	}
	res := g.newSSA("fld")
	fmt.Fprintf(g.out, "  %s = load %s, %s* %s\n", res, curTy, curTy, addr)
	return res, curTy
}

func flattenFieldChain(e *ast.FieldAccessExpression) ([]string, ast.Expression) {
	var chain []string
	var cur ast.Expression = e
	for {
		fa, ok := cur.(*ast.FieldAccessExpression)
		if !ok {
			break
		}
		chain = append([]string{fa.Field}, chain...)
		cur = fa.Receiver
	}
	return chain, cur
}

// lowerAddressable returns the pointer + type-name of an expression
// that denotes a struct lvalue (currently only bare identifiers — a
// struct-returning sub-expression would need a temporary alloca, which
// is out of scope for the common field-chain case this targets).
func (g *Generator) lowerAddressable(e ast.Expression, locals map[string]bool) (string, string) {
	if id, ok := e.(*ast.Identifier); ok {
		ty := g.locals[id.Name]
		return "%" + id.Name + ".addr", ty
	}
	g.fail(unsupported(g.currentItem, "field access on non-identifier receiver"))
	return "undef", "i64"
}

func (g *Generator) fieldIndex(typeName, field string) (int, string, bool) {
	name := strings.TrimPrefix(typeName, "%")
	s, ok := g.table.LookupStruct(name)
	if !ok {
		return 0, "", false
	}
	for i, f := range s.Fields {
		if f.Name == field {
			return i, g.LowerType(f.Type), true
		}
	}
	return 0, "", false
}

// lowerMethodCall lowers `recv.m(args)` to `call %Type_m(recv_ptr,
// args...)`, and `Type::m(args)` (StaticType set) to `call
// %Type_m(args...)` (spec §4.3.3).
func (g *Generator) lowerMethodCall(e *ast.MethodCallExpression, locals map[string]bool) (string, string) {
	if e.StaticType != "" {
		sig, ok := g.table.LookupMethod(e.StaticType, e.Method)
		ret := typesystem.Type(typesystem.TI64)
		if ok {
			ret = sig.ReturnType
		}
		return g.lowerDirectCall(e.StaticType+"_"+e.Method, ret, e.Args, locals)
	}
	recvAddr, recvTy := g.lowerAddressable(e.Receiver, locals)
	typeName := strings.TrimPrefix(recvTy, "%")
	sig, ok := g.table.LookupMethod(typeName, e.Method)
	ret := typesystem.Type(typesystem.TI64)
	if ok {
		ret = sig.ReturnType
	}
	retTy := g.LowerType(g.applySubst(ret))
	argVals := []string{recvTy + "* " + recvAddr}
	for _, a := range e.Args {
		v, ty := g.lowerExpr(a, locals)
		argVals = append(argVals, ty+" "+v)
	}
	if retTy == "void" {
		fmt.Fprintf(g.out, "  call void @%s_%s(%s)\n", typeName, e.Method, strings.Join(argVals, ", "))
		return "", "void"
	}
	res := g.newSSA("mcall")
	fmt.Fprintf(g.out, "  %s = call %s @%s_%s(%s)\n", res, retTy, typeName, e.Method, strings.Join(argVals, ", "))
	return res, retTy
}

func (g *Generator) lowerIndex(e *ast.IndexExpression, locals map[string]bool) (string, string) {
	addr, elemTy := g.lowerAddressable(e.Receiver, locals)
	idx, _ := g.lowerExpr(e.Index, locals)
	ptr := g.newSSA("idx")
	fmt.Fprintf(g.out, "  %s = getelementptr %s, %s* %s, i64 %s\n", ptr, elemTy, elemTy, addr, idx)
	res := g.newSSA("ldidx")
	fmt.Fprintf(g.out, "  %s = load %s, %s* %s\n", res, elemTy, elemTy, ptr)
	return res, elemTy
}

func (g *Generator) lowerTuple(e *ast.TupleExpression, locals map[string]bool) (string, string) {
	types := make([]string, len(e.Elems))
	vals := make([]string, len(e.Elems))
	for i, el := range e.Elems {
		v, ty := g.lowerExpr(el, locals)
		vals[i], types[i] = v, ty
	}
	ty := "{" + strings.Join(types, ", ") + "}"
	acc := "undef"
	for i, v := range vals {
		next := g.newSSA("tup")
		fmt.Fprintf(g.out, "  %s = insertvalue %s %s, %s %s, %d\n", next, ty, acc, types[i], v, i)
		acc = next
	}
	return acc, ty
}

func (g *Generator) lowerArray(e *ast.ArrayExpression, locals map[string]bool) (string, string) {
	if len(e.Elems) == 0 {
		return "undef", "i64*"
	}
	_, elemTy := g.lowerExpr(e.Elems[0], locals)
	arrTy := fmt.Sprintf("[%d x %s]", len(e.Elems), elemTy)
	slot := g.newSSA("arr")
	fmt.Fprintf(g.out, "  %s = alloca %s\n", slot, arrTy)
	for i, el := range e.Elems {
		v, ty := g.lowerExpr(el, locals)
		ptr := g.newSSA("arrgep")
		fmt.Fprintf(g.out, "  %s = getelementptr %s, %s* %s, i32 0, i32 %d\n", ptr, arrTy, arrTy, slot, i)
		fmt.Fprintf(g.out, "  store %s %s, %s* %s\n", ty, v, ty, ptr)
	}
	return slot, elemTy + "*"
}

func (g *Generator) lowerStructLiteral(e *ast.StructLiteralExpression, locals map[string]bool) (string, string) {
	s, ok := g.table.LookupStruct(e.TypeName)
	ty := "%" + e.TypeName
	if !ok {
		g.fail(typeErr(g.currentItem, "unknown struct %s", e.TypeName))
		return "undef", ty
	}
	byName := make(map[string]ast.Expression, len(e.Fields))
	for _, f := range e.Fields {
		byName[f.Name] = f.Value
	}
	acc := "undef"
	for i, f := range s.Fields {
		fieldExpr, ok := byName[f.Name]
		if !ok {
			continue
		}
		v, fty := g.lowerExpr(fieldExpr, locals)
		next := g.newSSA("st")
		fmt.Fprintf(g.out, "  %s = insertvalue %s %s, %s %s, %d\n", next, ty, acc, fty, v, i)
		acc = next
	}
	return acc, ty
}

// lowerEnumLiteral writes tag + payload into an alloca'd enum and
// returns the pointer (spec §4.3.2 "Variant construction writes tag +
// payload into an alloca'd enum and returns a pointer").
func (g *Generator) lowerEnumLiteral(e *ast.EnumLiteralExpression, locals map[string]bool) (string, string) {
	en, ok := g.table.LookupEnum(e.EnumName)
	ty := "%" + e.EnumName
	if !ok {
		g.fail(typeErr(g.currentItem, "unknown enum %s", e.EnumName))
		return "undef", ty
	}
	tag := -1
	for _, v := range en.Variants {
		if v.Name == e.VariantName {
			tag = v.Tag
		}
	}
	slot := g.newSSA("enum")
	fmt.Fprintf(g.out, "  %s = alloca %s\n", slot, ty)
	tagPtr := g.newSSA("tagptr")
	fmt.Fprintf(g.out, "  %s = getelementptr %s, %s* %s, i32 0, i32 0\n", tagPtr, ty, ty, slot)
	fmt.Fprintf(g.out, "  store i64 %d, i64* %s\n", tag, tagPtr)

	payloadPtr := g.newSSA("payptr")
	fmt.Fprintf(g.out, "  %s = getelementptr %s, %s* %s, i32 0, i32 1\n", payloadPtr, ty, ty, slot)
	args := e.TupleArgs
	if len(args) > 0 {
		n, ok := variantPayload(en, e.VariantName)
		if ok {
			payTy := "{" + joinLoweredTuple(g, n.TupleTypes) + "}"
			cast := g.newSSA("paycast")
			fmt.Fprintf(g.out, "  %s = bitcast i8* %s to %s*\n", cast, payloadPtr, payTy)
			for i, a := range args {
				v, fty := g.lowerExpr(a, locals)
				fptr := g.newSSA("fld")
				fmt.Fprintf(g.out, "  %s = getelementptr %s, %s* %s, i32 0, i32 %d\n", fptr, payTy, payTy, cast, i)
				fmt.Fprintf(g.out, "  store %s %s, %s* %s\n", fty, v, fty, fptr)
			}
		}
	}
	return slot, ty
}

func variantPayload(e *ast.Enum, name string) (ast.EnumVariant, bool) {
	for _, v := range e.Variants {
		if v.Name == name {
			return v, true
		}
	}
	return ast.EnumVariant{}, false
}

func joinLoweredTuple(g *Generator, types []typesystem.Type) string {
	parts := make([]string, len(types))
	for i, t := range types {
		parts[i] = g.LowerType(t)
	}
	return strings.Join(parts, ", ")
}

// lowerAwait/lowerSpawn/lowerYield/lowerTry live in async.go since they
// are inseparable from the async-state-machine lowering (spec §4.3.6).
