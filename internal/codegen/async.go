package codegen

import (
	"fmt"
	"strings"

	"github.com/vaislang/vais-sub013/internal/ast"
)

// emitAsyncFunction lowers an `async fn` to the three-artifact shape of
// spec §4.3.6: a state struct, a create function that heap-allocates
// it, sets the state field to 0 and copies the parameters in, and a poll
// function that switches over `i64 state`.
func (g *Generator) emitAsyncFunction(fn *ast.Function, name string) {
	stateName := name + "__AsyncState"
	retTy := g.LowerType(g.applySubst(fn.Sig.ReturnType))

	fields := []string{"i64"} // field 0: state
	fieldNames := []string{"state"}
	for _, p := range fn.Sig.Params {
		fields = append(fields, g.LowerType(g.applySubst(p.Type)))
		fieldNames = append(fieldNames, p.Name)
	}
	if retTy != "void" {
		fields = append(fields, retTy)
		fieldNames = append(fieldNames, "result")
	}
	fmt.Fprintf(g.out, "%%%s = type {%s}\n", stateName, strings.Join(fields, ", "))

	g.emitAsyncCreate(fn, name, stateName, fieldNames, fields)
	g.emitAsyncPoll(fn, name, stateName, fieldNames, fields, retTy)
}

// emitAsyncCreate emits `name__create`: malloc the state struct, store
// state=0 and every parameter, and return the opaque i64* handle (spec
// §4.3.6 "create function").
func (g *Generator) emitAsyncCreate(fn *ast.Function, name, stateName string, fieldNames, fields []string) {
	params := make([]string, len(fn.Sig.Params))
	for i, p := range fn.Sig.Params {
		params[i] = fmt.Sprintf("%s %%%s", g.LowerType(g.applySubst(p.Type)), p.Name)
	}
	fmt.Fprintf(g.out, "define i64* @%s__create(%s) {\n", name, strings.Join(params, ", "))
	fmt.Fprintf(g.out, "entry:\n")

	sizeSlot := g.newSSA("sz")
	fmt.Fprintf(g.out, "  %s = getelementptr %%%s, %%%s* null, i32 1\n", sizeSlot, stateName, stateName)
	sizeInt := g.newSSA("szint")
	fmt.Fprintf(g.out, "  %s = ptrtoint %%%s* %s to i64\n", sizeInt, stateName, sizeSlot)
	raw := g.newSSA("raw")
	fmt.Fprintf(g.out, "  %s = call i8* @malloc(i64 %s)\n", raw, sizeInt)
	typed := g.newSSA("state")
	fmt.Fprintf(g.out, "  %s = bitcast i8* %s to %%%s*\n", typed, raw, stateName)

	statePtr := g.newSSA("stateptr")
	fmt.Fprintf(g.out, "  %s = getelementptr %%%s, %%%s* %s, i32 0, i32 0\n", statePtr, stateName, stateName, typed)
	fmt.Fprintf(g.out, "  store i64 0, i64* %s\n", statePtr)

	for i, p := range fn.Sig.Params {
		fieldIdx := i + 1
		ptr := g.newSSA("pf")
		pty := fields[fieldIdx]
		fmt.Fprintf(g.out, "  %s = getelementptr %%%s, %%%s* %s, i32 0, i32 %d\n", ptr, stateName, stateName, typed, fieldIdx)
		fmt.Fprintf(g.out, "  store %s %%%s, %s* %s\n", pty, p.Name, pty, ptr)
	}

	asI64 := g.newSSA("ret")
	fmt.Fprintf(g.out, "  %s = bitcast %%%s* %s to i64*\n", asI64, stateName, typed)
	fmt.Fprintf(g.out, "  ret i64* %s\n", asI64)
	fmt.Fprintf(g.out, "}\n")
}

// emitAsyncPoll emits `name__poll`, a state machine that switches on
// the stored i64 state and resumes execution from the matching
// suspension point (spec §4.3.6). The body is lowered once, under state
// 0, which is the switch's only case. Awaits inside the body block until
// their target is ready (see lowerAwait), so the pending block is never
// branched to from the body.
func (g *Generator) emitAsyncPoll(fn *ast.Function, name, stateName string, fieldNames, fields []string, retTy string) {
	fmt.Fprintf(g.out, "define i1 @%s__poll(i64* %%handle, %s* %%out) {\n", name, pollOutType(retTy))
	fmt.Fprintf(g.out, "entry:\n")
	typed := g.newSSA("state")
	fmt.Fprintf(g.out, "  %s = bitcast i64* %%handle to %%%s*\n", typed, stateName)
	statePtr := g.newSSA("stateptr")
	fmt.Fprintf(g.out, "  %s = getelementptr %%%s, %%%s* %s, i32 0, i32 0\n", statePtr, stateName, stateName, typed)
	stateVal := g.newSSA("cur")
	fmt.Fprintf(g.out, "  %s = load i64, i64* %s\n", stateVal, statePtr)

	locals := make(map[string]bool)
	g.locals = make(map[string]string)
	for i, p := range fn.Sig.Params {
		fieldIdx := i + 1
		ptr := g.newSSA("ld")
		pty := fields[fieldIdx]
		fmt.Fprintf(g.out, "  %s = getelementptr %%%s, %%%s* %s, i32 0, i32 %d\n", ptr, stateName, stateName, typed, fieldIdx)
		val := g.newSSA("pv")
		fmt.Fprintf(g.out, "  %s = load %s, %s* %s\n", val, pty, pty, ptr)
		slot := fmt.Sprintf("%%%s.addr", p.Name)
		fmt.Fprintf(g.out, "  %s = alloca %s\n", slot, pty)
		fmt.Fprintf(g.out, "  store %s %s, %s* %s\n", pty, val, pty, slot)
		locals[p.Name] = true
		g.locals[p.Name] = pty
	}

	entryLabel := g.newLabel("poll.s0")
	doneLabel := g.newLabel("poll.done")
	pendingLabel := g.newLabel("poll.pending")

	fmt.Fprintf(g.out, "  switch i64 %s, label %%%s [ i64 0, label %%%s ]\n", stateVal, entryLabel, entryLabel)
	fmt.Fprintf(g.out, "%s:\n", entryLabel)

	result, resultTy, term := g.lowerBlock(fn.Body, locals)
	if !term {
		if retTy != "void" && result != "" {
			outPtr := g.newSSA("outp")
			fmt.Fprintf(g.out, "  %s = bitcast %s* %%out to %s*\n", outPtr, pollOutType(retTy), resultTy)
			fmt.Fprintf(g.out, "  store %s %s, %s* %s\n", resultTy, result, resultTy, outPtr)
		}
		fmt.Fprintf(g.out, "  store i64 -1, i64* %s\n", statePtr)
		fmt.Fprintf(g.out, "  br label %%%s\n", doneLabel)
	}

	fmt.Fprintf(g.out, "%s:\n", doneLabel)
	fmt.Fprintf(g.out, "  ret i1 1\n")
	fmt.Fprintf(g.out, "%s:\n", pendingLabel)
	fmt.Fprintf(g.out, "  ret i1 0\n")
	fmt.Fprintf(g.out, "}\n")
}

func pollOutType(retTy string) string {
	if retTy == "" || retTy == "void" {
		return "i8"
	}
	return retTy
}

// lowerAwait emits one call to the runtime shim __vais_await, passing the
// target's handle and the expression's AwaitIndex; the shim returns the
// target's result once it is ready. The await is a blocking call, not a
// coroutine suspension: no locals are persisted into the state struct
// and the enclosing poll function never returns pending from an await.
func (g *Generator) lowerAwait(e *ast.AwaitExpression, locals map[string]bool) (string, string) {
	tv, _ := g.lowerExpr(e.Target, locals)
	res := g.newSSA("awaited")
	fmt.Fprintf(g.out, "  %s = call i64 @__vais_await(i64* %s, i64 %d)\n", res, tv, e.AwaitIndex)
	return res, "i64"
}

// lowerSpawn wraps a non-future target as an already-completed future
// and hands it to the async runtime (spec §4.6.5 "spawn on a
// non-future value wraps it as a completed future").
func (g *Generator) lowerSpawn(e *ast.SpawnExpression, locals map[string]bool) (string, string) {
	tv, ty := g.lowerExpr(e.Target, locals)
	res := g.newSSA("task")
	fmt.Fprintf(g.out, "  %s = call i64 @__vais_spawn(%s %s)\n", res, ty, tv)
	return res, "i64"
}

func (g *Generator) lowerYield(e *ast.YieldExpression, locals map[string]bool) (string, string) {
	vv, ty := g.lowerExpr(e.Value, locals)
	fmt.Fprintf(g.out, "  call void @__vais_yield(%s %s)\n", ty, vv)
	return "", "void"
}

// lowerTry lowers the `?` operator: on Result it short-circuits on the
// Err arm by returning it directly from the enclosing function (spec
// §3 "right-biased over Result/Future's Err/pending arm").
func (g *Generator) lowerTry(e *ast.TryExpression, locals map[string]bool) (string, string) {
	tv, ty := g.lowerExpr(e.Target, locals)
	isOk := g.newSSA("ok")
	fmt.Fprintf(g.out, "  %s = extractvalue %s %s, 0\n", isOk, ty, tv)
	okLabel := g.newLabel("try.ok")
	errLabel := g.newLabel("try.err")
	fmt.Fprintf(g.out, "  br i1 %s, label %%%s, label %%%s\n", isOk, okLabel, errLabel)
	fmt.Fprintf(g.out, "%s:\n", errLabel)
	fmt.Fprintf(g.out, "  ret %s %s\n", ty, tv)
	fmt.Fprintf(g.out, "%s:\n", okLabel)
	val := g.newSSA("tryval")
	fmt.Fprintf(g.out, "  %s = extractvalue %s %s, 1\n", val, ty, tv)
	return val, "i64"
}
