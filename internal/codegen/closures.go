package codegen

import (
	"fmt"
	"strings"

	"github.com/vaislang/vais-sub013/internal/ast"
	"github.com/vaislang/vais-sub013/internal/typesystem"
)

// lowerClosure lowers a closure literal to a top-level `closure_N`
// function plus a heap-allocated environment struct holding its
// captures, returning the `{fn_ptr, env_ptr}` value pair (spec
// §4.3.5). Move and non-move captures both copy by value in this
// design — there is no borrow-checked capture-by-reference lowering.
func (g *Generator) lowerClosure(e *ast.ClosureExpression, locals map[string]bool) (string, string) {
	g.closureCount++
	name := fmt.Sprintf("closure_%d", g.closureCount)
	envName := name + "__env"

	envFields := make([]string, len(e.Captures))
	for i, c := range e.Captures {
		envFields[i] = g.locals[c]
		if envFields[i] == "" {
			envFields[i] = "i64"
		}
	}
	// The env type and closure_N are module-level, so they are written to
	// a separate buffer and emitted with the module's globals.
	savedOut := g.out
	g.out = &strings.Builder{}
	fmt.Fprintf(g.out, "%%%s = type {%s}\n", envName, strings.Join(envFields, ", "))
	g.emitClosureBody(e, name, envName, envFields)
	g.globals = append(g.globals, g.out.String())
	g.out = savedOut

	envAlloc := g.newSSA("envraw")
	sizeSlot := g.newSSA("envsz")
	fmt.Fprintf(g.out, "  %s = getelementptr %%%s, %%%s* null, i32 1\n", sizeSlot, envName, envName)
	sizeInt := g.newSSA("envszi")
	fmt.Fprintf(g.out, "  %s = ptrtoint %%%s* %s to i64\n", sizeInt, envName, sizeSlot)
	fmt.Fprintf(g.out, "  %s = call i8* @malloc(i64 %s)\n", envAlloc, sizeInt)
	envTyped := g.newSSA("env")
	fmt.Fprintf(g.out, "  %s = bitcast i8* %s to %%%s*\n", envTyped, envAlloc, envName)

	for i, c := range e.Captures {
		val, ty := g.lowerIdentifier(&ast.Identifier{Name: c})
		ptr := g.newSSA("envf")
		fmt.Fprintf(g.out, "  %s = getelementptr %%%s, %%%s* %s, i32 0, i32 %d\n", ptr, envName, envName, envTyped, i)
		fmt.Fprintf(g.out, "  store %s %s, %s* %s\n", ty, val, ty, ptr)
	}

	fnPtr := g.newSSA("fnptr")
	retTy := g.LowerType(g.applySubst(closureReturnType(e)))
	paramTys := make([]string, 0, len(e.Params)+1)
	paramTys = append(paramTys, "i8*")
	for _, p := range e.Params {
		paramTys = append(paramTys, g.LowerType(g.applySubst(p.Type)))
	}
	fmt.Fprintf(g.out, "  %s = bitcast %s (%s)* @%s to %s (%s)*\n", fnPtr, retTy, strings.Join(paramTys, ", "), name, retTy, strings.Join(paramTys, ", "))

	pairTy := fmt.Sprintf("{%s (%s)*, i8*}", retTy, strings.Join(paramTys, ", "))
	envOpaque := g.newSSA("envopaque")
	fmt.Fprintf(g.out, "  %s = bitcast %%%s* %s to i8*\n", envOpaque, envName, envTyped)
	agg1 := g.newSSA("clo")
	fmt.Fprintf(g.out, "  %s = insertvalue %s undef, %s (%s)* %s, 0\n", agg1, pairTy, retTy, strings.Join(paramTys, ", "), fnPtr)
	agg2 := g.newSSA("clo")
	fmt.Fprintf(g.out, "  %s = insertvalue %s %s, i8* %s, 1\n", agg2, pairTy, agg1, envOpaque)
	return agg2, pairTy
}

// closureReturnType infers the closure body's type by lowering it
// speculatively is unnecessary here; bodies are expressions so the
// checker already pins a type onto Body's static type where needed.
// Absent an explicit annotation field on ClosureExpression, this
// generator defaults to i64 (spec §4.2 numeric default) and lets the
// checker-pinned literal types drive anything narrower.
func closureReturnType(e *ast.ClosureExpression) typesystem.Type {
	return typesystem.TI64
}

// emitClosureBody writes the top-level `closure_N` function: the first
// parameter is the opaque env pointer, bitcast back to the closure's
// env struct type, with each capture loaded into a local before the
// body is lowered (spec §4.3.5).
func (g *Generator) emitClosureBody(e *ast.ClosureExpression, name, envName string, envFields []string) {
	params := make([]string, 0, len(e.Params)+1)
	params = append(params, "i8* %__env")
	for _, p := range e.Params {
		params = append(params, fmt.Sprintf("%s %%%s", g.LowerType(g.applySubst(p.Type)), p.Name))
	}
	retTy := g.LowerType(g.applySubst(closureReturnType(e)))
	fmt.Fprintf(g.out, "define %s @%s(%s) {\n", retTy, name, strings.Join(params, ", "))
	fmt.Fprintf(g.out, "entry:\n")

	savedLocals := g.locals
	savedLoop := g.loopStack
	savedItem := g.currentItem
	g.locals = make(map[string]string)
	g.loopStack = nil
	g.currentItem = name

	envTyped := g.newSSA("cenv")
	fmt.Fprintf(g.out, "  %s = bitcast i8* %%__env to %%%s*\n", envTyped, envName)
	locals := make(map[string]bool)
	for i, c := range e.Captures {
		ty := envFields[i]
		ptr := g.newSSA("cfld")
		fmt.Fprintf(g.out, "  %s = getelementptr %%%s, %%%s* %s, i32 0, i32 %d\n", ptr, envName, envName, envTyped, i)
		val := g.newSSA("cval")
		fmt.Fprintf(g.out, "  %s = load %s, %s* %s\n", val, ty, ty, ptr)
		slot := fmt.Sprintf("%%%s.addr", c)
		fmt.Fprintf(g.out, "  %s = alloca %s\n", slot, ty)
		fmt.Fprintf(g.out, "  store %s %s, %s* %s\n", ty, val, ty, slot)
		locals[c] = true
		g.locals[c] = ty
	}
	for _, p := range e.Params {
		pty := g.LowerType(g.applySubst(p.Type))
		slot := fmt.Sprintf("%%%s.addr", p.Name)
		fmt.Fprintf(g.out, "  %s = alloca %s\n", slot, pty)
		fmt.Fprintf(g.out, "  store %s %%%s, %s* %s\n", pty, p.Name, pty, slot)
		locals[p.Name] = true
		g.locals[p.Name] = pty
	}

	var result, resultTy string
	var term bool
	switch b := e.Body.(type) {
	case *ast.BlockStatement:
		result, resultTy, term = g.lowerBlock(b, locals)
	default:
		result, resultTy = g.lowerExpr(b, locals)
	}
	if !term {
		if retTy == "void" {
			fmt.Fprintf(g.out, "  ret void\n")
		} else if result == "" {
			fmt.Fprintf(g.out, "  ret %s undef\n", retTy)
		} else {
			fmt.Fprintf(g.out, "  ret %s %s\n", resultTy, result)
		}
	}
	fmt.Fprintf(g.out, "}\n")

	g.locals = savedLocals
	g.loopStack = savedLoop
	g.currentItem = savedItem
}
