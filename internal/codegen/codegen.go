// Package codegen implements the LLVM IR text generator of spec §4.3
// (component E): type lowering, struct/enum layout, expression/statement
// lowering to SSA + CFG, closures, async state machines, and
// pattern-match decision trees. Output is always textual LLVM IR (spec
// §4.3 "no binding to the native LLVM library is assumed"). The
// per-module, single generator-instance-per-pipeline-stage shape and the
// "one fatal error drops the item, the rest of the module continues"
// policy are grounded on the teacher's internal/backend.Backend
// dispatch (one object implementing a narrow interface, invoked once
// per pipeline stage) and on hhramberg-go-vslc's writer-style assembly
// backend, which emits one function at a time into a shared
// strings.Builder while tracking a live register/label counter — the
// same shape this generator uses for SSA names and block labels.
package codegen

import (
	"fmt"
	"strings"

	"github.com/vaislang/vais-sub013/internal/ast"
	"github.com/vaislang/vais-sub013/internal/symbols"
	"github.com/vaislang/vais-sub013/internal/typesystem"
)

// Generator lowers one module's items to LLVM IR text. It is not
// goroutine-safe; spec §5 calls for one generator instance per module,
// single-threaded.
type Generator struct {
	table *symbols.Table

	typeCache map[string]string

	ssaCounter   int
	labelCounter int
	closureCount int

	loopStack []loopLabels

	out *strings.Builder

	// subst is the active generic-instantiation substitution, non-nil
	// while lowering a monomorphized instance (spec §4.3.4).
	subst typesystem.Subst

	// locals maps a live local/parameter name to its lowered LLVM type,
	// reset at the start of every function (emitFunction, the async poll
	// emitter and emitClosureBody).
	locals map[string]string

	// stringConsts dedupes interned string-literal globals by text;
	// globals accumulates their IR declarations, emitted once at the
	// head of the module after all functions are lowered.
	stringConsts map[string]string
	strCounter   int
	globals      []string

	currentItem string
	errs        []*Error
}

type loopLabels struct {
	continueLabel string
	breakLabel    string
}

func New(table *symbols.Table) *Generator {
	return &Generator{
		table:     table,
		typeCache: make(map[string]string),
	}
}

// GenerateModule lowers every item in mod, plus every realized generic
// instantiation recorded in the symbol table (spec §4.3.4 "Only
// instantiations recorded by the type checker are emitted"). A fatal
// error on one item is recorded and that item is skipped; the rest of
// the module is still emitted (spec §4.3.8).
func (g *Generator) GenerateModule(mod *ast.Module) (string, []*Error) {
	g.out = &strings.Builder{}
	g.errs = nil
	g.globals = nil
	g.stringConsts = nil

	byName := make(map[string]*ast.Function)
	for _, item := range mod.Items {
		g.emitItem(item, byName)
	}

	for _, inst := range g.table.Instantiations() {
		fn, ok := byName[inst.Base]
		if !ok {
			continue
		}
		g.emitGenericInstance(fn, inst)
	}

	body := g.out.String()
	var head strings.Builder
	head.WriteString(runtimeDecls)
	for _, decl := range g.globals {
		head.WriteString(decl)
		head.WriteByte('\n')
	}
	return head.String() + body, g.errs
}

// runtimeDecls declares the handful of C runtime / async-support
// symbols emitted code calls into (malloc for heap state/env structs,
// strcmp for string-literal pattern matching, and the __vais_* shims
// the build driver links against its runtime support object — spec
// §4.3.6, §4.5).
const runtimeDecls = `declare i8* @malloc(i64)
declare i32 @strcmp(i8*, i8*)
declare i8* @__vais_to_str(i64)
declare i8* @__vais_str_concat(i8*, i8*)
declare i64 @__vais_await(i64*, i64)
declare i64 @__vais_spawn(i64)
declare void @__vais_yield(i64)
`

func (g *Generator) emitItem(item ast.Item, byName map[string]*ast.Function) {
	switch v := item.(type) {
	case *ast.Function:
		byName[v.Sig.Name] = v
		if len(v.Sig.GenericParams) > 0 {
			// Generic definitions emit only at instantiation sites.
			return
		}
		g.subst = nil
		g.emitFunction(v, "", "")
	case *ast.ExternFunction:
		g.emitExternDecl(v)
	case *ast.Struct:
		g.emitStruct(v)
	case *ast.Enum:
		g.emitEnum(v)
	case *ast.Union:
		g.emitUnion(v)
	case *ast.Impl:
		for _, m := range v.Methods {
			g.subst = nil
			g.emitFunction(m, v.TypeName, "")
		}
	default:
		// Traits, trait aliases, type defs, consts, use, macro,
		// module-decl carry no direct codegen artifact.
	}
}

func (g *Generator) emitGenericInstance(fn *ast.Function, inst *symbols.Instantiation) {
	subst := typesystem.Subst{}
	for i, gp := range fn.Sig.GenericParams {
		if i < len(inst.TypeArgs) {
			subst[gp.Name] = inst.TypeArgs[i]
		}
	}
	g.subst = subst
	g.emitFunction(fn, "", inst.MangledName)
}

// applySubst applies the active generic substitution (if any) to t,
// used at every type-lowering point during a monomorphized instance's
// emission (spec §4.3.4).
func (g *Generator) applySubst(t typesystem.Type) typesystem.Type {
	if g.subst == nil {
		return t
	}
	return t.Apply(g.subst)
}

func (g *Generator) fail(err *Error) {
	g.errs = append(g.errs, err)
}

func (g *Generator) newSSA(prefix string) string {
	g.ssaCounter++
	return fmt.Sprintf("%%%s%d", prefix, g.ssaCounter)
}

func (g *Generator) newLabel(prefix string) string {
	g.labelCounter++
	return fmt.Sprintf("%s%d", prefix, g.labelCounter)
}
