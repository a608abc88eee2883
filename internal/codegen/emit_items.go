package codegen

import (
	"fmt"
	"strings"

	"github.com/vaislang/vais-sub013/internal/ast"
)

// emitStruct writes the struct's type declaration in field-declaration
// order (spec §4.3.2 "no field reordering even without repr(C)").
func (g *Generator) emitStruct(s *ast.Struct) {
	if len(s.GenericParams) > 0 {
		return // only realized instantiations of generic structs are emitted
	}
	g.table.DefineStruct(s)
	parts := make([]string, len(s.Fields))
	for i, f := range s.Fields {
		parts[i] = g.LowerType(f.Type)
	}
	fmt.Fprintf(g.out, "%%%s = type {%s}\n", s.Name, strings.Join(parts, ", "))
}

// emitEnum writes the tagged-union type declaration (spec §4.3.2).
func (g *Generator) emitEnum(e *ast.Enum) {
	if len(e.GenericParams) > 0 {
		return
	}
	g.table.DefineEnum(e)
	n := g.enumPayloadSize(e)
	fmt.Fprintf(g.out, "%%%s = type {i64, [%d x i8]}\n", e.Name, n)
}

// emitUnion writes the untagged union as a byte buffer sized to its
// largest field; no runtime tag is emitted (spec §4.3.2).
func (g *Generator) emitUnion(u *ast.Union) {
	max := 0
	for _, f := range u.Fields {
		if s := g.sizeOf(f.Type); s > max {
			max = s
		}
	}
	fmt.Fprintf(g.out, "%%%s = type {[%d x i8]}\n", u.Name, max)
}

func (g *Generator) emitExternDecl(f *ast.ExternFunction) {
	params := make([]string, len(f.Sig.Params))
	for i, p := range f.Sig.Params {
		params[i] = g.LowerType(p.Type)
	}
	fmt.Fprintf(g.out, "declare %s @%s(%s)\n", g.LowerType(f.Sig.ReturnType), f.Sig.Name, strings.Join(params, ", "))
}

// emitFunction emits one function definition. recvType is non-"" for
// impl methods (mangled as Type_method per spec §4.3.3 "call
// %Type_m(...)"). name, when non-"", overrides the emitted symbol (used
// for realized generic instantiations, spec §4.3.4).
func (g *Generator) emitFunction(fn *ast.Function, recvType string, name string) {
	if name == "" {
		name = fn.Sig.Name
		if recvType != "" {
			name = recvType + "_" + name
		}
	}

	g.currentItem = name
	g.loopStack = nil

	if fn.Sig.IsAsync {
		g.emitAsyncFunction(fn, name)
		return
	}

	retType := g.LowerType(g.applySubst(fn.Sig.ReturnType))
	params := make([]string, len(fn.Sig.Params))
	for i, p := range fn.Sig.Params {
		params[i] = fmt.Sprintf("%s %%%s", g.LowerType(g.applySubst(p.Type)), p.Name)
	}
	fmt.Fprintf(g.out, "define %s @%s(%s) {\n", retType, name, strings.Join(params, ", "))
	fmt.Fprintf(g.out, "entry:\n")

	g.locals = make(map[string]string)
	locals := make(map[string]bool)
	for _, p := range fn.Sig.Params {
		locals[p.Name] = true
		pty := g.LowerType(g.applySubst(p.Type))
		slot := fmt.Sprintf("%%%s.addr", p.Name)
		fmt.Fprintf(g.out, "  %s = alloca %s\n", slot, pty)
		fmt.Fprintf(g.out, "  store %s %%%s, %s* %s\n", pty, p.Name, pty, slot)
		g.locals[p.Name] = pty
	}
	result, resultType, term := g.lowerBlock(fn.Body, locals)
	if !term {
		if retType == "void" {
			fmt.Fprintf(g.out, "  ret void\n")
		} else if result == "" {
			fmt.Fprintf(g.out, "  ret %s undef\n", retType)
		} else {
			fmt.Fprintf(g.out, "  ret %s %s\n", resultType, result)
		}
	}
	fmt.Fprintf(g.out, "}\n")
}
