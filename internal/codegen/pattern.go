package codegen

import (
	"fmt"
	"strings"

	"github.com/vaislang/vais-sub013/internal/ast"
)

// lowerMatch lowers a match expression to a cascade of arm tests in arm
// order (no `switch` is emitted): enum variant patterns compare the tag
// field, literal/range patterns compare the value, with each arm's bindings materialized via
// alloca+store before the arm body runs (spec §4.3.7).
func (g *Generator) lowerMatch(e *ast.MatchExpression, locals map[string]bool) (string, string) {
	scrutVal, scrutTy := g.lowerExpr(e.Scrutinee, locals)

	endLabel := g.newLabel("match.end")
	var incoming []string
	var resultTy string
	allTerm := true

	armLabels := make([]string, len(e.Arms))
	for i := range e.Arms {
		armLabels[i] = g.newLabel(fmt.Sprintf("match.arm%d", i))
	}
	nextLabels := make([]string, len(e.Arms)+1)
	for i := 1; i < len(e.Arms); i++ {
		nextLabels[i] = g.newLabel(fmt.Sprintf("match.test%d", i))
	}
	nextLabels[len(e.Arms)] = g.newLabel("match.nomatch")

	fmt.Fprintf(g.out, "  br label %%match.test0\n")
	fmt.Fprintf(g.out, "match.test0:\n")

	for i, arm := range e.Arms {
		armLocals := cloneLocals(locals)
		cond := g.lowerPatternTest(arm.Pattern, scrutVal, scrutTy, armLocals)
		if arm.Guard != nil {
			gv, gty := g.lowerExpr(arm.Guard, armLocals)
			gv = g.toBool(gv, gty)
			combined := g.newSSA("guard")
			fmt.Fprintf(g.out, "  %s = and i1 %s, %s\n", combined, cond, gv)
			cond = combined
		}
		fmt.Fprintf(g.out, "  br i1 %s, label %%%s, label %%%s\n", cond, armLabels[i], nextLabels[i+1])

		fmt.Fprintf(g.out, "%s:\n", armLabels[i])
		g.bindPattern(arm.Pattern, scrutVal, scrutTy, armLocals)
		val, ty, term := g.lowerArmBody(arm.Body, armLocals)
		if !term {
			allTerm = false
			if resultTy == "" {
				resultTy = ty
			}
			incoming = append(incoming, fmt.Sprintf("[%s, %%%s]", orUndef(val, ty), armLabels[i]))
			fmt.Fprintf(g.out, "  br label %%%s\n", endLabel)
		}

		if i+1 < len(e.Arms) {
			fmt.Fprintf(g.out, "%s:\n", nextLabels[i+1])
		}
	}

	fmt.Fprintf(g.out, "%s:\n", nextLabels[len(e.Arms)])
	fmt.Fprintf(g.out, "  unreachable\n")

	if allTerm {
		return "undef", resultTy
	}

	fmt.Fprintf(g.out, "%s:\n", endLabel)
	if resultTy == "" || resultTy == "void" {
		return "", resultTy
	}
	res := g.newSSA("match")
	fmt.Fprintf(g.out, "  %s = phi %s %s\n", res, resultTy, strings.Join(incoming, ", "))
	return res, resultTy
}

func (g *Generator) lowerArmBody(body ast.Expression, locals map[string]bool) (string, string, bool) {
	if b, ok := body.(*ast.BlockStatement); ok {
		return g.lowerBlock(b, locals)
	}
	val, ty := g.lowerExpr(body, locals)
	return val, ty, false
}

func cloneLocals(locals map[string]bool) map[string]bool {
	out := make(map[string]bool, len(locals))
	for k, v := range locals {
		out[k] = v
	}
	return out
}

// lowerPatternTest produces the i1 match condition for one pattern,
// leftmost-outermost (spec §4.3.7): literal/identifier patterns
// compare directly, enum-variant patterns compare the tag field,
// tuple/range patterns recurse and AND the sub-results together.
func (g *Generator) lowerPatternTest(p ast.Pattern, scrutVal, scrutTy string, locals map[string]bool) string {
	switch pat := p.(type) {
	case *ast.WildcardPattern, *ast.BindingPattern:
		return "1"
	case *ast.LiteralPattern:
		res := g.newSSA("pcmp")
		switch {
		case pat.Int != nil:
			fmt.Fprintf(g.out, "  %s = icmp eq %s %s, %s\n", res, scrutTy, scrutVal, pat.Int.Text(10))
		case pat.Float != nil:
			fmt.Fprintf(g.out, "  %s = fcmp oeq %s %s, %s\n", res, scrutTy, scrutVal, hexFloat(*pat.Float))
		case pat.Bool != nil:
			v := "0"
			if *pat.Bool {
				v = "1"
			}
			fmt.Fprintf(g.out, "  %s = icmp eq i1 %s, %s\n", res, scrutVal, v)
		case pat.Char != nil:
			fmt.Fprintf(g.out, "  %s = icmp eq i32 %s, %d\n", res, scrutVal, *pat.Char)
		case pat.Str != nil:
			cmp := g.newSSA("streq")
			strPtr := g.internString(*pat.Str)
			n := len(*pat.Str) + 1
			ptr := g.newSSA("strp")
			fmt.Fprintf(g.out, "  %s = getelementptr [%d x i8], [%d x i8]* @%s, i32 0, i32 0\n", ptr, n, n, strPtr)
			fmt.Fprintf(g.out, "  %s = call i32 @strcmp(i8* %s, i8* %s)\n", cmp, scrutVal, ptr)
			fmt.Fprintf(g.out, "  %s = icmp eq i32 %s, 0\n", res, cmp)
		default:
			fmt.Fprintf(g.out, "  %s = add i1 0, 1\n", res)
		}
		return res
	case *ast.RangePattern:
		geLo := g.newSSA("pge")
		fmt.Fprintf(g.out, "  %s = icmp sge %s %s, %s\n", geLo, scrutTy, scrutVal, pat.Lo.Text(10))
		op := "slt"
		if pat.Inclusive {
			op = "sle"
		}
		leHi := g.newSSA("ple")
		fmt.Fprintf(g.out, "  %s = icmp %s %s %s, %s\n", leHi, op, scrutTy, scrutVal, pat.Hi.Text(10))
		res := g.newSSA("prange")
		fmt.Fprintf(g.out, "  %s = and i1 %s, %s\n", res, geLo, leHi)
		return res
	case *ast.EnumVariantPattern:
		typeName := strings.TrimPrefix(scrutTy, "%")
		en, ok := g.table.LookupEnum(typeName)
		tag := -1
		if ok {
			for _, v := range en.Variants {
				if v.Name == pat.VariantName {
					tag = v.Tag
				}
			}
		}
		tagPtr := g.newSSA("tagp")
		fmt.Fprintf(g.out, "  %s = getelementptr %s, %s* %s, i32 0, i32 0\n", tagPtr, scrutTy, scrutTy, scrutVal)
		tagVal := g.newSSA("tagv")
		fmt.Fprintf(g.out, "  %s = load i64, i64* %s\n", tagVal, tagPtr)
		res := g.newSSA("ptag")
		fmt.Fprintf(g.out, "  %s = icmp eq i64 %s, %d\n", res, tagVal, tag)
		return res
	case *ast.TuplePattern:
		res := "1"
		for i, sub := range pat.Elems {
			elemVal := g.newSSA("tte")
			fmt.Fprintf(g.out, "  %s = extractvalue %s %s, %d\n", elemVal, scrutTy, scrutVal, i)
			sc := g.lowerPatternTest(sub, elemVal, "i64", locals)
			if res == "1" {
				res = sc
			} else {
				next := g.newSSA("tand")
				fmt.Fprintf(g.out, "  %s = and i1 %s, %s\n", next, res, sc)
				res = next
			}
		}
		return res
	default:
		return "1"
	}
}

// bindPattern materializes a matched pattern's bindings as allocas
// (spec §4.3.7 "alloca + store bindings"), run after lowerPatternTest
// succeeds so only the taken arm pays for binding extraction.
func (g *Generator) bindPattern(p ast.Pattern, scrutVal, scrutTy string, locals map[string]bool) {
	switch pat := p.(type) {
	case *ast.BindingPattern:
		slot := fmt.Sprintf("%%%s.addr", pat.Name)
		fmt.Fprintf(g.out, "  %s = alloca %s\n", slot, scrutTy)
		fmt.Fprintf(g.out, "  store %s %s, %s* %s\n", scrutTy, scrutVal, scrutTy, slot)
		locals[pat.Name] = true
		g.localTypes(pat.Name, scrutTy)
	case *ast.AliasPattern:
		slot := fmt.Sprintf("%%%s.addr", pat.Name)
		fmt.Fprintf(g.out, "  %s = alloca %s\n", slot, scrutTy)
		fmt.Fprintf(g.out, "  store %s %s, %s* %s\n", scrutTy, scrutVal, scrutTy, slot)
		locals[pat.Name] = true
		g.localTypes(pat.Name, scrutTy)
		g.bindPattern(pat.Nested, scrutVal, scrutTy, locals)
	case *ast.EnumVariantPattern:
		typeName := strings.TrimPrefix(scrutTy, "%")
		en, ok := g.table.LookupEnum(typeName)
		if !ok || len(pat.TupleElems) == 0 {
			return
		}
		var variant ast.EnumVariant
		for _, v := range en.Variants {
			if v.Name == pat.VariantName {
				variant = v
			}
		}
		payloadPtr := g.newSSA("bpay")
		fmt.Fprintf(g.out, "  %s = getelementptr %s, %s* %s, i32 0, i32 1\n", payloadPtr, scrutTy, scrutTy, scrutVal)
		if variant.Shape == ast.VariantTuple {
			payTy := "{" + joinLoweredTuple(g, variant.TupleTypes) + "}"
			cast := g.newSSA("bcast")
			fmt.Fprintf(g.out, "  %s = bitcast i8* %s to %s*\n", cast, payloadPtr, payTy)
			for i, sub := range pat.TupleElems {
				if i >= len(variant.TupleTypes) {
					continue
				}
				fty := g.LowerType(variant.TupleTypes[i])
				fptr := g.newSSA("bf")
				fmt.Fprintf(g.out, "  %s = getelementptr %s, %s* %s, i32 0, i32 %d\n", fptr, payTy, payTy, cast, i)
				val := g.newSSA("bv")
				fmt.Fprintf(g.out, "  %s = load %s, %s* %s\n", val, fty, fty, fptr)
				g.bindPattern(sub, val, fty, locals)
			}
		}
	case *ast.TuplePattern:
		for i, sub := range pat.Elems {
			elemVal := g.newSSA("tupelem")
			fmt.Fprintf(g.out, "  %s = extractvalue %s %s, %d\n", elemVal, scrutTy, scrutVal, i)
			g.bindPattern(sub, elemVal, "i64", locals)
		}
	}
}
