// Package macro implements the macro expander of spec component D:
// token-tree rules (`macro name { (pattern) => { body } }`) matched and
// substituted before parsing proceeds, plus `derive` expansion that
// synthesizes trait impls for structs (enums have no derive support).
// The rule-table-keyed-by-name
// shape follows the teacher's treatment of small name-keyed registries
// (symbols.Table's flat maps, modules.Loader's module cache) rather than
// any single teacher macro system — funvibe-funxy has no macro facility,
// so this package's token-tree matcher is original code built in that
// idiom.
package macro

import (
	"fmt"
	"math/big"
	"strings"

	"github.com/vaislang/vais-sub013/internal/ast"
	"github.com/vaislang/vais-sub013/internal/typesystem"
)

// Expander holds the table of declared macros, keyed by name, and
// expands invocations against their token-tree rules.
type Expander struct {
	macros map[string]*ast.Macro
}

func New() *Expander {
	return &Expander{macros: make(map[string]*ast.Macro)}
}

// Register adds a macro declaration to the table; a later declaration
// with the same name replaces the earlier one (macros are not
// overload-resolved, unlike trait methods).
func (e *Expander) Register(m *ast.Macro) {
	e.macros[m.Name] = m
}

// ExpandModule walks a module's items, registering every Macro
// declaration it finds. Macro bodies themselves carry no further AST to
// walk into (spec §4's Macro stores rules as raw token text), so this is
// a single flat pass rather than a recursive visitor.
func (e *Expander) ExpandModule(mod *ast.Module) {
	for _, item := range mod.Items {
		if m, ok := item.(*ast.Macro); ok {
			e.Register(m)
		}
	}
}

// Expand matches args (the invocation's argument token stream) against
// each of the named macro's rules in declaration order, and returns the
// substituted body of the first matching rule. The expansion itself is
// purely textual token substitution — re-parsing the result into AST is
// the external parser's job (spec §1: the parser producing AST from
// source is out of scope here).
func (e *Expander) Expand(name string, args []string) ([]string, error) {
	m, ok := e.macros[name]
	if !ok {
		return nil, fmt.Errorf("undefined macro %s", name)
	}
	for _, rule := range m.Rules {
		if bindings, ok := matchPattern(rule.Pattern, args); ok {
			return substitute(rule.Body, bindings), nil
		}
	}
	return nil, fmt.Errorf("no rule of macro %s matches the given arguments", name)
}

// matchPattern attempts to align pattern against args positionally.
// A pattern token of the form "$name" binds that single argument token;
// "$name..." binds every remaining argument token (must be the pattern's
// last element). Any other pattern token must match the argument token
// verbatim.
func matchPattern(pattern, args []string) (map[string]string, bool) {
	bindings := make(map[string]string)
	for i, p := range pattern {
		if strings.HasSuffix(p, "...") && strings.HasPrefix(p, "$") {
			name := strings.TrimSuffix(strings.TrimPrefix(p, "$"), "...")
			if i != len(pattern)-1 {
				return nil, false // only valid as the final pattern element
			}
			bindings[name] = strings.Join(args[i:], ", ")
			return bindings, true
		}
		if i >= len(args) {
			return nil, false
		}
		if strings.HasPrefix(p, "$") {
			bindings[strings.TrimPrefix(p, "$")] = args[i]
			continue
		}
		if p != args[i] {
			return nil, false
		}
	}
	if len(pattern) != len(args) {
		return nil, false
	}
	return bindings, true
}

// substitute replaces every "$name" occurrence in body with its bound
// token text, leaving any unbound metavariable reference untouched (a
// bug in the macro definition, not something this expander repairs).
func substitute(body []string, bindings map[string]string) []string {
	out := make([]string, len(body))
	for i, tok := range body {
		if strings.HasPrefix(tok, "$") {
			if v, ok := bindings[strings.TrimPrefix(tok, "$")]; ok {
				out[i] = v
				continue
			}
		}
		out[i] = tok
	}
	return out
}

// SupportedDerives is the closed set of traits this expander knows how
// to synthesize an impl for.
var SupportedDerives = map[string]bool{
	"Eq": true, "PartialEq": true, "Clone": true, "Debug": true, "Default": true,
}

// DeriveStruct synthesizes an inherent-trait Impl for a #[derive(Trait)]
// attribute on a struct, field-wise (spec's supplemented derive-expansion
// feature): PartialEq/Eq compare every field with `&&`, Clone constructs
// a new struct literal copying every field, Debug builds an interpolated
// string of "Name { f1: .., f2: .. }", Default fills every primitive
// field with a zero literal and every other field with a unit literal.
func DeriveStruct(trait string, s *ast.Struct) (*ast.Impl, error) {
	if !SupportedDerives[trait] {
		return nil, fmt.Errorf("no derive implementation for trait %s", trait)
	}
	switch trait {
	case "Eq", "PartialEq":
		return deriveEquality(trait, s), nil
	case "Clone":
		return deriveClone(s), nil
	case "Debug":
		return deriveDebug(s), nil
	case "Default":
		return deriveDefault(s), nil
	}
	return nil, fmt.Errorf("unreachable")
}

func selfField(name string) ast.Expression {
	return &ast.FieldAccessExpression{Receiver: &ast.Identifier{Name: "self"}, Field: name}
}

func otherField(name string) ast.Expression {
	return &ast.FieldAccessExpression{Receiver: &ast.Identifier{Name: "other"}, Field: name}
}

func deriveEquality(trait string, s *ast.Struct) *ast.Impl {
	var cond ast.Expression
	for i, f := range s.Fields {
		eq := &ast.BinaryExpression{Op: ast.OpEq, Left: selfField(f.Name), Right: otherField(f.Name)}
		if i == 0 {
			cond = eq
		} else {
			cond = &ast.BinaryExpression{Op: ast.OpAnd, Left: cond, Right: eq}
		}
	}
	if cond == nil {
		cond = &ast.BoolLiteral{Value: true}
	}
	body := &ast.BlockStatement{Statements: []ast.Statement{
		&ast.ExpressionStatement{Expression: cond},
	}}
	method := &ast.Function{
		Sig: ast.FunctionSig{
			Name: "eq",
			Params: []ast.Param{
				{Name: "self", Type: typesystem.Named{Name: s.Name}},
				{Name: "other", Type: typesystem.Named{Name: s.Name}},
			},
			ReturnType: typesystem.TBool,
		},
		Body: body,
	}
	return &ast.Impl{TraitName: trait, TypeName: s.Name, Methods: []*ast.Function{method}}
}

func deriveClone(s *ast.Struct) *ast.Impl {
	fields := make([]ast.StructLiteralField, len(s.Fields))
	for i, f := range s.Fields {
		fields[i] = ast.StructLiteralField{Name: f.Name, Value: selfField(f.Name)}
	}
	body := &ast.BlockStatement{Statements: []ast.Statement{
		&ast.ExpressionStatement{Expression: &ast.StructLiteralExpression{TypeName: s.Name, Fields: fields}},
	}}
	method := &ast.Function{
		Sig: ast.FunctionSig{
			Name:       "clone",
			Params:     []ast.Param{{Name: "self", Type: typesystem.Named{Name: s.Name}}},
			ReturnType: typesystem.Named{Name: s.Name},
		},
		Body: body,
	}
	return &ast.Impl{TraitName: "Clone", TypeName: s.Name, Methods: []*ast.Function{method}}
}

func deriveDebug(s *ast.Struct) *ast.Impl {
	var parts []ast.Expression
	parts = append(parts, &ast.StringLiteral{Value: s.Name + " { "})
	for i, f := range s.Fields {
		sep := ""
		if i > 0 {
			sep = ", "
		}
		parts = append(parts, &ast.StringLiteral{Value: sep + f.Name + ": "}, selfField(f.Name))
	}
	parts = append(parts, &ast.StringLiteral{Value: " }"})
	body := &ast.BlockStatement{Statements: []ast.Statement{
		&ast.ExpressionStatement{Expression: &ast.StringLiteral{Parts: parts}},
	}}
	method := &ast.Function{
		Sig: ast.FunctionSig{
			Name:       "debug",
			Params:     []ast.Param{{Name: "self", Type: typesystem.Named{Name: s.Name}}},
			ReturnType: typesystem.TStr,
		},
		Body: body,
	}
	return &ast.Impl{TraitName: "Debug", TypeName: s.Name, Methods: []*ast.Function{method}}
}

func deriveDefault(s *ast.Struct) *ast.Impl {
	fields := make([]ast.StructLiteralField, len(s.Fields))
	for i, f := range s.Fields {
		fields[i] = ast.StructLiteralField{Name: f.Name, Value: zeroValue(f.Type)}
	}
	body := &ast.BlockStatement{Statements: []ast.Statement{
		&ast.ExpressionStatement{Expression: &ast.StructLiteralExpression{TypeName: s.Name, Fields: fields}},
	}}
	method := &ast.Function{
		Sig: ast.FunctionSig{
			Name:       "default",
			ReturnType: typesystem.Named{Name: s.Name},
		},
		Body: body,
	}
	return &ast.Impl{TraitName: "Default", TypeName: s.Name, Methods: []*ast.Function{method}}
}

// zeroValue produces the literal AST node for a type's default value,
// used by derive(Default) field initializers.
func zeroValue(t typesystem.Type) ast.Expression {
	p, ok := t.(typesystem.Primitive)
	if !ok {
		return &ast.UnitLiteral{}
	}
	switch {
	case p.Kind.IsIntegral():
		return &ast.IntLiteral{Value: big.NewInt(0), Pinned: t}
	case p.Kind.IsFloat():
		return &ast.FloatLiteral{Value: 0, Pinned: t}
	case p.Kind == typesystem.Bool:
		return &ast.BoolLiteral{Value: false}
	case p.Kind == typesystem.Str:
		return &ast.StringLiteral{Value: ""}
	default:
		return &ast.UnitLiteral{}
	}
}
