package codegen

import (
	"math/big"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/vaislang/vais-sub013/internal/ast"
	"github.com/vaislang/vais-sub013/internal/symbols"
	"github.com/vaislang/vais-sub013/internal/typesystem"
)

// addFunction builds `fn add(a: i64, b: i64) -> i64 { return a + b }`
// directly as an AST, standing in for the out-of-scope parser.
func addFunction() *ast.Function {
	return &ast.Function{
		Sig: ast.FunctionSig{
			Name:       "add",
			Params:     []ast.Param{{Name: "a", Type: typesystem.TI64}, {Name: "b", Type: typesystem.TI64}},
			ReturnType: typesystem.TI64,
		},
		Body: &ast.BlockStatement{
			Statements: []ast.Statement{
				&ast.ReturnStatement{
					Value: &ast.BinaryExpression{
						Op:    ast.OpAdd,
						Left:  &ast.Identifier{Name: "a"},
						Right: &ast.Identifier{Name: "b"},
					},
				},
			},
		},
	}
}

func TestGenerateModuleEmitsFunction(t *testing.T) {
	mod := &ast.Module{Path: "add.vais", Items: []ast.Item{addFunction()}}
	g := New(symbols.New())

	ir, errs := g.GenerateModule(mod)
	assert.Empty(t, errs)
	assert.Contains(t, ir, "define i64 @add(i64 %a, i64 %b)")
	assert.Contains(t, ir, "add i64")
	assert.Contains(t, ir, "ret i64")
}

func TestGenerateModuleIncludesRuntimeDecls(t *testing.T) {
	mod := &ast.Module{Path: "empty.vais"}
	g := New(symbols.New())

	ir, errs := g.GenerateModule(mod)
	assert.Empty(t, errs)
	assert.True(t, strings.Contains(ir, "declare i8* @malloc(i64)"))
	assert.True(t, strings.Contains(ir, "declare i64 @__vais_await(i64*, i64)"))
}

func TestGenerateModuleInternsStringLiteralsOnce(t *testing.T) {
	fn := &ast.Function{
		Sig: ast.FunctionSig{Name: "greet", ReturnType: typesystem.TI64},
		Body: &ast.BlockStatement{
			Statements: []ast.Statement{
				&ast.ExpressionStatement{Expression: &ast.StringLiteral{Value: "hi"}},
				&ast.ExpressionStatement{Expression: &ast.StringLiteral{Value: "hi"}},
				&ast.ReturnStatement{Value: &ast.IntLiteral{Value: big.NewInt(0)}},
			},
		},
	}
	mod := &ast.Module{Path: "greet.vais", Items: []ast.Item{fn}}
	g := New(symbols.New())

	ir, errs := g.GenerateModule(mod)
	assert.Empty(t, errs)
	assert.Equal(t, 1, strings.Count(ir, `c"hi\00"`), "identical string literals should share one global")
}
