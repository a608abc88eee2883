package ast

import (
	"math/big"

	"github.com/vaislang/vais-sub013/internal/typesystem"
)

type exprBase struct{ Tok Token }

func (b *exprBase) expressionNode()      {}
func (b *exprBase) TokenLiteral() string { return b.Tok.Lexeme }
func (b *exprBase) GetToken() Token      { return b.Tok }

type Identifier struct {
	exprBase
	Name string
}

func (i *Identifier) Accept(v Visitor) { v.VisitIdentifier(i) }

type IntLiteral struct {
	exprBase
	Value *big.Int
	// Pinned is non-nil when the literal carries an explicit suffix
	// (e.g. `42i32`); nil means "unbound until defaulting" (spec §4.2
	// "Numeric literals without a pinned type default to i64").
	Pinned typesystem.Type
}

func (l *IntLiteral) Accept(v Visitor) { v.VisitIntLiteral(l) }

type FloatLiteral struct {
	exprBase
	Value  float64
	Pinned typesystem.Type
}

func (l *FloatLiteral) Accept(v Visitor) { v.VisitFloatLiteral(l) }

type BoolLiteral struct {
	exprBase
	Value bool
}

func (l *BoolLiteral) Accept(v Visitor) { v.VisitBoolLiteral(l) }

type StringLiteral struct {
	exprBase
	Value string
	// Parts is non-empty for interpolated strings; each Expression part
	// lowers to a chain of __vais_to_str/__vais_str_concat calls in codegen.
	Parts []Expression
}

func (l *StringLiteral) Accept(v Visitor) { v.VisitStringLiteral(l) }

type CharLiteral struct {
	exprBase
	Value rune
}

func (l *CharLiteral) Accept(v Visitor) { v.VisitCharLiteral(l) }

type UnitLiteral struct{ exprBase }

func (l *UnitLiteral) Accept(v Visitor) { v.VisitUnitLiteral(l) }

type BinaryOp string

const (
	OpAdd BinaryOp = "+"
	OpSub BinaryOp = "-"
	OpMul BinaryOp = "*"
	OpDiv BinaryOp = "/"
	OpMod BinaryOp = "%"
	OpPow BinaryOp = "**"
	OpEq  BinaryOp = "=="
	OpNe  BinaryOp = "!="
	OpLt  BinaryOp = "<"
	OpLe  BinaryOp = "<="
	OpGt  BinaryOp = ">"
	OpGe  BinaryOp = ">="
	OpAnd BinaryOp = "&&"
	OpOr  BinaryOp = "||"
	OpBAnd BinaryOp = "&"
	OpBOr  BinaryOp = "|"
	OpBXor BinaryOp = "^"
	OpShl  BinaryOp = "<<"
	OpShr  BinaryOp = ">>"
)

type BinaryExpression struct {
	exprBase
	Op          BinaryOp
	Left, Right Expression
}

func (e *BinaryExpression) Accept(v Visitor) { v.VisitBinaryExpression(e) }

type UnaryOp string

const (
	OpNeg UnaryOp = "-"
	OpNot UnaryOp = "!"
	OpBNot UnaryOp = "~"
)

type UnaryExpression struct {
	exprBase
	Op      UnaryOp
	Operand Expression
}

func (e *UnaryExpression) Accept(v Visitor) { v.VisitUnaryExpression(e) }

// RangeExpression lowers to {i64 start, i64 end, i1 inclusive}
// (spec §4.3.3 "Range").
type RangeExpression struct {
	exprBase
	Start, End Expression
	Inclusive  bool
}

func (e *RangeExpression) Accept(v Visitor) { v.VisitRangeExpression(e) }

// IfExpression covers both `if` and ternary use (spec §4.3.3).
type IfExpression struct {
	exprBase
	Condition Expression
	Then      *BlockStatement
	Else      Node // *BlockStatement or *IfExpression, or nil
}

func (e *IfExpression) Accept(v Visitor) { v.VisitIfExpression(e) }

type CallExpression struct {
	exprBase
	Callee Expression
	Args   []Expression
}

func (e *CallExpression) Accept(v Visitor) { v.VisitCallExpression(e) }

// FieldAccessExpression is a (possibly chained) `.field` access; the
// codegen collapses `o.a.b` to a single GEP chain (spec §4.3.3).
type FieldAccessExpression struct {
	exprBase
	Receiver Expression
	Field    string
}

func (e *FieldAccessExpression) Accept(v Visitor) { v.VisitFieldAccessExpression(e) }

// MethodCallExpression is `recv.m(args)`; StaticType is set for
// `Type::m(args)` static-call form (spec §4.3.3).
type MethodCallExpression struct {
	exprBase
	Receiver   Expression // nil for static calls
	StaticType string     // non-"" for static calls
	Method     string
	Args       []Expression
}

func (e *MethodCallExpression) Accept(v Visitor) { v.VisitMethodCallExpression(e) }

type IndexExpression struct {
	exprBase
	Receiver Expression
	Index    Expression
}

func (e *IndexExpression) Accept(v Visitor) { v.VisitIndexExpression(e) }

type TupleExpression struct {
	exprBase
	Elems []Expression
}

func (e *TupleExpression) Accept(v Visitor) { v.VisitTupleExpression(e) }

type ArrayExpression struct {
	exprBase
	Elems []Expression
}

func (e *ArrayExpression) Accept(v Visitor) { v.VisitArrayExpression(e) }

// StructLiteralField is one `name: value` pair of a struct literal.
type StructLiteralField struct {
	Name  string
	Value Expression
}

type StructLiteralExpression struct {
	exprBase
	TypeName string
	Fields   []StructLiteralField
}

func (e *StructLiteralExpression) Accept(v Visitor) { v.VisitStructLiteralExpression(e) }

// EnumLiteralExpression constructs a variant (spec §4.3.2 "Variant
// construction writes tag + payload").
type EnumLiteralExpression struct {
	exprBase
	EnumName    string
	VariantName string
	TupleArgs   []Expression
	StructArgs  []StructLiteralField
}

func (e *EnumLiteralExpression) Accept(v Visitor) { v.VisitEnumLiteralExpression(e) }

// MatchArm is one arm of a MatchExpression.
type MatchArm struct {
	Pattern Pattern
	Guard   Expression // optional
	Body    Expression
}

type MatchExpression struct {
	exprBase
	Scrutinee Expression
	Arms      []MatchArm
}

func (e *MatchExpression) Accept(v Visitor) { v.VisitMatchExpression(e) }

// Closures (spec §4.3.5).
type ClosureExpression struct {
	exprBase
	Params   []Param
	IsMove   bool
	Body     Expression
	Captures []string // set by the AST producer; the checker does not compute captures
}

func (e *ClosureExpression) Accept(v Visitor) { v.VisitClosureExpression(e) }

// AwaitExpression is a suspension point (spec §4.3.6). AwaitIndex is
// passed through to codegen as the AST producer set it; no pass in this
// module numbers awaits, so it is 0 unless the producer assigns it.
type AwaitExpression struct {
	exprBase
	Target     Expression
	AwaitIndex int
}

func (e *AwaitExpression) Accept(v Visitor) { v.VisitAwaitExpression(e) }

// SpawnExpression (spec §4.3.6 "spawn e").
type SpawnExpression struct {
	exprBase
	Target Expression
}

func (e *SpawnExpression) Accept(v Visitor) { v.VisitSpawnExpression(e) }

// YieldExpression, single-shot in this design (spec §4.3.6).
type YieldExpression struct {
	exprBase
	Value Expression
}

func (e *YieldExpression) Accept(v Visitor) { v.VisitYieldExpression(e) }

// TryExpression is the `?` propagation operator, right-biased over
// Result/Future's Err/pending arm (spec §3 invariant).
type TryExpression struct {
	exprBase
	Target Expression
}

func (e *TryExpression) Accept(v Visitor) { v.VisitTryExpression(e) }
