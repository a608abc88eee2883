package ast

import "math/big"

// Pattern is the closed sum of match/let patterns supported by
// spec §4.3.7: literal, wildcard, binding, range, tuple, enum-variant
// (unit/tuple/struct), struct, alias.
type Pattern interface {
	Node
	patternNode()
	GetToken() Token
}

type patternBase struct{ Tok Token }

func (b *patternBase) patternNode()       {}
func (b *patternBase) TokenLiteral() string { return b.Tok.Lexeme }
func (b *patternBase) GetToken() Token      { return b.Tok }

type WildcardPattern struct{ patternBase }

func (p *WildcardPattern) Accept(v Visitor) { v.VisitWildcardPattern(p) }

type BindingPattern struct {
	patternBase
	Name string
}

func (p *BindingPattern) Accept(v Visitor) { v.VisitBindingPattern(p) }

type LiteralPattern struct {
	patternBase
	Int    *big.Int
	Float  *float64
	Bool   *bool
	Str    *string
	Char   *rune
}

func (p *LiteralPattern) Accept(v Visitor) { v.VisitLiteralPattern(p) }

type RangePattern struct {
	patternBase
	Lo, Hi    *big.Int
	Inclusive bool
}

func (p *RangePattern) Accept(v Visitor) { v.VisitRangePattern(p) }

type TuplePattern struct {
	patternBase
	Elems []Pattern
}

func (p *TuplePattern) Accept(v Visitor) { v.VisitTuplePattern(p) }

type StructPattern struct {
	patternBase
	TypeName string
	Fields   map[string]Pattern
}

func (p *StructPattern) Accept(v Visitor) { v.VisitStructPattern(p) }

// EnumVariantPattern covers all three variant shapes; which of
// TupleElems/StructFields is populated depends on the matched variant's
// VariantShape (spec §3 "Enum variant shape").
type EnumVariantPattern struct {
	patternBase
	EnumName     string
	VariantName  string
	TupleElems   []Pattern
	StructFields map[string]Pattern
}

func (p *EnumVariantPattern) Accept(v Visitor) { v.VisitEnumVariantPattern(p) }

// AliasPattern is `p @ q` (spec §4.3.7).
type AliasPattern struct {
	patternBase
	Name    string
	Nested  Pattern
}

func (p *AliasPattern) Accept(v Visitor) { v.VisitAliasPattern(p) }
