// Package ast defines the immutable tree of items, spans, resolved
// types, and effect sets that the (out-of-scope) parser is assumed to
// produce (spec §1, §3). Node shape, the Accept(Visitor) dispatch, and
// the GetToken()/TokenLiteral() accessors follow the teacher's
// internal/ast/ast_core.go.
package ast

import "github.com/vaislang/vais-sub013/internal/typesystem"

// Node is the base interface for all AST nodes. Spans are carried on
// concrete nodes via Token but are purely informational — node equality
// (e.g. for caching and tests) must ignore them.
type Node interface {
	TokenLiteral() string
	Accept(v Visitor)
}

// Statement is a Node that represents a statement.
type Statement interface {
	Node
	statementNode()
	GetToken() Token
}

// Expression is a Node that represents an expression.
type Expression interface {
	Node
	expressionNode()
	GetToken() Token
}

// Visibility is an item's visibility (spec §3 "Items").
type Visibility int

const (
	Private Visibility = iota
	Public
)

// Attribute is a name + string-arg list attached to an item (spec §3).
type Attribute struct {
	Name string
	Args []string
}

// Module is an ordered list of items (spec §3 "A Module is an ordered
// list of items").
type Module struct {
	Path  string
	Items []Item
}

func (m *Module) TokenLiteral() string {
	if len(m.Items) > 0 {
		return m.Items[0].TokenLiteral()
	}
	return ""
}
func (m *Module) Accept(v Visitor) { v.VisitModule(m) }

// Item is any top-level declaration (spec §3: Function, ExternFunction,
// Struct, Enum, Union, Trait, TraitAlias, Impl, TypeDef, Const, Use,
// Macro, ModuleDecl).
type Item interface {
	Node
	itemNode()
	GetToken() Token
	GetVisibility() Visibility
	GetAttributes() []Attribute
}

type itemBase struct {
	Tok        Token
	Visibility Visibility
	Attributes []Attribute
}

func (b *itemBase) itemNode()                   {}
func (b *itemBase) GetToken() Token             { return b.Tok }
func (b *itemBase) TokenLiteral() string        { return b.Tok.Lexeme }
func (b *itemBase) GetVisibility() Visibility    { return b.Visibility }
func (b *itemBase) GetAttributes() []Attribute   { return b.Attributes }

// FunctionSig is the full function-signature shape of spec §3.
type FunctionSig struct {
	Name             string
	GenericParams    []GenericParam       // name -> trait bounds
	HKTParams        map[string]int       // name -> arity
	Params           []Param
	ReturnType       typesystem.Type
	IsAsync          bool
	IsVararg         bool
	RequiredParams   int // prefix that is not defaulted
	Contract         *Contract
	EffectAnnotation EffectAnnotationKind
	DeclaredEffects  []string // effect kind names, meaningful iff EffectAnnotation == EffectDeclared
	InferredEffects  []string // filled in by the checker (spec §3)
}

type GenericParam struct {
	Name   string
	Bounds []string // trait names
}

type Param struct {
	Name  string
	Type  typesystem.Type
	IsMut bool
}

// Contract stores requires/ensures expressions as strings + spans
// (spec §4.2 "Contracts"): parsed but not semantically checked beyond
// syntactic validity and identifier resolution.
type Contract struct {
	Requires []ContractClause
	Ensures  []ContractClause
}

type ContractClause struct {
	Text string
	Span Span
}

type EffectAnnotationKind int

const (
	EffectInfer EffectAnnotationKind = iota
	EffectDeclared
	EffectPure
)

// Function is a top-level function item.
type Function struct {
	itemBase
	Sig  FunctionSig
	Body *BlockStatement
}

func (f *Function) Accept(v Visitor) { v.VisitFunction(f) }

// ExternFunction declares a foreign function with no body.
type ExternFunction struct {
	itemBase
	Sig FunctionSig
}

func (f *ExternFunction) Accept(v Visitor) { v.VisitExternFunction(f) }

// StructField is one field of a Struct.
type StructField struct {
	Name string
	Type typesystem.Type
}

// Struct is a product-type declaration; fields keep declaration order
// (spec §4.3.2 "no field reordering even without repr(C)").
type Struct struct {
	itemBase
	Name          string
	GenericParams []GenericParam
	Fields        []StructField
	ReprC         bool
}

func (s *Struct) Accept(v Visitor) { v.VisitStruct(s) }

// VariantShape discriminates the three enum-variant shapes of spec §3.
type VariantShape int

const (
	VariantUnit VariantShape = iota
	VariantTuple
	VariantStruct
)

// EnumVariant carries a stable 0-based tag assigned by declaration
// order (spec §3 "Enum variant shape").
type EnumVariant struct {
	Name        string
	Shape       VariantShape
	TupleTypes  []typesystem.Type      // VariantTuple
	StructTypes []StructField          // VariantStruct
	Tag         int
}

type Enum struct {
	itemBase
	Name          string
	GenericParams []GenericParam
	Variants      []EnumVariant
}

func (e *Enum) Accept(v Visitor) { v.VisitEnum(e) }

// Union is an untagged, C-style union (spec §4.3.2): all fields occupy
// offset 0 and no runtime tag is emitted.
type Union struct {
	itemBase
	Name   string
	Fields []StructField
}

func (u *Union) Accept(v Visitor) { v.VisitUnion(u) }

type Trait struct {
	itemBase
	Name          string
	GenericParams []GenericParam
	AssocTypes    []string
	Methods       []FunctionSig
}

func (t *Trait) Accept(v Visitor) { v.VisitTrait(t) }

// TraitAlias expands to a conjunction of other traits on query
// (spec §4.1 "Trait aliases").
type TraitAlias struct {
	itemBase
	Name    string
	Members []string
}

func (t *TraitAlias) Accept(v Visitor) { v.VisitTraitAlias(t) }

// Impl implements a trait for a type, or is an inherent impl block when
// TraitName == "".
type Impl struct {
	itemBase
	TraitName     string
	TypeName      string
	GenericParams []GenericParam
	AssocTypes    map[string]typesystem.Type
	Methods       []*Function
}

func (i *Impl) Accept(v Visitor) { v.VisitImpl(i) }

type TypeDef struct {
	itemBase
	Name          string
	GenericParams []GenericParam
	Underlying    typesystem.Type
}

func (t *TypeDef) Accept(v Visitor) { v.VisitTypeDef(t) }

type Const struct {
	itemBase
	Name  string
	Type  typesystem.Type
	Value Expression
}

func (c *Const) Accept(v Visitor) { v.VisitConst(c) }

type Use struct {
	itemBase
	Path  string
	Alias string
}

func (u *Use) Accept(v Visitor) { v.VisitUse(u) }

// Macro is a token-tree rule set consumed by the macro expander (D).
type Macro struct {
	itemBase
	Name  string
	Rules []MacroRule
}

func (m *Macro) Accept(v Visitor) { v.VisitMacro(m) }

type MacroRule struct {
	Pattern []string // token-tree pattern, textual
	Body    []string // token-tree template, textual
}

type ModuleDecl struct {
	itemBase
	Name string
}

func (m *ModuleDecl) Accept(v Visitor) { v.VisitModuleDecl(m) }
