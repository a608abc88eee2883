// Package symbols implements the scope-stacked name resolution and
// global trait/impl/instantiation registry of spec §4.1. The LIFO scope
// chain and outer-delegating lookup methods follow the teacher's
// internal/symbols/symbol_table_*.go family.
package symbols

import (
	"strings"

	"github.com/vaislang/vais-sub013/internal/ast"
	"github.com/vaislang/vais-sub013/internal/typesystem"
)

type SymbolKind int

const (
	VariableSymbol SymbolKind = iota
	TypeSymbol
	ConstructorSymbol
	TraitSymbol
	ModuleSymbol
)

type ScopeType int

const (
	ScopePrelude ScopeType = iota
	ScopeGlobal
	ScopeFunction
	ScopeBlock
)

type Symbol struct {
	Name           string
	Type           typesystem.Type
	Kind           SymbolKind
	Span           ast.Span
	DefinitionFile string
}

// Scope is one level of the lexical scope stack.
type Scope struct {
	Kind    ScopeType
	symbols map[string]Symbol
	outer   *Scope
}

func newScope(kind ScopeType, outer *Scope) *Scope {
	return &Scope{Kind: kind, symbols: make(map[string]Symbol), outer: outer}
}

// Table is the scope-stacked registry plus the flat global tables for
// functions, types, traits, impls and instantiations (spec §4.1).
type Table struct {
	top *Scope

	// flat global registries
	functions map[string]*ast.FunctionSig
	types     map[string]typesystem.Type
	traits    map[string]*ast.Trait
	aliases   map[string][]string // trait alias -> member trait names
	enums     map[string]*ast.Enum
	structs   map[string]*ast.Struct

	impls       map[implKey]*ImplRecord
	instances   map[string]*Instantiation // mangled name -> record
	builtinOK   map[string]map[string]bool // type name -> trait name -> satisfied
}

type implKey struct {
	Trait string
	Type  string
}

type ImplRecord struct {
	TraitName  string
	TypeName   string
	AssocTypes map[string]typesystem.Type
	Methods    map[string]*ast.Function
}

// Instantiation is one entry of the generic instantiation table
// (spec §3 "Generic instantiation table").
type Instantiation struct {
	Base        string
	TypeArgs    []typesystem.Type
	ConstArgs   []ConstArg
	MangledName string
}

type ConstArg struct {
	Name  string
	Value int64
}

// New creates a registry with an initial prelude scope.
func New() *Table {
	t := &Table{
		functions: make(map[string]*ast.FunctionSig),
		types:     make(map[string]typesystem.Type),
		traits:    make(map[string]*ast.Trait),
		aliases:   make(map[string][]string),
		enums:     make(map[string]*ast.Enum),
		structs:   make(map[string]*ast.Struct),
		impls:     make(map[implKey]*ImplRecord),
		instances: make(map[string]*Instantiation),
		builtinOK: make(map[string]map[string]bool),
	}
	t.top = newScope(ScopePrelude, nil)
	t.registerBuiltinTraitImpls()
	return t
}

// PushScope opens a new lexically nested scope (spec §4.1 "push_scope").
func (t *Table) PushScope(kind ScopeType) {
	t.top = newScope(kind, t.top)
}

// PopScope closes the innermost scope (spec §4.1 "pop_scope"); popping
// the prelude scope is a no-op, since it is the permanent root.
func (t *Table) PopScope() {
	if t.top.outer != nil {
		t.top = t.top.outer
	}
}

// Define binds name in the current scope, returning the symbol it
// shadows (if any) for redefinition diagnostics (spec §4.1 "define").
func (t *Table) Define(name string, kind SymbolKind, typ typesystem.Type, span ast.Span) *Symbol {
	var shadowed *Symbol
	if existing, ok := t.top.symbols[name]; ok {
		s := existing
		shadowed = &s
	}
	t.top.symbols[name] = Symbol{Name: name, Type: typ, Kind: kind, Span: span}
	return shadowed
}

// Resolve walks the scope chain inner-to-outer (spec §4.1 "resolve").
func (t *Table) Resolve(name string) (Symbol, bool) {
	for s := t.top; s != nil; s = s.outer {
		if sym, ok := s.symbols[name]; ok {
			return sym, true
		}
	}
	return Symbol{}, false
}

// Suggest returns up to 3 in-scope names within Levenshtein distance 2
// of name, for "did you mean" diagnostics (spec §4.1 "resolve").
func (t *Table) Suggest(name string) []string {
	var candidates []string
	seen := make(map[string]bool)
	for s := t.top; s != nil; s = s.outer {
		for n := range s.symbols {
			if seen[n] {
				continue
			}
			seen[n] = true
			if levenshtein(name, n) <= 2 {
				candidates = append(candidates, n)
			}
		}
	}
	if len(candidates) > 3 {
		candidates = candidates[:3]
	}
	return candidates
}

func levenshtein(a, b string) int {
	if a == b {
		return 0
	}
	la, lb := len(a), len(b)
	if la == 0 {
		return lb
	}
	if lb == 0 {
		return la
	}
	prev := make([]int, lb+1)
	cur := make([]int, lb+1)
	for j := 0; j <= lb; j++ {
		prev[j] = j
	}
	for i := 1; i <= la; i++ {
		cur[0] = i
		for j := 1; j <= lb; j++ {
			cost := 1
			if a[i-1] == b[j-1] {
				cost = 0
			}
			del := prev[j] + 1
			ins := cur[j-1] + 1
			sub := prev[j-1] + cost
			m := del
			if ins < m {
				m = ins
			}
			if sub < m {
				m = sub
			}
			cur[j] = m
		}
		prev, cur = cur, prev
	}
	return prev[lb]
}

// DefineFunction registers a function signature in the flat global
// table, keyed by name.
func (t *Table) DefineFunction(name string, sig *ast.FunctionSig) {
	t.functions[name] = sig
}

func (t *Table) LookupFunction(name string) (*ast.FunctionSig, bool) {
	sig, ok := t.functions[name]
	return sig, ok
}

func (t *Table) DefineType(name string, typ typesystem.Type) {
	t.types[name] = typ
}

func (t *Table) ResolveTypeName(name string) (typesystem.Type, bool) {
	if strings.Contains(name, ".") {
		parts := strings.SplitN(name, ".", 2)
		if typ, ok := t.types[parts[0]+"."+parts[1]]; ok {
			return typ, true
		}
	}
	typ, ok := t.types[name]
	return typ, ok
}

func (t *Table) DefineTrait(tr *ast.Trait) {
	t.traits[tr.Name] = tr
}

func (t *Table) LookupTrait(name string) (*ast.Trait, bool) {
	tr, ok := t.traits[name]
	return tr, ok
}

func (t *Table) DefineTraitAlias(name string, members []string) {
	t.aliases[name] = members
}

// DefineEnum/LookupEnum and DefineStruct/LookupStruct keep the raw item
// declarations available to later passes (exhaustiveness checking needs
// variant lists; field-access inference needs struct layouts) that the
// flat `types` map alone — which only records the resolved Named handle
// — cannot serve.
func (t *Table) DefineEnum(e *ast.Enum) { t.enums[e.Name] = e }

func (t *Table) LookupEnum(name string) (*ast.Enum, bool) {
	e, ok := t.enums[name]
	return e, ok
}

func (t *Table) DefineStruct(s *ast.Struct) { t.structs[s.Name] = s }

func (t *Table) LookupStruct(name string) (*ast.Struct, bool) {
	s, ok := t.structs[name]
	return s, ok
}
