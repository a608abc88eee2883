// Package checker implements the type checker of spec §4.2: bidirectional
// inference over a substitution map, pattern exhaustiveness, effect
// inference/reconciliation and monomorphization tracking. The checker
// makes two sweeps over the item list: a header pass that registers every
// item's signature or type, then a body pass per item. This is a
// collapsed form of the teacher's internal/analyzer/processor.go, which
// runs AnalyzeNaming, AnalyzeHeaders, AnalyzeInstances and AnalyzeBodies
// as four ordered passes.
package checker

import (
	"github.com/vaislang/vais-sub013/internal/ast"
	"github.com/vaislang/vais-sub013/internal/diagnostics"
	"github.com/vaislang/vais-sub013/internal/effects"
	"github.com/vaislang/vais-sub013/internal/symbols"
	"github.com/vaislang/vais-sub013/internal/typesystem"
)

// Checker holds the per-module state of spec §4.2: the symbol registry,
// the accumulated diagnostic bag, and the two memoization caches that are
// cleared at the start of every check_module call.
type Checker struct {
	Table *symbols.Table
	Bag   *diagnostics.Bag

	// PromoteNonExhaustive turns non-exhaustive match warnings into
	// errors (spec §4.2 "may be promoted to error via configuration").
	PromoteNonExhaustive bool

	substCache map[string]typesystem.Type
	exhCache   map[string]exhResult

	genericBounds map[string][]string // generic param name -> trait bounds, current function scope
	currentFn     *ast.FunctionSig
	inferredFx    effects.Set
}

// New creates a checker bound to an existing symbol registry.
func New(table *symbols.Table) *Checker {
	return &Checker{
		Table:      table,
		Bag:        diagnostics.NewBag(0),
		substCache: make(map[string]typesystem.Type),
		exhCache:   make(map[string]exhResult),
	}
}

// CheckModule is check_module(Module) -> Result<(), [TypeError]> (spec
// §4.2 "Top level"). A fatal error inside one item aborts that item only;
// the checker continues with the remaining items, matching the teacher's
// per-file sweep that appends to a shared error slice rather than
// short-circuiting the whole analysis.
func (c *Checker) CheckModule(mod *ast.Module) *diagnostics.Bag {
	c.substCache = make(map[string]typesystem.Type)
	c.exhCache = make(map[string]exhResult)

	c.declareHeaders(mod)
	for _, item := range mod.Items {
		c.checkItem(item)
	}
	return c.Bag
}

// declareHeaders registers every item's signature/type in the symbol
// table before bodies are checked, so mutually-recursive functions and
// forward-referenced types resolve (spec §4.1 registry is populated
// ahead of §4.2 body checking).
func (c *Checker) declareHeaders(mod *ast.Module) {
	for _, item := range mod.Items {
		switch it := item.(type) {
		case *ast.Function:
			c.Table.DefineFunction(it.Sig.Name, &it.Sig)
		case *ast.ExternFunction:
			c.Table.DefineFunction(it.Sig.Name, &it.Sig)
		case *ast.Trait:
			c.Table.DefineTrait(it)
		case *ast.TraitAlias:
			c.Table.DefineTraitAlias(it.Name, it.Members)
		case *ast.Struct:
			c.Table.DefineType(it.Name, typesystem.Named{Name: it.Name})
			c.Table.DefineStruct(it)
		case *ast.Enum:
			c.Table.DefineType(it.Name, typesystem.Named{Name: it.Name})
			c.Table.DefineEnum(it)
		case *ast.Union:
			c.Table.DefineType(it.Name, typesystem.Named{Name: it.Name})
		case *ast.TypeDef:
			c.Table.DefineType(it.Name, it.Underlying)
		}
	}
}

func (c *Checker) checkItem(item ast.Item) {
	switch it := item.(type) {
	case *ast.Function:
		c.checkFunction(it)
	case *ast.Impl:
		c.checkImpl(it)
	default:
		// Struct/Enum/Union/Trait/TraitAlias/TypeDef/Const/Use/Macro/
		// ModuleDecl carry no executable body for this checker to
		// verify beyond the header registration already done above.
	}
}

func (c *Checker) checkImpl(im *ast.Impl) {
	assoc := make(map[string]typesystem.Type)
	for k, v := range im.AssocTypes {
		assoc[k] = v
	}
	methods := make(map[string]*ast.Function)
	for _, fn := range im.Methods {
		methods[fn.Sig.Name] = fn
	}
	traitName := im.TraitName // "" for inherent impls
	if err := c.Table.RegisterImpl(traitName, im.TypeName, assoc, methods); err != nil {
		c.Bag.Add(diagnostics.New(diagnostics.ErrDuplicateDefinition, im.GetToken().Span.Diag(), "", err.Error()))
	}
	for _, fn := range im.Methods {
		c.checkFunction(fn)
	}
}
