package checker

import (
	"strings"

	"github.com/vaislang/vais-sub013/internal/ast"
	"github.com/vaislang/vais-sub013/internal/diagnostics"
	"github.com/vaislang/vais-sub013/internal/symbols"
	"github.com/vaislang/vais-sub013/internal/typesystem"
)

// exhResult is the cached outcome of one usefulness-algorithm run, keyed
// by (type-key, pattern-set-key) per spec §4.2 "Exhaustiveness is
// computed per (type-key, pattern-set-key) and cached".
type exhResult struct {
	Exhaustive      bool
	UnreachableArms []int // indices into the arm list that are subsumed by an earlier arm
}

// checkMatch implements check_match(scrutinee, arms) (spec §4.2): every
// arm's pattern must match the scrutinee type, every guard must be Bool,
// every arm body must unify, and the arm set must be exhaustive (a
// warning by default, promotable to error).
func (c *Checker) checkMatch(m *ast.MatchExpression, expected typesystem.Type) typesystem.Type {
	scrutT := c.inferExpr(m.Scrutinee, nil)

	var bodyT typesystem.Type
	for i, arm := range m.Arms {
		c.Table.PushScope(symbols.ScopeBlock)
		c.bindPattern(arm.Pattern, scrutT)
		if arm.Guard != nil {
			c.inferExpr(arm.Guard, typesystem.TBool)
		}
		armT := c.inferExpr(arm.Body, expected)
		c.Table.PopScope()

		if i == 0 {
			bodyT = armT
		} else {
			unifyOrDiag(c, armT, bodyT, arm.Pattern.GetToken())
		}
	}

	result := c.usefulness(scrutT, m.Arms)
	for _, idx := range result.UnreachableArms {
		c.Bag.Add(diagnostics.NewWarning(diagnostics.ErrUnreachablePattern, m.Arms[idx].Pattern.GetToken().Span.Diag(), "",
			"unreachable pattern: an earlier arm already matches every value this one does"))
	}
	if !result.Exhaustive {
		d := diagnostics.NewWarning(diagnostics.ErrNonExhaustiveMatch, m.GetToken().Span.Diag(), "",
			"match is not exhaustive")
		if c.PromoteNonExhaustive {
			d.IsWarning = false
		}
		c.Bag.Add(d)
	}

	return bodyT
}

// usefulness runs the cached usefulness check described in spec §4.2.
// This is a practical approximation of the full Maranget algorithm,
// sufficient for the pattern shapes of spec §4.3.7: it tracks which
// constructors (enum variant tags, literal values, or a wildcard/binding)
// are covered, in order, and calls a later pattern unreachable once an
// earlier wildcard or an earlier occurrence of its exact constructor has
// already covered it.
func (c *Checker) usefulness(scrutT typesystem.Type, arms []ast.MatchArm) exhResult {
	key := exhKey(scrutT, arms)
	if cached, ok := c.exhCache[key]; ok {
		return cached
	}

	seenWildcard := false
	seenCtors := make(map[string]bool)
	var unreachable []int
	for i, arm := range arms {
		if seenWildcard {
			unreachable = append(unreachable, i)
			continue
		}
		ctor := patternCtorKey(arm.Pattern)
		if ctor == "_" {
			seenWildcard = true
			continue
		}
		if arm.Guard == nil && seenCtors[ctor] {
			unreachable = append(unreachable, i)
			continue
		}
		if arm.Guard == nil && ctor != "range" {
			seenCtors[ctor] = true
		}
	}

	exhaustive := seenWildcard || c.allVariantsCovered(scrutT, seenCtors)
	result := exhResult{Exhaustive: exhaustive, UnreachableArms: unreachable}
	c.exhCache[key] = result
	return result
}

// allVariantsCovered checks, for an enum scrutinee, whether every
// declared variant tag was seen; for every other scrutinee type a
// wildcard/binding arm is required for exhaustiveness (bools and
// integers have too large or unenumerable a domain to track here).
func (c *Checker) allVariantsCovered(scrutT typesystem.Type, seen map[string]bool) bool {
	named, ok := scrutT.(typesystem.Named)
	if !ok {
		return false
	}
	en, ok := c.Table.LookupEnum(named.Name)
	if !ok {
		return false
	}
	for _, v := range en.Variants {
		if !seen[en.Name+"::"+v.Name] {
			return false
		}
	}
	return true
}

// patternCtorKey returns "_" for wildcard/plain-binding patterns (which
// cover every remaining value) and a stable constructor key otherwise.
func patternCtorKey(p ast.Pattern) string {
	switch pt := p.(type) {
	case *ast.WildcardPattern:
		return "_"
	case *ast.BindingPattern:
		return "_"
	case *ast.AliasPattern:
		return patternCtorKey(pt.Nested)
	case *ast.EnumVariantPattern:
		return pt.EnumName + "::" + pt.VariantName
	case *ast.LiteralPattern:
		switch {
		case pt.Int != nil:
			return "int:" + pt.Int.String()
		case pt.Float != nil:
			return "float"
		case pt.Bool != nil:
			if *pt.Bool {
				return "bool:true"
			}
			return "bool:false"
		case pt.Str != nil:
			return "str:" + *pt.Str
		case pt.Char != nil:
			return "char:" + string(*pt.Char)
		}
		return "lit"
	case *ast.RangePattern:
		return "range" // ranges are never treated as fully covering; conservative
	case *ast.TuplePattern, *ast.StructPattern:
		return "struct" // one-shape types: first occurrence covers all
	default:
		return "other"
	}
}

func exhKey(t typesystem.Type, arms []ast.MatchArm) string {
	var b strings.Builder
	b.WriteString(t.String())
	b.WriteByte('|')
	keys := make([]string, len(arms))
	for i, a := range arms {
		keys[i] = patternCtorKey(a.Pattern)
		if a.Guard != nil {
			keys[i] += "?"
		}
	}
	b.WriteString(strings.Join(keys, ","))
	return b.String()
}
