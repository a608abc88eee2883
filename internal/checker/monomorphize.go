package checker

import (
	"github.com/vaislang/vais-sub013/internal/ast"
	"github.com/vaislang/vais-sub013/internal/diagnostics"
	"github.com/vaislang/vais-sub013/internal/typesystem"
)

// trackMonomorphization registers an instantiation for a call to a
// generic function with concrete argument types, checking each bound
// generic parameter's trait bounds before registering (spec §4.2
// "Monomorphization tracking" + §4.1 registry probe).
func (c *Checker) trackMonomorphization(sig *ast.FunctionSig, argTypes []typesystem.Type) {
	bounds := make(map[string][]string, len(sig.GenericParams))
	for _, gp := range sig.GenericParams {
		bounds[gp.Name] = gp.Bounds
	}

	// Solve the generic parameters by unifying each declared param type
	// against the corresponding concrete argument type.
	subst := typesystem.Subst{}
	for i, p := range sig.Params {
		if i >= len(argTypes) {
			break
		}
		s, err := typesystem.Unify(c.Substitute(p.Type, subst), argTypes[i], bounds, (*boundChecker)(c))
		if err != nil {
			c.Bag.Add(diagnostics.New(diagnostics.ErrGenericBoundUnsatisfied, diagnostics.Span{}, "", err.Error()))
			continue
		}
		for k, v := range s {
			subst[k] = v
		}
	}

	typeArgs := make([]typesystem.Type, 0, len(sig.GenericParams))
	for _, gp := range sig.GenericParams {
		if t, ok := subst[gp.Name]; ok {
			typeArgs = append(typeArgs, t)
		} else {
			typeArgs = append(typeArgs, typesystem.Generic{Name: gp.Name})
		}
	}

	c.Table.Instantiate(sig.Name, typeArgs, nil)
}

// boundChecker adapts *Checker to typesystem.BoundChecker, backed by the
// symbol registry's type_implements_trait probe (spec §4.1).
type boundChecker Checker

func (b *boundChecker) Satisfies(t typesystem.Type, trait string) bool {
	name := typeName(t)
	if name == "" {
		return false
	}
	return (*Checker)(b).Table.TypeImplementsTrait(name, trait)
}

func typeName(t typesystem.Type) string {
	switch v := t.(type) {
	case typesystem.Primitive:
		return v.String()
	case typesystem.Named:
		return v.Name
	default:
		return ""
	}
}
