package typesystem

import (
	"fmt"
	"reflect"
)

// BoundChecker probes whether a concrete type satisfies a named trait
// bound; the checker package supplies the real implementation backed by
// the symbol registry (spec §4.1's type_implements_trait probe). Kept
// as an interface here so typesystem has no dependency on symbols.
type BoundChecker interface {
	Satisfies(t Type, trait string) bool
}

type typePair struct{ a, b Type }

// Unify implements the rules of spec §4.2:
//   - primitives unify only with themselves
//   - Optional/Result unify structurally
//   - Generic(α) unifies with any T, binding α ↦ T, provided every
//     trait bound on α is satisfied by T
//   - Named{n, gs} unify only when n matches and gs unify pointwise
//
// bounds maps a Generic's name to the trait bounds declared on it;
// checker is nil-safe (bound checks are skipped, i.e. trusted, when
// checker is nil — used for call-site substitution per spec §4.2).
func Unify(t1, t2 Type, bounds map[string][]string, checker BoundChecker) (Subst, error) {
	return unify(t1, t2, bounds, checker, nil)
}

func unify(t1, t2 Type, bounds map[string][]string, checker BoundChecker, visited []typePair) (Subst, error) {
	for _, p := range visited {
		if reflect.DeepEqual(p.a, t1) && reflect.DeepEqual(p.b, t2) {
			return Subst{}, nil // co-inductive: already unifying this pair
		}
	}
	visited = append(visited, typePair{t1, t2})

	if g, ok := t1.(Generic); ok {
		return bindGeneric(g, t2, bounds, checker)
	}
	if g, ok := t2.(Generic); ok {
		return bindGeneric(g, t1, bounds, checker)
	}

	if reflect.DeepEqual(t1, t2) {
		return Subst{}, nil
	}

	switch a := t1.(type) {
	case Primitive:
		if b, ok := t2.(Primitive); ok && a.Kind == b.Kind {
			return Subst{}, nil
		}
		return nil, mismatch(t1, t2)

	case Array:
		if b, ok := t2.(Array); ok {
			return unify(a.Elem, b.Elem, bounds, checker, visited)
		}
		return nil, mismatch(t1, t2)
	case Slice:
		if b, ok := t2.(Slice); ok {
			return unify(a.Elem, b.Elem, bounds, checker, visited)
		}
		return nil, mismatch(t1, t2)
	case SliceMut:
		if b, ok := t2.(SliceMut); ok {
			return unify(a.Elem, b.Elem, bounds, checker, visited)
		}
		return nil, mismatch(t1, t2)
	case Pointer:
		if b, ok := t2.(Pointer); ok {
			return unify(a.Elem, b.Elem, bounds, checker, visited)
		}
		return nil, mismatch(t1, t2)
	case Ref:
		if b, ok := t2.(Ref); ok {
			return unify(a.Elem, b.Elem, bounds, checker, visited)
		}
		return nil, mismatch(t1, t2)
	case RefMut:
		if b, ok := t2.(RefMut); ok {
			return unify(a.Elem, b.Elem, bounds, checker, visited)
		}
		return nil, mismatch(t1, t2)

	case Tuple:
		b, ok := t2.(Tuple)
		if !ok || len(a.Elems) != len(b.Elems) {
			return nil, mismatch(t1, t2)
		}
		return unifyList(a.Elems, b.Elems, bounds, checker, visited)

	case Optional:
		// "Optional(T) and Result(T, E) unify structurally" (spec §4.2).
		if b, ok := t2.(Optional); ok {
			return unify(a.Elem, b.Elem, bounds, checker, visited)
		}
		return nil, mismatch(t1, t2)

	case Result:
		if b, ok := t2.(Result); ok {
			return unifyList([]Type{a.Ok, a.Err}, []Type{b.Ok, b.Err}, bounds, checker, visited)
		}
		return nil, mismatch(t1, t2)

	case Future:
		if b, ok := t2.(Future); ok {
			return unify(a.Elem, b.Elem, bounds, checker, visited)
		}
		return nil, mismatch(t1, t2)

	case Fn:
		b, ok := t2.(Fn)
		if !ok || len(a.Params) != len(b.Params) {
			return nil, mismatch(t1, t2)
		}
		s, err := unifyList(a.Params, b.Params, bounds, checker, visited)
		if err != nil {
			return nil, err
		}
		s2, err := unify(a.Ret.Apply(s), b.Ret.Apply(s), bounds, checker, visited)
		if err != nil {
			return nil, err
		}
		return mergeSubst(s, s2), nil

	case Vector:
		b, ok := t2.(Vector)
		if !ok || a.Lanes != b.Lanes {
			return nil, mismatch(t1, t2)
		}
		return unify(a.Elem, b.Elem, bounds, checker, visited)

	case Named:
		b, ok := t2.(Named)
		if !ok || a.Name != b.Name || len(a.TypeArgs) != len(b.TypeArgs) {
			return nil, mismatch(t1, t2)
		}
		return unifyList(a.TypeArgs, b.TypeArgs, bounds, checker, visited)

	default:
		return nil, mismatch(t1, t2)
	}
}

func bindGeneric(g Generic, t Type, bounds map[string][]string, checker BoundChecker) (Subst, error) {
	// "a Generic(β) bound to the same traits satisfies bounds
	// vacuously (trusted at call-site substitution)" (spec §4.2).
	if other, ok := t.(Generic); ok && other.Name == g.Name {
		return Subst{}, nil
	}
	if _, ok := t.(Generic); ok {
		return Subst{g.Name: t}, nil
	}
	if checker != nil {
		for _, trait := range bounds[g.Name] {
			if !checker.Satisfies(t, trait) {
				return nil, fmt.Errorf("type %s does not satisfy bound %s required by %s", t, trait, g.Name)
			}
		}
	}
	return Subst{g.Name: t}, nil
}

func unifyList(as, bs []Type, bounds map[string][]string, checker BoundChecker, visited []typePair) (Subst, error) {
	out := Subst{}
	for i := range as {
		s, err := unify(as[i].Apply(out), bs[i].Apply(out), bounds, checker, visited)
		if err != nil {
			return nil, err
		}
		out = mergeSubst(out, s)
	}
	return out, nil
}

func mergeSubst(a, b Subst) Subst {
	out := make(Subst, len(a)+len(b))
	for k, v := range a {
		out[k] = v
	}
	for k, v := range b {
		out[k] = v
	}
	return out
}

func mismatch(t1, t2 Type) error {
	return fmt.Errorf("type mismatch: %s vs %s", t1, t2)
}
