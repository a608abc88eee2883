package symbols

import (
	"fmt"

	"github.com/vaislang/vais-sub013/internal/ast"
	"github.com/vaislang/vais-sub013/internal/typesystem"
)

// builtin trait names satisfied synthetically by primitives (spec §4.1
// "Built-in trait satisfaction"): no impl record is created for these.
const (
	TraitEq      = "Eq"
	TraitPartialEq = "PartialEq"
	TraitOrd     = "Ord"
	TraitPartialOrd = "PartialOrd"
	TraitClone   = "Clone"
	TraitCopy    = "Copy"
	TraitDefault = "Default"
	TraitDisplay = "Display"
	TraitDebug   = "Debug"
)

func (t *Table) registerBuiltinTraitImpls() {
	numeric := []string{"i8", "i16", "i32", "i64", "i128", "u8", "u16", "u32", "u64", "u128", "f32", "f64"}
	ordTraits := []string{TraitEq, TraitPartialEq, TraitOrd, TraitPartialOrd, TraitClone, TraitCopy, TraitDefault, TraitDisplay, TraitDebug}
	for _, n := range numeric {
		t.markBuiltinSatisfied(n, ordTraits...)
	}
	simple := map[string][]string{
		"bool": {TraitEq, TraitPartialEq, TraitClone, TraitCopy, TraitDefault, TraitDisplay, TraitDebug},
		"char": {TraitEq, TraitPartialEq, TraitOrd, TraitPartialOrd, TraitClone, TraitCopy, TraitDefault, TraitDisplay, TraitDebug},
		"str":  {TraitEq, TraitPartialEq, TraitClone, TraitDisplay, TraitDebug},
		"unit": {TraitEq, TraitPartialEq, TraitClone, TraitCopy, TraitDefault, TraitDebug},
	}
	for n, traits := range simple {
		t.markBuiltinSatisfied(n, traits...)
	}
}

func (t *Table) markBuiltinSatisfied(typeName string, traits ...string) {
	if t.builtinOK[typeName] == nil {
		t.builtinOK[typeName] = make(map[string]bool)
	}
	for _, tr := range traits {
		t.builtinOK[typeName][tr] = true
	}
}

// RegisterImpl registers a trait implementation keyed on
// (trait_name, type_name); a duplicate impl is an error (spec §4.1
// "register_impl").
func (t *Table) RegisterImpl(traitName, typeName string, assoc map[string]typesystem.Type, methods map[string]*ast.Function) error {
	key := implKey{Trait: traitName, Type: typeName}
	if _, exists := t.impls[key]; exists {
		return fmt.Errorf("duplicate impl of %s for %s", traitName, typeName)
	}
	t.impls[key] = &ImplRecord{TraitName: traitName, TypeName: typeName, AssocTypes: assoc, Methods: methods}
	return nil
}

func (t *Table) LookupImpl(traitName, typeName string) (*ImplRecord, bool) {
	r, ok := t.impls[implKey{Trait: traitName, Type: typeName}]
	return r, ok
}

// TypeImplementsTrait probes built-in satisfaction first, then explicit
// user impls, matching the registry's `type_implements_trait` (spec
// §4.1).
func (t *Table) TypeImplementsTrait(typeName, traitName string) bool {
	if m, ok := t.builtinOK[typeName]; ok && m[traitName] {
		return true
	}
	_, ok := t.impls[implKey{Trait: traitName, Type: typeName}]
	return ok
}

// ExpandTraitAlias expands `A = X + Y` with cycle detection: visiting A
// pushes it onto a visited set; re-entering A aborts and returns false
// (spec §4.1 "Trait aliases").
func (t *Table) ExpandTraitAlias(name string) ([]string, bool) {
	return t.expandAlias(name, make(map[string]bool))
}

func (t *Table) expandAlias(name string, visited map[string]bool) ([]string, bool) {
	if visited[name] {
		return nil, false
	}
	visited[name] = true

	members, ok := t.aliases[name]
	if !ok {
		// Not an alias: treat the bare name as a single concrete trait.
		return []string{name}, true
	}

	var out []string
	for _, m := range members {
		expanded, ok := t.expandAlias(m, visited)
		if !ok {
			return nil, false
		}
		out = append(out, expanded...)
	}
	return out, true
}

// LookupMethod searches inherent methods then trait impls, user-declared
// before built-in (spec §4.1 "lookup_method").
func (t *Table) LookupMethod(typeName, methodName string) (*ast.FunctionSig, bool) {
	if inherent, ok := t.impls[implKey{Trait: "", Type: typeName}]; ok {
		if fn, ok := inherent.Methods[methodName]; ok {
			return &fn.Sig, true
		}
	}
	for key, rec := range t.impls {
		if key.Type != typeName || key.Trait == "" {
			continue
		}
		if fn, ok := rec.Methods[methodName]; ok {
			return &fn.Sig, true
		}
	}
	return nil, false
}

// Instantiate registers (or looks up) a generic instantiation keyed by
// mangled name, returning the existing record on a repeat request
// (spec §3 "Generic instantiation table").
func (t *Table) Instantiate(base string, typeArgs []typesystem.Type, constArgs []ConstArg) *Instantiation {
	mangled := MangleName(base, typeArgs, constArgs)
	if existing, ok := t.instances[mangled]; ok {
		return existing
	}
	inst := &Instantiation{Base: base, TypeArgs: typeArgs, ConstArgs: constArgs, MangledName: mangled}
	t.instances[mangled] = inst
	return inst
}

// Instantiations returns every realized monomorphization, sorted by
// mangled name for deterministic codegen emission order.
func (t *Table) Instantiations() []*Instantiation {
	out := make([]*Instantiation, 0, len(t.instances))
	for _, inst := range t.instances {
		out = append(out, inst)
	}
	sortInstantiations(out)
	return out
}

func sortInstantiations(insts []*Instantiation) {
	for i := 1; i < len(insts); i++ {
		for j := i; j > 0 && insts[j-1].MangledName > insts[j].MangledName; j-- {
			insts[j-1], insts[j] = insts[j], insts[j-1]
		}
	}
}

// MergeInstantiations unions another table's instantiation set into t,
// keyed on mangled name (spec §5 "The instantiation table is merged at
// level boundaries by taking the union keyed on mangled name").
func (t *Table) MergeInstantiations(other *Table) {
	for k, v := range other.instances {
		if _, exists := t.instances[k]; !exists {
			t.instances[k] = v
		}
	}
}
