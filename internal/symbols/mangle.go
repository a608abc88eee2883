package symbols

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/vaislang/vais-sub013/internal/typesystem"
)

// MangleName computes the deterministic mangled name for
// (base, type_args, const_args) per spec §4.2:
//
//	base "__" join("_", [mangle_type(Ti)]) ("_c_" join("_", [ci "_" vi]))?
//
// mangleType recursively encodes a kind discriminator plus payload so
// the mapping is total and injective up to type equality (Testable
// Property 2's dead-code/missing-monomorph guarantee depends on this).
func MangleName(base string, typeArgs []typesystem.Type, constArgs []ConstArg) string {
	var b strings.Builder
	b.WriteString(base)
	if len(typeArgs) > 0 {
		b.WriteString("__")
		parts := make([]string, len(typeArgs))
		for i, t := range typeArgs {
			parts[i] = mangleType(t)
		}
		b.WriteString(strings.Join(parts, "_"))
	}
	if len(constArgs) > 0 {
		b.WriteString("_c_")
		parts := make([]string, len(constArgs))
		for i, c := range constArgs {
			parts[i] = c.Name + "_" + strconv.FormatInt(c.Value, 10)
		}
		b.WriteString(strings.Join(parts, "_"))
	}
	return b.String()
}

// mangleType encodes a kind discriminator and payload for every
// resolved-type variant (spec §3's closed sum).
func mangleType(t typesystem.Type) string {
	switch v := t.(type) {
	case typesystem.Primitive:
		return "p" + strconv.Itoa(int(v.Kind))
	case typesystem.Array:
		return "arr" + bracket(mangleType(v.Elem))
	case typesystem.Slice:
		return "sl" + bracket(mangleType(v.Elem))
	case typesystem.SliceMut:
		return "slm" + bracket(mangleType(v.Elem))
	case typesystem.Tuple:
		parts := make([]string, len(v.Elems))
		for i, e := range v.Elems {
			parts[i] = mangleType(e)
		}
		return "tup" + bracket(strings.Join(parts, "_"))
	case typesystem.Pointer:
		return "ptr" + bracket(mangleType(v.Elem))
	case typesystem.Ref:
		return "ref" + bracket(mangleType(v.Elem))
	case typesystem.RefMut:
		return "refm" + bracket(mangleType(v.Elem))
	case typesystem.Optional:
		return "opt" + bracket(mangleType(v.Elem))
	case typesystem.Result:
		return "res" + bracket(mangleType(v.Ok)+"_"+mangleType(v.Err))
	case typesystem.Future:
		return "fut" + bracket(mangleType(v.Elem))
	case typesystem.Fn:
		parts := make([]string, len(v.Params))
		for i, p := range v.Params {
			parts[i] = mangleType(p)
		}
		return "fn" + bracket(strings.Join(parts, "_")+"_ret_"+mangleType(v.Ret))
	case typesystem.Vector:
		return fmt.Sprintf("vec%d%s", v.Lanes, bracket(mangleType(v.Elem)))
	case typesystem.Named:
		if len(v.TypeArgs) == 0 {
			return "n_" + v.Name
		}
		parts := make([]string, len(v.TypeArgs))
		for i, a := range v.TypeArgs {
			parts[i] = mangleType(a)
		}
		return "n_" + v.Name + bracket(strings.Join(parts, "_"))
	case typesystem.Generic:
		return "g_" + v.Name
	case typesystem.ConstGeneric:
		return "cg_" + v.Name
	case typesystem.ConstArray:
		return "ca" + bracket(mangleType(v.Elem)+"_"+v.Size.String())
	default:
		return "unk"
	}
}

func bracket(s string) string { return "L" + s + "R" }
