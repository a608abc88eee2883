package codegen

import (
	"fmt"
	"strings"

	"github.com/vaislang/vais-sub013/internal/symbols"
	"github.com/vaislang/vais-sub013/internal/typesystem"
)

// LowerType maps a resolved Type to its LLVM IR text (spec §4.3.1). The
// primitive fast path bypasses the Generator's cache entirely; every
// composite shape populates it, keyed by the type's String() form so
// structurally-identical anonymous types (e.g. two identical tuples)
// share one cache entry.
func (g *Generator) LowerType(t typesystem.Type) string {
	if p, ok := t.(typesystem.Primitive); ok {
		return lowerPrimitive(p)
	}
	key := t.String()
	if cached, ok := g.typeCache[key]; ok {
		return cached
	}
	text := g.lowerComposite(t)
	g.typeCache[key] = text
	return text
}

func lowerPrimitive(p typesystem.Primitive) string {
	switch p.Kind {
	case typesystem.I8, typesystem.U8:
		return "i8"
	case typesystem.I16, typesystem.U16:
		return "i16"
	case typesystem.I32, typesystem.U32:
		return "i32"
	case typesystem.I64, typesystem.U64:
		return "i64"
	case typesystem.I128, typesystem.U128:
		return "i128"
	case typesystem.F32:
		return "float"
	case typesystem.F64:
		return "double"
	case typesystem.Bool:
		return "i1"
	case typesystem.Str:
		return "i8*"
	case typesystem.Unit:
		return "void"
	case typesystem.Char:
		return "i32"
	default:
		return "i64"
	}
}

func (g *Generator) lowerComposite(t typesystem.Type) string {
	switch v := t.(type) {
	case typesystem.Array:
		return g.LowerType(v.Elem) + "*"
	case typesystem.Slice:
		return g.LowerType(v.Elem) + "*"
	case typesystem.SliceMut:
		return g.LowerType(v.Elem) + "*"
	case typesystem.Pointer:
		return g.LowerType(v.Elem) + "*"
	case typesystem.Ref:
		return g.LowerType(v.Elem) + "*"
	case typesystem.RefMut:
		return g.LowerType(v.Elem) + "*"
	case typesystem.Tuple:
		parts := make([]string, len(v.Elems))
		for i, e := range v.Elems {
			parts[i] = g.LowerType(e)
		}
		return "{" + strings.Join(parts, ", ") + "}"
	case typesystem.Optional:
		// {i1 has_value, T value}
		return "{i1, " + g.LowerType(v.Elem) + "}"
	case typesystem.Result:
		return "{i1, " + g.LowerType(v.Ok) + ", " + g.LowerType(v.Err) + "}"
	case typesystem.Future:
		return "i64*" // pointer to the async state struct, see async.go
	case typesystem.Fn:
		params := make([]string, len(v.Params))
		for i, p := range v.Params {
			params[i] = g.LowerType(p)
		}
		return "{" + g.LowerType(v.Ret) + " (" + strings.Join(params, ", ") + ")*, i8*}"
	case typesystem.Vector:
		if !typesystem.ValidLaneCounts[v.Lanes] {
			return fmt.Sprintf("<%d x %s>", v.Lanes, g.LowerType(v.Elem))
		}
		return fmt.Sprintf("<%d x %s>", v.Lanes, g.LowerType(v.Elem))
	case typesystem.Named:
		if len(v.TypeArgs) == 0 {
			return "%" + v.Name
		}
		return "%" + g.mangledNamedType(v)
	case typesystem.Generic:
		// Should never reach codegen unresolved; fall back to i8* so a
		// malformed instantiation still produces syntactically valid IR.
		return "i8*"
	case typesystem.ConstGeneric:
		return "i64"
	case typesystem.ConstArray:
		return g.LowerType(v.Elem) + "*"
	default:
		return "i8*"
	}
}

// mangledNamedType reuses the symbol table's deterministic mangling
// scheme so a generic struct/enum instantiation's LLVM type name matches
// the mangled function names emitted for its generic methods.
func (g *Generator) mangledNamedType(n typesystem.Named) string {
	return symbols.MangleName(n.Name, n.TypeArgs, nil)
}
