package codegen

import (
	"github.com/vaislang/vais-sub013/internal/ast"
	"github.com/vaislang/vais-sub013/internal/typesystem"
)

// sizeOf computes a type's lowered size in bytes for enum payload
// sizing (spec §4.3.2): pointers are 8 bytes, structs are the sum of
// their field sizes (no padding/alignment in this design — the payload
// buffer only needs to be large enough, not ABI-exact).
func (g *Generator) sizeOf(t typesystem.Type) int {
	switch v := t.(type) {
	case typesystem.Primitive:
		return primitiveSize(v)
	case typesystem.Array, typesystem.Slice, typesystem.SliceMut,
		typesystem.Pointer, typesystem.Ref, typesystem.RefMut, typesystem.Future:
		return 8
	case typesystem.Tuple:
		total := 0
		for _, e := range v.Elems {
			total += g.sizeOf(e)
		}
		return total
	case typesystem.Optional:
		return 1 + g.sizeOf(v.Elem)
	case typesystem.Result:
		ok, errSize := g.sizeOf(v.Ok), g.sizeOf(v.Err)
		if errSize > ok {
			ok = errSize
		}
		return 1 + ok
	case typesystem.Fn:
		return 16 // {fn_ptr, env_ptr}
	case typesystem.Vector:
		return int(v.Lanes) * g.sizeOf(v.Elem)
	case typesystem.Named:
		return g.namedSize(v.Name)
	case typesystem.ConstArray:
		n, err := v.Size.Eval(nil)
		if err != nil {
			return g.sizeOf(v.Elem)
		}
		return int(n) * g.sizeOf(v.Elem)
	default:
		return 8
	}
}

func primitiveSize(p typesystem.Primitive) int {
	switch p.Kind {
	case typesystem.I8, typesystem.U8:
		return 1
	case typesystem.I16, typesystem.U16:
		return 2
	case typesystem.I32, typesystem.U32, typesystem.F32, typesystem.Char:
		return 4
	case typesystem.I64, typesystem.U64, typesystem.F64:
		return 8
	case typesystem.I128, typesystem.U128:
		return 16
	case typesystem.Bool:
		return 1
	case typesystem.Str:
		return 8
	case typesystem.Unit:
		return 0
	default:
		return 8
	}
}

// namedSize resolves a struct/enum/union by name and computes its size;
// unknown names (e.g. a not-yet-lowered forward reference) fall back to
// a conservative pointer-word size rather than failing layout outright.
func (g *Generator) namedSize(name string) int {
	if s, ok := g.table.LookupStruct(name); ok {
		total := 0
		for _, f := range s.Fields {
			total += g.sizeOf(f.Type)
		}
		return total
	}
	if e, ok := g.table.LookupEnum(name); ok {
		return 8 + g.enumPayloadSize(e)
	}
	return 8
}

// enumPayloadSize computes N in spec §4.3.2's `{i64 tag, [N x i8]
// payload}`: the maximum over variants of the variant's payload size
// (spec §8 testable property 8: "allocated enum size = 8 + max(si)").
func (g *Generator) enumPayloadSize(e *ast.Enum) int {
	max := 0
	for _, v := range e.Variants {
		size := 0
		switch v.Shape {
		case ast.VariantTuple:
			for _, t := range v.TupleTypes {
				size += g.sizeOf(t)
			}
		case ast.VariantStruct:
			for _, f := range v.StructTypes {
				size += g.sizeOf(f.Type)
			}
		}
		if size > max {
			max = size
		}
	}
	return max
}
