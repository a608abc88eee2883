// Package typesystem implements the resolved-type model of spec §3: a
// closed sum of primitive, composite, nominal and generic-parameter
// types, total substitution, and the unification rules of spec §4.2.
// The interface+type-switch shape and the cycle-safe Apply entry point
// follow the teacher's internal/typesystem/types.go.
package typesystem

import (
	"fmt"
	"strings"
)

// Type is the interface every resolved type satisfies. Discriminant
// ordering (spec §3 "total ordering by discriminant") is realized by
// Discriminant(), consulted by Less for deterministic sorting wherever
// a stable iteration order matters (mangled names, diagnostics).
type Type interface {
	String() string
	Apply(Subst) Type
	FreeTypeVariables() []string
	Discriminant() int
}

// Subst is a substitution map from generic/const-generic parameter name
// to a concrete (or still-generic) type.
type Subst map[string]Type

// Discriminant values, fixed so that ordering is stable across runs
// (spec §3: "Resolved types (closed sum, total ordering by
// discriminant)").
const (
	discPrimitive = iota
	discArray
	discSlice
	discSliceMut
	discTuple
	discPointer
	discRef
	discRefMut
	discOptional
	discResult
	discFuture
	discFn
	discVector
	discNamed
	discGeneric
	discConstGeneric
	discConstArray
)

// ---- Primitives ----

type PrimitiveKind int

const (
	I8 PrimitiveKind = iota
	I16
	I32
	I64
	I128
	U8
	U16
	U32
	U64
	U128
	F32
	F64
	Bool
	Str
	Unit
	Char
)

var primitiveNames = map[PrimitiveKind]string{
	I8: "i8", I16: "i16", I32: "i32", I64: "i64", I128: "i128",
	U8: "u8", U16: "u16", U32: "u32", U64: "u64", U128: "u128",
	F32: "f32", F64: "f64", Bool: "bool", Str: "str", Unit: "unit", Char: "char",
}

// IsIntegral reports whether k is one of the signed/unsigned integer
// kinds (used by Vector lane validation and numeric-literal defaulting).
func (k PrimitiveKind) IsIntegral() bool {
	return k <= U128
}

// IsFloat reports whether k is F32 or F64.
func (k PrimitiveKind) IsFloat() bool {
	return k == F32 || k == F64
}

type Primitive struct{ Kind PrimitiveKind }

func (p Primitive) String() string                  { return primitiveNames[p.Kind] }
func (p Primitive) Apply(Subst) Type                { return p }
func (p Primitive) FreeTypeVariables() []string      { return nil }
func (p Primitive) Discriminant() int                { return discPrimitive }

var (
	TI8   = Primitive{I8}
	TI16  = Primitive{I16}
	TI32  = Primitive{I32}
	TI64  = Primitive{I64}
	TI128 = Primitive{I128}
	TU8   = Primitive{U8}
	TU16  = Primitive{U16}
	TU32  = Primitive{U32}
	TU64  = Primitive{U64}
	TU128 = Primitive{U128}
	TF32  = Primitive{F32}
	TF64  = Primitive{F64}
	TBool = Primitive{Bool}
	TStr  = Primitive{Str}
	TUnit = Primitive{Unit}
	TChar = Primitive{Char}
)

// ---- Composites ----

type Array struct{ Elem Type }

func (t Array) String() string             { return "Array<" + t.Elem.String() + ">" }
func (t Array) Apply(s Subst) Type          { return Array{t.Elem.Apply(s)} }
func (t Array) FreeTypeVariables() []string { return t.Elem.FreeTypeVariables() }
func (t Array) Discriminant() int           { return discArray }

type Slice struct{ Elem Type }

func (t Slice) String() string             { return "&[" + t.Elem.String() + "]" }
func (t Slice) Apply(s Subst) Type          { return Slice{t.Elem.Apply(s)} }
func (t Slice) FreeTypeVariables() []string { return t.Elem.FreeTypeVariables() }
func (t Slice) Discriminant() int           { return discSlice }

type SliceMut struct{ Elem Type }

func (t SliceMut) String() string             { return "&mut [" + t.Elem.String() + "]" }
func (t SliceMut) Apply(s Subst) Type          { return SliceMut{t.Elem.Apply(s)} }
func (t SliceMut) FreeTypeVariables() []string { return t.Elem.FreeTypeVariables() }
func (t SliceMut) Discriminant() int           { return discSliceMut }

type Tuple struct{ Elems []Type }

func (t Tuple) String() string {
	parts := make([]string, len(t.Elems))
	for i, e := range t.Elems {
		parts[i] = e.String()
	}
	return "(" + strings.Join(parts, ", ") + ")"
}
func (t Tuple) Apply(s Subst) Type {
	out := make([]Type, len(t.Elems))
	for i, e := range t.Elems {
		out[i] = e.Apply(s)
	}
	return Tuple{out}
}
func (t Tuple) FreeTypeVariables() []string {
	var out []string
	for _, e := range t.Elems {
		out = append(out, e.FreeTypeVariables()...)
	}
	return out
}
func (t Tuple) Discriminant() int { return discTuple }

type Pointer struct{ Elem Type }

func (t Pointer) String() string             { return "*" + t.Elem.String() }
func (t Pointer) Apply(s Subst) Type          { return Pointer{t.Elem.Apply(s)} }
func (t Pointer) FreeTypeVariables() []string { return t.Elem.FreeTypeVariables() }
func (t Pointer) Discriminant() int           { return discPointer }

type Ref struct{ Elem Type }

func (t Ref) String() string             { return "&" + t.Elem.String() }
func (t Ref) Apply(s Subst) Type          { return Ref{t.Elem.Apply(s)} }
func (t Ref) FreeTypeVariables() []string { return t.Elem.FreeTypeVariables() }
func (t Ref) Discriminant() int           { return discRef }

type RefMut struct{ Elem Type }

func (t RefMut) String() string             { return "&mut " + t.Elem.String() }
func (t RefMut) Apply(s Subst) Type          { return RefMut{t.Elem.Apply(s)} }
func (t RefMut) FreeTypeVariables() []string { return t.Elem.FreeTypeVariables() }
func (t RefMut) Discriminant() int           { return discRefMut }

type Optional struct{ Elem Type }

func (t Optional) String() string             { return t.Elem.String() + "?" }
func (t Optional) Apply(s Subst) Type          { return Optional{t.Elem.Apply(s)} }
func (t Optional) FreeTypeVariables() []string { return t.Elem.FreeTypeVariables() }
func (t Optional) Discriminant() int           { return discOptional }

// Result is right-biased: a propagating `?` always preserves the Err
// arm (spec §3 invariant).
type Result struct{ Ok, Err Type }

func (t Result) String() string    { return "Result<" + t.Ok.String() + ", " + t.Err.String() + ">" }
func (t Result) Apply(s Subst) Type { return Result{t.Ok.Apply(s), t.Err.Apply(s)} }
func (t Result) FreeTypeVariables() []string {
	return append(t.Ok.FreeTypeVariables(), t.Err.FreeTypeVariables()...)
}
func (t Result) Discriminant() int { return discResult }

// Future is right-biased over its pending/ready arm the same way Result
// is over Err (spec §3 invariant).
type Future struct{ Elem Type }

func (t Future) String() string             { return "Future<" + t.Elem.String() + ">" }
func (t Future) Apply(s Subst) Type          { return Future{t.Elem.Apply(s)} }
func (t Future) FreeTypeVariables() []string { return t.Elem.FreeTypeVariables() }
func (t Future) Discriminant() int           { return discFuture }

type Fn struct {
	Params  []Type
	Ret     Type
	Effects []string // effect kind names; kept untyped here to avoid an import cycle with package effects
}

func (t Fn) String() string {
	parts := make([]string, len(t.Params))
	for i, p := range t.Params {
		parts[i] = p.String()
	}
	suffix := ""
	if len(t.Effects) > 0 {
		suffix = " " + strings.Join(t.Effects, "+")
	}
	return "fn(" + strings.Join(parts, ", ") + ") -> " + t.Ret.String() + suffix
}
func (t Fn) Apply(s Subst) Type {
	params := make([]Type, len(t.Params))
	for i, p := range t.Params {
		params[i] = p.Apply(s)
	}
	return Fn{Params: params, Ret: t.Ret.Apply(s), Effects: t.Effects}
}
func (t Fn) FreeTypeVariables() []string {
	var out []string
	for _, p := range t.Params {
		out = append(out, p.FreeTypeVariables()...)
	}
	return append(out, t.Ret.FreeTypeVariables()...)
}
func (t Fn) Discriminant() int { return discFn }

// ValidLaneCounts are the only widths spec §3 permits for Vector.
var ValidLaneCounts = map[uint32]bool{2: true, 4: true, 8: true, 16: true, 32: true, 64: true}

type Vector struct {
	Elem  Type
	Lanes uint32
}

func (t Vector) String() string { return fmt.Sprintf("<%d x %s>", t.Lanes, t.Elem.String()) }
func (t Vector) Apply(s Subst) Type          { return Vector{t.Elem.Apply(s), t.Lanes} }
func (t Vector) FreeTypeVariables() []string { return t.Elem.FreeTypeVariables() }
func (t Vector) Discriminant() int           { return discVector }

// Named refers to a struct/enum/union definition looked up in the
// symbol registry (spec §3 "Nominal").
type Named struct {
	Name     string
	TypeArgs []Type
}

func (t Named) String() string {
	if len(t.TypeArgs) == 0 {
		return t.Name
	}
	parts := make([]string, len(t.TypeArgs))
	for i, a := range t.TypeArgs {
		parts[i] = a.String()
	}
	return t.Name + "<" + strings.Join(parts, ", ") + ">"
}
func (t Named) Apply(s Subst) Type {
	args := make([]Type, len(t.TypeArgs))
	for i, a := range t.TypeArgs {
		args[i] = a.Apply(s)
	}
	return Named{Name: t.Name, TypeArgs: args}
}
func (t Named) FreeTypeVariables() []string {
	var out []string
	for _, a := range t.TypeArgs {
		out = append(out, a.FreeTypeVariables()...)
	}
	return out
}
func (t Named) Discriminant() int { return discNamed }

// Generic is a type-position reference to a generic parameter.
type Generic struct{ Name string }

func (t Generic) String() string { return t.Name }
func (t Generic) Apply(s Subst) Type {
	if replacement, ok := s[t.Name]; ok {
		if g, ok := replacement.(Generic); ok && g.Name == t.Name {
			return t
		}
		return replacement
	}
	return t
}
func (t Generic) FreeTypeVariables() []string { return []string{t.Name} }
func (t Generic) Discriminant() int           { return discGeneric }

// ConstGeneric is a value-level reference to a const generic parameter
// (spec §3).
type ConstGeneric struct{ Name string }

func (t ConstGeneric) String() string { return "const " + t.Name }
func (t ConstGeneric) Apply(s Subst) Type {
	if replacement, ok := s[t.Name]; ok {
		return replacement
	}
	return t
}
func (t ConstGeneric) FreeTypeVariables() []string { return []string{t.Name} }
func (t ConstGeneric) Discriminant() int           { return discConstGeneric }

// ConstArray is an array whose size is a const-expression, possibly
// referencing const-generic params (spec §3).
type ConstArray struct {
	Elem Type
	Size ConstExpr
}

func (t ConstArray) String() string {
	return "[" + t.Elem.String() + "; " + t.Size.String() + "]"
}
func (t ConstArray) Apply(s Subst) Type {
	return ConstArray{Elem: t.Elem.Apply(s), Size: t.Size.Apply(s)}
}
func (t ConstArray) FreeTypeVariables() []string {
	return append(t.Elem.FreeTypeVariables(), t.Size.FreeVars()...)
}
func (t ConstArray) Discriminant() int { return discConstArray }

// Less gives a total order over types by discriminant first, then by
// String() as a deterministic tiebreaker — used for sorting
// instantiation-table keys and type-list display.
func Less(a, b Type) bool {
	if a.Discriminant() != b.Discriminant() {
		return a.Discriminant() < b.Discriminant()
	}
	return a.String() < b.String()
}
