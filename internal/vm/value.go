// Package vm implements the in-process bytecode interpreter, JIT,
// generational GC, and async runtime of spec §4.6 (component H).
// Grounded throughout on the teacher's internal/vm package: the
// growable-stack-plus-frames interpreter shape of vm.go, the tagged
// Value union of value.go, and the opcode-dispatch loop of
// vm_exec.go. This design keeps one deliberate divergence, recorded in
// DESIGN.md's internal/vm notes: CompiledFunction holds a
// structured []Instruction slice rather than the teacher's packed
// []byte Chunk, since spec §4.6.1 specifies named instruction
// variants (Load/Store/Const/...), not a byte-code encoding.
package vm

import "fmt"

// Kind discriminates Value's tagged union (spec §4.6.1).
type Kind uint8

const (
	KindUnit Kind = iota
	KindInt
	KindFloat
	KindBool
	KindStr
	KindArray
	KindRef
	KindTask
	KindChannel
)

// Value is the VM's tagged-union runtime value (spec §4.6.1's `Value`:
// `{Int(i64), Float(f64), Bool, Str, Array(Vec<Value>), Ref(gc_handle),
// Unit, Task(TaskId), Channel(ChannelId)}`). Mirrors the teacher's
// Value{Type, Data uint64, Obj} shape, split into named fields for
// clarity since this VM's non-primitive payloads (Array, Task,
// Channel) don't fit a single boxed interface the way the teacher's
// evaluator.Object does.
type Value struct {
	Kind    Kind
	Int     int64
	Float   float64
	Bool    bool
	Str     string
	Array   []Value
	Ref     *Object // heap handle, see gc.go
	Task    TaskID
	Channel ChannelID
}

func UnitVal() Value                { return Value{Kind: KindUnit} }
func IntVal(v int64) Value          { return Value{Kind: KindInt, Int: v} }
func FloatVal(v float64) Value      { return Value{Kind: KindFloat, Float: v} }
func BoolVal(v bool) Value          { return Value{Kind: KindBool, Bool: v} }
func StrVal(v string) Value         { return Value{Kind: KindStr, Str: v} }
func ArrayVal(v []Value) Value      { return Value{Kind: KindArray, Array: v} }
func RefVal(o *Object) Value        { return Value{Kind: KindRef, Ref: o} }
func TaskVal(id TaskID) Value       { return Value{Kind: KindTask, Task: id} }
func ChannelVal(id ChannelID) Value { return Value{Kind: KindChannel, Channel: id} }

func (v Value) IsTruthy() bool {
	switch v.Kind {
	case KindBool:
		return v.Bool
	case KindInt:
		return v.Int != 0
	case KindUnit:
		return false
	default:
		return true
	}
}

func (v Value) String() string {
	switch v.Kind {
	case KindUnit:
		return "()"
	case KindInt:
		return fmt.Sprintf("%d", v.Int)
	case KindFloat:
		return fmt.Sprintf("%g", v.Float)
	case KindBool:
		return fmt.Sprintf("%t", v.Bool)
	case KindStr:
		return v.Str
	case KindArray:
		return fmt.Sprintf("%v", v.Array)
	case KindRef:
		return fmt.Sprintf("ref(%p)", v.Ref)
	case KindTask:
		return fmt.Sprintf("task(%s)", v.Task)
	case KindChannel:
		return fmt.Sprintf("channel(%s)", v.Channel)
	default:
		return "<?>"
	}
}

// Equal implements the VM's Cmp-instruction equality (spec §4.6.1),
// with the same implicit Int<->Float widening the teacher's
// Value.Equals performs.
func (v Value) Equal(other Value) bool {
	if v.Kind != other.Kind {
		if v.Kind == KindInt && other.Kind == KindFloat {
			return float64(v.Int) == other.Float
		}
		if v.Kind == KindFloat && other.Kind == KindInt {
			return v.Float == float64(other.Int)
		}
		return false
	}
	switch v.Kind {
	case KindInt:
		return v.Int == other.Int
	case KindFloat:
		return v.Float == other.Float
	case KindBool:
		return v.Bool == other.Bool
	case KindStr:
		return v.Str == other.Str
	case KindUnit:
		return true
	case KindTask:
		return v.Task == other.Task
	case KindChannel:
		return v.Channel == other.Channel
	case KindRef:
		return v.Ref == other.Ref
	case KindArray:
		if len(v.Array) != len(other.Array) {
			return false
		}
		for i := range v.Array {
			if !v.Array[i].Equal(other.Array[i]) {
				return false
			}
		}
		return true
	default:
		return false
	}
}
