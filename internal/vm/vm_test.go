package vm

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestArithmeticAndReturn(t *testing.T) {
	// fn add(a, b) { return a + b }
	fn := &CompiledFunction{
		Name:   "add",
		Params: []string{"a", "b"},
		Instructions: []Instruction{
			{Op: OpLoad, Name: "a"},
			{Op: OpLoad, Name: "b"},
			{Op: OpAdd},
			{Op: OpReturn},
		},
	}
	machine := New()
	machine.Define(fn)
	res, err := machine.Call(fn, []Value{IntVal(2), IntVal(3)})
	assert.NoError(t, err)
	assert.Equal(t, int64(5), res.Int)
}

func TestJumpIfFalseAndCmp(t *testing.T) {
	// fn max0(a) { if a > 0 { return a } return 0 }
	fn := &CompiledFunction{
		Name:   "max0",
		Params: []string{"a"},
		Instructions: []Instruction{
			{Op: OpLoad, Name: "a"},
			{Op: OpConst, Const: IntVal(0)},
			{Op: OpCmp, CmpOp: CmpGt},
			{Op: OpJumpIfFalse, Target: 6},
			{Op: OpLoad, Name: "a"},
			{Op: OpReturn},
			{Op: OpConst, Const: IntVal(0)},
			{Op: OpReturn},
		},
	}
	machine := New()
	machine.Define(fn)
	res, err := machine.Call(fn, []Value{IntVal(-7)})
	assert.NoError(t, err)
	assert.Equal(t, int64(0), res.Int)

	res, err = machine.Call(fn, []Value{IntVal(7)})
	assert.NoError(t, err)
	assert.Equal(t, int64(7), res.Int)
}

func TestSelfCallRecursion(t *testing.T) {
	// fn fact(n) { if n <= 1 { return 1 } return n * fact(n-1) }
	fn2 := &CompiledFunction{
		Name:   "fact",
		Params: []string{"n"},
		Instructions: []Instruction{
			{Op: OpLoad, Name: "n"},
			{Op: OpConst, Const: IntVal(1)},
			{Op: OpCmp, CmpOp: CmpLe},
			{Op: OpJumpIfFalse, Target: 6},
			{Op: OpConst, Const: IntVal(1)},
			{Op: OpReturn},
			{Op: OpLoad, Name: "n"},
			{Op: OpLoad, Name: "n"},
			{Op: OpConst, Const: IntVal(1)},
			{Op: OpSub},
			{Op: OpSelfCall, Argc: 1},
			{Op: OpMul},
			{Op: OpReturn},
		},
	}
	machine := New()
	machine.Define(fn2)
	res, err := machine.Call(fn2, []Value{IntVal(5)})
	assert.NoError(t, err)
	assert.Equal(t, int64(120), res.Int)
}

func TestArrayIndexGetSet(t *testing.T) {
	machine := New()
	obj := machine.GC.Alloc([]Value{IntVal(1), IntVal(2), IntVal(3)})
	ref := RefVal(obj)

	idx := IntVal(1)
	elems := arrayElems(ref)
	assert.Equal(t, int64(2), elems[idx.Int].Int)

	elems[idx.Int] = IntVal(99)
	assert.Equal(t, int64(99), obj.Elems[1].Int)
}

func TestGCMinorPromotesSurvivors(t *testing.T) {
	machine := New()
	machine.GC.youngThreshold = 2

	obj := machine.GC.Alloc([]Value{IntVal(1)})
	machine.push(RefVal(obj))

	// Force enough allocations to trigger a minor GC while obj is rooted
	// on the stack; obj must survive every collection since it's always
	// reachable from the live stack.
	for i := 0; i < 10; i++ {
		machine.GC.Alloc([]Value{IntVal(int64(i))})
	}
	machine.GC.MinorGC()
	machine.GC.MinorGC()
	machine.GC.MinorGC()

	assert.Equal(t, 1, obj.generation, "object reachable across 3 minor GCs should be promoted")
}

func TestAsyncChannelSendRecv(t *testing.T) {
	rt := NewAsyncRuntime()
	ch := rt.MakeChannel(1)

	err := rt.Send(ch, IntVal(42))
	assert.NoError(t, err)

	v, err := rt.Recv(ch)
	assert.NoError(t, err)
	assert.Equal(t, int64(42), v.Int)
}

func TestAsyncChannelTimeout(t *testing.T) {
	rt := NewAsyncRuntime()
	ch := rt.MakeChannel(0)

	_, err := rt.RecvTimeout(ch, 20*time.Millisecond)
	assert.Error(t, err)
}

func TestAsyncSpawnAwait(t *testing.T) {
	rt := NewAsyncRuntime()
	id := rt.SpawnFunc(func() (Value, error) {
		return IntVal(7), nil
	})
	res, err := rt.Await(id)
	assert.NoError(t, err)
	assert.Equal(t, int64(7), res.Int)
}

func TestJITPromotesHotIntFunction(t *testing.T) {
	fn := &CompiledFunction{
		Name:   "double",
		Params: []string{"n"},
		Instructions: []Instruction{
			{Op: OpLoad, Name: "n"},
			{Op: OpLoad, Name: "n"},
			{Op: OpAdd},
			{Op: OpReturn},
		},
	}
	machine := New()
	machine.Define(fn)
	for i := 0; i < DefaultJITCallThreshold+1; i++ {
		_, err := machine.Call(fn, []Value{IntVal(int64(i))})
		assert.NoError(t, err)
	}
	assert.True(t, fn.Jitted)
}

func TestValueEqualWidening(t *testing.T) {
	assert.True(t, IntVal(2).Equal(FloatVal(2.0)))
	assert.False(t, IntVal(2).Equal(FloatVal(2.5)))
	assert.True(t, ArrayVal([]Value{IntVal(1)}).Equal(ArrayVal([]Value{IntVal(1)})))
}
