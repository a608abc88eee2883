package vm

// Op identifies one instruction variant (spec §4.6.1).
type Op uint8

const (
	OpLoad Op = iota
	OpStore
	OpConst
	OpAdd
	OpSub
	OpMul
	OpDiv
	OpCmp
	OpJump
	OpJumpIfFalse
	OpCall
	OpSelfCall
	OpReturn
	OpSpawn
	OpAwait
	OpYield
	OpChanSend
	OpChanRecv
	OpMakeArray
	OpIndexGet
	OpIndexSet
)

// CmpOp is Cmp's comparison operator (spec §4.6.1 `Cmp(op)`).
type CmpOp uint8

const (
	CmpEq CmpOp = iota
	CmpNe
	CmpLt
	CmpLe
	CmpGt
	CmpGe
)

// Instruction is one bytecode op plus its operands. Grounded on the
// teacher's CallFrame/Chunk shape generalized from a packed byte
// stream to a structured slice (spec §4.6.1 names instruction
// variants directly, e.g. `Load(name)`, rather than specifying a wire
// encoding).
type Instruction struct {
	Op     Op
	Name   string // Load/Store/Call/SelfCall target name
	Const  Value  // Const operand
	CmpOp  CmpOp
	Target int // Jump/JumpIfFalse destination instruction index
	Argc   int // Call/SelfCall argument count
}

// CompiledFunction is one function's compiled body (spec §4.6.1
// `CompiledFunction{name, param names, instruction list}`).
type CompiledFunction struct {
	Name         string
	Params       []string
	Instructions []Instruction
	CallCount    int64 // profiling counter consumed by jit.go
	IntCalls     int64 // calls observed with an all-Int argument profile
	Jitted       bool
	jitFn        func(args []int64) int64
}
