// Package api defines the host-facing interfaces (LuaState, LuaVM,
// GoFunction) that the vm and state packages are built around. It
// exists as its own package, grounded on the teacher's api/ package,
// purely to break the import cycle: vm's opcode handlers call back
// into the interpreter through LuaVM without importing state, and
// state implements LuaVM without vm importing state.
package api

import "math/bits"

const (
	MinStack        = 20
	MaxStack        = 1000000
	RegistryIndex   = -MaxStack - 1000
	RidxMainThread  = int64(1)
	RidxGlobals     = int64(2)
	MultiRet        = -1
	MaxMetaLoop     = 2000 // bound on __index/__newindex chain length
)

const (
	offset       = bits.UintSize - 1
	MaxInteger   = 1<<offset - 1
	MinInteger   = -1 << offset
)

// LuaType identifies the dynamic type tag of a Value (spec §3).
type LuaType = int

const (
	TypeNone LuaType = iota - 1
	TypeNil
	TypeBoolean
	TypeLightUserData
	TypeNumber
	TypeString
	TypeTable
	TypeFunction
	TypeUserData
	TypeThread
)

// ArithOp selects one of the fourteen arithmetic/bitwise operators
// dispatched by the VM's binary/unary arithmetic opcodes.
type ArithOp = int

const (
	OpAdd ArithOp = iota
	OpSub
	OpMul
	OpMod
	OpPow
	OpDiv
	OpIDiv
	OpBAnd
	OpBOr
	OpBXor
	OpShl
	OpShr
	OpUnm
	OpBNot
)

// CompareOp selects one of the three comparison operators.
type CompareOp = int

const (
	OpEq CompareOp = iota
	OpLt
	OpLe
)

// Status is a thread's run state.
type Status int

const (
	StatusOK Status = iota
	StatusYield
	StatusErrRun
	StatusErrSyntax
	StatusErrMem
	StatusErrErr
)

// LuaUpvalIndex maps an upvalue's 1-based slot to the pseudo stack
// index GETUPVAL/SETUPVAL/GETTABUP/SETTABUP address it through,
// mirroring lua.h's lua_upvalueindex macro.
func LuaUpvalIndex(i int) int {
	return RegistryIndex - i
}
