package api

// GoFunction is a function implemented in Go and callable from Lua
// code via the same register-window calling convention as a Lua
// closure: arguments arrive as stack slots above the function value,
// results are pushed back, and the return value is the result count
// (or MultiRet-style variable count handled by the caller reading the
// stack top).
type GoFunction func(s LuaState) int

// BasicAPI mirrors lua.h's stack-oriented surface: every value the
// host or a GoFunction touches is addressed by a stack index, never
// by a Go reference, so Lua code and host code share one protocol.
type BasicAPI interface {
	GetTop() int
	AbsIndex(idx int) int
	CheckStack(n int) bool
	Pop(n int)
	Copy(fromIdx, toIdx int)
	PushValue(idx int)
	Replace(idx int)
	Insert(idx int)
	Remove(idx int)
	Rotate(idx, n int)
	SetTop(idx int)

	TypeName(tp LuaType) string
	Type(idx int) LuaType
	IsNone(idx int) bool
	IsNil(idx int) bool
	IsNoneOrNil(idx int) bool
	IsBoolean(idx int) bool
	IsInteger(idx int) bool
	IsNumber(idx int) bool
	IsString(idx int) bool
	IsTable(idx int) bool
	IsFunction(idx int) bool
	IsGoFunction(idx int) bool

	ToBoolean(idx int) bool
	ToInteger(idx int) int64
	ToIntegerX(idx int) (int64, bool)
	ToNumber(idx int) float64
	ToNumberX(idx int) (float64, bool)
	ToString(idx int) string
	ToStringX(idx int) (string, bool)

	PushNil()
	PushBoolean(b bool)
	PushInteger(n int64)
	PushNumber(n float64)
	PushString(s string)
	PushGoFunction(f GoFunction)
	PushGoClosure(f GoFunction, n int)
	PushGlobalTable()

	Arith(op ArithOp)
	Compare(idx1, idx2 int, op CompareOp) bool
	Len(idx int)
	Concat(n int)

	NewTable()
	CreateTable(nArr, nRec int)
	GetTable(idx int) LuaType
	GetField(idx int, k string) LuaType
	GetI(idx int, i int64) LuaType
	RawGet(idx int) LuaType
	RawGetI(idx int, i int64) LuaType
	SetTable(idx int)
	SetField(idx int, k string)
	SetI(idx int, i int64)
	RawSet(idx int)
	RawSetI(idx int, i int64)

	SetMetatable(idx int)
	GetMetatable(idx int) bool
	RawLen(idx int) uint
	RawEqual(idx1, idx2 int) bool
	Next(idx int) bool

	Call(nArgs, nResults int)
	PCall(nArgs, nResults, msgh int) Status
	Load(chunk []byte, chunkName, mode string) Status

	NewThread() LuaState
	Resume(from LuaState, nArgs int) Status
	Yield(nResults int) int
	Status() Status
	IsYieldable() bool

	Error() int
	RaiseError(format string, args ...any) int
	StringToNumber(s string) bool
}

// AuxLib mirrors lauxlib.h's argument-checking and error-message
// conveniences built atop BasicAPI.
type AuxLib interface {
	CheckInt(idx int) int64
	CheckNumber(idx int) float64
	CheckString(idx int) string
	CheckType(idx int, t LuaType)
	OptInt(idx int, d int64) int64
	OptNumber(idx int, d float64) float64
	OptString(idx int, d string) string
	ArgError(idx int, extraMsg string) int
	Where(level int) string
	DoString(s string) error
}

// LuaState is the full host-facing surface a GoFunction or embedder
// interacts with. Both api_*.go files in state satisfy it.
type LuaState interface {
	BasicAPI
	AuxLib
}
