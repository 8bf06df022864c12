package api

// LuaVM extends LuaState with the bookkeeping the bytecode dispatch
// loop needs but no ordinary host embedder should touch: the program
// counter, instruction fetch, constant/RK resolution, and the vararg
// and closure-building primitives referenced by CLOSURE/VARARG/
// TFORCALL. Kept separate from LuaState so a GoFunction written
// against the plain host API cannot reach into VM internals.
type LuaVM interface {
	LuaState

	PC() int
	AddPC(n int)
	Fetch() uint32
	GetConst(idx int)
	GetRK(rk int)

	RegisterCount() int
	LoadVararg(n int)
	LoadProto(idx int)
	CloseUpvalues(a int)
}
