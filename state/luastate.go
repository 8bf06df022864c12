// Package state implements the concrete Lua runtime: tagged values,
// the hybrid table, closures and upvalues, the call stack, and the
// full host API (api.LuaState/api.LuaVM) the vm package's opcode
// handlers drive. Grounded throughout on the teacher's state package,
// restructured where the teacher's "lk" semantics diverged from Lua
// 5.3 (tables, upvalues, binary-chunk loading).
package state

import "github.com/lollipopkit/luacore/api"

// luaState is one Lua thread: its own call-frame stack plus a pointer
// to registry/globals shared by every thread spawned from the same
// main state (spec §3, §4.4 "Coroutines").
type luaState struct {
	registry *luaTable
	stack    *luaStack

	coStatus api.Status
	coCaller *luaState
	coChan   chan int
}

// New creates the main Lua thread with an initialized registry
// (main-thread and globals entries) and one call frame.
func New() *luaState {
	registry := newLuaTable(8, 0)
	ls := &luaState{registry: registry}
	registry.put(api.RidxMainThread, ls)
	registry.put(api.RidxGlobals, newLuaTable(0, 32))
	ls.pushLuaStack(newLuaStack(api.MinStack, ls))
	return ls
}

func (ls *luaState) isMainThread() bool {
	return ls.registry.get(api.RidxMainThread) == ls
}

func (ls *luaState) pushLuaStack(stack *luaStack) {
	stack.prev = ls.stack
	ls.stack = stack
}

func (ls *luaState) popLuaStack() {
	stack := ls.stack
	ls.stack = stack.prev
	stack.prev = nil
}

func toTable(val any) *luaTable {
	t, _ := val.(*luaTable)
	return t
}
