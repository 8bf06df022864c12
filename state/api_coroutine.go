package state

import "github.com/lollipopkit/luacore/api"

// NewThread spawns a sibling thread sharing this state's registry
// (and therefore its globals, string metatables, and loaded modules),
// per spec §4.4 "Coroutines" / "Shared resources".
func (ls *luaState) NewThread() api.LuaState {
	t := &luaState{registry: ls.registry}
	t.pushLuaStack(newLuaStack(api.MinStack, t))
	ls.stack.push(t)
	return t
}

// Resume starts or continues the coroutine ls, blocking the caller
// (from) until it yields or returns. Each thread runs on its own
// goroutine; coChan is the handshake that keeps exactly one of the
// pair runnable at a time, grounded on the teacher's
// state/api_coroutine.go resume/yield pairing.
func (ls *luaState) Resume(from api.LuaState, nArgs int) api.Status {
	lsFrom := from.(*luaState)
	if lsFrom.coChan == nil {
		lsFrom.coChan = make(chan int)
	}

	if ls.coChan == nil {
		ls.coChan = make(chan int)
		ls.coCaller = lsFrom
		go func() {
			ls.coStatus = ls.PCall(nArgs, -1, 0)
			lsFrom.coChan <- 1
		}()
	} else {
		if ls.coStatus != api.StatusYield {
			ls.stack.push("cannot resume non-suspended coroutine")
			return api.StatusErrRun
		}
		ls.coStatus = api.StatusOK
		ls.coChan <- 1
	}

	<-lsFrom.coChan
	return ls.coStatus
}

func (ls *luaState) Yield(nResults int) int {
	if ls.coCaller == nil {
		panic("attempt to yield from outside a coroutine")
	}
	ls.coStatus = api.StatusYield
	ls.coCaller.coChan <- 1
	<-ls.coChan
	return ls.GetTop()
}

func (ls *luaState) IsYieldable() bool {
	if ls.isMainThread() {
		return false
	}
	return ls.coStatus != api.StatusYield
}

func (ls *luaState) Status() api.Status {
	return ls.coStatus
}
