package state_test

import (
	"testing"

	"github.com/lollipopkit/luacore/api"
	"github.com/lollipopkit/luacore/state"
	"github.com/lollipopkit/luacore/stdlib"
	"github.com/stretchr/testify/require"
)

func newTestState(t *testing.T) api.LuaState {
	t.Helper()
	ls := state.New()
	stdlib.OpenBase(ls)
	return ls
}

// run compiles and calls source, expecting nResults return values left
// on top of the stack (same Load+Call driving pattern as the teacher's
// state/listmap_test.go).
func run(t *testing.T, ls api.LuaState, source string, nResults int) {
	t.Helper()
	status := ls.Load([]byte(source), "test", "bt")
	require.Equal(t, api.StatusOK, status, "compile: %s", ls.ToString(-1))
	ls.Call(0, nResults)
}

// TestHashDeleteDoesNotOrphanChain is the maintainer-reported
// regression: both keys land in the hash part and, after the
// size-2 rehash, share main position 0; deleting the first must not
// make the second unreachable (spec §4.3 set/get, invariant 6).
func TestHashDeleteDoesNotOrphanChain(t *testing.T) {
	ls := newTestState(t)
	run(t, ls, `
		local t = {}
		t[1000] = 1
		t[2000] = 2
		t[1000] = nil
		return t[2000], t[1000]
	`, 2)
	require.Equal(t, int64(2), ls.ToInteger(-2))
	require.True(t, ls.IsNil(-1))
	ls.Pop(2)
}

// TestHashDeleteReusesDeadSlot checks the other half of the tombstone
// fix: re-assigning a deleted key reuses its slot rather than chaining
// a second node for the same key.
func TestHashDeleteReusesDeadSlot(t *testing.T) {
	ls := newTestState(t)
	run(t, ls, `
		local t = {}
		t[1000] = 1
		t[2000] = 2
		t[1000] = nil
		t[1000] = 3
		return t[1000], t[2000]
	`, 2)
	require.Equal(t, int64(3), ls.ToInteger(-2))
	require.Equal(t, int64(2), ls.ToInteger(-1))
	ls.Pop(2)
}

// scenarios 1-7 from spec §8 (scenario 5, integer division by zero,
// is the last subtest), adapted to `return` expressions
// rather than print() so results can be asserted off the stack.
func TestEndToEndScenarios(t *testing.T) {
	t.Run("arithmetic precedence", func(t *testing.T) {
		ls := newTestState(t)
		run(t, ls, `return 1+2*3`, 1)
		require.Equal(t, int64(7), ls.ToInteger(-1))
	})

	t.Run("recursive local function", func(t *testing.T) {
		ls := newTestState(t)
		run(t, ls, `
			local function f(n) if n<=1 then return 1 end return n*f(n-1) end
			return f(5)
		`, 1)
		require.Equal(t, int64(120), ls.ToInteger(-1))
	})

	t.Run("closure over a shared upvalue", func(t *testing.T) {
		ls := newTestState(t)
		run(t, ls, `
			local function c() local n=0 return function() n=n+1 return n end end
			local k=c()
			return k(),k(),k()
		`, 3)
		require.Equal(t, int64(1), ls.ToInteger(-3))
		require.Equal(t, int64(2), ls.ToInteger(-2))
		require.Equal(t, int64(3), ls.ToInteger(-1))
	})

	t.Run("array part and length", func(t *testing.T) {
		ls := newTestState(t)
		run(t, ls, `
			local t={10,20,30}
			return t[1],t[3],#t
		`, 3)
		require.Equal(t, int64(10), ls.ToInteger(-3))
		require.Equal(t, int64(30), ls.ToInteger(-2))
		require.Equal(t, int64(3), ls.ToInteger(-1))
	})

	t.Run("string concat in a loop", func(t *testing.T) {
		ls := newTestState(t)
		run(t, ls, `
			local s="ab"
			for i=1,3 do s=s..i end
			return s
		`, 1)
		require.Equal(t, "ab123", ls.ToString(-1))
	})

	t.Run("metatable __index function", func(t *testing.T) {
		ls := newTestState(t)
		run(t, ls, `
			local t={}
			t.x=1
			setmetatable(t,{__index=function(_,k) return "m_"..k end})
			return t.x, t.y
		`, 2)
		require.Equal(t, int64(1), ls.ToInteger(-2))
		require.Equal(t, "m_y", ls.ToString(-1))
	})

	t.Run("integer div by zero raises, mod and pow do not", func(t *testing.T) {
		ls := newTestState(t)
		status := ls.Load([]byte(`return -1%3, 2^10`), "test", "bt")
		require.Equal(t, api.StatusOK, status)
		ls.Call(0, 2)
		require.Equal(t, int64(2), ls.ToInteger(-2))
		require.Equal(t, 1024.0, ls.ToNumber(-1))
		ls.Pop(2)

		status = ls.Load([]byte(`return 1//0`), "test2", "bt")
		require.Equal(t, api.StatusOK, status)
		status = ls.PCall(0, 1, 0)
		require.NotEqual(t, api.StatusOK, status, "integer // by zero must raise")
	})
}

func TestDoStringSurfacesSyntaxError(t *testing.T) {
	ls := newTestState(t)
	err := ls.DoString("local =")
	require.Error(t, err)
}
