package state

import "github.com/lollipopkit/luacore/api"

func (ls *luaState) PushNil()          { ls.stack.push(nil) }
func (ls *luaState) PushBoolean(b bool) { ls.stack.push(b) }
func (ls *luaState) PushInteger(n int64) { ls.stack.push(n) }
func (ls *luaState) PushNumber(n float64) { ls.stack.push(n) }
func (ls *luaState) PushString(s string) { ls.stack.push(s) }

func (ls *luaState) PushGoFunction(f api.GoFunction) {
	ls.stack.push(newGoClosure(f, 0))
}

func (ls *luaState) PushGoClosure(f api.GoFunction, n int) {
	c := newGoClosure(f, n)
	for i := n; i > 0; i-- {
		v := ls.stack.pop()
		c.upvals[i-1] = &upvalue{val: v}
	}
	ls.stack.push(c)
}

func (ls *luaState) PushGlobalTable() {
	ls.stack.push(ls.registry.get(api.RidxGlobals))
}

func (ls *luaState) PushThread() bool {
	ls.stack.push(ls)
	return ls.isMainThread()
}
