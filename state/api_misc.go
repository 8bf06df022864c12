package state

import (
	"fmt"

	"github.com/lollipopkit/luacore/utils"
)

func (ls *luaState) Next(idx int) bool {
	val := ls.stack.get(idx)
	t := toTable(val)
	if t == nil {
		panic(fmt.Sprintf("bad argument to 'next' (table expected, got %s)", ls.TypeName(typeOf(val))))
	}
	key := ls.stack.pop()
	nk, nv, ok := t.nextKey(key)
	if !ok {
		panic("invalid key to 'next'")
	}
	if nk == nil && nv == nil {
		return false
	}
	ls.stack.push(nk)
	ls.stack.push(nv)
	return true
}

func (ls *luaState) Error() int {
	err := ls.stack.pop()
	panic(err)
}

func (ls *luaState) RaiseError(format string, args ...any) int {
	ls.stack.push(fmt.Sprintf(format, args...))
	return ls.Error()
}

func (ls *luaState) StringToNumber(s string) bool {
	if n, ok := utils.ParseInteger(s); ok {
		ls.PushInteger(n)
		return true
	}
	if n, ok := utils.ParseFloat(s); ok {
		ls.PushNumber(n)
		return true
	}
	return false
}
