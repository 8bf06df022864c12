package state

import (
	"fmt"

	"github.com/lollipopkit/luacore/api"
)

func (ls *luaState) ArgError(arg int, extraMsg string) int {
	return ls.RaiseError("bad argument #%d (%s)", arg, extraMsg)
}

func (ls *luaState) CheckType(idx int, t api.LuaType) {
	if ls.Type(idx) != t {
		ls.typeError(idx, ls.TypeName(t))
	}
}

func (ls *luaState) CheckInt(idx int) int64 {
	i, ok := ls.ToIntegerX(idx)
	if !ok {
		if ls.IsNumber(idx) {
			ls.ArgError(idx, "number has no integer representation")
		} else {
			ls.typeError(idx, ls.TypeName(api.TypeNumber))
		}
	}
	return i
}

func (ls *luaState) CheckNumber(idx int) float64 {
	f, ok := ls.ToNumberX(idx)
	if !ok {
		ls.typeError(idx, ls.TypeName(api.TypeNumber))
	}
	return f
}

func (ls *luaState) CheckString(idx int) string {
	s, ok := ls.ToStringX(idx)
	if !ok {
		ls.typeError(idx, ls.TypeName(api.TypeString))
	}
	return s
}

func (ls *luaState) OptInt(idx int, d int64) int64 {
	if ls.IsNoneOrNil(idx) {
		return d
	}
	return ls.CheckInt(idx)
}

func (ls *luaState) OptNumber(idx int, d float64) float64 {
	if ls.IsNoneOrNil(idx) {
		return d
	}
	return ls.CheckNumber(idx)
}

func (ls *luaState) OptString(idx int, d string) string {
	if ls.IsNoneOrNil(idx) {
		return d
	}
	return ls.CheckString(idx)
}

func (ls *luaState) Where(level int) string {
	return "" // no frame-line tracking across Go call boundaries yet
}

func (ls *luaState) typeError(idx int, expected string) int {
	got := ls.TypeName(typeOfIdx(ls, idx))
	return ls.ArgError(idx, fmt.Sprintf("%s expected, got %s", expected, got))
}

func typeOfIdx(ls *luaState, idx int) api.LuaType {
	return ls.Type(idx)
}

// DoString compiles and runs s in protected mode, the convenience the
// CLI and REPL call directly.
func (ls *luaState) DoString(s string) error {
	if status := ls.Load([]byte(s), s, "bt"); status != api.StatusOK {
		msg := ls.ToString(-1)
		ls.Pop(1)
		return fmt.Errorf("%s", msg)
	}
	if status := ls.PCall(0, 0, 0); status != api.StatusOK {
		msg := ls.ToString(-1)
		ls.Pop(1)
		return fmt.Errorf("%s", msg)
	}
	return nil
}
