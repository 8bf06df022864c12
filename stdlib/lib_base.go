// Package stdlib implements the minimal base library a host embedding
// this core needs for end-to-end scripts (print, pairs/ipairs/next,
// pcall/xpcall, setmetatable/getmetatable, type coercions), following
// the teacher's stdlib/lib_basic.go's open/install pattern but with
// standard Lua 5.3 global names rather than the teacher's own dialect
// (the teacher renames these to new/irange/range/str/num/...).
package stdlib

import (
	"fmt"

	"github.com/lollipopkit/luacore/api"
)

var baseFuncs = map[string]api.GoFunction{
	"print":         basePrint,
	"type":          baseType,
	"tostring":      baseToString,
	"tonumber":      baseToNumber,
	"assert":        baseAssert,
	"error":         baseError,
	"pcall":         basePCall,
	"xpcall":        baseXPCall,
	"ipairs":        baseIPairs,
	"pairs":         basePairs,
	"next":          baseNext,
	"rawget":        baseRawGet,
	"rawset":        baseRawSet,
	"rawequal":      baseRawEqual,
	"rawlen":        baseRawLen,
	"setmetatable":  baseSetMetatable,
	"getmetatable":  baseGetMetatable,
	"select":        baseSelect,
}

// OpenBase installs the base library into the global table, mirroring
// lua-5.3.4/src/lbaselib.c's luaopen_base (and the teacher's
// OpenBaseLib, which follows the same recipe for its own function set).
func OpenBase(ls api.LuaState) {
	ls.PushGlobalTable()
	for name, fn := range baseFuncs {
		ls.PushGoFunction(fn)
		ls.SetField(-2, name)
	}
	ls.PushValue(-1)
	ls.SetField(-2, "_G")
	ls.PushString("Lua 5.3")
	ls.SetField(-2, "_VERSION")
	ls.Pop(1)
}

// argCheck mirrors luaL_argcheck, built locally since LuaState exposes
// ArgError but not the luaL_argcheck condition wrapper itself.
func argCheck(ls api.LuaState, cond bool, idx int, extraMsg string) {
	if !cond {
		ls.ArgError(idx, extraMsg)
	}
}

func basePrint(ls api.LuaState) int {
	n := ls.GetTop()
	for i := 1; i <= n; i++ {
		if i > 1 {
			fmt.Print("\t")
		}
		fmt.Print(ls.ToString(i))
	}
	fmt.Println()
	return 0
}

func baseType(ls api.LuaState) int {
	t := ls.Type(1)
	argCheck(ls, t != api.TypeNone, 1, "value expected")
	ls.PushString(ls.TypeName(t))
	return 1
}

func baseToString(ls api.LuaState) int {
	argCheck(ls, ls.Type(1) != api.TypeNone, 1, "value expected")
	ls.PushString(ls.ToString(1))
	return 1
}

func baseToNumber(ls api.LuaState) int {
	if ls.IsNoneOrNil(2) {
		argCheck(ls, ls.Type(1) != api.TypeNone, 1, "value expected")
		if ls.IsNumber(1) {
			ls.SetTop(1)
			return 1
		}
		if s, ok := ls.ToStringX(1); ok && ls.StringToNumber(s) {
			return 1
		}
		ls.PushNil()
		return 1
	}
	ls.CheckType(1, api.TypeString)
	s := ls.CheckString(1)
	base := ls.CheckInt(2)
	argCheck(ls, 2 <= base && base <= 36, 2, "base out of range")
	if n, ok := parseIntBase(s, int(base)); ok {
		ls.PushInteger(n)
		return 1
	}
	ls.PushNil()
	return 1
}

func baseAssert(ls api.LuaState) int {
	if ls.ToBoolean(1) {
		return ls.GetTop()
	}
	argCheck(ls, ls.Type(1) != api.TypeNone, 1, "value expected")
	ls.Remove(1)
	ls.PushString("assertion failed!")
	ls.SetTop(1)
	return baseError(ls)
}

func baseError(ls api.LuaState) int {
	level := ls.OptInt(2, 1)
	if ls.IsString(1) && level > 0 {
		ls.PushString(ls.Where(int(level)) + ls.ToString(1))
		ls.Replace(1)
	}
	return ls.Error()
}

func basePCall(ls api.LuaState) int {
	nArgs := ls.GetTop() - 1
	status := ls.PCall(nArgs, api.MultiRet, 0)
	ls.PushBoolean(status == api.StatusOK)
	ls.Insert(1)
	return ls.GetTop()
}

// xpcall (f, msgh [, arg1, ···])
// Our PCall has no live message-handler hookup (state/api_call.go's
// msgh parameter is accepted and ignored), so the handler is invoked
// here, after the fact, with the error value.
func baseXPCall(ls api.LuaState) int {
	nArgs := ls.GetTop() - 2
	ls.PushValue(2)
	ls.Insert(1) // keep the handler below f: msgh, f, msgh, arg1, ...
	ls.Remove(3) // msgh, f, arg1, ...
	status := ls.PCall(nArgs, api.MultiRet, 0)
	if status != api.StatusOK {
		ls.PushValue(1)
		ls.Insert(-2) // handler, error value
		ls.Call(1, 1)
	}
	ls.Remove(1)
	ls.PushBoolean(status == api.StatusOK)
	ls.Insert(1)
	return ls.GetTop()
}

func baseIPairs(ls api.LuaState) int {
	argCheck(ls, ls.Type(1) != api.TypeNone, 1, "value expected")
	ls.PushGoFunction(iPairsAux)
	ls.PushValue(1)
	ls.PushInteger(0)
	return 3
}

func iPairsAux(ls api.LuaState) int {
	i := ls.CheckInt(2) + 1
	ls.PushInteger(i)
	if ls.GetI(1, i) == api.TypeNil {
		return 1
	}
	return 2
}

func basePairs(ls api.LuaState) int {
	argCheck(ls, ls.Type(1) != api.TypeNone, 1, "value expected")
	ls.PushGoFunction(baseNext)
	ls.PushValue(1)
	ls.PushNil()
	return 3
}

func baseNext(ls api.LuaState) int {
	ls.CheckType(1, api.TypeTable)
	ls.SetTop(2)
	if ls.Next(1) {
		return 2
	}
	ls.PushNil()
	return 1
}

func baseRawGet(ls api.LuaState) int {
	ls.CheckType(1, api.TypeTable)
	argCheck(ls, ls.Type(2) != api.TypeNone, 2, "value expected")
	ls.SetTop(2)
	ls.RawGet(1)
	return 1
}

func baseRawSet(ls api.LuaState) int {
	ls.CheckType(1, api.TypeTable)
	argCheck(ls, ls.Type(2) != api.TypeNone, 2, "value expected")
	argCheck(ls, ls.Type(3) != api.TypeNone, 3, "value expected")
	ls.SetTop(3)
	ls.RawSet(1)
	return 1
}

func baseRawEqual(ls api.LuaState) int {
	argCheck(ls, ls.Type(1) != api.TypeNone, 1, "value expected")
	argCheck(ls, ls.Type(2) != api.TypeNone, 2, "value expected")
	ls.PushBoolean(ls.RawEqual(1, 2))
	return 1
}

func baseRawLen(ls api.LuaState) int {
	t := ls.Type(1)
	argCheck(ls, t == api.TypeTable || t == api.TypeString, 1, "table or string expected")
	ls.PushInteger(int64(ls.RawLen(1)))
	return 1
}

func baseSetMetatable(ls api.LuaState) int {
	ls.CheckType(1, api.TypeTable)
	t := ls.Type(2)
	argCheck(ls, t == api.TypeNil || t == api.TypeTable, 2, "nil or table expected")
	ls.SetMetatable(1)
	ls.SetTop(1)
	return 1
}

func baseGetMetatable(ls api.LuaState) int {
	if !ls.GetMetatable(1) {
		ls.PushNil()
	}
	return 1
}

// select ('#', ···) or select (n, ···)
func baseSelect(ls api.LuaState) int {
	n := ls.GetTop()
	if ls.Type(1) == api.TypeString && ls.ToString(1) == "#" {
		ls.PushInteger(int64(n - 1))
		return 1
	}
	i := ls.CheckInt(1)
	if i < 0 {
		i = int64(n) + i
	}
	argCheck(ls, i >= 1, 1, "index out of range")
	if int(i) > n-1 {
		return 0
	}
	return n - int(i)
}

func parseIntBase(s string, base int) (int64, bool) {
	neg := false
	if len(s) > 0 && (s[0] == '+' || s[0] == '-') {
		neg = s[0] == '-'
		s = s[1:]
	}
	if s == "" {
		return 0, false
	}
	var n int64
	for i := 0; i < len(s); i++ {
		d, ok := digitVal(s[i])
		if !ok || d >= base {
			return 0, false
		}
		n = n*int64(base) + int64(d)
	}
	if neg {
		n = -n
	}
	return n, true
}

func digitVal(c byte) (int, bool) {
	switch {
	case c >= '0' && c <= '9':
		return int(c - '0'), true
	case c >= 'a' && c <= 'z':
		return int(c-'a') + 10, true
	case c >= 'A' && c <= 'Z':
		return int(c-'A') + 10, true
	}
	return 0, false
}
