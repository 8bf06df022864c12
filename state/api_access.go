package state

import "github.com/lollipopkit/luacore/api"

func (ls *luaState) TypeName(tp api.LuaType) string {
	switch tp {
	case api.TypeNone:
		return "no value"
	case api.TypeNil:
		return "nil"
	case api.TypeBoolean:
		return "boolean"
	case api.TypeNumber:
		return "number"
	case api.TypeString:
		return "string"
	case api.TypeTable:
		return "table"
	case api.TypeFunction:
		return "function"
	case api.TypeThread:
		return "thread"
	default:
		return "userdata"
	}
}

func (ls *luaState) Type(idx int) api.LuaType {
	if ls.stack.isValid(idx) {
		return typeOf(ls.stack.get(idx))
	}
	return api.TypeNone
}

func (ls *luaState) IsNone(idx int) bool       { return ls.Type(idx) == api.TypeNone }
func (ls *luaState) IsNil(idx int) bool        { return ls.Type(idx) == api.TypeNil }
func (ls *luaState) IsNoneOrNil(idx int) bool  { return ls.Type(idx) <= api.TypeNil }
func (ls *luaState) IsBoolean(idx int) bool    { return ls.Type(idx) == api.TypeBoolean }
func (ls *luaState) IsTable(idx int) bool      { return ls.Type(idx) == api.TypeTable }
func (ls *luaState) IsFunction(idx int) bool   { return ls.Type(idx) == api.TypeFunction }
func (ls *luaState) IsThread(idx int) bool     { return ls.Type(idx) == api.TypeThread }

func (ls *luaState) IsString(idx int) bool {
	t := ls.Type(idx)
	return t == api.TypeString || t == api.TypeNumber
}

func (ls *luaState) IsNumber(idx int) bool {
	_, ok := ls.ToNumberX(idx)
	return ok
}

func (ls *luaState) IsInteger(idx int) bool {
	_, ok := ls.stack.get(idx).(int64)
	return ok
}

func (ls *luaState) IsGoFunction(idx int) bool {
	if c, ok := ls.stack.get(idx).(*closure); ok {
		return c.goFunc != nil
	}
	return false
}

func (ls *luaState) ToBoolean(idx int) bool {
	return convertToBoolean(ls.stack.get(idx))
}

func (ls *luaState) ToInteger(idx int) int64 {
	i, _ := ls.ToIntegerX(idx)
	return i
}

func (ls *luaState) ToIntegerX(idx int) (int64, bool) {
	return convertToInteger(ls.stack.get(idx))
}

func (ls *luaState) ToNumber(idx int) float64 {
	n, _ := ls.ToNumberX(idx)
	return n
}

func (ls *luaState) ToNumberX(idx int) (float64, bool) {
	return convertToFloat(ls.stack.get(idx))
}

func (ls *luaState) ToString(idx int) string {
	s, _ := ls.ToStringX(idx)
	return s
}

func (ls *luaState) ToStringX(idx int) (string, bool) {
	val := ls.stack.get(idx)
	switch x := val.(type) {
	case string:
		return x, true
	case int64, float64:
		s := luaToString(x)
		ls.stack.set(idx, s)
		return s, true
	default:
		return "", false
	}
}

func (ls *luaState) ToGoFunction(idx int) api.GoFunction {
	if c, ok := ls.stack.get(idx).(*closure); ok {
		return c.goFunc
	}
	return nil
}

func (ls *luaState) ToThread(idx int) api.LuaState {
	if s, ok := ls.stack.get(idx).(*luaState); ok {
		return s
	}
	return nil
}
