package state

import (
	"fmt"

	"github.com/lollipopkit/luacore/api"
	"github.com/lollipopkit/luacore/utils"
)

func typeOf(val any) api.LuaType {
	switch val.(type) {
	case nil:
		return api.TypeNil
	case bool:
		return api.TypeBoolean
	case int64, float64:
		return api.TypeNumber
	case string:
		return api.TypeString
	case *luaTable:
		return api.TypeTable
	case *closure:
		return api.TypeFunction
	case *luaState:
		return api.TypeThread
	default:
		panic(fmt.Sprintf("luacore: invalid value %#v (%T)", val, val))
	}
}

func convertToBoolean(val any) bool {
	switch x := val.(type) {
	case nil:
		return false
	case bool:
		return x
	default:
		return true
	}
}

// convertToFloat implements the Lua 5.3 manual §3.4.3 coercion rules.
func convertToFloat(val any) (float64, bool) {
	switch x := val.(type) {
	case int64:
		return float64(x), true
	case float64:
		return x, true
	case string:
		return utils.ParseFloat(x)
	default:
		return 0, false
	}
}

func convertToInteger(val any) (int64, bool) {
	switch x := val.(type) {
	case int64:
		return x, true
	case float64:
		return utils.FloatToInteger(x)
	case string:
		return stringToInteger(x)
	default:
		return 0, false
	}
}

func stringToInteger(s string) (int64, bool) {
	if i, ok := utils.ParseInteger(s); ok {
		return i, true
	}
	if f, ok := utils.ParseFloat(s); ok {
		return utils.FloatToInteger(f)
	}
	return 0, false
}

/* metatable: each type has a metatable keyed in the registry by its
   type tag, except tables and (in a later extension) userdata, which
   carry their own metatable pointer directly (spec §4.3, §4.4
   "Shared resources"). */

func metatableRegistryKey(tp api.LuaType) string {
	return fmt.Sprintf("_MT%d", tp)
}

func getMetatable(val any, ls *luaState) *luaTable {
	if t, ok := val.(*luaTable); ok {
		if t.metatable != nil {
			return t.metatable
		}
		return nil
	}
	key := metatableRegistryKey(typeOf(val))
	if mt := ls.registry.get(key); mt != nil {
		return mt.(*luaTable)
	}
	return nil
}

func setMetatable(val any, mt *luaTable, ls *luaState) {
	if t, ok := val.(*luaTable); ok {
		t.metatable = mt
		return
	}
	key := metatableRegistryKey(typeOf(val))
	if mt == nil {
		ls.registry.put(key, nil)
		return
	}
	ls.registry.put(key, mt)
}

func getMetafield(val any, fieldName string, ls *luaState) any {
	if mt := getMetatable(val, ls); mt != nil {
		return mt.get(fieldName)
	}
	return nil
}

func callMetamethod(a, b any, mmName string, ls *luaState) (any, bool) {
	var mm any
	if mm = getMetafield(a, mmName, ls); mm == nil {
		if mm = getMetafield(b, mmName, ls); mm == nil {
			return nil, false
		}
	}

	ls.stack.check(4)
	ls.stack.push(mm)
	ls.stack.push(a)
	ls.stack.push(b)
	ls.Call(2, 1)
	return ls.stack.pop(), true
}
