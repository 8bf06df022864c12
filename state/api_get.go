package state

import (
	"fmt"

	"github.com/lollipopkit/luacore/api"
)

func (ls *luaState) NewTable() {
	ls.CreateTable(0, 0)
}

func (ls *luaState) CreateTable(nArr, nRec int) {
	ls.stack.push(newLuaTable(nArr, nRec))
}

func (ls *luaState) GetTable(idx int) api.LuaType {
	t := ls.stack.get(idx)
	k := ls.stack.pop()
	return ls.getTable(t, k, false)
}

func (ls *luaState) GetField(idx int, k string) api.LuaType {
	return ls.getTable(ls.stack.get(idx), k, false)
}

func (ls *luaState) GetI(idx int, i int64) api.LuaType {
	return ls.getTable(ls.stack.get(idx), i, false)
}

func (ls *luaState) RawGet(idx int) api.LuaType {
	t := ls.stack.get(idx)
	k := ls.stack.pop()
	return ls.getTable(t, k, true)
}

func (ls *luaState) RawGetI(idx int, i int64) api.LuaType {
	return ls.getTable(ls.stack.get(idx), i, true)
}

func (ls *luaState) GetMetatable(idx int) bool {
	if mt := getMetatable(ls.stack.get(idx), ls); mt != nil {
		ls.stack.push(mt)
		return true
	}
	return false
}

// getTable implements GETTABLE's fallback (spec §4.3 "Indexing"):
// a direct hit, or a present-but-missing __index metafield, stops the
// chain; otherwise follow __index (table or function) up to
// api.MaxMetaLoop hops before declaring a metatable cycle.
func (ls *luaState) getTable(t, k any, raw bool) api.LuaType {
	for loop := 0; loop < api.MaxMetaLoop; loop++ {
		if tbl, ok := t.(*luaTable); ok {
			v := tbl.get(k)
			if v != nil || raw || !tbl.hasMetafield("__index") {
				ls.stack.push(v)
				return typeOf(v)
			}
		} else if raw {
			panic(fmt.Sprintf("attempt to index a %s value", ls.TypeName(typeOf(t))))
		}

		mf := getMetafield(t, "__index", ls)
		if mf == nil {
			panic(fmt.Sprintf("attempt to index a %s value", ls.TypeName(typeOf(t))))
		}
		if c, ok := mf.(*closure); ok {
			ls.stack.push(mf)
			ls.stack.push(t)
			ls.stack.push(k)
			ls.Call(2, 1)
			v := ls.stack.get(-1)
			_ = c
			return typeOf(v)
		}
		t = mf
	}
	panic("'__index' chain too long; possible loop")
}
