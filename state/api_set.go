package state

import (
	"fmt"

	"github.com/lollipopkit/luacore/api"
)

func (ls *luaState) SetTable(idx int) {
	t := ls.stack.get(idx)
	v := ls.stack.pop()
	k := ls.stack.pop()
	ls.setTable(t, k, v, false)
}

func (ls *luaState) SetField(idx int, k string) {
	t := ls.stack.get(idx)
	v := ls.stack.pop()
	ls.setTable(t, k, v, false)
}

func (ls *luaState) SetI(idx int, i int64) {
	t := ls.stack.get(idx)
	v := ls.stack.pop()
	ls.setTable(t, i, v, false)
}

func (ls *luaState) RawSet(idx int) {
	t := ls.stack.get(idx)
	v := ls.stack.pop()
	k := ls.stack.pop()
	ls.setTable(t, k, v, true)
}

func (ls *luaState) RawSetI(idx int, i int64) {
	t := ls.stack.get(idx)
	v := ls.stack.pop()
	ls.setTable(t, i, v, true)
}

func (ls *luaState) SetMetatable(idx int) {
	val := ls.stack.get(idx)
	mtVal := ls.stack.pop()
	mt, _ := mtVal.(*luaTable)
	setMetatable(val, mt, ls)
}

// setTable implements SETTABLE's __newindex fallback, mirroring
// getTable's chain-with-cycle-guard shape (spec §4.3).
func (ls *luaState) setTable(t, k, v any, raw bool) {
	for loop := 0; loop < api.MaxMetaLoop; loop++ {
		if tbl, ok := t.(*luaTable); ok {
			if raw || tbl.get(k) != nil || !tbl.hasMetafield("__newindex") {
				tbl.put(k, v)
				return
			}
		} else if raw {
			panic(fmt.Sprintf("attempt to index a %s value", ls.TypeName(typeOf(t))))
		}

		mf := getMetafield(t, "__newindex", ls)
		if mf == nil {
			panic(fmt.Sprintf("attempt to index a %s value", ls.TypeName(typeOf(t))))
		}
		if _, ok := mf.(*closure); ok {
			ls.stack.push(mf)
			ls.stack.push(t)
			ls.stack.push(k)
			ls.stack.push(v)
			ls.Call(3, 0)
			return
		}
		t = mf
	}
	panic("'__newindex' chain too long; possible loop")
}
