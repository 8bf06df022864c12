package state

import "github.com/lollipopkit/luacore/api"

func (ls *luaState) Compare(idx1, idx2 int, op api.CompareOp) bool {
	a := ls.stack.get(idx1)
	b := ls.stack.get(idx2)
	switch op {
	case api.OpEq:
		return ls.equals(a, b)
	case api.OpLt:
		return ls.lessThan(a, b)
	case api.OpLe:
		return ls.lessEqual(a, b)
	default:
		panic("invalid compare op")
	}
}

func (ls *luaState) equals(a, b any) bool {
	switch x := a.(type) {
	case nil:
		return b == nil
	case bool:
		y, ok := b.(bool)
		return ok && x == y
	case string:
		y, ok := b.(string)
		return ok && x == y
	case int64:
		switch y := b.(type) {
		case int64:
			return x == y
		case float64:
			return float64(x) == y
		}
		return false
	case float64:
		switch y := b.(type) {
		case int64:
			return x == float64(y)
		case float64:
			return x == y
		}
		return false
	case *luaTable:
		if y, ok := b.(*luaTable); ok {
			if x == y {
				return true
			}
			if r, ok := callMetamethod(x, y, "__eq", ls); ok {
				return convertToBoolean(r)
			}
		}
		return false
	default:
		return a == b
	}
}

func (ls *luaState) lessThan(a, b any) bool {
	if an, aok := numericValue(a); aok {
		if bn, bok := numericValue(b); bok {
			return an < bn
		}
	}
	if as, aok := a.(string); aok {
		if bs, bok := b.(string); bok {
			return as < bs
		}
	}
	if r, ok := callMetamethod(a, b, "__lt", ls); ok {
		return convertToBoolean(r)
	}
	panic("attempt to compare two incompatible values")
}

func (ls *luaState) lessEqual(a, b any) bool {
	if an, aok := numericValue(a); aok {
		if bn, bok := numericValue(b); bok {
			return an <= bn
		}
	}
	if as, aok := a.(string); aok {
		if bs, bok := b.(string); bok {
			return as <= bs
		}
	}
	if r, ok := callMetamethod(a, b, "__le", ls); ok {
		return convertToBoolean(r)
	}
	panic("attempt to compare two incompatible values")
}

func numericValue(v any) (float64, bool) {
	switch x := v.(type) {
	case int64:
		return float64(x), true
	case float64:
		return x, true
	default:
		return 0, false
	}
}

func (ls *luaState) Len(idx int) {
	val := ls.stack.get(idx)
	if s, ok := val.(string); ok {
		ls.stack.push(int64(len(s)))
		return
	}
	if t := toTable(val); t != nil {
		if t.hasMetafield("__len") {
			if result, ok := callMetamethod(val, val, "__len", ls); ok {
				ls.stack.push(result)
				return
			}
		}
		ls.stack.push(int64(t.len()))
		return
	}
	if result, ok := callMetamethod(val, val, "__len", ls); ok {
		ls.stack.push(result)
		return
	}
	panic("attempt to get length of a " + ls.TypeName(typeOf(val)) + " value")
}

func (ls *luaState) RawLen(idx int) uint {
	val := ls.stack.get(idx)
	switch x := val.(type) {
	case string:
		return uint(len(x))
	case *luaTable:
		return uint(x.len())
	default:
		return 0
	}
}

func (ls *luaState) RawEqual(idx1, idx2 int) bool {
	a := ls.stack.get(idx1)
	b := ls.stack.get(idx2)
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	return a == b
}

// Concat implements the ".." operator chain CONCAT pushes onto the
// stack: right-to-left reduction, string/number coercion before
// falling back to __concat (spec §4.3).
func (ls *luaState) Concat(n int) {
	if n == 0 {
		ls.stack.push("")
		return
	}
	if n == 1 {
		return
	}
	for n > 1 {
		b := ls.stack.pop()
		a := ls.stack.pop()
		bs, bIsStrNum := coercibleToString(b)
		as, aIsStrNum := coercibleToString(a)
		if aIsStrNum && bIsStrNum {
			ls.stack.push(as + bs)
		} else if r, ok := callMetamethod(a, b, "__concat", ls); ok {
			ls.stack.push(r)
		} else {
			panic("attempt to concatenate a " + ls.TypeName(typeOf(pickNonString(a, b))) + " value")
		}
		n--
	}
}

func coercibleToString(v any) (string, bool) {
	switch x := v.(type) {
	case string:
		return x, true
	case int64, float64:
		return luaToString(x), true
	default:
		return "", false
	}
}

func pickNonString(a, b any) any {
	if _, ok := coercibleToString(a); !ok {
		return a
	}
	return b
}
