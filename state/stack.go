package state

import "github.com/lollipopkit/luacore/api"

// luaStack is one call frame: the virtual register window a Lua
// closure's bytecode addresses, plus the bookkeeping the VM's fetch/
// call opcodes need. Grounded on the teacher's state/lk_stack.go,
// extended with an open-upvalue list (openUVs) the teacher's version
// never tracked.
type luaStack struct {
	slots   []any
	top     int
	state   *luaState
	closure *closure
	varargs []any
	openUVs []*upvalue
	pc      int
	prev    *luaStack
}

func newLuaStack(size int, state *luaState) *luaStack {
	return &luaStack{
		slots: make([]any, size),
		state: state,
	}
}

func (s *luaStack) check(n int) {
	free := len(s.slots) - s.top
	for i := free; i < n; i++ {
		s.slots = append(s.slots, nil)
	}
}

func (s *luaStack) push(val any) {
	if s.top == len(s.slots) {
		panic("stack overflow")
	}
	s.slots[s.top] = val
	s.top++
}

func (s *luaStack) pop() any {
	if s.top < 1 {
		panic("stack underflow")
	}
	s.top--
	val := s.slots[s.top]
	s.slots[s.top] = nil
	return val
}

func (s *luaStack) pushN(vals []any, n int) {
	nVals := len(vals)
	if n < 0 {
		n = nVals
	}
	for i := 0; i < n; i++ {
		if i < nVals {
			s.push(vals[i])
		} else {
			s.push(nil)
		}
	}
}

func (s *luaStack) popN(n int) []any {
	vals := make([]any, n)
	for i := n - 1; i >= 0; i-- {
		vals[i] = s.pop()
	}
	return vals
}

func (s *luaStack) absIndex(idx int) int {
	if idx >= 0 || idx <= api.RegistryIndex {
		return idx
	}
	return idx + s.top + 1
}

func (s *luaStack) isValid(idx int) bool {
	if idx < api.RegistryIndex {
		uvIdx := api.RegistryIndex - idx - 1
		c := s.closure
		return c != nil && uvIdx < len(c.upvals)
	}
	if idx == api.RegistryIndex {
		return true
	}
	absIdx := s.absIndex(idx)
	return absIdx > 0 && absIdx <= s.top
}

func (s *luaStack) get(idx int) any {
	if idx < api.RegistryIndex {
		uvIdx := api.RegistryIndex - idx - 1
		c := s.closure
		if c == nil || uvIdx >= len(c.upvals) {
			return nil
		}
		return c.upvals[uvIdx].get()
	}
	if idx == api.RegistryIndex {
		return s.state.registry
	}
	absIdx := s.absIndex(idx)
	if absIdx > 0 && absIdx <= s.top {
		return s.slots[absIdx-1]
	}
	return nil
}

func (s *luaStack) set(idx int, val any) {
	if idx < api.RegistryIndex {
		uvIdx := api.RegistryIndex - idx - 1
		c := s.closure
		if c != nil && uvIdx < len(c.upvals) {
			c.upvals[uvIdx].set(val)
		}
		return
	}
	if idx == api.RegistryIndex {
		s.state.registry = val.(*luaTable)
		return
	}
	absIdx := s.absIndex(idx)
	if absIdx > 0 && absIdx <= s.top {
		s.slots[absIdx-1] = val
		return
	}
	panic("invalid index")
}

func (s *luaStack) reverse(from, to int) {
	slots := s.slots
	for from < to {
		slots[from], slots[to] = slots[to], slots[from]
		from++
		to--
	}
}
