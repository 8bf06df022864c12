package state

import (
	"fmt"

	"github.com/lollipopkit/luacore/api"
	"github.com/lollipopkit/luacore/binchunk"
)

// closure is either a Lua closure (proto set) or a host closure
// (goFunc set), each carrying its own upvalue vector. Grounded on the
// teacher's state/closure.go, generalized from a bare []*any upvalue
// slice to []*upvalue cells so captures can stay open and shared
// (see upvalue.go).
type closure struct {
	proto  *binchunk.Prototype
	goFunc api.GoFunction
	upvals []*upvalue
}

func newLuaClosure(proto *binchunk.Prototype) *closure {
	c := &closure{proto: proto}
	if n := len(proto.Upvalues); n > 0 {
		c.upvals = make([]*upvalue, n)
	}
	return c
}

func newGoClosure(f api.GoFunction, nUpvals int) *closure {
	c := &closure{goFunc: f}
	if nUpvals > 0 {
		c.upvals = make([]*upvalue, nUpvals)
		for i := range c.upvals {
			c.upvals[i] = &upvalue{}
		}
	}
	return c
}

func (c *closure) String() string {
	if c.goFunc != nil {
		return fmt.Sprintf("function: builtin: %p", c.goFunc)
	}
	return fmt.Sprintf("function: %p", c.proto)
}
