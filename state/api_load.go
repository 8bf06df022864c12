package state

import (
	"github.com/lollipopkit/luacore/api"
	"github.com/lollipopkit/luacore/binchunk"
	"github.com/lollipopkit/luacore/compiler"
)

// Load compiles or undumps chunk into a closure pushed on the stack,
// choosing between the binary-chunk and source paths the way
// luaL_loadfilex does, driven by mode ("b", "t", or "bt") and the
// chunk's own signature (spec §6).
func (ls *luaState) Load(chunk []byte, chunkName, mode string) api.Status {
	var proto *binchunk.Prototype
	var err error

	if binchunk.IsBinaryChunk(chunk) && mode != "t" {
		proto, err = binchunk.Undump(chunk)
	} else {
		proto, err = compiler.CompileCached(string(chunk), chunkName)
	}
	if err != nil {
		ls.stack.push(err.Error())
		return api.StatusErrSyntax
	}

	c := newLuaClosure(proto)
	ls.stack.push(c)
	if len(proto.Upvalues) > 0 {
		env := ls.registry.get(api.RidxGlobals)
		c.upvals[0] = &upvalue{val: env}
	}
	return api.StatusOK
}
