package state

import (
	"fmt"

	"github.com/lollipopkit/luacore/api"
	"github.com/lollipopkit/luacore/vm"
)

func (ls *luaState) Call(nArgs, nResults int) {
	val := ls.stack.get(-(nArgs + 1))

	c, ok := val.(*closure)
	if !ok {
		if mf := getMetafield(val, "__call", ls); mf != nil {
			if c, ok = mf.(*closure); ok {
				ls.stack.push(val)
				ls.Insert(-(nArgs + 2))
				nArgs++
			}
		}
	}

	if !ok {
		panic(fmt.Sprintf("attempt to call a %s value", ls.TypeName(typeOf(val))))
	}

	if c.proto != nil {
		ls.callLuaClosure(nArgs, nResults, c)
	} else {
		ls.callGoClosure(nArgs, nResults, c)
	}
}

func (ls *luaState) callGoClosure(nArgs, nResults int, c *closure) {
	newStack := newLuaStack(nArgs+api.MinStack, ls)
	newStack.closure = c

	if nArgs > 0 {
		args := ls.stack.popN(nArgs)
		newStack.pushN(args, nArgs)
	}
	ls.stack.pop() // the function itself

	ls.pushLuaStack(newStack)
	r := c.goFunc(ls)
	ls.popLuaStack()

	if nResults != 0 {
		results := newStack.popN(r)
		ls.stack.check(len(results))
		ls.stack.pushN(results, nResults)
	}
}

func (ls *luaState) callLuaClosure(nArgs, nResults int, c *closure) {
	nRegs := int(c.proto.MaxStackSize)
	nParams := int(c.proto.NumParams)
	isVararg := c.proto.IsVararg == 1

	newStack := newLuaStack(nRegs+api.MinStack, ls)
	newStack.closure = c

	funcAndArgs := ls.stack.popN(nArgs + 1)
	newStack.pushN(funcAndArgs[1:], nParams)
	newStack.top = nRegs
	if nArgs > nParams && isVararg {
		newStack.varargs = funcAndArgs[nParams+1:]
	}

	ls.pushLuaStack(newStack)
	ls.runLuaClosure()
	newStack.closeUpvalues(0)
	ls.popLuaStack()

	if nResults != 0 {
		results := newStack.popN(newStack.top - nRegs)
		ls.stack.check(len(results))
		ls.stack.pushN(results, nResults)
	}
}

func (ls *luaState) runLuaClosure() {
	for {
		inst := vm.Instruction(ls.Fetch())
		inst.Execute(ls)
		if inst.Opcode() == vm.OP_RETURN {
			break
		}
	}
}

// PCall calls in protected mode, unwinding any frames pushed since the
// call and recovering a raised Lua value as the sole stack result on
// failure (spec §4.4 "Error handling"). msgh is accepted and ignored:
// no message handler is called.
func (ls *luaState) PCall(nArgs, nResults, msgh int) (status api.Status) {
	caller := ls.stack
	status = api.StatusErrRun

	defer func() {
		if err := recover(); err != nil {
			for ls.stack != caller {
				ls.popLuaStack()
			}
			ls.stack.push(err)
		}
	}()

	ls.Call(nArgs, nResults)
	status = api.StatusOK
	return
}
