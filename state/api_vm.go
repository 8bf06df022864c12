package state

func (ls *luaState) PC() int {
	return ls.stack.pc
}

func (ls *luaState) AddPC(n int) {
	ls.stack.pc += n
}

func (ls *luaState) Fetch() uint32 {
	i := ls.stack.closure.proto.Code[ls.stack.pc]
	ls.stack.pc++
	return i
}

func (ls *luaState) GetConst(idx int) {
	ls.stack.push(ls.stack.closure.proto.Constants[idx])
}

// GetRK resolves a 9-bit RK(x) field: the top bit (0x100) selects a
// constant-pool index, otherwise it is a register number relative to
// the current frame (spec §4.2.8 "RK(x)").
func (ls *luaState) GetRK(rk int) {
	if rk > 0xFF {
		ls.GetConst(rk & 0xFF)
	} else {
		ls.PushValue(rk + 1)
	}
}

func (ls *luaState) RegisterCount() int {
	return int(ls.stack.closure.proto.MaxStackSize)
}

func (ls *luaState) LoadVararg(n int) {
	if n < 0 {
		n = len(ls.stack.varargs)
	}
	ls.stack.check(n)
	ls.stack.pushN(ls.stack.varargs, n)
}

// LoadProto builds the closure for Protos[idx], binding each of its
// upvalues either to a (possibly newly shared) open cell in this
// frame's register file or, for an upvalue captured transitively, to
// this frame's own closure upvalue of the same index (spec §3
// "Upvalue", §8 invariants 4-5).
func (ls *luaState) LoadProto(idx int) {
	stack := ls.stack
	subProto := stack.closure.proto.Protos[idx]
	c := newLuaClosure(subProto)

	for i, uv := range subProto.Upvalues {
		if uv.Instack == 1 {
			c.upvals[i] = stack.findOrCreateUpvalue(int(uv.Idx))
		} else {
			c.upvals[i] = stack.closure.upvals[uv.Idx]
		}
	}

	stack.push(c)
}

func (ls *luaState) CloseUpvalues(a int) {
	ls.stack.closeUpvalues(a - 1)
}
