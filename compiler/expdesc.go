package compiler

import "github.com/lollipopkit/luacore/vm"

// expdesc kinds, following lparser.c's expkind: the single-pass
// parser keeps one of these live per (sub)expression it has parsed so
// far, discharging it to a register only when a consumer (an
// assignment, a call, another operator) actually needs the value in
// one.
type expKind int

const (
	vVoid expKind = iota
	vNil
	vTrue
	vFalse
	vK        // constant pool index, in info
	vKNum     // numeric literal not yet interned, in nval
	vNonReloc // already in a fixed register, in info
	vLocal    // local variable, register in info
	vUpval    // upvalue index, in info
	vIndexedUp
	vIndexed // t[k]: t register/upval in info, k RK in aux
	vJmp     // test/comparison, pc of the jump in info
	vRelocable
	vCall
	vVararg
)

type expdesc struct {
	kind expKind
	info int
	aux  int
	nval interface{}
	t    int // patch list: true exit
	f    int // patch list: false exit
}

func newExpdesc(kind expKind, info int) expdesc {
	return expdesc{kind: kind, info: info, t: -1, f: -1}
}

func (e expdesc) hasMultiRet() bool {
	return e.kind == vCall || e.kind == vVararg
}

func (e expdesc) isVar() bool {
	return e.kind == vLocal || e.kind == vUpval || e.kind == vIndexed || e.kind == vIndexedUp
}

// dischargeVars ensures e no longer references a variable/upvalue/
// table field directly, turning it into a vRelocable or vNonReloc
// result the caller can freely move around, mirroring lparser.c's
// dischargevars.
func (ps *parseState) dischargeVars(e expdesc) expdesc {
	switch e.kind {
	case vLocal:
		e.kind = vNonReloc
	case vUpval:
		e.kind = vRelocable
	case vIndexedUp:
		fs := ps.fs
		fs.emitGetTabUp(ps.line, 0, e.info, e.aux)
		e = newExpdesc(vRelocable, fs.pc())
	case vIndexed:
		fs := ps.fs
		fs.emitGetTable(ps.line, 0, e.info, e.aux)
		e = newExpdesc(vRelocable, fs.pc())
	case vCall:
		e = ps.setOneRet(e)
	case vVararg:
		fs := ps.fs
		fs.emitVararg(ps.line, 0, 2)
		e = newExpdesc(vRelocable, fs.pc())
	}
	return e
}

func (ps *parseState) setOneRet(e expdesc) expdesc {
	if e.kind == vCall {
		fs := ps.fs
		fs.insts[e.info] = setArgC(fs.insts[e.info], 2)
		return newExpdesc(vRelocable, e.info)
	}
	if e.kind == vVararg {
		fs := ps.fs
		fs.insts[e.info] = setArgB(fs.insts[e.info], 2)
		return newExpdesc(vRelocable, e.info)
	}
	return e
}

func setArgC(i uint32, c int) uint32 {
	return i&^(0x1FF<<14) | uint32(c)<<14
}

func setArgB(i uint32, b int) uint32 {
	return i&^(0x1FF<<23) | uint32(b)<<23
}

// freeExp frees e's register if it occupies one that is not a local
// variable's, matching lparser.c's freeexp.
func (fs *funcState) freeExp(e expdesc) {
	if e.kind == vNonReloc {
		fs.freeExpReg(e.info)
	}
}

// freeExpReg releases reg only when it is the topmost allocated
// register: locals are allocated below any temporary, so this never
// frees a variable's own slot.
func (fs *funcState) freeExpReg(reg int) {
	if reg != fs.usedRegs-1 {
		return
	}
	for _, lv := range fs.locNames {
		for ; lv != nil; lv = lv.prev {
			if lv.slot == reg {
				return
			}
		}
	}
	fs.freeReg()
}

// dischargeToReg forces e's value into register reg, emitting
// whatever load/move instruction its kind requires.
func (ps *parseState) dischargeToReg(e expdesc, reg int) {
	fs := ps.fs
	e = ps.dischargeVars(e)
	switch e.kind {
	case vNil:
		fs.emitLoadNil(ps.line, reg, 1)
	case vTrue:
		fs.emitLoadBool(ps.line, reg, 1, 0)
	case vFalse:
		fs.emitLoadBool(ps.line, reg, 0, 0)
	case vK:
		fs.emitABx(ps.line, vm.OP_LOADK, reg, e.info)
	case vKNum:
		fs.emitLoadK(ps.line, reg, e.nval)
	case vRelocable:
		fs.insts[e.info] = setArgA(fs.insts[e.info], reg)
	case vNonReloc:
		if reg != e.info {
			fs.emitMove(ps.line, reg, e.info)
		}
	default:
		return
	}
}

func setArgA(i uint32, a int) uint32 {
	return i&^(0xFF<<6) | uint32(a)<<6
}

// exprToNextReg discharges e into a freshly allocated register and
// returns that register's index, the common path for "I need this
// value in a register, any register."
func (ps *parseState) exprToNextReg(e expdesc) int {
	fs := ps.fs
	e = ps.dischargeVars(e)
	fs.freeExp(e)
	reg := fs.allocReg()
	ps.dischargeToReg(e, reg)
	return reg
}

// exprToAnyReg returns a register already holding e's value, reusing
// e.info when e is already vNonReloc (avoiding a redundant MOVE).
func (ps *parseState) exprToAnyReg(e expdesc) int {
	e = ps.dischargeVars(e)
	if e.kind == vNonReloc {
		return e.info
	}
	return ps.exprToNextReg(e)
}

// exprToRK resolves e to an RK(x) operand: a constant-pool index
// (flagged with bit 0x100) when e is a literal, otherwise a register.
func (ps *parseState) exprToRK(e expdesc) int {
	switch e.kind {
	case vNil:
		return 0x100 | ps.fs.indexOfConstant(nil)
	case vTrue:
		return 0x100 | ps.fs.indexOfConstant(true)
	case vFalse:
		return 0x100 | ps.fs.indexOfConstant(false)
	case vKNum:
		return 0x100 | ps.fs.indexOfConstant(e.nval)
	case vK:
		if e.info <= 0xFF {
			return 0x100 | e.info
		}
	}
	return ps.exprToAnyReg(e)
}
