package compiler

import (
	"github.com/lollipopkit/luacore/compiler/lexer"
	"github.com/lollipopkit/luacore/vm"
)

// Bytecode field widths, mirrored from vm/instruction.go (unexported
// there) since the single-pass emitter needs them to patch jump
// offsets as it discovers their targets.
const (
	maxArgBx  = 1<<18 - 1
	maxArgSBx = maxArgBx >> 1
)

var arithAndBitwiseBinops = map[int]int{
	lexer.TOKEN_OP_ADD:  vm.OP_ADD,
	lexer.TOKEN_OP_SUB:  vm.OP_SUB,
	lexer.TOKEN_OP_MUL:  vm.OP_MUL,
	lexer.TOKEN_OP_MOD:  vm.OP_MOD,
	lexer.TOKEN_OP_POW:  vm.OP_POW,
	lexer.TOKEN_OP_DIV:  vm.OP_DIV,
	lexer.TOKEN_OP_IDIV: vm.OP_IDIV,
	lexer.TOKEN_OP_BAND: vm.OP_BAND,
	lexer.TOKEN_OP_BOR:  vm.OP_BOR,
	lexer.TOKEN_OP_WAVE: vm.OP_BXOR,
	lexer.TOKEN_OP_SHL:  vm.OP_SHL,
	lexer.TOKEN_OP_SHR:  vm.OP_SHR,
}

type upvalInfo struct {
	locVarSlot int
	upvalIndex int
	index      int
}

// labelInfo records a ::name:: target already seen, so a later goto to
// it (or one that forward-referenced it) can be patched.
type labelInfo struct {
	name    string
	pc      int
	scopeLv int
}

// gotoInfo is a goto whose label has not been seen yet: its JMP sits
// at pc with a placeholder offset, resolved once createLabel sees a
// matching name.
type gotoInfo struct {
	name    string
	pc      int
	line    int
	scopeLv int
}

type locVarInfo struct {
	prev     *locVarInfo
	name     string
	scopeLv  int
	slot     int
	startPC  int
	endPC    int
	captured bool
}

// funcState is the single-pass analogue of the teacher's funcInfo:
// instead of feeding a finished AST to a second codegen pass, the
// parser drives this struct directly as it recognizes each
// construct, emitting instructions the moment enough of an
// expression or statement is known (spec §4.2 "single pass, no
// intermediate AST").
type funcState struct {
	parent       *funcState
	subFuncs     []*funcState
	usedRegs     int
	maxRegs      int
	scopeLv      int
	locVars      []*locVarInfo
	locNames     map[string]*locVarInfo
	upvalues     map[string]upvalInfo
	constants    map[interface{}]int
	breaks       [][]int
	labels       []*labelInfo
	pendingGotos []*gotoInfo
	insts        []uint32
	lineNums     []uint32
	source       string
	line         int
	lastLine     int
	numParams    int
	isVararg     bool
}

func newFuncState(parent *funcState, line int) *funcState {
	fs := &funcState{
		parent:    parent,
		locVars:   make([]*locVarInfo, 0, 8),
		locNames:  map[string]*locVarInfo{},
		upvalues:  map[string]upvalInfo{},
		constants: map[interface{}]int{},
		breaks:    make([][]int, 1),
		insts:     make([]uint32, 0, 8),
		lineNums:  make([]uint32, 0, 8),
		line:      line,
	}
	if parent != nil {
		fs.source = parent.source
	}
	return fs
}

/* constants */

func (fs *funcState) indexOfConstant(k interface{}) int {
	if idx, found := fs.constants[k]; found {
		return idx
	}
	idx := len(fs.constants)
	fs.constants[k] = idx
	return idx
}

/* registers */

func (fs *funcState) allocReg() int {
	fs.usedRegs++
	if fs.usedRegs >= 255 {
		panic("function or expression needs too many registers")
	}
	if fs.usedRegs > fs.maxRegs {
		fs.maxRegs = fs.usedRegs
	}
	return fs.usedRegs - 1
}

func (fs *funcState) freeReg() {
	if fs.usedRegs <= 0 {
		panic("usedRegs <= 0")
	}
	fs.usedRegs--
}

func (fs *funcState) allocRegs(n int) int {
	if n <= 0 {
		panic("n <= 0")
	}
	for i := 0; i < n; i++ {
		fs.allocReg()
	}
	return fs.usedRegs - n
}

func (fs *funcState) freeRegs(n int) {
	for i := 0; i < n; i++ {
		fs.freeReg()
	}
}

/* lexical scope */

func (fs *funcState) enterScope(breakable bool) {
	fs.scopeLv++
	if breakable {
		fs.breaks = append(fs.breaks, []int{})
	} else {
		fs.breaks = append(fs.breaks, nil)
	}
}

func (fs *funcState) exitScope(endPC int) {
	pendingBreakJmps := fs.breaks[len(fs.breaks)-1]
	fs.breaks = fs.breaks[:len(fs.breaks)-1]

	a := fs.getJmpArgA()
	for _, pc := range pendingBreakJmps {
		sBx := fs.pc() - pc
		i := (sBx+maxArgSBx)<<14 | a<<6 | vm.OP_JMP
		fs.insts[pc] = uint32(i)
	}

	fs.scopeLv--
	for name := range fs.locNames {
		if fs.locNames[name].scopeLv > fs.scopeLv {
			fs.locNames[name].endPC = endPC
			fs.removeLocVar(fs.locNames[name])
		}
	}
}

func (fs *funcState) removeLocVar(lv *locVarInfo) {
	fs.freeReg()
	if lv.prev == nil {
		delete(fs.locNames, lv.name)
	} else if lv.prev.scopeLv == lv.scopeLv {
		fs.removeLocVar(lv.prev)
	} else {
		fs.locNames[lv.name] = lv.prev
	}
}

func (fs *funcState) addLocVar(name string, startPC int) int {
	newVar := &locVarInfo{
		name:    name,
		prev:    fs.locNames[name],
		scopeLv: fs.scopeLv,
		slot:    fs.allocReg(),
		startPC: startPC,
	}
	fs.locVars = append(fs.locVars, newVar)
	fs.locNames[name] = newVar
	return newVar.slot
}

// addLocVarAt registers a local variable in a register already
// allocated (by a preceding expression-list discharge), without
// allocating a fresh one — used once local initializers have already
// landed in their final registers.
func (fs *funcState) addLocVarAt(name string, startPC, slot int) int {
	newVar := &locVarInfo{
		name:    name,
		prev:    fs.locNames[name],
		scopeLv: fs.scopeLv,
		slot:    slot,
		startPC: startPC,
	}
	fs.locVars = append(fs.locVars, newVar)
	fs.locNames[name] = newVar
	return slot
}

func (fs *funcState) slotOfLocVar(name string) int {
	if lv, found := fs.locNames[name]; found {
		return lv.slot
	}
	return -1
}

func (fs *funcState) addBreakJmp(pc int) {
	for i := fs.scopeLv; i >= 0; i-- {
		if fs.breaks[i] != nil {
			fs.breaks[i] = append(fs.breaks[i], pc)
			return
		}
	}
	panic("break outside a loop")
}

/* goto/label, modeled on lparser.c's gotostat/createlabel/solvegotos */

// jmpTarget computes the sBx operand that makes a JMP at pc land just
// before instruction targetPC, the same offset convention every other
// jump-patching call site in this file uses (fixSbx(pc, targetPC-1-pc)).
func jmpTarget(pc, targetPC int) int {
	return targetPC - 1 - pc
}

// createLabel records name as resolvable at the current code
// position and immediately patches every pending goto waiting on it
// (backward-goto case handled at the call site in gotoStat; this
// covers gotos that appeared earlier in the same function and forward
// -referenced this label).
func (fs *funcState) createLabel(name string) int {
	pc := len(fs.insts)
	fs.labels = append(fs.labels, &labelInfo{name: name, pc: pc, scopeLv: fs.scopeLv})

	remaining := fs.pendingGotos[:0]
	for _, g := range fs.pendingGotos {
		if g.name == name {
			fs.fixSbx(g.pc, jmpTarget(g.pc, pc))
		} else {
			remaining = append(remaining, g)
		}
	}
	fs.pendingGotos = remaining
	return pc
}

// findLabel returns the label named name, if one has already been
// created in this function (a backward goto).
func (fs *funcState) findLabel(name string) (*labelInfo, bool) {
	for _, l := range fs.labels {
		if l.name == name {
			return l, true
		}
	}
	return nil, false
}

// addPendingGoto records a goto whose label has not been seen yet, to
// be resolved by a later createLabel (or reported unresolved once the
// enclosing function body is done being parsed).
func (fs *funcState) addPendingGoto(name string, pc, line int) {
	fs.pendingGotos = append(fs.pendingGotos, &gotoInfo{name: name, pc: pc, line: line, scopeLv: fs.scopeLv})
}

/* upvalues */

func (fs *funcState) indexOfUpval(name string) int {
	if uv, ok := fs.upvalues[name]; ok {
		return uv.index
	}
	if fs.parent != nil {
		if lv, found := fs.parent.locNames[name]; found {
			idx := len(fs.upvalues)
			fs.upvalues[name] = upvalInfo{lv.slot, -1, idx}
			lv.captured = true
			return idx
		}
		if uvIdx := fs.parent.indexOfUpval(name); uvIdx >= 0 {
			idx := len(fs.upvalues)
			fs.upvalues[name] = upvalInfo{-1, uvIdx, idx}
			return idx
		}
	}
	return -1
}

func (fs *funcState) closeOpenUpvals(line int) {
	a := fs.getJmpArgA()
	if a > 0 {
		fs.emitJmp(line, a, 0)
	}
}

func (fs *funcState) getJmpArgA() int {
	hasCaptured := false
	minSlot := fs.maxRegs
	for name := range fs.locNames {
		if fs.locNames[name].scopeLv == fs.scopeLv {
			for v := fs.locNames[name]; v != nil && v.scopeLv == fs.scopeLv; v = v.prev {
				if v.captured {
					hasCaptured = true
				}
				if v.slot < minSlot && v.name[0] != '(' {
					minSlot = v.slot
				}
			}
		}
	}
	if hasCaptured {
		return minSlot + 1
	}
	return 0
}

/* code */

func (fs *funcState) pc() int {
	return len(fs.insts) - 1
}

func (fs *funcState) fixSbx(pc, sBx int) {
	i := fs.insts[pc]
	i = i << 18 >> 18
	i = i | uint32(sBx+maxArgSBx)<<14
	fs.insts[pc] = i
}

func (fs *funcState) fixEndPC(name string, delta int) {
	for i := len(fs.locVars) - 1; i >= 0; i-- {
		if fs.locVars[i].name == name {
			fs.locVars[i].endPC += delta
			return
		}
	}
}

func (fs *funcState) emitABC(line, opcode, a, b, c int) {
	i := b<<23 | c<<14 | a<<6 | opcode
	fs.insts = append(fs.insts, uint32(i))
	fs.lineNums = append(fs.lineNums, uint32(line))
}

func (fs *funcState) emitABx(line, opcode, a, bx int) {
	i := bx<<14 | a<<6 | opcode
	fs.insts = append(fs.insts, uint32(i))
	fs.lineNums = append(fs.lineNums, uint32(line))
}

func (fs *funcState) emitAsBx(line, opcode, a, b int) {
	i := (b+maxArgSBx)<<14 | a<<6 | opcode
	fs.insts = append(fs.insts, uint32(i))
	fs.lineNums = append(fs.lineNums, uint32(line))
}

func (fs *funcState) emitAx(line, opcode, ax int) {
	i := ax<<6 | opcode
	fs.insts = append(fs.insts, uint32(i))
	fs.lineNums = append(fs.lineNums, uint32(line))
}

func (fs *funcState) emitMove(line, a, b int) {
	fs.emitABC(line, vm.OP_MOVE, a, b, 0)
}

func (fs *funcState) emitLoadNil(line, a, n int) {
	fs.emitABC(line, vm.OP_LOADNIL, a, n-1, 0)
}

func (fs *funcState) emitLoadBool(line, a, b, c int) {
	fs.emitABC(line, vm.OP_LOADBOOL, a, b, c)
}

func (fs *funcState) emitLoadK(line, a int, k interface{}) {
	idx := fs.indexOfConstant(k)
	if idx < (1 << 18) {
		fs.emitABx(line, vm.OP_LOADK, a, idx)
	} else {
		fs.emitABx(line, vm.OP_LOADKX, a, 0)
		fs.emitAx(line, vm.OP_EXTRAARG, idx)
	}
}

func (fs *funcState) emitVararg(line, a, n int) {
	fs.emitABC(line, vm.OP_VARARG, a, n+1, 0)
}

func (fs *funcState) emitClosure(line, a, bx int) {
	fs.emitABx(line, vm.OP_CLOSURE, a, bx)
}

func (fs *funcState) emitNewTable(line, a, nArr, nRec int) {
	fs.emitABC(line, vm.OP_NEWTABLE, a, int2fb(nArr), int2fb(nRec))
}

func (fs *funcState) emitSetList(line, a, b, c int) {
	fs.emitABC(line, vm.OP_SETLIST, a, b, c)
}

func (fs *funcState) emitGetTable(line, a, b, c int) {
	fs.emitABC(line, vm.OP_GETTABLE, a, b, c)
}

func (fs *funcState) emitSetTable(line, a, b, c int) {
	fs.emitABC(line, vm.OP_SETTABLE, a, b, c)
}

func (fs *funcState) emitGetUpval(line, a, b int) {
	fs.emitABC(line, vm.OP_GETUPVAL, a, b, 0)
}

func (fs *funcState) emitSetUpval(line, a, b int) {
	fs.emitABC(line, vm.OP_SETUPVAL, a, b, 0)
}

func (fs *funcState) emitGetTabUp(line, a, b, c int) {
	fs.emitABC(line, vm.OP_GETTABUP, a, b, c)
}

func (fs *funcState) emitSetTabUp(line, a, b, c int) {
	fs.emitABC(line, vm.OP_SETTABUP, a, b, c)
}

func (fs *funcState) emitCall(line, a, nArgs, nRet int) {
	fs.emitABC(line, vm.OP_CALL, a, nArgs+1, nRet+1)
}

func (fs *funcState) emitTailCall(line, a, nArgs int) {
	fs.emitABC(line, vm.OP_TAILCALL, a, nArgs+1, 0)
}

func (fs *funcState) emitReturn(line, a, n int) {
	fs.emitABC(line, vm.OP_RETURN, a, n+1, 0)
}

func (fs *funcState) emitSelf(line, a, b, c int) {
	fs.emitABC(line, vm.OP_SELF, a, b, c)
}

func (fs *funcState) emitJmp(line, a, sBx int) int {
	fs.emitAsBx(line, vm.OP_JMP, a, sBx)
	return len(fs.insts) - 1
}

func (fs *funcState) emitTest(line, a, c int) {
	fs.emitABC(line, vm.OP_TEST, a, 0, c)
}

func (fs *funcState) emitTestSet(line, a, b, c int) {
	fs.emitABC(line, vm.OP_TESTSET, a, b, c)
}

func (fs *funcState) emitForPrep(line, a, sBx int) int {
	fs.emitAsBx(line, vm.OP_FORPREP, a, sBx)
	return len(fs.insts) - 1
}

func (fs *funcState) emitForLoop(line, a, sBx int) int {
	fs.emitAsBx(line, vm.OP_FORLOOP, a, sBx)
	return len(fs.insts) - 1
}

func (fs *funcState) emitTForCall(line, a, c int) {
	fs.emitABC(line, vm.OP_TFORCALL, a, 0, c)
}

func (fs *funcState) emitTForLoop(line, a, sBx int) int {
	fs.emitAsBx(line, vm.OP_TFORLOOP, a, sBx)
	return len(fs.insts) - 1
}

func (fs *funcState) emitUnaryOp(line, op, a, b int) {
	switch op {
	case lexer.TOKEN_OP_NOT:
		fs.emitABC(line, vm.OP_NOT, a, b, 0)
	case lexer.TOKEN_OP_BNOT:
		fs.emitABC(line, vm.OP_BNOT, a, b, 0)
	case lexer.TOKEN_OP_LEN:
		fs.emitABC(line, vm.OP_LEN, a, b, 0)
	case lexer.TOKEN_OP_UNM:
		fs.emitABC(line, vm.OP_UNM, a, b, 0)
	}
}

func (fs *funcState) emitBinaryOp(line, op, a, b, c int) {
	if opcode, found := arithAndBitwiseBinops[op]; found {
		fs.emitABC(line, opcode, a, b, c)
		return
	}
	switch op {
	case lexer.TOKEN_SEP_DOTDOT:
		fs.emitABC(line, vm.OP_CONCAT, a, b, c)
		return
	case lexer.TOKEN_OP_EQ:
		fs.emitABC(line, vm.OP_EQ, 1, b, c)
	case lexer.TOKEN_OP_NE:
		fs.emitABC(line, vm.OP_EQ, 0, b, c)
	case lexer.TOKEN_OP_LT:
		fs.emitABC(line, vm.OP_LT, 1, b, c)
	case lexer.TOKEN_OP_GT:
		fs.emitABC(line, vm.OP_LT, 1, c, b)
	case lexer.TOKEN_OP_LE:
		fs.emitABC(line, vm.OP_LE, 1, b, c)
	case lexer.TOKEN_OP_GE:
		fs.emitABC(line, vm.OP_LE, 1, c, b)
	}
	fs.emitJmp(line, 0, 1)
	fs.emitLoadBool(line, a, 0, 1)
	fs.emitLoadBool(line, a, 1, 0)
}

// int2fb encodes n as a "floating byte" (8 bits: eeeeexxx represents
// (1xxx) * 2^(eeeee-1) for eeeee>0), the size-hint format NEWTABLE's
// B/C operands use, mirrored against vm.Fb2int's inverse.
func int2fb(n int) int {
	e := 0
	if n < 8 {
		return n
	}
	for n >= 8<<1 {
		n = (n + 1) >> 1
		e++
	}
	return (e+1)<<3 | (n - 8)
}
