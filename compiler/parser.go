// Package compiler implements Lua 5.3 source compilation: a
// single-pass recursive-descent parser that emits register-machine
// bytecode directly as it recognizes each construct, with no
// intermediate AST (spec §4.2). Grounded on the teacher's
// compiler/parser + compiler/codegen packages, fused into one pass
// the way lparser.c itself does it, since the teacher's two-pass
// (AST then codegen) design does not match that requirement.
package compiler

import (
	"fmt"

	"github.com/lollipopkit/luacore/binchunk"
	"github.com/lollipopkit/luacore/compiler/lexer"
)

type parseState struct {
	lx        *lexer.Lexer
	fs        *funcState
	chunkName string
	curKind   int
	curToken  string
	line      int
}

// Compile parses source (named chunkName for error messages) and
// returns the main chunk's Prototype, ready for binchunk.Dump or
// direct execution (spec §4.2, §6).
func Compile(source, chunkName string) (proto *binchunk.Prototype, err error) {
	defer func() {
		if r := recover(); r != nil {
			proto = nil
			if e, ok := r.(error); ok {
				err = e
			} else {
				err = fmt.Errorf("%v", r)
			}
		}
	}()

	ps := &parseState{lx: lexer.NewLexer(source, chunkName), chunkName: chunkName}
	ps.next()

	fs := newFuncState(nil, 0)
	fs.source = chunkName
	fs.isVararg = true
	fs.upvalues["_ENV"] = upvalInfo{locVarSlot: -1, upvalIndex: -1, index: 0}
	ps.fs = fs

	ps.block()
	ps.check(lexer.TOKEN_EOF)
	ps.reportUnresolvedGotos(fs)
	fs.lastLine = ps.line
	fs.emitReturn(ps.line, 0, 0)

	return toProto(fs), nil
}

// reportUnresolvedGotos raises a compile error for the first goto
// left pending once its enclosing function body is fully parsed: a
// goto with no matching label anywhere in that function.
func (ps *parseState) reportUnresolvedGotos(fs *funcState) {
	if len(fs.pendingGotos) == 0 {
		return
	}
	g := fs.pendingGotos[0]
	panic(fmt.Errorf("%s:%d: no visible label '%s' for goto", ps.chunkName, g.line, g.name))
}

func (ps *parseState) next() {
	ps.line, ps.curKind, ps.curToken = ps.lx.NextToken()
}

func (ps *parseState) error(f string, a ...interface{}) {
	msg := fmt.Sprintf(f, a...)
	panic(fmt.Errorf("%s:%d: %s", ps.chunkName, ps.line, msg))
}

func (ps *parseState) check(kind int) {
	if ps.curKind != kind {
		ps.error("'%s' expected near '%s'", lexer.TokenName(kind), ps.curToken)
	}
}

func (ps *parseState) checkNext(kind int) {
	ps.check(kind)
	ps.next()
}

func (ps *parseState) testNext(kind int) bool {
	if ps.curKind == kind {
		ps.next()
		return true
	}
	return false
}

func (ps *parseState) checkMatch(close, open, openLine int) {
	if !ps.testNext(close) {
		if openLine == ps.line {
			ps.error("'%s' expected near '%s'", lexer.TokenName(close), ps.curToken)
		}
		ps.error("'%s' expected (to close '%s' at line %d) near '%s'",
			lexer.TokenName(close), lexer.TokenName(open), openLine, ps.curToken)
	}
}

func (ps *parseState) checkName() string {
	ps.check(lexer.TOKEN_IDENTIFIER)
	name := ps.curToken
	ps.next()
	return name
}

func blockFollow(kind int) bool {
	switch kind {
	case lexer.TOKEN_EOF, lexer.TOKEN_KW_END, lexer.TOKEN_KW_ELSE,
		lexer.TOKEN_KW_ELSEIF, lexer.TOKEN_KW_UNTIL:
		return true
	}
	return false
}

// block parses a sequence of statements, stopping after a return
// statement (which must be the block's last statement, per manual
// §3.3.4).
func (ps *parseState) block() {
	for !blockFollow(ps.curKind) {
		if ps.curKind == lexer.TOKEN_KW_RETURN {
			ps.returnStat()
			return
		}
		ps.statement()
	}
}

func (ps *parseState) statement() {
	line := ps.line
	switch ps.curKind {
	case lexer.TOKEN_SEP_SEMI:
		ps.next()
	case lexer.TOKEN_KW_IF:
		ps.ifStat()
	case lexer.TOKEN_KW_WHILE:
		ps.whileStat()
	case lexer.TOKEN_KW_DO:
		ps.next()
		ps.fs.enterScope(false)
		ps.block()
		ps.checkMatch(lexer.TOKEN_KW_END, lexer.TOKEN_KW_DO, line)
		ps.fs.exitScope(ps.fs.pc() + 1)
	case lexer.TOKEN_KW_FOR:
		ps.forStat()
	case lexer.TOKEN_KW_REPEAT:
		ps.repeatStat()
	case lexer.TOKEN_KW_FUNCTION:
		ps.funcStat()
	case lexer.TOKEN_KW_LOCAL:
		ps.next()
		if ps.testNext(lexer.TOKEN_KW_FUNCTION) {
			ps.localFuncStat()
		} else {
			ps.localStat()
		}
	case lexer.TOKEN_SEP_LABEL:
		ps.labelStat()
	case lexer.TOKEN_KW_BREAK:
		ps.breakStat()
	case lexer.TOKEN_KW_GOTO:
		ps.gotoStat()
	default:
		ps.exprStat()
	}
}

func (ps *parseState) labelStat() {
	ps.next()
	name := ps.checkName()
	ps.checkNext(lexer.TOKEN_SEP_LABEL)
	if _, dup := ps.fs.findLabel(name); dup {
		ps.error("label '%s' already defined", name)
	}
	ps.fs.createLabel(name)
}

func (ps *parseState) breakStat() {
	line := ps.line
	ps.next()
	pc := ps.fs.emitJmp(line, 0, 0)
	ps.fs.addBreakJmp(pc)
}

// gotoStat emits a JMP to name's label, resolved immediately if the
// label was already seen (backward goto) or left pending for
// createLabel to patch once it is (forward goto). goto cannot cross
// into an enclosing function, matching the scoping every other name
// lookup in this parser respects.
func (ps *parseState) gotoStat() {
	line := ps.line
	ps.next()
	name := ps.checkName()
	fs := ps.fs

	pc := fs.emitJmp(line, 0, 0)
	if lbl, found := fs.findLabel(name); found {
		fs.fixSbx(pc, jmpTarget(pc, lbl.pc))
		return
	}
	fs.addPendingGoto(name, pc, line)
}

func (ps *parseState) ifStat() {
	line := ps.line
	var jmpToEnds []int
	jmpToEnds = append(jmpToEnds, ps.testThenBlock())
	for ps.curKind == lexer.TOKEN_KW_ELSEIF {
		jmpToEnds = append(jmpToEnds, ps.testThenBlock())
	}
	if ps.testNext(lexer.TOKEN_KW_ELSE) {
		ps.fs.enterScope(false)
		ps.block()
		ps.fs.exitScope(ps.fs.pc() + 1)
	}
	ps.checkMatch(lexer.TOKEN_KW_END, lexer.TOKEN_KW_IF, line)
	for _, pc := range jmpToEnds {
		ps.fs.fixSbx(pc, ps.fs.pc()-pc)
	}
}

// testThenBlock parses "if/elseif cond then block" and returns the
// jump-to-end placeholder, patched once the whole if-chain is known.
func (ps *parseState) testThenBlock() int {
	ps.next() // 'if' or 'elseif'
	condLine := ps.line
	e := ps.expr()
	ps.checkNext(lexer.TOKEN_KW_THEN)

	reg := ps.exprToAnyReg(e)
	ps.fs.emitTest(condLine, reg, 0)
	ps.fs.freeExpReg(reg)
	jmpOverBlock := ps.fs.emitJmp(condLine, 0, 0)

	ps.fs.enterScope(false)
	ps.block()
	ps.fs.exitScope(ps.fs.pc() + 1)

	jmpToEnd := ps.fs.emitJmp(ps.line, 0, 0)
	ps.fs.fixSbx(jmpOverBlock, ps.fs.pc()-jmpOverBlock)
	return jmpToEnd
}

func (ps *parseState) whileStat() {
	line := ps.line
	ps.next()
	condPC := ps.fs.pc() + 1
	e := ps.expr()
	ps.checkNext(lexer.TOKEN_KW_DO)

	reg := ps.exprToAnyReg(e)
	ps.fs.emitTest(ps.line, reg, 0)
	ps.fs.freeExpReg(reg)
	jmpOverBody := ps.fs.emitJmp(ps.line, 0, 0)

	ps.fs.enterScope(true)
	ps.block()
	ps.fs.closeOpenUpvals(ps.line)
	backJmp := ps.fs.emitJmp(ps.line, 0, 0)
	ps.fs.fixSbx(backJmp, condPC-1-backJmp)
	ps.fs.exitScope(ps.fs.pc() + 1)

	ps.checkMatch(lexer.TOKEN_KW_END, lexer.TOKEN_KW_WHILE, line)
	ps.fs.fixSbx(jmpOverBody, ps.fs.pc()-jmpOverBody)
}

func (ps *parseState) repeatStat() {
	line := ps.line
	ps.next()
	bodyPC := ps.fs.pc() + 1

	ps.fs.enterScope(true)
	ps.fs.enterScope(false)
	ps.block()
	ps.checkMatch(lexer.TOKEN_KW_UNTIL, lexer.TOKEN_KW_REPEAT, line)
	e := ps.expr()
	reg := ps.exprToAnyReg(e)
	ps.fs.emitTest(ps.line, reg, 0)
	ps.fs.freeExpReg(reg)
	backJmp := ps.fs.emitJmp(ps.line, 0, 0)
	ps.fs.fixSbx(backJmp, bodyPC-1-backJmp)
	ps.fs.exitScope(ps.fs.pc() + 1)
	ps.fs.exitScope(ps.fs.pc() + 1)
}

// forStat dispatches on whether the loop variable is followed by '='
// (numeric for) or ',' / 'in' (generic for), per manual §3.3.5.
func (ps *parseState) forStat() {
	line := ps.line
	ps.next()
	name := ps.checkName()
	if ps.curKind == lexer.TOKEN_OP_ASSIGN {
		ps.numericForStat(line, name)
	} else {
		ps.genericForStat(line, name)
	}
}

func (ps *parseState) numericForStat(line int, name string) {
	fs := ps.fs
	fs.enterScope(true)

	ps.checkNext(lexer.TOKEN_OP_ASSIGN)
	baseReg := fs.usedRegs
	ps.forNumExpr()
	ps.checkNext(lexer.TOKEN_SEP_COMMA)
	ps.forNumExpr()
	if ps.testNext(lexer.TOKEN_SEP_COMMA) {
		ps.forNumExpr()
	} else {
		fs.emitLoadK(ps.line, fs.allocReg(), int64(1))
	}
	fs.addLocVarAt("(for index)", 0, baseReg)
	fs.addLocVarAt("(for limit)", 0, baseReg+1)
	fs.addLocVarAt("(for step)", 0, baseReg+2)
	fs.addLocVar(name, 0)

	ps.checkNext(lexer.TOKEN_KW_DO)
	prepPC := fs.emitForPrep(line, baseReg, 0)
	ps.block()

	loopLine := ps.line
	ps.checkMatch(lexer.TOKEN_KW_END, lexer.TOKEN_KW_FOR, line)
	loopPC := fs.emitForLoop(loopLine, baseReg, 0)
	fs.fixSbx(prepPC, loopPC-prepPC-1)
	fs.fixSbx(loopPC, prepPC-loopPC)

	fs.exitScope(fs.pc() + 1)
}

func (ps *parseState) forNumExpr() {
	e := ps.expr()
	ps.exprToNextReg(e)
}

func (ps *parseState) genericForStat(line int, name0 string) {
	fs := ps.fs
	fs.enterScope(true)

	names := []string{name0}
	for ps.testNext(lexer.TOKEN_SEP_COMMA) {
		names = append(names, ps.checkName())
	}
	ps.checkNext(lexer.TOKEN_KW_IN)

	baseReg := fs.usedRegs
	ps.expList3(3)
	fs.addLocVarAt("(for generator)", 0, baseReg)
	fs.addLocVarAt("(for state)", 0, baseReg+1)
	fs.addLocVarAt("(for control)", 0, baseReg+2)

	for _, n := range names {
		fs.addLocVar(n, 0)
	}
	ps.checkNext(lexer.TOKEN_KW_DO)
	jmpToTest := fs.emitJmp(line, 0, 0)
	bodyPC := fs.pc() + 1
	ps.block()
	fs.fixSbx(jmpToTest, fs.pc()-jmpToTest)

	ps.checkMatch(lexer.TOKEN_KW_END, lexer.TOKEN_KW_FOR, line)
	fs.emitTForCall(ps.line, baseReg, len(names))
	tforPC := fs.emitTForLoop(ps.line, baseReg+2, 0)
	fs.fixSbx(tforPC, bodyPC-1-tforPC)

	fs.exitScope(fs.pc() + 1)
}

// expList3 evaluates exactly n values worth of a (possibly shorter or
// longer) comma-separated expression list into fresh registers,
// padding with nils or truncating a final multi-result expression.
func (ps *parseState) expList3(n int) {
	es := []expdesc{ps.expr()}
	for ps.testNext(lexer.TOKEN_SEP_COMMA) {
		es = append(es, ps.expr())
	}
	ps.dischargeExpList(es, n)
}

func (ps *parseState) dischargeExpList(es []expdesc, want int) {
	fs := ps.fs
	for i, e := range es {
		if i == len(es)-1 {
			if e.hasMultiRet() && want < 0 {
				extra := want - len(es)
				ps.setMultiRet(e, extra)
				return
			}
			if e.hasMultiRet() {
				ps.setMultiRet(e, want-len(es)+1)
				return
			}
			ps.exprToNextReg(e)
		} else {
			ps.exprToNextReg(e)
		}
	}
	if want > len(es) {
		fs.emitLoadNil(ps.line, fs.allocRegs(want-len(es)), want-len(es))
	}
}

func (ps *parseState) setMultiRet(e expdesc, n int) {
	fs := ps.fs
	switch e.kind {
	case vCall:
		fs.insts[e.info] = setArgC(fs.insts[e.info], n+1)
	case vVararg:
		fs.insts[e.info] = setArgB(fs.insts[e.info], n+1)
		fs.insts[e.info] = setArgA(fs.insts[e.info], fs.usedRegs)
	}
	if n > 0 {
		fs.allocRegs(n - 1)
	}
}

func (ps *parseState) funcStat() {
	line := ps.line
	ps.next()
	name, isMethod := ps.funcName()
	ps.funcBody(line, isMethod)
	ps.assignTo(name)
}

// funcName parses a Name{.Name}[:Name] dotted function name and
// returns an expdesc for the table/global/field it denotes.
func (ps *parseState) funcName() (expdesc, bool) {
	e := ps.singleVar(ps.checkName())
	for ps.curKind == lexer.TOKEN_SEP_DOT {
		ps.next()
		e = ps.indexField(e, ps.checkName())
	}
	isMethod := false
	if ps.curKind == lexer.TOKEN_SEP_COLON {
		ps.next()
		e = ps.indexField(e, ps.checkName())
		isMethod = true
	}
	return e, isMethod
}

func (ps *parseState) indexField(t expdesc, field string) expdesc {
	tReg := ps.exprToAnyReg(t)
	rk := 0x100 | ps.fs.indexOfConstant(field)
	return expdesc{kind: vIndexed, info: tReg, aux: rk, t: -1, f: -1}
}

func (ps *parseState) localFuncStat() {
	name := ps.checkName()
	ps.fs.addLocVar(name, ps.fs.pc()+1)
	line := ps.line
	ps.funcBody(line, false)
}

func (ps *parseState) localStat() {
	names := []string{ps.checkName()}
	ps.skipAttrib()
	for ps.testNext(lexer.TOKEN_SEP_COMMA) {
		names = append(names, ps.checkName())
		ps.skipAttrib()
	}
	var es []expdesc
	if ps.testNext(lexer.TOKEN_OP_ASSIGN) {
		es = append(es, ps.expr())
		for ps.testNext(lexer.TOKEN_SEP_COMMA) {
			es = append(es, ps.expr())
		}
	}
	base := ps.fs.usedRegs
	if len(es) > 0 {
		ps.dischargeExpList(es, len(names))
	} else {
		ps.fs.allocRegs(len(names))
	}
	for i, n := range names {
		ps.fs.addLocVarAt(n, ps.fs.pc()+1, base+i)
	}
}

// skipAttrib consumes an optional Lua 5.4 <const>/<close> attribute
// so 5.4 source still parses; this implementation targets 5.3
// semantics throughout and never acts on the attribute.
func (ps *parseState) skipAttrib() {
	if ps.curKind == lexer.TOKEN_OP_LT {
		ps.next()
		ps.checkName()
		ps.checkNext(lexer.TOKEN_OP_GT)
	}
}

func (ps *parseState) returnStat() {
	line := ps.line
	ps.next()
	var es []expdesc
	if !blockFollow(ps.curKind) && ps.curKind != lexer.TOKEN_SEP_SEMI {
		es = append(es, ps.expr())
		for ps.testNext(lexer.TOKEN_SEP_COMMA) {
			es = append(es, ps.expr())
		}
	}
	ps.testNext(lexer.TOKEN_SEP_SEMI)

	if len(es) == 0 {
		ps.fs.emitReturn(line, 0, 0)
		return
	}
	last := es[len(es)-1]
	if last.hasMultiRet() {
		base := ps.fs.usedRegs
		for _, e := range es[:len(es)-1] {
			ps.exprToNextReg(e)
		}
		ps.setMultiRet(last, -1)
		ps.fs.emitReturn(line, base, -1)
		return
	}
	base := ps.fs.usedRegs
	for _, e := range es {
		ps.exprToNextReg(e)
	}
	ps.fs.emitReturn(line, base, len(es))
}

// exprStat parses either an assignment (a, b.c, d[e] = ...) or a bare
// function/method call used as a statement.
func (ps *parseState) exprStat() {
	e := ps.suffixedExp()
	if ps.curKind == lexer.TOKEN_OP_ASSIGN || ps.curKind == lexer.TOKEN_SEP_COMMA {
		ps.assignStat(e)
		return
	}
	if e.kind != vCall {
		ps.error("syntax error near '%s'", ps.curToken)
	}
	ps.fs.insts[e.info] = setArgC(ps.fs.insts[e.info], 1)
}

func (ps *parseState) assignStat(first expdesc) {
	targets := []expdesc{first}
	for ps.testNext(lexer.TOKEN_SEP_COMMA) {
		targets = append(targets, ps.suffixedExp())
	}
	ps.checkNext(lexer.TOKEN_OP_ASSIGN)

	var vals []expdesc
	vals = append(vals, ps.expr())
	for ps.testNext(lexer.TOKEN_SEP_COMMA) {
		vals = append(vals, ps.expr())
	}

	if len(targets) == 1 && len(vals) == 1 {
		ps.assignOne(targets[0], vals[0])
		return
	}

	base := ps.fs.usedRegs
	ps.dischargeExpList(vals, len(targets))
	for i := len(targets) - 1; i >= 0; i-- {
		ps.assignFromReg(targets[i], base+i)
	}
}

func (ps *parseState) assignOne(target, val expdesc) {
	switch target.kind {
	case vLocal:
		ps.dischargeToReg(val, target.info)
	case vUpval:
		reg := ps.exprToAnyReg(val)
		ps.fs.emitSetUpval(ps.line, reg, target.info)
		ps.fs.freeExpReg(reg)
	case vIndexedUp:
		rk := ps.exprToRK(val)
		ps.fs.emitSetTabUp(ps.line, target.info, target.aux, rk)
	case vIndexed:
		rk := ps.exprToRK(val)
		ps.fs.emitSetTable(ps.line, target.info, target.aux, rk)
		ps.fs.freeExpReg(target.info)
	default:
		ps.error("cannot assign to this expression")
	}
}

func (ps *parseState) assignFromReg(target expdesc, reg int) {
	switch target.kind {
	case vLocal:
		ps.fs.emitMove(ps.line, target.info, reg)
	case vUpval:
		ps.fs.emitSetUpval(ps.line, reg, target.info)
	case vIndexedUp:
		ps.fs.emitSetTabUp(ps.line, target.info, target.aux, reg)
	case vIndexed:
		ps.fs.emitSetTable(ps.line, target.info, target.aux, reg)
	default:
		ps.error("cannot assign to this expression")
	}
}

// assignTo stores the function value already sitting in the
// just-allocated top register into the target name/field expdesc, the
// tail of "function a.b.c() ... end".
func (ps *parseState) assignTo(target expdesc) {
	reg := ps.fs.usedRegs - 1
	ps.assignFromReg(target, reg)
	if target.kind != vLocal {
		ps.fs.freeReg()
	}
}

func (ps *parseState) singleVar(name string) expdesc {
	fs := ps.fs
	if slot := fs.slotOfLocVar(name); slot >= 0 {
		return expdesc{kind: vLocal, info: slot, t: -1, f: -1}
	}
	if idx := fs.indexOfUpval(name); idx >= 0 {
		return expdesc{kind: vUpval, info: idx, t: -1, f: -1}
	}
	envIdx := fs.indexOfUpval("_ENV")
	rk := 0x100 | fs.indexOfConstant(name)
	return expdesc{kind: vIndexedUp, info: envIdx, aux: rk, t: -1, f: -1}
}
