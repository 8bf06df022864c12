package compiler

import (
	"github.com/lollipopkit/luacore/compiler/lexer"
)

const unaryPriority = 12

var binPriority = map[int][2]int{
	lexer.TOKEN_OP_ADD:      {10, 10},
	lexer.TOKEN_OP_SUB:      {10, 10},
	lexer.TOKEN_OP_MUL:      {11, 11},
	lexer.TOKEN_OP_MOD:      {11, 11},
	lexer.TOKEN_OP_POW:      {14, 13},
	lexer.TOKEN_OP_DIV:      {11, 11},
	lexer.TOKEN_OP_IDIV:     {11, 11},
	lexer.TOKEN_OP_BAND:     {6, 6},
	lexer.TOKEN_OP_BOR:      {4, 4},
	lexer.TOKEN_OP_WAVE:     {5, 5}, // bxor, binary form
	lexer.TOKEN_OP_SHL:      {7, 7},
	lexer.TOKEN_OP_SHR:      {7, 7},
	lexer.TOKEN_SEP_DOTDOT:  {9, 8},
	lexer.TOKEN_OP_EQ:       {3, 3},
	lexer.TOKEN_OP_NE:       {3, 3},
	lexer.TOKEN_OP_LT:       {3, 3},
	lexer.TOKEN_OP_GT:       {3, 3},
	lexer.TOKEN_OP_LE:       {3, 3},
	lexer.TOKEN_OP_GE:       {3, 3},
	lexer.TOKEN_OP_AND:      {2, 2},
	lexer.TOKEN_OP_OR:       {1, 1},
}

func isUnop(kind int) bool {
	switch kind {
	case lexer.TOKEN_OP_NOT, lexer.TOKEN_OP_MINUS, lexer.TOKEN_OP_LEN, lexer.TOKEN_OP_WAVE:
		return true
	}
	return false
}

func (ps *parseState) expr() expdesc {
	return ps.subExpr(0)
}

// subExpr implements operator-precedence climbing directly over
// expdesc, emitting each operator's instruction the moment both of
// its operands are known — the single-pass codegen this
// implementation requires in place of the teacher's AST-then-codegen
// split (grounded on the teacher's codegen/cg_exp.go emission shapes,
// restructured into one pass per lparser.c's subexpr).
func (ps *parseState) subExpr(limit int) expdesc {
	var e expdesc
	if isUnop(ps.curKind) {
		op := ps.curKind
		line := ps.line
		ps.next()
		operand := ps.subExpr(unaryPriority)
		e = ps.emitUnop(op, line, operand)
	} else {
		e = ps.simpleExp()
	}

	for {
		op := ps.curKind
		prio, ok := binPriority[op]
		if !ok || prio[0] <= limit {
			break
		}
		line := ps.line
		ps.next()

		if op == lexer.TOKEN_OP_AND || op == lexer.TOKEN_OP_OR {
			e = ps.andOrExpr(op, line, e)
			continue
		}

		right := ps.subExpr(prio[1])
		e = ps.emitBinop(op, line, e, right)
	}
	return e
}

func (ps *parseState) emitUnop(op, line int, operand expdesc) expdesc {
	fs := ps.fs
	operand = ps.dischargeVars(operand)

	if op == lexer.TOKEN_OP_MINUS {
		switch operand.kind {
		case vKNum:
			switch v := operand.nval.(type) {
			case int64:
				operand.nval = -v
				return operand
			case float64:
				operand.nval = -v
				return operand
			}
		}
	}

	b := ps.exprToAnyReg(operand)
	fs.freeExpReg(b)
	fs.emitUnaryOp(line, op, 0, b)
	return newExpdesc(vRelocable, fs.pc())
}

func (ps *parseState) emitBinop(op, line int, left, right expdesc) expdesc {
	fs := ps.fs
	b := ps.exprToRK(left)
	c := ps.exprToRK(right)
	if c >= 0 && c < 0x100 {
		fs.freeExpReg(c)
	}
	if b >= 0 && b < 0x100 {
		fs.freeExpReg(b)
	}
	fs.emitBinaryOp(line, op, 0, b, c)
	return newExpdesc(vRelocable, fs.pc())
}

// andOrExpr implements short-circuit evaluation with TESTSET+JMP,
// grounded on the teacher's codegen/cg_exp.go cgBinopExp AND/OR case.
func (ps *parseState) andOrExpr(op, line int, left expdesc) expdesc {
	fs := ps.fs
	a := ps.exprToNextReg(left)
	oldRegs := fs.usedRegs

	cond := 0
	if op == lexer.TOKEN_OP_OR {
		cond = 1
	}
	fs.emitTestSet(line, a, a, cond)
	jmpPC := fs.emitJmp(line, 0, 0)

	limit := binPriority[op][1]
	right := ps.subExpr(limit)
	right = ps.dischargeVars(right)
	rb := ps.exprToAnyReg(right)
	fs.usedRegs = oldRegs
	if rb != a {
		fs.emitMove(line, a, rb)
	}
	fs.fixSbx(jmpPC, fs.pc()-jmpPC)

	return newExpdesc(vNonReloc, a)
}

// simpleExp parses a primary literal/constructor/prefix expression —
// the operand level subExpr recurses into.
func (ps *parseState) simpleExp() expdesc {
	switch ps.curKind {
	case lexer.TOKEN_NUMBER:
		v, isFloat := lexer.ParseNumber(ps.curToken)
		ps.next()
		if isFloat {
			return expdesc{kind: vKNum, nval: v, t: -1, f: -1}
		}
		return expdesc{kind: vKNum, nval: v, t: -1, f: -1}
	case lexer.TOKEN_STRING:
		idx := ps.fs.indexOfConstant(ps.curToken)
		ps.next()
		return expdesc{kind: vK, info: idx, t: -1, f: -1}
	case lexer.TOKEN_KW_NIL:
		ps.next()
		return expdesc{kind: vNil, t: -1, f: -1}
	case lexer.TOKEN_KW_TRUE:
		ps.next()
		return expdesc{kind: vTrue, t: -1, f: -1}
	case lexer.TOKEN_KW_FALSE:
		ps.next()
		return expdesc{kind: vFalse, t: -1, f: -1}
	case lexer.TOKEN_VARARG:
		if !ps.fs.isVararg {
			ps.error("cannot use '...' outside a vararg function")
		}
		ps.next()
		ps.fs.emitVararg(ps.line, 0, 2)
		return newExpdesc(vVararg, ps.fs.pc())
	case lexer.TOKEN_SEP_LCURLY:
		return ps.tableConstructor()
	case lexer.TOKEN_KW_FUNCTION:
		line := ps.line
		ps.next()
		return ps.funcBody(line, false)
	default:
		return ps.suffixedExp()
	}
}

// primaryExp parses a parenthesized expression or a bare name, the
// left-recursive base that suffixedExp extends with .field/[k]/(args)
// chains.
func (ps *parseState) primaryExp() expdesc {
	if ps.curKind == lexer.TOKEN_SEP_LPAREN {
		ps.next()
		e := ps.expr()
		ps.checkNext(lexer.TOKEN_SEP_RPAREN)
		e = ps.setOneRet(e)
		return e
	}
	name := ps.checkName()
	return ps.singleVar(name)
}

func (ps *parseState) suffixedExp() expdesc {
	e := ps.primaryExp()
	for {
		switch ps.curKind {
		case lexer.TOKEN_SEP_DOT:
			ps.next()
			e = ps.indexField(e, ps.checkName())
		case lexer.TOKEN_SEP_LBRACK:
			ps.next()
			key := ps.expr()
			ps.checkNext(lexer.TOKEN_SEP_RBRACK)
			tReg := ps.exprToAnyReg(e)
			rk := ps.exprToRK(key)
			e = expdesc{kind: vIndexed, info: tReg, aux: rk, t: -1, f: -1}
		case lexer.TOKEN_SEP_COLON:
			ps.next()
			method := ps.checkName()
			e = ps.methodCall(e, method)
		case lexer.TOKEN_SEP_LPAREN, lexer.TOKEN_STRING, lexer.TOKEN_SEP_LCURLY:
			e = ps.funcCallArgs(e, -1)
		default:
			return e
		}
	}
}

func (ps *parseState) methodCall(obj expdesc, method string) expdesc {
	fs := ps.fs
	base := ps.exprToNextReg(obj)
	fs.allocReg() // reserve R(base+1) for the object copy SELF writes
	rk := 0x100 | fs.indexOfConstant(method)
	fs.emitSelf(ps.line, base, base, rk)
	return ps.finishCallArgs(base, -1)
}

func (ps *parseState) funcCallArgs(fn expdesc, line int) expdesc {
	base := ps.exprToNextReg(fn)
	return ps.finishCallArgs(base, -1)
}

func (ps *parseState) finishCallArgs(base, extraSelf int) expdesc {
	fs := ps.fs
	line := ps.line
	var es []expdesc
	switch ps.curKind {
	case lexer.TOKEN_SEP_LPAREN:
		ps.next()
		if ps.curKind != lexer.TOKEN_SEP_RPAREN {
			es = append(es, ps.expr())
			for ps.testNext(lexer.TOKEN_SEP_COMMA) {
				es = append(es, ps.expr())
			}
		}
		ps.checkNext(lexer.TOKEN_SEP_RPAREN)
	case lexer.TOKEN_STRING:
		idx := fs.indexOfConstant(ps.curToken)
		es = append(es, expdesc{kind: vK, info: idx, t: -1, f: -1})
		ps.next()
	case lexer.TOKEN_SEP_LCURLY:
		es = append(es, ps.tableConstructor())
	}

	nArgs := -1
	if len(es) > 0 {
		last := es[len(es)-1]
		for _, e := range es[:len(es)-1] {
			ps.exprToNextReg(e)
		}
		if last.hasMultiRet() {
			ps.setMultiRet(last, -1)
		} else {
			ps.exprToNextReg(last)
			nArgs = fs.usedRegs - base - 1
		}
	} else {
		nArgs = fs.usedRegs - base - 1
	}

	fs.emitCall(line, base, nArgs, -1)
	fs.usedRegs = base + 1
	return newExpdesc(vCall, fs.pc())
}

// funcBody parses a Lua function literal's parameter list and body,
// compiling it into its own funcState and emitting a CLOSURE
// referencing it by proto index (spec §4.2 "CLOSURE").
func (ps *parseState) funcBody(line int, isMethod bool) expdesc {
	parent := ps.fs
	fs := newFuncState(parent, line)
	parent.subFuncs = append(parent.subFuncs, fs)
	ps.fs = fs

	if isMethod {
		fs.addLocVar("self", 0)
	}

	ps.checkNext(lexer.TOKEN_SEP_LPAREN)
	if ps.curKind != lexer.TOKEN_SEP_RPAREN {
		for {
			if ps.curKind == lexer.TOKEN_VARARG {
				ps.next()
				fs.isVararg = true
				break
			}
			fs.addLocVar(ps.checkName(), 0)
			if !ps.testNext(lexer.TOKEN_SEP_COMMA) {
				break
			}
		}
	}
	ps.checkNext(lexer.TOKEN_SEP_RPAREN)
	fs.numParams = len(fs.locVars)

	ps.block()
	fs.lastLine = ps.line
	ps.checkNext(lexer.TOKEN_KW_END)
	ps.reportUnresolvedGotos(fs)
	fs.exitScope(fs.pc() + 2)
	fs.emitReturn(fs.lastLine, 0, 0)

	ps.fs = parent
	bx := len(parent.subFuncs) - 1
	a := parent.allocReg()
	parent.emitClosure(line, a, bx)
	return newExpdesc(vRelocable, parent.pc())
}

// tableConstructor parses "{ [k]=v, name=v, v, ... }", batching
// array-part entries into SETLIST flushes of up to 50 fields at a
// time (spec §4.3 "SETLIST").
func (ps *parseState) tableConstructor() expdesc {
	fs := ps.fs
	line := ps.line
	ps.checkNext(lexer.TOKEN_SEP_LCURLY)

	tReg := fs.allocReg()
	fs.emitNewTable(line, tReg, 0, 0)
	pc := fs.pc()

	nArr := 0
	nRec := 0
	arrIdx := 0
	var pendingTail expdesc
	hasTail := false

	for ps.curKind != lexer.TOKEN_SEP_RCURLY {
		if ps.curKind == lexer.TOKEN_SEP_LBRACK {
			ps.next()
			k := ps.expr()
			ps.checkNext(lexer.TOKEN_SEP_RBRACK)
			ps.checkNext(lexer.TOKEN_OP_ASSIGN)
			v := ps.expr()
			ps.emitTableField(tReg, k, v)
			nRec++
		} else if ps.curKind == lexer.TOKEN_IDENTIFIER && ps.lx.LookAhead() == lexer.TOKEN_OP_ASSIGN {
			name := ps.checkName()
			ps.next() // consume '='
			k := expdesc{kind: vK, info: fs.indexOfConstant(name), t: -1, f: -1}
			v := ps.expr()
			ps.emitTableField(tReg, k, v)
			nRec++
		} else {
			if hasTail {
				arrIdx++
				ps.flushArrayEntry(tReg, pendingTail, arrIdx, false)
			}
			pendingTail = ps.expr()
			hasTail = true
			nArr++
		}
		if !ps.testNext(lexer.TOKEN_SEP_COMMA) && !ps.testNext(lexer.TOKEN_SEP_SEMI) {
			break
		}
	}
	ps.checkMatch(lexer.TOKEN_SEP_RCURLY, lexer.TOKEN_SEP_LCURLY, line)

	if hasTail {
		arrIdx++
		ps.flushArrayEntry(tReg, pendingTail, arrIdx, true)
	}

	fs.insts[pc] = setArgB(fs.insts[pc], int2fbArg(nArr))
	fs.insts[pc] = setArgC(fs.insts[pc], int2fbArg(nRec))

	return newExpdesc(vRelocable, pc)
}

func int2fbArg(n int) int { return int2fb(n) }

func (ps *parseState) emitTableField(tReg int, k, v expdesc) {
	kReg := ps.exprToRK(k)
	vReg := ps.exprToRK(v)
	ps.fs.emitSetTable(ps.line, tReg, kReg, vReg)
	if kReg < 0x100 {
		ps.fs.freeExpReg(kReg)
	}
	if vReg < 0x100 {
		ps.fs.freeExpReg(vReg)
	}
}

const lFieldsPerFlush = 50

func (ps *parseState) flushArrayEntry(tReg int, v expdesc, arrIdx int, isLast bool) {
	fs := ps.fs
	line := ps.line
	if isLast && v.hasMultiRet() {
		base := fs.usedRegs
		ps.setMultiRet(v, -1)
		fs.emitSetList(line, tReg, 0, (arrIdx-1)/lFieldsPerFlush+1)
		fs.usedRegs = base
		return
	}
	ps.exprToNextReg(v)
	if arrIdx%lFieldsPerFlush == 0 {
		fs.freeRegs(lFieldsPerFlush)
		fs.emitSetList(line, tReg, lFieldsPerFlush, arrIdx/lFieldsPerFlush)
	} else if isLast {
		n := arrIdx % lFieldsPerFlush
		fs.freeRegs(n)
		fs.emitSetList(line, tReg, n, (arrIdx-1)/lFieldsPerFlush+1)
	}
}
