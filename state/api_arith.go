package state

import (
	"fmt"
	"math"

	"github.com/lollipopkit/luacore/api"
	"github.com/lollipopkit/luacore/utils"
)

type operator struct {
	metamethod  string
	integerFunc func(int64, int64) int64
	floatFunc   func(float64, float64) float64
}

var (
	iadd  = func(a, b int64) int64 { return a + b }
	fadd  = func(a, b float64) float64 { return a + b }
	isub  = func(a, b int64) int64 { return a - b }
	fsub  = func(a, b float64) float64 { return a - b }
	imul  = func(a, b int64) int64 { return a * b }
	fmul  = func(a, b float64) float64 { return a * b }
	imod  = utils.IMod
	fmod  = utils.FMod
	fpow  = math.Pow
	fdiv  = func(a, b float64) float64 { return a / b }
	iidiv = utils.IFloorDiv
	fidiv = utils.FFloorDiv
	iband = func(a, b int64) int64 { return a & b }
	ibor  = func(a, b int64) int64 { return a | b }
	ibxor = func(a, b int64) int64 { return a ^ b }
	ishl  = utils.ShiftLeft
	ishr  = utils.ShiftRight
	iunm  = func(a, _ int64) int64 { return -a }
	funm  = func(a, _ float64) float64 { return -a }
	ibnot = func(a, _ int64) int64 { return ^a }
)

// operators is indexed by api.ArithOp, one entry per opcode; a nil
// integerFunc forces the float path (POW, DIV), a nil floatFunc forces
// the integer-only bitwise path (spec §4.3 "Arithmetic").
var operators = []operator{
	{"__add", iadd, fadd},
	{"__sub", isub, fsub},
	{"__mul", imul, fmul},
	{"__mod", imod, fmod},
	{"__pow", nil, fpow},
	{"__div", nil, fdiv},
	{"__idiv", iidiv, fidiv},
	{"__band", iband, nil},
	{"__bor", ibor, nil},
	{"__bxor", ibxor, nil},
	{"__shl", ishl, nil},
	{"__shr", ishr, nil},
	{"__unm", iunm, funm},
	{"__bnot", ibnot, nil},
}

func opSymbol(mm string) string {
	switch mm {
	case "__add":
		return "+"
	case "__sub":
		return "-"
	case "__mul":
		return "*"
	case "__mod":
		return "%"
	case "__pow":
		return "^"
	case "__div":
		return "/"
	case "__idiv":
		return "//"
	case "__band":
		return "&"
	case "__bor":
		return "|"
	case "__bxor":
		return "~"
	case "__shl":
		return "<<"
	case "__shr":
		return ">>"
	case "__unm":
		return "-"
	case "__bnot":
		return "~"
	default:
		return mm
	}
}

func (ls *luaState) Arith(op api.ArithOp) {
	var a, b any
	b = ls.stack.pop()
	if op != api.OpUnm && op != api.OpBNot {
		a = ls.stack.pop()
	} else {
		a = b
	}

	opDef := operators[op]
	if result := arith(a, b, opDef); result != nil {
		ls.stack.push(result)
		return
	}

	if result, ok := callMetamethod(a, b, opDef.metamethod, ls); ok {
		ls.stack.push(result)
		return
	}

	panic(fmt.Sprintf("attempt to perform arithmetic (%s) on a %s value", opSymbol(opDef.metamethod), ls.TypeName(typeOf(a))))
}

func arith(a, b any, op operator) any {
	if op.floatFunc == nil { // bitwise: both operands must coerce to integer
		if x, ok := convertToInteger(a); ok {
			if y, ok := convertToInteger(b); ok {
				return op.integerFunc(x, y)
			}
		}
		return nil
	}
	if op.integerFunc != nil { // add/sub/mul/mod/idiv/unm stay integer when both operands are
		if x, ok := a.(int64); ok {
			if y, ok := b.(int64); ok {
				return op.integerFunc(x, y)
			}
		}
	}
	if x, ok := convertToFloat(a); ok {
		if y, ok := convertToFloat(b); ok {
			return op.floatFunc(x, y)
		}
	}
	return nil
}
