package vm

import . "github.com/lollipopkit/luacore/api"

/* arith */

func add(i Instruction, vm LuaVM)  { _binaryArith(i, vm, OpAdd) }
func sub(i Instruction, vm LuaVM)  { _binaryArith(i, vm, OpSub) }
func mul(i Instruction, vm LuaVM)  { _binaryArith(i, vm, OpMul) }
func mod(i Instruction, vm LuaVM)  { _binaryArith(i, vm, OpMod) }
func pow(i Instruction, vm LuaVM)  { _binaryArith(i, vm, OpPow) }
func div(i Instruction, vm LuaVM)  { _binaryArith(i, vm, OpDiv) }
func idiv(i Instruction, vm LuaVM) { _binaryArith(i, vm, OpIDiv) }
func band(i Instruction, vm LuaVM) { _binaryArith(i, vm, OpBAnd) }
func bor(i Instruction, vm LuaVM)  { _binaryArith(i, vm, OpBOr) }
func bxor(i Instruction, vm LuaVM) { _binaryArith(i, vm, OpBXor) }
func shl(i Instruction, vm LuaVM)  { _binaryArith(i, vm, OpShl) }
func shr(i Instruction, vm LuaVM)  { _binaryArith(i, vm, OpShr) }
func unm(i Instruction, vm LuaVM)  { _unaryArith(i, vm, OpUnm) }
func bnot(i Instruction, vm LuaVM) { _unaryArith(i, vm, OpBNot) }

// R(A) := RK(B) op RK(C)
func _binaryArith(i Instruction, vm LuaVM, op ArithOp) {
	a, b, c := i.ABC()
	a += 1

	vm.GetRK(b)
	vm.GetRK(c)
	vm.Arith(op)
	vm.Replace(a)
}

// R(A) := op R(B)
func _unaryArith(i Instruction, vm LuaVM, op ArithOp) {
	a, b, _ := i.ABC()
	a += 1
	b += 1

	vm.PushValue(b)
	vm.Arith(op)
	vm.Replace(a)
}

/* compare */

func eq(i Instruction, vm LuaVM) { _compare(i, vm, OpEq) }
func lt(i Instruction, vm LuaVM) { _compare(i, vm, OpLt) }
func le(i Instruction, vm LuaVM) { _compare(i, vm, OpLe) }

// if ((RK(B) op RK(C)) ~= A) then pc++
func _compare(i Instruction, vm LuaVM, op CompareOp) {
	a, b, c := i.ABC()

	vm.GetRK(b)
	vm.GetRK(c)
	if vm.Compare(-2, -1, op) != (a != 0) {
		vm.AddPC(1)
	}
	vm.Pop(2)
}

/* logical */

// R(A) := not R(B)
func not(i Instruction, vm LuaVM) {
	a, b, _ := i.ABC()
	a += 1
	b += 1

	vm.PushBoolean(!vm.ToBoolean(b))
	vm.Replace(a)
}

// if not (R(A) <=> C) then pc++
func test(i Instruction, vm LuaVM) {
	a, _, c := i.ABC()
	a += 1

	if vm.ToBoolean(a) != (c != 0) {
		vm.AddPC(1)
	}
}

// if (R(B) <=> C) then R(A) := R(B) else pc++
func testSet(i Instruction, vm LuaVM) {
	a, b, c := i.ABC()
	a += 1
	b += 1

	if vm.ToBoolean(b) == (c != 0) {
		vm.Copy(b, a)
	} else {
		vm.AddPC(1)
	}
}

/* len & concat */

// R(A) := length of R(B)
func length(i Instruction, vm LuaVM) {
	a, b, _ := i.ABC()
	a += 1
	b += 1

	vm.Len(b)
	vm.Replace(a)
}

// R(A) := R(B).. ... ..R(C)
func concat(i Instruction, vm LuaVM) {
	a, b, c := i.ABC()
	a += 1
	b += 1
	c += 1

	n := c - b + 1
	vm.CheckStack(n)
	for i := b; i <= c; i++ {
		vm.PushValue(i)
	}
	vm.Concat(n)
	vm.Replace(a)
}
