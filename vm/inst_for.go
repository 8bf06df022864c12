package vm

import . "github.com/lollipopkit/luacore/api"

// R(A)-=R(A+2); pc+=sBx
func forPrep(i Instruction, vm LuaVM) {
	a, sBx := i.AsBx()
	a += 1

	if vm.IsString(a) {
		vm.PushNumber(vm.ToNumber(a))
		vm.Replace(a)
	}
	if vm.IsString(a + 1) {
		vm.PushNumber(vm.ToNumber(a + 1))
		vm.Replace(a + 1)
	}
	if vm.IsString(a + 2) {
		vm.PushNumber(vm.ToNumber(a + 2))
		vm.Replace(a + 2)
	}

	vm.PushValue(a)
	vm.PushValue(a + 2)
	vm.Arith(OpSub)
	vm.Replace(a)
	vm.AddPC(sBx)
}

// R(A)+=R(A+2);
// if R(A) <?= R(A+1) then { pc+=sBx; R(A+3)=R(A) }
func forLoop(i Instruction, vm LuaVM) {
	a, sBx := i.AsBx()
	a += 1

	// R(A) += R(A+2)
	vm.PushValue(a + 2)
	vm.PushValue(a)
	vm.Arith(OpAdd)
	vm.Replace(a)

	isPositiveStep := vm.ToNumber(a+2) >= 0
	if (isPositiveStep && vm.ToNumber(a) <= vm.ToNumber(a+1)) ||
		(!isPositiveStep && vm.ToNumber(a) >= vm.ToNumber(a+1)) {
		vm.AddPC(sBx)
		vm.Copy(a, a+3)
	}
}

// if R(A+1) ~= nil then { R(A)=R(A+1); pc += sBx }
func tForLoop(i Instruction, vm LuaVM) {
	a, sBx := i.AsBx()
	a += 1

	if !vm.IsNil(a + 1) {
		vm.Copy(a+1, a)
		vm.AddPC(sBx)
	}
}
