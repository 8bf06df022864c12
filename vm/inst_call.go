package vm

import . "github.com/lollipopkit/luacore/api"

// R(A), ..., R(A+C-2) := R(A)(R(A+1), ..., R(A+B-1))
func call(i Instruction, vm LuaVM) {
	a, b, c := i.ABC()
	a += 1

	nArgs := _pushFuncAndArgs(a, b, vm)
	vm.Call(nArgs, c-1)
	_popResults(a, c, vm)
}

func _pushFuncAndArgs(a, b int, vm LuaVM) (nArgs int) {
	if b >= 1 { // b-1 args, all in registers
		vm.CheckStack(b)
		for i := a; i < a+b; i++ {
			vm.PushValue(i)
		}
		return b - 1
	}

	// fixed args + varargs already on top of the stack (pushed by a
	// preceding VARARG/CALL with b==0)
	_fixStack(a, vm)
	return vm.GetTop() - vm.RegisterCount() - 1
}

func _fixStack(a int, vm LuaVM) {
	x := int(vm.ToInteger(-1))
	vm.Pop(1)

	vm.CheckStack(x - a)
	for i := a; i < x; i++ {
		vm.PushValue(i)
	}
	vm.Rotate(vm.RegisterCount()+1, x-a)
}

func _popResults(a, c int, vm LuaVM) {
	if c == 1 { // no results
		return
	}
	if c > 1 {
		for i := a + c - 2; i >= a; i-- {
			vm.Replace(i)
		}
		return
	}
	// leave results on stack
	vm.CheckStack(1)
	vm.PushInteger(int64(a))
}

// return R(A)(R(A+1), ..., R(A+B-1))
func tailCall(i Instruction, vm LuaVM) {
	a, b, _ := i.ABC()
	a += 1

	c := 0
	nArgs := _pushFuncAndArgs(a, b, vm)
	vm.Call(nArgs, -1)
	_popResults(a, c, vm)
}

// return R(A), ..., R(A+B-2)
func _return(i Instruction, vm LuaVM) {
	a, b, _ := i.ABC()
	a += 1

	if b == 1 { // no return values
		return
	}

	if b > 1 { // b-1 return values
		vm.CheckStack(b - 1)
		for i := a; i <= a+b-2; i++ {
			vm.PushValue(i)
		}
		return
	}

	_fixStack(a, vm)
}

// R(A+3), ..., R(A+2+C) := R(A)(R(A+1), R(A+2))
func tForCall(i Instruction, vm LuaVM) {
	a, _, c := i.ABC()
	a += 1

	_pushFuncAndArgs(a, 3, vm)
	vm.Call(2, c)
	_popResults(a+3, c+1, vm)
}
