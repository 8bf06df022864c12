package vm

import "github.com/lollipopkit/luacore/api"

const maxArgBx = 1<<18 - 1
const maxArgSBx = maxArgBx >> 1

/*
31       22       13       5    0
+-------+^------+-^-----+-^-----
|b=9bits |c=9bits |a=8bits|op=6|
+-------+^------+-^-----+-^-----
|    bx=18bits    |a=8bits|op=6|
+-------+^------+-^-----+-^-----
|   sbx=18bits    |a=8bits|op=6|
+-------+^------+-^-----+-^-----
|    ax=26bits            |op=6|
+-------+^------+-^-----+-^-----
*/
type Instruction uint32

func (i Instruction) Opcode() int {
	return int(i & 0x3F)
}

func (i Instruction) ABC() (a, b, c int) {
	a = int(i >> 6 & 0xFF)
	c = int(i >> 14 & 0x1FF)
	b = int(i >> 23 & 0x1FF)
	return
}

func (i Instruction) ABx() (a, bx int) {
	a = int(i >> 6 & 0xFF)
	bx = int(i >> 14)
	return
}

func (i Instruction) AsBx() (a, sbx int) {
	a, bx := i.ABx()
	return a, bx - maxArgSBx
}

func (i Instruction) Ax() int {
	return int(i >> 6)
}

func (i Instruction) OpName() string {
	return opcodes[i.Opcode()].name
}

func (i Instruction) OpMode() byte {
	return opcodes[i.Opcode()].opMode
}

func (i Instruction) BMode() byte {
	return opcodes[i.Opcode()].argBMode
}

func (i Instruction) CMode() byte {
	return opcodes[i.Opcode()].argCMode
}

// Execute dispatches to the opcode's handler. EXTRAARG has no handler
// of its own: it is only ever consumed by a preceding LOADKX/SETLIST
// via vm.Fetch, never reached directly by the dispatch loop.
func (i Instruction) Execute(vm api.LuaVM) {
	op := i.Opcode()
	action := opcodes[op].action
	if action == nil {
		panic("luacore: no handler for opcode " + opcodes[op].name)
	}
	action(i, vm)
}
