package vm

import "testing"

// Field-packing layout mirrored from compiler/funcstate.go's
// emitABC/emitABx/emitAsBx/emitAx, since those are the only producers
// of instructions in this codebase; Instruction's decode methods must
// invert them exactly or codegen and dispatch disagree about operand
// positions.
func encodeABC(op, a, b, c int) Instruction {
	return Instruction(b<<23 | c<<14 | a<<6 | op)
}

func encodeABx(op, a, bx int) Instruction {
	return Instruction(bx<<14 | a<<6 | op)
}

func TestInstructionABCRoundTrip(t *testing.T) {
	i := encodeABC(OP_ADD, 1, 2, 3)
	if i.Opcode() != OP_ADD {
		t.Fatalf("opcode = %d, want %d", i.Opcode(), OP_ADD)
	}
	a, b, c := i.ABC()
	if a != 1 || b != 2 || c != 3 {
		t.Fatalf("ABC = %d,%d,%d, want 1,2,3", a, b, c)
	}
}

func TestInstructionABxRoundTrip(t *testing.T) {
	i := encodeABx(OP_LOADK, 4, 131071)
	a, bx := i.ABx()
	if a != 4 || bx != 131071 {
		t.Fatalf("ABx = %d,%d, want 4,131071", a, bx)
	}
}

func TestInstructionAsBxRoundTrip(t *testing.T) {
	i := encodeABx(OP_JMP, 0, maxArgSBx-100)
	a, sbx := i.AsBx()
	if a != 0 || sbx != -100 {
		t.Fatalf("AsBx = %d,%d, want 0,-100", a, sbx)
	}
}

func TestOpNameAndModeTables(t *testing.T) {
	if Instruction(OP_MOVE).OpName() != "MOVE    " {
		t.Fatalf("OpName(MOVE) = %q", Instruction(OP_MOVE).OpName())
	}
	if Instruction(OP_CALL).OpMode() != IABC {
		t.Fatalf("OpMode(CALL) should be IABC")
	}
	if Instruction(OP_JMP).OpMode() != IAsBx {
		t.Fatalf("OpMode(JMP) should be IAsBx")
	}
}

func TestFb2int(t *testing.T) {
	cases := map[int]int{0: 0, 7: 7, 8: 8, 9: 9}
	for x, want := range cases {
		if got := Fb2int(x); got != want {
			t.Fatalf("Fb2int(%d) = %d, want %d", x, got, want)
		}
	}
	if got := Fb2int(16); got != 16 {
		t.Fatalf("Fb2int(16) = %d, want 16", got)
	}
	if got := Fb2int(17); got != 18 {
		t.Fatalf("Fb2int(17) = %d, want 18", got)
	}
}
