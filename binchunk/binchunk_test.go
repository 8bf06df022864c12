package binchunk

import (
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/require"
)

func sampleProto() *Prototype {
	return &Prototype{
		Source:       "test.lua",
		LineDefined:  1,
		NumParams:    2,
		IsVararg:     1,
		MaxStackSize: 5,
		Code:         []uint32{0x00000001, 0x12345678},
		Constants:    []any{nil, true, false, int64(42), float64(3.5), "hi"},
		Upvalues:     []Upvalue{{Instack: 1, Idx: 0}},
		LineInfo:     []uint32{1, 1, 2},
		LocVars:      []LocVar{{VarName: "x", StartPC: 0, EndPC: 2}},
		UpvalueNames: []string{"_ENV"},
	}
}

func TestDumpUndumpRoundTrip(t *testing.T) {
	proto := sampleProto()
	data, err := proto.Dump()
	require.NoError(t, err)
	require.True(t, IsBinaryChunk(data))

	got, err := Undump(data)
	require.NoError(t, err)

	if diff := cmp.Diff(proto, got); diff != "" {
		t.Fatalf("round trip mismatch (-want +got):\n%s", diff)
	}
}

func TestUndumpRejectsGarbage(t *testing.T) {
	_, err := Undump([]byte("not a chunk"))
	require.Error(t, err)
}

func TestLongStringConstant(t *testing.T) {
	long := make([]byte, 400)
	for i := range long {
		long[i] = 'a'
	}
	proto := &Prototype{Constants: []any{string(long)}}
	data, err := proto.Dump()
	require.NoError(t, err)
	got, err := Undump(data)
	require.NoError(t, err)
	require.Equal(t, proto.Constants[0], got.Constants[0])
}
