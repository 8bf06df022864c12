package compiler

import "github.com/lollipopkit/luacore/binchunk"

// toProto converts a fully-compiled funcState into the immutable
// Prototype the VM and binary-chunk writer consume, grounded on the
// teacher's compiler/codegen/fi2proto.go (toProto/getConstants/
// getUpvalues) adapted to this package's merged funcState type.
func toProto(fs *funcState) *binchunk.Prototype {
	proto := &binchunk.Prototype{
		Source:          fs.source,
		LineDefined:     uint32(fs.line),
		LastLineDefined: uint32(fs.lastLine),
		NumParams:       byte(fs.numParams),
		MaxStackSize:    byte(fs.maxRegs),
		Code:            fs.insts,
		Constants:       getConstants(fs),
		Upvalues:        getUpvalues(fs),
		Protos:          toProtos(fs.subFuncs),
		LineInfo:        fs.lineNums,
		LocVars:         getLocVars(fs),
		UpvalueNames:    getUpvalueNames(fs),
	}

	if proto.MaxStackSize < 2 {
		proto.MaxStackSize = 2
	}
	if fs.isVararg {
		proto.IsVararg = 1
	}
	return proto
}

func toProtos(fss []*funcState) []*binchunk.Prototype {
	protos := make([]*binchunk.Prototype, len(fss))
	for i := range fss {
		protos[i] = toProto(fss[i])
	}
	return protos
}

func getConstants(fs *funcState) []interface{} {
	consts := make([]interface{}, len(fs.constants))
	for k, idx := range fs.constants {
		consts[idx] = k
	}
	return consts
}

func getLocVars(fs *funcState) []binchunk.LocVar {
	locVars := make([]binchunk.LocVar, len(fs.locVars))
	for i, lv := range fs.locVars {
		locVars[i] = binchunk.LocVar{
			VarName: lv.name,
			StartPC: uint32(lv.startPC),
			EndPC:   uint32(lv.endPC),
		}
	}
	return locVars
}

func getUpvalues(fs *funcState) []binchunk.Upvalue {
	upvals := make([]binchunk.Upvalue, len(fs.upvalues))
	for _, uv := range fs.upvalues {
		if uv.locVarSlot >= 0 {
			upvals[uv.index] = binchunk.Upvalue{Instack: 1, Idx: byte(uv.locVarSlot)}
		} else {
			upvals[uv.index] = binchunk.Upvalue{Instack: 0, Idx: byte(uv.upvalIndex)}
		}
	}
	return upvals
}

func getUpvalueNames(fs *funcState) []string {
	names := make([]string, len(fs.upvalues))
	for name, uv := range fs.upvalues {
		names[uv.index] = name
	}
	return names
}
