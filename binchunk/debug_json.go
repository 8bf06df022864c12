package binchunk

import jsoniter "github.com/json-iterator/go"

var debugJSON = jsoniter.ConfigCompatibleWithStandardLibrary

// DebugJSON renders the prototype tree as indented JSON for the CLI's
// "-dump=json" inspection mode, alongside the real binary Dump. Only
// a debugging aid — never consulted by the VM.
func (proto *Prototype) DebugJSON() (string, error) {
	b, err := debugJSON.MarshalIndent(proto, "", "  ")
	if err != nil {
		return "", err
	}
	return string(b), nil
}
