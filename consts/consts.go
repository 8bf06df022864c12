// Package consts holds version and environment-derived settings used
// by the CLI and the logger.
package consts

import "os"

const (
	// VERSION is the language version this core implements the
	// observable semantics of.
	VERSION = "Lua 5.3"

	// LuaSignature opens every compiled binary chunk.
	LuaSignature = "\x1bLua"
)

var (
	// Debug turns on logger.Debug output. Off by default; set
	// LUACORE_DEBUG=1 to enable.
	Debug = os.Getenv("LUACORE_DEBUG") != ""

	// Path holds LUACORE_PATH, named after Lua's LUA_PATH. No package
	// in this module reads it.
	Path = os.Getenv("LUACORE_PATH")
)
