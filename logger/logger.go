// Package logger provides leveled, optionally-colored diagnostics for
// the CLI and REPL. The compiler and VM never import it: runtime
// errors are Lua values raised through the panic/recover protected-call
// machinery in state, never log lines.
package logger

import (
	"fmt"
	"os"

	"github.com/lollipopkit/luacore/consts"
)

const (
	red    = "\033[91m"
	yellow = "\033[93m"
	cyan   = "\033[96m"
	green  = "\033[32m"
	reset  = "\033[0m"
)

func printf(prefix, format string, args ...any) {
	fmt.Fprintf(os.Stderr, prefix+format+reset+"\n", args...)
}

func Info(format string, args ...any) {
	printf(cyan+"[info] ", format, args...)
}

func Warn(format string, args ...any) {
	printf(yellow+"[warn] ", format, args...)
}

func Error(format string, args ...any) {
	printf(red+"[error] ", format, args...)
}

func Ok(format string, args ...any) {
	printf(green+"[ok] ", format, args...)
}

// Debug only prints when LUACORE_DEBUG is set, matching the teacher's
// consts.Debug-gated trace calls.
func Debug(format string, args ...any) {
	if consts.Debug {
		printf(cyan+"[debug] ", format, args...)
	}
}
