// Command luacore is the minimal CLI/REPL collaborator spec.md §6
// calls for: compile-and-run a script, optionally dumping its compiled
// form, or drop into an interactive read-eval-print loop. Grounded on
// the teacher's main.go/run.go/repl.go for the overall shape (compile
// cache, Load+Call, line-reading loop), but built on a plain
// bufio.Scanner instead of the teacher's tcell/tview full-screen editor
// (see DESIGN.md's dropped-dependency ledger — no SPEC_FULL component
// needs a terminal UI toolkit).
package main

import (
	"bufio"
	"flag"
	"fmt"
	"os"
	"strings"

	"github.com/lollipopkit/luacore/api"
	"github.com/lollipopkit/luacore/compiler"
	"github.com/lollipopkit/luacore/consts"
	"github.com/lollipopkit/luacore/logger"
	"github.com/lollipopkit/luacore/state"
	"github.com/lollipopkit/luacore/stdlib"
)

func main() {
	dumpMode := flag.String("dump", "", "dump the compiled chunk instead of running it: \"bin\" or \"json\"")
	flag.Parse()

	file := flag.Arg(0)
	if file == "" {
		repl()
		return
	}

	src, err := os.ReadFile(file)
	if err != nil {
		logger.Error("%v", err)
		os.Exit(1)
	}

	if *dumpMode != "" {
		dump(string(src), file, *dumpMode)
		return
	}

	ls := newState()
	if status := ls.Load(src, file, "bt"); status != api.StatusOK {
		logger.Error("%s", ls.ToString(-1))
		os.Exit(1)
	}
	ls.Call(0, api.MultiRet)
}

func dump(src, chunkName, mode string) {
	proto, err := compiler.Compile(src, chunkName)
	if err != nil {
		logger.Error("%v", err)
		os.Exit(1)
	}
	switch mode {
	case "bin":
		data, err := proto.Dump()
		if err != nil {
			logger.Error("%v", err)
			os.Exit(1)
		}
		os.Stdout.Write(data)
	case "json":
		js, err := proto.DebugJSON()
		if err != nil {
			logger.Error("%v", err)
			os.Exit(1)
		}
		fmt.Println(js)
	default:
		logger.Error("unknown -dump mode %q (want \"bin\" or \"json\")", mode)
		os.Exit(1)
	}
}

func newState() api.LuaState {
	ls := state.New()
	stdlib.OpenBase(ls)
	return ls
}

// repl runs a line-oriented read-eval-print loop: each non-blank line
// is one chunk, compiled and executed in the same global state across
// iterations (blank lines are skipped), the way the
// teacher's repl.go keeps one LkState alive across the session.
func repl() {
	fmt.Printf("luacore %s\n", consts.VERSION)
	ls := newState()
	scanner := bufio.NewScanner(os.Stdin)
	for {
		fmt.Print("> ")
		if !scanner.Scan() {
			return
		}
		line := scanner.Text()
		if strings.TrimSpace(line) == "" {
			continue
		}
		if err := ls.DoString(line); err != nil {
			logger.Error("%v", err)
		}
	}
}
