package state

import (
	"fmt"

	"github.com/lollipopkit/luacore/utils"
)

// luaToString renders a value the way tostring()/string coercion in
// concatenation do: numbers per spec §4.3 (utils.NumberToString
// forces a ".0" suffix on integral floats so 1.0 never prints as
// "1"), everything else by type-tagged identity.
func luaToString(val any) string {
	switch x := val.(type) {
	case nil:
		return "nil"
	case bool:
		if x {
			return "true"
		}
		return "false"
	case int64, float64:
		return utils.NumberToString(x)
	case string:
		return x
	case *luaTable:
		return fmt.Sprintf("table: %p", x)
	case *closure:
		return x.String()
	case *luaState:
		return fmt.Sprintf("thread: %p", x)
	default:
		return fmt.Sprintf("%v", x)
	}
}
