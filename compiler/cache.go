package compiler

import (
	"crypto/sha256"
	"encoding/hex"

	glc "github.com/lollipopkit/go_lru_cacher"
	"golang.org/x/sync/singleflight"

	"github.com/lollipopkit/luacore/binchunk"
)

// compileCache memoizes Compile results by source content hash, the
// same get-or-build idiom the teacher's stdlib uses for compiled regexps
// (stdlib/lib_re.go's reCacher), sized for a handful of hot chunks
// (REPL history, require()'d modules reloaded across calls).
var compileCache = glc.NewCacher(64)

// compileGroup collapses concurrent Compile calls for the same source
// (e.g. two goroutines requiring the same module at once) into one
// parse, the rest waiting on and sharing its result.
var compileGroup singleflight.Group

// CompileCached parses source through Compile, serving a cached
// Prototype when this exact source (by content hash) was already
// compiled, and never running the same source through the parser twice
// concurrently.
func CompileCached(source, chunkName string) (*binchunk.Prototype, error) {
	key := contentKey(source)
	if cached, ok := compileCache.Get(key); ok {
		if proto, ok := cached.(*binchunk.Prototype); ok {
			return proto, nil
		}
	}

	v, err, _ := compileGroup.Do(key, func() (interface{}, error) {
		proto, err := Compile(source, chunkName)
		if err != nil {
			return nil, err
		}
		compileCache.Set(key, proto)
		return proto, nil
	})
	if err != nil {
		return nil, err
	}
	return v.(*binchunk.Prototype), nil
}

func contentKey(source string) string {
	sum := sha256.Sum256([]byte(source))
	return hex.EncodeToString(sum[:])
}
