package state

import (
	"fmt"
	"math"

	"github.com/lollipopkit/luacore/utils"
)

// luaTable is the hybrid array+hash container backing every Lua table
// value (spec §4.3). Dense 1-based integer keys live in arr; every
// other key lives in the hash part, a fixed-size node vector addressed
// by main position with chaining for collisions, grounded directly on
// the teacher's luaTable (state/lua_table.go) but replacing its bare
// Go map with the main-position/chain protocol the spec requires to be
// observable (iteration order, collision handling) rather than hidden
// behind map's own hashing.
type luaTable struct {
	arr       []any
	nodes     []node
	freePos   int // search cursor for the next candidate free node, scanning backward
	nUse      int
	metatable *luaTable

	keys    []any // snapshot for next(), rebuilt lazily
	changed bool
}

type node struct {
	key  any
	val  any
	next int // index+1 of the next node in this key's chain, 0 = none
}

func newLuaTable(nArr, nRec int) *luaTable {
	t := &luaTable{}
	if nArr > 0 {
		t.arr = make([]any, 0, nArr)
	}
	if nRec > 0 {
		t.resizeHash(nRec)
	}
	return t
}

func (t *luaTable) resizeHash(n int) {
	size := 1
	for size < n {
		size *= 2
	}
	if size < 1 {
		size = 1
	}
	old := t.nodes
	t.nodes = make([]node, size)
	for i := range t.nodes {
		t.nodes[i].next = 0
	}
	t.freePos = size
	t.nUse = 0
	for i := range old {
		if old[i].key != nil && old[i].val != nil {
			t.hashPut(old[i].key, old[i].val)
		}
	}
}

func (t *luaTable) hasMetafield(fieldName string) bool {
	if t.metatable == nil {
		return false
	}
	return t.metatable.get(fieldName) != nil
}

func (t *luaTable) len() int {
	return len(t.arr)
}

func normalizeKey(key any) any {
	if f, ok := key.(float64); ok {
		if i, ok := utils.FloatToInteger(f); ok {
			return i
		}
	}
	return key
}

func (t *luaTable) get(key any) any {
	key = normalizeKey(key)
	if idx, ok := key.(int64); ok && idx >= 1 && idx <= int64(len(t.arr)) {
		return t.arr[idx-1]
	}
	return t.hashGet(key)
}

func (t *luaTable) mainPosition(key any) int {
	if len(t.nodes) == 0 {
		return -1
	}
	return int(uint64(hashKey(key)) % uint64(len(t.nodes)))
}

func (t *luaTable) hashGet(key any) any {
	if len(t.nodes) == 0 {
		return nil
	}
	i := t.mainPosition(key)
	for i != -1 {
		n := &t.nodes[i]
		if n.key != nil && keyEqual(n.key, key) {
			return n.val
		}
		if n.next == 0 {
			return nil
		}
		i = n.next - 1
	}
	return nil
}

func (t *luaTable) put(key, val any) {
	if key == nil {
		panic("table index is nil")
	}
	if f, ok := key.(float64); ok && math.IsNaN(f) {
		panic("table index is NaN")
	}
	t.changed = true
	key = normalizeKey(key)

	if idx, ok := key.(int64); ok && idx >= 1 {
		arrLen := int64(len(t.arr))
		if idx <= arrLen {
			t.arr[idx-1] = val
			if idx == arrLen && val == nil {
				t.shrinkArray()
			}
			return
		}
		if idx == arrLen+1 {
			t.hashDelete(key)
			if val != nil {
				t.arr = append(t.arr, val)
				t.expandArray()
			}
			return
		}
	}

	if val == nil {
		t.hashDelete(key)
		return
	}
	t.hashPut(key, val)
}

// hashPut implements the spec's main-position/chain insertion
// protocol (§4.3): an empty main slot is occupied directly; a main
// slot held by a key that is not itself in its rightful main position
// is evicted to a free slot to make room; otherwise the new key is
// placed in any free slot and chained from its true main position.
func (t *luaTable) hashPut(key, val any) {
	if len(t.nodes) == 0 {
		t.resizeHash(1)
	}
	mp := t.mainPosition(key)
	for i := mp; i != -1; {
		n := &t.nodes[i]
		if n.key != nil && keyEqual(n.key, key) {
			n.val = val
			return
		}
		if n.next == 0 {
			break
		}
		i = n.next - 1
	}

	main := &t.nodes[mp]
	if main.key == nil {
		main.key, main.val, main.next = key, val, 0
		t.nUse++
		return
	}

	free := t.getFreePos()
	if free == -1 {
		t.resizeHash(len(t.nodes) * 2)
		t.hashPut(key, val)
		return
	}

	collidingMain := t.mainPosition(main.key)
	if collidingMain != mp {
		// main.key is merely chained through mp; relocate it to a
		// free slot and take mp for the new key.
		prev := collidingMain
		for t.nodes[prev].next-1 != mp {
			prev = t.nodes[prev].next - 1
		}
		t.nodes[prev].next = free + 1
		t.nodes[free] = *main
		main.key, main.val, main.next = key, val, 0
		t.nUse++
		return
	}

	// main occupies its own rightful slot: chain the new key from it.
	t.nodes[free] = node{key: key, val: val, next: main.next}
	main.next = free + 1
	t.nUse++
}

func (t *luaTable) getFreePos() int {
	for t.freePos > 0 {
		t.freePos--
		if t.nodes[t.freePos].key == nil {
			return t.freePos
		}
	}
	return -1
}

// hashDelete leaves the key in place as a dead entry (value nil, key
// and chain link untouched) rather than unlinking the node, the way
// real Lua's table deletion does: unlinking a node at its own main
// position would sever every successor chained through it. A later
// put() of the same key reuses the dead node directly (hashPut already
// matches on key before looking for a free slot); resizeHash drops
// dead entries when it rebuilds the table.
func (t *luaTable) hashDelete(key any) {
	if len(t.nodes) == 0 {
		return
	}
	i := t.mainPosition(key)
	for i != -1 {
		n := &t.nodes[i]
		if n.key != nil && keyEqual(n.key, key) {
			if n.val != nil {
				n.val = nil
				t.nUse--
			}
			return
		}
		if n.next == 0 {
			return
		}
		i = n.next - 1
	}
}

func (t *luaTable) shrinkArray() {
	for i := len(t.arr) - 1; i >= 0; i-- {
		if t.arr[i] == nil {
			t.arr = t.arr[:i]
		} else {
			break
		}
	}
}

func (t *luaTable) expandArray() {
	for idx := int64(len(t.arr)) + 1; ; idx++ {
		v := t.hashGet(idx)
		if v == nil {
			break
		}
		t.hashDelete(idx)
		t.arr = append(t.arr, v)
	}
}

// nextKey supports the pairs()/next() traversal protocol. Order is
// stable for an unchanged table but otherwise unspecified, per spec
// §8 invariant 6 and the Open Question on traversal order.
func (t *luaTable) nextKey(key any) (nk, nv any, ok bool) {
	if t.keys == nil || t.changed {
		t.rebuildKeys()
		t.changed = false
	}
	var found bool
	if key == nil {
		found = true
	}
	for _, k := range t.keys {
		if found {
			v := t.get(k)
			if v != nil {
				return k, v, true
			}
			continue
		}
		if keyEqual(normalizeKey(key), k) {
			found = true
		}
	}
	if !found {
		return nil, nil, false
	}
	return nil, nil, true
}

func (t *luaTable) rebuildKeys() {
	t.keys = t.keys[:0]
	for i := range t.arr {
		if t.arr[i] != nil {
			t.keys = append(t.keys, int64(i+1))
		}
	}
	for i := range t.nodes {
		if t.nodes[i].key != nil {
			t.keys = append(t.keys, t.nodes[i].key)
		}
	}
}

func keyEqual(a, b any) bool {
	return a == b
}

// hashKey implements the Lua-like hash used to pick a main position:
// strings hash their bytes, numbers hash their bit pattern, everything
// else hashes by identity via fmt (rare: booleans/tables/closures as
// keys).
func hashKey(key any) uint32 {
	switch v := key.(type) {
	case int64:
		return uint32(v) ^ uint32(v>>32)
	case float64:
		bits := math.Float64bits(v)
		return uint32(bits) ^ uint32(bits>>32)
	case string:
		var h uint32 = 2166136261
		for i := 0; i < len(v); i++ {
			h ^= uint32(v[i])
			h *= 16777619
		}
		return h
	case bool:
		if v {
			return 1
		}
		return 0
	default:
		s := fmt.Sprintf("%p", v)
		var h uint32 = 2166136261
		for i := 0; i < len(s); i++ {
			h ^= uint32(s[i])
			h *= 16777619
		}
		return h
	}
}
