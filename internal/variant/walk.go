package variant

import (
	"sort"

	"github.com/omnicloud/torrentcore/internal/quark"
)

// Visitor receives a depth-first, document-order traversal of a
// Variant tree from Walk. Maps always emit keys in sorted byte order,
// regardless of insertion order, so that a given tree always produces
// the same event sequence.
type Visitor interface {
	None()
	Null()
	Bool(v bool)
	Int(v int64)
	Double(v float64)
	String(v []byte)
	ArrayBegin()
	ArrayEnd()
	ObjectBegin()
	ObjectKey(k []byte)
	ObjectEnd()
}

// Walk performs a depth-first traversal of v, invoking the matching
// visitor method for every node. Recursion is bounded by MaxDepth,
// matching the depth cap already enforced when v was parsed.
func Walk(v *Variant, vis Visitor) {
	walkDepth(v, vis, 0)
}

func walkDepth(v *Variant, vis Visitor, depth int) {
	if depth > MaxDepth {
		panic("variant: walk exceeds max recursion depth")
	}

	switch v.tag {
	case TagNone:
		vis.None()
	case TagNull:
		vis.Null()
	case TagBool:
		vis.Bool(v.b)
	case TagInt:
		vis.Int(v.i)
	case TagDouble:
		vis.Double(v.d)
	case TagString:
		vis.String(v.str)
	case TagVector:
		vis.ArrayBegin()
		for i := range v.vec {
			walkDepth(&v.vec[i], vis, depth+1)
		}
		vis.ArrayEnd()
	case TagMap:
		vis.ObjectBegin()
		for _, i := range sortedEntryIndices(v) {
			e := &v.entries[i]
			vis.ObjectKey([]byte(quark.String(e.key)))
			walkDepth(&e.value, vis, depth+1)
		}
		vis.ObjectEnd()
	}
}

// sortedEntryIndices returns indices into v.entries ordered by the
// byte-order of each entry's key string, for deterministic
// serialization and walk order independent of insertion order.
func sortedEntryIndices(v *Variant) []int {
	idx := make([]int, len(v.entries))
	for i := range idx {
		idx[i] = i
	}
	sort.Slice(idx, func(a, b int) bool {
		return quark.String(v.entries[idx[a]].key) < quark.String(v.entries[idx[b]].key)
	})
	return idx
}
