package variant

// Merge deep-copies src into tgt, in place, according to §3.2:
//   - scalar tags (none/null/bool/int/double/string) overwrite tgt
//     entirely;
//   - vectors merge element-wise up to min(len(tgt), len(src)), then
//     append a deep copy of src's longer tail;
//   - maps recursively merge values that share a key and insert any
//     key present only in src.
//
// merge(a, {}) == a and merge({}, b) == deep-copy(b) fall out of this
// directly for maps: an empty source map inserts nothing, and an empty
// target map receives a deep copy of every source entry. A None source
// is a scalar tag like any other and replaces the target.
func Merge(tgt *Variant, src Variant) {
	mergeDepth(tgt, src, 0)
}

func mergeDepth(tgt *Variant, src Variant, depth int) {
	if depth > MaxDepth {
		panic("variant: merge exceeds max recursion depth")
	}

	if tgt.tag == TagMap && src.tag == TagMap {
		for _, e := range src.entries {
			if existing, ok := tgt.Find(e.key); ok {
				mergeDepth(existing, e.value, depth+1)
			} else {
				tgt.setEntry(e.key, e.value.ToOwned())
			}
		}
		return
	}

	if tgt.tag == TagVector && src.tag == TagVector {
		n := len(tgt.vec)
		if len(src.vec) < n {
			n = len(src.vec)
		}
		for i := 0; i < n; i++ {
			mergeDepth(&tgt.vec[i], src.vec[i], depth+1)
		}
		for i := n; i < len(src.vec); i++ {
			tgt.vec = append(tgt.vec, src.vec[i].ToOwned())
		}
		return
	}

	// Differing or scalar tags: src replaces tgt wholesale.
	*tgt = src.ToOwned()
}
