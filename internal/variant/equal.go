package variant

// Equal reports whether a and b represent the same value, ignoring map
// key insertion order (per §8's round-trip property) and string
// ownership (owned vs. unmanaged strings with identical bytes compare
// equal).
func Equal(a, b *Variant) bool {
	if a.tag != b.tag {
		return false
	}
	switch a.tag {
	case TagNone, TagNull:
		return true
	case TagBool:
		return a.b == b.b
	case TagInt:
		return a.i == b.i
	case TagDouble:
		return a.d == b.d
	case TagString:
		return string(a.str) == string(b.str)
	case TagVector:
		if len(a.vec) != len(b.vec) {
			return false
		}
		for i := range a.vec {
			if !Equal(&a.vec[i], &b.vec[i]) {
				return false
			}
		}
		return true
	case TagMap:
		if len(a.entries) != len(b.entries) {
			return false
		}
		for _, e := range a.entries {
			other, ok := b.Find(e.key)
			if !ok || !Equal(&e.value, other) {
				return false
			}
		}
		return true
	default:
		return false
	}
}
