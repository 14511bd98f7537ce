// Package variant implements the tagged-union value type shared by the
// bencode and JSON codecs: an eight-case sum type (none, null, bool,
// int, double, string, vector, map) with coercing accessors, typed
// mutators, deep merge, and a depth-first walk for serialization.
//
// A Variant is move-only in spirit: a plain Go copy shares its string,
// vector and map storage with the original. The only sanctioned way to
// combine two variants is Merge, which deep copies from the source into
// the target.
package variant

import (
	"math"
	"strconv"

	"github.com/omnicloud/torrentcore/internal/quark"
)

// Tag identifies which case of the union is active. Order matters for
// serialization dispatch (a type switch on Tag), not for wire format.
type Tag uint8

const (
	TagNone Tag = iota
	TagNull
	TagBool
	TagInt
	TagDouble
	TagString
	TagVector
	TagMap
)

// MaxDepth bounds recursive structure (Merge, Walk, and the codecs that
// build variants) to guard against stack exhaustion on adversarial
// input. 512 matches real-world bencode nesting seen in torrents with
// deeply nested webseed/announce-list structures.
const MaxDepth = 512

// entry is one (quark, value) pair inside a Map, kept in insertion
// order.
type entry struct {
	key   quark.Quark
	value Variant
}

// Variant is the tagged-union value. The zero value is None.
type Variant struct {
	tag Tag

	b bool
	i int64
	d float64

	// str holds the string payload for TagString. owned indicates
	// whether str is this Variant's own copy (safe to outlive any
	// source buffer) or an unmanaged view into caller-owned memory
	// (the caller must outlive the Variant).
	str   []byte
	owned bool

	vec []Variant

	// idx maps a quark to its index in entries for O(1) lookup;
	// entries preserves insertion order for iteration.
	entries []entry
	idx     map[quark.Quark]int
}

// None returns the zero Variant (tag None, "not set").
func None() Variant { return Variant{tag: TagNone} }

// Null returns a Variant holding an explicit JSON/bencode null.
func Null() Variant { return Variant{tag: TagNull} }

// Bool returns a Variant holding b.
func Bool(b bool) Variant { return Variant{tag: TagBool, b: b} }

// Int returns a Variant holding a signed 64-bit integer.
func Int(i int64) Variant { return Variant{tag: TagInt, i: i} }

// Double returns a Variant holding an IEEE-754 binary64 value.
func Double(d float64) Variant { return Variant{tag: TagDouble, d: d} }

// String returns a Variant that owns a copy of s.
func String(s string) Variant {
	return Variant{tag: TagString, str: []byte(s), owned: true}
}

// Raw returns a Variant that owns a byte-exact copy of b (for strings
// that are not necessarily valid UTF-8, e.g. SHA-1 piece digests).
func Raw(b []byte) Variant {
	cp := make([]byte, len(b))
	copy(cp, b)
	return Variant{tag: TagString, str: cp, owned: true}
}

// UnmanagedString returns a Variant that borrows b rather than copying
// it. The caller MUST ensure b outlives the returned Variant (and
// anything it is merged into), and MUST NOT mutate b while it is
// referenced. Crossing a thread or scope boundary requires converting
// via ToOwned first.
func UnmanagedString(b []byte) Variant {
	return Variant{tag: TagString, str: b, owned: false}
}

// Vector returns an empty, ready-to-append vector Variant.
func Vector() Variant {
	return Variant{tag: TagVector, vec: []Variant{}}
}

// Map returns an empty, ready-to-populate map Variant.
func Map() Variant {
	return Variant{tag: TagMap, idx: make(map[quark.Quark]int)}
}

// Tag reports which case of the union is active.
func (v *Variant) Tag() Tag { return v.tag }

// IsNone reports whether the Variant is unset.
func (v *Variant) IsNone() bool { return v.tag == TagNone }

// ToOwned returns a Variant equivalent to v but guaranteed to own all of
// its string payloads, recursively. Safe to cross thread/scope
// boundaries after this call.
func (v *Variant) ToOwned() Variant {
	switch v.tag {
	case TagString:
		if v.owned {
			return *v
		}
		return Raw(v.str)
	case TagVector:
		out := Vector()
		for i := range v.vec {
			ov := v.vec[i].ToOwned()
			out.vec = append(out.vec, ov)
		}
		return out
	case TagMap:
		out := Map()
		for _, e := range v.entries {
			ov := e.value.ToOwned()
			out.setEntry(e.key, ov)
		}
		return out
	default:
		return *v
	}
}

// ---- typed accessors (no coercion) ----

// GetIfBool returns a pointer to the bool payload iff the tag is Bool.
func (v *Variant) GetIfBool() (*bool, bool) {
	if v.tag != TagBool {
		return nil, false
	}
	return &v.b, true
}

// GetIfInt returns a pointer to the int payload iff the tag is Int.
func (v *Variant) GetIfInt() (*int64, bool) {
	if v.tag != TagInt {
		return nil, false
	}
	return &v.i, true
}

// GetIfDouble returns a pointer to the double payload iff the tag is Double.
func (v *Variant) GetIfDouble() (*float64, bool) {
	if v.tag != TagDouble {
		return nil, false
	}
	return &v.d, true
}

// GetIfString returns the byte view of the string payload iff the tag
// is String, regardless of ownership.
func (v *Variant) GetIfString() ([]byte, bool) {
	if v.tag != TagString {
		return nil, false
	}
	return v.str, true
}

// GetIfVector returns a pointer to the underlying vector iff the tag is
// Vector.
func (v *Variant) GetIfVector() (*[]Variant, bool) {
	if v.tag != TagVector {
		return nil, false
	}
	return &v.vec, true
}

// GetIfMap returns v itself (as a map view) iff the tag is Map.
func (v *Variant) GetIfMap() (*Variant, bool) {
	if v.tag != TagMap {
		return nil, false
	}
	return v, true
}

// ---- coercing accessors (§3.2) ----

// ValueIfBool applies the read-as-bool coercion rules: a Bool reads
// directly; an Int reads iff it is 0 or 1; the strings "true"/"false"
// read as their boolean meaning. All other tags fail.
func (v *Variant) ValueIfBool() (bool, bool) {
	switch v.tag {
	case TagBool:
		return v.b, true
	case TagInt:
		if v.i == 0 {
			return false, true
		}
		if v.i == 1 {
			return true, true
		}
		return false, false
	case TagString:
		switch string(v.str) {
		case "true":
			return true, true
		case "false":
			return false, true
		}
		return false, false
	default:
		return false, false
	}
}

// ValueIfInt returns the Int payload directly; no other tag coerces to
// int per spec §3.2 (only int->double and int->bool are defined, not
// the reverse).
func (v *Variant) ValueIfInt() (int64, bool) {
	if v.tag != TagInt {
		return 0, false
	}
	return v.i, true
}

// ValueIfDouble applies the read-as-double coercion rules: Double reads
// directly, Int always converts, String converts iff it parses as a
// finite number.
func (v *Variant) ValueIfDouble() (float64, bool) {
	switch v.tag {
	case TagDouble:
		return v.d, true
	case TagInt:
		return float64(v.i), true
	case TagString:
		f, err := strconv.ParseFloat(string(v.str), 64)
		if err != nil || math.IsInf(f, 0) || math.IsNaN(f) {
			return 0, false
		}
		return f, true
	default:
		return 0, false
	}
}

// ValueIfString returns the String payload directly; no other tag
// coerces to string.
func (v *Variant) ValueIfString() ([]byte, bool) {
	if v.tag != TagString {
		return nil, false
	}
	return v.str, true
}

// ---- vector mutation ----

// PushVariant appends v2 to the vector. Panics if v is not a vector (a
// caller bug, not a runtime condition).
func (v *Variant) PushVariant(v2 Variant) {
	v.mustTag(TagVector)
	v.vec = append(v.vec, v2)
}

func (v *Variant) PushInt(i int64)      { v.PushVariant(Int(i)) }
func (v *Variant) PushBool(b bool)      { v.PushVariant(Bool(b)) }
func (v *Variant) PushDouble(d float64) { v.PushVariant(Double(d)) }
func (v *Variant) PushString(s string)  { v.PushVariant(String(s)) }
func (v *Variant) PushRaw(b []byte)     { v.PushVariant(Raw(b)) }

func (v *Variant) PushMap() *Variant {
	v.PushVariant(Map())
	return &v.vec[len(v.vec)-1]
}

func (v *Variant) PushVector() *Variant {
	v.PushVariant(Vector())
	return &v.vec[len(v.vec)-1]
}

// Len returns the number of elements in a vector or entries in a map.
func (v *Variant) Len() int {
	switch v.tag {
	case TagVector:
		return len(v.vec)
	case TagMap:
		return len(v.entries)
	default:
		return 0
	}
}

// At returns a pointer to the i'th vector element.
func (v *Variant) At(i int) *Variant {
	v.mustTag(TagVector)
	return &v.vec[i]
}

// ---- map mutation ----

func (v *Variant) mustTag(t Tag) {
	if v.tag != t {
		panic("variant: operation requires tag " + tagName(t) + ", got " + tagName(v.tag))
	}
}

func tagName(t Tag) string {
	switch t {
	case TagNone:
		return "none"
	case TagNull:
		return "null"
	case TagBool:
		return "bool"
	case TagInt:
		return "int"
	case TagDouble:
		return "double"
	case TagString:
		return "string"
	case TagVector:
		return "vector"
	case TagMap:
		return "map"
	default:
		return "unknown"
	}
}

func (v *Variant) setEntry(key quark.Quark, val Variant) {
	if i, ok := v.idx[key]; ok {
		v.entries[i].value = val
		return
	}
	v.idx[key] = len(v.entries)
	v.entries = append(v.entries, entry{key: key, value: val})
}

// TryEmplace inserts (key, val) iff key is absent; if key is already
// present, val is discarded and a pointer to the existing entry is
// returned instead. The bool result reports whether an insertion
// happened.
func (v *Variant) TryEmplace(key quark.Quark, val Variant) (*Variant, bool) {
	v.mustTag(TagMap)
	if i, ok := v.idx[key]; ok {
		return &v.entries[i].value, false
	}
	v.setEntry(key, val)
	return &v.entries[len(v.entries)-1].value, true
}

// InsertOrAssign inserts (key, val), replacing any existing entry for
// key while keeping its original position.
func (v *Variant) InsertOrAssign(key quark.Quark, val Variant) {
	v.mustTag(TagMap)
	v.setEntry(key, val)
}

// Find returns a pointer to the value for key, if present.
func (v *Variant) Find(key quark.Quark) (*Variant, bool) {
	v.mustTag(TagMap)
	i, ok := v.idx[key]
	if !ok {
		return nil, false
	}
	return &v.entries[i].value, true
}

// Erase removes key from the map, if present, returning whether
// anything was removed.
func (v *Variant) Erase(key quark.Quark) bool {
	v.mustTag(TagMap)
	i, ok := v.idx[key]
	if !ok {
		return false
	}
	v.entries = append(v.entries[:i], v.entries[i+1:]...)
	delete(v.idx, key)
	for k, j := range v.idx {
		if j > i {
			v.idx[k] = j - 1
		}
	}
	return true
}

// Entries returns the map's (key, value) pairs in insertion order. The
// returned slice is freshly allocated, so callers may reorder it, but
// each Value points into the map's internal storage.
func (v *Variant) Entries() []struct {
	Key   quark.Quark
	Value *Variant
} {
	v.mustTag(TagMap)
	out := make([]struct {
		Key   quark.Quark
		Value *Variant
	}, len(v.entries))
	for i := range v.entries {
		out[i].Key = v.entries[i].key
		out[i].Value = &v.entries[i].value
	}
	return out
}

