package bencode

import (
	"bytes"
	"sort"
	"strconv"

	"github.com/omnicloud/torrentcore/internal/quark"
	"github.com/omnicloud/torrentcore/internal/variant"
)

// Encode serializes v to its canonical bencode form: dict keys are
// always written in ascending byte order regardless of insertion
// order, which is what makes round-tripping already-canonical input
// byte-exact (§8, "Bencode canonicalization").
//
// Encode is a pure function of v; it cannot fail (no I/O is involved),
// matching §4.3's "serialization... never fails except via I/O when
// writing to a file".
func Encode(v *variant.Variant) []byte {
	var buf bytes.Buffer
	encodeInto(&buf, v)
	return buf.Bytes()
}

func encodeInto(buf *bytes.Buffer, v *variant.Variant) {
	switch v.Tag() {
	case variant.TagNone, variant.TagNull:
		// Bencode has no null/absent case; an explicit empty byte
		// string is the closest representable value and keeps the
		// grammar self-delimiting.
		buf.WriteString("0:")
	case variant.TagBool:
		b, _ := v.GetIfBool()
		if *b {
			buf.WriteString("i1e")
		} else {
			buf.WriteString("i0e")
		}
	case variant.TagInt:
		i, _ := v.ValueIfInt()
		buf.WriteByte('i')
		buf.WriteString(strconv.FormatInt(i, 10))
		buf.WriteByte('e')
	case variant.TagDouble:
		// Bencode has no float type; round-trip as the shortest
		// decimal string representation, bencode-string-encoded.
		d, _ := v.ValueIfDouble()
		s := strconv.FormatFloat(d, 'g', -1, 64)
		writeBString(buf, []byte(s))
	case variant.TagString:
		s, _ := v.GetIfString()
		writeBString(buf, s)
	case variant.TagVector:
		buf.WriteByte('l')
		n := v.Len()
		for i := 0; i < n; i++ {
			encodeInto(buf, v.At(i))
		}
		buf.WriteByte('e')
	case variant.TagMap:
		buf.WriteByte('d')
		for _, e := range sortedEntries(v) {
			writeBString(buf, []byte(quark.String(e.Key)))
			encodeInto(buf, e.Value)
		}
		buf.WriteByte('e')
	}
}

func writeBString(buf *bytes.Buffer, b []byte) {
	buf.WriteString(strconv.Itoa(len(b)))
	buf.WriteByte(':')
	buf.Write(b)
}

type mapEntry = struct {
	Key   quark.Quark
	Value *variant.Variant
}

func sortedEntries(v *variant.Variant) []mapEntry {
	entries := v.Entries()
	sort.Slice(entries, func(a, b int) bool {
		return quark.String(entries[a].Key) < quark.String(entries[b].Key)
	})
	return entries
}
