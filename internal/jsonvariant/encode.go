package jsonvariant

import (
	"bytes"
	"sort"
	"strconv"

	"github.com/omnicloud/torrentcore/internal/quark"
	"github.com/omnicloud/torrentcore/internal/variant"
)

const indentWidth = "    " // 4 spaces, per §4.4/§6

// Compact serializes v with no whitespace. Object keys are emitted in
// sorted byte order for determinism.
func Compact(v *variant.Variant) []byte {
	var buf bytes.Buffer
	e := &encoder{buf: &buf, pretty: false}
	e.encode(v, 0)
	return buf.Bytes()
}

// Pretty serializes v with 4-space indentation, human-readable mode.
// Object keys are emitted in sorted byte order for determinism.
func Pretty(v *variant.Variant) []byte {
	var buf bytes.Buffer
	e := &encoder{buf: &buf, pretty: true}
	e.encode(v, 0)
	return buf.Bytes()
}

type encoder struct {
	buf    *bytes.Buffer
	pretty bool
}

func (e *encoder) newline(depth int) {
	if !e.pretty {
		return
	}
	e.buf.WriteByte('\n')
	for i := 0; i < depth; i++ {
		e.buf.WriteString(indentWidth)
	}
}

func (e *encoder) encode(v *variant.Variant, depth int) {
	switch v.Tag() {
	case variant.TagNone, variant.TagNull:
		e.buf.WriteString("null")
	case variant.TagBool:
		b, _ := v.GetIfBool()
		if *b {
			e.buf.WriteString("true")
		} else {
			e.buf.WriteString("false")
		}
	case variant.TagInt:
		i, _ := v.ValueIfInt()
		e.buf.WriteString(strconv.FormatInt(i, 10))
	case variant.TagDouble:
		d, _ := v.ValueIfDouble()
		e.buf.WriteString(strconv.FormatFloat(d, 'g', -1, 64))
	case variant.TagString:
		s, _ := v.GetIfString()
		writeJSONString(e.buf, s)
	case variant.TagVector:
		e.encodeArray(v, depth)
	case variant.TagMap:
		e.encodeObject(v, depth)
	}
}

func (e *encoder) encodeArray(v *variant.Variant, depth int) {
	n := v.Len()
	if n == 0 {
		e.buf.WriteString("[]")
		return
	}
	e.buf.WriteByte('[')
	for i := 0; i < n; i++ {
		if i > 0 {
			e.buf.WriteByte(',')
		}
		e.newline(depth + 1)
		e.encode(v.At(i), depth+1)
	}
	e.newline(depth)
	e.buf.WriteByte(']')
}

func (e *encoder) encodeObject(v *variant.Variant, depth int) {
	entries := v.Entries()
	if len(entries) == 0 {
		e.buf.WriteString("{}")
		return
	}
	sort.Slice(entries, func(a, b int) bool {
		return quark.String(entries[a].Key) < quark.String(entries[b].Key)
	})

	e.buf.WriteByte('{')
	for i, ent := range entries {
		if i > 0 {
			e.buf.WriteByte(',')
		}
		e.newline(depth + 1)
		writeJSONString(e.buf, []byte(quark.String(ent.Key)))
		e.buf.WriteByte(':')
		if e.pretty {
			e.buf.WriteByte(' ')
		}
		e.encode(ent.Value, depth+1)
	}
	e.newline(depth)
	e.buf.WriteByte('}')
}

func writeJSONString(buf *bytes.Buffer, s []byte) {
	buf.WriteByte('"')
	for _, c := range s {
		switch c {
		case '"':
			buf.WriteString(`\"`)
		case '\\':
			buf.WriteString(`\\`)
		case '\n':
			buf.WriteString(`\n`)
		case '\r':
			buf.WriteString(`\r`)
		case '\t':
			buf.WriteString(`\t`)
		case '\b':
			buf.WriteString(`\b`)
		case '\f':
			buf.WriteString(`\f`)
		default:
			if c < 0x20 {
				buf.WriteString(`\u00`)
				const hex = "0123456789abcdef"
				buf.WriteByte(hex[c>>4])
				buf.WriteByte(hex[c&0xf])
			} else {
				buf.WriteByte(c)
			}
		}
	}
	buf.WriteByte('"')
}
