// Package bencode implements a strict BEP-3 parser and serializer
// between bencode bytes and variant.Variant.
//
// The parser supports two string-ownership modes (owned copies, or
// in-place views borrowing the input buffer — the caller must then
// guarantee the buffer outlives the resulting Variant), bounds
// recursion depth and individual string length, and reports the
// first-unparsed-byte offset on success so callers can parse
// concatenated documents one at a time, exactly as §4.3 requires.
package bencode

import (
	"github.com/omnicloud/torrentcore/internal/corerr"
	"github.com/omnicloud/torrentcore/internal/quark"
	"github.com/omnicloud/torrentcore/internal/variant"
)

// DefaultMaxStringLen is the suggested cap from §4.3 (128 MiB);
// byte strings longer than this fail with StringTooLong.
const DefaultMaxStringLen = 128 * 1024 * 1024

// DefaultMaxDepth matches variant.MaxDepth, the recursion bound BEP
// compatibility requires (≥ 512).
const DefaultMaxDepth = variant.MaxDepth

// Options controls a single Decode call.
type Options struct {
	// InPlace, when true, makes string variants unmanaged views into
	// the input buffer rather than owned copies. The caller must keep
	// the input buffer alive for at least as long as the returned
	// Variant.
	InPlace bool

	// MaxDepth bounds list/dict nesting. Zero means DefaultMaxDepth.
	MaxDepth int

	// MaxStringLen bounds an individual byte string's length. Zero
	// means DefaultMaxStringLen.
	MaxStringLen int64
}

func (o Options) maxDepth() int {
	if o.MaxDepth <= 0 {
		return DefaultMaxDepth
	}
	return o.MaxDepth
}

func (o Options) maxStringLen() int64 {
	if o.MaxStringLen <= 0 {
		return DefaultMaxStringLen
	}
	return o.MaxStringLen
}

// Decode parses a single bencode value from the start of data. On
// success it returns the value and the offset of the first byte past
// it — which may be less than len(data) when data holds concatenated
// documents. On failure it returns a *corerr.Error of kind ParseFailure.
func Decode(data []byte, opts Options) (variant.Variant, int, error) {
	d := &decoder{data: data, opts: opts}
	v, err := d.parseValue(0)
	if err != nil {
		return variant.None(), 0, err
	}
	return v, d.pos, nil
}

type decoder struct {
	data []byte
	pos  int
	opts Options
}

func (d *decoder) eof() bool { return d.pos >= len(d.data) }

func (d *decoder) byteAt(i int) byte { return d.data[i] }

func (d *decoder) parseValue(depth int) (variant.Variant, error) {
	if depth > d.opts.maxDepth() {
		return variant.None(), corerr.Parse(corerr.TooDeep, "recursion depth exceeded", d.pos)
	}
	if d.eof() {
		return variant.None(), corerr.Parse(corerr.UnexpectedEof, "expected a value", d.pos)
	}

	switch d.byteAt(d.pos) {
	case 'i':
		return d.parseInt()
	case 'l':
		return d.parseList(depth)
	case 'd':
		return d.parseDict(depth)
	default:
		if d.byteAt(d.pos) >= '0' && d.byteAt(d.pos) <= '9' {
			return d.parseString()
		}
		return variant.None(), corerr.Parse(corerr.UnexpectedEof, "unexpected byte for value", d.pos)
	}
}

func (d *decoder) parseInt() (variant.Variant, error) {
	start := d.pos
	d.pos++ // consume 'i'

	negative := false
	if !d.eof() && d.byteAt(d.pos) == '-' {
		negative = true
		d.pos++
	}

	digitsStart := d.pos
	for !d.eof() && d.byteAt(d.pos) >= '0' && d.byteAt(d.pos) <= '9' {
		d.pos++
	}
	digits := d.data[digitsStart:d.pos]

	if len(digits) == 0 {
		return variant.None(), corerr.Parse(corerr.BadInteger, "missing digits", start)
	}
	if len(digits) > 1 && digits[0] == '0' {
		return variant.None(), corerr.Parse(corerr.BadInteger, "leading zero", start)
	}
	if negative && digits[0] == '0' {
		return variant.None(), corerr.Parse(corerr.BadInteger, "negative zero", start)
	}

	if d.eof() || d.byteAt(d.pos) != 'e' {
		return variant.None(), corerr.Parse(corerr.BadInteger, "unterminated integer", start)
	}
	d.pos++ // consume 'e'

	val, ok := parseInt64(digits, negative)
	if !ok {
		return variant.None(), corerr.Parse(corerr.BadInteger, "integer does not fit in int64", start)
	}
	return variant.Int(val), nil
}

// parseInt64 parses an unsigned decimal digit run and applies sign,
// checking for int64 overflow explicitly (strconv would also work, but
// this avoids an extra string allocation on every integer).
func parseInt64(digits []byte, negative bool) (int64, bool) {
	const maxU64 = uint64(1<<63 - 1)

	var u uint64
	for i, c := range digits {
		d := uint64(c - '0')
		if u > (maxU64-d)/10 {
			// Allow exactly math.MinInt64 when negative.
			if negative && i == len(digits)-1 && u == maxU64/10 && d == maxU64%10+1 {
				return -1 << 63, true
			}
			return 0, false
		}
		u = u*10 + d
	}
	if negative {
		return -int64(u), true
	}
	if u > maxU64 {
		return 0, false
	}
	return int64(u), true
}

func (d *decoder) parseString() (variant.Variant, error) {
	start := d.pos
	digitsStart := d.pos
	for !d.eof() && d.byteAt(d.pos) >= '0' && d.byteAt(d.pos) <= '9' {
		d.pos++
	}
	digits := d.data[digitsStart:d.pos]
	if len(digits) == 0 {
		return variant.None(), corerr.Parse(corerr.UnterminatedString, "missing length", start)
	}
	if len(digits) > 1 && digits[0] == '0' {
		return variant.None(), corerr.Parse(corerr.UnterminatedString, "leading zero in length", start)
	}

	if d.eof() || d.byteAt(d.pos) != ':' {
		return variant.None(), corerr.Parse(corerr.UnterminatedString, "missing ':'", start)
	}
	d.pos++ // consume ':'

	length, ok := parseInt64(digits, false)
	if !ok {
		return variant.None(), corerr.Parse(corerr.UnterminatedString, "length does not fit in int64", start)
	}
	if length > d.opts.maxStringLen() {
		return variant.None(), corerr.Parse(corerr.StringTooLong, "string exceeds maximum length", start)
	}
	if int64(len(d.data)-d.pos) < length {
		return variant.None(), corerr.Parse(corerr.UnterminatedString, "string runs past end of input", start)
	}

	b := d.data[d.pos : d.pos+int(length)]
	d.pos += int(length)

	if d.opts.InPlace {
		return variant.UnmanagedString(b), nil
	}
	return variant.Raw(b), nil
}

func (d *decoder) parseList(depth int) (variant.Variant, error) {
	d.pos++ // consume 'l'
	v := variant.Vector()
	for {
		if d.eof() {
			return variant.None(), corerr.Parse(corerr.UnexpectedEof, "unterminated list", d.pos)
		}
		if d.byteAt(d.pos) == 'e' {
			d.pos++
			return v, nil
		}
		elem, err := d.parseValue(depth + 1)
		if err != nil {
			return variant.None(), err
		}
		v.PushVariant(elem)
	}
}

func (d *decoder) parseDict(depth int) (variant.Variant, error) {
	d.pos++ // consume 'd'
	v := variant.Map()
	for {
		if d.eof() {
			return variant.None(), corerr.Parse(corerr.UnexpectedEof, "unterminated dict", d.pos)
		}
		if d.byteAt(d.pos) == 'e' {
			d.pos++
			return v, nil
		}

		keyStart := d.pos
		if d.byteAt(d.pos) < '0' || d.byteAt(d.pos) > '9' {
			return variant.None(), corerr.Parse(corerr.UnexpectedEof, "dict key must be a byte string", keyStart)
		}
		keyVal, err := d.parseString()
		if err != nil {
			return variant.None(), err
		}
		keyBytes, _ := keyVal.GetIfString()
		key := quark.Intern(keyBytes)

		val, err := d.parseValue(depth + 1)
		if err != nil {
			return variant.None(), err
		}
		v.InsertOrAssign(key, val)
	}
}
