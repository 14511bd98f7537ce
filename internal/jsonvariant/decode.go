// Package jsonvariant implements the JSON subset needed for settings
// files, stats files, and the RPC envelope (§4.4): objects, arrays,
// numbers (int64 when exact, float64 otherwise), booleans, null, and
// UTF-8 strings with \uXXXX escapes including surrogate pairs.
//
// Like the bencode codec, it supports an in-place parse mode that
// borrows string views from the input buffer when no escape decoding
// is required, and reports the first-unparsed-byte offset on success
// so callers can parse concatenated documents one at a time.
package jsonvariant

import (
	"unicode/utf16"
	"unicode/utf8"

	"github.com/omnicloud/torrentcore/internal/corerr"
	"github.com/omnicloud/torrentcore/internal/quark"
	"github.com/omnicloud/torrentcore/internal/variant"
)

// DefaultMaxDepth matches variant.MaxDepth.
const DefaultMaxDepth = variant.MaxDepth

// Options controls a single Decode call.
type Options struct {
	// InPlace borrows string views from the input buffer when a string
	// literal contains no escapes; escaped strings always allocate
	// (decoding \uXXXX requires building new bytes). The caller must
	// keep the input buffer alive for at least as long as the result.
	InPlace bool

	// MaxDepth bounds object/array nesting. Zero means DefaultMaxDepth.
	MaxDepth int
}

func (o Options) maxDepth() int {
	if o.MaxDepth <= 0 {
		return DefaultMaxDepth
	}
	return o.MaxDepth
}

// Decode parses a single JSON value from the start of data, returning
// the value and the offset of the first byte past it.
func Decode(data []byte, opts Options) (variant.Variant, int, error) {
	d := &decoder{data: data, opts: opts}
	d.skipWhitespace()
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

func (d *decoder) peek() byte { return d.data[d.pos] }

func (d *decoder) skipWhitespace() {
	for !d.eof() {
		switch d.data[d.pos] {
		case ' ', '\t', '\n', '\r':
			d.pos++
		default:
			return
		}
	}
}

func (d *decoder) parseValue(depth int) (variant.Variant, error) {
	if depth > d.opts.maxDepth() {
		return variant.None(), corerr.Parse(corerr.TooDeep, "recursion depth exceeded", d.pos)
	}
	if d.eof() {
		return variant.None(), corerr.Parse(corerr.UnexpectedEof, "expected a value", d.pos)
	}

	switch d.peek() {
	case '{':
		return d.parseObject(depth)
	case '[':
		return d.parseArray(depth)
	case '"':
		return d.parseStringValue()
	case 't':
		return d.parseLiteral("true", variant.Bool(true))
	case 'f':
		return d.parseLiteral("false", variant.Bool(false))
	case 'n':
		return d.parseLiteral("null", variant.Null())
	default:
		c := d.peek()
		if c == '-' || (c >= '0' && c <= '9') {
			return d.parseNumber()
		}
		return variant.None(), corerr.Parse(corerr.UnexpectedEof, "unexpected character", d.pos)
	}
}

func (d *decoder) parseLiteral(lit string, v variant.Variant) (variant.Variant, error) {
	start := d.pos
	if d.pos+len(lit) > len(d.data) || string(d.data[d.pos:d.pos+len(lit)]) != lit {
		return variant.None(), corerr.Parse(corerr.UnexpectedEof, "invalid literal", start)
	}
	d.pos += len(lit)
	return v, nil
}

func (d *decoder) parseNumber() (variant.Variant, error) {
	start := d.pos
	isFloat := false

	if !d.eof() && d.peek() == '-' {
		d.pos++
	}
	if d.eof() || d.peek() < '0' || d.peek() > '9' {
		return variant.None(), corerr.Parse(corerr.BadInteger, "missing digits", start)
	}
	if d.peek() == '0' {
		d.pos++
	} else {
		for !d.eof() && d.peek() >= '0' && d.peek() <= '9' {
			d.pos++
		}
	}
	if !d.eof() && d.peek() == '.' {
		isFloat = true
		d.pos++
		if d.eof() || d.peek() < '0' || d.peek() > '9' {
			return variant.None(), corerr.Parse(corerr.BadInteger, "missing fraction digits", start)
		}
		for !d.eof() && d.peek() >= '0' && d.peek() <= '9' {
			d.pos++
		}
	}
	if !d.eof() && (d.peek() == 'e' || d.peek() == 'E') {
		isFloat = true
		d.pos++
		if !d.eof() && (d.peek() == '+' || d.peek() == '-') {
			d.pos++
		}
		if d.eof() || d.peek() < '0' || d.peek() > '9' {
			return variant.None(), corerr.Parse(corerr.BadInteger, "missing exponent digits", start)
		}
		for !d.eof() && d.peek() >= '0' && d.peek() <= '9' {
			d.pos++
		}
	}

	lit := d.data[start:d.pos]
	if !isFloat {
		if i, ok := decodeDecimalInt64(lit); ok {
			return variant.Int(i), nil
		}
		// Falls through to float when it overflows int64, matching
		// §4.4: "int decoded as 64-bit int when exact, else double".
	}
	f, ok := decodeFloat(lit)
	if !ok {
		return variant.None(), corerr.Parse(corerr.BadInteger, "malformed number", start)
	}
	return variant.Double(f), nil
}

func (d *decoder) parseStringValue() (variant.Variant, error) {
	b, owned, err := d.parseRawString()
	if err != nil {
		return variant.None(), err
	}
	if owned || !d.opts.InPlace {
		return variant.Raw(b), nil
	}
	return variant.UnmanagedString(b), nil
}

// parseRawString consumes a JSON string literal (the decoder must be
// positioned at the opening quote) and returns its decoded bytes.
// owned reports whether the returned slice had to be freshly allocated
// (because it contained an escape), in which case in-place mode cannot
// borrow it.
func (d *decoder) parseRawString() ([]byte, bool, error) {
	start := d.pos
	d.pos++ // consume opening quote

	literalStart := d.pos
	hasEscape := false
	for {
		if d.eof() {
			return nil, false, corerr.Parse(corerr.UnterminatedString, "unterminated string", start)
		}
		c := d.data[d.pos]
		if c == '"' {
			if !hasEscape {
				out := d.data[literalStart:d.pos]
				d.pos++
				return out, false, nil
			}
			break
		}
		if c == '\\' {
			hasEscape = true
			break
		}
		if c < 0x20 {
			return nil, false, corerr.Parse(corerr.UnterminatedString, "control character in string", d.pos)
		}
		d.pos++
	}

	// Slow path: decode escapes into a fresh buffer.
	d.pos = literalStart
	out := make([]byte, 0, d.pos-literalStart)
	for {
		if d.eof() {
			return nil, false, corerr.Parse(corerr.UnterminatedString, "unterminated string", start)
		}
		c := d.data[d.pos]
		switch {
		case c == '"':
			d.pos++
			return out, true, nil
		case c == '\\':
			decoded, err := d.parseEscape()
			if err != nil {
				return nil, false, err
			}
			out = append(out, decoded...)
		case c < 0x20:
			return nil, false, corerr.Parse(corerr.UnterminatedString, "control character in string", d.pos)
		default:
			out = append(out, c)
			d.pos++
		}
	}
}

func (d *decoder) parseEscape() ([]byte, error) {
	start := d.pos
	d.pos++ // consume backslash
	if d.eof() {
		return nil, corerr.Parse(corerr.UnterminatedString, "unterminated escape", start)
	}
	c := d.data[d.pos]
	d.pos++
	switch c {
	case '"':
		return []byte{'"'}, nil
	case '\\':
		return []byte{'\\'}, nil
	case '/':
		return []byte{'/'}, nil
	case 'b':
		return []byte{'\b'}, nil
	case 'f':
		return []byte{'\f'}, nil
	case 'n':
		return []byte{'\n'}, nil
	case 'r':
		return []byte{'\r'}, nil
	case 't':
		return []byte{'\t'}, nil
	case 'u':
		r, err := d.parseUnicodeEscape(start)
		if err != nil {
			return nil, err
		}
		buf := make([]byte, utf8.UTFMax)
		n := utf8.EncodeRune(buf, r)
		return buf[:n], nil
	default:
		return nil, corerr.Parse(corerr.UnterminatedString, "invalid escape character", start)
	}
}

func (d *decoder) parseUnicodeEscape(start int) (rune, error) {
	first, err := d.readHex4(start)
	if err != nil {
		return 0, err
	}

	if utf16.IsSurrogate(rune(first)) {
		if d.pos+1 < len(d.data) && d.data[d.pos] == '\\' && d.data[d.pos+1] == 'u' {
			savedPos := d.pos
			d.pos += 2
			second, err := d.readHex4(start)
			if err != nil {
				return 0, err
			}
			r := utf16.DecodeRune(rune(first), rune(second))
			if r != utf8.RuneError {
				return r, nil
			}
			d.pos = savedPos
		}
		// Lone surrogate: emit the Unicode replacement character
		// rather than failing outright, matching common JSON codec
		// leniency for this edge case.
		return utf8.RuneError, nil
	}

	return rune(first), nil
}

func (d *decoder) readHex4(start int) (uint16, error) {
	if d.pos+4 > len(d.data) {
		return 0, corerr.Parse(corerr.UnterminatedString, "truncated \\u escape", start)
	}
	var v uint16
	for i := 0; i < 4; i++ {
		c := d.data[d.pos+i]
		var digit uint16
		switch {
		case c >= '0' && c <= '9':
			digit = uint16(c - '0')
		case c >= 'a' && c <= 'f':
			digit = uint16(c-'a') + 10
		case c >= 'A' && c <= 'F':
			digit = uint16(c-'A') + 10
		default:
			return 0, corerr.Parse(corerr.UnterminatedString, "invalid hex digit in \\u escape", start)
		}
		v = v<<4 | digit
	}
	d.pos += 4
	return v, nil
}

func (d *decoder) parseArray(depth int) (variant.Variant, error) {
	start := d.pos
	d.pos++ // consume '['
	v := variant.Vector()
	d.skipWhitespace()
	if !d.eof() && d.peek() == ']' {
		d.pos++
		return v, nil
	}
	for {
		d.skipWhitespace()
		elem, err := d.parseValue(depth + 1)
		if err != nil {
			return variant.None(), err
		}
		v.PushVariant(elem)
		d.skipWhitespace()
		if d.eof() {
			return variant.None(), corerr.Parse(corerr.UnexpectedEof, "unterminated array", start)
		}
		switch d.peek() {
		case ',':
			d.pos++
		case ']':
			d.pos++
			return v, nil
		default:
			return variant.None(), corerr.Parse(corerr.UnexpectedEof, "expected ',' or ']'", d.pos)
		}
	}
}

func (d *decoder) parseObject(depth int) (variant.Variant, error) {
	start := d.pos
	d.pos++ // consume '{'
	v := variant.Map()
	d.skipWhitespace()
	if !d.eof() && d.peek() == '}' {
		d.pos++
		return v, nil
	}
	for {
		d.skipWhitespace()
		if d.eof() || d.peek() != '"' {
			return variant.None(), corerr.Parse(corerr.UnexpectedEof, "expected a string key", d.pos)
		}
		keyBytes, _, err := d.parseRawString()
		if err != nil {
			return variant.None(), err
		}
		key := quark.Intern(keyBytes)

		d.skipWhitespace()
		if d.eof() || d.peek() != ':' {
			return variant.None(), corerr.Parse(corerr.UnexpectedEof, "expected ':'", d.pos)
		}
		d.pos++
		d.skipWhitespace()

		val, err := d.parseValue(depth + 1)
		if err != nil {
			return variant.None(), err
		}
		v.InsertOrAssign(key, val)

		d.skipWhitespace()
		if d.eof() {
			return variant.None(), corerr.Parse(corerr.UnexpectedEof, "unterminated object", start)
		}
		switch d.peek() {
		case ',':
			d.pos++
		case '}':
			d.pos++
			return v, nil
		default:
			return variant.None(), corerr.Parse(corerr.UnexpectedEof, "expected ',' or '}'", d.pos)
		}
	}
}
