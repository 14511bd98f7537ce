package bencode

import "github.com/omnicloud/torrentcore/internal/corerr"

// InfoSpan locates the raw byte range of the value for the top-level
// "info" key inside a bencoded dictionary, without allocating a
// Variant for it. Metainfo parsing needs the exact source bytes of the
// info dict (§3.4: "info_hash equals SHA-1 over exactly the bytes that
// were the parsed info-dict region of the source"), and computing that
// span from a re-serialized Variant would not be byte-for-byte
// faithful to non-canonical input.
func InfoSpan(data []byte) (start, end int, err error) {
	d := &decoder{data: data}
	if d.eof() || d.byteAt(d.pos) != 'd' {
		return 0, 0, corerr.Parse(corerr.UnexpectedEof, "expected a top-level dict", d.pos)
	}
	d.pos++ // consume 'd'

	for {
		if d.eof() {
			return 0, 0, corerr.Parse(corerr.UnexpectedEof, "unterminated dict", d.pos)
		}
		if d.byteAt(d.pos) == 'e' {
			return 0, 0, corerr.New(corerr.ParseFailure, "no \"info\" key in top-level dict")
		}

		keyVal, err := d.parseString()
		if err != nil {
			return 0, 0, err
		}
		keyBytes, _ := keyVal.GetIfString()

		valueStart := d.pos
		if _, err := d.parseValue(0); err != nil {
			return 0, 0, err
		}

		if string(keyBytes) == "info" {
			return valueStart, d.pos, nil
		}
	}
}
