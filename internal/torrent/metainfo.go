// Package torrent implements the torrent metainfo component (§3.4,
// §4.7): parsing a .torrent byte stream into its fields, computing the
// info-hash over the exact source bytes of the info dict, validating
// file paths as portable subpaths, and the magnet-URI and BEP-9
// metadata-transfer companions to a metainfo that starts out
// incomplete.
package torrent

import (
	"crypto/sha1"
	"strings"

	"github.com/omnicloud/torrentcore/internal/announce"
	"github.com/omnicloud/torrentcore/internal/bencode"
	"github.com/omnicloud/torrentcore/internal/corerr"
	"github.com/omnicloud/torrentcore/internal/quark"
	"github.com/omnicloud/torrentcore/internal/variant"
)

// PieceHash is a single SHA-1 piece digest.
type PieceHash [20]byte

// FileEntry is one file inside a (possibly multi-file) torrent.
type FileEntry struct {
	// Path is the file's subpath, split into portable components
	// (§4.7); joining with "/" reproduces the on-disk relative path.
	Path   []string
	Length int64
}

// Metainfo holds every field of a parsed or built .torrent (§3.4).
type Metainfo struct {
	Name        string
	Comment     string
	Source      string
	Creator     string
	DateCreated int64
	IsPrivate   bool
	Encoding    string

	InfoHash   [20]byte
	PieceSize  int64
	PieceCount int
	Pieces     []PieceHash

	Files    []FileEntry
	Webseeds []string
	Announce *announce.List

	// InfoSpanStart/End are the byte offsets of the info dict within
	// the source this Metainfo was parsed from, or (0, 0) for one that
	// was built rather than parsed. Kept for callers that want to
	// re-slice the original bytes (e.g. to re-verify InfoHash).
	InfoSpanStart, InfoSpanEnd int
}

// TotalSize returns the sum of every file's length.
func (m *Metainfo) TotalSize() int64 {
	var total int64
	for _, f := range m.Files {
		total += f.Length
	}
	return total
}

// Parse decodes a .torrent byte stream per BEP-3/9/12/19/27.
//
// The info-hash is computed over the exact byte range that held the
// info dict in data, not over a re-serialization of the parsed value,
// so it matches whatever encoder produced the original file even if
// that encoder did not write canonically sorted keys (§3.4, §8
// "Metainfo" property).
func Parse(data []byte) (*Metainfo, error) {
	top, _, err := bencode.Decode(data, bencode.Options{})
	if err != nil {
		return nil, err
	}
	topMap, ok := top.GetIfMap()
	if !ok {
		return nil, corerr.New(corerr.ParseFailure, "top-level bencode value is not a dict")
	}

	infoVal, ok := topMap.Find(quark.KeyInfo)
	if !ok {
		return nil, corerr.New(corerr.ParseFailure, "missing \"info\" dict")
	}
	infoMap, ok := infoVal.GetIfMap()
	if !ok {
		return nil, corerr.New(corerr.ParseFailure, "\"info\" is not a dict")
	}

	spanStart, spanEnd, err := bencode.InfoSpan(data)
	if err != nil {
		return nil, err
	}
	hash := sha1.Sum(data[spanStart:spanEnd])

	m := &Metainfo{
		InfoHash:      hash,
		InfoSpanStart: spanStart,
		InfoSpanEnd:   spanEnd,
	}

	if v, ok := infoMap.Find(quark.KeyName); ok {
		if s, ok := v.GetIfString(); ok {
			m.Name = string(s)
		}
	}
	if v, ok := infoMap.Find(quark.KeyPieceLength); ok {
		if n, ok := v.ValueIfInt(); ok {
			m.PieceSize = n
		}
	}
	if m.PieceSize <= 0 {
		return nil, corerr.New(corerr.ParseFailure, "missing or non-positive \"piece length\"")
	}

	piecesVal, ok := infoMap.Find(quark.KeyPieces)
	if !ok {
		return nil, corerr.New(corerr.ParseFailure, "missing \"pieces\"")
	}
	piecesBytes, ok := piecesVal.GetIfString()
	if !ok || len(piecesBytes)%20 != 0 {
		return nil, corerr.New(corerr.ParseFailure, "\"pieces\" is not a multiple of 20 bytes")
	}
	m.PieceCount = len(piecesBytes) / 20
	m.Pieces = make([]PieceHash, m.PieceCount)
	for i := range m.Pieces {
		copy(m.Pieces[i][:], piecesBytes[i*20:(i+1)*20])
	}

	if v, ok := infoMap.Find(quark.KeyLength); ok {
		// Single-file mode: the info dict's own name is the file.
		n, ok := v.ValueIfInt()
		if !ok {
			return nil, corerr.New(corerr.ParseFailure, "\"length\" is not an integer")
		}
		path, err := sanitizePath([]string{m.Name})
		if err != nil {
			return nil, err
		}
		m.Files = []FileEntry{{Path: path, Length: n}}
	} else if v, ok := infoMap.Find(quark.KeyFiles); ok {
		vec, ok := v.GetIfVector()
		if !ok {
			return nil, corerr.New(corerr.ParseFailure, "\"files\" is not a list")
		}
		for i := range *vec {
			fe, err := parseFileEntry(&(*vec)[i])
			if err != nil {
				return nil, err
			}
			m.Files = append(m.Files, fe)
		}
	} else {
		return nil, corerr.New(corerr.ParseFailure, "info dict has neither \"length\" nor \"files\"")
	}

	if err := m.validateSize(); err != nil {
		return nil, err
	}

	if v, ok := infoMap.Find(quark.KeyPrivate); ok {
		if b, ok := v.ValueIfBool(); ok {
			m.IsPrivate = b
		}
	}
	if v, ok := infoMap.Find(quark.KeySource); ok {
		if s, ok := v.GetIfString(); ok {
			m.Source = string(s)
		}
	}

	if v, ok := topMap.Find(quark.KeyComment); ok {
		if s, ok := v.GetIfString(); ok {
			m.Comment = string(s)
		}
	}
	if v, ok := topMap.Find(quark.KeyCreatedBy); ok {
		if s, ok := v.GetIfString(); ok {
			m.Creator = string(s)
		}
	}
	if v, ok := topMap.Find(quark.KeyCreationDate); ok {
		if n, ok := v.ValueIfInt(); ok {
			m.DateCreated = n
		}
	}
	if v, ok := topMap.Find(quark.KeyEncoding); ok {
		if s, ok := v.GetIfString(); ok {
			m.Encoding = string(s)
		}
	}
	if v, ok := topMap.Find(quark.KeyURLList); ok {
		m.Webseeds = stringsFromVariant(v)
	}

	al, err := announce.FromVariant(topMap)
	if err != nil {
		return nil, err
	}
	m.Announce = al

	return m, nil
}

func parseFileEntry(v *variant.Variant) (FileEntry, error) {
	fm, ok := v.GetIfMap()
	if !ok {
		return FileEntry{}, corerr.New(corerr.ParseFailure, "file entry is not a dict")
	}
	lv, ok := fm.Find(quark.KeyLength)
	if !ok {
		return FileEntry{}, corerr.New(corerr.ParseFailure, "file entry missing \"length\"")
	}
	length, ok := lv.ValueIfInt()
	if !ok {
		return FileEntry{}, corerr.New(corerr.ParseFailure, "file entry \"length\" is not an integer")
	}
	pv, ok := fm.Find(quark.KeyPath)
	if !ok {
		return FileEntry{}, corerr.New(corerr.ParseFailure, "file entry missing \"path\"")
	}
	raw := stringsFromVariant(pv)
	path, err := sanitizePath(raw)
	if err != nil {
		return FileEntry{}, err
	}
	return FileEntry{Path: path, Length: length}, nil
}

func stringsFromVariant(v *variant.Variant) []string {
	vec, ok := v.GetIfVector()
	if !ok {
		return nil
	}
	out := make([]string, 0, len(*vec))
	for i := range *vec {
		if s, ok := (*vec)[i].GetIfString(); ok {
			out = append(out, string(s))
		}
	}
	return out
}

// validateSize checks §3.4's "sum of file sizes" invariant: the total
// content size must fit within the last piece, i.e.
// (piece_count-1)*piece_size < total <= piece_count*piece_size.
func (m *Metainfo) validateSize() error {
	total := m.TotalSize()
	lo := int64(m.PieceCount-1)*m.PieceSize + 1
	hi := int64(m.PieceCount) * m.PieceSize
	if m.PieceCount == 0 {
		if total != 0 {
			return corerr.New(corerr.ParseFailure, "zero pieces but non-zero total size")
		}
		return nil
	}
	if total < lo || total > hi {
		return corerr.Newf(corerr.ParseFailure, "total size %d outside expected range [%d, %d]", total, lo, hi)
	}
	return nil
}

var reservedBaseNames = map[string]bool{
	"con": true, "prn": true, "aux": true, "nul": true,
	"com1": true, "com2": true, "com3": true, "com4": true, "com5": true,
	"com6": true, "com7": true, "com8": true, "com9": true,
	"lpt1": true, "lpt2": true, "lpt3": true, "lpt4": true, "lpt5": true,
	"lpt6": true, "lpt7": true, "lpt8": true, "lpt9": true,
}

const reservedChars = "<>:\"|?*\x00"

// sanitizePath validates and normalizes a file's path components per
// §4.7's "portable subpath" rules and returns the trimmed, validated
// components.
func sanitizePath(components []string) ([]string, error) {
	if len(components) == 0 {
		return nil, corerr.New(corerr.PathUnsafe, "empty path")
	}
	out := make([]string, 0, len(components))
	for _, c := range components {
		c = strings.TrimRight(c, " .")
		if c == "" {
			return nil, corerr.New(corerr.PathUnsafe, "empty path component")
		}
		if c == "." || c == ".." {
			return nil, corerr.New(corerr.PathUnsafe, "path component is \".\" or \"..\"")
		}
		if strings.ContainsAny(c, reservedChars) {
			return nil, corerr.New(corerr.PathUnsafe, "path component contains a reserved character")
		}
		base := c
		if i := strings.IndexByte(base, '.'); i >= 0 {
			base = base[:i]
		}
		if reservedBaseNames[strings.ToLower(base)] {
			return nil, corerr.New(corerr.PathUnsafe, "path component is a reserved device name")
		}
		out = append(out, c)
	}
	return out, nil
}

// IsSubpathPortable reports whether components would pass
// sanitizePath's validation unchanged, for callers that want to check
// without constructing a Metainfo (§8's testable property).
func IsSubpathPortable(components []string) bool {
	sanitized, err := sanitizePath(components)
	if err != nil {
		return false
	}
	if len(sanitized) != len(components) {
		return false
	}
	for i := range sanitized {
		if sanitized[i] != components[i] {
			return false
		}
	}
	return true
}

// ToVariant serializes m into the bencode-ready map shape Parse reads,
// used by both Encode and by a builder that wants to inspect the
// in-progress document before serializing it.
func (m *Metainfo) ToVariant() variant.Variant {
	top := variant.Map()

	info := variant.Map()
	info.InsertOrAssign(quark.KeyName, variant.String(m.Name))
	info.InsertOrAssign(quark.KeyPieceLength, variant.Int(m.PieceSize))

	piecesBuf := make([]byte, 0, len(m.Pieces)*20)
	for _, p := range m.Pieces {
		piecesBuf = append(piecesBuf, p[:]...)
	}
	info.InsertOrAssign(quark.KeyPieces, variant.Raw(piecesBuf))

	if len(m.Files) == 1 && len(m.Files[0].Path) == 1 && m.Files[0].Path[0] == m.Name {
		info.InsertOrAssign(quark.KeyLength, variant.Int(m.Files[0].Length))
	} else {
		filesVec := variant.Vector()
		for _, f := range m.Files {
			fe := variant.Map()
			fe.InsertOrAssign(quark.KeyLength, variant.Int(f.Length))
			pathVec := variant.Vector()
			for _, c := range f.Path {
				pathVec.PushString(c)
			}
			fe.InsertOrAssign(quark.KeyPath, pathVec)
			filesVec.PushVariant(fe)
		}
		info.InsertOrAssign(quark.KeyFiles, filesVec)
	}

	if m.IsPrivate {
		info.InsertOrAssign(quark.KeyPrivate, variant.Bool(true))
	}
	if m.Source != "" {
		info.InsertOrAssign(quark.KeySource, variant.String(m.Source))
	}

	top.InsertOrAssign(quark.KeyInfo, info)

	if m.Announce != nil {
		m.Announce.ToVariant(&top)
	}
	if m.Comment != "" {
		top.InsertOrAssign(quark.KeyComment, variant.String(m.Comment))
	}
	if m.Creator != "" {
		top.InsertOrAssign(quark.KeyCreatedBy, variant.String(m.Creator))
	}
	if m.DateCreated != 0 {
		top.InsertOrAssign(quark.KeyCreationDate, variant.Int(m.DateCreated))
	}
	if m.Encoding != "" {
		top.InsertOrAssign(quark.KeyEncoding, variant.String(m.Encoding))
	}
	if len(m.Webseeds) > 0 {
		wsVec := variant.Vector()
		for _, w := range m.Webseeds {
			wsVec.PushString(w)
		}
		top.InsertOrAssign(quark.KeyURLList, wsVec)
	}

	return top
}

// Encode serializes m to .torrent bytes and recomputes InfoHash from
// the freshly serialized info dict, since a built-from-scratch
// Metainfo has no source byte span to hash.
func (m *Metainfo) Encode() []byte {
	top := m.ToVariant()
	topMap, _ := top.GetIfMap()
	infoVal, _ := topMap.Find(quark.KeyInfo)
	infoBytes := bencode.Encode(infoVal)
	m.InfoHash = sha1.Sum(infoBytes)
	return bencode.Encode(&top)
}

