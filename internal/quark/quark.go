// Package quark implements a process-wide string interner.
//
// A Quark is a small integer identifier paired 1:1 with an immutable byte
// string. It exists so that well-known keys (bencode dict keys, JSON
// object keys, settings/RPC field names) are cheap to store, cheap to
// compare, and usable in switch statements instead of repeated string
// comparisons.
package quark

import (
	"sort"
	"sync"
)

// Quark is an opaque interned-string identifier. The zero value is None,
// the quark for the empty string.
type Quark int32

// None is the quark for "", always id 0.
const None Quark = 0

// predefined is the build-time table of well-known keys, sorted in
// ascending byte order of the associated string so lookups can binary
// search it. Index into this slice doubles as the quark id for entries
// 0..len(predefined)-1; user-interned entries get ids starting right
// after it.
//
// Keys here cover what this module's own components touch: metainfo
// fields (BEP-3/9/12/19/27), settings/stats fields, and the RPC
// envelope. This mirrors libtransmission's quark.h KNOWN_KEYS table in
// spirit (sorted, stable, process-wide) without trying to enumerate
// every key a full session would need.
var predefined = []string{
	"",
	"added",
	"announce",
	"announce-list",
	"arguments",
	"comment",
	"complete",
	"created by",
	"creation date",
	"download-dir",
	"downloaded",
	"dt",
	"encoding",
	"error",
	"failure reason",
	"files",
	"flags",
	"id",
	"incomplete",
	"info",
	"interval",
	"length",
	"min interval",
	"min_request_interval",
	"name",
	"path",
	"peer id",
	"peers",
	"piece length",
	"pieces",
	"private",
	"result",
	"scrape",
	"source",
	"tag",
	"tier",
	"tr_bytes_all",
	"tr_bytes_downloaded",
	"tr_bytes_uploaded",
	"tr_seconds_active",
	"tr_session_count",
	"url-list",
}

func init() {
	if !sort.StringsAreSorted(predefined) {
		panic("quark: predefined table is not sorted by byte order")
	}
}

// Predefined quark constants for the most commonly accessed keys. These
// values are derived from the sorted table above and are stable across
// runs (and across processes) because the table itself is a fixed,
// build-time literal.
var (
	KeyAnnounce     = mustLookup("announce")
	KeyAnnounceList = mustLookup("announce-list")
	KeyComment      = mustLookup("comment")
	KeyCreatedBy    = mustLookup("created by")
	KeyCreationDate = mustLookup("creation date")
	KeyEncoding     = mustLookup("encoding")
	KeyFiles        = mustLookup("files")
	KeyInfo         = mustLookup("info")
	KeyLength       = mustLookup("length")
	KeyName         = mustLookup("name")
	KeyPath         = mustLookup("path")
	KeyPieceLength  = mustLookup("piece length")
	KeyPieces       = mustLookup("pieces")
	KeyPrivate      = mustLookup("private")
	KeySource       = mustLookup("source")
	KeyURLList      = mustLookup("url-list")
)

func mustLookup(s string) Quark {
	q, ok := Lookup([]byte(s))
	if !ok {
		panic("quark: predefined key missing from table: " + s)
	}
	return q
}

// interner is the process-wide singleton storing user-interned strings
// (those outside the predefined table). It never removes entries: views
// returned by String must remain valid for the process lifetime.
type interner struct {
	mu      sync.RWMutex
	byID    []string
	idByStr map[string]Quark
}

var global = &interner{
	idByStr: make(map[string]Quark),
}

// Lookup returns the quark for bytes iff it is already interned,
// checking the predefined table first (binary search) and then the
// user-interned table (hash lookup). Safe for concurrent use.
func Lookup(b []byte) (Quark, bool) {
	s := string(b)

	i := sort.SearchStrings(predefined, s)
	if i < len(predefined) && predefined[i] == s {
		return Quark(i), true
	}

	global.mu.RLock()
	defer global.mu.RUnlock()
	q, ok := global.idByStr[s]
	return q, ok
}

// Intern returns the existing quark for bytes if present, otherwise
// stores an owned copy of bytes and assigns a new quark. Intern
// serializes internally; concurrent Lookup calls are never blocked by
// an in-flight Intern that finds an existing entry.
func Intern(b []byte) Quark {
	if q, ok := Lookup(b); ok {
		return q
	}

	s := string(b)

	global.mu.Lock()
	defer global.mu.Unlock()

	// Re-check: another writer may have interned this string while we
	// waited for the lock.
	if q, ok := global.idByStr[s]; ok {
		return q
	}

	id := Quark(len(predefined) + len(global.byID))
	global.byID = append(global.byID, s)
	global.idByStr[s] = id
	return id
}

// String returns the byte-string view associated with q. The returned
// string is valid for the process lifetime. Panics if q was never
// issued by this package (a logic error in the caller, not a runtime
// condition callers should recover from).
func String(q Quark) string {
	i := int(q)
	if i >= 0 && i < len(predefined) {
		return predefined[i]
	}

	global.mu.RLock()
	defer global.mu.RUnlock()

	j := i - len(predefined)
	if j < 0 || j >= len(global.byID) {
		panic("quark: invalid quark id")
	}
	return global.byID[j]
}

// Bytes is a convenience wrapper around String for callers that want a
// []byte view rather than a string.
func Bytes(q Quark) []byte {
	return []byte(String(q))
}
