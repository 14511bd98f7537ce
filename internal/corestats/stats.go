// Package corestats implements the cumulative counters file from §6:
// stats.json, with a fallback to a legacy stats.benc written by an
// older version of this library (mirroring libtransmission's stats.cc
// JSON-first, bencode-fallback load order).
package corestats

import (
	"os"
	"path/filepath"

	"github.com/omnicloud/torrentcore/internal/bencode"
	"github.com/omnicloud/torrentcore/internal/jsonvariant"
	"github.com/omnicloud/torrentcore/internal/quark"
	"github.com/omnicloud/torrentcore/internal/variant"
)

// Stats holds the cumulative, process-lifetime-spanning counters a
// session persists across restarts.
type Stats struct {
	UploadedBytes   int64
	DownloadedBytes int64
	AllTimeBytes    int64
	SecondsActive   int64
	SessionCount    int64
}

func mustKey(s string) quark.Quark {
	q, ok := quark.Lookup([]byte(s))
	if !ok {
		panic("corestats: expected predefined quark key missing: " + s)
	}
	return q
}

var (
	keyBytesUploaded   = mustKey("tr_bytes_uploaded")
	keyBytesDownloaded = mustKey("tr_bytes_downloaded")
	keyBytesAll        = mustKey("tr_bytes_all")
	keySecondsActive   = mustKey("tr_seconds_active")
	keySessionCount    = mustKey("tr_session_count")
)

func (s *Stats) toVariant() variant.Variant {
	m := variant.Map()
	m.InsertOrAssign(keyBytesUploaded, variant.Int(s.UploadedBytes))
	m.InsertOrAssign(keyBytesDownloaded, variant.Int(s.DownloadedBytes))
	m.InsertOrAssign(keyBytesAll, variant.Int(s.AllTimeBytes))
	m.InsertOrAssign(keySecondsActive, variant.Int(s.SecondsActive))
	m.InsertOrAssign(keySessionCount, variant.Int(s.SessionCount))
	return m
}

func (s *Stats) fromVariant(v *variant.Variant) {
	if f, ok := v.Find(keyBytesUploaded); ok {
		if n, ok := f.ValueIfInt(); ok {
			s.UploadedBytes = n
		}
	}
	if f, ok := v.Find(keyBytesDownloaded); ok {
		if n, ok := f.ValueIfInt(); ok {
			s.DownloadedBytes = n
		}
	}
	if f, ok := v.Find(keyBytesAll); ok {
		if n, ok := f.ValueIfInt(); ok {
			s.AllTimeBytes = n
		}
	}
	if f, ok := v.Find(keySecondsActive); ok {
		if n, ok := f.ValueIfInt(); ok {
			s.SecondsActive = n
		}
	}
	if f, ok := v.Find(keySessionCount); ok {
		if n, ok := f.ValueIfInt(); ok {
			s.SessionCount = n
		}
	}
}

// Load reads <dir>/stats.json, falling back to the legacy
// <dir>/stats.benc if the JSON file is absent.
func Load(dir string) (Stats, error) {
	var s Stats

	jsonPath := filepath.Join(dir, "stats.json")
	if data, err := os.ReadFile(jsonPath); err == nil {
		v, _, err := jsonvariant.Decode(data, jsonvariant.Options{})
		if err != nil {
			return s, err
		}
		s.fromVariant(&v)
		return s, nil
	} else if !os.IsNotExist(err) {
		return s, err
	}

	bencPath := filepath.Join(dir, "stats.benc")
	data, err := os.ReadFile(bencPath)
	if err != nil {
		if os.IsNotExist(err) {
			return s, nil
		}
		return s, err
	}
	v, _, err := bencode.Decode(data, bencode.Options{})
	if err != nil {
		return s, err
	}
	s.fromVariant(&v)
	return s, nil
}

// Save writes s to <dir>/stats.json.
func Save(dir string, s Stats) error {
	v := s.toVariant()
	return os.WriteFile(filepath.Join(dir, "stats.json"), jsonvariant.Pretty(&v), 0o644)
}
