package itemqueue

import (
	"os"
	"path/filepath"

	"github.com/google/uuid"
	"github.com/omnicloud/torrentcore/internal/corerr"
	"github.com/omnicloud/torrentcore/internal/jsonvariant"
	"github.com/omnicloud/torrentcore/internal/variant"
)

// ToFile writes q's keys, in queue order, as a JSON array to
// <dir>/queue.json (§4.9, §6). The write is atomic: it writes to a
// uuid-suffixed temp file in dir and renames over the target, so a
// concurrent reader never observes a partially written file.
//
// ToFile is a free function rather than a method because Go generics
// do not allow a method to specialize Queue[K] to one concrete K; the
// JSON-array persistence format is specifically the string-keyed case
// from §6 ("queue.json: JSON array of ... store-filename strings").
func ToFile(q *Queue[string], dir string) error {
	vec := variant.Vector()
	for _, k := range q.Keys() {
		vec.PushString(k)
	}
	data := jsonvariant.Pretty(&vec)

	target := filepath.Join(dir, "queue.json")
	tmp := filepath.Join(dir, "queue.json."+uuid.New().String()+".tmp")
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return corerr.Wrap(corerr.IoFailure, "failed to write queue temp file", err)
	}
	if err := os.Rename(tmp, target); err != nil {
		os.Remove(tmp)
		return corerr.Wrap(corerr.IoFailure, "failed to rename queue temp file into place", err)
	}
	return nil
}

// FromFile reads a JSON array of keys from <dir>/queue.json and
// returns a Queue populated in that order.
func FromFile(dir string) (*Queue[string], error) {
	data, err := os.ReadFile(filepath.Join(dir, "queue.json"))
	if err != nil {
		return nil, corerr.Wrap(corerr.IoFailure, "failed to read queue.json", err)
	}
	v, _, err := jsonvariant.Decode(data, jsonvariant.Options{})
	if err != nil {
		return nil, err
	}
	vec, ok := v.GetIfVector()
	if !ok {
		return nil, corerr.New(corerr.ParseFailure, "queue.json is not a JSON array")
	}

	q := New[string]()
	for i := range *vec {
		s, ok := (*vec)[i].GetIfString()
		if !ok {
			return nil, corerr.New(corerr.ParseFailure, "queue.json array element is not a string")
		}
		q.Set(string(s), q.Len())
	}
	return q, nil
}
