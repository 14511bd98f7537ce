package serializer

import (
	"strings"

	"github.com/omnicloud/torrentcore/internal/quark"
	"github.com/omnicloud/torrentcore/internal/variant"
)

// ToSnakeCase rewrites a kebab-case key ("download-dir") to its
// snake_case equivalent ("download_dir"). Keys with no hyphen pass
// through unchanged.
func ToSnakeCase(key string) string {
	return strings.ReplaceAll(key, "-", "_")
}

// ToKebabCase rewrites a snake_case key ("download_dir") to its
// kebab-case equivalent ("download-dir"). Keys with no underscore
// pass through unchanged.
func ToKebabCase(key string) string {
	return strings.ReplaceAll(key, "_", "-")
}

// RekeyTopLevel returns a copy of m with every top-level key rewritten
// by convert; values (including nested maps/vectors) are left as-is.
// This is the adapter that lets settings files written in either key
// style load into the same field tables: a field table is declared
// once, against one casing, and incoming documents in the other casing
// are rekeyed before Load sees them.
func RekeyTopLevel(m *variant.Variant, convert func(string) string) variant.Variant {
	out := variant.Map()
	for _, ent := range m.Entries() {
		newKey := quark.Intern([]byte(convert(quark.String(ent.Key))))
		out.InsertOrAssign(newKey, ent.Value.ToOwned())
	}
	return out
}
