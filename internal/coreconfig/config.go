// Package coreconfig holds the library-level tunables a long-running
// session would load once at startup: the bencode/JSON recursion and
// string-length caps, JSON indent width, and the BEP-9 metadata-
// transfer quiet period. It follows the teacher's flat-Config-struct-
// with-defaults shape, but persists the struct through the §4.5
// serializer field tables instead of ad hoc field access, and can
// hot-reload the backing settings.json via fsnotify the way the
// teacher's internal/watcher drives a single directory-scan consumer.
package coreconfig

import (
	"os"

	"github.com/omnicloud/torrentcore/internal/bencode"
	"github.com/omnicloud/torrentcore/internal/jsonvariant"
	"github.com/omnicloud/torrentcore/internal/quark"
	"github.com/omnicloud/torrentcore/internal/serializer"
	"github.com/omnicloud/torrentcore/internal/variant"
)

// Config is the set of library-level tunables kept in a settings file.
// No component in this module reads it: the codecs and the metadata
// transfer use their own built-in constants, which Default mirrors.
type Config struct {
	BencodeMaxDepth            int64
	BencodeMaxStringLen        int64
	JSONIndentWidth            int64
	MetadataQuietPeriodSeconds int64
}

// Default matches the codecs' own built-in defaults (§4.3, §4.4).
func Default() Config {
	return Config{
		BencodeMaxDepth:            int64(bencode.DefaultMaxDepth),
		BencodeMaxStringLen:        bencode.DefaultMaxStringLen,
		JSONIndentWidth:            4,
		MetadataQuietPeriodSeconds: 3,
	}
}

var (
	keyBencodeMaxDepth     = quark.Intern([]byte("bencode-max-depth"))
	keyBencodeMaxStringLen = quark.Intern([]byte("bencode-max-string-len"))
	keyJSONIndentWidth     = quark.Intern([]byte("json-indent-width"))
	keyMetadataQuietPeriod = quark.Intern([]byte("metadata-quiet-period-seconds"))
)

var fields = []serializer.FieldDef[Config]{
	serializer.NewField(keyBencodeMaxDepth,
		func(c *Config) int64 { return c.BencodeMaxDepth },
		func(c *Config, v int64) { c.BencodeMaxDepth = v },
		mustInt64Converter()),
	serializer.NewField(keyBencodeMaxStringLen,
		func(c *Config) int64 { return c.BencodeMaxStringLen },
		func(c *Config, v int64) { c.BencodeMaxStringLen = v },
		mustInt64Converter()),
	serializer.NewField(keyJSONIndentWidth,
		func(c *Config) int64 { return c.JSONIndentWidth },
		func(c *Config, v int64) { c.JSONIndentWidth = v },
		mustInt64Converter()),
	serializer.NewField(keyMetadataQuietPeriod,
		func(c *Config) int64 { return c.MetadataQuietPeriodSeconds },
		func(c *Config, v int64) { c.MetadataQuietPeriodSeconds = v },
		mustInt64Converter()),
}

func mustInt64Converter() serializer.Converter[int64] {
	conv, ok := serializer.Lookup[int64]()
	if !ok {
		panic("coreconfig: int64 converter not registered")
	}
	return conv
}

// ToVariant saves c through the field table, per §4.5.
func (c *Config) ToVariant() variant.Variant {
	return serializer.Save(c, fields)
}

// FromVariant loads present, well-typed keys from v into c, leaving
// unset or mistyped ones at their current value (§4.5 load semantics).
func (c *Config) FromVariant(v *variant.Variant) {
	serializer.Load(c, fields, v)
}

// Load reads a settings.json file, starting from Default() and
// overlaying whatever keys path contains.
func Load(path string) (Config, error) {
	c := Default()
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return c, nil
		}
		return c, err
	}
	v, _, err := jsonvariant.Decode(data, jsonvariant.Options{})
	if err != nil {
		return c, err
	}
	c.FromVariant(&v)
	return c, nil
}

// Save writes c to path as pretty-printed JSON.
func Save(path string, c Config) error {
	v := c.ToVariant()
	return os.WriteFile(path, jsonvariant.Pretty(&v), 0o644)
}
