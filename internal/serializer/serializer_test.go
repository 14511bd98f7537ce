package serializer

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/omnicloud/torrentcore/internal/quark"
	"github.com/omnicloud/torrentcore/internal/variant"
)

func TestRegistryRoundTripBuiltins(t *testing.T) {
	ic, ok := Lookup[int64]()
	require.True(t, ok)
	v := ic.ToVariant(7)
	got, ok := ic.FromVariant(&v)
	require.True(t, ok)
	assert.EqualValues(t, 7, got)

	sc, ok := Lookup[string]()
	require.True(t, ok)
	v = sc.ToVariant("hi")
	gotS, ok := sc.FromVariant(&v)
	require.True(t, ok)
	assert.Equal(t, "hi", gotS)
}

func TestOptionalConverter(t *testing.T) {
	inner, _ := Lookup[int64]()
	opt := OptionalConverter(inner)

	v := opt.ToVariant(nil)
	assert.True(t, v.IsNone() || v.Tag() == variant.TagNull)

	var ptr *int64
	got, ok := opt.FromVariant(&v)
	require.True(t, ok)
	assert.Nil(t, got)

	n := int64(42)
	v = opt.ToVariant(&n)
	got, ok = opt.FromVariant(&v)
	require.True(t, ok)
	require.NotNil(t, got)
	assert.EqualValues(t, 42, *got)
	_ = ptr
}

func TestSliceConverter(t *testing.T) {
	inner, _ := Lookup[int64]()
	sc := SliceConverter(inner)

	v := sc.ToVariant([]int64{1, 2, 3})
	assert.Equal(t, variant.TagVector, v.Tag())

	got, ok := sc.FromVariant(&v)
	require.True(t, ok)
	assert.Equal(t, []int64{1, 2, 3}, got)
}

type testSettings struct {
	DownloadDir string
	PeerLimit   int64
	Encrypted   bool
}

func fields() []FieldDef[testSettings] {
	strConv, _ := Lookup[string]()
	intConv, _ := Lookup[int64]()
	boolConv, _ := Lookup[bool]()

	kDir, _ := quark.Lookup([]byte("download-dir"))
	kPeer := quark.Intern([]byte("peer-limit"))
	kEnc := quark.Intern([]byte("encrypted"))

	return []FieldDef[testSettings]{
		NewField(kDir, func(s *testSettings) string { return s.DownloadDir }, func(s *testSettings, v string) { s.DownloadDir = v }, strConv),
		NewField(kPeer, func(s *testSettings) int64 { return s.PeerLimit }, func(s *testSettings, v int64) { s.PeerLimit = v }, intConv),
		NewField(kEnc, func(s *testSettings) bool { return s.Encrypted }, func(s *testSettings, v bool) { s.Encrypted = v }, boolConv),
	}
}

func TestSaveLoadRoundTrip(t *testing.T) {
	fs := fields()
	s := &testSettings{DownloadDir: "/data", PeerLimit: 50, Encrypted: true}

	m := Save(s, fs)

	loaded := &testSettings{}
	Load(loaded, fs, &m)
	assert.Equal(t, s, loaded)
}

func TestLoadIgnoresUnknownAndMistypedKeys(t *testing.T) {
	fs := fields()
	m := variant.Map()
	kPeer := quark.Intern([]byte("peer-limit"))
	m.InsertOrAssign(kPeer, variant.String("not-a-number"))
	kUnknown := quark.Intern([]byte("totally-unknown-key"))
	m.InsertOrAssign(kUnknown, variant.Int(1))

	loaded := &testSettings{PeerLimit: 99}
	Load(loaded, fs, &m)
	assert.EqualValues(t, 99, loaded.PeerLimit)
}

func TestSetIfChangedReportsChange(t *testing.T) {
	fs := fields()
	var peerField *Field[testSettings, int64]
	for _, f := range fs {
		if tf, ok := f.(*Field[testSettings, int64]); ok {
			peerField = tf
		}
	}
	require.NotNil(t, peerField)

	s := &testSettings{PeerLimit: 50}
	assert.True(t, SetIfChanged(s, peerField, int64(51)))
	assert.False(t, SetIfChanged(s, peerField, int64(51)))
}

func TestGetValueChecksDeclaredType(t *testing.T) {
	fs := fields()
	s := &testSettings{PeerLimit: 7}
	kPeer := quark.Intern([]byte("peer-limit"))

	got, ok := GetValue[int64](fs, kPeer, s)
	require.True(t, ok)
	assert.EqualValues(t, 7, got)

	_, ok = GetValue[string](fs, kPeer, s)
	assert.False(t, ok)
}

func TestCasingAdapters(t *testing.T) {
	assert.Equal(t, "download_dir", ToSnakeCase("download-dir"))
	assert.Equal(t, "download-dir", ToKebabCase("download_dir"))
	assert.Equal(t, "plain", ToSnakeCase("plain"))
}

func TestRekeyTopLevel(t *testing.T) {
	m := variant.Map()
	m.InsertOrAssign(quark.Intern([]byte("download-dir")), variant.String("/x"))

	rekeyed := RekeyTopLevel(&m, ToSnakeCase)
	kSnake, _ := quark.Lookup([]byte("download_dir"))
	v, ok := rekeyed.Find(kSnake)
	require.True(t, ok)
	s, _ := v.GetIfString()
	assert.Equal(t, "/x", string(s))
}
