package jsonvariant

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/omnicloud/torrentcore/internal/quark"
	"github.com/omnicloud/torrentcore/internal/variant"
)

func TestDecodeScalars(t *testing.T) {
	v, _, err := Decode([]byte("true"), Options{})
	require.NoError(t, err)
	b, _ := v.GetIfBool()
	assert.True(t, *b)

	v, _, err = Decode([]byte("null"), Options{})
	require.NoError(t, err)
	assert.Equal(t, variant.TagNull, v.Tag())

	v, _, err = Decode([]byte("42"), Options{})
	require.NoError(t, err)
	i, ok := v.ValueIfInt()
	require.True(t, ok)
	assert.EqualValues(t, 42, i)

	v, _, err = Decode([]byte("3.5"), Options{})
	require.NoError(t, err)
	d, ok := v.ValueIfDouble()
	require.True(t, ok)
	assert.Equal(t, 3.5, d)
}

func TestDecodeIntOverflowFallsBackToDouble(t *testing.T) {
	v, _, err := Decode([]byte("99999999999999999999999"), Options{})
	require.NoError(t, err)
	assert.Equal(t, variant.TagDouble, v.Tag())
}

func TestDecodeStringEscapesAndSurrogatePair(t *testing.T) {
	// An escaped 'A' followed by the escaped UTF-16 surrogate pair for U+1F600.
	esc := `\`
	v, _, err := Decode([]byte(`"a\n\tb`+esc+`u0041`+esc+`ud83d`+esc+`ude00"`), Options{})
	require.NoError(t, err)
	s, ok := v.GetIfString()
	require.True(t, ok)
	assert.Equal(t, "a\n\tbA\U0001F600", string(s))
}

func TestDecodeArrayAndObject(t *testing.T) {
	v, _, err := Decode([]byte(`{"b": 1, "a": [1,2,3]}`), Options{})
	require.NoError(t, err)

	kA, _ := quark.Lookup([]byte("a"))
	av, ok := v.Find(kA)
	require.True(t, ok)
	assert.Equal(t, 3, av.Len())
}

func TestEncodeCompactSortsKeys(t *testing.T) {
	m := variant.Map()
	m.InsertOrAssign(quark.Intern([]byte("zeta")), variant.Int(1))
	m.InsertOrAssign(quark.Intern([]byte("alpha")), variant.Int(2))

	assert.Equal(t, `{"alpha":2,"zeta":1}`, string(Compact(&m)))
}

func TestEncodePrettyIndentsFourSpaces(t *testing.T) {
	m := variant.Map()
	m.InsertOrAssign(quark.Intern([]byte("key")), variant.Int(1))

	want := "{\n    \"key\": 1\n}"
	assert.Equal(t, want, string(Pretty(&m)))
}

func TestRoundTripParseEncode(t *testing.T) {
	m := variant.Map()
	m.InsertOrAssign(quark.Intern([]byte("s")), variant.String("hello \"world\""))
	m.InsertOrAssign(quark.Intern([]byte("n")), variant.Int(7))
	arr := variant.Vector()
	arr.PushBool(true)
	arr.PushVariant(variant.Null())
	m.InsertOrAssign(quark.Intern([]byte("arr")), arr)

	encoded := Compact(&m)
	decoded, _, err := Decode(encoded, Options{})
	require.NoError(t, err)
	assert.True(t, variant.Equal(&m, &decoded))
}

func TestInPlaceBorrowsWhenNoEscapes(t *testing.T) {
	data := []byte(`"plain"`)
	v, _, err := Decode(data, Options{InPlace: true})
	require.NoError(t, err)
	s, _ := v.GetIfString()
	data[1] = 'X'
	s2, _ := v.GetIfString()
	assert.Equal(t, "Xlain", string(s2))
	assert.Equal(t, string(s2), string(s))
}

func TestConcatenatedDocuments(t *testing.T) {
	data := []byte(`1 2`)
	v1, pos, err := Decode(data, Options{})
	require.NoError(t, err)
	i1, _ := v1.ValueIfInt()
	assert.EqualValues(t, 1, i1)

	// skip the separating whitespace manually, as Decode only trims
	// leading whitespace before the value it parses.
	rest := data[pos:]
	for len(rest) > 0 && rest[0] == ' ' {
		rest = rest[1:]
	}
	v2, _, err := Decode(rest, Options{})
	require.NoError(t, err)
	i2, _ := v2.ValueIfInt()
	assert.EqualValues(t, 2, i2)
}
