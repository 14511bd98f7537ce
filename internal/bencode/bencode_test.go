package bencode

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/omnicloud/torrentcore/internal/quark"
	"github.com/omnicloud/torrentcore/internal/variant"
)

func TestDecodeInteger(t *testing.T) {
	v, pos, err := Decode([]byte("i64e"), Options{})
	require.NoError(t, err)
	assert.Equal(t, 4, pos)
	i, ok := v.ValueIfInt()
	require.True(t, ok)
	assert.EqualValues(t, 64, i)
}

func TestDecodeNestedList(t *testing.T) {
	v, _, err := Decode([]byte("li64ei32ei16ee"), Options{})
	require.NoError(t, err)
	require.Equal(t, 3, v.Len())
	for i, want := range []int64{64, 32, 16} {
		got, ok := v.At(i).ValueIfInt()
		require.True(t, ok)
		assert.Equal(t, want, got)
	}

	// Round-trips byte-for-byte since the list has no dict keys to sort.
	assert.Equal(t, "li64ei32ei16ee", string(Encode(&v)))
}

func TestEncodeSortsKeysOnSerialize(t *testing.T) {
	v, _, err := Decode([]byte("lld1:bi32e1:ai64eeee"), Options{})
	require.NoError(t, err)
	assert.Equal(t, "lld1:ai64e1:bi32eeee", string(Encode(&v)))
}

func TestIntegerGrammarRejectsLeadingZero(t *testing.T) {
	_, _, err := Decode([]byte("i04e"), Options{})
	assert.Error(t, err)
}

func TestIntegerGrammarRejectsNegativeZero(t *testing.T) {
	_, _, err := Decode([]byte("i-0e"), Options{})
	assert.Error(t, err)
}

func TestIntegerZeroIsAllowed(t *testing.T) {
	v, _, err := Decode([]byte("i0e"), Options{})
	require.NoError(t, err)
	i, _ := v.ValueIfInt()
	assert.EqualValues(t, 0, i)
}

func TestStringLengthRejectsLeadingZero(t *testing.T) {
	_, _, err := Decode([]byte("03:abc"), Options{})
	assert.Error(t, err)
}

func TestStringZeroLengthIsAllowed(t *testing.T) {
	v, pos, err := Decode([]byte("0:"), Options{})
	require.NoError(t, err)
	assert.Equal(t, 2, pos)
	s, _ := v.GetIfString()
	assert.Empty(t, s)
}

func TestStringTooLongFails(t *testing.T) {
	_, _, err := Decode([]byte("5:ab"), Options{MaxStringLen: 4})
	assert.Error(t, err)
}

func TestRecursionDepthBound(t *testing.T) {
	// Build "lllll...eeeee" nested 10 deep, with MaxDepth = 3.
	deep := ""
	for i := 0; i < 10; i++ {
		deep += "l"
	}
	deep += "i1e"
	for i := 0; i < 10; i++ {
		deep += "e"
	}
	_, _, err := Decode([]byte(deep), Options{MaxDepth: 3})
	assert.Error(t, err)
}

func TestDictKeysInternedAndRoundTrip(t *testing.T) {
	v, _, err := Decode([]byte("d4:name5:hello3:fooi1ee"), Options{})
	require.NoError(t, err)

	nameKey, ok := quark.Lookup([]byte("name"))
	require.True(t, ok)
	nameVal, ok := v.Find(nameKey)
	require.True(t, ok)
	s, _ := nameVal.GetIfString()
	assert.Equal(t, "hello", string(s))

	assert.Equal(t, "d3:fooi1e4:name5:helloe", string(Encode(&v)))
}

func TestInPlaceModeBorrowsInputBuffer(t *testing.T) {
	data := []byte("5:hello")
	v, _, err := Decode(data, Options{InPlace: true})
	require.NoError(t, err)
	s, _ := v.GetIfString()
	// same backing array as the input slice
	assert.Equal(t, "hello", string(s))
	data[2] = 'X' // first byte after the "5:" length prefix
	s2, _ := v.GetIfString()
	assert.Equal(t, "Xello", string(s2))
}

func TestConcatenatedDocumentsParseOneAtATime(t *testing.T) {
	data := []byte("i1ei2e")
	v1, pos1, err := Decode(data, Options{})
	require.NoError(t, err)
	i1, _ := v1.ValueIfInt()
	assert.EqualValues(t, 1, i1)

	v2, _, err := Decode(data[pos1:], Options{})
	require.NoError(t, err)
	i2, _ := v2.ValueIfInt()
	assert.EqualValues(t, 2, i2)
}

func TestRoundTripParseEncodeOnVariantBuiltDirectly(t *testing.T) {
	m := variant.Map()
	m.InsertOrAssign(quark.Intern([]byte("a")), variant.Int(1))
	m.InsertOrAssign(quark.Intern([]byte("b")), variant.String("x"))

	encoded := Encode(&m)
	decoded, _, err := Decode(encoded, Options{})
	require.NoError(t, err)
	assert.True(t, variant.Equal(&m, &decoded))
}
