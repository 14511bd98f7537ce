package quark

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPredefinedTableSorted(t *testing.T) {
	for i := 1; i < len(predefined); i++ {
		assert.Less(t, predefined[i-1], predefined[i], "predefined table must be sorted by byte order")
	}
}

func TestLookupPredefined(t *testing.T) {
	q, ok := Lookup([]byte("announce"))
	require.True(t, ok)
	assert.Equal(t, KeyAnnounce, q)
	assert.Equal(t, "announce", String(q))
}

func TestLookupMissing(t *testing.T) {
	_, ok := Lookup([]byte("definitely-not-interned-yet"))
	assert.False(t, ok)
}

func TestInternRoundTrip(t *testing.T) {
	for _, s := range []string{"hello", "world", "x-custom-field", ""} {
		q := Intern([]byte(s))
		assert.Equal(t, s, String(q))
	}
}

func TestInternIdempotent(t *testing.T) {
	s := "a-repeated-user-key"
	q1 := Intern([]byte(s))
	q2 := Intern([]byte(s))
	assert.Equal(t, q1, q2)
}

func TestInternDistinctForDistinctStrings(t *testing.T) {
	a := Intern([]byte("distinct-a"))
	b := Intern([]byte("distinct-b"))
	assert.NotEqual(t, a, b)
}

func TestInternReturnsExistingPredefined(t *testing.T) {
	q := Intern([]byte("announce"))
	assert.Equal(t, KeyAnnounce, q)
}
