package torrent

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseMagnetSpecExample(t *testing.T) {
	raw := "magnet:?xt=urn:btih:14ffe5dd23188fd5cb53a1d47f1289db70abf31e&dn=name&tr=http%3A%2F%2Ft.example%2Fannounce"

	m, err := ParseMagnet(raw)
	require.NoError(t, err)
	assert.Equal(t, "name", m.Name)
	require.Len(t, m.Trackers, 1)
	assert.Equal(t, "http://t.example/announce", m.Trackers[0])
	assert.Empty(t, m.Webseeds)
	assert.Equal(t, "14ffe5dd23188fd5cb53a1d47f1289db70abf31e", hexHash(m.InfoHash))
}

func TestMagnetRoundTrips(t *testing.T) {
	raw := "magnet:?xt=urn:btih:14ffe5dd23188fd5cb53a1d47f1289db70abf31e&dn=name&tr=http%3A%2F%2Ft.example%2Fannounce"

	m, err := ParseMagnet(raw)
	require.NoError(t, err)
	assert.Equal(t, raw, m.Magnet())
}

func TestParseMagnetRejectsMissingHash(t *testing.T) {
	_, err := ParseMagnet("magnet:?dn=name")
	assert.Error(t, err)
}

func TestParseMagnetIgnoresUnknownParameters(t *testing.T) {
	raw := "magnet:?xt=urn:btih:14ffe5dd23188fd5cb53a1d47f1289db70abf31e&x.pe=1.2.3.4%3A6881"
	m, err := ParseMagnet(raw)
	require.NoError(t, err)
	assert.Equal(t, "", m.Name)
}

func TestMagnetToMetainfoBuildsIncompleteMetainfo(t *testing.T) {
	m := &Magnet{Name: "name", Trackers: []string{"http://t.example/announce"}}
	mi, err := m.ToMetainfo()
	require.NoError(t, err)
	assert.Equal(t, "name", mi.Name)
	assert.Empty(t, mi.Files)
	require.Equal(t, 1, mi.Announce.Len())
}

func hexHash(h [20]byte) string {
	const hextable = "0123456789abcdef"
	out := make([]byte, 40)
	for i, b := range h {
		out[i*2] = hextable[b>>4]
		out[i*2+1] = hextable[b&0xf]
	}
	return string(out)
}
