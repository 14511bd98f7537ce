package torrentgen

import (
	"crypto/sha1"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBuildSingleFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "payload.bin")
	content := []byte("hello, bittorrent world, this is test content")
	require.NoError(t, os.WriteFile(path, content, 0o644))

	mi, encoded, err := Build(path, Options{PieceSize: 16, Workers: 2})
	require.NoError(t, err)
	assert.NotEmpty(t, encoded)
	assert.Equal(t, "payload.bin", mi.Name)
	assert.EqualValues(t, len(content), mi.TotalSize())

	wantPieceCount := (len(content) + 15) / 16
	assert.Equal(t, wantPieceCount, len(mi.Pieces))

	lastStart := (wantPieceCount - 1) * 16
	want := sha1.Sum(content[lastStart:])
	assert.Equal(t, [20]byte(want), [20]byte(mi.Pieces[wantPieceCount-1]))
}

func TestBuildDirectoryMultiFile(t *testing.T) {
	dir := t.TempDir()
	root := filepath.Join(dir, "content")
	require.NoError(t, os.MkdirAll(filepath.Join(root, "sub"), 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(root, "a.txt"), []byte("aaaa"), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(root, "sub", "b.txt"), []byte("bbbbbbbb"), 0o644))

	mi, _, err := Build(root, Options{PieceSize: 4, Workers: 2})
	require.NoError(t, err)
	assert.Equal(t, "content", mi.Name)
	require.Len(t, mi.Files, 2)
	assert.EqualValues(t, 12, mi.TotalSize())

	var names []string
	for _, f := range mi.Files {
		names = append(names, filepath.Join(f.Path...))
	}
	assert.ElementsMatch(t, []string{"a.txt", filepath.Join("sub", "b.txt")}, names)
}

func TestBuildRejectsUnsafePath(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "CON.txt"), []byte("x"), 0o644))

	_, _, err := Build(dir, Options{})
	assert.Error(t, err)
}

func TestPieceSizeTiering(t *testing.T) {
	var o Options
	assert.Equal(t, int64(16*1024*1024), o.pieceSize(1024))
	assert.Equal(t, int64(32*1024*1024), o.pieceSize(200*1024*1024*1024))
}

func TestWorkersDefaultAndCap(t *testing.T) {
	assert.Equal(t, 4, Options{}.workers())
	assert.Equal(t, 16, Options{Workers: 100}.workers())
	assert.Equal(t, 3, Options{Workers: 3}.workers())
}

func TestAnonCreatorOmitsCreator(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "f.bin")
	require.NoError(t, os.WriteFile(path, []byte("data"), 0o644))

	mi, _, err := Build(path, Options{PieceSize: 4, CreatedBy: "torrentcore", AnonCreator: true})
	require.NoError(t, err)
	assert.Empty(t, mi.Creator)
}
