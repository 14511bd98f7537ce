package coreconfig

import (
	"os"
	"path/filepath"
	"testing"
)

func TestDefaultLoadWhenFileMissing(t *testing.T) {
	c, err := Load(filepath.Join(t.TempDir(), "settings.json"))
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if c != Default() {
		t.Fatalf("Load on missing file = %+v, want defaults %+v", c, Default())
	}
}

func TestSaveLoadRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "settings.json")
	want := Config{
		BencodeMaxDepth:            256,
		BencodeMaxStringLen:        1 << 20,
		JSONIndentWidth:            2,
		MetadataQuietPeriodSeconds: 5,
	}
	if err := Save(path, want); err != nil {
		t.Fatalf("Save: %v", err)
	}
	got, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if got != want {
		t.Fatalf("round-tripped config = %+v, want %+v", got, want)
	}
}

func TestLoadIgnoresUnknownKeysAndKeepsDefaultsForMissing(t *testing.T) {
	path := filepath.Join(t.TempDir(), "settings.json")
	partial := []byte(`{"json-indent-width": 8, "totally-unknown-key": 1}`)
	if err := os.WriteFile(path, partial, 0o644); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}
	got, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	want := Default()
	want.JSONIndentWidth = 8
	if got != want {
		t.Fatalf("Load = %+v, want %+v", got, want)
	}
}
