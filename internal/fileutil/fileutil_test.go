package fileutil

import (
	"os"
	"path/filepath"
	"testing"
)

func TestIsURI(t *testing.T) {
	cases := []struct {
		value string
		want  bool
	}{
		{"file:///media/clip.mov", true},
		{"https://example.com/clip.mov", true},
		{"/media/clip.mov", false},
		{"clip.mov", false},
		{"", false},
		{"   ", false},
	}
	for _, tc := range cases {
		if got := IsURI(tc.value); got != tc.want {
			t.Errorf("IsURI(%q) = %v, want %v", tc.value, got, tc.want)
		}
	}
}

func TestPathFromURI(t *testing.T) {
	got, err := PathFromURI("file:///media/clip.mov")
	if err != nil || got != "/media/clip.mov" {
		t.Errorf("PathFromURI(file URI) = %q, %v", got, err)
	}
	got, err = PathFromURI("/media/clip.mov")
	if err != nil || got != "/media/clip.mov" {
		t.Errorf("PathFromURI(plain path) = %q, %v", got, err)
	}
	if _, err := PathFromURI("https://example.com/clip.mov"); err == nil {
		t.Error("non-file scheme should be refused")
	}
	if _, err := PathFromURI(""); err == nil {
		t.Error("empty identifier should be refused")
	}
}

func TestURIFromPathRoundTrips(t *testing.T) {
	uri := URIFromPath("/media/clip with space.mov")
	path, err := PathFromURI(uri)
	if err != nil || path != "/media/clip with space.mov" {
		t.Errorf("round trip = %q, %v", path, err)
	}
	if got := URIFromPath("file:///already/a/uri"); got != "file:///already/a/uri" {
		t.Errorf("existing URI should pass through, got %q", got)
	}
}

func TestExists(t *testing.T) {
	dir := t.TempDir()
	if Exists(dir) {
		t.Error("directories should not count as existing files")
	}
	path := filepath.Join(dir, "f")
	if Exists(path) {
		t.Error("missing file should not exist")
	}
	if err := os.WriteFile(path, []byte("x"), 0o644); err != nil {
		t.Fatal(err)
	}
	if !Exists(path) {
		t.Error("regular file should exist")
	}
}
