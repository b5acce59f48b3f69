package envfile

import (
	"os"
	"path/filepath"
	"testing"
)

func TestLoad_MergesFileUnderExplicitBindings(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, ".env")
	if err := os.WriteFile(path, []byte("GREETING=hi\nTARGET=world\n"), 0o644); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	merged, err := Load(path, map[string]string{"TARGET": "override"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if merged["GREETING"] != "hi" {
		t.Fatalf("expected GREETING from file, got %q", merged["GREETING"])
	}
	if merged["TARGET"] != "override" {
		t.Fatalf("expected explicit binding to win, got %q", merged["TARGET"])
	}
}

func TestLoad_MissingFileErrors(t *testing.T) {
	if _, err := Load(filepath.Join(t.TempDir(), "nope.env"), nil); err == nil {
		t.Fatalf("expected error for missing file")
	}
}
