package factlog

import (
	"os"
	"path/filepath"
	"testing"
)

func TestNew_CreatesLogFileUnderDotFactotum(t *testing.T) {
	dir := t.TempDir()
	logger, closer := New(dir)
	defer closer()

	logger.Info().Msg("hello")

	path := filepath.Join(dir, dirName, fileName)
	if _, err := os.Stat(path); err != nil {
		t.Fatalf("expected log file at %s: %v", path, err)
	}
}
