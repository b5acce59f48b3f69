// Package factlog wires up structured logging for the CLI: a console
// writer on stderr plus an append-only log file under the run's working
// directory. A write failure against the log file never aborts a run —
// logging is an ambient concern, not part of execution state.
package factlog

import (
	"io"
	"os"
	"path/filepath"

	"github.com/rs/zerolog"
)

const (
	dirName  = ".factotum"
	fileName = "factotum.log"
)

// New opens (creating as needed) <dir>/.factotum/factotum.log and returns a
// logger writing to both it and stderr. If the file cannot be opened, the
// returned logger falls back to stderr only and closer is a no-op.
func New(dir string) (logger zerolog.Logger, closer func() error) {
	logDir := filepath.Join(dir, dirName)
	if err := os.MkdirAll(logDir, 0o755); err != nil {
		return zerolog.New(os.Stderr).With().Timestamp().Logger(), func() error { return nil }
	}

	f, err := os.OpenFile(filepath.Join(logDir, fileName), os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
	if err != nil {
		return zerolog.New(os.Stderr).With().Timestamp().Logger(), func() error { return nil }
	}

	writer := io.MultiWriter(os.Stderr, f)
	return zerolog.New(writer).With().Timestamp().Logger(), f.Close
}
