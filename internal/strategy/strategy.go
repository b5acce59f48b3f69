// Package strategy provides the pluggable "run this command line" capability
// the executor dispatches through: a real OS process, or a simulation used
// for --dry-run.
package strategy

import (
	"context"
	"time"
)

// TruncationMarker is appended to a captured stream when it is cut off at
// max_stdouterr_size.
const TruncationMarker = "\n[truncated]\n"

// CommandLine is the fully-rendered invocation to execute.
type CommandLine struct {
	Command   string
	Arguments []string
	// MaxCapture bounds the number of bytes retained per stream; 0 means
	// unbounded.
	MaxCapture int
}

// RunResult is what a strategy invocation returns.
type RunResult struct {
	Duration time.Duration
	// LaunchError is non-empty when the subprocess could not be started at
	// all (missing executable, permission denied, ...), distinct from a
	// non-zero ReturnCode.
	LaunchError string
	Stdout      []byte
	Stderr      []byte
	ReturnCode  int
}

// Strategy is the single-method capability the executor is parameterized
// over. OS and simulation implementations share no code path beyond this
// interface.
type Strategy interface {
	Run(ctx context.Context, cmd CommandLine) RunResult
}
