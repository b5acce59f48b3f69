package strategy

import (
	"context"
	"time"
)

// Sim is the --dry-run strategy: it never spawns a process and always
// reports an immediate, trivial success.
type Sim struct{}

// Run implements Strategy without touching the OS.
func (Sim) Run(ctx context.Context, cmd CommandLine) RunResult {
	return RunResult{
		Duration:   time.Duration(0),
		Stdout:     []byte("simulated"),
		ReturnCode: 0,
	}
}
