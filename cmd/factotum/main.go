package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

// main is a deterministic boundary: cobra has already parsed and validated
// every flag by the time a command's RunE runs, so the only thing left to
// do here is translate a returned error into a process exit code.
func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(exitCodeFromError(err))
	}
}
