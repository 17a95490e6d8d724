package main

import (
	"fmt"
	"os"

	"github.com/scantriage/scantriage/pkg/output/exitcode"
	"github.com/scantriage/scantriage/pkg/ui"
)

// exitWithError prints a formatted error message and exits with code 1.
// Use this instead of ui.PrintError + os.Exit(1) for consistent CLI error handling.
func exitWithError(format string, args ...any) {
	ui.PrintError(fmt.Sprintf(format, args...))
	os.Exit(1)
}

// exitWithUsage prints an error message followed by a usage hint, then
// exits with the configuration code: a wrong invocation is a
// configuration problem, not a run outcome.
func exitWithUsage(msg, usage string) {
	ui.PrintError(msg)
	fmt.Fprintln(os.Stderr)
	fmt.Fprintln(os.Stderr, "Usage:", usage)
	os.Exit(int(exitcode.Configuration))
}
