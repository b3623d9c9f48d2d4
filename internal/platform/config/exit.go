package config

import (
	"fmt"
	"io"
	"os"
)

var (
	defaultExit = os.Exit
	osExit      = defaultExit
)

// Exitf writes a formatted error message to stderr and exits with code 1.
// It provides a consistent fatal-exit pattern for CLI entry points.
func Exitf(format string, args ...any) {
	exitf(os.Stderr, format, args...)
}

// ExitIf calls Exitf with "<context>: <err>" when err is non-nil.
func ExitIf(err error, context string) {
	if err == nil {
		return
	}
	exitf(os.Stderr, "%s: %v", context, err)
}

func exitf(w io.Writer, format string, args ...any) {
	fmt.Fprintf(w, format+"\n", args...)
	osExit(1)
}
