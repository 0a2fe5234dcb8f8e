// Package cliutil holds the small REPL-facing helpers that sit above
// internal/bootstrap but below cmd/cljw: terminal detection and prompt
// formatting. Kept separate from cmd/cljw so internal/replcmd and a future
// line-editor integration can depend on it without importing the cobra
// wiring.
package cliutil

import (
	"os"

	"github.com/mattn/go-isatty"
)

// IsInteractive reports whether stdin and stdout are both connected to a
// terminal, the condition Prompt uses to decide whether to print the
// "<ns>=> " prompt at all (a pipe or redirected file gets bare output, no
// prompt noise).
func IsInteractive() bool {
	return isatty.IsTerminal(os.Stdin.Fd()) && isatty.IsTerminal(os.Stdout.Fd())
}

// Prompt returns the REPL prompt string for the given namespace name,
// blank when not interactive.
func Prompt(nsName string) string {
	if !IsInteractive() {
		return ""
	}
	return nsName + "=> "
}
