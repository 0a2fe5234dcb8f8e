package cliutil

import "testing"

// Under `go test`, stdin/stdout are never a real terminal, so this
// exercises the non-interactive path deterministically.
func TestPromptBlankWhenNotInteractive(t *testing.T) {
	if IsInteractive() {
		t.Skip("test process has a real tty attached, skipping")
	}
	if p := Prompt("user"); p != "" {
		t.Errorf("expected blank prompt when not interactive, got %q", p)
	}
}
