package builtin

import (
	"fmt"
	"os"
	"strings"

	"github.com/cljwlang/cljw/internal/rt"
	"github.com/cljwlang/cljw/internal/value"
)

// registerIO wires println/print/pr/prn to os.Stdout. There is no `*out*`
// Var; output always goes to os.Stdout and cannot be redirected.
func registerIO(ns *rt.Namespace) {
	def(ns, "println", 0, -1, func(args []value.Value) (value.Value, error) {
		writeLine(os.Stdout, args, value.PrintStr)
		return value.NilValue, nil
	})
	def(ns, "print", 0, -1, func(args []value.Value) (value.Value, error) {
		writeInline(os.Stdout, args, value.PrintStr)
		return value.NilValue, nil
	})
	def(ns, "prn", 0, -1, func(args []value.Value) (value.Value, error) {
		writeLine(os.Stdout, args, value.PrStr)
		return value.NilValue, nil
	})
	def(ns, "pr", 0, -1, func(args []value.Value) (value.Value, error) {
		writeInline(os.Stdout, args, value.PrStr)
		return value.NilValue, nil
	})
}

func writeLine(w *os.File, args []value.Value, render func(value.Value) string) {
	parts := make([]string, len(args))
	for i, a := range args {
		parts[i] = render(a)
	}
	fmt.Fprintln(w, strings.Join(parts, " "))
}

func writeInline(w *os.File, args []value.Value, render func(value.Value) string) {
	parts := make([]string, len(args))
	for i, a := range args {
		parts[i] = render(a)
	}
	fmt.Fprint(w, strings.Join(parts, " "))
}
