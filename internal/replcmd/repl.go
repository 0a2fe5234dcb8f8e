// Package replcmd implements the read-eval-print loop cmd/cljw's `repl`
// subcommand drives. Grounded on wingthing's cmd/wt subcommand style
// (small functions returning a focused result, errors bubbled to the
// caller) rather than any one teacher REPL, since wingthing itself has no
// interactive REPL of its own to imitate.
package replcmd

import (
	"bufio"
	"fmt"
	"io"
	"strings"

	"github.com/cljwlang/cljw/internal/bootstrap"
	"github.com/cljwlang/cljw/internal/cliutil"
	"github.com/cljwlang/cljw/internal/reader"
	"github.com/cljwlang/cljw/internal/value"
)

// Options configures one REPL session.
type Options struct {
	In  io.Reader
	Out io.Writer
}

// Run drives rtm's reader/eval/print cycle over opts.In until EOF or an
// unrecoverable read error. A line that leaves an open paren/bracket/brace
// triggers a continuation prompt rather than an error, accumulating lines
// until the buffered source parses as a complete form (or the user
// interrupts with EOF).
func Run(rtm *bootstrap.Runtime, opts Options) error {
	scanner := bufio.NewScanner(opts.In)
	scanner.Buffer(make([]byte, 0, 64*1024), 1<<20)

	var buf strings.Builder
	for {
		prompt := cliutil.Prompt(rtm.Env.Current.Name)
		if buf.Len() > 0 {
			prompt = strings.Repeat(" ", max(0, len(prompt)-2)) + "#_=> "
		}
		if prompt != "" {
			fmt.Fprint(opts.Out, prompt)
		}

		if !scanner.Scan() {
			if buf.Len() > 0 {
				fmt.Fprintln(opts.Out)
			}
			return scanner.Err()
		}
		buf.WriteString(scanner.Text())
		buf.WriteByte('\n')

		if strings.TrimSpace(buf.String()) == "" {
			buf.Reset()
			continue
		}

		form, incomplete, err := readOne(buf.String(), rtm.Env.Current.Name)
		if incomplete {
			continue
		}
		buf.Reset()
		if err != nil {
			fmt.Fprintln(opts.Out, err)
			continue
		}
		if form == nil {
			continue
		}

		result, evalErr := rtm.Eval(form)
		if evalErr != nil {
			fmt.Fprintln(opts.Out, evalErr)
			continue
		}
		fmt.Fprintln(opts.Out, value.PrStr(result))

		if rtm.Env.Heap != nil && rtm.Env.Heap.ShouldCollect() {
			rtm.Env.Heap.Collect()
		}
	}
}

// readOne reads exactly the first form out of src. incomplete=true means
// src ended mid-form (unmatched opening delimiter) and the caller should
// keep accumulating lines; any other error is a genuine syntax error to
// report and discard.
func readOne(src, ns string) (form value.Value, incomplete bool, err error) {
	rd := reader.NewReader(src, ns, reader.DefaultLimits())
	form, err = rd.Read()
	if err == io.EOF {
		return nil, false, nil
	}
	if se, ok := err.(*reader.SyntaxError); ok && strings.Contains(se.Msg, "unexpected EOF") {
		return nil, true, nil
	}
	return form, false, err
}
