package value

import "regexp"

// Regex wraps a compiled pattern. No example repo in the retrieval pack
// carries a third-party regex engine (grep turned up none), so this keeps
// the standard library's RE2-based regexp — the idiomatic Go choice — as
// the matcher backing the spec's "regex" Value variant; see DESIGN.md for
// the justification this port's convention requires for stdlib-backed
// components.
type Regex struct {
	Source   string
	Compiled *regexp.Regexp
}

func (*Regex) valueMarker() {}

func CompileRegex(source string) (*Regex, error) {
	re, err := regexp.Compile(source)
	if err != nil {
		return nil, err
	}
	return &Regex{Source: source, Compiled: re}, nil
}
