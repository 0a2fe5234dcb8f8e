// Package regex implements the re-*/regex builtin functions (spec §6.5)
// over value.Regex's standard-library *regexp.Regexp, exposed as ordinary
// Builtin registrations the same way internal/builtin registers every
// other native function.
package regex

import (
	"fmt"

	"github.com/cljwlang/cljw/internal/rt"
	"github.com/cljwlang/cljw/internal/value"
)

func asRegex(v value.Value) (*value.Regex, error) {
	switch r := v.(type) {
	case *value.Regex:
		return r, nil
	case value.Str:
		return value.CompileRegex(string(r))
	}
	return nil, fmt.Errorf("expected a regex or pattern string, got %s", value.TypeName(v))
}

func asStr(v value.Value) (string, error) {
	s, ok := v.(value.Str)
	if !ok {
		return "", fmt.Errorf("expected a string, got %s", value.TypeName(v))
	}
	return string(s), nil
}

func groupsValue(m []string) value.Value {
	if len(m) == 1 {
		return value.Str(m[0])
	}
	items := make([]value.Value, len(m))
	for i, g := range m {
		items[i] = value.Str(g)
	}
	return value.NewVector(items...)
}

// Register installs re-pattern, re-find, re-matches, and re-seq into ns.
func Register(ns *rt.Namespace) {
	def(ns, "re-pattern", 1, 1, func(args []value.Value) (value.Value, error) {
		s, err := asStr(args[0])
		if err != nil {
			return nil, err
		}
		return value.CompileRegex(s)
	})
	def(ns, "re-find", 2, 2, func(args []value.Value) (value.Value, error) {
		re, err := asRegex(args[0])
		if err != nil {
			return nil, err
		}
		s, err := asStr(args[1])
		if err != nil {
			return nil, err
		}
		m := re.Compiled.FindStringSubmatch(s)
		if m == nil {
			return value.NilValue, nil
		}
		return groupsValue(m), nil
	})
	def(ns, "re-matches", 2, 2, func(args []value.Value) (value.Value, error) {
		re, err := asRegex(args[0])
		if err != nil {
			return nil, err
		}
		s, err := asStr(args[1])
		if err != nil {
			return nil, err
		}
		m := re.Compiled.FindStringSubmatch(s)
		if m == nil || m[0] != s {
			return value.NilValue, nil
		}
		return groupsValue(m), nil
	})
	def(ns, "re-seq", 2, 2, func(args []value.Value) (value.Value, error) {
		re, err := asRegex(args[0])
		if err != nil {
			return nil, err
		}
		s, err := asStr(args[1])
		if err != nil {
			return nil, err
		}
		all := re.Compiled.FindAllStringSubmatch(s, -1)
		out := make([]value.Value, len(all))
		for i, m := range all {
			out[i] = groupsValue(m)
		}
		return value.NewList(out...), nil
	})
}

func def(ns *rt.Namespace, name string, min, max int, fn func(args []value.Value) (value.Value, error)) {
	v := ns.Intern(name)
	v.SetRoot(&value.Builtin{Name: name, MinArity: min, MaxArity: max, Fn: fn})
}
