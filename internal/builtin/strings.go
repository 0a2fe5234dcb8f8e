package builtin

import (
	"fmt"
	"strings"

	"github.com/cljwlang/cljw/internal/rt"
	"github.com/cljwlang/cljw/internal/value"
)

func asStr(v value.Value) (string, error) {
	s, ok := v.(value.Str)
	if !ok {
		return "", fmt.Errorf("expected a string, got %s", value.TypeName(v))
	}
	return string(s), nil
}

func registerStrings(ns *rt.Namespace) {
	def(ns, "str", 0, -1, func(args []value.Value) (value.Value, error) {
		var b strings.Builder
		for _, a := range args {
			if _, isNil := a.(value.Nil); isNil {
				continue
			}
			b.WriteString(value.PrintStr(a))
		}
		return value.Str(b.String()), nil
	})
	def(ns, "pr-str", 0, -1, func(args []value.Value) (value.Value, error) {
		parts := make([]string, len(args))
		for i, a := range args {
			parts[i] = value.PrStr(a)
		}
		return value.Str(strings.Join(parts, " ")), nil
	})
	def(ns, "print-str", 0, -1, func(args []value.Value) (value.Value, error) {
		parts := make([]string, len(args))
		for i, a := range args {
			parts[i] = value.PrintStr(a)
		}
		return value.Str(strings.Join(parts, " ")), nil
	})
	def(ns, "subs", 2, 3, func(args []value.Value) (value.Value, error) {
		s, err := asStr(args[0])
		if err != nil {
			return nil, err
		}
		runes := []rune(s)
		start, ok := args[1].(value.Int)
		if !ok {
			return nil, fmt.Errorf("subs start must be an integer")
		}
		end := len(runes)
		if len(args) == 3 {
			e, ok := args[2].(value.Int)
			if !ok {
				return nil, fmt.Errorf("subs end must be an integer")
			}
			end = int(e)
		}
		if start < 0 || int(start) > len(runes) || end < int(start) || end > len(runes) {
			return nil, &rt.ClojureError{Kind: "IndexOutOfBoundsException", Msg: "subs range out of bounds"}
		}
		return value.Str(string(runes[start:end])), nil
	})
	def(ns, "str/upper-case", 1, 1, upcase)
	def(ns, "upper-case", 1, 1, upcase)
	def(ns, "lower-case", 1, 1, downcase)
	def(ns, "str/lower-case", 1, 1, downcase)
	def(ns, "trim", 1, 1, func(args []value.Value) (value.Value, error) {
		s, err := asStr(args[0])
		if err != nil {
			return nil, err
		}
		return value.Str(strings.TrimSpace(s)), nil
	})
	def(ns, "split", 2, 2, func(args []value.Value) (value.Value, error) {
		s, err := asStr(args[0])
		if err != nil {
			return nil, err
		}
		sep, err := asStr(args[1])
		if err != nil {
			if re, ok := args[1].(*value.Regex); ok {
				parts := re.Compiled.Split(s, -1)
				out := make([]value.Value, len(parts))
				for i, p := range parts {
					out[i] = value.Str(p)
				}
				return value.NewVector(out...), nil
			}
			return nil, err
		}
		parts := strings.Split(s, sep)
		out := make([]value.Value, len(parts))
		for i, p := range parts {
			out[i] = value.Str(p)
		}
		return value.NewVector(out...), nil
	})
	def(ns, "join", 1, 2, func(args []value.Value) (value.Value, error) {
		sep := ""
		coll := args[0]
		if len(args) == 2 {
			s, err := asStr(args[0])
			if err != nil {
				return nil, err
			}
			sep = s
			coll = args[1]
		}
		var parts []string
		for _, v := range seqToSlice(coll) {
			parts = append(parts, value.PrintStr(v))
		}
		return value.Str(strings.Join(parts, sep)), nil
	})
	def(ns, "replace", 3, 3, func(args []value.Value) (value.Value, error) {
		s, err := asStr(args[0])
		if err != nil {
			return nil, err
		}
		repl, err := asStr(args[2])
		if err != nil {
			return nil, err
		}
		if re, ok := args[1].(*value.Regex); ok {
			return value.Str(re.Compiled.ReplaceAllString(s, repl)), nil
		}
		match, err := asStr(args[1])
		if err != nil {
			return nil, err
		}
		return value.Str(strings.ReplaceAll(s, match, repl)), nil
	})
	def(ns, "str/includes?", 2, 2, func(args []value.Value) (value.Value, error) {
		s, err := asStr(args[0])
		if err != nil {
			return nil, err
		}
		sub, err := asStr(args[1])
		if err != nil {
			return nil, err
		}
		return value.Bool(strings.Contains(s, sub)), nil
	})
	def(ns, "name", 1, 1, func(args []value.Value) (value.Value, error) {
		switch v := args[0].(type) {
		case value.Keyword:
			return value.Str(v.Name), nil
		case value.Symbol:
			return value.Str(v.Name), nil
		case value.Str:
			return v, nil
		}
		return nil, fmt.Errorf("name does not support %s", value.TypeName(args[0]))
	})
	def(ns, "keyword", 1, 2, func(args []value.Value) (value.Value, error) {
		if len(args) == 2 {
			ns1, err := asStr(args[0])
			if err != nil {
				return nil, err
			}
			n, err := asStr(args[1])
			if err != nil {
				return nil, err
			}
			return value.NewKeyword(ns1, n), nil
		}
		switch v := args[0].(type) {
		case value.Str:
			return value.NewKeyword("", string(v)), nil
		case value.Symbol:
			return value.NewKeyword(v.NS, v.Name), nil
		case value.Keyword:
			return v, nil
		}
		return nil, fmt.Errorf("cannot coerce %s to keyword", value.TypeName(args[0]))
	})
	def(ns, "symbol", 1, 2, func(args []value.Value) (value.Value, error) {
		if len(args) == 2 {
			ns1, err := asStr(args[0])
			if err != nil {
				return nil, err
			}
			n, err := asStr(args[1])
			if err != nil {
				return nil, err
			}
			return value.NewSymbol(ns1, n), nil
		}
		s, err := asStr(args[0])
		if err != nil {
			if sym, ok := args[0].(value.Symbol); ok {
				return sym, nil
			}
			return nil, err
		}
		return value.NewSymbol("", s), nil
	})
}

func upcase(args []value.Value) (value.Value, error) {
	s, err := asStr(args[0])
	if err != nil {
		return nil, err
	}
	return value.Str(strings.ToUpper(s)), nil
}

func downcase(args []value.Value) (value.Value, error) {
	s, err := asStr(args[0])
	if err != nil {
		return nil, err
	}
	return value.Str(strings.ToLower(s)), nil
}
