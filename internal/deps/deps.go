// Package deps loads deps.edn the way internal/config/wing.go loads
// wing.yaml (spec.md's external-interfaces scope): a typed Go struct
// populated by walking parsed forms, missing file -> zero value, no
// error. deps.edn is EDN, i.e. the same grammar the rest of the language
// reads, so the core Reader does the parsing rather than a second parser.
package deps

import (
	"fmt"
	"io"
	"os"

	"github.com/cljwlang/cljw/internal/logger"
	"github.com/cljwlang/cljw/internal/reader"
	"github.com/cljwlang/cljw/internal/value"
)

// GitDep is a :git/url dependency entry. Fetching it is out of scope
// (spec.md Non-goals: Maven resolution); Load records it so a caller can
// report what it skipped instead of silently ignoring it.
type GitDep struct {
	Name string
	URL  string
	Sha  string
	Tag  string
}

// Manifest is deps.edn's :paths/:deps/:aliases, populated from whatever
// top-level map the file contains.
type Manifest struct {
	Paths     []string
	LocalDeps map[string]string // dep name -> :local/root path
	GitDeps   []GitDep
	Aliases   map[string][]string // alias name -> its :extra-paths
}

// Load reads path and returns its Manifest. A missing file is not an
// error: it returns a zero-value Manifest with Paths defaulting to
// ["src"], matching a bare `clj` invocation with no deps.edn.
func Load(path string) (*Manifest, error) {
	m := &Manifest{
		LocalDeps: map[string]string{},
		Aliases:   map[string][]string{},
	}
	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		m.Paths = []string{"src"}
		return m, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", path, err)
	}

	rd := reader.NewReader(string(data), "user", reader.DefaultLimits())
	form, err := rd.Read()
	if err == io.EOF {
		m.Paths = []string{"src"}
		return m, nil
	}
	if err != nil {
		return nil, fmt.Errorf("parse %s: %w", path, err)
	}
	top, ok := form.(*value.Map)
	if !ok {
		return nil, fmt.Errorf("%s: top-level form must be a map", path)
	}

	if v, ok := top.Get(value.NewKeyword("", "paths")); ok {
		m.Paths = stringsOf(v)
	}
	if len(m.Paths) == 0 {
		m.Paths = []string{"src"}
	}

	if v, ok := top.Get(value.NewKeyword("", "deps")); ok {
		depsMap, ok := v.(*value.Map)
		if !ok {
			return nil, fmt.Errorf("%s: :deps must be a map", path)
		}
		for _, e := range depsMap.Entries() {
			name := symName(e.Key)
			spec, ok := e.Val.(*value.Map)
			if !ok {
				continue
			}
			if root, ok := spec.Get(value.NewKeyword("", "local/root")); ok {
				if s, ok := root.(value.Str); ok {
					m.LocalDeps[name] = string(s)
				}
				continue
			}
			if url, ok := spec.Get(value.NewKeyword("", "git/url")); ok {
				gd := GitDep{Name: name}
				if s, ok := url.(value.Str); ok {
					gd.URL = string(s)
				}
				if sha, ok := spec.Get(value.NewKeyword("", "sha")); ok {
					if s, ok := sha.(value.Str); ok {
						gd.Sha = string(s)
					}
				}
				if tag, ok := spec.Get(value.NewKeyword("", "tag")); ok {
					if s, ok := tag.(value.Str); ok {
						gd.Tag = string(s)
					}
				}
				m.GitDeps = append(m.GitDeps, gd)
				logger.Info("deps: git dependency not fetched", "name", name, "url", gd.URL)
			}
		}
	}

	if v, ok := top.Get(value.NewKeyword("", "aliases")); ok {
		aliasMap, ok := v.(*value.Map)
		if !ok {
			return nil, fmt.Errorf("%s: :aliases must be a map", path)
		}
		for _, e := range aliasMap.Entries() {
			name := keywordName(e.Key)
			spec, ok := e.Val.(*value.Map)
			if !ok {
				continue
			}
			if ep, ok := spec.Get(value.NewKeyword("", "extra-paths")); ok {
				m.Aliases[name] = stringsOf(ep)
			}
		}
	}

	return m, nil
}

func symName(v value.Value) string {
	switch s := v.(type) {
	case value.Symbol:
		if s.NS != "" {
			return s.NS + "/" + s.Name
		}
		return s.Name
	case value.Keyword:
		return s.Name
	default:
		return fmt.Sprintf("%v", v)
	}
}

func keywordName(v value.Value) string {
	if k, ok := v.(value.Keyword); ok {
		return k.Name
	}
	return fmt.Sprintf("%v", v)
}

func stringsOf(v value.Value) []string {
	vec, ok := v.(*value.Vector)
	if !ok {
		return nil
	}
	out := make([]string, 0, len(vec.Items()))
	for _, it := range vec.Items() {
		if s, ok := it.(value.Str); ok {
			out = append(out, string(s))
		}
	}
	return out
}
