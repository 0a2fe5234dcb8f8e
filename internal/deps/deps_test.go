package deps

import (
	"os"
	"path/filepath"
	"testing"
)

func TestLoadMissingFileDefaultsToSrc(t *testing.T) {
	m, err := Load(filepath.Join(t.TempDir(), "deps.edn"))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(m.Paths) != 1 || m.Paths[0] != "src" {
		t.Errorf("expected default Paths [src], got %v", m.Paths)
	}
}

func writeDeps(t *testing.T, src string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "deps.edn")
	if err := os.WriteFile(path, []byte(src), 0644); err != nil {
		t.Fatalf("write deps.edn: %v", err)
	}
	return path
}

func TestLoadPathsAndLocalDeps(t *testing.T) {
	path := writeDeps(t, `{:paths ["src" "test"]
 :deps {my/lib {:local/root "../my-lib"}}}`)
	m, err := Load(path)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(m.Paths) != 2 || m.Paths[0] != "src" || m.Paths[1] != "test" {
		t.Errorf("expected [src test], got %v", m.Paths)
	}
	if m.LocalDeps["my/lib"] != "../my-lib" {
		t.Errorf("expected local dep my/lib -> ../my-lib, got %v", m.LocalDeps)
	}
}

func TestLoadGitDepsRecordedNotFetched(t *testing.T) {
	path := writeDeps(t, `{:deps {some/pkg {:git/url "https://example.com/pkg.git" :sha "abc123"}}}`)
	m, err := Load(path)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(m.GitDeps) != 1 {
		t.Fatalf("expected 1 git dep, got %d", len(m.GitDeps))
	}
	gd := m.GitDeps[0]
	if gd.Name != "some/pkg" || gd.URL != "https://example.com/pkg.git" || gd.Sha != "abc123" {
		t.Errorf("unexpected git dep: %+v", gd)
	}
}

func TestLoadAliasesExtraPaths(t *testing.T) {
	path := writeDeps(t, `{:aliases {:test {:extra-paths ["test"]}}}`)
	m, err := Load(path)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	paths, ok := m.Aliases["test"]
	if !ok || len(paths) != 1 || paths[0] != "test" {
		t.Errorf("expected alias :test -> [test], got %v", m.Aliases)
	}
}

func TestLoadRejectsNonMapTopLevel(t *testing.T) {
	path := writeDeps(t, `[:paths "src"]`)
	if _, err := Load(path); err == nil {
		t.Errorf("expected error for non-map top-level form")
	}
}
