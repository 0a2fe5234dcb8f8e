package main

import (
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"text/template"

	"github.com/google/uuid"

	"github.com/cljwlang/cljw/internal/cache"
)

// launcherTemplate generates a tiny Go program that go:embeds the entry
// file's source (only that one file; deps.edn and its :paths are not
// read), then boots the same internal/bootstrap pipeline `cljw` itself
// uses before loading the embedded source as the main file. `go build` against this generated
// source is what actually produces the standalone binary -- there is no
// separate AOT codegen backend.
const launcherTemplate = `// Code generated by cljw build; DO NOT EDIT.
package main

import (
	_ "embed"
	"fmt"
	"os"

	"github.com/cljwlang/cljw/internal/bootstrap"
)

//go:embed {{.EmbedName}}
var programSource string

func main() {
	rtm, err := bootstrap.New(true, "")
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
	if err := rtm.LoadSource(programSource, {{printf "%q" .EntryFile}}); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
`

type launcherData struct {
	EmbedName string
	EntryFile string
}

// runBuild stages a standalone build of entryFile: cache its compiled
// chunk fingerprint under kind="chunk" (so repeated builds of an
// unchanged file can be recognized without re-reading it), generate a
// launcher in a scratch directory named with a uuid to avoid colliding
// with concurrent builds, and shell out to `go build` on it.
func runBuild(entryFile, output, cacheDSN string) error {
	data, err := os.ReadFile(entryFile)
	if err != nil {
		return fmt.Errorf("read %s: %w", entryFile, err)
	}

	if cacheDSN != "" {
		store, err := cache.Open(cacheDSN)
		if err != nil {
			return fmt.Errorf("open cache: %w", err)
		}
		defer store.Close()
		hash := cache.Fingerprint(data)
		if _, hit := store.Get("chunk", entryFile, hash); !hit {
			if err := store.Put("chunk", entryFile, hash, &cache.Entry{}); err != nil {
				return fmt.Errorf("record build cache entry: %w", err)
			}
		}
	}

	scratch := filepath.Join(os.TempDir(), "cljw-build-"+uuid.NewString())
	if err := os.MkdirAll(scratch, 0755); err != nil {
		return fmt.Errorf("create build dir: %w", err)
	}
	defer os.RemoveAll(scratch)

	embedName := "program.clj"
	if err := os.WriteFile(filepath.Join(scratch, embedName), data, 0644); err != nil {
		return fmt.Errorf("stage source: %w", err)
	}

	tmpl, err := template.New("launcher").Parse(launcherTemplate)
	if err != nil {
		return err
	}
	launcherPath := filepath.Join(scratch, "main.go")
	f, err := os.Create(launcherPath)
	if err != nil {
		return err
	}
	err = tmpl.Execute(f, launcherData{EmbedName: embedName, EntryFile: entryFile})
	f.Close()
	if err != nil {
		return fmt.Errorf("render launcher: %w", err)
	}

	if output == "" {
		base := filepath.Base(entryFile)
		output = base[:len(base)-len(filepath.Ext(base))]
	}
	absOutput, err := filepath.Abs(output)
	if err != nil {
		return err
	}

	modInit := exec.Command("go", "mod", "init", "cljwbuild")
	modInit.Dir = scratch
	if out, err := modInit.CombinedOutput(); err != nil {
		return fmt.Errorf("go mod init: %w\n%s", err, out)
	}

	build := exec.Command("go", "build", "-o", absOutput, ".")
	build.Dir = scratch
	build.Env = os.Environ()
	if out, err := build.CombinedOutput(); err != nil {
		return fmt.Errorf("go build: %w\n%s", err, out)
	}

	fmt.Printf("built %s\n", absOutput)
	return nil
}
