// Package bootstrap wires a fresh Env (namespaces, GC heap, CallBridge,
// native builtin table) and loads the embedded core library into it, spec
// §4.11's bootstrap pipeline. cmd/cljw's repl/file-eval/build/test
// subcommands all start from a *Runtime this package constructs.
package bootstrap

import (
	"embed"
	"fmt"
	"io"
	"os"

	"github.com/cljwlang/cljw/internal/analyzer"
	"github.com/cljwlang/cljw/internal/builtin"
	"github.com/cljwlang/cljw/internal/cache"
	"github.com/cljwlang/cljw/internal/dispatch"
	"github.com/cljwlang/cljw/internal/gc"
	"github.com/cljwlang/cljw/internal/logger"
	"github.com/cljwlang/cljw/internal/reader"
	"github.com/cljwlang/cljw/internal/rt"
	"github.com/cljwlang/cljw/internal/treewalk"
	"github.com/cljwlang/cljw/internal/value"
	"github.com/cljwlang/cljw/internal/vm"
)

//go:embed core.clj
var coreFS embed.FS

const coreSourcePath = "cljw.core"

// Runtime bundles everything one REPL/file-eval/test session needs: the
// Env, the Analyzer that closes over it, and which evaluator backend to
// drive (spec §4.5-4.6's tree-walk/bytecode duality, selectable via
// --tree-walk).
type Runtime struct {
	Env         *rt.Env
	Analyzer    *analyzer.Analyzer
	UseBytecode bool
	Cache       *cache.Store // nil if the cache db couldn't be opened; bootstrap still works, just uncached
}

// New constructs a Runtime with every builtin registered and the core
// library loaded, ready to evaluate user forms.
func New(useBytecode bool, cacheDSN string) (*Runtime, error) {
	heap := gc.NewHeap(64 << 20)
	env := rt.NewEnv(heap)
	env.Bridge = dispatch.New(env)
	builtin.Register(env)

	rtm := &Runtime{Env: env, Analyzer: analyzer.New(env, env.Bridge), UseBytecode: useBytecode}

	if cacheDSN != "" {
		store, err := cache.Open(cacheDSN)
		if err != nil {
			logger.Warn("bootstrap cache unavailable", "err", err)
		} else {
			rtm.Cache = store
		}
	}

	if err := rtm.LoadCore(); err != nil {
		return nil, fmt.Errorf("load core library: %w", err)
	}

	user := env.InNs("user")
	user.ReferAll(env.FindOrCreateNamespace("clojure.core"))
	return rtm, nil
}

// LoadCore evaluates the embedded core library's forms into
// clojure.core, recording its var names and content hash in the cache
// (when available) so a future run can see at a glance whether the
// embedded core changed since the last cached run.
func (r *Runtime) LoadCore() error {
	src, err := coreFS.ReadFile("core.clj")
	if err != nil {
		return fmt.Errorf("read embedded core.clj: %w", err)
	}
	hash := cache.Fingerprint(src)

	if r.Cache != nil {
		if entry, ok := r.Cache.Get("bootstrap", coreSourcePath, hash); ok {
			logger.Debug("bootstrap cache hit", "vars", len(entry.VarNames))
		}
	}

	r.Env.InNs("clojure.core")
	names, err := r.evalSource(string(src), coreSourcePath)
	if err != nil {
		return err
	}

	if r.Cache != nil {
		if err := r.Cache.Put("bootstrap", coreSourcePath, hash, &cache.Entry{VarNames: names}); err != nil {
			logger.Warn("bootstrap cache write failed", "err", err)
		}
	}
	return nil
}

// LoadFile reads and evaluates a user source file's forms into the
// current namespace, the shared implementation behind file-eval and
// `require`/`load-file`.
func (r *Runtime) LoadFile(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read %s: %w", path, err)
	}
	_, err = r.evalSource(string(data), path)
	return err
}

// LoadSource evaluates src's forms in sequence against path's name only
// for error messages, the entry point a `cljw build` launcher uses since
// its program text is go:embedded rather than read from disk at runtime.
func (r *Runtime) LoadSource(src, path string) error {
	_, err := r.evalSource(src, path)
	return err
}

// evalSource reads every top-level form out of src and evaluates it in
// sequence, returning the names of every Var defined in the current
// namespace by the time it finishes (used for the cache's bookkeeping).
func (r *Runtime) evalSource(src, path string) ([]string, error) {
	rd := reader.NewReader(src, r.Env.Current.Name, reader.DefaultLimits())
	for {
		form, err := rd.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("%s: read: %w", path, err)
		}
		if _, err := r.Eval(form); err != nil {
			return nil, fmt.Errorf("%s: %w", path, err)
		}
		rd.SetNS(r.Env.Current.Name)
		if r.Env.Heap != nil && r.Env.Heap.ShouldCollect() {
			r.Env.Heap.Collect()
		}
	}
	names := make([]string, 0, len(r.Env.Current.Publics()))
	for name := range r.Env.Current.Publics() {
		names = append(names, name)
	}
	return names, nil
}

// Eval analyzes and evaluates one already-read form, converting a
// panicked *rt.ClojureError into a returned error at this boundary: every
// caller above bootstrap (REPL, file-eval, nREPL stub, test runner) deals
// in ordinary Go errors, never panic/recover.
func (r *Runtime) Eval(form value.Value) (result value.Value, err error) {
	defer func() {
		if rec := recover(); rec != nil {
			if ce, ok := rec.(*rt.ClojureError); ok {
				err = ce
				return
			}
			panic(rec)
		}
	}()
	node, numSlots, aerr := r.Analyzer.Analyze(form)
	if aerr != nil {
		return nil, aerr
	}
	if r.UseBytecode {
		return vm.Eval(r.Env, node, numSlots), nil
	}
	locals := make([]value.Value, numSlots)
	return treewalk.Eval(r.Env, node, locals), nil
}
