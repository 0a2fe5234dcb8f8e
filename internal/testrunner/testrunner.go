// Package testrunner discovers and runs deftest-tagged Vars across one or
// more namespaces, the supplemented "cljw test" surface SPEC_FULL.md adds
// to the distilled spec's core scope. Bounded parallelism across
// namespaces is grounded on golang.org/x/sync/errgroup the way a teacher
// package would fan work out over a worker pool, and the report is
// yaml-shaped the way internal/bytecode's disassembler formats
// --dump-bytecode output.
package testrunner

import (
	"context"
	"fmt"
	"sort"

	"github.com/fsnotify/fsnotify"
	"golang.org/x/sync/errgroup"
	"gopkg.in/yaml.v3"

	"github.com/cljwlang/cljw/internal/bootstrap"
	"github.com/cljwlang/cljw/internal/rt"
	"github.com/cljwlang/cljw/internal/value"
)

// Result is one deftest Var's outcome: Failures holds the printed form of
// every `is` that didn't hold (empty means it passed).
type Result struct {
	Namespace string   `yaml:"namespace"`
	Name      string   `yaml:"name"`
	Failures  []string `yaml:"failures,omitempty"`
}

// Report is the whole run's outcome, marshaled to YAML for `cljw test`'s
// output.
type Report struct {
	Total  int      `yaml:"total"`
	Passed int      `yaml:"passed"`
	Failed int      `yaml:"failed"`
	Tests  []Result `yaml:"tests"`
}

const testKeyword = "test"

// discover returns every :test-tagged Var in ns, sorted by name for
// deterministic run order.
func discover(ns *rt.Namespace) []*rt.Var {
	var out []*rt.Var
	for _, v := range ns.Mappings {
		if isTest(v) {
			out = append(out, v)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out
}

func isTest(v *rt.Var) bool {
	if v.Meta == nil {
		return false
	}
	flag, ok := v.Meta.Get(value.NewKeyword("", testKeyword))
	return ok && value.IsTruthy(flag)
}

// Run evaluates every deftest Var across nsNames (bounded parallelism
// across namespaces, sequential within one namespace since Vars in the
// same namespace commonly share mutable atoms used as fixtures) and
// returns the aggregate Report.
func Run(ctx context.Context, rtm *bootstrap.Runtime, nsNames []string, maxParallel int) (*Report, error) {
	results := make([][]Result, len(nsNames))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(maxParallel)

	for i, name := range nsNames {
		i, name := i, name
		g.Go(func() error {
			select {
			case <-gctx.Done():
				return gctx.Err()
			default:
			}
			ns, ok := rtm.Env.FindNamespace(name)
			if !ok {
				return fmt.Errorf("no such namespace: %s", name)
			}
			var nsResults []Result
			for _, v := range discover(ns) {
				nsResults = append(nsResults, runOne(rtm, ns.Name, v))
			}
			results[i] = nsResults
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	report := &Report{}
	for _, rs := range results {
		for _, r := range rs {
			report.Total++
			if len(r.Failures) == 0 {
				report.Passed++
			} else {
				report.Failed++
			}
			report.Tests = append(report.Tests, r)
		}
	}
	return report, nil
}

// runOne calls clojure.core/run-test with the deftest Var's function as
// its sole argument: run-test resets *test-failures*, invokes the test
// body (which populates *test-failures* via `is`), and hands back the
// accumulated seq of failed forms. Calling the generated fn directly
// would skip that reset-and-collect step.
func runOne(rtm *bootstrap.Runtime, nsName string, v *rt.Var) (res Result) {
	res = Result{Namespace: nsName, Name: v.Name}
	defer func() {
		if r := recover(); r != nil {
			res.Failures = append(res.Failures, fmt.Sprintf("panic: %v", r))
		}
	}()
	coreNs, ok := rtm.Env.FindNamespace("clojure.core")
	if !ok {
		res.Failures = append(res.Failures, "clojure.core namespace not loaded")
		return res
	}
	runTestVar, ok := coreNs.Lookup("run-test")
	if !ok {
		res.Failures = append(res.Failures, "clojure.core/run-test not defined")
		return res
	}
	result := rtm.Env.Bridge.Call(runTestVar.Deref(), []value.Value{v.Deref()})
	seq := value.Seq(result)
	for {
		s, ok := seq.(value.Seqer)
		if !ok {
			break
		}
		res.Failures = append(res.Failures, value.PrStr(s.First()))
		seq = value.Seq(s.Rest())
	}
	return res
}

// Format renders a Report as YAML.
func Format(r *Report) (string, error) {
	out, err := yaml.Marshal(r)
	if err != nil {
		return "", fmt.Errorf("format report: %w", err)
	}
	return string(out), nil
}

// Watch re-runs Run every time a file under any of dirs changes, streaming
// each report to resultCh until ctx is canceled. Grounded on fsnotify's
// own example watcher loop.
func Watch(ctx context.Context, rtm *bootstrap.Runtime, nsNames []string, maxParallel int, dirs []string, resultCh chan<- *Report) error {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("start watcher: %w", err)
	}
	defer watcher.Close()

	for _, d := range dirs {
		if err := watcher.Add(d); err != nil {
			return fmt.Errorf("watch %s: %w", d, err)
		}
	}

	run := func() {
		report, err := Run(ctx, rtm, nsNames, maxParallel)
		if err != nil {
			return
		}
		select {
		case resultCh <- report:
		case <-ctx.Done():
		}
	}
	run()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case ev, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			if ev.Op&(fsnotify.Write|fsnotify.Create) != 0 {
				run()
			}
		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			return fmt.Errorf("watch: %w", err)
		}
	}
}
