package testrunner

import (
	"context"
	"testing"

	"github.com/cljwlang/cljw/internal/bootstrap"
)

func newTestRuntime(t *testing.T) *bootstrap.Runtime {
	t.Helper()
	rtm, err := bootstrap.New(false, "")
	if err != nil {
		t.Fatalf("bootstrap.New: %v", err)
	}
	return rtm
}

func loadString(t *testing.T, rtm *bootstrap.Runtime, src string) {
	t.Helper()
	if err := rtm.LoadSource(src, "<test>"); err != nil {
		t.Fatalf("load source: %v", err)
	}
}

func TestRunDiscoversPassingAndFailingTests(t *testing.T) {
	rtm := newTestRuntime(t)
	loadString(t, rtm, `
(ns my.app)
(deftest passes (is (= 1 1)))
(deftest fails (is (= 1 2)))
(defn not-a-test [] :nope)
`)

	report, err := Run(context.Background(), rtm, []string{"my.app"}, 2)
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if report.Total != 2 {
		t.Fatalf("expected 2 discovered tests, got %d (%+v)", report.Total, report.Tests)
	}
	if report.Passed != 1 || report.Failed != 1 {
		t.Errorf("expected 1 pass and 1 fail, got passed=%d failed=%d", report.Passed, report.Failed)
	}

	var sawFails bool
	for _, r := range report.Tests {
		if r.Name == "fails" {
			sawFails = true
			if len(r.Failures) != 1 {
				t.Errorf("expected exactly 1 recorded failure for `fails`, got %v", r.Failures)
			}
		}
	}
	if !sawFails {
		t.Errorf("expected a result named fails, got %+v", report.Tests)
	}
}

func TestRunIsolatesFailuresBetweenTests(t *testing.T) {
	rtm := newTestRuntime(t)
	loadString(t, rtm, `
(ns my.isolated)
(deftest first-test (is (= 1 2)))
(deftest second-test (is (= 1 1)))
`)

	report, err := Run(context.Background(), rtm, []string{"my.isolated"}, 1)
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	for _, r := range report.Tests {
		if r.Name == "second-test" && len(r.Failures) != 0 {
			t.Errorf("expected second-test to pass in isolation, got failures %v (stale *test-failures* state?)", r.Failures)
		}
	}
}

func TestRunErrorsOnUnknownNamespace(t *testing.T) {
	rtm := newTestRuntime(t)
	if _, err := Run(context.Background(), rtm, []string{"does.not.exist"}, 1); err == nil {
		t.Errorf("expected an error for a namespace that was never loaded")
	}
}

func TestFormatProducesYAML(t *testing.T) {
	report := &Report{Total: 1, Passed: 1, Tests: []Result{{Namespace: "a", Name: "b"}}}
	out, err := Format(report)
	if err != nil {
		t.Fatalf("Format: %v", err)
	}
	if out == "" {
		t.Error("expected non-empty YAML output")
	}
}
