package nested_test

import (
	"testing"

	"github.com/cockroachdb/errors"
	"github.com/google/go-cmp/cmp"

	"github.com/goliatone/go-nestedforms/pkg/nested"
)

func expectConfigPanic(t *testing.T, fn func()) *nested.ConfigError {
	t.Helper()

	var got *nested.ConfigError
	func() {
		defer func() {
			r := recover()
			err, ok := r.(error)
			if !ok || !errors.As(err, &got) {
				t.Fatalf("expected *nested.ConfigError panic, got %#v", r)
			}
		}()
		fn()
	}()
	return got
}

func TestWrapRunsBeforeMethodThenAfter(t *testing.T) {
	var trace []string
	method := func(n int) int {
		trace = append(trace, "method")
		return n * 2
	}
	ext := nested.Around(
		func(n int) int {
			trace = append(trace, "before")
			return n + 100
		},
		func(state, result int) int {
			trace = append(trace, "after")
			return state + result
		},
	)

	wrapped := nested.Wrap(nested.Site{Target: "Calc", Method: "Double"}, method, ext)
	if got := wrapped(1); got != 103 {
		t.Fatalf("expected after phase to transform the result to 103, got %d", got)
	}
	if diff := cmp.Diff([]string{"before", "method", "after"}, trace); diff != "" {
		t.Fatalf("call order mismatch (-want +got):\n%s", diff)
	}
}

func TestWrapResumesExactlyOncePerCall(t *testing.T) {
	resumes := 0
	ext := nested.Extension[string, int](func(string) func(int) int {
		return func(r int) int {
			resumes++
			return r
		}
	})
	wrapped := nested.Wrap(nested.Site{}, func(s string) int { return len(s) }, ext)
	wrapped("a")
	wrapped("bb")
	if resumes != 2 {
		t.Fatalf("expected one resume per call, got %d", resumes)
	}
}

func TestWrapStacksExtensions(t *testing.T) {
	add := func(n int) nested.Extension[int, int] {
		return nested.After(func(_ int, r int) int { return r + n })
	}
	method := func(n int) int { return n }
	wrapped := nested.Wrap(nested.Site{}, method, add(1))
	wrapped = nested.Wrap(nested.Site{}, wrapped, add(10))
	if got := wrapped(0); got != 11 {
		t.Fatalf("expected both extensions to apply, got %d", got)
	}
}

func TestWrapMissingMethodPanics(t *testing.T) {
	site := nested.Site{Target: "ParentForm", Method: "Save", Source: "nested.Model(child)"}
	err := expectConfigPanic(t, func() {
		nested.Wrap[int, int](site, nil, nested.After(func(_ int, r int) int { return r }))
	})
	want := &nested.ConfigError{Target: "ParentForm", Method: "Save", Source: "nested.Model(child)", Reason: "method to extend does not exist"}
	if diff := cmp.Diff(want, err); diff != "" {
		t.Fatalf("config error mismatch (-want +got):\n%s", diff)
	}
	if got := err.Error(); got != "nested: method to extend does not exist: ParentForm.Save (extension nested.Model(child))" {
		t.Fatalf("unexpected message %q", got)
	}
}

func TestWrapNilContinuationPanicsOnFirstCall(t *testing.T) {
	called := false
	ext := nested.Extension[int, int](func(int) func(int) int { return nil })
	wrapped := nested.Wrap(nested.Site{Target: "ParentForm", Method: "IsValid"}, func(n int) int {
		called = true
		return n
	}, ext)

	err := expectConfigPanic(t, func() { wrapped(1) })
	if err.Method != "IsValid" {
		t.Fatalf("expected error to name the method, got %+v", err)
	}
	if called {
		t.Fatalf("method must not run when the extension is malformed")
	}
}
