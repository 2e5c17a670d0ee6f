package render_test

import (
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/google/go-cmp/cmp/cmpopts"

	"github.com/goliatone/go-nestedforms/pkg/forms"
	"github.com/goliatone/go-nestedforms/pkg/formset"
	"github.com/goliatone/go-nestedforms/pkg/render"
	"github.com/goliatone/go-nestedforms/pkg/testsupport"
)

func TestMapErrorPayload(t *testing.T) {
	inputs := []string{"sample_field", "child-0-sample_field", "child-1-sample_field"}
	payload := map[string][]string{
		"/child/0/sample_field":          {"Child zero is wrong"},
		"body.child.1.sample_field":      {"Child one is wrong"},
		"$.sample_field":                 {"Parent is wrong"},
		"child[1].sample_field":          {"Child one again"},
		"non_field_errors":               {"Form level error"},
		"request/child/2/sample_field":   {"Should fall back to form errors"},
		"":                               {"Unscoped form error"},
		"/child/0/sample_field/extra/~1": {"  "},
	}

	mapped := render.MapErrorPayload(inputs, payload)

	wantFields := map[string][]string{
		"child-0-sample_field": {"Child zero is wrong"},
		"child-1-sample_field": {"Child one is wrong", "Child one again"},
		"sample_field":         {"Parent is wrong"},
	}
	if diff := cmp.Diff(wantFields, mapped.Fields, cmpopts.SortSlices(func(a, b string) bool { return a < b })); diff != "" {
		t.Fatalf("field errors mismatch (-want +got):\n%s", diff)
	}

	wantForm := []string{"Form level error", "Should fall back to form errors", "Unscoped form error"}
	if diff := cmp.Diff(wantForm, mapped.Form, cmpopts.SortSlices(func(a, b string) bool { return a < b })); diff != "" {
		t.Fatalf("form errors mismatch (-want +got):\n%s", diff)
	}
}

func TestCollectErrorsUsesPrefixedNames(t *testing.T) {
	data := testsupport.Submission(append(testsupport.Management("parent-child", 2, 0),
		"parent-sample_field", "",
		"parent-child-0-sample_field", "This string exceeds the max length.",
		"parent-child-1-sample_field", "ok",
	)...)
	parent := forms.New(testsupport.SampleFields, forms.WithPrefix("parent"), forms.WithData(data))
	children := formset.New(testsupport.SampleFields, formset.WithPrefix("parent-child"), formset.WithData(data))

	mapped := render.CollectErrors(parent, children)
	want := render.ErrorMapping{
		Fields: map[string][]string{
			"parent-sample_field":         {"This field is required."},
			"parent-child-0-sample_field": {"Ensure this value has at most 8 characters (it has 35)."},
		},
	}
	if diff := cmp.Diff(want, mapped); diff != "" {
		t.Fatalf("collected errors mismatch (-want +got):\n%s", diff)
	}

	names := render.InputNames(parent, children)
	wantNames := []string{"parent-child-0-sample_field", "parent-child-1-sample_field", "parent-sample_field"}
	if diff := cmp.Diff(wantNames, names); diff != "" {
		t.Fatalf("input names mismatch (-want +got):\n%s", diff)
	}
}

func TestMergeFormErrors(t *testing.T) {
	merged := render.MergeFormErrors([]string{" First ", "Second"}, "Second", "third", "  ")
	want := []string{"First", "Second", "third"}
	if diff := cmp.Diff(want, merged); diff != "" {
		t.Fatalf("merged form errors mismatch (-want +got):\n%s", diff)
	}
}
