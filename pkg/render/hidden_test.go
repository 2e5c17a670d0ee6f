package render_test

import (
	"net/url"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/goliatone/go-nestedforms/pkg/render"
)

func TestApplyAndSortHiddenFields(t *testing.T) {
	base := url.Values{"sample_field": {"spam"}}

	applied := render.ApplyHidden(base,
		render.Hidden("child-TOTAL_FORMS", 2),
		render.Hidden(" child-INITIAL_FORMS ", 0),
		render.Hidden("  ", "skip"),
		render.Hidden("child-TOTAL_FORMS", 3),
	)
	want := url.Values{
		"sample_field":        {"spam"},
		"child-TOTAL_FORMS":   {"3"},
		"child-INITIAL_FORMS": {"0"},
	}
	if diff := cmp.Diff(want, applied); diff != "" {
		t.Fatalf("applied values mismatch (-want +got):\n%s", diff)
	}
	if len(base) != 1 {
		t.Fatalf("base values must not be modified, got %v", base)
	}

	sorted := render.SortedHiddenFields(
		render.Hidden("child-TOTAL_FORMS", 2),
		render.Hidden("child-INITIAL_FORMS", 0),
		render.Hidden("", "skip"),
	)
	wantSorted := []render.HiddenField{
		{Name: "child-INITIAL_FORMS", Value: "0"},
		{Name: "child-TOTAL_FORMS", Value: "2"},
	}
	if diff := cmp.Diff(wantSorted, sorted); diff != "" {
		t.Fatalf("sorted hidden fields mismatch (-want +got):\n%s", diff)
	}
}
