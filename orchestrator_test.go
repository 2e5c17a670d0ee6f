package nestedforms_test

import (
	"context"
	"testing"

	"github.com/google/go-cmp/cmp"

	nestedforms "github.com/goliatone/go-nestedforms"
	"github.com/goliatone/go-nestedforms/pkg/model"
	"github.com/goliatone/go-nestedforms/pkg/orchestrator"
	"github.com/goliatone/go-nestedforms/pkg/testsupport"
)

func TestBuildFromDeclarationFile(t *testing.T) {
	form, err := nestedforms.LoadDeclaration("pkg/model/testdata/article.yaml")
	if err != nil {
		t.Fatalf("load declaration: %v", err)
	}

	db := testsupport.OpenStore(t, orchestrator.Tables(form)...)
	result, err := nestedforms.Build(context.Background(), form, nil, orchestrator.WithStore(db))
	if err != nil {
		t.Fatalf("build: %v", err)
	}

	if diff := cmp.Diff([]string{"comments", "tags"}, result.Form.Keys()); diff != "" {
		t.Fatalf("keys mismatch (-want +got):\n%s", diff)
	}
	if result.Form.IsBound() {
		t.Fatalf("expected unbound form")
	}
}

func TestBuildPlainSubmission(t *testing.T) {
	form := model.FormModel{
		ID:       "survey",
		Fields:   testsupport.SampleFields,
		Formsets: []model.FormsetModel{{Key: "child", Fields: testsupport.SampleFields}},
	}
	data := testsupport.Submission(append(testsupport.Management("child", 1, 0),
		"sample_field", "spam",
		"child-0-sample_field", "eggs",
	)...)

	result, err := nestedforms.Build(context.Background(), form, data)
	if err != nil {
		t.Fatalf("build: %v", err)
	}
	if !result.Form.IsValid() {
		t.Fatalf("expected valid submission, errors: %+v", result.Errors())
	}
	if got, want := result.Form.String(), "<Form bound=true, valid=true, fields=(sample_field)>"; got != want {
		t.Fatalf("String() = %q, want %q", got, want)
	}
}
