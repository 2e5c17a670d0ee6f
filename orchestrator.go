package nestedforms

import (
	"context"
	"net/url"

	"github.com/goliatone/go-nestedforms/pkg/model"
	"github.com/goliatone/go-nestedforms/pkg/openapi"
	"github.com/goliatone/go-nestedforms/pkg/orchestrator"
	"github.com/goliatone/go-nestedforms/pkg/render"
)

// FormModel aliases the declaration type for callers that only import the
// root package.
type FormModel = model.FormModel

// Result aliases orchestrator.Result.
type Result = orchestrator.Result

// ErrorMapping aliases render.ErrorMapping, the flattened errors of a nested
// form keyed by input name.
type ErrorMapping = render.ErrorMapping

// NewOrchestrator exposes the orchestrator constructor from the top-level
// module.
func NewOrchestrator(options ...orchestrator.Option) *orchestrator.Orchestrator {
	return orchestrator.New(options...)
}

// LoadDeclaration reads a YAML or JSON declaration file.
func LoadDeclaration(path string, options ...model.LoadOption) (FormModel, error) {
	return model.Load(path, options...)
}

// LoadOpenAPIDeclaration derives a declaration from a component schema of an
// OpenAPI document.
func LoadOpenAPIDeclaration(ctx context.Context, path, component string) (FormModel, error) {
	return openapi.Load(ctx, path, component)
}

// Build nests the declared formsets in a parent form bound to data. Pass nil
// data for an unbound form.
func Build(ctx context.Context, form FormModel, data url.Values, options ...orchestrator.Option) (*Result, error) {
	return orchestrator.New(options...).Build(ctx, orchestrator.Request{Form: form, Data: data})
}
