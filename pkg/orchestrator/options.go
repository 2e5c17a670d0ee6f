package orchestrator

import (
	"context"

	"github.com/microcosm-cc/bluemonday"
	"go.uber.org/zap"

	"github.com/goliatone/go-nestedforms/pkg/model"
	"github.com/goliatone/go-nestedforms/pkg/store"
)

// Option customises the orchestrator configuration.
type Option func(*Orchestrator)

// WithStore sets the database model forms and formsets write to. Required for
// declarations with tables.
func WithStore(db *store.DB) Option {
	return func(o *Orchestrator) {
		o.store = db
	}
}

// WithLogger attaches a logger to the orchestrator and everything it builds.
func WithLogger(logger *zap.SugaredLogger) Option {
	return func(o *Orchestrator) {
		if logger != nil {
			o.logger = logger
		}
	}
}

// WithSanitizer passes every submitted string through policy before
// validation, in the parent and in every formset.
func WithSanitizer(policy *bluemonday.Policy) Option {
	return func(o *Orchestrator) {
		o.sanitizer = policy
	}
}

// WithTransformer registers a Transformer run on each declaration before it
// is decorated and validated.
func WithTransformer(t Transformer) Option {
	return func(o *Orchestrator) {
		o.transformer = t
	}
}

// WithDecorators registers declaration decorators.
func WithDecorators(decorators ...model.Decorator) Option {
	return func(o *Orchestrator) {
		o.decorators = append(o.decorators, decorators...)
	}
}

// Transformer mutates a declaration before it is built. Implementations can
// rename fields or adjust formset limits per request.
type Transformer interface {
	Transform(ctx context.Context, form *model.FormModel) error
}

// TransformerFunc adapts plain functions to the Transformer interface.
type TransformerFunc func(ctx context.Context, form *model.FormModel) error

// Transform executes the wrapped function when non-nil.
func (fn TransformerFunc) Transform(ctx context.Context, form *model.FormModel) error {
	if fn == nil {
		return nil
	}
	return fn(ctx, form)
}
