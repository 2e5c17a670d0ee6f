package nested

import (
	"context"
	"net/url"

	"github.com/cockroachdb/errors"

	"github.com/goliatone/go-nestedforms/pkg/forms"
	"github.com/goliatone/go-nestedforms/pkg/formset"
	"github.com/goliatone/go-nestedforms/pkg/model"
	"github.com/goliatone/go-nestedforms/pkg/store"
)

// Params are extra construction parameters supplied by the policy variant.
// Instance is the parent's record for inline policies and nil otherwise.
type Params struct {
	Instance *store.Record
}

// Factory builds a formset. data is nil for an unbound parent.
type Factory func(ctx context.Context, data url.Values, prefix string, params Params) (Collection, error)

// RecordStore saves and lists records. *store.DB implements it.
type RecordStore interface {
	forms.RecordSaver
	List(ctx context.Context, table store.Table, where map[string]any) ([]*store.Record, error)
}

// FormsetFactory builds plain formsets over fields.
func FormsetFactory(fields []model.Field, options ...formset.Option) Factory {
	return func(_ context.Context, data url.Values, prefix string, _ Params) (Collection, error) {
		return formset.New(fields, binding(options, data, prefix)...), nil
	}
}

// ModelFormsetFactory builds formsets that create records in table.
func ModelFormsetFactory(saver forms.RecordSaver, table store.Table, fields []model.Field, options ...formset.Option) Factory {
	return func(_ context.Context, data url.Values, prefix string, _ Params) (Collection, error) {
		return formset.NewModel(saver, table, fields, binding(options, data, prefix)...), nil
	}
}

// InlineFormsetFactory builds formsets over the rows of table whose
// foreignKey references the parent's record. Existing children of a saved
// parent fill the leading forms.
func InlineFormsetFactory(records RecordStore, table store.Table, foreignKey string, fields []model.Field, options ...formset.Option) Factory {
	return func(ctx context.Context, data url.Values, prefix string, params Params) (Collection, error) {
		opts := binding(options, data, prefix)
		if params.Instance.Saved() {
			children, err := records.List(ctx, table, map[string]any{foreignKey: params.Instance.ID})
			if err != nil {
				return nil, errors.Wrapf(err, "nested: load %s children", table.Name)
			}
			opts = append(opts, formset.WithRecords(children...))
		}
		return formset.NewInline(records, table, foreignKey, params.Instance, fields, opts...), nil
	}
}

func binding(options []formset.Option, data url.Values, prefix string) []formset.Option {
	out := make([]formset.Option, 0, len(options)+2)
	out = append(out, options...)
	out = append(out, formset.WithPrefix(prefix))
	if data != nil {
		out = append(out, formset.WithData(data))
	}
	return out
}
