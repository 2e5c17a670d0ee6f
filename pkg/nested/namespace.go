package nested

import (
	"context"
	"net/url"

	"github.com/cockroachdb/errors"
)

// Namespace returns the prefix of the formset nested under key.
func Namespace(parent Parent, key string) string {
	return parent.AddPrefix(key)
}

// bind builds the formset for decl. It is bound to the parent's data exactly
// when the parent is bound, and namespaced under the parent's prefix.
func bind(ctx context.Context, parent Parent, decl Declaration, params Params) (Collection, error) {
	var data url.Values
	if parent.IsBound() {
		data = parent.Data()
		if data == nil {
			data = url.Values{}
		}
	}
	collection, err := decl.Factory(ctx, data, Namespace(parent, decl.Key), params)
	if err != nil {
		return nil, errors.Wrapf(err, "nested: build formset %q", decl.Key)
	}
	if collection == nil {
		return nil, errors.Newf("nested: factory for %q returned no formset", decl.Key)
	}
	return collection, nil
}
