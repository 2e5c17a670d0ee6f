package nested

import (
	"context"
	"net/url"

	"github.com/cockroachdb/errors"

	"github.com/goliatone/go-nestedforms/pkg/forms"
	"github.com/goliatone/go-nestedforms/pkg/formset"
	"github.com/goliatone/go-nestedforms/pkg/model"
	"github.com/goliatone/go-nestedforms/pkg/render"
)

// NestedFormset is a plain formset whose forms host formsets of their own.
// A formset nested under key "grand" in form i of a formset prefixed
// "parent-child" is prefixed "parent-child-i-grand".
type NestedFormset struct {
	*formset.Formset
	nested []*Form[*forms.Form]
}

// Nested returns form index with its nested formsets, or nil.
func (n *NestedFormset) Nested(index int) *Form[*forms.Form] {
	all := n.NestedForms()
	if index < 0 || index >= len(all) {
		return nil
	}
	return all[index]
}

// NestedForms returns every form with its nested formsets, in form order.
func (n *NestedFormset) NestedForms() []*Form[*forms.Form] {
	n.Forms()
	return n.nested
}

// IsValid validates the formset and the nested formsets of every form,
// without stopping at the first failure.
func (n *NestedFormset) IsValid() bool {
	valid := n.Formset.IsValid()
	for _, form := range n.NestedForms() {
		if !form.IsValid() {
			valid = false
		}
	}
	return valid
}

// Groups returns the formsets nested in every form, in form then key order,
// so render.CollectErrors reaches their errors.
func (n *NestedFormset) Groups() []render.Group {
	var groups []render.Group
	for _, form := range n.NestedForms() {
		for _, key := range form.Keys() {
			if group, ok := form.Formset(key).(render.Group); ok {
				groups = append(groups, group)
			}
		}
	}
	return groups
}

// NestedFormsetFactory builds plain formsets over fields whose forms are
// decorated with policies. Policies are checked against *forms.Form when the
// factory is created, so persisting policies panic with a *ConfigError.
func NestedFormsetFactory(fields []model.Field, policies []*Policy, options ...formset.Option) Factory {
	decorator := Decorate[*forms.Form](policies...)
	return func(ctx context.Context, data url.Values, prefix string, _ Params) (Collection, error) {
		n := &NestedFormset{}
		var buildErr error
		build := func(index int, opts []forms.Option) *forms.Form {
			form := forms.New(fields, opts...)
			nestedForm, err := decorator.Nest(ctx, form)
			if err != nil {
				if buildErr == nil {
					buildErr = errors.Wrapf(err, "nested: form %d of %q", index, prefix)
				}
				return form
			}
			n.nested = append(n.nested, nestedForm)
			return form
		}
		n.Formset = formset.New(fields, append(binding(options, data, prefix), formset.WithFormBuilder(build))...)
		n.Forms()
		if buildErr != nil {
			return nil, buildErr
		}
		return n, nil
	}
}
