// Package nested embeds formsets in a parent form so that validating and
// saving the parent cascades to its children.
//
// The cascade is built from one primitive, an Extension: a function that runs
// before a lifecycle method and returns the continuation to run after it,
// receiving (and possibly replacing) the method's result. Wrap splices an
// extension around a method. A Policy declares which formsets to nest and
// holds an explicit table mapping each lifecycle Event to its extension:
//
//	construct  instantiate every declared formset under a prefixed namespace
//	validate   AND the parent's validity with every declared formset's
//	persist    save every declared formset after the parent (model variants)
//
// Decorate checks the policies against the capabilities of a parent type and
// composes the wrapped method chains once. Decorator.Nest then binds a parent
// instance:
//
//	decorator := nested.Decorate[*forms.ModelForm](
//		nested.Inline(db, nested.Declare("child", nested.InlineFormsetFactory(db, children, "parent_id", fields))),
//	)
//	form, err := decorator.Nest(ctx, forms.NewModelForm(db, parents, fields, forms.WithData(data)))
//	if err != nil {
//		return err
//	}
//	if form.IsValid() {
//		rec, err := form.Save(ctx, true)
//		...
//	}
package nested
