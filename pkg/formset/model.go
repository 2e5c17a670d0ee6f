package formset

import (
	"context"

	"github.com/cockroachdb/errors"

	"github.com/goliatone/go-nestedforms/pkg/forms"
	"github.com/goliatone/go-nestedforms/pkg/model"
	"github.com/goliatone/go-nestedforms/pkg/store"
)

// ModelFormset is a formset whose forms edit records of one table.
type ModelFormset struct {
	*Formset
	saver forms.RecordSaver
	table store.Table
	// stamp runs on every instance right before it is written.
	stamp      func(*store.Record)
	modelForms []*forms.ModelForm
}

// NewModel builds a formset over table. Records passed via WithRecords back
// the leading forms, up to the initial form count; later forms create new
// records.
func NewModel(saver forms.RecordSaver, table store.Table, fields []model.Field, options ...Option) *ModelFormset {
	mf := &ModelFormset{
		Formset: New(fields, options...),
		saver:   saver,
		table:   table,
	}
	mf.build = func(index int, options []forms.Option) *forms.Form {
		if index < len(mf.records) && index < mf.InitialFormCount() {
			options = append(options, forms.WithInstance(mf.records[index]))
		}
		form := forms.NewModelForm(mf.saver, mf.table, mf.fields, options...)
		mf.modelForms = append(mf.modelForms, form)
		return form.Form
	}
	return mf
}

// Table returns the table the forms write to.
func (mf *ModelFormset) Table() store.Table {
	return mf.table
}

// Records returns the existing records the formset edits.
func (mf *ModelFormset) Records() []*store.Record {
	return mf.records
}

// ModelForms returns the formset's forms with their persistence handles.
func (mf *ModelFormset) ModelForms() []*forms.ModelForm {
	mf.Forms()
	return mf.modelForms
}

// Save writes every changed form and returns the written instances in form
// order. With commit false the instances are populated but not written.
func (mf *ModelFormset) Save(ctx context.Context, commit bool) ([]*store.Record, error) {
	if !mf.bound {
		return nil, errors.Wrapf(forms.ErrUnbound, "formset: save %q", mf.prefix)
	}
	if !mf.IsValid() {
		return nil, errors.Wrapf(forms.ErrInvalid, "formset: %q could not be saved", mf.prefix)
	}

	changed := make(map[*forms.Form]bool)
	for _, form := range mf.ChangedForms() {
		changed[form] = true
	}
	var saved []*store.Record
	for _, form := range mf.ModelForms() {
		if !changed[form.Form] {
			continue
		}
		rec, err := form.Save(ctx, false)
		if err != nil {
			return saved, err
		}
		if mf.stamp != nil {
			mf.stamp(rec)
		}
		if commit {
			if mf.saver == nil {
				return saved, errors.Newf("formset: no store configured for %q", mf.table.Name)
			}
			if err := mf.saver.Save(ctx, mf.table, rec); err != nil {
				return saved, errors.Wrapf(err, "formset: save %s", form.Prefix())
			}
		}
		saved = append(saved, rec)
	}
	mf.logger.Debugw("model formset saved", "prefix", mf.prefix, "table", mf.table.Name, "records", len(saved), "commit", commit)
	return saved, nil
}
