package forms

import (
	"context"

	"github.com/cockroachdb/errors"

	"github.com/goliatone/go-nestedforms/pkg/model"
	"github.com/goliatone/go-nestedforms/pkg/store"
)

// RecordSaver writes a record to a table. *store.DB implements it.
type RecordSaver interface {
	Save(ctx context.Context, table store.Table, rec *store.Record) error
}

// ModelForm is a Form backed by a stored record.
type ModelForm struct {
	*Form
	saver RecordSaver
	table store.Table
}

// NewModelForm builds a form whose cleaned data is written to table. When no
// WithInstance option is given the form edits a new, unsaved record.
func NewModelForm(saver RecordSaver, table store.Table, fields []model.Field, options ...Option) *ModelForm {
	f := New(fields, options...)
	if f.instance == nil {
		f.instance = store.NewRecord(nil)
	}
	return &ModelForm{Form: f, saver: saver, table: table}
}

// Instance returns the record the form edits. It may not be saved yet.
func (m *ModelForm) Instance() *store.Record {
	return m.instance
}

// Table returns the table the form writes to.
func (m *ModelForm) Table() store.Table {
	return m.table
}

// Save copies the cleaned data into the instance and, when commit is true,
// writes it. Saving a form with errors fails with ErrInvalid.
func (m *ModelForm) Save(ctx context.Context, commit bool) (*store.Record, error) {
	if !m.bound {
		return nil, errors.Wrapf(ErrUnbound, "forms: save %q", m.table.Name)
	}
	if len(m.Errors()) > 0 {
		return nil, errors.Wrapf(ErrInvalid, "forms: %q could not be saved", m.table.Name)
	}

	for _, field := range m.fields {
		if !m.table.HasColumn(field.Name) {
			continue
		}
		value, ok := m.cleaned[field.Name]
		if !ok {
			continue
		}
		m.instance.Set(field.Name, value)
	}

	if !commit {
		return m.instance, nil
	}
	if m.saver == nil {
		return nil, errors.Newf("forms: no store configured for %q", m.table.Name)
	}
	if err := m.saver.Save(ctx, m.table, m.instance); err != nil {
		return nil, err
	}
	m.logger.Debugw("model form saved", "table", m.table.Name, "id", m.instance.ID)
	return m.instance, nil
}
