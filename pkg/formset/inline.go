package formset

import (
	"github.com/goliatone/go-nestedforms/pkg/forms"
	"github.com/goliatone/go-nestedforms/pkg/model"
	"github.com/goliatone/go-nestedforms/pkg/store"
)

// InlineFormset is a model formset whose records belong to one parent
// record through a foreign key column.
type InlineFormset struct {
	*ModelFormset
	foreignKey string
	instance   *store.Record
}

// NewInline builds a formset over the children of parent. The foreign key is
// read from parent when each child is saved, so an unsaved parent may be
// written first within the same save.
func NewInline(saver forms.RecordSaver, table store.Table, foreignKey string, parent *store.Record, fields []model.Field, options ...Option) *InlineFormset {
	if parent == nil {
		parent = store.NewRecord(nil)
	}
	filtered := make([]model.Field, 0, len(fields))
	for _, field := range fields {
		if field.Name != foreignKey {
			filtered = append(filtered, field)
		}
	}
	inline := &InlineFormset{
		ModelFormset: NewModel(saver, table, filtered, options...),
		foreignKey:   foreignKey,
		instance:     parent,
	}
	inline.stamp = func(rec *store.Record) {
		rec.Set(inline.foreignKey, inline.instance.ID)
	}
	return inline
}

// Instance returns the parent record.
func (in *InlineFormset) Instance() *store.Record {
	return in.instance
}

// ForeignKey returns the child column that references the parent.
func (in *InlineFormset) ForeignKey() string {
	return in.foreignKey
}
