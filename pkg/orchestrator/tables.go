package orchestrator

import (
	"github.com/goliatone/go-nestedforms/pkg/model"
	"github.com/goliatone/go-nestedforms/pkg/store"
)

// ParentTable returns the table the parent form writes to.
func ParentTable(form model.FormModel) store.Table {
	return store.Table{Name: form.Table, Columns: fieldNames(form.Fields)}
}

// ChildTable returns the table a model or inline formset writes to. Inline
// tables reference the parent table through the foreign key column.
func ChildTable(form model.FormModel, declared model.FormsetModel) store.Table {
	table := store.Table{Name: declared.Table, Columns: fieldNames(declared.Fields)}
	if declared.Kind == model.FormsetKindInline && declared.ForeignKey != "" {
		if !table.HasColumn(declared.ForeignKey) {
			table.Columns = append([]string{declared.ForeignKey}, table.Columns...)
		}
		table.ForeignKeys = map[string]string{declared.ForeignKey: form.Table}
	}
	return table
}

// Tables returns every table the declaration persists to, parents first, for
// migrations.
func Tables(form model.FormModel) []store.Table {
	var tables []store.Table
	if form.Table != "" {
		tables = append(tables, ParentTable(form))
	}
	for _, declared := range form.Formsets {
		if declared.Kind.Persistent() && declared.Table != "" {
			tables = append(tables, ChildTable(form, declared))
		}
	}
	return tables
}

func fieldNames(fields []model.Field) []string {
	names := make([]string, 0, len(fields))
	for _, field := range fields {
		names = append(names, field.Name)
	}
	return names
}
