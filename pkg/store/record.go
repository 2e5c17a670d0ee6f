package store

import (
	"fmt"
	"sort"
)

// IDColumn is the primary key column every table carries.
const IDColumn = "id"

// Record is a single stored row. ID is zero until the record is first saved.
type Record struct {
	ID     int64
	Values map[string]any
}

// NewRecord returns an unsaved record holding a copy of values.
func NewRecord(values map[string]any) *Record {
	rec := &Record{Values: make(map[string]any, len(values))}
	for key, value := range values {
		rec.Values[key] = value
	}
	return rec
}

// Saved reports whether the record has been written at least once.
func (r *Record) Saved() bool {
	return r != nil && r.ID != 0
}

// Get returns the value stored for column.
func (r *Record) Get(column string) any {
	if r == nil {
		return nil
	}
	if column == IDColumn {
		return r.ID
	}
	return r.Values[column]
}

// String returns the value for column formatted as text; nil becomes "".
func (r *Record) String(column string) string {
	value := r.Get(column)
	if value == nil {
		return ""
	}
	return fmt.Sprint(value)
}

// Set assigns a column value.
func (r *Record) Set(column string, value any) {
	if r.Values == nil {
		r.Values = make(map[string]any)
	}
	r.Values[column] = value
}

// Table declares a stored table. ForeignKeys maps a column to the table it
// references.
type Table struct {
	Name        string
	Columns     []string
	ForeignKeys map[string]string
}

// HasColumn reports whether column belongs to the table.
func (t Table) HasColumn(column string) bool {
	for _, candidate := range t.Columns {
		if candidate == column {
			return true
		}
	}
	return false
}

// row restricts values to declared columns so stray form data never reaches
// the database.
func (t Table) row(values map[string]any) map[string]any {
	out := make(map[string]any, len(t.Columns))
	for _, column := range t.Columns {
		if value, ok := values[column]; ok {
			out[column] = value
		}
	}
	return out
}

func sortedColumns(values map[string]any) []string {
	columns := make([]string, 0, len(values))
	for column := range values {
		columns = append(columns, column)
	}
	sort.Strings(columns)
	return columns
}
