package render

import (
	"fmt"
	"net/url"
	"sort"
	"strings"
)

// HiddenField is a hidden input a rendered form must submit unchanged, such
// as a formset management count.
type HiddenField struct {
	Name  string
	Value string
}

// Hidden returns a HiddenField for an arbitrary name/value pair.
func Hidden(name string, value any) HiddenField {
	return HiddenField{
		Name:  strings.TrimSpace(name),
		Value: fmt.Sprint(value),
	}
}

// ApplyHidden returns a copy of values with fields set. Empty names are
// ignored; later fields win on name collisions.
func ApplyHidden(values url.Values, fields ...HiddenField) url.Values {
	out := make(url.Values, len(values)+len(fields))
	for key, list := range values {
		out[key] = append([]string(nil), list...)
	}
	for _, field := range fields {
		if field.Name == "" {
			continue
		}
		out.Set(field.Name, field.Value)
	}
	return out
}

// SortedHiddenFields orders fields by name for deterministic output,
// dropping empty names and keeping the last value of duplicates.
func SortedHiddenFields(fields ...HiddenField) []HiddenField {
	byName := make(map[string]string, len(fields))
	for _, field := range fields {
		if name := strings.TrimSpace(field.Name); name != "" {
			byName[name] = field.Value
		}
	}
	if len(byName) == 0 {
		return nil
	}
	names := make([]string, 0, len(byName))
	for name := range byName {
		names = append(names, name)
	}
	sort.Strings(names)

	out := make([]HiddenField, 0, len(names))
	for _, name := range names {
		out = append(out, HiddenField{Name: name, Value: byName[name]})
	}
	return out
}
