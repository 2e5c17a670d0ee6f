package render

import (
	"sort"
	"strings"

	"github.com/goliatone/go-nestedforms/pkg/forms"
)

// ErrorMapping splits error messages into input-level messages, keyed by the
// prefixed input names a submission uses, and form-level messages.
type ErrorMapping struct {
	Fields map[string][]string
	Form   []string
}

// Group is a repeatable set of forms, such as a formset.
type Group interface {
	Prefix() string
	Forms() []*forms.Form
	NonFormErrors() []string
}

// Parent is a group whose forms host groups of their own.
type Parent interface {
	Groups() []Group
}

// Flatten lists groups followed, depth first, by the groups nested in their
// forms.
func Flatten(groups ...Group) []Group {
	var out []Group
	for _, group := range groups {
		if group == nil {
			continue
		}
		out = append(out, group)
		if parent, ok := group.(Parent); ok {
			out = append(out, Flatten(parent.Groups()...)...)
		}
	}
	return out
}

// CollectErrors gathers the errors of form and of every form in groups into
// one mapping. Non-field errors of the parent and non-form errors of each
// group are form-level; non-field errors of a child form are keyed by the
// child prefix. Groups nested in the forms of a Parent group are included.
func CollectErrors(form *forms.Form, groups ...Group) ErrorMapping {
	mapping := ErrorMapping{Fields: make(map[string][]string)}
	if form != nil {
		for name, messages := range form.Errors() {
			if name == forms.NonFieldErrors {
				mapping.Form = append(mapping.Form, messages...)
				continue
			}
			mapping.Fields[form.AddPrefix(name)] = append(mapping.Fields[form.AddPrefix(name)], messages...)
		}
	}
	for _, group := range Flatten(groups...) {
		for _, child := range group.Forms() {
			for name, messages := range child.Errors() {
				key := child.AddPrefix(name)
				if name == forms.NonFieldErrors {
					key = child.Prefix()
				}
				mapping.Fields[key] = append(mapping.Fields[key], messages...)
			}
		}
		mapping.Form = append(mapping.Form, group.NonFormErrors()...)
	}

	if len(mapping.Fields) == 0 {
		mapping.Fields = nil
	}
	mapping.Form = normalizeMessages(mapping.Form)
	return mapping
}

// InputNames lists every prefixed input name form and groups accept, sorted.
func InputNames(form *forms.Form, groups ...Group) []string {
	seen := make(map[string]struct{})
	if form != nil {
		for _, name := range form.FieldNames() {
			seen[form.AddPrefix(name)] = struct{}{}
		}
	}
	for _, group := range Flatten(groups...) {
		for _, child := range group.Forms() {
			for _, name := range child.FieldNames() {
				seen[child.AddPrefix(name)] = struct{}{}
			}
		}
	}
	names := make([]string, 0, len(seen))
	for name := range seen {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// MergeFormErrors concatenates and normalises form-level messages, trimming
// whitespace and removing duplicates while preserving order.
func MergeFormErrors(existing []string, extras ...string) []string {
	combined := make([]string, 0, len(existing)+len(extras))
	combined = append(combined, existing...)
	combined = append(combined, extras...)
	return normalizeMessages(combined)
}

// MapErrorPayload maps an error payload keyed by JSON pointers or dotted paths
// (for example "/child/0/sample_field" or "child.0.sample_field") onto the
// prefixed input names in inputs ("child-0-sample_field"). Paths that match
// no input become form-level messages so nothing is lost.
func MapErrorPayload(inputs []string, payload map[string][]string) ErrorMapping {
	mapping := ErrorMapping{Fields: make(map[string][]string)}
	if len(payload) == 0 {
		mapping.Fields = nil
		return mapping
	}

	known := make(map[string]struct{}, len(inputs))
	for _, name := range inputs {
		known[name] = struct{}{}
	}

	keys := make([]string, 0, len(payload))
	for key := range payload {
		keys = append(keys, key)
	}
	sort.Strings(keys)

	for _, rawPath := range keys {
		messages := normalizeMessages(payload[rawPath])
		if len(messages) == 0 {
			continue
		}
		name, ok := mapErrorPath(rawPath, known)
		if !ok {
			mapping.Form = append(mapping.Form, messages...)
			continue
		}
		mapping.Fields[name] = append(mapping.Fields[name], messages...)
	}

	if len(mapping.Fields) == 0 {
		mapping.Fields = nil
	}
	mapping.Form = normalizeMessages(mapping.Form)
	return mapping
}

func normalizeMessages(messages []string) []string {
	if len(messages) == 0 {
		return nil
	}

	out := make([]string, 0, len(messages))
	seen := make(map[string]struct{}, len(messages))
	for _, message := range messages {
		trimmed := strings.TrimSpace(message)
		if trimmed == "" {
			continue
		}
		if _, exists := seen[trimmed]; exists {
			continue
		}
		seen[trimmed] = struct{}{}
		out = append(out, trimmed)
	}
	if len(out) == 0 {
		return nil
	}
	return out
}

func mapErrorPath(raw string, known map[string]struct{}) (string, bool) {
	if isFormLevelKey(raw) {
		return "", false
	}
	segments := parsePathSegments(raw)
	if len(segments) == 0 {
		return "", false
	}
	for _, variant := range [][]string{segments, dropWrapperSegments(segments)} {
		if name := longestMatchingInput(variant, known); name != "" {
			return name, true
		}
	}
	return "", false
}

func parsePathSegments(path string) []string {
	clean := strings.TrimSpace(path)
	clean = strings.TrimLeft(clean, "#$/.")
	replacer := strings.NewReplacer("[", ".", "]", "")
	clean = strings.Trim(replacer.Replace(clean), "./")
	if clean == "" {
		return nil
	}

	parts := strings.FieldsFunc(clean, func(r rune) bool {
		return r == '.' || r == '/'
	})
	out := make([]string, 0, len(parts))
	for _, part := range parts {
		segment := strings.TrimSpace(part)
		if segment == "" {
			continue
		}
		segment = strings.ReplaceAll(segment, "~1", "/")
		segment = strings.ReplaceAll(segment, "~0", "~")
		out = append(out, segment)
	}
	return out
}

func dropWrapperSegments(segments []string) []string {
	out := segments
	for len(out) > 0 {
		switch strings.ToLower(out[0]) {
		case "body", "request", "payload", "data":
			out = out[1:]
			continue
		}
		break
	}
	return out
}

// longestMatchingInput joins segments with the prefix separator and returns
// the longest leading run naming a known input.
func longestMatchingInput(segments []string, known map[string]struct{}) string {
	for end := len(segments); end > 0; end-- {
		candidate := strings.Join(segments[:end], "-")
		if _, ok := known[candidate]; ok {
			return candidate
		}
	}
	return ""
}

func isFormLevelKey(key string) bool {
	switch strings.ToLower(strings.TrimSpace(key)) {
	case "", ".", "/", "#", "$", "form", forms.NonFieldErrors, "non_field_errors", "non-field-errors":
		return true
	default:
		return false
	}
}
