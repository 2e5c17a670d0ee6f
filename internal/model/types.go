package model

// FieldType is the simplified enum for form-friendly field kinds.
type FieldType string

const (
	FieldTypeString  FieldType = "string"
	FieldTypeInteger FieldType = "integer"
	FieldTypeNumber  FieldType = "number"
	FieldTypeBoolean FieldType = "boolean"
)

const (
	ValidationRuleMin       = "min"
	ValidationRuleMax       = "max"
	ValidationRuleMinLength = "minLength"
	ValidationRuleMaxLength = "maxLength"
	ValidationRulePattern   = "pattern"
)

// FormsetKind selects how a nested child collection is persisted.
type FormsetKind string

const (
	// FormsetKindPlain collections validate only.
	FormsetKindPlain FormsetKind = "plain"
	// FormsetKindModel collections save their own rows alongside the parent.
	FormsetKindModel FormsetKind = "model"
	// FormsetKindInline collections save rows that reference the parent row.
	FormsetKindInline FormsetKind = "inline"
)

// ValidationRule represents a single validation constraint applied to a field.
// Numeric bounds and length limits encode their threshold in Params["value"]
// while pattern rules keep the expression in Params["pattern"]. Exclusive
// bounds set Params["exclusive"] to "true".
type ValidationRule struct {
	Kind   string            `json:"kind" yaml:"kind"`
	Params map[string]string `json:"params,omitempty" yaml:"params,omitempty"`
}

// Field declares a single input of a form.
type Field struct {
	Name        string            `json:"name" yaml:"name"`
	Type        FieldType         `json:"type,omitempty" yaml:"type,omitempty"`
	Format      string            `json:"format,omitempty" yaml:"format,omitempty"`
	Required    bool              `json:"required" yaml:"required"`
	Label       string            `json:"label,omitempty" yaml:"label,omitempty"`
	Description string            `json:"description,omitempty" yaml:"description,omitempty"`
	Default     any               `json:"default,omitempty" yaml:"default,omitempty"`
	Enum        []any             `json:"enum,omitempty" yaml:"enum,omitempty"`
	Validations []ValidationRule  `json:"validations,omitempty" yaml:"validations,omitempty"`
	Metadata    map[string]string `json:"metadata,omitempty" yaml:"metadata,omitempty"`
}

// FormsetModel declares a repeatable child collection nested under a form.
// Key doubles as the namespace of the collection inside its parent.
type FormsetModel struct {
	Key        string      `json:"key" yaml:"key"`
	Kind       FormsetKind `json:"kind,omitempty" yaml:"kind,omitempty"`
	Table      string      `json:"table,omitempty" yaml:"table,omitempty"`
	ForeignKey string      `json:"foreignKey,omitempty" yaml:"foreignKey,omitempty"`
	Extra      *int        `json:"extra,omitempty" yaml:"extra,omitempty"`
	MinNum     int         `json:"minNum,omitempty" yaml:"minNum,omitempty"`
	MaxNum     int         `json:"maxNum,omitempty" yaml:"maxNum,omitempty"`
	Fields     []Field     `json:"fields" yaml:"fields"`
}

// FormModel is the top-level declaration of a parent form and the formsets it
// embeds. Table is only required when the form, or any of its formsets, is
// backed by stored records.
type FormModel struct {
	ID          string            `json:"id" yaml:"id"`
	Table       string            `json:"table,omitempty" yaml:"table,omitempty"`
	Prefix      string            `json:"prefix,omitempty" yaml:"prefix,omitempty"`
	Description string            `json:"description,omitempty" yaml:"description,omitempty"`
	Fields      []Field           `json:"fields" yaml:"fields"`
	Formsets    []FormsetModel    `json:"formsets,omitempty" yaml:"formsets,omitempty"`
	Metadata    map[string]string `json:"metadata,omitempty" yaml:"metadata,omitempty"`
}

// Persistent reports whether the formset writes rows when its parent saves.
func (k FormsetKind) Persistent() bool {
	return k == FormsetKindModel || k == FormsetKindInline
}

// Rule returns the first validation rule of the given kind.
func (f Field) Rule(kind string) (ValidationRule, bool) {
	for _, rule := range f.Validations {
		if rule.Kind == kind {
			return rule, true
		}
	}
	return ValidationRule{}, false
}

// DisplayLabel returns the explicit label or one derived from the name.
func (f Field) DisplayLabel() string {
	if f.Label != "" {
		return f.Label
	}
	return DefaultLabeler(f.Name)
}
