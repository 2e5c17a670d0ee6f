package model

import internalmodel "github.com/goliatone/go-nestedforms/internal/model"

// FieldType re-exports the internal FieldType enumeration.
type FieldType = internalmodel.FieldType

const (
	FieldTypeString  = internalmodel.FieldTypeString
	FieldTypeInteger = internalmodel.FieldTypeInteger
	FieldTypeNumber  = internalmodel.FieldTypeNumber
	FieldTypeBoolean = internalmodel.FieldTypeBoolean
)

const (
	ValidationRuleMin       = internalmodel.ValidationRuleMin
	ValidationRuleMax       = internalmodel.ValidationRuleMax
	ValidationRuleMinLength = internalmodel.ValidationRuleMinLength
	ValidationRuleMaxLength = internalmodel.ValidationRuleMaxLength
	ValidationRulePattern   = internalmodel.ValidationRulePattern
)

// FormsetKind re-exports the internal FormsetKind enumeration.
type FormsetKind = internalmodel.FormsetKind

const (
	FormsetKindPlain  = internalmodel.FormsetKindPlain
	FormsetKindModel  = internalmodel.FormsetKindModel
	FormsetKindInline = internalmodel.FormsetKindInline
)

type ValidationRule = internalmodel.ValidationRule
type Field = internalmodel.Field
type FormsetModel = internalmodel.FormsetModel
type FormModel = internalmodel.FormModel

// Validate checks a declaration for structural problems.
func Validate(form FormModel) error {
	return internalmodel.Validate(form)
}

// DefaultLabeler derives a label from a field name.
func DefaultLabeler(name string) string {
	return internalmodel.DefaultLabeler(name)
}

// ApplyLabels fills empty labels of form's fields, and of its formsets'
// fields, using labeler.
func ApplyLabels(form *FormModel, labeler func(string) string) {
	internalmodel.ApplyLabels(form, labeler)
}

// MaxLength returns a maxLength rule.
func MaxLength(n int) ValidationRule {
	return ValidationRule{Kind: ValidationRuleMaxLength, Params: map[string]string{"value": itoa(n)}}
}

// MinLength returns a minLength rule.
func MinLength(n int) ValidationRule {
	return ValidationRule{Kind: ValidationRuleMinLength, Params: map[string]string{"value": itoa(n)}}
}

// Pattern returns a pattern rule.
func Pattern(expr string) ValidationRule {
	return ValidationRule{Kind: ValidationRulePattern, Params: map[string]string{"pattern": expr}}
}
