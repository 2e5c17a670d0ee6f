package model

import (
	"regexp"
	"strconv"
	"strings"

	"github.com/cockroachdb/errors"
)

var (
	errFormIDMissing    = errors.New("model: form id is required")
	errFieldsMissing    = errors.New("model: at least one field is required")
	errFieldNameMissing = errors.New("model: field name is required")
)

// Validate checks a declaration before it is turned into forms. It reports
// the first problem found.
func Validate(form FormModel) error {
	if strings.TrimSpace(form.ID) == "" {
		return errFormIDMissing
	}
	if err := validateFields(form.Fields); err != nil {
		return errors.Wrapf(err, "model: form %q", form.ID)
	}

	keys := make(map[string]struct{}, len(form.Formsets))
	for _, fs := range form.Formsets {
		key := strings.TrimSpace(fs.Key)
		if key == "" {
			return errors.Newf("model: form %q declares a formset without key", form.ID)
		}
		if _, dup := keys[key]; dup {
			return errors.Newf("model: form %q declares formset %q twice", form.ID, key)
		}
		keys[key] = struct{}{}
		if err := validateFormset(form, fs); err != nil {
			return err
		}
	}
	return nil
}

func validateFormset(form FormModel, fs FormsetModel) error {
	switch fs.Kind {
	case "", FormsetKindPlain:
	case FormsetKindModel, FormsetKindInline:
		if fs.Table == "" {
			return errors.Newf("model: formset %q of kind %s requires a table", fs.Key, fs.Kind)
		}
		if form.Table == "" {
			return errors.WithHint(
				errors.Newf("model: formset %q saves rows but form %q has no table", fs.Key, form.ID),
				"declare a table on the parent form or use kind: plain",
			)
		}
	default:
		return errors.Newf("model: formset %q has unknown kind %q", fs.Key, fs.Kind)
	}
	if fs.Kind == FormsetKindInline && fs.ForeignKey == "" {
		return errors.Newf("model: inline formset %q requires a foreignKey", fs.Key)
	}
	if fs.Extra != nil && *fs.Extra < 0 {
		return errors.Newf("model: formset %q has negative extra", fs.Key)
	}
	if fs.MaxNum > 0 && fs.MinNum > fs.MaxNum {
		return errors.Newf("model: formset %q has minNum above maxNum", fs.Key)
	}
	if err := validateFields(fs.Fields); err != nil {
		return errors.Wrapf(err, "model: formset %q", fs.Key)
	}
	return nil
}

func validateFields(fields []Field) error {
	if len(fields) == 0 {
		return errFieldsMissing
	}
	seen := make(map[string]struct{}, len(fields))
	for _, field := range fields {
		name := strings.TrimSpace(field.Name)
		if name == "" {
			return errFieldNameMissing
		}
		if _, dup := seen[name]; dup {
			return errors.Newf("field %q declared twice", name)
		}
		seen[name] = struct{}{}
		if err := validateRules(field); err != nil {
			return errors.Wrapf(err, "field %q", name)
		}
	}
	return nil
}

func validateRules(field Field) error {
	switch field.Type {
	case "", FieldTypeString, FieldTypeInteger, FieldTypeNumber, FieldTypeBoolean:
	default:
		return errors.Newf("unsupported type %q", field.Type)
	}
	for _, rule := range field.Validations {
		switch rule.Kind {
		case ValidationRuleMinLength, ValidationRuleMaxLength:
			if _, err := strconv.Atoi(rule.Params["value"]); err != nil {
				return errors.Newf("%s requires an integer value", rule.Kind)
			}
		case ValidationRuleMin, ValidationRuleMax:
			if _, err := strconv.ParseFloat(rule.Params["value"], 64); err != nil {
				return errors.Newf("%s requires a numeric value", rule.Kind)
			}
		case ValidationRulePattern:
			if _, err := regexp.Compile(rule.Params["pattern"]); err != nil {
				return errors.Wrap(err, "pattern does not compile")
			}
		default:
			return errors.Newf("unknown validation rule %q", rule.Kind)
		}
	}
	return nil
}
