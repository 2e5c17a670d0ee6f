package forms

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"unicode/utf8"

	"github.com/goliatone/go-nestedforms/pkg/model"
)

const msgRequired = "This field is required."

func (f *Form) fullClean() {
	f.errors = Errors{}
	f.cleaned = make(map[string]any)
	if !f.bound {
		return
	}
	if f.emptyPermitted && !f.HasChanged() {
		return
	}

	for _, field := range f.fields {
		raw := strings.TrimSpace(f.data.Get(f.AddPrefix(field.Name)))
		if f.sanitizer != nil && raw != "" {
			raw = strings.TrimSpace(f.sanitizer.Sanitize(raw))
		}
		value, messages := cleanField(field, raw)
		if len(messages) > 0 {
			f.errors[field.Name] = messages
			continue
		}
		f.cleaned[field.Name] = value
	}

	if len(f.errors) > 0 {
		f.logger.Debugw("form invalid", "prefix", f.prefix, "errors", len(f.errors))
		return
	}
	for _, validate := range f.validators {
		if validate == nil {
			continue
		}
		if err := validate(f.cleaned); err != nil {
			f.errors.Add(NonFieldErrors, err.Error())
		}
	}
}

func cleanField(field model.Field, raw string) (any, []string) {
	if field.Type == model.FieldTypeBoolean {
		value := checked(raw)
		if field.Required && !value {
			return nil, []string{msgRequired}
		}
		return value, nil
	}

	if raw == "" {
		if field.Required {
			return nil, []string{msgRequired}
		}
		return nil, nil
	}

	var (
		value    any = raw
		messages []string
	)
	switch field.Type {
	case model.FieldTypeInteger:
		n, err := strconv.Atoi(raw)
		if err != nil {
			return nil, []string{"Enter a whole number."}
		}
		value = n
		messages = append(messages, checkBounds(field, float64(n))...)
	case model.FieldTypeNumber:
		n, err := strconv.ParseFloat(raw, 64)
		if err != nil {
			return nil, []string{"Enter a number."}
		}
		value = n
		messages = append(messages, checkBounds(field, n)...)
	default:
		messages = append(messages, checkText(field, raw)...)
	}

	if len(field.Enum) > 0 && !inEnum(field.Enum, raw) {
		messages = append(messages, fmt.Sprintf("Select a valid choice. %s is not one of the available choices.", raw))
	}
	if len(messages) > 0 {
		return nil, messages
	}
	return value, nil
}

func checkText(field model.Field, raw string) []string {
	var messages []string
	length := utf8.RuneCountInString(raw)
	if rule, ok := field.Rule(model.ValidationRuleMaxLength); ok {
		if limit, err := strconv.Atoi(rule.Params["value"]); err == nil && length > limit {
			messages = append(messages, fmt.Sprintf("Ensure this value has at most %d characters (it has %d).", limit, length))
		}
	}
	if rule, ok := field.Rule(model.ValidationRuleMinLength); ok {
		if limit, err := strconv.Atoi(rule.Params["value"]); err == nil && length < limit {
			messages = append(messages, fmt.Sprintf("Ensure this value has at least %d characters (it has %d).", limit, length))
		}
	}
	if rule, ok := field.Rule(model.ValidationRulePattern); ok {
		if expr, err := regexp.Compile(rule.Params["pattern"]); err == nil && !expr.MatchString(raw) {
			messages = append(messages, "Enter a valid value.")
		}
	}
	return messages
}

func checkBounds(field model.Field, n float64) []string {
	var messages []string
	if rule, ok := field.Rule(model.ValidationRuleMin); ok {
		limit, err := strconv.ParseFloat(rule.Params["value"], 64)
		exclusive := rule.Params["exclusive"] == "true"
		if err == nil && (n < limit || (exclusive && n == limit)) {
			messages = append(messages, boundMessage("greater than", rule.Params["value"], exclusive))
		}
	}
	if rule, ok := field.Rule(model.ValidationRuleMax); ok {
		limit, err := strconv.ParseFloat(rule.Params["value"], 64)
		exclusive := rule.Params["exclusive"] == "true"
		if err == nil && (n > limit || (exclusive && n == limit)) {
			messages = append(messages, boundMessage("less than", rule.Params["value"], exclusive))
		}
	}
	return messages
}

func boundMessage(relation, limit string, exclusive bool) string {
	if exclusive {
		return fmt.Sprintf("Ensure this value is %s %s.", relation, limit)
	}
	return fmt.Sprintf("Ensure this value is %s or equal to %s.", relation, limit)
}

func inEnum(enum []any, raw string) bool {
	for _, option := range enum {
		if fmt.Sprint(option) == raw {
			return true
		}
	}
	return false
}

func checked(raw string) bool {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "", "0", "false", "off", "no":
		return false
	default:
		return true
	}
}
