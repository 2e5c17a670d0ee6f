package openapi

import (
	"context"
	"os"
	"sort"
	"strconv"
	"strings"

	"github.com/cockroachdb/errors"
	"github.com/getkin/kin-openapi/openapi3"

	"github.com/goliatone/go-nestedforms/pkg/model"
)

// ErrSchemaNotFound is returned when the named component schema is absent.
var ErrSchemaNotFound = errors.New("openapi: schema not found")

// Load reads an OpenAPI document from path and converts a component schema.
func Load(ctx context.Context, path, component string) (model.FormModel, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return model.FormModel{}, errors.Wrapf(err, "openapi: read %s", path)
	}
	return FormModel(ctx, raw, component)
}

// FormModel converts the component schema named component into a form
// declaration with the component name as ID. Properties holding arrays of
// objects become plain formsets keyed by the property name.
func FormModel(ctx context.Context, raw []byte, component string) (model.FormModel, error) {
	schema, err := lookup(ctx, raw, component)
	if err != nil {
		return model.FormModel{}, err
	}

	form := model.FormModel{ID: component, Description: schema.Description}
	for _, name := range propertyNames(schema) {
		property := schema.Properties[name].Value
		if property == nil {
			continue
		}
		if items := arrayItems(property); items != nil {
			form.Formsets = append(form.Formsets, model.FormsetModel{
				Key:    name,
				Kind:   model.FormsetKindPlain,
				MinNum: int(property.MinItems),
				MaxNum: maxItems(property),
				Fields: convertFields(items),
			})
			continue
		}
		if field, ok := convertField(name, property, isRequired(schema, name)); ok {
			form.Fields = append(form.Fields, field)
		}
	}
	model.ApplyLabels(&form, model.DefaultLabeler)
	return form, nil
}

// Fields converts the scalar properties of the component schema.
func Fields(ctx context.Context, raw []byte, component string) ([]model.Field, error) {
	schema, err := lookup(ctx, raw, component)
	if err != nil {
		return nil, err
	}
	return convertFields(schema), nil
}

func lookup(ctx context.Context, raw []byte, component string) (*openapi3.Schema, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if len(raw) == 0 {
		return nil, errors.New("openapi: document payload is empty")
	}

	loader := &openapi3.Loader{Context: ctx}
	doc, err := loader.LoadFromData(raw)
	if err != nil {
		return nil, errors.Wrap(err, "openapi: load document")
	}
	if doc.Components == nil {
		return nil, errors.Wrapf(ErrSchemaNotFound, "openapi: %q", component)
	}
	ref, ok := doc.Components.Schemas[component]
	if !ok || ref == nil || ref.Value == nil {
		return nil, errors.Wrapf(ErrSchemaNotFound, "openapi: %q", component)
	}
	return ref.Value, nil
}

func convertFields(schema *openapi3.Schema) []model.Field {
	var fields []model.Field
	for _, name := range propertyNames(schema) {
		property := schema.Properties[name].Value
		if property == nil {
			continue
		}
		if field, ok := convertField(name, property, isRequired(schema, name)); ok {
			fields = append(fields, field)
		}
	}
	return fields
}

func convertField(name string, src *openapi3.Schema, required bool) (model.Field, bool) {
	fieldType := model.FieldType(firstSchemaType(src.Type))
	switch fieldType {
	case model.FieldTypeString, model.FieldTypeInteger, model.FieldTypeNumber, model.FieldTypeBoolean:
	default:
		return model.Field{}, false
	}

	field := model.Field{
		Name:        name,
		Type:        fieldType,
		Format:      src.Format,
		Required:    required,
		Label:       src.Title,
		Description: src.Description,
		Default:     src.Default,
	}
	if len(src.Enum) > 0 {
		field.Enum = append([]any(nil), src.Enum...)
	}
	field.Validations = validations(src)
	return field, true
}

func validations(src *openapi3.Schema) []model.ValidationRule {
	var rules []model.ValidationRule
	if src.MinLength != 0 {
		rules = append(rules, model.MinLength(int(src.MinLength)))
	}
	if src.MaxLength != nil {
		rules = append(rules, model.MaxLength(int(*src.MaxLength)))
	}
	if src.Pattern != "" {
		rules = append(rules, model.Pattern(src.Pattern))
	}
	if src.Min != nil {
		rules = append(rules, bound(model.ValidationRuleMin, *src.Min, src.ExclusiveMin))
	}
	if src.Max != nil {
		rules = append(rules, bound(model.ValidationRuleMax, *src.Max, src.ExclusiveMax))
	}
	return rules
}

func bound(kind string, value float64, exclusive bool) model.ValidationRule {
	params := map[string]string{"value": strconv.FormatFloat(value, 'f', -1, 64)}
	if exclusive {
		params["exclusive"] = "true"
	}
	return model.ValidationRule{Kind: kind, Params: params}
}

func arrayItems(src *openapi3.Schema) *openapi3.Schema {
	if firstSchemaType(src.Type) != "array" || src.Items == nil || src.Items.Value == nil {
		return nil
	}
	items := src.Items.Value
	if firstSchemaType(items.Type) != "object" && len(items.Properties) == 0 {
		return nil
	}
	return items
}

func maxItems(src *openapi3.Schema) int {
	if src.MaxItems == nil {
		return 0
	}
	return int(*src.MaxItems)
}

func propertyNames(schema *openapi3.Schema) []string {
	names := make([]string, 0, len(schema.Properties))
	for name := range schema.Properties {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

func isRequired(schema *openapi3.Schema, name string) bool {
	for _, candidate := range schema.Required {
		if candidate == name {
			return true
		}
	}
	return false
}

func firstSchemaType(types *openapi3.Types) string {
	if types == nil {
		return ""
	}
	values := types.Slice()
	switch len(values) {
	case 0:
		return ""
	case 1:
		return values[0]
	default:
		return strings.Join(values, ",")
	}
}
