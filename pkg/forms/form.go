package forms

import (
	"fmt"
	"net/url"
	"strings"

	"github.com/cockroachdb/errors"
	"github.com/microcosm-cc/bluemonday"
	"go.uber.org/zap"

	"github.com/goliatone/go-nestedforms/pkg/model"
	"github.com/goliatone/go-nestedforms/pkg/store"
)

// NonFieldErrors is the Errors key holding messages not tied to one field.
const NonFieldErrors = "__all__"

// Sentinel errors.
var (
	ErrInvalid = errors.New("forms: data did not validate")
	ErrUnbound = errors.New("forms: form is not bound")
)

// Errors maps unprefixed field names (or NonFieldErrors) to messages.
type Errors map[string][]string

// Add appends a message for field.
func (e Errors) Add(field, message string) {
	e[field] = append(e[field], message)
}

// Form is a set of declared fields that can be bound to submitted data and
// validated.
type Form struct {
	fields         []model.Field
	data           url.Values
	bound          bool
	prefix         string
	initial        map[string]any
	instance       *store.Record
	emptyPermitted bool
	sanitizer      *bluemonday.Policy
	validators     []Validator
	logger         *zap.SugaredLogger

	errors  Errors
	cleaned map[string]any
}

// New builds a form over fields.
func New(fields []model.Field, options ...Option) *Form {
	f := &Form{
		fields:  append([]model.Field(nil), fields...),
		initial: make(map[string]any),
		logger:  zap.NewNop().Sugar(),
	}
	for _, opt := range options {
		if opt != nil {
			opt(f)
		}
	}
	return f
}

// IsBound reports whether the form was built with submitted data.
func (f *Form) IsBound() bool {
	return f.bound
}

// Data returns the submitted data; nil for an unbound form.
func (f *Form) Data() url.Values {
	return f.data
}

// Prefix returns the form's namespace, empty when none was set.
func (f *Form) Prefix() string {
	return f.prefix
}

// AddPrefix namespaces name with the form prefix.
func (f *Form) AddPrefix(name string) string {
	if f.prefix == "" {
		return name
	}
	return f.prefix + "-" + name
}

// Fields returns the declared fields.
func (f *Form) Fields() []model.Field {
	return f.fields
}

// FieldNames returns the declared field names in declaration order.
func (f *Form) FieldNames() []string {
	names := make([]string, len(f.fields))
	for i, field := range f.fields {
		names[i] = field.Name
	}
	return names
}

// Initial returns the initial value for name.
func (f *Form) Initial(name string) any {
	if value, ok := f.initial[name]; ok {
		return value
	}
	for _, field := range f.fields {
		if field.Name == name {
			return field.Default
		}
	}
	return nil
}

// Value returns what the form currently shows for name: the submitted string
// when bound, the initial value formatted as text otherwise.
func (f *Form) Value(name string) string {
	if f.bound {
		return f.data.Get(f.AddPrefix(name))
	}
	if initial := f.Initial(name); initial != nil {
		return fmt.Sprint(initial)
	}
	return ""
}

// HasChanged reports whether any submitted value differs from its initial
// value. Unbound forms never change.
func (f *Form) HasChanged() bool {
	if !f.bound {
		return false
	}
	for _, field := range f.fields {
		submitted := strings.TrimSpace(f.data.Get(f.AddPrefix(field.Name)))
		initial := ""
		if value := f.Initial(field.Name); value != nil {
			initial = fmt.Sprint(value)
		}
		if field.Type == model.FieldTypeBoolean {
			if checked(submitted) != checked(initial) {
				return true
			}
			continue
		}
		if submitted != initial {
			return true
		}
	}
	return false
}

// Validated reports whether validation already ran.
func (f *Form) Validated() bool {
	return f.errors != nil
}

// Errors validates the form on first use and returns the accumulated errors.
// Unbound forms report no errors.
func (f *Form) Errors() Errors {
	if f.errors == nil {
		f.fullClean()
	}
	return f.errors
}

// IsValid reports whether the form is bound and has no errors.
func (f *Form) IsValid() bool {
	return f.bound && len(f.Errors()) == 0
}

// CleanedData returns the typed values of a validated form. Fields that
// failed validation are absent.
func (f *Form) CleanedData() map[string]any {
	f.Errors()
	return f.cleaned
}

// AddError records an error after validation, for callers that detect
// problems outside field cleaning. Unknown fields are stored as non-field
// errors.
func (f *Form) AddError(field, message string) {
	errs := f.Errors()
	if field == "" || !f.hasField(field) {
		field = NonFieldErrors
	}
	errs.Add(field, message)
	delete(f.cleaned, field)
}

// String renders a debug description in the form
// <Form bound=true, valid=false, fields=(a;b)>.
func (f *Form) String() string {
	valid := "Unknown"
	if f.Validated() {
		valid = fmt.Sprint(f.bound && len(f.errors) == 0)
	}
	return fmt.Sprintf("<Form bound=%t, valid=%s, fields=(%s)>", f.bound, valid, strings.Join(f.FieldNames(), ";"))
}

func (f *Form) hasField(name string) bool {
	for _, field := range f.fields {
		if field.Name == name {
			return true
		}
	}
	return false
}
