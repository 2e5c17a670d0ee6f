package forms

import (
	"net/url"

	"github.com/microcosm-cc/bluemonday"
	"go.uber.org/zap"

	"github.com/goliatone/go-nestedforms/pkg/store"
)

// Option customises a Form.
type Option func(*Form)

// Validator runs after every field cleaned successfully and may reject the
// combination of values. Returned errors become non-field errors.
type Validator func(cleaned map[string]any) error

// WithData binds the form to submitted data. A nil map leaves it unbound.
func WithData(data url.Values) Option {
	return func(f *Form) {
		f.data = data
		f.bound = data != nil
	}
}

// WithPrefix namespaces every field name as "<prefix>-<name>".
func WithPrefix(prefix string) Option {
	return func(f *Form) {
		f.prefix = prefix
	}
}

// WithInitial sets the values shown by an unbound form and used to detect
// changes on a bound one.
func WithInitial(initial map[string]any) Option {
	return func(f *Form) {
		for key, value := range initial {
			f.initial[key] = value
		}
	}
}

// WithInstance binds a form to an existing record; its values become the
// initial data. Only ModelForm persists it.
func WithInstance(rec *store.Record) Option {
	return func(f *Form) {
		if rec == nil {
			return
		}
		f.instance = rec
		for key, value := range rec.Values {
			if _, ok := f.initial[key]; !ok {
				f.initial[key] = value
			}
		}
	}
}

// WithEmptyPermitted lets a bound form that the user left untouched validate
// without enforcing required fields.
func WithEmptyPermitted(permitted bool) Option {
	return func(f *Form) {
		f.emptyPermitted = permitted
	}
}

// WithSanitizer passes every submitted string through policy before it is
// validated.
func WithSanitizer(policy *bluemonday.Policy) Option {
	return func(f *Form) {
		f.sanitizer = policy
	}
}

// WithValidators registers form-wide validators.
func WithValidators(validators ...Validator) Option {
	return func(f *Form) {
		f.validators = append(f.validators, validators...)
	}
}

// WithLogger attaches a logger.
func WithLogger(logger *zap.SugaredLogger) Option {
	return func(f *Form) {
		if logger != nil {
			f.logger = logger
		}
	}
}
