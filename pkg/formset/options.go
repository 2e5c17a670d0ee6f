package formset

import (
	"net/url"

	"go.uber.org/zap"

	"github.com/goliatone/go-nestedforms/pkg/forms"
	"github.com/goliatone/go-nestedforms/pkg/store"
)

// Option customises a Formset.
type Option func(*Formset)

// WithData binds the formset to submitted data. A nil map leaves it unbound.
func WithData(data url.Values) Option {
	return func(fs *Formset) {
		fs.data = data
		fs.bound = data != nil
	}
}

// WithPrefix overrides DefaultPrefix.
func WithPrefix(prefix string) Option {
	return func(fs *Formset) {
		if prefix != "" {
			fs.prefix = prefix
		}
	}
}

// WithExtra sets how many blank forms an unbound formset shows.
func WithExtra(extra int) Option {
	return func(fs *Formset) {
		if extra >= 0 {
			fs.extra = extra
		}
	}
}

// WithMinNum sets the minimum number of forms. Enforced only together with
// WithValidateMin.
func WithMinNum(n int, validate bool) Option {
	return func(fs *Formset) {
		fs.minNum = n
		fs.validateMin = validate
	}
}

// WithMaxNum caps the number of forms shown. Submissions above it are
// rejected only when validate is true.
func WithMaxNum(n int, validate bool) Option {
	return func(fs *Formset) {
		if n > 0 {
			fs.maxNum = n
		}
		fs.validateMax = validate
	}
}

// WithInitial provides initial values for the leading forms.
func WithInitial(initial ...map[string]any) Option {
	return func(fs *Formset) {
		fs.initial = append(fs.initial, initial...)
	}
}

// WithRecords makes the leading forms of a model formset edit existing
// records.
func WithRecords(records ...*store.Record) Option {
	return func(fs *Formset) {
		fs.records = append(fs.records, records...)
	}
}

// WithFormOptions forwards options to every form the formset builds.
func WithFormOptions(options ...forms.Option) Option {
	return func(fs *Formset) {
		fs.formOptions = append(fs.formOptions, options...)
	}
}

// WithLogger attaches a logger.
func WithLogger(logger *zap.SugaredLogger) Option {
	return func(fs *Formset) {
		if logger != nil {
			fs.logger = logger
		}
	}
}

// WithFormBuilder replaces how a plain formset builds its forms, for example
// to nest formsets inside each form. Model formsets always build model forms
// and ignore it.
func WithFormBuilder(build FormBuilder) Option {
	return func(fs *Formset) {
		fs.build = build
	}
}
