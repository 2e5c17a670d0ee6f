package formset

import (
	"fmt"
	"net/url"
	"strconv"
	"strings"

	"github.com/cockroachdb/errors"
	"go.uber.org/zap"

	"github.com/goliatone/go-nestedforms/pkg/forms"
	"github.com/goliatone/go-nestedforms/pkg/model"
	"github.com/goliatone/go-nestedforms/pkg/render"
	"github.com/goliatone/go-nestedforms/pkg/store"
)

// Management form keys, appended to the formset prefix.
const (
	TotalFormsKey   = "TOTAL_FORMS"
	InitialFormsKey = "INITIAL_FORMS"
	MinNumFormsKey  = "MIN_NUM_FORMS"
	MaxNumFormsKey  = "MAX_NUM_FORMS"
)

const (
	// DefaultPrefix namespaces a formset built without WithPrefix.
	DefaultPrefix = "form"
	// DefaultMaxNum caps the number of forms, and is added to the configured
	// maximum to bound what a submission may claim.
	DefaultMaxNum = 1000
	// DefaultExtra is the number of blank forms shown by default.
	DefaultExtra = 1
)

// ErrManagementForm reports missing or malformed management form data.
var ErrManagementForm = errors.New("formset: management form data is missing or has been tampered with")

// FormBuilder builds the form at index from the options the formset
// computed for it (prefix, data, initial values, empty permission).
type FormBuilder func(index int, options []forms.Option) *forms.Form

// Formset is a repeatable group of forms sharing one set of fields.
type Formset struct {
	fields      []model.Field
	prefix      string
	data        url.Values
	bound       bool
	extra       int
	minNum      int
	maxNum      int
	validateMin bool
	validateMax bool
	initial     []map[string]any
	records     []*store.Record
	formOptions []forms.Option
	logger      *zap.SugaredLogger
	build       FormBuilder

	forms         []*forms.Form
	built         bool
	nonFormErrors []string
	cleaned       bool
}

// New builds a formset over fields.
func New(fields []model.Field, options ...Option) *Formset {
	fs := &Formset{
		fields: append([]model.Field(nil), fields...),
		prefix: DefaultPrefix,
		extra:  DefaultExtra,
		maxNum: DefaultMaxNum,
		logger: zap.NewNop().Sugar(),
	}
	for _, opt := range options {
		if opt != nil {
			opt(fs)
		}
	}
	if fs.build == nil {
		fs.build = func(_ int, options []forms.Option) *forms.Form {
			return forms.New(fs.fields, options...)
		}
	}
	return fs
}

// Prefix returns the formset namespace.
func (fs *Formset) Prefix() string {
	return fs.prefix
}

// IsBound reports whether the formset was built with submitted data.
func (fs *Formset) IsBound() bool {
	return fs.bound
}

// AddPrefix returns the prefix of the form at index.
func (fs *Formset) AddPrefix(index int) string {
	return fmt.Sprintf("%s-%d", fs.prefix, index)
}

func (fs *Formset) managementKey(key string) string {
	return fs.prefix + "-" + key
}

// management reads TOTAL_FORMS and INITIAL_FORMS from bound data.
func (fs *Formset) management() (total, initial int, err error) {
	total, err = strconv.Atoi(strings.TrimSpace(fs.data.Get(fs.managementKey(TotalFormsKey))))
	if err != nil || total < 0 {
		return 0, 0, ErrManagementForm
	}
	initial, err = strconv.Atoi(strings.TrimSpace(fs.data.Get(fs.managementKey(InitialFormsKey))))
	if err != nil || initial < 0 {
		return 0, 0, ErrManagementForm
	}
	return total, initial, nil
}

// InitialFormCount returns how many leading forms edit existing data.
func (fs *Formset) InitialFormCount() int {
	if fs.bound {
		_, initial, err := fs.management()
		if err != nil {
			return 0
		}
		return initial
	}
	if len(fs.records) > 0 {
		return len(fs.records)
	}
	return len(fs.initial)
}

// TotalFormCount returns how many forms the formset holds.
func (fs *Formset) TotalFormCount() int {
	if fs.bound {
		total, _, err := fs.management()
		if err != nil {
			return 0
		}
		if absolute := fs.maxNum + DefaultMaxNum; total > absolute {
			return absolute
		}
		return total
	}
	initial := fs.InitialFormCount()
	total := initial + fs.minNum + fs.extra
	switch {
	case initial > fs.maxNum:
		return initial
	case total > fs.maxNum:
		return fs.maxNum
	}
	return total
}

// Forms returns the formset's forms, building them on first use.
func (fs *Formset) Forms() []*forms.Form {
	if fs.built {
		return fs.forms
	}
	fs.built = true
	total := fs.TotalFormCount()
	initial := fs.InitialFormCount()
	fs.forms = make([]*forms.Form, 0, total)
	for i := 0; i < total; i++ {
		options := append([]forms.Option(nil), fs.formOptions...)
		options = append(options, forms.WithPrefix(fs.AddPrefix(i)))
		if fs.bound {
			options = append(options, forms.WithData(fs.data))
		}
		if i < len(fs.initial) {
			options = append(options, forms.WithInitial(fs.initial[i]))
		}
		if i >= initial && i >= fs.minNum {
			options = append(options, forms.WithEmptyPermitted(true))
		}
		fs.forms = append(fs.forms, fs.build(i, options))
	}
	return fs.forms
}

// Form returns the form at index, or nil when out of range.
func (fs *Formset) Form(index int) *forms.Form {
	all := fs.Forms()
	if index < 0 || index >= len(all) {
		return nil
	}
	return all[index]
}

// Len returns the number of forms.
func (fs *Formset) Len() int {
	return len(fs.Forms())
}

// Errors returns each form's errors in form order.
func (fs *Formset) Errors() []forms.Errors {
	all := fs.Forms()
	out := make([]forms.Errors, len(all))
	for i, form := range all {
		out[i] = form.Errors()
	}
	fs.clean()
	return out
}

// NonFormErrors returns errors about the formset as a whole.
func (fs *Formset) NonFormErrors() []string {
	fs.clean()
	return fs.nonFormErrors
}

// TotalErrorCount returns the number of non-form errors plus every form error.
func (fs *Formset) TotalErrorCount() int {
	count := len(fs.NonFormErrors())
	for _, errs := range fs.Errors() {
		for _, messages := range errs {
			count += len(messages)
		}
	}
	return count
}

// IsValid validates every form, without stopping at the first failure, and
// reports whether the bound formset is free of errors.
func (fs *Formset) IsValid() bool {
	if !fs.bound {
		return false
	}
	valid := true
	for _, form := range fs.Forms() {
		if !form.IsValid() {
			valid = false
		}
	}
	if len(fs.NonFormErrors()) > 0 {
		valid = false
	}
	return valid
}

func (fs *Formset) clean() {
	if fs.cleaned {
		return
	}
	fs.cleaned = true
	if !fs.bound {
		return
	}
	if _, _, err := fs.management(); err != nil {
		fs.nonFormErrors = append(fs.nonFormErrors, err.Error())
		fs.logger.Debugw("formset management form invalid", "prefix", fs.prefix)
		return
	}

	// Unchanged extra forms are empty; initial forms always count.
	filled := 0
	initial := fs.InitialFormCount()
	for i, form := range fs.Forms() {
		if i < initial || form.HasChanged() {
			filled++
		}
	}
	total := fs.TotalFormCount()
	if fs.validateMax && total > fs.maxNum {
		fs.nonFormErrors = append(fs.nonFormErrors, fmt.Sprintf("Please submit at most %d forms.", fs.maxNum))
	}
	if fs.validateMin && filled < fs.minNum {
		fs.nonFormErrors = append(fs.nonFormErrors, fmt.Sprintf("Please submit at least %d forms.", fs.minNum))
	}
}

// ChangedForms returns the forms whose data differs from their initial values.
func (fs *Formset) ChangedForms() []*forms.Form {
	var out []*forms.Form
	for _, form := range fs.Forms() {
		if form.HasChanged() {
			out = append(out, form)
		}
	}
	return out
}

// ManagementFields returns the hidden inputs a rendered formset must submit.
func (fs *Formset) ManagementFields() []render.HiddenField {
	return []render.HiddenField{
		render.Hidden(fs.managementKey(TotalFormsKey), fs.TotalFormCount()),
		render.Hidden(fs.managementKey(InitialFormsKey), fs.InitialFormCount()),
		render.Hidden(fs.managementKey(MinNumFormsKey), fs.minNum),
		render.Hidden(fs.managementKey(MaxNumFormsKey), fs.maxNum),
	}
}

// ManagementData returns the management form as submitted values, handy when
// assembling a submission programmatically.
func ManagementData(prefix string, total, initial int) url.Values {
	if prefix == "" {
		prefix = DefaultPrefix
	}
	return url.Values{
		prefix + "-" + TotalFormsKey:   {strconv.Itoa(total)},
		prefix + "-" + InitialFormsKey: {strconv.Itoa(initial)},
		prefix + "-" + MinNumFormsKey:  {"0"},
		prefix + "-" + MaxNumFormsKey:  {strconv.Itoa(DefaultMaxNum)},
	}
}

// String renders a debug description of the formset.
func (fs *Formset) String() string {
	return fmt.Sprintf("<Formset prefix=%s, bound=%t, forms=%d>", fs.prefix, fs.bound, fs.Len())
}
