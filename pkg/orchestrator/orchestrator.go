package orchestrator

import (
	"context"
	"net/url"

	"github.com/cockroachdb/errors"
	"github.com/microcosm-cc/bluemonday"
	"go.uber.org/zap"

	"github.com/goliatone/go-nestedforms/pkg/forms"
	"github.com/goliatone/go-nestedforms/pkg/formset"
	"github.com/goliatone/go-nestedforms/pkg/model"
	"github.com/goliatone/go-nestedforms/pkg/nested"
	"github.com/goliatone/go-nestedforms/pkg/render"
	"github.com/goliatone/go-nestedforms/pkg/store"
)

// Orchestrator turns declarations into nested forms.
type Orchestrator struct {
	store       *store.DB
	logger      *zap.SugaredLogger
	sanitizer   *bluemonday.Policy
	transformer Transformer
	decorators  []model.Decorator
}

// New constructs an Orchestrator applying any provided options.
func New(options ...Option) *Orchestrator {
	o := &Orchestrator{logger: zap.NewNop().Sugar()}
	for _, opt := range options {
		if opt == nil {
			continue
		}
		opt(o)
	}
	return o
}

// Request describes the form to build.
type Request struct {
	// Form is the declaration. It is copied before transformers run.
	Form model.FormModel

	// Data is the submission. Nil builds unbound forms.
	Data url.Values

	// Instance is the existing parent record to edit, for declarations with a
	// table.
	Instance *store.Record
}

// Nested is a decorated form, whichever parent type it wraps.
type Nested interface {
	IsBound() bool
	IsValid() bool
	Save(ctx context.Context, commit bool) (*store.Record, error)
	String() string
	Keys() []string
	Formset(key string) nested.Collection
}

// Result is a built nested form.
type Result struct {
	Model    model.FormModel
	Parent   *forms.Form
	Form     Nested
	Policies []*nested.Policy
}

// Groups returns the nested formsets that expose their forms, in key order.
func (r *Result) Groups() []render.Group {
	var groups []render.Group
	for _, key := range r.Form.Keys() {
		if group, ok := r.Form.Formset(key).(render.Group); ok {
			groups = append(groups, group)
		}
	}
	return groups
}

// Errors collects every error keyed by prefixed input name.
func (r *Result) Errors() render.ErrorMapping {
	return render.CollectErrors(r.Parent, r.Groups()...)
}

// InputNames lists every prefixed input the form accepts.
func (r *Result) InputNames() []string {
	return render.InputNames(r.Parent, r.Groups()...)
}

// ManagementFields returns the hidden management inputs of every formset.
func (r *Result) ManagementFields() []render.HiddenField {
	var fields []render.HiddenField
	for _, key := range r.Form.Keys() {
		if m, ok := r.Form.Formset(key).(interface{ ManagementFields() []render.HiddenField }); ok {
			fields = append(fields, m.ManagementFields()...)
		}
	}
	return fields
}

// Build prepares the declaration and nests its formsets in a parent form
// bound to req.Data. Consecutive formsets of the same kind share a policy and
// the nested keys follow declaration order.
func (o *Orchestrator) Build(ctx context.Context, req Request) (result *Result, err error) {
	if ctx == nil {
		return nil, errors.New("orchestrator: context is required")
	}
	form, err := o.prepare(ctx, req.Form)
	if err != nil {
		return nil, err
	}
	if o.store == nil && needsStore(form) {
		return nil, errors.WithHint(
			errors.Newf("orchestrator: declaration %q persists records but no store is configured", form.ID),
			"pass orchestrator.WithStore")
	}

	defer func() {
		if r := recover(); r != nil {
			configErr, ok := r.(*nested.ConfigError)
			if !ok {
				panic(r)
			}
			result, err = nil, errors.Wrapf(configErr, "orchestrator: declaration %q", form.ID)
		}
	}()

	formOptions := o.formOptions()
	policies := o.policies(form, formOptions)
	parentOptions := append([]forms.Option{forms.WithPrefix(form.Prefix), forms.WithData(req.Data)}, formOptions...)

	result = &Result{Model: form, Policies: policies}
	if form.Table == "" {
		parent := forms.New(form.Fields, parentOptions...)
		nestedForm, err := nested.Decorate[*forms.Form](policies...).WithLogger(o.logger).Nest(ctx, parent)
		if err != nil {
			return nil, err
		}
		result.Parent, result.Form = parent, nestedForm
	} else {
		parentOptions = append(parentOptions, forms.WithInstance(req.Instance))
		parent := forms.NewModelForm(o.store, ParentTable(form), form.Fields, parentOptions...)
		nestedForm, err := nested.Decorate[*forms.ModelForm](policies...).WithLogger(o.logger).Nest(ctx, parent)
		if err != nil {
			return nil, err
		}
		result.Parent, result.Form = parent.Form, nestedForm
	}

	o.logger.Debugw("nested form built", "form", form.ID, "formsets", result.Form.Keys(), "bound", req.Data != nil)
	return result, nil
}

func (o *Orchestrator) prepare(ctx context.Context, form model.FormModel) (model.FormModel, error) {
	form = clone(form)
	if o.transformer != nil {
		if err := o.transformer.Transform(ctx, &form); err != nil {
			return model.FormModel{}, errors.Wrap(err, "orchestrator: transform declaration")
		}
	}
	for _, decorator := range o.decorators {
		if decorator == nil {
			continue
		}
		if err := decorator.Decorate(&form); err != nil {
			return model.FormModel{}, errors.Wrap(err, "orchestrator: decorate declaration")
		}
	}
	model.ApplyLabels(&form, model.DefaultLabeler)
	if err := model.Validate(form); err != nil {
		return model.FormModel{}, err
	}
	return form, nil
}

func (o *Orchestrator) formOptions() []forms.Option {
	options := []forms.Option{forms.WithLogger(o.logger)}
	if o.sanitizer != nil {
		options = append(options, forms.WithSanitizer(o.sanitizer))
	}
	return options
}

// policies turns each run of consecutive formsets of the same kind into one
// policy, so the nested keys keep declaration order.
func (o *Orchestrator) policies(form model.FormModel, formOptions []forms.Option) []*nested.Policy {
	var (
		policies []*nested.Policy
		run      []nested.Declaration
		kind     model.FormsetKind
	)
	flush := func() {
		if len(run) == 0 {
			return
		}
		switch kind {
		case model.FormsetKindModel:
			policies = append(policies, nested.Model(o.store, run...))
		case model.FormsetKindInline:
			policies = append(policies, nested.Inline(o.store, run...))
		default:
			policies = append(policies, nested.Plain(run...))
		}
		run = nil
	}

	for _, declared := range form.Formsets {
		declaredKind := declared.Kind
		if declaredKind == "" {
			declaredKind = model.FormsetKindPlain
		}
		if declaredKind != kind {
			flush()
			kind = declaredKind
		}
		options := o.formsetOptions(declared, formOptions)
		var factory nested.Factory
		switch declaredKind {
		case model.FormsetKindModel:
			factory = nested.ModelFormsetFactory(o.store, ChildTable(form, declared), declared.Fields, options...)
		case model.FormsetKindInline:
			factory = nested.InlineFormsetFactory(o.store, ChildTable(form, declared), declared.ForeignKey, declared.Fields, options...)
		default:
			factory = nested.FormsetFactory(declared.Fields, options...)
		}
		run = append(run, nested.Declare(declared.Key, factory))
	}
	flush()
	return policies
}

func (o *Orchestrator) formsetOptions(declared model.FormsetModel, formOptions []forms.Option) []formset.Option {
	options := []formset.Option{
		formset.WithFormOptions(formOptions...),
		formset.WithLogger(o.logger),
	}
	if declared.Extra != nil {
		options = append(options, formset.WithExtra(*declared.Extra))
	}
	if declared.MinNum > 0 {
		options = append(options, formset.WithMinNum(declared.MinNum, true))
	}
	if declared.MaxNum > 0 {
		options = append(options, formset.WithMaxNum(declared.MaxNum, true))
	}
	return options
}

func needsStore(form model.FormModel) bool {
	if form.Table != "" {
		return true
	}
	for _, declared := range form.Formsets {
		if declared.Kind.Persistent() {
			return true
		}
	}
	return false
}

func clone(form model.FormModel) model.FormModel {
	out := form
	out.Fields = append([]model.Field(nil), form.Fields...)
	out.Formsets = make([]model.FormsetModel, len(form.Formsets))
	for i, declared := range form.Formsets {
		declared.Fields = append([]model.Field(nil), declared.Fields...)
		out.Formsets[i] = declared
	}
	if form.Formsets == nil {
		out.Formsets = nil
	}
	return out
}
