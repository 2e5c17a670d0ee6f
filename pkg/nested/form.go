package nested

import (
	"context"
	"fmt"
	"strings"

	"github.com/cockroachdb/errors"
	"go.uber.org/zap"

	"github.com/goliatone/go-nestedforms/pkg/store"
)

type chain func(Call) Result

// Decorator composes policies onto parents of type P. It is built once and
// used to nest any number of parent instances.
type Decorator[P Parent] struct {
	target     string
	policies   []*Policy
	chains     map[Event]chain
	transactor store.Transactor
	logger     *zap.SugaredLogger
}

// Decorate checks policies against the capabilities of P and composes their
// extensions, in order, around P's lifecycle methods. It panics with a
// *ConfigError when a policy extends a method P lacks, when an inline policy
// is applied to a P without a record, when a model policy has no transactor,
// or when two policies declare the same key.
func Decorate[P Parent](policies ...*Policy) *Decorator[P] {
	var zero P
	d := &Decorator[P]{
		target:   typeName(zero),
		policies: append([]*Policy(nil), policies...),
		logger:   zap.NewNop().Sugar(),
	}

	d.chains = map[Event]chain{
		EventConstruct: func(Call) Result { return Result{} },
		EventValidate: func(c Call) Result {
			return Result{Valid: c.Host.parent.IsValid()}
		},
	}
	if _, ok := any(zero).(Persister); ok {
		d.chains[EventPersist] = func(c Call) Result {
			rec, err := c.Host.parent.(Persister).Save(c.Ctx, c.Commit)
			return Result{Record: rec, Err: err}
		}
	}
	_, instancer := any(zero).(Instancer)

	keys := make(map[string]string)
	for _, policy := range d.policies {
		if policy == nil {
			continue
		}
		source := policy.String()
		for _, key := range policy.Keys() {
			if other, dup := keys[key]; dup {
				panic(&ConfigError{Target: d.target, Source: source, Reason: fmt.Sprintf("formset %q is already declared by %s", key, other)})
			}
			keys[key] = source
		}
		if policy.kind == KindInline && !instancer {
			panic(&ConfigError{Target: d.target, Method: "Instance", Source: source, Reason: "inline formsets need a parent bound to a record"})
		}
		if policy.kind != KindPlain {
			if policy.transactor == nil {
				panic(&ConfigError{Target: d.target, Method: EventPersist.method(), Source: source, Reason: "model formsets need a transactor"})
			}
			if d.transactor == nil {
				d.transactor = policy.transactor
			}
		}

		for _, event := range policy.Events() {
			site := Site{Target: d.target, Method: event.method(), Source: source}
			var method func(Call) Result
			if current, ok := d.chains[event]; ok {
				method = current
			}
			d.chains[event] = Wrap(site, method, policy.Extension(event))
		}
	}
	return d
}

// WithLogger attaches a logger to the decorator and the forms it nests.
func (d *Decorator[P]) WithLogger(logger *zap.SugaredLogger) *Decorator[P] {
	if logger != nil {
		d.logger = logger
	}
	return d
}

// Policies returns the composed policies in order.
func (d *Decorator[P]) Policies() []*Policy {
	return append([]*Policy(nil), d.policies...)
}

// Persistable reports whether nested forms can be saved.
func (d *Decorator[P]) Persistable() bool {
	return d.chains[EventPersist] != nil
}

// Nest wraps parent and constructs every declared formset exactly once.
func (d *Decorator[P]) Nest(ctx context.Context, parent P) (*Form[P], error) {
	if ctx == nil {
		ctx = context.Background()
	}
	host := newHost(parent, d.logger)
	if r := d.chains[EventConstruct](Call{Ctx: ctx, Host: host}); r.Err != nil {
		return nil, r.Err
	}
	d.logger.Debugw("nested form constructed", "type", d.target, "formsets", host.keys, "bound", parent.IsBound())
	return &Form[P]{Host: host, inner: parent, decorator: d}, nil
}

// Form is a parent form of type P with its nested formsets.
type Form[P Parent] struct {
	*Host
	inner     P
	decorator *Decorator[P]
}

// Inner returns the wrapped parent form.
func (f *Form[P]) Inner() P {
	return f.inner
}

// IsBound reports whether the parent was built with submitted data.
func (f *Form[P]) IsBound() bool {
	return f.inner.IsBound()
}

// AddPrefix namespaces name under the parent's prefix.
func (f *Form[P]) AddPrefix(name string) string {
	return f.inner.AddPrefix(name)
}

// IsValid validates the parent once and every nested formset, and reports
// whether all of them are valid.
func (f *Form[P]) IsValid() bool {
	return f.decorator.chains[EventValidate](Call{Ctx: context.Background(), Host: f.Host}).Valid
}

// Save saves the parent and then every nested formset inside a single
// transaction, returning the parent's record. If any save fails the whole
// transaction rolls back. With commit false nothing is written. Parents
// without model formsets are saved directly.
func (f *Form[P]) Save(ctx context.Context, commit bool) (*store.Record, error) {
	persist := f.decorator.chains[EventPersist]
	if persist == nil {
		return nil, errors.Wrapf(ErrNotPersistable, "nested: %s", f.decorator.target)
	}
	if ctx == nil {
		ctx = context.Background()
	}
	if !commit || f.decorator.transactor == nil {
		r := persist(Call{Ctx: ctx, Commit: commit, Host: f.Host})
		return r.Record, r.Err
	}

	var r Result
	err := f.decorator.transactor.Atomic(ctx, func(ctx context.Context) error {
		r = persist(Call{Ctx: ctx, Commit: true, Host: f.Host})
		return r.Err
	})
	if err != nil {
		f.logger.Debugw("nested save rolled back", "type", f.decorator.target, "error", err)
		return nil, err
	}
	f.logger.Debugw("nested form saved", "type", f.decorator.target, "formsets", f.keys)
	return r.Record, nil
}

// String describes the form as <Type bound=B, valid=V, fields=(a;b)>. V is
// Unknown until the parent has been validated, and whenever probing the
// formsets fails.
func (f *Form[P]) String() string {
	return fmt.Sprintf("<%s bound=%t, valid=%s, fields=(%s)>",
		typeName(f.inner), f.inner.IsBound(), f.describeValid(), strings.Join(f.inner.FieldNames(), ";"))
}

func (f *Form[P]) describeValid() (valid string) {
	if !f.inner.Validated() {
		return "Unknown"
	}
	defer func() {
		if recover() != nil {
			valid = "Unknown"
		}
	}()
	formsetsValid := true
	for _, key := range f.keys {
		if !f.formsets[key].IsValid() {
			formsetsValid = false
		}
	}
	return fmt.Sprint(f.inner.IsBound() && f.inner.IsValid() && formsetsValid)
}

func typeName(v any) string {
	name := strings.TrimLeft(fmt.Sprintf("%T", v), "*")
	if i := strings.IndexByte(name, '['); i >= 0 {
		name = name[:i]
	}
	if i := strings.LastIndexByte(name, '.'); i >= 0 {
		name = name[i+1:]
	}
	return name
}
