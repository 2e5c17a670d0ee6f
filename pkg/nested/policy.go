package nested

import (
	"strings"

	"github.com/cockroachdb/errors"

	"github.com/goliatone/go-nestedforms/pkg/store"
)

// Event is a lifecycle method an extension can wrap.
type Event int

// Lifecycle events, in the order they are composed and reported.
const (
	EventConstruct Event = iota
	EventValidate
	EventPersist
)

var events = []Event{EventConstruct, EventValidate, EventPersist}

func (e Event) String() string {
	switch e {
	case EventConstruct:
		return "construct"
	case EventValidate:
		return "validate"
	case EventPersist:
		return "persist"
	default:
		return "unknown"
	}
}

// method names the parent method each event extends.
func (e Event) method() string {
	switch e {
	case EventConstruct:
		return "Nest"
	case EventValidate:
		return "IsValid"
	case EventPersist:
		return "Save"
	default:
		return e.String()
	}
}

// Kind selects the policy variant.
type Kind int

// Policy variants. Each adds behaviour on top of the previous one.
const (
	KindPlain Kind = iota
	KindModel
	KindInline
)

func (k Kind) String() string {
	switch k {
	case KindPlain:
		return "Plain"
	case KindModel:
		return "Model"
	case KindInline:
		return "Inline"
	default:
		return "Unknown"
	}
}

// Declaration nests the formset built by Factory under Key.
type Declaration struct {
	Key     string
	Factory Factory
}

// Declare returns a Declaration.
func Declare(key string, factory Factory) Declaration {
	return Declaration{Key: key, Factory: factory}
}

// Policy declares a group of formsets and the extensions that nest them in a
// parent. A policy only validates and saves the formsets it declared.
type Policy struct {
	kind         Kind
	declarations []Declaration
	transactor   store.Transactor
	table        map[Event]Extension[Call, Result]
}

// Plain nests formsets that are constructed and validated with the parent.
func Plain(declarations ...Declaration) *Policy {
	return newPolicy(KindPlain, nil, declarations)
}

// Model also saves the formsets after the parent, inside one transaction
// opened on tx.
func Model(tx store.Transactor, declarations ...Declaration) *Policy {
	return newPolicy(KindModel, tx, declarations)
}

// Inline is Model whose factories receive the parent's record, so children
// can reference it.
func Inline(tx store.Transactor, declarations ...Declaration) *Policy {
	return newPolicy(KindInline, tx, declarations)
}

func newPolicy(kind Kind, tx store.Transactor, declarations []Declaration) *Policy {
	p := &Policy{
		kind:         kind,
		declarations: append([]Declaration(nil), declarations...),
		transactor:   tx,
	}
	seen := make(map[string]struct{}, len(declarations))
	for _, decl := range p.declarations {
		site := Site{Source: p.String()}
		if strings.TrimSpace(decl.Key) == "" {
			panic(configError(site, "formset key is empty"))
		}
		if decl.Factory == nil {
			panic(configError(site, "formset "+decl.Key+" has no factory"))
		}
		if _, dup := seen[decl.Key]; dup {
			panic(configError(site, "formset "+decl.Key+" is declared twice"))
		}
		seen[decl.Key] = struct{}{}
	}

	p.table = map[Event]Extension[Call, Result]{
		EventConstruct: After(p.construct),
		EventValidate:  After(p.validate),
	}
	if kind != KindPlain {
		p.table[EventPersist] = After(p.persist)
	}
	return p
}

// Kind returns the policy variant.
func (p *Policy) Kind() Kind {
	return p.kind
}

// Keys returns the declared formset keys in declaration order.
func (p *Policy) Keys() []string {
	keys := make([]string, len(p.declarations))
	for i, decl := range p.declarations {
		keys[i] = decl.Key
	}
	return keys
}

// Events returns the events the policy extends, in composition order.
func (p *Policy) Events() []Event {
	out := make([]Event, 0, len(p.table))
	for _, event := range events {
		if _, ok := p.table[event]; ok {
			out = append(out, event)
		}
	}
	return out
}

// Extension returns the extension registered for event, or nil.
func (p *Policy) Extension(event Event) Extension[Call, Result] {
	return p.table[event]
}

// Transactor returns the transaction primitive of a model policy.
func (p *Policy) Transactor() store.Transactor {
	return p.transactor
}

func (p *Policy) String() string {
	return "nested." + p.kind.String() + "(" + strings.Join(p.Keys(), ",") + ")"
}

func (p *Policy) params(h *Host) Params {
	if p.kind != KindInline {
		return Params{}
	}
	instancer, ok := h.parent.(Instancer)
	if !ok {
		return Params{}
	}
	return Params{Instance: instancer.Instance()}
}

func (p *Policy) construct(c Call, r Result) Result {
	if r.Err != nil {
		return r
	}
	for _, decl := range p.declarations {
		collection, err := bind(c.Ctx, c.Host.parent, decl, p.params(c.Host))
		if err != nil {
			return Result{Err: err}
		}
		c.Host.attach(decl.Key, collection)
		c.Host.logger.Debugw("formset nested", "key", decl.Key, "prefix", collection.Prefix(), "policy", p.String())
	}
	return r
}

func (p *Policy) validate(c Call, r Result) Result {
	valid := r.Valid
	for _, decl := range p.declarations {
		collection := c.Host.formsets[decl.Key]
		if collection == nil || !collection.IsValid() {
			valid = false
		}
	}
	r.Valid = valid
	return r
}

func (p *Policy) persist(c Call, r Result) Result {
	if r.Err != nil {
		return r
	}
	for _, decl := range p.declarations {
		saver, ok := c.Host.formsets[decl.Key].(Saver)
		if !ok {
			r.Err = errors.Wrapf(ErrNotPersistable, "nested: formset %q", decl.Key)
			return r
		}
		records, err := saver.Save(c.Ctx, c.Commit)
		if err != nil {
			r.Err = errors.Wrapf(err, "nested: save formset %q", decl.Key)
			return r
		}
		c.Host.logger.Debugw("formset saved", "key", decl.Key, "records", len(records), "commit", c.Commit)
	}
	return r
}
