package nested

import (
	"context"
	"net/url"

	"go.uber.org/zap"

	"github.com/goliatone/go-nestedforms/pkg/store"
)

// Parent is what every form that hosts formsets provides. *forms.Form and
// *forms.ModelForm implement it.
type Parent interface {
	IsBound() bool
	Data() url.Values
	AddPrefix(name string) string
	IsValid() bool
	Validated() bool
	FieldNames() []string
}

// Persister is a parent that saves a record. Model policies require it.
type Persister interface {
	Save(ctx context.Context, commit bool) (*store.Record, error)
}

// Instancer is a parent bound to a record. Inline policies require it.
type Instancer interface {
	Instance() *store.Record
}

// Collection is a nested formset.
type Collection interface {
	IsValid() bool
	Prefix() string
}

// Saver is a collection that persists its forms.
type Saver interface {
	Save(ctx context.Context, commit bool) ([]*store.Record, error)
}

// Host is a parent form together with the formsets nested in it.
type Host struct {
	parent   Parent
	formsets map[string]Collection
	keys     []string
	logger   *zap.SugaredLogger
}

func newHost(parent Parent, logger *zap.SugaredLogger) *Host {
	return &Host{
		parent:   parent,
		formsets: make(map[string]Collection),
		logger:   logger,
	}
}

// Parent returns the hosting form.
func (h *Host) Parent() Parent {
	return h.parent
}

// Keys returns the keys of the nested formsets in declaration order.
func (h *Host) Keys() []string {
	return append([]string(nil), h.keys...)
}

// Formset returns the formset nested under key, or nil.
func (h *Host) Formset(key string) Collection {
	return h.formsets[key]
}

// Formsets returns a copy of the key to formset mapping.
func (h *Host) Formsets() map[string]Collection {
	out := make(map[string]Collection, len(h.formsets))
	for key, collection := range h.formsets {
		out[key] = collection
	}
	return out
}

func (h *Host) attach(key string, collection Collection) {
	if _, exists := h.formsets[key]; !exists {
		h.keys = append(h.keys, key)
	}
	h.formsets[key] = collection
}

// Lookup returns the formset under key as T.
func Lookup[T any](h *Host, key string) (T, bool) {
	var zero T
	collection, ok := h.formsets[key]
	if !ok {
		return zero, false
	}
	typed, ok := collection.(T)
	return typed, ok
}

// Call carries the arguments of a lifecycle method. Commit is only
// meaningful for EventPersist.
type Call struct {
	Ctx    context.Context
	Commit bool
	Host   *Host
}

// Result carries what a lifecycle method returned: Valid for EventValidate,
// Record for EventPersist, and Err for any failure.
type Result struct {
	Valid  bool
	Record *store.Record
	Err    error
}
