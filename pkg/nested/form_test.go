package nested_test

import (
	"context"
	"net/url"
	"testing"

	"github.com/cockroachdb/errors"
	"github.com/google/go-cmp/cmp"

	"github.com/goliatone/go-nestedforms/pkg/forms"
	"github.com/goliatone/go-nestedforms/pkg/formset"
	"github.com/goliatone/go-nestedforms/pkg/nested"
	"github.com/goliatone/go-nestedforms/pkg/render"
	"github.com/goliatone/go-nestedforms/pkg/store"
	"github.com/goliatone/go-nestedforms/pkg/testsupport"
)

const tooLong = "This string exceeds the max length."

var fields = testsupport.SampleFields

// countingFormset records how often the cascade reaches it.
type countingFormset struct {
	prefix      string
	valid       bool
	validations int
	saves       int
	fail        error
	panics      bool
}

func (c *countingFormset) IsValid() bool {
	if c.panics {
		panic("probe failed")
	}
	c.validations++
	return c.valid
}

func (c *countingFormset) Prefix() string { return c.prefix }

func (c *countingFormset) Save(context.Context, bool) ([]*store.Record, error) {
	c.saves++
	return nil, c.fail
}

func counting(c *countingFormset) nested.Factory {
	return func(_ context.Context, _ url.Values, prefix string, _ nested.Params) (nested.Collection, error) {
		c.prefix = prefix
		return c, nil
	}
}

// countingForm counts calls to the parent's own validation.
type countingForm struct {
	*forms.Form
	calls int
}

func (c *countingForm) IsValid() bool {
	c.calls++
	return c.Form.IsValid()
}

// failingStore fails every save to one table.
type failingStore struct {
	*store.DB
	table string
}

func (s failingStore) Save(ctx context.Context, table store.Table, rec *store.Record) error {
	if table.Name == s.table {
		return errors.Newf("disk full writing %s", table.Name)
	}
	return s.DB.Save(ctx, table, rec)
}

func mustNest[P nested.Parent](t *testing.T, d *nested.Decorator[P], parent P) *nested.Form[P] {
	t.Helper()
	form, err := d.Nest(context.Background(), parent)
	if err != nil {
		t.Fatalf("nest: %v", err)
	}
	return form
}

func childPrefixes(t *testing.T, host *nested.Host, key string) []string {
	t.Helper()
	fs, ok := nested.Lookup[*formset.Formset](host, key)
	if !ok {
		t.Fatalf("formset %q missing or not a *formset.Formset", key)
	}
	var out []string
	for _, form := range fs.Forms() {
		out = append(out, form.Prefix())
	}
	return out
}

func TestNestConstructsEachFormsetExactlyOnce(t *testing.T) {
	built := 0
	factory := func(ctx context.Context, data url.Values, prefix string, params nested.Params) (nested.Collection, error) {
		built++
		return nested.FormsetFactory(fields)(ctx, data, prefix, params)
	}
	d := nested.Decorate[*forms.Form](nested.Plain(nested.Declare("child", factory)))
	form := mustNest(t, d, forms.New(fields))

	first := form.Formset("child")
	if first == nil {
		t.Fatalf("expected formset under child")
	}
	if form.Formset("child") != first {
		t.Fatalf("expected the same instance on repeated access")
	}
	form.IsValid()
	if form.Formset("child") != first || built != 1 {
		t.Fatalf("expected exactly one construction, got %d", built)
	}
	if diff := cmp.Diff([]string{"child"}, form.Keys()); diff != "" {
		t.Fatalf("keys mismatch (-want +got):\n%s", diff)
	}
}

func TestChildPrefixes(t *testing.T) {
	d := nested.Decorate[*forms.Form](nested.Plain(nested.Declare("child", nested.FormsetFactory(fields, formset.WithExtra(2)))))

	form := mustNest(t, d, forms.New(fields))
	if diff := cmp.Diff([]string{"child-0", "child-1"}, childPrefixes(t, form.Host, "child")); diff != "" {
		t.Fatalf("prefix mismatch (-want +got):\n%s", diff)
	}

	form = mustNest(t, d, forms.New(fields, forms.WithPrefix("parent")))
	if diff := cmp.Diff([]string{"parent-child-0", "parent-child-1"}, childPrefixes(t, form.Host, "child")); diff != "" {
		t.Fatalf("prefix mismatch (-want +got):\n%s", diff)
	}
}

func TestChildrenMirrorParentBinding(t *testing.T) {
	d := nested.Decorate[*forms.Form](nested.Plain(nested.Declare("child", nested.FormsetFactory(fields))))

	unbound := mustNest(t, d, forms.New(fields))
	if fs, _ := nested.Lookup[*formset.Formset](unbound.Host, "child"); fs.IsBound() {
		t.Fatalf("unbound parent must produce unbound formsets")
	}

	bound := mustNest(t, d, forms.New(fields, forms.WithData(url.Values{})))
	if fs, _ := nested.Lookup[*formset.Formset](bound.Host, "child"); !fs.IsBound() {
		t.Fatalf("bound parent must produce bound formsets")
	}
}

func TestIsValidCombinesParentAndFormsets(t *testing.T) {
	cases := []struct {
		name   string
		parent string
		child  string
		want   bool
	}{
		{name: "both valid", parent: "spam", child: "eggs", want: true},
		{name: "parent invalid", parent: tooLong, child: "eggs", want: false},
		{name: "child invalid", parent: "spam", child: tooLong, want: false},
		{name: "both invalid", parent: tooLong, child: tooLong, want: false},
	}

	d := nested.Decorate[*countingForm](nested.Plain(nested.Declare("child", nested.FormsetFactory(fields))))
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			data := testsupport.Submission(append(testsupport.Management("child", 1, 0),
				"sample_field", tc.parent,
				"child-0-sample_field", tc.child,
			)...)
			parent := &countingForm{Form: forms.New(fields, forms.WithData(data))}
			form := mustNest(t, d, parent)

			if got := form.IsValid(); got != tc.want {
				t.Fatalf("IsValid() = %t, want %t", got, tc.want)
			}
			if parent.calls != 1 {
				t.Fatalf("parent validation ran %d times, want 1", parent.calls)
			}
			fs, _ := nested.Lookup[*formset.Formset](form.Host, "child")
			if !fs.Form(0).Validated() {
				t.Fatalf("child must be validated even when the parent fails")
			}
		})
	}
}

func TestStackedPoliciesCascadeEachGroupOnce(t *testing.T) {
	db := testsupport.OpenStore(t)
	first := &countingFormset{valid: true}
	second := &countingFormset{valid: true}
	d := nested.Decorate[*forms.ModelForm](
		nested.Model(db, nested.Declare("child", counting(first))),
		nested.Model(db, nested.Declare("other", counting(second))),
	)

	data := url.Values{"sample_field": {"spam"}}
	form := mustNest(t, d, forms.NewModelForm(db, testsupport.ParentTable, fields, forms.WithData(data)))
	if !form.IsValid() {
		t.Fatalf("expected valid form")
	}
	if _, err := form.Save(context.Background(), true); err != nil {
		t.Fatalf("save: %v", err)
	}

	for name, c := range map[string]*countingFormset{"child": first, "other": second} {
		if c.validations != 1 || c.saves != 1 {
			t.Fatalf("%s: validated %d and saved %d times, want 1 and 1", name, c.validations, c.saves)
		}
	}
	if first.prefix != "child" || second.prefix != "other" {
		t.Fatalf("unexpected prefixes %q and %q", first.prefix, second.prefix)
	}
}

func TestSaveRollsBackWhenChildFails(t *testing.T) {
	ctx := context.Background()
	db := testsupport.OpenStore(t)
	children := failingStore{DB: db, table: testsupport.ChildTable.Name}
	d := nested.Decorate[*forms.ModelForm](nested.Inline(db,
		nested.Declare("child", nested.InlineFormsetFactory(children, testsupport.ChildTable, "parent_id", fields)),
	))

	data := testsupport.Submission(append(testsupport.Management("child", 1, 0),
		"sample_field", "spam",
		"child-0-sample_field", "eggs",
	)...)
	form := mustNest(t, d, forms.NewModelForm(db, testsupport.ParentTable, fields, forms.WithData(data)))
	if !form.IsValid() {
		t.Fatalf("expected valid form")
	}
	if _, err := form.Save(ctx, true); err == nil {
		t.Fatalf("expected child save failure")
	}

	if n := testsupport.Count(t, db, testsupport.ParentTable); n != 0 {
		t.Fatalf("expected parent rollback, got %d rows", n)
	}
	if n := testsupport.Count(t, db, testsupport.ChildTable); n != 0 {
		t.Fatalf("expected no children, got %d rows", n)
	}
}

func TestInlineChildrenReferenceParent(t *testing.T) {
	ctx := context.Background()
	db := testsupport.OpenStore(t)
	d := nested.Decorate[*forms.ModelForm](nested.Inline(db,
		nested.Declare("child", nested.InlineFormsetFactory(db, testsupport.ChildTable, "parent_id", fields)),
	))

	data := testsupport.Submission(append(testsupport.Management("parent-child", 3, 0),
		"parent-sample_field", "spam",
		"parent-child-0-sample_field", "eggs",
		"parent-child-1-sample_field", "ham",
	)...)
	form := mustNest(t, d, forms.NewModelForm(db, testsupport.ParentTable, fields, forms.WithPrefix("parent"), forms.WithData(data)))
	if !form.IsValid() {
		t.Fatalf("expected valid form")
	}
	parent, err := form.Save(ctx, true)
	if err != nil {
		t.Fatalf("save: %v", err)
	}
	if !parent.Saved() {
		t.Fatalf("expected saved parent")
	}

	if n := testsupport.Count(t, db, testsupport.ChildTable); n != 2 {
		t.Fatalf("expected 2 children, got %d", n)
	}
	children, err := db.List(ctx, testsupport.ChildTable, nil)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	for _, child := range children {
		if child.Get("parent_id") != parent.ID {
			t.Fatalf("child %d references %#v, want %d", child.ID, child.Get("parent_id"), parent.ID)
		}
	}
}

func TestInlineEditsExistingChildren(t *testing.T) {
	ctx := context.Background()
	db := testsupport.OpenStore(t)
	parent := store.NewRecord(map[string]any{"sample_field": "spam"})
	if err := db.Save(ctx, testsupport.ParentTable, parent); err != nil {
		t.Fatalf("seed parent: %v", err)
	}
	if err := db.Save(ctx, testsupport.ChildTable, store.NewRecord(map[string]any{"parent_id": parent.ID, "sample_field": "eggs"})); err != nil {
		t.Fatalf("seed child: %v", err)
	}

	d := nested.Decorate[*forms.ModelForm](nested.Inline(db,
		nested.Declare("child", nested.InlineFormsetFactory(db, testsupport.ChildTable, "parent_id", fields, formset.WithExtra(0))),
	))
	form := mustNest(t, d, forms.NewModelForm(db, testsupport.ParentTable, fields, forms.WithInstance(parent)))

	fs, ok := nested.Lookup[*formset.InlineFormset](form.Host, "child")
	if !ok {
		t.Fatalf("expected inline formset")
	}
	if fs.Instance() != parent {
		t.Fatalf("expected formset bound to the parent record")
	}
	if got := fs.Form(0).Value("sample_field"); got != "eggs" {
		t.Fatalf("expected existing child value, got %q", got)
	}
}

func TestInlineAddsChildrenWhenNoInitialForms(t *testing.T) {
	ctx := context.Background()
	db := testsupport.OpenStore(t)
	parent := store.NewRecord(map[string]any{"sample_field": "spam"})
	if err := db.Save(ctx, testsupport.ParentTable, parent); err != nil {
		t.Fatalf("seed parent: %v", err)
	}
	if err := db.Save(ctx, testsupport.ChildTable, store.NewRecord(map[string]any{"parent_id": parent.ID, "sample_field": "eggs"})); err != nil {
		t.Fatalf("seed child: %v", err)
	}

	d := nested.Decorate[*forms.ModelForm](nested.Inline(db,
		nested.Declare("child", nested.InlineFormsetFactory(db, testsupport.ChildTable, "parent_id", fields)),
	))
	data := testsupport.Submission(append(testsupport.Management("child", 1, 0),
		"sample_field", "spam",
		"child-0-sample_field", "ham",
	)...)
	form := mustNest(t, d, forms.NewModelForm(db, testsupport.ParentTable, fields, forms.WithInstance(parent), forms.WithData(data)))
	if !form.IsValid() {
		t.Fatalf("expected valid form")
	}
	if _, err := form.Save(ctx, true); err != nil {
		t.Fatalf("save: %v", err)
	}

	children, err := db.List(ctx, testsupport.ChildTable, nil)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	var got []any
	for _, child := range children {
		got = append(got, child.Get("sample_field"))
	}
	if diff := cmp.Diff([]any{"eggs", "ham"}, got); diff != "" {
		t.Fatalf("children mismatch (-want +got):\n%s", diff)
	}
}

func recursiveDecorator() *nested.Decorator[*forms.Form] {
	grand := nested.Plain(nested.Declare("grand", nested.FormsetFactory(fields)))
	return nested.Decorate[*forms.Form](nested.Plain(
		nested.Declare("child", nested.NestedFormsetFactory(fields, []*nested.Policy{grand})),
	))
}

func TestNestedFormsetPrefixes(t *testing.T) {
	form := mustNest(t, recursiveDecorator(), forms.New(fields, forms.WithPrefix("parent")))

	child, ok := nested.Lookup[*nested.NestedFormset](form.Host, "child")
	if !ok {
		t.Fatalf("expected nested formset")
	}
	if diff := cmp.Diff([]string{"parent-child-0"}, func() []string {
		var out []string
		for _, f := range child.Forms() {
			out = append(out, f.Prefix())
		}
		return out
	}()); diff != "" {
		t.Fatalf("child prefix mismatch (-want +got):\n%s", diff)
	}

	inner := child.Nested(0)
	if inner == nil {
		t.Fatalf("expected nested form 0")
	}
	if inner.Inner() != child.Form(0) {
		t.Fatalf("nested form must wrap the formset form")
	}
	if diff := cmp.Diff([]string{"parent-child-0-grand-0"}, childPrefixes(t, inner.Host, "grand")); diff != "" {
		t.Fatalf("grandchild prefix mismatch (-want +got):\n%s", diff)
	}
	if child.Nested(1) != nil {
		t.Fatalf("expected nil beyond the last form")
	}
}

func TestNestedFormsetValidatesGrandchildren(t *testing.T) {
	cases := []struct {
		name  string
		grand string
		want  bool
	}{
		{name: "valid", grand: "eggs", want: true},
		{name: "grandchild invalid", grand: tooLong, want: false},
	}

	d := recursiveDecorator()
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			pairs := append(testsupport.Management("child", 1, 0), testsupport.Management("child-0-grand", 1, 0)...)
			data := testsupport.Submission(append(pairs,
				"sample_field", "spam",
				"child-0-sample_field", "ham",
				"child-0-grand-0-sample_field", tc.grand,
			)...)
			form := mustNest(t, d, forms.New(fields, forms.WithData(data)))

			if got := form.IsValid(); got != tc.want {
				t.Fatalf("IsValid() = %t, want %t", got, tc.want)
			}
			child, _ := nested.Lookup[*nested.NestedFormset](form.Host, "child")
			mapping := render.CollectErrors(form.Inner(), child)
			if _, has := mapping.Fields["child-0-grand-0-sample_field"]; has == tc.want {
				t.Fatalf("grandchild error reported = %t, want %t", has, !tc.want)
			}
		})
	}
}

func TestNestedFormsetRejectsPersistingPolicies(t *testing.T) {
	db := testsupport.OpenStore(t)
	err := expectConfigPanic(t, func() {
		nested.NestedFormsetFactory(fields, []*nested.Policy{
			nested.Model(db, nested.Declare("grand", nested.ModelFormsetFactory(db, testsupport.ChildTable, fields))),
		})
	})
	if err.Method != "Save" {
		t.Fatalf("expected method %q, got %+v", "Save", err)
	}
}

func TestSaveWithoutCommitWritesNothing(t *testing.T) {
	db := testsupport.OpenStore(t)
	d := nested.Decorate[*forms.ModelForm](nested.Inline(db,
		nested.Declare("child", nested.InlineFormsetFactory(db, testsupport.ChildTable, "parent_id", fields)),
	))
	data := testsupport.Submission(append(testsupport.Management("child", 1, 0),
		"sample_field", "spam",
		"child-0-sample_field", "eggs",
	)...)
	form := mustNest(t, d, forms.NewModelForm(db, testsupport.ParentTable, fields, forms.WithData(data)))
	rec, err := form.Save(context.Background(), false)
	if err != nil {
		t.Fatalf("save: %v", err)
	}
	if rec.Saved() || rec.String("sample_field") != "spam" {
		t.Fatalf("expected populated unsaved record, got %+v", rec)
	}
	if n := testsupport.Count(t, db, testsupport.ParentTable) + testsupport.Count(t, db, testsupport.ChildTable); n != 0 {
		t.Fatalf("expected no rows, got %d", n)
	}
}

func TestPlainFormIsNotPersistable(t *testing.T) {
	d := nested.Decorate[*forms.Form](nested.Plain(nested.Declare("child", nested.FormsetFactory(fields))))
	if d.Persistable() {
		t.Fatalf("plain decorator must not be persistable")
	}
	form := mustNest(t, d, forms.New(fields, forms.WithData(url.Values{})))
	if _, err := form.Save(context.Background(), true); !errors.Is(err, nested.ErrNotPersistable) {
		t.Fatalf("expected ErrNotPersistable, got %v", err)
	}
}

func TestModelPolicyRejectsPlainFormset(t *testing.T) {
	db := testsupport.OpenStore(t)
	d := nested.Decorate[*forms.ModelForm](nested.Model(db, nested.Declare("child", nested.FormsetFactory(fields))))
	data := testsupport.Submission(append(testsupport.Management("child", 1, 0), "sample_field", "spam")...)
	form := mustNest(t, d, forms.NewModelForm(db, testsupport.ParentTable, fields, forms.WithData(data)))
	if _, err := form.Save(context.Background(), true); !errors.Is(err, nested.ErrNotPersistable) {
		t.Fatalf("expected ErrNotPersistable, got %v", err)
	}
	if n := testsupport.Count(t, db, testsupport.ParentTable); n != 0 {
		t.Fatalf("expected rollback, got %d rows", n)
	}
}

func TestStringNeverPanics(t *testing.T) {
	probe := &countingFormset{valid: true}
	d := nested.Decorate[*forms.Form](nested.Plain(nested.Declare("child", counting(probe))))
	form := mustNest(t, d, forms.New(fields, forms.WithData(url.Values{"sample_field": {"spam"}})))

	if got, want := form.String(), "<Form bound=true, valid=Unknown, fields=(sample_field)>"; got != want {
		t.Fatalf("String() = %q, want %q", got, want)
	}
	if !form.IsValid() {
		t.Fatalf("expected valid form")
	}
	if got, want := form.String(), "<Form bound=true, valid=true, fields=(sample_field)>"; got != want {
		t.Fatalf("String() = %q, want %q", got, want)
	}

	probe.panics = true
	if got, want := form.String(), "<Form bound=true, valid=Unknown, fields=(sample_field)>"; got != want {
		t.Fatalf("String() = %q, want %q", got, want)
	}
}

func TestDecorateConfigErrors(t *testing.T) {
	db := testsupport.OpenStore(t)
	cases := []struct {
		name   string
		fn     func()
		method string
	}{
		{
			name:   "model policy on a form without Save",
			fn:     func() { nested.Decorate[*forms.Form](nested.Model(db, nested.Declare("child", nested.FormsetFactory(fields)))) },
			method: "Save",
		},
		{
			name:   "inline policy on a form without a record",
			fn:     func() { nested.Decorate[*forms.Form](nested.Inline(db, nested.Declare("child", nested.FormsetFactory(fields)))) },
			method: "Instance",
		},
		{
			name:   "model policy without transactor",
			fn:     func() { nested.Decorate[*forms.ModelForm](nested.Model(nil, nested.Declare("child", nested.FormsetFactory(fields)))) },
			method: "Save",
		},
		{
			name: "key declared by two policies",
			fn: func() {
				nested.Decorate[*forms.Form](
					nested.Plain(nested.Declare("child", nested.FormsetFactory(fields))),
					nested.Plain(nested.Declare("child", nested.FormsetFactory(fields))),
				)
			},
		},
		{
			name: "key declared twice in one policy",
			fn: func() {
				nested.Plain(nested.Declare("child", nested.FormsetFactory(fields)), nested.Declare("child", nested.FormsetFactory(fields)))
			},
		},
		{
			name: "missing factory",
			fn:   func() { nested.Plain(nested.Declare("child", nil)) },
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			err := expectConfigPanic(t, tc.fn)
			if err.Method != tc.method {
				t.Fatalf("expected method %q, got %+v", tc.method, err)
			}
		})
	}
}

func TestPolicyEvents(t *testing.T) {
	factory := nested.FormsetFactory(fields)
	cases := []struct {
		policy *nested.Policy
		want   []nested.Event
		source string
	}{
		{nested.Plain(nested.Declare("a", factory)), []nested.Event{nested.EventConstruct, nested.EventValidate}, "nested.Plain(a)"},
		{nested.Model(nil, nested.Declare("a", factory), nested.Declare("b", factory)), []nested.Event{nested.EventConstruct, nested.EventValidate, nested.EventPersist}, "nested.Model(a,b)"},
		{nested.Inline(nil, nested.Declare("a", factory)), []nested.Event{nested.EventConstruct, nested.EventValidate, nested.EventPersist}, "nested.Inline(a)"},
	}
	for _, tc := range cases {
		if diff := cmp.Diff(tc.want, tc.policy.Events()); diff != "" {
			t.Fatalf("%s events mismatch (-want +got):\n%s", tc.source, diff)
		}
		if got := tc.policy.String(); got != tc.source {
			t.Fatalf("String() = %q, want %q", got, tc.source)
		}
		for _, event := range tc.want {
			if tc.policy.Extension(event) == nil {
				t.Fatalf("%s has no extension for %s", tc.source, event)
			}
		}
	}
}
