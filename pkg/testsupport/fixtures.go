package testsupport

import (
	"context"
	"encoding/json"
	"net/url"
	"os"
	"path/filepath"
	"strconv"
	"testing"

	"github.com/google/go-cmp/cmp"

	pkgmodel "github.com/goliatone/go-nestedforms/pkg/model"
	"github.com/goliatone/go-nestedforms/pkg/store"
)

// SampleFields is the single text field shared by the parent and child
// fixtures: required, at most eight characters.
var SampleFields = []pkgmodel.Field{
	{Name: "sample_field", Type: pkgmodel.FieldTypeString, Required: true, Validations: []pkgmodel.ValidationRule{pkgmodel.MaxLength(8)}},
}

// Fixture tables: parent rows own child rows through parent_id.
var (
	ParentTable = store.Table{Name: "parent", Columns: []string{"sample_field"}}
	ChildTable  = store.Table{
		Name:        "child",
		Columns:     []string{"parent_id", "sample_field"},
		ForeignKeys: map[string]string{"parent_id": "parent"},
	}
)

// OpenStore returns a migrated in-memory database holding the fixture
// tables, closed when the test ends.
func OpenStore(t *testing.T, tables ...store.Table) *store.DB {
	t.Helper()

	db, err := store.Open(":memory:")
	if err != nil {
		t.Fatalf("open store: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	if len(tables) == 0 {
		tables = []store.Table{ParentTable, ChildTable}
	}
	if err := db.Migrate(context.Background(), tables...); err != nil {
		t.Fatalf("migrate store: %v", err)
	}
	return db
}

// Count returns the number of rows in table.
func Count(t *testing.T, db *store.DB, table store.Table) int {
	t.Helper()

	n, err := db.Count(context.Background(), table)
	if err != nil {
		t.Fatalf("count %s: %v", table.Name, err)
	}
	return n
}

// Submission builds url.Values from alternating key, value pairs.
func Submission(pairs ...string) url.Values {
	if len(pairs)%2 != 0 {
		panic("testsupport: Submission needs key/value pairs")
	}
	values := url.Values{}
	for i := 0; i < len(pairs); i += 2 {
		values.Add(pairs[i], pairs[i+1])
	}
	return values
}

// Management returns the management form entries for a formset prefix.
func Management(prefix string, total, initial int) []string {
	return []string{
		prefix + "-TOTAL_FORMS", strconv.Itoa(total),
		prefix + "-INITIAL_FORMS", strconv.Itoa(initial),
		prefix + "-MIN_NUM_FORMS", "0",
		prefix + "-MAX_NUM_FORMS", "1000",
	}
}

// MustLoadFormModel loads a declaration fixture.
func MustLoadFormModel(t *testing.T, path string) pkgmodel.FormModel {
	t.Helper()

	form, err := pkgmodel.Load(path)
	if err != nil {
		t.Fatalf("load form model: %v", err)
	}
	return form
}

// WriteGolden writes arbitrary data to a golden file when UPDATE_GOLDENS is set.
func WriteGolden(t *testing.T, path string, value any) {
	t.Helper()

	if os.Getenv("UPDATE_GOLDENS") == "" {
		return
	}
	payload, err := json.MarshalIndent(value, "", "  ")
	if err != nil {
		t.Fatalf("marshal golden: %v", err)
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatalf("mkdir golden dir: %v", err)
	}
	if err := os.WriteFile(path, payload, 0o644); err != nil {
		t.Fatalf("write golden: %v", err)
	}
}

// CompareGolden returns a diff string if the values differ.
func CompareGolden(want, got any) string {
	return cmp.Diff(want, got)
}

// MustReadGolden reads a golden file and returns its raw bytes.
func MustReadGolden(t *testing.T, path string) []byte {
	t.Helper()
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read golden: %v", err)
	}
	return data
}

// Context returns a background context for tests.
func Context() context.Context {
	return context.Background()
}
