package store_test

import (
	"context"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/cockroachdb/errors"
	"github.com/google/go-cmp/cmp"

	"github.com/goliatone/go-nestedforms/pkg/store"
)

var (
	parents  = store.Table{Name: "parent", Columns: []string{"sample_field"}}
	children = store.Table{
		Name:        "child",
		Columns:     []string{"parent_id", "sample_field"},
		ForeignKeys: map[string]string{"parent_id": "parent"},
	}
)

func openMemory(t *testing.T) *store.DB {
	t.Helper()
	db, err := store.Open(":memory:")
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	if err := db.Migrate(context.Background(), parents, children); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	return db
}

func TestSaveInsertThenUpdate(t *testing.T) {
	ctx := context.Background()
	db := openMemory(t)

	rec := store.NewRecord(map[string]any{"sample_field": "spam", "ignored": "x"})
	if err := db.Save(ctx, parents, rec); err != nil {
		t.Fatalf("insert: %v", err)
	}
	if rec.ID != 1 {
		t.Fatalf("expected id 1, got %d", rec.ID)
	}

	rec.Set("sample_field", "eggs")
	if err := db.Save(ctx, parents, rec); err != nil {
		t.Fatalf("update: %v", err)
	}

	got, err := db.Get(ctx, parents, 1)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	want := &store.Record{ID: 1, Values: map[string]any{"sample_field": "eggs"}}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Fatalf("record mismatch (-want +got):\n%s", diff)
	}
}

func TestGetMissingRecord(t *testing.T) {
	db := openMemory(t)
	_, err := db.Get(context.Background(), parents, 42)
	if !errors.Is(err, store.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestListFiltersByColumn(t *testing.T) {
	ctx := context.Background()
	db := openMemory(t)

	parent := store.NewRecord(map[string]any{"sample_field": "p"})
	if err := db.Save(ctx, parents, parent); err != nil {
		t.Fatalf("save parent: %v", err)
	}
	for _, value := range []string{"a", "b"} {
		child := store.NewRecord(map[string]any{"parent_id": parent.ID, "sample_field": value})
		if err := db.Save(ctx, children, child); err != nil {
			t.Fatalf("save child: %v", err)
		}
	}

	records, err := db.List(ctx, children, map[string]any{"parent_id": parent.ID})
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	var values []string
	for _, rec := range records {
		values = append(values, rec.String("sample_field"))
		if rec.Get("parent_id") != parent.ID {
			t.Fatalf("expected parent_id %d, got %#v", parent.ID, rec.Get("parent_id"))
		}
	}
	if diff := cmp.Diff([]string{"a", "b"}, values); diff != "" {
		t.Fatalf("values mismatch (-want +got):\n%s", diff)
	}
}

func TestAtomicRollsBackOnError(t *testing.T) {
	ctx := context.Background()
	db := openMemory(t)
	boom := errors.New("boom")

	err := db.Atomic(ctx, func(ctx context.Context) error {
		if err := db.Save(ctx, parents, store.NewRecord(map[string]any{"sample_field": "spam"})); err != nil {
			return err
		}
		return boom
	})
	if !errors.Is(err, boom) {
		t.Fatalf("expected boom, got %v", err)
	}

	count, err := db.Count(ctx, parents)
	if err != nil {
		t.Fatalf("count: %v", err)
	}
	if count != 0 {
		t.Fatalf("expected rollback to leave 0 rows, got %d", count)
	}
}

func TestAtomicNestedCallsJoinOuterTransaction(t *testing.T) {
	ctx := context.Background()
	db := openMemory(t)
	boom := errors.New("boom")

	err := db.Atomic(ctx, func(ctx context.Context) error {
		inner := db.Atomic(ctx, func(ctx context.Context) error {
			if !db.InTransaction(ctx) {
				t.Fatalf("expected inner scope to see the transaction")
			}
			return db.Save(ctx, parents, store.NewRecord(map[string]any{"sample_field": "inner"}))
		})
		if inner != nil {
			return inner
		}
		return boom
	})
	if !errors.Is(err, boom) {
		t.Fatalf("expected boom, got %v", err)
	}
	count, err := db.Count(ctx, parents)
	if err != nil {
		t.Fatalf("count: %v", err)
	}
	if count != 0 {
		t.Fatalf("expected inner write to roll back with outer scope, got %d rows", count)
	}
}

func TestAtomicRollbackWithSQLMock(t *testing.T) {
	conn, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock: %v", err)
	}
	defer conn.Close()
	db := store.New(conn)

	mock.ExpectBegin()
	mock.ExpectExec("INSERT INTO .parent.").WillReturnResult(sqlmock.NewResult(1, 1))
	mock.ExpectExec("INSERT INTO .child.").WillReturnError(errors.New("disk full"))
	mock.ExpectRollback()

	err = db.Atomic(context.Background(), func(ctx context.Context) error {
		parent := store.NewRecord(map[string]any{"sample_field": "spam"})
		if err := db.Save(ctx, parents, parent); err != nil {
			return err
		}
		child := store.NewRecord(map[string]any{"parent_id": parent.ID, "sample_field": "eggs"})
		return db.Save(ctx, children, child)
	})
	if err == nil {
		t.Fatalf("expected child insert failure")
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unmet expectations: %v", err)
	}
}
