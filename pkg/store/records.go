package store

import (
	"context"
	"database/sql"

	"github.com/cockroachdb/errors"
	"github.com/doug-martin/goqu/v9"
	"github.com/jmoiron/sqlx"
)

// Save inserts rec when it has no ID and updates it otherwise. Only columns
// declared on table are written. After an insert rec.ID holds the new key.
func (d *DB) Save(ctx context.Context, table Table, rec *Record) error {
	if rec == nil {
		return errors.New("store: record is required")
	}
	if table.Name == "" {
		return errors.New("store: table name is required")
	}
	row := table.row(rec.Values)

	if rec.ID == 0 {
		return d.insert(ctx, table, rec, row)
	}
	return d.update(ctx, table, rec, row)
}

func (d *DB) insert(ctx context.Context, table Table, rec *Record, row map[string]any) error {
	query := "INSERT INTO " + quoteIdent(table.Name) + " DEFAULT VALUES"
	var args []any
	if len(row) > 0 {
		var err error
		query, args, err = d.dialect.Insert(table.Name).Prepared(true).Rows(goqu.Record(row)).ToSQL()
		if err != nil {
			return errors.Wrapf(err, "store: build insert into %q", table.Name)
		}
	}
	result, err := d.executor(ctx).ExecContext(ctx, query, args...)
	if err != nil {
		return errors.Wrapf(err, "store: insert into %q", table.Name)
	}
	id, err := result.LastInsertId()
	if err != nil {
		return errors.Wrapf(err, "store: read id inserted into %q", table.Name)
	}
	rec.ID = id
	d.logger.Debugw("record inserted", "table", table.Name, "id", id, "columns", sortedColumns(row))
	return nil
}

func (d *DB) update(ctx context.Context, table Table, rec *Record, row map[string]any) error {
	if len(row) == 0 {
		return nil
	}
	query, args, err := d.dialect.Update(table.Name).Prepared(true).
		Set(goqu.Record(row)).
		Where(goqu.C(IDColumn).Eq(rec.ID)).
		ToSQL()
	if err != nil {
		return errors.Wrapf(err, "store: build update of %q", table.Name)
	}
	result, err := d.executor(ctx).ExecContext(ctx, query, args...)
	if err != nil {
		return errors.Wrapf(err, "store: update %q id %d", table.Name, rec.ID)
	}
	if affected, err := result.RowsAffected(); err == nil && affected == 0 {
		return errors.Wrapf(ErrNotFound, "store: update %q id %d", table.Name, rec.ID)
	}
	d.logger.Debugw("record updated", "table", table.Name, "id", rec.ID, "columns", sortedColumns(row))
	return nil
}

// Get loads a single record by id.
func (d *DB) Get(ctx context.Context, table Table, id int64) (*Record, error) {
	records, err := d.List(ctx, table, map[string]any{IDColumn: id})
	if err != nil {
		return nil, err
	}
	if len(records) == 0 {
		return nil, errors.Wrapf(ErrNotFound, "store: %q id %d", table.Name, id)
	}
	return records[0], nil
}

// List returns records whose columns equal every value in where, ordered by
// id. A nil where lists the whole table.
func (d *DB) List(ctx context.Context, table Table, where map[string]any) ([]*Record, error) {
	ds := d.dialect.From(table.Name).Prepared(true).Order(goqu.C(IDColumn).Asc())
	if len(where) > 0 {
		ds = ds.Where(goqu.Ex(where))
	}
	query, args, err := ds.ToSQL()
	if err != nil {
		return nil, errors.Wrapf(err, "store: build select from %q", table.Name)
	}

	rows, err := d.executor(ctx).QueryxContext(ctx, query, args...)
	if err != nil {
		return nil, errors.Wrapf(err, "store: select from %q", table.Name)
	}
	defer rows.Close()

	var records []*Record
	for rows.Next() {
		rec, err := scanRecord(rows)
		if err != nil {
			return nil, errors.Wrapf(err, "store: scan %q", table.Name)
		}
		records = append(records, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, errors.Wrapf(err, "store: iterate %q", table.Name)
	}
	return records, nil
}

// Count returns the number of rows in table.
func (d *DB) Count(ctx context.Context, table Table) (int, error) {
	query, args, err := d.dialect.From(table.Name).Prepared(true).Select(goqu.COUNT(goqu.Star())).ToSQL()
	if err != nil {
		return 0, errors.Wrapf(err, "store: build count of %q", table.Name)
	}
	var count int
	if err := d.executor(ctx).QueryRowxContext(ctx, query, args...).Scan(&count); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return 0, nil
		}
		return 0, errors.Wrapf(err, "store: count %q", table.Name)
	}
	return count, nil
}

func scanRecord(rows *sqlx.Rows) (*Record, error) {
	raw := make(map[string]any)
	if err := rows.MapScan(raw); err != nil {
		return nil, err
	}
	rec := &Record{Values: make(map[string]any, len(raw))}
	for column, value := range raw {
		if b, ok := value.([]byte); ok {
			value = string(b)
		}
		if column == IDColumn {
			id, ok := value.(int64)
			if !ok {
				return nil, errors.Newf("store: unexpected id type %T", value)
			}
			rec.ID = id
			continue
		}
		rec.Values[column] = value
	}
	return rec, nil
}
