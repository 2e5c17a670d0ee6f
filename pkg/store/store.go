package store

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"github.com/cockroachdb/errors"
	"github.com/doug-martin/goqu/v9"
	_ "github.com/doug-martin/goqu/v9/dialect/sqlite3"
	"github.com/jmoiron/sqlx"
	_ "github.com/mattn/go-sqlite3"
	"go.uber.org/zap"
)

const (
	driverName  = "sqlite3"
	dialectName = "sqlite3"
)

// ErrNotFound is returned when a record lookup matches no row.
var ErrNotFound = errors.New("store: record not found")

// Transactor runs fn inside a transactional scope. Everything fn writes
// through the supplied context commits when fn returns nil and rolls back
// otherwise.
type Transactor interface {
	Atomic(ctx context.Context, fn func(ctx context.Context) error) error
}

// Option customises a DB.
type Option func(*DB)

// WithLogger attaches a logger for statement and transaction tracing.
func WithLogger(logger *zap.SugaredLogger) Option {
	return func(d *DB) {
		if logger != nil {
			d.logger = logger
		}
	}
}

// DB stores records in SQLite through sqlx, building statements with goqu.
type DB struct {
	db      *sqlx.DB
	dialect goqu.DialectWrapper
	logger  *zap.SugaredLogger
}

var _ Transactor = (*DB)(nil)

// Open connects to the SQLite database at dsn (":memory:" is accepted) and
// enables foreign keys. SQLite allows one writer, so the pool is capped at a
// single connection; this also keeps in-memory databases on one handle.
func Open(dsn string, options ...Option) (*DB, error) {
	if strings.TrimSpace(dsn) == "" {
		return nil, errors.New("store: dsn is required")
	}
	conn, err := sqlx.Open(driverName, dsn)
	if err != nil {
		return nil, errors.Wrap(err, "store: open database")
	}
	conn.SetMaxOpenConns(1)
	conn.SetMaxIdleConns(1)

	if err := conn.Ping(); err != nil {
		conn.Close()
		return nil, errors.Wrap(err, "store: connect")
	}
	if _, err := conn.Exec("PRAGMA foreign_keys = ON"); err != nil {
		conn.Close()
		return nil, errors.Wrap(err, "store: enable foreign keys")
	}

	d := newDB(conn, options...)
	d.logger.Debugw("database opened", "dsn", dsn)
	return d, nil
}

// New wraps an existing *sql.DB, for example one created by go-sqlmock.
func New(db *sql.DB, options ...Option) *DB {
	return newDB(sqlx.NewDb(db, driverName), options...)
}

func newDB(conn *sqlx.DB, options ...Option) *DB {
	d := &DB{
		db:      conn,
		dialect: goqu.Dialect(dialectName),
		logger:  zap.NewNop().Sugar(),
	}
	for _, opt := range options {
		if opt != nil {
			opt(d)
		}
	}
	return d
}

// Close releases the underlying connection pool.
func (d *DB) Close() error {
	return d.db.Close()
}

// Migrate creates the declared tables when they do not exist yet.
func (d *DB) Migrate(ctx context.Context, tables ...Table) error {
	return d.Atomic(ctx, func(ctx context.Context) error {
		for _, table := range tables {
			stmt, err := createTableSQL(table)
			if err != nil {
				return err
			}
			if _, err := d.executor(ctx).ExecContext(ctx, stmt); err != nil {
				return errors.Wrapf(err, "store: create table %q", table.Name)
			}
			d.logger.Debugw("table ready", "table", table.Name, "columns", table.Columns)
		}
		return nil
	})
}

// createTableSQL renders DDL by hand; goqu only builds DML.
func createTableSQL(table Table) (string, error) {
	if table.Name == "" {
		return "", errors.New("store: table name is required")
	}
	defs := []string{quoteIdent(IDColumn) + " INTEGER PRIMARY KEY AUTOINCREMENT"}
	for _, column := range table.Columns {
		if column == "" || column == IDColumn {
			return "", errors.Newf("store: table %q has invalid column %q", table.Name, column)
		}
		def := quoteIdent(column) + " TEXT"
		if ref, ok := table.ForeignKeys[column]; ok {
			def = fmt.Sprintf("%s INTEGER REFERENCES %s(%s)", quoteIdent(column), quoteIdent(ref), quoteIdent(IDColumn))
		}
		defs = append(defs, def)
	}
	return fmt.Sprintf("CREATE TABLE IF NOT EXISTS %s (%s)", quoteIdent(table.Name), strings.Join(defs, ", ")), nil
}

func quoteIdent(name string) string {
	return `"` + strings.ReplaceAll(name, `"`, `""`) + `"`
}

type txKey struct {
	db *DB
}

// Atomic runs fn in a transaction. When ctx already carries a transaction of
// this DB, fn joins it and the outermost call decides commit or rollback.
func (d *DB) Atomic(ctx context.Context, fn func(ctx context.Context) error) (err error) {
	if ctx == nil {
		return errors.New("store: context is required")
	}
	if _, ok := ctx.Value(txKey{db: d}).(*sqlx.Tx); ok {
		return fn(ctx)
	}

	tx, err := d.db.BeginTxx(ctx, nil)
	if err != nil {
		return errors.Wrap(err, "store: begin transaction")
	}
	d.logger.Debugw("transaction started")

	defer func() {
		if p := recover(); p != nil {
			_ = tx.Rollback()
			panic(p)
		}
		if err != nil {
			if rbErr := tx.Rollback(); rbErr != nil {
				err = errors.WithSecondaryError(err, rbErr)
			}
			d.logger.Debugw("transaction rolled back", "error", err)
			return
		}
		if cErr := tx.Commit(); cErr != nil {
			err = errors.Wrap(cErr, "store: commit transaction")
			return
		}
		d.logger.Debugw("transaction committed")
	}()

	return fn(context.WithValue(ctx, txKey{db: d}, tx))
}

// InTransaction reports whether ctx carries an open transaction of this DB.
func (d *DB) InTransaction(ctx context.Context) bool {
	if ctx == nil {
		return false
	}
	_, ok := ctx.Value(txKey{db: d}).(*sqlx.Tx)
	return ok
}

func (d *DB) executor(ctx context.Context) sqlx.ExtContext {
	if tx, ok := ctx.Value(txKey{db: d}).(*sqlx.Tx); ok {
		return tx
	}
	return d.db
}
