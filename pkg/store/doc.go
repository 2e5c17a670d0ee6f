// Package store persists form records in SQLite. Records are untyped column
// maps keyed by an autoincrement id; tables are declared with Table and
// created with Migrate.
//
// Writes issued through a context returned by Atomic share one transaction,
// so a parent row and the child rows saved with it commit or roll back
// together. Nested Atomic calls on the same DB join the outer transaction.
package store
