package sqlstore

import "fmt"

// Dialect captures the few places where PostgreSQL and SQLite differ.
type Dialect interface {
	// Name returns "postgres" or "sqlite".
	Name() string
	// DriverName returns the database/sql driver name ("pgx" or "sqlite").
	DriverName() string
	// Placeholder returns the parameter placeholder for the given 1-based index.
	Placeholder(index int) string
	// NowExpr returns the SQL expression for the current timestamp.
	NowExpr() string
	// SchemaSQL returns the DDL for the dashboard tables.
	SchemaSQL() string
}

// NewDialect picks the dialect for a driver name; anything but sqlite is postgres.
func NewDialect(driver string) Dialect {
	switch driver {
	case "sqlite":
		return &SQLiteDialect{}
	default:
		return &PostgresDialect{}
	}
}

// PostgresDialect implements Dialect for PostgreSQL via pgx/stdlib.
type PostgresDialect struct{}

func (d *PostgresDialect) Name() string       { return "postgres" }
func (d *PostgresDialect) DriverName() string { return "pgx" }
func (d *PostgresDialect) NowExpr() string    { return "NOW()" }

func (d *PostgresDialect) Placeholder(index int) string {
	return fmt.Sprintf("$%d", index)
}

func (d *PostgresDialect) SchemaSQL() string {
	return `
CREATE TABLE IF NOT EXISTS widget_types (
	type_key   TEXT PRIMARY KEY,
	id         TEXT NOT NULL,
	position   BIGINT NOT NULL,
	body       JSONB NOT NULL,
	updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
);
CREATE TABLE IF NOT EXISTS dashboard_configs (
	user_id    TEXT PRIMARY KEY,
	name       TEXT NOT NULL,
	body       JSONB NOT NULL,
	updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
);`
}

// SQLiteDialect implements Dialect for SQLite via modernc.org/sqlite.
type SQLiteDialect struct{}

func (d *SQLiteDialect) Name() string       { return "sqlite" }
func (d *SQLiteDialect) DriverName() string { return "sqlite" }
func (d *SQLiteDialect) NowExpr() string    { return "datetime('now')" }

func (d *SQLiteDialect) Placeholder(index int) string {
	return fmt.Sprintf("?%d", index)
}

func (d *SQLiteDialect) SchemaSQL() string {
	return `
CREATE TABLE IF NOT EXISTS widget_types (
	type_key   TEXT PRIMARY KEY,
	id         TEXT NOT NULL,
	position   INTEGER NOT NULL,
	body       TEXT NOT NULL,
	updated_at TEXT NOT NULL DEFAULT (datetime('now'))
);
CREATE TABLE IF NOT EXISTS dashboard_configs (
	user_id    TEXT PRIMARY KEY,
	name       TEXT NOT NULL,
	body       TEXT NOT NULL,
	updated_at TEXT NOT NULL DEFAULT (datetime('now'))
);`
}
