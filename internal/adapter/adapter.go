// Package adapter provides per-dialect SQL execution and schema introspection.
// Each dialect (mysql, postgres, sqlite, sqlserver) implements the same fixed
// capability surface; a new dialect must implement all of it to be pluggable.
package adapter

import (
	"context"
	"database/sql"
	"io"

	"github.com/lmari-ekan/alpha-migrations/internal/action"
	"github.com/lmari-ekan/alpha-migrations/internal/amerr"
)

// SQLType is the dialect-level rendering of a semantic column type after
// size clamping/promotion.
type SQLType struct {
	Name  string
	Limit int
}

// Adapter executes concrete SQL for each action and answers the schema
// introspection queries the Table and Plan layers need. The adapter
// exclusively owns the database connection handle: it connects lazily on
// first use and Close is idempotent.
type Adapter interface {
	// Name returns the dialect name (mysql, postgres, sqlite, sqlserver).
	Name() string

	// Connect opens the underlying connection. Calling any query or execute
	// method connects implicitly; an explicit Connect surfaces configuration
	// errors early.
	Connect(ctx context.Context) error

	// Close releases the connection. Safe to call more than once.
	Close() error

	// Quote quotes an identifier for the dialect.
	Quote(ident string) string

	// Placeholder returns the parameter placeholder for a 1-based index.
	Placeholder(index int) string

	// SupportsTransactionalDDL reports whether DDL can run inside a
	// transaction on this engine.
	SupportsTransactionalDDL() bool

	// IsValidColumnType reports whether the dialect supports the semantic type.
	IsValidColumnType(t action.ColumnType) bool

	// GetSQLType maps a semantic type and requested limit to the dialect
	// type, applying the size-promotion rules (promotion is monotonic and
	// idempotent).
	GetSQLType(t action.ColumnType, limit int) (SQLType, error)

	// Introspection. HasIndex matches the full column set only, in any
	// order; a composite index is never matched by a subset of its columns.
	HasTable(ctx context.Context, table string) (bool, error)
	HasColumn(ctx context.Context, table, column string) (bool, error)
	HasIndex(ctx context.Context, table string, columns []string) (bool, error)
	HasIndexByName(ctx context.Context, table, name string) (bool, error)
	HasForeignKey(ctx context.Context, table string, columns []string, constraint string) (bool, error)
	HasPrimaryKey(ctx context.Context, table string, columns []string) (bool, error)
	GetColumns(ctx context.Context, table string) ([]*action.Column, error)

	// Execute runs one schema action. In dry-run mode the generated SQL is
	// written to the sink instead of the connection.
	Execute(ctx context.Context, act action.Action) error

	// Insert writes one row. BulkInsert writes many rows sharing one column
	// set in a single statement. The ignoreDuplicates flag maps to the
	// dialect's insert-or-ignore syntax.
	Insert(ctx context.Context, table string, columns []string, values []any, ignoreDuplicates bool) error
	BulkInsert(ctx context.Context, table string, columns []string, rows [][]any, ignoreDuplicates bool) error

	// Truncate empties a table immediately, outside the action pipeline.
	Truncate(ctx context.Context, table string) error

	// Transaction control. In dry-run mode these emit synthetic
	// START TRANSACTION / COMMIT / ROLLBACK statements to the sink.
	Begin(ctx context.Context) error
	Commit() error
	Rollback() error

	// Query and Exec are raw passthroughs used by the version ledger.
	Query(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	Exec(ctx context.Context, query string, args ...any) error

	// SetDryRun routes generated SQL to sink instead of executing it.
	// A nil sink disables dry-run.
	SetDryRun(sink io.Writer)
	DryRun() bool
}

// Open constructs an adapter for the named dialect. The connection is not
// opened until first use.
func Open(name, dsn string) (Adapter, error) {
	var d dialect
	switch name {
	case "mysql":
		d = newMySQL()
	case "postgres", "postgresql":
		d = newPostgres()
	case "sqlite", "sqlite3":
		d = newSQLite()
	case "sqlserver", "mssql":
		d = newSQLServer()
	default:
		return nil, amerr.Newf(amerr.ErrConfigInvalid, "unsupported adapter %q", name).
			With("supported", "mysql, postgres, sqlite, sqlserver")
	}
	if dsn == "" {
		return nil, amerr.New(amerr.ErrConfigMissing, "connection string is required").
			With("adapter", name)
	}
	return &sqlAdapter{dialect: d, dsn: dsn}, nil
}
