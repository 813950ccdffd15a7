package adapter

import (
	"context"
	"database/sql"

	sq "github.com/Masterminds/squirrel"

	"github.com/lmari-ekan/alpha-migrations/internal/action"
	"github.com/lmari-ekan/alpha-migrations/internal/amerr"
)

// queryer is the subset of database/sql used by dialect introspection.
type queryer interface {
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
}

// dialect is the internal per-engine surface. The generic sqlAdapter handles
// connection lifecycle, transactions, dry-run, and DML; dialects supply
// quoting, type mapping, DDL rendering, and introspection queries.
type dialect interface {
	name() string
	driverName() string
	quote(ident string) string
	placeholder(index int) string
	placeholderFormat() sq.PlaceholderFormat
	transactionalDDL() bool

	supportsType(t action.ColumnType) bool
	typeFor(t action.ColumnType, limit int) (SQLType, error)

	// actionSQL renders one action to one or more statements.
	actionSQL(act action.Action) ([]string, error)

	truncateSQL(table string) string

	// ignoreDuplicates rewrites an insert builder into the dialect's
	// insert-or-ignore form. ok is false when the dialect has none.
	ignoreDuplicates(b sq.InsertBuilder) (sq.InsertBuilder, bool)

	// Introspection queries. indexRowsSQL and foreignKeyRowsSQL select
	// (name, column_name) pairs ordered by name then ordinal position;
	// primaryKeySQL selects column names in key order.
	hasTableSQL(table string) (string, []any)
	hasColumnSQL(table, column string) (string, []any)
	indexRowsSQL(table string) (string, []any)
	foreignKeyRowsSQL(table string) (string, []any)
	primaryKeySQL(table string) (string, []any)
	columns(ctx context.Context, db queryer, table string) ([]*action.Column, error)
}

// sizeTier is an engine-specific size class for tiered types (blob/text).
type sizeTier struct {
	Name  string
	Limit int
}

// pickTier returns the smallest tier whose capacity covers the requested
// limit. Requests beyond the largest tier clamp to it, so promotion is
// monotonic and idempotent. A zero limit selects the default tier index.
func pickTier(tiers []sizeTier, limit, defaultIdx int) SQLType {
	if limit <= 0 {
		t := tiers[defaultIdx]
		return SQLType{Name: t.Name, Limit: t.Limit}
	}
	for _, t := range tiers {
		if limit <= t.Limit {
			return SQLType{Name: t.Name, Limit: t.Limit}
		}
	}
	last := tiers[len(tiers)-1]
	return SQLType{Name: last.Name, Limit: last.Limit}
}

// unsupportedType builds the schema-consistency error for a type the
// dialect does not support.
func unsupportedType(dialectName string, t action.ColumnType) error {
	return amerr.Newf(amerr.ErrInvalidType, "column type %q is not supported by the %s adapter", t, dialectName)
}

// unsupportedAction builds the error for an action the dialect cannot express.
func unsupportedAction(dialectName string, k action.Kind) error {
	return amerr.Newf(amerr.ErrSQLExecution, "%s is not supported by the %s adapter", k, dialectName)
}
