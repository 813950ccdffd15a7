package migration

import (
	"context"
	"database/sql"

	"github.com/lmari-ekan/alpha-migrations/internal/action"
	"github.com/lmari-ekan/alpha-migrations/internal/adapter"
	"github.com/lmari-ekan/alpha-migrations/internal/table"
)

// Runner is the surface a migration script works against. It hands out
// table handles bound to the active adapter and allows raw SQL escapes for
// the cases the action model does not cover.
type Runner struct {
	adapter adapter.Adapter
}

// NewRunner binds a runner to an adapter.
func NewRunner(ad adapter.Adapter) *Runner {
	return &Runner{adapter: ad}
}

// Table returns a fluent handle for one table. Options beyond the first are
// ignored; the variadic form just keeps the common no-options call short.
func (r *Runner) Table(name string, opts ...action.TableOptions) *table.Table {
	var o action.TableOptions
	if len(opts) > 0 {
		o = opts[0]
	}
	return table.New(name, o, r.adapter)
}

// HasTable reports whether a table exists.
func (r *Runner) HasTable(ctx context.Context, name string) (bool, error) {
	return r.adapter.HasTable(ctx, name)
}

// Execute runs a raw SQL statement. In dry-run mode it is written to the
// sink like any generated statement.
func (r *Runner) Execute(ctx context.Context, query string, args ...any) error {
	return r.adapter.Exec(ctx, query, args...)
}

// Query runs a raw SQL query against the live connection.
func (r *Runner) Query(ctx context.Context, query string, args ...any) (*sql.Rows, error) {
	return r.adapter.Query(ctx, query, args...)
}

// Adapter exposes the underlying adapter for dialect-specific branches
// inside a migration.
func (r *Runner) Adapter() adapter.Adapter {
	return r.adapter
}
