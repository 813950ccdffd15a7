package migration

import (
	"context"
	"database/sql"
	"io"

	"github.com/lmari-ekan/alpha-migrations/internal/action"
	"github.com/lmari-ekan/alpha-migrations/internal/adapter"
	"github.com/lmari-ekan/alpha-migrations/internal/amerr"
)

// recorder is an adapter that captures planned actions instead of executing
// them. Rolling back a change-style migration replays the forward body
// against a recorder, then inverts the captured sequence. Dialect queries
// (quoting, type support) delegate to the real adapter so the replay makes
// the same decisions the forward run did; nothing touches the database.
type recorder struct {
	inner   adapter.Adapter
	actions []action.Action
}

func newRecorder(inner adapter.Adapter) *recorder {
	return &recorder{inner: inner}
}

func (r *recorder) Name() string                    { return r.inner.Name() }
func (r *recorder) Connect(ctx context.Context) error { return nil }
func (r *recorder) Close() error                    { return nil }
func (r *recorder) Quote(ident string) string       { return r.inner.Quote(ident) }
func (r *recorder) Placeholder(index int) string    { return r.inner.Placeholder(index) }
func (r *recorder) SupportsTransactionalDDL() bool  { return r.inner.SupportsTransactionalDDL() }

func (r *recorder) IsValidColumnType(t action.ColumnType) bool {
	return r.inner.IsValidColumnType(t)
}

func (r *recorder) GetSQLType(t action.ColumnType, limit int) (adapter.SQLType, error) {
	return r.inner.GetSQLType(t, limit)
}

func (r *recorder) Execute(ctx context.Context, act action.Action) error {
	r.actions = append(r.actions, act)
	return nil
}

// Data operations are not part of the schema inversion; the replay drops them.
func (r *recorder) Insert(context.Context, string, []string, []any, bool) error     { return nil }
func (r *recorder) BulkInsert(context.Context, string, []string, [][]any, bool) error { return nil }
func (r *recorder) Truncate(context.Context, string) error                          { return nil }

func (r *recorder) Begin(context.Context) error { return nil }
func (r *recorder) Commit() error               { return nil }
func (r *recorder) Rollback() error             { return nil }

// Introspection reports the empty schema: the replay sees the world as the
// forward run first did, so Save folds creates exactly as before.
func (r *recorder) HasTable(context.Context, string) (bool, error)          { return false, nil }
func (r *recorder) HasColumn(context.Context, string, string) (bool, error) { return false, nil }
func (r *recorder) HasIndex(context.Context, string, []string) (bool, error) {
	return false, nil
}
func (r *recorder) HasIndexByName(context.Context, string, string) (bool, error) {
	return false, nil
}
func (r *recorder) HasForeignKey(context.Context, string, []string, string) (bool, error) {
	return false, nil
}
func (r *recorder) HasPrimaryKey(context.Context, string, []string) (bool, error) {
	return false, nil
}
func (r *recorder) GetColumns(context.Context, string) ([]*action.Column, error) {
	return nil, nil
}

func (r *recorder) Query(context.Context, string, ...any) (*sql.Rows, error) {
	return nil, amerr.New(amerr.ErrIrreversible, "raw queries cannot be replayed for rollback")
}

func (r *recorder) Exec(context.Context, string, ...any) error {
	return amerr.New(amerr.ErrIrreversible, "raw statements cannot be inverted for rollback")
}

func (r *recorder) SetDryRun(io.Writer) {}
func (r *recorder) DryRun() bool        { return false }
