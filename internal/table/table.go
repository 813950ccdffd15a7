// Package table provides the fluent schema-editing handle used inside
// migrations. Calls accumulate typed actions; nothing touches the database
// until Save. The first invalid call latches an error and every later call
// becomes a no-op, so Save reports the earliest failure.
package table

import (
	"context"
	"sort"

	"github.com/lmari-ekan/alpha-migrations/internal/action"
	"github.com/lmari-ekan/alpha-migrations/internal/adapter"
	"github.com/lmari-ekan/alpha-migrations/internal/amerr"
	"github.com/lmari-ekan/alpha-migrations/internal/plan"
)

// ColumnOption mutates a column definition at add time.
type ColumnOption func(*action.Column)

// WithLimit sets the length/size hint.
func WithLimit(limit int) ColumnOption {
	return func(c *action.Column) { c.Limit = limit }
}

// WithNull marks the column nullable.
func WithNull() ColumnOption {
	return func(c *action.Column) { c.Null = true }
}

// WithDefault sets the default value. Pass an action.Literal for raw SQL
// expressions such as CURRENT_TIMESTAMP.
func WithDefault(v any) ColumnOption {
	return func(c *action.Column) { c.SetDefault(v) }
}

// WithPrecision sets decimal precision and scale.
func WithPrecision(precision, scale int) ColumnOption {
	return func(c *action.Column) {
		c.Precision = precision
		c.Scale = scale
	}
}

// WithUnsigned marks an integer column unsigned.
func WithUnsigned() ColumnOption {
	return func(c *action.Column) { c.Unsigned = true }
}

// WithComment sets the column comment.
func WithComment(comment string) ColumnOption {
	return func(c *action.Column) { c.Comment = comment }
}

// WithCollation sets the column collation.
func WithCollation(collation string) ColumnOption {
	return func(c *action.Column) { c.Collation = collation }
}

// WithValues sets the allowed values for enum and set columns.
func WithValues(values ...string) ColumnOption {
	return func(c *action.Column) { c.Values = values }
}

// IndexOption mutates an index definition at add time.
type IndexOption func(*action.Index)

// Unique marks the index unique.
func Unique() IndexOption {
	return func(i *action.Index) { i.Unique = true }
}

// Named sets an explicit index name.
func Named(name string) IndexOption {
	return func(i *action.Index) { i.Name = name }
}

// Fulltext marks the index as fulltext (mysql only).
func Fulltext() IndexOption {
	return func(i *action.Index) { i.Kind = action.IndexFulltext }
}

// ForeignKeyOption mutates a foreign key definition at add time.
type ForeignKeyOption func(*action.ForeignKey)

// OnDelete sets the delete referential action.
func OnDelete(ra action.ReferentialAction) ForeignKeyOption {
	return func(fk *action.ForeignKey) { fk.OnDelete = ra }
}

// OnUpdate sets the update referential action.
func OnUpdate(ra action.ReferentialAction) ForeignKeyOption {
	return func(fk *action.ForeignKey) { fk.OnUpdate = ra }
}

// ConstraintName sets an explicit constraint name.
func ConstraintName(name string) ForeignKeyOption {
	return func(fk *action.ForeignKey) { fk.Name = name }
}

// Table is the fluent handle for one table's pending schema edits and rows.
type Table struct {
	name    string
	opts    action.TableOptions
	adapter adapter.Adapter
	intent  *plan.Intent
	rows    []map[string]any
	ignore  bool
	err     error

	// existsOverride pins the planner's new-vs-existing decision. Create and
	// Update set it; plain Save asks the adapter.
	existsOverride *bool
}

// New constructs a handle bound to an adapter. The handle holds no state
// about whether the table exists; Save checks at execution time.
func New(name string, opts action.TableOptions, ad adapter.Adapter) *Table {
	return &Table{
		name:    name,
		opts:    opts,
		adapter: ad,
		intent:  plan.NewIntent(),
	}
}

// Name returns the table name.
func (t *Table) Name() string { return t.name }

// Err returns the latched error, if any.
func (t *Table) Err() error { return t.err }

// fail latches the first error.
func (t *Table) fail(err error) *Table {
	if t.err == nil {
		t.err = err
	}
	return t
}

func (t *Table) add(act action.Action) *Table {
	if t.err != nil {
		return t
	}
	if err := act.Validate(); err != nil {
		return t.fail(err)
	}
	t.intent.Add(act)
	return t
}

// -----------------------------------------------------------------------------
// Columns
// -----------------------------------------------------------------------------

// AddColumn queues a new column. The type is checked against the adapter's
// capability set immediately so a bad type fails at declaration, not at Save.
func (t *Table) AddColumn(name string, typ action.ColumnType, opts ...ColumnOption) *Table {
	if t.err != nil {
		return t
	}
	if !t.adapter.IsValidColumnType(typ) {
		return t.fail(amerr.Newf(amerr.ErrInvalidType, "column type %q is not supported by the %s adapter", typ, t.adapter.Name()).
			WithTable(t.name).
			WithColumn(name))
	}
	col := action.NewColumn(name, typ)
	for _, opt := range opts {
		opt(col)
	}
	return t.add(action.NewAddColumn(t.name, col))
}

// AddLiteralColumn queues a column with a raw dialect-specific type string,
// bypassing type validation.
func (t *Table) AddLiteralColumn(name string, raw action.Literal, opts ...ColumnOption) *Table {
	if t.err != nil {
		return t
	}
	col := action.NewLiteralColumn(name, raw)
	for _, opt := range opts {
		opt(col)
	}
	return t.add(action.NewAddColumn(t.name, col))
}

// RemoveColumn queues dropping a column.
func (t *Table) RemoveColumn(name string) *Table {
	return t.add(action.NewRemoveColumn(t.name, name))
}

// RenameColumn queues renaming a column.
func (t *Table) RenameColumn(oldName, newName string) *Table {
	return t.add(action.NewRenameColumn(t.name, oldName, newName))
}

// ChangeColumn queues replacing a column's definition. The replacement may
// rename the column by carrying a different name.
func (t *Table) ChangeColumn(name string, typ action.ColumnType, opts ...ColumnOption) *Table {
	if t.err != nil {
		return t
	}
	if !t.adapter.IsValidColumnType(typ) {
		return t.fail(amerr.Newf(amerr.ErrInvalidType, "column type %q is not supported by the %s adapter", typ, t.adapter.Name()).
			WithTable(t.name).
			WithColumn(name))
	}
	col := action.NewColumn(name, typ)
	for _, opt := range opts {
		opt(col)
	}
	return t.add(action.NewChangeColumn(t.name, name, col))
}

// HasColumn reports whether the column exists in the database right now;
// queued actions are not considered.
func (t *Table) HasColumn(ctx context.Context, name string) (bool, error) {
	if t.err != nil {
		return false, t.err
	}
	return t.adapter.HasColumn(ctx, t.name, name)
}

// -----------------------------------------------------------------------------
// Indexes
// -----------------------------------------------------------------------------

// AddIndex queues a new index over the given columns.
func (t *Table) AddIndex(columns []string, opts ...IndexOption) *Table {
	if t.err != nil {
		return t
	}
	idx := &action.Index{Columns: columns}
	for _, opt := range opts {
		opt(idx)
	}
	return t.add(action.NewAddIndex(t.name, idx))
}

// RemoveIndex queues dropping the index that covers exactly these columns.
// A composite index is never matched by a subset of its columns.
func (t *Table) RemoveIndex(columns []string) *Table {
	return t.add(action.NewDropIndex(t.name, columns))
}

// RemoveIndexByName queues dropping an index by name.
func (t *Table) RemoveIndexByName(name string) *Table {
	return t.add(action.NewDropIndexByName(t.name, name))
}

// HasIndex reports whether an index over exactly these columns exists.
func (t *Table) HasIndex(ctx context.Context, columns []string) (bool, error) {
	if t.err != nil {
		return false, t.err
	}
	return t.adapter.HasIndex(ctx, t.name, columns)
}

// -----------------------------------------------------------------------------
// Foreign keys
// -----------------------------------------------------------------------------

// AddForeignKey queues a foreign key from columns to refTable(refColumns).
func (t *Table) AddForeignKey(columns []string, refTable string, refColumns []string, opts ...ForeignKeyOption) *Table {
	if t.err != nil {
		return t
	}
	fk := &action.ForeignKey{
		Columns:    columns,
		RefTable:   refTable,
		RefColumns: refColumns,
	}
	for _, opt := range opts {
		opt(fk)
	}
	return t.add(action.NewAddForeignKey(t.name, fk))
}

// DropForeignKey queues dropping the foreign key on exactly these columns.
func (t *Table) DropForeignKey(columns []string) *Table {
	return t.add(action.NewDropForeignKey(t.name, columns))
}

// DropForeignKeyByName queues dropping a foreign key by constraint name.
func (t *Table) DropForeignKeyByName(constraint string) *Table {
	return t.add(action.NewDropForeignKeyByName(t.name, constraint))
}

// HasForeignKey reports whether a foreign key on exactly these columns exists.
func (t *Table) HasForeignKey(ctx context.Context, columns []string) (bool, error) {
	if t.err != nil {
		return false, t.err
	}
	return t.adapter.HasForeignKey(ctx, t.name, columns, "")
}

// -----------------------------------------------------------------------------
// Table-level edits
// -----------------------------------------------------------------------------

// Rename queues renaming the table. Later queued actions still address the
// table through this handle.
func (t *Table) Rename(newName string) *Table {
	return t.add(&action.RenameTable{Name: t.name, NewName: newName})
}

// ChangePrimaryKey queues replacing the primary key. An empty column list
// drops it.
func (t *Table) ChangePrimaryKey(columns []string) *Table {
	return t.add(action.NewChangePrimaryKey(t.name, columns))
}

// ChangeComment queues replacing the table comment.
func (t *Table) ChangeComment(comment string) *Table {
	return t.add(action.NewChangeComment(t.name, &comment))
}

// RemoveComment queues removing the table comment.
func (t *Table) RemoveComment() *Table {
	return t.add(action.NewChangeComment(t.name, nil))
}

// Drop queues dropping the table.
func (t *Table) Drop() *Table {
	return t.add(&action.DropTable{Name: t.name})
}

// -----------------------------------------------------------------------------
// Data
// -----------------------------------------------------------------------------

// Insert buffers rows to write after the schema actions in the next Save.
func (t *Table) Insert(rows ...map[string]any) *Table {
	if t.err != nil {
		return t
	}
	t.rows = append(t.rows, rows...)
	return t
}

// IgnoreDuplicates makes the next Save skip rows that collide with an
// existing unique key instead of failing. The flag applies to every row
// buffered for that Save and clears with it.
func (t *Table) IgnoreDuplicates() *Table {
	if t.err != nil {
		return t
	}
	t.ignore = true
	return t
}

// Truncate empties the table immediately, outside the pending action queue.
func (t *Table) Truncate(ctx context.Context) error {
	if t.err != nil {
		return t.err
	}
	return t.adapter.Truncate(ctx, t.name)
}

// Exists reports whether the table exists in the database.
func (t *Table) Exists(ctx context.Context) (bool, error) {
	if t.err != nil {
		return false, t.err
	}
	return t.adapter.HasTable(ctx, t.name)
}

// -----------------------------------------------------------------------------
// Save
// -----------------------------------------------------------------------------

// Save reorders the queued actions into an executable sequence, runs them,
// flushes buffered rows, and resets the handle. A handle with a latched
// error fails here without touching the database. Saving a handle with no
// pending work is a no-op.
func (t *Table) Save(ctx context.Context) error {
	if t.err != nil {
		return t.err
	}
	if t.intent.Empty() && len(t.rows) == 0 {
		return nil
	}

	var exists bool
	if t.existsOverride != nil {
		exists = *t.existsOverride
	} else {
		var err error
		exists, err = t.adapter.HasTable(ctx, t.name)
		if err != nil {
			return err
		}
	}

	built, err := plan.Build(t.intent, plan.Options{
		Table:        t.name,
		TableExists:  exists,
		TableOptions: t.opts,
	})
	if err != nil {
		return err
	}
	for _, act := range built.Actions() {
		if err := t.adapter.Execute(ctx, act); err != nil {
			return err
		}
	}
	if err := t.flushRows(ctx); err != nil {
		return err
	}

	t.intent.Reset()
	t.rows = nil
	t.ignore = false
	t.existsOverride = nil
	return nil
}

// Create saves the pending actions as a fresh table: column and index
// additions fold into one CREATE TABLE regardless of current database state.
func (t *Table) Create(ctx context.Context) error {
	exists := false
	t.existsOverride = &exists
	return t.Save(ctx)
}

// Update saves the pending actions against the table as it already exists.
func (t *Table) Update(ctx context.Context) error {
	exists := true
	t.existsOverride = &exists
	return t.Save(ctx)
}

// flushRows writes buffered rows: one multi-row statement when every row
// shares the same column set, else one statement per row.
func (t *Table) flushRows(ctx context.Context) error {
	if len(t.rows) == 0 {
		return nil
	}
	columns := sortedKeys(t.rows[0])
	bulk := true
	for _, row := range t.rows[1:] {
		if !sameKeys(columns, row) {
			bulk = false
			break
		}
	}

	if bulk {
		values := make([][]any, len(t.rows))
		for i, row := range t.rows {
			vals := make([]any, len(columns))
			for j, c := range columns {
				vals[j] = row[c]
			}
			values[i] = vals
		}
		return t.adapter.BulkInsert(ctx, t.name, columns, values, t.ignore)
	}

	for _, row := range t.rows {
		cols := sortedKeys(row)
		vals := make([]any, len(cols))
		for j, c := range cols {
			vals[j] = row[c]
		}
		if err := t.adapter.Insert(ctx, t.name, cols, vals, t.ignore); err != nil {
			return err
		}
	}
	return nil
}

func sortedKeys(row map[string]any) []string {
	keys := make([]string, 0, len(row))
	for k := range row {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

func sameKeys(columns []string, row map[string]any) bool {
	if len(columns) != len(row) {
		return false
	}
	for _, c := range columns {
		if _, ok := row[c]; !ok {
			return false
		}
	}
	return true
}
