package adapter

import (
	"context"
	"database/sql"
	"io"
	"strings"

	sq "github.com/Masterminds/squirrel"

	"github.com/lmari-ekan/alpha-migrations/internal/action"
	"github.com/lmari-ekan/alpha-migrations/internal/amerr"
)

// execer is satisfied by both *sql.DB and *sql.Tx.
type execer interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
}

// sqlAdapter implements Adapter generically over database/sql plus a dialect.
// It owns the connection handle (lazy connect, idempotent close); callers
// borrow the adapter and never manage connection lifecycle themselves.
type sqlAdapter struct {
	dialect dialect
	dsn     string
	db      *sql.DB
	tx      *sql.Tx
	dry     io.Writer
}

func (a *sqlAdapter) Name() string {
	return a.dialect.name()
}

func (a *sqlAdapter) Quote(ident string) string {
	return a.dialect.quote(ident)
}

func (a *sqlAdapter) Placeholder(index int) string {
	return a.dialect.placeholder(index)
}

func (a *sqlAdapter) SupportsTransactionalDDL() bool {
	return a.dialect.transactionalDDL()
}

func (a *sqlAdapter) IsValidColumnType(t action.ColumnType) bool {
	return a.dialect.supportsType(t)
}

func (a *sqlAdapter) GetSQLType(t action.ColumnType, limit int) (SQLType, error) {
	if !a.dialect.supportsType(t) {
		return SQLType{}, unsupportedType(a.dialect.name(), t)
	}
	return a.dialect.typeFor(t, limit)
}

func (a *sqlAdapter) SetDryRun(sink io.Writer) {
	a.dry = sink
}

func (a *sqlAdapter) DryRun() bool {
	return a.dry != nil
}

// Connect opens the connection on first use. A bad DSN is a configuration
// error; a refused connection carries the driver message untouched.
func (a *sqlAdapter) Connect(ctx context.Context) error {
	if a.db != nil {
		return nil
	}
	db, err := sql.Open(a.dialect.driverName(), a.dsn)
	if err != nil {
		return amerr.Wrap(amerr.ErrConfigInvalid, err, "invalid connection string").
			With("adapter", a.dialect.name())
	}
	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return amerr.Wrap(amerr.ErrConnection, err, "failed to connect").
			With("adapter", a.dialect.name())
	}
	a.db = db
	return nil
}

func (a *sqlAdapter) Close() error {
	if a.db == nil {
		return nil
	}
	err := a.db.Close()
	a.db = nil
	a.tx = nil
	return err
}

// exec returns the current statement target: the open transaction when one
// exists, else the plain connection.
func (a *sqlAdapter) exec(ctx context.Context) (execer, error) {
	if err := a.Connect(ctx); err != nil {
		return nil, err
	}
	if a.tx != nil {
		return a.tx, nil
	}
	return a.db, nil
}

// emit writes one semicolon-terminated statement to the dry-run sink.
func (a *sqlAdapter) emit(stmt string) {
	io.WriteString(a.dry, stmt+";\n")
}

// -----------------------------------------------------------------------------
// Action execution
// -----------------------------------------------------------------------------

func (a *sqlAdapter) Execute(ctx context.Context, act action.Action) error {
	act, err := a.resolveNames(ctx, act)
	if err != nil {
		return err
	}
	stmts, err := a.dialect.actionSQL(act)
	if err != nil {
		return err
	}
	return a.run(ctx, stmts)
}

// run dispatches rendered statements to the sink or the connection.
func (a *sqlAdapter) run(ctx context.Context, stmts []string) error {
	if a.DryRun() {
		for _, stmt := range stmts {
			a.emit(stmt)
		}
		return nil
	}
	ex, err := a.exec(ctx)
	if err != nil {
		return err
	}
	for _, stmt := range stmts {
		if _, err := ex.ExecContext(ctx, stmt); err != nil {
			// The engine diagnostic passes through as the cause, verbatim.
			return amerr.Wrap(amerr.ErrSQLExecution, err, "statement failed").
				WithSQL(stmt)
		}
	}
	return nil
}

// resolveNames rewrites drop actions addressed by column set into the
// concrete index/constraint name, consulting live metadata when connected
// and deterministic default names in dry-run.
func (a *sqlAdapter) resolveNames(ctx context.Context, act action.Action) (action.Action, error) {
	switch d := act.(type) {
	case *action.DropIndex:
		if d.Name != "" {
			return act, nil
		}
		if a.DryRun() && a.db == nil {
			return action.NewDropIndexByName(d.Table(), defaultIndexName(d.Table(), d.Columns, false)), nil
		}
		name, found, err := a.findIndexName(ctx, d.Table(), d.Columns)
		if err != nil {
			return nil, err
		}
		if !found {
			// A composite index is only removable by its full column set or
			// explicit name; a partial set matches nothing.
			return nil, amerr.New(amerr.ErrAmbiguousDrop, "no index covers exactly this column set").
				WithTable(d.Table()).
				With("columns", strings.Join(d.Columns, ", "))
		}
		return action.NewDropIndexByName(d.Table(), name), nil

	case *action.DropForeignKey:
		if d.Constraint != "" {
			return act, nil
		}
		if a.DryRun() && a.db == nil {
			fk := &action.ForeignKey{Columns: d.Columns}
			return action.NewDropForeignKeyByName(d.Table(), fk.ConstraintName(d.Table())), nil
		}
		name, found, err := a.findForeignKeyName(ctx, d.Table(), d.Columns)
		if err != nil {
			return nil, err
		}
		if !found {
			return nil, amerr.New(amerr.ErrAmbiguousDrop, "no foreign key covers exactly this column set").
				WithTable(d.Table()).
				With("columns", strings.Join(d.Columns, ", "))
		}
		return action.NewDropForeignKeyByName(d.Table(), name), nil
	}
	return act, nil
}

// -----------------------------------------------------------------------------
// DML
// -----------------------------------------------------------------------------

func (a *sqlAdapter) Insert(ctx context.Context, table string, columns []string, values []any, ignoreDuplicates bool) error {
	return a.BulkInsert(ctx, table, columns, [][]any{values}, ignoreDuplicates)
}

func (a *sqlAdapter) BulkInsert(ctx context.Context, table string, columns []string, rows [][]any, ignoreDuplicates bool) error {
	if len(rows) == 0 {
		return nil
	}
	for _, row := range rows {
		if len(row) != len(columns) {
			return amerr.New(amerr.ErrSchemaInvalid, "insert row width does not match column list").
				WithTable(table).
				With("columns", len(columns)).
				With("values", len(row))
		}
	}

	if a.DryRun() {
		a.emit(a.renderInsertLiteral(table, columns, rows, ignoreDuplicates))
		return nil
	}

	quoted := make([]string, len(columns))
	for i, c := range columns {
		quoted[i] = a.dialect.quote(c)
	}
	builder := sq.Insert(a.dialect.quote(table)).
		Columns(quoted...).
		PlaceholderFormat(a.dialect.placeholderFormat())
	for _, row := range rows {
		builder = builder.Values(row...)
	}
	if ignoreDuplicates {
		var ok bool
		builder, ok = a.dialect.ignoreDuplicates(builder)
		if !ok {
			return amerr.Newf(amerr.ErrSQLExecution,
				"ignoring duplicate rows is not supported by the %s adapter", a.dialect.name())
		}
	}

	query, args, err := builder.ToSql()
	if err != nil {
		return amerr.Wrap(amerr.ErrSQLExecution, err, "failed to build insert")
	}
	ex, err := a.exec(ctx)
	if err != nil {
		return err
	}
	if _, err := ex.ExecContext(ctx, query, args...); err != nil {
		return amerr.Wrap(amerr.ErrSQLExecution, err, "insert failed").
			WithTable(table).
			WithSQL(query)
	}
	return nil
}

// renderInsertLiteral renders an insert with inline literal values for the
// dry-run transcript.
func (a *sqlAdapter) renderInsertLiteral(table string, columns []string, rows [][]any, ignoreDuplicates bool) string {
	var b strings.Builder
	b.WriteString("INSERT INTO ")
	if ignoreDuplicates {
		// Close enough for a transcript on engines with prefix syntax; the
		// postgres dialect appends ON CONFLICT below instead.
		if a.dialect.name() == "mysql" {
			b.Reset()
			b.WriteString("INSERT IGNORE INTO ")
		} else if a.dialect.name() == "sqlite" {
			b.Reset()
			b.WriteString("INSERT OR IGNORE INTO ")
		}
	}
	b.WriteString(a.dialect.quote(table))
	b.WriteString(" (")
	writeQuotedList(&b, columns, a.dialect.quote)
	b.WriteString(") VALUES ")
	for i, row := range rows {
		if i > 0 {
			b.WriteString(", ")
		}
		b.WriteString("(")
		for j, v := range row {
			if j > 0 {
				b.WriteString(", ")
			}
			b.WriteString(action.FormatDefault(v, "TRUE", "FALSE"))
		}
		b.WriteString(")")
	}
	if ignoreDuplicates && a.dialect.name() == "postgres" {
		b.WriteString(" ON CONFLICT DO NOTHING")
	}
	return b.String()
}

func (a *sqlAdapter) Truncate(ctx context.Context, table string) error {
	return a.run(ctx, []string{a.dialect.truncateSQL(table)})
}

// -----------------------------------------------------------------------------
// Transactions
// -----------------------------------------------------------------------------

func (a *sqlAdapter) Begin(ctx context.Context) error {
	if a.DryRun() {
		a.emit("START TRANSACTION")
		return nil
	}
	if a.tx != nil {
		return amerr.New(amerr.ErrSQLTransaction, "transaction already open")
	}
	if err := a.Connect(ctx); err != nil {
		return err
	}
	tx, err := a.db.BeginTx(ctx, nil)
	if err != nil {
		return amerr.Wrap(amerr.ErrSQLTransaction, err, "failed to begin transaction")
	}
	a.tx = tx
	return nil
}

func (a *sqlAdapter) Commit() error {
	if a.DryRun() {
		a.emit("COMMIT")
		return nil
	}
	if a.tx == nil {
		return amerr.New(amerr.ErrSQLTransaction, "no open transaction to commit")
	}
	err := a.tx.Commit()
	a.tx = nil
	if err != nil {
		return amerr.Wrap(amerr.ErrSQLTransaction, err, "failed to commit transaction")
	}
	return nil
}

func (a *sqlAdapter) Rollback() error {
	if a.DryRun() {
		a.emit("ROLLBACK")
		return nil
	}
	if a.tx == nil {
		return amerr.New(amerr.ErrSQLTransaction, "no open transaction to roll back")
	}
	err := a.tx.Rollback()
	a.tx = nil
	if err != nil {
		return amerr.Wrap(amerr.ErrSQLTransaction, err, "failed to roll back transaction")
	}
	return nil
}

// -----------------------------------------------------------------------------
// Raw passthrough (version ledger)
// -----------------------------------------------------------------------------

func (a *sqlAdapter) Query(ctx context.Context, query string, args ...any) (*sql.Rows, error) {
	ex, err := a.exec(ctx)
	if err != nil {
		return nil, err
	}
	return ex.QueryContext(ctx, query, args...)
}

func (a *sqlAdapter) Exec(ctx context.Context, query string, args ...any) error {
	if a.DryRun() {
		a.emit(query)
		return nil
	}
	ex, err := a.exec(ctx)
	if err != nil {
		return err
	}
	if _, err := ex.ExecContext(ctx, query, args...); err != nil {
		return amerr.Wrap(amerr.ErrSQLExecution, err, "statement failed").
			WithSQL(query)
	}
	return nil
}

// -----------------------------------------------------------------------------
// Introspection
// -----------------------------------------------------------------------------

// reader returns the query target for introspection, or nil when a dry-run
// session has never connected (introspection then reports absence rather
// than touching the real connection).
func (a *sqlAdapter) reader(ctx context.Context) (execer, error) {
	if a.DryRun() && a.db == nil {
		return nil, nil
	}
	return a.exec(ctx)
}

func (a *sqlAdapter) queryExists(ctx context.Context, query string, args []any) (bool, error) {
	ex, err := a.reader(ctx)
	if err != nil || ex == nil {
		return false, err
	}
	rows, err := ex.QueryContext(ctx, query, args...)
	if err != nil {
		return false, amerr.Wrap(amerr.ErrSQLExecution, err, "introspection query failed").
			WithSQL(query)
	}
	defer rows.Close()
	exists := rows.Next()
	return exists, rows.Err()
}

func (a *sqlAdapter) HasTable(ctx context.Context, table string) (bool, error) {
	query, args := a.dialect.hasTableSQL(table)
	return a.queryExists(ctx, query, args)
}

func (a *sqlAdapter) HasColumn(ctx context.Context, table, column string) (bool, error) {
	query, args := a.dialect.hasColumnSQL(table, column)
	return a.queryExists(ctx, query, args)
}

// indexGroups loads (index name -> ordered column list) for a table.
func (a *sqlAdapter) indexGroups(ctx context.Context, table string) (map[string][]string, error) {
	ex, err := a.reader(ctx)
	if err != nil || ex == nil {
		return nil, err
	}
	query, args := a.dialect.indexRowsSQL(table)
	return a.nameColumnGroups(ctx, ex, query, args)
}

func (a *sqlAdapter) foreignKeyGroups(ctx context.Context, table string) (map[string][]string, error) {
	ex, err := a.reader(ctx)
	if err != nil || ex == nil {
		return nil, err
	}
	query, args := a.dialect.foreignKeyRowsSQL(table)
	return a.nameColumnGroups(ctx, ex, query, args)
}

func (a *sqlAdapter) nameColumnGroups(ctx context.Context, ex execer, query string, args []any) (map[string][]string, error) {
	rows, err := ex.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, amerr.Wrap(amerr.ErrSQLExecution, err, "introspection query failed").
			WithSQL(query)
	}
	defer rows.Close()

	groups := make(map[string][]string)
	for rows.Next() {
		var name, column string
		if err := rows.Scan(&name, &column); err != nil {
			return nil, amerr.Wrap(amerr.ErrSQLExecution, err, "failed to scan introspection row")
		}
		groups[name] = append(groups[name], column)
	}
	return groups, rows.Err()
}

// sameColumnSet compares two column lists as sets.
func sameColumnSet(a, b []string) bool {
	idx := &action.Index{Columns: a}
	return idx.SameColumns(b)
}

func (a *sqlAdapter) HasIndex(ctx context.Context, table string, columns []string) (bool, error) {
	groups, err := a.indexGroups(ctx, table)
	if err != nil {
		return false, err
	}
	for _, cols := range groups {
		if sameColumnSet(cols, columns) {
			return true, nil
		}
	}
	return false, nil
}

func (a *sqlAdapter) HasIndexByName(ctx context.Context, table, name string) (bool, error) {
	groups, err := a.indexGroups(ctx, table)
	if err != nil {
		return false, err
	}
	_, ok := groups[name]
	return ok, nil
}

func (a *sqlAdapter) findIndexName(ctx context.Context, table string, columns []string) (string, bool, error) {
	groups, err := a.indexGroups(ctx, table)
	if err != nil {
		return "", false, err
	}
	for name, cols := range groups {
		if sameColumnSet(cols, columns) {
			return name, true, nil
		}
	}
	return "", false, nil
}

func (a *sqlAdapter) HasForeignKey(ctx context.Context, table string, columns []string, constraint string) (bool, error) {
	groups, err := a.foreignKeyGroups(ctx, table)
	if err != nil {
		return false, err
	}
	if constraint != "" {
		_, ok := groups[constraint]
		return ok, nil
	}
	for _, cols := range groups {
		if sameColumnSet(cols, columns) {
			return true, nil
		}
	}
	return false, nil
}

func (a *sqlAdapter) findForeignKeyName(ctx context.Context, table string, columns []string) (string, bool, error) {
	groups, err := a.foreignKeyGroups(ctx, table)
	if err != nil {
		return "", false, err
	}
	for name, cols := range groups {
		if sameColumnSet(cols, columns) {
			return name, true, nil
		}
	}
	return "", false, nil
}

func (a *sqlAdapter) HasPrimaryKey(ctx context.Context, table string, columns []string) (bool, error) {
	ex, err := a.reader(ctx)
	if err != nil || ex == nil {
		return false, err
	}
	query, args := a.dialect.primaryKeySQL(table)
	rows, err := ex.QueryContext(ctx, query, args...)
	if err != nil {
		return false, amerr.Wrap(amerr.ErrSQLExecution, err, "introspection query failed").
			WithSQL(query)
	}
	defer rows.Close()

	var pk []string
	for rows.Next() {
		var column string
		if err := rows.Scan(&column); err != nil {
			return false, amerr.Wrap(amerr.ErrSQLExecution, err, "failed to scan introspection row")
		}
		pk = append(pk, column)
	}
	if err := rows.Err(); err != nil {
		return false, err
	}
	return sameColumnSet(pk, columns), nil
}

func (a *sqlAdapter) GetColumns(ctx context.Context, table string) ([]*action.Column, error) {
	ex, err := a.reader(ctx)
	if err != nil || ex == nil {
		return nil, err
	}
	return a.dialect.columns(ctx, ex, table)
}
