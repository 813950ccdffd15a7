package migration

import (
	"context"
	"database/sql"
	"strconv"
	"time"

	"github.com/lmari-ekan/alpha-migrations/internal/action"
	"github.com/lmari-ekan/alpha-migrations/internal/adapter"
	"github.com/lmari-ekan/alpha-migrations/internal/amerr"
)

// DefaultLedgerTable is the version table name when the config names none.
const DefaultLedgerTable = "phinxlog"

// Record is one applied-migration row in the ledger.
type Record struct {
	Version    int64
	Name       string
	StartTime  time.Time
	EndTime    time.Time
	Breakpoint bool
}

// Ledger persists which migrations have run. It is plain table access
// through the adapter, so dry-run transcripts include the bookkeeping writes.
type Ledger struct {
	adapter adapter.Adapter
	table   string
}

// NewLedger binds a ledger to an adapter and table name. An empty table
// name selects DefaultLedgerTable.
func NewLedger(ad adapter.Adapter, table string) *Ledger {
	if table == "" {
		table = DefaultLedgerTable
	}
	return &Ledger{adapter: ad, table: table}
}

// Table returns the ledger table name.
func (l *Ledger) Table() string { return l.table }

// EnsureTable creates the ledger table if it does not exist.
func (l *Ledger) EnsureTable(ctx context.Context) error {
	exists, err := l.adapter.HasTable(ctx, l.table)
	if err != nil {
		return err
	}
	if exists {
		return nil
	}
	create := &action.CreateTable{
		Name: l.table,
		Options: action.TableOptions{
			DisableID:  true,
			PrimaryKey: []string{"version"},
		},
		Columns: []*action.Column{
			action.NewColumn("version", action.TypeBigInteger),
			action.NewColumn("migration_name", action.TypeString).SetLimit(100).SetNull(true),
			action.NewColumn("start_time", action.TypeTimestamp).SetNull(true),
			action.NewColumn("end_time", action.TypeTimestamp).SetNull(true),
			action.NewColumn("breakpoint", action.TypeBoolean).SetDefault(false),
		},
	}
	if err := create.Validate(); err != nil {
		return err
	}
	return l.adapter.Execute(ctx, create)
}

// Versions returns every ledger row keyed by version. A missing ledger
// table reads as an empty history.
func (l *Ledger) Versions(ctx context.Context) (map[int64]*Record, error) {
	exists, err := l.adapter.HasTable(ctx, l.table)
	if err != nil {
		return nil, err
	}
	records := make(map[int64]*Record)
	if !exists {
		return records, nil
	}

	q := l.adapter.Quote
	query := "SELECT " + q("version") + ", " + q("migration_name") + ", " +
		q("start_time") + ", " + q("end_time") + ", " + q("breakpoint") +
		" FROM " + q(l.table) + " ORDER BY " + q("version")
	rows, err := l.adapter.Query(ctx, query)
	if err != nil {
		return nil, amerr.Wrap(amerr.ErrSQLExecution, err, "failed to read the version ledger").
			WithTable(l.table)
	}
	defer rows.Close()

	for rows.Next() {
		var (
			rec        Record
			name       sql.NullString
			start, end sql.NullTime
			breakpoint any
		)
		if err := rows.Scan(&rec.Version, &name, &start, &end, &breakpoint); err != nil {
			return nil, amerr.Wrap(amerr.ErrSQLExecution, err, "failed to scan ledger row").
				WithTable(l.table)
		}
		rec.Name = name.String
		rec.StartTime = start.Time
		rec.EndTime = end.Time
		rec.Breakpoint = truthy(breakpoint)
		records[rec.Version] = &rec
	}
	return records, rows.Err()
}

// truthy normalizes the breakpoint column across drivers: BIT comes back as
// bool, TINYINT as int64, and some drivers hand over raw bytes.
func truthy(v any) bool {
	switch val := v.(type) {
	case bool:
		return val
	case int64:
		return val != 0
	case []byte:
		return len(val) > 0 && val[0] != '0' && val[0] != 0
	case string:
		return val != "" && val != "0" && val != "false"
	}
	return false
}

// Insert records an applied migration.
func (l *Ledger) Insert(ctx context.Context, m *Migration, start, end time.Time) error {
	return l.adapter.Insert(ctx, l.table,
		[]string{"version", "migration_name", "start_time", "end_time", "breakpoint"},
		[]any{m.Version, m.Name, start, end, false},
		false)
}

// Delete removes a rolled-back migration's row.
func (l *Ledger) Delete(ctx context.Context, version int64) error {
	q := l.adapter.Quote
	stmt := "DELETE FROM " + q(l.table) + " WHERE " + q("version") + " = " + l.adapter.Placeholder(1)
	return l.adapter.Exec(ctx, stmt, version)
}

// SetBreakpoint sets or clears the breakpoint flag on an applied version.
func (l *Ledger) SetBreakpoint(ctx context.Context, version int64, set bool) error {
	records, err := l.Versions(ctx)
	if err != nil {
		return err
	}
	if _, ok := records[version]; !ok {
		return amerr.New(amerr.ErrMissingMigration, "version is not in the ledger").
			WithVersion(strconv.FormatInt(version, 10)).
			WithTable(l.table)
	}
	q := l.adapter.Quote
	stmt := "UPDATE " + q(l.table) + " SET " + q("breakpoint") + " = " + l.adapter.Placeholder(1) +
		" WHERE " + q("version") + " = " + l.adapter.Placeholder(2)
	return l.adapter.Exec(ctx, stmt, set, version)
}

// ToggleBreakpoint flips the breakpoint flag on an applied version.
func (l *Ledger) ToggleBreakpoint(ctx context.Context, version int64) error {
	records, err := l.Versions(ctx)
	if err != nil {
		return err
	}
	rec, ok := records[version]
	if !ok {
		return amerr.New(amerr.ErrMissingMigration, "version is not in the ledger").
			WithVersion(strconv.FormatInt(version, 10)).
			WithTable(l.table)
	}
	return l.SetBreakpoint(ctx, version, !rec.Breakpoint)
}
