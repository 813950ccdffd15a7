package migration

import (
	"context"
	"sort"
	"strconv"
	"time"

	"github.com/lmari-ekan/alpha-migrations/internal/action"
	"github.com/lmari-ekan/alpha-migrations/internal/adapter"
	"github.com/lmari-ekan/alpha-migrations/internal/amerr"
	"github.com/lmari-ekan/alpha-migrations/internal/plan"
)

// StatusRow is one line of migration status: a known migration, applied or
// pending, or a ledger row whose script has disappeared.
type StatusRow struct {
	Version    int64
	Name       string
	Applied    bool
	Missing    bool
	OutOfOrder bool
	Breakpoint bool
	StartTime  time.Time
	EndTime    time.Time
}

// Manager drives migrations in version order against one adapter, keeping
// the ledger in step. Failures halt the run; the manager never skips past a
// broken migration.
type Manager struct {
	adapter  adapter.Adapter
	registry *Registry
	ledger   *Ledger

	// Logf receives progress lines. Nil disables logging.
	Logf func(format string, args ...any)
}

// NewManager binds a manager to an adapter and registry. ledgerTable may be
// empty to use the default.
func NewManager(ad adapter.Adapter, reg *Registry, ledgerTable string) *Manager {
	return &Manager{
		adapter:  ad,
		registry: reg,
		ledger:   NewLedger(ad, ledgerTable),
	}
}

// Ledger exposes the bound ledger.
func (m *Manager) Ledger() *Ledger { return m.ledger }

func (m *Manager) logf(format string, args ...any) {
	if m.Logf != nil {
		m.Logf(format, args...)
	}
}

// Migrate applies every unapplied migration with version <= target, in
// ascending order. A target of 0 means all. An unapplied migration older
// than the newest applied one still runs; out-of-order arrival from merged
// branches is surfaced by Status, not silently skipped here.
func (m *Manager) Migrate(ctx context.Context, target int64) error {
	if err := m.ledger.EnsureTable(ctx); err != nil {
		return err
	}
	applied, err := m.ledger.Versions(ctx)
	if err != nil {
		return err
	}

	for _, mig := range m.registry.Sorted() {
		if target > 0 && mig.Version > target {
			break
		}
		if _, ok := applied[mig.Version]; ok {
			continue
		}
		if err := m.runUp(ctx, mig); err != nil {
			return err
		}
	}
	return nil
}

func (m *Manager) runUp(ctx context.Context, mig *Migration) error {
	m.logf("== %d %s: migrating", mig.Version, mig.Name)
	start := time.Now()

	useTx := m.adapter.SupportsTransactionalDDL()
	if useTx {
		if err := m.adapter.Begin(ctx); err != nil {
			return err
		}
	}

	if fn := mig.forward(); fn != nil {
		if err := fn(ctx, NewRunner(m.adapter)); err != nil {
			if useTx {
				m.adapter.Rollback()
			}
			return amerr.Wrap(amerr.ErrMigrationFailed, err, "migration aborted").
				WithVersion(strconv.FormatInt(mig.Version, 10)).
				With("name", mig.Name)
		}
	}

	if err := m.ledger.Insert(ctx, mig, start, time.Now()); err != nil {
		if useTx {
			m.adapter.Rollback()
		}
		return err
	}
	if useTx {
		if err := m.adapter.Commit(); err != nil {
			return err
		}
	}

	m.logf("== %d %s: migrated (%.4fs)", mig.Version, mig.Name, time.Since(start).Seconds())
	return nil
}

// Rollback reverts applied migrations newer than target, newest first. A
// target of 0 reverts everything. A breakpoint halts the walk unless force
// is set.
func (m *Manager) Rollback(ctx context.Context, target int64, force bool) error {
	applied, err := m.ledger.Versions(ctx)
	if err != nil {
		return err
	}

	versions := make([]int64, 0, len(applied))
	for v := range applied {
		if v > target {
			versions = append(versions, v)
		}
	}
	sort.Slice(versions, func(i, j int) bool { return versions[i] > versions[j] })

	for _, v := range versions {
		rec := applied[v]
		if rec.Breakpoint && !force {
			return amerr.New(amerr.ErrBreakpointSet, "rollback refused: breakpoint set").
				WithVersion(strconv.FormatInt(v, 10)).
				With("name", rec.Name)
		}
		mig, ok := m.registry.Get(v)
		if !ok {
			return amerr.New(amerr.ErrMissingMigration, "ledger version has no migration script").
				WithVersion(strconv.FormatInt(v, 10)).
				With("name", rec.Name)
		}
		if err := m.runDown(ctx, mig); err != nil {
			return err
		}
	}
	return nil
}

func (m *Manager) runDown(ctx context.Context, mig *Migration) error {
	m.logf("== %d %s: reverting", mig.Version, mig.Name)
	start := time.Now()

	useTx := m.adapter.SupportsTransactionalDDL()
	if useTx {
		if err := m.adapter.Begin(ctx); err != nil {
			return err
		}
	}

	fail := func(err error) error {
		if useTx {
			m.adapter.Rollback()
		}
		return amerr.Wrap(amerr.ErrMigrationFailed, err, "rollback aborted").
			WithVersion(strconv.FormatInt(mig.Version, 10)).
			With("name", mig.Name)
	}

	switch {
	case mig.Down != nil:
		if err := mig.Down(ctx, NewRunner(m.adapter)); err != nil {
			return fail(err)
		}
	case mig.Change != nil:
		inverted, err := m.invertChange(ctx, mig)
		if err != nil {
			if useTx {
				m.adapter.Rollback()
			}
			return err
		}
		for _, act := range inverted {
			if err := m.adapter.Execute(ctx, act); err != nil {
				return fail(err)
			}
		}
	}

	if err := m.ledger.Delete(ctx, mig.Version); err != nil {
		if useTx {
			m.adapter.Rollback()
		}
		return err
	}
	if useTx {
		if err := m.adapter.Commit(); err != nil {
			return err
		}
	}

	m.logf("== %d %s: reverted (%.4fs)", mig.Version, mig.Name, time.Since(start).Seconds())
	return nil
}

// invertChange replays a change-style migration against a recorder and
// inverts the captured action sequence. Any action without a mechanical
// inverse makes the whole migration irreversible.
func (m *Manager) invertChange(ctx context.Context, mig *Migration) ([]action.Action, error) {
	rec := newRecorder(m.adapter)
	if err := mig.Change(ctx, NewRunner(rec)); err != nil {
		return nil, amerr.Wrap(amerr.ErrMigrationFailed, err, "failed to replay change migration").
			WithVersion(strconv.FormatInt(mig.Version, 10))
	}
	inverted, ok := plan.InvertAll(rec.actions)
	if !ok {
		return nil, amerr.New(amerr.ErrIrreversible, "change migration cannot be inverted; write explicit up and down").
			WithVersion(strconv.FormatInt(mig.Version, 10)).
			With("name", mig.Name)
	}
	return inverted, nil
}

// Status reports every known migration and every ledger row, sorted by
// version. Ledger rows without a script are flagged missing; a pending
// migration older than the newest applied one is flagged out of order. Both
// are reported, never auto-corrected.
func (m *Manager) Status(ctx context.Context) ([]StatusRow, error) {
	applied, err := m.ledger.Versions(ctx)
	if err != nil {
		return nil, err
	}

	var maxApplied int64
	for v := range applied {
		if v > maxApplied {
			maxApplied = v
		}
	}

	rows := make([]StatusRow, 0, m.registry.Len())
	seen := make(map[int64]bool)
	for _, mig := range m.registry.Sorted() {
		row := StatusRow{Version: mig.Version, Name: mig.Name}
		if rec, ok := applied[mig.Version]; ok {
			row.Applied = true
			row.Breakpoint = rec.Breakpoint
			row.StartTime = rec.StartTime
			row.EndTime = rec.EndTime
		} else if mig.Version < maxApplied {
			row.OutOfOrder = true
		}
		rows = append(rows, row)
		seen[mig.Version] = true
	}
	for v, rec := range applied {
		if seen[v] {
			continue
		}
		rows = append(rows, StatusRow{
			Version:    v,
			Name:       rec.Name,
			Applied:    true,
			Missing:    true,
			Breakpoint: rec.Breakpoint,
			StartTime:  rec.StartTime,
			EndTime:    rec.EndTime,
		})
	}
	sort.Slice(rows, func(i, j int) bool { return rows[i].Version < rows[j].Version })
	return rows, nil
}
