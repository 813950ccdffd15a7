// Package migration holds the migration scripts themselves, the version
// ledger that tracks which ones ran, and the manager that drives them in
// order. A migration is identified by its numeric version (a UTC
// YYYYMMDDHHMMSS stamp by convention); versions are unique within a registry.
package migration

import (
	"context"
	"sort"
	"strconv"

	"github.com/lmari-ekan/alpha-migrations/internal/amerr"
)

// MigrateFunc is the body of one migration direction.
type MigrateFunc func(ctx context.Context, r *Runner) error

// Migration is one versioned schema change. Either Up/Down or Change is set:
// Change describes the forward edit once and the manager derives the
// rollback by inverting the recorded actions.
type Migration struct {
	Version int64
	Name    string

	Up     MigrateFunc
	Down   MigrateFunc
	Change MigrateFunc
}

// forward returns the function that applies the migration.
func (m *Migration) forward() MigrateFunc {
	if m.Up != nil {
		return m.Up
	}
	return m.Change
}

// Registry is the ordered set of known migrations.
type Registry struct {
	byVersion map[int64]*Migration
}

// NewRegistry returns an empty registry.
func NewRegistry() *Registry {
	return &Registry{byVersion: make(map[int64]*Migration)}
}

// Register adds a migration. A version collision is fatal: the manager
// refuses to guess which script is authoritative.
func (r *Registry) Register(m *Migration) error {
	if m.Version <= 0 {
		return amerr.New(amerr.ErrSchemaInvalid, "migration version must be positive").
			With("name", m.Name)
	}
	if existing, ok := r.byVersion[m.Version]; ok {
		return amerr.New(amerr.ErrDuplicateVersion, "two migrations share one version").
			WithVersion(strconv.FormatInt(m.Version, 10)).
			With("first", existing.Name).
			With("second", m.Name)
	}
	r.byVersion[m.Version] = m
	return nil
}

// Get returns the migration for a version.
func (r *Registry) Get(version int64) (*Migration, bool) {
	m, ok := r.byVersion[version]
	return m, ok
}

// Sorted returns all migrations in ascending version order.
func (r *Registry) Sorted() []*Migration {
	out := make([]*Migration, 0, len(r.byVersion))
	for _, m := range r.byVersion {
		out = append(out, m)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Version < out[j].Version })
	return out
}

// Len returns the number of registered migrations.
func (r *Registry) Len() int {
	return len(r.byVersion)
}

// Default is the process-wide registry migration files register into from
// their init functions.
var Default = NewRegistry()

// Register adds a migration to the default registry, panicking on a version
// collision. Collisions are programmer errors caught at process start.
func Register(m *Migration) {
	if err := Default.Register(m); err != nil {
		panic(err)
	}
}
