// Package alpha is the public surface for writing migrations and embedding
// the migration runner. Migration files import this package, register
// themselves, and are linked into the project's own migration binary.
package alpha

import (
	"github.com/lmari-ekan/alpha-migrations/internal/action"
	"github.com/lmari-ekan/alpha-migrations/internal/adapter"
	"github.com/lmari-ekan/alpha-migrations/internal/migration"
	"github.com/lmari-ekan/alpha-migrations/internal/table"
)

// Migration is one versioned schema change. Set Up/Down, or Change alone
// for automatically reversible migrations.
type Migration = migration.Migration

// Runner is handed to migration functions.
type Runner = migration.Runner

// Manager drives migrations against one adapter.
type Manager = migration.Manager

// Registry is an ordered set of migrations.
type Registry = migration.Registry

// Table is the fluent schema-editing handle.
type Table = table.Table

// Adapter executes SQL for one dialect.
type Adapter = adapter.Adapter

// TableOptions configure table creation (primary key strategy, engine,
// charset, comment).
type TableOptions = action.TableOptions

// ColumnType is a semantic column type.
type ColumnType = action.ColumnType

// Literal is a raw SQL fragment used as a column type or default value.
type Literal = action.Literal

// Semantic column types.
const (
	String       = action.TypeString
	Char         = action.TypeChar
	Text         = action.TypeText
	Integer      = action.TypeInteger
	SmallInteger = action.TypeSmallInteger
	BigInteger   = action.TypeBigInteger
	Float        = action.TypeFloat
	Double       = action.TypeDouble
	Decimal      = action.TypeDecimal
	DateTime     = action.TypeDateTime
	Timestamp    = action.TypeTimestamp
	Time         = action.TypeTime
	Date         = action.TypeDate
	Year         = action.TypeYear
	Binary       = action.TypeBinary
	Varbinary    = action.TypeVarbinary
	TinyBlob     = action.TypeTinyBlob
	Blob         = action.TypeBlob
	MediumBlob   = action.TypeMediumBlob
	LongBlob     = action.TypeLongBlob
	Boolean      = action.TypeBoolean
	Bit          = action.TypeBit
	JSON         = action.TypeJSON
	UUID         = action.TypeUUID
	BinaryUUID   = action.TypeBinaryUUID
	Enum         = action.TypeEnum
	Set          = action.TypeSet
	Geometry     = action.TypeGeometry
	Point        = action.TypePoint
	LineString   = action.TypeLineString
	Polygon      = action.TypePolygon
)

// Referential actions for foreign keys.
const (
	Cascade    = action.Cascade
	NoAction   = action.NoAction
	SetNull    = action.SetNull
	SetDefault = action.SetDefault
	Restrict   = action.Restrict
)

// Column options.
var (
	WithLimit     = table.WithLimit
	WithNull      = table.WithNull
	WithDefault   = table.WithDefault
	WithPrecision = table.WithPrecision
	WithUnsigned  = table.WithUnsigned
	WithComment   = table.WithComment
	WithCollation = table.WithCollation
	WithValues    = table.WithValues
)

// Index options.
var (
	Unique   = table.Unique
	Named    = table.Named
	Fulltext = table.Fulltext
)

// Foreign key options.
var (
	OnDelete       = table.OnDelete
	OnUpdate       = table.OnUpdate
	ConstraintName = table.ConstraintName
)

// NewLiteral wraps a raw SQL fragment.
func NewLiteral(s string) Literal {
	return action.NewLiteral(s)
}

// Register adds a migration to the default registry. Migration files call
// this from init.
func Register(m *Migration) {
	migration.Register(m)
}

// NewRegistry returns an empty registry for embedders that manage their own.
func NewRegistry() *Registry {
	return migration.NewRegistry()
}

// NewManager binds a manager to an adapter and registry. ledgerTable may be
// empty for the default (phinxlog).
func NewManager(ad Adapter, reg *Registry, ledgerTable string) *Manager {
	return migration.NewManager(ad, reg, ledgerTable)
}

// DefaultRegistry returns the registry Register adds to.
func DefaultRegistry() *Registry {
	return migration.Default
}

// Open constructs an adapter for a dialect name (mysql, postgres, sqlite,
// sqlserver) and connection string. The connection opens lazily.
func Open(name, dsn string) (Adapter, error) {
	return adapter.Open(name, dsn)
}
