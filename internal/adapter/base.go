package adapter

// Shared DDL rendering helpers used by all dialect implementations.
// Each helper is parameterized by the dialect's quoting function and column
// renderer so the statement shape is written once.

import (
	"fmt"
	"strings"

	"github.com/lmari-ekan/alpha-migrations/internal/action"
)

// quoteFunc quotes an identifier.
type quoteFunc func(ident string) string

// columnFunc renders a full column definition clause.
type columnFunc func(col *action.Column, table string) (string, error)

// writeQuotedList writes comma-separated quoted identifiers.
func writeQuotedList(b *strings.Builder, items []string, quote quoteFunc) {
	for i, item := range items {
		if i > 0 {
			b.WriteString(", ")
		}
		b.WriteString(quote(item))
	}
}

// createTableOpts tunes buildCreateTableSQL per dialect.
type createTableOpts struct {
	// inlinePrimaryKey skips the trailing PRIMARY KEY clause for identity
	// columns whose definition already carries it (sqlite, postgres).
	inlinePrimaryKey bool

	// tableSuffix is appended after the closing paren (mysql engine/charset).
	tableSuffix func(opts action.TableOptions) string
}

// buildCreateTableSQL renders CREATE TABLE plus trailing CREATE INDEX
// statements. Foreign keys known at create time are rendered inline as
// constraint clauses.
func buildCreateTableSQL(act *action.CreateTable, quote quoteFunc, column columnFunc, cfg createTableOpts) ([]string, error) {
	var b strings.Builder
	b.WriteString("CREATE TABLE ")
	b.WriteString(quote(act.Name))
	b.WriteString(" (")

	for i, col := range act.Columns {
		if i > 0 {
			b.WriteString(", ")
		}
		def, err := column(col, act.Name)
		if err != nil {
			return nil, err
		}
		b.WriteString(def)
	}

	pk := primaryKeyColumns(act)
	if len(pk) > 0 && !(cfg.inlinePrimaryKey && hasIdentity(act.Columns)) {
		b.WriteString(", PRIMARY KEY (")
		writeQuotedList(&b, pk, quote)
		b.WriteString(")")
	}

	for _, fk := range act.ForeignKeys {
		b.WriteString(", ")
		b.WriteString(foreignKeyClause(fk, act.Name, quote))
	}

	b.WriteString(")")
	if cfg.tableSuffix != nil {
		b.WriteString(cfg.tableSuffix(act.Options))
	}

	stmts := []string{b.String()}
	for _, idx := range act.Indexes {
		stmts = append(stmts, buildCreateIndexSQL(act.Name, idx, quote))
	}
	return stmts, nil
}

// primaryKeyColumns resolves the key columns for a CreateTable: the explicit
// primary key when declared, else the identity column.
func primaryKeyColumns(act *action.CreateTable) []string {
	if len(act.Options.PrimaryKey) > 0 {
		return act.Options.PrimaryKey
	}
	for _, col := range act.Columns {
		if col.Identity {
			return []string{col.Name}
		}
	}
	return nil
}

func hasIdentity(cols []*action.Column) bool {
	for _, col := range cols {
		if col.Identity {
			return true
		}
	}
	return false
}

// foreignKeyClause renders an inline CONSTRAINT ... FOREIGN KEY clause.
func foreignKeyClause(fk *action.ForeignKey, table string, quote quoteFunc) string {
	var b strings.Builder
	b.WriteString("CONSTRAINT ")
	b.WriteString(quote(fk.ConstraintName(table)))
	b.WriteString(" FOREIGN KEY (")
	writeQuotedList(&b, fk.Columns, quote)
	b.WriteString(") REFERENCES ")
	b.WriteString(quote(fk.RefTable))
	b.WriteString(" (")
	writeQuotedList(&b, fk.RefColumns, quote)
	b.WriteString(")")
	if fk.OnDelete != "" {
		b.WriteString(" ON DELETE ")
		b.WriteString(string(fk.OnDelete))
	}
	if fk.OnUpdate != "" {
		b.WriteString(" ON UPDATE ")
		b.WriteString(string(fk.OnUpdate))
	}
	return b.String()
}

// buildDropTableSQL renders DROP TABLE.
func buildDropTableSQL(act *action.DropTable, quote quoteFunc) string {
	return "DROP TABLE " + quote(act.Name)
}

// buildRenameTableSQL renders ALTER TABLE ... RENAME TO (mysql, postgres, sqlite).
func buildRenameTableSQL(act *action.RenameTable, quote quoteFunc) string {
	return "ALTER TABLE " + quote(act.Name) + " RENAME TO " + quote(act.NewName)
}

// buildAddColumnSQL renders ALTER TABLE ... ADD COLUMN.
func buildAddColumnSQL(act *action.AddColumn, quote quoteFunc, column columnFunc) (string, error) {
	def, err := column(act.Column, act.Table())
	if err != nil {
		return "", err
	}
	return "ALTER TABLE " + quote(act.Table()) + " ADD COLUMN " + def, nil
}

// buildRemoveColumnSQL renders ALTER TABLE ... DROP COLUMN.
func buildRemoveColumnSQL(act *action.RemoveColumn, quote quoteFunc) string {
	return "ALTER TABLE " + quote(act.Table()) + " DROP COLUMN " + quote(act.Name)
}

// buildRenameColumnSQL renders ALTER TABLE ... RENAME COLUMN, identical on
// every supported engine except SQL Server.
func buildRenameColumnSQL(act *action.RenameColumn, quote quoteFunc) string {
	return "ALTER TABLE " + quote(act.Table()) +
		" RENAME COLUMN " + quote(act.OldName) + " TO " + quote(act.NewName)
}

// buildCreateIndexSQL renders CREATE [UNIQUE] INDEX. The default index name
// is idx_table_col1_col2 (uniq_ prefix for unique indexes).
func buildCreateIndexSQL(table string, idx *action.Index, quote quoteFunc) string {
	var b strings.Builder
	b.WriteString("CREATE ")
	switch {
	case idx.Unique:
		b.WriteString("UNIQUE ")
	case idx.Kind == action.IndexFulltext:
		b.WriteString("FULLTEXT ")
	case idx.Kind == action.IndexSpatial:
		b.WriteString("SPATIAL ")
	}
	b.WriteString("INDEX ")
	b.WriteString(quote(indexName(table, idx)))
	b.WriteString(" ON ")
	b.WriteString(quote(table))
	b.WriteString(" (")
	for i, col := range idx.Columns {
		if i > 0 {
			b.WriteString(", ")
		}
		b.WriteString(quote(col))
		if idx.Limits != nil {
			if l := idx.Limits[col]; l > 0 {
				b.WriteString(fmt.Sprintf("(%d)", l))
			}
		}
		if idx.Orders != nil {
			if o := idx.Orders[col]; o != "" {
				b.WriteString(" ")
				b.WriteString(o)
			}
		}
	}
	b.WriteString(")")
	return b.String()
}

// indexName returns the explicit index name or the deterministic default.
func indexName(table string, idx *action.Index) string {
	if idx.Name != "" {
		return idx.Name
	}
	prefix := "idx_"
	if idx.Unique {
		prefix = "uniq_"
	}
	name := prefix + table
	for _, col := range idx.Columns {
		name += "_" + col
	}
	return name
}

// defaultIndexName derives the deterministic name for a column set when no
// live index metadata is available (dry-run).
func defaultIndexName(table string, columns []string, unique bool) string {
	return indexName(table, &action.Index{Columns: columns, Unique: unique})
}

// buildAddForeignKeySQL renders ALTER TABLE ... ADD CONSTRAINT FOREIGN KEY.
func buildAddForeignKeySQL(act *action.AddForeignKey, quote quoteFunc) string {
	return "ALTER TABLE " + quote(act.Table()) + " ADD " +
		foreignKeyClause(act.ForeignKey, act.Table(), quote)
}

// buildDropConstraintSQL renders ALTER TABLE ... DROP CONSTRAINT (postgres,
// sqlserver).
func buildDropConstraintSQL(table, constraint string, quote quoteFunc) string {
	return "ALTER TABLE " + quote(table) + " DROP CONSTRAINT " + quote(constraint)
}

// enumCheckClause renders a CHECK constraint restricting a column to the
// enum values, for dialects without a native enum type.
func enumCheckClause(col *action.Column, quote quoteFunc) string {
	var b strings.Builder
	b.WriteString(" CHECK (")
	b.WriteString(quote(col.Name))
	b.WriteString(" IN (")
	for i, v := range col.Values {
		if i > 0 {
			b.WriteString(", ")
		}
		b.WriteString(action.FormatDefault(v, "TRUE", "FALSE"))
	}
	b.WriteString("))")
	return b.String()
}

// quotedValueList renders ('a', 'b', ...) for mysql ENUM/SET types.
func quotedValueList(values []string) string {
	var b strings.Builder
	b.WriteString("(")
	for i, v := range values {
		if i > 0 {
			b.WriteString(", ")
		}
		b.WriteString(action.FormatDefault(v, "TRUE", "FALSE"))
	}
	b.WriteString(")")
	return b.String()
}
