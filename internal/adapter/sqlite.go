package adapter

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	sq "github.com/Masterminds/squirrel"
	_ "modernc.org/sqlite"

	"github.com/lmari-ekan/alpha-migrations/internal/action"
	"github.com/lmari-ekan/alpha-migrations/internal/amerr"
)

// sqliteDialect renders SQLite DDL. Double-quote quoting, ? placeholders,
// transactional DDL. SQLite cannot alter an existing column's definition or
// constraints in place, so those actions fail explicitly rather than
// attempting a table rebuild.
type sqliteDialect struct{}

func newSQLite() dialect { return &sqliteDialect{} }

func (d *sqliteDialect) name() string       { return "sqlite" }
func (d *sqliteDialect) driverName() string { return "sqlite" }

func (d *sqliteDialect) quote(ident string) string {
	return `"` + strings.ReplaceAll(ident, `"`, `""`) + `"`
}

func (d *sqliteDialect) placeholder(int) string { return "?" }

func (d *sqliteDialect) placeholderFormat() sq.PlaceholderFormat { return sq.Question }

func (d *sqliteDialect) transactionalDDL() bool { return true }

// -----------------------------------------------------------------------------
// Type mapping
// -----------------------------------------------------------------------------

func (d *sqliteDialect) supportsType(t action.ColumnType) bool {
	switch t {
	case action.TypeYear, action.TypeBit, action.TypeEnum, action.TypeSet,
		action.TypeGeometry, action.TypePoint, action.TypeLineString, action.TypePolygon:
		return false
	}
	return true
}

func (d *sqliteDialect) typeFor(t action.ColumnType, limit int) (SQLType, error) {
	switch t {
	case action.TypeString:
		if limit <= 0 {
			limit = 255
		}
		return SQLType{Name: "VARCHAR", Limit: limit}, nil
	case action.TypeChar:
		if limit <= 0 {
			limit = 255
		}
		return SQLType{Name: "CHAR", Limit: limit}, nil
	case action.TypeText, action.TypeJSON:
		return SQLType{Name: "TEXT"}, nil
	case action.TypeInteger:
		return SQLType{Name: "INTEGER"}, nil
	case action.TypeSmallInteger:
		return SQLType{Name: "SMALLINT"}, nil
	case action.TypeBigInteger:
		return SQLType{Name: "BIGINT"}, nil
	case action.TypeFloat:
		return SQLType{Name: "FLOAT"}, nil
	case action.TypeDouble:
		return SQLType{Name: "DOUBLE"}, nil
	case action.TypeDecimal:
		return SQLType{Name: "DECIMAL"}, nil
	case action.TypeDateTime:
		return SQLType{Name: "DATETIME"}, nil
	case action.TypeTimestamp:
		return SQLType{Name: "TIMESTAMP"}, nil
	case action.TypeTime:
		return SQLType{Name: "TIME"}, nil
	case action.TypeDate:
		return SQLType{Name: "DATE"}, nil
	case action.TypeBinary, action.TypeVarbinary, action.TypeBinaryUUID,
		action.TypeTinyBlob, action.TypeBlob, action.TypeMediumBlob, action.TypeLongBlob:
		return SQLType{Name: "BLOB"}, nil
	case action.TypeBoolean:
		return SQLType{Name: "BOOLEAN"}, nil
	case action.TypeUUID:
		return SQLType{Name: "CHAR", Limit: 36}, nil
	}
	return SQLType{}, unsupportedType(d.name(), t)
}

// columnSQL renders a SQLite column definition clause. The identity column
// carries its PRIMARY KEY inline; AUTOINCREMENT requires exactly
// INTEGER PRIMARY KEY.
func (d *sqliteDialect) columnSQL(col *action.Column, table string) (string, error) {
	var b strings.Builder
	b.WriteString(d.quote(col.Name))
	b.WriteString(" ")

	if col.IsLiteral() {
		b.WriteString(string(col.TypeLiteral))
	} else if col.Identity {
		b.WriteString("INTEGER PRIMARY KEY AUTOINCREMENT")
		return b.String(), nil
	} else {
		st, err := d.typeFor(col.Type, col.Limit)
		if err != nil {
			return "", err
		}
		b.WriteString(st.Name)
		if col.Type == action.TypeDecimal && col.Precision > 0 {
			fmt.Fprintf(&b, "(%d, %d)", col.Precision, col.Scale)
		} else if st.Limit > 0 && (st.Name == "VARCHAR" || st.Name == "CHAR") {
			fmt.Fprintf(&b, "(%d)", st.Limit)
		}
	}

	if col.Collation != "" {
		b.WriteString(" COLLATE ")
		b.WriteString(col.Collation)
	}
	if col.Null {
		b.WriteString(" NULL")
	} else {
		b.WriteString(" NOT NULL")
	}
	if col.DefaultSet {
		b.WriteString(" DEFAULT ")
		b.WriteString(action.FormatDefault(col.Default, "1", "0"))
	}
	return b.String(), nil
}

// -----------------------------------------------------------------------------
// DDL
// -----------------------------------------------------------------------------

func (d *sqliteDialect) actionSQL(act action.Action) ([]string, error) {
	switch a := act.(type) {
	case *action.CreateTable:
		return buildCreateTableSQL(a, d.quote, d.columnSQL, createTableOpts{
			inlinePrimaryKey: true,
		})

	case *action.DropTable:
		return []string{buildDropTableSQL(a, d.quote)}, nil

	case *action.RenameTable:
		return []string{buildRenameTableSQL(a, d.quote)}, nil

	case *action.AddColumn:
		stmt, err := buildAddColumnSQL(a, d.quote, d.columnSQL)
		if err != nil {
			return nil, err
		}
		return []string{stmt}, nil

	case *action.RemoveColumn:
		return []string{buildRemoveColumnSQL(a, d.quote)}, nil

	case *action.RenameColumn:
		return []string{buildRenameColumnSQL(a, d.quote)}, nil

	case *action.AddIndex:
		if a.Index.Kind != action.IndexNormal {
			return nil, unsupportedAction(d.name(), a.Kind())
		}
		return []string{buildCreateIndexSQL(a.Table(), a.Index, d.quote)}, nil

	case *action.DropIndex:
		return []string{"DROP INDEX " + d.quote(a.Name)}, nil

	case *action.ChangeColumn, *action.ChangePrimaryKey, *action.ChangeComment,
		*action.AddForeignKey, *action.DropForeignKey:
		// Would need a full table rebuild (copy, drop, rename).
		return nil, unsupportedAction(d.name(), act.Kind())
	}
	return nil, unsupportedAction(d.name(), act.Kind())
}

func (d *sqliteDialect) truncateSQL(table string) string {
	// No TRUNCATE statement.
	return "DELETE FROM " + d.quote(table)
}

func (d *sqliteDialect) ignoreDuplicates(b sq.InsertBuilder) (sq.InsertBuilder, bool) {
	return b.Options("OR IGNORE"), true
}

// -----------------------------------------------------------------------------
// Introspection
// -----------------------------------------------------------------------------

func (d *sqliteDialect) hasTableSQL(table string) (string, []any) {
	return `SELECT 1 FROM sqlite_master WHERE type = 'table' AND name = ?`, []any{table}
}

func (d *sqliteDialect) hasColumnSQL(table, column string) (string, []any) {
	return `SELECT 1 FROM pragma_table_info(?) WHERE name = ?`, []any{table, column}
}

func (d *sqliteDialect) indexRowsSQL(table string) (string, []any) {
	return `SELECT il.name, ii.name
		FROM pragma_index_list(?) il, pragma_index_info(il.name) ii
		ORDER BY il.name, ii.seqno`, []any{table}
}

func (d *sqliteDialect) foreignKeyRowsSQL(table string) (string, []any) {
	// SQLite foreign keys have no names; the list position stands in.
	return `SELECT 'fk_' || id, "from" FROM pragma_foreign_key_list(?)
		ORDER BY id, seq`, []any{table}
}

func (d *sqliteDialect) primaryKeySQL(table string) (string, []any) {
	return `SELECT name FROM pragma_table_info(?) WHERE pk > 0 ORDER BY pk`, []any{table}
}

var sqliteSemanticType = map[string]action.ColumnType{
	"VARCHAR":   action.TypeString,
	"CHAR":      action.TypeChar,
	"TEXT":      action.TypeText,
	"INTEGER":   action.TypeInteger,
	"SMALLINT":  action.TypeSmallInteger,
	"BIGINT":    action.TypeBigInteger,
	"FLOAT":     action.TypeFloat,
	"DOUBLE":    action.TypeDouble,
	"DECIMAL":   action.TypeDecimal,
	"DATETIME":  action.TypeDateTime,
	"TIMESTAMP": action.TypeTimestamp,
	"TIME":      action.TypeTime,
	"DATE":      action.TypeDate,
	"BLOB":      action.TypeBlob,
	"BOOLEAN":   action.TypeBoolean,
}

func (d *sqliteDialect) columns(ctx context.Context, db queryer, table string) ([]*action.Column, error) {
	query := `SELECT name, type, "notnull", dflt_value, pk FROM pragma_table_info(?) ORDER BY cid`
	rows, err := db.QueryContext(ctx, query, table)
	if err != nil {
		return nil, amerr.Wrap(amerr.ErrSQLExecution, err, "introspection query failed").
			WithTable(table)
	}
	defer rows.Close()

	var cols []*action.Column
	for rows.Next() {
		var (
			name, declType string
			notNull, pk    int
			def            *string
		)
		if err := rows.Scan(&name, &declType, &notNull, &def, &pk); err != nil {
			return nil, amerr.Wrap(amerr.ErrSQLExecution, err, "failed to scan column row")
		}

		col := &action.Column{Name: name, Null: notNull == 0}
		base, limit := splitDeclaredType(declType)
		if t, ok := sqliteSemanticType[base]; ok {
			col.Type = t
			col.Limit = limit
		} else {
			col.TypeLiteral = action.NewLiteral(declType)
		}
		if def != nil {
			col.Default = *def
			col.DefaultSet = true
		}
		if pk > 0 && col.Type == action.TypeInteger {
			col.Identity = true
		}
		cols = append(cols, col)
	}
	return cols, rows.Err()
}

// splitDeclaredType splits "VARCHAR(255)" into base name and size.
func splitDeclaredType(declType string) (string, int) {
	open := strings.Index(declType, "(")
	if open < 0 {
		return strings.ToUpper(strings.TrimSpace(declType)), 0
	}
	base := strings.ToUpper(strings.TrimSpace(declType[:open]))
	end := strings.Index(declType, ")")
	if end <= open {
		return base, 0
	}
	size := strings.TrimSpace(declType[open+1 : end])
	if comma := strings.Index(size, ","); comma >= 0 {
		size = strings.TrimSpace(size[:comma])
	}
	n, err := strconv.Atoi(size)
	if err != nil {
		return base, 0
	}
	return base, n
}
