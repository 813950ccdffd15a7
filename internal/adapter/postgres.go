package adapter

import (
	"context"
	"fmt"
	"strings"

	sq "github.com/Masterminds/squirrel"
	_ "github.com/lib/pq"

	"github.com/lmari-ekan/alpha-migrations/internal/action"
	"github.com/lmari-ekan/alpha-migrations/internal/amerr"
)

// postgresDialect renders PostgreSQL DDL. Double-quote quoting, $n
// placeholders, fully transactional DDL. Comments are separate COMMENT ON
// statements rather than column attributes.
type postgresDialect struct{}

func newPostgres() dialect { return &postgresDialect{} }

func (d *postgresDialect) name() string       { return "postgres" }
func (d *postgresDialect) driverName() string { return "postgres" }

func (d *postgresDialect) quote(ident string) string {
	return `"` + strings.ReplaceAll(ident, `"`, `""`) + `"`
}

func (d *postgresDialect) placeholder(index int) string {
	return fmt.Sprintf("$%d", index)
}

func (d *postgresDialect) placeholderFormat() sq.PlaceholderFormat { return sq.Dollar }

func (d *postgresDialect) transactionalDDL() bool { return true }

// -----------------------------------------------------------------------------
// Type mapping
// -----------------------------------------------------------------------------

func (d *postgresDialect) supportsType(t action.ColumnType) bool {
	switch t {
	// SET has no relational equivalent; the geometry family needs PostGIS;
	// YEAR is a MySQL-only type.
	case action.TypeSet, action.TypeYear,
		action.TypeGeometry, action.TypePoint, action.TypeLineString, action.TypePolygon:
		return false
	}
	return true
}

func (d *postgresDialect) typeFor(t action.ColumnType, limit int) (SQLType, error) {
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
	case action.TypeText:
		return SQLType{Name: "TEXT"}, nil
	case action.TypeInteger:
		return SQLType{Name: "INTEGER"}, nil
	case action.TypeSmallInteger:
		return SQLType{Name: "SMALLINT"}, nil
	case action.TypeBigInteger:
		return SQLType{Name: "BIGINT"}, nil
	case action.TypeFloat:
		return SQLType{Name: "REAL"}, nil
	case action.TypeDouble:
		return SQLType{Name: "DOUBLE PRECISION"}, nil
	case action.TypeDecimal:
		return SQLType{Name: "NUMERIC"}, nil
	case action.TypeDateTime, action.TypeTimestamp:
		return SQLType{Name: "TIMESTAMP"}, nil
	case action.TypeTime:
		return SQLType{Name: "TIME"}, nil
	case action.TypeDate:
		return SQLType{Name: "DATE"}, nil
	case action.TypeBinary, action.TypeVarbinary,
		action.TypeTinyBlob, action.TypeBlob, action.TypeMediumBlob, action.TypeLongBlob:
		// All binary shapes collapse to BYTEA; size tiers do not apply.
		return SQLType{Name: "BYTEA"}, nil
	case action.TypeBoolean:
		return SQLType{Name: "BOOLEAN"}, nil
	case action.TypeBit:
		if limit <= 0 {
			limit = 1
		}
		return SQLType{Name: "BIT", Limit: limit}, nil
	case action.TypeJSON:
		return SQLType{Name: "JSONB"}, nil
	case action.TypeUUID, action.TypeBinaryUUID:
		return SQLType{Name: "UUID"}, nil
	case action.TypeEnum:
		// Emulated as a bounded varchar plus a CHECK constraint.
		return SQLType{Name: "VARCHAR", Limit: 255}, nil
	}
	return SQLType{}, unsupportedType(d.name(), t)
}

// columnSQL renders a PostgreSQL column definition clause. Comments are not
// part of the clause; callers emit COMMENT ON COLUMN separately.
func (d *postgresDialect) columnSQL(col *action.Column, table string) (string, error) {
	var b strings.Builder
	b.WriteString(d.quote(col.Name))
	b.WriteString(" ")

	if col.IsLiteral() {
		b.WriteString(string(col.TypeLiteral))
	} else {
		st, err := d.typeFor(col.Type, col.Limit)
		if err != nil {
			return "", err
		}
		b.WriteString(st.Name)
		switch col.Type {
		case action.TypeDecimal:
			if col.Precision > 0 {
				fmt.Fprintf(&b, "(%d, %d)", col.Precision, col.Scale)
			}
		default:
			if st.Limit > 0 && postgresSizedType(st.Name) {
				fmt.Fprintf(&b, "(%d)", st.Limit)
			}
		}
	}

	if col.Identity {
		b.WriteString(" GENERATED BY DEFAULT AS IDENTITY")
	}
	if col.Collation != "" {
		b.WriteString(" COLLATE ")
		b.WriteString(d.quote(col.Collation))
	}
	if col.Null {
		b.WriteString(" NULL")
	} else {
		b.WriteString(" NOT NULL")
	}
	if col.DefaultSet {
		b.WriteString(" DEFAULT ")
		b.WriteString(action.FormatDefault(col.Default, "TRUE", "FALSE"))
	}
	if col.Type == action.TypeEnum {
		b.WriteString(enumCheckClause(col, d.quote))
	}
	return b.String(), nil
}

func postgresSizedType(name string) bool {
	switch name {
	case "VARCHAR", "CHAR", "BIT":
		return true
	}
	return false
}

// commentStatements renders COMMENT ON COLUMN statements for commented columns.
func (d *postgresDialect) commentStatements(table string, cols []*action.Column) []string {
	var stmts []string
	for _, col := range cols {
		if col.Comment != "" {
			stmts = append(stmts, "COMMENT ON COLUMN "+d.quote(table)+"."+d.quote(col.Name)+
				" IS "+action.FormatDefault(col.Comment, "TRUE", "FALSE"))
		}
	}
	return stmts
}

// -----------------------------------------------------------------------------
// DDL
// -----------------------------------------------------------------------------

func (d *postgresDialect) actionSQL(act action.Action) ([]string, error) {
	switch a := act.(type) {
	case *action.CreateTable:
		stmts, err := buildCreateTableSQL(a, d.quote, d.columnSQL, createTableOpts{})
		if err != nil {
			return nil, err
		}
		if a.Options.Comment != "" {
			stmts = append(stmts, "COMMENT ON TABLE "+d.quote(a.Name)+" IS "+
				action.FormatDefault(a.Options.Comment, "TRUE", "FALSE"))
		}
		return append(stmts, d.commentStatements(a.Name, a.Columns)...), nil

	case *action.DropTable:
		return []string{buildDropTableSQL(a, d.quote)}, nil

	case *action.RenameTable:
		return []string{buildRenameTableSQL(a, d.quote)}, nil

	case *action.AddColumn:
		stmt, err := buildAddColumnSQL(a, d.quote, d.columnSQL)
		if err != nil {
			return nil, err
		}
		stmts := []string{stmt}
		return append(stmts, d.commentStatements(a.Table(), []*action.Column{a.Column})...), nil

	case *action.RemoveColumn:
		return []string{buildRemoveColumnSQL(a, d.quote)}, nil

	case *action.RenameColumn:
		return []string{buildRenameColumnSQL(a, d.quote)}, nil

	case *action.ChangeColumn:
		return d.changeColumnSQL(a)

	case *action.AddIndex:
		if a.Index.Kind != action.IndexNormal {
			return nil, unsupportedAction(d.name(), a.Kind())
		}
		return []string{buildCreateIndexSQL(a.Table(), a.Index, d.quote)}, nil

	case *action.DropIndex:
		// Index names are schema-scoped.
		return []string{"DROP INDEX " + d.quote(a.Name)}, nil

	case *action.AddForeignKey:
		return []string{buildAddForeignKeySQL(a, d.quote)}, nil

	case *action.DropForeignKey:
		return []string{buildDropConstraintSQL(a.Table(), a.Constraint, d.quote)}, nil

	case *action.ChangePrimaryKey:
		stmts := []string{buildDropConstraintSQL(a.Table(), a.Table()+"_pkey", d.quote)}
		if len(a.Columns) > 0 {
			var b strings.Builder
			b.WriteString("ALTER TABLE ")
			b.WriteString(d.quote(a.Table()))
			b.WriteString(" ADD PRIMARY KEY (")
			writeQuotedList(&b, a.Columns, d.quote)
			b.WriteString(")")
			stmts = append(stmts, b.String())
		}
		return stmts, nil

	case *action.ChangeComment:
		comment := "NULL"
		if a.Comment != nil {
			comment = action.FormatDefault(*a.Comment, "TRUE", "FALSE")
		}
		return []string{"COMMENT ON TABLE " + d.quote(a.Table()) + " IS " + comment}, nil
	}
	return nil, unsupportedAction(d.name(), act.Kind())
}

// changeColumnSQL decomposes a column redefinition into the separate ALTER
// clauses PostgreSQL requires, with the rename last.
func (d *postgresDialect) changeColumnSQL(a *action.ChangeColumn) ([]string, error) {
	col := a.Column
	table := d.quote(a.Table())
	name := d.quote(a.Name)

	var typeName string
	if col.IsLiteral() {
		typeName = string(col.TypeLiteral)
	} else {
		st, err := d.typeFor(col.Type, col.Limit)
		if err != nil {
			return nil, err
		}
		typeName = st.Name
		if col.Type == action.TypeDecimal && col.Precision > 0 {
			typeName += fmt.Sprintf("(%d, %d)", col.Precision, col.Scale)
		} else if st.Limit > 0 && postgresSizedType(st.Name) {
			typeName += fmt.Sprintf("(%d)", st.Limit)
		}
	}

	stmts := []string{
		"ALTER TABLE " + table + " ALTER COLUMN " + name + " TYPE " + typeName,
	}
	if col.Null {
		stmts = append(stmts, "ALTER TABLE "+table+" ALTER COLUMN "+name+" DROP NOT NULL")
	} else {
		stmts = append(stmts, "ALTER TABLE "+table+" ALTER COLUMN "+name+" SET NOT NULL")
	}
	if col.DefaultSet {
		stmts = append(stmts, "ALTER TABLE "+table+" ALTER COLUMN "+name+
			" SET DEFAULT "+action.FormatDefault(col.Default, "TRUE", "FALSE"))
	} else {
		stmts = append(stmts, "ALTER TABLE "+table+" ALTER COLUMN "+name+" DROP DEFAULT")
	}
	if col.Comment != "" {
		stmts = append(stmts, d.commentStatements(a.Table(), []*action.Column{col})...)
	}
	if col.Name != "" && col.Name != a.Name {
		stmts = append(stmts, "ALTER TABLE "+table+" RENAME COLUMN "+name+" TO "+d.quote(col.Name))
	}
	return stmts, nil
}

func (d *postgresDialect) truncateSQL(table string) string {
	return "TRUNCATE TABLE " + d.quote(table) + " RESTART IDENTITY"
}

func (d *postgresDialect) ignoreDuplicates(b sq.InsertBuilder) (sq.InsertBuilder, bool) {
	return b.Suffix("ON CONFLICT DO NOTHING"), true
}

// -----------------------------------------------------------------------------
// Introspection
// -----------------------------------------------------------------------------

func (d *postgresDialect) hasTableSQL(table string) (string, []any) {
	return `SELECT 1 FROM information_schema.tables
		WHERE table_schema = current_schema() AND table_name = $1`, []any{table}
}

func (d *postgresDialect) hasColumnSQL(table, column string) (string, []any) {
	return `SELECT 1 FROM information_schema.columns
		WHERE table_schema = current_schema() AND table_name = $1 AND column_name = $2`,
		[]any{table, column}
}

func (d *postgresDialect) indexRowsSQL(table string) (string, []any) {
	return `SELECT i.relname, a.attname
		FROM pg_index ix
		JOIN pg_class t ON t.oid = ix.indrelid
		JOIN pg_class i ON i.oid = ix.indexrelid
		JOIN pg_namespace n ON n.oid = t.relnamespace
		JOIN pg_attribute a ON a.attrelid = t.oid AND a.attnum = ANY(ix.indkey)
		WHERE n.nspname = current_schema() AND t.relname = $1 AND NOT ix.indisprimary
		ORDER BY i.relname, a.attnum`, []any{table}
}

func (d *postgresDialect) foreignKeyRowsSQL(table string) (string, []any) {
	return `SELECT tc.constraint_name, kcu.column_name
		FROM information_schema.table_constraints tc
		JOIN information_schema.key_column_usage kcu
			ON kcu.constraint_name = tc.constraint_name
			AND kcu.table_schema = tc.table_schema
		WHERE tc.table_schema = current_schema() AND tc.table_name = $1
			AND tc.constraint_type = 'FOREIGN KEY'
		ORDER BY tc.constraint_name, kcu.ordinal_position`, []any{table}
}

func (d *postgresDialect) primaryKeySQL(table string) (string, []any) {
	return `SELECT kcu.column_name
		FROM information_schema.table_constraints tc
		JOIN information_schema.key_column_usage kcu
			ON kcu.constraint_name = tc.constraint_name
			AND kcu.table_schema = tc.table_schema
		WHERE tc.table_schema = current_schema() AND tc.table_name = $1
			AND tc.constraint_type = 'PRIMARY KEY'
		ORDER BY kcu.ordinal_position`, []any{table}
}

var postgresSemanticType = map[string]action.ColumnType{
	"character varying":           action.TypeString,
	"character":                   action.TypeChar,
	"text":                        action.TypeText,
	"integer":                     action.TypeInteger,
	"smallint":                    action.TypeSmallInteger,
	"bigint":                      action.TypeBigInteger,
	"real":                        action.TypeFloat,
	"double precision":            action.TypeDouble,
	"numeric":                     action.TypeDecimal,
	"timestamp without time zone": action.TypeTimestamp,
	"timestamp with time zone":    action.TypeTimestamp,
	"time without time zone":      action.TypeTime,
	"date":                        action.TypeDate,
	"bytea":                       action.TypeBlob,
	"boolean":                     action.TypeBoolean,
	"bit":                         action.TypeBit,
	"jsonb":                       action.TypeJSON,
	"json":                        action.TypeJSON,
	"uuid":                        action.TypeUUID,
}

func (d *postgresDialect) columns(ctx context.Context, db queryer, table string) ([]*action.Column, error) {
	query := `SELECT column_name, data_type, is_nullable, column_default,
			COALESCE(character_maximum_length, 0), COALESCE(numeric_precision, 0),
			COALESCE(numeric_scale, 0), is_identity
		FROM information_schema.columns
		WHERE table_schema = current_schema() AND table_name = $1
		ORDER BY ordinal_position`
	rows, err := db.QueryContext(ctx, query, table)
	if err != nil {
		return nil, amerr.Wrap(amerr.ErrSQLExecution, err, "introspection query failed").
			WithTable(table)
	}
	defer rows.Close()

	var cols []*action.Column
	for rows.Next() {
		var (
			name, dataType, nullable, identity string
			def                                *string
			length, precision, scale           int64
		)
		if err := rows.Scan(&name, &dataType, &nullable, &def,
			&length, &precision, &scale, &identity); err != nil {
			return nil, amerr.Wrap(amerr.ErrSQLExecution, err, "failed to scan column row")
		}

		col := &action.Column{Name: name}
		if t, ok := postgresSemanticType[strings.ToLower(dataType)]; ok {
			col.Type = t
		} else {
			col.TypeLiteral = action.NewLiteral(dataType)
		}
		col.Null = nullable == "YES"
		if def != nil {
			col.Default = *def
			col.DefaultSet = true
		}
		col.Limit = int(length)
		col.Precision = int(precision)
		col.Scale = int(scale)
		col.Identity = identity == "YES"
		cols = append(cols, col)
	}
	return cols, rows.Err()
}
