package adapter

import (
	"context"
	"fmt"
	"strings"

	sq "github.com/Masterminds/squirrel"
	_ "github.com/microsoft/go-mssqldb"

	"github.com/lmari-ekan/alpha-migrations/internal/action"
	"github.com/lmari-ekan/alpha-migrations/internal/amerr"
)

// sqlserverDialect renders SQL Server DDL. Bracket quoting, @pN placeholders,
// transactional DDL. Renames go through sp_rename; there is no
// insert-or-ignore form.
type sqlserverDialect struct{}

func newSQLServer() dialect { return &sqlserverDialect{} }

func (d *sqlserverDialect) name() string       { return "sqlserver" }
func (d *sqlserverDialect) driverName() string { return "sqlserver" }

func (d *sqlserverDialect) quote(ident string) string {
	return "[" + strings.ReplaceAll(ident, "]", "]]") + "]"
}

func (d *sqlserverDialect) placeholder(index int) string {
	return fmt.Sprintf("@p%d", index)
}

func (d *sqlserverDialect) placeholderFormat() sq.PlaceholderFormat { return sq.AtP }

func (d *sqlserverDialect) transactionalDDL() bool { return true }

// -----------------------------------------------------------------------------
// Type mapping
// -----------------------------------------------------------------------------

func (d *sqlserverDialect) supportsType(t action.ColumnType) bool {
	switch t {
	case action.TypeYear, action.TypeEnum, action.TypeSet,
		action.TypePoint, action.TypeLineString, action.TypePolygon:
		return false
	}
	return true
}

// nvarcharMax is the largest sized NVARCHAR; anything bigger renders as MAX.
const nvarcharMax = 4000

func (d *sqlserverDialect) typeFor(t action.ColumnType, limit int) (SQLType, error) {
	switch t {
	case action.TypeString:
		if limit <= 0 {
			limit = 255
		}
		if limit > nvarcharMax {
			limit = 0 // MAX
		}
		return SQLType{Name: "NVARCHAR", Limit: limit}, nil
	case action.TypeChar:
		if limit <= 0 {
			limit = 255
		}
		return SQLType{Name: "NCHAR", Limit: limit}, nil
	case action.TypeText, action.TypeJSON:
		return SQLType{Name: "NVARCHAR"}, nil // NVARCHAR(MAX)
	case action.TypeInteger:
		return SQLType{Name: "INT"}, nil
	case action.TypeSmallInteger:
		return SQLType{Name: "SMALLINT"}, nil
	case action.TypeBigInteger:
		return SQLType{Name: "BIGINT"}, nil
	case action.TypeFloat, action.TypeDouble:
		return SQLType{Name: "FLOAT"}, nil
	case action.TypeDecimal:
		return SQLType{Name: "DECIMAL"}, nil
	case action.TypeDateTime, action.TypeTimestamp:
		return SQLType{Name: "DATETIME2"}, nil
	case action.TypeTime:
		return SQLType{Name: "TIME"}, nil
	case action.TypeDate:
		return SQLType{Name: "DATE"}, nil
	case action.TypeBinary:
		if limit <= 0 {
			limit = 255
		}
		return SQLType{Name: "BINARY", Limit: limit}, nil
	case action.TypeVarbinary:
		if limit <= 0 {
			limit = 255
		}
		return SQLType{Name: "VARBINARY", Limit: limit}, nil
	case action.TypeTinyBlob, action.TypeBlob, action.TypeMediumBlob, action.TypeLongBlob:
		return SQLType{Name: "VARBINARY"}, nil // VARBINARY(MAX)
	case action.TypeBoolean, action.TypeBit:
		return SQLType{Name: "BIT"}, nil
	case action.TypeUUID, action.TypeBinaryUUID:
		return SQLType{Name: "UNIQUEIDENTIFIER"}, nil
	case action.TypeGeometry:
		return SQLType{Name: "GEOMETRY"}, nil
	}
	return SQLType{}, unsupportedType(d.name(), t)
}

// columnSQL renders a SQL Server column definition clause.
func (d *sqlserverDialect) columnSQL(col *action.Column, table string) (string, error) {
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
		switch {
		case col.Type == action.TypeDecimal && col.Precision > 0:
			fmt.Fprintf(&b, "(%d, %d)", col.Precision, col.Scale)
		case st.Limit > 0 && sqlserverSizedType(st.Name):
			fmt.Fprintf(&b, "(%d)", st.Limit)
		case st.Limit == 0 && (st.Name == "NVARCHAR" || st.Name == "VARBINARY"):
			b.WriteString("(MAX)")
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
	if col.Identity {
		b.WriteString(" IDENTITY(1, 1)")
	}
	if col.DefaultSet {
		b.WriteString(" DEFAULT ")
		b.WriteString(action.FormatDefault(col.Default, "1", "0"))
	}
	return b.String(), nil
}

func sqlserverSizedType(name string) bool {
	switch name {
	case "NVARCHAR", "NCHAR", "BINARY", "VARBINARY":
		return true
	}
	return false
}

// -----------------------------------------------------------------------------
// DDL
// -----------------------------------------------------------------------------

func (d *sqlserverDialect) actionSQL(act action.Action) ([]string, error) {
	switch a := act.(type) {
	case *action.CreateTable:
		return buildCreateTableSQL(a, d.quote, d.columnSQL, createTableOpts{})

	case *action.DropTable:
		return []string{buildDropTableSQL(a, d.quote)}, nil

	case *action.RenameTable:
		return []string{fmt.Sprintf("EXEC sp_rename '%s', '%s'", a.Name, a.NewName)}, nil

	case *action.AddColumn:
		// No COLUMN keyword on ADD.
		def, err := d.columnSQL(a.Column, a.Table())
		if err != nil {
			return nil, err
		}
		return []string{"ALTER TABLE " + d.quote(a.Table()) + " ADD " + def}, nil

	case *action.RemoveColumn:
		return []string{buildRemoveColumnSQL(a, d.quote)}, nil

	case *action.RenameColumn:
		return []string{fmt.Sprintf("EXEC sp_rename '%s.%s', '%s', 'COLUMN'",
			a.Table(), a.OldName, a.NewName)}, nil

	case *action.ChangeColumn:
		return d.changeColumnSQL(a)

	case *action.AddIndex:
		if a.Index.Kind != action.IndexNormal {
			return nil, unsupportedAction(d.name(), a.Kind())
		}
		return []string{buildCreateIndexSQL(a.Table(), a.Index, d.quote)}, nil

	case *action.DropIndex:
		return []string{"DROP INDEX " + d.quote(a.Name) + " ON " + d.quote(a.Table())}, nil

	case *action.AddForeignKey:
		return []string{buildAddForeignKeySQL(a, d.quote)}, nil

	case *action.DropForeignKey:
		return []string{buildDropConstraintSQL(a.Table(), a.Constraint, d.quote)}, nil

	case *action.ChangePrimaryKey, *action.ChangeComment:
		// The primary key constraint name is system-generated and table
		// comments live in extended properties.
		return nil, unsupportedAction(d.name(), act.Kind())
	}
	return nil, unsupportedAction(d.name(), act.Kind())
}

// changeColumnSQL renders an in-place column redefinition, with the rename
// through sp_rename first so ALTER COLUMN addresses the final name.
func (d *sqlserverDialect) changeColumnSQL(a *action.ChangeColumn) ([]string, error) {
	var stmts []string
	col := a.Column
	if col.Name != "" && col.Name != a.Name {
		stmts = append(stmts, fmt.Sprintf("EXEC sp_rename '%s.%s', '%s', 'COLUMN'",
			a.Table(), a.Name, col.Name))
	}
	// ALTER COLUMN accepts no DEFAULT or IDENTITY clause.
	plain := col.Clone()
	plain.DefaultSet = false
	plain.Default = nil
	plain.Identity = false
	def, err := d.columnSQL(plain, a.Table())
	if err != nil {
		return nil, err
	}
	return append(stmts, "ALTER TABLE "+d.quote(a.Table())+" ALTER COLUMN "+def), nil
}

func (d *sqlserverDialect) truncateSQL(table string) string {
	return "TRUNCATE TABLE " + d.quote(table)
}

func (d *sqlserverDialect) ignoreDuplicates(b sq.InsertBuilder) (sq.InsertBuilder, bool) {
	return b, false
}

// -----------------------------------------------------------------------------
// Introspection
// -----------------------------------------------------------------------------

func (d *sqlserverDialect) hasTableSQL(table string) (string, []any) {
	return `SELECT 1 FROM information_schema.tables
		WHERE table_schema = SCHEMA_NAME() AND table_name = @p1`, []any{table}
}

func (d *sqlserverDialect) hasColumnSQL(table, column string) (string, []any) {
	return `SELECT 1 FROM information_schema.columns
		WHERE table_schema = SCHEMA_NAME() AND table_name = @p1 AND column_name = @p2`,
		[]any{table, column}
}

func (d *sqlserverDialect) indexRowsSQL(table string) (string, []any) {
	return `SELECT i.name, c.name
		FROM sys.indexes i
		JOIN sys.index_columns ic ON ic.object_id = i.object_id AND ic.index_id = i.index_id
		JOIN sys.columns c ON c.object_id = ic.object_id AND c.column_id = ic.column_id
		JOIN sys.tables t ON t.object_id = i.object_id
		WHERE t.name = @p1 AND i.is_primary_key = 0 AND i.name IS NOT NULL
		ORDER BY i.name, ic.key_ordinal`, []any{table}
}

func (d *sqlserverDialect) foreignKeyRowsSQL(table string) (string, []any) {
	return `SELECT fk.name, c.name
		FROM sys.foreign_keys fk
		JOIN sys.foreign_key_columns fkc ON fkc.constraint_object_id = fk.object_id
		JOIN sys.columns c ON c.object_id = fkc.parent_object_id AND c.column_id = fkc.parent_column_id
		JOIN sys.tables t ON t.object_id = fk.parent_object_id
		WHERE t.name = @p1
		ORDER BY fk.name, fkc.constraint_column_id`, []any{table}
}

func (d *sqlserverDialect) primaryKeySQL(table string) (string, []any) {
	return `SELECT kcu.column_name
		FROM information_schema.table_constraints tc
		JOIN information_schema.key_column_usage kcu
			ON kcu.constraint_name = tc.constraint_name
			AND kcu.table_schema = tc.table_schema
		WHERE tc.table_schema = SCHEMA_NAME() AND tc.table_name = @p1
			AND tc.constraint_type = 'PRIMARY KEY'
		ORDER BY kcu.ordinal_position`, []any{table}
}

var sqlserverSemanticType = map[string]action.ColumnType{
	"nvarchar":         action.TypeString,
	"varchar":          action.TypeString,
	"nchar":            action.TypeChar,
	"char":             action.TypeChar,
	"int":              action.TypeInteger,
	"smallint":         action.TypeSmallInteger,
	"bigint":           action.TypeBigInteger,
	"float":            action.TypeDouble,
	"real":             action.TypeFloat,
	"decimal":          action.TypeDecimal,
	"numeric":          action.TypeDecimal,
	"datetime2":        action.TypeDateTime,
	"datetime":         action.TypeDateTime,
	"time":             action.TypeTime,
	"date":             action.TypeDate,
	"binary":           action.TypeBinary,
	"varbinary":        action.TypeVarbinary,
	"bit":              action.TypeBoolean,
	"uniqueidentifier": action.TypeUUID,
	"geometry":         action.TypeGeometry,
}

func (d *sqlserverDialect) columns(ctx context.Context, db queryer, table string) ([]*action.Column, error) {
	query := `SELECT column_name, data_type, is_nullable, column_default,
			COALESCE(character_maximum_length, 0), COALESCE(numeric_precision, 0),
			COALESCE(numeric_scale, 0),
			COLUMNPROPERTY(OBJECT_ID(table_schema + '.' + table_name), column_name, 'IsIdentity')
		FROM information_schema.columns
		WHERE table_schema = SCHEMA_NAME() AND table_name = @p1
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
			name, dataType, nullable string
			def                      *string
			length, precision, scale int64
			identity                 *int64
		)
		if err := rows.Scan(&name, &dataType, &nullable, &def,
			&length, &precision, &scale, &identity); err != nil {
			return nil, amerr.Wrap(amerr.ErrSQLExecution, err, "failed to scan column row")
		}

		col := &action.Column{Name: name}
		if t, ok := sqlserverSemanticType[strings.ToLower(dataType)]; ok {
			col.Type = t
		} else {
			col.TypeLiteral = action.NewLiteral(dataType)
		}
		col.Null = nullable == "YES"
		if def != nil {
			col.Default = *def
			col.DefaultSet = true
		}
		if length > 0 {
			col.Limit = int(length)
		}
		col.Precision = int(precision)
		col.Scale = int(scale)
		col.Identity = identity != nil && *identity == 1
		cols = append(cols, col)
	}
	return cols, rows.Err()
}
