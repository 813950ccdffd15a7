package adapter

import (
	"context"
	"fmt"
	"strings"

	sq "github.com/Masterminds/squirrel"
	_ "github.com/go-sql-driver/mysql"

	"github.com/lmari-ekan/alpha-migrations/internal/action"
	"github.com/lmari-ekan/alpha-migrations/internal/amerr"
)

// mysqlDialect renders MySQL / MariaDB DDL. Backtick quoting, ? placeholders,
// no transactional DDL (implicit commit on every DDL statement).
type mysqlDialect struct{}

func newMySQL() dialect { return &mysqlDialect{} }

func (d *mysqlDialect) name() string       { return "mysql" }
func (d *mysqlDialect) driverName() string { return "mysql" }

func (d *mysqlDialect) quote(ident string) string {
	return "`" + strings.ReplaceAll(ident, "`", "``") + "`"
}

func (d *mysqlDialect) placeholder(int) string { return "?" }

func (d *mysqlDialect) placeholderFormat() sq.PlaceholderFormat { return sq.Question }

func (d *mysqlDialect) transactionalDDL() bool { return false }

// -----------------------------------------------------------------------------
// Type mapping
// -----------------------------------------------------------------------------

var (
	mysqlTextTiers = []sizeTier{
		{"TINYTEXT", 255},
		{"TEXT", 65535},
		{"MEDIUMTEXT", 16777215},
		{"LONGTEXT", 4294967295},
	}
	mysqlBlobTiers = []sizeTier{
		{"TINYBLOB", 255},
		{"BLOB", 65535},
		{"MEDIUMBLOB", 16777215},
		{"LONGBLOB", 4294967295},
	}
)

func (d *mysqlDialect) supportsType(t action.ColumnType) bool {
	// Every semantic type has a native MySQL rendering.
	return validMySQLType[t]
}

var validMySQLType = func() map[action.ColumnType]bool {
	m := make(map[action.ColumnType]bool)
	for _, t := range action.Types() {
		m[t] = true
	}
	return m
}()

func (d *mysqlDialect) typeFor(t action.ColumnType, limit int) (SQLType, error) {
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
		return pickTier(mysqlTextTiers, limit, 1), nil
	case action.TypeInteger:
		if limit <= 0 {
			limit = 11
		}
		return SQLType{Name: "INT", Limit: limit}, nil
	case action.TypeSmallInteger:
		if limit <= 0 {
			limit = 6
		}
		return SQLType{Name: "SMALLINT", Limit: limit}, nil
	case action.TypeBigInteger:
		if limit <= 0 {
			limit = 20
		}
		return SQLType{Name: "BIGINT", Limit: limit}, nil
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
	case action.TypeYear:
		return SQLType{Name: "YEAR"}, nil
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
	case action.TypeTinyBlob:
		return pickTier(mysqlBlobTiers, limit, 0), nil
	case action.TypeBlob:
		return pickTier(mysqlBlobTiers, limit, 1), nil
	case action.TypeMediumBlob:
		return pickTier(mysqlBlobTiers, maxInt(limit, mysqlBlobTiers[2].Limit), 2), nil
	case action.TypeLongBlob:
		return pickTier(mysqlBlobTiers, maxInt(limit, mysqlBlobTiers[3].Limit), 3), nil
	case action.TypeBoolean:
		return SQLType{Name: "TINYINT", Limit: 1}, nil
	case action.TypeBit:
		if limit <= 0 {
			limit = 1
		}
		return SQLType{Name: "BIT", Limit: limit}, nil
	case action.TypeJSON:
		return SQLType{Name: "JSON"}, nil
	case action.TypeUUID:
		return SQLType{Name: "CHAR", Limit: 36}, nil
	case action.TypeBinaryUUID:
		return SQLType{Name: "BINARY", Limit: 16}, nil
	case action.TypeEnum:
		return SQLType{Name: "ENUM"}, nil
	case action.TypeSet:
		return SQLType{Name: "SET"}, nil
	case action.TypeGeometry:
		return SQLType{Name: "GEOMETRY"}, nil
	case action.TypePoint:
		return SQLType{Name: "POINT"}, nil
	case action.TypeLineString:
		return SQLType{Name: "LINESTRING"}, nil
	case action.TypePolygon:
		return SQLType{Name: "POLYGON"}, nil
	}
	return SQLType{}, unsupportedType(d.name(), t)
}

func maxInt(a, b int) int {
	if a > b {
		return a
	}
	return b
}

// columnSQL renders a full MySQL column definition clause.
func (d *mysqlDialect) columnSQL(col *action.Column, table string) (string, error) {
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
		case action.TypeEnum, action.TypeSet:
			b.WriteString(quotedValueList(col.Values))
		default:
			if st.Limit > 0 && mysqlSizedType(st.Name) {
				fmt.Fprintf(&b, "(%d)", st.Limit)
			}
		}
		if col.Unsigned && mysqlNumericType(col.Type) {
			b.WriteString(" unsigned")
		}
	}

	if col.Collation != "" {
		b.WriteString(" COLLATE ")
		b.WriteString(col.Collation)
	}
	if col.SRID > 0 {
		fmt.Fprintf(&b, " SRID %d", col.SRID)
	}
	if col.Null {
		b.WriteString(" NULL")
	} else {
		b.WriteString(" NOT NULL")
	}
	if col.Identity {
		b.WriteString(" AUTO_INCREMENT")
	}
	if col.DefaultSet {
		b.WriteString(" DEFAULT ")
		b.WriteString(action.FormatDefault(col.Default, "TRUE", "FALSE"))
	}
	if col.Comment != "" {
		b.WriteString(" COMMENT ")
		b.WriteString(action.FormatDefault(col.Comment, "TRUE", "FALSE"))
	}
	return b.String(), nil
}

// mysqlSizedType reports whether the rendered type carries a (n) suffix.
func mysqlSizedType(name string) bool {
	switch name {
	case "VARCHAR", "CHAR", "BINARY", "VARBINARY", "INT", "SMALLINT", "BIGINT", "TINYINT", "BIT":
		return true
	}
	return false
}

func mysqlNumericType(t action.ColumnType) bool {
	switch t {
	case action.TypeInteger, action.TypeSmallInteger, action.TypeBigInteger,
		action.TypeFloat, action.TypeDouble, action.TypeDecimal:
		return true
	}
	return false
}

// tableSuffix renders the ENGINE / CHARSET / COLLATE / COMMENT tail of a
// CREATE TABLE statement.
func (d *mysqlDialect) tableSuffix(opts action.TableOptions) string {
	var b strings.Builder
	if opts.Engine != "" {
		b.WriteString(" ENGINE = ")
		b.WriteString(opts.Engine)
	}
	if opts.Charset != "" {
		b.WriteString(" DEFAULT CHARSET = ")
		b.WriteString(opts.Charset)
	}
	if opts.Collation != "" {
		b.WriteString(" COLLATE = ")
		b.WriteString(opts.Collation)
	}
	if opts.Comment != "" {
		b.WriteString(" COMMENT = ")
		b.WriteString(action.FormatDefault(opts.Comment, "TRUE", "FALSE"))
	}
	return b.String()
}

// -----------------------------------------------------------------------------
// DDL
// -----------------------------------------------------------------------------

func (d *mysqlDialect) actionSQL(act action.Action) ([]string, error) {
	switch a := act.(type) {
	case *action.CreateTable:
		return buildCreateTableSQL(a, d.quote, d.columnSQL, createTableOpts{
			tableSuffix: d.tableSuffix,
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

	case *action.ChangeColumn:
		def, err := d.columnSQL(a.Column, a.Table())
		if err != nil {
			return nil, err
		}
		// CHANGE handles redefinition and rename in one clause.
		return []string{"ALTER TABLE " + d.quote(a.Table()) + " CHANGE " + d.quote(a.Name) + " " + def}, nil

	case *action.AddIndex:
		return []string{buildCreateIndexSQL(a.Table(), a.Index, d.quote)}, nil

	case *action.DropIndex:
		return []string{"ALTER TABLE " + d.quote(a.Table()) + " DROP INDEX " + d.quote(a.Name)}, nil

	case *action.AddForeignKey:
		return []string{buildAddForeignKeySQL(a, d.quote)}, nil

	case *action.DropForeignKey:
		return []string{"ALTER TABLE " + d.quote(a.Table()) + " DROP FOREIGN KEY " + d.quote(a.Constraint)}, nil

	case *action.ChangePrimaryKey:
		if len(a.Columns) == 0 {
			return []string{"ALTER TABLE " + d.quote(a.Table()) + " DROP PRIMARY KEY"}, nil
		}
		var b strings.Builder
		b.WriteString("ALTER TABLE ")
		b.WriteString(d.quote(a.Table()))
		b.WriteString(" DROP PRIMARY KEY, ADD PRIMARY KEY (")
		writeQuotedList(&b, a.Columns, d.quote)
		b.WriteString(")")
		return []string{b.String()}, nil

	case *action.ChangeComment:
		comment := ""
		if a.Comment != nil {
			comment = *a.Comment
		}
		return []string{"ALTER TABLE " + d.quote(a.Table()) + " COMMENT = " +
			action.FormatDefault(comment, "TRUE", "FALSE")}, nil
	}
	return nil, unsupportedAction(d.name(), act.Kind())
}

func (d *mysqlDialect) truncateSQL(table string) string {
	return "TRUNCATE TABLE " + d.quote(table)
}

func (d *mysqlDialect) ignoreDuplicates(b sq.InsertBuilder) (sq.InsertBuilder, bool) {
	return b.Options("IGNORE"), true
}

// -----------------------------------------------------------------------------
// Introspection
// -----------------------------------------------------------------------------

func (d *mysqlDialect) hasTableSQL(table string) (string, []any) {
	return `SELECT 1 FROM information_schema.tables
		WHERE table_schema = DATABASE() AND table_name = ?`, []any{table}
}

func (d *mysqlDialect) hasColumnSQL(table, column string) (string, []any) {
	return `SELECT 1 FROM information_schema.columns
		WHERE table_schema = DATABASE() AND table_name = ? AND column_name = ?`, []any{table, column}
}

func (d *mysqlDialect) indexRowsSQL(table string) (string, []any) {
	return `SELECT index_name, column_name FROM information_schema.statistics
		WHERE table_schema = DATABASE() AND table_name = ? AND index_name <> 'PRIMARY'
		ORDER BY index_name, seq_in_index`, []any{table}
}

func (d *mysqlDialect) foreignKeyRowsSQL(table string) (string, []any) {
	return `SELECT constraint_name, column_name FROM information_schema.key_column_usage
		WHERE table_schema = DATABASE() AND table_name = ? AND referenced_table_name IS NOT NULL
		ORDER BY constraint_name, ordinal_position`, []any{table}
}

func (d *mysqlDialect) primaryKeySQL(table string) (string, []any) {
	return `SELECT column_name FROM information_schema.key_column_usage
		WHERE table_schema = DATABASE() AND table_name = ? AND constraint_name = 'PRIMARY'
		ORDER BY ordinal_position`, []any{table}
}

// mysqlSemanticType maps an information_schema data_type back to the
// semantic column type. Unlisted engine types come back as literals.
var mysqlSemanticType = map[string]action.ColumnType{
	"varchar":    action.TypeString,
	"char":       action.TypeChar,
	"tinytext":   action.TypeText,
	"text":       action.TypeText,
	"mediumtext": action.TypeText,
	"longtext":   action.TypeText,
	"int":        action.TypeInteger,
	"smallint":   action.TypeSmallInteger,
	"bigint":     action.TypeBigInteger,
	"float":      action.TypeFloat,
	"double":     action.TypeDouble,
	"decimal":    action.TypeDecimal,
	"datetime":   action.TypeDateTime,
	"timestamp":  action.TypeTimestamp,
	"time":       action.TypeTime,
	"date":       action.TypeDate,
	"year":       action.TypeYear,
	"binary":     action.TypeBinary,
	"varbinary":  action.TypeVarbinary,
	"tinyblob":   action.TypeTinyBlob,
	"blob":       action.TypeBlob,
	"mediumblob": action.TypeMediumBlob,
	"longblob":   action.TypeLongBlob,
	"json":       action.TypeJSON,
	"enum":       action.TypeEnum,
	"set":        action.TypeSet,
	"geometry":   action.TypeGeometry,
	"point":      action.TypePoint,
	"linestring": action.TypeLineString,
	"polygon":    action.TypePolygon,
}

func (d *mysqlDialect) columns(ctx context.Context, db queryer, table string) ([]*action.Column, error) {
	query := `SELECT column_name, data_type, column_type, is_nullable, column_default,
			COALESCE(character_maximum_length, 0), COALESCE(numeric_precision, 0),
			COALESCE(numeric_scale, 0), extra, COALESCE(column_comment, '')
		FROM information_schema.columns
		WHERE table_schema = DATABASE() AND table_name = ?
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
			name, dataType, columnType, nullable, extra, comment string
			def                                                  *string
			length, precision, scale                             int64
		)
		if err := rows.Scan(&name, &dataType, &columnType, &nullable, &def,
			&length, &precision, &scale, &extra, &comment); err != nil {
			return nil, amerr.Wrap(amerr.ErrSQLExecution, err, "failed to scan column row")
		}

		col := &action.Column{Name: name}
		if t, ok := mysqlSemanticType[strings.ToLower(dataType)]; ok {
			col.Type = t
		} else {
			col.TypeLiteral = action.NewLiteral(columnType)
		}
		// boolean round-trips as TINYINT(1)
		if strings.ToLower(dataType) == "tinyint" {
			if strings.HasPrefix(strings.ToLower(columnType), "tinyint(1)") {
				col.Type = action.TypeBoolean
			} else {
				col.Type = action.TypeInteger
			}
		}
		col.Null = nullable == "YES"
		if def != nil {
			col.Default = *def
			col.DefaultSet = true
		}
		col.Limit = int(length)
		col.Precision = int(precision)
		col.Scale = int(scale)
		col.Unsigned = strings.Contains(strings.ToLower(columnType), "unsigned")
		col.Identity = strings.Contains(strings.ToLower(extra), "auto_increment")
		col.Comment = comment
		if col.Type == action.TypeEnum || col.Type == action.TypeSet {
			col.Values = parseEnumValues(columnType)
		}
		cols = append(cols, col)
	}
	return cols, rows.Err()
}

// parseEnumValues extracts the value list from enum('a','b') / set('a','b').
func parseEnumValues(columnType string) []string {
	open := strings.Index(columnType, "(")
	end := strings.LastIndex(columnType, ")")
	if open < 0 || end <= open {
		return nil
	}
	var values []string
	for _, part := range strings.Split(columnType[open+1:end], ",") {
		part = strings.TrimSpace(part)
		part = strings.Trim(part, "'")
		values = append(values, strings.ReplaceAll(part, "''", "'"))
	}
	return values
}
