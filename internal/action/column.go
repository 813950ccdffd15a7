package action

import (
	"fmt"

	"github.com/lmari-ekan/alpha-migrations/internal/amerr"
)

// ColumnType is one of the fixed set of semantic column types.
// Adapters map each semantic type to a dialect-specific SQL type.
type ColumnType string

const (
	TypeString       ColumnType = "string"
	TypeChar         ColumnType = "char"
	TypeText         ColumnType = "text"
	TypeInteger      ColumnType = "integer"
	TypeSmallInteger ColumnType = "smallinteger"
	TypeBigInteger   ColumnType = "biginteger"
	TypeFloat        ColumnType = "float"
	TypeDouble       ColumnType = "double"
	TypeDecimal      ColumnType = "decimal"
	TypeDateTime     ColumnType = "datetime"
	TypeTimestamp    ColumnType = "timestamp"
	TypeTime         ColumnType = "time"
	TypeDate         ColumnType = "date"
	TypeYear         ColumnType = "year"
	TypeBinary       ColumnType = "binary"
	TypeVarbinary    ColumnType = "varbinary"
	TypeTinyBlob     ColumnType = "tinyblob"
	TypeBlob         ColumnType = "blob"
	TypeMediumBlob   ColumnType = "mediumblob"
	TypeLongBlob     ColumnType = "longblob"
	TypeBoolean      ColumnType = "boolean"
	TypeBit          ColumnType = "bit"
	TypeJSON         ColumnType = "json"
	TypeUUID         ColumnType = "uuid"
	TypeBinaryUUID   ColumnType = "binaryuuid"
	TypeEnum         ColumnType = "enum"
	TypeSet          ColumnType = "set"
	TypeGeometry     ColumnType = "geometry"
	TypePoint        ColumnType = "point"
	TypeLineString   ColumnType = "linestring"
	TypePolygon      ColumnType = "polygon"
)

// Types returns the full set of semantic column types.
func Types() []ColumnType {
	return []ColumnType{
		TypeString, TypeChar, TypeText,
		TypeInteger, TypeSmallInteger, TypeBigInteger,
		TypeFloat, TypeDouble, TypeDecimal,
		TypeDateTime, TypeTimestamp, TypeTime, TypeDate, TypeYear,
		TypeBinary, TypeVarbinary,
		TypeTinyBlob, TypeBlob, TypeMediumBlob, TypeLongBlob,
		TypeBoolean, TypeBit, TypeJSON,
		TypeUUID, TypeBinaryUUID,
		TypeEnum, TypeSet,
		TypeGeometry, TypePoint, TypeLineString, TypePolygon,
	}
}

// Literal marks a raw, dialect-specific SQL fragment that bypasses type
// validation. Usable as a column type (raw type string) or as a default
// value expression such as CURRENT_TIMESTAMP.
type Literal string

// NewLiteral wraps a raw SQL fragment.
func NewLiteral(s string) Literal {
	return Literal(s)
}

// String returns the raw fragment.
func (l Literal) String() string {
	return string(l)
}

// Column is an immutable description of one column. Exactly one of Type or
// TypeLiteral is set; TypeLiteral passes through to the adapter unvalidated.
type Column struct {
	Name        string
	Type        ColumnType
	TypeLiteral Literal

	// Null is true if the column allows NULL (default is NOT NULL).
	Null bool

	// Default is the default value: a scalar, nil, or a Literal expression.
	// DefaultSet distinguishes "default NULL" from "no default".
	Default    any
	DefaultSet bool

	// Limit is the length/size hint. Adapters may clamp or promote it
	// (e.g. a blob limit past the medium tier promotes to the long type).
	Limit int

	// Precision and Scale apply to decimal columns.
	Precision int
	Scale     int

	// Unsigned applies to integer types on dialects that support signedness.
	Unsigned bool

	Collation string
	Comment   string

	// Identity marks the auto-increment primary key column.
	Identity bool

	// Values holds the allowed values for enum and set columns.
	Values []string

	// SRID is the spatial reference id for geometry types.
	SRID int
}

// NewColumn constructs a column with a semantic type.
func NewColumn(name string, t ColumnType) *Column {
	return &Column{Name: name, Type: t}
}

// NewLiteralColumn constructs a column whose type is a raw dialect string.
func NewLiteralColumn(name string, raw Literal) *Column {
	return &Column{Name: name, TypeLiteral: raw}
}

// SetDefault sets the default value and returns the column for chaining.
func (c *Column) SetDefault(v any) *Column {
	c.Default = v
	c.DefaultSet = true
	return c
}

// SetNull marks the column nullable and returns the column for chaining.
func (c *Column) SetNull(null bool) *Column {
	c.Null = null
	return c
}

// SetLimit sets the length/size hint and returns the column for chaining.
func (c *Column) SetLimit(limit int) *Column {
	c.Limit = limit
	return c
}

// SetComment sets the column comment and returns the column for chaining.
func (c *Column) SetComment(comment string) *Column {
	c.Comment = comment
	return c
}

// IsLiteral reports whether the column type is a raw passthrough.
func (c *Column) IsLiteral() bool {
	return c.TypeLiteral != ""
}

// TypeName returns the semantic type name, or the raw literal for
// passthrough columns.
func (c *Column) TypeName() string {
	if c.IsLiteral() {
		return string(c.TypeLiteral)
	}
	return string(c.Type)
}

// Clone returns a deep copy of the column.
func (c *Column) Clone() *Column {
	cp := *c
	if c.Values != nil {
		cp.Values = append([]string(nil), c.Values...)
	}
	return &cp
}

// Validate checks that the column definition is well-formed. Literal types
// are accepted without further inspection.
func (c *Column) Validate() error {
	if c.Name == "" {
		return amerr.New(amerr.ErrSchemaInvalid, "column name is required")
	}
	if c.Type == "" && c.TypeLiteral == "" {
		return amerr.New(amerr.ErrSchemaInvalid, "column type is required").
			WithColumn(c.Name)
	}
	if c.Type != "" && c.TypeLiteral != "" {
		return amerr.New(amerr.ErrSchemaInvalid, "column type and literal type are mutually exclusive").
			WithColumn(c.Name)
	}
	if c.IsLiteral() {
		return nil
	}
	if !validType(c.Type) {
		return amerr.Newf(amerr.ErrInvalidType, "unknown column type %q", c.Type).
			WithColumn(c.Name)
	}
	if (c.Type == TypeEnum || c.Type == TypeSet) && len(c.Values) == 0 {
		return amerr.Newf(amerr.ErrSchemaInvalid, "%s column requires values", c.Type).
			WithColumn(c.Name)
	}
	if c.Limit < 0 {
		return amerr.New(amerr.ErrSchemaInvalid, "column limit must not be negative").
			WithColumn(c.Name).
			With("limit", c.Limit)
	}
	if c.Scale > c.Precision && c.Precision > 0 {
		return amerr.New(amerr.ErrSchemaInvalid, "decimal scale must not exceed precision").
			WithColumn(c.Name).
			With("precision", c.Precision).
			With("scale", c.Scale)
	}
	return nil
}

var typeSet = func() map[ColumnType]bool {
	m := make(map[ColumnType]bool)
	for _, t := range Types() {
		m[t] = true
	}
	return m
}()

func validType(t ColumnType) bool {
	return typeSet[t]
}

// FormatDefault renders a default value as a SQL literal using the given
// boolean literals. Literal expressions pass through unquoted.
func FormatDefault(v any, trueLit, falseLit string) string {
	switch val := v.(type) {
	case Literal:
		return string(val)
	case nil:
		return "NULL"
	case bool:
		if val {
			return trueLit
		}
		return falseLit
	case string:
		return quoteString(val)
	case int, int8, int16, int32, int64, uint, uint8, uint16, uint32, uint64:
		return fmt.Sprintf("%d", val)
	case float32, float64:
		return fmt.Sprintf("%v", val)
	default:
		return quoteString(fmt.Sprintf("%v", val))
	}
}

func quoteString(s string) string {
	var out []byte
	out = append(out, '\'')
	for i := 0; i < len(s); i++ {
		if s[i] == '\'' {
			out = append(out, '\'', '\'')
		} else {
			out = append(out, s[i])
		}
	}
	return string(append(out, '\''))
}
