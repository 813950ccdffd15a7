package action

// TableOptions is the closed option set for a table. Unknown options are
// rejected at the configuration boundary; this struct is the full surface.
type TableOptions struct {
	// ID names the implicit auto-increment primary key column.
	// Empty means the default "id" unless DisableID is set.
	ID string

	// DisableID suppresses the implicit primary key column entirely.
	DisableID bool

	// PrimaryKey lists explicit primary key columns. Mutually exclusive
	// with the implicit ID column.
	PrimaryKey []string

	// Unsigned makes the implicit ID column unsigned on dialects that
	// support signedness.
	Unsigned bool

	Engine    string
	Charset   string
	Collation string
	Comment   string
}

// IDColumn returns the implicit primary key column name, or "" when the
// table has an explicit or disabled primary key.
func (o TableOptions) IDColumn() string {
	if o.DisableID || len(o.PrimaryKey) > 0 {
		return ""
	}
	if o.ID != "" {
		return o.ID
	}
	return "id"
}
