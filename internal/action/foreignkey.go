package action

import (
	"strings"

	"github.com/lmari-ekan/alpha-migrations/internal/amerr"
)

// ReferentialAction is an ON DELETE / ON UPDATE behavior.
type ReferentialAction string

const (
	Cascade    ReferentialAction = "CASCADE"
	NoAction   ReferentialAction = "NO ACTION"
	SetNull    ReferentialAction = "SET NULL"
	SetDefault ReferentialAction = "SET DEFAULT"
	Restrict   ReferentialAction = "RESTRICT"
)

// NormalizeReferentialAction validates and uppercases an action string.
// An empty string is valid and means "unspecified".
func NormalizeReferentialAction(s string) (ReferentialAction, error) {
	if s == "" {
		return "", nil
	}
	upper := ReferentialAction(strings.ToUpper(strings.ReplaceAll(strings.TrimSpace(s), "_", " ")))
	switch upper {
	case Cascade, NoAction, SetNull, SetDefault, Restrict:
		return upper, nil
	}
	return "", amerr.Newf(amerr.ErrSchemaInvalid,
		"invalid referential action %q; must be one of: CASCADE, NO ACTION, SET NULL, SET DEFAULT, RESTRICT", s)
}

// ForeignKey describes a foreign key constraint. Columns and RefColumns
// correspond positionally and must have the same length.
type ForeignKey struct {
	Columns    []string
	RefTable   string
	RefColumns []string
	OnDelete   ReferentialAction
	OnUpdate   ReferentialAction

	// Name is the explicit constraint name; when empty the adapter derives
	// a deterministic one from the table and columns.
	Name string
}

// Validate checks that the foreign key definition is well-formed.
func (fk *ForeignKey) Validate() error {
	if len(fk.Columns) == 0 {
		return amerr.New(amerr.ErrSchemaInvalid, "foreign key must have at least one column")
	}
	if fk.RefTable == "" {
		return amerr.New(amerr.ErrSchemaInvalid, "foreign key must reference a table")
	}
	if len(fk.RefColumns) == 0 {
		return amerr.New(amerr.ErrSchemaInvalid, "foreign key must reference at least one column")
	}
	if len(fk.Columns) != len(fk.RefColumns) {
		return amerr.New(amerr.ErrColumnCount, "foreign key column count must match referenced column count").
			With("columns", len(fk.Columns)).
			With("ref_columns", len(fk.RefColumns))
	}
	if _, err := NormalizeReferentialAction(string(fk.OnDelete)); err != nil {
		return err
	}
	if _, err := NormalizeReferentialAction(string(fk.OnUpdate)); err != nil {
		return err
	}
	return nil
}

// ConstraintName returns the explicit name, or a deterministic
// table_col1_col2_fk name when none was given.
func (fk *ForeignKey) ConstraintName(table string) string {
	if fk.Name != "" {
		return fk.Name
	}
	name := table
	for _, col := range fk.Columns {
		name += "_" + col
	}
	return name + "_fk"
}

// Clone returns a deep copy of the foreign key.
func (fk *ForeignKey) Clone() *ForeignKey {
	cp := *fk
	cp.Columns = append([]string(nil), fk.Columns...)
	cp.RefColumns = append([]string(nil), fk.RefColumns...)
	return &cp
}
