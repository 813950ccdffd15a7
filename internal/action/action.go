package action

import (
	"github.com/lmari-ekan/alpha-migrations/internal/amerr"
)

// Action is one discrete, typed schema mutation. Actions are immutable once
// constructed and never reference mutable external state; each is a complete
// description of one schema edit.
type Action interface {
	// Kind returns the variant (KindCreateTable, KindAddColumn, ...).
	Kind() Kind

	// Table returns the name of the table the action applies to.
	Table() string

	// Validate checks that the action is well-formed.
	Validate() error
}

// tableRef provides the common table-name field for actions that target an
// existing table.
type tableRef struct {
	TableName string
}

func (t tableRef) Table() string { return t.TableName }

// -----------------------------------------------------------------------------
// CreateTable
// -----------------------------------------------------------------------------

// CreateTable creates a new table with columns, indexes, and foreign keys.
type CreateTable struct {
	Name        string
	Options     TableOptions
	Columns     []*Column
	Indexes     []*Index
	ForeignKeys []*ForeignKey
}

func (a *CreateTable) Kind() Kind    { return KindCreateTable }
func (a *CreateTable) Table() string { return a.Name }

func (a *CreateTable) Validate() error {
	if a.Name == "" {
		return amerr.New(amerr.ErrSchemaInvalid, "table name is required")
	}
	if len(a.Columns) == 0 {
		return amerr.New(amerr.ErrSchemaInvalid, "table must have at least one column").
			WithTable(a.Name)
	}
	seen := make(map[string]bool, len(a.Columns))
	for _, col := range a.Columns {
		if err := col.Validate(); err != nil {
			return amerr.Wrap(amerr.ErrSchemaInvalid, err, "invalid column").
				WithTable(a.Name).
				WithColumn(col.Name)
		}
		if seen[col.Name] {
			return amerr.New(amerr.ErrSchemaInvalid, "duplicate column name").
				WithTable(a.Name).
				WithColumn(col.Name)
		}
		seen[col.Name] = true
	}
	if len(a.Options.PrimaryKey) > 0 && !a.Options.DisableID && a.Options.ID != "" {
		return amerr.New(amerr.ErrPrimaryKeyClash, "explicit primary key conflicts with implicit id column").
			WithTable(a.Name)
	}
	for _, idx := range a.Indexes {
		if err := idx.Validate(); err != nil {
			return amerr.Wrap(amerr.ErrSchemaInvalid, err, "invalid index").
				WithTable(a.Name)
		}
	}
	for _, fk := range a.ForeignKeys {
		if err := fk.Validate(); err != nil {
			return amerr.Wrap(amerr.ErrSchemaInvalid, err, "invalid foreign key").
				WithTable(a.Name)
		}
	}
	return nil
}

// -----------------------------------------------------------------------------
// DropTable
// -----------------------------------------------------------------------------

// DropTable removes an existing table.
type DropTable struct {
	Name string
}

func (a *DropTable) Kind() Kind    { return KindDropTable }
func (a *DropTable) Table() string { return a.Name }

func (a *DropTable) Validate() error {
	if a.Name == "" {
		return amerr.New(amerr.ErrSchemaInvalid, "table name is required for drop")
	}
	return nil
}

// -----------------------------------------------------------------------------
// RenameTable
// -----------------------------------------------------------------------------

// RenameTable changes a table's name.
type RenameTable struct {
	Name    string
	NewName string
}

func (a *RenameTable) Kind() Kind    { return KindRenameTable }
func (a *RenameTable) Table() string { return a.Name }

func (a *RenameTable) Validate() error {
	if a.Name == "" {
		return amerr.New(amerr.ErrSchemaInvalid, "old table name is required for rename")
	}
	if a.NewName == "" {
		return amerr.New(amerr.ErrSchemaInvalid, "new table name is required for rename").
			WithTable(a.Name)
	}
	if a.Name == a.NewName {
		return amerr.New(amerr.ErrSchemaInvalid, "old and new table names must be different").
			WithTable(a.Name)
	}
	return nil
}

// -----------------------------------------------------------------------------
// AddColumn
// -----------------------------------------------------------------------------

// AddColumn adds a new column to an existing table.
type AddColumn struct {
	tableRef
	Column *Column
}

// NewAddColumn constructs an AddColumn action.
func NewAddColumn(table string, col *Column) *AddColumn {
	return &AddColumn{tableRef: tableRef{TableName: table}, Column: col}
}

func (a *AddColumn) Kind() Kind { return KindAddColumn }

func (a *AddColumn) Validate() error {
	if a.TableName == "" {
		return amerr.New(amerr.ErrSchemaInvalid, "table name is required for add column")
	}
	if a.Column == nil {
		return amerr.New(amerr.ErrSchemaInvalid, "column definition is required").
			WithTable(a.TableName)
	}
	if err := a.Column.Validate(); err != nil {
		return amerr.Wrap(amerr.ErrSchemaInvalid, err, "invalid column").
			WithTable(a.TableName).
			WithColumn(a.Column.Name)
	}
	return nil
}

// -----------------------------------------------------------------------------
// RemoveColumn
// -----------------------------------------------------------------------------

// RemoveColumn removes a column from an existing table.
type RemoveColumn struct {
	tableRef
	Name string
}

// NewRemoveColumn constructs a RemoveColumn action.
func NewRemoveColumn(table, column string) *RemoveColumn {
	return &RemoveColumn{tableRef: tableRef{TableName: table}, Name: column}
}

func (a *RemoveColumn) Kind() Kind { return KindRemoveColumn }

func (a *RemoveColumn) Validate() error {
	if a.TableName == "" {
		return amerr.New(amerr.ErrSchemaInvalid, "table name is required for remove column")
	}
	if a.Name == "" {
		return amerr.New(amerr.ErrSchemaInvalid, "column name is required for remove column").
			WithTable(a.TableName)
	}
	return nil
}

// -----------------------------------------------------------------------------
// RenameColumn
// -----------------------------------------------------------------------------

// RenameColumn changes a column's name, leaving its definition untouched.
type RenameColumn struct {
	tableRef
	OldName string
	NewName string
}

// NewRenameColumn constructs a RenameColumn action.
func NewRenameColumn(table, oldName, newName string) *RenameColumn {
	return &RenameColumn{tableRef: tableRef{TableName: table}, OldName: oldName, NewName: newName}
}

func (a *RenameColumn) Kind() Kind { return KindRenameColumn }

func (a *RenameColumn) Validate() error {
	if a.TableName == "" {
		return amerr.New(amerr.ErrSchemaInvalid, "table name is required for rename column")
	}
	if a.OldName == "" {
		return amerr.New(amerr.ErrSchemaInvalid, "old column name is required for rename").
			WithTable(a.TableName)
	}
	if a.NewName == "" {
		return amerr.New(amerr.ErrSchemaInvalid, "new column name is required for rename").
			WithTable(a.TableName)
	}
	if a.OldName == a.NewName {
		return amerr.New(amerr.ErrSchemaInvalid, "old and new column names must be different").
			WithTable(a.TableName).
			WithColumn(a.OldName)
	}
	return nil
}

// -----------------------------------------------------------------------------
// ChangeColumn
// -----------------------------------------------------------------------------

// ChangeColumn replaces the definition of an existing column. Name holds the
// current column name; Column carries the full replacement definition and may
// rename the column.
type ChangeColumn struct {
	tableRef
	Name   string
	Column *Column
}

// NewChangeColumn constructs a ChangeColumn action.
func NewChangeColumn(table, column string, def *Column) *ChangeColumn {
	return &ChangeColumn{tableRef: tableRef{TableName: table}, Name: column, Column: def}
}

func (a *ChangeColumn) Kind() Kind { return KindChangeColumn }

func (a *ChangeColumn) Validate() error {
	if a.TableName == "" {
		return amerr.New(amerr.ErrSchemaInvalid, "table name is required for change column")
	}
	if a.Name == "" {
		return amerr.New(amerr.ErrSchemaInvalid, "column name is required for change column").
			WithTable(a.TableName)
	}
	if a.Column == nil {
		return amerr.New(amerr.ErrSchemaInvalid, "column definition is required").
			WithTable(a.TableName).
			WithColumn(a.Name)
	}
	if err := a.Column.Validate(); err != nil {
		return amerr.Wrap(amerr.ErrSchemaInvalid, err, "invalid column").
			WithTable(a.TableName).
			WithColumn(a.Name)
	}
	return nil
}

// -----------------------------------------------------------------------------
// AddIndex
// -----------------------------------------------------------------------------

// AddIndex creates a new index on an existing table.
type AddIndex struct {
	tableRef
	Index *Index
}

// NewAddIndex constructs an AddIndex action.
func NewAddIndex(table string, idx *Index) *AddIndex {
	return &AddIndex{tableRef: tableRef{TableName: table}, Index: idx}
}

func (a *AddIndex) Kind() Kind { return KindAddIndex }

func (a *AddIndex) Validate() error {
	if a.TableName == "" {
		return amerr.New(amerr.ErrSchemaInvalid, "table name is required for add index")
	}
	if a.Index == nil {
		return amerr.New(amerr.ErrSchemaInvalid, "index definition is required").
			WithTable(a.TableName)
	}
	if err := a.Index.Validate(); err != nil {
		return amerr.Wrap(amerr.ErrSchemaInvalid, err, "invalid index").
			WithTable(a.TableName)
	}
	return nil
}

// -----------------------------------------------------------------------------
// DropIndex
// -----------------------------------------------------------------------------

// DropIndex removes an index, addressed either by its full column set or by
// explicit name. A composite index is never matched by a subset of its columns.
type DropIndex struct {
	tableRef
	Columns []string
	Name    string
}

// NewDropIndex constructs a DropIndex addressed by column set.
func NewDropIndex(table string, columns []string) *DropIndex {
	return &DropIndex{tableRef: tableRef{TableName: table}, Columns: columns}
}

// NewDropIndexByName constructs a DropIndex addressed by name.
func NewDropIndexByName(table, name string) *DropIndex {
	return &DropIndex{tableRef: tableRef{TableName: table}, Name: name}
}

func (a *DropIndex) Kind() Kind { return KindDropIndex }

func (a *DropIndex) Validate() error {
	if a.TableName == "" {
		return amerr.New(amerr.ErrSchemaInvalid, "table name is required for drop index")
	}
	if len(a.Columns) == 0 && a.Name == "" {
		return amerr.New(amerr.ErrSchemaInvalid, "drop index requires columns or a name").
			WithTable(a.TableName)
	}
	return nil
}

// -----------------------------------------------------------------------------
// AddForeignKey
// -----------------------------------------------------------------------------

// AddForeignKey adds a foreign key constraint.
type AddForeignKey struct {
	tableRef
	ForeignKey *ForeignKey
}

// NewAddForeignKey constructs an AddForeignKey action.
func NewAddForeignKey(table string, fk *ForeignKey) *AddForeignKey {
	return &AddForeignKey{tableRef: tableRef{TableName: table}, ForeignKey: fk}
}

func (a *AddForeignKey) Kind() Kind { return KindAddForeignKey }

func (a *AddForeignKey) Validate() error {
	if a.TableName == "" {
		return amerr.New(amerr.ErrSchemaInvalid, "table name is required for add foreign key")
	}
	if a.ForeignKey == nil {
		return amerr.New(amerr.ErrSchemaInvalid, "foreign key definition is required").
			WithTable(a.TableName)
	}
	if err := a.ForeignKey.Validate(); err != nil {
		return amerr.Wrap(amerr.ErrSchemaInvalid, err, "invalid foreign key").
			WithTable(a.TableName)
	}
	return nil
}

// -----------------------------------------------------------------------------
// DropForeignKey
// -----------------------------------------------------------------------------

// DropForeignKey removes a foreign key constraint, addressed by local column
// set or explicit constraint name.
type DropForeignKey struct {
	tableRef
	Columns    []string
	Constraint string
}

// NewDropForeignKey constructs a DropForeignKey addressed by column set.
func NewDropForeignKey(table string, columns []string) *DropForeignKey {
	return &DropForeignKey{tableRef: tableRef{TableName: table}, Columns: columns}
}

// NewDropForeignKeyByName constructs a DropForeignKey addressed by name.
func NewDropForeignKeyByName(table, constraint string) *DropForeignKey {
	return &DropForeignKey{tableRef: tableRef{TableName: table}, Constraint: constraint}
}

func (a *DropForeignKey) Kind() Kind { return KindDropForeignKey }

func (a *DropForeignKey) Validate() error {
	if a.TableName == "" {
		return amerr.New(amerr.ErrSchemaInvalid, "table name is required for drop foreign key")
	}
	if len(a.Columns) == 0 && a.Constraint == "" {
		return amerr.New(amerr.ErrSchemaInvalid, "drop foreign key requires columns or a constraint name").
			WithTable(a.TableName)
	}
	return nil
}

// -----------------------------------------------------------------------------
// ChangePrimaryKey
// -----------------------------------------------------------------------------

// ChangePrimaryKey replaces the table's primary key with the given columns.
// An empty column list drops the primary key.
type ChangePrimaryKey struct {
	tableRef
	Columns []string
}

// NewChangePrimaryKey constructs a ChangePrimaryKey action.
func NewChangePrimaryKey(table string, columns []string) *ChangePrimaryKey {
	return &ChangePrimaryKey{tableRef: tableRef{TableName: table}, Columns: columns}
}

func (a *ChangePrimaryKey) Kind() Kind { return KindChangePrimaryKey }

func (a *ChangePrimaryKey) Validate() error {
	if a.TableName == "" {
		return amerr.New(amerr.ErrSchemaInvalid, "table name is required for change primary key")
	}
	return nil
}

// -----------------------------------------------------------------------------
// ChangeComment
// -----------------------------------------------------------------------------

// ChangeComment replaces the table comment. A nil Comment removes it.
type ChangeComment struct {
	tableRef
	Comment *string
}

// NewChangeComment constructs a ChangeComment action.
func NewChangeComment(table string, comment *string) *ChangeComment {
	return &ChangeComment{tableRef: tableRef{TableName: table}, Comment: comment}
}

func (a *ChangeComment) Kind() Kind { return KindChangeComment }

func (a *ChangeComment) Validate() error {
	if a.TableName == "" {
		return amerr.New(amerr.ErrSchemaInvalid, "table name is required for change comment")
	}
	return nil
}
