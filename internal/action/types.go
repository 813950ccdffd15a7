// Package action defines the value objects for schema mutations.
// Every schema change — from a migration script or a synthesized plan —
// is expressed as an immutable Action before being rendered to SQL.
package action

// Kind identifies the variant of a schema mutation.
type Kind int

const (
	// KindCreateTable creates a new table with columns, indexes, and constraints.
	KindCreateTable Kind = iota

	// KindDropTable removes an existing table.
	KindDropTable

	// KindRenameTable changes a table's name.
	KindRenameTable

	// KindAddColumn adds a new column to an existing table.
	KindAddColumn

	// KindRemoveColumn removes a column from an existing table.
	KindRemoveColumn

	// KindRenameColumn changes a column's name.
	KindRenameColumn

	// KindChangeColumn replaces a column's definition.
	KindChangeColumn

	// KindAddIndex creates a new index on one or more columns.
	KindAddIndex

	// KindDropIndex removes an existing index.
	KindDropIndex

	// KindAddForeignKey adds a foreign key constraint.
	KindAddForeignKey

	// KindDropForeignKey removes a foreign key constraint.
	KindDropForeignKey

	// KindChangePrimaryKey replaces or drops the table's primary key.
	KindChangePrimaryKey

	// KindChangeComment replaces or drops the table's comment.
	KindChangeComment
)

// String returns the string representation of a Kind.
func (k Kind) String() string {
	switch k {
	case KindCreateTable:
		return "CreateTable"
	case KindDropTable:
		return "DropTable"
	case KindRenameTable:
		return "RenameTable"
	case KindAddColumn:
		return "AddColumn"
	case KindRemoveColumn:
		return "RemoveColumn"
	case KindRenameColumn:
		return "RenameColumn"
	case KindChangeColumn:
		return "ChangeColumn"
	case KindAddIndex:
		return "AddIndex"
	case KindDropIndex:
		return "DropIndex"
	case KindAddForeignKey:
		return "AddForeignKey"
	case KindDropForeignKey:
		return "DropForeignKey"
	case KindChangePrimaryKey:
		return "ChangePrimaryKey"
	case KindChangeComment:
		return "ChangeComment"
	default:
		return "Unknown"
	}
}
