package action

import (
	"testing"

	"github.com/lmari-ekan/alpha-migrations/internal/amerr"
)

// -----------------------------------------------------------------------------
// CreateTable Validation
// -----------------------------------------------------------------------------

func TestCreateTableValidate(t *testing.T) {
	tests := []struct {
		name     string
		act      *CreateTable
		wantCode amerr.Code
	}{
		{
			name: "valid table",
			act: &CreateTable{
				Name: "users",
				Columns: []*Column{
					NewColumn("name", TypeString),
				},
			},
		},
		{
			name:     "missing name",
			act:      &CreateTable{Columns: []*Column{NewColumn("name", TypeString)}},
			wantCode: amerr.ErrSchemaInvalid,
		},
		{
			name:     "no columns",
			act:      &CreateTable{Name: "users"},
			wantCode: amerr.ErrSchemaInvalid,
		},
		{
			name: "duplicate column",
			act: &CreateTable{
				Name: "users",
				Columns: []*Column{
					NewColumn("name", TypeString),
					NewColumn("name", TypeText),
				},
			},
			wantCode: amerr.ErrSchemaInvalid,
		},
		{
			name: "explicit primary key conflicts with named id column",
			act: &CreateTable{
				Name: "users",
				Options: TableOptions{
					ID:         "user_id",
					PrimaryKey: []string{"email"},
				},
				Columns: []*Column{NewColumn("email", TypeString)},
			},
			wantCode: amerr.ErrPrimaryKeyClash,
		},
		{
			name: "invalid embedded index",
			act: &CreateTable{
				Name:    "users",
				Columns: []*Column{NewColumn("name", TypeString)},
				Indexes: []*Index{{}},
			},
			wantCode: amerr.ErrSchemaInvalid,
		},
		{
			name: "invalid embedded foreign key",
			act: &CreateTable{
				Name:        "users",
				Columns:     []*Column{NewColumn("org_id", TypeInteger)},
				ForeignKeys: []*ForeignKey{{Columns: []string{"org_id"}}},
			},
			wantCode: amerr.ErrSchemaInvalid,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.act.Validate()
			if tt.wantCode == "" {
				if err != nil {
					t.Fatalf("Validate() = %v, want nil", err)
				}
				return
			}
			if !amerr.Is(err, tt.wantCode) {
				t.Fatalf("Validate() = %v, want code %s", err, tt.wantCode)
			}
		})
	}
}

// -----------------------------------------------------------------------------
// Alteration Actions
// -----------------------------------------------------------------------------

func TestRenameValidation(t *testing.T) {
	tests := []struct {
		name    string
		act     Action
		wantErr bool
	}{
		{"rename table ok", &RenameTable{Name: "old", NewName: "new"}, false},
		{"rename table same name", &RenameTable{Name: "t", NewName: "t"}, true},
		{"rename table missing new", &RenameTable{Name: "t"}, true},
		{"rename column ok", NewRenameColumn("users", "email", "contact"), false},
		{"rename column same name", NewRenameColumn("users", "email", "email"), true},
		{"rename column missing table", NewRenameColumn("", "a", "b"), true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.act.Validate()
			if (err != nil) != tt.wantErr {
				t.Fatalf("Validate() = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestDropValidation(t *testing.T) {
	tests := []struct {
		name    string
		act     Action
		wantErr bool
	}{
		{"drop index by columns", NewDropIndex("users", []string{"email"}), false},
		{"drop index by name", NewDropIndexByName("users", "idx_users_email"), false},
		{"drop index no address", &DropIndex{tableRef: tableRef{TableName: "users"}}, true},
		{"drop foreign key by columns", NewDropForeignKey("orders", []string{"user_id"}), false},
		{"drop foreign key no address", &DropForeignKey{tableRef: tableRef{TableName: "orders"}}, true},
		{"drop table", &DropTable{Name: "users"}, false},
		{"drop table no name", &DropTable{}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.act.Validate()
			if (err != nil) != tt.wantErr {
				t.Fatalf("Validate() = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestKindString(t *testing.T) {
	if got := KindCreateTable.String(); got != "CreateTable" {
		t.Errorf("KindCreateTable.String() = %q", got)
	}
	if got := KindChangePrimaryKey.String(); got != "ChangePrimaryKey" {
		t.Errorf("KindChangePrimaryKey.String() = %q", got)
	}
	if got := Kind(99).String(); got != "Unknown" {
		t.Errorf("Kind(99).String() = %q", got)
	}
}
