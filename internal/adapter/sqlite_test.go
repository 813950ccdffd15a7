package adapter

import (
	"reflect"
	"testing"

	"github.com/lmari-ekan/alpha-migrations/internal/action"
	"github.com/lmari-ekan/alpha-migrations/internal/amerr"
)

func TestSQLiteTypeFor(t *testing.T) {
	d := &sqliteDialect{}
	tests := []struct {
		name  string
		typ   action.ColumnType
		limit int
		want  SQLType
	}{
		{"string default", action.TypeString, 0, SQLType{Name: "VARCHAR", Limit: 255}},
		{"json stored as text", action.TypeJSON, 0, SQLType{Name: "TEXT"}},
		{"every blob shape", action.TypeLongBlob, 0, SQLType{Name: "BLOB"}},
		{"binary uuid is a blob", action.TypeBinaryUUID, 0, SQLType{Name: "BLOB"}},
		{"uuid as fixed char", action.TypeUUID, 0, SQLType{Name: "CHAR", Limit: 36}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := d.typeFor(tt.typ, tt.limit)
			if err != nil {
				t.Fatalf("typeFor() = %v", err)
			}
			if got != tt.want {
				t.Errorf("typeFor(%s, %d) = %+v, want %+v", tt.typ, tt.limit, got, tt.want)
			}
		})
	}
}

func TestSQLiteCreateTableInlinesPrimaryKey(t *testing.T) {
	d := &sqliteDialect{}
	create := &action.CreateTable{
		Name: "users",
		Columns: []*action.Column{
			{Name: "id", Type: action.TypeInteger, Identity: true},
			action.NewColumn("name", action.TypeString),
		},
	}

	stmts, err := d.actionSQL(create)
	if err != nil {
		t.Fatalf("actionSQL() = %v", err)
	}
	want := []string{
		`CREATE TABLE "users" ("id" INTEGER PRIMARY KEY AUTOINCREMENT, "name" VARCHAR(255) NOT NULL)`,
	}
	if !reflect.DeepEqual(stmts, want) {
		t.Errorf("statements = %q, want %q", stmts, want)
	}
}

func TestSQLiteExplicitPrimaryKeyStaysTrailing(t *testing.T) {
	d := &sqliteDialect{}
	create := &action.CreateTable{
		Name:    "events",
		Options: action.TableOptions{DisableID: true, PrimaryKey: []string{"source", "seq"}},
		Columns: []*action.Column{
			action.NewColumn("source", action.TypeString),
			action.NewColumn("seq", action.TypeBigInteger),
		},
	}

	stmts, err := d.actionSQL(create)
	if err != nil {
		t.Fatalf("actionSQL() = %v", err)
	}
	want := `CREATE TABLE "events" ("source" VARCHAR(255) NOT NULL, "seq" BIGINT NOT NULL, PRIMARY KEY ("source", "seq"))`
	if stmts[0] != want {
		t.Errorf("statement = %q, want %q", stmts[0], want)
	}
}

func TestSQLiteBooleanDefaultsRenderNumeric(t *testing.T) {
	d := &sqliteDialect{}
	got, err := d.columnSQL(action.NewColumn("active", action.TypeBoolean).SetDefault(true), "t")
	if err != nil {
		t.Fatalf("columnSQL() = %v", err)
	}
	if want := `"active" BOOLEAN NOT NULL DEFAULT 1`; got != want {
		t.Errorf("columnSQL() = %q, want %q", got, want)
	}
}

func TestSQLiteRejectsInPlaceAlterations(t *testing.T) {
	d := &sqliteDialect{}
	acts := []action.Action{
		action.NewChangeColumn("users", "email", action.NewColumn("email", action.TypeText)),
		action.NewChangePrimaryKey("users", []string{"email"}),
		action.NewChangeComment("users", nil),
		action.NewAddForeignKey("orders", &action.ForeignKey{
			Columns: []string{"user_id"}, RefTable: "users", RefColumns: []string{"id"},
		}),
		action.NewDropForeignKeyByName("orders", "fk_0"),
	}
	for _, act := range acts {
		if _, err := d.actionSQL(act); !amerr.Is(err, amerr.ErrSQLExecution) {
			t.Errorf("actionSQL(%s) = %v, want code %s", act.Kind(), err, amerr.ErrSQLExecution)
		}
	}
}

func TestSQLiteTruncateIsDelete(t *testing.T) {
	d := &sqliteDialect{}
	if got := d.truncateSQL("users"); got != `DELETE FROM "users"` {
		t.Errorf("truncateSQL() = %q", got)
	}
}

func TestSplitDeclaredType(t *testing.T) {
	tests := []struct {
		in        string
		wantBase  string
		wantLimit int
	}{
		{"VARCHAR(255)", "VARCHAR", 255},
		{"varchar(40)", "VARCHAR", 40},
		{"TEXT", "TEXT", 0},
		{"DECIMAL(10,2)", "DECIMAL", 10},
		{"BLOB(", "BLOB", 0},
	}
	for _, tt := range tests {
		base, limit := splitDeclaredType(tt.in)
		if base != tt.wantBase || limit != tt.wantLimit {
			t.Errorf("splitDeclaredType(%q) = (%q, %d), want (%q, %d)",
				tt.in, base, limit, tt.wantBase, tt.wantLimit)
		}
	}
}
