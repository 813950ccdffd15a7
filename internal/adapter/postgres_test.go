package adapter

import (
	"reflect"
	"testing"

	"github.com/lmari-ekan/alpha-migrations/internal/action"
	"github.com/lmari-ekan/alpha-migrations/internal/amerr"
)

func TestPostgresTypeFor(t *testing.T) {
	d := &postgresDialect{}
	tests := []struct {
		name  string
		typ   action.ColumnType
		limit int
		want  SQLType
	}{
		{"string default", action.TypeString, 0, SQLType{Name: "VARCHAR", Limit: 255}},
		{"text has no tiers", action.TypeText, 100000, SQLType{Name: "TEXT"}},
		{"double", action.TypeDouble, 0, SQLType{Name: "DOUBLE PRECISION"}},
		{"every blob shape is bytea", action.TypeMediumBlob, 0, SQLType{Name: "BYTEA"}},
		{"json is jsonb", action.TypeJSON, 0, SQLType{Name: "JSONB"}},
		{"binary uuid is native uuid", action.TypeBinaryUUID, 0, SQLType{Name: "UUID"}},
		{"enum emulated as varchar", action.TypeEnum, 0, SQLType{Name: "VARCHAR", Limit: 255}},
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

func TestPostgresUnsupportedTypes(t *testing.T) {
	d := &postgresDialect{}
	for _, typ := range []action.ColumnType{
		action.TypeSet, action.TypeYear, action.TypeGeometry, action.TypePoint,
	} {
		if d.supportsType(typ) {
			t.Errorf("supportsType(%s) = true, want false", typ)
		}
	}
}

func TestPostgresCreateTable(t *testing.T) {
	d := &postgresDialect{}
	create := &action.CreateTable{
		Name: "users",
		Columns: []*action.Column{
			{Name: "id", Type: action.TypeInteger, Identity: true},
			action.NewColumn("name", action.TypeString).SetComment("display name"),
		},
	}

	stmts, err := d.actionSQL(create)
	if err != nil {
		t.Fatalf("actionSQL() = %v", err)
	}
	want := []string{
		`CREATE TABLE "users" ("id" INTEGER GENERATED BY DEFAULT AS IDENTITY NOT NULL, "name" VARCHAR(255) NOT NULL, PRIMARY KEY ("id"))`,
		`COMMENT ON COLUMN "users"."name" IS 'display name'`,
	}
	if !reflect.DeepEqual(stmts, want) {
		t.Errorf("statements = %q, want %q", stmts, want)
	}
}

func TestPostgresEnumCheckConstraint(t *testing.T) {
	d := &postgresDialect{}
	col := &action.Column{Name: "state", Type: action.TypeEnum, Values: []string{"new", "done"}}
	got, err := d.columnSQL(col, "jobs")
	if err != nil {
		t.Fatalf("columnSQL() = %v", err)
	}
	want := `"state" VARCHAR(255) NOT NULL CHECK ("state" IN ('new', 'done'))`
	if got != want {
		t.Errorf("columnSQL() = %q, want %q", got, want)
	}
}

func TestPostgresChangeColumn(t *testing.T) {
	d := &postgresDialect{}
	stmts, err := d.actionSQL(action.NewChangeColumn("users", "email",
		action.NewColumn("contact", action.TypeText).SetNull(true)))
	if err != nil {
		t.Fatalf("actionSQL() = %v", err)
	}
	want := []string{
		`ALTER TABLE "users" ALTER COLUMN "email" TYPE TEXT`,
		`ALTER TABLE "users" ALTER COLUMN "email" DROP NOT NULL`,
		`ALTER TABLE "users" ALTER COLUMN "email" DROP DEFAULT`,
		`ALTER TABLE "users" RENAME COLUMN "email" TO "contact"`,
	}
	if !reflect.DeepEqual(stmts, want) {
		t.Errorf("statements = %q, want %q", stmts, want)
	}
}

func TestPostgresChangePrimaryKey(t *testing.T) {
	d := &postgresDialect{}
	stmts, err := d.actionSQL(action.NewChangePrimaryKey("t", []string{"a"}))
	if err != nil {
		t.Fatalf("actionSQL() = %v", err)
	}
	want := []string{
		`ALTER TABLE "t" DROP CONSTRAINT "t_pkey"`,
		`ALTER TABLE "t" ADD PRIMARY KEY ("a")`,
	}
	if !reflect.DeepEqual(stmts, want) {
		t.Errorf("statements = %q, want %q", stmts, want)
	}

	dropOnly, err := d.actionSQL(action.NewChangePrimaryKey("t", nil))
	if err != nil {
		t.Fatalf("actionSQL() = %v", err)
	}
	if len(dropOnly) != 1 {
		t.Errorf("empty column list should only drop the constraint, got %q", dropOnly)
	}
}

func TestPostgresMiscStatements(t *testing.T) {
	d := &postgresDialect{}
	tests := []struct {
		name string
		act  action.Action
		want string
	}{
		{
			name: "drop index is schema scoped",
			act:  action.NewDropIndexByName("users", "idx_users_email"),
			want: `DROP INDEX "idx_users_email"`,
		},
		{
			name: "drop foreign key via constraint",
			act:  action.NewDropForeignKeyByName("orders", "orders_user_id_fk"),
			want: `ALTER TABLE "orders" DROP CONSTRAINT "orders_user_id_fk"`,
		},
		{
			name: "remove table comment",
			act:  action.NewChangeComment("t", nil),
			want: `COMMENT ON TABLE "t" IS NULL`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := renderOne(t, d, tt.act); got != tt.want {
				t.Errorf("actionSQL() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestPostgresRejectsFulltextIndex(t *testing.T) {
	d := &postgresDialect{}
	_, err := d.actionSQL(action.NewAddIndex("posts", &action.Index{
		Columns: []string{"body"},
		Kind:    action.IndexFulltext,
	}))
	if !amerr.Is(err, amerr.ErrSQLExecution) {
		t.Fatalf("actionSQL() = %v, want code %s", err, amerr.ErrSQLExecution)
	}
}

func TestPostgresTruncateRestartsIdentity(t *testing.T) {
	d := &postgresDialect{}
	if got := d.truncateSQL("users"); got != `TRUNCATE TABLE "users" RESTART IDENTITY` {
		t.Errorf("truncateSQL() = %q", got)
	}
}
