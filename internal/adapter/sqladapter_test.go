package adapter

import (
	"bytes"
	"context"
	"strings"
	"testing"

	"github.com/lmari-ekan/alpha-migrations/internal/action"
	"github.com/lmari-ekan/alpha-migrations/internal/amerr"
)

// -----------------------------------------------------------------------------
// Open
// -----------------------------------------------------------------------------

func TestOpen(t *testing.T) {
	tests := []struct {
		name     string
		adapter  string
		dsn      string
		wantName string
		wantCode amerr.Code
	}{
		{"mysql", "mysql", "root@tcp(localhost:3306)/app", "mysql", ""},
		{"postgres alias", "postgresql", "postgres://localhost/app", "postgres", ""},
		{"sqlite alias", "sqlite3", "app.sqlite3", "sqlite", ""},
		{"mssql alias", "mssql", "sqlserver://localhost?database=app", "sqlserver", ""},
		{"unsupported dialect", "oracle", "x", "", amerr.ErrConfigInvalid},
		{"missing dsn", "mysql", "", "", amerr.ErrConfigMissing},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ad, err := Open(tt.adapter, tt.dsn)
			if tt.wantCode != "" {
				if !amerr.Is(err, tt.wantCode) {
					t.Fatalf("Open() = %v, want code %s", err, tt.wantCode)
				}
				return
			}
			if err != nil {
				t.Fatalf("Open() = %v", err)
			}
			if ad.Name() != tt.wantName {
				t.Errorf("Name() = %q, want %q", ad.Name(), tt.wantName)
			}
		})
	}
}

// -----------------------------------------------------------------------------
// Size Tiers
// -----------------------------------------------------------------------------

func TestPickTier(t *testing.T) {
	tiers := []sizeTier{{"SMALL", 10}, {"BIG", 100}}
	tests := []struct {
		name  string
		limit int
		want  string
	}{
		{"zero selects default", 0, "BIG"},
		{"fits smallest", 5, "SMALL"},
		{"boundary stays", 10, "SMALL"},
		{"promotes", 11, "BIG"},
		{"beyond largest clamps", 1000, "BIG"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := pickTier(tiers, tt.limit, 1); got.Name != tt.want {
				t.Errorf("pickTier(%d) = %q, want %q", tt.limit, got.Name, tt.want)
			}
		})
	}
}

// -----------------------------------------------------------------------------
// Dry Run
// -----------------------------------------------------------------------------

func dryAdapter(d dialect) (*sqlAdapter, *bytes.Buffer) {
	a := &sqlAdapter{dialect: d, dsn: "unused"}
	var buf bytes.Buffer
	a.SetDryRun(&buf)
	return a, &buf
}

func TestDryRunTranscript(t *testing.T) {
	a, buf := dryAdapter(newMySQL())
	ctx := context.Background()

	if err := a.Begin(ctx); err != nil {
		t.Fatalf("Begin() = %v", err)
	}
	create := &action.CreateTable{
		Name:    "users",
		Columns: []*action.Column{action.NewColumn("name", action.TypeString)},
	}
	if err := a.Execute(ctx, create); err != nil {
		t.Fatalf("Execute() = %v", err)
	}
	if err := a.Insert(ctx, "users", []string{"name"}, []any{"alice"}, false); err != nil {
		t.Fatalf("Insert() = %v", err)
	}
	if err := a.Exec(ctx, "UPDATE `users` SET `name` = 'bob'"); err != nil {
		t.Fatalf("Exec() = %v", err)
	}
	if err := a.Commit(); err != nil {
		t.Fatalf("Commit() = %v", err)
	}

	want := "START TRANSACTION;\n" +
		"CREATE TABLE `users` (`name` VARCHAR(255) NOT NULL);\n" +
		"INSERT INTO `users` (`name`) VALUES ('alice');\n" +
		"UPDATE `users` SET `name` = 'bob';\n" +
		"COMMIT;\n"
	if buf.String() != want {
		t.Errorf("transcript = %q, want %q", buf.String(), want)
	}
}

func TestDryRunResolvesDropNamesDeterministically(t *testing.T) {
	a, buf := dryAdapter(newMySQL())
	ctx := context.Background()

	if err := a.Execute(ctx, action.NewDropIndex("users", []string{"email"})); err != nil {
		t.Fatalf("Execute() = %v", err)
	}
	if err := a.Execute(ctx, action.NewDropForeignKey("orders", []string{"user_id"})); err != nil {
		t.Fatalf("Execute() = %v", err)
	}

	out := buf.String()
	if !strings.Contains(out, "DROP INDEX `idx_users_email`") {
		t.Errorf("transcript missing deterministic index name: %q", out)
	}
	if !strings.Contains(out, "DROP FOREIGN KEY `orders_user_id_fk`") {
		t.Errorf("transcript missing deterministic constraint name: %q", out)
	}
}

func TestDryRunInsertIgnoreForms(t *testing.T) {
	tests := []struct {
		name string
		d    dialect
		want string
	}{
		{"mysql prefix", newMySQL(), "INSERT IGNORE INTO `t` (`a`) VALUES (1);\n"},
		{"sqlite prefix", newSQLite(), "INSERT OR IGNORE INTO \"t\" (\"a\") VALUES (1);\n"},
		{"postgres suffix", newPostgres(), "INSERT INTO \"t\" (\"a\") VALUES (1) ON CONFLICT DO NOTHING;\n"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			a, buf := dryAdapter(tt.d)
			if err := a.Insert(context.Background(), "t", []string{"a"}, []any{1}, true); err != nil {
				t.Fatalf("Insert() = %v", err)
			}
			if buf.String() != tt.want {
				t.Errorf("transcript = %q, want %q", buf.String(), tt.want)
			}
		})
	}
}

func TestDryRunBulkInsertRendersAllRows(t *testing.T) {
	a, buf := dryAdapter(newSQLite())
	rows := [][]any{{1, "a"}, {2, "b"}}
	if err := a.BulkInsert(context.Background(), "t", []string{"id", "name"}, rows, false); err != nil {
		t.Fatalf("BulkInsert() = %v", err)
	}
	want := "INSERT INTO \"t\" (\"id\", \"name\") VALUES (1, 'a'), (2, 'b');\n"
	if buf.String() != want {
		t.Errorf("transcript = %q, want %q", buf.String(), want)
	}
}

func TestBulkInsertRejectsRaggedRows(t *testing.T) {
	a, _ := dryAdapter(newMySQL())
	rows := [][]any{{1, "a"}, {2}}
	err := a.BulkInsert(context.Background(), "t", []string{"id", "name"}, rows, false)
	if !amerr.Is(err, amerr.ErrSchemaInvalid) {
		t.Fatalf("BulkInsert() = %v, want code %s", err, amerr.ErrSchemaInvalid)
	}
}

func TestDryRunIntrospectionReportsAbsence(t *testing.T) {
	a, _ := dryAdapter(newPostgres())
	ctx := context.Background()

	if got, err := a.HasTable(ctx, "users"); err != nil || got {
		t.Errorf("HasTable() = (%v, %v), want absent without touching a connection", got, err)
	}
	if got, err := a.HasIndex(ctx, "users", []string{"email"}); err != nil || got {
		t.Errorf("HasIndex() = (%v, %v), want absent", got, err)
	}
	cols, err := a.GetColumns(ctx, "users")
	if err != nil || cols != nil {
		t.Errorf("GetColumns() = (%v, %v), want empty", cols, err)
	}
}

func TestDryRunTruncate(t *testing.T) {
	a, buf := dryAdapter(newSQLite())
	if err := a.Truncate(context.Background(), "users"); err != nil {
		t.Fatalf("Truncate() = %v", err)
	}
	if want := "DELETE FROM \"users\";\n"; buf.String() != want {
		t.Errorf("transcript = %q, want %q", buf.String(), want)
	}
}

func TestDryRunRollback(t *testing.T) {
	a, buf := dryAdapter(newMySQL())
	if err := a.Begin(context.Background()); err != nil {
		t.Fatalf("Begin() = %v", err)
	}
	if err := a.Rollback(); err != nil {
		t.Fatalf("Rollback() = %v", err)
	}
	if want := "START TRANSACTION;\nROLLBACK;\n"; buf.String() != want {
		t.Errorf("transcript = %q, want %q", buf.String(), want)
	}
}

// -----------------------------------------------------------------------------
// Transaction Guards
// -----------------------------------------------------------------------------

func TestCommitWithoutTransaction(t *testing.T) {
	a := &sqlAdapter{dialect: newSQLite(), dsn: "app.sqlite3"}
	if err := a.Commit(); !amerr.Is(err, amerr.ErrSQLTransaction) {
		t.Errorf("Commit() = %v, want code %s", err, amerr.ErrSQLTransaction)
	}
	if err := a.Rollback(); !amerr.Is(err, amerr.ErrSQLTransaction) {
		t.Errorf("Rollback() = %v, want code %s", err, amerr.ErrSQLTransaction)
	}
}

func TestGetSQLTypeRejectsUnsupported(t *testing.T) {
	a := &sqlAdapter{dialect: newSQLite(), dsn: "app.sqlite3"}
	if _, err := a.GetSQLType(action.TypeEnum, 0); !amerr.Is(err, amerr.ErrInvalidType) {
		t.Errorf("GetSQLType() = %v, want code %s", err, amerr.ErrInvalidType)
	}
}

func TestCloseIsIdempotent(t *testing.T) {
	a := &sqlAdapter{dialect: newSQLite(), dsn: "app.sqlite3"}
	if err := a.Close(); err != nil {
		t.Fatalf("Close() = %v", err)
	}
	if err := a.Close(); err != nil {
		t.Fatalf("second Close() = %v", err)
	}
}
