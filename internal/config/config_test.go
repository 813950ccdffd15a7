package config

import (
	"testing"

	"github.com/lmari-ekan/alpha-migrations/internal/amerr"
)

const sampleConfig = `
paths:
  migrations: db/migrations
default_environment: development
default_migration_table: schema_versions
environments:
  development:
    adapter: sqlite
    name: dev.sqlite3
  production:
    adapter: postgres
    host: db.internal
    port: 6432
    name: app
    user: app
    pass: hunter2
`

func TestParse(t *testing.T) {
	cfg, err := Parse([]byte(sampleConfig), "alpha.yml")
	if err != nil {
		t.Fatalf("Parse() = %v", err)
	}
	if cfg.DefaultEnv != "development" {
		t.Errorf("DefaultEnv = %q", cfg.DefaultEnv)
	}
	if cfg.LedgerTable != "schema_versions" {
		t.Errorf("LedgerTable = %q", cfg.LedgerTable)
	}
	if len(cfg.Environments) != 2 {
		t.Errorf("environments = %d, want 2", len(cfg.Environments))
	}
	if cfg.MigrationsDir() != "db/migrations" {
		t.Errorf("MigrationsDir() = %q", cfg.MigrationsDir())
	}
}

func TestParseRejectsUnknownKeys(t *testing.T) {
	in := `
environments:
  development:
    adapter: sqlite
    name: dev.sqlite3
    migations_path: typo
`
	_, err := Parse([]byte(in), "alpha.yml")
	if !amerr.Is(err, amerr.ErrConfigUnknownKey) {
		t.Fatalf("Parse() = %v, want code %s", err, amerr.ErrConfigUnknownKey)
	}
}

func TestParseValidation(t *testing.T) {
	tests := []struct {
		name     string
		in       string
		wantCode amerr.Code
	}{
		{
			name:     "no environments",
			in:       "paths:\n  migrations: db/migrations\n",
			wantCode: amerr.ErrConfigMissing,
		},
		{
			name: "undeclared default environment",
			in: `
default_environment: staging
environments:
  development:
    adapter: sqlite
    name: dev.sqlite3
`,
			wantCode: amerr.ErrConfigInvalid,
		},
		{
			name: "environment without adapter",
			in: `
environments:
  development:
    name: dev.sqlite3
`,
			wantCode: amerr.ErrConfigMissing,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Parse([]byte(tt.in), "alpha.yml")
			if !amerr.Is(err, tt.wantCode) {
				t.Fatalf("Parse() = %v, want code %s", err, tt.wantCode)
			}
		})
	}
}

func TestParseExpandsEnvironmentVariables(t *testing.T) {
	t.Setenv("ALPHA_TEST_DB_PASS", "s3cret")
	in := `
environments:
  production:
    adapter: postgres
    name: app
    user: app
    pass: ${ALPHA_TEST_DB_PASS}
`
	cfg, err := Parse([]byte(in), "alpha.yml")
	if err != nil {
		t.Fatalf("Parse() = %v", err)
	}
	env, err := cfg.Env("production")
	if err != nil {
		t.Fatalf("Env() = %v", err)
	}
	if env.Pass != "s3cret" {
		t.Errorf("Pass = %q, want the expanded variable", env.Pass)
	}
}

func TestParseLeavesBareDollarAlone(t *testing.T) {
	in := `
environments:
  development:
    adapter: sqlite
    name: $HOME.sqlite3
`
	cfg, err := Parse([]byte(in), "alpha.yml")
	if err != nil {
		t.Fatalf("Parse() = %v", err)
	}
	env, _ := cfg.Env("development")
	if env.Name != "$HOME.sqlite3" {
		t.Errorf("Name = %q, want the literal preserved", env.Name)
	}
}

func TestEnvResolution(t *testing.T) {
	cfg, err := Parse([]byte(sampleConfig), "alpha.yml")
	if err != nil {
		t.Fatalf("Parse() = %v", err)
	}

	env, err := cfg.Env("")
	if err != nil {
		t.Fatalf("Env(\"\") = %v", err)
	}
	if env.Adapter != "sqlite" {
		t.Errorf("default environment adapter = %q, want sqlite", env.Adapter)
	}

	env, err = cfg.Env("production")
	if err != nil {
		t.Fatalf("Env(production) = %v", err)
	}
	if env.Adapter != "postgres" {
		t.Errorf("adapter = %q, want postgres", env.Adapter)
	}

	if _, err := cfg.Env("staging"); !amerr.Is(err, amerr.ErrConfigMissing) {
		t.Errorf("Env(staging) = %v, want code %s", err, amerr.ErrConfigMissing)
	}
}

func TestEnvFallsBackToSoleEnvironment(t *testing.T) {
	in := `
environments:
  development:
    adapter: sqlite
    name: dev.sqlite3
`
	cfg, err := Parse([]byte(in), "alpha.yml")
	if err != nil {
		t.Fatalf("Parse() = %v", err)
	}
	env, err := cfg.Env("")
	if err != nil {
		t.Fatalf("Env(\"\") = %v", err)
	}
	if env.Name != "dev.sqlite3" {
		t.Errorf("Name = %q, want the only declared environment", env.Name)
	}
}

func TestConnectionString(t *testing.T) {
	tests := []struct {
		name string
		env  Environment
		want string
	}{
		{
			name: "explicit dsn wins",
			env:  Environment{Adapter: "mysql", DSN: "root@tcp(db:3306)/app", Host: "ignored"},
			want: "root@tcp(db:3306)/app",
		},
		{
			name: "mysql defaults",
			env:  Environment{Adapter: "mysql", User: "root", Pass: "pw", Name: "app"},
			want: "root:pw@tcp(localhost:3306)/app?parseTime=true",
		},
		{
			name: "mysql with charset",
			env:  Environment{Adapter: "mysql", User: "root", Name: "app", Charset: "utf8mb4"},
			want: "root:@tcp(localhost:3306)/app?parseTime=true&charset=utf8mb4",
		},
		{
			name: "postgres url",
			env:  Environment{Adapter: "postgres", User: "app", Pass: "pw", Host: "db", Port: 6432, Name: "app"},
			want: "postgres://app:pw@db:6432/app",
		},
		{
			name: "sqlite is the file path",
			env:  Environment{Adapter: "sqlite", Name: "dev.sqlite3"},
			want: "dev.sqlite3",
		},
		{
			name: "sqlserver url",
			env:  Environment{Adapter: "sqlserver", User: "sa", Pass: "pw", Name: "app"},
			want: "sqlserver://sa:pw@localhost:1433?database=app",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := tt.env.ConnectionString()
			if err != nil {
				t.Fatalf("ConnectionString() = %v", err)
			}
			if got != tt.want {
				t.Errorf("ConnectionString() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestConnectionStringErrors(t *testing.T) {
	if _, err := (Environment{Adapter: "sqlite"}).ConnectionString(); !amerr.Is(err, amerr.ErrConfigMissing) {
		t.Errorf("sqlite without a name = %v, want code %s", err, amerr.ErrConfigMissing)
	}
	if _, err := (Environment{Adapter: "oracle"}).ConnectionString(); !amerr.Is(err, amerr.ErrConfigInvalid) {
		t.Errorf("unsupported adapter = %v, want code %s", err, amerr.ErrConfigInvalid)
	}
}

func TestMigrationsDirDefault(t *testing.T) {
	cfg := &Config{}
	if got := cfg.MigrationsDir(); got != "db/migrations" {
		t.Errorf("MigrationsDir() = %q, want the generated-project default", got)
	}
}
