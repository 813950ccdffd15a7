package main

import (
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/lmari-ekan/alpha-migrations/internal/amerr"
	"github.com/lmari-ekan/alpha-migrations/internal/cli"
)

var migrationName = regexp.MustCompile(`^[a-z][a-z0-9_]*$`)

const changeTemplate = `package migrations

import (
	"context"

	"github.com/lmari-ekan/alpha-migrations/pkg/alpha"
)

func init() {
	alpha.Register(&alpha.Migration{
		Version: %d,
		Name:    %q,
		Change: func(ctx context.Context, r *alpha.Runner) error {
			// t := r.Table(%q)
			// t.AddColumn("name", alpha.String, alpha.WithLimit(100))
			// return t.Create(ctx)
			return nil
		},
	})
}
`

const upDownTemplate = `package migrations

import (
	"context"

	"github.com/lmari-ekan/alpha-migrations/pkg/alpha"
)

func init() {
	alpha.Register(&alpha.Migration{
		Version: %d,
		Name:    %q,
		Up: func(ctx context.Context, r *alpha.Runner) error {
			return nil
		},
		Down: func(ctx context.Context, r *alpha.Runner) error {
			return nil
		},
	})
}
`

// newCmd creates a migration source file.
func newCmd() *cobra.Command {
	var upDown bool

	cmd := &cobra.Command{
		Use:   "new <name>",
		Short: "Create a migration source file",
		Long: `Create a timestamped migration file in the migrations directory.

The default skeleton uses a Change function, which is inverted automatically
on rollback. Use --up-down when the reverse needs to be written by hand
(data backfills, column drops).`,
		Example: `  # Create a reversible change migration
  alpha new add_users_table

  # Create a migration with explicit up and down
  alpha new backfill_emails --up-down`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			name := args[0]
			if !migrationName.MatchString(name) {
				return amerr.New(amerr.ErrConfigInvalid, "migration name must be lower_snake_case").
					With("name", name)
			}

			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			dir := cfg.MigrationsDir()
			if err := os.MkdirAll(dir, 0o755); err != nil {
				return err
			}

			version := versionStamp(time.Now().UTC())
			path := filepath.Join(dir, fmt.Sprintf("%d_%s.go", version, name))
			if _, err := os.Stat(path); err == nil {
				return amerr.New(amerr.ErrDuplicateVersion, "migration file already exists").
					With("path", path)
			}

			tmpl := changeTemplate
			body := fmt.Sprintf(tmpl, version, name, guessTable(name))
			if upDown {
				body = fmt.Sprintf(upDownTemplate, version, name)
			}
			if err := os.WriteFile(path, []byte(body), 0o644); err != nil {
				return err
			}
			fmt.Print(cli.FormatSuccess("created " + path))
			return nil
		},
	}

	cmd.Flags().BoolVar(&upDown, "up-down", false, "generate explicit Up and Down functions")
	return cmd
}

// versionStamp encodes a time as the numeric YYYYMMDDHHMMSS version token.
func versionStamp(t time.Time) int64 {
	var v int64
	for _, c := range t.Format("20060102150405") {
		v = v*10 + int64(c-'0')
	}
	return v
}

// guessTable pulls a table name out of conventional migration names such as
// add_users_table or create_orders.
func guessTable(name string) string {
	parts := strings.Split(name, "_")
	for i := len(parts) - 1; i >= 0; i-- {
		switch parts[i] {
		case "table", "add", "create", "update", "change", "remove", "drop":
			continue
		default:
			return parts[i]
		}
	}
	return "example"
}
