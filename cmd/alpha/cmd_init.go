package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/lmari-ekan/alpha-migrations/internal/amerr"
	"github.com/lmari-ekan/alpha-migrations/internal/cli"
	"github.com/lmari-ekan/alpha-migrations/internal/config"
)

const configTemplate = `paths:
  migrations: db/migrations

default_environment: development
default_migration_table: phinxlog

environments:
  development:
    adapter: sqlite
    name: db/development.sqlite3

  production:
    adapter: postgres
    host: ${DB_HOST}
    port: 5432
    name: ${DB_NAME}
    user: ${DB_USER}
    pass: ${DB_PASS}
`

// initCmd creates the config file and migrations directory.
func initCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "init",
		Short: "Initialize project structure",
		Long:  `Create alpha.yml and the migrations directory in the working directory.`,
		Example: `  # Set up a new project
  alpha init`,
		RunE: func(cmd *cobra.Command, args []string) error {
			path := configFile
			if path == "" {
				path = config.DefaultFileName
			}
			if _, err := os.Stat(path); err == nil {
				return amerr.New(amerr.ErrConfigInvalid, "config file already exists").
					With("path", path)
			}
			if err := os.WriteFile(path, []byte(configTemplate), 0o644); err != nil {
				return err
			}
			if err := os.MkdirAll("db/migrations", 0o755); err != nil {
				return err
			}
			fmt.Print(cli.FormatSuccess("created " + path + " and db/migrations/"))
			return nil
		},
	}
}
