// Package main provides the alpha database migration command.
//
// Usage:
//
//	alpha init                   # Create alpha.yml and the migrations dir
//	alpha new <name>             # Create a migration source file
//	alpha migrate                # Apply pending migrations
//	alpha rollback               # Revert the most recent migration
//	alpha status                 # Show applied/pending migrations
//	alpha breakpoint <version>   # Toggle a rollback breakpoint
//
// Migration files are Go sources that register themselves into the default
// registry; projects build their own binary linking this package together
// with their migrations package.
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/lmari-ekan/alpha-migrations/internal/cli"
)

// version is set via ldflags during build: -ldflags="-X main.version=v1.0.0"
var version = "dev"

// Global flags
var (
	configFile  string
	environment string
	noColor     bool
)

func main() {
	root := &cobra.Command{
		Use:           "alpha",
		Short:         "Database schema migrations",
		Version:       version,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			if noColor {
				cli.SetDefault(&cli.Config{Mode: cli.ModePlain, Writer: os.Stdout})
			}
		},
	}

	root.PersistentFlags().StringVarP(&configFile, "config", "c", "", "config file (default alpha.yml)")
	root.PersistentFlags().StringVarP(&environment, "env", "e", "", "target environment")
	root.PersistentFlags().BoolVar(&noColor, "no-color", false, "disable colored output")

	root.AddCommand(
		initCmd(),
		newCmd(),
		migrateCmd(),
		rollbackCmd(),
		statusCmd(),
		breakpointCmd(),
	)

	if err := root.Execute(); err != nil {
		fmt.Fprint(os.Stderr, cli.FormatError(err))
		os.Exit(1)
	}
}
