package main

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/lmari-ekan/alpha-migrations/internal/cli"
)

// migrateCmd applies pending migrations.
func migrateCmd() *cobra.Command {
	var dryRun bool
	var target int64

	cmd := &cobra.Command{
		Use:   "migrate",
		Short: "Apply pending migrations",
		Long: `Apply pending migrations to the database in version order.

Each migration runs inside a transaction on engines with transactional DDL.
A failure halts the run; already-applied migrations stay recorded.`,
		Example: `  # Apply all pending migrations
  alpha migrate

  # Migrate up to (and including) a specific version
  alpha migrate --target 20260815143000

  # Preview the SQL without executing it
  alpha migrate --dry`,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			ad, err := openAdapter(cfg)
			if err != nil {
				return err
			}
			defer ad.Close()

			mgr := newManager(ad, cfg, dryRun, nil)

			start := time.Now()
			if err := mgr.Migrate(cmd.Context(), target); err != nil {
				return err
			}
			if !dryRun {
				fmt.Print(cli.FormatSuccess(fmt.Sprintf("migrated in %.4fs", time.Since(start).Seconds())))
			}
			return nil
		},
	}

	cmd.Flags().BoolVar(&dryRun, "dry", false, "print generated SQL instead of executing it")
	cmd.Flags().Int64VarP(&target, "target", "t", 0, "migrate up to this version (0 = all)")
	return cmd
}
