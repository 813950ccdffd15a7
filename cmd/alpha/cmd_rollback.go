package main

import (
	"fmt"
	"sort"
	"time"

	"github.com/spf13/cobra"

	"github.com/lmari-ekan/alpha-migrations/internal/cli"
)

// rollbackCmd reverts applied migrations, most recent first.
func rollbackCmd() *cobra.Command {
	var dryRun, force bool
	var target int64

	cmd := &cobra.Command{
		Use:   "rollback",
		Short: "Revert applied migrations",
		Long: `Revert applied migrations, newest first.

Without --target only the most recent migration is reverted. A breakpoint
halts the walk unless --force is set. Change-style migrations are reverted
by inverting their recorded actions; a migration that cannot be inverted
aborts the rollback.`,
		Example: `  # Revert the most recent migration
  alpha rollback

  # Revert everything after a specific version
  alpha rollback --target 20260101000000

  # Revert all applied migrations
  alpha rollback --target 0

  # Roll back past a breakpoint
  alpha rollback --force`,
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

			if !cmd.Flags().Changed("target") {
				// Default: one step back.
				applied, err := mgr.Ledger().Versions(cmd.Context())
				if err != nil {
					return err
				}
				if len(applied) == 0 {
					fmt.Print(cli.FormatNote("no applied migrations to revert"))
					return nil
				}
				versions := make([]int64, 0, len(applied))
				for v := range applied {
					versions = append(versions, v)
				}
				sort.Slice(versions, func(i, j int) bool { return versions[i] > versions[j] })
				if len(versions) > 1 {
					target = versions[1]
				} else {
					target = 0
				}
			}

			start := time.Now()
			if err := mgr.Rollback(cmd.Context(), target, force); err != nil {
				return err
			}
			if !dryRun {
				fmt.Print(cli.FormatSuccess(fmt.Sprintf("rolled back in %.4fs", time.Since(start).Seconds())))
			}
			return nil
		},
	}

	cmd.Flags().BoolVar(&dryRun, "dry", false, "print generated SQL instead of executing it")
	cmd.Flags().BoolVar(&force, "force", false, "roll back past breakpoints")
	cmd.Flags().Int64VarP(&target, "target", "t", 0, "revert everything after this version (0 = all)")
	return cmd
}
