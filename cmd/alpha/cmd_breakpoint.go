package main

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/lmari-ekan/alpha-migrations/internal/amerr"
	"github.com/lmari-ekan/alpha-migrations/internal/cli"
	"github.com/lmari-ekan/alpha-migrations/internal/migration"
)

// breakpointCmd manages rollback breakpoints on applied migrations.
func breakpointCmd() *cobra.Command {
	var set, unset bool

	cmd := &cobra.Command{
		Use:   "breakpoint <version>",
		Short: "Toggle a rollback breakpoint",
		Long: `Toggle the breakpoint flag on an applied migration.

Rollback stops when it reaches a version with a breakpoint set, protecting
everything at and below it from casual reverts. Without --set or --unset
the flag is flipped.`,
		Example: `  # Flip the breakpoint on a version
  alpha breakpoint 20260815143000

  # Explicitly set / clear it
  alpha breakpoint 20260815143000 --set
  alpha breakpoint 20260815143000 --unset`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			version, err := strconv.ParseInt(args[0], 10, 64)
			if err != nil {
				return amerr.Wrap(amerr.ErrConfigInvalid, err, "version must be numeric").
					With("argument", args[0])
			}
			if set && unset {
				return amerr.New(amerr.ErrConfigInvalid, "--set and --unset are mutually exclusive")
			}

			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			ad, err := openAdapter(cfg)
			if err != nil {
				return err
			}
			defer ad.Close()

			ledger := migration.NewLedger(ad, cfg.LedgerTable)
			switch {
			case set:
				err = ledger.SetBreakpoint(cmd.Context(), version, true)
			case unset:
				err = ledger.SetBreakpoint(cmd.Context(), version, false)
			default:
				err = ledger.ToggleBreakpoint(cmd.Context(), version)
			}
			if err != nil {
				return err
			}
			fmt.Print(cli.FormatSuccess("breakpoint updated for version " + args[0]))
			return nil
		},
	}

	cmd.Flags().BoolVar(&set, "set", false, "set the breakpoint")
	cmd.Flags().BoolVar(&unset, "unset", false, "clear the breakpoint")
	return cmd
}
