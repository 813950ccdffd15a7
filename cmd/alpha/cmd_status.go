package main

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/spf13/cobra"

	"github.com/lmari-ekan/alpha-migrations/internal/cli"
	"github.com/lmari-ekan/alpha-migrations/internal/migration"
)

// statusCmd shows applied/pending migrations.
func statusCmd() *cobra.Command {
	var watch bool

	cmd := &cobra.Command{
		Use:   "status",
		Short: "Show applied and pending migrations",
		Long: `Show every known migration and its ledger state.

A ledger row whose migration source has disappeared is flagged MISSING.
A pending migration older than the newest applied one is marked out of
order. With --watch, the status table re-renders whenever a file under
the migrations directory changes.`,
		Example: `  # Show migration status
  alpha status

  # Keep re-rendering on migration file changes
  alpha status --watch`,
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

			mgr := migration.NewManager(ad, migration.Default, cfg.LedgerTable)

			if err := printStatus(cmd, mgr); err != nil {
				return err
			}
			if !watch {
				return nil
			}

			watcher, err := fsnotify.NewWatcher()
			if err != nil {
				return err
			}
			defer watcher.Close()
			if err := watcher.Add(cfg.MigrationsDir()); err != nil {
				return err
			}
			fmt.Print(cli.FormatNote("watching " + cfg.MigrationsDir() + " (new files take effect after rebuild)"))

			for {
				select {
				case <-cmd.Context().Done():
					return nil
				case ev, ok := <-watcher.Events:
					if !ok {
						return nil
					}
					if ev.Op&(fsnotify.Create|fsnotify.Write|fsnotify.Remove|fsnotify.Rename) == 0 {
						continue
					}
					fmt.Println()
					if err := printStatus(cmd, mgr); err != nil {
						fmt.Fprint(os.Stderr, cli.FormatError(err))
					}
				case err, ok := <-watcher.Errors:
					if !ok {
						return nil
					}
					fmt.Fprint(os.Stderr, cli.FormatError(err))
				}
			}
		},
	}

	cmd.Flags().BoolVarP(&watch, "watch", "w", false, "re-render when migration files change")
	return cmd
}

func printStatus(cmd *cobra.Command, mgr *migration.Manager) error {
	rows, err := mgr.Status(cmd.Context())
	if err != nil {
		return err
	}
	if len(rows) == 0 {
		fmt.Print(cli.FormatNote("no migrations found"))
		return nil
	}

	table := cli.NewTable("Status", "Version", "Name", "Applied At")
	pending := 0
	for _, row := range rows {
		appliedAt := ""
		if row.Applied && !row.EndTime.IsZero() {
			appliedAt = row.EndTime.Format(time.RFC3339)
		}
		name := row.Name
		if row.Breakpoint {
			name += "  " + cli.Warning("[breakpoint]")
		}
		if row.OutOfOrder {
			name += "  " + cli.Warning("[out of order]")
		}
		table.AddRow(
			cli.StatusBadge(row.Applied, row.Missing),
			strconv.FormatInt(row.Version, 10),
			name,
			appliedAt,
		)
		if !row.Applied {
			pending++
		}
	}
	fmt.Print(table.String())
	fmt.Println()
	fmt.Println(cli.Dim(cli.FormatCount(pending, "pending migration", "pending migrations")))
	return nil
}
