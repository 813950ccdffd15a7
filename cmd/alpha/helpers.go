package main

import (
	"fmt"
	"io"
	"os"

	"github.com/lmari-ekan/alpha-migrations/internal/adapter"
	"github.com/lmari-ekan/alpha-migrations/internal/config"
	"github.com/lmari-ekan/alpha-migrations/internal/migration"
)

// loadConfig reads the config file named by --config, falling back to
// alpha.yml in the working directory.
func loadConfig() (*config.Config, error) {
	path := configFile
	if path == "" {
		path = config.DefaultFileName
	}
	return config.Load(path)
}

// openAdapter resolves the selected environment and opens its adapter.
// The connection itself stays lazy.
func openAdapter(cfg *config.Config) (adapter.Adapter, error) {
	env, err := cfg.Env(environment)
	if err != nil {
		return nil, err
	}
	dsn, err := env.ConnectionString()
	if err != nil {
		return nil, err
	}
	return adapter.Open(env.Adapter, dsn)
}

// newManager wires a manager over the default registry, logging progress to
// stdout. When dry is set, generated SQL goes to sink instead of the
// database.
func newManager(ad adapter.Adapter, cfg *config.Config, dry bool, sink io.Writer) *migration.Manager {
	if dry {
		if sink == nil {
			sink = os.Stdout
		}
		ad.SetDryRun(sink)
	}
	mgr := migration.NewManager(ad, migration.Default, cfg.LedgerTable)
	mgr.Logf = func(format string, args ...any) {
		fmt.Printf(format+"\n", args...)
	}
	return mgr
}
