// Package config loads the project configuration: migration paths, the
// version table name, and one connection block per environment. Unknown keys
// are rejected rather than ignored so a typo fails before anything connects.
package config

import (
	"bytes"
	"fmt"
	"net/url"
	"os"
	"regexp"

	"gopkg.in/yaml.v3"

	"github.com/lmari-ekan/alpha-migrations/internal/amerr"
)

// DefaultFileName is looked up in the working directory when no config path
// is given.
const DefaultFileName = "alpha.yml"

// Paths locates the project's migration sources.
type Paths struct {
	Migrations string `yaml:"migrations"`
}

// Environment is one named connection block. Either DSN carries the full
// connection string, or it is assembled from the discrete fields.
type Environment struct {
	Adapter string `yaml:"adapter"`
	DSN     string `yaml:"dsn"`

	Host    string `yaml:"host"`
	Port    int    `yaml:"port"`
	Name    string `yaml:"name"`
	User    string `yaml:"user"`
	Pass    string `yaml:"pass"`
	Charset string `yaml:"charset"`
}

// Config is the parsed project configuration.
type Config struct {
	Paths        Paths                  `yaml:"paths"`
	DefaultEnv   string                 `yaml:"default_environment"`
	LedgerTable  string                 `yaml:"default_migration_table"`
	Environments map[string]Environment `yaml:"environments"`
}

// Load reads and validates a config file. ${VAR} references are replaced
// with the environment variable's value before parsing; a bare $VAR is left
// alone.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, amerr.Wrap(amerr.ErrConfigMissing, err, "failed to read config file").
			With("path", path)
	}
	return Parse(data, path)
}

var envRef = regexp.MustCompile(`\$\{(\w+)\}`)

// Parse decodes config bytes. The path only labels errors.
func Parse(data []byte, path string) (*Config, error) {
	expanded := envRef.ReplaceAllFunc(data, func(m []byte) []byte {
		name := envRef.FindSubmatch(m)[1]
		return []byte(os.Getenv(string(name)))
	})

	var cfg Config
	dec := yaml.NewDecoder(bytes.NewReader(expanded))
	dec.KnownFields(true)
	if err := dec.Decode(&cfg); err != nil {
		return nil, amerr.Wrap(amerr.ErrConfigUnknownKey, err, "config file is not valid").
			With("path", path)
	}
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (c *Config) validate() error {
	if len(c.Environments) == 0 {
		return amerr.New(amerr.ErrConfigMissing, "config declares no environments")
	}
	if c.DefaultEnv != "" {
		if _, ok := c.Environments[c.DefaultEnv]; !ok {
			return amerr.New(amerr.ErrConfigInvalid, "default environment is not declared").
				With("environment", c.DefaultEnv)
		}
	}
	for name, env := range c.Environments {
		if env.Adapter == "" {
			return amerr.New(amerr.ErrConfigMissing, "environment declares no adapter").
				With("environment", name)
		}
	}
	return nil
}

// Env resolves an environment by name. An empty name selects the default
// environment; with no default configured and exactly one environment
// declared, that one is used.
func (c *Config) Env(name string) (Environment, error) {
	if name == "" {
		name = c.DefaultEnv
	}
	if name == "" && len(c.Environments) == 1 {
		for only := range c.Environments {
			name = only
		}
	}
	env, ok := c.Environments[name]
	if !ok {
		return Environment{}, amerr.New(amerr.ErrConfigMissing, "environment is not declared").
			With("environment", name)
	}
	return env, nil
}

// ConnectionString returns the DSN for the environment, assembling it from
// the discrete fields when no explicit dsn is set.
func (e Environment) ConnectionString() (string, error) {
	if e.DSN != "" {
		return e.DSN, nil
	}
	switch e.Adapter {
	case "mysql":
		host := e.Host
		if host == "" {
			host = "localhost"
		}
		port := e.Port
		if port == 0 {
			port = 3306
		}
		dsn := fmt.Sprintf("%s:%s@tcp(%s:%d)/%s?parseTime=true", e.User, e.Pass, host, port, e.Name)
		if e.Charset != "" {
			dsn += "&charset=" + e.Charset
		}
		return dsn, nil

	case "postgres", "postgresql":
		host := e.Host
		if host == "" {
			host = "localhost"
		}
		port := e.Port
		if port == 0 {
			port = 5432
		}
		u := url.URL{
			Scheme: "postgres",
			User:   url.UserPassword(e.User, e.Pass),
			Host:   fmt.Sprintf("%s:%d", host, port),
			Path:   "/" + e.Name,
		}
		return u.String(), nil

	case "sqlite", "sqlite3":
		if e.Name == "" {
			return "", amerr.New(amerr.ErrConfigMissing, "sqlite environment requires a database file name")
		}
		return e.Name, nil

	case "sqlserver", "mssql":
		host := e.Host
		if host == "" {
			host = "localhost"
		}
		port := e.Port
		if port == 0 {
			port = 1433
		}
		u := url.URL{
			Scheme:   "sqlserver",
			User:     url.UserPassword(e.User, e.Pass),
			Host:     fmt.Sprintf("%s:%d", host, port),
			RawQuery: "database=" + url.QueryEscape(e.Name),
		}
		return u.String(), nil
	}
	return "", amerr.Newf(amerr.ErrConfigInvalid, "unsupported adapter %q", e.Adapter)
}

// MigrationsDir returns the configured migrations path, defaulting to
// db/migrations the way generated projects lay it out.
func (c *Config) MigrationsDir() string {
	if c.Paths.Migrations != "" {
		return c.Paths.Migrations
	}
	return "db/migrations"
}
