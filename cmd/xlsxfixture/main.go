// Package main provides the CLI entry point for xlsxfixture.
package main

import (
	"fmt"
	"os"

	logger "github.com/multiversx/mx-chain-logger-go"
	"github.com/pkg/errors"
	"github.com/spf13/cobra"
	"github.com/ukaji3/xlsxfixture-go/pkg/xlsxfixture"
	"github.com/ukaji3/xlsxfixture-go/pkg/xlsxfixture/config"
	"github.com/ukaji3/xlsxfixture-go/pkg/xlsxfixture/registry"
	"github.com/ukaji3/xlsxfixture-go/pkg/xlsxfixture/store/sqlstore"
)

var log = logger.GetOrCreate("cmd")

// globalFlags are shared by every command.
type globalFlags struct {
	configPath string
	modelsPath string
	dsn        string
	logLevel   string
	layout     string
	natural    bool
}

// env is what a command needs, resolved from the config file and flags.
type env struct {
	cfg      *config.Config
	opts     xlsxfixture.Options
	registry *registry.Registry
}

func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	g := &globalFlags{}
	rootCmd := &cobra.Command{
		Use:   "xlsxfixture",
		Short: "Load and dump ORM fixtures as xlsx workbooks",
		Long: `xlsxfixture converts database records to xlsx workbooks and back:
one sheet per model, one row per record, one column per field.`,
		SilenceUsage: true,
	}

	flags := rootCmd.PersistentFlags()
	flags.StringVarP(&g.configPath, "config", "c", "", "TOML config file")
	flags.StringVar(&g.modelsPath, "models", "", "YAML model schema (overrides config)")
	flags.StringVar(&g.dsn, "database", "", "database DSN (overrides config)")
	flags.StringVar(&g.logLevel, "log-level", "", `log level pattern, e.g. "*:DEBUG"`)
	flags.StringVar(&g.layout, "layout", "", "sheet layout to read: sheet-name, legacy, auto")
	flags.BoolVar(&g.natural, "natural-primary", false, "omit primary keys of models with a natural key")

	rootCmd.AddCommand(
		newDumpCmd(g),
		newLoadCmd(g),
		newInspectCmd(g),
		newFormatsCmd(),
	)
	return rootCmd
}

// setup reads the config, applies flag overrides and loads the model schema.
func (g *globalFlags) setup() (*env, error) {
	cfg := config.Default()
	if g.configPath != "" {
		var err error
		if cfg, err = config.Load(g.configPath); err != nil {
			return nil, err
		}
	}
	if g.modelsPath != "" {
		cfg.Models = g.modelsPath
	}
	if g.dsn != "" {
		cfg.Database.DSN = g.dsn
	}
	if g.logLevel != "" {
		cfg.Log.Level = g.logLevel
	}
	if g.layout != "" {
		cfg.Serializer.Layout = g.layout
	}
	if g.natural {
		cfg.Serializer.NaturalPrimaryKeys = true
	}

	if err := logger.SetLogLevel(cfg.Log.Level); err != nil {
		return nil, errors.Wrapf(err, "log level %q", cfg.Log.Level)
	}
	opts, err := cfg.Options()
	if err != nil {
		return nil, err
	}
	reg, err := registry.LoadFile(cfg.Models)
	if err != nil {
		return nil, err
	}
	return &env{cfg: cfg, opts: opts, registry: reg}, nil
}

// openStore opens the configured database and creates missing tables.
func (e *env) openStore(cmd *cobra.Command) (*sqlstore.Store, error) {
	db := e.cfg.Database
	store, err := sqlstore.Open(db.Driver, db.DSN, db.ShowSQL)
	if err != nil {
		return nil, err
	}
	if err := store.Sync(cmd.Context(), e.registry.Models()...); err != nil {
		store.Close()
		return nil, err
	}
	return store, nil
}

func newFormatsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "formats",
		Short: "List the registered fixture formats",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			for _, name := range xlsxfixture.Formats() {
				fmt.Fprintln(cmd.OutOrStdout(), name)
			}
			return nil
		},
	}
}
