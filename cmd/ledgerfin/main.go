package main

import (
	"context"
	"fmt"
	"os"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/pario-ai/ledgerfin/pkg/config"
	"github.com/pario-ai/ledgerfin/pkg/ledger"
	"github.com/pario-ai/ledgerfin/pkg/models"
)

var version = "dev"

// app carries what every subcommand needs once the root has resolved flags.
type app struct {
	configPath string
	envFile    string
	logLevel   string
	dbPath     string

	cfg *config.Config
	log *logrus.Logger
}

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	a := &app{}
	root := &cobra.Command{
		Use:               "ledgerfin",
		Short:             "Unit economics, reconciliation and scenarios for a GPU compute ledger",
		Version:           version,
		SilenceUsage:      true,
		PersistentPreRunE: a.setup,
	}

	root.PersistentFlags().StringVarP(&a.configPath, "config", "c", "", "path to config file (defaults apply when empty)")
	root.PersistentFlags().StringVar(&a.envFile, "env-file", "", "dotenv file loaded before the config is expanded (default .env)")
	root.PersistentFlags().StringVar(&a.logLevel, "log-level", "", "override log_level from the config")
	root.PersistentFlags().StringVar(&a.dbPath, "db", "", "override ledger.db_path from the config")

	root.AddCommand(
		newSeedCmd(a),
		newBreakdownCmd(a),
		newEconomicsCmd(a),
		newReconcileCmd(a),
		newBenchmarkCmd(a),
		newResaleCmd(a),
		newScenarioCmd(a),
		newMCPCmd(a),
	)
	return root
}

func (a *app) setup(cmd *cobra.Command, _ []string) error {
	var envFiles []string
	if a.envFile != "" {
		envFiles = append(envFiles, a.envFile)
	}
	if err := config.LoadEnv(envFiles...); err != nil {
		return err
	}

	cfg := config.Default()
	if a.configPath != "" {
		var err error
		cfg, err = config.Load(a.configPath)
		if err != nil {
			return fmt.Errorf("load config: %w", err)
		}
	}
	if a.dbPath != "" {
		cfg.Ledger.DBPath = a.dbPath
	}
	if a.logLevel != "" {
		cfg.LogLevel = a.logLevel
	}

	level, err := logrus.ParseLevel(cfg.LogLevel)
	if err != nil {
		return models.ConfigError("log_level", cfg.LogLevel, err.Error())
	}
	log := logrus.New()
	log.SetOutput(cmd.ErrOrStderr())
	log.SetLevel(level)
	log.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})

	a.cfg = cfg
	a.log = log
	return nil
}

func (a *app) openLedger() (*ledger.SQLiteStore, error) {
	store, err := ledger.Open(a.cfg.Ledger.DBPath, a.log)
	if err != nil {
		return nil, fmt.Errorf("open ledger: %w", err)
	}
	return store, nil
}

// records loads the filtered ledger and closes it again.
func (a *app) records(ctx context.Context, f ledger.Filter) ([]models.UsageRecord, error) {
	store, err := a.openLedger()
	if err != nil {
		return nil, err
	}
	defer func() { _ = store.Close() }()
	return store.Records(ctx, f)
}

// rangeFlags are the --since/--until flags shared by the report commands.
type rangeFlags struct {
	since string
	until string
}

func (r *rangeFlags) bind(cmd *cobra.Command) {
	cmd.Flags().StringVar(&r.since, "since", "", "first date (YYYY-MM-DD)")
	cmd.Flags().StringVar(&r.until, "until", "", "last date (YYYY-MM-DD)")
}

func (r *rangeFlags) filter() ledger.Filter {
	return ledger.Filter{Since: r.since, Until: r.until}
}
