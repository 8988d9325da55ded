package main

import (
	"context"
	"fmt"
	"os"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/gyeh/owedbook/internal/config"
	"github.com/gyeh/owedbook/internal/db"
	"github.com/gyeh/owedbook/internal/exitcode"
	"github.com/gyeh/owedbook/internal/export"
	"github.com/gyeh/owedbook/internal/logging"
	"github.com/gyeh/owedbook/internal/reconcile"
	"github.com/gyeh/owedbook/internal/store"
)

var (
	cfg        = config.Default()
	configPath string
	flagCfg    = config.Default()
)

var rootCmd = &cobra.Command{
	Use:   "owedbook",
	Short: "Pharmacy claims reconciliation against reference pricing",
	Long: "Imports pharmacy claim exports into Postgres, reconciles paid amounts against AAC/WAC " +
		"reference pricing, and exports per-PBM reports of underpaid claims.",
	SilenceUsage:      true,
	PersistentPreRunE: loadConfig,
}

func init() {
	pf := rootCmd.PersistentFlags()
	pf.StringVar(&configPath, "config", "", "Path to YAML config file")
	pf.StringVar(&flagCfg.DSN, "dsn", "", "Postgres connection string (or set "+config.EnvDSN+")")
	pf.StringVar(&flagCfg.LogFormat, "log-format", flagCfg.LogFormat, "Log format: text or json")
	pf.StringVar(&flagCfg.LogLevel, "log-level", flagCfg.LogLevel, "Log level: debug, info, warn, error")
	pf.Float64Var(&flagCfg.FixedFee, "fixed-fee", flagCfg.FixedFee, "Dispensing fee added to every expected payment")
	pf.StringVar(&flagCfg.ReportDir, "report-dir", flagCfg.ReportDir, "Directory for exported reports and email drafts")
}

// loadConfig layers defaults, the config file, explicitly set flags and the
// environment, in that order of increasing precedence except that the
// environment only fills an empty DSN.
func loadConfig(cmd *cobra.Command, args []string) error {
	cfg = config.Default()
	if configPath != "" {
		if err := cfg.LoadFromFile(configPath); err != nil {
			return err
		}
	}
	pf := cmd.Flags()
	if pf.Changed("dsn") {
		cfg.DSN = flagCfg.DSN
	}
	if pf.Changed("log-format") {
		cfg.LogFormat = flagCfg.LogFormat
	}
	if pf.Changed("log-level") {
		cfg.LogLevel = flagCfg.LogLevel
	}
	if pf.Changed("fixed-fee") {
		cfg.FixedFee = flagCfg.FixedFee
	}
	if pf.Changed("report-dir") {
		cfg.ReportDir = flagCfg.ReportDir
	}
	cfg.ApplyEnv()
	return cfg.Validate()
}

// connect opens the pool or exits with the matching code.
func connect(ctx context.Context, log zerolog.Logger) (*pgxpool.Pool, *store.Store) {
	if err := cfg.ValidateWithDSN(); err != nil {
		log.Error().Err(err).Msg("config validation failed")
		os.Exit(exitcode.UsageError)
	}
	pool, err := db.NewPool(ctx, cfg.DSN)
	if err != nil {
		log.Error().Err(err).Msg("database connection failed")
		os.Exit(exitcode.DBConnError)
	}
	return pool, store.New(pool, log)
}

func setupLog() zerolog.Logger {
	return logging.Setup(cfg.LogFormat, cfg.LogLevel)
}

// services bundles the wired components shared by several subcommands.
type services struct {
	store   *store.Store
	engine  *reconcile.Engine
	tracker *export.Tracker
}

func newServices(st *store.Store, log zerolog.Logger) services {
	return services{
		store:   st,
		engine:  reconcile.NewEngine(st, cfg.FixedFee, log),
		tracker: export.NewTracker(st, export.DirChecker{Root: cfg.ReportDir}, log),
	}
}

func fail(log zerolog.Logger, code int, err error, msg string) {
	log.Error().Err(err).Msg(msg)
	fmt.Fprintf(os.Stderr, "%s: %v\n", msg, err)
	os.Exit(code)
}
