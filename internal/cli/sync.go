package cli

import (
	"context"
	"flag"
	"time"

	"github.com/atenea-cash/atenea-backend/internal/application/reconcile"
	"github.com/atenea-cash/atenea-backend/internal/infrastructure/config"
	"github.com/atenea-cash/atenea-backend/internal/infrastructure/storage"
	"github.com/atenea-cash/atenea-backend/internal/observability"
)

// SyncFlags holds the CLI flags for the sync command.
type SyncFlags struct {
	ConfigPath    string
	WindowMinutes int
	LookbackDays  int
	Timeout       time.Duration
	Verbose       bool
}

// ParseSyncFlags parses command line flags for the sync command.
func ParseSyncFlags() *SyncFlags {
	flags := &SyncFlags{}
	flag.StringVar(&flags.ConfigPath, "config", "config.yaml", "Configuration file path")
	flag.IntVar(&flags.WindowMinutes, "window", 0, "Matching window in minutes (0 = config value)")
	flag.IntVar(&flags.LookbackDays, "days", 0, "Lookback in days behind the wallet cutoff (0 = config value)")
	flag.DurationVar(&flags.Timeout, "timeout", 10*time.Minute, "Abort the run after this long")
	flag.BoolVar(&flags.Verbose, "verbose", false, "Verbose output")
	flag.Parse()
	return flags
}

// RunSync runs one batch reconciliation pass and prints its summary.
func RunSync(cfg *config.Config, flags *SyncFlags) error {
	loggingCfg := cfg.Observability.Logging
	if flags.Verbose {
		loggingCfg.Level = "debug"
	}
	logger := observability.NewLogger(loggingCfg)

	store, err := storage.NewStorage(cfg.Storage.DatabasePath)
	if err != nil {
		return err
	}
	defer func() { _ = store.Close() }()

	engineCfg := engineConfig(cfg)
	if flags.WindowMinutes > 0 {
		engineCfg.TimeWindowMinutes = flags.WindowMinutes
	}
	if flags.LookbackDays > 0 {
		engineCfg.MaxLookbackDays = flags.LookbackDays
	}

	engine := reconcile.NewEngine(store, engineCfg, logger)

	ctx, cancel := context.WithTimeout(context.Background(), flags.Timeout)
	defer cancel()

	result, err := engine.SyncBatch(ctx)
	if err != nil {
		return err
	}

	PrintSyncSummary(result)
	return nil
}
