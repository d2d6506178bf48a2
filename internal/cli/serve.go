package cli

import (
	"context"
	"flag"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/atenea-cash/atenea-backend/internal/api"
	"github.com/atenea-cash/atenea-backend/internal/application/importer"
	"github.com/atenea-cash/atenea-backend/internal/application/reconcile"
	"github.com/atenea-cash/atenea-backend/internal/application/report"
	"github.com/atenea-cash/atenea-backend/internal/infrastructure/config"
	"github.com/atenea-cash/atenea-backend/internal/infrastructure/storage"
	"github.com/atenea-cash/atenea-backend/internal/observability"
)

// ServeFlags holds the CLI flags for the serve command.
type ServeFlags struct {
	ConfigPath string
	Port       int
	Verbose    bool
}

// ParseServeFlags parses command line flags for the serve command.
func ParseServeFlags() *ServeFlags {
	flags := &ServeFlags{}
	flag.StringVar(&flags.ConfigPath, "config", "config.yaml", "Configuration file path")
	flag.IntVar(&flags.Port, "port", 8080, "Port to listen on")
	flag.BoolVar(&flags.Verbose, "verbose", false, "Verbose output")
	flag.Parse()
	return flags
}

// RunServe runs the API server.
func RunServe(cfg *config.Config, flags *ServeFlags) error {
	// Set up logging
	loggingCfg := cfg.Observability.Logging
	if flags.Verbose {
		loggingCfg.Level = "debug"
	}
	logger := observability.NewLogger(loggingCfg)

	// Initialize storage
	store, err := storage.NewStorage(cfg.Storage.DatabasePath)
	if err != nil {
		return err
	}
	defer func() { _ = store.Close() }()

	engine := reconcile.NewEngine(store, engineConfig(cfg), logger)
	imp := importer.New(store, logger, cfg.Reconcile.WalletMontoFactor, cfg.Reconcile.WalletIDFactor)
	reports := report.NewService(store, cfg.Reconcile.TimeWindowMinutes, logger)

	// Create API config
	apiCfg := api.DefaultConfig()
	apiCfg.Port = flags.Port

	// Create and start server
	server := api.NewServer(apiCfg, store, engine, imp, reports, logger)

	// Handle graceful shutdown
	done := make(chan bool, 1)
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		<-quit
		logger.Info("received shutdown signal")

		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()

		if err := server.Shutdown(ctx); err != nil {
			logger.Error("server shutdown error", slog.Any("error", err))
		}
		close(done)
	}()

	// Start server (blocks until shutdown)
	if err := server.Start(); err != nil {
		return err
	}

	<-done
	logger.Info("server stopped")
	return nil
}

// engineConfig maps the file configuration onto the engine knobs.
func engineConfig(cfg *config.Config) reconcile.Config {
	engineCfg := reconcile.DefaultConfig()
	if cfg.Reconcile.TimeWindowMinutes > 0 {
		engineCfg.TimeWindowMinutes = cfg.Reconcile.TimeWindowMinutes
	}
	if cfg.Reconcile.MaxLookbackDays > 0 {
		engineCfg.MaxLookbackDays = cfg.Reconcile.MaxLookbackDays
	}
	return engineCfg
}
