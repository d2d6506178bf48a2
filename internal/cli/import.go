package cli

import (
	"flag"
	"fmt"
	"os"
	"path/filepath"

	"github.com/atenea-cash/atenea-backend/internal/application/importer"
	"github.com/atenea-cash/atenea-backend/internal/infrastructure/config"
	"github.com/atenea-cash/atenea-backend/internal/infrastructure/storage"
	"github.com/atenea-cash/atenea-backend/internal/observability"
)

// ImportFlags holds the CLI flags for the import command.
type ImportFlags struct {
	ConfigPath string
	Files      []string
	Verbose    bool
}

// ParseImportFlags parses command line flags for the import command.
// Positional arguments are the CSV files to load.
func ParseImportFlags() *ImportFlags {
	flags := &ImportFlags{}
	flag.StringVar(&flags.ConfigPath, "config", "config.yaml", "Configuration file path")
	flag.BoolVar(&flags.Verbose, "verbose", false, "Verbose output")
	flag.Parse()
	flags.Files = flag.Args()
	return flags
}

// RunImport loads one or more wallet CSV exports into the movement feed.
// The wallet channel is inferred from each file's name.
func RunImport(cfg *config.Config, flags *ImportFlags) error {
	if len(flags.Files) == 0 {
		return fmt.Errorf("no files given: usage: import [flags] file.csv ...")
	}

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

	imp := importer.New(store, logger, cfg.Reconcile.WalletMontoFactor, cfg.Reconcile.WalletIDFactor)

	for _, path := range flags.Files {
		f, err := os.Open(path)
		if err != nil {
			return fmt.Errorf("open %s: %w", path, err)
		}

		result, err := imp.ImportCSV(f, filepath.Base(path))
		_ = f.Close()
		if err != nil {
			return fmt.Errorf("import %s: %w", path, err)
		}

		PrintImportSummary(result)
	}

	return nil
}
