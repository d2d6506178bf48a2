package main

import (
	"fmt"
	"os"

	"github.com/atenea-cash/atenea-backend/internal/cli"
	"github.com/atenea-cash/atenea-backend/internal/infrastructure/config"
)

func main() {
	flags := cli.ParseSyncFlags()
	cfg := config.LoadOrEnvWithPath(flags.ConfigPath)

	if err := cli.RunSync(cfg, flags); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}
