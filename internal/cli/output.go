package cli

import (
	"fmt"
	"strings"
	"time"

	"github.com/atenea-cash/atenea-backend/internal/application/importer"
	"github.com/atenea-cash/atenea-backend/internal/application/reconcile"
)

// PrintSyncSummary prints the batch run result summary.
func PrintSyncSummary(result *reconcile.SyncResult) {
	fmt.Println(strings.Repeat("-", 60))
	fmt.Printf("Run #%d: Processed=%d Matched=%d Unmatched=%d Duplicates=%d\n",
		result.RunID,
		result.Processed,
		result.Matched,
		result.Unmatched,
		result.Duplicates)

	if !result.Cutoff.IsZero() {
		fmt.Printf("Wallet cutoff: %s\n", result.Cutoff.Format(time.RFC3339))
	}

	if result.Processed == 0 {
		fmt.Println("Nothing to settle.")
	}
}

// PrintImportSummary prints the outcome of one CSV import.
func PrintImportSummary(result *importer.Result) {
	fmt.Printf("%s [%s]: imported=%d skipped=%d\n",
		result.SourceFile,
		result.Channel,
		result.Imported,
		result.Skipped)
}
