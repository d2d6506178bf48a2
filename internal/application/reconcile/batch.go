package reconcile

import (
	"context"
	"time"

	"github.com/atenea-cash/atenea-backend/internal/domain/matcher"
	"github.com/atenea-cash/atenea-backend/internal/domain/model"
)

// SyncResult summarizes one batch run
type SyncResult struct {
	RunID      int64     `json:"run_id"`
	Processed  int       `json:"processed"`
	Matched    int       `json:"matched"`
	Unmatched  int       `json:"unmatched"`
	Duplicates int       `json:"duplicates"`
	Cutoff     time.Time `json:"cutoff"`
}

// SyncBatch runs the strict matcher over every settleable transfer at or
// before the wallet cutoff, oldest first, sharing one used-movement set so a
// movement is assigned at most once across the whole run. Re-running with no
// new data is a no-op: the used set is reseeded from the previously
// persisted assignments, so already matched transfers keep their movement
// and nothing new can claim it.
func (e *Engine) SyncBatch(ctx context.Context) (*SyncResult, error) {
	runID, err := e.repo.StartSyncRun()
	if err != nil {
		return nil, err
	}

	result, err := e.syncBatch(ctx, runID)
	if err != nil {
		if failErr := e.repo.FailSyncRun(runID, err.Error()); failErr != nil {
			e.logger.Error("failed to record failed run", "run_id", runID, "error", failErr)
		}
		return nil, err
	}

	if err := e.repo.CompleteSyncRun(runID,
		result.Processed, result.Matched, result.Unmatched, result.Duplicates,
		result.Cutoff,
	); err != nil {
		return nil, err
	}
	return result, nil
}

func (e *Engine) syncBatch(ctx context.Context, runID int64) (*SyncResult, error) {
	result := &SyncResult{RunID: runID}

	// The cutoff is the newest imported movement; transfers after it cannot
	// have a counterpart yet and are left pending.
	cutoff, err := e.repo.LatestMovementTimestamp()
	if err != nil {
		return nil, err
	}
	if cutoff.IsZero() {
		e.logger.Info("batch run skipped, no movements imported", "run_id", runID)
		return result, nil
	}
	result.Cutoff = cutoff

	transfers, err := e.repo.ListUnresolved(cutoff, e.config.MaxLookbackDays)
	if err != nil {
		return nil, err
	}
	if len(transfers) == 0 {
		return result, nil
	}

	used, err := e.repo.ListAssignedMovementIDs()
	if err != nil {
		return nil, err
	}

	index, err := e.buildRunIndex(transfers, cutoff)
	if err != nil {
		return nil, err
	}

	e.logger.Info("batch run started",
		"run_id", runID,
		"cutoff", cutoff,
		"transfers", len(transfers),
		"preassigned_movements", len(used),
	)

	for _, transfer := range transfers {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		status := e.settleOne(transfer, index, used)
		if err := e.repo.SetTransferStatus(transfer.ID, status, transfer.MovementID); err != nil {
			// One bad row must not sink the run; the next run retries it.
			e.logger.Error("failed to persist batch outcome",
				"run_id", runID,
				"transfer_id", transfer.ID,
				"error", err,
			)
			continue
		}

		result.Processed++
		switch status {
		case model.StatusMatched:
			result.Matched++
		case model.StatusDuplicate:
			result.Duplicates++
		default:
			result.Unmatched++
		}
	}

	e.logger.Info("batch run finished",
		"run_id", runID,
		"processed", result.Processed,
		"matched", result.Matched,
		"unmatched", result.Unmatched,
		"duplicates", result.Duplicates,
	)
	return result, nil
}

// settleOne decides one transfer's batch outcome and, on a match, records
// the claimed movement in both the used set and the transfer itself.
func (e *Engine) settleOne(transfer *model.Transfer, index *matcher.Index, used map[string]bool) model.Status {
	user, err := e.repo.GetUser(transfer.UserID)
	if err != nil {
		return model.StatusNoMatch
	}

	res := e.matcher.FindMatchFast(transfer, user, index, used)
	switch {
	case res.Matched:
		used[res.MovementID] = true
		transfer.MovementID = res.MovementID
		return model.StatusMatched
	case res.AlreadyClaimed:
		transfer.MovementID = ""
		return model.StatusDuplicate
	default:
		transfer.MovementID = ""
		return model.StatusNoMatch
	}
}

// buildRunIndex loads the movements spanning the run's transfers, widened by
// the diagnostic span on both ends, and indexes them for the fast path.
func (e *Engine) buildRunIndex(transfers []*model.Transfer, cutoff time.Time) (*matcher.Index, error) {
	minAt := transfers[0].OperatedAt
	maxAt := transfers[len(transfers)-1].OperatedAt
	if cutoff.Before(maxAt) {
		maxAt = cutoff
	}

	span := e.diagnosticSpan()
	movements, err := e.repo.ListMovementsInRange(minAt.Add(-span), maxAt.Add(span))
	if err != nil {
		return nil, err
	}
	return matcher.BuildIndex(movements), nil
}
