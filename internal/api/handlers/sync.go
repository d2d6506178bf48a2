package handlers

import (
	"net/http"
	"time"

	"github.com/atenea-cash/atenea-backend/internal/api/dto"
	"github.com/atenea-cash/atenea-backend/internal/application/reconcile"
	"github.com/atenea-cash/atenea-backend/internal/infrastructure/storage"
)

// SyncHandler handles batch reconciliation HTTP requests.
type SyncHandler struct {
	*Base
	engine *reconcile.Engine
}

// NewSyncHandler creates a new sync handler.
func NewSyncHandler(repo storage.Repository, engine *reconcile.Engine) *SyncHandler {
	return &SyncHandler{
		Base:   NewBase(repo),
		engine: engine,
	}
}

// Run handles POST /api/sync - runs one batch reconciliation pass and
// returns its counters. The run is synchronous; a pass over a day's
// transfers completes well within the request timeout.
func (h *SyncHandler) Run(w http.ResponseWriter, r *http.Request) {
	result, err := h.engine.SyncBatch(r.Context())
	if err != nil {
		h.WriteError(w, http.StatusInternalServerError, dto.InternalError())
		return
	}

	response := dto.SyncResultResponse{
		RunID:      result.RunID,
		Processed:  result.Processed,
		Matched:    result.Matched,
		Unmatched:  result.Unmatched,
		Duplicates: result.Duplicates,
	}
	if !result.Cutoff.IsZero() {
		response.Cutoff = result.Cutoff.Format(time.RFC3339)
	}

	h.WriteJSON(w, http.StatusOK, response)
}
