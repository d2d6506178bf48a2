package handlers

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/atenea-cash/atenea-backend/internal/api/dto"
	"github.com/atenea-cash/atenea-backend/internal/application/reconcile"
	"github.com/atenea-cash/atenea-backend/internal/domain/model"
	"github.com/atenea-cash/atenea-backend/internal/infrastructure/storage"
)

// TransfersHandler handles transfer-related HTTP requests.
type TransfersHandler struct {
	*Base
	engine *reconcile.Engine
}

// NewTransfersHandler creates a new transfers handler.
func NewTransfersHandler(repo storage.Repository, engine *reconcile.Engine) *TransfersHandler {
	return &TransfersHandler{
		Base:   NewBase(repo),
		engine: engine,
	}
}

// Create handles POST /api/transfers - records a new transfer in status pending.
func (h *TransfersHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req dto.CreateTransferRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.WriteError(w, http.StatusBadRequest, dto.BadRequestError("invalid request body"))
		return
	}

	if req.UserID == "" {
		h.WriteError(w, http.StatusBadRequest, dto.ValidationError("user_id is required"))
		return
	}
	if req.OperatedAt.IsZero() {
		h.WriteError(w, http.StatusBadRequest, dto.ValidationError("operated_at is required"))
		return
	}
	// Negative amounts are legitimate (reversals); only zero is meaningless.
	if req.Amount == 0 {
		h.WriteError(w, http.StatusBadRequest, dto.ValidationError("amount must be nonzero"))
		return
	}
	channel := model.WalletChannel(req.Channel)
	if !channel.Valid() {
		h.WriteError(w, http.StatusBadRequest, dto.ValidationError("unknown channel"))
		return
	}

	if _, err := h.repo.GetUser(req.UserID); err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			h.WriteError(w, http.StatusBadRequest, dto.ValidationError("user is not registered"))
			return
		}
		h.WriteError(w, http.StatusInternalServerError, dto.InternalError())
		return
	}

	transfer := &model.Transfer{
		ID:         "TRF_" + uuid.New().String(),
		UserID:     req.UserID,
		OperatedAt: req.OperatedAt,
		Amount:     req.Amount,
		Channel:    channel,
		Status:     model.StatusPending,
		ShiftTag:   req.ShiftTag,
		Note:       req.Note,
		CreatedAt:  time.Now(),
	}

	if err := h.repo.CreateTransfer(transfer); err != nil {
		h.WriteError(w, http.StatusInternalServerError, dto.InternalError())
		return
	}

	h.WriteJSON(w, http.StatusCreated, toTransferResponse(transfer))
}

// Get handles GET /api/transfers/{id} - returns a single transfer by ID.
func (h *TransfersHandler) Get(w http.ResponseWriter, r *http.Request) {
	transfer, ok := h.loadTransfer(w, r)
	if !ok {
		return
	}

	h.WriteJSON(w, http.StatusOK, toTransferResponse(transfer))
}

// List handles GET /api/transfers - returns a user's transfers or the
// recent ones across all users.
func (h *TransfersHandler) List(w http.ResponseWriter, r *http.Request) {
	limit := ParseIntParam(r, "limit", 50)

	var (
		transfers []*model.Transfer
		err       error
	)
	if userID := r.URL.Query().Get("user_id"); userID != "" {
		transfers, err = h.repo.ListTransfersByUser(userID, limit)
	} else {
		daysBack := ParseIntParam(r, "days_back", 7)
		transfers, err = h.repo.ListTransfersSince(time.Now().AddDate(0, 0, -daysBack))
	}
	if err != nil {
		h.WriteError(w, http.StatusInternalServerError, dto.InternalError())
		return
	}

	response := dto.TransferListResponse{
		Transfers: make([]dto.TransferResponse, 0, len(transfers)),
		Count:     len(transfers),
	}
	for _, transfer := range transfers {
		response.Transfers = append(response.Transfers, toTransferResponse(transfer))
	}

	h.WriteJSON(w, http.StatusOK, response)
}

// Update handles PATCH /api/transfers/{id} - partial update of the
// operator-editable fields.
func (h *TransfersHandler) Update(w http.ResponseWriter, r *http.Request) {
	transfer, ok := h.loadTransfer(w, r)
	if !ok {
		return
	}

	var req dto.UpdateTransferRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.WriteError(w, http.StatusBadRequest, dto.BadRequestError("invalid request body"))
		return
	}

	patch := storage.TransferPatch{
		OperatedAt: req.OperatedAt,
		Amount:     req.Amount,
		ShiftTag:   req.ShiftTag,
		Note:       req.Note,
	}
	if req.Amount != nil && *req.Amount == 0 {
		h.WriteError(w, http.StatusBadRequest, dto.ValidationError("amount must be nonzero"))
		return
	}
	if req.Channel != nil {
		channel := model.WalletChannel(*req.Channel)
		if !channel.Valid() {
			h.WriteError(w, http.StatusBadRequest, dto.ValidationError("unknown channel"))
			return
		}
		patch.Channel = &channel
	}

	if err := h.repo.UpdateTransfer(transfer.ID, patch); err != nil {
		h.WriteError(w, http.StatusInternalServerError, dto.InternalError())
		return
	}

	updated, err := h.repo.GetTransfer(transfer.ID)
	if err != nil {
		h.WriteError(w, http.StatusInternalServerError, dto.InternalError())
		return
	}

	h.WriteJSON(w, http.StatusOK, toTransferResponse(updated))
}

// Delete handles DELETE /api/transfers/{id}.
func (h *TransfersHandler) Delete(w http.ResponseWriter, r *http.Request) {
	transfer, ok := h.loadTransfer(w, r)
	if !ok {
		return
	}

	if err := h.repo.DeleteTransfer(transfer.ID); err != nil {
		h.WriteError(w, http.StatusInternalServerError, dto.InternalError())
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// Match handles POST /api/transfers/{id}/match - runs the strict matcher
// against the movements around the transfer's timestamp and persists the
// outcome.
func (h *TransfersHandler) Match(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if id == "" {
		h.WriteError(w, http.StatusBadRequest, dto.BadRequestError("transfer ID is required"))
		return
	}

	outcome, err := h.engine.MatchOne(r.Context(), id)
	if err != nil {
		switch {
		case errors.Is(err, storage.ErrNotFound):
			h.WriteError(w, http.StatusNotFound, dto.NotFoundError("transfer"))
		case errors.Is(err, reconcile.ErrFraudulent):
			h.WriteError(w, http.StatusConflict, dto.ConflictError("transfer is marked fraudulent"))
		default:
			h.WriteError(w, http.StatusInternalServerError, dto.InternalError())
		}
		return
	}

	h.WriteJSON(w, http.StatusOK, dto.MatchResponse{
		Matched:    outcome.Matched,
		Status:     string(outcome.Status),
		MovementID: outcome.MovementID,
		Reason:     outcome.Reason,
	})
}

// Explain handles GET /api/transfers/{id}/explain - returns the diagnostic
// for why the transfer does not match.
func (h *TransfersHandler) Explain(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if id == "" {
		h.WriteError(w, http.StatusBadRequest, dto.BadRequestError("transfer ID is required"))
		return
	}

	reason, err := h.engine.ExplainNoMatch(r.Context(), id)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			h.WriteError(w, http.StatusNotFound, dto.NotFoundError("transfer"))
			return
		}
		h.WriteError(w, http.StatusInternalServerError, dto.InternalError())
		return
	}

	h.WriteJSON(w, http.StatusOK, dto.ExplainResponse{
		TransferID: id,
		Reason:     reason,
	})
}

// FlagFraud handles POST /api/transfers/{id}/fraud - moves the transfer to
// the terminal fraudulent state.
func (h *TransfersHandler) FlagFraud(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if id == "" {
		h.WriteError(w, http.StatusBadRequest, dto.BadRequestError("transfer ID is required"))
		return
	}

	var req dto.FlagFraudRequest
	if r.Body != nil {
		_ = json.NewDecoder(r.Body).Decode(&req)
	}
	actor := req.Actor
	if actor == "" {
		actor = "api"
	}

	if err := h.engine.MarkFraudulent(r.Context(), id, actor); err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			h.WriteError(w, http.StatusNotFound, dto.NotFoundError("transfer"))
			return
		}
		h.WriteError(w, http.StatusInternalServerError, dto.InternalError())
		return
	}

	updated, err := h.repo.GetTransfer(id)
	if err != nil {
		h.WriteError(w, http.StatusInternalServerError, dto.InternalError())
		return
	}

	h.WriteJSON(w, http.StatusOK, toTransferResponse(updated))
}

// AttachReceipt handles POST /api/transfers/{id}/receipt - records where the
// uploaded receipt lives.
func (h *TransfersHandler) AttachReceipt(w http.ResponseWriter, r *http.Request) {
	transfer, ok := h.loadTransfer(w, r)
	if !ok {
		return
	}

	var req dto.AttachReceiptRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.WriteError(w, http.StatusBadRequest, dto.BadRequestError("invalid request body"))
		return
	}
	if req.URL == "" {
		h.WriteError(w, http.StatusBadRequest, dto.ValidationError("url is required"))
		return
	}

	now := time.Now()
	patch := storage.TransferPatch{
		ReceiptURL:        &req.URL,
		ReceiptFileID:     &req.FileID,
		ReceiptUploadedAt: &now,
	}
	if err := h.repo.UpdateTransfer(transfer.ID, patch); err != nil {
		h.WriteError(w, http.StatusInternalServerError, dto.InternalError())
		return
	}

	_ = h.repo.LogAudit(&storage.AuditEntry{
		TransferID: transfer.ID,
		Action:     "receipt_attached",
		Detail:     req.URL,
		Actor:      "api",
		CreatedAt:  now,
	})

	updated, err := h.repo.GetTransfer(transfer.ID)
	if err != nil {
		h.WriteError(w, http.StatusInternalServerError, dto.InternalError())
		return
	}

	h.WriteJSON(w, http.StatusOK, toTransferResponse(updated))
}

// Audit handles GET /api/transfers/{id}/audit - returns the transfer's
// audit trail, oldest first.
func (h *TransfersHandler) Audit(w http.ResponseWriter, r *http.Request) {
	transfer, ok := h.loadTransfer(w, r)
	if !ok {
		return
	}

	entries, err := h.repo.ListAuditByTransfer(transfer.ID)
	if err != nil {
		h.WriteError(w, http.StatusInternalServerError, dto.InternalError())
		return
	}

	response := dto.AuditListResponse{
		TransferID: transfer.ID,
		Entries:    make([]dto.AuditEntryResponse, 0, len(entries)),
		Count:      len(entries),
	}
	for _, entry := range entries {
		response.Entries = append(response.Entries, dto.AuditEntryResponse{
			ID:        entry.ID,
			Action:    entry.Action,
			Detail:    entry.Detail,
			Actor:     entry.Actor,
			CreatedAt: entry.CreatedAt.Format(time.RFC3339),
		})
	}

	h.WriteJSON(w, http.StatusOK, response)
}

// loadTransfer resolves the {id} URL param and fetches the transfer,
// writing the error response itself when that fails.
func (h *TransfersHandler) loadTransfer(w http.ResponseWriter, r *http.Request) (*model.Transfer, bool) {
	id := chi.URLParam(r, "id")
	if id == "" {
		h.WriteError(w, http.StatusBadRequest, dto.BadRequestError("transfer ID is required"))
		return nil, false
	}

	transfer, err := h.repo.GetTransfer(id)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			h.WriteError(w, http.StatusNotFound, dto.NotFoundError("transfer"))
			return nil, false
		}
		h.WriteError(w, http.StatusInternalServerError, dto.InternalError())
		return nil, false
	}

	return transfer, true
}

// toTransferResponse converts a transfer to an API response.
func toTransferResponse(transfer *model.Transfer) dto.TransferResponse {
	return dto.TransferResponse{
		TransferID:        transfer.ID,
		UserID:            transfer.UserID,
		OperatedAt:        transfer.OperatedAt.Format(time.RFC3339),
		Amount:            transfer.Amount,
		Channel:           string(transfer.Channel),
		Status:            string(transfer.Status),
		MovementID:        transfer.MovementID,
		ShiftTag:          transfer.ShiftTag,
		Note:              transfer.Note,
		ReceiptURL:        transfer.ReceiptURL,
		ReceiptFileID:     transfer.ReceiptFileID,
		ReceiptUploadedAt: transfer.ReceiptUploadedAt,
		CreatedAt:         transfer.CreatedAt.Format(time.RFC3339),
	}
}
