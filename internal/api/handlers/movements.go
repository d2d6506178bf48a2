package handlers

import (
	"errors"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/atenea-cash/atenea-backend/internal/api/dto"
	"github.com/atenea-cash/atenea-backend/internal/application/importer"
	"github.com/atenea-cash/atenea-backend/internal/application/report"
	"github.com/atenea-cash/atenea-backend/internal/infrastructure/storage"
)

// maxImportSize bounds an uploaded wallet export at 32 MiB.
const maxImportSize = 32 << 20

// MovementsHandler handles wallet movement HTTP requests.
type MovementsHandler struct {
	*Base
	importer *importer.Importer
	reports  *report.Service
}

// NewMovementsHandler creates a new movements handler.
func NewMovementsHandler(repo storage.Repository, imp *importer.Importer, reports *report.Service) *MovementsHandler {
	return &MovementsHandler{
		Base:     NewBase(repo),
		importer: imp,
		reports:  reports,
	}
}

// Import handles POST /api/movements/import - loads a wallet CSV export.
// The file arrives either as a multipart "file" part or as the raw body
// with a ?filename= parameter; the wallet channel is inferred from the
// file name in both cases.
func (h *MovementsHandler) Import(w http.ResponseWriter, r *http.Request) {
	body, fileName, err := h.importPayload(r)
	if err != nil {
		h.WriteError(w, http.StatusBadRequest, dto.BadRequestError(err.Error()))
		return
	}
	defer body.Close()

	result, err := h.importer.ImportCSV(body, fileName)
	if err != nil {
		if errors.Is(err, importer.ErrMissingColumns) {
			h.WriteError(w, http.StatusBadRequest, dto.ValidationError(err.Error()))
			return
		}
		h.WriteError(w, http.StatusInternalServerError, dto.InternalError())
		return
	}

	h.WriteJSON(w, http.StatusOK, dto.ImportResponse{
		Imported:   result.Imported,
		Skipped:    result.Skipped,
		Channel:    string(result.Channel),
		SourceFile: result.SourceFile,
	})
}

// Orphans handles GET /api/movements/orphans - lists recent inflows no
// matched transfer covers.
func (h *MovementsHandler) Orphans(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query().Get("q")

	orphans, err := h.reports.Orphans(time.Now(), query)
	if err != nil {
		h.WriteError(w, http.StatusInternalServerError, dto.InternalError())
		return
	}

	response := dto.OrphanListResponse{
		Orphans: make([]dto.OrphanResponse, 0, len(orphans)),
		Count:   len(orphans),
	}
	for _, orphan := range orphans {
		response.Orphans = append(response.Orphans, dto.OrphanResponse{
			MovementID: orphan.MovementID,
			OccurredAt: orphan.OccurredAt.Format(time.RFC3339),
			PayerName:  orphan.PayerName,
			Amount:     orphan.Amount,
			Channel:    string(orphan.Channel),
		})
	}

	h.WriteJSON(w, http.StatusOK, response)
}

// importPayload extracts the CSV stream and its file name from the request.
func (h *MovementsHandler) importPayload(r *http.Request) (io.ReadCloser, string, error) {
	r.Body = http.MaxBytesReader(nil, r.Body, maxImportSize)

	if strings.HasPrefix(r.Header.Get("Content-Type"), "multipart/form-data") {
		file, header, err := r.FormFile("file")
		if err != nil {
			return nil, "", errors.New("multipart request must carry a \"file\" part")
		}
		return file, header.Filename, nil
	}

	fileName := r.URL.Query().Get("filename")
	if fileName == "" {
		return nil, "", errors.New("filename query parameter is required")
	}
	return r.Body, fileName, nil
}
