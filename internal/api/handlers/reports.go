package handlers

import (
	"net/http"
	"time"

	"github.com/atenea-cash/atenea-backend/internal/api/dto"
	"github.com/atenea-cash/atenea-backend/internal/application/report"
	"github.com/atenea-cash/atenea-backend/internal/infrastructure/storage"
)

// ReportsHandler handles control report and dashboard HTTP requests.
type ReportsHandler struct {
	*Base
	reports *report.Service
}

// NewReportsHandler creates a new reports handler.
func NewReportsHandler(repo storage.Repository, reports *report.Service) *ReportsHandler {
	return &ReportsHandler{
		Base:    NewBase(repo),
		reports: reports,
	}
}

// DailyTotals handles GET /api/reports/daily - per day and channel, the
// declared transfer totals against the wallet's real inflows and outflows.
// Defaults to the last 7 days.
func (h *ReportsHandler) DailyTotals(w http.ResponseWriter, r *http.Request) {
	now := time.Now()
	defaultFrom := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, now.Location()).AddDate(0, 0, -6)

	from := ParseDateParam(r, "from", defaultFrom)
	to := ParseDateParam(r, "to", now)
	if to.Before(from) {
		h.WriteError(w, http.StatusBadRequest, dto.BadRequestError("to must not precede from"))
		return
	}
	// Make the upper bound cover the whole day.
	to = time.Date(to.Year(), to.Month(), to.Day(), 23, 59, 59, 0, to.Location())

	totals, err := h.reports.DailyTotals(from, to)
	if err != nil {
		h.WriteError(w, http.StatusInternalServerError, dto.InternalError())
		return
	}

	response := dto.DailyTotalListResponse{
		Totals: make([]dto.DailyTotalResponse, 0, len(totals)),
		From:   from.Format("2006-01-02"),
		To:     to.Format("2006-01-02"),
	}
	for _, total := range totals {
		response.Totals = append(response.Totals, dto.DailyTotalResponse{
			Date:     total.Date,
			Channel:  string(total.Channel),
			Declared: total.Declared.StringFixed(2),
			Matched:  total.Matched.StringFixed(2),
			RealIn:   total.RealIn.StringFixed(2),
			RealOut:  total.RealOut.StringFixed(2),
		})
	}

	h.WriteJSON(w, http.StatusOK, response)
}

// Dashboard handles GET /api/dashboard - the live operational snapshot.
func (h *ReportsHandler) Dashboard(w http.ResponseWriter, r *http.Request) {
	dash, err := h.reports.BuildDashboard(time.Now())
	if err != nil {
		h.WriteError(w, http.StatusInternalServerError, dto.InternalError())
		return
	}

	h.WriteJSON(w, http.StatusOK, dash)
}

// Stats handles GET /api/stats - the last-24-hour status counters alone,
// for a cheap frontend poll.
func (h *ReportsHandler) Stats(w http.ResponseWriter, r *http.Request) {
	dash, err := h.reports.BuildDashboard(time.Now())
	if err != nil {
		h.WriteError(w, http.StatusInternalServerError, dto.InternalError())
		return
	}

	h.WriteJSON(w, http.StatusOK, dash.Totals)
}
