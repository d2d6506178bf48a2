package report

import (
	"sort"
	"time"

	"github.com/atenea-cash/atenea-backend/internal/domain/model"
)

const (
	dashboardDays   = 7
	dashboardLatest = 20
)

// DashboardTotals are the last-24-hour status counters
type DashboardTotals struct {
	Total      int `json:"total"`
	Matched    int `json:"matched"`
	Pending    int `json:"pending"`
	NoMatch    int `json:"no_match"`
	Duplicate  int `json:"duplicate"`
	Fraudulent int `json:"fraudulent"`
}

// DashboardEntry is one row of the latest-transfers table
type DashboardEntry struct {
	TransferID string       `json:"transfer_id"`
	UserID     string       `json:"user_id"`
	UserName   string       `json:"user_name"`
	Amount     float64      `json:"amount"`
	OperatedAt time.Time    `json:"operated_at"`
	Status     model.Status `json:"status"`
}

// ChartPoint is one day of the activity series
type ChartPoint struct {
	Date  string `json:"date"`
	Count int    `json:"count"`
}

// Dashboard is the live operational snapshot
type Dashboard struct {
	UpdatedAt time.Time        `json:"updated_at"`
	Totals    DashboardTotals  `json:"totals"`
	Latest    []DashboardEntry `json:"latest"`
	Chart     []ChartPoint     `json:"chart"`
}

// BuildDashboard assembles the snapshot: status counters over the last 24
// hours, a 7-day activity series, and the latest transfers regardless of age.
func (s *Service) BuildDashboard(now time.Time) (*Dashboard, error) {
	weekAgo := now.AddDate(0, 0, -(dashboardDays - 1))
	dayStart := time.Date(weekAgo.Year(), weekAgo.Month(), weekAgo.Day(), 0, 0, 0, 0, now.Location())

	transfers, err := s.repo.ListTransfersSince(dayStart)
	if err != nil {
		return nil, err
	}

	dash := &Dashboard{UpdatedAt: now}

	chart := make(map[string]int, dashboardDays)
	for d := 0; d < dashboardDays; d++ {
		chart[now.AddDate(0, 0, -d).Format(dateLayout)] = 0
	}

	dayAgo := now.Add(-24 * time.Hour)
	for _, tr := range transfers {
		if tr.OperatedAt.IsZero() {
			continue
		}
		if _, ok := chart[tr.OperatedAt.Format(dateLayout)]; ok {
			chart[tr.OperatedAt.Format(dateLayout)]++
		}
		if tr.OperatedAt.Before(dayAgo) || tr.OperatedAt.After(now) {
			continue
		}
		dash.Totals.Total++
		switch tr.Status {
		case model.StatusMatched:
			dash.Totals.Matched++
		case model.StatusPending:
			dash.Totals.Pending++
		case model.StatusNoMatch:
			dash.Totals.NoMatch++
		case model.StatusDuplicate:
			dash.Totals.Duplicate++
		case model.StatusFraudulent:
			dash.Totals.Fraudulent++
		}
	}

	// Newest first for the table
	sort.Slice(transfers, func(i, j int) bool {
		return transfers[i].OperatedAt.After(transfers[j].OperatedAt)
	})
	for _, tr := range transfers {
		if len(dash.Latest) == dashboardLatest {
			break
		}
		name := "unknown"
		if user, err := s.repo.GetUser(tr.UserID); err == nil {
			name = user.CanonicalName
		}
		dash.Latest = append(dash.Latest, DashboardEntry{
			TransferID: tr.ID,
			UserID:     tr.UserID,
			UserName:   name,
			Amount:     tr.Amount,
			OperatedAt: tr.OperatedAt,
			Status:     tr.Status,
		})
	}

	for d := dashboardDays - 1; d >= 0; d-- {
		label := now.AddDate(0, 0, -d).Format(dateLayout)
		dash.Chart = append(dash.Chart, ChartPoint{Date: label, Count: chart[label]})
	}
	return dash, nil
}
