// Package report builds the operational reports: declared-vs-real daily
// totals per wallet, unaccounted wallet inflows (orphans), and the live
// dashboard snapshot.
package report

import (
	"log/slog"
	"sort"
	"time"

	"github.com/shopspring/decimal"

	"github.com/atenea-cash/atenea-backend/internal/domain/model"
	"github.com/atenea-cash/atenea-backend/internal/infrastructure/storage"
)

const dateLayout = "2006-01-02"

// Service computes reports from stored transfers and movements
type Service struct {
	repo          storage.Repository
	windowMinutes int
	logger        *slog.Logger
}

// NewService creates a report service. windowMinutes is the same matching
// window the batch uses; the orphan report needs it to decide whether a
// matched transfer accounts for a given inflow.
func NewService(repo storage.Repository, windowMinutes int, logger *slog.Logger) *Service {
	return &Service{repo: repo, windowMinutes: windowMinutes, logger: logger}
}

// DailyTotal compares what operators declared against what the wallet
// actually moved, for one day and channel. Sums are exact decimals.
type DailyTotal struct {
	Date     string              `json:"date"`
	Channel  model.WalletChannel `json:"channel"`
	Declared decimal.Decimal     `json:"declared"`
	Matched  decimal.Decimal     `json:"matched"`
	RealIn   decimal.Decimal     `json:"real_in"`
	RealOut  decimal.Decimal     `json:"real_out"`
}

// DailyTotals aggregates per day and channel over [from, to]: the declared
// transfer total, the portion already matched, and the wallet's real inflow
// and outflow totals.
func (s *Service) DailyTotals(from, to time.Time) ([]DailyTotal, error) {
	transfers, err := s.repo.ListTransfersSince(from)
	if err != nil {
		return nil, err
	}

	type key struct {
		date    string
		channel model.WalletChannel
	}
	totals := make(map[key]*DailyTotal)
	bucket := func(k key) *DailyTotal {
		t, ok := totals[k]
		if !ok {
			t = &DailyTotal{Date: k.date, Channel: k.channel}
			totals[k] = t
		}
		return t
	}

	for _, tr := range transfers {
		if tr.OperatedAt.IsZero() || tr.OperatedAt.After(to) {
			continue
		}
		k := key{tr.OperatedAt.Format(dateLayout), tr.Channel}
		amount := decimal.NewFromFloat(tr.Amount)
		b := bucket(k)
		b.Declared = b.Declared.Add(amount)
		if tr.Status == model.StatusMatched {
			b.Matched = b.Matched.Add(amount)
		}
	}

	movements, err := s.repo.ListMovementsInRange(from, to)
	if err != nil {
		return nil, err
	}
	for _, mov := range movements {
		k := key{mov.OccurredAt.Format(dateLayout), mov.Channel}
		amount := decimal.NewFromFloat(mov.Amount)
		b := bucket(k)
		if mov.Amount > 0 {
			b.RealIn = b.RealIn.Add(amount)
		} else {
			b.RealOut = b.RealOut.Add(amount)
		}
	}

	out := make([]DailyTotal, 0, len(totals))
	for _, t := range totals {
		out = append(out, *t)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Date != out[j].Date {
			return out[i].Date < out[j].Date
		}
		return out[i].Channel < out[j].Channel
	})
	return out, nil
}
