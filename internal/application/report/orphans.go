package report

import (
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/atenea-cash/atenea-backend/internal/domain/model"
	"github.com/atenea-cash/atenea-backend/internal/domain/normalize"
)

// Orphan is a wallet inflow no registered transfer accounts for
type Orphan struct {
	MovementID string              `json:"movement_id"`
	OccurredAt time.Time           `json:"occurred_at"`
	PayerName  string              `json:"payer_name"`
	Amount     float64             `json:"amount"`
	Channel    model.WalletChannel `json:"channel"`
}

// Orphans lists recent inflows (since the start of yesterday) that no
// matched transfer covers. A matched transfer accounts for one inflow of
// the same normalized name and amount within the matching window; each
// transfer covers at most one inflow.
//
// query optionally filters by payer name (normalized containment) or by the
// amount's digits.
func (s *Service) Orphans(now time.Time, query string) ([]Orphan, error) {
	yesterdayStart := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, now.Location()).AddDate(0, 0, -1)

	claims, err := s.matchedClaims(yesterdayStart)
	if err != nil {
		return nil, err
	}

	movements, err := s.repo.ListMovementsInRange(yesterdayStart, now)
	if err != nil {
		return nil, err
	}

	qNorm := normalize.Name(query)
	window := time.Duration(s.windowMinutes) * time.Minute

	var orphans []Orphan
	for _, mov := range movements {
		if !mov.Inflow() {
			continue
		}
		if query != "" && !matchesQuery(mov, qNorm, query) {
			continue
		}

		key := mov.NameNorm + "|" + strconv.FormatFloat(mov.Amount, 'f', -1, 64)
		if consumeClaim(claims[key], mov.OccurredAt, window) {
			continue
		}

		orphans = append(orphans, Orphan{
			MovementID: mov.ID,
			OccurredAt: mov.OccurredAt,
			PayerName:  mov.PayerName,
			Amount:     mov.Amount,
			Channel:    mov.Channel,
		})
	}

	sort.Slice(orphans, func(i, j int) bool {
		return orphans[i].OccurredAt.After(orphans[j].OccurredAt)
	})
	return orphans, nil
}

// claim is one matched transfer able to account for a single inflow
type claim struct {
	at   time.Time
	used bool
}

// matchedClaims indexes matched transfers by "name|amount". The range is
// widened backwards by a day so a transfer operated late the previous day
// still covers an early inflow.
func (s *Service) matchedClaims(since time.Time) (map[string][]*claim, error) {
	transfers, err := s.repo.ListTransfersSince(since.AddDate(0, 0, -1))
	if err != nil {
		return nil, err
	}

	claims := make(map[string][]*claim)
	for _, tr := range transfers {
		if tr.Status != model.StatusMatched || tr.OperatedAt.IsZero() {
			continue
		}
		user, err := s.repo.GetUser(tr.UserID)
		if err != nil {
			continue
		}
		key := normalize.Name(user.CanonicalName) + "|" + strconv.FormatFloat(tr.Amount, 'f', -1, 64)
		claims[key] = append(claims[key], &claim{at: tr.OperatedAt})
	}
	return claims, nil
}

// consumeClaim marks the first unused claim within the window as used
func consumeClaim(candidates []*claim, at time.Time, window time.Duration) bool {
	for _, c := range candidates {
		if c.used {
			continue
		}
		diff := c.at.Sub(at)
		if diff < 0 {
			diff = -diff
		}
		if diff <= window {
			c.used = true
			return true
		}
	}
	return false
}

func matchesQuery(mov *model.Movement, qNorm, raw string) bool {
	if qNorm != "" && strings.Contains(normalize.Name(mov.PayerName), qNorm) {
		return true
	}
	amount := strconv.FormatFloat(mov.Amount, 'f', -1, 64)
	return strings.Contains(amount, strings.TrimSpace(raw))
}
