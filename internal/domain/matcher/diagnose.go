package matcher

import (
	"fmt"
	"math"

	"github.com/atenea-cash/atenea-backend/internal/domain/model"
	"github.com/atenea-cash/atenea-backend/internal/domain/normalize"
)

// NoMatchReason explains why a transfer ended up unmatched. It re-derives
// the first unsatisfied filter in the same order the matcher applies them,
// so the explanation never points at a later filter than the one that
// actually blocked the match.
//
// pool must hold the movements sharing the transfer's identity key: same
// tax id when the user has one, same normalized name otherwise, already
// restricted to the diagnostic time range.
func (m *Matcher) NoMatchReason(transfer *model.Transfer, user *model.User, pool []*model.Movement) string {
	if transfer.OperatedAt.IsZero() {
		return "no valid operation timestamp"
	}
	name := normalize.Name(user.CanonicalName)
	if name == "" {
		return "user has no canonical name"
	}
	if !validAmount(transfer.Amount) {
		return "amount is invalid or zero"
	}

	taxID := normalize.TaxID(user.TaxID)
	hasTaxID := m.TrustsTaxID(taxID)

	if len(pool) == 0 {
		if hasTaxID {
			return "no movements in range with this tax id"
		}
		return "no movements in range with this name"
	}

	// Same name rule as the matcher, so the explanation never blames the
	// name when the matcher itself would have accepted it.
	namePool := pool[:0:0]
	for _, mov := range pool {
		if NamesOverlap(name, mov.NameNorm) {
			namePool = append(namePool, mov)
		}
	}
	if len(namePool) == 0 {
		if hasTaxID {
			return "movements with this tax id exist, but the name does not match"
		}
		return "movements in range, but the name does not match"
	}

	amountPool := namePool[:0:0]
	for _, mov := range namePool {
		if mov.Amount == transfer.Amount {
			amountPool = append(amountPool, mov)
		}
	}
	if len(amountPool) == 0 {
		return "name matches, but no movement with the exact amount"
	}

	inWindow := false
	for _, mov := range amountPool {
		if math.Abs(transfer.OperatedAt.Sub(mov.OccurredAt).Minutes()) <= float64(m.config.TimeWindowMinutes) {
			inWindow = true
			break
		}
	}
	if !inWindow {
		return fmt.Sprintf("amount and name match, but outside the configured window (%d min)", m.config.TimeWindowMinutes)
	}

	return "no match under the strict rule (check normalization or timestamps)"
}
