// Package matcher implements the strict reconciliation rule that pairs a
// manually recorded transfer with a wallet ledger movement.
//
// The rule is strict, not probabilistic:
//   - Amount must agree within a fixed tolerance (default 1 currency unit)
//   - The movement must be on the transfer's wallet channel
//   - Holder identity must agree: exact tax id equality when the user has a
//     trustworthy tax id, bidirectional name containment (tolerating word
//     reordering) otherwise
//   - A tax id match wins regardless of name agreement (a payer registered
//     with first and last name reversed still matches)
//
// Two entry points exist. FindMatch serves the interactive path, where an
// operator reviews one transfer against a pre-filtered candidate list.
// FindMatchFast serves the unattended batch path, where candidates come
// from an Index and the time window is enforced here.
package matcher

import (
	"math"
	"strings"
	"time"

	"github.com/atenea-cash/atenea-backend/internal/domain/model"
	"github.com/atenea-cash/atenea-backend/internal/domain/normalize"
)

// Matcher applies the strict matching rule.
type Matcher struct {
	config Config
}

// New creates a matcher with the given config.
func New(config Config) *Matcher {
	return &Matcher{config: config}
}

// FindMatch decides whether any of the candidate movements satisfies the
// match contract for the transfer. Candidates must already be filtered to
// the caller's time span; the interactive path deliberately uses a wider
// span than the batch window so an operator can confirm a slightly
// off-window candidate.
//
// The first satisfying movement in candidate order wins. Ledger input order
// is the tiebreak; a tax id + amount pair is assumed unique inside a window.
func (m *Matcher) FindMatch(transfer *model.Transfer, user *model.User, candidates []*model.Movement) *Result {
	if transfer.OperatedAt.IsZero() {
		return &Result{Reason: ReasonInvalidTimestamp}
	}
	if !validAmount(transfer.Amount) {
		return &Result{Reason: ReasonInvalidAmount}
	}

	pool := make([]*model.Movement, 0, len(candidates))
	for _, mov := range candidates {
		if !mov.Inflow() || mov.Channel != transfer.Channel {
			continue
		}
		if math.Abs(mov.Amount-transfer.Amount) >= m.config.AmountTolerance {
			continue
		}
		pool = append(pool, mov)
	}
	if len(pool) == 0 {
		return &Result{Reason: ReasonNoAmountInRange}
	}

	// Tax id wins: exact equality on the normalized id overrides any name
	// disagreement.
	taxID := normalize.TaxID(user.TaxID)
	if m.TrustsTaxID(taxID) {
		for _, mov := range pool {
			if mov.TaxIDNorm == taxID {
				return &Result{
					Matched:      true,
					MovementID:   mov.ID,
					DeltaMinutes: deltaMinutes(transfer.OperatedAt, mov.OccurredAt),
				}
			}
		}
	}

	// Fallback: bidirectional name containment, tolerating partial or
	// abbreviated names on either side.
	name := normalize.Name(user.CanonicalName)
	if name == "" {
		return &Result{Reason: ReasonHolderMismatch}
	}
	for _, mov := range pool {
		if NamesOverlap(name, normalize.Name(mov.PayerName)) || NamesOverlap(name, mov.NameNorm) {
			return &Result{
				Matched:      true,
				MovementID:   mov.ID,
				DeltaMinutes: deltaMinutes(transfer.OperatedAt, mov.OccurredAt),
			}
		}
	}

	return &Result{Reason: ReasonHolderMismatch}
}

// FindMatchFast is the batch-path equivalent of FindMatch, driven by an
// Index instead of a candidate slice. The time window is enforced here, and
// movements already present in used are skipped while remembering that a
// qualifying movement existed; that distinguishes a duplicate claim from a
// genuine no-match.
//
// used is the per-run used-movement set. It is read but never written;
// recording a claimed movement is the caller's job.
func (m *Matcher) FindMatchFast(transfer *model.Transfer, user *model.User, ix *Index, used map[string]bool) *Result {
	if transfer.OperatedAt.IsZero() {
		return &Result{Reason: ReasonInvalidTimestamp}
	}
	if !validAmount(transfer.Amount) {
		return &Result{Reason: ReasonInvalidAmount}
	}

	claimed := false

	taxID := normalize.TaxID(user.TaxID)
	if m.TrustsTaxID(taxID) {
		if res := m.scanBucket(transfer, ix.TaxIDBucket(taxID, transfer.Amount), used, &claimed); res != nil {
			return res
		}
	}

	if name := normalize.Name(user.CanonicalName); name != "" {
		if res := m.scanBucket(transfer, ix.NameBucket(name, transfer.Amount), used, &claimed); res != nil {
			return res
		}
	}

	if claimed {
		return &Result{AlreadyClaimed: true, Reason: ReasonAlreadyClaimed}
	}
	return &Result{Reason: ReasonNoMatch}
}

// scanBucket walks one index bucket and returns the first unused movement
// on the transfer's channel within the time window, or nil when the bucket
// holds none.
func (m *Matcher) scanBucket(transfer *model.Transfer, bucket []*model.Movement, used map[string]bool, claimed *bool) *Result {
	for _, mov := range bucket {
		if mov.Channel != transfer.Channel {
			continue
		}
		delta := deltaMinutes(transfer.OperatedAt, mov.OccurredAt)
		if delta > float64(m.config.TimeWindowMinutes) {
			continue
		}
		if used[mov.ID] {
			*claimed = true
			continue
		}
		return &Result{
			Matched:      true,
			MovementID:   mov.ID,
			DeltaMinutes: math.Round(delta*10) / 10,
		}
	}
	return nil
}

// TrustsTaxID reports whether a normalized tax id is long enough to serve
// as a match key. Shorter ids fall through to the name rule.
func (m *Matcher) TrustsTaxID(taxID string) bool {
	return len(taxID) > m.config.TaxIDMinDigits
}

// NamesOverlap decides whether two normalized names identify the same
// holder: either one contains the other, or every word of one appears
// among the words of the other, so "perez juan" still agrees with
// "juan perez". Empty names never overlap.
func NamesOverlap(a, b string) bool {
	if a == "" || b == "" {
		return false
	}
	if strings.Contains(a, b) || strings.Contains(b, a) {
		return true
	}
	return wordsContained(a, b) || wordsContained(b, a)
}

// wordsContained reports whether every word of a is a word of b.
func wordsContained(a, b string) bool {
	words := strings.Fields(b)
	for _, w := range strings.Fields(a) {
		found := false
		for _, bw := range words {
			if w == bw {
				found = true
				break
			}
		}
		if !found {
			return false
		}
	}
	return true
}

func validAmount(amount float64) bool {
	return amount != 0 && !math.IsNaN(amount) && !math.IsInf(amount, 0)
}

func deltaMinutes(a, b time.Time) float64 {
	return math.Abs(a.Sub(b).Minutes())
}
