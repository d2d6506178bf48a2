package matcher

// Config holds the matching rule parameters.
type Config struct {
	// TimeWindowMinutes is the batch-path tolerance between a transfer's
	// operation time and a movement's timestamp. A candidate exactly at
	// the window is accepted.
	TimeWindowMinutes int
	// AmountTolerance is the strict upper bound on the allowed amount
	// difference. A movement differing by exactly this much is rejected.
	AmountTolerance float64
	// TaxIDMinDigits is the digit count a normalized tax id must exceed
	// before it is trusted as a match key.
	TaxIDMinDigits int
}

// DefaultConfig returns the production defaults: a 15 minute window, one
// currency unit of amount tolerance to absorb rounding, and tax ids only
// trusted past 5 digits.
func DefaultConfig() Config {
	return Config{
		TimeWindowMinutes: 15,
		AmountTolerance:   1.0,
		TaxIDMinDigits:    5,
	}
}

// Result is the outcome of one matching attempt for one transfer.
type Result struct {
	// Matched is true when a qualifying, unclaimed movement was found.
	Matched bool
	// MovementID identifies the matched movement when Matched is true.
	MovementID string
	// DeltaMinutes is the absolute time distance to the matched movement.
	DeltaMinutes float64
	// AlreadyClaimed is true when at least one movement satisfied the rule
	// but every such movement was already assigned to another transfer.
	// The transfer should surface as a duplicate, not a plain no-match.
	AlreadyClaimed bool
	// Reason explains a failed match. Empty on success.
	Reason string
}

const (
	ReasonInvalidTimestamp = "invalid timestamp"
	ReasonInvalidAmount    = "invalid amount"
	ReasonNoAmountInRange  = "no inflow of this amount in range"
	ReasonHolderMismatch   = "amount matches but holder identity does not"
	ReasonAlreadyClaimed   = "movement already assigned to another transfer"
	ReasonNoMatch          = "no match within the configured window"
)
