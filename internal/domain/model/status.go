package model

// Status is the lifecycle state of a transfer.
type Status string

const (
	// StatusPending is the initial state of every recorded transfer.
	StatusPending Status = "pending"
	// StatusMatched means a wallet movement has been assigned to the transfer.
	StatusMatched Status = "matched"
	// StatusNoMatch means reconciliation ran and found no qualifying movement.
	StatusNoMatch Status = "no_match"
	// StatusDuplicate means every qualifying movement was already assigned
	// to another transfer.
	StatusDuplicate Status = "duplicate"
	// StatusFraudulent is a manual, terminal override. No automated process
	// may leave this state.
	StatusFraudulent Status = "fraudulent"
)

// Valid reports whether s is one of the known statuses.
func (s Status) Valid() bool {
	switch s {
	case StatusPending, StatusMatched, StatusNoMatch, StatusDuplicate, StatusFraudulent:
		return true
	}
	return false
}

// Terminal reports whether no automated transition may leave s.
func (s Status) Terminal() bool {
	return s == StatusFraudulent
}

// Resolved reports whether s is an outcome the batch scan treats as final.
// Matched transfers are only re-evaluated by an explicit re-match call;
// fraudulent transfers are never touched again.
func (s Status) Resolved() bool {
	return s == StatusMatched || s == StatusFraudulent
}

// CanAutoTransitionTo reports whether an automated reconciliation pass may
// move a transfer from s to next. Explicit operator actions (re-match,
// fraud flag) are allowed wider latitude and do not go through this check.
func (s Status) CanAutoTransitionTo(next Status) bool {
	if s.Resolved() {
		return false
	}
	switch next {
	case StatusMatched, StatusNoMatch, StatusDuplicate:
		return true
	}
	return false
}
