// Package model holds the core record types of the reconciliation system:
// users, manually recorded transfers, and imported wallet movements.
//
// Records are constructed once at the storage boundary. Everything past
// that boundary works with these named types; nothing indexes fields
// positionally.
package model

import "time"

// User is a customer in the directory. Matching only ever reads the
// normalized projections of CanonicalName and TaxID.
type User struct {
	ID            string    `json:"user_id"`
	CanonicalName string    `json:"canonical_name"`
	TaxID         string    `json:"tax_id,omitempty"`
	WalletAlias   string    `json:"wallet_alias,omitempty"`
	Organization  string    `json:"organization,omitempty"`
	ExternalRef   string    `json:"external_ref,omitempty"`
	Active        bool      `json:"active"`
	CreatedAt     time.Time `json:"created_at"`
}

// Transfer is a manually recorded cash transfer awaiting reconciliation
// against the wallet ledger.
//
// Invariant: MovementID is non-empty iff Status is StatusMatched.
type Transfer struct {
	ID         string        `json:"transfer_id"`
	UserID     string        `json:"user_id"`
	OperatedAt time.Time     `json:"operated_at"`
	Amount     float64       `json:"amount"`
	Channel    WalletChannel `json:"wallet_channel"`
	Status     Status        `json:"status"`
	// MovementID is the wallet movement assigned by a successful match.
	MovementID string `json:"movement_id,omitempty"`
	ShiftTag   string `json:"shift_tag,omitempty"`
	Note       string `json:"note,omitempty"`
	// Receipt metadata. The file itself lives in external document storage.
	ReceiptURL        string     `json:"receipt_url,omitempty"`
	ReceiptFileID     string     `json:"receipt_file_id,omitempty"`
	ReceiptUploadedAt *time.Time `json:"receipt_uploaded_at,omitempty"`
	CreatedAt         time.Time  `json:"created_at"`
}

// Movement is one row of the externally supplied wallet ledger. Movements
// are immutable once imported and are deduplicated by ID at import time.
type Movement struct {
	ID         string        `json:"movement_id"`
	Channel    WalletChannel `json:"wallet_channel"`
	OccurredAt time.Time     `json:"occurred_at"`
	// Amount is signed: positive is an inflow, negative an outflow. Only
	// inflows participate in matching.
	Amount     float64   `json:"amount"`
	PayerName  string    `json:"payer_name"`
	PayerTaxID string    `json:"payer_tax_id,omitempty"`
	NameNorm   string    `json:"-"`
	TaxIDNorm  string    `json:"-"`
	ImportedAt time.Time `json:"imported_at"`
	SourceFile string    `json:"source_file,omitempty"`
}

// Inflow reports whether the movement is money entering the wallet.
func (m *Movement) Inflow() bool {
	return m.Amount > 0
}
