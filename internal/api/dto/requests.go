package dto

import "time"

// CreateTransferRequest is the body of POST /api/transfers.
type CreateTransferRequest struct {
	UserID     string    `json:"user_id"`
	OperatedAt time.Time `json:"operated_at"`
	Amount     float64   `json:"amount"`
	Channel    string    `json:"channel"`
	ShiftTag   string    `json:"shift_tag,omitempty"`
	Note       string    `json:"note,omitempty"`
}

// UpdateTransferRequest is the body of PATCH /api/transfers/{id}.
// Nil fields are left unchanged.
type UpdateTransferRequest struct {
	OperatedAt *time.Time `json:"operated_at,omitempty"`
	Amount     *float64   `json:"amount,omitempty"`
	Channel    *string    `json:"channel,omitempty"`
	ShiftTag   *string    `json:"shift_tag,omitempty"`
	Note       *string    `json:"note,omitempty"`
}

// AttachReceiptRequest is the body of POST /api/transfers/{id}/receipt.
type AttachReceiptRequest struct {
	URL    string `json:"url"`
	FileID string `json:"file_id,omitempty"`
}

// FlagFraudRequest is the body of POST /api/transfers/{id}/fraud.
type FlagFraudRequest struct {
	Actor string `json:"actor,omitempty"`
}

// CreateUserRequest is the body of POST /api/users.
type CreateUserRequest struct {
	CanonicalName string `json:"canonical_name"`
	TaxID         string `json:"tax_id,omitempty"`
	WalletAlias   string `json:"wallet_alias,omitempty"`
	Organization  string `json:"organization,omitempty"`
	ExternalRef   string `json:"external_ref,omitempty"`
}

// UpdateUserRequest is the body of PATCH /api/users/{id}.
// Nil fields are left unchanged.
type UpdateUserRequest struct {
	CanonicalName *string `json:"canonical_name,omitempty"`
	TaxID         *string `json:"tax_id,omitempty"`
	WalletAlias   *string `json:"wallet_alias,omitempty"`
	Organization  *string `json:"organization,omitempty"`
	ExternalRef   *string `json:"external_ref,omitempty"`
	Active        *bool   `json:"active,omitempty"`
}
