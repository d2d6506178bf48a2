package dto

import "time"

// HealthResponse is returned by the health check endpoint.
type HealthResponse struct {
	Status    string `json:"status"`
	Timestamp string `json:"timestamp"`
}

// TransferResponse represents a transfer in API responses.
type TransferResponse struct {
	TransferID        string     `json:"transfer_id"`
	UserID            string     `json:"user_id"`
	OperatedAt        string     `json:"operated_at"`
	Amount            float64    `json:"amount"`
	Channel           string     `json:"channel"`
	Status            string     `json:"status"`
	MovementID        string     `json:"movement_id,omitempty"`
	ShiftTag          string     `json:"shift_tag,omitempty"`
	Note              string     `json:"note,omitempty"`
	ReceiptURL        string     `json:"receipt_url,omitempty"`
	ReceiptFileID     string     `json:"receipt_file_id,omitempty"`
	ReceiptUploadedAt *time.Time `json:"receipt_uploaded_at,omitempty"`
	CreatedAt         string     `json:"created_at"`
}

// TransferListResponse is returned when listing transfers.
type TransferListResponse struct {
	Transfers []TransferResponse `json:"transfers"`
	Count     int                `json:"count"`
}

// MatchResponse is the outcome of a match attempt on a single transfer.
type MatchResponse struct {
	Matched    bool   `json:"matched"`
	Status     string `json:"status"`
	MovementID string `json:"movement_id,omitempty"`
	Reason     string `json:"reason,omitempty"`
}

// ExplainResponse carries the diagnostic for an unmatched transfer.
type ExplainResponse struct {
	TransferID string `json:"transfer_id"`
	Reason     string `json:"reason"`
}

// UserResponse represents a user in API responses.
type UserResponse struct {
	UserID        string `json:"user_id"`
	CanonicalName string `json:"canonical_name"`
	TaxID         string `json:"tax_id,omitempty"`
	WalletAlias   string `json:"wallet_alias,omitempty"`
	Organization  string `json:"organization,omitempty"`
	ExternalRef   string `json:"external_ref,omitempty"`
	Active        bool   `json:"active"`
	CreatedAt     string `json:"created_at"`
}

// UserListResponse is returned when searching users.
type UserListResponse struct {
	Users []UserResponse `json:"users"`
	Query string         `json:"query"`
	Count int            `json:"count"`
}

// ImportResponse summarizes a wallet export import.
type ImportResponse struct {
	Imported   int    `json:"imported"`
	Skipped    int    `json:"skipped"`
	Channel    string `json:"channel"`
	SourceFile string `json:"source_file"`
}

// OrphanResponse is one unclaimed wallet inflow.
type OrphanResponse struct {
	MovementID string  `json:"movement_id"`
	OccurredAt string  `json:"occurred_at"`
	PayerName  string  `json:"payer_name"`
	Amount     float64 `json:"amount"`
	Channel    string  `json:"channel"`
}

// OrphanListResponse is returned when listing orphan movements.
type OrphanListResponse struct {
	Orphans []OrphanResponse `json:"orphans"`
	Count   int              `json:"count"`
}

// SyncResultResponse summarizes a batch run triggered over the API.
type SyncResultResponse struct {
	RunID      int64  `json:"run_id"`
	Processed  int    `json:"processed"`
	Matched    int    `json:"matched"`
	Unmatched  int    `json:"unmatched"`
	Duplicates int    `json:"duplicates"`
	Cutoff     string `json:"cutoff,omitempty"`
}

// SyncRunResponse represents a historical batch run.
type SyncRunResponse struct {
	ID          int64  `json:"id"`
	StartedAt   string `json:"started_at"`
	CompletedAt string `json:"completed_at,omitempty"`
	Processed   int    `json:"processed"`
	Matched     int    `json:"matched"`
	Unmatched   int    `json:"unmatched"`
	Duplicates  int    `json:"duplicates"`
	Cutoff      string `json:"cutoff,omitempty"`
	Status      string `json:"status"`
	Error       string `json:"error,omitempty"`
}

// SyncRunListResponse is returned when listing batch runs.
type SyncRunListResponse struct {
	Runs  []SyncRunResponse `json:"runs"`
	Count int               `json:"count"`
}

// DailyTotalResponse is one day-and-channel row of the control report.
// Monetary figures are serialized as strings to keep cent precision.
type DailyTotalResponse struct {
	Date     string `json:"date"`
	Channel  string `json:"channel"`
	Declared string `json:"declared"`
	Matched  string `json:"matched"`
	RealIn   string `json:"real_in"`
	RealOut  string `json:"real_out"`
}

// DailyTotalListResponse is returned by the control report endpoint.
type DailyTotalListResponse struct {
	Totals []DailyTotalResponse `json:"totals"`
	From   string               `json:"from"`
	To     string               `json:"to"`
}

// AuditEntryResponse is one line of a transfer's audit trail.
type AuditEntryResponse struct {
	ID        int64  `json:"id"`
	Action    string `json:"action"`
	Detail    string `json:"detail,omitempty"`
	Actor     string `json:"actor,omitempty"`
	CreatedAt string `json:"created_at"`
}

// AuditListResponse is returned when listing a transfer's audit trail.
type AuditListResponse struct {
	TransferID string               `json:"transfer_id"`
	Entries    []AuditEntryResponse `json:"entries"`
	Count      int                  `json:"count"`
}

// NewHealthResponse creates a health response with current timestamp.
func NewHealthResponse() HealthResponse {
	return HealthResponse{
		Status:    "ok",
		Timestamp: time.Now().UTC().Format(time.RFC3339),
	}
}
