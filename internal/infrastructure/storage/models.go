package storage

import (
	"strings"
	"time"

	"github.com/atenea-cash/atenea-backend/internal/domain/model"
)

// SyncRun represents one batch reconciliation run
type SyncRun struct {
	ID          int64      `json:"id"`
	StartedAt   time.Time  `json:"started_at"`
	CompletedAt *time.Time `json:"completed_at,omitempty"`
	Processed   int        `json:"processed"`
	Matched     int        `json:"matched"`
	Unmatched   int        `json:"unmatched"`
	Duplicates  int        `json:"duplicates"`
	Cutoff      *time.Time `json:"cutoff,omitempty"`
	Status      string     `json:"status"`
	Error       string     `json:"error,omitempty"`
}

// Sync run statuses
const (
	SyncRunRunning   = "running"
	SyncRunCompleted = "completed"
	SyncRunFailed    = "failed"
)

// AuditEntry is one line of a transfer's audit trail
type AuditEntry struct {
	ID         int64     `json:"id"`
	TransferID string    `json:"transfer_id"`
	Action     string    `json:"action"`
	Detail     string    `json:"detail,omitempty"`
	Actor      string    `json:"actor,omitempty"`
	CreatedAt  time.Time `json:"created_at"`
}

// TransferPatch carries the mutable transfer fields for partial updates.
// Nil pointers leave the stored value untouched.
type TransferPatch struct {
	OperatedAt        *time.Time
	Amount            *float64
	Channel           *model.WalletChannel
	ShiftTag          *string
	Note              *string
	ReceiptURL        *string
	ReceiptFileID     *string
	ReceiptUploadedAt *time.Time
}

// UserPatch carries the mutable user fields for partial updates
type UserPatch struct {
	CanonicalName *string
	TaxID         *string
	WalletAlias   *string
	Organization  *string
	ExternalRef   *string
	Active        *bool
}

// splitLegacyNote separates the old combined "Turno=X | free text" annotation
// into its shift tag and note parts. Input without the Turno prefix comes
// back unchanged as the note.
func splitLegacyNote(raw string) (shiftTag, note string) {
	s := strings.TrimSpace(raw)
	if !strings.HasPrefix(s, "Turno=") {
		return "", s
	}
	rest := strings.TrimPrefix(s, "Turno=")
	if i := strings.Index(rest, "|"); i >= 0 {
		return strings.TrimSpace(rest[:i]), strings.TrimSpace(rest[i+1:])
	}
	return strings.TrimSpace(rest), ""
}
