package storage

import (
	"time"

	"github.com/atenea-cash/atenea-backend/internal/domain/model"
)

// Repository defines the complete storage interface.
// This interface allows swapping implementations (SQLite, PostgreSQL, etc.)
// and makes testing with mocks straightforward.
type Repository interface {
	TransferStore
	MovementFeed
	UserDirectory
	SyncRunStore
	AuditLog
	Close() error
}

// TransferStore handles transfer record operations
type TransferStore interface {
	// CreateTransfer inserts a new transfer in status pending
	CreateTransfer(transfer *model.Transfer) error

	// GetTransfer retrieves a transfer by id
	GetTransfer(id string) (*model.Transfer, error)

	// ListTransfersByUser returns a user's transfers, most recent first
	ListTransfersByUser(userID string, limit int) ([]*model.Transfer, error)

	// ListTransfersSince returns transfers operated at or after the given time
	ListTransfersSince(since time.Time) ([]*model.Transfer, error)

	// ListUnresolved returns transfers in a status the batch may still settle
	// (pending, no_match, duplicate), operated at or before cutoff and within
	// maxLookbackDays of it, ordered by operation time ascending
	ListUnresolved(cutoff time.Time, maxLookbackDays int) ([]*model.Transfer, error)

	// ListAssignedMovementIDs returns the movement ids already claimed by
	// matched transfers
	ListAssignedMovementIDs() (map[string]bool, error)

	// SetTransferStatus updates a transfer's status; movementID is stored
	// when the status is matched and cleared otherwise
	SetTransferStatus(id string, status model.Status, movementID string) error

	// UpdateTransfer applies a partial update to mutable transfer fields
	UpdateTransfer(id string, patch TransferPatch) error

	// DeleteTransfer removes a transfer permanently
	DeleteTransfer(id string) error
}

// MovementFeed handles imported wallet ledger movements
type MovementFeed interface {
	// InsertMovements stores new movements, silently skipping ids already
	// present, and returns how many were actually inserted
	InsertMovements(movements []*model.Movement) (int, error)

	// ListMovementsInRange returns movements with from <= occurred_at <= to,
	// in occurrence order
	ListMovementsInRange(from, to time.Time) ([]*model.Movement, error)

	// LatestMovementTimestamp returns the most recent movement time, the
	// batch cutoff. Zero time when no movements exist.
	LatestMovementTimestamp() (time.Time, error)

	// ListMovementIDs returns every stored movement id
	ListMovementIDs() (map[string]bool, error)
}

// UserDirectory handles registered cash-transfer users
type UserDirectory interface {
	// CreateUser inserts a new user
	CreateUser(user *model.User) error

	// GetUser retrieves a user by id
	GetUser(id string) (*model.User, error)

	// UpdateUser applies a partial update to a user
	UpdateUser(id string, patch UserPatch) error

	// SearchUsers returns active users whose name, alias, or external ref
	// contains the query, or whose tax id digits equal the query's digits
	SearchUsers(query string, limit int) ([]*model.User, error)
}

// SyncRunStore tracks batch reconciliation runs
type SyncRunStore interface {
	// StartSyncRun records the start of a batch run and returns its id
	StartSyncRun() (int64, error)

	// CompleteSyncRun records the outcome of a batch run
	CompleteSyncRun(runID int64, processed, matched, unmatched, duplicates int, cutoff time.Time) error

	// FailSyncRun marks a run as failed with an error message
	FailSyncRun(runID int64, reason string) error

	// ListSyncRuns returns recent runs, most recent first
	ListSyncRuns(limit int) ([]SyncRun, error)

	// GetSyncRun retrieves a run by id
	GetSyncRun(runID int64) (*SyncRun, error)
}

// AuditLog records who changed what on a transfer
type AuditLog interface {
	// LogAudit appends an audit entry
	LogAudit(entry *AuditEntry) error

	// ListAuditByTransfer returns a transfer's audit trail, oldest first
	ListAuditByTransfer(transferID string) ([]AuditEntry, error)
}
