package storage

import (
	"sort"
	"strings"
	"time"

	"github.com/atenea-cash/atenea-backend/internal/domain/model"
	"github.com/atenea-cash/atenea-backend/internal/domain/normalize"
)

// MockRepository is an in-memory implementation of Repository for testing.
// It stores all data in maps and slices, making tests fast and isolated.
type MockRepository struct {
	transfers map[string]*model.Transfer
	movements map[string]*model.Movement
	users     map[string]*model.User
	syncRuns  map[int64]*SyncRun
	audit     []AuditEntry
	nextRunID int64

	// Hooks for test assertions
	CreateTransferCalled  bool
	SetStatusCalled       bool
	LastStatusID          string
	LastStatus            model.Status
	LastMovementID        string
	StartSyncRunCalled    bool
	CompleteSyncRunCalled bool
	LogAuditCalled        bool

	// Error injection for testing error paths
	CreateTransferErr  error
	GetTransferErr     error
	ListUnresolvedErr  error
	SetStatusErr       error
	InsertMovementsErr error
	StartSyncRunErr    error
	LatestTimestampErr error
}

// NewMockRepository creates a new mock repository for testing
func NewMockRepository() *MockRepository {
	return &MockRepository{
		transfers: make(map[string]*model.Transfer),
		movements: make(map[string]*model.Movement),
		users:     make(map[string]*model.User),
		syncRuns:  make(map[int64]*SyncRun),
		nextRunID: 1,
	}
}

// Compile-time check that MockRepository implements Repository
var _ Repository = (*MockRepository)(nil)

// Close does nothing for mock
func (m *MockRepository) Close() error {
	return nil
}

// ---- TransferStore ----

func (m *MockRepository) CreateTransfer(transfer *model.Transfer) error {
	m.CreateTransferCalled = true
	if m.CreateTransferErr != nil {
		return m.CreateTransferErr
	}
	if transfer.Status == "" {
		transfer.Status = model.StatusPending
	}
	copied := *transfer
	m.transfers[transfer.ID] = &copied
	return nil
}

func (m *MockRepository) GetTransfer(id string) (*model.Transfer, error) {
	if m.GetTransferErr != nil {
		return nil, m.GetTransferErr
	}
	t, ok := m.transfers[id]
	if !ok {
		return nil, ErrNotFound
	}
	copied := *t
	return &copied, nil
}

func (m *MockRepository) ListTransfersByUser(userID string, limit int) ([]*model.Transfer, error) {
	var out []*model.Transfer
	for _, t := range m.transfers {
		if t.UserID == userID {
			copied := *t
			out = append(out, &copied)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].OperatedAt.After(out[j].OperatedAt) })
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (m *MockRepository) ListTransfersSince(since time.Time) ([]*model.Transfer, error) {
	var out []*model.Transfer
	for _, t := range m.transfers {
		if !t.OperatedAt.Before(since) {
			copied := *t
			out = append(out, &copied)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].OperatedAt.Before(out[j].OperatedAt) })
	return out, nil
}

func (m *MockRepository) ListUnresolved(cutoff time.Time, maxLookbackDays int) ([]*model.Transfer, error) {
	if m.ListUnresolvedErr != nil {
		return nil, m.ListUnresolvedErr
	}
	from := cutoff.AddDate(0, 0, -maxLookbackDays)
	var out []*model.Transfer
	for _, t := range m.transfers {
		switch t.Status {
		case model.StatusPending, model.StatusNoMatch, model.StatusDuplicate:
		default:
			continue
		}
		if t.OperatedAt.IsZero() || t.OperatedAt.After(cutoff) || t.OperatedAt.Before(from) {
			continue
		}
		copied := *t
		out = append(out, &copied)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].OperatedAt.Before(out[j].OperatedAt) })
	return out, nil
}

func (m *MockRepository) ListAssignedMovementIDs() (map[string]bool, error) {
	used := make(map[string]bool)
	for _, t := range m.transfers {
		if t.Status == model.StatusMatched && t.MovementID != "" {
			used[t.MovementID] = true
		}
	}
	return used, nil
}

func (m *MockRepository) SetTransferStatus(id string, status model.Status, movementID string) error {
	m.SetStatusCalled = true
	m.LastStatusID = id
	m.LastStatus = status
	m.LastMovementID = movementID
	if m.SetStatusErr != nil {
		return m.SetStatusErr
	}
	t, ok := m.transfers[id]
	if !ok {
		return ErrNotFound
	}
	t.Status = status
	if status == model.StatusMatched {
		t.MovementID = movementID
	} else {
		t.MovementID = ""
	}
	return nil
}

func (m *MockRepository) UpdateTransfer(id string, patch TransferPatch) error {
	t, ok := m.transfers[id]
	if !ok {
		return ErrNotFound
	}
	if patch.OperatedAt != nil {
		t.OperatedAt = *patch.OperatedAt
	}
	if patch.Amount != nil {
		t.Amount = *patch.Amount
	}
	if patch.Channel != nil {
		t.Channel = *patch.Channel
	}
	if patch.ShiftTag != nil {
		t.ShiftTag = *patch.ShiftTag
	}
	if patch.Note != nil {
		t.Note = *patch.Note
	}
	if patch.ReceiptURL != nil {
		t.ReceiptURL = *patch.ReceiptURL
	}
	if patch.ReceiptFileID != nil {
		t.ReceiptFileID = *patch.ReceiptFileID
	}
	if patch.ReceiptUploadedAt != nil {
		at := *patch.ReceiptUploadedAt
		t.ReceiptUploadedAt = &at
	}
	return nil
}

func (m *MockRepository) DeleteTransfer(id string) error {
	if _, ok := m.transfers[id]; !ok {
		return ErrNotFound
	}
	delete(m.transfers, id)
	return nil
}

// ---- MovementFeed ----

func (m *MockRepository) InsertMovements(movements []*model.Movement) (int, error) {
	if m.InsertMovementsErr != nil {
		return 0, m.InsertMovementsErr
	}
	inserted := 0
	for _, mov := range movements {
		if _, ok := m.movements[mov.ID]; ok {
			continue
		}
		copied := *mov
		m.movements[mov.ID] = &copied
		inserted++
	}
	return inserted, nil
}

func (m *MockRepository) ListMovementsInRange(from, to time.Time) ([]*model.Movement, error) {
	var out []*model.Movement
	for _, mov := range m.movements {
		if mov.OccurredAt.Before(from) || mov.OccurredAt.After(to) {
			continue
		}
		copied := *mov
		out = append(out, &copied)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].OccurredAt.Before(out[j].OccurredAt) })
	return out, nil
}

func (m *MockRepository) LatestMovementTimestamp() (time.Time, error) {
	if m.LatestTimestampErr != nil {
		return time.Time{}, m.LatestTimestampErr
	}
	var latest time.Time
	for _, mov := range m.movements {
		if mov.OccurredAt.After(latest) {
			latest = mov.OccurredAt
		}
	}
	return latest, nil
}

func (m *MockRepository) ListMovementIDs() (map[string]bool, error) {
	ids := make(map[string]bool, len(m.movements))
	for id := range m.movements {
		ids[id] = true
	}
	return ids, nil
}

// ---- UserDirectory ----

func (m *MockRepository) CreateUser(user *model.User) error {
	copied := *user
	m.users[user.ID] = &copied
	return nil
}

func (m *MockRepository) GetUser(id string) (*model.User, error) {
	u, ok := m.users[id]
	if !ok {
		return nil, ErrNotFound
	}
	copied := *u
	return &copied, nil
}

func (m *MockRepository) UpdateUser(id string, patch UserPatch) error {
	u, ok := m.users[id]
	if !ok {
		return ErrNotFound
	}
	if patch.CanonicalName != nil {
		u.CanonicalName = *patch.CanonicalName
	}
	if patch.TaxID != nil {
		u.TaxID = *patch.TaxID
	}
	if patch.WalletAlias != nil {
		u.WalletAlias = *patch.WalletAlias
	}
	if patch.Organization != nil {
		u.Organization = *patch.Organization
	}
	if patch.ExternalRef != nil {
		u.ExternalRef = *patch.ExternalRef
	}
	if patch.Active != nil {
		u.Active = *patch.Active
	}
	return nil
}

func (m *MockRepository) SearchUsers(query string, limit int) ([]*model.User, error) {
	q := strings.ToLower(strings.TrimSpace(query))
	digits := normalize.TaxID(query)
	var out []*model.User
	for _, u := range m.users {
		if !u.Active {
			continue
		}
		if q == "" ||
			strings.Contains(strings.ToLower(u.CanonicalName), q) ||
			strings.Contains(strings.ToLower(u.WalletAlias), q) ||
			strings.Contains(strings.ToLower(u.ExternalRef), q) ||
			(digits != "" && normalize.TaxID(u.TaxID) == digits) {
			copied := *u
			out = append(out, &copied)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CanonicalName < out[j].CanonicalName })
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

// ---- SyncRunStore ----

func (m *MockRepository) StartSyncRun() (int64, error) {
	m.StartSyncRunCalled = true
	if m.StartSyncRunErr != nil {
		return 0, m.StartSyncRunErr
	}
	id := m.nextRunID
	m.nextRunID++
	m.syncRuns[id] = &SyncRun{ID: id, StartedAt: time.Now(), Status: SyncRunRunning}
	return id, nil
}

func (m *MockRepository) CompleteSyncRun(runID int64, processed, matched, unmatched, duplicates int, cutoff time.Time) error {
	m.CompleteSyncRunCalled = true
	run, ok := m.syncRuns[runID]
	if !ok {
		return ErrNotFound
	}
	now := time.Now()
	run.CompletedAt = &now
	run.Processed = processed
	run.Matched = matched
	run.Unmatched = unmatched
	run.Duplicates = duplicates
	if !cutoff.IsZero() {
		c := cutoff
		run.Cutoff = &c
	}
	run.Status = SyncRunCompleted
	return nil
}

func (m *MockRepository) FailSyncRun(runID int64, reason string) error {
	run, ok := m.syncRuns[runID]
	if !ok {
		return ErrNotFound
	}
	now := time.Now()
	run.CompletedAt = &now
	run.Status = SyncRunFailed
	run.Error = reason
	return nil
}

func (m *MockRepository) ListSyncRuns(limit int) ([]SyncRun, error) {
	var out []SyncRun
	for _, run := range m.syncRuns {
		out = append(out, *run)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID > out[j].ID })
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (m *MockRepository) GetSyncRun(runID int64) (*SyncRun, error) {
	run, ok := m.syncRuns[runID]
	if !ok {
		return nil, ErrNotFound
	}
	copied := *run
	return &copied, nil
}

// ---- AuditLog ----

func (m *MockRepository) LogAudit(entry *AuditEntry) error {
	m.LogAuditCalled = true
	entry.ID = int64(len(m.audit) + 1)
	if entry.CreatedAt.IsZero() {
		entry.CreatedAt = time.Now()
	}
	m.audit = append(m.audit, *entry)
	return nil
}

func (m *MockRepository) ListAuditByTransfer(transferID string) ([]AuditEntry, error) {
	var out []AuditEntry
	for _, e := range m.audit {
		if e.TransferID == transferID {
			out = append(out, e)
		}
	}
	return out, nil
}
