package storage

import (
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/atenea-cash/atenea-backend/internal/domain/model"
)

func createTempDB(t *testing.T) string {
	tmpFile, err := os.CreateTemp("", "test_*.db")
	require.NoError(t, err)
	tmpFile.Close()
	return tmpFile.Name()
}

func openTestStorage(t *testing.T) *Storage {
	tmpDB := createTempDB(t)
	t.Cleanup(func() { os.Remove(tmpDB) })

	store, err := NewStorage(tmpDB)
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })
	return store
}

func seedUser(t *testing.T, store *Storage, id, name, taxID string) {
	require.NoError(t, store.CreateUser(&model.User{
		ID:            id,
		CanonicalName: name,
		TaxID:         taxID,
		Active:        true,
	}))
}

func TestStorage_CreateAndGetTransfer(t *testing.T) {
	store := openTestStorage(t)
	seedUser(t, store, "u1", "Juan Perez", "20123456789")

	operated := time.Date(2025, 11, 3, 14, 30, 0, 0, time.Local)
	transfer := &model.Transfer{
		ID:         "TR-1",
		UserID:     "u1",
		OperatedAt: operated,
		Amount:     5000,
		Channel:    model.ChannelBarroso,
		ShiftTag:   "mañana",
		Note:       "ventanilla 2",
	}
	require.NoError(t, store.CreateTransfer(transfer))

	got, err := store.GetTransfer("TR-1")
	require.NoError(t, err)
	assert.Equal(t, "u1", got.UserID)
	assert.Equal(t, model.StatusPending, got.Status)
	assert.Equal(t, 5000.0, got.Amount)
	assert.Equal(t, model.ChannelBarroso, got.Channel)
	assert.True(t, got.OperatedAt.Equal(operated))
	assert.Equal(t, "mañana", got.ShiftTag)
	assert.Empty(t, got.MovementID)
}

func TestStorage_GetTransfer_NotFound(t *testing.T) {
	store := openTestStorage(t)

	_, err := store.GetTransfer("missing")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestStorage_SetTransferStatus(t *testing.T) {
	store := openTestStorage(t)
	seedUser(t, store, "u1", "Juan Perez", "")
	require.NoError(t, store.CreateTransfer(&model.Transfer{
		ID: "TR-1", UserID: "u1", OperatedAt: time.Now(), Amount: 100, Channel: model.ChannelDC,
	}))

	// Matched stores the movement id
	require.NoError(t, store.SetTransferStatus("TR-1", model.StatusMatched, "MOV_9"))
	got, err := store.GetTransfer("TR-1")
	require.NoError(t, err)
	assert.Equal(t, model.StatusMatched, got.Status)
	assert.Equal(t, "MOV_9", got.MovementID)

	// Any other status clears it
	require.NoError(t, store.SetTransferStatus("TR-1", model.StatusNoMatch, ""))
	got, err = store.GetTransfer("TR-1")
	require.NoError(t, err)
	assert.Equal(t, model.StatusNoMatch, got.Status)
	assert.Empty(t, got.MovementID)

	err = store.SetTransferStatus("TR-1", model.Status("bogus"), "")
	assert.Error(t, err)
}

func TestStorage_ListUnresolved(t *testing.T) {
	store := openTestStorage(t)
	seedUser(t, store, "u1", "Juan Perez", "")

	cutoff := time.Date(2025, 11, 10, 12, 0, 0, 0, time.Local)
	mk := func(id string, at time.Time, status model.Status) {
		require.NoError(t, store.CreateTransfer(&model.Transfer{
			ID: id, UserID: "u1", OperatedAt: at, Amount: 100,
			Channel: model.ChannelOther, Status: status,
		}))
	}

	mk("old", cutoff.AddDate(0, 0, -50), model.StatusPending)     // beyond lookback
	mk("future", cutoff.Add(time.Hour), model.StatusPending)      // after cutoff
	mk("done", cutoff.Add(-time.Hour), model.StatusMatched)       // already settled
	mk("fraud", cutoff.Add(-time.Hour), model.StatusFraudulent)   // terminal
	mk("later", cutoff.Add(-time.Hour), model.StatusNoMatch)      // eligible
	mk("earlier", cutoff.Add(-2*time.Hour), model.StatusPending)  // eligible
	mk("dup", cutoff.Add(-3*time.Hour), model.StatusDuplicate)    // eligible

	got, err := store.ListUnresolved(cutoff, 45)
	require.NoError(t, err)
	require.Len(t, got, 3)
	// Oldest first
	assert.Equal(t, "dup", got[0].ID)
	assert.Equal(t, "earlier", got[1].ID)
	assert.Equal(t, "later", got[2].ID)
}

func TestStorage_ListAssignedMovementIDs(t *testing.T) {
	store := openTestStorage(t)
	seedUser(t, store, "u1", "Juan Perez", "")

	require.NoError(t, store.CreateTransfer(&model.Transfer{
		ID: "a", UserID: "u1", OperatedAt: time.Now(), Amount: 1, Channel: model.ChannelDC,
	}))
	require.NoError(t, store.CreateTransfer(&model.Transfer{
		ID: "b", UserID: "u1", OperatedAt: time.Now(), Amount: 2, Channel: model.ChannelDC,
	}))
	require.NoError(t, store.SetTransferStatus("a", model.StatusMatched, "MOV_1"))

	used, err := store.ListAssignedMovementIDs()
	require.NoError(t, err)
	assert.Equal(t, map[string]bool{"MOV_1": true}, used)
}

func TestStorage_UpdateTransfer_Patch(t *testing.T) {
	store := openTestStorage(t)
	seedUser(t, store, "u1", "Juan Perez", "")
	require.NoError(t, store.CreateTransfer(&model.Transfer{
		ID: "TR-1", UserID: "u1", OperatedAt: time.Now(), Amount: 100,
		Channel: model.ChannelDC, Note: "antes",
	}))

	amount := 250.0
	note := "corregido"
	require.NoError(t, store.UpdateTransfer("TR-1", TransferPatch{Amount: &amount, Note: &note}))

	got, err := store.GetTransfer("TR-1")
	require.NoError(t, err)
	assert.Equal(t, 250.0, got.Amount)
	assert.Equal(t, "corregido", got.Note)
	assert.Equal(t, model.ChannelDC, got.Channel)

	// Empty patch is a no-op, not an error
	require.NoError(t, store.UpdateTransfer("TR-1", TransferPatch{}))

	err = store.UpdateTransfer("missing", TransferPatch{Amount: &amount})
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestStorage_InsertMovements_Dedup(t *testing.T) {
	store := openTestStorage(t)

	at := time.Date(2025, 11, 3, 10, 0, 0, 0, time.Local)
	batch := []*model.Movement{
		{ID: "MOV_1", Channel: model.ChannelBarroso, OccurredAt: at, Amount: 5000, PayerName: "Juan Perez", NameNorm: "juan perez"},
		{ID: "MOV_2", Channel: model.ChannelBarroso, OccurredAt: at.Add(time.Minute), Amount: 3000, PayerName: "Maria Lopez", NameNorm: "maria lopez"},
	}

	n, err := store.InsertMovements(batch)
	require.NoError(t, err)
	assert.Equal(t, 2, n)

	// Overlapping re-import only inserts the new row
	batch = append(batch, &model.Movement{
		ID: "MOV_3", Channel: model.ChannelBarroso, OccurredAt: at.Add(2 * time.Minute), Amount: 1000,
	})
	n, err = store.InsertMovements(batch)
	require.NoError(t, err)
	assert.Equal(t, 1, n)

	ids, err := store.ListMovementIDs()
	require.NoError(t, err)
	assert.Len(t, ids, 3)
}

func TestStorage_LatestMovementTimestamp(t *testing.T) {
	store := openTestStorage(t)

	latest, err := store.LatestMovementTimestamp()
	require.NoError(t, err)
	assert.True(t, latest.IsZero())

	at := time.Date(2025, 11, 3, 10, 0, 0, 0, time.Local)
	_, err = store.InsertMovements([]*model.Movement{
		{ID: "MOV_1", Channel: model.ChannelDC, OccurredAt: at, Amount: 1},
		{ID: "MOV_2", Channel: model.ChannelDC, OccurredAt: at.Add(time.Hour), Amount: 2},
	})
	require.NoError(t, err)

	latest, err = store.LatestMovementTimestamp()
	require.NoError(t, err)
	assert.True(t, latest.Equal(at.Add(time.Hour)))
}

func TestStorage_ListMovementsInRange(t *testing.T) {
	store := openTestStorage(t)

	at := time.Date(2025, 11, 3, 10, 0, 0, 0, time.Local)
	_, err := store.InsertMovements([]*model.Movement{
		{ID: "before", Channel: model.ChannelDC, OccurredAt: at.Add(-time.Hour), Amount: 1},
		{ID: "in1", Channel: model.ChannelDC, OccurredAt: at, Amount: 2},
		{ID: "in2", Channel: model.ChannelDC, OccurredAt: at.Add(30 * time.Minute), Amount: 3},
		{ID: "after", Channel: model.ChannelDC, OccurredAt: at.Add(2 * time.Hour), Amount: 4},
	})
	require.NoError(t, err)

	got, err := store.ListMovementsInRange(at, at.Add(time.Hour))
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, "in1", got[0].ID)
	assert.Equal(t, "in2", got[1].ID)
}

func TestStorage_Users(t *testing.T) {
	store := openTestStorage(t)

	require.NoError(t, store.CreateUser(&model.User{
		ID: "u1", CanonicalName: "Juan Perez", TaxID: "20123456789",
		WalletAlias: "juan.mp", Active: true,
	}))
	require.NoError(t, store.CreateUser(&model.User{
		ID: "u2", CanonicalName: "Maria Lopez", Active: true,
	}))
	require.NoError(t, store.CreateUser(&model.User{
		ID: "u3", CanonicalName: "Juan Inactivo", Active: false,
	}))

	got, err := store.GetUser("u1")
	require.NoError(t, err)
	assert.Equal(t, "20123456789", got.TaxID)

	found, err := store.SearchUsers("juan", 10)
	require.NoError(t, err)
	require.Len(t, found, 1)
	assert.Equal(t, "u1", found[0].ID)

	// A tax id query matches on its digits regardless of formatting
	found, err = store.SearchUsers("20-12345678-9", 10)
	require.NoError(t, err)
	require.Len(t, found, 1)
	assert.Equal(t, "u1", found[0].ID)

	active := false
	require.NoError(t, store.UpdateUser("u1", UserPatch{Active: &active}))
	found, err = store.SearchUsers("juan", 10)
	require.NoError(t, err)
	assert.Empty(t, found)
}

func TestStorage_SyncRuns(t *testing.T) {
	store := openTestStorage(t)

	runID, err := store.StartSyncRun()
	require.NoError(t, err)

	run, err := store.GetSyncRun(runID)
	require.NoError(t, err)
	assert.Equal(t, SyncRunRunning, run.Status)
	assert.Nil(t, run.CompletedAt)

	cutoff := time.Date(2025, 11, 3, 18, 0, 0, 0, time.Local)
	require.NoError(t, store.CompleteSyncRun(runID, 10, 6, 3, 1, cutoff))

	run, err = store.GetSyncRun(runID)
	require.NoError(t, err)
	assert.Equal(t, SyncRunCompleted, run.Status)
	assert.Equal(t, 10, run.Processed)
	assert.Equal(t, 6, run.Matched)
	assert.Equal(t, 3, run.Unmatched)
	assert.Equal(t, 1, run.Duplicates)
	require.NotNil(t, run.Cutoff)
	assert.True(t, run.Cutoff.Equal(cutoff))

	failID, err := store.StartSyncRun()
	require.NoError(t, err)
	require.NoError(t, store.FailSyncRun(failID, "movement feed unavailable"))

	runs, err := store.ListSyncRuns(10)
	require.NoError(t, err)
	require.Len(t, runs, 2)
	assert.Equal(t, failID, runs[0].ID)
	assert.Equal(t, SyncRunFailed, runs[0].Status)
	assert.Equal(t, "movement feed unavailable", runs[0].Error)
}

func TestStorage_AuditLog(t *testing.T) {
	store := openTestStorage(t)

	require.NoError(t, store.LogAudit(&AuditEntry{
		TransferID: "TR-1", Action: "status_change", Detail: "pending -> matched", Actor: "batch",
	}))
	require.NoError(t, store.LogAudit(&AuditEntry{
		TransferID: "TR-1", Action: "status_change", Detail: "matched -> fraudulent", Actor: "operator",
	}))
	require.NoError(t, store.LogAudit(&AuditEntry{
		TransferID: "TR-2", Action: "created",
	}))

	entries, err := store.ListAuditByTransfer("TR-1")
	require.NoError(t, err)
	require.Len(t, entries, 2)
	assert.Equal(t, "pending -> matched", entries[0].Detail)
	assert.Equal(t, "operator", entries[1].Actor)
}
