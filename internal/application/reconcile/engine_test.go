package reconcile

import (
	"context"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/atenea-cash/atenea-backend/internal/domain/model"
	"github.com/atenea-cash/atenea-backend/internal/domain/normalize"
	"github.com/atenea-cash/atenea-backend/internal/infrastructure/storage"
)

var testTime = time.Date(2025, 11, 3, 14, 30, 0, 0, time.Local)

func newTestEngine(repo storage.Repository) *Engine {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	return NewEngine(repo, DefaultConfig(), logger)
}

func seedUser(t *testing.T, repo *storage.MockRepository, id, name, taxID string) {
	t.Helper()
	require.NoError(t, repo.CreateUser(&model.User{
		ID: id, CanonicalName: name, TaxID: taxID, Active: true,
	}))
}

func seedTransfer(t *testing.T, repo *storage.MockRepository, id, userID string, amount float64, at time.Time) {
	t.Helper()
	require.NoError(t, repo.CreateTransfer(&model.Transfer{
		ID: id, UserID: userID, OperatedAt: at, Amount: amount,
		Channel: model.ChannelBarroso, Status: model.StatusPending,
	}))
}

func seedMovement(t *testing.T, repo *storage.MockRepository, id string, amount float64, at time.Time, name, taxID string) {
	t.Helper()
	_, err := repo.InsertMovements([]*model.Movement{{
		ID: id, Channel: model.ChannelBarroso, OccurredAt: at, Amount: amount,
		PayerName: name, PayerTaxID: taxID,
		NameNorm: normalize.Name(name), TaxIDNorm: normalize.TaxID(taxID),
	}})
	require.NoError(t, err)
}

func TestMatchOne_Success(t *testing.T) {
	repo := storage.NewMockRepository()
	seedUser(t, repo, "u1", "Juan Perez", "")
	seedTransfer(t, repo, "TR-1", "u1", 5000, testTime)
	seedMovement(t, repo, "MOV_1", 5000, testTime.Add(2*time.Hour), "Perez Juan", "")

	engine := newTestEngine(repo)
	outcome, err := engine.MatchOne(context.Background(), "TR-1")

	require.NoError(t, err)
	assert.True(t, outcome.Matched)
	assert.Equal(t, model.StatusMatched, outcome.Status)
	assert.Equal(t, "MOV_1", outcome.MovementID)

	got, err := repo.GetTransfer("TR-1")
	require.NoError(t, err)
	assert.Equal(t, model.StatusMatched, got.Status)
	assert.Equal(t, "MOV_1", got.MovementID)
	assert.True(t, repo.LogAuditCalled)
}

func TestMatchOne_WideWindowAcceptsOffBatchWindowCandidate(t *testing.T) {
	// The interactive path spans 12 hours, far beyond the batch window.
	repo := storage.NewMockRepository()
	seedUser(t, repo, "u1", "Juan Perez", "")
	seedTransfer(t, repo, "TR-1", "u1", 5000, testTime)
	seedMovement(t, repo, "MOV_1", 5000, testTime.Add(11*time.Hour), "Juan Perez", "")

	engine := newTestEngine(repo)
	outcome, err := engine.MatchOne(context.Background(), "TR-1")

	require.NoError(t, err)
	assert.True(t, outcome.Matched)
}

func TestMatchOne_DuplicateWhenMovementClaimed(t *testing.T) {
	repo := storage.NewMockRepository()
	seedUser(t, repo, "u1", "Juan Perez", "")
	seedUser(t, repo, "u2", "Juan Perez", "")
	seedTransfer(t, repo, "TR-1", "u1", 5000, testTime)
	seedTransfer(t, repo, "TR-2", "u2", 5000, testTime)
	seedMovement(t, repo, "MOV_1", 5000, testTime, "Juan Perez", "")

	engine := newTestEngine(repo)
	first, err := engine.MatchOne(context.Background(), "TR-1")
	require.NoError(t, err)
	require.True(t, first.Matched)

	second, err := engine.MatchOne(context.Background(), "TR-2")
	require.NoError(t, err)
	assert.False(t, second.Matched)
	assert.Equal(t, model.StatusDuplicate, second.Status)

	got, err := repo.GetTransfer("TR-2")
	require.NoError(t, err)
	assert.Equal(t, model.StatusDuplicate, got.Status)
	assert.Empty(t, got.MovementID)
}

func TestMatchOne_RematchKeepsOwnMovement(t *testing.T) {
	// A matched transfer re-running against its own movement must not be
	// flagged as duplicate of itself.
	repo := storage.NewMockRepository()
	seedUser(t, repo, "u1", "Juan Perez", "")
	seedTransfer(t, repo, "TR-1", "u1", 5000, testTime)
	seedMovement(t, repo, "MOV_1", 5000, testTime, "Juan Perez", "")

	engine := newTestEngine(repo)
	_, err := engine.MatchOne(context.Background(), "TR-1")
	require.NoError(t, err)

	outcome, err := engine.MatchOne(context.Background(), "TR-1")
	require.NoError(t, err)
	assert.True(t, outcome.Matched)
	assert.Equal(t, "MOV_1", outcome.MovementID)
}

func TestMatchOne_NoMatch(t *testing.T) {
	repo := storage.NewMockRepository()
	seedUser(t, repo, "u1", "Juan Perez", "")
	seedTransfer(t, repo, "TR-1", "u1", 5000, testTime)
	seedMovement(t, repo, "MOV_1", 3000, testTime, "Juan Perez", "")

	engine := newTestEngine(repo)
	outcome, err := engine.MatchOne(context.Background(), "TR-1")

	require.NoError(t, err)
	assert.False(t, outcome.Matched)
	assert.Equal(t, model.StatusNoMatch, outcome.Status)
	assert.NotEmpty(t, outcome.Reason)
}

func TestMatchOne_FraudulentRefused(t *testing.T) {
	repo := storage.NewMockRepository()
	seedUser(t, repo, "u1", "Juan Perez", "")
	require.NoError(t, repo.CreateTransfer(&model.Transfer{
		ID: "TR-1", UserID: "u1", OperatedAt: testTime, Amount: 5000,
		Channel: model.ChannelBarroso, Status: model.StatusFraudulent,
	}))

	engine := newTestEngine(repo)
	_, err := engine.MatchOne(context.Background(), "TR-1")

	assert.ErrorIs(t, err, ErrFraudulent)
}

func TestMatchOne_UnknownUser(t *testing.T) {
	repo := storage.NewMockRepository()
	seedTransfer(t, repo, "TR-1", "ghost", 5000, testTime)

	engine := newTestEngine(repo)
	outcome, err := engine.MatchOne(context.Background(), "TR-1")

	require.NoError(t, err)
	assert.False(t, outcome.Matched)
	assert.Equal(t, model.StatusNoMatch, outcome.Status)
	assert.Equal(t, "transfer user is not registered", outcome.Reason)
}

func TestExplainNoMatch_OutsideWindow(t *testing.T) {
	repo := storage.NewMockRepository()
	seedUser(t, repo, "u1", "juan perez", "")
	seedTransfer(t, repo, "TR-1", "u1", 5000, testTime)
	seedMovement(t, repo, "MOV_1", 5000, testTime.Add(20*time.Minute), "Perez, Juan", "")

	engine := newTestEngine(repo)
	reason, err := engine.ExplainNoMatch(context.Background(), "TR-1")

	require.NoError(t, err)
	assert.Equal(t, "amount and name match, but outside the configured window (15 min)", reason)
}

func TestExplainNoMatch_PoolKeyedByTaxID(t *testing.T) {
	repo := storage.NewMockRepository()
	seedUser(t, repo, "u1", "Juan Perez", "20123456789")
	seedTransfer(t, repo, "TR-1", "u1", 5000, testTime)
	// Same name but different tax id: with a tax id on file the pool is
	// keyed by it, so this movement is invisible.
	seedMovement(t, repo, "MOV_1", 5000, testTime, "Juan Perez", "27999999994")

	engine := newTestEngine(repo)
	reason, err := engine.ExplainNoMatch(context.Background(), "TR-1")

	require.NoError(t, err)
	assert.Equal(t, "no movements in range with this tax id", reason)
}

func TestExplainNoMatch_ShortTaxIDKeysByName(t *testing.T) {
	repo := storage.NewMockRepository()
	// A 3-digit tax id is below the trust threshold; the pool must be
	// keyed by name, same as the matcher's fallback.
	seedUser(t, repo, "u1", "Juan Perez", "123")
	seedTransfer(t, repo, "TR-1", "u1", 5000, testTime)
	seedMovement(t, repo, "MOV_1", 5000, testTime.Add(20*time.Minute), "Juan Perez", "")

	engine := newTestEngine(repo)
	reason, err := engine.ExplainNoMatch(context.Background(), "TR-1")

	require.NoError(t, err)
	assert.Equal(t, "amount and name match, but outside the configured window (15 min)", reason)
}

func TestMarkFraudulent(t *testing.T) {
	repo := storage.NewMockRepository()
	seedUser(t, repo, "u1", "Juan Perez", "")
	seedTransfer(t, repo, "TR-1", "u1", 5000, testTime)

	engine := newTestEngine(repo)
	require.NoError(t, engine.MarkFraudulent(context.Background(), "TR-1", "operator"))

	got, err := repo.GetTransfer("TR-1")
	require.NoError(t, err)
	assert.Equal(t, model.StatusFraudulent, got.Status)

	// Idempotent
	require.NoError(t, engine.MarkFraudulent(context.Background(), "TR-1", "operator"))
}
