package report

import (
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/atenea-cash/atenea-backend/internal/domain/model"
	"github.com/atenea-cash/atenea-backend/internal/domain/normalize"
	"github.com/atenea-cash/atenea-backend/internal/infrastructure/storage"
)

var reportTime = time.Date(2025, 11, 3, 14, 0, 0, 0, time.Local)

func newTestService(repo *storage.MockRepository) *Service {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	return NewService(repo, 15, logger)
}

func addUser(t *testing.T, repo *storage.MockRepository, id, name string) {
	t.Helper()
	require.NoError(t, repo.CreateUser(&model.User{ID: id, CanonicalName: name, Active: true}))
}

func addTransfer(t *testing.T, repo *storage.MockRepository, id, userID string, amount float64, at time.Time, status model.Status) {
	t.Helper()
	require.NoError(t, repo.CreateTransfer(&model.Transfer{
		ID: id, UserID: userID, OperatedAt: at, Amount: amount,
		Channel: model.ChannelBarroso, Status: status,
	}))
}

func addMovement(t *testing.T, repo *storage.MockRepository, id string, amount float64, at time.Time, name string) {
	t.Helper()
	_, err := repo.InsertMovements([]*model.Movement{{
		ID: id, Channel: model.ChannelBarroso, OccurredAt: at, Amount: amount,
		PayerName: name, NameNorm: normalize.Name(name),
	}})
	require.NoError(t, err)
}

func TestDailyTotals(t *testing.T) {
	repo := storage.NewMockRepository()
	addUser(t, repo, "u1", "Juan Perez")

	day := time.Date(2025, 11, 3, 0, 0, 0, 0, time.Local)
	addTransfer(t, repo, "t1", "u1", 5000, day.Add(10*time.Hour), model.StatusMatched)
	addTransfer(t, repo, "t2", "u1", 3000.10, day.Add(11*time.Hour), model.StatusPending)
	addMovement(t, repo, "m1", 5000, day.Add(10*time.Hour), "Juan Perez")
	addMovement(t, repo, "m2", 700.20, day.Add(12*time.Hour), "Otro Pagador")
	addMovement(t, repo, "m3", -1500, day.Add(13*time.Hour), "Retiro")

	svc := newTestService(repo)
	totals, err := svc.DailyTotals(day, day.AddDate(0, 0, 1))
	require.NoError(t, err)
	require.Len(t, totals, 1)

	row := totals[0]
	assert.Equal(t, "2025-11-03", row.Date)
	assert.Equal(t, model.ChannelBarroso, row.Channel)
	assert.True(t, row.Declared.Equal(decimal.NewFromFloat(8000.10)), "declared: %s", row.Declared)
	assert.True(t, row.Matched.Equal(decimal.NewFromInt(5000)), "matched: %s", row.Matched)
	assert.True(t, row.RealIn.Equal(decimal.NewFromFloat(5700.20)), "real in: %s", row.RealIn)
	assert.True(t, row.RealOut.Equal(decimal.NewFromInt(-1500)), "real out: %s", row.RealOut)
}

func TestDailyTotals_GroupsByChannel(t *testing.T) {
	repo := storage.NewMockRepository()
	addUser(t, repo, "u1", "Juan Perez")

	day := time.Date(2025, 11, 3, 0, 0, 0, 0, time.Local)
	addTransfer(t, repo, "t1", "u1", 1000, day.Add(9*time.Hour), model.StatusPending)
	require.NoError(t, repo.CreateTransfer(&model.Transfer{
		ID: "t2", UserID: "u1", OperatedAt: day.Add(9 * time.Hour), Amount: 2000,
		Channel: model.ChannelDC, Status: model.StatusPending,
	}))

	svc := newTestService(repo)
	totals, err := svc.DailyTotals(day, day.AddDate(0, 0, 1))
	require.NoError(t, err)
	require.Len(t, totals, 2)
	assert.Equal(t, model.ChannelBarroso, totals[0].Channel)
	assert.Equal(t, model.ChannelDC, totals[1].Channel)
}

func TestOrphans(t *testing.T) {
	repo := storage.NewMockRepository()
	addUser(t, repo, "u1", "Juan Perez")

	// Covered: matched transfer with same name/amount within the window
	addTransfer(t, repo, "t1", "u1", 5000, reportTime, model.StatusMatched)
	addMovement(t, repo, "covered", 5000, reportTime.Add(5*time.Minute), "Juan Perez")

	// Orphans: no transfer accounts for these
	addMovement(t, repo, "stranger", 1234, reportTime.Add(time.Hour), "Carlos Gomez")
	addMovement(t, repo, "off-window", 5000, reportTime.Add(2*time.Hour), "Juan Perez")

	// Ignored: outflow and too old
	addMovement(t, repo, "outflow", -900, reportTime, "Retiro")
	addMovement(t, repo, "ancient", 700, reportTime.AddDate(0, 0, -3), "Viejo Pago")

	svc := newTestService(repo)
	orphans, err := svc.Orphans(reportTime.Add(3*time.Hour), "")
	require.NoError(t, err)

	require.Len(t, orphans, 2)
	// Newest first
	assert.Equal(t, "off-window", orphans[0].MovementID)
	assert.Equal(t, "stranger", orphans[1].MovementID)
}

func TestOrphans_EachTransferCoversOneInflow(t *testing.T) {
	repo := storage.NewMockRepository()
	addUser(t, repo, "u1", "Juan Perez")

	addTransfer(t, repo, "t1", "u1", 5000, reportTime, model.StatusMatched)
	addMovement(t, repo, "first", 5000, reportTime.Add(2*time.Minute), "Juan Perez")
	addMovement(t, repo, "second", 5000, reportTime.Add(4*time.Minute), "Juan Perez")

	svc := newTestService(repo)
	orphans, err := svc.Orphans(reportTime.Add(time.Hour), "")
	require.NoError(t, err)

	require.Len(t, orphans, 1)
	assert.Equal(t, "second", orphans[0].MovementID)
}

func TestOrphans_QueryFilter(t *testing.T) {
	repo := storage.NewMockRepository()
	addMovement(t, repo, "m1", 1234, reportTime, "Carlos Gómez")
	addMovement(t, repo, "m2", 999, reportTime, "Ana Diaz")

	svc := newTestService(repo)

	orphans, err := svc.Orphans(reportTime.Add(time.Hour), "gomez")
	require.NoError(t, err)
	require.Len(t, orphans, 1)
	assert.Equal(t, "m1", orphans[0].MovementID)

	orphans, err = svc.Orphans(reportTime.Add(time.Hour), "999")
	require.NoError(t, err)
	require.Len(t, orphans, 1)
	assert.Equal(t, "m2", orphans[0].MovementID)
}

func TestBuildDashboard(t *testing.T) {
	repo := storage.NewMockRepository()
	addUser(t, repo, "u1", "Juan Perez")

	addTransfer(t, repo, "recent-match", "u1", 5000, reportTime.Add(-time.Hour), model.StatusMatched)
	addTransfer(t, repo, "recent-pending", "u1", 3000, reportTime.Add(-2*time.Hour), model.StatusPending)
	addTransfer(t, repo, "recent-nomatch", "u1", 2000, reportTime.Add(-3*time.Hour), model.StatusNoMatch)
	// Older than 24h: appears in chart and table, not in counters
	addTransfer(t, repo, "older", "u1", 1000, reportTime.AddDate(0, 0, -2), model.StatusMatched)

	svc := newTestService(repo)
	dash, err := svc.BuildDashboard(reportTime)
	require.NoError(t, err)

	assert.Equal(t, 3, dash.Totals.Total)
	assert.Equal(t, 1, dash.Totals.Matched)
	assert.Equal(t, 1, dash.Totals.Pending)
	assert.Equal(t, 1, dash.Totals.NoMatch)

	require.Len(t, dash.Chart, 7)
	last := dash.Chart[6]
	assert.Equal(t, reportTime.Format("2006-01-02"), last.Date)
	assert.Equal(t, 3, last.Count)

	require.Len(t, dash.Latest, 4)
	assert.Equal(t, "recent-match", dash.Latest[0].TransferID)
	assert.Equal(t, "Juan Perez", dash.Latest[0].UserName)
	assert.Equal(t, "older", dash.Latest[3].TransferID)
}
