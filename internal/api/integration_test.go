package api_test

import (
	"bytes"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"os"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/atenea-cash/atenea-backend/internal/api"
	"github.com/atenea-cash/atenea-backend/internal/api/dto"
	"github.com/atenea-cash/atenea-backend/internal/application/importer"
	"github.com/atenea-cash/atenea-backend/internal/application/reconcile"
	"github.com/atenea-cash/atenea-backend/internal/application/report"
	"github.com/atenea-cash/atenea-backend/internal/infrastructure/storage"
)

// These tests run the full stack against a real SQLite database:
// HTTP request, router, handlers, storage. They catch what mock-based
// tests miss: NULL handling, JSON through the whole pipeline, route
// configuration.

func createIntegrationServer(t *testing.T) *httptest.Server {
	t.Helper()

	tmpFile, err := os.CreateTemp("", "api_integration_*.db")
	require.NoError(t, err)
	tmpFile.Close()

	store, err := storage.NewStorage(tmpFile.Name())
	require.NoError(t, err)

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	engine := reconcile.NewEngine(store, reconcile.DefaultConfig(), logger)
	imp := importer.New(store, logger, 1, 1)
	reports := report.NewService(store, 15, logger)

	server := api.NewServer(api.DefaultConfig(), store, engine, imp, reports, logger)
	ts := httptest.NewServer(server.Router())

	t.Cleanup(func() {
		ts.Close()
		store.Close()
		os.Remove(tmpFile.Name())
	})

	return ts
}

func postJSON(t *testing.T, ts *httptest.Server, path string, payload interface{}) *http.Response {
	t.Helper()
	body, err := json.Marshal(payload)
	require.NoError(t, err)
	resp, err := http.Post(ts.URL+path, "application/json", bytes.NewReader(body))
	require.NoError(t, err)
	return resp
}

func decodeBody(t *testing.T, resp *http.Response, out interface{}) {
	t.Helper()
	defer resp.Body.Close()
	require.NoError(t, json.NewDecoder(resp.Body).Decode(out))
}

func TestAPI_Integration_FullMatchFlow(t *testing.T) {
	ts := createIntegrationServer(t)

	// Register a user.
	resp := postJSON(t, ts, "/api/users", dto.CreateUserRequest{
		CanonicalName: "Juan Pérez",
		TaxID:         "20-12345678-9",
	})
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	var user dto.UserResponse
	decodeBody(t, resp, &user)

	// Import the wallet export covering the transfer.
	operatedAt := time.Now().Add(-1 * time.Hour).Truncate(time.Minute)
	csv := "Fecha,ID,Monto,Destinario/Origen,CUIL/CUIT\n" +
		operatedAt.Format("02/01/2006 15:04") + ",900001,5000,Juan Perez,20123456789\n"
	resp, err := http.Post(ts.URL+"/api/movements/import?filename=extracto_BARROSO.csv",
		"text/csv", strings.NewReader(csv))
	require.NoError(t, err)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var imported dto.ImportResponse
	decodeBody(t, resp, &imported)
	assert.Equal(t, 1, imported.Imported)

	// Record the transfer.
	resp = postJSON(t, ts, "/api/transfers", dto.CreateTransferRequest{
		UserID:     user.UserID,
		OperatedAt: operatedAt,
		Amount:     5000,
		Channel:    "barroso",
	})
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	var transfer dto.TransferResponse
	decodeBody(t, resp, &transfer)

	// Run the batch; the transfer should claim the imported movement.
	resp = postJSON(t, ts, "/api/sync", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var syncResult dto.SyncResultResponse
	decodeBody(t, resp, &syncResult)
	assert.Equal(t, 1, syncResult.Processed)
	assert.Equal(t, 1, syncResult.Matched)

	// The transfer is now matched with the movement id recorded.
	getResp, err := http.Get(ts.URL + "/api/transfers/" + transfer.TransferID)
	require.NoError(t, err)
	var matched dto.TransferResponse
	decodeBody(t, getResp, &matched)
	assert.Equal(t, "matched", matched.Status)
	assert.Equal(t, "MOV_900001", matched.MovementID)

	// The run shows up in the history.
	runsResp, err := http.Get(ts.URL + "/api/runs")
	require.NoError(t, err)
	var runs dto.SyncRunListResponse
	decodeBody(t, runsResp, &runs)
	require.Equal(t, 1, runs.Count)
	assert.Equal(t, storage.SyncRunCompleted, runs.Runs[0].Status)
}

func TestAPI_Integration_FraudFlagIsTerminal(t *testing.T) {
	ts := createIntegrationServer(t)

	resp := postJSON(t, ts, "/api/users", dto.CreateUserRequest{
		CanonicalName: "Maria Gomez",
	})
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	var user dto.UserResponse
	decodeBody(t, resp, &user)

	resp = postJSON(t, ts, "/api/transfers", dto.CreateTransferRequest{
		UserID:     user.UserID,
		OperatedAt: time.Now(),
		Amount:     1200,
		Channel:    "dc",
	})
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	var transfer dto.TransferResponse
	decodeBody(t, resp, &transfer)

	resp = postJSON(t, ts, "/api/transfers/"+transfer.TransferID+"/fraud",
		dto.FlagFraudRequest{Actor: "auditor"})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var flagged dto.TransferResponse
	decodeBody(t, resp, &flagged)
	assert.Equal(t, "fraudulent", flagged.Status)

	// Matching a fraudulent transfer is refused.
	resp = postJSON(t, ts, "/api/transfers/"+transfer.TransferID+"/match", nil)
	assert.Equal(t, http.StatusConflict, resp.StatusCode)
	resp.Body.Close()

	// And its audit trail records the flag.
	auditResp, err := http.Get(ts.URL + "/api/transfers/" + transfer.TransferID + "/audit")
	require.NoError(t, err)
	var audit dto.AuditListResponse
	decodeBody(t, auditResp, &audit)
	require.NotZero(t, audit.Count)
	assert.Equal(t, "status_change", audit.Entries[0].Action)
}
