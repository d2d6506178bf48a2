package handlers_test

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/atenea-cash/atenea-backend/internal/api/dto"
	"github.com/atenea-cash/atenea-backend/internal/api/handlers"
	"github.com/atenea-cash/atenea-backend/internal/infrastructure/storage"
)

func TestUsersHandler_Create(t *testing.T) {
	t.Run("registers active user", func(t *testing.T) {
		repo := storage.NewMockRepository()
		handler := handlers.NewUsersHandler(repo)

		body, _ := json.Marshal(dto.CreateUserRequest{
			CanonicalName: "María Gómez",
			TaxID:         "27-23456789-4",
			WalletAlias:   "maria.g",
		})

		req := httptest.NewRequest(http.MethodPost, "/api/users", bytes.NewReader(body))
		rec := httptest.NewRecorder()

		handler.Create(rec, req)

		assert.Equal(t, http.StatusCreated, rec.Code)

		var response dto.UserResponse
		require.NoError(t, json.NewDecoder(rec.Body).Decode(&response))
		assert.NotEmpty(t, response.UserID)
		assert.Equal(t, "María Gómez", response.CanonicalName)
		assert.True(t, response.Active)
	})

	t.Run("rejects name without letters", func(t *testing.T) {
		repo := storage.NewMockRepository()
		handler := handlers.NewUsersHandler(repo)

		body, _ := json.Marshal(dto.CreateUserRequest{CanonicalName: "12345"})

		req := httptest.NewRequest(http.MethodPost, "/api/users", bytes.NewReader(body))
		rec := httptest.NewRecorder()

		handler.Create(rec, req)

		assert.Equal(t, http.StatusBadRequest, rec.Code)

		var response dto.APIError
		require.NoError(t, json.NewDecoder(rec.Body).Decode(&response))
		assert.Equal(t, dto.ErrCodeValidation, response.Code)
	})
}

func TestUsersHandler_Search(t *testing.T) {
	repo := storage.NewMockRepository()
	seedHandlerUser(t, repo)
	handler := handlers.NewUsersHandler(repo)

	req := httptest.NewRequest(http.MethodGet, "/api/users/search?q=perez", nil)
	rec := httptest.NewRecorder()

	handler.Search(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)

	var response dto.UserListResponse
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&response))
	assert.Equal(t, 1, response.Count)
	assert.Equal(t, "perez", response.Query)
}

func TestUsersHandler_Update(t *testing.T) {
	t.Run("deactivates user", func(t *testing.T) {
		repo := storage.NewMockRepository()
		seedHandlerUser(t, repo)
		handler := handlers.NewUsersHandler(repo)

		active := false
		body, _ := json.Marshal(dto.UpdateUserRequest{Active: &active})

		req := httptest.NewRequest(http.MethodPatch, "/api/users/user-1", bytes.NewReader(body))
		req = req.WithContext(setChiURLParam(req.Context(), "id", "user-1"))
		rec := httptest.NewRecorder()

		handler.Update(rec, req)

		assert.Equal(t, http.StatusOK, rec.Code)

		var response dto.UserResponse
		require.NoError(t, json.NewDecoder(rec.Body).Decode(&response))
		assert.False(t, response.Active)
	})

	t.Run("returns 404 for unknown user", func(t *testing.T) {
		repo := storage.NewMockRepository()
		handler := handlers.NewUsersHandler(repo)

		name := "New Name"
		body, _ := json.Marshal(dto.UpdateUserRequest{CanonicalName: &name})

		req := httptest.NewRequest(http.MethodPatch, "/api/users/ghost", bytes.NewReader(body))
		req = req.WithContext(setChiURLParam(req.Context(), "id", "ghost"))
		rec := httptest.NewRecorder()

		handler.Update(rec, req)

		assert.Equal(t, http.StatusNotFound, rec.Code)
	})
}
