package handlers

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/atenea-cash/atenea-backend/internal/api/dto"
	"github.com/atenea-cash/atenea-backend/internal/domain/model"
	"github.com/atenea-cash/atenea-backend/internal/domain/normalize"
	"github.com/atenea-cash/atenea-backend/internal/infrastructure/storage"
)

// UsersHandler handles user directory HTTP requests.
type UsersHandler struct {
	*Base
}

// NewUsersHandler creates a new users handler.
func NewUsersHandler(repo storage.Repository) *UsersHandler {
	return &UsersHandler{
		Base: NewBase(repo),
	}
}

// Create handles POST /api/users - registers a new user.
func (h *UsersHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req dto.CreateUserRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.WriteError(w, http.StatusBadRequest, dto.BadRequestError("invalid request body"))
		return
	}

	// A user the matcher can never resolve is not worth storing.
	if normalize.Name(req.CanonicalName) == "" {
		h.WriteError(w, http.StatusBadRequest, dto.ValidationError("canonical_name must contain letters"))
		return
	}

	user := &model.User{
		ID:            "USR_" + uuid.New().String(),
		CanonicalName: req.CanonicalName,
		TaxID:         req.TaxID,
		WalletAlias:   req.WalletAlias,
		Organization:  req.Organization,
		ExternalRef:   req.ExternalRef,
		Active:        true,
		CreatedAt:     time.Now(),
	}

	if err := h.repo.CreateUser(user); err != nil {
		h.WriteError(w, http.StatusInternalServerError, dto.InternalError())
		return
	}

	h.WriteJSON(w, http.StatusCreated, toUserResponse(user))
}

// Get handles GET /api/users/{id} - returns a single user by ID.
func (h *UsersHandler) Get(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if id == "" {
		h.WriteError(w, http.StatusBadRequest, dto.BadRequestError("user ID is required"))
		return
	}

	user, err := h.repo.GetUser(id)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			h.WriteError(w, http.StatusNotFound, dto.NotFoundError("user"))
			return
		}
		h.WriteError(w, http.StatusInternalServerError, dto.InternalError())
		return
	}

	h.WriteJSON(w, http.StatusOK, toUserResponse(user))
}

// Search handles GET /api/users/search - finds active users by name or alias.
func (h *UsersHandler) Search(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query().Get("q")
	limit := ParseIntParam(r, "limit", 50)

	users, err := h.repo.SearchUsers(query, limit)
	if err != nil {
		h.WriteError(w, http.StatusInternalServerError, dto.InternalError())
		return
	}

	response := dto.UserListResponse{
		Users: make([]dto.UserResponse, 0, len(users)),
		Query: query,
		Count: len(users),
	}
	for _, user := range users {
		response.Users = append(response.Users, toUserResponse(user))
	}

	h.WriteJSON(w, http.StatusOK, response)
}

// Update handles PATCH /api/users/{id} - partial update of a user.
func (h *UsersHandler) Update(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if id == "" {
		h.WriteError(w, http.StatusBadRequest, dto.BadRequestError("user ID is required"))
		return
	}

	var req dto.UpdateUserRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.WriteError(w, http.StatusBadRequest, dto.BadRequestError("invalid request body"))
		return
	}
	if req.CanonicalName != nil && normalize.Name(*req.CanonicalName) == "" {
		h.WriteError(w, http.StatusBadRequest, dto.ValidationError("canonical_name must contain letters"))
		return
	}

	patch := storage.UserPatch{
		CanonicalName: req.CanonicalName,
		TaxID:         req.TaxID,
		WalletAlias:   req.WalletAlias,
		Organization:  req.Organization,
		ExternalRef:   req.ExternalRef,
		Active:        req.Active,
	}

	if err := h.repo.UpdateUser(id, patch); err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			h.WriteError(w, http.StatusNotFound, dto.NotFoundError("user"))
			return
		}
		h.WriteError(w, http.StatusInternalServerError, dto.InternalError())
		return
	}

	updated, err := h.repo.GetUser(id)
	if err != nil {
		h.WriteError(w, http.StatusInternalServerError, dto.InternalError())
		return
	}

	h.WriteJSON(w, http.StatusOK, toUserResponse(updated))
}

// toUserResponse converts a user to an API response.
func toUserResponse(user *model.User) dto.UserResponse {
	return dto.UserResponse{
		UserID:        user.ID,
		CanonicalName: user.CanonicalName,
		TaxID:         user.TaxID,
		WalletAlias:   user.WalletAlias,
		Organization:  user.Organization,
		ExternalRef:   user.ExternalRef,
		Active:        user.Active,
		CreatedAt:     user.CreatedAt.Format(time.RFC3339),
	}
}
