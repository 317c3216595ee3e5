package handlers

import (
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/academic-portal/apiserver/internal/services"
	"github.com/academic-portal/apiserver/internal/store"
	"github.com/academic-portal/apiserver/internal/timeutil"
	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"
)

// UserHandler serves the raw user persistence routes.
type UserHandler struct {
	users    *services.UserService
	validate *validator.Validate
}

func NewUserHandler(users *services.UserService, validate *validator.Validate) *UserHandler {
	return &UserHandler{users: users, validate: validate}
}

// UserRouter registers user routes on the given router.
func UserRouter(r chi.Router, users *services.UserService, validate *validator.Validate) {
	handler := NewUserHandler(users, validate)

	r.Post("/", handler.CreateUser)
	r.Get("/email/{email}", handler.GetUserByEmail)
	r.Get("/id/{id}", handler.GetUserByID)
	r.Delete("/id/{id}", handler.DeleteUser)
}

type CreateUserRequest struct {
	ID        string `json:"id" validate:"omitempty,max=128"`
	Email     string `json:"email" validate:"required,max=320"`
	Name      string `json:"name" validate:"required,max=200"`
	Password  string `json:"password" validate:"required"`
	CreatedAt string `json:"createdAt"`
}

func (h *UserHandler) CreateUser(w http.ResponseWriter, r *http.Request) {
	var req CreateUserRequest
	if err := decodeJSON(r, h.validate, &req); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	createdAt, err := parseCreatedAt(req.CreatedAt)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	_, err = h.users.Create(r.Context(), services.NewUser{
		ID:        req.ID,
		Email:     req.Email,
		Name:      req.Name,
		Password:  req.Password,
		CreatedAt: createdAt,
	})
	if err != nil {
		writeStoreError(w, err, "failed to create user")
		return
	}

	writeJSON(w, http.StatusOK, SuccessResponse{Success: true})
}

// GetUserByEmail answers null rather than 404 for an unknown email.
func (h *UserHandler) GetUserByEmail(w http.ResponseWriter, r *http.Request) {
	email, err := pathParam(r, "email")
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	user, err := h.users.GetByEmail(r.Context(), email)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			writeJSON(w, http.StatusOK, nil)
			return
		}
		writeError(w, http.StatusInternalServerError, "failed to fetch user")
		return
	}
	writeJSON(w, http.StatusOK, user)
}

func (h *UserHandler) GetUserByID(w http.ResponseWriter, r *http.Request) {
	id, err := pathParam(r, "id")
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	user, err := h.users.GetByID(r.Context(), id)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			writeJSON(w, http.StatusOK, nil)
			return
		}
		writeError(w, http.StatusInternalServerError, "failed to fetch user")
		return
	}
	writeJSON(w, http.StatusOK, user)
}

func (h *UserHandler) DeleteUser(w http.ResponseWriter, r *http.Request) {
	id, err := pathParam(r, "id")
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	if err := h.users.Delete(r.Context(), id); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			writeError(w, http.StatusNotFound, "user not found")
			return
		}
		writeError(w, http.StatusInternalServerError, "failed to delete user")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// parseCreatedAt returns the zero time for an empty value so the service
// stamps the current time.
func parseCreatedAt(raw string) (time.Time, error) {
	if strings.TrimSpace(raw) == "" {
		return time.Time{}, nil
	}
	t, err := timeutil.Parse(raw)
	if err != nil {
		return time.Time{}, fmt.Errorf("%w: createdAt: %w", services.ErrInvalidInput, err)
	}
	return t, nil
}
