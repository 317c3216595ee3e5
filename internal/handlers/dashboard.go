package handlers

import (
	"errors"
	"net/http"

	"github.com/academic-portal/apiserver/internal/services"
	"github.com/academic-portal/apiserver/internal/store"
	"github.com/academic-portal/apiserver/types"
)

type DashboardHandler struct {
	accounts *services.AccountService
}

func NewDashboardHandler(accounts *services.AccountService) *DashboardHandler {
	return &DashboardHandler{accounts: accounts}
}

// Get renders the signed-in user's profile, greeting and courses.
func (h *DashboardHandler) Get(w http.ResponseWriter, r *http.Request) {
	userID, err := userIDFromContext(r.Context())
	if err != nil {
		writeError(w, http.StatusUnauthorized, "unauthorized")
		return
	}

	dash, err := h.accounts.Dashboard(r.Context(), userID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			writeError(w, http.StatusUnauthorized, "unauthorized")
			return
		}
		writeError(w, http.StatusInternalServerError, "failed to load dashboard")
		return
	}
	if dash.Courses == nil {
		dash.Courses = []types.Course{}
	}
	writeJSON(w, http.StatusOK, dash)
}
