package handlers

import (
	"net/http"

	"github.com/academic-portal/apiserver/internal/services"
	"github.com/academic-portal/apiserver/types"
	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"
)

type CourseHandler struct {
	courses  *services.CourseService
	validate *validator.Validate
}

func NewCourseHandler(courses *services.CourseService, validate *validator.Validate) *CourseHandler {
	return &CourseHandler{courses: courses, validate: validate}
}

// CourseRouter registers course routes on the given router.
func CourseRouter(r chi.Router, courses *services.CourseService, validate *validator.Validate) {
	handler := NewCourseHandler(courses, validate)

	r.Post("/", handler.CreateCourse)
	r.Get("/user/{userID}", handler.ListCoursesByUser)
}

type CreateCourseRequest struct {
	ID          string `json:"id" validate:"required,max=64"`
	Title       string `json:"title" validate:"required,max=200"`
	Description string `json:"description"`
	UserID      string `json:"userId" validate:"required"`
	CreatedAt   string `json:"createdAt"`
}

func (h *CourseHandler) CreateCourse(w http.ResponseWriter, r *http.Request) {
	var req CreateCourseRequest
	if err := decodeJSON(r, h.validate, &req); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	createdAt, err := parseCreatedAt(req.CreatedAt)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	_, err = h.courses.Create(r.Context(), types.Course{
		ID:          req.ID,
		Title:       req.Title,
		Description: req.Description,
		UserID:      req.UserID,
		CreatedAt:   createdAt,
	})
	if err != nil {
		writeStoreError(w, err, "failed to create course")
		return
	}

	writeJSON(w, http.StatusOK, SuccessResponse{Success: true})
}

// ListCoursesByUser returns an empty array for users without courses.
func (h *CourseHandler) ListCoursesByUser(w http.ResponseWriter, r *http.Request) {
	userID, err := pathParam(r, "userID")
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	courses, err := h.courses.ListByUser(r.Context(), userID)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to list courses")
		return
	}
	if courses == nil {
		courses = []types.Course{}
	}
	writeJSON(w, http.StatusOK, courses)
}
