package handlers

import (
	"context"
	"net/http"

	"github.com/academic-portal/apiserver/types"
	"github.com/go-chi/chi/v5"
)

// Exporter produces a consistent dump of every user and course.
type Exporter interface {
	ExportSnapshot(ctx context.Context) (types.Snapshot, error)
}

type ExportHandler struct {
	exporter Exporter
}

func NewExportHandler(exporter Exporter) *ExportHandler {
	return &ExportHandler{exporter: exporter}
}

func ExportRouter(r chi.Router, exporter Exporter) {
	r.Get("/", NewExportHandler(exporter).Export)
}

func (h *ExportHandler) Export(w http.ResponseWriter, r *http.Request) {
	snapshot, err := h.exporter.ExportSnapshot(r.Context())
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to export data")
		return
	}
	if snapshot.Users == nil {
		snapshot.Users = []types.User{}
	}
	if snapshot.Courses == nil {
		snapshot.Courses = []types.Course{}
	}
	writeJSON(w, http.StatusOK, snapshot)
}
