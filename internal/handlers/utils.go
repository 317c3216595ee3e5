package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"

	"github.com/academic-portal/apiserver/internal/services"
	"github.com/academic-portal/apiserver/internal/store"
	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"
)

const maxBodyBytes = 1 << 20

type contextKey string

const contextSubjectKey contextKey = "sub"

// ErrorResponse is a simple error payload.
type ErrorResponse struct {
	Error string `json:"error"`
}

// SuccessResponse acknowledges a write on the compatibility routes.
type SuccessResponse struct {
	Success bool `json:"success"`
}

func userIDFromContext(ctx context.Context) (string, error) {
	subject, ok := ctx.Value(contextSubjectKey).(string)
	if !ok {
		return "", errors.New("missing subject")
	}
	subject = strings.TrimSpace(subject)
	if subject == "" {
		return "", errors.New("invalid subject")
	}
	return subject, nil
}

// pathParam returns the decoded route parameter. chi matches on the escaped
// path, so "a%40x.com" arrives still encoded.
func pathParam(r *http.Request, name string) (string, error) {
	value, err := url.PathUnescape(chi.URLParam(r, name))
	if err != nil {
		return "", fmt.Errorf("%w: malformed %s", services.ErrInvalidInput, name)
	}
	return value, nil
}

func writeJSON(w http.ResponseWriter, status int, value any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(value)
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, ErrorResponse{Error: message})
}

// decodeJSON reads a single JSON object into dst and validates it.
func decodeJSON(r *http.Request, validate *validator.Validate, dst any) error {
	dec := json.NewDecoder(io.LimitReader(r.Body, maxBodyBytes))
	if err := dec.Decode(dst); err != nil {
		return fmt.Errorf("%w: malformed JSON body", services.ErrInvalidInput)
	}
	if validate == nil {
		return nil
	}
	if err := validate.Struct(dst); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) && len(verrs) > 0 {
			return fmt.Errorf("%w: %s failed on %q", services.ErrInvalidInput, verrs[0].Field(), verrs[0].Tag())
		}
		return fmt.Errorf("%w: %w", services.ErrInvalidInput, err)
	}
	return nil
}

// writeStoreError maps the persistence taxonomy onto a status code. Write
// failures the caller can fix are reported as 400 with the reason.
func writeStoreError(w http.ResponseWriter, err error, fallback string) {
	switch {
	case errors.Is(err, services.ErrInvalidInput),
		errors.Is(err, store.ErrDuplicateKey),
		errors.Is(err, store.ErrForeignKeyViolation):
		writeError(w, http.StatusBadRequest, err.Error())
	case errors.Is(err, store.ErrNotFound):
		writeError(w, http.StatusNotFound, "not found")
	default:
		writeError(w, http.StatusInternalServerError, fallback)
	}
}

// Healthz reports liveness.
func Healthz(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// NewValidator returns the request validator shared by all handlers.
func NewValidator() *validator.Validate {
	return validator.New(validator.WithRequiredStructEnabled())
}
