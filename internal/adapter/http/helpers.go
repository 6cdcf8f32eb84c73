package http

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/Strob0t/TripCrew/internal/domain"
)

// GenericFailure is the only failure text shown to users. Causes are logged.
const GenericFailure = "Trip planning failed. Please try again."

// ConflictMessage is shown when a submitted run id was already used.
const ConflictMessage = "This plan was already submitted. Start a new one from the form."

// ---------------------------------------------------------------------------
// Request helpers
// ---------------------------------------------------------------------------

// readJSON decodes a JSON request body with a size limit.
func readJSON[T any](w http.ResponseWriter, r *http.Request, bodyLimit int64) (T, bool) {
	var v T
	r.Body = http.MaxBytesReader(w, r.Body, bodyLimit)
	if err := json.NewDecoder(r.Body).Decode(&v); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			writeError(w, http.StatusRequestEntityTooLarge, "request body too large")
		} else {
			writeError(w, http.StatusBadRequest, "invalid request body")
		}
		return v, false
	}
	return v, true
}

// urlParam is a short alias for chi.URLParam.
func urlParam(r *http.Request, name string) string {
	return chi.URLParam(r, name)
}

// ---------------------------------------------------------------------------
// Response helpers
// ---------------------------------------------------------------------------

type errorResponse struct {
	Error string `json:"error"`
}

func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		slog.Error("failed to write JSON response", "error", err)
	}
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, errorResponse{Error: message})
}

// domainStatus maps an error to an HTTP status and the message safe to show.
// Validation messages are shown; everything else is generic.
func domainStatus(err error, notFoundMsg string) (int, string) {
	switch {
	case errors.Is(err, domain.ErrValidation):
		return http.StatusBadRequest, strings.TrimPrefix(validationMessage(err), domain.ErrValidation.Error()+": ")
	case errors.Is(err, domain.ErrNotFound):
		return http.StatusNotFound, notFoundMsg
	case errors.Is(err, domain.ErrConflict):
		return http.StatusConflict, ConflictMessage
	case errors.Is(err, context.DeadlineExceeded):
		return http.StatusGatewayTimeout, GenericFailure
	case errors.Is(err, domain.ErrExecution), errors.Is(err, domain.ErrConfiguration):
		return http.StatusBadGateway, GenericFailure
	default:
		return http.StatusInternalServerError, "internal server error"
	}
}

// validationMessage strips wrapping context added above the validation error.
func validationMessage(err error) string {
	msg := err.Error()
	if i := strings.Index(msg, domain.ErrValidation.Error()); i > 0 {
		return msg[i:]
	}
	return msg
}

func writeDomainError(w http.ResponseWriter, r *http.Request, err error, notFoundMsg string) {
	status, msg := domainStatus(err, notFoundMsg)
	if status >= http.StatusInternalServerError {
		slog.ErrorContext(r.Context(), "request failed", "status", status, "error", err)
	}
	writeError(w, status, msg)
}
