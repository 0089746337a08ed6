package web

import (
	"context"
	"encoding/json"
	"errors"
	"log"
	"net/http"

	"pos-backend/internal/core"
)

type errorResponse struct {
	Error     string `json:"error"`
	Code      string `json:"code"`
	RequestID string `json:"request_id,omitempty"`
}

// writeError writes a structured JSON error response.
func writeError(w http.ResponseWriter, r *http.Request, message, code string, status int) {
	writeJSON(w, status, errorResponse{
		Error:     message,
		Code:      code,
		RequestID: requestIDFromContext(r.Context()),
	})
}

// writeJSON writes v as a JSON response with the given status.
func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

var errorStatuses = []struct {
	err    error
	status int
	code   string
}{
	{core.ErrValidation, http.StatusBadRequest, "VALIDATION_ERROR"},
	{core.ErrInsufficientStock, http.StatusBadRequest, "INSUFFICIENT_STOCK"},
	{core.ErrUnknownReference, http.StatusBadRequest, "UNKNOWN_REFERENCE"},
	{core.ErrNotFound, http.StatusNotFound, "NOT_FOUND"},
	{core.ErrDuplicate, http.StatusConflict, "DUPLICATE"},
	{core.ErrInvalidTransition, http.StatusConflict, "INVALID_TRANSITION"},
	{core.ErrUnauthorized, http.StatusUnauthorized, "UNAUTHORIZED"},
	{core.ErrForbidden, http.StatusForbidden, "FORBIDDEN"},
}

// writeServiceError maps a domain error onto an HTTP status. Domain messages
// are safe to return; anything unclassified is logged and hidden.
func writeServiceError(w http.ResponseWriter, r *http.Request, err error) {
	for _, e := range errorStatuses {
		if errors.Is(err, e.err) {
			writeError(w, r, err.Error(), e.code, e.status)
			return
		}
	}
	if errors.Is(err, context.DeadlineExceeded) {
		writeError(w, r, "request timed out", "TIMEOUT", http.StatusGatewayTimeout)
		return
	}
	log.Printf("request %s: %s %s failed: %v", requestIDFromContext(r.Context()), r.Method, r.URL.Path, err)
	writeError(w, r, "internal server error", "INTERNAL_ERROR", http.StatusInternalServerError)
}
