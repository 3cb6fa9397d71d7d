package http

import (
	"encoding/json"
	"errors"
	"net/http"

	"carrental-backend/internal/domain"
)

// Error kinds surfaced in the JSON envelope. Callers branch on kind, so the
// set is closed: infrastructure failures always collapse to RETRYABLE.
const (
	kindValidation      = "VALIDATION"
	kindConflict        = "CONFLICT"
	kindForbidden       = "FORBIDDEN"
	kindAlreadyTerminal = "ALREADY_TERMINAL"
	kindNotFound        = "NOT_FOUND"
	kindRetryable       = "RETRYABLE"
)

type errorBody struct {
	Kind    string `json:"kind"`
	Message string `json:"message"`
}

type errorEnvelope struct {
	Error errorBody `json:"error"`
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}

func writeError(w http.ResponseWriter, err error) {
	kind, status := kindRetryable, http.StatusServiceUnavailable
	switch {
	case errors.Is(err, domain.ErrValidation):
		kind, status = kindValidation, http.StatusBadRequest
	case errors.Is(err, domain.ErrConflict):
		kind, status = kindConflict, http.StatusConflict
	case errors.Is(err, domain.ErrForbidden):
		kind, status = kindForbidden, http.StatusForbidden
	case errors.Is(err, domain.ErrAlreadyTerminal):
		kind, status = kindAlreadyTerminal, http.StatusConflict
	case errors.Is(err, domain.ErrNotFound):
		kind, status = kindNotFound, http.StatusNotFound
	}
	writeJSON(w, status, errorEnvelope{Error: errorBody{Kind: kind, Message: err.Error()}})
}
