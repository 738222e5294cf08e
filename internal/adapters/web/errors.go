package web

import (
	"encoding/json"
	"net/http"

	"github.com/rs/zerolog/log"

	"bakehouse/internal/core"
)

type errorResponse struct {
	Error     string `json:"error"`
	Code      string `json:"code"`
	RequestID string `json:"request_id,omitempty"`
}

// writeError writes a structured JSON error response.
func writeError(w http.ResponseWriter, r *http.Request, message, code string, status int) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	resp := errorResponse{
		Error:     message,
		Code:      code,
		RequestID: requestIDFromContext(r.Context()),
	}
	_ = json.NewEncoder(w).Encode(resp)
}

// writeDomainError maps a domain error to its HTTP status and error code.
// Unclassified errors are logged and surfaced as an opaque 500.
func writeDomainError(w http.ResponseWriter, r *http.Request, err error) {
	switch core.KindOf(err) {
	case core.KindValidation:
		writeError(w, r, err.Error(), "VALIDATION_ERROR", http.StatusBadRequest)
	case core.KindNotFound:
		writeError(w, r, err.Error(), "NOT_FOUND", http.StatusNotFound)
	case core.KindAuthorization:
		writeError(w, r, err.Error(), "FORBIDDEN", http.StatusForbidden)
	case core.KindConflict:
		writeError(w, r, err.Error(), "CONFLICT", http.StatusConflict)
	default:
		log.Error().Err(err).
			Str("request_id", requestIDFromContext(r.Context())).
			Str("path", r.URL.Path).
			Msg("request failed")
		writeError(w, r, "internal server error", "INTERNAL_ERROR", http.StatusInternalServerError)
	}
}

// writeJSON writes a JSON response with status 200.
func writeJSON(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(v)
}

// writeJSONStatus writes a JSON response with an explicit status code.
func writeJSONStatus(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
