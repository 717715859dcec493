// Shared helpers for the gateway HTTP handlers.
package handlers

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/Beor18/real-state-matches-sub000/internal/domain/ai"
)

const (
	headerContentType = "Content-Type"
	mimeJSON          = "application/json"

	errInvalidBody     = "invalid request body"
	errFailedToEncode  = "failed to encode response"
	maxRequestBodySize = 1 << 20 // 1MB
)

// writeJSON writes a JSON response with the given status.
func writeJSON(w http.ResponseWriter, statusCode int, payload any) {
	w.Header().Set(headerContentType, mimeJSON)
	w.WriteHeader(statusCode)
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		http.Error(w, `{"error":"failed to encode response"}`, http.StatusInternalServerError)
	}
}

// writeError writes a JSON error response.
func writeError(w http.ResponseWriter, statusCode int, message string) {
	writeJSON(w, statusCode, map[string]string{"error": message})
}

// writeServiceError maps domain failures to HTTP status codes. Configuration
// gaps are 503 (operator-fixable), upstream exhaustion is 502, preconditions
// are 400.
func writeServiceError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, ai.ErrNoProviderConfigured):
		writeError(w, http.StatusServiceUnavailable, err.Error())
	case errors.Is(err, ai.ErrNoEmbeddingProvider):
		writeError(w, http.StatusServiceUnavailable, err.Error())
	case errors.Is(err, ai.ErrAllProvidersFailed):
		writeError(w, http.StatusBadGateway, err.Error())
	case errors.Is(err, ai.ErrDimensionMismatch):
		writeError(w, http.StatusBadRequest, err.Error())
	default:
		writeError(w, http.StatusInternalServerError, err.Error())
	}
}

// decodeJSON decodes a bounded request body into dst.
func decodeJSON(r *http.Request, dst any) error {
	dec := json.NewDecoder(http.MaxBytesReader(nil, r.Body, maxRequestBodySize))
	dec.DisallowUnknownFields()
	return dec.Decode(dst)
}

// redactKey keeps only the last 4 characters of an API key for display.
func redactKey(key string) string {
	if key == "" {
		return ""
	}
	if len(key) <= 4 {
		return "****"
	}
	return "****" + key[len(key)-4:]
}
