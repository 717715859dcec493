package handlers

import (
	"context"
	"net/http"
	"strconv"

	"github.com/Beor18/real-state-matches-sub000/internal/domain/audit"
)

// AuditReader is the contract consumed by this handler. audit.Service
// satisfies it.
type AuditReader interface {
	ListRecent(ctx context.Context, limit int) ([]audit.Event, error)
}

// AuditHandler exposes the request audit trail to operators.
type AuditHandler struct {
	service AuditReader
}

// NewAuditHandler creates a new AuditHandler instance.
func NewAuditHandler(service AuditReader) *AuditHandler {
	return &AuditHandler{service: service}
}

// List returns the most recent audit events.
// GET /api/v1/admin/audit?limit=50
func (h *AuditHandler) List(w http.ResponseWriter, r *http.Request) {
	limit := 50
	if raw := r.URL.Query().Get("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n <= 0 {
			writeError(w, http.StatusBadRequest, "invalid limit")
			return
		}
		limit = n
	}

	events, err := h.service.ListRecent(r.Context(), limit)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	if events == nil {
		events = []audit.Event{}
	}
	writeJSON(w, http.StatusOK, map[string]any{"data": events})
}
