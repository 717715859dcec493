package handlers

import (
	"context"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/Beor18/real-state-matches-sub000/internal/domain/ai"
	"github.com/Beor18/real-state-matches-sub000/internal/infra/llm"
)

// ProviderAdminService is the settings-management contract consumed by this
// handler. ai.Admin satisfies it.
type ProviderAdminService interface {
	ListSettings(ctx context.Context) ([]ai.ProviderSetting, error)
	SaveSetting(ctx context.Context, ps ai.ProviderSetting) error
	TestConnection(ctx context.Context, ps ai.ProviderSetting) error
}

// ProviderHandler handles provider-settings admin endpoints.
type ProviderHandler struct {
	service ProviderAdminService
}

// NewProviderHandler creates a new ProviderHandler instance.
func NewProviderHandler(service ProviderAdminService) *ProviderHandler {
	return &ProviderHandler{service: service}
}

// ProviderSettingResponse is one provider row with the API key redacted.
type ProviderSettingResponse struct {
	Provider  string            `json:"provider"`
	APIKey    string            `json:"api_key"`
	IsActive  bool              `json:"is_active"`
	IsPrimary bool              `json:"is_primary"`
	Models    map[string]string `json:"models,omitempty"`
	Config    map[string]string `json:"config,omitempty"`
	UpdatedAt string            `json:"updated_at,omitempty"`
}

// List returns every stored provider setting, keys redacted.
// GET /api/v1/admin/providers
func (h *ProviderHandler) List(w http.ResponseWriter, r *http.Request) {
	settings, err := h.service.ListSettings(r.Context())
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}

	resp := make([]ProviderSettingResponse, 0, len(settings))
	for _, ps := range settings {
		out := ProviderSettingResponse{
			Provider:  ps.Provider,
			APIKey:    redactKey(ps.APIKey),
			IsActive:  ps.IsActive,
			IsPrimary: ps.IsPrimary,
			Config:    ps.Config,
		}
		if len(ps.Models) > 0 {
			out.Models = make(map[string]string, len(ps.Models))
			for task, model := range ps.Models {
				out.Models[string(task)] = model
			}
		}
		if !ps.UpdatedAt.IsZero() {
			out.UpdatedAt = ps.UpdatedAt.UTC().Format("2006-01-02T15:04:05Z")
		}
		resp = append(resp, out)
	}
	writeJSON(w, http.StatusOK, map[string]any{"data": resp})
}

// UpsertProviderRequest is the request body for saving a provider setting.
type UpsertProviderRequest struct {
	APIKey    string            `json:"api_key"`
	IsActive  bool              `json:"is_active"`
	IsPrimary bool              `json:"is_primary"`
	Models    map[string]string `json:"models,omitempty"`
	Config    map[string]string `json:"config,omitempty"`
}

// Upsert saves the setting for the provider named in the URL.
// PUT /api/v1/admin/providers/{provider}
func (h *ProviderHandler) Upsert(w http.ResponseWriter, r *http.Request) {
	provider := strings.ToLower(chi.URLParam(r, "provider"))
	if provider == "" {
		writeError(w, http.StatusBadRequest, "provider is required")
		return
	}

	var req UpsertProviderRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, errInvalidBody)
		return
	}

	ps := toProviderSetting(provider, req)
	if err := h.service.SaveSetting(r.Context(), ps); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "saved", "provider": provider})
}

// TestProviderRequest is the request body for a connection test.
type TestProviderRequest struct {
	Provider string            `json:"provider"`
	APIKey   string            `json:"api_key"`
	Models   map[string]string `json:"models,omitempty"`
	Config   map[string]string `json:"config,omitempty"`
}

// Test health-checks a candidate setting without persisting it.
// POST /api/v1/admin/providers/test
func (h *ProviderHandler) Test(w http.ResponseWriter, r *http.Request) {
	var req TestProviderRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, errInvalidBody)
		return
	}
	if req.Provider == "" || req.APIKey == "" {
		writeError(w, http.StatusBadRequest, "provider and api_key are required")
		return
	}

	ps := toProviderSetting(req.Provider, UpsertProviderRequest{
		APIKey: req.APIKey,
		Models: req.Models,
		Config: req.Config,
	})
	if err := h.service.TestConnection(r.Context(), ps); err != nil {
		writeJSON(w, http.StatusOK, map[string]any{"ok": false, "error": err.Error()})
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"ok": true})
}

func toProviderSetting(provider string, req UpsertProviderRequest) ai.ProviderSetting {
	ps := ai.ProviderSetting{
		Provider:  provider,
		APIKey:    req.APIKey,
		IsActive:  req.IsActive,
		IsPrimary: req.IsPrimary,
		Config:    req.Config,
	}
	if len(req.Models) > 0 {
		ps.Models = make(map[llm.TaskName]string, len(req.Models))
		for task, model := range req.Models {
			ps.Models[llm.TaskName(task)] = model
		}
	}
	return ps
}
