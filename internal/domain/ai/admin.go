package ai

import (
	"context"
	"fmt"
	"strings"

	"github.com/Beor18/real-state-matches-sub000/internal/infra/llm"
)

// Admin exposes the provider-settings management surface used by the admin
// HTTP handlers: listing, saving, and connection-testing configs.
type Admin struct {
	store *SettingsStore
	svc   *Service
}

func NewAdmin(store *SettingsStore, svc *Service) *Admin {
	return &Admin{store: store, svc: svc}
}

// ListSettings returns every stored provider setting. API keys are returned
// as stored; redaction is the transport layer's job.
func (a *Admin) ListSettings(ctx context.Context) ([]ProviderSetting, error) {
	return a.store.List(ctx)
}

// SaveSetting validates and persists one provider setting, then invalidates
// the config and client caches so the change takes effect immediately.
func (a *Admin) SaveSetting(ctx context.Context, ps ProviderSetting) error {
	if _, err := llm.ParseProviderKind(ps.Provider); err != nil {
		return err
	}
	if ps.IsActive && strings.TrimSpace(ps.APIKey) == "" {
		return fmt.Errorf("ai: active provider %q requires an api key", ps.Provider)
	}
	if err := a.store.Upsert(ctx, ps); err != nil {
		return err
	}
	a.svc.Invalidate()
	return nil
}

// TestConnection health-checks a candidate setting without persisting it.
func (a *Admin) TestConnection(ctx context.Context, ps ProviderSetting) error {
	kind, err := llm.ParseProviderKind(ps.Provider)
	if err != nil {
		return err
	}
	cfg := llm.ProviderConfig{
		Kind:   kind,
		APIKey: ps.APIKey,
		Models: ps.Models,
	}
	if base := ps.Config["base_url"]; base != "" {
		cfg.BaseURL = base
	}
	return a.svc.TestConnection(ctx, cfg)
}
