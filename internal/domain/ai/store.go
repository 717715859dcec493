package ai

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/Beor18/real-state-matches-sub000/internal/infra/llm"
)

// ProviderSetting is one provider_settings row as managed from the admin
// surface. Models and Config are stored as JSON columns.
type ProviderSetting struct {
	Provider  string                  `json:"provider"`
	APIKey    string                  `json:"api_key"`
	IsActive  bool                    `json:"is_active"`
	IsPrimary bool                    `json:"is_primary"`
	Models    map[llm.TaskName]string `json:"models"`
	Config    map[string]string       `json:"config"`
	UpdatedAt time.Time               `json:"updated_at"`
}

// SettingsStore reads and writes provider settings in SQLite.
type SettingsStore struct {
	db *sql.DB
}

func NewSettingsStore(db *sql.DB) *SettingsStore {
	return &SettingsStore{db: db}
}

// ListActive returns all active provider configs, primary-flagged rows first.
// Rows with an unrecognized provider name are skipped rather than failing the
// whole load.
func (s *SettingsStore) ListActive(ctx context.Context) ([]llm.ProviderConfig, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT provider, api_key, is_primary, models, config
		FROM provider_settings
		WHERE is_active = 1
		ORDER BY is_primary DESC, provider ASC`)
	if err != nil {
		return nil, fmt.Errorf("list active provider settings: %w", err)
	}
	defer rows.Close()

	var configs []llm.ProviderConfig
	for rows.Next() {
		var provider, apiKey string
		var isPrimary bool
		var modelsRaw, configRaw []byte
		if err := rows.Scan(&provider, &apiKey, &isPrimary, &modelsRaw, &configRaw); err != nil {
			return nil, fmt.Errorf("scan provider setting: %w", err)
		}
		kind, err := llm.ParseProviderKind(provider)
		if err != nil {
			continue
		}
		cfg := llm.ProviderConfig{Kind: kind, APIKey: apiKey, IsPrimary: isPrimary}
		if len(modelsRaw) > 0 {
			if err := json.Unmarshal(modelsRaw, &cfg.Models); err != nil {
				return nil, fmt.Errorf("decode models for %s: %w", provider, err)
			}
		}
		if len(configRaw) > 0 {
			if err := json.Unmarshal(configRaw, &cfg.Extra); err != nil {
				return nil, fmt.Errorf("decode config for %s: %w", provider, err)
			}
		}
		if base := cfg.Extra["base_url"]; base != "" {
			cfg.BaseURL = base
		}
		configs = append(configs, cfg)
	}
	return configs, rows.Err()
}

// List returns every provider setting row, active or not, for the admin view.
func (s *SettingsStore) List(ctx context.Context) ([]ProviderSetting, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT provider, api_key, is_active, is_primary, models, config, updated_at
		FROM provider_settings
		ORDER BY is_primary DESC, provider ASC`)
	if err != nil {
		return nil, fmt.Errorf("list provider settings: %w", err)
	}
	defer rows.Close()

	var settings []ProviderSetting
	for rows.Next() {
		var ps ProviderSetting
		var modelsRaw, configRaw []byte
		var updatedAt string
		if err := rows.Scan(&ps.Provider, &ps.APIKey, &ps.IsActive, &ps.IsPrimary, &modelsRaw, &configRaw, &updatedAt); err != nil {
			return nil, fmt.Errorf("scan provider setting: %w", err)
		}
		// The column is TEXT in sqlite's datetime('now') format.
		ps.UpdatedAt, _ = time.Parse("2006-01-02 15:04:05", updatedAt)
		if len(modelsRaw) > 0 {
			if err := json.Unmarshal(modelsRaw, &ps.Models); err != nil {
				return nil, fmt.Errorf("decode models for %s: %w", ps.Provider, err)
			}
		}
		if len(configRaw) > 0 {
			if err := json.Unmarshal(configRaw, &ps.Config); err != nil {
				return nil, fmt.Errorf("decode config for %s: %w", ps.Provider, err)
			}
		}
		settings = append(settings, ps)
	}
	return settings, rows.Err()
}

// Upsert inserts or replaces the setting for one provider. When the row is
// marked primary, every other row loses the flag in the same transaction.
func (s *SettingsStore) Upsert(ctx context.Context, ps ProviderSetting) error {
	if _, err := llm.ParseProviderKind(ps.Provider); err != nil {
		return err
	}
	modelsRaw, err := json.Marshal(ps.Models)
	if err != nil {
		return fmt.Errorf("encode models: %w", err)
	}
	configRaw, err := json.Marshal(ps.Config)
	if err != nil {
		return fmt.Errorf("encode config: %w", err)
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin upsert: %w", err)
	}
	defer tx.Rollback()

	if ps.IsPrimary {
		if _, err := tx.ExecContext(ctx, `UPDATE provider_settings SET is_primary = 0 WHERE provider != ?`, ps.Provider); err != nil {
			return fmt.Errorf("demote previous primary: %w", err)
		}
	}
	_, err = tx.ExecContext(ctx, `
		INSERT INTO provider_settings (provider, api_key, is_active, is_primary, models, config, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, CURRENT_TIMESTAMP)
		ON CONFLICT(provider) DO UPDATE SET
			api_key = excluded.api_key,
			is_active = excluded.is_active,
			is_primary = excluded.is_primary,
			models = excluded.models,
			config = excluded.config,
			updated_at = CURRENT_TIMESTAMP`,
		ps.Provider, ps.APIKey, ps.IsActive, ps.IsPrimary, string(modelsRaw), string(configRaw))
	if err != nil {
		return fmt.Errorf("upsert provider setting: %w", err)
	}
	return tx.Commit()
}
