package ai

import (
	"context"
	"log"
	"os"
	"strings"
	"sync"

	"github.com/Beor18/real-state-matches-sub000/internal/infra/eventbus"
	"github.com/Beor18/real-state-matches-sub000/internal/infra/llm"
)

// SettingsReader is the storage dependency of the loader.
type SettingsReader interface {
	ListActive(ctx context.Context) ([]llm.ProviderConfig, error)
}

// Environment fallback credentials, checked in order.
var envFallbacks = []struct {
	envKey string
	kind   llm.ProviderKind
}{
	{"OPENAI_API_KEY", llm.ProviderOpenAI},
	{"ANTHROPIC_API_KEY", llm.ProviderAnthropic},
	{"GOOGLE_API_KEY", llm.ProviderGoogle},
	{"GROQ_API_KEY", llm.ProviderGroq},
}

// Default per-task model maps used by the environment fallback, where no
// storage record exists to carry them.
var envDefaultModels = map[llm.ProviderKind]map[llm.TaskName]string{
	llm.ProviderOpenAI: {
		llm.TaskChat:      "gpt-4o-mini",
		llm.TaskAnalysis:  "gpt-4o",
		llm.TaskContent:   "gpt-4o-mini",
		llm.TaskEmbedding: "text-embedding-3-small",
	},
	llm.ProviderAnthropic: {
		llm.TaskChat:     "claude-3-5-haiku-latest",
		llm.TaskAnalysis: "claude-sonnet-4-20250514",
		llm.TaskContent:  "claude-3-5-haiku-latest",
	},
	llm.ProviderGoogle: {
		llm.TaskChat:      "gemini-2.0-flash",
		llm.TaskAnalysis:  "gemini-2.0-flash",
		llm.TaskContent:   "gemini-2.0-flash",
		llm.TaskEmbedding: "text-embedding-004",
	},
	llm.ProviderGroq: {
		llm.TaskChat:     "llama-3.3-70b-versatile",
		llm.TaskAnalysis: "llama-3.3-70b-versatile",
		llm.TaskContent:  "llama-3.3-70b-versatile",
	},
}

// DegradedEvent is the payload published on eventbus.TopicConfigDegraded when
// the loader falls back to environment credentials.
type DegradedEvent struct {
	Reason   string `json:"reason"` // "storage_error" or "storage_empty"
	Detail   string `json:"detail,omitempty"`
	Fallback string `json:"fallback"` // provider kind serving the fallback, or "none"
}

// ConfigLoader loads active provider configs from storage with an environment
// fallback, caching the snapshot until explicitly invalidated. The cache is an
// injected object, not package state, so tests run in isolation.
type ConfigLoader struct {
	store  SettingsReader
	bus    eventbus.EventBus
	logger *log.Logger

	mu     sync.Mutex
	cached []llm.ProviderConfig
}

func NewConfigLoader(store SettingsReader, bus eventbus.EventBus, logger *log.Logger) *ConfigLoader {
	if logger == nil {
		logger = log.Default()
	}
	return &ConfigLoader{store: store, bus: bus, logger: logger}
}

// LoadActive returns the active provider configs, primary first, with exactly
// one config marked primary. The result is cached until Invalidate.
//
// Storage failures never propagate: the loader logs them, publishes a
// degraded-config event, and serves the environment fallback instead. This
// trades strictness for availability on purpose.
func (l *ConfigLoader) LoadActive(ctx context.Context) ([]llm.ProviderConfig, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	if l.cached != nil {
		return l.cached, nil
	}

	configs, err := l.store.ListActive(ctx)
	if err != nil {
		l.logger.Printf("ai: provider settings storage unavailable, using environment fallback: %v", err)
		configs = l.degrade("storage_error", err.Error())
	} else {
		configs = filterUsable(configs)
		if len(configs) == 0 {
			configs = l.degrade("storage_empty", "")
		}
	}
	if len(configs) == 0 {
		return nil, nil
	}

	l.cached = normalizePrimary(configs)
	return l.cached, nil
}

// Primary returns the config designated to run synthesis and embedding calls.
func (l *ConfigLoader) Primary(ctx context.Context) (llm.ProviderConfig, error) {
	configs, err := l.LoadActive(ctx)
	if err != nil {
		return llm.ProviderConfig{}, err
	}
	for _, cfg := range configs {
		if cfg.IsPrimary {
			return cfg, nil
		}
	}
	return llm.ProviderConfig{}, ErrNoProviderConfigured
}

// Invalidate clears the cached snapshot. The next LoadActive hits storage again.
func (l *ConfigLoader) Invalidate() {
	l.mu.Lock()
	l.cached = nil
	l.mu.Unlock()
}

func (l *ConfigLoader) degrade(reason, detail string) []llm.ProviderConfig {
	fallback, ok := envFallbackConfig()
	evt := DegradedEvent{Reason: reason, Detail: detail, Fallback: "none"}
	if ok {
		evt.Fallback = string(fallback.Kind)
	}
	if l.bus != nil {
		l.bus.Publish(eventbus.TopicConfigDegraded, evt)
	}
	if !ok {
		return nil
	}
	return []llm.ProviderConfig{fallback}
}

// envFallbackConfig derives a single-provider config from the first
// environment credential found, with the hardcoded default model map.
func envFallbackConfig() (llm.ProviderConfig, bool) {
	for _, fb := range envFallbacks {
		key := strings.TrimSpace(os.Getenv(fb.envKey))
		if key == "" {
			continue
		}
		return llm.ProviderConfig{
			Kind:      fb.kind,
			APIKey:    key,
			Models:    envDefaultModels[fb.kind],
			IsPrimary: true,
		}, true
	}
	return llm.ProviderConfig{}, false
}

// filterUsable drops records without a usable credential.
func filterUsable(configs []llm.ProviderConfig) []llm.ProviderConfig {
	out := configs[:0]
	for _, cfg := range configs {
		if strings.TrimSpace(cfg.APIKey) == "" {
			continue
		}
		out = append(out, cfg)
	}
	return out
}

// normalizePrimary guarantees exactly one primary config: the first flagged
// row wins, extra flags are cleared, and the first row is promoted when
// storage had none marked.
func normalizePrimary(configs []llm.ProviderConfig) []llm.ProviderConfig {
	seen := false
	for i := range configs {
		if configs[i].IsPrimary {
			if seen {
				configs[i].IsPrimary = false
			}
			seen = true
		}
	}
	if !seen {
		configs[0].IsPrimary = true
	}
	return configs
}
