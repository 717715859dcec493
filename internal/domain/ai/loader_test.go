package ai

import (
	"context"
	"errors"
	"testing"

	"github.com/Beor18/real-state-matches-sub000/internal/infra/eventbus"
	"github.com/Beor18/real-state-matches-sub000/internal/infra/llm"
)

func clearProviderEnv(t *testing.T) {
	t.Helper()
	for _, key := range []string{"OPENAI_API_KEY", "ANTHROPIC_API_KEY", "GOOGLE_API_KEY", "GROQ_API_KEY"} {
		t.Setenv(key, "")
	}
}

func TestLoadActiveCachesSnapshot(t *testing.T) {
	clearProviderEnv(t)
	store := &stubStore{configs: []llm.ProviderConfig{
		{Kind: llm.ProviderOpenAI, APIKey: "k1", IsPrimary: true, Models: map[llm.TaskName]string{llm.TaskChat: "gpt-4o-mini"}},
	}}
	loader := NewConfigLoader(store, nil, nil)

	first, err := loader.LoadActive(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	second, err := loader.LoadActive(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	if store.calls != 1 {
		t.Errorf("storage reads = %d, want 1 (second call served from cache)", store.calls)
	}
	if len(second) != 1 || second[0].APIKey != first[0].APIKey ||
		second[0].Kind != first[0].Kind || second[0].Models[llm.TaskChat] != first[0].Models[llm.TaskChat] {
		t.Errorf("cached snapshot differs: %+v vs %+v", first, second)
	}

	loader.Invalidate()
	if _, err := loader.LoadActive(context.Background()); err != nil {
		t.Fatal(err)
	}
	if store.calls != 2 {
		t.Errorf("storage reads after Invalidate = %d, want 2", store.calls)
	}
}

func TestLoadActivePromotesFirstToPrimary(t *testing.T) {
	clearProviderEnv(t)
	store := &stubStore{configs: []llm.ProviderConfig{
		{Kind: llm.ProviderAnthropic, APIKey: "a"},
		{Kind: llm.ProviderOpenAI, APIKey: "b"},
	}}
	loader := NewConfigLoader(store, nil, nil)

	configs, err := loader.LoadActive(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	if !configs[0].IsPrimary {
		t.Error("first config must be promoted to primary when none is flagged")
	}
	if configs[1].IsPrimary {
		t.Error("only one config may be primary")
	}
}

func TestLoadActiveDemotesExtraPrimaries(t *testing.T) {
	clearProviderEnv(t)
	store := &stubStore{configs: []llm.ProviderConfig{
		{Kind: llm.ProviderAnthropic, APIKey: "a", IsPrimary: true},
		{Kind: llm.ProviderOpenAI, APIKey: "b", IsPrimary: true},
	}}
	loader := NewConfigLoader(store, nil, nil)

	configs, err := loader.LoadActive(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	primaries := 0
	for _, cfg := range configs {
		if cfg.IsPrimary {
			primaries++
		}
	}
	if primaries != 1 {
		t.Errorf("primary count = %d, want exactly 1", primaries)
	}
	if !configs[0].IsPrimary {
		t.Error("first flagged config must keep the primary flag")
	}
}

func TestLoadActiveFiltersBlankKeys(t *testing.T) {
	clearProviderEnv(t)
	store := &stubStore{configs: []llm.ProviderConfig{
		{Kind: llm.ProviderOpenAI, APIKey: "   "},
		{Kind: llm.ProviderAnthropic, APIKey: "usable"},
	}}
	loader := NewConfigLoader(store, nil, nil)

	configs, err := loader.LoadActive(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	if len(configs) != 1 || configs[0].Kind != llm.ProviderAnthropic {
		t.Errorf("configs = %+v, want only the record with a usable credential", configs)
	}
}

func TestLoadActiveStorageErrorDegradesToEnv(t *testing.T) {
	clearProviderEnv(t)
	t.Setenv("ANTHROPIC_API_KEY", "env-key")

	store := &stubStore{err: errors.New("connection refused")}
	bus := eventbus.New()
	events := bus.Subscribe(eventbus.TopicConfigDegraded)
	loader := NewConfigLoader(store, bus, nil)

	configs, err := loader.LoadActive(context.Background())
	if err != nil {
		t.Fatalf("storage errors must never propagate: %v", err)
	}
	if len(configs) != 1 || configs[0].Kind != llm.ProviderAnthropic {
		t.Fatalf("configs = %+v, want single anthropic env fallback", configs)
	}
	if !configs[0].IsPrimary {
		t.Error("env fallback config must be primary")
	}
	if configs[0].Models[llm.TaskChat] == "" {
		t.Error("env fallback must carry a default chat model")
	}

	select {
	case evt := <-events:
		payload := evt.Payload.(DegradedEvent)
		if payload.Reason != "storage_error" || payload.Fallback != "anthropic" {
			t.Errorf("unexpected degrade event: %+v", payload)
		}
	default:
		t.Error("expected a config degraded event")
	}
}

func TestLoadActiveEnvPrecedence(t *testing.T) {
	clearProviderEnv(t)
	t.Setenv("OPENAI_API_KEY", "openai-key")
	t.Setenv("GROQ_API_KEY", "groq-key")

	loader := NewConfigLoader(&stubStore{}, nil, nil)
	configs, err := loader.LoadActive(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	if len(configs) != 1 || configs[0].Kind != llm.ProviderOpenAI {
		t.Errorf("configs = %+v, openai must win the fallback precedence", configs)
	}
}

func TestLoadActiveEmptyEverywhere(t *testing.T) {
	clearProviderEnv(t)
	bus := eventbus.New()
	events := bus.Subscribe(eventbus.TopicConfigDegraded)
	loader := NewConfigLoader(&stubStore{}, bus, nil)

	configs, err := loader.LoadActive(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	if len(configs) != 0 {
		t.Errorf("configs = %+v, want none", configs)
	}
	select {
	case evt := <-events:
		payload := evt.Payload.(DegradedEvent)
		if payload.Reason != "storage_empty" || payload.Fallback != "none" {
			t.Errorf("unexpected degrade event: %+v", payload)
		}
	default:
		t.Error("expected a config degraded event")
	}
}
