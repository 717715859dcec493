package llm

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
)

// ProviderKind is the closed set of supported provider dialects.
type ProviderKind string

const (
	ProviderOpenAI    ProviderKind = "openai"
	ProviderAnthropic ProviderKind = "anthropic"
	ProviderGoogle    ProviderKind = "google"
	ProviderGroq      ProviderKind = "groq"
)

// ParseProviderKind validates a raw provider name from storage or API input.
func ParseProviderKind(s string) (ProviderKind, error) {
	kind := ProviderKind(strings.ToLower(strings.TrimSpace(s)))
	switch kind {
	case ProviderOpenAI, ProviderAnthropic, ProviderGoogle, ProviderGroq:
		return kind, nil
	default:
		return "", fmt.Errorf("llm: unknown provider %q", s)
	}
}

// ProviderConfig is one active provider configuration as loaded from storage
// or the environment fallback. Immutable for the lifetime of the config cache.
type ProviderConfig struct {
	Kind    ProviderKind
	APIKey  string
	BaseURL string // optional endpoint override (tests, proxies)
	Models  map[TaskName]string
	Extra   map[string]string
	// IsPrimary marks the config that executes synthesis and embedding calls.
	// Exactly one config is primary per loaded snapshot.
	IsPrimary bool
}

// Provider is the model-agnostic interface every adapter implements.
// Adapter failures (network, auth, rate limit) propagate to the caller;
// retry and fallback belong to the orchestrator, not the adapter.
type Provider interface {
	// Name returns the provider kind label, e.g. "openai".
	Name() string

	// ChatCompletion performs a non-streaming chat completion and returns the
	// assistant text, or empty string when the provider returned no content.
	ChatCompletion(ctx context.Context, req ChatRequest) (string, error)

	// Embed computes a dense vector representation for one text.
	Embed(ctx context.Context, text string) ([]float32, error)

	// SupportsEmbeddings reports whether this provider exposes an embedding endpoint.
	SupportsEmbeddings() bool

	// HealthCheck returns nil if the provider is reachable with the configured key.
	HealthCheck(ctx context.Context) error
}

const defaultHTTPTimeout = 60 * time.Second

// New constructs the adapter for a config. The switch is exhaustive over
// ProviderKind so adding a provider is a compile-time-checked addition.
func New(cfg ProviderConfig) (Provider, error) {
	if strings.TrimSpace(cfg.APIKey) == "" {
		return nil, fmt.Errorf("llm: api key is required for provider %q", cfg.Kind)
	}
	switch cfg.Kind {
	case ProviderOpenAI:
		return newOpenAI(cfg, ProviderOpenAI, defaultOpenAIBaseURL, true), nil
	case ProviderGroq:
		// Groq speaks the OpenAI dialect; only the endpoint differs.
		return newOpenAI(cfg, ProviderGroq, defaultGroqBaseURL, false), nil
	case ProviderAnthropic:
		return newAnthropic(cfg), nil
	case ProviderGoogle:
		return newGemini(cfg), nil
	default:
		return nil, fmt.Errorf("llm: unsupported provider %q", cfg.Kind)
	}
}

// resolveModel picks the effective model for a request:
// explicit request model, else the config entry for the task, else the chat entry.
func resolveModel(models map[TaskName]string, req ChatRequest) (string, error) {
	if req.Model != "" {
		return req.Model, nil
	}
	task := req.Task
	if task == "" {
		task = TaskChat
	}
	if m := models[task]; m != "" {
		return m, nil
	}
	if m := models[TaskChat]; m != "" {
		return m, nil
	}
	return "", fmt.Errorf("llm: no model configured for task %q", task)
}

// statusError turns a non-2xx provider response into an error with a body excerpt.
func statusError(resp *http.Response) error {
	if resp == nil {
		return fmt.Errorf("llm: empty http response")
	}
	raw, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
	body := strings.TrimSpace(string(raw))
	if body == "" {
		return fmt.Errorf("llm: http status %d", resp.StatusCode)
	}
	return fmt.Errorf("llm: http status %d body=%s", resp.StatusCode, body)
}
