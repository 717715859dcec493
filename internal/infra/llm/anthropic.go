// Anthropic HTTP adapter. The messages endpoint has no inline system role,
// so the first system message is split out into the top-level system field.
package llm

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
)

const (
	defaultAnthropicBaseURL = "https://api.anthropic.com/v1"
	anthropicVersion        = "2023-06-01"
)

type anthropicProvider struct {
	baseURL    string
	apiKey     string
	models     map[TaskName]string
	httpClient *http.Client
}

func newAnthropic(cfg ProviderConfig) *anthropicProvider {
	baseURL := strings.TrimRight(cfg.BaseURL, "/")
	if baseURL == "" {
		baseURL = defaultAnthropicBaseURL
	}
	return &anthropicProvider{
		baseURL:    baseURL,
		apiKey:     cfg.APIKey,
		models:     cfg.Models,
		httpClient: &http.Client{Timeout: defaultHTTPTimeout},
	}
}

func (p *anthropicProvider) Name() string { return string(ProviderAnthropic) }

func (p *anthropicProvider) SupportsEmbeddings() bool { return false }

type anthropicChatRequest struct {
	Model       string    `json:"model"`
	System      string    `json:"system,omitempty"`
	Messages    []Message `json:"messages"`
	MaxTokens   int       `json:"max_tokens"`
	Temperature float64   `json:"temperature"`
}

type anthropicChatResponse struct {
	Content []struct {
		Type string `json:"type"`
		Text string `json:"text"`
	} `json:"content"`
}

// ChatCompletion sends user/assistant turns and returns the first text-typed
// content block, or empty string if none.
func (p *anthropicProvider) ChatCompletion(ctx context.Context, req ChatRequest) (string, error) {
	model, err := resolveModel(p.models, req)
	if err != nil {
		return "", err
	}

	system, messages := splitSystemMessage(req.Messages)
	payload := anthropicChatRequest{
		Model:       model,
		System:      system,
		Messages:    messages,
		MaxTokens:   req.MaxTokens,
		Temperature: req.Temperature,
	}

	raw, err := json.Marshal(payload)
	if err != nil {
		return "", err
	}
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, p.baseURL+"/messages", bytes.NewReader(raw))
	if err != nil {
		return "", err
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("x-api-key", p.apiKey)
	httpReq.Header.Set("anthropic-version", anthropicVersion)

	resp, err := p.httpClient.Do(httpReq)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()
	if resp.StatusCode >= 300 {
		return "", statusError(resp)
	}

	var out anthropicChatResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return "", err
	}
	for _, block := range out.Content {
		if block.Type == "text" {
			return block.Text, nil
		}
	}
	return "", nil
}

func (p *anthropicProvider) Embed(ctx context.Context, text string) ([]float32, error) {
	return nil, fmt.Errorf("llm: provider %q does not support embeddings", ProviderAnthropic)
}

func (p *anthropicProvider) HealthCheck(ctx context.Context) error {
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodGet, p.baseURL+"/models", nil)
	if err != nil {
		return err
	}
	httpReq.Header.Set("x-api-key", p.apiKey)
	httpReq.Header.Set("anthropic-version", anthropicVersion)

	resp, err := p.httpClient.Do(httpReq)
	if err != nil {
		return fmt.Errorf("llm: anthropic healthcheck: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode >= 300 {
		return statusError(resp)
	}
	return nil
}

// splitSystemMessage extracts the first system message and returns the
// remaining user/assistant turns. Additional system messages are dropped.
func splitSystemMessage(messages []Message) (string, []Message) {
	system := ""
	out := make([]Message, 0, len(messages))
	for _, m := range messages {
		if m.Role == RoleSystem {
			if system == "" {
				system = m.Content
			}
			continue
		}
		out = append(out, m)
	}
	return system, out
}
