// OpenAI-compatible HTTP adapter. Serves both the OpenAI API and Groq,
// which exposes the same chat-completions dialect under a different base URL.
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
	defaultOpenAIBaseURL = "https://api.openai.com/v1"
	defaultGroqBaseURL   = "https://api.groq.com/openai/v1"

	defaultOpenAIEmbedModel = "text-embedding-3-small"
)

type openAIProvider struct {
	kind       ProviderKind
	baseURL    string
	apiKey     string
	models     map[TaskName]string
	embeddings bool
	httpClient *http.Client
}

func newOpenAI(cfg ProviderConfig, kind ProviderKind, defaultBaseURL string, embeddings bool) *openAIProvider {
	baseURL := strings.TrimRight(cfg.BaseURL, "/")
	if baseURL == "" {
		baseURL = defaultBaseURL
	}
	return &openAIProvider{
		kind:       kind,
		baseURL:    baseURL,
		apiKey:     cfg.APIKey,
		models:     cfg.Models,
		embeddings: embeddings,
		httpClient: &http.Client{Timeout: defaultHTTPTimeout},
	}
}

func (p *openAIProvider) Name() string { return string(p.kind) }

func (p *openAIProvider) SupportsEmbeddings() bool { return p.embeddings }

type openAIResponseFormat struct {
	Type string `json:"type"`
}

type openAIChatRequest struct {
	Model          string                `json:"model"`
	Messages       []Message             `json:"messages"`
	Temperature    float64               `json:"temperature"`
	MaxTokens      int                   `json:"max_tokens"`
	ResponseFormat *openAIResponseFormat `json:"response_format,omitempty"`
}

type openAIChatResponse struct {
	Choices []struct {
		Message struct {
			Content string `json:"content"`
		} `json:"message"`
	} `json:"choices"`
}

// ChatCompletion sends the message list verbatim; jsonMode maps to the
// structured-output response_format flag.
func (p *openAIProvider) ChatCompletion(ctx context.Context, req ChatRequest) (string, error) {
	model, err := resolveModel(p.models, req)
	if err != nil {
		return "", err
	}

	payload := openAIChatRequest{
		Model:       model,
		Messages:    req.Messages,
		Temperature: req.Temperature,
		MaxTokens:   req.MaxTokens,
	}
	if req.JSONFormat {
		payload.ResponseFormat = &openAIResponseFormat{Type: "json_object"}
	}

	var out openAIChatResponse
	if err := p.postJSON(ctx, "/chat/completions", payload, &out); err != nil {
		return "", err
	}
	if len(out.Choices) == 0 {
		return "", nil
	}
	return out.Choices[0].Message.Content, nil
}

type openAIEmbedRequest struct {
	Model string `json:"model"`
	Input string `json:"input"`
}

type openAIEmbedResponse struct {
	Data []struct {
		Embedding []float32 `json:"embedding"`
	} `json:"data"`
}

func (p *openAIProvider) Embed(ctx context.Context, text string) ([]float32, error) {
	if !p.embeddings {
		return nil, fmt.Errorf("llm: provider %q does not support embeddings", p.kind)
	}
	model := p.models[TaskEmbedding]
	if model == "" {
		model = defaultOpenAIEmbedModel
	}

	var out openAIEmbedResponse
	if err := p.postJSON(ctx, "/embeddings", openAIEmbedRequest{Model: model, Input: text}, &out); err != nil {
		return nil, err
	}
	if len(out.Data) == 0 {
		return nil, fmt.Errorf("llm: empty embedding response")
	}
	return out.Data[0].Embedding, nil
}

// HealthCheck lists models, the cheapest authenticated call in this dialect.
func (p *openAIProvider) HealthCheck(ctx context.Context) error {
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodGet, p.baseURL+"/models", nil)
	if err != nil {
		return err
	}
	httpReq.Header.Set("Authorization", "Bearer "+p.apiKey)

	resp, err := p.httpClient.Do(httpReq)
	if err != nil {
		return fmt.Errorf("llm: %s healthcheck: %w", p.kind, err)
	}
	defer resp.Body.Close()
	if resp.StatusCode >= 300 {
		return statusError(resp)
	}
	return nil
}

func (p *openAIProvider) postJSON(ctx context.Context, path string, payload any, out any) error {
	raw, err := json.Marshal(payload)
	if err != nil {
		return err
	}
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, p.baseURL+path, bytes.NewReader(raw))
	if err != nil {
		return err
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("Authorization", "Bearer "+p.apiKey)

	resp, err := p.httpClient.Do(httpReq)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if resp.StatusCode >= 300 {
		return statusError(resp)
	}
	return json.NewDecoder(resp.Body).Decode(out)
}
