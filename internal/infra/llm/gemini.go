// Google generative-language HTTP adapter. This integration has no
// multi-turn-with-system concept: the whole conversation is flattened into a
// single newline-delimited prompt, with the system message (if any) prefixed.
package llm

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"
)

const (
	defaultGeminiBaseURL    = "https://generativelanguage.googleapis.com/v1beta"
	defaultGeminiEmbedModel = "text-embedding-004"
)

type geminiProvider struct {
	baseURL    string
	apiKey     string
	models     map[TaskName]string
	httpClient *http.Client
}

func newGemini(cfg ProviderConfig) *geminiProvider {
	baseURL := strings.TrimRight(cfg.BaseURL, "/")
	if baseURL == "" {
		baseURL = defaultGeminiBaseURL
	}
	return &geminiProvider{
		baseURL:    baseURL,
		apiKey:     cfg.APIKey,
		models:     cfg.Models,
		httpClient: &http.Client{Timeout: defaultHTTPTimeout},
	}
}

func (p *geminiProvider) Name() string { return string(ProviderGoogle) }

func (p *geminiProvider) SupportsEmbeddings() bool { return true }

type geminiPart struct {
	Text string `json:"text"`
}

type geminiContent struct {
	Parts []geminiPart `json:"parts"`
}

type geminiGenerationConfig struct {
	Temperature      float64 `json:"temperature"`
	MaxOutputTokens  int     `json:"maxOutputTokens"`
	ResponseMimeType string  `json:"responseMimeType,omitempty"`
}

type geminiGenerateRequest struct {
	Contents         []geminiContent        `json:"contents"`
	GenerationConfig geminiGenerationConfig `json:"generationConfig"`
}

type geminiGenerateResponse struct {
	Candidates []struct {
		Content struct {
			Parts []geminiPart `json:"parts"`
		} `json:"content"`
	} `json:"candidates"`
}

func (p *geminiProvider) ChatCompletion(ctx context.Context, req ChatRequest) (string, error) {
	model, err := resolveModel(p.models, req)
	if err != nil {
		return "", err
	}

	payload := geminiGenerateRequest{
		Contents: []geminiContent{{Parts: []geminiPart{{Text: flattenMessages(req.Messages)}}}},
		GenerationConfig: geminiGenerationConfig{
			Temperature:     req.Temperature,
			MaxOutputTokens: req.MaxTokens,
		},
	}
	if req.JSONFormat {
		payload.GenerationConfig.ResponseMimeType = "application/json"
	}

	endpoint := fmt.Sprintf("%s/models/%s:generateContent?key=%s", p.baseURL, model, url.QueryEscape(p.apiKey))
	var out geminiGenerateResponse
	if err := p.postJSON(ctx, endpoint, payload, &out); err != nil {
		return "", err
	}
	if len(out.Candidates) == 0 {
		return "", nil
	}
	textParts := make([]string, 0, len(out.Candidates[0].Content.Parts))
	for _, part := range out.Candidates[0].Content.Parts {
		if strings.TrimSpace(part.Text) != "" {
			textParts = append(textParts, part.Text)
		}
	}
	return strings.TrimSpace(strings.Join(textParts, "\n")), nil
}

type geminiEmbedRequest struct {
	Content geminiContent `json:"content"`
}

type geminiEmbedResponse struct {
	Embedding struct {
		Values []float32 `json:"values"`
	} `json:"embedding"`
}

func (p *geminiProvider) Embed(ctx context.Context, text string) ([]float32, error) {
	model := p.models[TaskEmbedding]
	if model == "" {
		model = defaultGeminiEmbedModel
	}

	endpoint := fmt.Sprintf("%s/models/%s:embedContent?key=%s", p.baseURL, model, url.QueryEscape(p.apiKey))
	payload := geminiEmbedRequest{Content: geminiContent{Parts: []geminiPart{{Text: text}}}}
	var out geminiEmbedResponse
	if err := p.postJSON(ctx, endpoint, payload, &out); err != nil {
		return nil, err
	}
	if len(out.Embedding.Values) == 0 {
		return nil, fmt.Errorf("llm: empty embedding response")
	}
	return out.Embedding.Values, nil
}

func (p *geminiProvider) HealthCheck(ctx context.Context) error {
	endpoint := fmt.Sprintf("%s/models?key=%s", p.baseURL, url.QueryEscape(p.apiKey))
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return err
	}
	resp, err := p.httpClient.Do(httpReq)
	if err != nil {
		return fmt.Errorf("llm: google healthcheck: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode >= 300 {
		return statusError(resp)
	}
	return nil
}

func (p *geminiProvider) postJSON(ctx context.Context, endpoint string, payload any, out any) error {
	raw, err := json.Marshal(payload)
	if err != nil {
		return err
	}
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(raw))
	if err != nil {
		return err
	}
	httpReq.Header.Set("Content-Type", "application/json")

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

// flattenMessages joins the conversation into one prompt string, system first.
func flattenMessages(messages []Message) string {
	lines := make([]string, 0, len(messages))
	for _, m := range messages {
		if m.Role == RoleSystem && strings.TrimSpace(m.Content) != "" {
			lines = append(lines, m.Content)
			break
		}
	}
	for _, m := range messages {
		if m.Role == RoleSystem {
			continue
		}
		if strings.TrimSpace(m.Content) != "" {
			lines = append(lines, m.Content)
		}
	}
	return strings.Join(lines, "\n")
}
