package llm

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

func geminiTestConfig(baseURL string) ProviderConfig {
	return ProviderConfig{
		Kind:    ProviderGoogle,
		APIKey:  "test-key",
		BaseURL: baseURL,
		Models:  map[TaskName]string{TaskChat: "gemini-2.0-flash"},
	}
}

func TestGeminiChatCompletionFlattensConversation(t *testing.T) {
	t.Parallel()

	var gotBody geminiGenerateRequest
	var gotPath, gotKey string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		gotKey = r.URL.Query().Get("key")
		json.NewDecoder(r.Body).Decode(&gotBody)
		w.Write([]byte(`{"candidates":[{"content":{"parts":[{"text":"hello from gemini"}]}}]}`))
	}))
	defer srv.Close()

	p := newGemini(geminiTestConfig(srv.URL))
	got, err := p.ChatCompletion(context.Background(), ChatRequest{
		Messages: []Message{
			{Role: RoleUser, Content: "first question"},
			{Role: RoleSystem, Content: "be brief"},
			{Role: RoleAssistant, Content: "short answer"},
		},
	}.Normalized())
	if err != nil {
		t.Fatalf("ChatCompletion: %v", err)
	}
	if got != "hello from gemini" {
		t.Errorf("content = %q", got)
	}
	if gotPath != "/models/gemini-2.0-flash:generateContent" {
		t.Errorf("path = %q", gotPath)
	}
	if gotKey != "test-key" {
		t.Errorf("key = %q", gotKey)
	}
	if len(gotBody.Contents) != 1 || len(gotBody.Contents[0].Parts) != 1 {
		t.Fatalf("contents = %+v, want single flattened part", gotBody.Contents)
	}
	prompt := gotBody.Contents[0].Parts[0].Text
	if !strings.HasPrefix(prompt, "be brief") {
		t.Errorf("system message must lead the flattened prompt, got %q", prompt)
	}
	if !strings.Contains(prompt, "first question") || !strings.Contains(prompt, "short answer") {
		t.Errorf("flattened prompt missing turns: %q", prompt)
	}
}

func TestGeminiChatCompletionJSONMode(t *testing.T) {
	t.Parallel()

	var gotBody geminiGenerateRequest
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		json.NewDecoder(r.Body).Decode(&gotBody)
		w.Write([]byte(`{"candidates":[{"content":{"parts":[{"text":"{}"}]}}]}`))
	}))
	defer srv.Close()

	p := newGemini(geminiTestConfig(srv.URL))
	_, err := p.ChatCompletion(context.Background(), ChatRequest{
		Messages:   []Message{{Role: RoleUser, Content: "hi"}},
		JSONFormat: true,
	}.Normalized())
	if err != nil {
		t.Fatalf("ChatCompletion: %v", err)
	}
	if gotBody.GenerationConfig.ResponseMimeType != "application/json" {
		t.Errorf("responseMimeType = %q", gotBody.GenerationConfig.ResponseMimeType)
	}
}

func TestGeminiChatCompletionNoCandidates(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"candidates":[]}`))
	}))
	defer srv.Close()

	p := newGemini(geminiTestConfig(srv.URL))
	got, err := p.ChatCompletion(context.Background(), ChatRequest{
		Messages: []Message{{Role: RoleUser, Content: "hi"}},
	}.Normalized())
	if err != nil {
		t.Fatalf("no candidates must not error: %v", err)
	}
	if got != "" {
		t.Errorf("content = %q, want empty", got)
	}
}

func TestGeminiEmbed(t *testing.T) {
	t.Parallel()

	var gotPath string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		w.Write([]byte(`{"embedding":{"values":[0.5,0.6]}}`))
	}))
	defer srv.Close()

	p := newGemini(geminiTestConfig(srv.URL))
	vec, err := p.Embed(context.Background(), "hello")
	if err != nil {
		t.Fatalf("Embed: %v", err)
	}
	if len(vec) != 2 {
		t.Errorf("len(vec) = %d, want 2", len(vec))
	}
	if gotPath != "/models/"+defaultGeminiEmbedModel+":embedContent" {
		t.Errorf("path = %q", gotPath)
	}
}

func TestFlattenMessages(t *testing.T) {
	t.Parallel()

	got := flattenMessages([]Message{
		{Role: RoleUser, Content: "one"},
		{Role: RoleSystem, Content: "sys"},
		{Role: RoleAssistant, Content: ""},
		{Role: RoleUser, Content: "two"},
	})
	want := "sys\none\ntwo"
	if got != want {
		t.Errorf("flattenMessages = %q, want %q", got, want)
	}
}
