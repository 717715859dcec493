package handlers

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/Beor18/real-state-matches-sub000/internal/domain/ai"
	"github.com/Beor18/real-state-matches-sub000/internal/infra/llm"
)

type stubCompletionService struct {
	reply string
	err   error
	got   llm.ChatRequest
	calls int
}

func (s *stubCompletionService) CompleteMulti(ctx context.Context, req llm.ChatRequest) (string, error) {
	s.calls++
	s.got = req
	return s.reply, s.err
}

func postJSON(t *testing.T, handler http.HandlerFunc, body string) *httptest.ResponseRecorder {
	t.Helper()
	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(body))
	handler(rec, req)
	return rec
}

func TestCompleteSuccess(t *testing.T) {
	t.Parallel()

	svc := &stubCompletionService{reply: "merged answer"}
	h := NewCompletionHandler(svc)

	body := `{"task":"analysis","messages":[{"role":"user","content":"analyze this"}],"max_tokens":300,"json_format":true}`
	rec := postJSON(t, h.Complete, body)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, body = %s", rec.Code, rec.Body.String())
	}
	var resp CompleteResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatal(err)
	}
	if resp.Response != "merged answer" {
		t.Errorf("response = %q", resp.Response)
	}
	if svc.got.Task != llm.TaskAnalysis || svc.got.MaxTokens != 300 || !svc.got.JSONFormat {
		t.Errorf("service received %+v", svc.got)
	}
}

func TestCompleteValidation(t *testing.T) {
	t.Parallel()

	svc := &stubCompletionService{}
	h := NewCompletionHandler(svc)

	for _, body := range []string{
		`not json`,
		`{"messages":[]}`,
		`{"messages":[{"role":"other","content":"x"}]}`,
		`{"unknown_field":true,"messages":[{"role":"user","content":"x"}]}`,
	} {
		rec := postJSON(t, h.Complete, body)
		if rec.Code != http.StatusBadRequest {
			t.Errorf("body %q: status = %d, want 400", body, rec.Code)
		}
	}
	if svc.calls != 0 {
		t.Errorf("service called %d times on invalid input, want 0", svc.calls)
	}
}

func TestCompleteErrorMapping(t *testing.T) {
	t.Parallel()

	cases := []struct {
		err  error
		want int
	}{
		{ai.ErrNoProviderConfigured, http.StatusServiceUnavailable},
		{ai.ErrAllProvidersFailed, http.StatusBadGateway},
	}
	for _, tc := range cases {
		h := NewCompletionHandler(&stubCompletionService{err: tc.err})
		rec := postJSON(t, h.Complete, `{"messages":[{"role":"user","content":"hi"}]}`)
		if rec.Code != tc.want {
			t.Errorf("%v: status = %d, want %d", tc.err, rec.Code, tc.want)
		}
	}
}
