package api_test

import (
	"database/sql"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/Beor18/real-state-matches-sub000/internal/api"
	"github.com/Beor18/real-state-matches-sub000/internal/infra/sqlite"
)

func newTestRouter(t *testing.T) (*sql.DB, http.Handler) {
	t.Helper()
	db, err := sqlite.NewDB(":memory:")
	if err != nil {
		t.Fatalf("NewDB: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	if err := sqlite.MigrateUp(db); err != nil {
		t.Fatalf("MigrateUp: %v", err)
	}
	return db, api.NewRouter(db)
}

func clearProviderEnv(t *testing.T) {
	t.Helper()
	for _, key := range []string{"OPENAI_API_KEY", "ANTHROPIC_API_KEY", "GOOGLE_API_KEY", "GROQ_API_KEY"} {
		t.Setenv(key, "")
	}
}

func TestHealthEndpoint(t *testing.T) {
	_, router := newTestRouter(t)

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/health", nil))

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), `"ok"`) {
		t.Errorf("body = %q", rec.Body.String())
	}
}

func TestCompleteWithoutProviders(t *testing.T) {
	clearProviderEnv(t)
	_, router := newTestRouter(t)

	body := `{"messages":[{"role":"user","content":"hi"}]}`
	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/api/v1/ai/complete", strings.NewReader(body))
	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusServiceUnavailable {
		t.Fatalf("status = %d, want 503 when nothing is configured", rec.Code)
	}
}

func TestCompleteRejectsBadBody(t *testing.T) {
	clearProviderEnv(t)
	_, router := newTestRouter(t)

	cases := []string{
		`{`,
		`{"messages":[]}`,
		`{"messages":[{"role":"robot","content":"hi"}]}`,
	}
	for _, body := range cases {
		rec := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodPost, "/api/v1/ai/complete", strings.NewReader(body))
		router.ServeHTTP(rec, req)
		if rec.Code != http.StatusBadRequest {
			t.Errorf("body %q: status = %d, want 400", body, rec.Code)
		}
	}
}

func TestSimilarityEndpoint(t *testing.T) {
	_, router := newTestRouter(t)

	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/api/v1/ai/similarity",
		strings.NewReader(`{"a":[1,0],"b":[1,0]}`))
	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, body = %s", rec.Code, rec.Body.String())
	}
	var resp struct {
		Similarity float64 `json:"similarity"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatal(err)
	}
	if resp.Similarity < 0.999 {
		t.Errorf("similarity = %v, want 1.0", resp.Similarity)
	}

	rec = httptest.NewRecorder()
	req = httptest.NewRequest(http.MethodPost, "/api/v1/ai/similarity",
		strings.NewReader(`{"a":[1,0],"b":[1]}`))
	router.ServeHTTP(rec, req)
	if rec.Code != http.StatusBadRequest {
		t.Errorf("dimension mismatch: status = %d, want 400", rec.Code)
	}
}

func TestProviderAdminRoundTrip(t *testing.T) {
	clearProviderEnv(t)
	_, router := newTestRouter(t)

	put := `{"api_key":"sk-secret-1234","is_active":true,"is_primary":true,"models":{"chat":"gpt-4o-mini"}}`
	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPut, "/api/v1/admin/providers/openai", strings.NewReader(put))
	router.ServeHTTP(rec, req)
	if rec.Code != http.StatusOK {
		t.Fatalf("upsert status = %d, body = %s", rec.Code, rec.Body.String())
	}

	rec = httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/v1/admin/providers", nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("list status = %d", rec.Code)
	}
	body := rec.Body.String()
	if strings.Contains(body, "sk-secret-1234") {
		t.Error("api key must be redacted in list responses")
	}
	if !strings.Contains(body, "1234") {
		t.Error("redacted key should keep the last 4 characters")
	}
	if !strings.Contains(body, "gpt-4o-mini") {
		t.Errorf("models missing from list: %s", body)
	}
}

func TestProviderUpsertRejectsUnknownProvider(t *testing.T) {
	_, router := newTestRouter(t)

	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPut, "/api/v1/admin/providers/ollama",
		strings.NewReader(`{"api_key":"x","is_active":true}`))
	router.ServeHTTP(rec, req)
	if rec.Code != http.StatusBadRequest {
		t.Errorf("status = %d, want 400 for unknown provider", rec.Code)
	}
}

func TestAuditTrailRecordsRequests(t *testing.T) {
	clearProviderEnv(t)
	_, router := newTestRouter(t)

	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/api/v1/ai/complete",
		strings.NewReader(`{"messages":[{"role":"user","content":"hi"}]}`))
	router.ServeHTTP(rec, req)

	rec = httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/v1/admin/audit", nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("audit list status = %d", rec.Code)
	}
	var resp struct {
		Data []struct {
			Path    string `json:"path"`
			Outcome string `json:"outcome"`
		} `json:"data"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatal(err)
	}
	found := false
	for _, evt := range resp.Data {
		if evt.Path == "/api/v1/ai/complete" && evt.Outcome == "error" {
			found = true
		}
	}
	if !found {
		t.Errorf("expected an audit row for the failed completion, got %+v", resp.Data)
	}
}

func TestProviderTestEndpoint(t *testing.T) {
	_, router := newTestRouter(t)

	// Fake provider endpoint standing in for /models.
	upstream := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"data":[]}`))
	}))
	defer upstream.Close()

	body := `{"provider":"openai","api_key":"sk-test","config":{"base_url":"` + upstream.URL + `"}}`
	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/api/v1/admin/providers/test", strings.NewReader(body))
	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, body = %s", rec.Code, rec.Body.String())
	}
	if !strings.Contains(rec.Body.String(), `"ok":true`) {
		t.Errorf("body = %s, want ok true", rec.Body.String())
	}
}
