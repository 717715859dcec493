package handlers

import (
	"context"
	"net/http"

	"github.com/Beor18/real-state-matches-sub000/internal/infra/llm"
)

// CompletionService is the orchestration contract consumed by this handler.
// ai.Service satisfies it.
type CompletionService interface {
	CompleteMulti(ctx context.Context, req llm.ChatRequest) (string, error)
}

// CompletionHandler handles multi-provider chat completion requests.
type CompletionHandler struct {
	service CompletionService
}

// NewCompletionHandler creates a new CompletionHandler instance.
func NewCompletionHandler(service CompletionService) *CompletionHandler {
	return &CompletionHandler{service: service}
}

// CompleteRequest is the request body for a completion.
type CompleteRequest struct {
	Model       string        `json:"model,omitempty"`
	Task        string        `json:"task,omitempty"`
	Messages    []llm.Message `json:"messages"`
	Temperature float64       `json:"temperature,omitempty"`
	MaxTokens   int           `json:"max_tokens,omitempty"`
	JSONFormat  bool          `json:"json_format,omitempty"`
}

// CompleteResponse is the response body for a completion.
type CompleteResponse struct {
	Response string `json:"response"`
}

// Complete runs the fan-out completion across all active providers.
// POST /api/v1/ai/complete
func (h *CompletionHandler) Complete(w http.ResponseWriter, r *http.Request) {
	var req CompleteRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, errInvalidBody)
		return
	}
	if len(req.Messages) == 0 {
		writeError(w, http.StatusBadRequest, "messages are required")
		return
	}
	for _, m := range req.Messages {
		switch m.Role {
		case llm.RoleSystem, llm.RoleUser, llm.RoleAssistant:
		default:
			writeError(w, http.StatusBadRequest, "invalid message role: "+m.Role)
			return
		}
	}

	result, err := h.service.CompleteMulti(r.Context(), llm.ChatRequest{
		Model:       req.Model,
		Task:        llm.TaskName(req.Task),
		Messages:    req.Messages,
		Temperature: req.Temperature,
		MaxTokens:   req.MaxTokens,
		JSONFormat:  req.JSONFormat,
	})
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, CompleteResponse{Response: result})
}
