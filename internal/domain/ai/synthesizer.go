package ai

import (
	"context"
	"fmt"
	"strings"

	"github.com/Beor18/real-state-matches-sub000/internal/infra/llm"
)

// Extra output budget for the synthesis call on top of the caller's limit,
// since the merge prompt embeds every raw response.
const synthesisTokenHeadroom = 1000

// synthesize issues one additional completion on the primary provider that
// merges the surviving responses. It never fans out.
func (s *Service) synthesize(ctx context.Context, primary llm.ProviderConfig, responses []ProviderResponse, req llm.ChatRequest) (string, error) {
	provider, err := s.clients.Get(primary)
	if err != nil {
		return "", err
	}

	mergeReq := req
	mergeReq.MaxTokens = req.MaxTokens + synthesisTokenHeadroom
	mergeReq.Messages = []llm.Message{
		{Role: llm.RoleUser, Content: buildSynthesisPrompt(responses, req.Messages, req.JSONFormat)},
	}
	return provider.ChatCompletion(ctx, mergeReq)
}

// buildSynthesisPrompt assembles the merge prompt: the restated user query,
// every surviving response under a labeled separator, and mode-specific merge
// instructions.
func buildSynthesisPrompt(responses []ProviderResponse, original []llm.Message, jsonMode bool) string {
	var b strings.Builder
	b.WriteString("The same request was answered by multiple AI providers. ")
	b.WriteString("Merge their responses into one best answer.\n\n")
	b.WriteString("Original request:\n")
	b.WriteString(userQuery(original))
	b.WriteString("\n\n")

	for _, r := range responses {
		fmt.Fprintf(&b, "--- Response from %s ---\n%s\n\n", r.Provider, r.Response)
	}

	if jsonMode {
		b.WriteString("Merge instructions:\n")
		b.WriteString("- Preserve the exact JSON shape and fields of the responses above.\n")
		b.WriteString("- Do not introduce keys that are not present in the responses.\n")
		b.WriteString("- Where numeric values disagree, average them or use the more conservative figure.\n")
		b.WriteString("- Output only the merged JSON, with no surrounding prose.")
	} else {
		b.WriteString("Merge instructions:\n")
		b.WriteString("- Deduplicate overlapping content while keeping unique valuable details.\n")
		b.WriteString("- Where responses contradict, prefer the more specific and detailed source.\n")
		b.WriteString("- Answer in the same language and style as the responses.")
	}
	return b.String()
}

// userQuery concatenates all user-role message contents from the original
// request.
func userQuery(messages []llm.Message) string {
	var parts []string
	for _, m := range messages {
		if m.Role == llm.RoleUser && strings.TrimSpace(m.Content) != "" {
			parts = append(parts, m.Content)
		}
	}
	return strings.Join(parts, "\n")
}
