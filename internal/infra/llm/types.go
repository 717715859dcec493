// Package llm defines the model-agnostic provider abstraction for the AI gateway.
// All types here are shared between the provider interface and adapters.
package llm

// TaskName identifies a named use-case used to select which model a provider
// should run for a request.
type TaskName string

const (
	TaskChat      TaskName = "chat"
	TaskEmbedding TaskName = "embedding"
	TaskAnalysis  TaskName = "analysis"
	TaskContent   TaskName = "content"
)

// Message roles. Exactly zero or one system message is meaningful per request;
// adapters extract the first one found.
const (
	RoleSystem    = "system"
	RoleUser      = "user"
	RoleAssistant = "assistant"
)

// Message represents a single turn in a conversation (role + content).
// Ordering within a request is caller-defined and preserved.
type Message struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// Request defaults applied by Normalized.
const (
	DefaultTemperature = 0.7
	DefaultMaxTokens   = 2000
)

// ChatRequest is the input for a non-streaming chat completion.
type ChatRequest struct {
	// Model overrides per-task model selection when non-empty.
	Model       string
	Task        TaskName
	Messages    []Message
	Temperature float64
	MaxTokens   int
	// JSONFormat asks the provider for a structured JSON response where the
	// dialect supports it.
	JSONFormat bool
}

// Normalized returns a copy of the request with defaults applied.
func (r ChatRequest) Normalized() ChatRequest {
	out := r
	if out.Temperature == 0 {
		out.Temperature = DefaultTemperature
	}
	if out.MaxTokens == 0 {
		out.MaxTokens = DefaultMaxTokens
	}
	if out.Task == "" {
		out.Task = TaskChat
	}
	return out
}
