// Package llm defines the external provider collaborators: an embedding
// client and a chat completion client with tool-call support. Two
// implementations exist, one backed by the OpenAI SDK and one speaking the
// OpenAI-compatible HTTP dialect of llama.cpp and similar local servers.
// Which one runs is decided by configuration at construction time; the
// core never dispatches on provider names.
package llm

//go:generate go run go.uber.org/mock/mockgen@latest -destination=mocks/mock_providers.go -package=mocks github.com/csells/ragamuffin/internal/llm Embedder,ChatProvider

import "context"

// Message roles for a conversation turn.
const (
	RoleSystem    = "system"
	RoleUser      = "user"
	RoleAssistant = "assistant"
	RoleTool      = "tool"
)

// Message is one role-tagged entry in a conversation history. An assistant
// message that requested a tool carries ToolCall; the matching tool-result
// message carries the same ID in ToolCallID.
type Message struct {
	Role       string    `json:"role"`
	Content    string    `json:"content"`
	ToolCallID string    `json:"tool_call_id,omitempty"`
	ToolCall   *ToolCall `json:"tool_call,omitempty"`
}

// ToolCall is a structured request from the model to invoke a tool.
// Arguments is the raw JSON argument payload as sent by the provider.
type ToolCall struct {
	ID        string `json:"id"`
	Name      string `json:"name"`
	Arguments string `json:"arguments"`
}

// Tool describes a callable tool offered to the chat model.
type Tool struct {
	Name        string
	Description string
	Parameters  map[string]any
}

// Completion is a chat provider's reply: either plain text or a tool-call
// request, never both.
type Completion struct {
	Text     string
	ToolCall *ToolCall
}

// Embedder computes an embedding vector for a piece of text. Vector
// dimensionality is fixed per provider instance.
type Embedder interface {
	Embed(ctx context.Context, text string) ([]float64, error)
}

// ChatProvider produces a completion for an ordered message history,
// offering the given tools to the model.
type ChatProvider interface {
	Complete(ctx context.Context, messages []Message, tools []Tool) (Completion, error)
}

// RetrieveChunksTool is the single tool descriptor registered with the chat
// model: retrieve_chunks(query string).
func RetrieveChunksTool() Tool {
	return Tool{
		Name:        "retrieve_chunks",
		Description: "Retrieve the most relevant indexed text chunks for a search query.",
		Parameters: map[string]any{
			"type": "object",
			"properties": map[string]any{
				"query": map[string]any{
					"type":        "string",
					"description": "The search query to retrieve chunks for.",
				},
			},
			"required": []string{"query"},
		},
	}
}
