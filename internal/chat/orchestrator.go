// Package chat drives conversational turns against a chat provider,
// intercepting retrieve_chunks tool calls and answering them from the
// vault index.
package chat

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"

	"github.com/csells/ragamuffin/internal/contextutil"
	"github.com/csells/ragamuffin/internal/llm"

	"github.com/google/uuid"
)

// ErrInvalidToolCall reports a tool request the orchestrator cannot honor:
// an unknown tool name, malformed arguments, or a missing query.
var ErrInvalidToolCall = errors.New("invalid tool call")

// Retriever answers a retrieval query with the joined snippet payload for
// the tool result message.
type Retriever interface {
	Retrieve(ctx context.Context, query string) (string, error)
}

// retrieveArgs is the expected argument payload of a retrieve_chunks call.
type retrieveArgs struct {
	Query string `json:"query"`
}

// Session holds the message history of one conversation. Not safe for
// concurrent use; one session serves one caller at a time.
type Session struct {
	ID        string
	provider  llm.ChatProvider
	retriever Retriever
	history   []llm.Message
	logger    *slog.Logger
}

// NewSession starts a conversation. A non-empty systemPrompt is pre-seeded
// as the first message.
func NewSession(provider llm.ChatProvider, retriever Retriever, systemPrompt string) *Session {
	s := &Session{
		ID:        uuid.NewString(),
		provider:  provider,
		retriever: retriever,
		logger:    slog.Default(),
	}
	if systemPrompt != "" {
		s.history = append(s.history, llm.Message{Role: llm.RoleSystem, Content: systemPrompt})
	}
	return s
}

// History returns the accumulated message history.
func (s *Session) History() []llm.Message {
	return s.history
}

// SetHistory replaces the session history, for callers that hold state
// across requests themselves.
func (s *Session) SetHistory(history []llm.Message) {
	s.history = append([]llm.Message(nil), history...)
}

// Turn runs one conversational turn: the user input is appended to history
// and sent to the provider with the retrieve_chunks tool registered. If the
// provider requests the tool, the orchestrator executes the retrieval and
// re-invokes the provider once with the tool result appended. A second tool
// request in the same turn is a protocol violation. On any failure the
// history is rolled back to its state before the turn, so the turn can be
// resubmitted.
func (s *Session) Turn(ctx context.Context, userInput string) (string, error) {
	logger := contextutil.LoggerFromContext(ctx)
	checkpoint := len(s.history)

	s.history = append(s.history, llm.Message{Role: llm.RoleUser, Content: userInput})
	tools := []llm.Tool{llm.RetrieveChunksTool()}

	completion, err := s.provider.Complete(ctx, s.history, tools)
	if err != nil {
		s.history = s.history[:checkpoint]
		return "", err
	}

	if completion.ToolCall != nil {
		query, err := parseToolCall(completion.ToolCall)
		if err != nil {
			s.history = s.history[:checkpoint]
			return "", err
		}

		logger.InfoContext(ctx, "tool call requested",
			"session_id", s.ID, "tool", completion.ToolCall.Name, "query", query)

		snippets, err := s.retriever.Retrieve(ctx, query)
		if err != nil {
			s.history = s.history[:checkpoint]
			return "", fmt.Errorf("retrieval failed: %w", err)
		}

		s.history = append(s.history,
			llm.Message{Role: llm.RoleAssistant, ToolCall: completion.ToolCall},
			llm.Message{Role: llm.RoleTool, Content: snippets, ToolCallID: completion.ToolCall.ID},
		)

		completion, err = s.provider.Complete(ctx, s.history, tools)
		if err != nil {
			s.history = s.history[:checkpoint]
			return "", err
		}
		if completion.ToolCall != nil {
			s.history = s.history[:checkpoint]
			return "", fmt.Errorf("%w: second tool request in one turn", ErrInvalidToolCall)
		}
	}

	s.history = append(s.history, llm.Message{Role: llm.RoleAssistant, Content: completion.Text})
	return completion.Text, nil
}

// parseToolCall validates a tool request and extracts the query argument.
func parseToolCall(call *llm.ToolCall) (string, error) {
	if call.Name != "retrieve_chunks" {
		return "", fmt.Errorf("%w: unknown tool %q", ErrInvalidToolCall, call.Name)
	}

	var args retrieveArgs
	if err := json.Unmarshal([]byte(call.Arguments), &args); err != nil {
		return "", fmt.Errorf("%w: malformed arguments: %v", ErrInvalidToolCall, err)
	}
	if args.Query == "" {
		return "", fmt.Errorf("%w: missing query argument", ErrInvalidToolCall)
	}

	return args.Query, nil
}
