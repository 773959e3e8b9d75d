package llm

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"
)

func TestLlamaCpp_Embed(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/v1/embeddings" {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		var req embeddingsRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			t.Fatalf("failed to decode request: %v", err)
		}
		if req.Input != "hello" {
			t.Errorf("request input = %q, want hello", req.Input)
		}
		_ = json.NewEncoder(w).Encode(map[string]any{
			"data": []map[string]any{{"embedding": []float64{0.1, 0.2, 0.3}}},
		})
	}))
	defer server.Close()

	p := NewLlamaCpp(server.URL, "", "chat-model", "embed-model")
	vec, err := p.Embed(context.Background(), "hello")
	if err != nil {
		t.Fatalf("Embed() error = %v", err)
	}
	if len(vec) != 3 || vec[0] != 0.1 {
		t.Errorf("Embed() = %v, want [0.1 0.2 0.3]", vec)
	}
}

func TestLlamaCpp_Complete_Text(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var req chatRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			t.Fatalf("failed to decode request: %v", err)
		}
		if len(req.Messages) != 1 || req.Messages[0].Role != RoleUser {
			t.Errorf("unexpected messages: %+v", req.Messages)
		}
		if len(req.Tools) != 1 || req.Tools[0].Function.Name != "retrieve_chunks" {
			t.Errorf("unexpected tools: %+v", req.Tools)
		}
		_ = json.NewEncoder(w).Encode(map[string]any{
			"choices": []map[string]any{{
				"message":       map[string]any{"role": "assistant", "content": "hi there"},
				"finish_reason": "stop",
			}},
		})
	}))
	defer server.Close()

	p := NewLlamaCpp(server.URL, "key", "chat-model", "embed-model")
	completion, err := p.Complete(context.Background(),
		[]Message{{Role: RoleUser, Content: "hello"}},
		[]Tool{RetrieveChunksTool()},
	)
	if err != nil {
		t.Fatalf("Complete() error = %v", err)
	}
	if completion.ToolCall != nil {
		t.Errorf("Complete() returned unexpected tool call: %+v", completion.ToolCall)
	}
	if completion.Text != "hi there" {
		t.Errorf("Complete() text = %q, want %q", completion.Text, "hi there")
	}
}

func TestLlamaCpp_Complete_ToolCall(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewEncoder(w).Encode(map[string]any{
			"choices": []map[string]any{{
				"message": map[string]any{
					"role":    "assistant",
					"content": "",
					"tool_calls": []map[string]any{{
						"id":   "call_1",
						"type": "function",
						"function": map[string]any{
							"name":      "retrieve_chunks",
							"arguments": `{"query":"coffee"}`,
						},
					}},
				},
				"finish_reason": "tool_calls",
			}},
		})
	}))
	defer server.Close()

	p := NewLlamaCpp(server.URL, "", "chat-model", "embed-model")
	completion, err := p.Complete(context.Background(),
		[]Message{{Role: RoleUser, Content: "what about coffee?"}},
		[]Tool{RetrieveChunksTool()},
	)
	if err != nil {
		t.Fatalf("Complete() error = %v", err)
	}
	if completion.ToolCall == nil {
		t.Fatal("Complete() expected a tool call")
	}
	if completion.ToolCall.Name != "retrieve_chunks" {
		t.Errorf("tool call name = %q, want retrieve_chunks", completion.ToolCall.Name)
	}
	if completion.ToolCall.ID != "call_1" {
		t.Errorf("tool call ID = %q, want call_1", completion.ToolCall.ID)
	}
	if completion.ToolCall.Arguments != `{"query":"coffee"}` {
		t.Errorf("tool call arguments = %q", completion.ToolCall.Arguments)
	}
}

func TestLlamaCpp_Complete_ToolRoundTripWire(t *testing.T) {
	// The resubmitted history must carry the assistant tool-call message
	// and the tool result with the matching tool_call_id.
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var req chatRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			t.Fatalf("failed to decode request: %v", err)
		}
		if len(req.Messages) != 3 {
			t.Fatalf("got %d messages, want 3", len(req.Messages))
		}
		assistant := req.Messages[1]
		if len(assistant.ToolCalls) != 1 || assistant.ToolCalls[0].ID != "call_1" {
			t.Errorf("assistant message missing tool call: %+v", assistant)
		}
		tool := req.Messages[2]
		if tool.Role != RoleTool || tool.ToolCallID != "call_1" {
			t.Errorf("tool message malformed: %+v", tool)
		}
		_ = json.NewEncoder(w).Encode(map[string]any{
			"choices": []map[string]any{{
				"message":       map[string]any{"role": "assistant", "content": "done"},
				"finish_reason": "stop",
			}},
		})
	}))
	defer server.Close()

	p := NewLlamaCpp(server.URL, "", "chat-model", "embed-model")
	history := []Message{
		{Role: RoleUser, Content: "question"},
		{Role: RoleAssistant, ToolCall: &ToolCall{ID: "call_1", Name: "retrieve_chunks", Arguments: `{"query":"q"}`}},
		{Role: RoleTool, Content: "snippets", ToolCallID: "call_1"},
	}
	completion, err := p.Complete(context.Background(), history, []Tool{RetrieveChunksTool()})
	if err != nil {
		t.Fatalf("Complete() error = %v", err)
	}
	if completion.Text != "done" {
		t.Errorf("Complete() text = %q, want done", completion.Text)
	}
}

func TestLlamaCpp_RateLimited(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Retry-After", "7")
		w.WriteHeader(http.StatusTooManyRequests)
	}))
	defer server.Close()

	p := NewLlamaCpp(server.URL, "", "chat-model", "embed-model")
	_, err := p.Embed(context.Background(), "hello")

	var rl *RateLimitError
	if !errors.As(err, &rl) {
		t.Fatalf("Embed() error = %v, want RateLimitError", err)
	}
	if rl.RetryAfter != 7*time.Second {
		t.Errorf("RetryAfter = %s, want 7s", rl.RetryAfter)
	}

	if after, ok := IsRateLimited(err); !ok || after != 7*time.Second {
		t.Errorf("IsRateLimited() = (%s, %v), want (7s, true)", after, ok)
	}
}

func TestLlamaCpp_BadStatus(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "boom", http.StatusInternalServerError)
	}))
	defer server.Close()

	p := NewLlamaCpp(server.URL, "", "chat-model", "embed-model")
	_, err := p.Embed(context.Background(), "hello")

	var pe *ProviderError
	if !errors.As(err, &pe) {
		t.Fatalf("Embed() error = %v, want ProviderError", err)
	}
	if _, ok := IsRateLimited(err); ok {
		t.Error("IsRateLimited() = true for a 500, want false")
	}
}
