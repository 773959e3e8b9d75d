package llm

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"time"
)

// LlamaCpp implements Embedder and ChatProvider against a llama.cpp server
// or any other endpoint speaking the OpenAI-compatible HTTP dialect.
type LlamaCpp struct {
	BaseURL    string
	APIKey     string
	ChatModel  string
	EmbedModel string
	client     *http.Client
}

// NewLlamaCpp creates a provider for an OpenAI-compatible server at baseURL.
func NewLlamaCpp(baseURL, apiKey, chatModel, embedModel string) *LlamaCpp {
	return &LlamaCpp{
		BaseURL:    baseURL,
		APIKey:     apiKey,
		ChatModel:  chatModel,
		EmbedModel: embedModel,
		client:     http.DefaultClient,
	}
}

// Wire types for the OpenAI-compatible chat completions endpoint.

type wireMessage struct {
	Role       string         `json:"role"`
	Content    string         `json:"content"`
	ToolCallID string         `json:"tool_call_id,omitempty"`
	ToolCalls  []wireToolCall `json:"tool_calls,omitempty"`
}

type wireToolCall struct {
	ID       string           `json:"id"`
	Type     string           `json:"type"`
	Function wireFunctionCall `json:"function"`
}

type wireFunctionCall struct {
	Name      string `json:"name"`
	Arguments string `json:"arguments"`
}

type wireTool struct {
	Type     string          `json:"type"`
	Function wireFunctionDef `json:"function"`
}

type wireFunctionDef struct {
	Name        string         `json:"name"`
	Description string         `json:"description,omitempty"`
	Parameters  map[string]any `json:"parameters"`
}

type chatRequest struct {
	Model    string        `json:"model"`
	Messages []wireMessage `json:"messages"`
	Tools    []wireTool    `json:"tools,omitempty"`
}

type chatResponse struct {
	Choices []struct {
		Message      wireMessage `json:"message"`
		FinishReason string      `json:"finish_reason"`
	} `json:"choices"`
}

type embeddingsRequest struct {
	Model string `json:"model"`
	Input string `json:"input"`
}

type embeddingsResponse struct {
	Data []struct {
		Embedding []float64 `json:"embedding"`
	} `json:"data"`
}

// Embed generates an embedding vector for the given text.
func (p *LlamaCpp) Embed(ctx context.Context, text string) ([]float64, error) {
	var resp embeddingsResponse
	err := p.post(ctx, "/v1/embeddings", embeddingsRequest{Model: p.EmbedModel, Input: text}, &resp)
	if err != nil {
		return nil, err
	}
	if len(resp.Data) == 0 || len(resp.Data[0].Embedding) == 0 {
		return nil, &ProviderError{Provider: "llamacpp", Err: errors.New("no embedding returned")}
	}
	return resp.Data[0].Embedding, nil
}

// Complete sends the message history and tool descriptors and returns
// either the reply text or a tool-call request.
func (p *LlamaCpp) Complete(ctx context.Context, messages []Message, tools []Tool) (Completion, error) {
	req := chatRequest{
		Model:    p.ChatModel,
		Messages: make([]wireMessage, 0, len(messages)),
	}
	for _, m := range messages {
		wm := wireMessage{Role: m.Role, Content: m.Content, ToolCallID: m.ToolCallID}
		if m.ToolCall != nil {
			wm.ToolCalls = []wireToolCall{{
				ID:   m.ToolCall.ID,
				Type: "function",
				Function: wireFunctionCall{
					Name:      m.ToolCall.Name,
					Arguments: m.ToolCall.Arguments,
				},
			}}
		}
		req.Messages = append(req.Messages, wm)
	}
	for _, t := range tools {
		req.Tools = append(req.Tools, wireTool{
			Type: "function",
			Function: wireFunctionDef{
				Name:        t.Name,
				Description: t.Description,
				Parameters:  t.Parameters,
			},
		})
	}

	var resp chatResponse
	if err := p.post(ctx, "/v1/chat/completions", req, &resp); err != nil {
		return Completion{}, err
	}
	if len(resp.Choices) == 0 {
		return Completion{}, &ProviderError{Provider: "llamacpp", Err: errors.New("no choices returned")}
	}

	msg := resp.Choices[0].Message
	if len(msg.ToolCalls) > 0 {
		tc := msg.ToolCalls[0]
		return Completion{ToolCall: &ToolCall{
			ID:        tc.ID,
			Name:      tc.Function.Name,
			Arguments: tc.Function.Arguments,
		}}, nil
	}

	return Completion{Text: msg.Content}, nil
}

// post sends a JSON request and decodes the JSON response. A 429 becomes a
// RateLimitError honoring the server's Retry-After header.
func (p *LlamaCpp) post(ctx context.Context, path string, payload, out any) error {
	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("failed to marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, p.BaseURL+path, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	if p.APIKey != "" {
		req.Header.Set("Authorization", "Bearer "+p.APIKey)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := p.client.Do(req)
	if err != nil {
		return &ProviderError{Provider: "llamacpp", Err: fmt.Errorf("failed to send request: %w", err)}
	}
	defer func() {
		_ = resp.Body.Close()
	}()

	if resp.StatusCode == http.StatusTooManyRequests {
		retryAfter := 2 * time.Second
		if secs, parseErr := strconv.Atoi(resp.Header.Get("Retry-After")); parseErr == nil && secs > 0 {
			retryAfter = time.Duration(secs) * time.Second
		}
		return &RateLimitError{Provider: "llamacpp", RetryAfter: retryAfter}
	}
	if resp.StatusCode != http.StatusOK {
		raw, _ := io.ReadAll(resp.Body)
		return &ProviderError{Provider: "llamacpp", Err: fmt.Errorf("bad status %d: %s", resp.StatusCode, string(raw))}
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return &ProviderError{Provider: "llamacpp", Err: fmt.Errorf("failed to decode response: %w", err)}
	}

	return nil
}
