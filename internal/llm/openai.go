package llm

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/openai/openai-go/v3"
	"github.com/openai/openai-go/v3/option"
	"github.com/openai/openai-go/v3/shared"
)

// Defaults for the OpenAI provider.
const (
	DefaultOpenAIChatModel      = "gpt-4o-mini"
	DefaultOpenAIEmbeddingModel = "text-embedding-3-small"
	DefaultEmbeddingDimensions  = 1536
)

// OpenAI implements Embedder and ChatProvider on the OpenAI API.
type OpenAI struct {
	client     openai.Client
	chatModel  string
	embedModel string
	dimensions int
}

// NewOpenAI creates an OpenAI provider. Empty model names fall back to the
// package defaults; dimensions <= 0 falls back to the embedding model's
// native dimensionality.
func NewOpenAI(apiKey, chatModel, embedModel string, dimensions int) *OpenAI {
	if chatModel == "" {
		chatModel = DefaultOpenAIChatModel
	}
	if embedModel == "" {
		embedModel = DefaultOpenAIEmbeddingModel
	}
	return &OpenAI{
		client:     openai.NewClient(option.WithAPIKey(apiKey)),
		chatModel:  chatModel,
		embedModel: embedModel,
		dimensions: dimensions,
	}
}

// Embed generates an embedding vector for the given text.
func (p *OpenAI) Embed(ctx context.Context, text string) ([]float64, error) {
	params := openai.EmbeddingNewParams{
		Model: openai.EmbeddingModel(p.embedModel),
		Input: openai.EmbeddingNewParamsInputUnion{
			OfString: openai.String(text),
		},
	}
	if p.dimensions > 0 {
		params.Dimensions = openai.Int(int64(p.dimensions))
	}

	resp, err := p.client.Embeddings.New(ctx, params)
	if err != nil {
		return nil, p.wrapErr(err)
	}
	if len(resp.Data) == 0 {
		return nil, &ProviderError{Provider: "openai", Err: errors.New("no embedding returned")}
	}

	return append([]float64(nil), resp.Data[0].Embedding...), nil
}

// Complete sends the message history and tool descriptors to the chat
// completions API and returns either the reply text or a tool-call request.
func (p *OpenAI) Complete(ctx context.Context, messages []Message, tools []Tool) (Completion, error) {
	params := openai.ChatCompletionNewParams{
		Model:    shared.ChatModel(p.chatModel),
		Messages: toOpenAIMessages(messages),
	}
	for _, t := range tools {
		params.Tools = append(params.Tools, openai.ChatCompletionFunctionTool(shared.FunctionDefinitionParam{
			Name:        t.Name,
			Description: openai.String(t.Description),
			Parameters:  shared.FunctionParameters(t.Parameters),
		}))
	}

	completion, err := p.client.Chat.Completions.New(ctx, params)
	if err != nil {
		return Completion{}, p.wrapErr(err)
	}
	if len(completion.Choices) == 0 {
		return Completion{}, &ProviderError{Provider: "openai", Err: errors.New("no choices returned")}
	}

	msg := completion.Choices[0].Message
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

// toOpenAIMessages converts the neutral message model to SDK params,
// including reconstruction of assistant tool-call messages so a tool
// round-trip can be resubmitted as history.
func toOpenAIMessages(messages []Message) []openai.ChatCompletionMessageParamUnion {
	out := make([]openai.ChatCompletionMessageParamUnion, 0, len(messages))
	for _, m := range messages {
		switch m.Role {
		case RoleSystem:
			out = append(out, openai.SystemMessage(m.Content))
		case RoleUser:
			out = append(out, openai.UserMessage(m.Content))
		case RoleAssistant:
			if m.ToolCall != nil {
				out = append(out, openai.ChatCompletionMessageParamUnion{
					OfAssistant: &openai.ChatCompletionAssistantMessageParam{
						ToolCalls: []openai.ChatCompletionMessageToolCallUnionParam{{
							OfFunction: &openai.ChatCompletionMessageFunctionToolCallParam{
								ID: m.ToolCall.ID,
								Function: openai.ChatCompletionMessageFunctionToolCallFunctionParam{
									Name:      m.ToolCall.Name,
									Arguments: m.ToolCall.Arguments,
								},
							},
						}},
					},
				})
			} else {
				out = append(out, openai.AssistantMessage(m.Content))
			}
		case RoleTool:
			out = append(out, openai.ToolMessage(m.Content, m.ToolCallID))
		}
	}
	return out
}

// wrapErr maps SDK errors to the package error taxonomy. A 429 becomes a
// RateLimitError carrying the Retry-After the API suggested.
func (p *OpenAI) wrapErr(err error) error {
	var apierr *openai.Error
	if errors.As(err, &apierr) && apierr.StatusCode == 429 {
		retryAfter := 2 * time.Second
		if apierr.Response != nil {
			if secs, parseErr := strconv.Atoi(apierr.Response.Header.Get("Retry-After")); parseErr == nil && secs > 0 {
				retryAfter = time.Duration(secs) * time.Second
			}
		}
		return &RateLimitError{Provider: "openai", RetryAfter: retryAfter}
	}
	return &ProviderError{Provider: "openai", Err: fmt.Errorf("api call failed: %w", err)}
}
