// Package openai implements assess.Provider on an OpenAI-compatible chat
// completions API. Forced tools are emulated with JSON-object response mode:
// the tool's schema goes into the system prompt and the reply body becomes
// the tool input.
package openai

import (
	"context"
	"fmt"
	"net/http"
	"strings"

	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"

	openai "github.com/sashabaranov/go-openai"

	"github.com/linnemanlabs/firstline/internal/assess"
	"github.com/linnemanlabs/firstline/internal/tools"
)

// DefaultModel is used when no model is configured.
const DefaultModel = "gpt-4o-mini"

// Client implements assess.Provider for OpenAI-compatible endpoints.
type Client struct {
	client *openai.Client
	model  string
}

// New creates a client. An empty baseURL uses the public OpenAI endpoint.
func New(apiKey, model, baseURL string) *Client {
	cfg := openai.DefaultConfig(apiKey)
	if baseURL != "" {
		cfg.BaseURL = strings.TrimRight(baseURL, "/")
	}
	cfg.HTTPClient = &http.Client{Transport: otelhttp.NewTransport(http.DefaultTransport)}
	if model == "" {
		model = DefaultModel
	}
	return &Client{
		client: openai.NewClientWithConfig(cfg),
		model:  model,
	}
}

// Send performs one chat completion. With req.ToolChoice set, the JSON reply
// is returned as a tool_use block for that tool.
func (c *Client) Send(ctx context.Context, req *assess.LLMRequest) (*assess.LLMResponse, error) {
	system := req.System
	var forced *tools.ToolDef
	if req.ToolChoice != "" {
		for i := range req.Tools {
			if req.Tools[i].Name == req.ToolChoice {
				forced = &req.Tools[i]
				break
			}
		}
		if forced == nil {
			return nil, fmt.Errorf("tool %q not in request", req.ToolChoice)
		}
		system = withSchema(system, forced)
	}

	msgs := make([]openai.ChatCompletionMessage, 0, len(req.Messages)+1)
	if system != "" {
		msgs = append(msgs, openai.ChatCompletionMessage{Role: openai.ChatMessageRoleSystem, Content: system})
	}
	for _, m := range req.Messages {
		role := m.Role
		if role != openai.ChatMessageRoleUser && role != openai.ChatMessageRoleAssistant {
			role = openai.ChatMessageRoleUser
		}
		msgs = append(msgs, openai.ChatCompletionMessage{Role: role, Content: textOf(m.Content)})
	}

	ccr := openai.ChatCompletionRequest{
		Model:       c.model,
		Messages:    msgs,
		MaxTokens:   req.MaxTokens,
		Temperature: 0.1,
	}
	if forced != nil {
		ccr.ResponseFormat = &openai.ChatCompletionResponseFormat{Type: openai.ChatCompletionResponseFormatTypeJSONObject}
	}

	resp, err := c.client.CreateChatCompletion(ctx, ccr)
	if err != nil {
		return nil, fmt.Errorf("openai chat completion: %w", err)
	}
	if len(resp.Choices) == 0 {
		return nil, fmt.Errorf("openai chat completion: no choices")
	}

	choice := resp.Choices[0]
	out := &assess.LLMResponse{
		StopReason: stopReason(choice.FinishReason),
		Usage: assess.Usage{
			InputTokens:  resp.Usage.PromptTokens,
			OutputTokens: resp.Usage.CompletionTokens,
		},
		Model: resp.Model,
	}
	content := strings.TrimSpace(choice.Message.Content)
	if forced != nil && choice.FinishReason != openai.FinishReasonLength {
		out.StopReason = assess.StopToolUse
		out.Content = []assess.ContentBlock{{
			Type:  "tool_use",
			ID:    resp.ID,
			Name:  forced.Name,
			Input: []byte(content),
		}}
		return out, nil
	}
	out.Content = []assess.ContentBlock{{Type: "text", Text: content}}
	return out, nil
}

func withSchema(system string, def *tools.ToolDef) string {
	var b strings.Builder
	if system != "" {
		b.WriteString(system)
		b.WriteString("\n\n")
	}
	fmt.Fprintf(&b, "%s\n\nReply with one JSON object and nothing else. It must match this JSON Schema:\n%s", def.Description, def.InputSchema)
	return b.String()
}

func textOf(blocks []assess.ContentBlock) string {
	parts := make([]string, 0, len(blocks))
	for _, b := range blocks {
		switch b.Type {
		case "text":
			parts = append(parts, b.Text)
		case "tool_use":
			parts = append(parts, string(b.Input))
		}
	}
	return strings.Join(parts, "\n")
}

func stopReason(r openai.FinishReason) assess.StopReason {
	switch r {
	case openai.FinishReasonStop:
		return assess.StopEnd
	case openai.FinishReasonLength:
		return assess.StopMaxTokens
	default:
		return assess.StopReason(r)
	}
}
