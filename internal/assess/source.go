package assess

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/linnemanlabs/go-core/xerrors"

	"github.com/linnemanlabs/firstline/internal/tools"
	"github.com/linnemanlabs/firstline/internal/vitals"
	"github.com/linnemanlabs/firstline/internal/vitals/extract"
)

// ResponseTokens caps each remote completion.
const ResponseTokens = 1024

// LLMSource enriches and explains through an LLM provider. Each call is a
// single round trip that forces the model to answer through one tool, so the
// reply is structured JSON rather than prose to be parsed.
type LLMSource struct {
	provider Provider
	registry *tools.Registry
}

// NewLLMSource creates a source over provider.
func NewLLMSource(provider Provider) *LLMSource {
	if provider == nil {
		panic(xerrors.New("llm provider is required"))
	}
	return &LLMSource{
		provider: provider,
		registry: tools.Default(),
	}
}

// Enrich asks the model for the vitals stated in text.
func (s *LLMSource) Enrich(ctx context.Context, text string, lang extract.Language) (*vitals.Vitals, error) {
	out, err := s.call(ctx, tools.RecordVitalsName, enrichSystemPrompt, buildEnrichPrompt(text, lang))
	if err != nil {
		return nil, err
	}
	var v vitals.Vitals
	if err := json.Unmarshal(out, &v); err != nil {
		return nil, fmt.Errorf("%w: decode vitals: %w", ErrMalformedResponse, err)
	}
	return &v, nil
}

// Explain asks the model to narrate req in req.Language.
func (s *LLMSource) Explain(ctx context.Context, req *ExplainRequest) (*tools.Explanation, error) {
	out, err := s.call(ctx, tools.RecordExplanationName, explainSystemPrompt, buildExplainPrompt(req))
	if err != nil {
		return nil, err
	}
	var e tools.Explanation
	if err := json.Unmarshal(out, &e); err != nil {
		return nil, fmt.Errorf("%w: decode explanation: %w", ErrMalformedResponse, err)
	}
	return &e, nil
}

func (s *LLMSource) call(ctx context.Context, toolName, system, prompt string) (json.RawMessage, error) {
	tool, ok := s.registry.Get(toolName)
	if !ok {
		return nil, fmt.Errorf("unknown tool: %s", toolName)
	}
	def, _ := s.registry.Def(toolName)

	resp, err := s.provider.Send(ctx, &LLMRequest{
		MaxTokens: ResponseTokens,
		System:    system,
		Messages: []Message{
			{Role: "user", Content: []ContentBlock{{Type: "text", Text: prompt}}},
		},
		Tools:      []tools.ToolDef{def},
		ToolChoice: toolName,
	})
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrRemoteUnavailable, err)
	}
	if resp == nil {
		return nil, fmt.Errorf("%w: empty response", ErrMalformedResponse)
	}

	for _, block := range resp.Content {
		if block.Type != "tool_use" || block.Name != toolName {
			continue
		}
		out, err := tool.Execute(ctx, block.Input)
		if err != nil {
			return nil, fmt.Errorf("%w: %s: %w", ErrMalformedResponse, toolName, err)
		}
		return out, nil
	}
	return nil, fmt.Errorf("%w: no %s call in response (stop_reason=%s)", ErrMalformedResponse, toolName, resp.StopReason)
}

const enrichSystemPrompt = `You read emergency messages sent by first responders and bystanders and record the vital signs they state.
Record only values written in the message. Convert Fahrenheit to Celsius. Never guess.`

const explainSystemPrompt = `You explain an emergency triage decision that has already been made. You do not change it.
Use simple words a frightened bystander understands. Do not name a disease, do not suggest any medicine, and do not predict whether the person will recover.`

func buildEnrichPrompt(text string, lang extract.Language) string {
	return fmt.Sprintf(`Message language: %s

Message:
%s

Record the vital signs stated in this message.`, lang.EnglishName(), text)
}

func buildExplainPrompt(req *ExplainRequest) string {
	reasons := "none, all recorded vital signs are within normal limits"
	if len(req.Reasons) > 0 {
		reasons = strings.Join(req.Reasons, "; ")
	}
	return fmt.Sprintf(`Priority: %s
Findings: %s

Original message:
%s

Write the explanation and first-aid steps in %s.`,
		req.Priority, reasons, req.Text, req.Language.EnglishName())
}
