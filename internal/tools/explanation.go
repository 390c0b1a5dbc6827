package tools

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
)

// RecordExplanationName is the tool name the explanation call forces.
const RecordExplanationName = "record_explanation"

// Explanation is the prose returned by the explanation call.
type Explanation struct {
	Explanation   string `json:"explanation"`
	FirstAidSteps string `json:"firstAidSteps"`
}

// RecordExplanation asks the model to narrate an already computed triage
// decision in the requested language.
type RecordExplanation struct{}

func (RecordExplanation) Name() string { return RecordExplanationName }

func (RecordExplanation) Description() string {
	return `Record a short plain-language explanation of the triage decision and the first-aid steps to take while help arrives.
Write in the requested language. Do not name a disease, do not suggest medication, and do not predict the outcome.`
}

func (RecordExplanation) Parameters() json.RawMessage {
	return json.RawMessage(`{
        "type": "object",
        "properties": {
            "explanation": {
                "type": "string",
                "description": "Two or three sentences explaining why this priority was assigned"
            },
            "firstAidSteps": {
                "type": "string",
                "description": "Numbered first-aid steps, one per line"
            }
        },
        "required": ["explanation", "firstAidSteps"]
    }`)
}

// Execute requires both fields to be present, strings, and non-blank.
func (RecordExplanation) Execute(_ context.Context, params json.RawMessage) (json.RawMessage, error) {
	var input struct {
		Explanation   *string `json:"explanation"`
		FirstAidSteps *string `json:"firstAidSteps"`
	}
	if err := decodeObject(params, &input); err != nil {
		return nil, err
	}
	if input.Explanation == nil || strings.TrimSpace(*input.Explanation) == "" {
		return nil, fmt.Errorf("%w: explanation is required", ErrInvalidInput)
	}
	if input.FirstAidSteps == nil || strings.TrimSpace(*input.FirstAidSteps) == "" {
		return nil, fmt.Errorf("%w: firstAidSteps is required", ErrInvalidInput)
	}
	return json.Marshal(Explanation{
		Explanation:   strings.TrimSpace(*input.Explanation),
		FirstAidSteps: strings.TrimSpace(*input.FirstAidSteps),
	})
}
