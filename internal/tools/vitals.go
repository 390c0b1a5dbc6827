// internal/tools/vitals.go
package tools

import (
	"context"
	"encoding/json"
	"fmt"
	"math"
	"slices"
	"strings"
	"unicode"

	"github.com/linnemanlabs/firstline/internal/vitals"
)

// RecordVitalsName is the tool name the enrichment call forces.
const RecordVitalsName = "record_vitals"

// values beyond this cannot be a reading and would overflow int
const maxMagnitude = 1e6

// RecordVitals asks the model for whatever vitals the text states. Every
// field is optional; a field the text does not mention must be omitted.
type RecordVitals struct{}

func (RecordVitals) Name() string { return RecordVitalsName }

func (RecordVitals) Description() string {
	return `Record the vital signs explicitly stated in the message. Omit any field the message does not state.
Never estimate or infer a value that is not written in the message.`
}

func (RecordVitals) Parameters() json.RawMessage {
	return json.RawMessage(`{
        "type": "object",
        "properties": {
            "age": {"type": "number", "description": "Age in years"},
            "systolicBp": {"type": "number", "description": "Systolic blood pressure in mmHg"},
            "heartRate": {"type": "number", "description": "Heart rate in beats per minute"},
            "spo2": {"type": "number", "description": "Oxygen saturation in percent"},
            "temperature": {"type": "number", "description": "Body temperature in degrees Celsius"},
            "consciousness": {
                "type": "string",
                "enum": ["alert", "confused", "drowsy", "unconscious"]
            },
            "providerAssessment": {
                "type": "string",
                "description": "How worried the person reporting sounds: low, moderate or critical"
            }
        }
    }`)
}

// Execute decodes the model's vitals. Wrong types and values outside an
// enumeration fail; the provider assessment hint is mapped onto
// low/moderate/critical or dropped.
func (RecordVitals) Execute(_ context.Context, params json.RawMessage) (json.RawMessage, error) {
	var input struct {
		Age                *float64 `json:"age"`
		SystolicBP         *float64 `json:"systolicBp"`
		HeartRate          *float64 `json:"heartRate"`
		SpO2               *float64 `json:"spo2"`
		Temperature        *float64 `json:"temperature"`
		Consciousness      *string  `json:"consciousness"`
		ProviderAssessment *string  `json:"providerAssessment"`
	}
	if err := decodeObject(params, &input); err != nil {
		return nil, err
	}

	var v vitals.Vitals
	ints := []struct {
		name string
		src  *float64
		dst  **int
	}{
		{"age", input.Age, &v.Age},
		{"systolicBp", input.SystolicBP, &v.SystolicBP},
		{"heartRate", input.HeartRate, &v.HeartRate},
		{"spo2", input.SpO2, &v.SpO2},
	}
	for _, f := range ints {
		if f.src == nil {
			continue
		}
		if math.Abs(*f.src) > maxMagnitude {
			return nil, fmt.Errorf("%w: %s out of range", ErrInvalidInput, f.name)
		}
		*f.dst = vitals.Int(int(math.Round(*f.src)))
	}
	if input.Temperature != nil {
		if math.Abs(*input.Temperature) > maxMagnitude {
			return nil, fmt.Errorf("%w: temperature out of range", ErrInvalidInput)
		}
		v.Temperature = vitals.Float(math.Round(*input.Temperature*10) / 10)
	}

	if input.Consciousness != nil {
		c := vitals.Consciousness(strings.ToLower(strings.TrimSpace(*input.Consciousness)))
		if !c.Valid() {
			return nil, fmt.Errorf("%w: consciousness %q", ErrInvalidInput, *input.Consciousness)
		}
		v.Consciousness = &c
	}

	if input.ProviderAssessment != nil {
		if a, ok := assessmentHint(*input.ProviderAssessment); ok {
			v.ProviderAssessment = &a
		}
	}

	return json.Marshal(v)
}

// assessmentHint maps free text onto an assessment level, most severe first.
// Only whole words count. A hint carrying any negation is dropped.
func assessmentHint(s string) (vitals.ProviderAssessment, bool) {
	s = strings.ToLower(strings.TrimSpace(s))
	if a := vitals.ProviderAssessment(s); a.Valid() {
		return a, true
	}

	words := strings.FieldsFunc(s, func(r rune) bool { return !unicode.IsLetter(r) })
	for _, w := range words {
		if negations[w] {
			return "", false
		}
	}

	hints := []struct {
		level vitals.ProviderAssessment
		words []string
	}{
		{vitals.AssessmentCritical, []string{"critical", "severe", "emergency"}},
		{vitals.AssessmentModerate, []string{"moderate", "concern", "concerning", "concerned", "worried"}},
		{vitals.AssessmentLow, []string{"low", "mild", "stable", "minor"}},
	}
	for _, h := range hints {
		for _, hw := range h.words {
			if slices.Contains(words, hw) {
				return h.level, true
			}
		}
	}
	return "", false
}

var negations = map[string]bool{
	"not": true, "no": true, "non": true, "never": true, "nothing": true,
	"without": true, "isn": true, "aren": true, "doesn": true, "hardly": true,
}

// decodeObject unmarshals params, which must be a JSON object.
func decodeObject(params json.RawMessage, dst any) error {
	trimmed := strings.TrimSpace(string(params))
	if !strings.HasPrefix(trimmed, "{") {
		return fmt.Errorf("%w: expected a JSON object", ErrInvalidInput)
	}
	if err := json.Unmarshal(params, dst); err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidInput, err)
	}
	return nil
}
