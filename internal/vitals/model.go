// Package vitals defines the partial clinical vitals record shared by the
// extractor, the reconciler and the triage engine.
package vitals

// Consciousness is the observed level of responsiveness.
type Consciousness string

const (
	ConsciousnessAlert       Consciousness = "alert"
	ConsciousnessConfused    Consciousness = "confused"
	ConsciousnessDrowsy      Consciousness = "drowsy"
	ConsciousnessUnconscious Consciousness = "unconscious"
)

// DefaultConsciousness is assumed by the extractor when the text carries no
// consciousness phrase at all. It reads "no information" as "no impairment".
const DefaultConsciousness = ConsciousnessAlert

// Valid reports whether c is one of the known levels.
func (c Consciousness) Valid() bool {
	switch c {
	case ConsciousnessAlert, ConsciousnessConfused, ConsciousnessDrowsy, ConsciousnessUnconscious:
		return true
	}
	return false
}

// ProviderAssessment is a manual override signal from a clinician.
type ProviderAssessment string

const (
	AssessmentLow      ProviderAssessment = "low"
	AssessmentModerate ProviderAssessment = "moderate"
	AssessmentCritical ProviderAssessment = "critical"
)

// Valid reports whether a is one of the known assessments.
func (a ProviderAssessment) Valid() bool {
	switch a {
	case AssessmentLow, AssessmentModerate, AssessmentCritical:
		return true
	}
	return false
}

// Vitals is a partial record of clinical signals. A nil field means unknown,
// never normal.
type Vitals struct {
	Age                *int                `json:"age,omitempty"`
	SystolicBP         *int                `json:"systolicBp,omitempty"`
	HeartRate          *int                `json:"heartRate,omitempty"`
	SpO2               *int                `json:"spo2,omitempty"`
	Temperature        *float64            `json:"temperature,omitempty"`
	Consciousness      *Consciousness      `json:"consciousness,omitempty"`
	ProviderAssessment *ProviderAssessment `json:"providerAssessment,omitempty"`
}

// Empty reports whether no field is set.
func (v Vitals) Empty() bool {
	return v.Age == nil && v.SystolicBP == nil && v.HeartRate == nil && v.SpO2 == nil &&
		v.Temperature == nil && v.Consciousness == nil && v.ProviderAssessment == nil
}

// Is reports whether the consciousness field is set to c.
func (v Vitals) Is(c Consciousness) bool {
	return v.Consciousness != nil && *v.Consciousness == c
}

// Assessed reports whether the provider assessment field is set to a.
func (v Vitals) Assessed(a ProviderAssessment) bool {
	return v.ProviderAssessment != nil && *v.ProviderAssessment == a
}

// Int returns a pointer to n.
func Int(n int) *int { return &n }

// Float returns a pointer to f.
func Float(f float64) *float64 { return &f }

// Level returns a pointer to c.
func Level(c Consciousness) *Consciousness { return &c }

// Assessment returns a pointer to a.
func Assessment(a ProviderAssessment) *ProviderAssessment { return &a }
