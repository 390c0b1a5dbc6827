package triage

import (
	"strings"

	"github.com/linnemanlabs/firstline/internal/vitals"
)

// Red-flag thresholds. A value strictly below the threshold fires.
const (
	RedFlagSpO2       = 90
	RedFlagSystolicBP = 90
)

// Scoring thresholds.
const (
	LowNormalSpO2        = 92
	MinHeartRate         = 50
	MaxHeartRate         = 120
	LowNormalSystolicBP  = 80
	HighSystolicBP       = 180
	FeverTemperature     = 38.0
	ElderlyAge           = 60
	CriticalScore        = 7
	UrgentScore          = 4
	RedFlagScore         = 10
	MaxAttainableScore   = 13
	scoreLowNormalSpO2   = 2
	scoreHeartRate       = 2
	scoreSystolicBP      = 2
	scoreDrowsy          = 3
	scoreTemperature     = 1
	scoreAge             = 1
	scoreModerateConcern = 2
)

// Reasons, in the order they are evaluated.
const (
	ReasonSpO2Critical      = "oxygen saturation critically low"
	ReasonUnconscious       = "patient is unconscious"
	ReasonBPCritical        = "blood pressure critically low"
	ReasonProviderCritical  = "clinical provider indicates critical condition"
	ReasonSpO2LowNormal     = "oxygen saturation low-normal"
	ReasonHeartRateAbnormal = "heart rate abnormal"
	ReasonBPLowNormal       = "blood pressure low-normal"
	ReasonBPElevated        = "blood pressure elevated above 180"
	ReasonDrowsy            = "patient is drowsy"
	ReasonTemperature       = "temperature elevated above 38°C"
	ReasonAge               = "age over 60"
	ReasonProviderModerate  = "provider assessment indicates moderate risk"
)

// Decision pathways.
const (
	PathwayRedFlag = "red flag detected"
	PathwayScore   = "no red flags, score-based"
)

// Decide triages v. Red flags short-circuit to CRITICAL with score 10;
// otherwise the weighted score picks the priority. ABCDE is always derived.
// Out-of-range values are compared literally.
func Decide(v vitals.Vitals) Result {
	abcde := DeriveABCDE(v)

	if flags := redFlags(v); len(flags) > 0 {
		return Result{
			Priority:          PriorityCritical,
			Score:             RedFlagScore,
			Reasons:           flags,
			RedFlagsDetected:  true,
			ABCDE:             abcde,
			NarrativeSummary:  string(PriorityCritical) + ": " + flags[0] + ". Immediate emergency response required.",
			DecisionPathway:   PathwayRedFlag,
			RecommendedAction: recommendedAction(PriorityCritical, true),
			Color:             ColorFor(PriorityCritical),
		}
	}

	score, reasons := severityScore(v)
	p := PriorityFromScore(score)
	return Result{
		Priority:          p,
		Score:             score,
		Reasons:           reasons,
		ABCDE:             abcde,
		NarrativeSummary:  narrative(p, reasons),
		DecisionPathway:   PathwayScore,
		RecommendedAction: recommendedAction(p, false),
		Color:             ColorFor(p),
	}
}

// PriorityFromScore maps a weighted score to a priority.
func PriorityFromScore(score int) Priority {
	switch {
	case score >= CriticalScore:
		return PriorityCritical
	case score >= UrgentScore:
		return PriorityUrgent
	default:
		return PriorityStable
	}
}

func redFlags(v vitals.Vitals) []string {
	var out []string
	if v.SpO2 != nil && *v.SpO2 < RedFlagSpO2 {
		out = append(out, ReasonSpO2Critical)
	}
	if v.Is(vitals.ConsciousnessUnconscious) {
		out = append(out, ReasonUnconscious)
	}
	if v.SystolicBP != nil && *v.SystolicBP < RedFlagSystolicBP {
		out = append(out, ReasonBPCritical)
	}
	if v.Assessed(vitals.AssessmentCritical) {
		out = append(out, ReasonProviderCritical)
	}
	return out
}

func severityScore(v vitals.Vitals) (int, []string) {
	score := 0
	reasons := []string{}
	add := func(points int, reason string) {
		score += points
		reasons = append(reasons, reason)
	}

	if v.SpO2 != nil && *v.SpO2 >= RedFlagSpO2 && *v.SpO2 < LowNormalSpO2 {
		add(scoreLowNormalSpO2, ReasonSpO2LowNormal)
	}
	if v.HeartRate != nil && (*v.HeartRate < MinHeartRate || *v.HeartRate > MaxHeartRate) {
		add(scoreHeartRate, ReasonHeartRateAbnormal)
	}
	if v.SystolicBP != nil {
		switch sbp := *v.SystolicBP; {
		case sbp >= LowNormalSystolicBP && sbp < RedFlagSystolicBP:
			add(scoreSystolicBP, ReasonBPLowNormal)
		case sbp > HighSystolicBP:
			add(scoreSystolicBP, ReasonBPElevated)
		}
	}
	if v.Is(vitals.ConsciousnessDrowsy) {
		add(scoreDrowsy, ReasonDrowsy)
	}
	if v.Temperature != nil && *v.Temperature > FeverTemperature {
		add(scoreTemperature, ReasonTemperature)
	}
	if v.Age != nil && *v.Age > ElderlyAge {
		add(scoreAge, ReasonAge)
	}
	if v.Assessed(vitals.AssessmentModerate) {
		add(scoreModerateConcern, ReasonProviderModerate)
	}
	return score, reasons
}

func narrative(p Priority, reasons []string) string {
	if len(reasons) == 0 {
		return string(p) + ": all vital signs within normal limits."
	}
	return string(p) + ": " + strings.Join(reasons, ", ") + "."
}

func recommendedAction(p Priority, redFlag bool) string {
	switch {
	case redFlag:
		return "Immediate emergency response and hospital evaluation required. A healthcare provider will assess and determine interventions."
	case p == PriorityCritical:
		return "Urgent hospital evaluation required. A healthcare provider will assess and determine interventions."
	case p == PriorityUrgent:
		return "Hospital evaluation within 30 minutes. The clinical team will determine the care pathway."
	default:
		return "Continue standard care and monitoring. Reassess if the condition changes."
	}
}

// ColorFor returns the display colors for p. Unknown priorities get the
// neutral palette.
func ColorFor(p Priority) Color {
	switch p {
	case PriorityCritical:
		return Color{Hex: "#FF0000", TextColor: "#FFFFFF", Label: string(p)}
	case PriorityUrgent:
		return Color{Hex: "#FFA500", TextColor: "#000000", Label: string(p)}
	case PriorityStable:
		return Color{Hex: "#00CC00", TextColor: "#000000", Label: string(p)}
	default:
		return Color{Hex: "#808080", TextColor: "#FFFFFF", Label: string(PriorityUnknown)}
	}
}
